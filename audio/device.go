package audio

// Device starts playback of opaque track references. Implementations
// live behind this boundary (see audio/playback for the real one); the
// engine only starts, stops, and gain-controls what Play returns.
type Device interface {
	// Play begins playback of the given track at gain 0 when the
	// engine will ramp it, or at whatever gain the engine sets first.
	// Looping tracks restart themselves until stopped.
	Play(track string, loop bool) (Handle, error)
}

// Handle is one playing track. Handles are owned exclusively by the
// engine and never outlive the transition that created them.
type Handle interface {
	// SetGain sets the playback gain. Callers keep g within [0,1].
	SetGain(g float64)
	// Stop halts playback and releases the underlying resources.
	Stop()
}
