// Package playback implements audio.Device over the system speaker
// using github.com/gopxl/beep. Tracks are files under an asset root;
// gain maps onto the Volume effect's exponent, with gain 0 as silence.
package playback

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"

	"github.com/nathoo/emberlight/audio"
)

// Device plays tracks through one shared speaker. All tracks are
// resampled to its rate so the speaker is initialized exactly once.
type Device struct {
	root string
	rate beep.SampleRate
}

// New opens the speaker and returns a device rooted at the given asset
// directory. A speaker that cannot be opened (no audio hardware,
// headless CI) is reported to the caller, who should fall back to a
// silent device.
func New(root string) (*Device, error) {
	rate := beep.SampleRate(44100)
	if err := speaker.Init(rate, rate.N(100*time.Millisecond)); err != nil {
		return nil, fmt.Errorf("opening speaker: %w", err)
	}
	return &Device{root: root, rate: rate}, nil
}

// Play decodes the track file and starts it on the speaker at silence;
// the engine sets the gain it wants afterwards.
func (d *Device) Play(track string, loop bool) (audio.Handle, error) {
	if track == "" {
		return nil, fmt.Errorf("empty track reference")
	}

	f, err := os.Open(filepath.Join(d.root, track))
	if err != nil {
		return nil, fmt.Errorf("opening track %s: %w", track, err)
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format
	switch strings.ToLower(filepath.Ext(track)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	default:
		f.Close()
		return nil, fmt.Errorf("unsupported track format %q", filepath.Ext(track))
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decoding track %s: %w", track, err)
	}

	var s beep.Streamer = streamer
	if loop {
		s = beep.Loop(-1, streamer)
	}
	if format.SampleRate != d.rate {
		s = beep.Resample(4, format.SampleRate, d.rate, s)
	}

	vol := &effects.Volume{Streamer: s, Base: 2, Silent: true}
	ctrl := &beep.Ctrl{Streamer: vol}
	speaker.Play(ctrl)

	return &trackHandle{vol: vol, ctrl: ctrl, src: streamer}, nil
}

// trackHandle is one playing file on the shared speaker.
type trackHandle struct {
	vol  *effects.Volume
	ctrl *beep.Ctrl
	src  beep.StreamSeekCloser
}

// SetGain maps the engine's linear [0,1] gain onto the Volume effect.
// The effect is exponential, so gain g becomes an exponent of log2(g);
// zero cannot be expressed that way and uses the Silent flag instead.
func (h *trackHandle) SetGain(g float64) {
	speaker.Lock()
	defer speaker.Unlock()
	if g <= 0 {
		h.vol.Silent = true
		return
	}
	if g > 1 {
		g = 1
	}
	h.vol.Silent = false
	h.vol.Volume = math.Log2(g)
}

// Stop detaches the stream from the speaker mixer and closes the
// decoder.
func (h *trackHandle) Stop() {
	speaker.Lock()
	h.ctrl.Streamer = nil
	speaker.Unlock()
	h.src.Close()
}

// Silent is a Device that plays nothing, for headless environments
// where the speaker cannot open. Handles accept gain changes and stops
// so the engine runs unchanged.
type Silent struct{}

func (Silent) Play(track string, loop bool) (audio.Handle, error) {
	return silentHandle{}, nil
}

type silentHandle struct{}

func (silentHandle) SetGain(float64) {}
func (silentHandle) Stop()           {}
