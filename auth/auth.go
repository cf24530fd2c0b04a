// Package auth gates the session behind the password-verification
// collaborator. The network round trip itself lives in client.Verifier
// and runs off the UI loop; the gate only commits its outcome, so a
// rejected or unreachable verify leaves no partial state behind.
package auth

import (
	"github.com/nathoo/emberlight/client"
	"github.com/nathoo/emberlight/session"
)

// Gate holds the opaque session credential once verification succeeds
// and flips the session to Unlocked.
type Gate struct {
	sess *session.Session
	cred client.Credential
}

// New creates a gate for the given session.
func New(sess *session.Session) *Gate {
	return &Gate{sess: sess}
}

// Complete commits a successful verification: the credential is stored
// for later chat requests and the session unlocks. Calling it again
// replaces the credential; the unlock stays one-way.
func (g *Gate) Complete(cred client.Credential) {
	g.cred = cred
	g.sess.Unlock()
}

// Credential returns the stored credential, or "" before verification.
func (g *Gate) Credential() client.Credential {
	return g.cred
}
