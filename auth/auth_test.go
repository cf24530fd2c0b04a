package auth

import (
	"testing"

	"github.com/nathoo/emberlight/session"
	"github.com/nathoo/emberlight/types"
	"github.com/nathoo/emberlight/world"
)

func testSession() *session.Session {
	return session.New(&world.Defs{
		Story: types.StoryDef{Entry: "entrance"},
		Locations: map[string]types.Location{
			"entrance": {ID: "entrance", Name: "Entrance Hall"},
		},
	})
}

func TestComplete_UnlocksAndStoresCredential(t *testing.T) {
	sess := testSession()
	g := New(sess)

	if g.Credential() != "" {
		t.Error("expected empty credential before verification")
	}

	g.Complete("tok-123")

	if sess.Auth() != types.Unlocked {
		t.Error("expected session to be Unlocked")
	}
	if g.Credential() != "tok-123" {
		t.Errorf("expected tok-123, got %q", g.Credential())
	}
}

func TestComplete_RepeatReplacesCredential(t *testing.T) {
	sess := testSession()
	g := New(sess)

	g.Complete("first")
	g.Complete("second")

	if g.Credential() != "second" {
		t.Errorf("expected second, got %q", g.Credential())
	}
	if sess.Auth() != types.Unlocked {
		t.Error("expected session to stay Unlocked")
	}
}

func TestFailedVerify_LeavesSessionLocked(t *testing.T) {
	sess := testSession()
	New(sess)

	// A rejected or unreachable verify never reaches Complete; the
	// session must still be Locked with nothing committed.
	if sess.Auth() != types.Locked {
		t.Error("expected session to remain Locked")
	}
	if len(sess.Transcript()) != 0 {
		t.Error("expected no transcript entries")
	}
}
