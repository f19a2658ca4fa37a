package session

import (
	"testing"

	"github.com/agridesk/portal/core/profile"
)

func TestSession_Authenticate_notifiesWatchers(t *testing.T) {
	sess := New()

	var got []*profile.Profile
	sess.Watch(func(prof *profile.Profile) { got = append(got, prof) })

	prof := profile.Profile{ID: "u1", FullName: "Jane Farmer", Role: profile.RoleFarmer}
	sess.Authenticate(Identity{ID: "u1"}, prof)

	if len(got) != 1 {
		t.Fatalf("watcher calls = %d, want 1", len(got))
	}
	if got[0] == nil || got[0].ID != "u1" {
		t.Errorf("watcher profile = %+v, want ID u1", got[0])
	}
	if ident := sess.Identity(); ident == nil || ident.ID != "u1" {
		t.Errorf("Identity() = %+v, want ID u1", ident)
	}

	sess.Clear()
	if len(got) != 2 || got[1] != nil {
		t.Errorf("watcher after Clear = %+v, want nil", got)
	}
	if sess.Profile() != nil {
		t.Error("Profile() after Clear should be nil")
	}
}

func TestSession_Watch_cancel(t *testing.T) {
	sess := New()

	var calls int
	cancel := sess.Watch(func(*profile.Profile) { calls++ })

	prof := profile.Profile{ID: "u1", Role: profile.RoleAdmin}
	sess.Authenticate(Identity{ID: "u1"}, prof)
	cancel()
	sess.Clear()

	if calls != 1 {
		t.Errorf("watcher calls = %d, want 1 (none after cancel)", calls)
	}
}

func TestSession_watcherGetsCopy(t *testing.T) {
	sess := New()

	sess.Watch(func(prof *profile.Profile) {
		if prof != nil {
			prof.FullName = "mutated"
		}
	})
	sess.Authenticate(Identity{ID: "u1"}, profile.Profile{ID: "u1", FullName: "Original", Role: profile.RoleEmployee})

	if prof := sess.Profile(); prof.FullName != "Original" {
		t.Errorf("Profile().FullName = %q, want %q", prof.FullName, "Original")
	}
}
