// Package session holds the current authenticated identity and its profile.
// It replaces ambient globals with an explicitly injected object: hooks take
// the Session as a dependency and observe profile transitions through Watch.
package session

import (
	"sync"

	"github.com/agridesk/portal/core/profile"
)

// Identity is the external identity provider's handle for the signed-in user.
type Identity struct {
	ID string
}

// Session is established at application start, refreshed on sign-in/out and
// torn down on sign-out. Watchers fire on every transition: sign-in and
// profile swap deliver the new profile, sign-out delivers nil.
type Session struct {
	mu       sync.RWMutex
	identity *Identity
	profile  *profile.Profile
	watchers map[int]func(*profile.Profile)
	nextID   int
}

func New() *Session {
	return &Session{watchers: make(map[int]func(*profile.Profile))}
}

// Identity returns the current identity, or nil when signed out.
func (s *Session) Identity() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	ident := *s.identity
	return &ident
}

// Profile returns the current profile, or nil when absent.
func (s *Session) Profile() *profile.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	prof := *s.profile
	return &prof
}

// Authenticate installs the signed-in identity and its profile, then notifies
// watchers synchronously. Callers must not hold hook locks when signing in.
func (s *Session) Authenticate(ident Identity, prof profile.Profile) {
	s.mu.Lock()
	s.identity = &ident
	s.profile = &prof
	s.mu.Unlock()

	s.notify(&prof)
}

// Clear tears the session down on sign-out and notifies watchers with nil.
func (s *Session) Clear() {
	s.mu.Lock()
	s.identity = nil
	s.profile = nil
	s.mu.Unlock()

	s.notify(nil)
}

// Watch registers fn to run on every profile transition. The returned cancel
// removes the registration; hooks call it on teardown.
func (s *Session) Watch(fn func(*profile.Profile)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

func (s *Session) notify(prof *profile.Profile) {
	s.mu.RLock()
	fns := make([]func(*profile.Profile), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		var p *profile.Profile
		if prof != nil {
			cp := *prof
			p = &cp
		}
		fn(p)
	}
}
