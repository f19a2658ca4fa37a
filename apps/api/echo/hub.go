package echoapi

import (
	"sync"

	"github.com/agridesk/portal/core"
	"github.com/agridesk/portal/core/application"
	"github.com/agridesk/portal/core/leave"
	"github.com/agridesk/portal/core/notification"
	"github.com/agridesk/portal/core/profile"
	"github.com/agridesk/portal/core/session"
	"github.com/agridesk/portal/core/task"
)

type (
	HubDeps struct {
		Applications  application.Repository
		Tasks         task.Repository
		Leaves        leave.Repository
		Notifications notification.Repository
		Profiles      profile.Repository
		Feed          notification.Feed
		Alert         core.Alerter
		Logger        core.Logger
		Mail          core.EmailService
	}

	// Hub lazily builds one hook set per signed-in profile. Each set owns a
	// Session so its caches and live subscription follow that profile alone.
	Hub struct {
		deps HubDeps

		mu    sync.Mutex
		hooks map[string]*Hooks // keyed by profile ID
	}

	// Hooks is one profile's view of the portal data.
	Hooks struct {
		Session       *session.Session
		Applications  *application.Service
		Tasks         *task.Service
		Leaves        *leave.Service
		Notifications *notification.Service
	}
)

func NewHub(deps HubDeps) *Hub {
	return &Hub{deps: deps, hooks: make(map[string]*Hooks)}
}

// HooksFor returns the hook set bound to prof, building and signing it in on
// first use. Subsequent requests with a changed profile re-authenticate the
// session so every hook refetches against the new role.
func (hub *Hub) HooksFor(prof profile.Profile) *Hooks {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	if hooks, ok := hub.hooks[prof.ID]; ok {
		if cur := hooks.Session.Profile(); cur == nil || cur.Role != prof.Role || cur.UpdatedAt != prof.UpdatedAt {
			hooks.Session.Authenticate(session.Identity{ID: prof.ID}, prof)
		}
		return hooks
	}

	sess := session.New()
	hooks := &Hooks{
		Session:      sess,
		Applications: application.NewService(hub.deps.Applications, sess, hub.deps.Alert, hub.deps.Logger),
		Tasks:        task.NewService(hub.deps.Tasks, sess, hub.deps.Alert, hub.deps.Logger),
		Leaves:       leave.NewService(hub.deps.Leaves, sess, hub.deps.Alert, hub.deps.Logger),
		Notifications: notification.NewService(
			hub.deps.Notifications, hub.deps.Feed, sess, hub.deps.Alert, hub.deps.Logger, hub.deps.Mail, hub.deps.Profiles,
		),
	}
	hub.hooks[prof.ID] = hooks

	// sign in last: watchers are registered, so this triggers the initial
	// fetches and the live subscription
	sess.Authenticate(session.Identity{ID: prof.ID}, prof)
	return hooks
}

// Close signs out and tears down every hook set.
func (hub *Hub) Close() {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	for id, hooks := range hub.hooks {
		hooks.Session.Clear()
		hooks.Applications.Close()
		hooks.Tasks.Close()
		hooks.Leaves.Close()
		hooks.Notifications.Close()
		delete(hub.hooks, id)
	}
}
