package inmemdb

import (
	"sync"

	"github.com/agridesk/portal/core/application"
	"github.com/agridesk/portal/core/leave"
	"github.com/agridesk/portal/core/notification"
	"github.com/agridesk/portal/core/profile"
	"github.com/agridesk/portal/core/task"
)

// DB is an in-memory stand-in for the Postgres store, used in tests and
// debug runs without a database.
type (
	DB struct {
		profile      *profileTable
		application  *applicationTable
		task         *taskTable
		leave        *leaveTable
		notification *notificationTable
	}

	profileTable struct {
		sync.RWMutex
		table map[string]*profile.Profile
	}

	applicationTable struct {
		sync.RWMutex
		table map[string]*application.Application
	}

	taskTable struct {
		sync.RWMutex
		table map[string]*task.Task
	}

	leaveTable struct {
		sync.RWMutex
		table map[string]*leave.Request
	}

	notificationTable struct {
		sync.RWMutex
		table map[string]*notification.Notification
	}
)

func Open() (*DB, error) {
	db := &DB{
		profile:      &profileTable{table: make(map[string]*profile.Profile)},
		application:  &applicationTable{table: make(map[string]*application.Application)},
		task:         &taskTable{table: make(map[string]*task.Task)},
		leave:        &leaveTable{table: make(map[string]*leave.Request)},
		notification: &notificationTable{table: make(map[string]*notification.Notification)},
	}
	return db, nil
}

// info resolves the joined profile subset for an id; nil when missing.
// Caller must hold at least a read lock on the profile table.
func (db *DB) info(id string) *profile.Info {
	prof, ok := db.profile.table[id]
	if !ok {
		return nil
	}
	return &profile.Info{
		FullName:   prof.FullName,
		Email:      prof.Email,
		Phone:      prof.Phone,
		Department: prof.Department,
		Position:   prof.Position,
	}
}
