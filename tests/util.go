package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/agridesk/portal/core"
	"github.com/agridesk/portal/core/profile"
)

// CreateProfile inserts a profile fixture and fails the test on error.
// The repository stamps CreatedAt and UpdatedAt on insert.
func CreateProfile(t *testing.T, repo profile.Repository, id, name, email, role string) profile.Profile {
	t.Helper()

	prof := profile.Profile{
		ID:       id,
		Email:    email,
		FullName: name,
		Role:     role,
	}
	prof, err := repo.CreateProfile(context.Background(), prof)
	if err != nil {
		t.Fatalf("CreateProfile() failed: %v", err)
	}
	return prof
}

// Alerter records every raised notice for assertions.
type Alerter struct {
	mu        sync.Mutex
	Successes []string
	Infos     []string
	Failures  []string
}

var _ core.Alerter = (*Alerter)(nil)

func NewAlerter() *Alerter { return &Alerter{} }

func (a *Alerter) Success(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Successes = append(a.Successes, msg)
}

func (a *Alerter) Info(title, msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Infos = append(a.Infos, title+": "+msg)
}

func (a *Alerter) Error(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Failures = append(a.Failures, msg)
}

// Logger swallows log output during tests.
type Logger struct{}

var _ core.Logger = (*Logger)(nil)

func NewLogger() *Logger { return &Logger{} }

func (l Logger) Debug(msg string, args ...interface{}) {}
func (l Logger) Info(msg string, args ...interface{})  {}
func (l Logger) Warn(msg string, args ...interface{})  {}
func (l Logger) Error(msg string, args ...interface{}) {}
func (l Logger) Fatal(msg string, args ...interface{}) {}
