package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/agridesk/portal/core/notification"
	"github.com/agridesk/portal/core/profile"
	"github.com/agridesk/portal/services/realtime"
	inmemdb "github.com/agridesk/portal/storage/database/inmem"
	testutil "github.com/agridesk/portal/tests"
)

var (
	profRepo  profile.Repository
	notifRepo notification.Repository
)

func setup(t *testing.T) *commandLine {
	t.Helper()

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags)

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	profRepo = inmemdb.NewProfileRepository(db)
	notifRepo = inmemdb.NewNotificationRepository(db)

	// start CLI; migrate tests stub out goose so no live connection is needed
	return &commandLine{
		db:        &sqlx.DB{},
		profSvc:   profile.NewService(profRepo),
		notifRepo: notifRepo,
		feed:      realtime.NewInprocFeed(),
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func checkCliErr(t *testing.T, tt cliTest, err error) {
	t.Helper()
	if err == nil {
		if tt.wantErr != nil || tt.wantErrStr != "" {
			t.Errorf("cli.run() error = nil, want %v%s", tt.wantErr, tt.wantErrStr)
		}
		return
	}
	if tt.wantErr != nil {
		if err != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	} else if tt.wantErrStr != "" {
		if err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
		}
	} else {
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var gotCommands []string
	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		gotCommands = append(gotCommands, strings.Join(append([]string{command}, args...), " "))
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s requires a VERSION argument", command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create requires a NAME argument")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no command", args: nil, wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to requires a VERSION argument"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "bare migrate defaults to up", args: []string{"migrate"}},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "notifications", "sql"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkCliErr(t, tt, cli.run(args))
		})
	}

	for _, cmd := range gotCommands {
		if cmd == "up" {
			return
		}
	}
	t.Errorf("goose commands %v missing the default up run", gotCommands)
}

func Test_commandLine_addProfile(t *testing.T) {
	cli := setup(t)

	existing := testutil.CreateProfile(t, profRepo, "emp1", "Ed Clerk", "ed@test.test", profile.RoleEmployee)

	tests := []cliTest{
		{name: "no args", args: []string{"addprofile"}, wantErr: errHelp},
		{name: "missing email", args: []string{"addprofile", "-id", "x1", "-name", "X"}, wantErr: errHelp},
		{name: "unknown role", args: []string{"addprofile", "-id", "x1", "-email", "x@test.test", "-name", "X", "-role", "ceo"},
			wantErrStr: `unknown role "ceo"`},
		{name: "duplicate id", args: []string{"addprofile", "-id", existing.ID, "-email", "dup@test.test", "-name", "Dup"},
			wantErrStr: `profile "emp1" already exists`},
		{name: "duplicate email", args: []string{"addprofile", "-id", "emp9", "-email", "Ed@Test.Test", "-name", "Ed Twin"},
			wantErrStr: `email "ed@test.test" already registered`},
		{name: "defaults to employee", args: []string{"addprofile", "-id", "emp2", "-email", "Olu@Test.Test", "-name", "Olu Ade"}},
		{name: "farmer with phone", args: []string{"addprofile", "-id", "farm1", "-email", "fay@test.test", "-name", "Fay Field", "-role", "farmer", "-phone", "+254700000001"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkCliErr(t, tt, cli.run(args))
		})
	}

	prof, err := profRepo.GetProfileByID(context.Background(), "emp2")
	if err != nil {
		t.Fatalf("GetProfileByID() failed: %v", err)
	}
	if prof.Role != profile.RoleEmployee {
		t.Errorf("Role = %q, want %q", prof.Role, profile.RoleEmployee)
	}
	if prof.Email != "olu@test.test" {
		t.Errorf("Email = %q, want lowercased", prof.Email)
	}

	prof, err = profRepo.GetProfileByID(context.Background(), "farm1")
	if err != nil {
		t.Fatalf("GetProfileByID() failed: %v", err)
	}
	if prof.Role != profile.RoleFarmer || prof.Phone.String != "+254700000001" {
		t.Errorf("profile = %+v, want farmer with phone", prof)
	}
}

func Test_commandLine_listProfiles(t *testing.T) {
	cli := setup(t)

	testutil.CreateProfile(t, profRepo, "emp1", "Ed Clerk", "ed@test.test", profile.RoleEmployee)
	testutil.CreateProfile(t, profRepo, "farm1", "Jane Farmer", "jane@test.test", profile.RoleFarmer)

	if err := cli.run([]string{"admin", "profiles"}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}

	profs, err := cli.profSvc.QueryAll(context.Background())
	if err != nil {
		t.Fatalf("QueryAll() failed: %v", err)
	}
	if len(profs) != 2 {
		t.Errorf("QueryAll() len = %d, want 2", len(profs))
	}
}

func Test_commandLine_notify(t *testing.T) {
	cli := setup(t)

	emp := testutil.CreateProfile(t, profRepo, "emp1", "Ed Clerk", "ed@test.test", profile.RoleEmployee)

	// a live subscriber sees the push
	var pushed []notification.Notification
	sub, err := cli.feed.Subscribe(context.Background(), emp.ID, func(n notification.Notification) {
		pushed = append(pushed, n)
	})
	if err != nil {
		t.Fatalf("Subscribe() failed: %v", err)
	}
	defer sub.Close()

	tests := []cliTest{
		{name: "no args", args: []string{"notify"}, wantErr: errHelp},
		{name: "missing message", args: []string{"notify", "-user", emp.ID, "-title", "Hi"}, wantErr: errHelp},
		{name: "unknown type", args: []string{"notify", "-user", emp.ID, "-title", "Hi", "-message", "m", "-type", "pigeon"},
			wantErrStr: `unknown notification type "pigeon"`},
		{name: "unknown recipient", args: []string{"notify", "-user", "ghost", "-title", "Hi", "-message", "m"},
			wantErrStr: `no profile "ghost"`},
		{name: "dispatch", args: []string{"notify", "-user", emp.ID, "-title", "Maintenance", "-message", "Portal down at noon"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkCliErr(t, tt, cli.run(args))
		})
	}

	notifs, err := notifRepo.QueryNotificationsByRecipient(context.Background(), emp.ID)
	if err != nil {
		t.Fatalf("QueryNotificationsByRecipient() failed: %v", err)
	}
	if len(notifs) != 1 || notifs[0].Title != "Maintenance" {
		t.Fatalf("stored notifications = %+v, want the dispatched one", notifs)
	}
	if notifs[0].Type != notification.TypeSystem {
		t.Errorf("Type = %q, want the %q default", notifs[0].Type, notification.TypeSystem)
	}
	if len(pushed) != 1 || pushed[0].ID != notifs[0].ID {
		t.Errorf("pushed = %+v, want the stored notification", pushed)
	}
}
