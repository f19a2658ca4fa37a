package task_test

import (
	"context"
	"errors"
	"testing"

	"github.com/agridesk/portal/core"
	"github.com/agridesk/portal/core/profile"
	"github.com/agridesk/portal/core/session"
	"github.com/agridesk/portal/core/task"
	inmemdb "github.com/agridesk/portal/storage/database/inmem"
	testutil "github.com/agridesk/portal/tests"
)

var errRepoDown = errors.New("repo down")

// countingTaskRepo records calls so role gates can be proven to fail fast.
type countingTaskRepo struct {
	task.Repository
	calls int
	fail  bool
}

func (r *countingTaskRepo) CreateTask(ctx context.Context, tsk task.Task) (task.Task, error) {
	r.calls++
	if r.fail {
		return task.Task{}, errRepoDown
	}
	return r.Repository.CreateTask(ctx, tsk)
}

func (r *countingTaskRepo) UpdateTask(ctx context.Context, id string, patch task.UpdateTask) (task.Task, error) {
	r.calls++
	if r.fail {
		return task.Task{}, errRepoDown
	}
	return r.Repository.UpdateTask(ctx, id, patch)
}

func setup(t *testing.T) (*countingTaskRepo, profile.Repository, *session.Session, *testutil.Alerter, *task.Service) {
	t.Helper()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	repo := &countingTaskRepo{Repository: inmemdb.NewTaskRepository(db)}
	profRepo := inmemdb.NewProfileRepository(db)

	sess := session.New()
	alerter := testutil.NewAlerter()
	svc := task.NewService(repo, sess, alerter, testutil.NewLogger())
	t.Cleanup(svc.Close)
	return repo, profRepo, sess, alerter, svc
}

func signIn(sess *session.Session, prof profile.Profile) {
	sess.Authenticate(session.Identity{ID: prof.ID}, prof)
}

func TestService_Create_stampsAssigner(t *testing.T) {
	_, profRepo, sess, _, svc := setup(t)
	supervisor := testutil.CreateProfile(t, profRepo, "sup1", "Sue Super", "sue@test.test", profile.RoleSupervisor)
	assignee := testutil.CreateProfile(t, profRepo, "emp1", "Ed Clerk", "ed@test.test", profile.RoleEmployee)
	signIn(sess, supervisor)

	created, err := svc.Create(context.Background(), task.NewTask{
		Title:      "Inspect farm 12",
		AssignedTo: assignee.ID,
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if created.AssignedBy != supervisor.ID {
		t.Errorf("AssignedBy = %q, want %q", created.AssignedBy, supervisor.ID)
	}
	if created.Status != task.StatusTodo {
		t.Errorf("Status = %q, want %q", created.Status, task.StatusTodo)
	}
	if created.AssignedUser == nil || created.AssignedUser.FullName != assignee.FullName {
		t.Errorf("AssignedUser = %+v, want joined assignee info", created.AssignedUser)
	}
}

func TestService_Create_farmerForbidden(t *testing.T) {
	repo, profRepo, sess, alerter, svc := setup(t)
	farmer := testutil.CreateProfile(t, profRepo, "farmer1", "Jane Farmer", "jane@test.test", profile.RoleFarmer)
	signIn(sess, farmer)

	_, err := svc.Create(context.Background(), task.NewTask{Title: "x", AssignedTo: "emp1"})
	if err != core.ErrForbidden {
		t.Errorf("Create() error = %v, want ErrForbidden", err)
	}
	if repo.calls != 0 {
		t.Errorf("repo calls = %d, want 0 (fail fast, no remote call)", repo.calls)
	}
	if len(alerter.Failures) == 0 {
		t.Error("expected a failure notice")
	}
}

func TestService_Complete(t *testing.T) {
	_, profRepo, sess, _, svc := setup(t)
	employee := testutil.CreateProfile(t, profRepo, "emp1", "Ed Clerk", "ed@test.test", profile.RoleEmployee)
	signIn(sess, employee)

	created, err := svc.Create(context.Background(), task.NewTask{Title: "File report", AssignedTo: employee.ID})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	completed, err := svc.Complete(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Complete() failed: %v", err)
	}
	if completed.Status != task.StatusCompleted {
		t.Errorf("Status = %q, want %q", completed.Status, task.StatusCompleted)
	}
	if !completed.CompletedAt.Valid {
		t.Error("CompletedAt not stamped")
	}

	items := svc.Items()
	if len(items) != 1 || items[0].Status != task.StatusCompleted {
		t.Errorf("Items() = %+v, want the completed task", items)
	}
}

func TestService_Create_remoteFailure(t *testing.T) {
	repo, profRepo, sess, alerter, svc := setup(t)
	employee := testutil.CreateProfile(t, profRepo, "emp1", "Ed Clerk", "ed@test.test", profile.RoleEmployee)
	signIn(sess, employee)

	repo.fail = true
	_, err := svc.Create(context.Background(), task.NewTask{Title: "x", AssignedTo: employee.ID})
	if !core.IsRemote(err) {
		t.Errorf("Create() error = %v, want RemoteError", err)
	}
	if got := len(svc.Items()); got != 0 {
		t.Errorf("Items() len = %d, want 0", got)
	}
	if len(alerter.Failures) == 0 {
		t.Error("expected an error notice")
	}
}
