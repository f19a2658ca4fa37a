package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/agridesk/portal/core"
	"github.com/agridesk/portal/core/application"
	"github.com/agridesk/portal/core/profile"
	"github.com/agridesk/portal/core/session"
	inmemdb "github.com/agridesk/portal/storage/database/inmem"
	testutil "github.com/agridesk/portal/tests"
)

var errRepoDown = errors.New("repo down")

// flakyApplicationRepo wraps a real repo and fails on demand.
type flakyApplicationRepo struct {
	application.Repository
	fail bool
}

func (r *flakyApplicationRepo) QueryAllApplications(ctx context.Context) ([]application.Application, error) {
	if r.fail {
		return nil, errRepoDown
	}
	return r.Repository.QueryAllApplications(ctx)
}

func (r *flakyApplicationRepo) QueryApplicationsByApplicant(ctx context.Context, applicantID string) ([]application.Application, error) {
	if r.fail {
		return nil, errRepoDown
	}
	return r.Repository.QueryApplicationsByApplicant(ctx, applicantID)
}

func (r *flakyApplicationRepo) CreateApplication(ctx context.Context, app application.Application) (application.Application, error) {
	if r.fail {
		return application.Application{}, errRepoDown
	}
	return r.Repository.CreateApplication(ctx, app)
}

func setup(t *testing.T) (*flakyApplicationRepo, profile.Repository, *session.Session, *testutil.Alerter, *application.Service) {
	t.Helper()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	repo := &flakyApplicationRepo{Repository: inmemdb.NewApplicationRepository(db)}
	profRepo := inmemdb.NewProfileRepository(db)

	sess := session.New()
	alerter := testutil.NewAlerter()
	svc := application.NewService(repo, sess, alerter, testutil.NewLogger())
	t.Cleanup(svc.Close)
	return repo, profRepo, sess, alerter, svc
}

func signIn(sess *session.Session, prof profile.Profile) {
	sess.Authenticate(session.Identity{ID: prof.ID}, prof)
}

func TestService_Create_stampsOwnership(t *testing.T) {
	_, profRepo, sess, alerter, svc := setup(t)
	farmer := testutil.CreateProfile(t, profRepo, "farmer1", "Jane Farmer", "jane@test.test", profile.RoleFarmer)
	signIn(sess, farmer)

	created, err := svc.Create(context.Background(), application.NewApplication{
		Type:  application.TypePermit,
		Title: "Water use permit",
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if created.ApplicantID != farmer.ID {
		t.Errorf("ApplicantID = %q, want %q", created.ApplicantID, farmer.ID)
	}
	if created.Status != application.StatusPending {
		t.Errorf("Status = %q, want %q", created.Status, application.StatusPending)
	}
	if created.Priority != application.PriorityMedium {
		t.Errorf("Priority = %q, want %q", created.Priority, application.PriorityMedium)
	}
	if created.SubmittedAt.IsZero() {
		t.Error("SubmittedAt not stamped")
	}

	items := svc.Items()
	if len(items) != 1 || items[0].ID != created.ID {
		t.Errorf("Items() = %+v, want the created application", items)
	}
	if len(alerter.Successes) == 0 {
		t.Error("expected a success notice")
	}
}

func TestService_Create_notAuthenticated(t *testing.T) {
	_, _, _, alerter, svc := setup(t)

	_, err := svc.Create(context.Background(), application.NewApplication{Type: application.TypePermit, Title: "x"})
	if err != core.ErrNotAuthenticated {
		t.Errorf("Create() error = %v, want ErrNotAuthenticated", err)
	}
	if len(alerter.Failures) == 0 {
		t.Error("expected a failure notice")
	}
}

func TestService_Refetch_farmerSeesOnlyOwn(t *testing.T) {
	repo, profRepo, sess, _, svc := setup(t)
	farmer := testutil.CreateProfile(t, profRepo, "farmer1", "Jane Farmer", "jane@test.test", profile.RoleFarmer)
	other := testutil.CreateProfile(t, profRepo, "farmer2", "Sam Grower", "sam@test.test", profile.RoleFarmer)
	employee := testutil.CreateProfile(t, profRepo, "emp1", "Ed Clerk", "ed@test.test", profile.RoleEmployee)

	ctx := context.Background()
	mustCreate(t, repo, application.Application{ApplicantID: farmer.ID, Type: application.TypeLicense, Title: "A", Status: application.StatusPending, Priority: application.PriorityLow})
	mustCreate(t, repo, application.Application{ApplicantID: other.ID, Type: application.TypeSubsidy, Title: "B", Status: application.StatusPending, Priority: application.PriorityLow})

	signIn(sess, farmer)
	if err := svc.Refetch(ctx); err != nil {
		t.Fatalf("Refetch() failed: %v", err)
	}
	items := svc.Items()
	if len(items) != 1 || items[0].ApplicantID != farmer.ID {
		t.Errorf("farmer Items() = %+v, want only own applications", items)
	}
	if items[0].Applicant == nil || items[0].Applicant.FullName != farmer.FullName {
		t.Errorf("Applicant info = %+v, want joined profile", items[0].Applicant)
	}

	signIn(sess, employee)
	if got := len(svc.Items()); got != 2 {
		t.Errorf("employee Items() len = %d, want 2", got)
	}
}

func TestService_Refetch_failureKeepsCache(t *testing.T) {
	repo, profRepo, sess, alerter, svc := setup(t)
	employee := testutil.CreateProfile(t, profRepo, "emp1", "Ed Clerk", "ed@test.test", profile.RoleEmployee)
	mustCreate(t, repo, application.Application{ApplicantID: employee.ID, Type: application.TypeLicense, Title: "A", Status: application.StatusPending, Priority: application.PriorityLow})

	signIn(sess, employee)
	if got := len(svc.Items()); got != 1 {
		t.Fatalf("Items() len = %d, want 1", got)
	}

	repo.fail = true
	err := svc.Refetch(context.Background())
	if !core.IsRemote(err) {
		t.Errorf("Refetch() error = %v, want RemoteError", err)
	}
	if got := len(svc.Items()); got != 1 {
		t.Errorf("Items() len after failed refetch = %d, want 1 (last known good)", got)
	}
	if len(alerter.Failures) == 0 {
		t.Error("expected an error notice")
	}
}

func TestService_Update_reflectedAfterRefetch(t *testing.T) {
	repo, profRepo, sess, _, svc := setup(t)
	admin := testutil.CreateProfile(t, profRepo, "adm1", "Ada Admin", "ada@test.test", profile.RoleAdmin)
	app := mustCreate(t, repo, application.Application{ApplicantID: admin.ID, Type: application.TypeLicense, Title: "A", Status: application.StatusPending, Priority: application.PriorityLow})

	signIn(sess, admin)

	var patch application.UpdateApplication
	patch.Status.SetValid(application.StatusApproved)
	if _, err := svc.Update(context.Background(), app.ID, patch); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}

	items := svc.Items()
	if len(items) != 1 || items[0].Status != application.StatusApproved {
		t.Errorf("Items() after update = %+v, want status approved", items)
	}
}

func TestService_Update_unknownStatus(t *testing.T) {
	_, profRepo, sess, _, svc := setup(t)
	admin := testutil.CreateProfile(t, profRepo, "adm1", "Ada Admin", "ada@test.test", profile.RoleAdmin)
	signIn(sess, admin)

	var patch application.UpdateApplication
	patch.Status.SetValid("bogus")
	_, err := svc.Update(context.Background(), "whatever", patch)
	if _, ok := err.(*core.ValidationError); !ok {
		t.Errorf("Update() error = %T, want *core.ValidationError", err)
	}
}

func mustCreate(t *testing.T, repo application.Repository, app application.Application) application.Application {
	t.Helper()
	created, err := repo.CreateApplication(context.Background(), app)
	if err != nil {
		t.Fatalf("CreateApplication() failed: %v", err)
	}
	return created
}
