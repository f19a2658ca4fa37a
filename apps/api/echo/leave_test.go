package echoapi

import (
	"net/http"
	"testing"
	"time"

	"github.com/agridesk/portal/core/leave"
	"github.com/agridesk/portal/core/profile"
	testutil "github.com/agridesk/portal/tests"
)

func leaveDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func createLeave(t *testing.T, env *testEnv, token string, start, end time.Time) leave.Request {
	t.Helper()
	body := marshalObj(t, leave.NewRequest{
		Type:      leave.TypeAnnual,
		StartDate: start,
		EndDate:   end,
		Reason:    "family visit",
	})
	rec := env.do(newAuthRequest(http.MethodPost, "/v1/leave-requests", token, body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create leave: code = %d; body %s", rec.Code, rec.Body.String())
	}
	var req leave.Request
	decodeBody(t, rec, &req)
	return req
}

func TestLeaveAPI_create(t *testing.T) {
	env := newTestEnv(t)
	emp := testutil.CreateProfile(t, env.prof, "emp1", "Ed Clerk", "ed@test.test", profile.RoleEmployee)

	req := createLeave(t, env, env.getToken(t, emp), leaveDay(2026, time.March, 2), leaveDay(2026, time.March, 4))
	if req.EmployeeID != emp.ID {
		t.Errorf("EmployeeID = %q, want the creator %q", req.EmployeeID, emp.ID)
	}
	if req.TotalDays != 3 {
		t.Errorf("TotalDays = %d, want 3", req.TotalDays)
	}
	if req.Status != leave.StatusPending {
		t.Errorf("Status = %q, want %q", req.Status, leave.StatusPending)
	}
}

func TestLeaveAPI_createGuards(t *testing.T) {
	env := newTestEnv(t)
	farmer := testutil.CreateProfile(t, env.prof, "farm1", "Fay Field", "fay@test.test", profile.RoleFarmer)
	emp := testutil.CreateProfile(t, env.prof, "emp1", "Ed Clerk", "ed@test.test", profile.RoleEmployee)

	// applicants have no leave to request
	body := marshalObj(t, leave.NewRequest{
		Type:      leave.TypeSick,
		StartDate: leaveDay(2026, time.March, 2),
		EndDate:   leaveDay(2026, time.March, 3),
		Reason:    "flu",
	})
	rec := env.do(newAuthRequest(http.MethodPost, "/v1/leave-requests", env.getToken(t, farmer), body))
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusForbidden,
		wantData: marshalObj(t, httpErr{Error: "permission denied"}),
	}, rec)

	// end before start never reaches the store
	body = marshalObj(t, leave.NewRequest{
		Type:      leave.TypeSick,
		StartDate: leaveDay(2026, time.March, 3),
		EndDate:   leaveDay(2026, time.March, 2),
		Reason:    "flu",
	})
	rec = env.do(newAuthRequest(http.MethodPost, "/v1/leave-requests", env.getToken(t, emp), body))
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marshalObj(t, map[string]string{"end_date": "end date must not be before start date"}),
	}, rec)
}

func TestLeaveAPI_approvalFlow(t *testing.T) {
	env := newTestEnv(t)
	emp := testutil.CreateProfile(t, env.prof, "emp1", "Ed Clerk", "ed@test.test", profile.RoleEmployee)
	sup := testutil.CreateProfile(t, env.prof, "sup1", "Sue Super", "sue@test.test", profile.RoleSupervisor)

	req := createLeave(t, env, env.getToken(t, emp), leaveDay(2026, time.April, 6), leaveDay(2026, time.April, 10))

	// employees cannot resolve requests
	rec := env.do(newAuthRequest(http.MethodPost, "/v1/leave-requests/"+req.ID+"/approve", env.getToken(t, emp)))
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusForbidden,
		wantData: marshalObj(t, httpErr{Error: "permission denied"}),
	}, rec)

	// supervisors can
	rec = env.do(newAuthRequest(http.MethodPost, "/v1/leave-requests/"+req.ID+"/approve", env.getToken(t, sup)))
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	decodeBody(t, rec, &req)
	if req.Status != leave.StatusApproved {
		t.Errorf("Status = %q, want %q", req.Status, leave.StatusApproved)
	}
	if req.ApprovedBy.String != sup.ID {
		t.Errorf("ApprovedBy = %q, want %q", req.ApprovedBy.String, sup.ID)
	}
	if !req.ApprovedAt.Valid {
		t.Error("ApprovedAt not stamped")
	}
}

func TestLeaveAPI_reject(t *testing.T) {
	env := newTestEnv(t)
	emp := testutil.CreateProfile(t, env.prof, "emp1", "Ed Clerk", "ed@test.test", profile.RoleEmployee)
	sup := testutil.CreateProfile(t, env.prof, "sup1", "Sue Super", "sue@test.test", profile.RoleSupervisor)

	req := createLeave(t, env, env.getToken(t, emp), leaveDay(2026, time.May, 4), leaveDay(2026, time.May, 8))

	body := marshalObj(t, RejectRequest{Reason: "peak season"})
	rec := env.do(newAuthRequest(http.MethodPost, "/v1/leave-requests/"+req.ID+"/reject", env.getToken(t, sup), body))
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	decodeBody(t, rec, &req)
	if req.Status != leave.StatusRejected {
		t.Errorf("Status = %q, want %q", req.Status, leave.StatusRejected)
	}
	if req.RejectionReason.String != "peak season" {
		t.Errorf("RejectionReason = %q, want %q", req.RejectionReason.String, "peak season")
	}

	// unknown target
	rec = env.do(newAuthRequest(http.MethodPost, "/v1/leave-requests/nope/reject", env.getToken(t, sup), body))
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusNotFound,
		wantData: marshalObj(t, httpErr{Error: "leave request not found"}),
	}, rec)
}

func TestLeaveAPI_ownerScopedQuery(t *testing.T) {
	env := newTestEnv(t)
	emp := testutil.CreateProfile(t, env.prof, "emp1", "Ed Clerk", "ed@test.test", profile.RoleEmployee)
	other := testutil.CreateProfile(t, env.prof, "emp2", "Olu Ade", "olu@test.test", profile.RoleEmployee)
	sup := testutil.CreateProfile(t, env.prof, "sup1", "Sue Super", "sue@test.test", profile.RoleSupervisor)

	createLeave(t, env, env.getToken(t, emp), leaveDay(2026, time.June, 1), leaveDay(2026, time.June, 2))
	createLeave(t, env, env.getToken(t, other), leaveDay(2026, time.June, 8), leaveDay(2026, time.June, 9))

	// employees see their own requests only
	rec := env.do(newAuthRequest(http.MethodGet, "/v1/leave-requests", env.getToken(t, emp)))
	var reqs []leave.Request
	decodeBody(t, rec, &reqs)
	if len(reqs) != 1 || reqs[0].EmployeeID != emp.ID {
		t.Errorf("employee list = %+v, want only their own request", reqs)
	}

	// approvers see all
	rec = env.do(newAuthRequest(http.MethodGet, "/v1/leave-requests", env.getToken(t, sup)))
	decodeBody(t, rec, &reqs)
	if len(reqs) != 2 {
		t.Errorf("approver list len = %d, want 2", len(reqs))
	}
}
