package echoapi

import (
	"net/http"
	"testing"

	"github.com/agridesk/portal/core/profile"
	"github.com/agridesk/portal/core/task"
	testutil "github.com/agridesk/portal/tests"
)

func TestTaskAPI_createRoleGate(t *testing.T) {
	env := newTestEnv(t)
	farmer := testutil.CreateProfile(t, env.prof, "farm1", "Fay Field", "fay@test.test", profile.RoleFarmer)
	emp := testutil.CreateProfile(t, env.prof, "emp1", "Ed Clerk", "ed@test.test", profile.RoleEmployee)

	body := marshalObj(t, task.NewTask{Title: "Site visit", AssignedTo: emp.ID})

	// applicants may not create tasks
	rec := env.do(newAuthRequest(http.MethodPost, "/v1/tasks", env.getToken(t, farmer), body))
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusForbidden,
		wantData: marshalObj(t, httpErr{Error: "permission denied"}),
	}, rec)

	// staff may
	rec = env.do(newAuthRequest(http.MethodPost, "/v1/tasks", env.getToken(t, emp), body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("code = %d, want 201; body %s", rec.Code, rec.Body.String())
	}

	var tsk task.Task
	decodeBody(t, rec, &tsk)
	if tsk.AssignedBy != emp.ID {
		t.Errorf("AssignedBy = %q, want the creator %q", tsk.AssignedBy, emp.ID)
	}
	if tsk.Status != task.StatusTodo {
		t.Errorf("Status = %q, want %q", tsk.Status, task.StatusTodo)
	}
	if tsk.AssignedUser == nil || tsk.AssignedUser.FullName != emp.FullName {
		t.Errorf("AssignedUser = %+v, want joined assignee info", tsk.AssignedUser)
	}
}

func TestTaskAPI_queryIsUnscoped(t *testing.T) {
	env := newTestEnv(t)
	emp := testutil.CreateProfile(t, env.prof, "emp1", "Ed Clerk", "ed@test.test", profile.RoleEmployee)
	other := testutil.CreateProfile(t, env.prof, "emp2", "Olu Ade", "olu@test.test", profile.RoleEmployee)

	for _, title := range []string{"Inspect plot 4", "Review permit file"} {
		body := marshalObj(t, task.NewTask{Title: title, AssignedTo: other.ID})
		rec := env.do(newAuthRequest(http.MethodPost, "/v1/tasks", env.getToken(t, emp), body))
		if rec.Code != http.StatusCreated {
			t.Fatalf("create %q: code = %d; body %s", title, rec.Code, rec.Body.String())
		}
	}

	// every staff member sees the whole board, assignee or not
	rec := env.do(newAuthRequest(http.MethodGet, "/v1/tasks", env.getToken(t, emp)))
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d; body %s", rec.Code, rec.Body.String())
	}
	var tasks []task.Task
	decodeBody(t, rec, &tasks)
	if len(tasks) != 2 {
		t.Errorf("list len = %d, want 2", len(tasks))
	}
}

func TestTaskAPI_complete(t *testing.T) {
	env := newTestEnv(t)
	emp := testutil.CreateProfile(t, env.prof, "emp1", "Ed Clerk", "ed@test.test", profile.RoleEmployee)
	token := env.getToken(t, emp)

	body := marshalObj(t, task.NewTask{Title: "File annual report", AssignedTo: emp.ID})
	rec := env.do(newAuthRequest(http.MethodPost, "/v1/tasks", token, body))
	var tsk task.Task
	decodeBody(t, rec, &tsk)

	rec = env.do(newAuthRequest(http.MethodPost, "/v1/tasks/"+tsk.ID+"/complete", token))
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	decodeBody(t, rec, &tsk)
	if tsk.Status != task.StatusCompleted {
		t.Errorf("Status = %q, want %q", tsk.Status, task.StatusCompleted)
	}
	if !tsk.CompletedAt.Valid {
		t.Error("CompletedAt not stamped")
	}

	// unknown target
	rec = env.do(newAuthRequest(http.MethodPost, "/v1/tasks/nope/complete", token))
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusNotFound,
		wantData: marshalObj(t, httpErr{Error: "task not found"}),
	}, rec)
}

func TestTaskAPI_destroy(t *testing.T) {
	env := newTestEnv(t)
	emp := testutil.CreateProfile(t, env.prof, "emp1", "Ed Clerk", "ed@test.test", profile.RoleEmployee)
	token := env.getToken(t, emp)

	body := marshalObj(t, task.NewTask{Title: "Obsolete chore", AssignedTo: emp.ID})
	rec := env.do(newAuthRequest(http.MethodPost, "/v1/tasks", token, body))
	var tsk task.Task
	decodeBody(t, rec, &tsk)

	rec = env.do(newAuthRequest(http.MethodDelete, "/v1/tasks/"+tsk.ID, token))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("code = %d, want 204; body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(newAuthRequest(http.MethodGet, "/v1/tasks", token))
	var tasks []task.Task
	decodeBody(t, rec, &tasks)
	if len(tasks) != 0 {
		t.Errorf("list len = %d, want 0 after delete", len(tasks))
	}
}
