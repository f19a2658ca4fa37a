package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/agridesk/portal/core"
	"github.com/agridesk/portal/core/profile"
	"github.com/agridesk/portal/services/realtime"
	inmemdb "github.com/agridesk/portal/storage/database/inmem"
	testutil "github.com/agridesk/portal/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

// testEnv wires a full in-process API over the in-memory store.
type testEnv struct {
	conf    *core.Config
	server  Server
	db      *inmemdb.DB
	prof    profile.Repository
	alerter *testutil.Alerter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conf := &core.Config{
		AppName:   "Agridesk",
		Env:       "TEST",
		TestMode:  true,
		SecretKey: "secret",
		Server: core.ServerConfig{
			JWTExpirationDelta: 10 * time.Minute,
		},
	}

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}

	validate := validator.New()
	translator := newTestTranslator()
	core.InitValidators(validate, translator)
	profile.InitValidators(validate, translator)

	profRepo := inmemdb.NewProfileRepository(db)
	alerter := testutil.NewAlerter()
	hub := NewHub(HubDeps{
		Applications:  inmemdb.NewApplicationRepository(db),
		Tasks:         inmemdb.NewTaskRepository(db),
		Leaves:        inmemdb.NewLeaveRepository(db),
		Notifications: inmemdb.NewNotificationRepository(db),
		Profiles:      profRepo,
		Feed:          realtime.NewInprocFeed(),
		Alert:         alerter,
		Logger:        testutil.NewLogger(),
	})
	t.Cleanup(hub.Close)

	env := &testEnv{
		conf: conf,
		db:   db,
		prof: profRepo,
		server: NewServer(ServerDeps{
			Conf:           conf,
			Logger:         testutil.NewLogger(),
			Hub:            hub,
			Profiles:       profRepo,
			Validate:       validate,
			Translator:     translator,
			DisableReqLogs: true,
		}),
		alerter: alerter,
	}
	return env
}

func newTestTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func (env *testEnv) getToken(t *testing.T, prof profile.Profile) string {
	t.Helper()
	token, err := GenerateToken(env.conf, GetProfileClaims(env.conf, prof))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func (env *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	return rec
}

func newAuthRequest(method, path, token string, data ...[]byte) *http.Request {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func newRequest(method, path string, data ...[]byte) *http.Request {
	return newAuthRequest(method, path, "", data...)
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("decodeBody() failed: %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	t.Helper()
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
