package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/elimu/backend"
	"github.com/trezcool/elimu/backend/inmem"
	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/quiz"
	emailsvc "github.com/trezcool/elimu/services/email"
	logsvc "github.com/trezcool/elimu/services/logger"
)

var (
	errNotAuthenticated = httpErr{Error: "not authenticated"}
	errAuthFailed       = httpErr{Error: "authentication failed"}
	errNotFoundBody     = httpErr{Error: "not found"}
)

func setup(t *testing.T) (Server, *inmem.Client) {
	t.Helper()

	conf := &core.Config{
		SecretKey:        "s3cret",
		TestMode:         true,
		AppName:          "Elimu",
		DefaultFromEmail: "noreply@localhost",
	}
	conf.Server.TokenExpirationDelta = time.Hour

	logger := logsvc.NewStdLogger(log.New(ioutil.Discard, "", 0))
	client := inmem.Open(conf, logger)

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	course.InitValidators(validate, translator)
	quiz.InitValidators(validate, translator)

	courseSvc := course.NewService(client, emailsvc.NewConsoleServiceMock(conf), validate, logger)
	quizSvc := quiz.NewService(client, validate, logger)

	return NewServer(ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Client:     client,
		CourseSvc:  courseSvc,
		QuizSvc:    quizSvc,
		Validate:   validate,
		Translator: translator,
	}), client
}

// signUpUser creates an account with the given role and returns its token and
// user ID.
func signUpUser(t *testing.T, client *inmem.Client, email, role string) (token, userID string) {
	t.Helper()

	sess, err := client.SignUp(context.Background(), email, "Passw0rd!", "Test User")
	if err != nil {
		t.Fatalf("signUpUser() failed: %v", err)
	}
	if role != backend.DefaultRole {
		err = client.Update(context.Background(), backend.ProfileTable,
			backend.Row{"role": role}, backend.Filter{Column: "id", Value: sess.UserID})
		if err != nil {
			t.Fatalf("signUpUser() failed: %v", err)
		}
	}
	client.SignOut(context.Background())
	return sess.AccessToken, sess.UserID
}

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

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func unmarshalBody(rec *httptest.ResponseRecorder, v interface{}) error {
	return json.Unmarshal(rec.Body.Bytes(), v)
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
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
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
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
