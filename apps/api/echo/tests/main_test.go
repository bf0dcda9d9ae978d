package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	. "github.com/mzalendo/kazi/apps/api/echo"
	"github.com/mzalendo/kazi/core"
	"github.com/mzalendo/kazi/core/application"
	"github.com/mzalendo/kazi/core/checkin"
	"github.com/mzalendo/kazi/core/message"
	"github.com/mzalendo/kazi/core/position"
	"github.com/mzalendo/kazi/core/user"
	emailsvc "github.com/mzalendo/kazi/services/email"
	dummydb "github.com/mzalendo/kazi/storage/database/dummy"
)

var (
	app *Server

	db      *dummydb.DB
	usrRepo user.Repository
	posRepo position.Repository
	appRepo application.Repository
	chkRepo checkin.Repository

	chkSvc *checkin.Service

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

// noon UTC, inside the default window
var testNow = time.Date(2021, 3, 15, 12, 0, 0, 0, time.UTC)

type testLogger struct{}

func (testLogger) Enable(bool)                  {}
func (testLogger) Debug(string, ...interface{}) {}
func (testLogger) Info(string, ...interface{})  {}
func (testLogger) Warn(string, ...interface{})  {}
func (testLogger) Error(string, ...interface{}) {}
func (testLogger) Fatal(string, ...interface{}) {}

func TestMain(m *testing.M) {
	core.Conf.TestMode = true
	core.Conf.Debug = false
	core.Conf.Checkin.Timezone = "UTC"

	// set up DB & repos
	db, _ = dummydb.Open()
	usrRepo = dummydb.NewUserRepository(db)
	posRepo = dummydb.NewPositionRepository(db)
	appRepo = dummydb.NewApplicationRepository(db)
	chkRepo = dummydb.NewCheckinRepository(db)

	// set up services
	logger := testLogger{}
	mailSvc := emailsvc.NewConsoleServiceMock()
	usrSvc := user.NewService(usrRepo)
	posSvc := position.NewService(posRepo)
	appSvc := application.NewService(appRepo)
	msgSvc := message.NewService(dummydb.NewMessageRepository(db))
	chkSvc = checkin.NewService(chkRepo, posSvc, appSvc, usrSvc, msgSvc, mailSvc, core.Conf.Checkin, logger)
	chkSvc.Clock = func() time.Time { return testNow }

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)

	// set up server
	app = NewServer(
		ServerDeps{
			Conf:           core.Conf,
			Logger:         logger,
			UserSvc:        usrSvc,
			PositionSvc:    posSvc,
			ApplicationSvc: appSvc,
			CheckinSvc:     chkSvc,
			MessageSvc:     msgSvc,
			Validate:       validate,
			Translator:     translator,
		},
	)

	os.Exit(m.Run())
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

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
