package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mzalendo/kazi/core/application"
	"github.com/mzalendo/kazi/core/checkin"
	"github.com/mzalendo/kazi/core/user"
	testutil "github.com/mzalendo/kazi/tests"
)

// latitude offset rounding to 250m of haversine distance from the origin
const offset250m = 0.0022483040

type checkinBody struct {
	PositionID string  `json:"position_id"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

type successEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		ID          string    `json:"id"`
		Status      string    `json:"status"`
		Distance    float64   `json:"distance"`
		CheckinTime time.Time `json:"checkin_time"`
		LateMinutes int       `json:"late_minutes"`
	} `json:"data"`
}

type rejection struct {
	Success   bool                   `json:"success"`
	ErrorCode string                 `json:"error_code"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// newStudentAtPosition provisions a student with an approved application for
// a fresh position centered on the origin.
func newStudentAtPosition(t *testing.T, uname string) (user.User, string, string) {
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", uname+"_t", uname+"_t@test.cd", "", user.RoleTeacher, true)
	student := testutil.CreateUser(t, usrRepo, "Student", uname, uname+"@test.cd", "", user.RoleStudent, true)
	pos := testutil.CreatePosition(t, posRepo, teacher.ID, "Intern "+uname, 0, 0, 200, "09:00", "18:00", "UTC")
	testutil.CreateApplication(t, appRepo, student.ID, pos.ID, application.StatusApproved)
	return student, getToken(t, student), pos.ID
}

func TestCheckinAuthRequired(t *testing.T) {
	req, rec := newRequest(http.MethodPost, "/v1/checkins", marchallObj(t, checkinBody{PositionID: "x"}))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusUnauthorized,
		wantData: marchallObj(t, errMissingToken),
	}, rec)
}

func TestCheckinStudentOnly(t *testing.T) {
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "lone_t", "lone_t@test.cd", "", user.RoleTeacher, true)

	req, rec := newAuthRequest(http.MethodPost, "/v1/checkins", getToken(t, teacher),
		marchallObj(t, checkinBody{PositionID: "x"}))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusForbidden,
		wantData: marchallObj(t, errForbidden),
	}, rec)
}

func TestCheckinSuccess(t *testing.T) {
	_, token, posID := newStudentAtPosition(t, "amani")

	req, rec := newAuthRequest(http.MethodPost, "/v1/checkins", token,
		marchallObj(t, checkinBody{PositionID: posID}))
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var env successEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.Data.ID)
	assert.Equal(t, "normal", env.Data.Status)
	assert.Equal(t, 0.0, env.Data.Distance)
	assert.Equal(t, 0, env.Data.LateMinutes)
	assert.Equal(t, testNow, env.Data.CheckinTime.UTC())

	// the record is listed back to its owner
	req, rec = newAuthRequest(http.MethodGet, "/v1/checkins", token)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	var records []checkin.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("unmarshalling records: %v", err)
	}
	assert.Len(t, records, 1)
	assert.Equal(t, env.Data.ID, records[0].ID)
}

func TestCheckinOutOfRange(t *testing.T) {
	_, token, posID := newStudentAtPosition(t, "baraka")

	req, rec := newAuthRequest(http.MethodPost, "/v1/checkins", token,
		marchallObj(t, checkinBody{PositionID: posID, Latitude: offset250m}))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, rejection{
			ErrorCode: "OUT_OF_RANGE",
			Message:   "out of check-in range: 250m away, 200m allowed",
			Data:      map[string]interface{}{"distance": 250.0, "allowed": 200.0},
		}),
	}, rec)
}

func TestCheckinAlreadyCheckedIn(t *testing.T) {
	_, token, posID := newStudentAtPosition(t, "chiku")
	body := marchallObj(t, checkinBody{PositionID: posID})

	req, rec := newAuthRequest(http.MethodPost, "/v1/checkins", token, body)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	req, rec = newAuthRequest(http.MethodPost, "/v1/checkins", token, body)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, rejection{
			ErrorCode: "ALREADY_CHECKED_IN",
			Message:   "already checked in today",
		}),
	}, rec)
}

func TestCheckinInvalidCoordinates(t *testing.T) {
	_, token, posID := newStudentAtPosition(t, "dalila")

	req, rec := newAuthRequest(http.MethodPost, "/v1/checkins", token,
		marchallObj(t, checkinBody{PositionID: posID, Latitude: 95}))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, rejection{
			ErrorCode: "INVALID_COORDINATES",
			Message:   "latitude must be within [-90, 90] and longitude within [-180, 180]",
		}),
	}, rec)
}

func TestCheckinPositionNotFound(t *testing.T) {
	student := testutil.CreateUser(t, usrRepo, "Student", "eshe", "eshe@test.cd", "", user.RoleStudent, true)

	req, rec := newAuthRequest(http.MethodPost, "/v1/checkins", getToken(t, student),
		marchallObj(t, checkinBody{PositionID: "does-not-exist"}))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusNotFound,
		wantData: marchallObj(t, rejection{
			ErrorCode: "POSITION_NOT_FOUND",
			Message:   "position not found",
		}),
	}, rec)
}

func TestCheckinNoApprovedApplication(t *testing.T) {
	// reuse an existing position; this student never applied
	_, _, posID := newStudentAtPosition(t, "faraja")
	outsider := testutil.CreateUser(t, usrRepo, "Student", "gele", "gele@test.cd", "", user.RoleStudent, true)

	req, rec := newAuthRequest(http.MethodPost, "/v1/checkins", getToken(t, outsider),
		marchallObj(t, checkinBody{PositionID: posID}))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, rejection{
			ErrorCode: "NO_APPROVED_APPLICATION",
			Message:   "no approved application for this position",
		}),
	}, rec)
}

func TestCheckinBeforeWindow(t *testing.T) {
	_, token, posID := newStudentAtPosition(t, "hawa")

	restore := chkSvc.Clock
	chkSvc.Clock = func() time.Time { return time.Date(2021, 3, 15, 8, 0, 0, 0, time.UTC) }
	defer func() { chkSvc.Clock = restore }()

	req, rec := newAuthRequest(http.MethodPost, "/v1/checkins", token,
		marchallObj(t, checkinBody{PositionID: posID}))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, rejection{
			ErrorCode: "NOT_IN_CHECKIN_WINDOW",
			Message:   "outside the check-in window",
			Data:      map[string]interface{}{"window_start": "09:00", "window_end": "18:00"},
		}),
	}, rec)
}

func TestCheckinMissingPositionID(t *testing.T) {
	student := testutil.CreateUser(t, usrRepo, "Student", "imani", "imani@test.cd", "", user.RoleStudent, true)

	req, rec := newAuthRequest(http.MethodPost, "/v1/checkins", getToken(t, student),
		marchallObj(t, checkinBody{}))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, map[string]string{"position_id": "this field is required"}),
	}, rec)
}
