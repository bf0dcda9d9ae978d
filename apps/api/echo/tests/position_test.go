package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mzalendo/kazi/core/position"
	"github.com/mzalendo/kazi/core/user"
	testutil "github.com/mzalendo/kazi/tests"
)

func TestPositionCreate(t *testing.T) {
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "posmaker", "posmaker@test.cd", "", user.RoleTeacher, true)
	student := testutil.CreateUser(t, usrRepo, "Student", "posnope", "posnope@test.cd", "", user.RoleStudent, true)
	token := getToken(t, teacher)

	valid := position.NewPosition{
		Title:       "Field Intern",
		CompanyName: "Gecamines",
		Location:    "Lubumbashi",
		Latitude:    -11.6609,
		Longitude:   27.4794,
	}

	t.Run("student forbidden", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/positions", getToken(t, student), marchallObj(t, valid))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		}, rec)
	})

	t.Run("created by teacher", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/positions", token, marchallObj(t, valid))
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var pos position.Position
		if err := json.Unmarshal(rec.Body.Bytes(), &pos); err != nil {
			t.Fatalf("unmarshalling position: %v", err)
		}
		assert.NotEmpty(t, pos.ID)
		assert.Equal(t, teacher.ID, pos.PublisherID)
		assert.Equal(t, position.StatusOpen, pos.Status)
		assert.Equal(t, 1, pos.MaxStudents)
	})

	t.Run("window spanning midnight rejected", func(t *testing.T) {
		bad := valid
		bad.CheckinStart, bad.CheckinEnd = "18:00", "09:00"

		req, rec := newAuthRequest(http.MethodPost, "/v1/positions", token, marchallObj(t, bad))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"checkin_end": "check-in window may not span midnight: end must not be before start",
			}),
		}, rec)
	})

	t.Run("missing required fields", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/positions", token, marchallObj(t, position.NewPosition{
			Latitude:  -11.6609,
			Longitude: 27.4794,
		}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"title":        "this field is required",
				"company_name": "this field is required",
				"location":     "this field is required",
			}),
		}, rec)
	})
}
