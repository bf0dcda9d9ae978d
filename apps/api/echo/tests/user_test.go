package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mzalendo/kazi/core/user"
	testutil "github.com/mzalendo/kazi/tests"
)

func TestUserLogin(t *testing.T) {
	testutil.CreateUser(t, usrRepo, "Juma", "juma", "juma@test.cd", "Passw0rd!", user.RoleStudent, true)

	t.Run("success", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"username": "juma", "password": "Passw0rd!"})
		req, rec := newRequest(http.MethodPost, "/v1/users/login", body)
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var res struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		assert.NotEmpty(t, res.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"username": "juma", "password": "nope"})
		req, rec := newRequest(http.MethodPost, "/v1/users/login", body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		}, rec)
	})

	t.Run("unknown user", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"username": "ghost", "password": "nope"})
		req, rec := newRequest(http.MethodPost, "/v1/users/login", body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		}, rec)
	})

	t.Run("me requires auth", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/users/me")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		}, rec)
	})
}
