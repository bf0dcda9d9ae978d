package position

import (
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/mzalendo/kazi/core"
)

func newValidator() *validator.Validate {
	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	return validate
}

func validPosition() NewPosition {
	return NewPosition{
		Title:       "Backend Intern",
		CompanyName: "Gecamines",
		Location:    "Lubumbashi",
		Latitude:    -11.6609,
		Longitude:   27.4794,
	}
}

func TestNewPositionValidate(t *testing.T) {
	validate := newValidator()
	intPtr := func(i int) *int { return &i }

	tests := []struct {
		name    string
		mutate  func(*NewPosition)
		wantErr bool
		field   string
	}{
		{"valid minimal", func(np *NewPosition) {}, false, ""},
		{"valid with window", func(np *NewPosition) {
			np.CheckinStart, np.CheckinEnd = "08:30", "17:30"
			np.Timezone = "Africa/Lubumbashi"
		}, false, ""},
		{"latitude out of range", func(np *NewPosition) { np.Latitude = 91 }, true, ""},
		{"longitude out of range", func(np *NewPosition) { np.Longitude = -181 }, true, ""},
		{"negative radius", func(np *NewPosition) { np.CheckinRadius = -5 }, true, ""},
		{"malformed window time", func(np *NewPosition) {
			np.CheckinStart, np.CheckinEnd = "25:00", "26:00"
		}, true, ""},
		{"half-set window", func(np *NewPosition) { np.CheckinStart = "09:00" }, true, "checkin_end"},
		{"window spans midnight", func(np *NewPosition) {
			np.CheckinStart, np.CheckinEnd = "18:00", "09:00"
		}, true, "checkin_end"},
		{"unknown timezone", func(np *NewPosition) { np.Timezone = "Mars/Olympus" }, true, "timezone"},
		{"max salary below min", func(np *NewPosition) {
			np.MinSalary, np.MaxSalary = intPtr(500), intPtr(100)
		}, true, "max_salary"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			np := validPosition()
			tt.mutate(&np)
			err := np.Validate(validate)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil; want error")
			}
			if tt.field != "" {
				vErr, ok := errors.Cause(err).(*core.ValidationError)
				if !ok {
					t.Fatalf("Validate() err = %T; want *core.ValidationError", err)
				}
				assert.Equal(t, tt.field, vErr.Fields[0].Field)
			}
		})
	}
}

func TestAllowedRadius(t *testing.T) {
	pos := Position{CheckinRadius: 150}
	assert.Equal(t, 150.0, pos.AllowedRadius(200))

	pos.CheckinRadius = 0
	assert.Equal(t, 200.0, pos.AllowedRadius(200))
}

func TestTimeLocation(t *testing.T) {
	pos := Position{Timezone: "Africa/Lubumbashi"}
	assert.Equal(t, "Africa/Lubumbashi", pos.TimeLocation("UTC").String())

	pos.Timezone = ""
	assert.Equal(t, "Africa/Kinshasa", pos.TimeLocation("Africa/Kinshasa").String())

	// unknown names degrade to UTC rather than failing a check-in
	pos.Timezone = "Nowhere/Here"
	assert.Equal(t, time.UTC, pos.TimeLocation(""))
}
