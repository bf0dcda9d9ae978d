package position

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mzalendo/kazi/core"
)

// Statuses
const (
	StatusOpen   = "open"
	StatusPaused = "paused"
	StatusFull   = "full"
)

type Position struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	CompanyName     string    `json:"company_name"`
	Description     string    `json:"description"`
	Requirements    string    `json:"requirements"`
	Location        string    `json:"location"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	CheckinRadius   float64   `json:"checkin_radius"` // meters; 0 means the configured default applies
	CheckinStart    string    `json:"checkin_start"`  // "HH:MM" local; empty with CheckinEnd means unrestricted
	CheckinEnd      string    `json:"checkin_end"`
	Timezone        string    `json:"timezone"` // IANA name; empty means the configured default applies
	MinSalary       *int      `json:"min_salary"`
	MaxSalary       *int      `json:"max_salary"`
	MaxStudents     int       `json:"max_students"`
	CurrentStudents int       `json:"current_students"`
	Status          string    `json:"status"`
	PublisherID     string    `json:"publisher_id"`
	CreatedAt       time.Time `json:"created_at"` // UTC
	UpdatedAt       time.Time `json:"updated_at"` // UTC
}

// AllowedRadius returns the geofence radius in meters, falling back to the
// application default when the position carries none.
func (p *Position) AllowedRadius(defaultRadius float64) float64 {
	if p.CheckinRadius > 0 {
		return p.CheckinRadius
	}
	return defaultRadius
}

// TimeLocation resolves the position's timezone, falling back to the
// application default, then UTC. Both the check-in window gate and the
// calendar-day derivation must use this one location.
func (p *Position) TimeLocation(defaultTZ string) *time.Location {
	name := p.Timezone
	if name == "" {
		name = defaultTZ
	}
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	return time.UTC
}

func (p *Position) IsOpen() bool { return p.Status == StatusOpen }

// NewPosition contains information needed to publish a new Position.
type NewPosition struct {
	Title         string  `json:"title" validate:"required"`
	CompanyName   string  `json:"company_name" validate:"required"`
	Description   string  `json:"description"`
	Requirements  string  `json:"requirements"`
	Location      string  `json:"location" validate:"required"`
	Latitude      float64 `json:"latitude" validate:"latitude"`
	Longitude     float64 `json:"longitude" validate:"longitude"`
	CheckinRadius float64 `json:"checkin_radius" validate:"omitempty,gt=0"`
	CheckinStart  string  `json:"checkin_start" validate:"omitempty,timeofday"`
	CheckinEnd    string  `json:"checkin_end" validate:"omitempty,timeofday"`
	Timezone      string  `json:"timezone"`
	MinSalary     *int    `json:"min_salary" validate:"omitempty,gte=0"`
	MaxSalary     *int    `json:"max_salary" validate:"omitempty,gte=0"`
	MaxStudents   int     `json:"max_students" validate:"omitempty,gt=0"`
}

func (np *NewPosition) Validate(validate *validator.Validate) error {
	np.Title = core.CleanString(np.Title)
	np.CompanyName = core.CleanString(np.CompanyName)
	np.Location = core.CleanString(np.Location)
	np.Timezone = core.CleanString(np.Timezone)

	if err := validate.Struct(np); err != nil {
		return err
	}
	if np.MinSalary != nil && np.MaxSalary != nil && *np.MaxSalary < *np.MinSalary {
		return core.NewValidationError(nil, core.FieldError{Field: "max_salary", Error: "must not be less than min_salary"})
	}
	return validateWindow(np.CheckinStart, np.CheckinEnd, np.Timezone)
}

// UpdatePosition defines what information may be provided to modify an existing Position.
type UpdatePosition struct {
	Title         string   `json:"title"`
	CompanyName   string   `json:"company_name"`
	Description   *string  `json:"description"`
	Requirements  *string  `json:"requirements"`
	Location      string   `json:"location"`
	Latitude      *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude     *float64 `json:"longitude" validate:"omitempty,longitude"`
	CheckinRadius *float64 `json:"checkin_radius" validate:"omitempty,gt=0"`
	CheckinStart  *string  `json:"checkin_start" validate:"omitempty,timeofday"`
	CheckinEnd    *string  `json:"checkin_end" validate:"omitempty,timeofday"`
	Timezone      *string  `json:"timezone"`
	MinSalary     *int     `json:"min_salary" validate:"omitempty,gte=0"`
	MaxSalary     *int     `json:"max_salary" validate:"omitempty,gte=0"`
	MaxStudents   *int     `json:"max_students" validate:"omitempty,gt=0"`
	Status        string   `json:"status" validate:"omitempty,oneof=open paused full"`
}

func (up *UpdatePosition) Validate(orig Position, validate *validator.Validate) error {
	up.Title = core.CleanString(up.Title)
	up.CompanyName = core.CleanString(up.CompanyName)
	up.Location = core.CleanString(up.Location)

	if err := validate.Struct(up); err != nil {
		return err
	}

	// the resulting window must still be valid as a whole
	start, end, tz := orig.CheckinStart, orig.CheckinEnd, orig.Timezone
	if up.CheckinStart != nil {
		start = *up.CheckinStart
	}
	if up.CheckinEnd != nil {
		end = *up.CheckinEnd
	}
	if up.Timezone != nil {
		tz = *up.Timezone
	}
	return validateWindow(start, end, tz)
}

// validateWindow rejects windows spanning midnight (start > end) and unknown
// timezones at configuration time so the check-in engine never sees them.
func validateWindow(start, end, tz string) error {
	if (start == "") != (end == "") {
		fld := "checkin_start"
		if end == "" {
			fld = "checkin_end"
		}
		return core.NewValidationError(nil, core.FieldError{Field: fld, Error: "both window bounds must be set"})
	}
	if start != "" && start > end {
		return core.NewValidationError(nil, core.FieldError{
			Field: "checkin_end",
			Error: "check-in window may not span midnight: end must not be before start",
		})
	}
	if tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "timezone", Error: "unknown timezone"})
		}
	}
	return nil
}

type QueryFilter struct {
	Search      string `query:"search"`
	Status      string `query:"status"`
	PublisherID string `query:"publisher_id"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Status == "" && qf.PublisherID == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}
