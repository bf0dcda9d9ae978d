package checkin

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mzalendo/kazi/core"
)

// Status is the closed set of outcomes an accepted check-in can carry.
type Status string

const (
	StatusNormal Status = "normal"
	StatusLate   Status = "late"
	// StatusAbnormal is kept on the record enum for audit rows corrected by
	// admins; the validation engine itself never produces it - out-of-range
	// attempts are rejected, not persisted.
	StatusAbnormal Status = "abnormal"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNormal, StatusLate, StatusAbnormal:
		return true
	}
	return false
}

// Record is a persisted check-in. Records are created exactly once by a
// successful pipeline run, never mutated and never deleted; at most one
// exists per (StudentID, CheckinDate) pair.
type Record struct {
	ID             string    `json:"id"`
	StudentID      string    `json:"student_id"`
	PositionID     string    `json:"position_id"`
	CheckinDate    string    `json:"checkin_date"` // "2006-01-02" in the position's local calendar; the uniqueness key
	CheckinTime    time.Time `json:"checkin_time"` // UTC
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	Distance       float64   `json:"distance"` // meters, rounded
	Status         Status    `json:"status"`
	AbnormalReason string    `json:"abnormal_reason,omitempty"`
	Remark         string    `json:"remark,omitempty"`
	CreatedAt      time.Time `json:"created_at"` // UTC
}

// DateLayout is the wire/storage format of Record.CheckinDate.
const DateLayout = "2006-01-02"

// NewCheckin contains a single check-in attempt as reported by the client.
// The student identity comes from the authenticated session and the attempt
// timestamp from the server clock; neither is client-trusted.
type NewCheckin struct {
	PositionID string  `json:"position_id" validate:"required"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Remark     string  `json:"remark"`
}

func (nc *NewCheckin) Validate(validate *validator.Validate) error {
	nc.Remark = core.CleanString(nc.Remark)
	return validate.Struct(nc)
}

// Result is the success payload of a pipeline run.
type Result struct {
	Record      Record `json:"record"`
	LateMinutes int    `json:"late_minutes"`
}

type QueryFilter struct {
	StudentID  string    `query:"student_id"`
	PositionID string    `query:"position_id"`
	Status     Status    `query:"status"`
	DateFrom   time.Time `query:"start_date"`
	DateTo     time.Time `query:"end_date"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.StudentID == "" && qf.PositionID == "" && qf.Status == "" &&
		qf.DateFrom.IsZero() && qf.DateTo.IsZero()
}

// Stats summarizes check-in records for a student and/or position.
type Stats struct {
	Total          int     `json:"total"`
	NormalCount    int     `json:"normal_count"`
	LateCount      int     `json:"late_count"`
	AbnormalCount  int     `json:"abnormal_count"`
	AttendanceRate float64 `json:"attendance_rate"` // percent over the term's working days
}
