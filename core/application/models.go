package application

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mzalendo/kazi/core"
)

// Statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type Application struct {
	ID            string    `json:"id"`
	StudentID     string    `json:"student_id"`
	PositionID    string    `json:"position_id"`
	Resume        string    `json:"resume"`
	Motivation    string    `json:"motivation"`
	Status        string    `json:"status"`
	ReviewerID    string    `json:"reviewer_id,omitempty"`
	ReviewComment string    `json:"review_comment,omitempty"`
	ReviewedAt    time.Time `json:"reviewed_at,omitempty"` // UTC; zero until reviewed
	CreatedAt     time.Time `json:"created_at"`            // UTC
	UpdatedAt     time.Time `json:"updated_at"`            // UTC
}

func (a *Application) IsApproved() bool { return a.Status == StatusApproved }
func (a *Application) IsPending() bool  { return a.Status == StatusPending }

// NewApplication contains information needed for a student to apply to a Position.
type NewApplication struct {
	PositionID string `json:"position_id" validate:"required"`
	Resume     string `json:"resume"`
	Motivation string `json:"motivation"`
}

func (na *NewApplication) Validate(validate *validator.Validate) error {
	na.Resume = core.CleanString(na.Resume)
	na.Motivation = core.CleanString(na.Motivation)
	return validate.Struct(na)
}

// ReviewApplication defines a reviewer's decision on a pending Application.
type ReviewApplication struct {
	Status  string `json:"status" validate:"required,oneof=approved rejected"`
	Comment string `json:"comment"`
}

func (ra *ReviewApplication) Validate(validate *validator.Validate) error {
	ra.Status = core.CleanString(ra.Status, true /* lower */)
	ra.Comment = core.CleanString(ra.Comment)
	return validate.Struct(ra)
}

type QueryFilter struct {
	StudentID  string `query:"student_id"`
	PositionID string `query:"position_id"`
	Status     string `query:"status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.StudentID == "" && qf.PositionID == "" && qf.Status == ""
}
