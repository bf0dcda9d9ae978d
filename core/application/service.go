package application

import (
	"context"
	"errors"
	"time"

	"github.com/mzalendo/kazi/core"
)

var (
	// errors
	ErrNotFound       = errors.New("application not found")
	ErrAlreadyApplied = errors.New("an application for this position already exists")
	ErrAlreadyDecided = errors.New("application has already been reviewed")
)

type (
	Repository interface {
		CreateApplication(ctx context.Context, app Application) (Application, error)
		GetApplicationByID(ctx context.Context, id string) (Application, error)
		// GetApplication returns the student's application for a position, if any.
		GetApplication(ctx context.Context, studentID, positionID string) (Application, error)
		QueryApplications(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Application, error)
		UpdateApplication(ctx context.Context, app Application) (Application, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Apply(ctx context.Context, studentID string, na NewApplication) (Application, error) {
	// one live application per (student, position)
	if existing, err := svc.repo.GetApplication(ctx, studentID, na.PositionID); err == nil {
		if existing.Status != StatusRejected {
			return Application{}, core.NewValidationError(ErrAlreadyApplied,
				core.FieldError{Field: "position_id", Error: ErrAlreadyApplied.Error()})
		}
	} else if err != ErrNotFound {
		return Application{}, err
	}

	now := time.Now().UTC()
	app := Application{
		StudentID:  studentID,
		PositionID: na.PositionID,
		Resume:     na.Resume,
		Motivation: na.Motivation,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return svc.repo.CreateApplication(ctx, app)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Application, error) {
	return svc.repo.GetApplicationByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Application, error) {
	return svc.repo.QueryApplications(ctx, filter, ordering)
}

func (svc *Service) Review(ctx context.Context, app Application, reviewerID string, ra ReviewApplication) (Application, error) {
	if !app.IsPending() {
		return Application{}, core.NewValidationError(ErrAlreadyDecided,
			core.FieldError{Field: "status", Error: ErrAlreadyDecided.Error()})
	}
	now := time.Now().UTC()
	app.Status = ra.Status
	app.ReviewerID = reviewerID
	app.ReviewComment = ra.Comment
	app.ReviewedAt = now
	app.UpdatedAt = now
	return svc.repo.UpdateApplication(ctx, app)
}

// HasApproved reports whether the student holds an approved placement for the
// position; the check-in engine gates on it upstream of all other checks.
func (svc *Service) HasApproved(ctx context.Context, studentID, positionID string) (bool, error) {
	app, err := svc.repo.GetApplication(ctx, studentID, positionID)
	if err != nil {
		if err == ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return app.IsApproved(), nil
}
