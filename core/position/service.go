package position

import (
	"context"
	"errors"
	"time"

	"github.com/mzalendo/kazi/core"
)

var (
	// errors
	ErrNotFound = errors.New("position not found")
)

type (
	Repository interface {
		CreatePosition(ctx context.Context, pos Position) (Position, error)
		GetPositionByID(ctx context.Context, id string) (Position, error)
		// QueryPositions applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Title, CompanyName or Location.
		QueryPositions(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Position, error)
		UpdatePosition(ctx context.Context, pos Position) (Position, error)
		DeletePositionsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, publisherID string, np NewPosition) (Position, error) {
	now := time.Now().UTC()
	maxStudents := np.MaxStudents
	if maxStudents == 0 {
		maxStudents = 1
	}
	pos := Position{
		Title:         np.Title,
		CompanyName:   np.CompanyName,
		Description:   np.Description,
		Requirements:  np.Requirements,
		Location:      np.Location,
		Latitude:      np.Latitude,
		Longitude:     np.Longitude,
		CheckinRadius: np.CheckinRadius,
		CheckinStart:  np.CheckinStart,
		CheckinEnd:    np.CheckinEnd,
		Timezone:      np.Timezone,
		MinSalary:     np.MinSalary,
		MaxSalary:     np.MaxSalary,
		MaxStudents:   maxStudents,
		Status:        StatusOpen,
		PublisherID:   publisherID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return svc.repo.CreatePosition(ctx, pos)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Position, error) {
	return svc.repo.GetPositionByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Position, error) {
	return svc.repo.QueryPositions(ctx, filter, ordering)
}

func (svc *Service) Update(ctx context.Context, orig Position, up UpdatePosition) (Position, error) {
	pos := orig
	if up.Title != "" {
		pos.Title = up.Title
	}
	if up.CompanyName != "" {
		pos.CompanyName = up.CompanyName
	}
	if up.Description != nil {
		pos.Description = *up.Description
	}
	if up.Requirements != nil {
		pos.Requirements = *up.Requirements
	}
	if up.Location != "" {
		pos.Location = up.Location
	}
	if up.Latitude != nil {
		pos.Latitude = *up.Latitude
	}
	if up.Longitude != nil {
		pos.Longitude = *up.Longitude
	}
	if up.CheckinRadius != nil {
		pos.CheckinRadius = *up.CheckinRadius
	}
	if up.CheckinStart != nil {
		pos.CheckinStart = *up.CheckinStart
	}
	if up.CheckinEnd != nil {
		pos.CheckinEnd = *up.CheckinEnd
	}
	if up.Timezone != nil {
		pos.Timezone = *up.Timezone
	}
	if up.MinSalary != nil {
		pos.MinSalary = up.MinSalary
	}
	if up.MaxSalary != nil {
		pos.MaxSalary = up.MaxSalary
	}
	if up.MaxStudents != nil {
		pos.MaxStudents = *up.MaxStudents
	}
	if up.Status != "" {
		pos.Status = up.Status
	}
	pos.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdatePosition(ctx, pos)
}

// IncrementStudents bumps the accepted-student count after an application is
// approved and marks the position full when capacity is reached.
func (svc *Service) IncrementStudents(ctx context.Context, id string) (Position, error) {
	pos, err := svc.repo.GetPositionByID(ctx, id)
	if err != nil {
		return Position{}, err
	}
	pos.CurrentStudents++
	if pos.CurrentStudents >= pos.MaxStudents {
		pos.Status = StatusFull
	}
	pos.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdatePosition(ctx, pos)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeletePositionsByID(ctx, ids...)
}
