package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/mzalendo/kazi/core"
	"github.com/mzalendo/kazi/core/application"
)

type applicationRepository struct {
	db *applicationTable
}

var _ application.Repository = (*applicationRepository)(nil) // interface compliance check

func NewApplicationRepository(db *DB) *applicationRepository {
	return &applicationRepository{db: db.application}
}

func (repo *applicationRepository) CreateApplication(ctx context.Context, app application.Application) (application.Application, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	app.ID = uuid.New().String()
	repo.db.table[app.ID] = &app
	return app, nil
}

func (repo *applicationRepository) GetApplicationByID(ctx context.Context, id string) (application.Application, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if app, ok := repo.db.table[id]; ok {
		return *app, nil
	}
	return application.Application{}, application.ErrNotFound
}

func (repo *applicationRepository) GetApplication(ctx context.Context, studentID, positionID string) (application.Application, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, app := range repo.db.table {
		if app.StudentID == studentID && app.PositionID == positionID {
			return *app, nil
		}
	}
	return application.Application{}, application.ErrNotFound
}

func (repo *applicationRepository) QueryApplications(ctx context.Context, filter *application.QueryFilter, ordering []core.DBOrdering) ([]application.Application, error) {
	repo.db.RLock()
	apps := make([]application.Application, 0, len(repo.db.table))
	for _, app := range repo.db.table {
		if appMatches(*app, filter) {
			apps = append(apps, *app)
		}
	}
	repo.db.RUnlock()

	sort.Slice(apps, func(i, j int) bool {
		return apps[i].CreatedAt.After(apps[j].CreatedAt)
	})
	return apps, nil
}

func (repo *applicationRepository) UpdateApplication(ctx context.Context, app application.Application) (application.Application, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[app.ID]; !ok {
		return application.Application{}, application.ErrNotFound
	}
	repo.db.table[app.ID] = &app
	return app, nil
}

func appMatches(app application.Application, filter *application.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.StudentID != "" && app.StudentID != filter.StudentID {
		return false
	}
	if filter.PositionID != "" && app.PositionID != filter.PositionID {
		return false
	}
	if filter.Status != "" && app.Status != filter.Status {
		return false
	}
	return true
}
