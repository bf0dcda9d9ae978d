package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mzalendo/kazi/core"
	"github.com/mzalendo/kazi/core/application"
)

type applicationRepository struct {
	exec core.DBExecutor
}

var _ application.Repository = (*applicationRepository)(nil) // interface compliance check

func NewApplicationRepository(exec core.DBExecutor) *applicationRepository {
	return &applicationRepository{exec: exec}
}

type applicationRow struct {
	ID            string      `db:"id"`
	StudentID     string      `db:"student_id"`
	PositionID    string      `db:"position_id"`
	Resume        null.String `db:"resume"`
	Motivation    null.String `db:"motivation"`
	Status        string      `db:"status"`
	ReviewerID    null.String `db:"reviewer_id"`
	ReviewComment null.String `db:"review_comment"`
	ReviewedAt    null.Time   `db:"reviewed_at"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

func (repo applicationRepository) row(app application.Application) applicationRow {
	return applicationRow{
		ID:            app.ID,
		StudentID:     app.StudentID,
		PositionID:    app.PositionID,
		Resume:        null.NewString(app.Resume, app.Resume != ""),
		Motivation:    null.NewString(app.Motivation, app.Motivation != ""),
		Status:        app.Status,
		ReviewerID:    null.NewString(app.ReviewerID, app.ReviewerID != ""),
		ReviewComment: null.NewString(app.ReviewComment, app.ReviewComment != ""),
		ReviewedAt:    null.NewTime(app.ReviewedAt.UTC(), !app.ReviewedAt.IsZero()),
		CreatedAt:     app.CreatedAt.UTC(),
		UpdatedAt:     app.UpdatedAt.UTC(),
	}
}

func (repo applicationRepository) unrow(row applicationRow) application.Application {
	return application.Application{
		ID:            row.ID,
		StudentID:     row.StudentID,
		PositionID:    row.PositionID,
		Resume:        row.Resume.String,
		Motivation:    row.Motivation.String,
		Status:        row.Status,
		ReviewerID:    row.ReviewerID.String,
		ReviewComment: row.ReviewComment.String,
		ReviewedAt:    row.ReviewedAt.Time,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

// trapNoRowsErr maps psql "no rows" err to application.ErrNotFound
func (repo applicationRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return application.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo *applicationRepository) CreateApplication(ctx context.Context, app application.Application) (application.Application, error) {
	app.ID = uuid.New().String()
	row := repo.row(app)

	const q = `INSERT INTO application
		(id, student_id, position_id, resume, motivation, status, reviewer_id, review_comment, reviewed_at, created_at, updated_at)
		VALUES (:id, :student_id, :position_id, :resume, :motivation, :status, :reviewer_id, :review_comment, :reviewed_at, :created_at, :updated_at)`
	if _, err := repo.exec.NamedExecContext(ctx, q, row); err != nil {
		return application.Application{}, errors.Wrap(err, "inserting application")
	}
	return repo.unrow(row), nil
}

func (repo *applicationRepository) GetApplicationByID(ctx context.Context, id string) (application.Application, error) {
	if _, err := uuid.Parse(id); err != nil {
		return application.Application{}, application.ErrNotFound
	}
	var row applicationRow
	if err := repo.exec.GetContext(ctx, &row, `SELECT * FROM application WHERE id = $1`, id); err != nil {
		return application.Application{}, repo.trapNoRowsErr(err, "finding application by ID")
	}
	return repo.unrow(row), nil
}

func (repo *applicationRepository) GetApplication(ctx context.Context, studentID, positionID string) (application.Application, error) {
	var row applicationRow
	const q = `SELECT * FROM application WHERE student_id = $1 AND position_id = $2 ORDER BY created_at DESC LIMIT 1`
	if err := repo.exec.GetContext(ctx, &row, q, studentID, positionID); err != nil {
		return application.Application{}, repo.trapNoRowsErr(err, "finding application")
	}
	return repo.unrow(row), nil
}

func (repo *applicationRepository) QueryApplications(ctx context.Context, filter *application.QueryFilter, ordering []core.DBOrdering) ([]application.Application, error) {
	q := `SELECT * FROM application`
	var args []interface{}

	if filter != nil && !filter.IsEmpty() {
		q += " WHERE 1=1"
		if filter.StudentID != "" {
			q += " AND student_id = ?"
			args = append(args, filter.StudentID)
		}
		if filter.PositionID != "" {
			q += " AND position_id = ?"
			args = append(args, filter.PositionID)
		}
		if filter.Status != "" {
			q += " AND status = ?"
			args = append(args, filter.Status)
		}
	}

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at", Ascending: false}}
	}
	q += " ORDER BY"
	for i, ord := range ordering {
		if i > 0 {
			q += ","
		}
		q += " " + ord.String()
	}

	var rows []applicationRow
	if err := repo.exec.SelectContext(ctx, &rows, repo.exec.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying applications")
	}

	apps := make([]application.Application, 0, len(rows))
	for _, row := range rows {
		apps = append(apps, repo.unrow(row))
	}
	return apps, nil
}

func (repo *applicationRepository) UpdateApplication(ctx context.Context, app application.Application) (application.Application, error) {
	row := repo.row(app)

	const q = `UPDATE application SET
		resume = :resume, motivation = :motivation, status = :status, reviewer_id = :reviewer_id,
		review_comment = :review_comment, reviewed_at = :reviewed_at, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.exec.NamedExecContext(ctx, q, row)
	if err != nil {
		return application.Application{}, errors.Wrap(err, "updating application")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return application.Application{}, application.ErrNotFound
	}
	return repo.unrow(row), nil
}
