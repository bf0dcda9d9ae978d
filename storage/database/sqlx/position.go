package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mzalendo/kazi/core"
	"github.com/mzalendo/kazi/core/position"
)

type positionRepository struct {
	exec core.DBExecutor
}

var _ position.Repository = (*positionRepository)(nil) // interface compliance check

func NewPositionRepository(exec core.DBExecutor) *positionRepository {
	return &positionRepository{exec: exec}
}

type positionRow struct {
	ID              string      `db:"id"`
	Title           string      `db:"title"`
	CompanyName     string      `db:"company_name"`
	Description     null.String `db:"description"`
	Requirements    null.String `db:"requirements"`
	Location        string      `db:"location"`
	Latitude        float64     `db:"latitude"`
	Longitude       float64     `db:"longitude"`
	CheckinRadius   null.Float64 `db:"checkin_radius"`
	CheckinStart    null.String `db:"checkin_start"`
	CheckinEnd      null.String `db:"checkin_end"`
	Timezone        null.String `db:"timezone"`
	MinSalary       null.Int    `db:"min_salary"`
	MaxSalary       null.Int    `db:"max_salary"`
	MaxStudents     int         `db:"max_students"`
	CurrentStudents int         `db:"current_students"`
	Status          string      `db:"status"`
	PublisherID     string      `db:"publisher_id"`
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"`
}

func (repo positionRepository) row(pos position.Position) positionRow {
	return positionRow{
		ID:              pos.ID,
		Title:           pos.Title,
		CompanyName:     pos.CompanyName,
		Description:     null.NewString(pos.Description, pos.Description != ""),
		Requirements:    null.NewString(pos.Requirements, pos.Requirements != ""),
		Location:        pos.Location,
		Latitude:        pos.Latitude,
		Longitude:       pos.Longitude,
		CheckinRadius:   null.NewFloat64(pos.CheckinRadius, pos.CheckinRadius > 0),
		CheckinStart:    null.NewString(pos.CheckinStart, pos.CheckinStart != ""),
		CheckinEnd:      null.NewString(pos.CheckinEnd, pos.CheckinEnd != ""),
		Timezone:        null.NewString(pos.Timezone, pos.Timezone != ""),
		MinSalary:       null.IntFromPtr(pos.MinSalary),
		MaxSalary:       null.IntFromPtr(pos.MaxSalary),
		MaxStudents:     pos.MaxStudents,
		CurrentStudents: pos.CurrentStudents,
		Status:          pos.Status,
		PublisherID:     pos.PublisherID,
		CreatedAt:       pos.CreatedAt.UTC(),
		UpdatedAt:       pos.UpdatedAt.UTC(),
	}
}

func (repo positionRepository) unrow(row positionRow) position.Position {
	return position.Position{
		ID:              row.ID,
		Title:           row.Title,
		CompanyName:     row.CompanyName,
		Description:     row.Description.String,
		Requirements:    row.Requirements.String,
		Location:        row.Location,
		Latitude:        row.Latitude,
		Longitude:       row.Longitude,
		CheckinRadius:   row.CheckinRadius.Float64,
		CheckinStart:    row.CheckinStart.String,
		CheckinEnd:      row.CheckinEnd.String,
		Timezone:        row.Timezone.String,
		MinSalary:       row.MinSalary.Ptr(),
		MaxSalary:       row.MaxSalary.Ptr(),
		MaxStudents:     row.MaxStudents,
		CurrentStudents: row.CurrentStudents,
		Status:          row.Status,
		PublisherID:     row.PublisherID,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

// trapNoRowsErr maps psql "no rows" err to position.ErrNotFound
func (repo positionRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return position.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo *positionRepository) CreatePosition(ctx context.Context, pos position.Position) (position.Position, error) {
	pos.ID = uuid.New().String()
	row := repo.row(pos)

	const q = `INSERT INTO position
		(id, title, company_name, description, requirements, location, latitude, longitude, checkin_radius,
		 checkin_start, checkin_end, timezone, min_salary, max_salary, max_students, current_students, status,
		 publisher_id, created_at, updated_at)
		VALUES (:id, :title, :company_name, :description, :requirements, :location, :latitude, :longitude, :checkin_radius,
		 :checkin_start, :checkin_end, :timezone, :min_salary, :max_salary, :max_students, :current_students, :status,
		 :publisher_id, :created_at, :updated_at)`
	if _, err := repo.exec.NamedExecContext(ctx, q, row); err != nil {
		return position.Position{}, errors.Wrap(err, "inserting position")
	}
	return repo.unrow(row), nil
}

func (repo *positionRepository) GetPositionByID(ctx context.Context, id string) (position.Position, error) {
	if _, err := uuid.Parse(id); err != nil {
		return position.Position{}, position.ErrNotFound
	}
	var row positionRow
	if err := repo.exec.GetContext(ctx, &row, `SELECT * FROM position WHERE id = $1`, id); err != nil {
		return position.Position{}, repo.trapNoRowsErr(err, "finding position by ID")
	}
	return repo.unrow(row), nil
}

func (repo *positionRepository) QueryPositions(ctx context.Context, filter *position.QueryFilter, ordering []core.DBOrdering) ([]position.Position, error) {
	q := `SELECT * FROM position`
	var args []interface{}

	if filter != nil && !filter.IsEmpty() {
		q += " WHERE 1=1"
		if filter.Search != "" {
			q += " AND (title ILIKE ? OR company_name ILIKE ? OR location ILIKE ?)"
			val := "%" + filter.Search + "%"
			args = append(args, val, val, val)
		}
		if filter.Status != "" {
			q += " AND status = ?"
			args = append(args, filter.Status)
		}
		if filter.PublisherID != "" {
			q += " AND publisher_id = ?"
			args = append(args, filter.PublisherID)
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

	var rows []positionRow
	if err := repo.exec.SelectContext(ctx, &rows, repo.exec.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying positions")
	}

	positions := make([]position.Position, 0, len(rows))
	for _, row := range rows {
		positions = append(positions, repo.unrow(row))
	}
	return positions, nil
}

func (repo *positionRepository) UpdatePosition(ctx context.Context, pos position.Position) (position.Position, error) {
	row := repo.row(pos)

	const q = `UPDATE position SET
		title = :title, company_name = :company_name, description = :description, requirements = :requirements,
		location = :location, latitude = :latitude, longitude = :longitude, checkin_radius = :checkin_radius,
		checkin_start = :checkin_start, checkin_end = :checkin_end, timezone = :timezone,
		min_salary = :min_salary, max_salary = :max_salary, max_students = :max_students,
		current_students = :current_students, status = :status, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.exec.NamedExecContext(ctx, q, row)
	if err != nil {
		return position.Position{}, errors.Wrap(err, "updating position")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return position.Position{}, position.ErrNotFound
	}
	return repo.unrow(row), nil
}

func (repo *positionRepository) DeletePositionsByID(ctx context.Context, ids ...string) error {
	q, args, err := sqlx.In(`DELETE FROM position WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err := repo.exec.ExecContext(ctx, repo.exec.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting positions")
	}
	return nil
}
