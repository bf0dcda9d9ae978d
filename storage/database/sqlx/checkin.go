package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mzalendo/kazi/core"
	"github.com/mzalendo/kazi/core/checkin"
)

// uniqueViolation is the postgres error code raised when an insert hits a
// unique index; on the checkin table that means a concurrent duplicate lost
// the (student_id, checkin_date) race.
const uniqueViolation = "23505"

type checkinRepository struct {
	exec core.DBExecutor
}

var _ checkin.Repository = (*checkinRepository)(nil) // interface compliance check

func NewCheckinRepository(exec core.DBExecutor) *checkinRepository {
	return &checkinRepository{exec: exec}
}

type checkinRow struct {
	ID             string      `db:"id"`
	StudentID      string      `db:"student_id"`
	PositionID     string      `db:"position_id"`
	CheckinDate    string      `db:"checkin_date"`
	CheckinTime    time.Time   `db:"checkin_time"`
	Latitude       float64     `db:"latitude"`
	Longitude      float64     `db:"longitude"`
	Distance       float64     `db:"distance"`
	Status         string      `db:"status"`
	AbnormalReason null.String `db:"abnormal_reason"`
	Remark         null.String `db:"remark"`
	CreatedAt      time.Time   `db:"created_at"`
}

func (repo checkinRepository) row(rec checkin.Record) checkinRow {
	return checkinRow{
		ID:             rec.ID,
		StudentID:      rec.StudentID,
		PositionID:     rec.PositionID,
		CheckinDate:    rec.CheckinDate,
		CheckinTime:    rec.CheckinTime.UTC(),
		Latitude:       rec.Latitude,
		Longitude:      rec.Longitude,
		Distance:       rec.Distance,
		Status:         string(rec.Status),
		AbnormalReason: null.NewString(rec.AbnormalReason, rec.AbnormalReason != ""),
		Remark:         null.NewString(rec.Remark, rec.Remark != ""),
		CreatedAt:      rec.CreatedAt.UTC(),
	}
}

func (repo checkinRepository) unrow(row checkinRow) checkin.Record {
	return checkin.Record{
		ID:             row.ID,
		StudentID:      row.StudentID,
		PositionID:     row.PositionID,
		CheckinDate:    row.CheckinDate,
		CheckinTime:    row.CheckinTime,
		Latitude:       row.Latitude,
		Longitude:      row.Longitude,
		Distance:       row.Distance,
		Status:         checkin.Status(row.Status),
		AbnormalReason: row.AbnormalReason.String,
		Remark:         row.Remark.String,
		CreatedAt:      row.CreatedAt,
	}
}

func (repo *checkinRepository) CreateRecord(ctx context.Context, rec checkin.Record) (checkin.Record, error) {
	rec.ID = uuid.New().String()
	row := repo.row(rec)

	const q = `INSERT INTO checkin
		(id, student_id, position_id, checkin_date, checkin_time, latitude, longitude, distance, status, abnormal_reason, remark, created_at)
		VALUES (:id, :student_id, :position_id, :checkin_date, :checkin_time, :latitude, :longitude, :distance, :status, :abnormal_reason, :remark, :created_at)`
	if _, err := repo.exec.NamedExecContext(ctx, q, row); err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			return checkin.Record{}, checkin.ErrAlreadyCheckedIn
		}
		return checkin.Record{}, errors.Wrap(err, "inserting check-in record")
	}
	return repo.unrow(row), nil
}

func (repo *checkinRepository) HasCheckedIn(ctx context.Context, studentID, date string) (bool, error) {
	var exists bool
	const q = `SELECT EXISTS (SELECT 1 FROM checkin WHERE student_id = $1 AND checkin_date = $2)`
	if err := repo.exec.GetContext(ctx, &exists, q, studentID, date); err != nil {
		return false, errors.Wrap(err, "checking today's record")
	}
	return exists, nil
}

func (repo *checkinRepository) QueryRecords(ctx context.Context, filter *checkin.QueryFilter, ordering []core.DBOrdering) ([]checkin.Record, error) {
	q := `SELECT * FROM checkin`
	where, args := checkinWhere(filter)
	q += where

	if len(ordering) > 0 {
		q += " ORDER BY"
		for i, ord := range ordering {
			if i > 0 {
				q += ","
			}
			q += " " + ord.String()
		}
	}

	var rows []checkinRow
	if err := repo.exec.SelectContext(ctx, &rows, repo.exec.Rebind(q), args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "querying check-in records")
	}

	records := make([]checkin.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, repo.unrow(row))
	}
	return records, nil
}

func (repo *checkinRepository) CountByStatus(ctx context.Context, filter *checkin.QueryFilter) (map[checkin.Status]int, error) {
	q := `SELECT status, COUNT(*) AS count FROM checkin`
	where, args := checkinWhere(filter)
	q += where + " GROUP BY status"

	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	if err := repo.exec.SelectContext(ctx, &rows, repo.exec.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "counting check-in records")
	}

	counts := make(map[checkin.Status]int, len(rows))
	for _, row := range rows {
		counts[checkin.Status(row.Status)] = row.Count
	}
	return counts, nil
}

func checkinWhere(filter *checkin.QueryFilter) (string, []interface{}) {
	if filter == nil || filter.IsEmpty() {
		return "", nil
	}
	where := " WHERE 1=1"
	var args []interface{}
	if filter.StudentID != "" {
		where += " AND student_id = ?"
		args = append(args, filter.StudentID)
	}
	if filter.PositionID != "" {
		where += " AND position_id = ?"
		args = append(args, filter.PositionID)
	}
	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if !filter.DateFrom.IsZero() {
		where += " AND checkin_date >= ?"
		args = append(args, filter.DateFrom.Format(checkin.DateLayout))
	}
	if !filter.DateTo.IsZero() {
		where += " AND checkin_date <= ?"
		args = append(args, filter.DateTo.Format(checkin.DateLayout))
	}
	return where, args
}
