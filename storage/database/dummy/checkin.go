package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mzalendo/kazi/core"
	"github.com/mzalendo/kazi/core/checkin"
)

type checkinRepository struct {
	db *checkinTable
}

var _ checkin.Repository = (*checkinRepository)(nil) // interface compliance check

func NewCheckinRepository(db *DB) *checkinRepository {
	return &checkinRepository{db: db.checkin}
}

func (repo *checkinRepository) CreateRecord(ctx context.Context, rec checkin.Record) (checkin.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := dayKey{studentID: rec.StudentID, date: rec.CheckinDate}
	if _, exists := repo.db.byDay[key]; exists {
		return checkin.Record{}, checkin.ErrAlreadyCheckedIn
	}

	rec.ID = uuid.New().String()
	repo.db.table[rec.ID] = &rec
	repo.db.byDay[key] = rec.ID
	return rec, nil
}

func (repo *checkinRepository) HasCheckedIn(ctx context.Context, studentID, date string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	_, ok := repo.db.byDay[dayKey{studentID: studentID, date: date}]
	return ok, nil
}

func (repo *checkinRepository) QueryRecords(ctx context.Context, filter *checkin.QueryFilter, ordering []core.DBOrdering) ([]checkin.Record, error) {
	repo.db.RLock()
	records := make([]checkin.Record, 0, len(repo.db.table))
	for _, rec := range repo.db.table {
		if matches(*rec, filter) {
			records = append(records, *rec)
		}
	}
	repo.db.RUnlock()

	// only checkin_time ordering is needed here
	ascending := false
	if len(ordering) > 0 {
		ascending = ordering[0].Ascending
	}
	sort.Slice(records, func(i, j int) bool {
		if ascending {
			return records[i].CheckinTime.Before(records[j].CheckinTime)
		}
		return records[i].CheckinTime.After(records[j].CheckinTime)
	})
	return records, nil
}

func (repo *checkinRepository) CountByStatus(ctx context.Context, filter *checkin.QueryFilter) (map[checkin.Status]int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	counts := make(map[checkin.Status]int)
	for _, rec := range repo.db.table {
		if matches(*rec, filter) {
			counts[rec.Status]++
		}
	}
	return counts, nil
}

func matches(rec checkin.Record, filter *checkin.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.StudentID != "" && rec.StudentID != filter.StudentID {
		return false
	}
	if filter.PositionID != "" && rec.PositionID != filter.PositionID {
		return false
	}
	if filter.Status != "" && rec.Status != filter.Status {
		return false
	}
	if !filter.DateFrom.IsZero() {
		if day, err := time.Parse(checkin.DateLayout, rec.CheckinDate); err != nil || day.Before(filter.DateFrom) {
			return false
		}
	}
	if !filter.DateTo.IsZero() {
		if day, err := time.Parse(checkin.DateLayout, rec.CheckinDate); err != nil || day.After(filter.DateTo) {
			return false
		}
	}
	return true
}
