package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/mzalendo/kazi/core"
	"github.com/mzalendo/kazi/core/position"
)

type positionRepository struct {
	db *positionTable
}

var _ position.Repository = (*positionRepository)(nil) // interface compliance check

func NewPositionRepository(db *DB) *positionRepository {
	return &positionRepository{db: db.position}
}

func (repo *positionRepository) CreatePosition(ctx context.Context, pos position.Position) (position.Position, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	pos.ID = uuid.New().String()
	repo.db.table[pos.ID] = &pos
	return pos, nil
}

func (repo *positionRepository) GetPositionByID(ctx context.Context, id string) (position.Position, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if pos, ok := repo.db.table[id]; ok {
		return *pos, nil
	}
	return position.Position{}, position.ErrNotFound
}

func (repo *positionRepository) QueryPositions(ctx context.Context, filter *position.QueryFilter, ordering []core.DBOrdering) ([]position.Position, error) {
	repo.db.RLock()
	positions := make([]position.Position, 0, len(repo.db.table))
	for _, pos := range repo.db.table {
		if posMatches(*pos, filter) {
			positions = append(positions, *pos)
		}
	}
	repo.db.RUnlock()

	sort.Slice(positions, func(i, j int) bool {
		return positions[i].CreatedAt.After(positions[j].CreatedAt)
	})
	return positions, nil
}

func (repo *positionRepository) UpdatePosition(ctx context.Context, pos position.Position) (position.Position, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[pos.ID]; !ok {
		return position.Position{}, position.ErrNotFound
	}
	repo.db.table[pos.ID] = &pos
	return pos, nil
}

func (repo *positionRepository) DeletePositionsByID(ctx context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

func posMatches(pos position.Position, filter *position.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Status != "" && pos.Status != filter.Status {
		return false
	}
	if filter.PublisherID != "" && pos.PublisherID != filter.PublisherID {
		return false
	}
	if filter.Search != "" {
		s := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(pos.Title), s) &&
			!strings.Contains(strings.ToLower(pos.CompanyName), s) &&
			!strings.Contains(strings.ToLower(pos.Location), s) {
			return false
		}
	}
	return true
}
