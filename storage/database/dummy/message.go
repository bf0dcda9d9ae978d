package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/mzalendo/kazi/core"
	"github.com/mzalendo/kazi/core/message"
)

type messageRepository struct {
	db *messageTable
}

var _ message.Repository = (*messageRepository)(nil) // interface compliance check

func NewMessageRepository(db *DB) *messageRepository {
	return &messageRepository{db: db.message}
}

func (repo *messageRepository) CreateMessage(ctx context.Context, msg message.Message) (message.Message, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	msg.ID = uuid.New().String()
	repo.db.table[msg.ID] = &msg
	return msg, nil
}

func (repo *messageRepository) GetMessageByID(ctx context.Context, id string) (message.Message, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if msg, ok := repo.db.table[id]; ok {
		return *msg, nil
	}
	return message.Message{}, message.ErrNotFound
}

func (repo *messageRepository) QueryUserMessages(ctx context.Context, userID string, ordering []core.DBOrdering) ([]message.Message, error) {
	repo.db.RLock()
	msgs := make([]message.Message, 0)
	for _, msg := range repo.db.table {
		if msg.UserID == userID {
			msgs = append(msgs, *msg)
		}
	}
	repo.db.RUnlock()

	sort.Slice(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.After(msgs[j].CreatedAt)
	})
	return msgs, nil
}

func (repo *messageRepository) UpdateMessage(ctx context.Context, msg message.Message) (message.Message, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[msg.ID]; !ok {
		return message.Message{}, message.ErrNotFound
	}
	repo.db.table[msg.ID] = &msg
	return msg, nil
}
