package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mzalendo/kazi/core"
	"github.com/mzalendo/kazi/core/message"
)

type messageRepository struct {
	exec core.DBExecutor
}

var _ message.Repository = (*messageRepository)(nil) // interface compliance check

func NewMessageRepository(exec core.DBExecutor) *messageRepository {
	return &messageRepository{exec: exec}
}

type messageRow struct {
	ID        string      `db:"id"`
	UserID    string      `db:"user_id"`
	Title     string      `db:"title"`
	Content   string      `db:"content"`
	Type      string      `db:"type"`
	IsRead    bool        `db:"is_read"`
	RelatedID null.String `db:"related_id"`
	CreatedAt time.Time   `db:"created_at"`
}

func (repo messageRepository) row(msg message.Message) messageRow {
	return messageRow{
		ID:        msg.ID,
		UserID:    msg.UserID,
		Title:     msg.Title,
		Content:   msg.Content,
		Type:      msg.Type,
		IsRead:    msg.IsRead,
		RelatedID: null.NewString(msg.RelatedID, msg.RelatedID != ""),
		CreatedAt: msg.CreatedAt.UTC(),
	}
}

func (repo messageRepository) unrow(row messageRow) message.Message {
	return message.Message{
		ID:        row.ID,
		UserID:    row.UserID,
		Title:     row.Title,
		Content:   row.Content,
		Type:      row.Type,
		IsRead:    row.IsRead,
		RelatedID: row.RelatedID.String,
		CreatedAt: row.CreatedAt,
	}
}

func (repo *messageRepository) CreateMessage(ctx context.Context, msg message.Message) (message.Message, error) {
	msg.ID = uuid.New().String()
	row := repo.row(msg)

	const q = `INSERT INTO message (id, user_id, title, content, type, is_read, related_id, created_at)
		VALUES (:id, :user_id, :title, :content, :type, :is_read, :related_id, :created_at)`
	if _, err := repo.exec.NamedExecContext(ctx, q, row); err != nil {
		return message.Message{}, errors.Wrap(err, "inserting message")
	}
	return repo.unrow(row), nil
}

func (repo *messageRepository) GetMessageByID(ctx context.Context, id string) (message.Message, error) {
	if _, err := uuid.Parse(id); err != nil {
		return message.Message{}, message.ErrNotFound
	}
	var row messageRow
	if err := repo.exec.GetContext(ctx, &row, `SELECT * FROM message WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return message.Message{}, message.ErrNotFound
		}
		return message.Message{}, errors.Wrap(err, "finding message by ID")
	}
	return repo.unrow(row), nil
}

func (repo *messageRepository) QueryUserMessages(ctx context.Context, userID string, ordering []core.DBOrdering) ([]message.Message, error) {
	q := `SELECT * FROM message WHERE user_id = $1`
	if len(ordering) > 0 {
		q += " ORDER BY"
		for i, ord := range ordering {
			if i > 0 {
				q += ","
			}
			q += " " + ord.String()
		}
	}

	var rows []messageRow
	if err := repo.exec.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "querying messages")
	}

	msgs := make([]message.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, repo.unrow(row))
	}
	return msgs, nil
}

func (repo *messageRepository) UpdateMessage(ctx context.Context, msg message.Message) (message.Message, error) {
	row := repo.row(msg)

	const q = `UPDATE message SET is_read = :is_read WHERE id = :id`
	res, err := repo.exec.NamedExecContext(ctx, q, row)
	if err != nil {
		return message.Message{}, errors.Wrap(err, "updating message")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return message.Message{}, message.ErrNotFound
	}
	return repo.unrow(row), nil
}
