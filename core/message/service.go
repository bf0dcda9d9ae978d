package message

import (
	"context"
	"errors"
	"time"

	"github.com/mzalendo/kazi/core"
)

var (
	// errors
	ErrNotFound = errors.New("message not found")
)

type (
	Repository interface {
		CreateMessage(ctx context.Context, msg Message) (Message, error)
		GetMessageByID(ctx context.Context, id string) (Message, error)
		QueryUserMessages(ctx context.Context, userID string, ordering []core.DBOrdering) ([]Message, error)
		UpdateMessage(ctx context.Context, msg Message) (Message, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Notify(ctx context.Context, userID, title, content, typ, relatedID string) error {
	msg := Message{
		UserID:    userID,
		Title:     title,
		Content:   content,
		Type:      typ,
		RelatedID: relatedID,
		CreatedAt: time.Now().UTC(),
	}
	_, err := svc.repo.CreateMessage(ctx, msg)
	return err
}

func (svc *Service) QueryForUser(ctx context.Context, userID string) ([]Message, error) {
	return svc.repo.QueryUserMessages(ctx, userID, []core.DBOrdering{{Field: "created_at", Ascending: false}})
}

// MarkRead flags the message as read; userID guards against marking another
// user's messages.
func (svc *Service) MarkRead(ctx context.Context, id, userID string) (Message, error) {
	msg, err := svc.repo.GetMessageByID(ctx, id)
	if err != nil {
		return Message{}, err
	}
	if msg.UserID != userID {
		return Message{}, ErrNotFound
	}
	if msg.IsRead {
		return msg, nil
	}
	msg.IsRead = true
	return svc.repo.UpdateMessage(ctx, msg)
}
