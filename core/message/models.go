package message

import "time"

// Types
const (
	TypeSystem      = "system"
	TypeApplication = "application"
	TypeCheckin     = "checkin"
)

// Message is an in-app notification delivered to a single user.
type Message struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"is_read"`
	RelatedID string    `json:"related_id,omitempty"` // e.g. check-in record or application ID
	CreatedAt time.Time `json:"created_at"`           // UTC
}
