package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type classifies notifications for display grouping
type Type string

const (
	TypePayment  Type = "payment"
	TypeShipping Type = "shipping"
	TypeAuction  Type = "auction"
	TypeCancel   Type = "cancellation"
)

// Notification is a fire-and-forget message to a user
type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Title     string
	Body      string
	Link      string
	Type      Type
	CreatedAt time.Time
	ReadAt    *time.Time
}

// New creates a notification for a user
func New(userID uuid.UUID, typ Type, title, body, link string) *Notification {
	return &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Body:      body,
		Link:      link,
		Type:      typ,
		CreatedAt: time.Now(),
	}
}

// Sink delivers notifications. Implementations swallow failures: a missed
// notification never fails the transition that produced it.
type Sink interface {
	Notify(ctx context.Context, n *Notification)
}
