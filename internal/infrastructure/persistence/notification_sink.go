package persistence

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bazargo/backend/internal/domain/notification"
)

// GormNotificationSink stores notifications in the database. Failures are
// logged and swallowed: a missed notification never fails the transition that
// produced it.
type GormNotificationSink struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormNotificationSink creates a new GormNotificationSink
func NewGormNotificationSink(db *gorm.DB, logger *zap.Logger) *GormNotificationSink {
	return &GormNotificationSink{db: db, logger: logger}
}

// Notify inserts the notification, logging on failure
func (s *GormNotificationSink) Notify(ctx context.Context, n *notification.Notification) {
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		s.logger.Warn("failed to store notification",
			zap.String("user_id", n.UserID.String()),
			zap.String("type", string(n.Type)),
			zap.Error(err),
		)
	}
}

var _ notification.Sink = (*GormNotificationSink)(nil)
