package persistence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bazargo/backend/internal/domain/identity"
	"github.com/bazargo/backend/internal/domain/market"
	"github.com/bazargo/backend/internal/domain/notification"
	"github.com/bazargo/backend/internal/domain/order"
)

// setupTestDB opens a fresh in-memory database per test. The repositories
// only use portable SQL, so sqlite stands in for postgres here.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&market.Listing{},
		&market.Bid{},
		&order.Order{},
		&order.CartCheckout{},
		&order.PaymentEvent{},
		&order.OrderEvent{},
		&identity.Profile{},
		&notification.Notification{},
	))

	return db
}

func seedAuction(t *testing.T, db *gorm.DB, startPriceCents int64) *market.Listing {
	t.Helper()

	l, err := market.NewAuctionListing(uuid.New(), "vintage camera", startPriceCents,
		time.Now().Add(time.Hour), decimal.NewFromInt(5))
	require.NoError(t, err)
	require.NoError(t, db.Create(l).Error)
	return l
}

func seedOrder(t *testing.T, db *gorm.DB, source order.OrderSource) *order.Order {
	t.Helper()

	o, err := order.NewOrder(uuid.New(), uuid.New(), uuid.New(), 1, 10000,
		decimal.NewFromInt(10), source)
	require.NoError(t, err)
	require.NoError(t, db.Create(o).Error)
	return o
}
