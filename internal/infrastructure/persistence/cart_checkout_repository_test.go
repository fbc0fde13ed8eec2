package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazargo/backend/internal/domain/order"
	"github.com/bazargo/backend/internal/domain/shared"
)

func TestGormCartCheckoutRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCartCheckoutRepository(db)
	ctx := context.Background()

	t.Run("create and find", func(t *testing.T) {
		c, err := order.NewCartCheckout(uuid.New(), 30000)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, c))

		got, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.BuyerID, got.BuyerID)
		assert.Equal(t, int64(30000), got.TotalCents)
		assert.Equal(t, order.StatusPending, got.Status)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("set preference", func(t *testing.T) {
		c, err := order.NewCartCheckout(uuid.New(), 1000)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, c))

		require.NoError(t, repo.SetPreference(ctx, c.ID, "pref-7"))

		got, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		require.NotNil(t, got.PreferenceID)
		assert.Equal(t, "pref-7", *got.PreferenceID)
	})

	t.Run("approval applies once", func(t *testing.T) {
		c, err := order.NewCartCheckout(uuid.New(), 1000)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, c))

		performed, err := repo.MarkApproved(ctx, c.ID, time.Now(), "pay-3")
		require.NoError(t, err)
		assert.True(t, performed)

		performed, err = repo.MarkApproved(ctx, c.ID, time.Now(), "pay-3")
		require.NoError(t, err)
		assert.False(t, performed)

		got, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusApproved, got.Status)
		assert.NotNil(t, got.ApprovedAt)
	})
}

func TestGormEventRepositories(t *testing.T) {
	db := setupTestDB(t)
	paymentEvents := NewGormPaymentEventRepository(db)
	orderEvents := NewGormOrderEventRepository(db)
	ctx := context.Background()

	t.Run("payment audit trail", func(t *testing.T) {
		ref := "order:" + uuid.NewString()
		e1 := order.NewPaymentEvent("mercadopago", "pay-1", order.PaymentPending, ref, `{"status":"pending"}`)
		e2 := order.NewPaymentEvent("mercadopago", "pay-1", order.PaymentApproved, ref, `{"status":"approved"}`)
		require.NoError(t, paymentEvents.Append(ctx, e1))
		require.NoError(t, paymentEvents.Append(ctx, e2))

		got, err := paymentEvents.ListByReference(ctx, ref)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, order.PaymentPending, got[0].Status)
		assert.Equal(t, order.PaymentApproved, got[1].Status)
	})

	t.Run("order audit trail", func(t *testing.T) {
		orderID := uuid.New()
		actor := uuid.New()
		e := order.NewOrderEvent(orderID, &actor, order.OrderEventBuyerCancelRequest, "requested by buyer")
		require.NoError(t, orderEvents.Append(ctx, e))

		got, err := orderEvents.ListByOrder(ctx, orderID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, order.OrderEventBuyerCancelRequest, got[0].Kind)
		require.NotNil(t, got[0].ActorID)
		assert.Equal(t, actor, *got[0].ActorID)
	})
}
