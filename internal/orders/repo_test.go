package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/agrisoko/farmhub-backend/pkg/db/models"
	"github.com/agrisoko/farmhub-backend/pkg/enums"
	pkgerrors "github.com/agrisoko/farmhub-backend/pkg/errors"
	"github.com/agrisoko/farmhub-backend/pkg/pagination"
)

func seedOrder(t *testing.T, repo Repository, buyerID uuid.UUID) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:          uuid.New(),
		BuyerID:     buyerID,
		HubID:       uuid.New(),
		TotalAmount: d("100.00"),
		Status:      enums.OrderStatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), order))
	return order
}

func TestRepositoryUpdateStatusSetsPaidAt(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, repo, uuid.New())
	paidAt := time.Now().UTC()
	require.NoError(t, repo.UpdateStatus(ctx, order.ID, enums.OrderStatusPaid, &paidAt))

	got, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusPaid, got.Status)
	require.NotNil(t, got.PaidAt)
}

func TestRepositoryLookupsReturnNotFound(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	missing := uuid.New()

	for name, lookup := range map[string]func() error{
		"FindByID":          func() error { _, err := repo.FindByID(ctx, missing); return err },
		"FindByIDForUpdate": func() error { _, err := repo.FindByIDForUpdate(ctx, missing); return err },
		"FindDetail":        func() error { _, err := repo.FindDetail(ctx, missing); return err },
	} {
		err := lookup()
		require.Error(t, err, name)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed, name)
		require.Equal(t, pkgerrors.CodeNotFound, typed.Code(), name)
	}
}

func TestRepositoryListByBuyerPaginates(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	buyerID := uuid.New()

	for i := 0; i < 4; i++ {
		seedOrder(t, repo, buyerID)
	}
	seedOrder(t, repo, uuid.New()) // another buyer, must not appear

	first, cursor, err := repo.ListByBuyer(ctx, buyerID, pagination.Params{Limit: 3})
	require.NoError(t, err)
	require.Len(t, first, 3)
	require.NotEmpty(t, cursor)

	second, next, err := repo.ListByBuyer(ctx, buyerID, pagination.Params{Limit: 3, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, second, 1)
	require.Empty(t, next)
}
