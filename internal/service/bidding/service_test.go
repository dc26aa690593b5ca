package bidding

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lrazine99/purple-dog-sub000/internal/domain/bid"
	"github.com/lrazine99/purple-dog-sub000/internal/domain/errors"
	"github.com/lrazine99/purple-dog-sub000/internal/domain/item"
	"github.com/lrazine99/purple-dog-sub000/internal/domain/values"
	"github.com/lrazine99/purple-dog-sub000/internal/testutil/fixtures"
	"github.com/lrazine99/purple-dog-sub000/internal/testutil/mocks"
)

func eur(amount float64) values.Money {
	return values.MustNewMoneyFromFloat(amount, values.EUR)
}

func eurPtr(amount float64) *values.Money {
	m := eur(amount)
	return &m
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(store *mocks.Store) Service {
	return NewService(store, store.Bids(), store.Items(), store, nil, nil, newTestLogger())
}

func placeBid(t *testing.T, svc Service, itemID, userID uuid.UUID, amount float64, max *float64) *bid.Bid {
	t.Helper()
	req := &PlaceBidRequest{ItemID: itemID, UserID: userID, Amount: eur(amount)}
	if max != nil {
		req.MaxAmount = eurPtr(*max)
	}
	placed, err := svc.PlaceBid(context.Background(), req)
	require.NoError(t, err)
	return placed
}

func maxOf(v float64) *float64 { return &v }

func TestPlaceBid_Validation(t *testing.T) {
	store := mocks.NewStore()
	svc := newTestService(store)
	ctx := context.Background()

	itemID := uuid.New()
	userID := uuid.New()

	tests := []struct {
		name string
		req  *PlaceBidRequest
	}{
		{"nil request", nil},
		{"missing item id", &PlaceBidRequest{UserID: userID, Amount: eur(100)}},
		{"missing user id", &PlaceBidRequest{ItemID: itemID, Amount: eur(100)}},
		{"zero amount", &PlaceBidRequest{ItemID: itemID, UserID: userID, Amount: values.Zero(values.EUR)}},
		{"negative amount", &PlaceBidRequest{ItemID: itemID, UserID: userID, Amount: eur(-5)}},
		{"wrong currency", &PlaceBidRequest{ItemID: itemID, UserID: userID,
			Amount: values.MustNewMoneyFromFloat(100, values.USD)}},
		{"ceiling below amount", &PlaceBidRequest{ItemID: itemID, UserID: userID,
			Amount: eur(200), MaxAmount: eurPtr(150)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PlaceBid(ctx, tt.req)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation), "got %v", err)
		})
	}
}

func TestPlaceBid_Preconditions(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown item", func(t *testing.T) {
		store := mocks.NewStore()
		svc := newTestService(store)

		_, err := svc.PlaceBid(ctx, &PlaceBidRequest{ItemID: uuid.New(), UserID: uuid.New(), Amount: eur(100)})
		assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound), "got %v", err)
	})

	t.Run("fixed price item", func(t *testing.T) {
		store := mocks.NewStore()
		it := fixtures.NewItemBuilder().WithSaleMode(item.SaleModeFixedPrice).Build()
		store.AddItem(it)
		svc := newTestService(store)

		_, err := svc.PlaceBid(ctx, &PlaceBidRequest{ItemID: it.ID, UserID: uuid.New(), Amount: eur(100)})
		assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidState), "got %v", err)
	})

	t.Run("unpublished item", func(t *testing.T) {
		store := mocks.NewStore()
		it := fixtures.NewItemBuilder().WithStatus(item.StatusDraft).Build()
		store.AddItem(it)
		svc := newTestService(store)

		_, err := svc.PlaceBid(ctx, &PlaceBidRequest{ItemID: it.ID, UserID: uuid.New(), Amount: eur(100)})
		assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidState), "got %v", err)
	})

	t.Run("seller bids on own item", func(t *testing.T) {
		store := mocks.NewStore()
		it := fixtures.NewItemBuilder().Build()
		store.AddItem(it)
		svc := newTestService(store)

		_, err := svc.PlaceBid(ctx, &PlaceBidRequest{ItemID: it.ID, UserID: it.SellerID, Amount: eur(100)})
		assert.True(t, errors.IsType(err, errors.ErrorTypeForbidden), "got %v", err)
	})
}

func TestPlaceBid_OpeningPrice(t *testing.T) {
	ctx := context.Background()

	t.Run("below opening price is rejected with the minimum", func(t *testing.T) {
		store := mocks.NewStore()
		it := fixtures.NewItemBuilder().WithStartPrice(100).Build()
		store.AddItem(it)
		svc := newTestService(store)

		_, err := svc.PlaceBid(ctx, &PlaceBidRequest{ItemID: it.ID, UserID: uuid.New(), Amount: eur(95)})
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeBelowMinimum))

		var appErr *errors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "100.00 EUR", appErr.Details["minimum_acceptable"])
	})

	t.Run("exactly the opening price is accepted", func(t *testing.T) {
		store := mocks.NewStore()
		it := fixtures.NewItemBuilder().WithStartPrice(100).Build()
		store.AddItem(it)
		svc := newTestService(store)

		placed := placeBid(t, svc, it.ID, uuid.New(), 100, nil)
		assert.True(t, placed.IsLeader())
	})

	t.Run("minimum price backs up a missing start price", func(t *testing.T) {
		store := mocks.NewStore()
		it := fixtures.NewItemBuilder().WithoutStartPrice().WithPriceMin(80).Build()
		store.AddItem(it)
		svc := newTestService(store)

		_, err := svc.PlaceBid(ctx, &PlaceBidRequest{ItemID: it.ID, UserID: uuid.New(), Amount: eur(50)})
		assert.True(t, errors.IsType(err, errors.ErrorTypeBelowMinimum), "got %v", err)

		placed := placeBid(t, svc, it.ID, uuid.New(), 80, nil)
		assert.True(t, placed.IsLeader())
	})
}

func TestPlaceBid_RaiseMinimum(t *testing.T) {
	store := mocks.NewStore()
	it := fixtures.NewItemBuilder().WithStartPrice(100).Build()
	store.AddItem(it)
	svc := newTestService(store)
	ctx := context.Background()

	placeBid(t, svc, it.ID, uuid.New(), 100, nil)

	// 100 sits on a band boundary, so the next raise is a full 50 step
	_, err := svc.PlaceBid(ctx, &PlaceBidRequest{ItemID: it.ID, UserID: uuid.New(), Amount: eur(100)})
	require.Error(t, err)
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "150.00 EUR", appErr.Details["minimum_acceptable"])

	second := placeBid(t, svc, it.ID, uuid.New(), 150, nil)
	assert.True(t, second.IsLeader())
}

func TestPlaceBid_OutbidManualLeaderIsSuperseded(t *testing.T) {
	store := mocks.NewStore()
	it := fixtures.NewItemBuilder().WithStartPrice(500).Build()
	store.AddItem(it)
	svc := newTestService(store)

	first := placeBid(t, svc, it.ID, uuid.New(), 500, nil)
	second := placeBid(t, svc, it.ID, uuid.New(), 600, maxOf(1000))

	stored, err := svc.GetBid(context.Background(), first.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsWinning)
	assert.False(t, stored.IsActive, "a directly outbid manual bid is spent")

	leader, err := svc.GetCurrentWinningBid(context.Background(), it.ID)
	require.NoError(t, err)
	require.NotNil(t, leader)
	assert.Equal(t, second.ID, leader.ID)
	assert.True(t, leader.Amount.Equal(eur(600)))
}

func TestPlaceBid_OutbidProxyLeaderStaysActive(t *testing.T) {
	store := mocks.NewStore()
	it := fixtures.NewItemBuilder().WithStartPrice(100).Build()
	store.AddItem(it)
	svc := newTestService(store)

	// The manual bid lands beyond the proxy's ceiling, so no counter fires
	first := placeBid(t, svc, it.ID, uuid.New(), 100, maxOf(120))
	placeBid(t, svc, it.ID, uuid.New(), 200, nil)

	stored, err := svc.GetBid(context.Background(), first.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsWinning)
	assert.True(t, stored.IsActive, "the ceiling keeps competing until the ledger seals")
}

func TestPlaceBid_SingleLeaderInvariant(t *testing.T) {
	store := mocks.NewStore()
	it := fixtures.NewItemBuilder().WithStartPrice(100).Build()
	store.AddItem(it)
	svc := newTestService(store)

	u1, u2, u3 := uuid.New(), uuid.New(), uuid.New()
	placeBid(t, svc, it.ID, u1, 100, maxOf(300))
	placeBid(t, svc, it.ID, u2, 150, nil)
	placeBid(t, svc, it.ID, u3, 250, maxOf(400))

	leaders := 0
	for _, b := range store.AllBids() {
		if b.IsActive && b.IsWinning {
			leaders++
		}
	}
	assert.Equal(t, 1, leaders, "exactly one bid may lead an item")
}

func TestGetCurrentWinningBid_EmptyLedger(t *testing.T) {
	store := mocks.NewStore()
	svc := newTestService(store)

	b, err := svc.GetCurrentWinningBid(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestListBids(t *testing.T) {
	store := mocks.NewStore()
	it := fixtures.NewItemBuilder().WithStartPrice(100).Build()
	store.AddItem(it)
	svc := newTestService(store)

	u1, u2 := uuid.New(), uuid.New()
	placeBid(t, svc, it.ID, u1, 100, nil)
	placeBid(t, svc, it.ID, u2, 150, nil)

	ledger, err := svc.ListBidsForItem(context.Background(), it.ID)
	require.NoError(t, err)
	require.Len(t, ledger, 2)
	assert.True(t, ledger[0].Amount.GreaterThan(ledger[1].Amount), "ledger is ordered highest first")

	mine, err := svc.ListBidsForUser(context.Background(), u1)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, u1, mine[0].UserID)
}
