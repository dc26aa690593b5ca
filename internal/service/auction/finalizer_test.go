package auction

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lrazine99/purple-dog-sub000/internal/domain/bid"
	"github.com/lrazine99/purple-dog-sub000/internal/domain/item"
	"github.com/lrazine99/purple-dog-sub000/internal/domain/values"
	"github.com/lrazine99/purple-dog-sub000/internal/testutil/fixtures"
	"github.com/lrazine99/purple-dog-sub000/internal/testutil/mocks"
)

func eur(amount float64) values.Money {
	return values.MustNewMoneyFromFloat(amount, values.EUR)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestFinalizer(store *mocks.Store) *Finalizer {
	return NewFinalizer(store, store.Items(), store.Bids(), store, store, nil, nil, newTestLogger())
}

func seedBid(t *testing.T, store *mocks.Store, b *bid.Bid) *bid.Bid {
	t.Helper()
	require.NoError(t, store.Bids().Insert(context.Background(), b))
	return b
}

func TestFinalize_WinnerProducesOrderAndSoldItem(t *testing.T) {
	store := mocks.NewStore()
	it := fixtures.NewItemBuilder().WithStartPrice(100).Expired().Build()
	store.AddItem(it)

	loser := bid.NewManualBid(it.ID, uuid.New(), eur(100))
	loser.Supersede()
	seedBid(t, store, loser)
	winner := seedBid(t, store, bid.NewManualBid(it.ID, uuid.New(), eur(150)))

	f := newTestFinalizer(store)
	require.NoError(t, f.Finalize(context.Background(), it.ID))

	assert.Equal(t, item.StatusSold, store.Item(it.ID).Status)

	o := store.Order(it.ID)
	require.NotNil(t, o)
	assert.Equal(t, winner.ID, o.BidID)
	assert.Equal(t, winner.UserID, o.BuyerID)
	assert.Equal(t, it.SellerID, o.SellerID)
	assert.True(t, o.Amount.Equal(eur(150)))

	for _, b := range store.AllBids() {
		assert.False(t, b.IsActive, "finalization seals every bid")
	}
}

func TestFinalize_NoBidsRevertsToDraft(t *testing.T) {
	store := mocks.NewStore()
	it := fixtures.NewItemBuilder().Expired().Build()
	store.AddItem(it)

	f := newTestFinalizer(store)
	require.NoError(t, f.Finalize(context.Background(), it.ID))

	assert.Equal(t, item.StatusDraft, store.Item(it.ID).Status)
	assert.Nil(t, store.Order(it.ID))
}

func TestFinalize_NotExpiredIsANoOp(t *testing.T) {
	store := mocks.NewStore()
	it := fixtures.NewItemBuilder().WithEndDate(time.Now().UTC().Add(time.Hour)).Build()
	store.AddItem(it)
	seedBid(t, store, bid.NewManualBid(it.ID, uuid.New(), eur(150)))

	f := newTestFinalizer(store)
	require.NoError(t, f.Finalize(context.Background(), it.ID))

	assert.Equal(t, item.StatusPublished, store.Item(it.ID).Status)
	leader, err := store.Bids().WinningBid(context.Background(), it.ID)
	require.NoError(t, err)
	assert.NotNil(t, leader, "a live auction keeps its leader")
}

func TestFinalize_Idempotent(t *testing.T) {
	store := mocks.NewStore()
	it := fixtures.NewItemBuilder().Expired().Build()
	store.AddItem(it)
	seedBid(t, store, bid.NewManualBid(it.ID, uuid.New(), eur(150)))

	f := newTestFinalizer(store)
	require.NoError(t, f.Finalize(context.Background(), it.ID))
	firstOrder := store.Order(it.ID)

	require.NoError(t, f.Finalize(context.Background(), it.ID))

	assert.Equal(t, item.StatusSold, store.Item(it.ID).Status)
	assert.Equal(t, firstOrder.ID, store.Order(it.ID).ID, "re-finalizing never duplicates the order")
}

func TestFinalize_OrderFailureParksItem(t *testing.T) {
	store := mocks.NewStore()
	it := fixtures.NewItemBuilder().Expired().Build()
	store.AddItem(it)
	seedBid(t, store, bid.NewManualBid(it.ID, uuid.New(), eur(150)))

	store.OrderErr = fmt.Errorf("order service unavailable")

	f := newTestFinalizer(store)
	require.NoError(t, f.Finalize(context.Background(), it.ID))

	assert.Equal(t, item.StatusSettlementFailed, store.Item(it.ID).Status)
	assert.Nil(t, store.Order(it.ID))
	for _, b := range store.AllBids() {
		assert.False(t, b.IsActive, "the ledger seals even when settlement fails")
	}
}

func TestFinalize_UnknownItem(t *testing.T) {
	store := mocks.NewStore()
	f := newTestFinalizer(store)

	err := f.Finalize(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestFinalize_WinnerNotification(t *testing.T) {
	store := mocks.NewStore()
	it := fixtures.NewItemBuilder().Expired().Build()
	store.AddItem(it)
	buyer := uuid.New()
	store.AddUser(buyer, "buyer@example.com")
	store.AddUser(it.SellerID, "seller@example.com")
	seedBid(t, store, bid.NewManualBid(it.ID, buyer, eur(150)))

	notifier := mocks.NewNotifier()
	f := NewFinalizer(store, store.Items(), store.Bids(), store, store, notifier, nil, newTestLogger())
	require.NoError(t, f.Finalize(context.Background(), it.ID))

	require.Eventually(t, func() bool {
		return len(notifier.Sent()) == 2
	}, time.Second, 10*time.Millisecond)

	emails := map[string]bool{}
	for _, n := range notifier.Sent() {
		emails[n.Email] = true
	}
	assert.True(t, emails["buyer@example.com"])
	assert.True(t, emails["seller@example.com"])
}
