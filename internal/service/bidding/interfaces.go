package bidding

import (
	"context"

	"github.com/google/uuid"

	"github.com/lrazine99/purple-dog-sub000/internal/domain/bid"
	"github.com/lrazine99/purple-dog-sub000/internal/domain/item"
	"github.com/lrazine99/purple-dog-sub000/internal/domain/values"
)

// Service is the bidding surface other subsystems call into
type Service interface {
	// PlaceBid validates and commits a single bid, then resolves standing
	// proxy bids until a stable leader emerges
	PlaceBid(ctx context.Context, req *PlaceBidRequest) (*bid.Bid, error)
	// GetBid retrieves a specific bid
	GetBid(ctx context.Context, bidID uuid.UUID) (*bid.Bid, error)
	// GetCurrentWinningBid returns the item's current leader, or nil
	GetCurrentWinningBid(ctx context.Context, itemID uuid.UUID) (*bid.Bid, error)
	// ListBidsForItem returns the item's ledger, highest and newest first
	ListBidsForItem(ctx context.Context, itemID uuid.UUID) ([]*bid.Bid, error)
	// ListBidsForUser returns a user's bids, newest first
	ListBidsForUser(ctx context.Context, userID uuid.UUID) ([]*bid.Bid, error)
}

// TransactionManager runs fn inside one atomic transaction. Nested calls
// join the surrounding transaction.
type TransactionManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// BidRepository is the bid ledger for an item. Rows are never deleted;
// MarkOutbid and Supersede are the only mutations after insert.
type BidRepository interface {
	Insert(ctx context.Context, b *bid.Bid) error
	GetByID(ctx context.Context, id uuid.UUID) (*bid.Bid, error)
	// WinningBid returns the unique active winning bid, or nil when none
	WinningBid(ctx context.Context, itemID uuid.UUID) (*bid.Bid, error)
	// ActiveProxyBids returns active non-winning auto bids for the item,
	// ordered by ceiling descending then registration time ascending
	ActiveProxyBids(ctx context.Context, itemID uuid.UUID) ([]*bid.Bid, error)
	// EarliestProxyRegistration returns the user's oldest active auto bid
	// for the item, or nil
	EarliestProxyRegistration(ctx context.Context, itemID, userID uuid.UUID) (*bid.Bid, error)
	// MarkOutbid clears is_winning; the bid stays active
	MarkOutbid(ctx context.Context, id uuid.UUID) error
	// Supersede clears both flags; one-way
	Supersede(ctx context.Context, id uuid.UUID) error
	ListForItem(ctx context.Context, itemID uuid.UUID) ([]*bid.Bid, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*bid.Bid, error)
}

// ItemRepository reads the catalog projection
type ItemRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*item.Item, error)
	// GetForUpdate locks the item row for the rest of the transaction,
	// serializing leader transitions per item
	GetForUpdate(ctx context.Context, id uuid.UUID) (*item.Item, error)
}

// UserDirectory resolves user ids to notification addresses
type UserDirectory interface {
	EmailForUser(ctx context.Context, userID uuid.UUID) (string, error)
}

// Notifier is the best-effort notification channel; errors are logged,
// never propagated
type Notifier interface {
	Notify(ctx context.Context, email, subject, body string) error
}

// MetricsCollector records bidding metrics
type MetricsCollector interface {
	RecordBidPlaced(ctx context.Context, b *bid.Bid)
	RecordBidRejected(ctx context.Context, reason string)
	RecordCascadeDepth(ctx context.Context, depth int)
}

// PlaceBidRequest is a bid placement request. MaxAmount, when set, turns
// the bid into a standing proxy instruction.
type PlaceBidRequest struct {
	ItemID    uuid.UUID
	UserID    uuid.UUID
	Amount    values.Money
	MaxAmount *values.Money
}
