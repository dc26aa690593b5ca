package auction

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lrazine99/purple-dog-sub000/internal/domain/bid"
	"github.com/lrazine99/purple-dog-sub000/internal/domain/item"
	"github.com/lrazine99/purple-dog-sub000/internal/domain/order"
	"github.com/lrazine99/purple-dog-sub000/internal/domain/values"
)

// TransactionManager runs fn inside one atomic transaction. Nested calls
// join the surrounding transaction.
type TransactionManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ItemRepository is the finalizer's view of the catalog projection
type ItemRepository interface {
	// GetForUpdate locks the item row for the rest of the transaction
	GetForUpdate(ctx context.Context, id uuid.UUID) (*item.Item, error)
	// UpdateStatus writes the item's terminal auction state
	UpdateStatus(ctx context.Context, id uuid.UUID, status item.Status) error
	// ListExpiredAuctions returns published auction items whose end date has
	// elapsed, oldest expiry first, bounded by limit
	ListExpiredAuctions(ctx context.Context, now time.Time, limit int) ([]*item.Item, error)
}

// BidRepository is the finalizer's view of the ledger
type BidRepository interface {
	// WinningBid returns the unique active winning bid, or nil when none
	WinningBid(ctx context.Context, itemID uuid.UUID) (*bid.Bid, error)
	// DeactivateAllForItem seals the ledger: every active bid becomes
	// immutable history
	DeactivateAllForItem(ctx context.Context, itemID uuid.UUID) (int64, error)
}

// OrderService creates the order for a won auction. Implementations must be
// idempotent per item so finalization retries never duplicate a sale.
type OrderService interface {
	CreateFromWinningBid(ctx context.Context, itemID, bidID, buyerID, sellerID uuid.UUID, amount values.Money) (*order.Order, error)
}

// UserDirectory resolves user ids to notification addresses
type UserDirectory interface {
	EmailForUser(ctx context.Context, userID uuid.UUID) (string, error)
}

// Notifier is the best-effort notification channel
type Notifier interface {
	Notify(ctx context.Context, email, subject, body string) error
}

// MetricsCollector records finalization and sweep metrics
type MetricsCollector interface {
	RecordAuctionFinalized(ctx context.Context, outcome string)
	RecordSweep(ctx context.Context, duration time.Duration, processed int)
}
