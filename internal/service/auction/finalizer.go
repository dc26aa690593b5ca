package auction

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lrazine99/purple-dog-sub000/internal/domain/bid"
	"github.com/lrazine99/purple-dog-sub000/internal/domain/errors"
	"github.com/lrazine99/purple-dog-sub000/internal/domain/item"
)

const notifyTimeout = 10 * time.Second

// Finalization outcomes, used for logging and metrics
const (
	OutcomeSold             = "sold"
	OutcomeNoSale           = "no_sale"
	OutcomeSettlementFailed = "settlement_failed"
	OutcomeAlreadyHandled   = "already_handled"
)

// Finalizer seals the ledger of an expired auction, selects the winner and
// drives the item to its terminal state. Safe to call concurrently and to
// retry: a second run on a terminal item is a no-op.
type Finalizer struct {
	tx       TransactionManager
	items    ItemRepository
	bids     BidRepository
	orders   OrderService
	users    UserDirectory
	notifier Notifier
	metrics  MetricsCollector
	logger   *slog.Logger

	now func() time.Time
}

// NewFinalizer creates a new auction finalizer
func NewFinalizer(
	tx TransactionManager,
	items ItemRepository,
	bids BidRepository,
	orders OrderService,
	users UserDirectory,
	notifier Notifier,
	metrics MetricsCollector,
	logger *slog.Logger,
) *Finalizer {
	return &Finalizer{
		tx:       tx,
		items:    items,
		bids:     bids,
		orders:   orders,
		users:    users,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Finalize drives one expired auction to its terminal state inside a single
// transaction scoped to the item. Idempotent once the item is terminal.
func (f *Finalizer) Finalize(ctx context.Context, itemID uuid.UUID) error {
	var (
		outcome = OutcomeAlreadyHandled
		it      *item.Item
		winner  *bid.Bid
	)

	err := f.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		it, err = f.items.GetForUpdate(ctx, itemID)
		if err != nil {
			return err
		}

		// Re-check inside the transaction: a racing sweep tick or an
		// in-flight bid may have moved the item already.
		if it.SaleMode != item.SaleModeAuction || it.Status != item.StatusPublished || !it.AuctionExpired(f.now()) {
			return nil
		}

		winner, err = f.bids.WinningBid(ctx, itemID)
		if err != nil {
			return err
		}

		// The seal: every bid becomes immutable history.
		if _, err := f.bids.DeactivateAllForItem(ctx, itemID); err != nil {
			return err
		}

		if winner == nil {
			outcome = OutcomeNoSale
			return f.items.UpdateStatus(ctx, itemID, item.StatusDraft)
		}

		if _, err := f.orders.CreateFromWinningBid(ctx, itemID, winner.ID, winner.UserID, it.SellerID, winner.Amount); err != nil {
			return errors.NewDownstreamError("order", "failed to create order from winning bid").WithCause(err)
		}

		outcome = OutcomeSold
		return f.items.UpdateStatus(ctx, itemID, item.StatusSold)
	})

	if err != nil {
		if errors.IsType(err, errors.ErrorTypeDownstream) {
			// The sale transaction rolled back. Park the item in an
			// operator-visible state instead of discarding the won auction.
			f.logger.Error("order creation failed during finalization",
				"item_id", itemID, "error", err)
			return f.markSettlementFailed(ctx, itemID)
		}
		return err
	}

	if f.metrics != nil && outcome != OutcomeAlreadyHandled {
		f.metrics.RecordAuctionFinalized(ctx, outcome)
	}

	switch outcome {
	case OutcomeSold:
		f.logger.Info("auction finalized with winner",
			"item_id", itemID, "bid_id", winner.ID, "amount", winner.Amount.String())
		f.notifySold(it, winner)
	case OutcomeNoSale:
		f.logger.Info("auction ended without bids", "item_id", itemID)
		f.notifyNoSale(it)
	}

	return nil
}

// markSettlementFailed re-seals the item in a follow-up transaction after an
// order-creation failure rolled back the sale.
func (f *Finalizer) markSettlementFailed(ctx context.Context, itemID uuid.UUID) error {
	err := f.tx.WithTx(ctx, func(ctx context.Context) error {
		it, err := f.items.GetForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if it.Status != item.StatusPublished {
			return nil
		}
		if _, err := f.bids.DeactivateAllForItem(ctx, itemID); err != nil {
			return err
		}
		return f.items.UpdateStatus(ctx, itemID, item.StatusSettlementFailed)
	})
	if err != nil {
		return err
	}
	if f.metrics != nil {
		f.metrics.RecordAuctionFinalized(ctx, OutcomeSettlementFailed)
	}
	return nil
}

func (f *Finalizer) notifySold(it *item.Item, winner *bid.Bid) {
	if f.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		f.sendToUser(ctx, winner.UserID,
			"You won the auction",
			"Congratulations, your bid of "+winner.Amount.String()+" won the auction for \""+it.Title+"\".")
		f.sendToUser(ctx, it.SellerID,
			"Your item sold",
			"The auction for \""+it.Title+"\" closed at "+winner.Amount.String()+".")
	}()
}

func (f *Finalizer) notifyNoSale(it *item.Item) {
	if f.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		f.sendToUser(ctx, it.SellerID,
			"Your auction ended without a winning bid",
			"The auction for \""+it.Title+"\" ended without any bids. The listing has been moved back to draft.")
	}()
}

func (f *Finalizer) sendToUser(ctx context.Context, userID uuid.UUID, subject, body string) {
	email, err := f.users.EmailForUser(ctx, userID)
	if err != nil {
		f.logger.Warn("failed to resolve user email", "user_id", userID, "error", err)
		return
	}
	if err := f.notifier.Notify(ctx, email, subject, body); err != nil {
		f.logger.Warn("failed to send notification", "user_id", userID, "subject", subject, "error", err)
	}
}
