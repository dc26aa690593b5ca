package bidding

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lrazine99/purple-dog-sub000/internal/domain/bid"
	"github.com/lrazine99/purple-dog-sub000/internal/domain/errors"
	"github.com/lrazine99/purple-dog-sub000/internal/domain/item"
	"github.com/lrazine99/purple-dog-sub000/internal/domain/values"
)

const notifyTimeout = 10 * time.Second

// service implements the Service interface
type service struct {
	tx       TransactionManager
	bids     BidRepository
	items    ItemRepository
	users    UserDirectory
	notifier Notifier
	metrics  MetricsCollector
	logger   *slog.Logger
	cascade  *cascadeResolver
	currency string
}

// NewService creates a new bidding service
func NewService(
	tx TransactionManager,
	bids BidRepository,
	items ItemRepository,
	users UserDirectory,
	notifier Notifier,
	metrics MetricsCollector,
	logger *slog.Logger,
) Service {
	return &service{
		tx:       tx,
		bids:     bids,
		items:    items,
		users:    users,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		cascade:  newCascadeResolver(bids, logger),
		currency: values.EUR,
	}
}

// PlaceBid validates and commits a single bid against the ledger and an item
// snapshot, all inside one transaction so the single-leader invariant holds
// under concurrent submitters. The returned bid reflects final state after
// the proxy cascade, so it may already be superseded.
func (s *service) PlaceBid(ctx context.Context, req *PlaceBidRequest) (*bid.Bid, error) {
	if err := s.validateRequest(req); err != nil {
		s.recordRejection(ctx, err)
		return nil, err
	}

	var (
		placed     *bid.Bid
		prevLeader *bid.Bid
		outcome    *cascadeOutcome
	)

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		it, err := s.items.GetForUpdate(ctx, req.ItemID)
		if err != nil {
			return err
		}
		if it.SaleMode != item.SaleModeAuction {
			return errors.ErrItemNotAuctioned
		}
		if it.Status == item.StatusSold || it.Status == item.StatusSettlementFailed {
			return errors.ErrAuctionSealed
		}
		if it.Status != item.StatusPublished {
			return errors.ErrItemNotPublished
		}
		if req.UserID == it.SellerID {
			return errors.ErrSelfBid
		}

		prevLeader, err = s.bids.WinningBid(ctx, req.ItemID)
		if err != nil {
			return err
		}

		minimum := s.minimumAcceptable(it, prevLeader)
		if req.Amount.LessThan(minimum) {
			return errors.NewBelowMinimumError(minimum)
		}

		if prevLeader != nil {
			// A displaced manual leader is spent; a displaced proxy keeps its
			// ceiling in contention until the ledger seals.
			displace := s.bids.Supersede
			if prevLeader.Type == bid.TypeAuto {
				displace = s.bids.MarkOutbid
			}
			if err := displace(ctx, prevLeader.ID); err != nil {
				return err
			}
		}

		var nb *bid.Bid
		if req.MaxAmount != nil {
			nb = bid.NewProxyBid(req.ItemID, req.UserID, req.Amount, *req.MaxAmount)
		} else {
			nb = bid.NewManualBid(req.ItemID, req.UserID, req.Amount)
		}
		if err := s.bids.Insert(ctx, nb); err != nil {
			return err
		}

		outcome, err = s.cascade.Resolve(ctx, req.ItemID, nb)
		if err != nil {
			return err
		}

		placed, err = s.bids.GetByID(ctx, nb.ID)
		return err
	})
	if err != nil {
		s.recordRejection(ctx, err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordBidPlaced(ctx, placed)
		s.metrics.RecordCascadeDepth(ctx, outcome.steps)
	}

	// Notification dispatch happens strictly after commit so a slow or
	// failing channel cannot block or fail a bid.
	s.notifyAfterPlacement(placed, prevLeader, outcome)

	return placed, nil
}

// GetBid retrieves a specific bid
func (s *service) GetBid(ctx context.Context, bidID uuid.UUID) (*bid.Bid, error) {
	return s.bids.GetByID(ctx, bidID)
}

// GetCurrentWinningBid returns the item's current leader, or nil
func (s *service) GetCurrentWinningBid(ctx context.Context, itemID uuid.UUID) (*bid.Bid, error) {
	return s.bids.WinningBid(ctx, itemID)
}

// ListBidsForItem returns the item's ledger, highest and newest first
func (s *service) ListBidsForItem(ctx context.Context, itemID uuid.UUID) ([]*bid.Bid, error) {
	return s.bids.ListForItem(ctx, itemID)
}

// ListBidsForUser returns a user's bids, newest first
func (s *service) ListBidsForUser(ctx context.Context, userID uuid.UUID) ([]*bid.Bid, error) {
	return s.bids.ListForUser(ctx, userID)
}

// minimumAcceptable computes the lowest amount a new bid must reach: one
// tier raise above the current leader, or the opening price when the ledger
// is empty.
func (s *service) minimumAcceptable(it *item.Item, leader *bid.Bid) values.Money {
	if leader != nil {
		return bid.NextRaise(leader.Amount)
	}
	return it.OpeningPrice(s.currency)
}

func (s *service) validateRequest(req *PlaceBidRequest) error {
	if req == nil {
		return errors.NewValidationError("MISSING_REQUEST", "request is required")
	}
	if req.ItemID == uuid.Nil {
		return errors.NewValidationError("MISSING_ITEM_ID", "item ID is required")
	}
	if req.UserID == uuid.Nil {
		return errors.NewValidationError("MISSING_USER_ID", "user ID is required")
	}
	if !req.Amount.IsPositive() {
		return errors.NewValidationError("INVALID_AMOUNT", "bid amount must be positive")
	}
	if req.Amount.Currency() != s.currency {
		return errors.NewValidationError("INVALID_CURRENCY", "bid currency does not match the marketplace currency")
	}
	if req.MaxAmount != nil {
		if req.MaxAmount.Currency() != s.currency {
			return errors.NewValidationError("INVALID_CURRENCY", "ceiling currency does not match the marketplace currency")
		}
		if req.MaxAmount.LessThan(req.Amount) {
			return errors.NewValidationError("INVALID_MAX_AMOUNT", "ceiling must be greater than or equal to the bid amount")
		}
	}
	return nil
}

func (s *service) recordRejection(ctx context.Context, err error) {
	if s.metrics == nil {
		return
	}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		s.metrics.RecordBidRejected(ctx, string(appErr.Type))
		return
	}
	s.metrics.RecordBidRejected(ctx, "internal")
}

// notifyAfterPlacement emits the outbid notice for the superseded leader and
// the near-ceiling notices collected by the cascade. Fire and forget.
func (s *service) notifyAfterPlacement(placed, prevLeader *bid.Bid, outcome *cascadeOutcome) {
	if s.notifier == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		notified := make(map[uuid.UUID]bool)
		if prevLeader != nil && prevLeader.UserID != outcome.leader.UserID {
			notified[prevLeader.UserID] = true
			s.sendToUser(ctx, prevLeader.UserID,
				"You have been outbid",
				"Another bid of "+outcome.leader.Amount.String()+" has taken the lead on an item you were winning.")
		}
		for _, near := range outcome.nearCeiling {
			if notified[near.UserID] {
				continue
			}
			notified[near.UserID] = true
			s.sendToUser(ctx, near.UserID,
				"Your automatic bid is nearing its maximum",
				"The bidding on an item has reached "+outcome.leader.Amount.String()+", close to your ceiling of "+near.Ceiling().String()+".")
		}
	}()
}

func (s *service) sendToUser(ctx context.Context, userID uuid.UUID, subject, body string) {
	email, err := s.users.EmailForUser(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to resolve user email", "user_id", userID, "error", err)
		return
	}
	if err := s.notifier.Notify(ctx, email, subject, body); err != nil {
		s.logger.Warn("failed to send notification", "user_id", userID, "subject", subject, "error", err)
	}
}
