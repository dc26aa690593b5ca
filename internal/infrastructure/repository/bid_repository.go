package repository

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lrazine99/purple-dog-sub000/internal/domain/bid"
	"github.com/lrazine99/purple-dog-sub000/internal/domain/errors"
	"github.com/lrazine99/purple-dog-sub000/internal/domain/values"
)

const bidColumns = `id, item_id, user_id, amount, max_amount, bid_type, is_active, is_winning, created_at, updated_at`

// BidRepository implements the ledger over PostgreSQL. All writes are
// append-or-flag: amounts never change after insertion.
type BidRepository struct {
	pool *pgxpool.Pool
}

// NewBidRepository creates a new bid repository
func NewBidRepository(pool *pgxpool.Pool) *BidRepository {
	return &BidRepository{pool: pool}
}

// Insert appends a bid to the ledger
func (r *BidRepository) Insert(ctx context.Context, b *bid.Bid) error {
	query := `
		INSERT INTO bids (` + bidColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	var maxAmount any
	if b.MaxAmount != nil {
		maxAmount = b.MaxAmount.Amount()
	}

	_, err := queryerFrom(ctx, r.pool).Exec(ctx, query,
		b.ID, b.ItemID, b.UserID, b.Amount.Amount(), maxAmount,
		b.Type.String(), b.IsActive, b.IsWinning, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return errors.NewInternalError("failed to insert bid").WithCause(err)
	}
	return nil
}

// GetByID retrieves a bid by its id
func (r *BidRepository) GetByID(ctx context.Context, id uuid.UUID) (*bid.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE id = $1`
	b, err := scanBid(queryerFrom(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrBidNotFound
		}
		return nil, errors.NewInternalError("failed to get bid").WithCause(err)
	}
	return b, nil
}

// WinningBid returns the item's unique active winning bid, or nil when the
// item has no leader.
func (r *BidRepository) WinningBid(ctx context.Context, itemID uuid.UUID) (*bid.Bid, error) {
	query := `
		SELECT ` + bidColumns + `
		FROM bids
		WHERE item_id = $1 AND is_active AND is_winning
	`
	b, err := scanBid(queryerFrom(ctx, r.pool).QueryRow(ctx, query, itemID))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.NewInternalError("failed to get winning bid").WithCause(err)
	}
	return b, nil
}

// ActiveProxyBids returns the item's standing automatic bids that are not
// currently leading, strongest first: highest ceiling, then earliest
// registration.
func (r *BidRepository) ActiveProxyBids(ctx context.Context, itemID uuid.UUID) ([]*bid.Bid, error) {
	query := `
		SELECT ` + bidColumns + `
		FROM bids
		WHERE item_id = $1 AND is_active AND NOT is_winning
		  AND bid_type = 'auto' AND max_amount IS NOT NULL
		ORDER BY max_amount DESC, created_at ASC
	`
	return r.queryBids(ctx, query, itemID)
}

// EarliestProxyRegistration returns the user's oldest active automatic bid on
// the item, or nil when the user has none.
func (r *BidRepository) EarliestProxyRegistration(ctx context.Context, itemID, userID uuid.UUID) (*bid.Bid, error) {
	query := `
		SELECT ` + bidColumns + `
		FROM bids
		WHERE item_id = $1 AND user_id = $2 AND is_active AND bid_type = 'auto'
		ORDER BY created_at ASC
		LIMIT 1
	`
	b, err := scanBid(queryerFrom(ctx, r.pool).QueryRow(ctx, query, itemID, userID))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.NewInternalError("failed to get proxy registration").WithCause(err)
	}
	return b, nil
}

// MarkOutbid clears the winning flag on a displaced proxy leader. The bid
// stays active so its ceiling keeps competing.
func (r *BidRepository) MarkOutbid(ctx context.Context, bidID uuid.UUID) error {
	return r.setFlags(ctx, bidID, "is_winning = FALSE")
}

// Supersede retires a leader displaced by the cascade: it neither leads nor
// competes again.
func (r *BidRepository) Supersede(ctx context.Context, bidID uuid.UUID) error {
	return r.setFlags(ctx, bidID, "is_active = FALSE, is_winning = FALSE")
}

func (r *BidRepository) setFlags(ctx context.Context, bidID uuid.UUID, set string) error {
	query := `UPDATE bids SET ` + set + `, updated_at = $2 WHERE id = $1`
	tag, err := queryerFrom(ctx, r.pool).Exec(ctx, query, bidID, time.Now().UTC())
	if err != nil {
		return errors.NewInternalError("failed to update bid flags").WithCause(err)
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrBidNotFound
	}
	return nil
}

// DeactivateAllForItem seals the item's ledger and reports how many bids it
// retired.
func (r *BidRepository) DeactivateAllForItem(ctx context.Context, itemID uuid.UUID) (int64, error) {
	query := `
		UPDATE bids
		SET is_active = FALSE, is_winning = FALSE, updated_at = $2
		WHERE item_id = $1 AND is_active
	`
	tag, err := queryerFrom(ctx, r.pool).Exec(ctx, query, itemID, time.Now().UTC())
	if err != nil {
		return 0, errors.NewInternalError("failed to seal bid ledger").WithCause(err)
	}
	return tag.RowsAffected(), nil
}

// ListForItem returns the item's full ledger, highest amount then newest
// first.
func (r *BidRepository) ListForItem(ctx context.Context, itemID uuid.UUID) ([]*bid.Bid, error) {
	query := `
		SELECT ` + bidColumns + `
		FROM bids
		WHERE item_id = $1
		ORDER BY amount DESC, created_at DESC
	`
	return r.queryBids(ctx, query, itemID)
}

// ListForUser returns the user's bids across all items, newest first
func (r *BidRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*bid.Bid, error) {
	query := `
		SELECT ` + bidColumns + `
		FROM bids
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	return r.queryBids(ctx, query, userID)
}

func (r *BidRepository) queryBids(ctx context.Context, query string, args ...any) ([]*bid.Bid, error) {
	rows, err := queryerFrom(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternalError("failed to query bids").WithCause(err)
	}
	defer rows.Close()

	var out []*bid.Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, errors.NewInternalError("failed to scan bid").WithCause(err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternalError("failed to iterate bids").WithCause(err)
	}
	return out, nil
}

func scanBid(row pgx.Row) (*bid.Bid, error) {
	var (
		b         bid.Bid
		amount    values.Money
		maxAmount *values.Money
		bidType   string
	)
	err := row.Scan(
		&b.ID, &b.ItemID, &b.UserID, &amount, &maxAmount,
		&bidType, &b.IsActive, &b.IsWinning, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Amount = amount
	b.MaxAmount = maxAmount
	b.Type = bid.ParseType(bidType)
	return &b, nil
}
