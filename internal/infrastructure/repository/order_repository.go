package repository

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lrazine99/purple-dog-sub000/internal/domain/errors"
	"github.com/lrazine99/purple-dog-sub000/internal/domain/order"
	"github.com/lrazine99/purple-dog-sub000/internal/domain/values"
)

const orderColumns = `id, item_id, bid_id, buyer_id, seller_id, amount, status, created_at, updated_at`

// OrderRepository persists orders created from won auctions. The items table
// constrains one order per item, which makes creation idempotent under
// finalization retries.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// CreateFromWinningBid inserts the order for a won auction. If an order for
// the item already exists, the existing order is returned unchanged.
func (r *OrderRepository) CreateFromWinningBid(ctx context.Context, itemID, bidID, buyerID, sellerID uuid.UUID, amount values.Money) (*order.Order, error) {
	o := order.New(itemID, bidID, buyerID, sellerID, amount)

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (item_id) DO NOTHING
	`
	tag, err := queryerFrom(ctx, r.pool).Exec(ctx, query,
		o.ID, o.ItemID, o.BidID, o.BuyerID, o.SellerID,
		o.Amount.Amount(), o.Status.String(), o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return nil, errors.NewInternalError("failed to create order").WithCause(err)
	}
	if tag.RowsAffected() == 0 {
		return r.GetByItemID(ctx, itemID)
	}
	return o, nil
}

// GetByItemID retrieves the order attached to an item
func (r *OrderRepository) GetByItemID(ctx context.Context, itemID uuid.UUID) (*order.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE item_id = $1`

	var (
		o      order.Order
		amount values.Money
		status string
	)
	err := queryerFrom(ctx, r.pool).QueryRow(ctx, query, itemID).Scan(
		&o.ID, &o.ItemID, &o.BidID, &o.BuyerID, &o.SellerID,
		&amount, &status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NewNotFoundError("order")
		}
		return nil, errors.NewInternalError("failed to get order").WithCause(err)
	}
	o.Amount = amount
	o.Status = order.ParseStatus(status)
	return &o, nil
}
