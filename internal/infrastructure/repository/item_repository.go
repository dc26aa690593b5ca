package repository

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lrazine99/purple-dog-sub000/internal/domain/errors"
	"github.com/lrazine99/purple-dog-sub000/internal/domain/item"
	"github.com/lrazine99/purple-dog-sub000/internal/domain/values"
)

const itemColumns = `id, seller_id, title, sale_mode, status, auction_start_price, price_min, auction_end_date, created_at, updated_at`

// ItemRepository implements the bidding engine's read-and-lock view of the
// catalog over PostgreSQL.
type ItemRepository struct {
	pool *pgxpool.Pool
}

// NewItemRepository creates a new item repository
func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

// GetByID retrieves an item by its id
func (r *ItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*item.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetForUpdate retrieves the item and locks its row for the remainder of the
// transaction. Every bid placement and finalization goes through this lock,
// which serializes leader transitions per item.
func (r *ItemRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*item.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

func (r *ItemRepository) getOne(ctx context.Context, query string, id uuid.UUID) (*item.Item, error) {
	it, err := scanItem(queryerFrom(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrItemNotFound
		}
		return nil, errors.NewInternalError("failed to get item").WithCause(err)
	}
	return it, nil
}

// UpdateStatus writes the item's lifecycle status
func (r *ItemRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status item.Status) error {
	query := `UPDATE items SET status = $2, updated_at = $3 WHERE id = $1`
	tag, err := queryerFrom(ctx, r.pool).Exec(ctx, query, id, status.String(), time.Now().UTC())
	if err != nil {
		return errors.NewInternalError("failed to update item status").WithCause(err)
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrItemNotFound
	}
	return nil
}

// ListExpiredAuctions returns published auction items whose end date has
// elapsed, oldest expiry first.
func (r *ItemRepository) ListExpiredAuctions(ctx context.Context, now time.Time, limit int) ([]*item.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE sale_mode = 'auction' AND status = 'published'
		  AND auction_end_date IS NOT NULL AND auction_end_date <= $1
		ORDER BY auction_end_date ASC
		LIMIT $2
	`
	rows, err := queryerFrom(ctx, r.pool).Query(ctx, query, now, limit)
	if err != nil {
		return nil, errors.NewInternalError("failed to list expired auctions").WithCause(err)
	}
	defer rows.Close()

	var out []*item.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, errors.NewInternalError("failed to scan item").WithCause(err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternalError("failed to iterate items").WithCause(err)
	}
	return out, nil
}

func scanItem(row pgx.Row) (*item.Item, error) {
	var (
		it       item.Item
		saleMode string
		status   string
		start    *values.Money
		priceMin *values.Money
	)
	err := row.Scan(
		&it.ID, &it.SellerID, &it.Title, &saleMode, &status,
		&start, &priceMin, &it.AuctionEndDate, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	it.SaleMode = item.ParseSaleMode(saleMode)
	it.Status = item.ParseStatus(status)
	it.AuctionStartPrice = start
	it.PriceMin = priceMin
	return &it, nil
}
