// Package fixtures builds test entities with sensible defaults
package fixtures

import (
	"time"

	"github.com/google/uuid"

	"github.com/lrazine99/purple-dog-sub000/internal/domain/item"
	"github.com/lrazine99/purple-dog-sub000/internal/domain/values"
)

// ItemBuilder builds test Item entities
type ItemBuilder struct {
	item item.Item
}

// NewItemBuilder creates an ItemBuilder defaulting to a published auction
// starting at 100 EUR that ends in an hour.
func NewItemBuilder() *ItemBuilder {
	now := time.Now().UTC()
	start := values.MustNewMoneyFromFloat(100, values.EUR)
	end := now.Add(time.Hour)
	return &ItemBuilder{
		item: item.Item{
			ID:                uuid.New(),
			SellerID:          uuid.New(),
			Title:             "Vintage armchair",
			SaleMode:          item.SaleModeAuction,
			Status:            item.StatusPublished,
			AuctionStartPrice: &start,
			AuctionEndDate:    &end,
			CreatedAt:         now,
			UpdatedAt:         now,
		},
	}
}

// WithSeller sets the seller id
func (b *ItemBuilder) WithSeller(sellerID uuid.UUID) *ItemBuilder {
	b.item.SellerID = sellerID
	return b
}

// WithStatus sets the lifecycle status
func (b *ItemBuilder) WithStatus(status item.Status) *ItemBuilder {
	b.item.Status = status
	return b
}

// WithSaleMode sets the sale mode
func (b *ItemBuilder) WithSaleMode(mode item.SaleMode) *ItemBuilder {
	b.item.SaleMode = mode
	return b
}

// WithStartPrice sets the auction start price in EUR
func (b *ItemBuilder) WithStartPrice(amount float64) *ItemBuilder {
	m := values.MustNewMoneyFromFloat(amount, values.EUR)
	b.item.AuctionStartPrice = &m
	return b
}

// WithoutStartPrice clears the auction start price
func (b *ItemBuilder) WithoutStartPrice() *ItemBuilder {
	b.item.AuctionStartPrice = nil
	return b
}

// WithPriceMin sets the minimum price in EUR
func (b *ItemBuilder) WithPriceMin(amount float64) *ItemBuilder {
	m := values.MustNewMoneyFromFloat(amount, values.EUR)
	b.item.PriceMin = &m
	return b
}

// WithEndDate sets the auction end date
func (b *ItemBuilder) WithEndDate(end time.Time) *ItemBuilder {
	b.item.AuctionEndDate = &end
	return b
}

// Expired moves the auction end date into the past
func (b *ItemBuilder) Expired() *ItemBuilder {
	end := time.Now().UTC().Add(-time.Minute)
	b.item.AuctionEndDate = &end
	return b
}

// Build returns the constructed item
func (b *ItemBuilder) Build() *item.Item {
	cp := b.item
	return &cp
}
