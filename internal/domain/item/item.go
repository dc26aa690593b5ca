package item

import (
	"time"

	"github.com/google/uuid"

	"github.com/lrazine99/purple-dog-sub000/internal/domain/values"
)

// SaleMode determines how an item is sold
type SaleMode int

const (
	SaleModeAuction SaleMode = iota
	SaleModeFixedPrice
)

func (m SaleMode) String() string {
	switch m {
	case SaleModeAuction:
		return "auction"
	case SaleModeFixedPrice:
		return "fixed_price"
	default:
		return "unknown"
	}
}

// ParseSaleMode converts a storage string to a SaleMode
func ParseSaleMode(s string) SaleMode {
	if s == "fixed_price" {
		return SaleModeFixedPrice
	}
	return SaleModeAuction
}

// Status is the item lifecycle state. The engine only ever drives
// published items to sold, draft or settlement_failed.
type Status int

const (
	StatusDraft Status = iota
	StatusPublished
	StatusSold
	// StatusSettlementFailed marks an auction that ended with a winner but
	// whose order creation failed. The item needs operator reconciliation
	// instead of silently reverting to draft.
	StatusSettlementFailed
)

func (s Status) String() string {
	switch s {
	case StatusDraft:
		return "draft"
	case StatusPublished:
		return "published"
	case StatusSold:
		return "sold"
	case StatusSettlementFailed:
		return "settlement_failed"
	default:
		return "unknown"
	}
}

// ParseStatus converts a storage string to a Status
func ParseStatus(s string) Status {
	switch s {
	case "published":
		return StatusPublished
	case "sold":
		return StatusSold
	case "settlement_failed":
		return StatusSettlementFailed
	default:
		return StatusDraft
	}
}

// Item is the auction-relevant projection of a catalog listing. The catalog
// collaborator owns creation and the draft/publish workflow; this engine
// only reads the projection and writes Status once an auction concludes.
type Item struct {
	ID                uuid.UUID     `json:"id"`
	SellerID          uuid.UUID     `json:"seller_id"`
	Title             string        `json:"title"`
	SaleMode          SaleMode      `json:"sale_mode"`
	Status            Status        `json:"status"`
	AuctionStartPrice *values.Money `json:"auction_start_price,omitempty"`
	PriceMin          *values.Money `json:"price_min,omitempty"`
	AuctionEndDate    *time.Time    `json:"auction_end_date,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// AcceptsBids reports whether the item is currently open for bidding
func (i *Item) AcceptsBids() bool {
	return i.SaleMode == SaleModeAuction && i.Status == StatusPublished
}

// AuctionExpired reports whether the auction end date has elapsed.
// AuctionEndDate, once set, is the sole expiry authority.
func (i *Item) AuctionExpired(now time.Time) bool {
	return i.AuctionEndDate != nil && !i.AuctionEndDate.After(now)
}

// OpeningPrice is the minimum acceptable amount when no leader exists:
// auction start price, falling back to the minimum price, falling back to
// zero.
func (i *Item) OpeningPrice(currency string) values.Money {
	if i.AuctionStartPrice != nil {
		return *i.AuctionStartPrice
	}
	if i.PriceMin != nil {
		return *i.PriceMin
	}
	return values.Zero(currency)
}
