package order

import (
	"time"

	"github.com/google/uuid"

	"github.com/lrazine99/purple-dog-sub000/internal/domain/values"
)

// Status tracks an order through settlement. Only the initial state is
// owned by this engine; payment capture belongs to the billing collaborator.
type Status int

const (
	StatusPendingPayment Status = iota
	StatusPaid
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusPendingPayment:
		return "pending_payment"
	case StatusPaid:
		return "paid"
	case StatusCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// ParseStatus converts a storage string to a Status
func ParseStatus(s string) Status {
	switch s {
	case "paid":
		return StatusPaid
	case "canceled":
		return StatusCanceled
	default:
		return StatusPendingPayment
	}
}

// Order records the sale produced by a finalized auction. At most one order
// exists per item, which makes finalization retries idempotent.
type Order struct {
	ID        uuid.UUID    `json:"id"`
	ItemID    uuid.UUID    `json:"item_id"`
	BidID     uuid.UUID    `json:"bid_id"`
	BuyerID   uuid.UUID    `json:"buyer_id"`
	SellerID  uuid.UUID    `json:"seller_id"`
	Amount    values.Money `json:"amount"`
	Status    Status       `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// New creates an order from a winning bid
func New(itemID, bidID, buyerID, sellerID uuid.UUID, amount values.Money) *Order {
	now := time.Now().UTC()
	return &Order{
		ID:        uuid.New(),
		ItemID:    itemID,
		BidID:     bidID,
		BuyerID:   buyerID,
		SellerID:  sellerID,
		Amount:    amount,
		Status:    StatusPendingPayment,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
