package rest

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lrazine99/purple-dog-sub000/internal/domain/bid"
)

// PlaceBidRequest is the bid submission payload
type PlaceBidRequest struct {
	UserID    uuid.UUID        `json:"user_id" validate:"required"`
	Amount    decimal.Decimal  `json:"amount" validate:"required"`
	MaxAmount *decimal.Decimal `json:"max_amount,omitempty"`
}

// BidResponse is the wire representation of a ledger entry
type BidResponse struct {
	ID        uuid.UUID        `json:"id"`
	ItemID    uuid.UUID        `json:"item_id"`
	UserID    uuid.UUID        `json:"user_id"`
	Amount    decimal.Decimal  `json:"amount"`
	Currency  string           `json:"currency"`
	MaxAmount *decimal.Decimal `json:"max_amount,omitempty"`
	Type      string           `json:"type"`
	IsActive  bool             `json:"is_active"`
	IsWinning bool             `json:"is_winning"`
	CreatedAt time.Time        `json:"created_at"`
}

// ErrorResponse is the uniform error envelope
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine-readable error fields
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func toBidResponse(b *bid.Bid) BidResponse {
	resp := BidResponse{
		ID:        b.ID,
		ItemID:    b.ItemID,
		UserID:    b.UserID,
		Amount:    b.Amount.Amount(),
		Currency:  b.Amount.Currency(),
		Type:      b.Type.String(),
		IsActive:  b.IsActive,
		IsWinning: b.IsWinning,
		CreatedAt: b.CreatedAt,
	}
	if b.MaxAmount != nil {
		max := b.MaxAmount.Amount()
		resp.MaxAmount = &max
	}
	return resp
}

func toBidResponses(bids []*bid.Bid) []BidResponse {
	out := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		out = append(out, toBidResponse(b))
	}
	return out
}
