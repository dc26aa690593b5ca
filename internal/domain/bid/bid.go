package bid

import (
	"time"

	"github.com/google/uuid"

	"github.com/lrazine99/purple-dog-sub000/internal/domain/values"
)

// Type distinguishes a direct bid from a standing proxy instruction
type Type int

const (
	TypeManual Type = iota
	TypeAuto
)

func (t Type) String() string {
	switch t {
	case TypeManual:
		return "manual"
	case TypeAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// ParseType converts a storage string to a Type
func ParseType(s string) Type {
	if s == "auto" {
		return TypeAuto
	}
	return TypeManual
}

// Bid is one entry in an item's ledger. Rows are append-mostly: after
// insertion only IsWinning, IsActive and UpdatedAt may change, and
// deactivation is a one-way transition.
type Bid struct {
	ID        uuid.UUID     `json:"id"`
	ItemID    uuid.UUID     `json:"item_id"`
	UserID    uuid.UUID     `json:"user_id"`
	Amount    values.Money  `json:"amount"`
	MaxAmount *values.Money `json:"max_amount,omitempty"`
	Type      Type          `json:"type"`
	IsActive  bool          `json:"is_active"`
	IsWinning bool          `json:"is_winning"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewManualBid creates a manual bid that enters the ledger as the leader
func NewManualBid(itemID, userID uuid.UUID, amount values.Money) *Bid {
	now := time.Now().UTC()
	return &Bid{
		ID:        uuid.New(),
		ItemID:    itemID,
		UserID:    userID,
		Amount:    amount,
		Type:      TypeManual,
		IsActive:  true,
		IsWinning: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewProxyBid creates an auto bid: the amount enters as leader and maxAmount
// is the standing ceiling the cascade resolver may escalate to
func NewProxyBid(itemID, userID uuid.UUID, amount, maxAmount values.Money) *Bid {
	b := NewManualBid(itemID, userID, amount)
	b.Type = TypeAuto
	b.MaxAmount = &maxAmount
	return b
}

// NewCounterBid synthesizes the cascade's counter-bid on behalf of a standing
// proxy, carrying the proxy's ceiling forward
func NewCounterBid(itemID, userID uuid.UUID, amount, maxAmount values.Money) *Bid {
	return NewProxyBid(itemID, userID, amount, maxAmount)
}

// Ceiling returns the proxy ceiling, or the bid amount for manual bids
func (b *Bid) Ceiling() values.Money {
	if b.MaxAmount != nil {
		return *b.MaxAmount
	}
	return b.Amount
}

// MarkOutbid clears the winning flag. The bid stays active until the ledger
// is sealed.
func (b *Bid) MarkOutbid() {
	b.IsWinning = false
	b.UpdatedAt = time.Now().UTC()
}

// Supersede removes the bid from contention entirely. One-way.
func (b *Bid) Supersede() {
	b.IsWinning = false
	b.IsActive = false
	b.UpdatedAt = time.Now().UTC()
}

// Deactivate seals the bid at finalization time. One-way.
func (b *Bid) Deactivate() {
	b.IsActive = false
	b.UpdatedAt = time.Now().UTC()
}

// IsLeader reports whether this bid currently holds the item's leader slot
func (b *Bid) IsLeader() bool {
	return b.IsActive && b.IsWinning
}
