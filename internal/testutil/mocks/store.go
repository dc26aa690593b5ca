// Package mocks provides in-memory doubles for the persistence and
// collaborator interfaces, so service behavior can be tested without
// PostgreSQL.
package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lrazine99/purple-dog-sub000/internal/domain/bid"
	"github.com/lrazine99/purple-dog-sub000/internal/domain/errors"
	"github.com/lrazine99/purple-dog-sub000/internal/domain/item"
	"github.com/lrazine99/purple-dog-sub000/internal/domain/order"
	"github.com/lrazine99/purple-dog-sub000/internal/domain/values"
)

// Store is an in-memory ledger, catalog and order book. Its Bids and Items
// facets satisfy the repository interfaces of the bidding and auction
// services; the store itself acts as transaction manager, order service and
// user directory.
type Store struct {
	mu sync.Mutex

	items  map[uuid.UUID]*item.Item
	bids   map[uuid.UUID]*bid.Bid
	bidSeq map[uuid.UUID]int
	orders map[uuid.UUID]*order.Order
	emails map[uuid.UUID]string

	seq int

	// OrderErr, when set, makes order creation fail
	OrderErr error
	// ForUpdateErr, when set for an item id, makes GetForUpdate fail
	ForUpdateErr map[uuid.UUID]error
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		items:  make(map[uuid.UUID]*item.Item),
		bids:   make(map[uuid.UUID]*bid.Bid),
		bidSeq: make(map[uuid.UUID]int),
		orders: make(map[uuid.UUID]*order.Order),
		emails: make(map[uuid.UUID]string),
	}
}

// Bids returns the ledger facet
func (s *Store) Bids() *BidStore { return &BidStore{s} }

// Items returns the catalog facet
func (s *Store) Items() *ItemStore { return &ItemStore{s} }

// WithTx runs fn directly; the store is always consistent
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// AddItem seeds an item
func (s *Store) AddItem(it *item.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *it
	s.items[it.ID] = &cp
}

// AddUser seeds a user email
func (s *Store) AddUser(id uuid.UUID, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails[id] = email
}

// Item returns the stored item state
func (s *Store) Item(id uuid.UUID) *item.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it, ok := s.items[id]; ok {
		cp := *it
		return &cp
	}
	return nil
}

// Order returns the order attached to an item, or nil
func (s *Store) Order(itemID uuid.UUID) *order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[itemID]; ok {
		cp := *o
		return &cp
	}
	return nil
}

// AllBids returns every stored bid in insertion order
func (s *Store) AllBids() []*bid.Bid {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*bid.Bid, 0, len(s.bids))
	for _, b := range s.bids {
		out = append(out, copyBid(b))
	}
	sort.Slice(out, func(i, j int) bool {
		return s.bidSeq[out[i].ID] < s.bidSeq[out[j].ID]
	})
	return out
}

// CreateFromWinningBid implements the order service, idempotent per item
func (s *Store) CreateFromWinningBid(_ context.Context, itemID, bidID, buyerID, sellerID uuid.UUID, amount values.Money) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.OrderErr != nil {
		return nil, s.OrderErr
	}
	if existing, ok := s.orders[itemID]; ok {
		cp := *existing
		return &cp, nil
	}
	o := order.New(itemID, bidID, buyerID, sellerID, amount)
	s.orders[itemID] = o
	cp := *o
	return &cp, nil
}

// EmailForUser implements the user directory
func (s *Store) EmailForUser(_ context.Context, userID uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if email, ok := s.emails[userID]; ok {
		return email, nil
	}
	return "", errors.ErrUserNotFound
}

// ItemStore is the catalog facet
type ItemStore struct {
	s *Store
}

func (r *ItemStore) GetByID(_ context.Context, id uuid.UUID) (*item.Item, error) {
	if it := r.s.Item(id); it != nil {
		return it, nil
	}
	return nil, errors.ErrItemNotFound
}

func (r *ItemStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*item.Item, error) {
	r.s.mu.Lock()
	err := r.s.ForUpdateErr[id]
	r.s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *ItemStore) UpdateStatus(_ context.Context, id uuid.UUID, status item.Status) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.items[id]
	if !ok {
		return errors.ErrItemNotFound
	}
	it.Status = status
	it.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *ItemStore) ListExpiredAuctions(_ context.Context, now time.Time, limit int) ([]*item.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*item.Item
	for _, it := range r.s.items {
		if it.SaleMode == item.SaleModeAuction && it.Status == item.StatusPublished && it.AuctionExpired(now) {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AuctionEndDate.Before(*out[j].AuctionEndDate)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	copies := make([]*item.Item, len(out))
	for i, it := range out {
		cp := *it
		copies[i] = &cp
	}
	return copies, nil
}

// BidStore is the ledger facet
type BidStore struct {
	s *Store
}

func (r *BidStore) Insert(_ context.Context, b *bid.Bid) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.seq++
	r.s.bids[b.ID] = copyBid(b)
	r.s.bidSeq[b.ID] = r.s.seq
	return nil
}

func (r *BidStore) GetByID(_ context.Context, id uuid.UUID) (*bid.Bid, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if b, ok := r.s.bids[id]; ok {
		return copyBid(b), nil
	}
	return nil, errors.ErrBidNotFound
}

func (r *BidStore) WinningBid(_ context.Context, itemID uuid.UUID) (*bid.Bid, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bids {
		if b.ItemID == itemID && b.IsActive && b.IsWinning {
			return copyBid(b), nil
		}
	}
	return nil, nil
}

func (r *BidStore) ActiveProxyBids(_ context.Context, itemID uuid.UUID) ([]*bid.Bid, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*bid.Bid
	for _, b := range r.s.bids {
		if b.ItemID == itemID && b.IsActive && !b.IsWinning && b.Type == bid.TypeAuto && b.MaxAmount != nil {
			out = append(out, copyBid(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].MaxAmount.Equal(*out[j].MaxAmount) {
			return out[i].MaxAmount.GreaterThan(*out[j].MaxAmount)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return r.s.bidSeq[out[i].ID] < r.s.bidSeq[out[j].ID]
	})
	return out, nil
}

func (r *BidStore) EarliestProxyRegistration(_ context.Context, itemID, userID uuid.UUID) (*bid.Bid, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var earliest *bid.Bid
	for _, b := range r.s.bids {
		if b.ItemID != itemID || b.UserID != userID || !b.IsActive || b.Type != bid.TypeAuto {
			continue
		}
		if earliest == nil || b.CreatedAt.Before(earliest.CreatedAt) ||
			(b.CreatedAt.Equal(earliest.CreatedAt) && r.s.bidSeq[b.ID] < r.s.bidSeq[earliest.ID]) {
			earliest = b
		}
	}
	if earliest == nil {
		return nil, nil
	}
	return copyBid(earliest), nil
}

func (r *BidStore) MarkOutbid(_ context.Context, bidID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bids[bidID]
	if !ok {
		return errors.ErrBidNotFound
	}
	b.MarkOutbid()
	return nil
}

func (r *BidStore) Supersede(_ context.Context, bidID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bids[bidID]
	if !ok {
		return errors.ErrBidNotFound
	}
	b.Supersede()
	return nil
}

func (r *BidStore) DeactivateAllForItem(_ context.Context, itemID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, b := range r.s.bids {
		if b.ItemID == itemID && b.IsActive {
			b.Deactivate()
			b.IsWinning = false
			n++
		}
	}
	return n, nil
}

func (r *BidStore) ListForItem(_ context.Context, itemID uuid.UUID) ([]*bid.Bid, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*bid.Bid
	for _, b := range r.s.bids {
		if b.ItemID == itemID {
			out = append(out, copyBid(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return r.s.bidSeq[out[i].ID] > r.s.bidSeq[out[j].ID]
	})
	return out, nil
}

func (r *BidStore) ListForUser(_ context.Context, userID uuid.UUID) ([]*bid.Bid, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*bid.Bid
	for _, b := range r.s.bids {
		if b.UserID == userID {
			out = append(out, copyBid(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return r.s.bidSeq[out[i].ID] > r.s.bidSeq[out[j].ID]
	})
	return out, nil
}

func copyBid(b *bid.Bid) *bid.Bid {
	cp := *b
	if b.MaxAmount != nil {
		max := *b.MaxAmount
		cp.MaxAmount = &max
	}
	return &cp
}
