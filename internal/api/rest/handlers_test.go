package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lrazine99/purple-dog-sub000/internal/domain/bid"
	"github.com/lrazine99/purple-dog-sub000/internal/domain/errors"
	"github.com/lrazine99/purple-dog-sub000/internal/domain/values"
	"github.com/lrazine99/purple-dog-sub000/internal/service/bidding"
)

// stubBiddingService scripts the service layer for handler tests
type stubBiddingService struct {
	placeBid func(ctx context.Context, req *bidding.PlaceBidRequest) (*bid.Bid, error)
	getBid   func(ctx context.Context, bidID uuid.UUID) (*bid.Bid, error)
	winning  func(ctx context.Context, itemID uuid.UUID) (*bid.Bid, error)
	forItem  func(ctx context.Context, itemID uuid.UUID) ([]*bid.Bid, error)
	forUser  func(ctx context.Context, userID uuid.UUID) ([]*bid.Bid, error)
}

func (s *stubBiddingService) PlaceBid(ctx context.Context, req *bidding.PlaceBidRequest) (*bid.Bid, error) {
	return s.placeBid(ctx, req)
}

func (s *stubBiddingService) GetBid(ctx context.Context, bidID uuid.UUID) (*bid.Bid, error) {
	return s.getBid(ctx, bidID)
}

func (s *stubBiddingService) GetCurrentWinningBid(ctx context.Context, itemID uuid.UUID) (*bid.Bid, error) {
	return s.winning(ctx, itemID)
}

func (s *stubBiddingService) ListBidsForItem(ctx context.Context, itemID uuid.UUID) ([]*bid.Bid, error) {
	return s.forItem(ctx, itemID)
}

func (s *stubBiddingService) ListBidsForUser(ctx context.Context, userID uuid.UUID) ([]*bid.Bid, error) {
	return s.forUser(ctx, userID)
}

func newTestMux(svc bidding.Service) *http.ServeMux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mux := http.NewServeMux()
	NewHandler(svc, logger).RegisterRoutes(mux)
	return mux
}

func eur(amount float64) values.Money {
	return values.MustNewMoneyFromFloat(amount, values.EUR)
}

func TestHandlePlaceBid_Created(t *testing.T) {
	itemID := uuid.New()
	userID := uuid.New()

	svc := &stubBiddingService{
		placeBid: func(_ context.Context, req *bidding.PlaceBidRequest) (*bid.Bid, error) {
			require.Equal(t, itemID, req.ItemID)
			require.Equal(t, userID, req.UserID)
			require.True(t, req.Amount.Equal(eur(150)))
			require.NotNil(t, req.MaxAmount)
			require.True(t, req.MaxAmount.Equal(eur(300)))
			return bid.NewProxyBid(itemID, userID, req.Amount, *req.MaxAmount), nil
		},
	}
	mux := newTestMux(svc)

	body := `{"user_id":"` + userID.String() + `","amount":"150","max_amount":"300"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/items/"+itemID.String()+"/bids", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp BidResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, itemID, resp.ItemID)
	assert.Equal(t, "auto", resp.Type)
	assert.True(t, resp.IsWinning)
	assert.Equal(t, "EUR", resp.Currency)
}

func TestHandlePlaceBid_BadRequests(t *testing.T) {
	svc := &stubBiddingService{
		placeBid: func(context.Context, *bidding.PlaceBidRequest) (*bid.Bid, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	mux := newTestMux(svc)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"malformed item id", "/api/v1/items/not-a-uuid/bids", `{"user_id":"` + uuid.NewString() + `","amount":"100"}`},
		{"malformed body", "/api/v1/items/" + uuid.NewString() + "/bids", `{not json`},
		{"missing user id", "/api/v1/items/" + uuid.NewString() + "/bids", `{"amount":"100"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestHandlePlaceBid_DomainErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"below minimum", errors.NewBelowMinimumError(eur(150)), 422, "BID_BELOW_MINIMUM"},
		{"self bid", errors.NewForbiddenError("SELF_BID", "sellers cannot bid on their own items"), 403, "SELF_BID"},
		{"not published", errors.NewInvalidStateError("ITEM_NOT_PUBLISHED", "item is not published"), 422, "ITEM_NOT_PUBLISHED"},
		{"not found", errors.NewNotFoundError("item"), 404, "RESOURCE_NOT_FOUND"},
		{"conflict", errors.NewTransientConflictError("contention"), 409, "TRANSIENT_CONFLICT"},
		{"unknown error is masked", io.ErrUnexpectedEOF, 500, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubBiddingService{
				placeBid: func(context.Context, *bidding.PlaceBidRequest) (*bid.Bid, error) {
					return nil, tt.err
				},
			}
			mux := newTestMux(svc)

			body := `{"user_id":"` + uuid.NewString() + `","amount":"100"}`
			req := httptest.NewRequest(http.MethodPost, "/api/v1/items/"+uuid.NewString()+"/bids", bytes.NewBufferString(body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestHandlePlaceBid_BelowMinimumDetails(t *testing.T) {
	svc := &stubBiddingService{
		placeBid: func(context.Context, *bidding.PlaceBidRequest) (*bid.Bid, error) {
			return nil, errors.NewBelowMinimumError(eur(150))
		},
	}
	mux := newTestMux(svc)

	body := `{"user_id":"` + uuid.NewString() + `","amount":"100"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/items/"+uuid.NewString()+"/bids", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "150.00 EUR", resp.Error.Details["minimum_acceptable"])
}

func TestHandleWinningBid(t *testing.T) {
	itemID := uuid.New()

	t.Run("found", func(t *testing.T) {
		leader := bid.NewManualBid(itemID, uuid.New(), eur(200))
		svc := &stubBiddingService{
			winning: func(context.Context, uuid.UUID) (*bid.Bid, error) { return leader, nil },
		}
		mux := newTestMux(svc)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/items/"+itemID.String()+"/winning-bid", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp BidResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, leader.ID, resp.ID)
	})

	t.Run("no leader", func(t *testing.T) {
		svc := &stubBiddingService{
			winning: func(context.Context, uuid.UUID) (*bid.Bid, error) { return nil, nil },
		}
		mux := newTestMux(svc)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/items/"+itemID.String()+"/winning-bid", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleListItemBids(t *testing.T) {
	itemID := uuid.New()
	ledger := []*bid.Bid{
		bid.NewManualBid(itemID, uuid.New(), eur(200)),
		bid.NewManualBid(itemID, uuid.New(), eur(150)),
	}
	svc := &stubBiddingService{
		forItem: func(context.Context, uuid.UUID) ([]*bid.Bid, error) { return ledger, nil },
	}
	mux := newTestMux(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items/"+itemID.String()+"/bids", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []BidResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp, 2)
}

func TestHandleListUserBids_EmptyIsAnArray(t *testing.T) {
	svc := &stubBiddingService{
		forUser: func(context.Context, uuid.UUID) ([]*bid.Bid, error) { return nil, nil },
	}
	mux := newTestMux(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/"+uuid.NewString()+"/bids", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}
