package rest

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/lrazine99/purple-dog-sub000/internal/domain/errors"
	"github.com/lrazine99/purple-dog-sub000/internal/domain/values"
	"github.com/lrazine99/purple-dog-sub000/internal/service/bidding"
)

const maxBodySize = 1 << 20 // 1MB

// Handler serves the bidding API
type Handler struct {
	bidding  bidding.Service
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates the API handler
func NewHandler(biddingSvc bidding.Service, logger *slog.Logger) *Handler {
	return &Handler{
		bidding:  biddingSvc,
		validate: validator.New(),
		logger:   logger,
	}
}

// RegisterRoutes attaches the API routes to the mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/items/{id}/bids", h.handlePlaceBid)
	mux.HandleFunc("GET /api/v1/items/{id}/bids", h.handleListItemBids)
	mux.HandleFunc("GET /api/v1/items/{id}/winning-bid", h.handleWinningBid)
	mux.HandleFunc("GET /api/v1/users/{id}/bids", h.handleListUserBids)
	mux.HandleFunc("GET /api/v1/bids/{id}", h.handleGetBid)
}

func (h *Handler) handlePlaceBid(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathUUID(r, "id")
	if err != nil {
		h.writeError(w, r, errors.NewValidationError("INVALID_ITEM_ID", "item id must be a valid UUID"))
		return
	}

	var req PlaceBidRequest
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		h.writeError(w, r, errors.NewValidationError("INVALID_BODY", "request body must be valid JSON"))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.writeError(w, r, errors.NewValidationError("INVALID_REQUEST", err.Error()))
		return
	}

	amount, err := values.NewMoney(req.Amount, values.EUR)
	if err != nil {
		h.writeError(w, r, errors.NewValidationError("INVALID_AMOUNT", err.Error()))
		return
	}
	svcReq := &bidding.PlaceBidRequest{
		ItemID: itemID,
		UserID: req.UserID,
		Amount: amount,
	}
	if req.MaxAmount != nil {
		max, err := values.NewMoney(*req.MaxAmount, values.EUR)
		if err != nil {
			h.writeError(w, r, errors.NewValidationError("INVALID_MAX_AMOUNT", err.Error()))
			return
		}
		svcReq.MaxAmount = &max
	}

	placed, err := h.bidding.PlaceBid(r.Context(), svcReq)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toBidResponse(placed))
}

func (h *Handler) handleGetBid(w http.ResponseWriter, r *http.Request) {
	bidID, err := pathUUID(r, "id")
	if err != nil {
		h.writeError(w, r, errors.NewValidationError("INVALID_BID_ID", "bid id must be a valid UUID"))
		return
	}
	b, err := h.bidding.GetBid(r.Context(), bidID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toBidResponse(b))
}

func (h *Handler) handleWinningBid(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathUUID(r, "id")
	if err != nil {
		h.writeError(w, r, errors.NewValidationError("INVALID_ITEM_ID", "item id must be a valid UUID"))
		return
	}
	b, err := h.bidding.GetCurrentWinningBid(r.Context(), itemID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if b == nil {
		h.writeError(w, r, errors.NewNotFoundError("winning bid"))
		return
	}
	h.writeJSON(w, http.StatusOK, toBidResponse(b))
}

func (h *Handler) handleListItemBids(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathUUID(r, "id")
	if err != nil {
		h.writeError(w, r, errors.NewValidationError("INVALID_ITEM_ID", "item id must be a valid UUID"))
		return
	}
	bids, err := h.bidding.ListBidsForItem(r.Context(), itemID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toBidResponses(bids))
}

func (h *Handler) handleListUserBids(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "id")
	if err != nil {
		h.writeError(w, r, errors.NewValidationError("INVALID_USER_ID", "user id must be a valid UUID"))
		return
	}
	bids, err := h.bidding.ListBidsForUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toBidResponses(bids))
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(r.PathValue(name))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps domain errors onto the uniform error envelope. Unknown
// errors are masked as 500s so internals never leak to clients.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		h.logger.Error("unhandled error", "method", r.Method, "path", r.URL.Path, "error", err)
		appErr = errors.NewInternalError("internal server error")
	}
	if appErr.Type == errors.ErrorTypeInternal {
		h.logger.Error("internal error", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	h.writeJSON(w, appErr.StatusCode, ErrorResponse{Error: ErrorDetail{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}})
}
