package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stockservice/internal/platform/observability"
)

const MaxBodyBytes = 1 << 20

// ServiceProvider returns the Service that handles one request.
type ServiceProvider func() Service

type HTTPHandler struct {
	services ServiceProvider
	logger   observability.Logger
}

func NewHTTPHandler(services ServiceProvider, logger observability.Logger) *HTTPHandler {
	return &HTTPHandler{services: services, logger: logger}
}

func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Post("/orders", h.PlaceOrder)
	r.Post("/losses", h.RecordLoss)
	r.Get("/inventory", h.ListInventory)
	r.Get("/dishes", h.ListDishes)
}

type placeOrderRequest struct {
	Dish     string `json:"dish"`
	Quantity *int   `json:"quantity"`
}

type recordLossRequest struct {
	Item     string          `json:"item"`
	Quantity decimal.Decimal `json:"quantity"`
	Reason   string          `json:"reason"`
}

type settlementResponse struct {
	Message      string   `json:"message"`
	SettlementID string   `json:"settlement_id"`
	Cost         string   `json:"cost"`
	LowStock     []string `json:"low_stock"`
}

type errorResponse struct {
	Error       string                     `json:"error"`
	Message     string                     `json:"message"`
	Missing     map[string]decimal.Decimal `json:"missing,omitempty"`
	Applied     []string                   `json:"applied,omitempty"`
	Compensated *bool                      `json:"compensated,omitempty"`
}

// PlaceOrder accepts JSON or the form fields dish and qty. A missing
// quantity means one unit. The chi request ID becomes the settlement's
// request ID.
func (h *HTTPHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	var req placeOrderRequest
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.respondError(w, r, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			h.respondError(w, r, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
			return
		}
		req.Dish = r.PostFormValue("dish")
		if raw := strings.TrimSpace(r.PostFormValue("qty")); raw != "" {
			qty, err := strconv.Atoi(raw)
			if err != nil {
				h.respondError(w, r, fmt.Errorf("%w: qty must be an integer, got %q", ErrInvalidQuantity, raw))
				return
			}
			req.Quantity = &qty
		}
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	settlement, err := h.services().Settle(r.Context(), SettlementRequest{
		RequestID: middleware.GetReqID(r.Context()),
		Kind:      KindOrder,
		Subject:   req.Dish,
		Quantity:  decimal.NewFromInt(int64(quantity)),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, newSettlementResponse(settlement))
}

func (h *HTTPHandler) RecordLoss(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	var req recordLossRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}

	settlement, err := h.services().Settle(r.Context(), SettlementRequest{
		RequestID: middleware.GetReqID(r.Context()),
		Kind:      KindLoss,
		Subject:   req.Item,
		Quantity:  req.Quantity,
		Reason:    req.Reason,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, newSettlementResponse(settlement))
}

func (h *HTTPHandler) ListInventory(w http.ResponseWriter, r *http.Request) {
	items, err := h.services().Inventory(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"inventory": items})
}

func (h *HTTPHandler) ListDishes(w http.ResponseWriter, r *http.Request) {
	dishes, err := h.services().Dishes(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if dishes == nil {
		dishes = []string{}
	}
	respond(w, http.StatusOK, map[string]interface{}{"dishes": dishes})
}

func newSettlementResponse(s *Settlement) settlementResponse {
	lowStock := s.LowStock
	if lowStock == nil {
		lowStock = []string{}
	}
	return settlementResponse{
		Message:      s.Message(),
		SettlementID: s.ID.String(),
		Cost:         s.Cost.StringFixed(costPlaces),
		LowStock:     lowStock,
	}
}

func (h *HTTPHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	code := Code(err)
	body := errorResponse{Error: code, Message: err.Error()}
	status := http.StatusInternalServerError

	var insufficient *InsufficientStockError
	var partial *PartialFailureError
	switch {
	case code == "invalid_request":
		status = http.StatusBadRequest
	case code == "dish_not_found":
		status = http.StatusNotFound
	case errors.As(err, &insufficient):
		status = http.StatusBadRequest
		body.Missing = insufficient.MissingMap()
	case errors.As(err, &partial):
		body.Applied = DeductionPlan(partial.Applied).Ingredients()
		body.Compensated = &partial.Compensated
	case code == "store_fault":
		status = http.StatusBadGateway
		body.Message = "the stock store is unavailable, try again later"
	default:
		body.Message = "internal error"
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("❌ Request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("code", code),
			zap.Error(err),
		)
	}
	respond(w, status, body)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func isJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}
