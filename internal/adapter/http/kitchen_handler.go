package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/YelzhanWeb/prepboard/internal/adapter/logger"
	"github.com/YelzhanWeb/prepboard/internal/domain"
	"github.com/YelzhanWeb/prepboard/internal/interfaces"
	"github.com/google/uuid"
)

type KitchenHandler struct {
	board  interfaces.KitchenBoard
	logger logger.Logger
}

func NewKitchenHandler(board interfaces.KitchenBoard, logger logger.Logger) *KitchenHandler {
	return &KitchenHandler{
		board:  board,
		logger: logger,
	}
}

type ViewItemResponse struct {
	ID           string    `json:"id"`
	OrderID      string    `json:"order_id"`
	OrderNumber  string    `json:"order_number"`
	Customer     string    `json:"customer"`
	Item         string    `json:"item"`
	Variant      *string   `json:"variant,omitempty"`
	Sauce        *string   `json:"sauce,omitempty"`
	Quantity     int       `json:"quantity"`
	Notes        string    `json:"notes,omitempty"`
	Category     string    `json:"category"`
	DeliveryTime string    `json:"delivery_time"`
	PrepStart    time.Time `json:"prep_start"`
	Status       string    `json:"status"`
	Urgency      string    `json:"urgency"`
	Overdue      bool      `json:"overdue"`
}

type CategoryGroupResponse struct {
	Category      string             `json:"category"`
	Label         string             `json:"label"`
	LeadTimeHours int                `json:"lead_time_hours"`
	Items         []ViewItemResponse `json:"items"`
}

type SkippedItemResponse struct {
	ID          string `json:"id"`
	OrderNumber string `json:"order_number"`
	Reason      string `json:"reason"`
}

type ViewResponse struct {
	View          string                  `json:"view"`
	ShowCompleted bool                    `json:"show_completed"`
	GeneratedAt   time.Time               `json:"generated_at"`
	RefreshedAt   time.Time               `json:"refreshed_at"`
	Groups        []CategoryGroupResponse `json:"groups,omitempty"`
	Items         []ViewItemResponse      `json:"items,omitempty"`
	Skipped       []SkippedItemResponse   `json:"skipped,omitempty"`
}

type AdvanceResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Register mounts the kitchen routes on mux.
func (h *KitchenHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /kitchen/items", h.GetView)
	mux.HandleFunc("POST /kitchen/items/{id}/advance", h.AdvanceItem)
	mux.HandleFunc("POST /kitchen/refresh", h.Refresh)
	mux.HandleFunc("GET /kitchen/ws", h.Stream)
}

func (h *KitchenHandler) GetView(w http.ResponseWriter, r *http.Request) {
	opts, err := parseViewOptions(r)
	if err != nil {
		h.respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	view, err := h.board.View(r.Context(), opts)
	if err != nil {
		h.logger.Error("view_failed", "Failed to build kitchen view", w.Header().Get(requestIDHeader), nil, err)
		h.respondError(w, "kitchen board unavailable", http.StatusServiceUnavailable)
		return
	}

	h.respondJSON(w, http.StatusOK, toViewResponse(view))
}

func (h *KitchenHandler) AdvanceItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.respondError(w, "invalid item id", http.StatusBadRequest)
		return
	}

	status, err := h.board.Advance(r.Context(), id)
	if err != nil {
		code := statusFor(err)
		h.logger.Error("advance_failed", "Failed to advance item status", w.Header().Get(requestIDHeader), map[string]interface{}{
			"item_id": id.String(),
			"code":    code,
		}, err)
		h.respondError(w, err.Error(), code)
		return
	}

	h.respondJSON(w, http.StatusOK, AdvanceResponse{ID: id.String(), Status: string(status)})
}

func (h *KitchenHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.board.Refresh(r.Context()); err != nil {
		h.logger.Error("refresh_failed", "Manual refresh failed", w.Header().Get(requestIDHeader), nil, err)
		h.respondError(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrStatusTransitionConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func parseViewOptions(r *http.Request) (domain.ViewOptions, error) {
	q := r.URL.Query()

	mode, err := domain.ParseViewMode(q.Get("view"))
	if err != nil {
		return domain.ViewOptions{}, err
	}

	showCompleted := false
	if v := q.Get("show_completed"); v != "" {
		showCompleted, err = strconv.ParseBool(v)
		if err != nil {
			return domain.ViewOptions{}, errors.New("show_completed must be a boolean")
		}
	}

	return domain.ViewOptions{Mode: mode, ShowCompleted: showCompleted}, nil
}

func toViewResponse(v *domain.KitchenView) ViewResponse {
	resp := ViewResponse{
		View:          string(v.Mode),
		ShowCompleted: v.ShowCompleted,
		GeneratedAt:   v.GeneratedAt,
		RefreshedAt:   v.RefreshedAt,
	}

	for _, g := range v.Groups {
		resp.Groups = append(resp.Groups, CategoryGroupResponse{
			Category:      string(g.Category),
			Label:         g.Label,
			LeadTimeHours: g.LeadTimeHours,
			Items:         toItemResponses(g.Items),
		})
	}
	if v.Mode == domain.ViewTimeline {
		resp.Items = toItemResponses(v.Items)
	}
	for _, s := range v.Skipped {
		resp.Skipped = append(resp.Skipped, SkippedItemResponse{
			ID:          s.ItemID.String(),
			OrderNumber: s.OrderNumber,
			Reason:      s.Reason,
		})
	}

	return resp
}

func toItemResponses(items []domain.ViewItem) []ViewItemResponse {
	out := make([]ViewItemResponse, len(items))
	for i, it := range items {
		out[i] = ViewItemResponse{
			ID:           it.ItemID.String(),
			OrderID:      it.OrderID.String(),
			OrderNumber:  it.OrderNumber,
			Customer:     it.CustomerName,
			Item:         it.MenuItemName,
			Variant:      it.VariantName,
			Sauce:        it.SauceName,
			Quantity:     it.Quantity,
			Notes:        it.Notes,
			Category:     string(it.Category),
			DeliveryTime: it.DeliveryTime,
			PrepStart:    it.PrepStart,
			Status:       string(it.Status),
			Urgency:      string(it.Urgency),
			Overdue:      it.Overdue,
		}
	}
	return out
}

func (h *KitchenHandler) respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	writeJSON(w, h.logger, statusCode, body)
}

func (h *KitchenHandler) respondError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, h.logger, statusCode, ErrorResponse{Error: message})
}

// writeJSON is shared by every handler in the package. The status line is
// already sent when encoding fails, so the failure is only logged.
func writeJSON(w http.ResponseWriter, lgr logger.Logger, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		lgr.Error("response_encode_failed", "Failed to encode response", w.Header().Get(requestIDHeader), nil, err)
	}
}
