package http

import (
	"net/http"
	"strconv"

	"github.com/YelzhanWeb/prepboard/internal/adapter/logger"
	"github.com/YelzhanWeb/prepboard/internal/interfaces"
	"github.com/shopspring/decimal"
)

type MenuHandler struct {
	catalog interfaces.MenuCatalog
	logger  logger.Logger
}

func NewMenuHandler(catalog interfaces.MenuCatalog, logger logger.Logger) *MenuHandler {
	return &MenuHandler{
		catalog: catalog,
		logger:  logger,
	}
}

type MenuVariantResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Description *string          `json:"description,omitempty"`
}

type MenuItemResponse struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Category    string                `json:"category"`
	Label       string                `json:"label,omitempty"`
	Unit        string                `json:"unit"`
	Price       *decimal.Decimal      `json:"price,omitempty"`
	VariantKind *string               `json:"variant_kind,omitempty"`
	Active      bool                  `json:"active"`
	Variants    []MenuVariantResponse `json:"variants,omitempty"`
}

func (h *MenuHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /menu", h.ListMenu)
}

// ListMenu returns active menu items; ?all=true includes inactive ones.
func (h *MenuHandler) ListMenu(w http.ResponseWriter, r *http.Request) {
	requestID := w.Header().Get(requestIDHeader)

	onlyActive := true
	if v := r.URL.Query().Get("all"); v != "" {
		all, err := strconv.ParseBool(v)
		if err != nil {
			writeJSON(w, h.logger, http.StatusBadRequest, ErrorResponse{Error: "all must be a boolean"})
			return
		}
		onlyActive = !all
	}

	items, err := h.catalog.ListMenu(r.Context(), onlyActive)
	if err != nil {
		h.logger.Error("menu_list_failed", "Failed to list menu", requestID, nil, err)
		writeJSON(w, h.logger, statusFor(err), ErrorResponse{Error: "menu unavailable"})
		return
	}

	resp := make([]MenuItemResponse, 0, len(items))
	for _, item := range items {
		out := MenuItemResponse{
			ID:          item.ID.String(),
			Name:        item.Name,
			Category:    string(item.Category),
			Unit:        item.Unit,
			VariantKind: item.VariantKind,
			Active:      item.Active,
		}
		if item.Category.Valid() {
			out.Label = item.Category.Label()
		}
		if price, ok := item.Price(nil); ok {
			out.Price = &price
		}
		for i := range item.Variants {
			v := &item.Variants[i]
			vr := MenuVariantResponse{
				ID:          v.ID.String(),
				Name:        v.Name,
				Description: v.Description,
			}
			if price, ok := item.Price(v); ok {
				vr.Price = &price
			}
			out.Variants = append(out.Variants, vr)
		}
		resp = append(resp, out)
	}

	writeJSON(w, h.logger, http.StatusOK, resp)
}
