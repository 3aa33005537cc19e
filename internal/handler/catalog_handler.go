package handler

import (
	"net/http"

	"pharmago/internal/catalog"
	"pharmago/internal/middleware"
	"pharmago/internal/model"
	"pharmago/internal/service"

	"github.com/rs/zerolog"
)

// CatalogHandler handles search and stock-alert HTTP requests.
type CatalogHandler struct {
	service service.CatalogService
	logger  zerolog.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(service service.CatalogService, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger.With().Str("handler", "catalog").Logger(),
	}
}

// Search handles GET /api/pharmacies/search?q=&sort=&filter= requests.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	results, err := h.service.Search(r.Context(), query.Get("q"),
		catalog.ParseSort(query.Get("sort")), catalog.ParseFilter(query.Get("filter")))
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, results)
}

// CreateAlert handles POST /api/stock-alerts requests.
func (h *CatalogHandler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	var req model.StockAlertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	var userID string
	if user, ok := middleware.UserFromContext(r.Context()); ok {
		userID = user.ID
	}

	alert, err := h.service.CreateStockAlert(r.Context(), userID, req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, alert)
}
