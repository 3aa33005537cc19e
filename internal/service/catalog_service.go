package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pharmago/internal/catalog"
	"pharmago/internal/docstore"
	"pharmago/internal/model"

	"github.com/rs/zerolog"
)

// catalogService implements CatalogService.
type catalogService struct {
	finder  catalog.Finder
	listing Listing
	docs    docstore.Store
	now     func() time.Time
	logger  zerolog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(finder catalog.Finder, listing Listing, docs docstore.Store, logger zerolog.Logger) CatalogService {
	return &catalogService{
		finder:  finder,
		listing: listing,
		docs:    docs,
		now:     time.Now,
		logger:  logger.With().Str("service", "catalog").Logger(),
	}
}

// Search returns pharmacies stocking medicines that match query, narrowed by filter.
func (s *catalogService) Search(ctx context.Context, query string, sortBy catalog.SortBy, filter catalog.Filter) ([]model.PharmacyResult, error) {
	results, err := s.finder.Search(ctx, query, sortBy)
	if err != nil {
		return nil, err
	}
	results = filter.Apply(results)

	s.logger.Debug().
		Str("query", query).
		Str("filter", string(filter)).
		Int("results", len(results)).
		Msg("search served")

	return results, nil
}

// CreateStockAlert records a request to be told when a medicine is back in
// stock. At least one of email or phone is required.
func (s *catalogService) CreateStockAlert(ctx context.Context, userID string, req model.StockAlertRequest) (*model.StockAlert, error) {
	email := strings.TrimSpace(req.Email)
	phone := strings.TrimSpace(req.Phone)
	if email == "" && phone == "" {
		return nil, model.ErrAlertContactMissing
	}

	if _, err := s.listing.Medicine(req.PharmacyID, req.MedicineID); err != nil {
		return nil, err
	}

	alert := model.StockAlert{
		PharmacyID: req.PharmacyID,
		MedicineID: req.MedicineID,
		UserID:     userID,
		Email:      email,
		Phone:      phone,
		CreatedAt:  s.now().UTC(),
	}

	doc, err := docstore.Encode(alert)
	if err != nil {
		return nil, err
	}
	delete(doc, docstore.IDField)

	id, err := s.docs.Create(ctx, StockAlertsCollection, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to store stock alert: %w", err)
	}
	alert.ID = id

	s.logger.Info().
		Str("alert_id", id).
		Str("pharmacy_id", alert.PharmacyID).
		Str("medicine_id", alert.MedicineID).
		Msg("stock alert created")

	return &alert, nil
}
