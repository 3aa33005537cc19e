// Package catalog serves pharmacy listings and the pharmacy-owner inventory.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"pharmago/internal/model"

	"github.com/rs/zerolog"
)

// SortBy orders search results.
type SortBy string

const (
	SortDistance SortBy = "distance"
	SortPrice    SortBy = "price"
	SortRating   SortBy = "rating"
)

// ParseSort maps a query parameter to a sort order, defaulting to distance.
func ParseSort(s string) SortBy {
	switch SortBy(strings.ToLower(strings.TrimSpace(s))) {
	case SortPrice:
		return SortPrice
	case SortRating:
		return SortRating
	default:
		return SortDistance
	}
}

// Filter narrows search results.
type Filter string

const (
	FilterAll     Filter = "all"
	FilterInStock Filter = "inStock"
)

// ParseFilter maps a query parameter to a filter, defaulting to all.
func ParseFilter(s string) Filter {
	if strings.EqualFold(strings.TrimSpace(s), string(FilterInStock)) {
		return FilterInStock
	}
	return FilterAll
}

// Apply keeps the results the filter admits. FilterInStock drops pharmacies
// whose matching medicines are all unavailable.
func (f Filter) Apply(results []model.PharmacyResult) []model.PharmacyResult {
	if f != FilterInStock {
		return results
	}

	kept := make([]model.PharmacyResult, 0, len(results))
	for _, r := range results {
		for _, m := range r.Medicines {
			if m.Available {
				kept = append(kept, r)
				break
			}
		}
	}
	return kept
}

// Bulk update fields.
const (
	FieldPrice = "price"
	FieldStock = "stock"
)

// Finder searches pharmacy listings for a medicine.
type Finder interface {
	Search(ctx context.Context, query string, sortBy SortBy) ([]model.PharmacyResult, error)
}

// Catalog is an in-memory pharmacy listing. Search waits for a configurable
// latency so clients see the same loading behaviour as a remote lookup.
type Catalog struct {
	mu         sync.RWMutex
	pharmacies []model.Pharmacy
	index      map[string]int
	latency    time.Duration
	logger     zerolog.Logger
}

// New creates a catalogue from already loaded pharmacies.
func New(pharmacies []model.Pharmacy, latency time.Duration, logger zerolog.Logger) *Catalog {
	c := &Catalog{
		pharmacies: make([]model.Pharmacy, len(pharmacies)),
		index:      make(map[string]int, len(pharmacies)),
		latency:    latency,
		logger:     logger.With().Str("component", "catalog").Logger(),
	}

	for i, p := range pharmacies {
		c.pharmacies[i] = p.Clone()
		c.index[p.ID] = i
	}

	return c
}

// Load reads the listing at path with loader and builds a catalogue.
func Load(ctx context.Context, loader Loader, path string, latency time.Duration, logger zerolog.Logger) (*Catalog, error) {
	pharmacies, err := loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalogue: %w", err)
	}

	c := New(pharmacies, latency, logger)

	medicines := 0
	for _, p := range pharmacies {
		medicines += len(p.Medicines)
	}
	c.logger.Info().
		Int("pharmacies", len(pharmacies)).
		Int("medicines", medicines).
		Msg("catalogue initialised")

	return c, nil
}

// Search returns every pharmacy stocking a medicine whose name, brand or
// category contains query. Each result only lists the matching medicines.
func (c *Catalog) Search(ctx context.Context, query string, sortBy SortBy) ([]model.PharmacyResult, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, model.ErrEmptyQuery
	}

	if c.latency > 0 {
		timer := time.NewTimer(c.latency)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			c.logger.Debug().Str("query", query).Msg("search cancelled")
			return nil, ctx.Err()
		}
	}

	c.mu.RLock()
	results := make([]model.PharmacyResult, 0, len(c.pharmacies))
	for _, p := range c.pharmacies {
		var matched []model.Medicine
		for _, m := range p.Medicines {
			if matches(m, query) {
				matched = append(matched, m)
			}
		}
		if len(matched) == 0 {
			continue
		}

		hit := p.Clone()
		hit.Medicines = matched
		results = append(results, model.PharmacyResult{
			Pharmacy:       hit,
			AvgPrice:       hit.AveragePrice(),
			TotalMedicines: len(matched),
		})
	}
	c.mu.RUnlock()

	sortResults(results, sortBy)

	c.logger.Debug().
		Str("query", query).
		Str("sort", string(sortBy)).
		Int("results", len(results)).
		Msg("search completed")

	return results, nil
}

func matches(m model.Medicine, query string) bool {
	return strings.Contains(strings.ToLower(m.Name), query) ||
		strings.Contains(strings.ToLower(m.Brand), query) ||
		strings.Contains(strings.ToLower(m.Category), query)
}

func sortResults(results []model.PharmacyResult, sortBy SortBy) {
	sort.SliceStable(results, func(i, j int) bool {
		switch sortBy {
		case SortPrice:
			return results[i].AvgPrice.LessThan(results[j].AvgPrice)
		case SortRating:
			return results[i].Rating > results[j].Rating
		default:
			return results[i].DistanceKm < results[j].DistanceKm
		}
	})
}

// Pharmacy returns a copy of one pharmacy listing.
func (c *Catalog) Pharmacy(id string) (model.Pharmacy, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, exists := c.index[id]
	if !exists {
		return model.Pharmacy{}, model.ErrPharmacyNotFound
	}
	return c.pharmacies[i].Clone(), nil
}

// Medicines returns a copy of a pharmacy's medicines.
func (c *Catalog) Medicines(pharmacyID string) ([]model.Medicine, error) {
	p, err := c.Pharmacy(pharmacyID)
	if err != nil {
		return nil, err
	}
	return p.Medicines, nil
}

// Medicine returns one medicine of a pharmacy.
func (c *Catalog) Medicine(pharmacyID, medicineID string) (model.Medicine, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, exists := c.index[pharmacyID]
	if !exists {
		return model.Medicine{}, model.ErrPharmacyNotFound
	}
	for _, m := range c.pharmacies[i].Medicines {
		if m.ID == medicineID {
			return m, nil
		}
	}
	return model.Medicine{}, model.ErrMedicineNotFound
}

// UpdateProfile replaces the name, address and contact of a pharmacy.
func (c *Catalog) UpdateProfile(pharmacyID string, profile model.PharmacyProfile) (model.PharmacyProfile, error) {
	profile, err := profile.Validate()
	if err != nil {
		return model.PharmacyProfile{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i, exists := c.index[pharmacyID]
	if !exists {
		return model.PharmacyProfile{}, model.ErrPharmacyNotFound
	}

	p := &c.pharmacies[i]
	p.Name = profile.Name
	p.Address = profile.Address
	p.Contact = profile.Contact

	c.logger.Info().Str("pharmacy_id", pharmacyID).Msg("pharmacy profile updated")

	return p.Profile(), nil
}

// UpdateMedicine applies a partial price/stock change to one medicine.
func (c *Catalog) UpdateMedicine(pharmacyID, medicineID string, patch model.MedicinePatch) (model.Medicine, error) {
	if patch.Stock != nil && *patch.Stock < 0 {
		return model.Medicine{}, model.ErrInvalidQuantity
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i, exists := c.index[pharmacyID]
	if !exists {
		return model.Medicine{}, model.ErrPharmacyNotFound
	}

	medicines := c.pharmacies[i].Medicines
	for j := range medicines {
		if medicines[j].ID != medicineID {
			continue
		}
		if patch.Price != nil {
			medicines[j].Price = *patch.Price
		}
		if patch.Stock != nil {
			medicines[j].Stock = *patch.Stock
			medicines[j].Available = *patch.Stock > 0
		}

		c.logger.Info().
			Str("pharmacy_id", pharmacyID).
			Str("medicine_id", medicineID).
			Msg("medicine updated")

		return medicines[j], nil
	}

	return model.Medicine{}, model.ErrMedicineNotFound
}

// BulkUpdate sets the price or stock of several medicines at once.
// Either every listed medicine is updated or none is.
func (c *Catalog) BulkUpdate(pharmacyID string, req model.BulkUpdateRequest) ([]model.Medicine, error) {
	switch req.Field {
	case FieldPrice:
	case FieldStock:
		if !req.Value.IsInteger() {
			return nil, model.ErrInvalidQuantity
		}
	default:
		return nil, model.ErrInvalidBulkField
	}

	if len(req.MedicineIDs) == 0 {
		return []model.Medicine{}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i, exists := c.index[pharmacyID]
	if !exists {
		return nil, model.ErrPharmacyNotFound
	}

	medicines := c.pharmacies[i].Medicines
	positions := make(map[string]int, len(medicines))
	for j, m := range medicines {
		positions[m.ID] = j
	}

	targets := make([]int, 0, len(req.MedicineIDs))
	for _, id := range req.MedicineIDs {
		j, found := positions[id]
		if !found {
			c.logger.Warn().
				Str("pharmacy_id", pharmacyID).
				Str("medicine_id", id).
				Msg("bulk update references unknown medicine")
			return nil, model.ErrMedicineNotFound
		}
		targets = append(targets, j)
	}

	updated := make([]model.Medicine, 0, len(targets))
	for _, j := range targets {
		switch req.Field {
		case FieldPrice:
			medicines[j].Price = req.Value
		case FieldStock:
			stock := int(req.Value.IntPart())
			medicines[j].Stock = stock
			medicines[j].Available = stock > 0
		}
		updated = append(updated, medicines[j])
	}

	c.logger.Info().
		Str("pharmacy_id", pharmacyID).
		Str("field", req.Field).
		Int("count", len(updated)).
		Msg("bulk update applied")

	return updated, nil
}

// LowStock lists a pharmacy's medicines with stock at or below threshold.
func (c *Catalog) LowStock(pharmacyID string, threshold int) ([]model.Medicine, error) {
	medicines, err := c.Medicines(pharmacyID)
	if err != nil {
		return nil, err
	}

	low := make([]model.Medicine, 0)
	for _, m := range medicines {
		if m.Stock <= threshold {
			low = append(low, m)
		}
	}
	return low, nil
}
