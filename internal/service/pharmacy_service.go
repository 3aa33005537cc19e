package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pharmago/internal/catalog"
	"pharmago/internal/docstore"
	"pharmago/internal/events"
	"pharmago/internal/model"
	"pharmago/internal/session"

	"github.com/rs/zerolog"
)

// Inventory is the pharmacy-owner view of the catalogue.
type Inventory interface {
	Pharmacy(id string) (model.Pharmacy, error)
	UpdateProfile(pharmacyID string, profile model.PharmacyProfile) (model.PharmacyProfile, error)
	Medicines(pharmacyID string) ([]model.Medicine, error)
	UpdateMedicine(pharmacyID, medicineID string, patch model.MedicinePatch) (model.Medicine, error)
	BulkUpdate(pharmacyID string, req model.BulkUpdateRequest) ([]model.Medicine, error)
	LowStock(pharmacyID string, threshold int) ([]model.Medicine, error)
}

// pharmacyService implements PharmacyService.
type pharmacyService struct {
	inventory         Inventory
	docs              docstore.Store
	sessions          *session.Registry
	publisher         events.Publisher
	lowStockThreshold int
	now               func() time.Time
	logger            zerolog.Logger
}

// NewPharmacyService creates a new pharmacy admin service.
func NewPharmacyService(
	inventory Inventory,
	docs docstore.Store,
	sessions *session.Registry,
	publisher events.Publisher,
	lowStockThreshold int,
	logger zerolog.Logger,
) PharmacyService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	return &pharmacyService{
		inventory:         inventory,
		docs:              docs,
		sessions:          sessions,
		publisher:         publisher,
		lowStockThreshold: lowStockThreshold,
		now:               time.Now,
		logger:            logger.With().Str("service", "pharmacy").Logger(),
	}
}

// Profile returns the pharmacy's name, address and contact.
func (s *pharmacyService) Profile(ctx context.Context, pharmacyID string) (*model.PharmacyProfile, error) {
	p, err := s.inventory.Pharmacy(pharmacyID)
	if err != nil {
		return nil, err
	}
	profile := p.Profile()
	return &profile, nil
}

// UpdateProfile replaces the pharmacy's name, address and contact.
func (s *pharmacyService) UpdateProfile(ctx context.Context, pharmacyID string, profile model.PharmacyProfile) (*model.PharmacyProfile, error) {
	updated, err := s.inventory.UpdateProfile(pharmacyID, profile)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Medicines lists the pharmacy's medicines.
func (s *pharmacyService) Medicines(ctx context.Context, pharmacyID string) ([]model.Medicine, error) {
	return s.inventory.Medicines(pharmacyID)
}

// UpdateMedicine changes the price or stock of one medicine.
func (s *pharmacyService) UpdateMedicine(ctx context.Context, pharmacyID, medicineID string, patch model.MedicinePatch) (*model.Medicine, error) {
	if patch.Price != nil && patch.Price.IsNegative() {
		return nil, model.ErrInvalidPrice
	}

	m, err := s.inventory.UpdateMedicine(pharmacyID, medicineID, patch)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// BulkUpdate sets the price or stock of several medicines.
func (s *pharmacyService) BulkUpdate(ctx context.Context, pharmacyID string, req model.BulkUpdateRequest) ([]model.Medicine, error) {
	if req.Value.IsNegative() {
		if req.Field == catalog.FieldStock {
			return nil, model.ErrInvalidQuantity
		}
		return nil, model.ErrInvalidPrice
	}
	return s.inventory.BulkUpdate(pharmacyID, req)
}

// LowStock lists medicines at or below the configured threshold.
func (s *pharmacyService) LowStock(ctx context.Context, pharmacyID string) ([]model.Medicine, error) {
	return s.inventory.LowStock(pharmacyID, s.lowStockThreshold)
}

// ListOrders returns archived orders credited to the pharmacy, including
// multi-pharmacy orders that contain at least one of its medicines.
func (s *pharmacyService) ListOrders(ctx context.Context, pharmacyID string, status model.OrderStatus) ([]model.Order, error) {
	if status != "" && status != "all" && !status.Valid() {
		return nil, model.ErrInvalidOrderStatus
	}

	direct, err := s.docs.FindBy(ctx, OrdersCollection, "pharmacyId", pharmacyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pharmacy orders: %w", err)
	}

	shared, err := s.docs.FindBy(ctx, OrdersCollection, "pharmacyId", model.MultiplePharmaciesID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pharmacy orders: %w", err)
	}

	orders := make([]model.Order, 0, len(direct)+len(shared))
	for _, doc := range append(direct, shared...) {
		var o model.Order
		if err := docstore.Decode(doc, &o); err != nil {
			s.logger.Warn().Err(err).Str("order_id", doc.ID()).Msg("skipping unreadable archived order")
			continue
		}
		if !belongsTo(o, pharmacyID) {
			continue
		}
		if status != "" && status != "all" && o.Status != status {
			continue
		}
		orders = append(orders, o)
	}

	return orders, nil
}

// UpdateOrderStatus moves an order to status when the lifecycle allows it and
// propagates the change to the customer's session, the archive and the event stream.
func (s *pharmacyService) UpdateOrderStatus(ctx context.Context, pharmacyID, orderID string, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, model.ErrInvalidOrderStatus
	}

	doc, err := s.docs.Get(ctx, OrdersCollection, orderID)
	if err != nil {
		if errors.Is(err, model.ErrDocumentNotFound) {
			return nil, model.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	var o model.Order
	if err := docstore.Decode(doc, &o); err != nil {
		return nil, err
	}

	if !belongsTo(o, pharmacyID) {
		return nil, model.ErrOrderNotFound
	}

	if !o.Status.CanTransitionTo(status) {
		s.logger.Warn().
			Str("order_id", orderID).
			Str("from", string(o.Status)).
			Str("to", string(status)).
			Msg("rejected order status change")
		return nil, model.ErrInvalidTransition
	}

	if err := s.docs.Update(ctx, OrdersCollection, orderID, docstore.Document{"status": string(status)}); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	o.Status = status

	if sess, ok := s.sessions.Lookup(o.UserID); ok {
		if err := sess.Orders.SetStatus(o.ID, status); err != nil {
			s.logger.Warn().Err(err).Str("order_id", o.ID).Msg("customer session does not hold order")
		}
	}

	s.logger.Info().
		Str("order_id", orderID).
		Str("pharmacy_id", pharmacyID).
		Str("status", string(status)).
		Msg("order status updated")

	publish(ctx, s.publisher, s.logger, events.NewOrderEvent(events.TypeOrderStatusChanged, o, s.now()))

	return &o, nil
}

func belongsTo(o model.Order, pharmacyID string) bool {
	if o.PharmacyID == pharmacyID {
		return true
	}
	for _, item := range o.Items {
		if item.PharmacyID == pharmacyID {
			return true
		}
	}
	return false
}
