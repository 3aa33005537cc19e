package service

import (
	"context"
	"errors"
	"time"

	"pharmago/internal/cart"
	"pharmago/internal/checkout"
	"pharmago/internal/docstore"
	"pharmago/internal/events"
	"pharmago/internal/model"
	"pharmago/internal/session"

	"github.com/rs/zerolog"
)

// Listing resolves pharmacies and medicines by ID.
type Listing interface {
	Pharmacy(id string) (model.Pharmacy, error)
	Medicine(pharmacyID, medicineID string) (model.Medicine, error)
}

// storefrontService implements StorefrontService.
type storefrontService struct {
	sessions  *session.Registry
	listing   Listing
	docs      docstore.Store
	publisher events.Publisher
	now       func() time.Time
	logger    zerolog.Logger
}

// NewStorefrontService creates a new storefront service.
func NewStorefrontService(
	sessions *session.Registry,
	listing Listing,
	docs docstore.Store,
	publisher events.Publisher,
	logger zerolog.Logger,
) StorefrontService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	return &storefrontService{
		sessions:  sessions,
		listing:   listing,
		docs:      docs,
		publisher: publisher,
		now:       time.Now,
		logger:    logger.With().Str("service", "storefront").Logger(),
	}
}

// session returns the user's session. A new session is seeded with the
// user's archived orders so history survives sign-out.
func (s *storefrontService) session(ctx context.Context, userID string) (*session.Session, error) {
	if userID == "" {
		return nil, model.ErrUnauthorised
	}

	sess, created := s.sessions.Get(userID)
	if !created {
		return sess, nil
	}

	docs, err := s.docs.FindBy(ctx, OrdersCollection, "userId", userID)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to load archived orders")
		return sess, nil
	}

	restored := 0
	for _, doc := range docs {
		var o model.Order
		if err := docstore.Decode(doc, &o); err != nil {
			s.logger.Warn().Err(err).Str("order_id", doc.ID()).Msg("skipping unreadable archived order")
			continue
		}
		if err := sess.Orders.Create(o); err == nil {
			restored++
		}
	}

	if restored > 0 {
		s.logger.Debug().Str("user_id", userID).Int("orders", restored).Msg("order history restored")
	}

	return sess, nil
}

// Cart returns the user's cart with per-pharmacy groups and totals.
func (s *storefrontService) Cart(ctx context.Context, userID string) (*model.CartResponse, error) {
	sess, err := s.session(ctx, userID)
	if err != nil {
		return nil, err
	}
	return cartResponse(sess.Cart), nil
}

// AddToCart adds one unit of a listed medicine, copying its current price.
func (s *storefrontService) AddToCart(ctx context.Context, userID string, req model.AddToCartRequest) (*model.CartResponse, error) {
	if req.PharmacyID == "" || req.ProductID == "" {
		verr := model.NewValidationError()
		if req.PharmacyID == "" {
			verr.Add("pharmacyId", "Pharmacy is required")
		}
		if req.ProductID == "" {
			verr.Add("productId", "Product is required")
		}
		return nil, verr
	}

	sess, err := s.session(ctx, userID)
	if err != nil {
		return nil, err
	}

	pharmacy, err := s.listing.Pharmacy(req.PharmacyID)
	if err != nil {
		return nil, err
	}

	medicine, err := s.listing.Medicine(req.PharmacyID, req.ProductID)
	if err != nil {
		return nil, err
	}

	if !medicine.Available {
		return nil, model.ErrMedicineUnavailable
	}

	line := sess.Cart.Add(model.CartItem{
		ProductID:    medicine.ID,
		PharmacyID:   pharmacy.ID,
		PharmacyName: pharmacy.Name,
		Name:         medicine.Name,
		Brand:        medicine.Brand,
		Strength:     medicine.Strength,
		UnitPrice:    medicine.Price,
		Available:    medicine.Available,
		Stock:        medicine.Stock,
	})

	s.logger.Debug().
		Str("user_id", userID).
		Str("pharmacy_id", line.PharmacyID).
		Str("product_id", line.ProductID).
		Int("quantity", line.Quantity).
		Msg("added to cart")

	return cartResponse(sess.Cart), nil
}

// SetQuantity sets a cart line quantity. Zero or less removes the line.
func (s *storefrontService) SetQuantity(ctx context.Context, userID string, key model.CartKey, quantity int) (*model.CartResponse, error) {
	sess, err := s.session(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := sess.Cart.SetQuantity(key, quantity); err != nil {
		return nil, err
	}
	return cartResponse(sess.Cart), nil
}

// RemoveFromCart deletes a cart line.
func (s *storefrontService) RemoveFromCart(ctx context.Context, userID string, key model.CartKey) (*model.CartResponse, error) {
	sess, err := s.session(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := sess.Cart.Remove(key); err != nil {
		return nil, err
	}
	return cartResponse(sess.Cart), nil
}

// ClearCart empties the cart.
func (s *storefrontService) ClearCart(ctx context.Context, userID string) error {
	sess, err := s.session(ctx, userID)
	if err != nil {
		return err
	}

	sess.Cart.Clear()
	return nil
}

// Checkout reports the workflow state and the confirmed order, if any.
func (s *storefrontService) Checkout(ctx context.Context, userID string) (*model.CheckoutResponse, error) {
	sess, err := s.session(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &model.CheckoutResponse{State: string(sess.Checkout.State())}
	if o, ok := sess.Checkout.LastOrder(); ok {
		resp.Order = &o
	}
	return resp, nil
}

// PlaceOrder runs the checkout workflow, which archives the order, then
// announces it. Publish failures are logged; the order is already placed.
func (s *storefrontService) PlaceOrder(ctx context.Context, user model.User, form checkout.Form) (*model.Order, error) {
	sess, err := s.session(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	placed, err := sess.Checkout.Submit(ctx, form, checkout.Customer{
		UserID: user.ID,
		Email:  user.Email,
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeOrderPlaced, placed)

	return &placed, nil
}

// ResetCheckout returns a confirmed checkout to form entry.
func (s *storefrontService) ResetCheckout(ctx context.Context, userID string) error {
	sess, err := s.session(ctx, userID)
	if err != nil {
		return err
	}

	sess.Checkout.Reset()
	return nil
}

// ListOrders returns the user's orders filtered by status.
func (s *storefrontService) ListOrders(ctx context.Context, userID string, status model.OrderStatus) ([]model.Order, error) {
	if status != "" && status != "all" && !status.Valid() {
		return nil, model.ErrInvalidOrderStatus
	}

	sess, err := s.session(ctx, userID)
	if err != nil {
		return nil, err
	}
	return sess.Orders.List(status), nil
}

// GetOrder returns one of the user's orders.
func (s *storefrontService) GetOrder(ctx context.Context, userID, orderID string) (*model.Order, error) {
	sess, err := s.session(ctx, userID)
	if err != nil {
		return nil, err
	}

	o, err := sess.Orders.Get(orderID)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CancelOrder cancels a pending order.
func (s *storefrontService) CancelOrder(ctx context.Context, userID, orderID string) (*model.Order, error) {
	sess, err := s.session(ctx, userID)
	if err != nil {
		return nil, err
	}

	o, err := sess.Orders.Get(orderID)
	if err != nil {
		return nil, err
	}

	if !o.Status.CanTransitionTo(model.OrderStatusCancelled) {
		return nil, model.ErrInvalidTransition
	}

	if err := sess.Orders.Cancel(orderID); err != nil {
		return nil, err
	}
	o.Status = model.OrderStatusCancelled

	s.logger.Info().Str("order_id", orderID).Str("user_id", userID).Msg("order cancelled by customer")

	s.updateArchivedStatus(ctx, o.ID, o.Status)
	s.publish(ctx, events.TypeOrderStatusChanged, o)

	return &o, nil
}

func (s *storefrontService) updateArchivedStatus(ctx context.Context, orderID string, status model.OrderStatus) {
	updateArchivedStatus(ctx, s.docs, s.logger, orderID, status)
}

func (s *storefrontService) publish(ctx context.Context, eventType string, o model.Order) {
	publish(ctx, s.publisher, s.logger, events.NewOrderEvent(eventType, o, s.now()))
}

// updateArchivedStatus writes a status change to the order archive, logging failures.
func updateArchivedStatus(ctx context.Context, docs docstore.Store, logger zerolog.Logger, orderID string, status model.OrderStatus) {
	err := docs.Update(ctx, OrdersCollection, orderID, docstore.Document{"status": string(status)})
	if err == nil {
		return
	}

	event := logger.Error()
	if errors.Is(err, model.ErrDocumentNotFound) {
		event = logger.Warn()
	}
	event.Err(err).Str("order_id", orderID).Msg("failed to update archived order status")
}

// publish sends an event, logging failures.
func publish(ctx context.Context, publisher events.Publisher, logger zerolog.Logger, event events.Event) {
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Error().
			Err(err).
			Str("event_type", event.Type).
			Str("order_id", event.OrderID).
			Msg("failed to publish order event")
	}
}

func cartResponse(store *cart.Store) *model.CartResponse {
	items, total := store.Snapshot()
	quantity := 0
	for _, item := range items {
		quantity += item.Quantity
	}

	groups := store.Groups()
	if groups == nil {
		groups = []model.PharmacyGroup{}
	}

	return &model.CartResponse{
		Items:      items,
		Groups:     groups,
		TotalItems: quantity,
		TotalPrice: total,
	}
}
