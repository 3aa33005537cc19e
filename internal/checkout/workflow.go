// Package checkout turns a cart into an order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pharmago/internal/cart"
	"pharmago/internal/model"
	"pharmago/internal/order"

	"github.com/rs/zerolog"
)

// State is a checkout workflow state.
type State string

const (
	StateFormEntry  State = "form_entry"
	StateSubmitting State = "submitting"
	StateConfirmed  State = "confirmed"
)

// Customer identifies who is checking out.
type Customer struct {
	UserID string
	Email  string
}

// Config holds workflow tuning.
type Config struct {
	// ClearDelay is how long the cart survives after confirmation so the
	// confirmation screen can still show it.
	ClearDelay time.Duration

	// MaxIDAttempts bounds retries when a generated ID already exists.
	MaxIDAttempts int
}

// DefaultConfig returns the default workflow configuration.
func DefaultConfig() *Config {
	return &Config{
		ClearDelay:    3 * time.Second,
		MaxIDAttempts: 5,
	}
}

// Archive is the order record shared by every session. Create must return
// model.ErrOrderExists when another order already holds the ID.
type Archive interface {
	Create(ctx context.Context, o model.Order) error
}

// Workflow is the FormEntry -> Submitting -> Confirmed state machine for one session.
type Workflow struct {
	cart      *cart.Store
	orders    *order.Store
	archive   Archive
	ids       IDGenerator
	scheduler Scheduler
	config    *Config
	now       func() time.Time
	logger    zerolog.Logger

	mu           sync.Mutex
	state        State
	lastOrder    *model.Order
	pendingClear Timer
}

// NewWorkflow creates a checkout workflow over a session's cart and order stores.
func NewWorkflow(
	cartStore *cart.Store,
	orderStore *order.Store,
	archive Archive,
	ids IDGenerator,
	scheduler Scheduler,
	config *Config,
	logger zerolog.Logger,
) *Workflow {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxIDAttempts < 1 {
		config.MaxIDAttempts = 1
	}
	if scheduler == nil {
		scheduler = RealScheduler{}
	}

	return &Workflow{
		cart:      cartStore,
		orders:    orderStore,
		archive:   archive,
		ids:       ids,
		scheduler: scheduler,
		config:    config,
		now:       time.Now,
		logger:    logger.With().Str("component", "checkout").Logger(),
		state:     StateFormEntry,
	}
}

// State returns the current workflow state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.state
}

// LastOrder returns the order confirmed by the last successful submit, if the
// workflow is still showing it.
func (w *Workflow) LastOrder() (model.Order, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.lastOrder == nil {
		return model.Order{}, false
	}
	return w.lastOrder.Clone(), true
}

// Submit validates the form and places an order from the current cart.
// On a validation failure the workflow stays in FormEntry and nothing changes.
// On success the order is stored, the workflow moves to Confirmed and the
// cart is cleared after the configured delay.
func (w *Workflow) Submit(ctx context.Context, form Form, customer Customer) (model.Order, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return model.Order{}, err
	}

	if w.state == StateConfirmed {
		return model.Order{}, model.ErrCheckoutConfirmed
	}

	if err := form.Validate(); err != nil {
		w.logger.Debug().Err(err).Msg("checkout form rejected")
		return model.Order{}, err
	}

	items, total := w.cart.Snapshot()
	if len(items) == 0 {
		return model.Order{}, model.ErrEmptyCart
	}

	w.state = StateSubmitting

	form = form.Trimmed()
	placed := w.buildOrder(items, form, customer)
	placed.Total = total

	if err := w.store(ctx, &placed); err != nil {
		w.state = StateFormEntry
		return model.Order{}, err
	}

	w.state = StateConfirmed
	stored := placed.Clone()
	w.lastOrder = &stored

	// A clear left over from an earlier submit would empty this cart early.
	if w.pendingClear != nil {
		w.pendingClear.Stop()
	}
	w.pendingClear = w.scheduler.AfterFunc(w.config.ClearDelay, func() {
		w.cart.Clear()
		w.logger.Debug().Str("order_id", placed.ID).Msg("cart cleared after confirmation")
	})

	w.logger.Info().
		Str("order_id", placed.ID).
		Str("user_id", customer.UserID).
		Int("item_count", len(placed.Items)).
		Str("total", placed.Total.String()).
		Msg("order placed")

	return placed, nil
}

// store allocates an ID and creates the order, retrying on ID clashes in the
// session or the archive. An unreachable archive is logged and skipped.
func (w *Workflow) store(ctx context.Context, o *model.Order) error {
	for attempt := 1; attempt <= w.config.MaxIDAttempts; attempt++ {
		o.ID = w.ids.NewOrderID()
		o.TrackingNumber = TrackingNumber(o.ID)

		if w.orders.Exists(o.ID) || !w.reserve(ctx, *o) {
			w.logger.Warn().
				Str("order_id", o.ID).
				Int("attempt", attempt).
				Msg("order ID already in use, generating another")
			continue
		}

		err := w.orders.Create(*o)
		if err == nil {
			return nil
		}
		if !errors.Is(err, model.ErrOrderExists) {
			w.logger.Error().Err(err).Str("order_id", o.ID).Msg("failed to create order")
			return fmt.Errorf("failed to create order: %w", err)
		}
		w.logger.Warn().Str("order_id", o.ID).Int("attempt", attempt).Msg("order ID taken in session")
	}

	return fmt.Errorf("failed to allocate order ID after %d attempts: %w", w.config.MaxIDAttempts, model.ErrOrderExists)
}

// reserve records o in the archive and reports false only when its ID is taken.
func (w *Workflow) reserve(ctx context.Context, o model.Order) bool {
	if w.archive == nil {
		return true
	}

	err := w.archive.Create(ctx, o)
	switch {
	case err == nil:
		return true
	case errors.Is(err, model.ErrOrderExists):
		return false
	default:
		w.logger.Error().Err(err).Str("order_id", o.ID).Msg("failed to archive order")
		return true
	}
}

func (w *Workflow) buildOrder(items []model.CartItem, form Form, customer Customer) model.Order {
	orderItems := make([]model.OrderItem, len(items))
	for i, item := range items {
		orderItems[i] = model.OrderItem{
			ProductID:    item.ProductID,
			Name:         item.Name,
			Brand:        item.Brand,
			Strength:     item.Strength,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			PharmacyID:   item.PharmacyID,
			PharmacyName: item.PharmacyName,
		}
	}

	pharmacyID, pharmacyName := attribute(items)

	return model.Order{
		UserID:          customer.UserID,
		Status:          model.OrderStatusPending,
		Items:           orderItems,
		PharmacyID:      pharmacyID,
		PharmacyName:    pharmacyName,
		DeliveryAddress: form.Address,
		CustomerName:    form.FullName,
		CustomerPhone:   NormalizePhone(form.Phone),
		CustomerEmail:   customer.Email,
		CreatedAt:       w.now().UTC(),
	}
}

// attribute picks the pharmacy an order is credited to: the shared pharmacy
// when every line comes from one, otherwise the multiple-pharmacies marker.
func attribute(items []model.CartItem) (string, string) {
	first := items[0]
	for _, item := range items[1:] {
		if item.PharmacyID != first.PharmacyID {
			return model.MultiplePharmaciesID, model.MultiplePharmaciesName
		}
	}
	return first.PharmacyID, first.PharmacyName
}

// Reset returns a confirmed workflow to FormEntry. A pending cart clear still fires.
func (w *Workflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.state = StateFormEntry
	w.lastOrder = nil
}

// Close cancels the pending cart clear, if any. Call when the session goes away.
func (w *Workflow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pendingClear != nil {
		w.pendingClear.Stop()
		w.pendingClear = nil
	}
}
