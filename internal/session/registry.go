// Package session owns the per-user cart, order store and checkout workflow.
package session

import (
	"sync"

	"pharmago/internal/cart"
	"pharmago/internal/checkout"
	"pharmago/internal/order"

	"github.com/rs/zerolog"
)

// Session is one signed-in user's storefront state.
type Session struct {
	UserID   string
	Cart     *cart.Store
	Orders   *order.Store
	Checkout *checkout.Workflow
}

// Registry hands out sessions by user ID, creating them on first use.
type Registry struct {
	archive   checkout.Archive
	ids       checkout.IDGenerator
	scheduler checkout.Scheduler
	config    *checkout.Config
	logger    zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry. Every workflow shares the archive,
// ids and scheduler. archive may be nil.
func NewRegistry(
	archive checkout.Archive,
	ids checkout.IDGenerator,
	scheduler checkout.Scheduler,
	config *checkout.Config,
	logger zerolog.Logger,
) *Registry {
	return &Registry{
		archive:   archive,
		ids:       ids,
		scheduler: scheduler,
		config:    config,
		logger:    logger.With().Str("component", "session-registry").Logger(),
		sessions:  make(map[string]*Session),
	}
}

// Get returns the user's session and whether it was just created.
func (r *Registry) Get(userID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, exists := r.sessions[userID]; exists {
		return s, false
	}

	cartStore := cart.NewStore()
	orderStore := order.NewStore()
	s := &Session{
		UserID: userID,
		Cart:   cartStore,
		Orders: orderStore,
		Checkout: checkout.NewWorkflow(cartStore, orderStore, r.archive, r.ids, r.scheduler, r.config,
			r.logger.With().Str("user_id", userID).Logger()),
	}
	r.sessions[userID] = s

	r.logger.Debug().Str("user_id", userID).Msg("session created")

	return s, true
}

// Lookup returns the user's session without creating one.
func (r *Registry) Lookup(userID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, exists := r.sessions[userID]
	return s, exists
}

// Evict drops the user's session and cancels its pending cart clear.
func (r *Registry) Evict(userID string) bool {
	r.mu.Lock()
	s, exists := r.sessions[userID]
	delete(r.sessions, userID)
	r.mu.Unlock()

	if !exists {
		return false
	}

	s.Checkout.Close()
	r.logger.Debug().Str("user_id", userID).Msg("session evicted")
	return true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}

// Close evicts every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Checkout.Close()
	}
}
