package router

import (
	"net/http"

	"pharmago/internal/handler"
	"pharmago/internal/middleware"
	"pharmago/internal/model"

	"github.com/rs/zerolog"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth        *handler.AuthHandler
	Storefront  *handler.StorefrontHandler
	Catalog     *handler.CatalogHandler
	Preferences *handler.PreferenceHandler
	Pharmacy    *handler.PharmacyHandler
	Support     *handler.SupportHandler
}

// PublicRoutes are reachable without a bearer token.
var PublicRoutes = []string{
	"/health",
	"POST /api/auth/signup",
	"POST /api/auth/signin",
	"GET /api/pharmacies/search",
	"POST /api/support/messages",
}

// New creates a new HTTP router with all routes and middleware configured.
func New(
	h Handlers,
	verifier middleware.TokenVerifier,
	allowedOrigin string,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Accounts
	mux.HandleFunc("POST /api/auth/signup", h.Auth.SignUp)
	mux.HandleFunc("POST /api/auth/signin", h.Auth.SignIn)
	mux.HandleFunc("POST /api/auth/signout", h.Auth.SignOut)
	mux.HandleFunc("GET /api/auth/me", h.Auth.Me)

	// Cart
	mux.HandleFunc("GET /api/cart", h.Storefront.GetCart)
	mux.HandleFunc("DELETE /api/cart", h.Storefront.ClearCart)
	mux.HandleFunc("POST /api/cart/items", h.Storefront.AddItem)
	mux.HandleFunc("PATCH /api/cart/items/{pharmacyId}/{productId}", h.Storefront.UpdateItem)
	mux.HandleFunc("DELETE /api/cart/items/{pharmacyId}/{productId}", h.Storefront.RemoveItem)

	// Checkout
	mux.HandleFunc("GET /api/checkout", h.Storefront.GetCheckout)
	mux.HandleFunc("POST /api/checkout", h.Storefront.PlaceOrder)
	mux.HandleFunc("POST /api/checkout/reset", h.Storefront.ResetCheckout)

	// Orders
	mux.HandleFunc("GET /api/orders", h.Storefront.ListOrders)
	mux.HandleFunc("GET /api/orders/{id}", h.Storefront.GetOrder)
	mux.HandleFunc("POST /api/orders/{id}/cancel", h.Storefront.CancelOrder)

	// Search and stock alerts
	mux.HandleFunc("GET /api/pharmacies/search", h.Catalog.Search)
	mux.HandleFunc("POST /api/stock-alerts", h.Catalog.CreateAlert)

	// Help and support
	mux.HandleFunc("POST /api/support/messages", h.Support.Contact)

	// Preferences
	mux.HandleFunc("GET /api/me/preferences/{key}", h.Preferences.Get)
	mux.HandleFunc("PUT /api/me/preferences/{key}", h.Preferences.Put)

	// Pharmacy admin portal
	pharmacyOnly := middleware.RequireRole(model.RolePharmacy, logger)
	mux.Handle("GET /api/pharmacy/profile", pharmacyOnly(http.HandlerFunc(h.Pharmacy.Profile)))
	mux.Handle("PATCH /api/pharmacy/profile", pharmacyOnly(http.HandlerFunc(h.Pharmacy.UpdateProfile)))
	mux.Handle("GET /api/pharmacy/medicines", pharmacyOnly(http.HandlerFunc(h.Pharmacy.ListMedicines)))
	mux.Handle("PATCH /api/pharmacy/medicines/{id}", pharmacyOnly(http.HandlerFunc(h.Pharmacy.UpdateMedicine)))
	mux.Handle("POST /api/pharmacy/medicines/bulk", pharmacyOnly(http.HandlerFunc(h.Pharmacy.BulkUpdate)))
	mux.Handle("GET /api/pharmacy/medicines/low-stock", pharmacyOnly(http.HandlerFunc(h.Pharmacy.LowStock)))
	mux.Handle("GET /api/pharmacy/orders", pharmacyOnly(http.HandlerFunc(h.Pharmacy.ListOrders)))
	mux.Handle("PATCH /api/pharmacy/orders/{id}/status", pharmacyOnly(http.HandlerFunc(h.Pharmacy.UpdateOrderStatus)))

	// Apply middleware in order: Recovery -> Logging -> CORS -> Authenticate
	var handler http.Handler = mux
	handler = middleware.Authenticate(verifier, PublicRoutes, logger)(handler)
	handler = middleware.CORS(allowedOrigin)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
