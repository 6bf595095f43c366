package router

import (
	"net/http"

	"storefront/internal/handler"
	"storefront/internal/middleware"

	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers served by the API.
type Handlers struct {
	Product  *handler.ProductHandler
	Cart     *handler.CartHandler
	Checkout *handler.CheckoutHandler
	Webhook  *handler.WebhookHandler
	Order    *handler.OrderHandler
}

// New creates a new HTTP router with all routes and middleware configured.
// Cart, checkout and order routes require a bearer token signed with jwtSecret.
func New(h Handlers, jwtSecret []byte, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.UserAuth(jwtSecret, logger)
	protected := func(fn http.HandlerFunc) http.Handler {
		return auth(fn)
	}

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Catalogue
	mux.HandleFunc("GET /api/products", h.Product.GetAll)
	mux.HandleFunc("GET /api/products/{id}", h.Product.GetByID)
	mux.HandleFunc("GET /api/categories", h.Product.Categories)
	mux.HandleFunc("GET /api/categories/{category}", h.Product.ListByCategory)

	// Cart
	mux.Handle("GET /api/cart", protected(h.Cart.Get))
	mux.Handle("GET /api/cart/count", protected(h.Cart.Count))
	mux.Handle("POST /api/cart/items/{productID}", protected(h.Cart.AddItem))
	mux.Handle("POST /api/cart/items/{productID}/decrement", protected(h.Cart.Decrement))
	mux.Handle("DELETE /api/cart/items/{productID}", protected(h.Cart.Remove))

	// Checkout. The success redirect and the webhook come from the payment
	// provider's side and carry no user token.
	mux.Handle("POST /api/checkout", protected(h.Checkout.Create))
	mux.HandleFunc("GET /api/checkout/success", h.Checkout.Success)
	mux.HandleFunc("POST /api/webhooks/payment", h.Webhook.Handle)

	// Receipts
	mux.Handle("GET /api/orders", protected(h.Order.List))
	mux.Handle("GET /api/orders/{id}", protected(h.Order.GetByID))

	// Apply middleware in order: Recovery -> RequestID -> Logging -> CORS
	var handler http.Handler = mux
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
