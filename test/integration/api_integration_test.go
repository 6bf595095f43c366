package integration

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"storefront/internal/handler"
	"storefront/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v))
	return v
}

func quantities(cart *model.OrderDetail) map[string]int {
	got := make(map[string]int)
	for _, item := range cart.Items {
		got[item.ProductID] = item.Quantity
	}
	return got
}

func TestProductAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	api := newTestAPI(t)
	api.reset(t)

	t.Run("GET /api/products returns all products", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/products", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		products := decode[[]model.Product](t, w.Body.Bytes())
		assert.Len(t, products, 3)
	})

	t.Run("GET /api/products with pagination", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/products?limit=2&offset=0", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		products := decode[[]model.Product](t, w.Body.Bytes())
		assert.Len(t, products, 2)
	})

	t.Run("GET /api/products/{id} returns specific product", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/products/B", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		product := decode[model.Product](t, w.Body.Bytes())
		assert.Equal(t, "Blade Putter", product.Name)
		assert.True(t, product.Price.Equal(decimal.RequireFromString("25.00")))
	})

	t.Run("GET /api/products/{id} returns 404 for non-existent product", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/products/ZZZ", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("GET /api/categories lists every category", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/categories", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		groups := decode[[]model.CategoryProducts](t, w.Body.Bytes())
		require.Len(t, groups, len(model.Categories))
		assert.Equal(t, model.CategoryDriver, groups[0].Category)
		assert.Len(t, groups[0].Products, 1)
	})

	t.Run("GET /api/categories/{category} rejects unknown categories", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/categories/bags", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCartAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	api := newTestAPI(t)

	t.Run("requires a bearer token", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/cart", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("empty cart", func(t *testing.T) {
		api.reset(t)

		w := api.do(t, http.MethodGet, "/api/cart", "alice", nil)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[model.CartResponse](t, w.Body.Bytes())
		assert.Nil(t, resp.Cart)
		assert.Zero(t, resp.ItemCount)
	})

	t.Run("add, decrement and remove keep the total in step", func(t *testing.T) {
		api.reset(t)

		for _, id := range []string{"A", "A", "B"} {
			w := api.do(t, http.MethodPost, "/api/cart/items/"+id, "alice", nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		}

		w := api.do(t, http.MethodGet, "/api/cart", "alice", nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[model.CartResponse](t, w.Body.Bytes())
		require.NotNil(t, resp.Cart)
		assert.Equal(t, map[string]int{"A": 2, "B": 1}, quantities(resp.Cart))
		assert.Equal(t, "45.00", resp.Cart.TotalPrice.StringFixed(2))
		assert.Equal(t, 3, resp.ItemCount)

		w = api.do(t, http.MethodPost, "/api/cart/items/A/decrement", "alice", nil)
		require.Equal(t, http.StatusOK, w.Code)
		item := decode[model.CartItemResponse](t, w.Body.Bytes())
		assert.Equal(t, 1, item.Quantity)
		assert.Equal(t, "35.00", item.Cart.TotalPrice.StringFixed(2))

		w = api.do(t, http.MethodPost, "/api/cart/items/A/decrement", "alice", nil)
		require.Equal(t, http.StatusOK, w.Code)
		item = decode[model.CartItemResponse](t, w.Body.Bytes())
		assert.Zero(t, item.Quantity)
		assert.Equal(t, map[string]int{"B": 1}, quantities(item.Cart))
		assert.Equal(t, "25.00", item.Cart.TotalPrice.StringFixed(2))

		w = api.do(t, http.MethodPost, "/api/cart/items/A/decrement", "alice", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = api.do(t, http.MethodDelete, "/api/cart/items/B", "alice", nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp = decode[model.CartResponse](t, w.Body.Bytes())
		require.NotNil(t, resp.Cart)
		assert.Empty(t, resp.Cart.Items)
		assert.True(t, resp.Cart.TotalPrice.IsZero())
	})

	t.Run("unknown product", func(t *testing.T) {
		api.reset(t)

		w := api.do(t, http.MethodPost, "/api/cart/items/ZZZ", "alice", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = api.do(t, http.MethodGet, "/api/cart", "alice", nil)
		resp := decode[model.CartResponse](t, w.Body.Bytes())
		assert.Nil(t, resp.Cart)
	})

	t.Run("carts are per user", func(t *testing.T) {
		api.reset(t)

		api.do(t, http.MethodPost, "/api/cart/items/A", "alice", nil)
		api.do(t, http.MethodPost, "/api/cart/items/C", "bob", nil)

		w := api.do(t, http.MethodGet, "/api/cart/count", "bob", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, decode[model.CartCountResponse](t, w.Body.Bytes()).Count)

		w = api.do(t, http.MethodGet, "/api/cart", "bob", nil)
		resp := decode[model.CartResponse](t, w.Body.Bytes())
		assert.Equal(t, map[string]int{"C": 1}, quantities(resp.Cart))
	})

	t.Run("concurrent adds share one cart", func(t *testing.T) {
		api.reset(t)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				api.do(t, http.MethodPost, "/api/cart/items/C", "carol", nil)
			}()
		}
		wg.Wait()

		var pending int
		require.NoError(t, api.db.Pool.QueryRow(t.Context(),
			`SELECT count(*) FROM orders WHERE user_id = 'carol' AND status = 'Pending'`).Scan(&pending))
		assert.Equal(t, 1, pending)

		w := api.do(t, http.MethodGet, "/api/cart", "carol", nil)
		resp := decode[model.CartResponse](t, w.Body.Bytes())
		assert.Equal(t, map[string]int{"C": 8}, quantities(resp.Cart))
		assert.Equal(t, "60.00", resp.Cart.TotalPrice.StringFixed(2))
	})
}

func TestCheckoutAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	api := newTestAPI(t)

	openSession := func(t *testing.T, user string) model.SessionHandle {
		t.Helper()
		w := api.do(t, http.MethodPost, "/api/checkout", user, nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		return decode[model.SessionHandle](t, w.Body.Bytes())
	}

	t.Run("empty cart never reaches the provider", func(t *testing.T) {
		api.reset(t)
		before := api.provider.sessionsCreated()

		w := api.do(t, http.MethodPost, "/api/checkout", "alice", nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, model.ErrCodeEmptyCart, decode[model.ErrorResponse](t, w.Body.Bytes()).Error)

		api.do(t, http.MethodPost, "/api/cart/items/A", "alice", nil)
		api.do(t, http.MethodDelete, "/api/cart/items/A", "alice", nil)

		w = api.do(t, http.MethodPost, "/api/checkout", "alice", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, before, api.provider.sessionsCreated())
	})

	t.Run("webhook completes the order", func(t *testing.T) {
		api.reset(t)
		api.do(t, http.MethodPost, "/api/cart/items/A", "alice", nil)
		api.do(t, http.MethodPost, "/api/cart/items/B", "alice", nil)

		handle := openSession(t, "alice")
		orderID := handle.OrderID.String()

		payload, sig := signedEvent(t, "checkout.session.completed", paidSessionObject(handle.SessionID, orderID))
		w := api.do(t, http.MethodPost, "/api/webhooks/payment", "", payload, handler.SignatureHeader, sig)
		require.Equal(t, http.StatusOK, w.Code)

		status, paidAt := orderStatus(t, api.db.Pool, orderID)
		assert.Equal(t, string(model.OrderStatusCompleted), status)
		require.NotNil(t, paidAt)

		// Redelivery changes nothing.
		payload, sig = signedEvent(t, "checkout.session.completed", paidSessionObject(handle.SessionID, orderID))
		w = api.do(t, http.MethodPost, "/api/webhooks/payment", "", payload, handler.SignatureHeader, sig)
		require.Equal(t, http.StatusOK, w.Code)
		_, again := orderStatus(t, api.db.Pool, orderID)
		assert.True(t, paidAt.Equal(*again))

		w = api.do(t, http.MethodGet, "/api/cart", "alice", nil)
		assert.Nil(t, decode[model.CartResponse](t, w.Body.Bytes()).Cart)

		w = api.do(t, http.MethodGet, "/api/orders", "alice", nil)
		require.Equal(t, http.StatusOK, w.Code)
		orders := decode[[]model.Order](t, w.Body.Bytes())
		require.Len(t, orders, 1)
		assert.Equal(t, handle.OrderID, orders[0].ID)
		assert.Equal(t, "35.00", orders[0].TotalPrice.StringFixed(2))

		w = api.do(t, http.MethodGet, "/api/orders/"+orderID, "alice", nil)
		require.Equal(t, http.StatusOK, w.Code)
		detail := decode[model.OrderDetail](t, w.Body.Bytes())
		require.NotNil(t, detail.SessionID)
		assert.Equal(t, handle.SessionID, *detail.SessionID)
		require.NotNil(t, detail.PaymentIntentID)
		assert.Equal(t, "pi_"+handle.SessionID, *detail.PaymentIntentID)

		w = api.do(t, http.MethodGet, "/api/orders/"+orderID, "mallory", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("return redirect completes a paid order", func(t *testing.T) {
		api.reset(t)
		api.do(t, http.MethodPost, "/api/cart/items/C", "bob", nil)

		handle := openSession(t, "bob")

		w := api.do(t, http.MethodGet, "/api/checkout/success?session_id="+handle.SessionID, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		result := decode[model.CheckoutResult](t, w.Body.Bytes())
		assert.False(t, result.Paid)
		require.NotNil(t, result.Order)
		assert.Equal(t, model.OrderStatusPending, result.Order.Status)

		api.provider.markPaid(handle.SessionID)

		w = api.do(t, http.MethodGet, "/api/checkout/success?session_id="+handle.SessionID, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		result = decode[model.CheckoutResult](t, w.Body.Bytes())
		assert.True(t, result.Paid)
		assert.Equal(t, handle.OrderID, result.Order.ID)
	})

	t.Run("unknown session still returns 200", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/checkout/success?session_id=cs_missing", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		result := decode[model.CheckoutResult](t, w.Body.Bytes())
		assert.Nil(t, result.Order)
		assert.False(t, result.Paid)
	})

	t.Run("webhook and redirect racing complete once", func(t *testing.T) {
		api.reset(t)
		api.do(t, http.MethodPost, "/api/cart/items/B", "dave", nil)

		handle := openSession(t, "dave")
		api.provider.markPaid(handle.SessionID)
		payload, sig := signedEvent(t, "checkout.session.completed", paidSessionObject(handle.SessionID, handle.OrderID.String()))

		var wg sync.WaitGroup
		codes := make([]int, 2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			codes[0] = api.do(t, http.MethodPost, "/api/webhooks/payment", "", payload, handler.SignatureHeader, sig).Code
		}()
		go func() {
			defer wg.Done()
			codes[1] = api.do(t, http.MethodGet, "/api/checkout/success?session_id="+handle.SessionID, "", nil).Code
		}()
		wg.Wait()

		assert.Equal(t, []int{http.StatusOK, http.StatusOK}, codes)

		var completed int
		require.NoError(t, api.db.Pool.QueryRow(t.Context(),
			`SELECT count(*) FROM orders WHERE user_id = 'dave' AND status = 'Completed' AND paid_at IS NOT NULL`).Scan(&completed))
		assert.Equal(t, 1, completed)
	})

	t.Run("webhook for an unknown order is acknowledged", func(t *testing.T) {
		api.reset(t)
		missing := "7d9f3c1e-0000-4000-8000-000000000000"

		payload, sig := signedEvent(t, "checkout.session.completed", paidSessionObject("cs_ghost", missing))
		w := api.do(t, http.MethodPost, "/api/webhooks/payment", "", payload, handler.SignatureHeader, sig)
		require.Equal(t, http.StatusOK, w.Code)

		var orders int
		require.NoError(t, api.db.Pool.QueryRow(t.Context(), `SELECT count(*) FROM orders`).Scan(&orders))
		assert.Zero(t, orders)
	})

	t.Run("webhook with a bad signature is rejected", func(t *testing.T) {
		api.reset(t)
		api.do(t, http.MethodPost, "/api/cart/items/A", "erin", nil)
		handle := openSession(t, "erin")

		payload, _ := signedEvent(t, "checkout.session.completed", paidSessionObject(handle.SessionID, handle.OrderID.String()))
		w := api.do(t, http.MethodPost, "/api/webhooks/payment", "", payload, handler.SignatureHeader, "t=1,v1=forged")
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, model.ErrCodeInvalidWebhookSignature, decode[model.ErrorResponse](t, w.Body.Bytes()).Error)

		status, _ := orderStatus(t, api.db.Pool, handle.OrderID.String())
		assert.Equal(t, string(model.OrderStatusPending), status)
	})
}
