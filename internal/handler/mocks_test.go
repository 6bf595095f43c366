package handler

import (
	"context"
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/payment"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockProductService is a mock implementation of ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) GetByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) ListByCategory(ctx context.Context, category string, limit, offset int) ([]model.Product, error) {
	args := m.Called(ctx, category, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) Featured(ctx context.Context) ([]model.CategoryProducts, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CategoryProducts), args.Error(1)
}

func (m *MockProductService) Categories() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

// MockCartService is a mock implementation of CartService.
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) AddItem(ctx context.Context, userID, productID string) (*model.OrderDetail, *model.OrderItem, error) {
	args := m.Called(ctx, userID, productID)
	var cart *model.OrderDetail
	if v := args.Get(0); v != nil {
		cart = v.(*model.OrderDetail)
	}
	var item *model.OrderItem
	if v := args.Get(1); v != nil {
		item = v.(*model.OrderItem)
	}
	return cart, item, args.Error(2)
}

func (m *MockCartService) DecrementOrRemove(ctx context.Context, userID, productID string) (int, error) {
	args := m.Called(ctx, userID, productID)
	return args.Int(0), args.Error(1)
}

func (m *MockCartService) RemoveItem(ctx context.Context, userID, productID string) error {
	args := m.Called(ctx, userID, productID)
	return args.Error(0)
}

func (m *MockCartService) GetCart(ctx context.Context, userID string) (*model.OrderDetail, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderDetail), args.Error(1)
}

func (m *MockCartService) ItemCount(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

// MockCheckoutService is a mock implementation of CheckoutService.
type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) OpenSession(ctx context.Context, userID string) (*model.SessionHandle, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SessionHandle), args.Error(1)
}

// MockReconcilerService is a mock implementation of ReconcilerService.
type MockReconcilerService struct {
	mock.Mock
}

func (m *MockReconcilerService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	args := m.Called(ctx, payload, signature)
	return args.Error(0)
}

func (m *MockReconcilerService) HandleProviderEvent(ctx context.Context, event *payment.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockReconcilerService) ReconcileFromReturn(ctx context.Context, sessionID string) *model.OrderDetail {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*model.OrderDetail)
}

func (m *MockReconcilerService) CompleteOrder(ctx context.Context, orderID uuid.UUID, sessionID, paymentIntentID *string) (model.CompletionOutcome, error) {
	args := m.Called(ctx, orderID, sessionID, paymentIntentID)
	return args.Get(0).(model.CompletionOutcome), args.Error(1)
}

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) ListForUser(ctx context.Context, userID string, limit, offset int) ([]model.Order, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) GetForUser(ctx context.Context, userID string, id uuid.UUID) (*model.OrderDetail, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderDetail), args.Error(1)
}

// asUser attaches an authenticated user to the request.
func asUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(middleware.WithUserID(r.Context(), userID))
}
