package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/lumine-checkout/internal/domain/auth"
	"github.com/xenking/lumine-checkout/internal/domain/coupon"
	"github.com/xenking/lumine-checkout/internal/domain/notification"
	"github.com/xenking/lumine-checkout/internal/domain/order"
	"github.com/xenking/lumine-checkout/internal/domain/product"
	"github.com/xenking/lumine-checkout/internal/upload"
)

// --- Mock implementations ---

type mockProductRepo struct {
	products []product.Product
	listErr  error
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	return m.products, m.listErr
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	for i := range m.products {
		if m.products[i].ID == id {
			return &m.products[i], nil
		}
	}
	return nil, product.ErrNotFound
}

type mockCouponRepo struct {
	coupon    *coupon.Coupon
	userUsage int
}

func (m *mockCouponRepo) FindByCode(_ context.Context, _ string) (*coupon.Coupon, error) {
	if m.coupon == nil {
		return nil, coupon.ErrNotFound
	}
	return m.coupon, nil
}

func (m *mockCouponRepo) UserUsageCount(_ context.Context, _, _ string) (int, error) {
	return m.userUsage, nil
}

// stubStore implements order.Store and order.Tx in one: writes apply
// immediately, which is fine for single-request handler tests.
type stubStore struct {
	products map[string]*product.Product
	orders   map[string]*order.Order
}

func newStubStore(products ...product.Product) *stubStore {
	s := &stubStore{
		products: map[string]*product.Product{},
		orders:   map[string]*order.Order{},
	}
	for i := range products {
		s.products[products[i].ID] = &products[i]
	}
	return s
}

func (s *stubStore) InTx(_ context.Context, fn func(tx order.Tx) error) error {
	return fn(s)
}

func (s *stubStore) GetOrder(_ context.Context, id string) (*order.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, errors.New("order not found")
	}
	return o, nil
}

func (s *stubStore) GetProductForUpdate(_ context.Context, id string) (*product.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (s *stubStore) ApplyStockUpdate(_ context.Context, _ string, _ product.StockUpdate) error {
	return nil
}

func (s *stubStore) FindCoupon(_ context.Context, _ string) (*coupon.Coupon, error) {
	return nil, nil
}

func (s *stubStore) FindClaim(_ context.Context, _, _ string) (*coupon.Claim, error) {
	return nil, nil
}

func (s *stubStore) RedeemClaim(_ context.Context, _, _, _ string) error { return nil }

func (s *stubStore) IncrementCouponUses(_ context.Context, _, _ string) error { return nil }

func (s *stubStore) CreateOrder(_ context.Context, o *order.Order) error {
	s.orders[o.ID] = o
	return nil
}

type nopNotifier struct{}

func (nopNotifier) Upsert(_ context.Context, _ notification.Notification) error { return nil }

type mockTokenRepo struct {
	byHash map[string]*auth.TokenInfo
}

func (m *mockTokenRepo) FindByHash(_ context.Context, hash string) (*auth.TokenInfo, error) {
	info, ok := m.byHash[hash]
	if !ok {
		return nil, auth.ErrTokenNotFound
	}
	return info, nil
}

// --- Helpers ---

var testPepper = []byte("test-pepper")

func tokenHash(token string) string {
	mac := hmac.New(sha256.New, testPepper)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

type testEnv struct {
	server *httptest.Server
	store  *stubStore
}

func newTestEnv(t *testing.T, couponRepo coupon.Repository, products ...product.Product) *testEnv {
	t.Helper()

	store := newStubStore(products...)
	h := NewHandler(
		&mockProductRepo{products: products},
		coupon.NewEvaluator(couponRepo),
		order.NewService(store, nopNotifier{}),
		upload.NewClient(""),
	)
	sec := NewSecurity(&mockTokenRepo{byHash: map[string]*auth.TokenInfo{
		tokenHash("tok-u1"): {TokenHash: tokenHash("tok-u1"), UserID: "u1"},
	}}, testPepper)

	mux := http.NewServeMux()
	h.Register(mux)
	srv := httptest.NewServer(sec.Authenticate(mux))
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, store: store}
}

func (env *testEnv) post(t *testing.T, path, token, body string) (int, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, env.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func testProduct() product.Product {
	stock := int64(10)
	return product.Product{
		ID:    "P1",
		Name:  "Shirt",
		Price: decimal.RequireFromString("100"),
		Stock: &stock,
	}
}

// --- Tests ---

func TestApplyCoupon(t *testing.T) {
	repo := &mockCouponRepo{coupon: &coupon.Coupon{
		Code: "SAVE10", Active: true,
		Type: coupon.TypePercent, Value: decimal.NewFromInt(10),
	}}

	t.Run("valid preview", func(t *testing.T) {
		env := newTestEnv(t, repo)
		status, body := env.post(t, "/api/coupons/apply", "tok-u1",
			`{"userId": "u1", "code": "SAVE10", "subtotal": 200}`)

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, body["ok"])
		assert.InDelta(t, 20, body["discount"], 0.001)
	})

	t.Run("caller mismatch is a rejection, not an error", func(t *testing.T) {
		env := newTestEnv(t, repo)
		status, body := env.post(t, "/api/coupons/apply", "tok-u1",
			`{"userId": "someone-else", "code": "SAVE10", "subtotal": 200}`)

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, false, body["ok"])
		assert.Equal(t, "UNAUTHORIZED", body["reason"])
	})

	t.Run("anonymous caller rejected", func(t *testing.T) {
		env := newTestEnv(t, repo)
		status, body := env.post(t, "/api/coupons/apply", "",
			`{"userId": "u1", "code": "SAVE10", "subtotal": 200}`)

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "UNAUTHORIZED", body["reason"])
	})

	t.Run("business rejection carries reason", func(t *testing.T) {
		env := newTestEnv(t, &mockCouponRepo{})
		status, body := env.post(t, "/api/coupons/apply", "tok-u1",
			`{"userId": "u1", "code": "BOGUS", "subtotal": 200}`)

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, false, body["ok"])
		assert.Equal(t, coupon.ReasonNotFound, body["reason"])
	})

	t.Run("malformed body", func(t *testing.T) {
		env := newTestEnv(t, repo)
		status, body := env.post(t, "/api/coupons/apply", "tok-u1", `{`)

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "INVALID_INPUT", body["reason"])
	})
}

func TestCreateOrder(t *testing.T) {
	orderBody := `{
		"userId": "u1",
		"items": [{"productId": "P1", "qty": 2, "variant": {"color": "red", "size": "m"}}],
		"customer": {"name": "Alice", "address": "1 Main St"},
		"pricing": {"shippingFee": 50},
		"payment": {"method": "cod"}
	}`

	t.Run("happy path", func(t *testing.T) {
		env := newTestEnv(t, &mockCouponRepo{}, testProduct())
		status, body := env.post(t, "/api/orders", "tok-u1", orderBody)

		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, body["ok"])
		assert.NotEmpty(t, body["orderId"])
		assert.InDelta(t, 200, body["subtotal"], 0.001)
		assert.InDelta(t, 250, body["total"], 0.001)

		o := env.store.orders[body["orderId"].(string)]
		require.NotNil(t, o)
		assert.Equal(t, "Alice", o.Customer.Name)
	})

	t.Run("anonymous caller gets 401", func(t *testing.T) {
		env := newTestEnv(t, &mockCouponRepo{}, testProduct())
		status, body := env.post(t, "/api/orders", "", orderBody)

		require.Equal(t, http.StatusUnauthorized, status)
		errObj := body["error"].(map[string]any)
		assert.Equal(t, "unauthorized", errObj["category"])
		assert.Equal(t, "UNAUTHORIZED", errObj["reason"])
	})

	t.Run("out of stock gets 422 with product id", func(t *testing.T) {
		p := testProduct()
		one := int64(1)
		p.Stock = &one

		env := newTestEnv(t, &mockCouponRepo{}, p)
		status, body := env.post(t, "/api/orders", "tok-u1", orderBody)

		require.Equal(t, http.StatusUnprocessableEntity, status)
		errObj := body["error"].(map[string]any)
		assert.Equal(t, "failed_precondition", errObj["category"])
		assert.Equal(t, "OUT_OF_STOCK:P1", errObj["reason"])
	})

	t.Run("empty cart gets 400", func(t *testing.T) {
		env := newTestEnv(t, &mockCouponRepo{}, testProduct())
		status, body := env.post(t, "/api/orders", "tok-u1", `{"userId": "u1", "items": []}`)

		require.Equal(t, http.StatusBadRequest, status)
		errObj := body["error"].(map[string]any)
		assert.Equal(t, "EMPTY_CART", errObj["reason"])
	})

	t.Run("malformed body gets 400", func(t *testing.T) {
		env := newTestEnv(t, &mockCouponRepo{}, testProduct())
		status, body := env.post(t, "/api/orders", "tok-u1", `{"items": 42}`)

		require.Equal(t, http.StatusBadRequest, status)
		errObj := body["error"].(map[string]any)
		assert.Equal(t, "INVALID_INPUT", errObj["reason"])
	})
}

func TestUploadImages(t *testing.T) {
	t.Run("anonymous gets 401", func(t *testing.T) {
		env := newTestEnv(t, &mockCouponRepo{})
		status, _ := env.post(t, "/api/uploads/images", "", `{"images": ["aGk="]}`)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("unconfigured key is a rejection", func(t *testing.T) {
		env := newTestEnv(t, &mockCouponRepo{})
		status, body := env.post(t, "/api/uploads/images", "tok-u1", `{"images": ["aGk="]}`)

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, false, body["ok"])
		assert.Equal(t, "NO_IMGBB_KEY", body["reason"])
	})
}

func TestSecurity_InvalidToken(t *testing.T) {
	env := newTestEnv(t, &mockCouponRepo{})
	status, body := env.post(t, "/api/coupons/apply", "wrong-token",
		`{"userId": "u1", "code": "X", "subtotal": 1}`)

	require.Equal(t, http.StatusUnauthorized, status)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "UNAUTHORIZED", errObj["reason"])
}

func TestListProducts(t *testing.T) {
	env := newTestEnv(t, &mockCouponRepo{}, testProduct())

	resp, err := env.server.Client().Get(env.server.URL + "/api/products")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var products []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	require.Len(t, products, 1)
	assert.Equal(t, "P1", products[0]["id"])
	assert.InDelta(t, 100, products[0]["price"], 0.001)
}

func TestGetProduct_NotFound(t *testing.T) {
	env := newTestEnv(t, &mockCouponRepo{})

	resp, err := env.server.Client().Get(env.server.URL + "/api/products/missing")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
