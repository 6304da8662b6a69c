package routes

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/shopfront-backend/internal/cart"
	"github.com/angelmondragon/shopfront-backend/internal/favorites"
	"github.com/angelmondragon/shopfront-backend/internal/orders"
	"github.com/angelmondragon/shopfront-backend/internal/products"
	"github.com/angelmondragon/shopfront-backend/internal/users"
	"github.com/angelmondragon/shopfront-backend/pkg/config"
	"github.com/angelmondragon/shopfront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/metrics"
)

type testServer struct {
	*httptest.Server
	seed func(name, price string) models.Product
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	client := dbtest.OpenSQLite(t)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	reg := metrics.NewRegistry()
	shop := metrics.NewShopMetrics(reg)
	userRepo := users.NewRepository(client.DB())
	cartRepo := cart.NewRepository(client.DB())

	productSvc, err := products.NewService(products.ServiceParams{
		Repo:    products.NewRepository(client.DB()),
		Metrics: shop,
		Logger:  logg,
	})
	require.NoError(t, err)
	cartSvc, err := cart.NewService(cart.ServiceParams{Repo: cartRepo, Users: userRepo, Tx: client, Metrics: shop})
	require.NoError(t, err)
	favoriteSvc, err := favorites.NewService(favorites.ServiceParams{
		Repo:  favorites.NewRepository(client.DB()),
		Users: userRepo,
		Tx:    client,
	})
	require.NoError(t, err)
	orderSvc, err := orders.NewService(orders.ServiceParams{
		Repo:    orders.NewRepository(client.DB()),
		Cart:    cartRepo,
		Tx:      client,
		Metrics: shop,
	})
	require.NoError(t, err)

	cfg := &config.Config{
		App:  config.AppConfig{Env: "test"},
		HTTP: config.HTTPConfig{FrontendOrigin: "http://localhost:3000"},
	}
	handler := NewRouter(Deps{
		Config:      cfg,
		Logger:      logg,
		DB:          client,
		Gatherer:    reg,
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
		Products:    productSvc,
		Cart:        cartSvc,
		Favorites:   favoriteSvc,
		Orders:      orderSvc,
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &testServer{
		Server: srv,
		seed: func(name, price string) models.Product {
			return dbtest.SeedProduct(t, client, name, price)
		},
	}
}

func (s *testServer) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, payload
}

func TestRootAndHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, body := srv.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Backend API is running", string(body))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	resp, _ = srv.do(t, http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = srv.do(t, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"database":"up"`)
}

func TestProductsRoutes(t *testing.T) {
	srv := newTestServer(t)
	first := srv.seed("Oversize T-Shirt", "249.90")
	srv.seed("Yüksek Bel Jean", "499.00")

	resp, body := srv.do(t, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []models.Product
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 2)

	resp, body = srv.do(t, http.MethodGet, fmt.Sprintf("/api/products/%d", first.ID), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var product models.Product
	require.NoError(t, json.Unmarshal(body, &product))
	assert.Equal(t, "Oversize T-Shirt", product.Name)

	resp, _ = srv.do(t, http.MethodGet, "/api/products/99999", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCartFlow(t *testing.T) {
	srv := newTestServer(t)
	product := srv.seed("Sneaker Ayakkabı", "799.00")

	resp, _ := srv.do(t, http.MethodGet, "/api/cart", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	add := fmt.Sprintf(`{"userId":"u1","productId":%d,"quantity":2}`, product.ID)
	resp, body := srv.do(t, http.MethodPost, "/api/cart", add)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	resp, body = srv.do(t, http.MethodPost, "/api/cart", add)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var item models.CartItem
	require.NoError(t, json.Unmarshal(body, &item))
	assert.Equal(t, 4, item.Quantity)

	resp, body = srv.do(t, http.MethodGet, "/api/cart?userId=u1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var items []models.CartItem
	require.NoError(t, json.Unmarshal(body, &items))
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Product)
	assert.Equal(t, "Sneaker Ayakkabı", items[0].Product.Name)

	resp, body = srv.do(t, http.MethodPatch, fmt.Sprintf("/api/cart/%d", item.ID), `{"delta":-1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &item))
	assert.Equal(t, 3, item.Quantity)

	resp, body = srv.do(t, http.MethodPatch, fmt.Sprintf("/api/cart/%d", item.ID), `{"delta":-3}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true,"deleted":true}`, string(body))

	resp, _ = srv.do(t, http.MethodPatch, fmt.Sprintf("/api/cart/%d", item.ID), `{"delta":1}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = srv.do(t, http.MethodDelete, fmt.Sprintf("/api/cart/%d", item.ID), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = srv.do(t, http.MethodDelete, "/api/cart/abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCartAddUnknownProduct(t *testing.T) {
	srv := newTestServer(t)
	resp, body := srv.do(t, http.MethodPost, "/api/cart", `{"userId":"u1","productId":424242}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, string(body))
}

func TestFavoritesAreIdempotent(t *testing.T) {
	srv := newTestServer(t)
	product := srv.seed("Deri Omuz Çantası", "699.00")
	add := fmt.Sprintf(`{"userId":"u1","productId":%d}`, product.ID)

	resp, first := srv.do(t, http.MethodPost, "/api/favorites", add)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, second := srv.do(t, http.MethodPost, "/api/favorites", add)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var a, b models.Favorite
	require.NoError(t, json.Unmarshal(first, &a))
	require.NoError(t, json.Unmarshal(second, &b))
	assert.Equal(t, a.ID, b.ID)

	resp, body := srv.do(t, http.MethodGet, "/api/favorites?userId=u1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []models.Favorite
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 1)
}

func TestPlaceOrderEmptiesCart(t *testing.T) {
	srv := newTestServer(t)
	shirt := srv.seed("Oversize T-Shirt", "249.90")
	jean := srv.seed("Yüksek Bel Jean", "499.00")

	resp, _ := srv.do(t, http.MethodPost, "/api/cart", fmt.Sprintf(`{"userId":"u1","productId":%d}`, shirt.ID))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	order := fmt.Sprintf(`{"userId":"u1","items":[{"productId":%d,"quantity":2,"price":100},{"productId":%d,"quantity":1,"price":50}]}`, shirt.ID, jean.ID)
	resp, body := srv.do(t, http.MethodPost, "/api/orders", order)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var placed models.Order
	require.NoError(t, json.Unmarshal(body, &placed))
	assert.True(t, placed.Total.Equal(decimal.NewFromInt(250)), placed.Total.String())

	resp, body = srv.do(t, http.MethodGet, "/api/cart?userId=u1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	resp, body = srv.do(t, http.MethodGet, "/api/orders?userId=u1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []models.Order
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	require.Len(t, list[0].Items, 2)
	require.NotNil(t, list[0].Items[0].Product)

	resp, _ = srv.do(t, http.MethodPost, "/api/orders", `{"userId":"u1","items":[]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, body = srv.do(t, http.MethodGet, "/metrics", "")
	assert.Contains(t, string(body), "shopfront_orders_placed_total")
	assert.Contains(t, string(body), `route="/api/orders"`)
}

func TestOutOfRangeInputsAreBadRequests(t *testing.T) {
	srv := newTestServer(t)
	product := srv.seed("Oversize T-Shirt", "249.90")

	add := fmt.Sprintf(`{"userId":"u1","productId":%d,"quantity":2}`, product.ID)
	resp, body := srv.do(t, http.MethodPost, "/api/cart", add)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var item models.CartItem
	require.NoError(t, json.Unmarshal(body, &item))

	cases := []struct {
		name, method, path, body string
	}{
		{name: "product id past BIGINT", method: http.MethodGet, path: "/api/products/9223372036854775808"},
		{name: "delete id past BIGINT", method: http.MethodDelete, path: "/api/cart/9223372036854775808"},
		{name: "patch id past BIGINT", method: http.MethodPatch, path: "/api/cart/9223372036854775808", body: `{"delta":1}`},
		{name: "cart productId past BIGINT", method: http.MethodPost, path: "/api/cart", body: `{"userId":"u1","productId":9223372036854775808}`},
		{name: "favorite productId past BIGINT", method: http.MethodPost, path: "/api/favorites", body: `{"userId":"u1","productId":9223372036854775808}`},
		{name: "quantity past INTEGER", method: http.MethodPost, path: "/api/cart", body: fmt.Sprintf(`{"userId":"u1","productId":%d,"quantity":9223372036854775807}`, product.ID)},
		{name: "delta past INTEGER", method: http.MethodPatch, path: fmt.Sprintf("/api/cart/%d", item.ID), body: `{"delta":9223372036854775807}`},
		{name: "merge past INTEGER", method: http.MethodPost, path: "/api/cart", body: fmt.Sprintf(`{"userId":"u1","productId":%d,"quantity":2147483647}`, product.ID)},
		{name: "adjust past INTEGER", method: http.MethodPatch, path: fmt.Sprintf("/api/cart/%d", item.ID), body: `{"delta":2147483647}`},
		{name: "price with three decimals", method: http.MethodPost, path: "/api/orders", body: fmt.Sprintf(`{"userId":"u1","items":[{"productId":%d,"quantity":3,"price":33.333}]}`, product.ID)},
		{name: "order productId past BIGINT", method: http.MethodPost, path: "/api/orders", body: `{"userId":"u1","items":[{"productId":9223372036854775808,"quantity":1,"price":1}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := srv.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))
			assert.Contains(t, string(body), "VALIDATION_ERROR")
		})
	}

	resp, body = srv.do(t, http.MethodGet, "/api/cart?userId=u1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var items []models.CartItem
	require.NoError(t, json.Unmarshal(body, &items))
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/cart", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}
