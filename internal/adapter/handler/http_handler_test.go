package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/cart-sync/internal/core/domain"
	"github.com/rl1809/cart-sync/internal/core/service"
	"github.com/rl1809/cart-sync/internal/port"
)

type stubCatalog struct {
	products map[int64]domain.Product
	stock    map[int64]int
}

func (s *stubCatalog) GetProduct(_ context.Context, productID int64) (*domain.Product, error) {
	p, ok := s.products[productID]
	if !ok {
		return nil, port.ErrNotFound
	}
	return &p, nil
}

func (s *stubCatalog) GetStock(_ context.Context, productID int64) (int, error) {
	amount, ok := s.stock[productID]
	if !ok {
		return 0, port.ErrNotFound
	}
	return amount, nil
}

func (s *stubCatalog) ListStock(_ context.Context) ([]domain.StockEntry, error) {
	listing := make([]domain.StockEntry, 0, len(s.stock))
	for id, amount := range s.stock {
		listing = append(listing, domain.StockEntry{ProductID: id, Amount: amount})
	}
	return listing, nil
}

type stubCache struct {
	data map[string][]byte
}

func (s *stubCache) ReadRaw(_ context.Context, key string) ([]byte, error) {
	data, ok := s.data[key]
	if !ok {
		return nil, port.ErrCacheMiss
	}
	return data, nil
}

func (s *stubCache) WriteRaw(_ context.Context, key string, value []byte) error {
	s.data[key] = value
	return nil
}

func newTestServer() *httptest.Server {
	catalog := &stubCatalog{
		products: map[int64]domain.Product{
			1: {ID: 1, Name: "Backpack", Price: 109.95},
			2: {ID: 2, Name: "T-Shirt", Price: 22.3},
		},
		stock: map[int64]int{1: 2, 2: 5},
	}
	cache := &stubCache{data: make(map[string][]byte)}
	store := service.NewCartStore(context.Background(), catalog, cache, service.DefaultCacheKey)
	return httptest.NewServer(NewHTTPHandler(store).Routes())
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func doJSON(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()
	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeCart(t *testing.T, resp *http.Response) CartResponse {
	t.Helper()
	defer resp.Body.Close()
	var cart CartResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cart))
	return cart
}

func decodeError(t *testing.T, resp *http.Response) ErrorResponse {
	t.Helper()
	defer resp.Body.Close()
	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	return errResp
}

func TestHTTP_AddProduct(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/cart/items", AddProductRequest{ProductID: 1})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("ETag"))

	cart := decodeCart(t, resp)
	items, ok := cart.Items.([]interface{})
	require.True(t, ok)
	assert.Len(t, items, 1)
	assert.NotEmpty(t, cart.Revision)
}

func TestHTTP_AddProduct_NotFound(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/cart/items", AddProductRequest{ProductID: 999})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "could not add product", decodeError(t, resp).Error)
}

func TestHTTP_AddProduct_SoldOut(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	// Stock for product 1 is 2: third add must be rejected
	for i := 0; i < 2; i++ {
		resp := postJSON(t, srv.URL+"/api/cart/items", AddProductRequest{ProductID: 1})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp := postJSON(t, srv.URL+"/api/cart/items", AddProductRequest{ProductID: 1})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "requested quantity exceeds available stock", decodeError(t, resp).Error)
}

func TestHTTP_AddProduct_BadBody(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/cart/items", "application/json", bytes.NewBufferString("{oops"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTTP_UpdateAmount(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/cart/items", AddProductRequest{ProductID: 2})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPut, srv.URL+"/api/cart/items/2", UpdateAmountRequest{Amount: 5})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/api/cart")
	require.NoError(t, err)
	cart := decodeCart(t, resp)
	items := cart.Items.([]interface{})
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	assert.Equal(t, float64(5), item["amount"])
}

func TestHTTP_UpdateAmount_Zero(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/cart/items/2", UpdateAmountRequest{Amount: 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "could not update quantity", decodeError(t, resp).Error)
}

func TestHTTP_UpdateAmount_NotInCart(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/cart/items/2", UpdateAmountRequest{Amount: 2})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "could not update quantity", decodeError(t, resp).Error)
}

func TestHTTP_RemoveProduct(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/cart/items", AddProductRequest{ProductID: 1})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/cart/items/1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	cart := decodeCart(t, resp)
	assert.Empty(t, cart.Items)
}

func TestHTTP_RemoveProduct_NotInCart(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := doJSON(t, http.MethodDelete, srv.URL+"/api/cart/items/1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "could not remove product", decodeError(t, resp).Error)
}

func TestHTTP_InvalidProductIDParam(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := doJSON(t, http.MethodDelete, srv.URL+"/api/cart/items/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestHTTP_StockRefreshAndGet(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/stock/refresh", nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/api/stock")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var stock map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stock))
	assert.Equal(t, map[string]int{"1": 2, "2": 5}, stock)
}

func TestHTTP_Health(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
