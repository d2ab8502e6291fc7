package httppresentation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcart "github.com/Zhima-Mochi/candyshop/internal/application/cart"
	appinventory "github.com/Zhima-Mochi/candyshop/internal/application/inventory"
	apporder "github.com/Zhima-Mochi/candyshop/internal/application/order"
	"github.com/Zhima-Mochi/candyshop/internal/domain/catalog"
	"github.com/Zhima-Mochi/candyshop/internal/domain/customer"
	domorder "github.com/Zhima-Mochi/candyshop/internal/domain/order"
	"github.com/Zhima-Mochi/candyshop/internal/infrastructure/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cat := catalog.New()
	for _, s := range []struct {
		id, name, price string
		quantity        int
	}{
		{"candy-001", "GummyBear", "2.50", 10},
		{"candy-002", "ChocoBar", "3.25", 8},
	} {
		item, err := catalog.NewItem(s.id, s.name, decimal.RequireFromString(s.price), s.quantity, "mixed")
		require.NoError(t, err)
		require.NoError(t, cat.Add(item))
	}

	repo := memory.NewOrderRepository()
	seq := domorder.NewSequence()
	shopper := customer.New("Keanu", "keanu@example.com", "sweet-tooth")

	handler := NewHandler(
		cat,
		shopper,
		appcart.NewCheckoutUseCase(repo, seq, nil),
		apporder.NewConfirmPaymentUseCase(repo, nil, nil),
		apporder.NewFulfillmentService(repo, nil, nil),
		appinventory.NewStockService(cat, repo, nil, nil),
		nil,
	)

	server := httptest.NewServer(handler.Router())
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, client *http.Client, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	decoded := map[string]any{}
	if resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp, decoded
}

func TestHandler_FullOrderLifecycle(t *testing.T) {
	server := newTestServer(t)
	client := server.Client()

	resp, cart := doJSON(t, client, http.MethodPost, server.URL+"/cart/items",
		`{"item_id":"candy-001","quantity":3}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "7.50", cart["total"])
	assert.Equal(t, "k***@example.com", cart["contact"])

	resp, checkout := doJSON(t, client, http.MethodPost, server.URL+"/checkout",
		`{"method":"credit_card","card_number":"4111111111111111","holder":"Keanu"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, float64(1000), checkout["order_id"])
	assert.Equal(t, "pending", checkout["status"])
	assert.Equal(t, "7.50", checkout["total"])

	resp, cart = doJSON(t, client, http.MethodGet, server.URL+"/cart", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "0.00", cart["total"])

	resp, paid := doJSON(t, client, http.MethodPost, server.URL+"/orders/pay",
		`{"order_id":1000}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, paid["paid"])
	assert.Equal(t, "paid", paid["status"])

	resp, shipped := doJSON(t, client, http.MethodPost, server.URL+"/orders/ship",
		`{"order_id":1000}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "shipped", shipped["status"])

	resp, got := doJSON(t, client, http.MethodGet, server.URL+"/order?id=1000", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "shipped", got["status"])
	assert.Equal(t, "Credit Card", got["payment_method"])
	assert.Equal(t, "Keanu", got["customer"])

	resp, sales := doJSON(t, client, http.MethodGet, server.URL+"/orders/report", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "7.50", sales["total_sales"])
}

func TestHandler_ShipBeforePayConflicts(t *testing.T) {
	server := newTestServer(t)
	client := server.Client()

	resp, _ := doJSON(t, client, http.MethodPost, server.URL+"/cart/items",
		`{"item_id":"candy-002","quantity":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, client, http.MethodPost, server.URL+"/checkout",
		`{"method":"paypal","email":"keanu@example.com"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, client, http.MethodPost, server.URL+"/orders/ship",
		`{"order_id":1000}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestHandler_CheckoutValidation(t *testing.T) {
	server := newTestServer(t)
	client := server.Client()

	resp, _ := doJSON(t, client, http.MethodPost, server.URL+"/checkout",
		`{"method":"credit_card","card_number":"123"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, client, http.MethodPost, server.URL+"/checkout",
		`{"method":"carrier_pigeon"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Valid method but nothing in the cart yet.
	resp, _ = doJSON(t, client, http.MethodPost, server.URL+"/checkout",
		`{"method":"paypal","email":"keanu@example.com"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestHandler_CatalogEndpoints(t *testing.T) {
	server := newTestServer(t)
	client := server.Client()

	resp, created := doJSON(t, client, http.MethodPost, server.URL+"/catalog/items",
		`{"id":"candy-009","name":"SourWorm","price":"1.75","quantity":5,"flavor":"citrus"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "1.75", created["price"])
	assert.Equal(t, true, created["available"])

	resp, _ = doJSON(t, client, http.MethodPost, server.URL+"/catalog/items",
		`{"id":"candy-009","name":"Dup","price":"1.00","quantity":1,"flavor":"x"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/catalog/search?q=worm", nil)
	require.NoError(t, err)
	searchResp, err := client.Do(req)
	require.NoError(t, err)
	defer func() { _ = searchResp.Body.Close() }()
	require.Equal(t, http.StatusOK, searchResp.StatusCode)
	var items []map[string]any
	require.NoError(t, json.NewDecoder(searchResp.Body).Decode(&items))
	require.Len(t, items, 1)
	assert.Equal(t, "SourWorm", items[0]["name"])

	resp, restocked := doJSON(t, client, http.MethodPost, server.URL+"/catalog/restock",
		`{"item_id":"candy-009","amount":10}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(15), restocked["quantity"])

	resp, _ = doJSON(t, client, http.MethodPost, server.URL+"/catalog/restock",
		`{"item_id":"candy-404","amount":10}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, reviewed := doJSON(t, client, http.MethodPost, server.URL+"/catalog/reviews",
		`{"item_id":"candy-009","text":"delightfully sour"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"delightfully sour"}, reviewed["reviews"])
}

func TestHandler_CartRemoveAndUnknownItem(t *testing.T) {
	server := newTestServer(t)
	client := server.Client()

	resp, _ := doJSON(t, client, http.MethodPost, server.URL+"/cart/items",
		`{"item_id":"candy-404","quantity":1}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, removed := doJSON(t, client, http.MethodPost, server.URL+"/cart/remove",
		`{"name":"GummyBear"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, removed["removed"], "removing from an empty cart is benign")

	resp, _ = doJSON(t, client, http.MethodPost, server.URL+"/cart/items",
		`{"item_id":"candy-001","quantity":2}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, removed = doJSON(t, client, http.MethodPost, server.URL+"/cart/remove",
		`{"name":"gummybear"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, removed["removed"])
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	server := newTestServer(t)

	resp, _ := doJSON(t, server.Client(), http.MethodGet, server.URL+"/checkout", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHandler_GetOrderValidation(t *testing.T) {
	server := newTestServer(t)
	client := server.Client()

	resp, _ := doJSON(t, client, http.MethodGet, server.URL+"/order?id=abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, client, http.MethodGet, server.URL+"/order?id=4242", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandler_Health(t *testing.T) {
	server := newTestServer(t)

	resp, err := server.Client().Get(server.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
