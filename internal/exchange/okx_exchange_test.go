package exchange

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"okx-grid-bot-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestExchange(serverURL string) *OKXExchange {
	return NewOKXExchange(&models.Credentials{
		APIKey:     "test-key",
		SecretKey:  "test-secret",
		Passphrase: "test-phrase",
		BaseURL:    serverURL,
	}, zap.NewNop().Sugar())
}

// TestGetTicker verifies response decoding and the presence of auth headers.
func TestGetTicker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v5/market/ticker", r.URL.Path)
		assert.Equal(t, "BTC-USDT", r.URL.Query().Get("instId"))
		assert.Equal(t, "test-key", r.Header.Get("OK-ACCESS-KEY"))
		assert.NotEmpty(t, r.Header.Get("OK-ACCESS-SIGN"))
		assert.NotEmpty(t, r.Header.Get("OK-ACCESS-TIMESTAMP"))
		assert.Equal(t, "test-phrase", r.Header.Get("OK-ACCESS-PASSPHRASE"))

		w.Write([]byte(`{"code":"0","msg":"","data":[{"instId":"BTC-USDT","last":"50000.5"}]}`))
	}))
	defer server.Close()

	price, err := newTestExchange(server.URL).GetTicker("BTC-USDT")
	require.NoError(t, err)
	assert.Equal(t, 50000.5, price)
}

// TestGetPositionFlat verifies an empty position list reads back as flat.
func TestGetPositionFlat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"0","msg":"","data":[]}`))
	}))
	defer server.Close()

	pos, avgPx, err := newTestExchange(server.URL).GetPosition("BTC-USDT")
	require.NoError(t, err)
	assert.Zero(t, pos)
	assert.Zero(t, avgPx)
}

// TestGetPendingOrders verifies decoding of pending orders.
func TestGetPendingOrders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"0","msg":"","data":[
			{"instId":"BTC-USDT","ordId":"111","px":"100.0","sz":"1","side":"buy"},
			{"instId":"BTC-USDT","ordId":"222","px":"200.0","sz":"1","side":"sell"}
		]}`))
	}))
	defer server.Close()

	orders, err := newTestExchange(server.URL).GetPendingOrders("BTC-USDT")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "111", orders[0].OrderID)
	assert.Equal(t, models.Buy, orders[0].Side)
	assert.Equal(t, 100.0, orders[0].Price)
	assert.Equal(t, models.Sell, orders[1].Side)
}

// TestPlaceOrder verifies the request body and result decoding.
func TestPlaceOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v5/trade/order", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "BTC-USDT", body["instId"])
		assert.Equal(t, "cash", body["tdMode"])
		assert.Equal(t, "buy", body["side"])
		assert.Equal(t, "limit", body["ordType"])
		assert.Equal(t, "125.0", body["px"])
		assert.Equal(t, "1", body["sz"])
		assert.NotEmpty(t, body["clOrdId"])

		w.Write([]byte(`{"code":"0","msg":"","data":[{"ordId":"12345","sCode":"0","sMsg":""}]}`))
	}))
	defer server.Close()

	orderID, err := newTestExchange(server.URL).PlaceOrder("BTC-USDT", models.Buy, 125, 1)
	require.NoError(t, err)
	assert.Equal(t, "12345", orderID)
}

// TestPlaceOrderRejected verifies a per-order sCode failure surfaces as an
// OKX error even when the envelope code is 0.
func TestPlaceOrderRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"0","msg":"","data":[{"ordId":"","sCode":"51008","sMsg":"insufficient balance"}]}`))
	}))
	defer server.Close()

	_, err := newTestExchange(server.URL).PlaceOrder("BTC-USDT", models.Sell, 200, 1)
	require.Error(t, err)

	var okxErr *models.OKXError
	require.True(t, errors.As(err, &okxErr))
	assert.Equal(t, "51008", okxErr.Code)
}

// TestEnvelopeError verifies a non-zero envelope code surfaces as an OKX error.
func TestEnvelopeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"50111","msg":"Invalid OK-ACCESS-KEY","data":[]}`))
	}))
	defer server.Close()

	_, err := newTestExchange(server.URL).GetTicker("BTC-USDT")
	require.Error(t, err)

	var okxErr *models.OKXError
	require.True(t, errors.As(err, &okxErr))
	assert.Equal(t, "50111", okxErr.Code)
}

// TestFormatPrice verifies both sides of the reconciliation use the same
// tick-precision formatting.
func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "133.3", FormatPrice(133.3333333))
	assert.Equal(t, "100.0", FormatPrice(100))
	assert.Equal(t, "100.1", FormatPrice(100.06))
	assert.Equal(t, "100.0", FormatPrice(100.04))
}
