package kucoin

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crypto-telemetry/internal/models"
)

func testCred() models.AccountCredential {
	return models.AccountCredential{
		UserID:     "u1",
		APIKey:     "api-key",
		SecretKey:  "secret-key",
		Passphrase: "pass-phrase",
	}
}

func TestSignMatchesHmacBase64(t *testing.T) {
	h := hmac.New(sha256.New, []byte("secret-key"))
	h.Write([]byte("payload"))
	expected := base64.StdEncoding.EncodeToString(h.Sum(nil))

	assert.Equal(t, expected, sign("secret-key", "payload"))
}

func TestAuthHeaders(t *testing.T) {
	client := NewClient("https://api.kucoin.com", testCred(), time.Second)
	headers := client.authHeaders(http.MethodPost, EndpointBulletPrivate, "")

	assert.Equal(t, "api-key", headers["KC-API-KEY"])
	assert.Equal(t, "2", headers["KC-API-KEY-VERSION"])
	assert.NotEmpty(t, headers["KC-API-TIMESTAMP"])
	// Passphrase header carries the signed passphrase, never the plain one.
	assert.Equal(t, sign("secret-key", "pass-phrase"), headers["KC-API-PASSPHRASE"])
	assert.NotEqual(t, "pass-phrase", headers["KC-API-PASSPHRASE"])
	// Sign covers timestamp+METHOD+path+body.
	timestamp := headers["KC-API-TIMESTAMP"]
	assert.Equal(t, sign("secret-key", timestamp+http.MethodPost+EndpointBulletPrivate), headers["KC-API-SIGN"])
}

const bulletBody = `{
	"code":"200000",
	"data":{
		"token":"tok-1",
		"instanceServers":[
			{"endpoint":"ws://plain.kucoin.com","encrypt":false,"protocol":"websocket","pingInterval":18000,"pingTimeout":10000},
			{"endpoint":"wss://ws-api.kucoin.com/endpoint","encrypt":true,"protocol":"websocket","pingInterval":18000,"pingTimeout":10000}
		]
	}
}`

func TestBulletPublicFiltersPlaintextInstances(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, EndpointBulletPublic, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Empty(t, r.Header.Get("KC-API-KEY"))
		w.Write([]byte(bulletBody))
	}))
	defer server.Close()

	client := NewClient(server.URL, models.AccountCredential{}, time.Second)
	token, servers, err := client.Bullet(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	require.Len(t, servers, 1)
	assert.Equal(t, "wss://ws-api.kucoin.com/endpoint", servers[0].Endpoint)
	assert.Equal(t, int64(18000), servers[0].PingInterval)
}

func TestBulletPrivateIsSigned(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, EndpointBulletPrivate, r.URL.Path)
		assert.Equal(t, "api-key", r.Header.Get("KC-API-KEY"))
		assert.NotEmpty(t, r.Header.Get("KC-API-SIGN"))
		assert.Equal(t, "2", r.Header.Get("KC-API-KEY-VERSION"))
		w.Write([]byte(bulletBody))
	}))
	defer server.Close()

	client := NewClient(server.URL, testCred(), time.Second)
	_, _, err := client.Bullet(context.Background(), true)
	require.NoError(t, err)
}

func TestBulletRejectedCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"400100","data":{}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, models.AccountCredential{}, time.Second)
	_, _, err := client.Bullet(context.Background(), false)
	assert.Error(t, err)
}

func TestSymbolsListing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"200000","data":[{"symbol":"BTC-USDT"},{"symbol":"ETH-USDT"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, models.AccountCredential{}, time.Second)
	symbols, err := client.Symbols(context.Background(), EndpointSpotSymbols)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC-USDT", "ETH-USDT"}, symbols)
}
