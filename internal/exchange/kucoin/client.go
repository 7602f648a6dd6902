package kucoin

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/crypto-telemetry/internal/models"
)

// Client is the KuCoin REST client used for the websocket bootstrap: symbol
// listings and bullet tokens.
type Client struct {
	baseURL    string
	cred       models.AccountCredential
	httpClient *http.Client
}

// NewClient targets one REST base URL. The credential is only used for signed
// endpoints and may be zero for public ones.
func NewClient(baseURL string, cred models.AccountCredential, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		cred:    cred,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// sign produces the base64 HMAC-SHA256 of the payload under the secret key.
func sign(secret, payload string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// authHeaders builds the KC-API v2 signed header set for a request.
func (c *Client) authHeaders(method, path, body string) map[string]string {
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	return map[string]string{
		"KC-API-TIMESTAMP":   timestamp,
		"KC-API-KEY":         c.cred.APIKey,
		"KC-API-PASSPHRASE":  sign(c.cred.SecretKey, c.cred.Passphrase),
		"KC-API-SIGN":        sign(c.cred.SecretKey, timestamp+method+path+body),
		"KC-API-KEY-VERSION": "2",
	}
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, signed bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if signed {
		for k, v := range c.authHeaders(method, endpoint, "") {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("kucoin %s: status %d: %s", endpoint, resp.StatusCode, string(body))
	}
	return body, nil
}

// Bullet obtains a websocket token plus instance servers. Private bullets are
// signed with the client credential.
func (c *Client) Bullet(ctx context.Context, private bool) (string, []InstanceServer, error) {
	endpoint := EndpointBulletPublic
	if private {
		endpoint = EndpointBulletPrivate
	}
	data, err := c.doRequest(ctx, http.MethodPost, endpoint, private)
	if err != nil {
		return "", nil, err
	}

	var resp bulletResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", nil, fmt.Errorf("failed to parse bullet response: %w", err)
	}
	if resp.Code != "200000" {
		return "", nil, fmt.Errorf("bullet request rejected with code %s", resp.Code)
	}

	// Only TLS-capable websocket instances are usable.
	servers := make([]InstanceServer, 0, len(resp.Data.InstanceServers))
	for _, inst := range resp.Data.InstanceServers {
		if inst.Protocol == "websocket" && inst.Encrypt {
			servers = append(servers, inst)
		}
	}
	if resp.Data.Token == "" || len(servers) == 0 {
		return "", nil, fmt.Errorf("bullet response carried no usable websocket instance")
	}
	return resp.Data.Token, servers, nil
}

// Symbols lists tradable symbols from the given listing endpoint.
func (c *Client) Symbols(ctx context.Context, endpoint string) ([]string, error) {
	data, err := c.doRequest(ctx, http.MethodGet, endpoint, false)
	if err != nil {
		return nil, err
	}
	var resp symbolsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse symbols response: %w", err)
	}
	symbols := make([]string, 0, len(resp.Data))
	for _, s := range resp.Data {
		if s.Symbol != "" {
			symbols = append(symbols, s.Symbol)
		}
	}
	return symbols, nil
}
