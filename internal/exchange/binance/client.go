package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is the minimal Binance REST client the adapters need: the ticker
// bootstrap and the userDataStream listen-key lifecycle.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient targets one REST base URL; apiKey may be empty for public
// endpoints.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, query url.Values) ([]byte, error) {
	fullURL := c.baseURL + endpoint
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-MBX-APIKEY", c.apiKey)
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
		return nil, fmt.Errorf("binance %s: status %d: %s", endpoint, resp.StatusCode, string(body))
	}
	return body, nil
}

// TickerPrices fetches the full symbol/price list from the given endpoint.
func (c *Client) TickerPrices(ctx context.Context, endpoint string) ([]restTicker, error) {
	data, err := c.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	var tickers []restTicker
	if err := json.Unmarshal(data, &tickers); err != nil {
		return nil, fmt.Errorf("failed to parse ticker list: %w", err)
	}
	return tickers, nil
}

// CreateListenKey opens a user data stream and returns its listen key.
func (c *Client) CreateListenKey(ctx context.Context) (string, error) {
	data, err := c.doRequest(ctx, http.MethodPost, EndpointUserDataStream, nil)
	if err != nil {
		return "", err
	}
	var resp listenKeyResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("failed to parse listenKey response: %w", err)
	}
	if resp.ListenKey == "" {
		return "", fmt.Errorf("empty listenKey in response")
	}
	return resp.ListenKey, nil
}

// KeepAliveListenKey renews the listen key; Binance expires idle keys after
// sixty minutes.
func (c *Client) KeepAliveListenKey(ctx context.Context, listenKey string) error {
	query := url.Values{}
	query.Set("listenKey", listenKey)
	_, err := c.doRequest(ctx, http.MethodPut, EndpointUserDataStream, query)
	return err
}
