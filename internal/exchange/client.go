package exchange

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"aster-trading-bot/config"
)

// Retry configuration for API calls
const (
	maxRetries     = 3
	baseRetryDelay = 500 * time.Millisecond
	maxRetryDelay  = 5 * time.Second
)

// DefaultBaseURL is the production futures API URL
const DefaultBaseURL = "https://fapi.asterdex.com"

// HTTPClient implements the Client interface against the futures REST API
type HTTPClient struct {
	apiKey     string
	secretKey  string
	baseURL    string
	recvWindow string
	httpClient *http.Client
	limiter    *limiter
	logger     zerolog.Logger
}

// NewHTTPClient creates a new exchange client.
// Keys are trimmed because trailing whitespace breaks signature generation.
func NewHTTPClient(cfg config.ExchangeConfig, logger zerolog.Logger) *HTTPClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	recvWindow := cfg.RecvWindow
	if recvWindow <= 0 {
		recvWindow = 10000
	}

	return &HTTPClient{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		secretKey:  strings.TrimSpace(cfg.SecretKey),
		baseURL:    strings.TrimRight(baseURL, "/"),
		recvWindow: strconv.Itoa(recvWindow),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    newLimiter(),
		logger:     logger.With().Str("component", "ExchangeClient").Logger(),
	}
}

// GetPositionRisk retrieves position risk records for a symbol.
// In hedge mode the exchange returns one row per position side.
func (c *HTTPClient) GetPositionRisk(symbol string) ([]Position, error) {
	params := map[string]string{}
	if symbol != "" {
		params["symbol"] = symbol
	}

	resp, err := c.signedGet("/fapi/v2/positionRisk", params)
	if err != nil {
		return nil, fmt.Errorf("error fetching positions: %w", err)
	}

	var positions []Position
	if err := json.Unmarshal(resp, &positions); err != nil {
		return nil, fmt.Errorf("error parsing positions: %w", err)
	}

	return positions, nil
}

// GetOpenOrders retrieves all open orders for a symbol
func (c *HTTPClient) GetOpenOrders(symbol string) ([]Order, error) {
	params := map[string]string{}
	if symbol != "" {
		params["symbol"] = symbol
	}

	resp, err := c.signedGet("/fapi/v1/openOrders", params)
	if err != nil {
		return nil, fmt.Errorf("error fetching open orders: %w", err)
	}

	var orders []Order
	if err := json.Unmarshal(resp, &orders); err != nil {
		return nil, fmt.Errorf("error parsing open orders: %w", err)
	}

	return orders, nil
}

// PlaceOrder submits a new futures order
func (c *HTTPClient) PlaceOrder(params OrderParams) (*OrderResponse, error) {
	reqParams := map[string]string{
		"symbol":   params.Symbol,
		"side":     params.Side,
		"type":     string(params.Type),
		"quantity": strconv.FormatFloat(params.Quantity, 'f', -1, 64),
	}

	if params.PositionSide != "" {
		reqParams["positionSide"] = string(params.PositionSide)
	}
	if params.Price > 0 {
		reqParams["price"] = strconv.FormatFloat(params.Price, 'f', -1, 64)
	}
	if params.StopPrice > 0 {
		reqParams["stopPrice"] = strconv.FormatFloat(params.StopPrice, 'f', -1, 64)
	}
	if params.TimeInForce != "" {
		reqParams["timeInForce"] = string(params.TimeInForce)
	} else if params.Type == OrderTypeLimit {
		reqParams["timeInForce"] = string(TimeInForceGTC)
	}
	if params.ReduceOnly {
		reqParams["reduceOnly"] = "true"
	}
	if params.ClosePosition {
		reqParams["closePosition"] = "true"
	}
	if params.WorkingType != "" {
		reqParams["workingType"] = string(params.WorkingType)
	}
	if params.NewClientOrderId != "" {
		reqParams["newClientOrderId"] = params.NewClientOrderId
	}

	resp, err := c.signedPost("/fapi/v1/order", reqParams)
	if err != nil {
		return nil, fmt.Errorf("error placing order: %w", err)
	}

	var orderResp OrderResponse
	if err := json.Unmarshal(resp, &orderResp); err != nil {
		return nil, fmt.Errorf("error parsing order response: %w", err)
	}

	return &orderResp, nil
}

// GetAccountInfo retrieves futures account information
func (c *HTTPClient) GetAccountInfo() (*AccountInfo, error) {
	resp, err := c.signedGet("/fapi/v2/account", map[string]string{})
	if err != nil {
		return nil, fmt.Errorf("error fetching account info: %w", err)
	}

	var accountInfo AccountInfo
	if err := json.Unmarshal(resp, &accountInfo); err != nil {
		return nil, fmt.Errorf("error parsing account info: %w", err)
	}

	return &accountInfo, nil
}

// GetExchangeInfo retrieves exchange trading rules and symbol list
func (c *HTTPClient) GetExchangeInfo() (*ExchangeInfo, error) {
	resp, err := c.publicGet("/fapi/v1/exchangeInfo", nil)
	if err != nil {
		return nil, fmt.Errorf("error fetching exchange info: %w", err)
	}

	var info ExchangeInfo
	if err := json.Unmarshal(resp, &info); err != nil {
		return nil, fmt.Errorf("error parsing exchange info: %w", err)
	}

	return &info, nil
}

// ==================== HTTP HELPERS ====================

// buildQueryString builds a query string from params (without signature)
func (c *HTTPClient) buildQueryString(params map[string]string) string {
	query := ""
	for k, v := range params {
		if k != "signature" {
			if query != "" {
				query += "&"
			}
			query += k + "=" + url.QueryEscape(v)
		}
	}
	return query
}

// sign creates an HMAC-SHA256 signature for the given query string
func (c *HTTPClient) sign(query string) string {
	mac := hmac.New(sha256.New, []byte(c.secretKey))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

// signParams builds the query string with signature appended
func (c *HTTPClient) signParams(params map[string]string) string {
	query := c.buildQueryString(params)
	signature := c.sign(query)
	return query + "&signature=" + signature
}

func (c *HTTPClient) publicGet(endpoint string, params map[string]string) ([]byte, error) {
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}

	reqURL := c.baseURL + endpoint
	if len(values) > 0 {
		reqURL += "?" + values.Encode()
	}

	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	return c.doWithRetry(endpoint, func() (*http.Request, error) {
		clone := req.Clone(req.Context())
		return clone, nil
	})
}

// signedGet performs an authenticated GET request with retry logic
func (c *HTTPClient) signedGet(endpoint string, params map[string]string) ([]byte, error) {
	return c.doWithRetry(endpoint, func() (*http.Request, error) {
		// Refresh timestamp for each attempt; recvWindow tolerates clock skew
		params["timestamp"] = strconv.FormatInt(time.Now().UnixMilli(), 10)
		params["recvWindow"] = c.recvWindow
		query := c.signParams(params)

		req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s%s?%s", c.baseURL, endpoint, query), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-MBX-APIKEY", c.apiKey)
		return req, nil
	})
}

// signedPost performs an authenticated POST request with retry logic
func (c *HTTPClient) signedPost(endpoint string, params map[string]string) ([]byte, error) {
	return c.doWithRetry(endpoint, func() (*http.Request, error) {
		if params == nil {
			params = make(map[string]string)
		}
		params["timestamp"] = strconv.FormatInt(time.Now().UnixMilli(), 10)
		params["recvWindow"] = c.recvWindow
		query := c.signParams(params)

		req, err := http.NewRequest(http.MethodPost, c.baseURL+endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.URL.RawQuery = query
		req.Header.Set("X-MBX-APIKEY", c.apiKey)
		return req, nil
	})
}

// doWithRetry executes a request with bounded retries on transient failures.
// Non-retryable non-200 responses surface as *APIError.
func (c *HTTPClient) doWithRetry(endpoint string, build func() (*http.Request, error)) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if !c.limiter.acquire(endpoint) {
			return nil, fmt.Errorf("rate limit: request budget exhausted for %s", endpoint)
		}

		req, err := build()
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if attempt < maxRetries {
				delay := calculateRetryDelay(attempt)
				c.logger.Warn().
					Str("endpoint", endpoint).
					Int("attempt", attempt+1).
					Err(err).
					Dur("retry_in", delay).
					Msg("Request failed, retrying")
				time.Sleep(delay)
				continue
			}
			return nil, err
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		if usedWeight := resp.Header.Get("X-MBX-USED-WEIGHT-1M"); usedWeight != "" {
			if weight, err := strconv.Atoi(usedWeight); err == nil {
				c.limiter.updateUsedWeight(weight)
			}
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = &APIError{StatusCode: resp.StatusCode, Body: string(body)}

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == 418 {
				c.limiter.recordBan(time.Now().Add(time.Minute))
			}

			if isRetryableError(resp.StatusCode, string(body)) && attempt < maxRetries {
				delay := calculateRetryDelay(attempt)
				c.logger.Warn().
					Str("endpoint", endpoint).
					Int("status", resp.StatusCode).
					Int("attempt", attempt+1).
					Dur("retry_in", delay).
					Msg("Request rejected, retrying")
				time.Sleep(delay)
				continue
			}
			return nil, lastErr
		}

		return body, nil
	}

	return nil, lastErr
}

// isRetryableError checks if an error is transient and should be retried
func isRetryableError(statusCode int, body string) bool {
	// Retry on rate limits (429) and server errors (5xx)
	if statusCode == http.StatusTooManyRequests || statusCode >= 500 {
		return true
	}
	// Retry on specific exchange error codes that are transient
	if strings.Contains(body, "-1001") || // DISCONNECTED
		strings.Contains(body, "-1003") || // TOO_MANY_REQUESTS
		strings.Contains(body, "-1016") { // SERVICE_SHUTTING_DOWN
		return true
	}
	return false
}

// calculateRetryDelay returns a delay with exponential backoff and jitter
func calculateRetryDelay(attempt int) time.Duration {
	delay := baseRetryDelay * time.Duration(1<<uint(attempt))
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	jitter := time.Duration(rand.Int63n(int64(delay) / 2))
	return delay + jitter - (delay / 4)
}
