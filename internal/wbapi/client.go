// Package wbapi implements the client for the Wildberries box-tariffs API.
package wbapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"wb-tariff-sync/internal/domain"
	"wb-tariff-sync/internal/normalize"
)

// Default configuration values.
const (
	DefaultTimeout       = 30 * time.Second
	DefaultHealthTimeout = 10 * time.Second
)

// Client fetches box tariffs over HTTP. One outbound GET per FetchTariffs
// call, always for the current calendar date.
type Client struct {
	apiKey        string
	baseURL       string
	endpoint      string
	client        *http.Client
	healthTimeout time.Duration
	now           func() time.Time
	log           *zap.Logger
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets the HTTP client timeout for tariff fetches.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithHealthTimeout sets the shorter timeout used by HealthCheck.
func WithHealthTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.healthTimeout = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithClock overrides the clock used to compute "today". Tests only.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a tariff API client.
func NewClient(apiKey, baseURL, endpoint string, log *zap.Logger, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:        apiKey,
		baseURL:       baseURL,
		endpoint:      endpoint,
		client:        &http.Client{Timeout: DefaultTimeout},
		healthTimeout: DefaultHealthTimeout,
		now:           time.Now,
		log:           log.Named("wbapi"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// flexFloat decodes a JSON number or a (possibly comma-decimal) JSON string.
// The upstream API switches between the two representations.
type flexFloat struct {
	raw string
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f.raw = s
		return nil
	}
	f.raw = string(b)
	return nil
}

// Value normalizes the raw text to a float64, defaulting to 0.
func (f flexFloat) Value() float64 {
	if f.raw == "null" {
		return 0
	}
	return normalize.Numeric(f.raw)
}

// rawWarehouse mirrors one warehouseList entry on the wire.
type rawWarehouse struct {
	WarehouseID               int64     `json:"warehouseID"`
	WarehouseName             string    `json:"warehouseName"`
	BoxDeliveryAndStorageExpr string    `json:"boxDeliveryAndStorageExpr"`
	BoxDeliveryBase           flexFloat `json:"boxDeliveryBase"`
	BoxDeliveryLiter          flexFloat `json:"boxDeliveryLiter"`
	BoxStorageBase            flexFloat `json:"boxStorageBase"`
	BoxStorageLiter           flexFloat `json:"boxStorageLiter"`
}

// tariffResponse mirrors the response envelope. Pointers keep shape
// validation explicit: a missing level means ErrFormat.
type tariffResponse struct {
	Response *struct {
		Data *struct {
			DtNextBox     string         `json:"dtNextBox"`
			DtTillMax     string         `json:"dtTillMax"`
			WarehouseList []rawWarehouse `json:"warehouseList"`
		} `json:"data"`
	} `json:"response"`
}

// FetchTariffs requests the current date's tariff set and maps each
// warehouse entry into a canonical TariffRecord. The envelope-level
// dtNextBox/dtTillMax timestamps are copied onto every record in the batch.
func (c *Client) FetchTariffs(ctx context.Context) ([]*domain.TariffRecord, error) {
	today := normalize.Date(c.now())

	c.log.Info("fetching tariffs", zap.String("date", normalize.DateString(today)))

	body, status, err := c.get(ctx, today, 0)
	if err != nil {
		return nil, fmt.Errorf("fetch tariffs: %w: %v", ErrNetwork, err)
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("fetch tariffs: status %d: %w", status, ErrNetwork)
	}

	var payload tariffResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("fetch tariffs: decode body: %w", ErrFormat)
	}
	if payload.Response == nil || payload.Response.Data == nil {
		return nil, fmt.Errorf("fetch tariffs: missing response.data: %w", ErrFormat)
	}

	data := payload.Response.Data
	dtNextBox := normalize.Timestamp(data.DtNextBox)
	dtTillMax := normalize.Timestamp(data.DtTillMax)

	records := make([]*domain.TariffRecord, 0, len(data.WarehouseList))
	for _, w := range data.WarehouseList {
		expr := w.BoxDeliveryAndStorageExpr
		rec := &domain.TariffRecord{
			Date:             today,
			WarehouseID:      w.WarehouseID,
			WarehouseName:    w.WarehouseName,
			BoxDeliveryBase:  w.BoxDeliveryBase.Value(),
			BoxDeliveryLiter: w.BoxDeliveryLiter.Value(),
			BoxStorageBase:   w.BoxStorageBase.Value(),
			BoxStorageLiter:  w.BoxStorageLiter.Value(),
			DtNextBox:        dtNextBox,
			DtTillMax:        dtTillMax,
		}
		if expr != "" {
			rec.BoxDeliveryAndStorageExpr = &expr
		}
		records = append(records, rec)
	}

	c.log.Info("fetched tariffs", zap.Int("count", len(records)))
	return records, nil
}

// HealthCheck performs a lightweight request with a short timeout and
// reports reachability as a boolean. Never returns an error; it is a
// gating signal, not a guarantee.
func (c *Client) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	_, status, err := c.get(ctx, normalize.Date(c.now()), c.healthTimeout)
	if err != nil {
		c.log.Warn("health check failed", zap.Error(err))
		return false
	}
	if status != http.StatusOK {
		c.log.Warn("health check failed", zap.Int("status", status))
		return false
	}
	return true
}

// get issues the tariff GET request and returns the body and status code.
// A non-zero timeout overrides the client default for this request.
func (c *Client) get(ctx context.Context, date time.Time, timeout time.Duration) ([]byte, int, error) {
	u, err := url.Parse(c.baseURL + c.endpoint)
	if err != nil {
		return nil, 0, fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	q.Set("date", normalize.DateString(date))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	client := c.client
	if timeout > 0 && timeout < client.Timeout {
		shorter := *client
		shorter.Timeout = timeout
		client = &shorter
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}
