package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hance08/keasync/internal/config"
	"github.com/hance08/keasync/internal/constants"
)

const maxResponseBytes = 16 << 20

// HTTPClient implements FeedClient for the dual-stream protocol: one GET for
// transactions and changes, one POST to acknowledge both checkpoints.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

var _ FeedClient = (*HTTPClient)(nil)

// NewHTTPClient validates the billing settings before any request is made.
// A nil httpClient gets one bounded by cfg.Timeout.
func NewHTTPClient(cfg config.BillingConfig, httpClient *http.Client) (*HTTPClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("%w: invalid billing.base_url: %w", ErrConfig, err)
	}

	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = constants.DefaultBillingTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &HTTPClient{
		baseURL: strings.TrimSpace(cfg.BaseURL),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		http:    httpClient,
	}, nil
}

func (c *HTTPClient) Fetch(ctx context.Context, req FetchRequest) (*FeedPage, error) {
	const op = "fetch"

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid billing.base_url: %w", ErrConfig, err)
	}
	limit := config.ClampLimit(req.Limit)
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	q.Set("changes_limit", strconv.Itoa(limit))
	if req.ChangesSince != nil {
		q.Set("changes_since", strconv.FormatInt(*req.ChangesSince, 10))
	}
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build fetch request: %w", err)
	}

	body, err := c.do(op, httpReq)
	if err != nil {
		return nil, err
	}

	var resp feedResponse
	if err := decodeObject(op, body, &resp, "transaction_events", "changes"); err != nil {
		return nil, err
	}

	page := &FeedPage{
		TransactionEvents: resp.TransactionEvents,
		Changes:           resp.Changes,
		Snapshots:         resp.Transactions,
	}
	cursors := []struct {
		field string
		raw   json.RawMessage
		dst   **int64
	}{
		{"transactions_checkpoint_id", resp.TransactionsCheckpoint, &page.TransactionsCheckpoint},
		{"last_confirmed_transaction_id", resp.TransactionsConfirmed, &page.TransactionsConfirmed},
		{"changes_checkpoint_id", resp.ChangesCheckpoint, &page.ChangesCheckpoint},
		{"last_confirmed_change_id", resp.ChangesConfirmed, &page.ChangesConfirmed},
	}
	for _, cur := range cursors {
		v, err := ParseOptionalID(cur.field, cur.raw)
		if err != nil {
			return nil, &GatewayError{Op: op, Kind: GatewayInvalidShape, Err: err}
		}
		*cur.dst = v
	}

	return page, nil
}

// Acknowledge confirms processed checkpoints. It makes no request when both
// cursors are nil.
func (c *HTTPClient) Acknowledge(ctx context.Context, req AckRequest) (*AckResult, error) {
	const op = "acknowledge"

	if req.IsEmpty() {
		return &AckResult{}, nil
	}

	payload, err := json.Marshal(ackBody{
		MovementsCheckpointID: req.TransactionsCursor,
		ChangesCheckpointID:   req.ChangesCursor,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode acknowledgment: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build acknowledgment request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	body, err := c.do(op, httpReq)
	if err != nil {
		return nil, err
	}

	result := &AckResult{}
	if len(bytes.TrimSpace(body)) == 0 {
		return result, nil
	}

	var resp ackResponse
	if err := decodeObject(op, body, &resp); err != nil {
		return nil, err
	}

	if result.LastTransactionID, err = ParseOptionalID("last_transaction_id", resp.LastTransactionID); err != nil {
		return nil, &GatewayError{Op: op, Kind: GatewayInvalidShape, Err: err}
	}
	if result.LastChangeID, err = ParseOptionalID("last_change_id", resp.LastChangeID); err != nil {
		return nil, &GatewayError{Op: op, Kind: GatewayInvalidShape, Err: err}
	}
	result.TransactionsUpdatedAt = ParseSyncedAt(resp.TransactionsUpdatedAt)
	result.ChangesUpdatedAt = ParseSyncedAt(resp.ChangesUpdatedAt)

	return result, nil
}

func (c *HTTPClient) do(op string, req *http.Request) ([]byte, error) {
	req.Header.Set(constants.BillingAPIKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ConnectivityError{Op: op, URL: redactURL(req.URL), Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &ConnectivityError{Op: op, URL: redactURL(req.URL), Err: fmt.Errorf("reading response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return nil, &GatewayError{Op: op, Kind: GatewayForbidden, StatusCode: resp.StatusCode, Message: remoteMessage(body)}
	case resp.StatusCode == http.StatusNotFound:
		return nil, &GatewayError{Op: op, Kind: GatewayNotFound, StatusCode: resp.StatusCode, Message: remoteMessage(body)}
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, &GatewayError{Op: op, Kind: GatewayUpstream, StatusCode: resp.StatusCode, Message: remoteMessage(body)}
	}

	return body, nil
}

// decodeObject rejects anything but a JSON object that carries the required
// keys with the expected field types.
func decodeObject(op string, body []byte, dst any, required ...string) error {
	var probe any
	if err := json.Unmarshal(body, &probe); err != nil {
		return &GatewayError{Op: op, Kind: GatewayInvalidJSON, Err: err}
	}
	obj, ok := probe.(map[string]any)
	if !ok {
		return &GatewayError{Op: op, Kind: GatewayInvalidShape, Err: errors.New("expected a JSON object")}
	}
	for _, key := range required {
		if _, ok := obj[key]; !ok {
			return &GatewayError{Op: op, Kind: GatewayInvalidShape, Err: fmt.Errorf("missing %q", key)}
		}
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &GatewayError{Op: op, Kind: GatewayInvalidShape, Err: err}
	}
	return nil
}

// remoteMessage extracts the error text the billing service put in its body.
func remoteMessage(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"detail", "message", "error"} {
		if s, ok := payload[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	clean := *u
	clean.RawQuery = ""
	clean.User = nil
	return clean.String()
}
