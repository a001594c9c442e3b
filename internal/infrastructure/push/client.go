package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/rmaulana/pocketpay/internal/config"
)

// ErrorDeviceNotRegistered is the gateway's classification for a push
// token that is no longer valid and should be deleted from storage.
const ErrorDeviceNotRegistered = "DeviceNotRegistered"

// Message is one push notification addressed to a single device token
type Message struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
	Sound string            `json:"sound,omitempty"`
}

// Ticket is the gateway's per-message delivery receipt
type Ticket struct {
	Status  string `json:"status"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
	Details struct {
		Error string `json:"error,omitempty"`
	} `json:"details,omitempty"`
}

// StaleToken reports whether the ticket indicates the target token is
// no longer registered with the gateway
func (t Ticket) StaleToken() bool {
	return t.Status == "error" && t.Details.Error == ErrorDeviceNotRegistered
}

// Sender is the behavior the notification dispatcher depends on
type Sender interface {
	Send(ctx context.Context, messages []Message) ([]Ticket, error)
}

// Client talks to the Expo push HTTP API
type Client struct {
	httpClient *http.Client
	url        string
	token      string
	batchSize  int
	logger     *zap.Logger
}

// Ensure Client implements Sender
var _ Sender = (*Client)(nil)

// NewClient creates a new push gateway client
func NewClient(cfg config.PushConfig, logger *zap.Logger) *Client {
	batchSize := cfg.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		url:        cfg.URL,
		token:      cfg.AccessToken,
		batchSize:  batchSize,
		logger:     logger,
	}
}

// Send delivers messages in batches and returns one ticket per message,
// in input order. A failed batch contributes error tickets rather than
// aborting the remaining batches.
func (c *Client) Send(ctx context.Context, messages []Message) ([]Ticket, error) {
	tickets := make([]Ticket, 0, len(messages))

	for start := 0; start < len(messages); start += c.batchSize {
		end := start + c.batchSize
		if end > len(messages) {
			end = len(messages)
		}

		batch, err := c.sendBatch(ctx, messages[start:end])
		if err != nil {
			c.logger.Warn("Push batch failed",
				zap.Int("batch_start", start),
				zap.Int("batch_size", end-start),
				zap.Error(err),
			)
			for range messages[start:end] {
				tickets = append(tickets, Ticket{Status: "error", Message: err.Error()})
			}
			continue
		}

		tickets = append(tickets, batch...)
	}

	return tickets, nil
}

func (c *Client) sendBatch(ctx context.Context, batch []Message) ([]Ticket, error) {
	body, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal push batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("push request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("push gateway returned status %d", resp.StatusCode)
	}

	var parsed struct {
		Data []Ticket `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode push response: %w", err)
	}

	if len(parsed.Data) != len(batch) {
		return nil, fmt.Errorf("push gateway returned %d tickets for %d messages", len(parsed.Data), len(batch))
	}

	return parsed.Data, nil
}

// IsValidToken reports whether a token is syntactically a push token
// the gateway will accept
func IsValidToken(token string) bool {
	return strings.HasPrefix(token, "ExponentPushToken[") && strings.HasSuffix(token, "]") &&
		len(token) > len("ExponentPushToken[]")
}
