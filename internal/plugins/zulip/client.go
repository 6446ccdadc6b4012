// Package zulip notifies a Zulip chat server about project and backlog
// changes. Each notification is a single bounded request; failures are
// reported to the caller and never retried.
package zulip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/timeout"

	"github.com/persistorai/backlog/internal/metrics"
)

const (
	messagesPath      = "/api/v1/messages"
	subscriptionsPath = "/api/v1/users/me/subscriptions"

	maxResponseBytes = 1 << 20
)

// ErrRejected is returned when the server answers without result "success".
var ErrRejected = errors.New("zulip rejected request")

// Config holds the bot credentials and server location.
type Config struct {
	BaseURL string
	Email   string
	APIKey  string
	Timeout time.Duration
}

// Client is a minimal Zulip REST client authenticated as a bot.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a Client. httpClient may be nil.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{cfg: cfg, http: httpClient}
}

type apiResponse struct {
	Result string `json:"result"`
	Msg    string `json:"msg"`
	ID     int64  `json:"id"`
}

// SendStreamMessage posts content to stream/topic and returns the message id.
func (c *Client) SendStreamMessage(ctx context.Context, stream, topic, content string) (int64, error) {
	form := url.Values{
		"type":    {"stream"},
		"to":      {stream},
		"topic":   {topic},
		"content": {content},
	}

	resp, err := c.do(ctx, "send_message", http.MethodPost, messagesPath, form)
	if err != nil {
		return 0, err
	}

	return resp.ID, nil
}

// UpdateMessage replaces the topic and content of message id in place.
func (c *Client) UpdateMessage(ctx context.Context, id int64, topic, content string) error {
	form := url.Values{
		"topic":                           {topic},
		"propagate_mode":                  {"change_one"},
		"send_notification_to_old_thread": {"true"},
		"send_notification_to_new_thread": {"true"},
		"content":                         {content},
	}

	_, err := c.do(ctx, "update_message", http.MethodPatch, messagesPath+"/"+strconv.FormatInt(id, 10), form)

	return err
}

// StreamSpec describes a stream to create.
type StreamSpec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateStream subscribes principals to a new invite-only stream, creating it.
func (c *Client) CreateStream(ctx context.Context, stream StreamSpec, principals []string) error {
	subs, err := json.Marshal([]StreamSpec{stream})
	if err != nil {
		return fmt.Errorf("encoding subscriptions: %w", err)
	}

	if principals == nil {
		principals = []string{}
	}

	who, err := json.Marshal(principals)
	if err != nil {
		return fmt.Errorf("encoding principals: %w", err)
	}

	form := url.Values{
		"subscriptions":                 {string(subs)},
		"principals":                    {string(who)},
		"invite_only":                   {"true"},
		"history_public_to_subscribers": {"true"},
	}

	_, err = c.do(ctx, "create_stream", http.MethodPost, subscriptionsPath, form)

	return err
}

// do sends one form-encoded request within the configured timeout.
func (c *Client) do(ctx context.Context, op, method, path string, form url.Values) (*apiResponse, error) {
	t := timeout.New[*apiResponse](timeout.Config{DefaultTimeout: c.cfg.Timeout})

	resp, err := t.Execute(ctx, c.cfg.Timeout, func(ctx context.Context) (*apiResponse, error) {
		return c.roundTrip(ctx, method, path, form)
	})

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.NotifierRequests.WithLabelValues(op, outcome).Inc()

	if err != nil {
		return nil, fmt.Errorf("zulip %s: %w", op, err)
	}

	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, form url.Values) (*apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	req.SetBasicAuth(c.cfg.Email, c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var out apiResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("status %d: decoding response: %w", res.StatusCode, err)
	}

	if res.StatusCode != http.StatusOK || out.Result != "success" {
		return nil, fmt.Errorf("%w: status %d: %s", ErrRejected, res.StatusCode, out.Msg)
	}

	return &out, nil
}
