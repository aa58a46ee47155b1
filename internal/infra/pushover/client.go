// Package pushover sends operator alerts through the Pushover API.
package pushover

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultEndpoint = "https://api.pushover.net/1/messages.json"
	alertTitle      = "Voice Relay"

	// DefaultCooldown is the minimum gap between two alerts.
	DefaultCooldown = time.Minute
)

// Client posts alerts, collapsing bursts: failures inside the cooldown are
// counted and reported with the next alert that goes out.
type Client struct {
	token      string
	userKey    string
	endpoint   string
	cooldown   time.Duration
	httpClient *http.Client
	now        func() time.Time

	mu         sync.Mutex
	lastSent   time.Time
	suppressed int
}

func NewClient(token, userKey string) *Client {
	return NewClientWithURL(token, userKey, defaultEndpoint)
}

func NewClientWithURL(token, userKey, endpoint string) *Client {
	return &Client{
		token:      token,
		userKey:    userKey,
		endpoint:   endpoint,
		cooldown:   DefaultCooldown,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
}

// WithCooldown changes the minimum gap between alerts; 0 sends every alert.
func (c *Client) WithCooldown(d time.Duration) *Client {
	c.cooldown = d
	return c
}

func (c *Client) Notify(ctx context.Context, message string) error {
	if c.token == "" || c.userKey == "" {
		return nil
	}

	text, ok := c.admit(message)
	if !ok {
		return nil
	}

	form := url.Values{
		"token":   {c.token},
		"user":    {c.userKey},
		"title":   {alertTitle},
		"message": {text},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pushover error: %s", resp.Status)
	}
	return nil
}

// admit decides whether message goes out now and appends the count of
// alerts swallowed since the last one.
func (c *Client) admit(message string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.cooldown > 0 && !c.lastSent.IsZero() && now.Sub(c.lastSent) < c.cooldown {
		c.suppressed++
		return "", false
	}

	if c.suppressed > 0 {
		message = fmt.Sprintf("%s (+%d more since last alert)", message, c.suppressed)
	}
	c.lastSent = now
	c.suppressed = 0
	return message, true
}
