// Package notify is a thin client for the external push-notification gateway.
// Delivery guarantees are the gateway's problem; callers fire and forget.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Enabled reports whether a gateway is configured at all.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

type eventPublishedRequest struct {
	FormEventID uint   `json:"form_event_id"`
	Title       string `json:"title"`
	RoleIDs     []uint `json:"role_ids"`
}

type gatewayResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

// SendEventPublished asks the gateway to push a "new form event" notification
// to users holding any of the given roles.
func (c *Client) SendEventPublished(formEventID uint, title string, roleIDs []uint) error {
	return c.call("/notifications/form-event", eventPublishedRequest{
		FormEventID: formEventID,
		Title:       title,
		RoleIDs:     roleIDs,
	})
}

func (c *Client) call(path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	var gw gatewayResponse
	if err := json.Unmarshal(data, &gw); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if !gw.OK {
		return fmt.Errorf("gateway: %s", gw.Description)
	}
	return nil
}
