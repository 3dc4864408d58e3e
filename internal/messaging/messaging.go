// Package messaging talks to the outbound-messaging proxy. The proxy resolves
// the named service to a credential server-side; this client never holds one.
// Sends are fire-and-forget from the board's point of view: a failed send is
// logged, never fails the staff action that triggered it.
package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Messenger interface {
	SendText(ctx context.Context, subscriberID, text string) error
	SetCustomField(ctx context.Context, subscriberID, field, value string) error
	TriggerFlow(ctx context.Context, subscriberID, flowID string) error
}

type Client struct {
	baseURL string
	service string
	http    *http.Client
}

func NewClient(baseURL, service string) *Client {
	return &Client{
		baseURL: baseURL,
		service: service,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type proxyRequest struct {
	Service      string `json:"service"`
	SubscriberID string `json:"subscriber_id"`
	Action       string `json:"action"`
	Text         string `json:"text,omitempty"`
	Field        string `json:"field,omitempty"`
	Value        string `json:"value,omitempty"`
	FlowID       string `json:"flow_id,omitempty"`
}

type proxyResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (c *Client) SendText(ctx context.Context, subscriberID, text string) error {
	return c.post(ctx, proxyRequest{
		Service:      c.service,
		SubscriberID: subscriberID,
		Action:       "send_text",
		Text:         text,
	})
}

func (c *Client) SetCustomField(ctx context.Context, subscriberID, field, value string) error {
	return c.post(ctx, proxyRequest{
		Service:      c.service,
		SubscriberID: subscriberID,
		Action:       "set_custom_field",
		Field:        field,
		Value:        value,
	})
}

func (c *Client) TriggerFlow(ctx context.Context, subscriberID, flowID string) error {
	return c.post(ctx, proxyRequest{
		Service:      c.service,
		SubscriberID: subscriberID,
		Action:       "trigger_flow",
		FlowID:       flowID,
	})
}

func (c *Client) post(ctx context.Context, payload proxyRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/message", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("messaging proxy status %d", resp.StatusCode)
	}

	var parsed proxyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("messaging proxy response: %w", err)
	}
	if !parsed.Success {
		return fmt.Errorf("messaging proxy rejected send: %s", parsed.Error)
	}
	return nil
}
