package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SMSClient posts messages to a JSON SMS gateway.
type SMSClient struct {
	apiURL   string
	apiKey   string
	senderID string
	client   *http.Client
}

// NewSMSClient creates an SMS sender for the given gateway.
func NewSMSClient(apiURL, apiKey, senderID string) *SMSClient {
	return &SMSClient{
		apiURL:   apiURL,
		apiKey:   apiKey,
		senderID: senderID,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type smsPayload struct {
	To     string `json:"to"`
	Body   string `json:"body"`
	Sender string `json:"sender,omitempty"`
}

// SendSMS delivers a single text message to an E.164 phone number.
func (c *SMSClient) SendSMS(ctx context.Context, phone, body string) error {
	payload, err := json.Marshal(smsPayload{
		To:     phone,
		Body:   body,
		Sender: c.senderID,
	})
	if err != nil {
		return fmt.Errorf("failed to encode sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms gateway returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
