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

// WhatsAppClient posts templated messages to a WhatsApp Business gateway.
type WhatsAppClient struct {
	apiURL string
	apiKey string
	client *http.Client
}

// NewWhatsAppClient creates a WhatsApp sender for the given gateway.
func NewWhatsAppClient(apiURL, apiKey string) *WhatsAppClient {
	return &WhatsAppClient{
		apiURL: apiURL,
		apiKey: apiKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type whatsappPayload struct {
	To       string   `json:"to"`
	Template string   `json:"template"`
	Params   []string `json:"params,omitempty"`
}

// SendTemplate delivers a pre-approved message template with its parameters.
func (c *WhatsAppClient) SendTemplate(ctx context.Context, phone, template string, params []string) error {
	payload, err := json.Marshal(whatsappPayload{
		To:       phone,
		Template: template,
		Params:   params,
	})
	if err != nil {
		return fmt.Errorf("failed to encode whatsapp payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build whatsapp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("whatsapp gateway returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
