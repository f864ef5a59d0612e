// Package whatsapp sends messages through the WhatsApp Cloud API and
// builds web chat deep links for the operator console.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"orderdesk_backend/platform/config"
	"orderdesk_backend/platform/logger"
	"orderdesk_backend/platform/phone"
)

type Client struct {
	baseURL       string
	token         string
	phoneNumberID string
	http          *http.Client
	log           *logger.Logger
}

type cloudAPIRequest struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             cloudAPIText `json:"text"`
}

type cloudAPIText struct {
	Body string `json:"body"`
}

// NewClient creates a Cloud API client. Returns nil when no token is
// configured; a nil client silently drops sends so the rest of the
// system works without WhatsApp credentials.
func NewClient(cfg config.WhatsAppConfig, log *logger.Logger) *Client {
	if !cfg.IsWhatsAppEnabled() {
		return nil
	}

	return &Client{
		baseURL:       strings.TrimRight(cfg.GetWhatsAppAPIURL(), "/"),
		token:         cfg.GetWhatsAppAPIToken(),
		phoneNumberID: cfg.GetWhatsAppPhoneNumberID(),
		http:          &http.Client{Timeout: 10 * time.Second},
		log:           log,
	}
}

// SendMessage delivers a text message to the given phone number.
func (c *Client) SendMessage(ctx context.Context, phoneNumber string, message string) error {
	if c == nil {
		return nil
	}

	normalized := strings.TrimPrefix(phone.NormalizeE164(phoneNumber), "+")

	payload := cloudAPIRequest{
		MessagingProduct: "whatsapp",
		To:               normalized,
		Type:             "text",
		Text:             cloudAPIText{Body: message},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("whatsapp api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.log.Info("whatsapp message sent", "phone", normalized)
	return nil
}

// WebLink builds a WhatsApp Web deep link that opens the chat with a
// pre-filled draft, for operators who reply from the browser.
func WebLink(phoneNumber, draft string) string {
	digits := phone.Digits(phoneNumber)
	link := "https://web.whatsapp.com/send?phone=" + digits
	if draft != "" {
		link += "&text=" + url.QueryEscape(draft)
	}
	return link
}
