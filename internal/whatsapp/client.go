// Package whatsapp sends text messages through a GOWA (go-whatsapp-web-multidevice)
// gateway. Agents receive lead broadcasts and claim results through it.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"realty_portal_backend/platform/config"
	"realty_portal_backend/platform/logger"
	"realty_portal_backend/platform/phone"
)

const (
	sendTimeout = 10 * time.Second

	// The gateway drives a single phone session; bursts get the device
	// flagged, so sends are paced per client.
	sendsPerSecond = 5
	sendBurst      = 5

	maxErrorBody = 4096
)

// ErrUnroutable is returned for recipients that are not valid phone numbers.
var ErrUnroutable = errors.New("whatsapp recipient is not a valid phone number")

// Message is one text for one recipient. To may omit the country code.
type Message struct {
	To   string
	Text string
}

// GatewayError is a non-2xx answer from the gateway.
type GatewayError struct {
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("whatsapp gateway returned %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether sending again later may succeed.
func (e *GatewayError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

type Client struct {
	baseURL  string
	apiKey   string
	deviceID string
	http     *http.Client
	limiter  *rate.Limiter
	log      *logger.Logger
}

type sendMessageRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type sendMessageResponse struct {
	Code    string `json:"code"`
	Results struct {
		MessageID string `json:"message_id"`
	} `json:"results"`
}

// NewClient returns nil when no gateway URL is configured. A nil *Client is
// a valid no-op sender.
func NewClient(cfg config.WhatsAppConfig, log *logger.Logger) *Client {
	if cfg.GetWhatsAppURL() == "" {
		return nil
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.GetWhatsAppURL(), "/"),
		apiKey:   cfg.GetWhatsAppKey(),
		deviceID: cfg.GetWhatsAppDeviceID(),
		http:     &http.Client{Timeout: sendTimeout},
		limiter:  rate.NewLimiter(rate.Limit(sendsPerSecond), sendBurst),
		log:      log,
	}
}

// Enabled reports whether messages are actually delivered.
func (c *Client) Enabled() bool {
	return c != nil
}

// SendMessage delivers text to phoneNumber.
func (c *Client) SendMessage(ctx context.Context, phoneNumber, text string) error {
	return c.Send(ctx, Message{To: phoneNumber, Text: text})
}

// Send paces and delivers msg. Gateway refusals come back as *GatewayError.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if c == nil {
		return nil
	}

	to, err := recipient(msg.To)
	if err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("whatsapp send to %s: %w", to, err)
	}

	body, err := json.Marshal(sendMessageRequest{Phone: to, Message: msg.Text})
	if err != nil {
		return fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send/message", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", basicAuth(c.apiKey))
	}
	if c.deviceID != "" {
		req.Header.Set("X-Device-Id", c.deviceID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &GatewayError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	var out sendMessageResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&out)
	c.log.Debug("whatsapp message sent", "phone", to, "message_id", out.Results.MessageID)
	return nil
}

// recipient turns a stored phone into the bare E.164 digits the gateway
// expects.
func recipient(raw string) (string, error) {
	e164 := phone.NormalizeE164(raw)
	if !strings.HasPrefix(e164, "+") {
		return "", fmt.Errorf("%w: %q", ErrUnroutable, raw)
	}
	return strings.TrimPrefix(e164, "+"), nil
}

// basicAuth accepts either "user:pass" or a ready "Basic ..." value.
func basicAuth(apiKey string) string {
	if strings.HasPrefix(strings.ToLower(apiKey), "basic ") {
		return apiKey
	}
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(apiKey))
}
