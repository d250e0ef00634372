package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"realty_portal_backend/platform/logger"
)

type waCfg struct{ url string }

func (c waCfg) GetWhatsAppURL() string { return c.url }
func (waCfg) GetWhatsAppKey() string { return "user:pass" }
func (waCfg) GetWhatsAppDeviceID() string { return "device-1" }

func TestSendMessage(t *testing.T) {
	var got sendMessageRequest
	var auth, device string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/send/message" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		device = r.Header.Get("X-Device-Id")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":"SUCCESS","results":{"message_id":"3EB0"}}`))
	}))
	defer srv.Close()

	c := NewClient(waCfg{url: srv.URL + "/"}, logger.Nop())
	if err := c.SendMessage(context.Background(), "11912345678", "Novo lead"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Phone != "5511912345678" {
		t.Fatalf("expected E.164 digits, got %q", got.Phone)
	}
	if got.Message != "Novo lead" {
		t.Fatalf("unexpected message %q", got.Message)
	}
	if auth != "Basic dXNlcjpwYXNz" || device != "device-1" {
		t.Fatalf("unexpected headers auth=%q device=%q", auth, device)
	}
}

func TestSendMessageGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "device offline", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(waCfg{url: srv.URL}, logger.Nop())
	err := c.SendMessage(context.Background(), "11912345678", "oi")
	var gw *GatewayError
	if !errors.As(err, &gw) {
		t.Fatalf("expected *GatewayError, got %v", err)
	}
	if gw.StatusCode != http.StatusServiceUnavailable || gw.Body != "device offline" {
		t.Fatalf("unexpected gateway error %+v", gw)
	}
	if !gw.Temporary() {
		t.Fatal("503 should be temporary")
	}
}

func TestGatewayErrorTemporary(t *testing.T) {
	tests := map[int]bool{
		http.StatusBadRequest:          false,
		http.StatusUnauthorized:        false,
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusBadGateway:          true,
	}
	for code, want := range tests {
		if got := (&GatewayError{StatusCode: code}).Temporary(); got != want {
			t.Fatalf("Temporary(%d) = %v, want %v", code, got, want)
		}
	}
}

func TestSendRejectsUnroutableRecipient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(waCfg{url: srv.URL}, logger.Nop())
	err := c.Send(context.Background(), Message{To: "12", Text: "oi"})
	if !errors.Is(err, ErrUnroutable) {
		t.Fatalf("expected ErrUnroutable, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatal("gateway must not be called for an unroutable recipient")
	}
}

func TestSendStopsWhenContextDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(waCfg{url: srv.URL}, logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Send(ctx, Message{To: "11912345678", Text: "oi"}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestNilClientIsNoop(t *testing.T) {
	c := NewClient(waCfg{}, logger.Nop())
	if c.Enabled() {
		t.Fatal("expected disabled client without URL")
	}
	if err := c.SendMessage(context.Background(), "11912345678", "oi"); err != nil {
		t.Fatalf("nil client should not fail: %v", err)
	}
}
