package email

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestRenderNoAgentsAlert(t *testing.T) {
	alert, err := RenderNoAgentsAlert(NoAgentsAlert{
		Lead:       LeadLine{Name: "Ana", Phone: "11912345678", Message: "Quero visitar"},
		ReceivedAt: time.Date(2025, 3, 10, 17, 30, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alert.Subject != subjectNoAgents {
		t.Fatalf("unexpected subject %q", alert.Subject)
	}
	for _, want := range []string{"Ana", "11912345678", "Quero visitar", "10/03/2025"} {
		if !strings.Contains(alert.Body, want) {
			t.Fatalf("body missing %q:\n%s", want, alert.Body)
		}
	}
}

func TestRenderSweepDigest(t *testing.T) {
	alert, err := RenderSweepDigest(SweepDigest{
		Leads:      []LeadLine{{Name: "Ana", Phone: "1", Message: "a"}, {Name: "Bia", Phone: "2", Message: "b"}},
		MaxAgeMins: 15,
		SweptAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alert.Subject != "2 leads expiraram sem atendimento" {
		t.Fatalf("unexpected subject %q", alert.Subject)
	}
	if !strings.Contains(alert.Body, "- Ana (1): a") || !strings.Contains(alert.Body, "- Bia (2): b") {
		t.Fatalf("digest missing lines:\n%s", alert.Body)
	}
}

type smtpCfg struct{ enabled bool }

func (smtpCfg) GetSMTPHost() string { return "smtp.example.com" }
func (smtpCfg) GetSMTPPort() int { return 587 }
func (smtpCfg) GetSMTPUsername() string { return "" }
func (smtpCfg) GetSMTPPassword() string { return "" }
func (smtpCfg) GetSMTPFrom() string { return "portal@example.com" }
func (smtpCfg) GetAlertEmailTo() string { return "ops@example.com" }
func (c smtpCfg) IsSMTPEnabled() bool { return c.enabled }

func TestNewSMTPSender(t *testing.T) {
	if _, ok := NewSMTPSender(smtpCfg{}).(NoopSender); !ok {
		t.Fatal("expected noop sender when smtp is disabled")
	}
	if err := (NoopSender{}).SendAlert(context.Background(), "s", "b"); err != nil {
		t.Fatalf("noop sender failed: %v", err)
	}

	s, ok := NewSMTPSender(smtpCfg{enabled: true}).(*SMTPSender)
	if !ok {
		t.Fatal("expected smtp sender")
	}
	msg, err := s.message("Assunto", "Corpo")
	if err != nil {
		t.Fatalf("build message: %v", err)
	}
	if got := msg.GetTo(); len(got) != 1 || got[0].Address != "ops@example.com" {
		t.Fatalf("unexpected recipients %v", got)
	}
}
