// Package notification turns lead and financing events into outbound
// messages: WhatsApp texts for agents and e-mail alerts for operators.
// Domain modules publish events and never talk to providers directly.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"realty_portal_backend/internal/email"
	"realty_portal_backend/internal/events"
	"realty_portal_backend/internal/whatsapp"
	"realty_portal_backend/platform/logger"
	"realty_portal_backend/platform/metrics"
)

const (
	channelWhatsApp = "whatsapp"
	channelEmail    = "email"

	defaultFanOutLimit = 5
)

// WhatsAppSender sends WhatsApp messages.
type WhatsAppSender interface {
	SendMessage(ctx context.Context, phoneNumber, message string) error
}

// Module handles all notification-related event subscriptions.
type Module struct {
	whatsapp     WhatsAppSender
	mail         email.Sender
	metrics      *metrics.Metrics
	log          *logger.Logger
	claimKeyword string
	fanOutLimit  int
}

// New creates the notification module. claimKeyword is quoted in broadcast
// messages so agents know what to reply.
func New(wa WhatsAppSender, mail email.Sender, m *metrics.Metrics, log *logger.Logger, claimKeyword string) *Module {
	if mail == nil {
		mail = email.NoopSender{}
	}
	return &Module{
		whatsapp:     wa,
		mail:         mail,
		metrics:      m,
		log:          log,
		claimKeyword: strings.ToUpper(claimKeyword),
		fanOutLimit:  defaultFanOutLimit,
	}
}

func (m *Module) Name() string {
	return "notification"
}

// RegisterHandlers subscribes the module to the events it reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadReceived{}.EventName(), m)
	bus.Subscribe(events.LeadAssumed{}.EventName(), m)
	bus.Subscribe(events.LeadExpired{}.EventName(), m)
	bus.Subscribe(events.LeadsExpiredBySweep{}.EventName(), m)
	bus.Subscribe(events.FinancingCreated{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadReceived:
		return m.handleLeadReceived(ctx, e)
	case events.LeadAssumed:
		return m.handleLeadAssumed(ctx, e)
	case events.LeadExpired:
		return m.handleLeadExpired(ctx, e)
	case events.LeadsExpiredBySweep:
		return m.handleSweep(ctx, e)
	case events.FinancingCreated:
		return m.handleFinancingCreated(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleLeadReceived(ctx context.Context, e events.LeadReceived) error {
	msg := leadBroadcastMessage(e.Lead, m.claimKeyword)
	return m.fanOut(ctx, e.Agents, func(events.AgentContact) string { return msg })
}

func (m *Module) handleLeadAssumed(ctx context.Context, e events.LeadAssumed) error {
	var errs []error
	if err := m.sendWhatsApp(ctx, e.Agent.Phone, winnerMessage(e.Lead)); err != nil {
		errs = append(errs, err)
	}
	taken := takenMessage(e.Lead, e.Agent.Name)
	if err := m.fanOut(ctx, e.OtherAgents, func(events.AgentContact) string { return taken }); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (m *Module) handleLeadExpired(ctx context.Context, e events.LeadExpired) error {
	if e.Reason != events.ExpiryReasonNoAgents {
		return nil
	}
	alert, err := email.RenderNoAgentsAlert(email.NoAgentsAlert{
		Lead:       leadLine(e.Lead),
		ReceivedAt: e.OccurredAt(),
	})
	if err != nil {
		return err
	}
	return m.sendAlert(ctx, alert)
}

func (m *Module) handleSweep(ctx context.Context, e events.LeadsExpiredBySweep) error {
	if len(e.Leads) == 0 {
		return nil
	}
	lines := make([]email.LeadLine, 0, len(e.Leads))
	for _, l := range e.Leads {
		lines = append(lines, leadLine(l))
	}
	alert, err := email.RenderSweepDigest(email.SweepDigest{
		Leads:      lines,
		MaxAgeMins: e.MaxAgeMins,
		SweptAt:    e.OccurredAt(),
	})
	if err != nil {
		return err
	}
	return m.sendAlert(ctx, alert)
}

func (m *Module) handleFinancingCreated(ctx context.Context, e events.FinancingCreated) error {
	who := "cliente anônimo"
	switch {
	case e.UserID != nil:
		who = "usuário " + e.UserID.String()
	case e.ClientName != "":
		who = fmt.Sprintf("%s (%s)", e.ClientName, e.ClientPhone)
	}
	alert, err := email.RenderFinancingAlert(email.FinancingAlert{
		FinancingID: e.FinancingID.String(),
		PropertyID:  e.PropertyID.String(),
		Requester:   who,
		System:      e.System,
		Status:      e.Status,
	})
	if err != nil {
		return err
	}
	return m.sendAlert(ctx, alert)
}

// fanOut sends one message per agent with bounded concurrency. A failed
// send does not stop the others; all failures are joined.
func (m *Module) fanOut(ctx context.Context, agents []events.AgentContact, message func(events.AgentContact) string) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(m.fanOutLimit)

	for _, agent := range agents {
		g.Go(func() error {
			if err := m.sendWhatsApp(ctx, agent.Phone, message(agent)); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("notify agent %s: %w", agent.ID, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (m *Module) sendWhatsApp(ctx context.Context, phoneNumber, message string) error {
	if m.whatsapp == nil || phoneNumber == "" {
		return nil
	}
	err := m.whatsapp.SendMessage(ctx, phoneNumber, message)
	if retryable(err) {
		err = m.whatsapp.SendMessage(ctx, phoneNumber, message)
	}
	m.metrics.RecordNotification(channelWhatsApp, err)
	if err != nil {
		m.log.WithContext(ctx).Warn("whatsapp send failed", slog.String("error", err.Error()))
	}
	return err
}

// retryable reports gateway refusals worth one immediate resend.
func retryable(err error) bool {
	var gw *whatsapp.GatewayError
	return errors.As(err, &gw) && gw.Temporary()
}

func (m *Module) sendAlert(ctx context.Context, alert email.Alert) error {
	err := m.mail.SendAlert(ctx, alert.Subject, alert.Body)
	m.metrics.RecordNotification(channelEmail, err)
	if err != nil {
		m.log.WithContext(ctx).Warn("alert email failed", slog.String("subject", alert.Subject), slog.String("error", err.Error()))
	}
	return err
}

func leadLine(l events.LeadSnapshot) email.LeadLine {
	return email.LeadLine{Name: l.Name, Phone: l.Phone, Message: l.Message}
}
