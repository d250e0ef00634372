package notification

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realty_portal_backend/internal/events"
	"realty_portal_backend/internal/whatsapp"
	"realty_portal_backend/platform/logger"
	"realty_portal_backend/platform/metrics"
)

type sentMessage struct {
	phone   string
	message string
}

type fakeWhatsApp struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[string]bool
	// refusals answers the next n sends to a phone with a gateway status.
	refusals map[string][]int
}

func (f *fakeWhatsApp) SendMessage(_ context.Context, phoneNumber, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[phoneNumber] {
		return errors.New("device offline")
	}
	if codes := f.refusals[phoneNumber]; len(codes) > 0 {
		f.refusals[phoneNumber] = codes[1:]
		return &whatsapp.GatewayError{StatusCode: codes[0], Body: "refused"}
	}
	f.sent = append(f.sent, sentMessage{phone: phoneNumber, message: message})
	return nil
}

func (f *fakeWhatsApp) phones() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, s := range f.sent {
		out = append(out, s.phone)
	}
	return out
}

type fakeMail struct {
	subjects []string
	bodies   []string
}

func (f *fakeMail) SendAlert(_ context.Context, subject, body string) error {
	f.subjects = append(f.subjects, subject)
	f.bodies = append(f.bodies, body)
	return nil
}

func newTestModule() (*Module, *fakeWhatsApp, *fakeMail, *metrics.Metrics) {
	wa := &fakeWhatsApp{failFor: map[string]bool{}, refusals: map[string][]int{}}
	mail := &fakeMail{}
	m := metrics.NewNop()
	return New(wa, mail, m, logger.Nop(), "assumir"), wa, mail, m
}

func lead() events.LeadSnapshot {
	return events.LeadSnapshot{ID: uuid.New(), Name: "Ana", Phone: "11912345678", Message: "Quero visitar", AIReply: "Olá Ana!"}
}

func agents(phones ...string) []events.AgentContact {
	out := make([]events.AgentContact, 0, len(phones))
	for i, p := range phones {
		out = append(out, events.AgentContact{ID: uuid.New(), Name: "Agent" + string(rune('A'+i)), Phone: p})
	}
	return out
}

func TestLeadReceivedBroadcastsToEveryAgent(t *testing.T) {
	mod, wa, _, m := newTestModule()
	l := lead()

	err := mod.Handle(context.Background(), events.LeadReceived{Lead: l, Agents: agents("11900000001", "11900000002", "11900000003")})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"11900000001", "11900000002", "11900000003"}, wa.phones())
	for _, s := range wa.sent {
		assert.Contains(t, s.message, "ASSUMIR")
		assert.Contains(t, s.message, l.ID.String())
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(m.NotificationsSent.WithLabelValues(channelWhatsApp, "sent")))
}

func TestLeadReceivedContinuesPastFailures(t *testing.T) {
	mod, wa, _, m := newTestModule()
	wa.failFor["11900000002"] = true

	err := mod.Handle(context.Background(), events.LeadReceived{Lead: lead(), Agents: agents("11900000001", "11900000002", "11900000003")})
	require.Error(t, err)
	assert.Len(t, wa.sent, 2)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsSent.WithLabelValues(channelWhatsApp, "failed")))
}

func TestTemporaryGatewayRefusalIsResentOnce(t *testing.T) {
	mod, wa, _, m := newTestModule()
	wa.refusals["11900000001"] = []int{503}
	wa.refusals["11900000002"] = []int{429, 429}
	wa.refusals["11900000003"] = []int{400}

	err := mod.Handle(context.Background(), events.LeadReceived{Lead: lead(), Agents: agents("11900000001", "11900000002", "11900000003")})
	require.Error(t, err)

	assert.Equal(t, []string{"11900000001"}, wa.phones())
	assert.Empty(t, wa.refusals["11900000002"])
	assert.Empty(t, wa.refusals["11900000003"])
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsSent.WithLabelValues(channelWhatsApp, "sent")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.NotificationsSent.WithLabelValues(channelWhatsApp, "failed")))
}

func TestLeadAssumedNotifiesWinnerAndOthers(t *testing.T) {
	mod, wa, _, _ := newTestModule()
	winner := events.AgentContact{ID: uuid.New(), Name: "Bruno", Phone: "11900000001"}

	err := mod.Handle(context.Background(), events.LeadAssumed{
		Lead:        lead(),
		Agent:       winner,
		OtherAgents: agents("11900000002", "11900000003"),
	})
	require.NoError(t, err)
	require.Len(t, wa.sent, 3)

	for _, s := range wa.sent {
		if s.phone == winner.Phone {
			assert.Contains(t, s.message, "Você assumiu")
			assert.Contains(t, s.message, "Olá Ana!")
		} else {
			assert.Contains(t, s.message, "já foi assumido por Bruno")
		}
	}
}

func TestLeadExpiredAlertsOnlyWithoutAgents(t *testing.T) {
	mod, _, mail, _ := newTestModule()

	require.NoError(t, mod.Handle(context.Background(), events.LeadExpired{Lead: lead(), Reason: events.ExpiryReasonManual}))
	assert.Empty(t, mail.subjects)

	require.NoError(t, mod.Handle(context.Background(), events.LeadExpired{
		BaseEvent: events.NewBaseEvent(time.Now()),
		Lead:      lead(),
		Reason:    events.ExpiryReasonNoAgents,
	}))
	require.Len(t, mail.subjects, 1)
	assert.Contains(t, mail.bodies[0], "Ana")
}

func TestSweepDigest(t *testing.T) {
	mod, _, mail, _ := newTestModule()

	require.NoError(t, mod.Handle(context.Background(), events.LeadsExpiredBySweep{MaxAgeMins: 15}))
	assert.Empty(t, mail.subjects)

	require.NoError(t, mod.Handle(context.Background(), events.LeadsExpiredBySweep{
		Leads:      []events.LeadSnapshot{lead(), lead()},
		MaxAgeMins: 15,
	}))
	require.Len(t, mail.subjects, 1)
	assert.True(t, strings.HasPrefix(mail.subjects[0], "2 leads"))
}

func TestFinancingCreatedAlert(t *testing.T) {
	mod, _, mail, _ := newTestModule()

	require.NoError(t, mod.Handle(context.Background(), events.FinancingCreated{
		FinancingID: uuid.New(),
		PropertyID:  uuid.New(),
		ClientName:  "Ana",
		ClientPhone: "11912345678",
		System:      "PRICE",
		Status:      "SIMULATING",
	}))
	require.Len(t, mail.bodies, 1)
	assert.Contains(t, mail.bodies[0], "Ana (11912345678)")
}

func TestRegisterHandlersWiresBus(t *testing.T) {
	mod, wa, _, _ := newTestModule()
	bus := events.NewInMemoryBus(logger.Nop())
	mod.RegisterHandlers(bus)

	require.NoError(t, bus.PublishSync(context.Background(), events.LeadReceived{Lead: lead(), Agents: agents("11900000001")}))
	assert.Equal(t, []string{"11900000001"}, wa.phones())
}
