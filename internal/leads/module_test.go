package leads

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realty_portal_backend/internal/events"
	apphttp "realty_portal_backend/internal/http"
	"realty_portal_backend/internal/leads/domain"
	"realty_portal_backend/internal/leads/leadstest"
	"realty_portal_backend/platform/httpkit"
	"realty_portal_backend/platform/logger"
	"realty_portal_backend/platform/metrics"
	"realty_portal_backend/platform/validator"
)

const (
	testWebhookSecret = "hook-secret"
	testCronSecret    = "cron-secret"
)

type leadsCfg struct{}

func (leadsCfg) GetLeadStaleAfter() time.Duration { return 15 * time.Minute }
func (leadsCfg) GetLeadClaimKeyword() string { return "assumir" }
func (leadsCfg) GetLeadWebhookSecret() string { return testWebhookSecret }
func (leadsCfg) GetCronSecret() string { return testCronSecret }
func (leadsCfg) GetRosterCacheTTL() time.Duration { return time.Minute }

func init() { gin.SetMode(gin.TestMode) }

type testServer struct {
	engine *gin.Engine
	store  *leadstest.Store
	bus    *events.InMemoryBus
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.Nop()
	store := leadstest.NewStore()
	bus := events.NewInMemoryBus(log)
	t.Cleanup(bus.Wait)

	m := newModule(store, store, Deps{
		EventBus:  bus,
		Metrics:   metrics.NewNop(),
		Logger:    log,
		Validator: validator.New(),
		Config:    leadsCfg{},
	})

	engine := gin.New()
	v1 := engine.Group("/api/v1")
	m.RegisterRoutes(&apphttp.RouterContext{
		Engine:             engine,
		V1:                 v1,
		Admin:              v1.Group("/admin"),
		WebhookRateLimiter: httpkit.NewIPRateLimiter(1000, 1000, log),
	})
	return &testServer{engine: engine, store: store, bus: bus}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func webhookHeaders() map[string]string {
	return map[string]string{webhookSecretHeader: testWebhookSecret}
}

func cronHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + testCronSecret}
}

func intakeBody() map[string]any {
	return map[string]any{"nome": "Ana Souza", "telefone": "(11) 91234-5678", "mensagem": "Quero visitar o apartamento"}
}

func TestWebhookRequiresSecret(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodPost, "/api/v1/leads/webhook", intakeBody(), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/leads/webhook", intakeBody(), map[string]string{webhookSecretHeader: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodPut, "/api/v1/leads/expire", nil, webhookHeaders())
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "cron route must not accept the webhook secret")
}

func TestWebhookIntake(t *testing.T) {
	s := newTestServer(t)
	s.store.AddAgent("Bruno", "11900000001", true)
	s.store.AddAgent("Carla", "11900000002", true)

	rec, body := s.do(t, http.MethodPost, "/api/v1/leads/webhook", intakeBody(), webhookHeaders())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["leadId"])
	assert.Len(t, body["agents"], 2)

	lead := body["lead"].(map[string]any)
	assert.Equal(t, "PENDING", lead["status"])
	assert.Equal(t, "11912345678", lead["phone"])
}

func TestWebhookIntakeWithoutAgents(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodPost, "/api/v1/leads/webhook", intakeBody(), webhookHeaders())
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "no agents available, lead expired", body["message"])

	id := uuid.MustParse(body["leadId"].(string))
	rec, body = s.do(t, http.MethodGet, "/api/v1/admin/leads/"+id.String(), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "EXPIRED", body["status"])
}

func TestWebhookIntakeValidation(t *testing.T) {
	s := newTestServer(t)

	bad := intakeBody()
	bad["telefone"] = "12345"
	rec, body := s.do(t, http.MethodPost, "/api/v1/leads/webhook", bad, webhookHeaders())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation failed", body["message"])

	req := httptest.NewRequest(http.MethodPost, "/api/v1/leads/webhook", strings.NewReader("{"))
	req.Header.Set(webhookSecretHeader, testWebhookSecret)
	raw := httptest.NewRecorder()
	s.engine.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestAssumeWinnerAndLoser(t *testing.T) {
	s := newTestServer(t)
	bruno := s.store.AddAgent("Bruno", "11900000001", true)
	carla := s.store.AddAgent("Carla", "11900000002", true)

	_, body := s.do(t, http.MethodPost, "/api/v1/leads/webhook", intakeBody(), webhookHeaders())
	leadID := body["leadId"].(string)

	rec, body := s.do(t, http.MethodPost, "/api/v1/leads/assume", map[string]any{
		"leadId": leadID, "agentId": bruno.ID, "message": "ASSUMIR",
	}, webhookHeaders())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "lead assumed by Bruno", body["message"])
	notify := body["notifyAgents"].([]any)
	require.Len(t, notify, 1)
	assert.Equal(t, carla.ID.String(), notify[0].(map[string]any)["id"])

	rec, body = s.do(t, http.MethodPost, "/api/v1/leads/assume", map[string]any{
		"leadId": leadID, "agentId": carla.ID, "message": "assumir",
	}, webhookHeaders())
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, false, body["success"])
	details := body["details"].(map[string]any)
	assert.Equal(t, "Bruno", details["assignedAgentName"])
	assert.Equal(t, string(domain.StatusAssumed), details["status"])
}

func TestAssumeWithoutKeyword(t *testing.T) {
	s := newTestServer(t)
	bruno := s.store.AddAgent("Bruno", "11900000001", true)
	_, body := s.do(t, http.MethodPost, "/api/v1/leads/webhook", intakeBody(), webhookHeaders())

	rec, _ := s.do(t, http.MethodPost, "/api/v1/leads/assume", map[string]any{
		"leadId": body["leadId"], "agentId": bruno.ID, "message": "ok",
	}, webhookHeaders())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExpireAndSweep(t *testing.T) {
	s := newTestServer(t)
	s.store.AddAgent("Bruno", "11900000001", true)

	_, first := s.do(t, http.MethodPost, "/api/v1/leads/webhook", intakeBody(), webhookHeaders())
	rec, body := s.do(t, http.MethodPost, "/api/v1/leads/expire", map[string]any{"leadId": first["leadId"], "reason": "duplicado"}, webhookHeaders())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "duplicado", body["reason"])

	rec, _ = s.do(t, http.MethodPost, "/api/v1/leads/expire", map[string]any{"leadId": first["leadId"]}, webhookHeaders())
	assert.Equal(t, http.StatusConflict, rec.Code)

	s.store.PutLead(domain.Lead{
		ID:          uuid.New(),
		ContactName: "Antigo",
		Phone:       "11912345678",
		Message:     "oi",
		Status:      domain.StatusPending,
		CreatedAt:   time.Now().Add(-time.Hour),
		UpdatedAt:   time.Now().Add(-time.Hour),
	})

	rec, body = s.do(t, http.MethodPut, "/api/v1/leads/expire?maxAge=30", nil, cronHeaders())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, body["expired"])
	assert.EqualValues(t, 30, body["maxAgeMinutes"])

	rec, body = s.do(t, http.MethodPut, "/api/v1/leads/expire", nil, cronHeaders())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, body["expired"])
	assert.EqualValues(t, 15, body["maxAgeMinutes"])

	for _, raw := range []string{"0", "-5", "abc", "10081"} {
		rec, body = s.do(t, http.MethodPut, "/api/v1/leads/expire?maxAge="+raw, nil, cronHeaders())
		require.Equal(t, http.StatusOK, rec.Code, raw)
		assert.EqualValues(t, 15, body["maxAgeMinutes"], raw)
	}
}

func TestAdminListAndGet(t *testing.T) {
	s := newTestServer(t)
	s.store.AddAgent("Bruno", "11900000001", true)
	for range 3 {
		s.do(t, http.MethodPost, "/api/v1/leads/webhook", intakeBody(), webhookHeaders())
	}

	rec, body := s.do(t, http.MethodGet, "/api/v1/admin/leads?status=PENDING&pageSize=2", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, body["total"])
	assert.Len(t, body["items"], 2)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/admin/leads?status=UNKNOWN", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/admin/leads/not-a-uuid", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/admin/leads/"+uuid.NewString(), nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminStats(t *testing.T) {
	s := newTestServer(t)
	s.store.AddAgent("Bruno", "11900000001", true)
	s.do(t, http.MethodPost, "/api/v1/leads/webhook", intakeBody(), webhookHeaders())
	s.do(t, http.MethodPost, "/api/v1/leads/webhook", intakeBody(), webhookHeaders())

	rec, body := s.do(t, http.MethodGet, "/api/v1/admin/leads/stats?days=7", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["total"])
	assert.EqualValues(t, 2, body["pending"])
	assert.Nil(t, body["avgSecondsToAssume"])

	rec, _ = s.do(t, http.MethodGet, "/api/v1/admin/leads/stats?days=9999", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSweepStaleLeads(t *testing.T) {
	s := newTestServer(t)
	s.store.PutLead(domain.Lead{
		ID:          uuid.New(),
		ContactName: "Antigo",
		Phone:       "11912345678",
		Message:     "oi",
		Status:      domain.StatusPending,
		CreatedAt:   time.Now().Add(-time.Hour),
		UpdatedAt:   time.Now().Add(-time.Hour),
	})

	m := newModule(s.store, s.store, Deps{
		EventBus:  s.bus,
		Metrics:   metrics.NewNop(),
		Logger:    logger.Nop(),
		Validator: validator.New(),
		Config:    leadsCfg{},
	})
	n, err := m.SweepStaleLeads(t.Context(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
