package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"realty_portal_backend/internal/leads/service"
	"realty_portal_backend/internal/leads/transport"
	"realty_portal_backend/platform/httpkit"
	"realty_portal_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgNoAgents         = "no agents available, lead expired"
)

// Handler serves the lead protocol endpoints.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterWebhookRoutes mounts the routes called by the messaging provider.
func (h *Handler) RegisterWebhookRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhook", h.Intake)
	rg.POST("/assume", h.Assume)
	rg.POST("/expire", h.Expire)
}

// RegisterCronRoutes mounts the sweep trigger.
func (h *Handler) RegisterCronRoutes(rg *gin.RouterGroup) {
	rg.PUT("/expire", h.ExpireStale)
}

// RegisterAdminRoutes mounts read-only admin routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/stats", h.Stats)
	rg.GET("/:id", h.Get)
}

// Intake records an inbound lead and returns the agents to broadcast it to.
func (h *Handler) Intake(c *gin.Context) {
	var req transport.IntakeRequest
	if !h.bind(c, &req) {
		return
	}

	res, err := h.svc.Intake(c.Request.Context(), service.IntakeInput{
		Name:    req.Nome,
		Phone:   req.Telefone,
		Message: req.Mensagem,
		AIReply: req.RespostaIA,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	if res.NoAgents() {
		httpkit.Created(c, transport.IntakeResponse{Success: true, LeadID: res.Lead.ID, Message: msgNoAgents})
		return
	}
	lead := transport.ToLeadResponse(res.Lead)
	httpkit.Created(c, transport.IntakeResponse{
		Success: true,
		LeadID:  res.Lead.ID,
		Lead:    &lead,
		Agents:  transport.ToAgentResponses(res.Agents),
	})
}

// Assume processes an agent's claim reply.
func (h *Handler) Assume(c *gin.Context) {
	var req transport.AssumeRequest
	if !h.bind(c, &req) {
		return
	}

	res, err := h.svc.Assume(c.Request.Context(), service.AssumeInput{
		LeadID:  req.LeadID,
		AgentID: req.AgentID,
		Message: req.Message,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.AssumeResponse{
		Success:      true,
		Message:      fmt.Sprintf("lead assumed by %s", res.Agent.Name),
		Lead:         transport.ToLeadResponse(res.Lead),
		Agent:        transport.ToAgentResponse(res.Agent),
		NotifyAgents: transport.ToAgentResponses(res.NotifyAgents),
	})
}

// Expire expires a single pending lead.
func (h *Handler) Expire(c *gin.Context) {
	var req transport.ExpireRequest
	if !h.bind(c, &req) {
		return
	}

	res, err := h.svc.Expire(c.Request.Context(), req.LeadID, req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ExpireResponse{
		Success: true,
		Message: "lead expired",
		Lead:    transport.ToLeadResponse(res.Lead),
		Reason:  res.Reason,
	})
}

// ExpireStale sweeps pending leads older than ?maxAge minutes. An unusable
// maxAge falls back to the configured window so cron callers always get 200.
func (h *Handler) ExpireStale(c *gin.Context) {
	q := transport.SweepQuery{MaxAge: c.Query("maxAge")}

	res, err := h.svc.ExpireStale(c.Request.Context(), q.Window(), time.Now())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.SweepResponse{
		Success:       true,
		Message:       fmt.Sprintf("%d leads expired", len(res.Expired)),
		Expired:       len(res.Expired),
		MaxAgeMinutes: int(res.MaxAge / time.Minute),
		Leads:         transport.ToLeadResponses(res.Expired),
	})
}

// List returns a page of leads for the admin dashboard.
func (h *Handler) List(c *gin.Context) {
	var q transport.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	res, err := h.svc.List(c.Request.Context(), service.ListInput{Status: q.Status, Page: q.Page, PageSize: q.PageSize})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ListResponse{
		Items:    transport.ToLeadResponses(res.Items),
		Total:    res.Total,
		Page:     res.Page,
		PageSize: res.PageSize,
	})
}

// Stats returns lead counts for the dashboard.
func (h *Handler) Stats(c *gin.Context) {
	var q transport.StatsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	stats, err := h.svc.Stats(c.Request.Context(), q.Days)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToStatsResponse(stats))
}

// Get returns a single lead.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}
