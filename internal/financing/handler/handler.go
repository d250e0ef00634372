package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"realty_portal_backend/internal/financing/service"
	"realty_portal_backend/internal/financing/transport"
	"realty_portal_backend/platform/httpkit"
	"realty_portal_backend/platform/requester"
	"realty_portal_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterPublicRoutes mounts the simulator and record creation. The create
// route expects OptionalAuth to have run.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup, optionalAuth gin.HandlerFunc) {
	rg.POST("/simulate", h.Simulate)
	rg.POST("", optionalAuth, h.Create)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PATCH("/:id/status", h.UpdateStatus)
}

func (h *Handler) Simulate(c *gin.Context) {
	var req transport.SimulateRequest
	if !h.bind(c, &req) {
		return
	}

	sim, err := h.svc.Simulate(req.Input())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.Envelope{Success: true, Data: transport.ToSimulationResponse(sim)})
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateRequest
	if !h.bind(c, &req) {
		return
	}

	var contact requester.AnonymousClient
	if req.Client != nil {
		contact = requester.AnonymousClient{Name: req.Client.Name, Phone: req.Client.Phone, Email: req.Client.Email}
	}

	res, err := h.svc.Create(c.Request.Context(), service.CreateInput{
		SimulateInput: req.Input(),
		PropertyID:    req.PropertyID,
		Status:        req.Status,
		Requester:     httpkit.ResolveRequester(c, contact),
	})
	if httpkit.HandleError(c, err) {
		return
	}

	out := transport.ToFinancingResponse(res.Financing)
	out.Payments = transport.ToPayments(res.Schedule.Payments)
	httpkit.Created(c, transport.Envelope{Success: true, Data: out})
}

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
	httpkit.OK(c, transport.Envelope{Success: true, Data: transport.ListResponse{
		Items:    transport.ToFinancingResponses(res.Items),
		Total:    res.Total,
		Page:     res.Page,
		PageSize: res.PageSize,
	}})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	f, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.Envelope{Success: true, Data: transport.ToFinancingResponse(f)})
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateStatusRequest
	if !h.bind(c, &req) {
		return
	}

	f, err := h.svc.UpdateStatus(c.Request.Context(), id, req.Status)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.Envelope{Success: true, Data: transport.ToFinancingResponse(f)})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.Nil, false
	}
	return id, true
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
