package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"realty_portal_backend/internal/commissions/domain"
)

type CreateRequest struct {
	PropertyID uuid.UUID       `json:"propertyId" validate:"required"`
	AgentID    uuid.UUID       `json:"agentId" validate:"required"`
	SaleValue  decimal.Decimal `json:"saleValue"`
	Percentage decimal.Decimal `json:"percentage"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PAID CANCELLED"`
}

type ListQuery struct {
	Status   string `form:"status" validate:"omitempty,oneof=PENDING PAID CANCELLED"`
	AgentID  string `form:"agentId" validate:"omitempty,uuid"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type CommissionResponse struct {
	ID              uuid.UUID  `json:"id"`
	PropertyID      uuid.UUID  `json:"propertyId"`
	AgentID         uuid.UUID  `json:"agentId"`
	SaleValue       float64    `json:"saleValue"`
	Percentage      float64    `json:"percentage"`
	CommissionValue float64    `json:"commissionValue"`
	Status          string     `json:"status"`
	PaidAt          *time.Time `json:"paidAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type ListResponse struct {
	Items    []CommissionResponse `json:"items"`
	Total    int                  `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"pageSize"`
}

func ToResponse(c domain.Commission) CommissionResponse {
	return CommissionResponse{
		ID:              c.ID,
		PropertyID:      c.PropertyID,
		AgentID:         c.AgentID,
		SaleValue:       c.SaleValue.InexactFloat64(),
		Percentage:      c.Percentage.InexactFloat64(),
		CommissionValue: c.CommissionValue.InexactFloat64(),
		Status:          string(c.Status),
		PaidAt:          c.PaidAt,
		CreatedAt:       c.CreatedAt,
	}
}

func ToResponses(items []domain.Commission) []CommissionResponse {
	out := make([]CommissionResponse, 0, len(items))
	for _, c := range items {
		out = append(out, ToResponse(c))
	}
	return out
}
