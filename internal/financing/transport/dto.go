// Package transport holds the JSON shapes of the financing API. Amounts are
// accepted as JSON numbers or strings and rendered as numbers.
package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"realty_portal_backend/internal/financing/domain"
	"realty_portal_backend/internal/financing/service"
)

type SimulateRequest struct {
	PropertyValue decimal.Decimal `json:"propertyValue"`
	DownPayment   decimal.Decimal `json:"downPayment"`
	InterestRate  decimal.Decimal `json:"interestRate"`
	TermMonths    int             `json:"termMonths" validate:"required,min=1,max=480"`
	Type          string          `json:"type" validate:"required,oneof=SAC PRICE"`
}

func (r SimulateRequest) Input() service.SimulateInput {
	return service.SimulateInput{
		PropertyValue: r.PropertyValue,
		DownPayment:   r.DownPayment,
		InterestRate:  r.InterestRate,
		TermMonths:    r.TermMonths,
		System:        r.Type,
	}
}

// ClientContact identifies an anonymous requester.
type ClientContact struct {
	Name  string `json:"name" validate:"max=200"`
	Phone string `json:"phone" validate:"omitempty,br_phone"`
	Email string `json:"email" validate:"omitempty,email,max=254"`
}

type CreateRequest struct {
	SimulateRequest
	PropertyID uuid.UUID      `json:"propertyId" validate:"required"`
	Status     string         `json:"status,omitempty" validate:"omitempty,oneof=SIMULATING PENDING"`
	Client     *ClientContact `json:"client,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=SIMULATING PENDING APPROVED REJECTED CONTRACTED"`
}

type ListQuery struct {
	Status   string `form:"status" validate:"omitempty,oneof=SIMULATING PENDING APPROVED REJECTED CONTRACTED"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type PaymentResponse struct {
	Month     int     `json:"month"`
	Payment   float64 `json:"payment"`
	Principal float64 `json:"principal"`
	Interest  float64 `json:"interest"`
	Balance   float64 `json:"balance"`
}

type SimulationResponse struct {
	PropertyValue  float64           `json:"propertyValue"`
	DownPayment    float64           `json:"downPayment"`
	FinancedAmount float64           `json:"financedAmount"`
	InterestRate   float64           `json:"interestRate"`
	TermMonths     int               `json:"termMonths"`
	Type           string            `json:"type"`
	MonthlyPayment float64           `json:"monthlyPayment"`
	TotalAmount    float64           `json:"totalAmount"`
	TotalInterest  float64           `json:"totalInterest"`
	Payments       []PaymentResponse `json:"payments"`
}

type ClientResponse struct {
	Name  string  `json:"name"`
	Phone string  `json:"phone"`
	Email *string `json:"email,omitempty"`
}

type FinancingResponse struct {
	ID             uuid.UUID         `json:"id"`
	PropertyID     uuid.UUID         `json:"propertyId"`
	UserID         *uuid.UUID        `json:"userId,omitempty"`
	Client         *ClientResponse   `json:"client,omitempty"`
	PropertyValue  float64           `json:"propertyValue"`
	DownPayment    float64           `json:"downPayment"`
	FinancedAmount float64           `json:"financedAmount"`
	InterestRate   float64           `json:"interestRate"`
	TermMonths     int               `json:"termMonths"`
	Type           string            `json:"type"`
	MonthlyPayment float64           `json:"monthlyPayment"`
	TotalAmount    float64           `json:"totalAmount"`
	TotalInterest  float64           `json:"totalInterest"`
	Status         string            `json:"status"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
	Payments       []PaymentResponse `json:"payments,omitempty"`
}

// Envelope is the success wrapper used by every financing response.
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type ListResponse struct {
	Items    []FinancingResponse `json:"items"`
	Total    int                 `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"pageSize"`
}

func ToPayments(payments []domain.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, PaymentResponse{
			Month:     p.Month,
			Payment:   p.Payment.InexactFloat64(),
			Principal: p.Principal.InexactFloat64(),
			Interest:  p.Interest.InexactFloat64(),
			Balance:   p.Balance.InexactFloat64(),
		})
	}
	return out
}

func ToSimulationResponse(s service.Simulation) SimulationResponse {
	return SimulationResponse{
		PropertyValue:  s.PropertyValue.InexactFloat64(),
		DownPayment:    s.DownPayment.InexactFloat64(),
		FinancedAmount: s.FinancedAmount.InexactFloat64(),
		InterestRate:   s.InterestRate.InexactFloat64(),
		TermMonths:     s.TermMonths,
		Type:           string(s.System),
		MonthlyPayment: s.Schedule.MonthlyPayment.InexactFloat64(),
		TotalAmount:    s.Schedule.TotalAmount.InexactFloat64(),
		TotalInterest:  s.Schedule.TotalInterest.InexactFloat64(),
		Payments:       ToPayments(s.Schedule.Payments),
	}
}

func ToFinancingResponse(f domain.Financing) FinancingResponse {
	r := FinancingResponse{
		ID:             f.ID,
		PropertyID:     f.PropertyID,
		UserID:         f.Requester.UserID,
		PropertyValue:  f.PropertyValue.InexactFloat64(),
		DownPayment:    f.DownPayment.InexactFloat64(),
		FinancedAmount: f.FinancedAmount.InexactFloat64(),
		InterestRate:   f.InterestRate.InexactFloat64(),
		TermMonths:     f.TermMonths,
		Type:           string(f.System),
		MonthlyPayment: f.MonthlyPayment.InexactFloat64(),
		TotalAmount:    f.TotalAmount.InexactFloat64(),
		TotalInterest:  f.TotalInterest.InexactFloat64(),
		Status:         string(f.Status),
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
	if f.Requester.ClientName != nil && f.Requester.ClientPhone != nil {
		r.Client = &ClientResponse{
			Name:  *f.Requester.ClientName,
			Phone: *f.Requester.ClientPhone,
			Email: f.Requester.ClientEmail,
		}
	}
	return r
}

func ToFinancingResponses(items []domain.Financing) []FinancingResponse {
	out := make([]FinancingResponse, 0, len(items))
	for _, f := range items {
		out = append(out, ToFinancingResponse(f))
	}
	return out
}
