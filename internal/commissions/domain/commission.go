// Package domain holds the commission model.
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrCommissionNotFound = errors.New("commission not found")
	ErrStatusConflict     = errors.New("commission status conflict")

	ErrNonPositiveSale = errors.New("sale value must be greater than zero")
	ErrInvalidPercent  = errors.New("percentage must be greater than 0 and at most 100")

	hundred = decimal.NewFromInt(100)
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusPaid, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown commission status %q", s)
}

// IsSettlement reports whether st closes a pending commission.
func IsSettlement(st Status) bool {
	return st == StatusPaid || st == StatusCancelled
}

type Commission struct {
	ID              uuid.UUID
	PropertyID      uuid.UUID
	AgentID         uuid.UUID
	SaleValue       decimal.Decimal
	Percentage      decimal.Decimal
	CommissionValue decimal.Decimal
	Status          Status
	PaidAt          *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Compute returns saleValue × percentage / 100 rounded to cents.
func Compute(saleValue, percentage decimal.Decimal) (decimal.Decimal, error) {
	if !saleValue.IsPositive() {
		return decimal.Zero, ErrNonPositiveSale
	}
	if !percentage.IsPositive() || percentage.GreaterThan(hundred) {
		return decimal.Zero, ErrInvalidPercent
	}
	return saleValue.Mul(percentage).Div(hundred).Round(2), nil
}
