// Package domain holds the financing model: amortization systems, the
// record lifecycle and the schedule calculator.
package domain

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrFinancingNotFound = errors.New("financing not found")
	ErrPropertyNotFound  = errors.New("property not found")
	ErrStatusConflict    = errors.New("financing status conflict")
)

// System is the amortization system of a financing.
type System string

const (
	SystemSAC   System = "SAC"
	SystemPRICE System = "PRICE"
)

func ParseSystem(s string) (System, error) {
	switch sys := System(s); sys {
	case SystemSAC, SystemPRICE:
		return sys, nil
	}
	return "", fmt.Errorf("unknown amortization system %q", s)
}

type Status string

const (
	StatusSimulating Status = "SIMULATING"
	StatusPending    Status = "PENDING"
	StatusApproved   Status = "APPROVED"
	StatusRejected   Status = "REJECTED"
	StatusContracted Status = "CONTRACTED"
)

var allowedTransitions = map[Status][]Status{
	StatusSimulating: {StatusPending, StatusRejected},
	StatusPending:    {StatusApproved, StatusRejected},
	StatusApproved:   {StatusContracted, StatusRejected},
}

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusSimulating, StatusPending, StatusApproved, StatusRejected, StatusContracted:
		return st, nil
	}
	return "", fmt.Errorf("unknown financing status %q", s)
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	return slices.Contains(allowedTransitions[from], to)
}

// Predecessors lists the statuses that may move to to, in a stable order.
func Predecessors(to Status) []Status {
	var out []Status
	for _, from := range []Status{StatusSimulating, StatusPending, StatusApproved} {
		if CanTransition(from, to) {
			out = append(out, from)
		}
	}
	return out
}

// IsInitial reports whether a new record may be created in st.
func IsInitial(st Status) bool {
	return st == StatusSimulating || st == StatusPending
}

// Requester links a financing to either a user or anonymous contact fields.
// Exactly one side is set.
type Requester struct {
	UserID      *uuid.UUID
	ClientName  *string
	ClientPhone *string
	ClientEmail *string
}

// Financing is a persisted simulation. The computed fields never change
// after creation.
type Financing struct {
	ID             uuid.UUID
	PropertyID     uuid.UUID
	Requester      Requester
	PropertyValue  decimal.Decimal
	DownPayment    decimal.Decimal
	FinancedAmount decimal.Decimal
	InterestRate   decimal.Decimal
	TermMonths     int
	System         System
	MonthlyPayment decimal.Decimal
	TotalAmount    decimal.Decimal
	TotalInterest  decimal.Decimal
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
