package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// MaxTermMonths bounds the schedule length (40 years).
const MaxTermMonths = 480

const (
	moneyPlaces = 2
	// exactPlaces is the working precision of the unrounded PRICE curve.
	exactPlaces = 20
)

var (
	ErrNonPositivePrincipal = errors.New("financed amount must be greater than zero")
	ErrNegativeRate         = errors.New("interest rate must not be negative")
	ErrInvalidTerm          = errors.New("term must be between 1 and 480 months")

	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// Payment is one month of a schedule. All amounts are rounded to cents.
type Payment struct {
	Month     int
	Payment   decimal.Decimal
	Principal decimal.Decimal
	Interest  decimal.Decimal
	Balance   decimal.Decimal
}

// Schedule is the outcome of an amortization calculation.
type Schedule struct {
	MonthlyPayment decimal.Decimal
	TotalAmount    decimal.Decimal
	TotalInterest  decimal.Decimal
	Payments       []Payment
}

// MonthlyRate converts an annual percentage into a monthly fraction.
func MonthlyRate(annualRate decimal.Decimal) decimal.Decimal {
	return annualRate.Div(twelve).Div(hundred)
}

// Amortize dispatches to the calculator of system.
func Amortize(system System, principal, annualRate decimal.Decimal, termMonths int) (Schedule, error) {
	if err := checkInputs(principal, annualRate, termMonths); err != nil {
		return Schedule{}, err
	}
	if system == SystemPRICE {
		return price(principal, annualRate, termMonths), nil
	}
	return sac(principal, annualRate, termMonths), nil
}

// SAC computes a constant-amortization schedule.
func SAC(principal, annualRate decimal.Decimal, termMonths int) (Schedule, error) {
	return Amortize(SystemSAC, principal, annualRate, termMonths)
}

// PRICE computes a constant-installment schedule.
func PRICE(principal, annualRate decimal.Decimal, termMonths int) (Schedule, error) {
	return Amortize(SystemPRICE, principal, annualRate, termMonths)
}

func checkInputs(principal, annualRate decimal.Decimal, termMonths int) error {
	switch {
	case !principal.IsPositive():
		return ErrNonPositivePrincipal
	case annualRate.IsNegative():
		return ErrNegativeRate
	case termMonths < 1 || termMonths > MaxTermMonths:
		return ErrInvalidTerm
	}
	return nil
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}

// sac amortizes a constant share of the principal each month. The last
// month takes whatever balance is left so the shares sum to the principal.
func sac(principal, annualRate decimal.Decimal, n int) Schedule {
	rate := MonthlyRate(annualRate)
	amortization := round(principal.Div(decimal.NewFromInt(int64(n))))

	payments := make([]Payment, 0, n)
	balance := round(principal)
	totalInterest := decimal.Zero
	for month := 1; month <= n; month++ {
		interest := round(balance.Mul(rate))
		share := amortization
		if month == n || share.GreaterThan(balance) {
			share = balance
		}
		balance = balance.Sub(share)
		totalInterest = totalInterest.Add(interest)
		payments = append(payments, Payment{
			Month:     month,
			Payment:   share.Add(interest),
			Principal: share,
			Interest:  interest,
			Balance:   balance,
		})
	}

	return Schedule{
		MonthlyPayment: amortization.Add(round(principal.Mul(rate))),
		TotalAmount:    round(principal).Add(totalInterest),
		TotalInterest:  totalInterest,
		Payments:       payments,
	}
}

// price pays the annuity down along the exact (unrounded) balance curve and
// reports each month's balance rounded to cents. Principal is the difference
// of consecutive reported balances and interest is the rest of the rounded
// installment, so rounding never compounds: every payment equals the
// installment and the shares sum to the principal. With a zero rate, or when
// the rounded split would leave negative interest, the payment is the share.
func price(principal, annualRate decimal.Decimal, n int) Schedule {
	rate := MonthlyRate(annualRate)
	exact := installmentFor(principal, rate, n)
	installment := round(exact)
	growth := one.Add(rate)

	payments := make([]Payment, 0, n)
	exactBalance := principal
	balance := round(principal)
	totalAmount := decimal.Zero
	for month := 1; month <= n; month++ {
		exactBalance = exactBalance.Mul(growth).Sub(exact).Round(exactPlaces)
		next := round(exactBalance)
		if month == n || next.IsNegative() {
			next = decimal.Zero
		}

		share := balance.Sub(next)
		payment := installment
		interest := payment.Sub(share)
		if rate.IsZero() || interest.IsNegative() {
			payment = share
			interest = decimal.Zero
		}

		balance = next
		totalAmount = totalAmount.Add(payment)
		payments = append(payments, Payment{
			Month:     month,
			Payment:   payment,
			Principal: share,
			Interest:  interest,
			Balance:   balance,
		})
	}

	return Schedule{
		MonthlyPayment: installment,
		TotalAmount:    totalAmount,
		TotalInterest:  totalAmount.Sub(round(principal)),
		Payments:       payments,
	}
}

// installmentFor evaluates P·r(1+r)^n / ((1+r)^n − 1) in decimal arithmetic.
// A zero rate degrades to P/n.
func installmentFor(principal, rate decimal.Decimal, n int) decimal.Decimal {
	if rate.IsZero() {
		return principal.DivRound(decimal.NewFromInt(int64(n)), exactPlaces)
	}
	factor := compound(one.Add(rate), n)
	return principal.Mul(rate).Mul(factor).DivRound(factor.Sub(one), exactPlaces)
}

// compound raises base to n, keeping exactPlaces decimals per step.
func compound(base decimal.Decimal, n int) decimal.Decimal {
	out := one
	for range n {
		out = out.Mul(base).Round(exactPlaces)
	}
	return out
}
