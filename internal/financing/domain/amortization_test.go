package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertCents(t *testing.T, label string, v decimal.Decimal) {
	t.Helper()
	if !v.Equal(v.Round(2)) {
		t.Fatalf("%s has more than 2 decimals: %s", label, v)
	}
}

func checkSchedule(t *testing.T, s Schedule, principal decimal.Decimal, n int) {
	t.Helper()
	if len(s.Payments) != n {
		t.Fatalf("expected %d payments, got %d", n, len(s.Payments))
	}
	sum := decimal.Zero
	for _, p := range s.Payments {
		assertCents(t, "payment", p.Payment)
		assertCents(t, "principal", p.Principal)
		assertCents(t, "interest", p.Interest)
		assertCents(t, "balance", p.Balance)
		if p.Balance.IsNegative() {
			t.Fatalf("month %d balance negative: %s", p.Month, p.Balance)
		}
		sum = sum.Add(p.Principal)
	}
	assertCents(t, "monthlyPayment", s.MonthlyPayment)
	assertCents(t, "totalAmount", s.TotalAmount)
	assertCents(t, "totalInterest", s.TotalInterest)

	if sum.Sub(principal).Abs().GreaterThan(d("0.01")) {
		t.Fatalf("principal shares sum to %s, want %s", sum, principal)
	}
	if last := s.Payments[n-1].Balance; !last.IsZero() {
		t.Fatalf("final balance %s, want 0", last)
	}
}

func TestSACSchedule(t *testing.T) {
	s, err := SAC(d("120000"), d("12"), 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checkSchedule(t, s, d("120000"), 12)

	if !s.Payments[0].Payment.Equal(d("11200")) {
		t.Fatalf("month 1 payment %s, want 11200", s.Payments[0].Payment)
	}
	if !s.Payments[1].Payment.Equal(d("11100")) {
		t.Fatalf("month 2 payment %s, want 11100", s.Payments[1].Payment)
	}
	if !s.MonthlyPayment.Equal(s.Payments[0].Payment) {
		t.Fatalf("monthly payment %s differs from first installment %s", s.MonthlyPayment, s.Payments[0].Payment)
	}

	prev := d("120000")
	for _, p := range s.Payments {
		if !prev.Sub(p.Balance).Equal(d("10000")) {
			t.Fatalf("month %d amortized %s, want 10000", p.Month, prev.Sub(p.Balance))
		}
		prev = p.Balance
	}
	if !s.TotalInterest.Equal(d("7800")) {
		t.Fatalf("total interest %s, want 7800", s.TotalInterest)
	}
	if !s.TotalAmount.Equal(d("127800")) {
		t.Fatalf("total amount %s, want 127800", s.TotalAmount)
	}
}

func TestPRICESchedule(t *testing.T) {
	s, err := PRICE(d("100000"), d("12"), 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checkSchedule(t, s, d("100000"), 12)

	if !s.MonthlyPayment.Equal(d("8884.88")) {
		t.Fatalf("installment %s, want 8884.88", s.MonthlyPayment)
	}
	for _, p := range s.Payments {
		if p.Payment.Sub(s.MonthlyPayment).Abs().GreaterThan(d("0.05")) {
			t.Fatalf("month %d payment %s drifts from installment %s", p.Month, p.Payment, s.MonthlyPayment)
		}
	}
	if !s.TotalAmount.Equal(d("106618.56")) {
		t.Fatalf("total amount %s, want 106618.56", s.TotalAmount)
	}
}

func TestPRICEZeroRate(t *testing.T) {
	s, err := PRICE(d("1000"), decimal.Zero, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checkSchedule(t, s, d("1000"), 3)

	if !s.MonthlyPayment.Equal(d("333.33")) {
		t.Fatalf("installment %s, want 333.33", s.MonthlyPayment)
	}
	for _, p := range s.Payments {
		if p.Payment.Sub(s.MonthlyPayment).Abs().GreaterThan(d("0.01")) {
			t.Fatalf("month %d payment %s, want within a cent of 333.33", p.Month, p.Payment)
		}
	}
	if !s.TotalAmount.Equal(d("1000")) {
		t.Fatalf("total amount %s, want 1000", s.TotalAmount)
	}
	if !s.TotalInterest.IsZero() {
		t.Fatalf("expected no interest, got %s", s.TotalInterest)
	}
}

func TestRoundingStability(t *testing.T) {
	cases := []struct {
		principal string
		rate      string
		term      int
	}{
		{"350000.55", "9.5", 360},
		{"123456.78", "10.99", 240},
		{"1000", "0", 7},
		{"99999.99", "13.25", 1},
		{"500000", "11.7", 420},
		{"500000", "12", 420},
		{"300000", "9.5", 360},
		{"100000", "12", 12},
		{"80000", "6.5", 480},
	}

	for _, tc := range cases {
		for _, sys := range []System{SystemSAC, SystemPRICE} {
			t.Run(string(sys)+"/"+tc.principal, func(t *testing.T) {
				s, err := Amortize(sys, d(tc.principal), d(tc.rate), tc.term)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				checkSchedule(t, s, d(tc.principal), tc.term)
			})
		}
	}
}

func TestPRICEInstallmentStaysConstant(t *testing.T) {
	cases := []struct {
		principal string
		rate      string
		term      int
	}{
		{"500000", "12", 420},
		{"300000", "9.5", 360},
		{"350000.55", "9.5", 360},
		{"500000", "11.7", 420},
		{"80000", "6.5", 480},
		{"1000", "0", 7},
	}

	for _, tc := range cases {
		t.Run(tc.principal+"/"+tc.rate, func(t *testing.T) {
			s, err := PRICE(d(tc.principal), d(tc.rate), tc.term)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			paid := decimal.Zero
			for _, p := range s.Payments {
				if p.Payment.Sub(s.MonthlyPayment).Abs().GreaterThan(d("0.05")) {
					t.Fatalf("month %d payment %s drifts from installment %s", p.Month, p.Payment, s.MonthlyPayment)
				}
				if !p.Payment.Equal(p.Principal.Add(p.Interest)) {
					t.Fatalf("month %d payment %s != principal %s + interest %s", p.Month, p.Payment, p.Principal, p.Interest)
				}
				if p.Interest.IsNegative() {
					t.Fatalf("month %d negative interest %s", p.Month, p.Interest)
				}
				paid = paid.Add(p.Payment)
			}
			if !paid.Equal(s.TotalAmount) {
				t.Fatalf("payments sum to %s, total amount is %s", paid, s.TotalAmount)
			}
			if !d(tc.principal).Add(s.TotalInterest).Equal(s.TotalAmount) {
				t.Fatalf("principal + interest %s != total %s", d(tc.principal).Add(s.TotalInterest), s.TotalAmount)
			}
		})
	}
}

func TestAmortizeRejectsInvalidInput(t *testing.T) {
	cases := map[string]struct {
		principal decimal.Decimal
		rate      decimal.Decimal
		term      int
		want      error
	}{
		"zero principal": {decimal.Zero, d("10"), 12, ErrNonPositivePrincipal},
		"negative rate":  {d("1000"), d("-1"), 12, ErrNegativeRate},
		"zero term":      {d("1000"), d("10"), 0, ErrInvalidTerm},
		"term too long":  {d("1000"), d("10"), MaxTermMonths + 1, ErrInvalidTerm},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Amortize(SystemSAC, tc.principal, tc.rate, tc.term); err != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestStatusTransitions(t *testing.T) {
	allowed := [][2]Status{
		{StatusSimulating, StatusPending},
		{StatusSimulating, StatusRejected},
		{StatusPending, StatusApproved},
		{StatusPending, StatusRejected},
		{StatusApproved, StatusContracted},
		{StatusApproved, StatusRejected},
	}
	for _, tr := range allowed {
		if !CanTransition(tr[0], tr[1]) {
			t.Fatalf("expected %s -> %s to be allowed", tr[0], tr[1])
		}
	}
	for _, terminal := range []Status{StatusRejected, StatusContracted} {
		for _, to := range []Status{StatusSimulating, StatusPending, StatusApproved, StatusRejected, StatusContracted} {
			if CanTransition(terminal, to) {
				t.Fatalf("terminal %s must not move to %s", terminal, to)
			}
		}
	}
	if CanTransition(StatusSimulating, StatusContracted) {
		t.Fatal("must not skip approval")
	}

	got := Predecessors(StatusRejected)
	if len(got) != 3 {
		t.Fatalf("expected 3 predecessors of REJECTED, got %v", got)
	}
	if got := Predecessors(StatusSimulating); len(got) != 0 {
		t.Fatalf("SIMULATING has no predecessors, got %v", got)
	}
}
