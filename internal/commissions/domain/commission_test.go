package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCompute(t *testing.T) {
	cases := []struct {
		sale, pct, want string
	}{
		{"500000", "6", "30000"},
		{"333333.33", "5", "16666.67"},
		{"1000", "2.5", "25"},
		{"0.10", "5", "0.01"},
		{"100", "100", "100"},
	}
	for _, tc := range cases {
		got, err := Compute(decimal.RequireFromString(tc.sale), decimal.RequireFromString(tc.pct))
		if err != nil {
			t.Fatalf("%s x %s%%: unexpected error: %v", tc.sale, tc.pct, err)
		}
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("%s x %s%%: got %s, want %s", tc.sale, tc.pct, got, tc.want)
		}
	}
}

func TestComputeRejectsInvalidInput(t *testing.T) {
	if _, err := Compute(decimal.Zero, decimal.NewFromInt(5)); err != ErrNonPositiveSale {
		t.Fatalf("expected ErrNonPositiveSale, got %v", err)
	}
	for _, pct := range []string{"0", "-1", "100.01"} {
		if _, err := Compute(decimal.NewFromInt(1000), decimal.RequireFromString(pct)); err != ErrInvalidPercent {
			t.Fatalf("pct %s: expected ErrInvalidPercent, got %v", pct, err)
		}
	}
}

func TestIsSettlement(t *testing.T) {
	if IsSettlement(StatusPending) {
		t.Fatal("PENDING does not settle a commission")
	}
	if !IsSettlement(StatusPaid) || !IsSettlement(StatusCancelled) {
		t.Fatal("PAID and CANCELLED settle a commission")
	}
}
