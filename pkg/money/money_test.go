package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundOnlyAtPresentation(t *testing.T) {
	total := decimal.RequireFromString("74.5875")
	if got := Round(total).String(); got != "74.59" {
		t.Fatalf("expected 74.59, got %s", got)
	}
	if got := Format("PKR", total); got != "PKR 74.59" {
		t.Fatalf("unexpected format %q", got)
	}
	if got := Format("", decimal.NewFromInt(5)); got != "5.00" {
		t.Fatalf("unexpected format %q", got)
	}
}

func TestParse(t *testing.T) {
	v, err := Parse(" 100.25 ")
	if err != nil || !v.Equal(decimal.RequireFromString("100.25")) {
		t.Fatalf("unexpected parse %s %v", v, err)
	}
	if _, err := Parse("-1"); err == nil {
		t.Fatal("negative amounts must be rejected")
	}
	if _, err := Parse("ten"); err == nil {
		t.Fatal("garbage must be rejected")
	}
}

func TestSumHasNoFloatDrift(t *testing.T) {
	tenth := decimal.RequireFromString("0.1")
	parts := make([]decimal.Decimal, 10)
	for i := range parts {
		parts[i] = tenth
	}
	if got := Sum(parts...); !got.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected exactly 1, got %s", got)
	}
}
