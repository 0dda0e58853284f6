package core

import (
	"errors"
	"testing"
)

func TestParseMonth(t *testing.T) {
	cases := []struct {
		in   string
		want Month
		ok   bool
	}{
		{"january", January, true},
		{"January", January, true},
		{"  MARCH ", March, true},
		{"december", December, true},
		{"jan", "", false},
		{"", "", false},
		{"thirteenth", "", false},
	}
	for _, tc := range cases {
		got, err := ParseMonth(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q expected %q, got %q (err=%v)", tc.in, tc.want, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidMonth) {
			t.Fatalf("%q expected ErrInvalidMonth, got %v", tc.in, err)
		}
	}
}

func TestMonthIndexFollowsCalendar(t *testing.T) {
	for i, m := range Months() {
		if m.Index() != i+1 {
			t.Fatalf("%s index = %d, want %d", m, m.Index(), i+1)
		}
	}
	if Month("nope").Index() != 0 {
		t.Fatalf("unknown month should have index 0")
	}
}

func TestMonthsReturnsCopy(t *testing.T) {
	ms := Months()
	ms[0] = "changed"
	if Months()[0] != January {
		t.Fatalf("Months() must not expose internal state")
	}
}

func TestValidateName(t *testing.T) {
	if err := ValidateName("Rent"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, in := range []string{"", "   ", "\t"} {
		if !errors.Is(ValidateName(in), ErrInvalidName) {
			t.Fatalf("%q expected ErrInvalidName", in)
		}
	}
}

func TestEmptyInsights(t *testing.T) {
	in := EmptyInsights()
	if in.TotalSpending != 0 || in.AvgMonthlySpending != 0 {
		t.Fatalf("expected zero totals, got %+v", in)
	}
	if in.HighestSpendingMonth.Month != "None" || in.TopSpendingCategory.Category != "None" {
		t.Fatalf("expected None sentinels, got %+v", in)
	}
}
