package money

import (
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "integer", input: "300", want: "300.00 UAH"},
		{name: "two decimals", input: "120.50", want: "120.50 UAH"},
		{name: "surrounding spaces", input: " 7.1 ", want: "7.10 UAH"},
		{name: "trailing zeros beyond precision", input: "1.500", want: "1.50 UAH"},
		{name: "three decimals rejected", input: "1.005", wantErr: true},
		{name: "garbage", input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input, UAH)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.String() != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestAllocate(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		n      int
		want   []string
	}{
		{name: "even split", amount: "300", n: 3, want: []string{"100.00", "100.00", "100.00"}},
		{name: "remainder to first share", amount: "100", n: 3, want: []string{"33.34", "33.33", "33.33"}},
		{name: "several leftover cents", amount: "0.05", n: 4, want: []string{"0.02", "0.01", "0.01", "0.01"}},
		{name: "single share", amount: "42.42", n: 1, want: []string{"42.42"}},
		{name: "zero amount", amount: "0", n: 2, want: []string{"0.00", "0.00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := MustParse(tt.amount, USD)
			shares, err := total.Allocate(tt.n)
			if err != nil {
				t.Fatalf("Allocate failed: %v", err)
			}
			if len(shares) != len(tt.want) {
				t.Fatalf("got %d shares, want %d", len(shares), len(tt.want))
			}
			for i, s := range shares {
				if s.Amount.StringFixed(Places) != tt.want[i] {
					t.Errorf("share %d = %s, want %s", i, s.Amount.StringFixed(Places), tt.want[i])
				}
				if s.Currency != USD {
					t.Errorf("share %d currency = %q, want USD", i, s.Currency)
				}
			}
			if !Sum(USD, shares...).Equal(total) {
				t.Errorf("shares sum to %s, want %s", Sum(USD, shares...), total)
			}
		})
	}
}

func TestAllocateRejectsBadInput(t *testing.T) {
	if _, err := MustParse("10", UAH).Allocate(0); err == nil {
		t.Error("expected error for zero shares")
	}
	if _, err := MustParse("-10", UAH).Allocate(2); err == nil {
		t.Error("expected error for negative amount")
	}
}

func TestArithmeticKeepsPrecision(t *testing.T) {
	// 0.1 + 0.2 is the classic float64 trap.
	got := MustParse("0.1", EUR).Add(MustParse("0.2", EUR))
	if !got.Equal(MustParse("0.3", EUR)) {
		t.Errorf("0.1 + 0.2 = %s, want 0.30 EUR", got)
	}

	diff := MustParse("40", EUR).Sub(MustParse("100", EUR))
	if !diff.IsNegative() {
		t.Errorf("40 - 100 = %s, want negative", diff)
	}
	if !diff.NonNegative().IsZero() {
		t.Errorf("NonNegative(%s) = %s, want zero", diff, diff.NonNegative())
	}
}

func TestCurrencyHelpers(t *testing.T) {
	for _, code := range []string{"UAH", "usd", " eur "} {
		if !IsSupported(code) {
			t.Errorf("IsSupported(%q) = false, want true", code)
		}
	}
	if IsSupported("GBP") {
		t.Error("IsSupported(GBP) = true, want false")
	}

	untagged := Money{}
	if got := untagged.Add(MustParse("5", UAH)); got.Currency != UAH {
		t.Errorf("Add on untagged amount kept currency %q, want UAH", got.Currency)
	}
}
