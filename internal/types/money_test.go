package types

import "testing"

func TestRound2HalfAwayFromZero(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{1.005, "1.01 EUR"},
		{1.004, "1.00 EUR"},
		{2.675, "2.68 EUR"},
		{-1.005, "-1.01 EUR"},
		{455, "455.00 EUR"},
	}
	for _, c := range cases {
		got := NewMoney(c.in, "EUR").Round2().String()
		if got != c.want {
			t.Errorf("Round2(%v) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestCents(t *testing.T) {
	if got := NewMoney(27.30, "EUR").Cents(); got != 2730 {
		t.Fatalf("Cents() = %d, want 2730", got)
	}
	if got := NewMoneyFromCents(42770, "EUR").String(); got != "427.70 EUR" {
		t.Fatalf("from cents = %s, want 427.70 EUR", got)
	}
}

func TestMulFactorChainRoundsOnce(t *testing.T) {
	// 100 × 2.0 × 1.3 × 1.4 × 1.25 must come out exact; rounding per step
	// would drift.
	got := NewMoney(100, "EUR").MulFactor(2.0).MulFactor(1.3).MulFactor(1.4).MulFactor(1.25).Round2()
	if !got.Equal(NewMoney(455, "EUR")) {
		t.Fatalf("chain = %s, want 455.00 EUR", got)
	}
}
