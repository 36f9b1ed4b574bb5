package currency

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRoundNearestCent(t *testing.T) {
	c := Currency{Code: "USD", Rounding: RoundNearestCent}
	cases := map[string]string{
		"49.994": "49.99",
		"49.995": "50.00",
		"49.99":  "49.99",
	}
	for in, want := range cases {
		if got := c.Round(dec(in)); !got.Equal(dec(want)) {
			t.Fatalf("round %s: expected %s, got %s", in, want, got)
		}
	}
}

func TestRoundIncrements(t *testing.T) {
	cases := []struct {
		rounding RoundingType
		in, want string
	}{
		{Round005Up, "49.99", "50.00"},
		{Round005Down, "49.99", "49.95"},
		{Round01Up, "49.91", "50.00"},
		{Round01Down, "49.99", "49.90"},
		{Round05Up, "49.60", "50.00"},
		{Round05Down, "49.60", "49.50"},
		{Round1Up, "49.01", "50"},
		{Round1Down, "49.99", "49"},
	}
	for _, tc := range cases {
		c := Currency{Code: "CHF", Rounding: tc.rounding}
		if got := c.Round(dec(tc.in)); !got.Equal(dec(tc.want)) {
			t.Fatalf("%s round %s: expected %s, got %s", tc.rounding, tc.in, tc.want, got)
		}
	}
}

// Rounding an amount already on the increment must return it unchanged.
func TestRoundIdempotent(t *testing.T) {
	for _, rounding := range []RoundingType{
		RoundNearestCent, Round005Up, Round005Down, Round01Up, Round01Down,
		Round05Up, Round05Down, Round1Up, Round1Down,
	} {
		c := Currency{Code: "CHF", Rounding: rounding}
		once := c.Round(dec("37.87"))
		twice := c.Round(once)
		if !once.Equal(twice) {
			t.Fatalf("%s: round(round(x)) %s != round(x) %s", rounding, twice, once)
		}
	}
}

func TestConverter(t *testing.T) {
	conv := Converter{PrimaryCode: "USD"}
	eur := Currency{Code: "EUR", Rate: dec("0.5")}

	got, err := conv.FromPrimary(context.Background(), dec("10"), eur)
	if err != nil {
		t.Fatalf("FromPrimary: %v", err)
	}
	if !got.Equal(dec("5")) {
		t.Fatalf("expected 5, got %s", got)
	}

	got, err = conv.ToPrimary(context.Background(), dec("5"), eur)
	if err != nil {
		t.Fatalf("ToPrimary: %v", err)
	}
	if !got.Equal(dec("10")) {
		t.Fatalf("expected 10, got %s", got)
	}

	// The primary currency passes through untouched.
	got, err = conv.FromPrimary(context.Background(), dec("10"), Currency{Code: "USD"})
	if err != nil || !got.Equal(dec("10")) {
		t.Fatalf("expected passthrough 10, got %s (%v)", got, err)
	}
}

func TestConverterMissingRate(t *testing.T) {
	conv := Converter{PrimaryCode: "USD"}
	if _, err := conv.FromPrimary(context.Background(), dec("10"), Currency{Code: "EUR"}); !errors.Is(err, ErrNoRate) {
		t.Fatalf("expected ErrNoRate, got %v", err)
	}
	if _, err := conv.ToPrimary(context.Background(), dec("10"), Currency{Code: "EUR"}); !errors.Is(err, ErrNoRate) {
		t.Fatalf("expected ErrNoRate, got %v", err)
	}
}
