package bigquery

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDecimalRatRoundTrip(t *testing.T) {
	// NUMERIC holds 9 fractional digits; anything the column can store
	// must survive the trip through *big.Rat unchanged.
	for _, s := range []string{
		"2500",
		"-1000.5",
		"0.1",
		"123.456789",
		"-0.000000001",
	} {
		d := decimal.RequireFromString(s)
		if got := decimalFromRat(ratFromDecimal(d)); !got.Equal(d) {
			t.Errorf("round trip of %s = %s", s, got.String())
		}
	}
}

func TestDecimalFromNilRat(t *testing.T) {
	if got := decimalFromRat(nil); !got.Equal(decimal.Zero) {
		t.Errorf("decimalFromRat(nil) = %s, want 0", got.String())
	}
}
