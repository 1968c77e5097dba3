package currency

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func testSnapshot(t *testing.T) *Snapshot {
	t.Helper()

	snap, err := NewSnapshot([]Rate{
		{Code: "AED", Multiplier: decimal.NewFromInt(1)},
		{Code: "USD", Multiplier: decimal.RequireFromString("3.6725")},
		{Code: "NPR", Multiplier: decimal.RequireFromString("0.0275")},
		{Code: "MYR", Multiplier: decimal.RequireFromString("0.78")},
	}, time.Now())
	if err != nil {
		t.Fatalf("building snapshot: %v", err)
	}
	return snap
}

func TestConvertIdentity(t *testing.T) {
	conv := NewConverter(testSnapshot(t))

	amount := decimal.RequireFromString("1800.555")
	got, err := conv.Convert(amount, "AED", "AED")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(amount) {
		t.Fatalf("identity conversion changed the amount: %s != %s", got, amount)
	}
}

func TestConvertViaPivot(t *testing.T) {
	conv := NewConverter(testSnapshot(t))

	// 1800 * rate(AED) / rate(USD), rounded to 2 places.
	got, err := conv.Convert(decimal.NewFromInt(1800), "AED", "USD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := decimal.NewFromInt(1800).
		Mul(decimal.NewFromInt(1)).
		Div(decimal.RequireFromString("3.6725")).
		Round(2)
	if !got.Equal(want) {
		t.Fatalf("converted 1800 AED to %s USD, want %s", got, want)
	}
}

func TestConvertUnknownCurrency(t *testing.T) {
	conv := NewConverter(testSnapshot(t))

	if _, err := conv.Convert(decimal.NewFromInt(100), "AED", "XXX"); !errors.Is(err, ErrUnknownCurrency) {
		t.Fatalf("expected ErrUnknownCurrency for target, got %v", err)
	}
	if _, err := conv.Convert(decimal.NewFromInt(100), "XXX", "AED"); !errors.Is(err, ErrUnknownCurrency) {
		t.Fatalf("expected ErrUnknownCurrency for source, got %v", err)
	}
}

func TestConvertRoundTrip(t *testing.T) {
	conv := NewConverter(testSnapshot(t))

	pairs := [][2]string{
		{"AED", "USD"},
		{"USD", "NPR"},
		{"NPR", "MYR"},
		{"MYR", "AED"},
	}
	amounts := []string{"1", "1800", "2499.99", "130000"}

	unit := decimal.New(1, -Places)
	for _, pair := range pairs {
		for _, raw := range amounts {
			amount := decimal.RequireFromString(raw)

			there, err := conv.Convert(amount, pair[0], pair[1])
			if err != nil {
				t.Fatalf("%s->%s: %v", pair[0], pair[1], err)
			}
			back, err := conv.Convert(there, pair[1], pair[0])
			if err != nil {
				t.Fatalf("%s->%s: %v", pair[1], pair[0], err)
			}

			if back.Sub(amount).Abs().GreaterThan(unit) {
				t.Errorf("round trip %s %s->%s->%s drifted to %s", raw, pair[0], pair[1], pair[0], back)
			}
		}
	}
}

func TestSnapshotRejectsBadMultipliers(t *testing.T) {
	cases := []struct {
		name string
		rate Rate
	}{
		{"zero", Rate{Code: "AED", Multiplier: decimal.Zero}},
		{"negative", Rate{Code: "AED", Multiplier: decimal.NewFromInt(-1)}},
		{"empty code", Rate{Code: "", Multiplier: decimal.NewFromInt(1)}},
	}

	for _, c := range cases {
		if _, err := NewSnapshot([]Rate{c.rate}, time.Now()); err == nil {
			t.Errorf("%s: expected snapshot validation error", c.name)
		}
	}
}

func TestSnapshotUpsertByCode(t *testing.T) {
	snap, err := NewSnapshot([]Rate{
		{Code: "USD", Multiplier: decimal.NewFromInt(3)},
		{Code: "USD", Multiplier: decimal.NewFromInt(4)},
	}, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snap.Len() != 1 {
		t.Fatalf("expected a single active rate per code, got %d", snap.Len())
	}
	m, _ := snap.Rate("USD")
	if !m.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("expected last rate to win, got %s", m)
	}
}
