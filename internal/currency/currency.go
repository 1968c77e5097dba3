// Package currency converts monetary amounts between currencies through
// a common pivot unit. Rates come in as an immutable snapshot so a
// ranking call never observes the table changing under it.
package currency

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnknownCurrency is returned when a currency code has no active rate.
var ErrUnknownCurrency = errors.New("unknown currency")

// Places is the fixed decimal precision applied once, to the final
// converted amount. Intermediate pivot values stay unrounded.
const Places int32 = 2

// Rate is the multiplier of a currency relative to the pivot unit.
type Rate struct {
	Code       string
	Multiplier decimal.Decimal
	UpdatedAt  time.Time
}

// Snapshot is an immutable rate table captured at a point in time.
// Upsert semantics: when the input carries a code twice, the last entry
// wins, so there is at most one active rate per code.
type Snapshot struct {
	takenAt time.Time
	rates   map[string]decimal.Decimal
}

// NewSnapshot validates the rates and builds a snapshot. Every
// multiplier must be strictly positive.
func NewSnapshot(rates []Rate, takenAt time.Time) (*Snapshot, error) {
	table := make(map[string]decimal.Decimal, len(rates))
	for _, r := range rates {
		if r.Code == "" {
			return nil, fmt.Errorf("rate with empty currency code")
		}
		if !r.Multiplier.IsPositive() {
			return nil, fmt.Errorf("rate for %s: multiplier %s is not positive", r.Code, r.Multiplier)
		}
		table[r.Code] = r.Multiplier
	}
	return &Snapshot{takenAt: takenAt, rates: table}, nil
}

// TakenAt reports when the snapshot was captured. Two calls ranking
// against the same snapshot see identical conversions.
func (s *Snapshot) TakenAt() time.Time {
	return s.takenAt
}

// Rate returns the pivot multiplier for a code.
func (s *Snapshot) Rate(code string) (decimal.Decimal, bool) {
	m, ok := s.rates[code]
	return m, ok
}

// Codes lists the configured currency codes, sorted.
func (s *Snapshot) Codes() []string {
	codes := make([]string, 0, len(s.rates))
	for code := range s.rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func (s *Snapshot) Len() int {
	return len(s.rates)
}

// Converter resolves amounts between currencies via the pivot.
type Converter struct {
	snapshot *Snapshot
}

func NewConverter(snapshot *Snapshot) *Converter {
	return &Converter{snapshot: snapshot}
}

// Convert translates amount from one currency to another:
// amount * rate(from) / rate(to), rounded once at the end.
// Converting a currency to itself returns the input unchanged.
func (c *Converter) Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}

	fromRate, ok := c.snapshot.Rate(from)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownCurrency, from)
	}
	toRate, ok := c.snapshot.Rate(to)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownCurrency, to)
	}

	return amount.Mul(fromRate).Div(toRate).Round(Places), nil
}
