// Package salary resolves position salaries into requested currencies
// and applies min/max salary criteria on top of the resolved view.
package salary

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chasseuragace/videsh/internal/currency"
	"github.com/chasseuragace/videsh/internal/job"
)

// Entry is one amount/currency pair of a salary view.
type Entry struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// View is a position's base salary plus its converted equivalents, in
// the order the target currencies were requested.
type View struct {
	Base      Entry   `json:"base"`
	Converted []Entry `json:"converted"`
}

// ConvertedIn returns the converted entry for a currency code.
func (v View) ConvertedIn(code string) (Entry, bool) {
	for _, e := range v.Converted {
		if e.Currency == code {
			return e, true
		}
	}
	return Entry{}, false
}

// Resolver builds salary views using a currency converter.
type Resolver struct {
	converter *currency.Converter
	logger    *zap.Logger
}

func NewResolver(converter *currency.Converter, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{converter: converter, logger: logger}
}

// Resolve computes the salary view of a position for the requested
// target currencies. Targets are deduplicated with order preserved. An
// unconfigured target currency drops that single entry, never the
// whole view: a posting must not vanish because one of several targets
// has no rate.
func (r *Resolver) Resolve(pos *job.Position, targets []string) View {
	view := View{
		Base: Entry{Amount: pos.MonthlySalary, Currency: pos.SalaryCurrency},
	}

	seen := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		if target == "" {
			continue
		}
		if _, dup := seen[target]; dup {
			continue
		}
		seen[target] = struct{}{}

		amount, err := r.converter.Convert(pos.MonthlySalary, pos.SalaryCurrency, target)
		if err != nil {
			if errors.Is(err, currency.ErrUnknownCurrency) {
				r.logger.Debug("omitting converted salary entry",
					zap.String("position", pos.Title),
					zap.String("target_currency", target),
					zap.Error(err),
				)
				continue
			}
			r.logger.Warn("salary conversion failed",
				zap.String("position", pos.Title),
				zap.String("target_currency", target),
				zap.Error(err),
			)
			continue
		}

		view.Converted = append(view.Converted, Entry{Amount: amount, Currency: target})
	}

	return view
}

// Source selects which amount of a view a criteria compares against.
type Source string

const (
	SourceBase      Source = "base"
	SourceConverted Source = "converted"
)

// Criteria is a salary threshold filter. Min and Max are optional; an
// absent bound imposes no constraint.
type Criteria struct {
	Source   Source
	Currency string
	Min      *decimal.Decimal
	Max      *decimal.Decimal
}

func (c Criteria) Validate() error {
	switch c.Source {
	case SourceBase, SourceConverted:
	default:
		return fmt.Errorf("salary source must be %q or %q, got %q", SourceBase, SourceConverted, c.Source)
	}
	if c.Currency == "" {
		return fmt.Errorf("salary currency is required")
	}
	if c.Min != nil && c.Min.IsNegative() {
		return fmt.Errorf("salary minimum must be non-negative")
	}
	if c.Max != nil && c.Max.IsNegative() {
		return fmt.Errorf("salary maximum must be non-negative")
	}
	if c.Min != nil && c.Max != nil && c.Min.GreaterThan(*c.Max) {
		return fmt.Errorf("salary minimum %s exceeds maximum %s", c.Min, c.Max)
	}
	return nil
}

// Passes decides whether a view satisfies the criteria.
//
// With the base source the comparison only happens when the base
// currency equals the criteria currency; a mismatch fails the filter
// rather than converting implicitly, so callers can distinguish literal
// from converted comparisons. With the converted source an absent
// converted entry fails the filter: an unknown currency excludes, it
// never includes by default.
func (v View) Passes(c Criteria) bool {
	var amount decimal.Decimal

	switch c.Source {
	case SourceBase:
		if v.Base.Currency != c.Currency {
			return false
		}
		amount = v.Base.Amount
	case SourceConverted:
		entry, ok := v.ConvertedIn(c.Currency)
		if !ok {
			return false
		}
		amount = entry.Amount
	default:
		return false
	}

	if c.Min != nil && amount.LessThan(*c.Min) {
		return false
	}
	if c.Max != nil && amount.GreaterThan(*c.Max) {
		return false
	}
	return true
}
