package currency

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

var (
	// ErrUnsupportedPair means no rate exists between the two currencies.
	ErrUnsupportedPair = errors.New("unsupported currency pair")
	// ErrNoRateForDate means the pair is known but no rate was effective yet.
	ErrNoRateForDate = errors.New("no rate effective at date")
)

// inversePrecision is the number of decimal places kept when inverting a rate.
const inversePrecision = 16

// Converter converts an amount in cents between currencies at a point in time.
// The result is exact; callers decide when to round.
type Converter interface {
	Convert(ctx context.Context, amount int64, from, to string, asOf time.Time) (decimal.Decimal, error)
}

// ConversionError describes a failed conversion.
type ConversionError struct {
	From string
	To   string
	AsOf time.Time
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("converting %s to %s as of %s: %v", e.From, e.To, e.AsOf.Format("2006-01-02"), e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

type pair struct{ from, to string }

type point struct {
	at   time.Time
	rate decimal.Decimal
}

// RateTable is a Converter over a fixed set of historical rates. It is safe for
// concurrent use once built.
type RateTable struct {
	rates map[pair][]point // sorted by at
}

// NewRateTable indexes rates by currency pair.
func NewRateTable(rates []model.ExchangeRate) *RateTable {
	rt := &RateTable{rates: make(map[pair][]point)}
	for _, r := range rates {
		k := pair{model.NormalizeCurrency(r.FromCurrency), model.NormalizeCurrency(r.ToCurrency)}
		rt.rates[k] = append(rt.rates[k], point{at: r.EffectiveAt, rate: r.Rate})
	}
	for _, pts := range rt.rates {
		sort.SliceStable(pts, func(i, j int) bool { return pts[i].at.Before(pts[j].at) })
	}
	return rt
}

// Rate returns the rate from one currency to another effective at asOf: the
// latest direct rate not after asOf, else the inverse of the latest reverse
// rate.
func (rt *RateTable) Rate(from, to string, asOf time.Time) (decimal.Decimal, error) {
	from, to = model.NormalizeCurrency(from), model.NormalizeCurrency(to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	direct, directKnown := rt.rates[pair{from, to}]
	if r, ok := latest(direct, asOf); ok {
		return r, nil
	}
	reverse, reverseKnown := rt.rates[pair{to, from}]
	if r, ok := latest(reverse, asOf); ok && !r.IsZero() {
		return decimal.NewFromInt(1).DivRound(r, inversePrecision), nil
	}

	cause := ErrUnsupportedPair
	if directKnown || reverseKnown {
		cause = ErrNoRateForDate
	}
	return decimal.Decimal{}, &ConversionError{From: from, To: to, AsOf: asOf, Err: cause}
}

// Convert implements Converter.
func (rt *RateTable) Convert(_ context.Context, amount int64, from, to string, asOf time.Time) (decimal.Decimal, error) {
	r, err := rt.Rate(from, to, asOf)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromInt(amount).Mul(r), nil
}

func latest(pts []point, asOf time.Time) (decimal.Decimal, bool) {
	i := sort.Search(len(pts), func(i int) bool { return pts[i].at.After(asOf) })
	if i == 0 {
		return decimal.Decimal{}, false
	}
	return pts[i-1].rate, true
}
