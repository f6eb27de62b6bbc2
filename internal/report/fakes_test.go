package report

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/currency"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/query"
)

type fakeStore struct {
	mu      sync.Mutex
	sums    []model.CurrencySum
	sumErr  error
	donors  func(from, to time.Time) []uint
	idsErr  error
	groups  []model.Group
	filters []query.Filter
	attrs   []query.Attribute
}

func (f *fakeStore) SumByCurrency(_ context.Context, attr query.Attribute, flt query.Filter) ([]model.CurrencySum, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attrs = append(f.attrs, attr)
	f.filters = append(f.filters, flt)
	if f.sumErr != nil {
		return nil, f.sumErr
	}
	out := make([]model.CurrencySum, len(f.sums))
	copy(out, f.sums)
	return out, nil
}

func (f *fakeStore) DistinctUserIDs(_ context.Context, flt query.Filter) ([]uint, error) {
	f.mu.Lock()
	f.filters = append(f.filters, flt)
	f.mu.Unlock()
	if f.idsErr != nil {
		return nil, f.idsErr
	}
	from, to := flt.DateBounds(query.FieldCreatedAt)
	return f.donors(*from, *to), nil
}

func (f *fakeStore) HostedGroups(context.Context, uint, time.Time) ([]model.Group, error) {
	return f.groups, nil
}

// recordingConverter converts at a fixed rate per currency and records the
// as-of dates it was asked for.
type recordingConverter struct {
	mu    sync.Mutex
	rates map[string]string
	fail  map[string]error
	asOfs []time.Time
}

func (c *recordingConverter) Convert(_ context.Context, amount int64, from, to string, asOf time.Time) (decimal.Decimal, error) {
	c.mu.Lock()
	c.asOfs = append(c.asOfs, asOf)
	c.mu.Unlock()
	if err := c.fail[from]; err != nil {
		return decimal.Decimal{}, &currency.ConversionError{From: from, To: to, AsOf: asOf, Err: err}
	}
	rate := "1"
	if r, ok := c.rates[from]; ok {
		rate = r
	}
	return decimal.NewFromInt(amount).Mul(decimal.RequireFromString(rate)), nil
}
