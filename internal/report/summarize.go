package report

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/query"
)

// SumByCurrency sums attr over the transactions matching f, per currency.
// The order of the returned sums is not significant.
func (s *Service) SumByCurrency(ctx context.Context, attr query.Attribute, f query.Filter) ([]model.CurrencySum, error) {
	sums, err := s.store.SumByCurrency(ctx, attr, f)
	if err != nil {
		return nil, fmt.Errorf("summing %s by currency: %w", attr, err)
	}
	return sums, nil
}

// Summarize sums attr per currency over the transactions matching f and
// converts every sum to target. All conversions must succeed; the first
// failure aborts the summary.
//
// The conversion date is asOf when set, else the upper createdAt bound of f,
// else its lower bound, else now.
func (s *Service) Summarize(ctx context.Context, attr query.Attribute, f query.Filter, target string, asOf time.Time) (model.AggregateResult, error) {
	if target == "" {
		target = DefaultCurrency
	}
	target = model.NormalizeCurrency(target)
	asOf = s.asOfDate(f, asOf)

	sums, err := s.SumByCurrency(ctx, attr, f)
	if err != nil {
		return model.AggregateResult{}, err
	}

	converted := make([]decimal.Decimal, len(sums))
	g, gctx := errgroup.WithContext(ctx)
	for i, cs := range sums {
		g.Go(func() error {
			v, err := s.conv.Convert(gctx, cs.Amount, cs.Currency, target, asOf)
			if err != nil {
				return err
			}
			converted[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Warn("conversion failed", zap.String("attribute", string(attr)), zap.String("target", target), zap.Error(err))
		return model.AggregateResult{}, err
	}

	total := decimal.Zero
	for _, v := range converted {
		total = total.Add(v)
	}

	res := model.AggregateResult{
		ByCurrency:          sums,
		TotalInHostCurrency: roundHalfUp(total),
	}
	s.log.Debug("summarized",
		zap.String("attribute", string(attr)),
		zap.Int("currencies", len(sums)),
		zap.String("target", target),
		zap.Time("as_of", asOf),
		zap.Int64("total", res.TotalInHostCurrency),
	)
	return res, nil
}

// roundHalfUp rounds to whole cents with halves going toward positive
// infinity: 2.5 -> 3, -2.5 -> -2.
func roundHalfUp(d decimal.Decimal) int64 {
	return d.Add(decimal.New(5, -1)).Floor().IntPart()
}

func (s *Service) asOfDate(f query.Filter, asOf time.Time) time.Time {
	if !asOf.IsZero() {
		return asOf
	}
	from, to := f.DateBounds(query.FieldCreatedAt)
	switch {
	case to != nil:
		return *to
	case from != nil:
		return *from
	default:
		return s.now()
	}
}
