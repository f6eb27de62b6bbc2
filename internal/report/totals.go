package report

import (
	"context"
	"time"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/query"
)

// TotalsParams scopes a host fee or net amount total.
type TotalsParams struct {
	GroupIDs     []uint
	Type         model.TransactionType // optional
	Start        time.Time             // zero means the platform epoch
	End          time.Time             // zero means now; exclusive
	HostCurrency string                // empty means USD
}

// TotalHostFees sums the host fees collected on the given groups.
func (s *Service) TotalHostFees(ctx context.Context, p TotalsParams) (model.AggregateResult, error) {
	return s.total(ctx, query.AttrHostFee, p)
}

// TotalNetAmount sums the net amounts received by the given groups.
func (s *Service) TotalNetAmount(ctx context.Context, p TotalsParams) (model.AggregateResult, error) {
	return s.total(ctx, query.AttrNetAmount, p)
}

func (s *Service) total(ctx context.Context, attr query.Attribute, p TotalsParams) (model.AggregateResult, error) {
	start, end := s.window(p.Start, p.End)
	f := query.Between(query.FieldCreatedAt, start, end).
		And(query.In(query.FieldGroupID, p.GroupIDs))
	if p.Type != "" {
		f = f.And(query.Eq(query.FieldType, p.Type))
	}
	return s.Summarize(ctx, attr, f, p.HostCurrency, time.Time{})
}
