// Package report computes host reporting aggregates: multi-currency sums of
// transaction attributes, host fee and net amount totals, backer retention
// stats, and the groups a host is responsible for.
package report

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cleared-dev/tally/internal/currency"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/query"
)

// DefaultCurrency is the host currency used when none is given.
const DefaultCurrency = "USD"

// PlatformEpoch is the start of the platform's transaction history.
var PlatformEpoch = time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)

// Store is the datastore surface the reports read from.
type Store interface {
	SumByCurrency(ctx context.Context, attr query.Attribute, f query.Filter) ([]model.CurrencySum, error)
	DistinctUserIDs(ctx context.Context, f query.Filter) ([]uint, error)
	HostedGroups(ctx context.Context, hostID uint, endDate time.Time) ([]model.Group, error)
}

// Service runs reports against a Store, converting with a Converter.
type Service struct {
	store Store
	conv  currency.Converter
	log   *zap.Logger
	epoch time.Time
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithEpoch overrides the platform epoch used as the default start date.
func WithEpoch(epoch time.Time) Option {
	return func(s *Service) { s.epoch = epoch }
}

// WithClock overrides the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a report Service.
func NewService(store Store, conv currency.Converter, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store: store,
		conv:  conv,
		log:   log.Named("report"),
		epoch: PlatformEpoch,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// window fills in the default date range, epoch through now, in UTC.
func (s *Service) window(start, end time.Time) (time.Time, time.Time) {
	if start.IsZero() {
		start = s.epoch
	}
	if end.IsZero() {
		end = s.now()
	}
	return start.UTC(), end.UTC()
}
