package report

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/tally/internal/model"
)

// HostedGroups returns the live groups hostID hosted before endDate (zero
// means now).
func (s *Service) HostedGroups(ctx context.Context, hostID uint, endDate time.Time) ([]model.Group, error) {
	if endDate.IsZero() {
		endDate = s.now()
	}
	endDate = endDate.UTC()
	groups, err := s.store.HostedGroups(ctx, hostID, endDate)
	if err != nil {
		return nil, fmt.Errorf("listing groups of host %d: %w", hostID, err)
	}
	return groups, nil
}

// HostReport gathers the totals of every group a host is responsible for.
type HostReport struct {
	HostID    uint                  `yaml:"host_id"`
	Currency  string                `yaml:"currency"`
	Start     time.Time             `yaml:"start"`
	End       time.Time             `yaml:"end"`
	Groups    []model.Group         `yaml:"groups"`
	HostFees  model.AggregateResult `yaml:"host_fees"`
	Donations model.AggregateResult `yaml:"donations"`
	Backers   model.BackerStats     `yaml:"backers"`
}

// HostReport resolves the groups hosted as of the end of the period and then
// computes host fees, net donations and backer stats over them concurrently.
func (s *Service) HostReport(ctx context.Context, hostID uint, start, end time.Time, hostCurrency string) (HostReport, error) {
	start, end = s.window(start, end)
	if hostCurrency == "" {
		hostCurrency = DefaultCurrency
	}
	rep := HostReport{
		HostID:    hostID,
		Currency:  model.NormalizeCurrency(hostCurrency),
		Start:     start,
		End:       end,
		HostFees:  model.AggregateResult{ByCurrency: []model.CurrencySum{}},
		Donations: model.AggregateResult{ByCurrency: []model.CurrencySum{}},
	}

	groups, err := s.HostedGroups(ctx, hostID, end)
	if err != nil {
		return HostReport{}, err
	}
	rep.Groups = groups
	if len(groups) == 0 {
		return rep, nil
	}

	ids := make([]uint, len(groups))
	for i, grp := range groups {
		ids[i] = grp.ID
	}
	params := TotalsParams{GroupIDs: ids, Start: start, End: end, HostCurrency: rep.Currency}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		rep.HostFees, err = s.TotalHostFees(gctx, params)
		return err
	})
	g.Go(func() (err error) {
		p := params
		p.Type = model.TypeDonation
		rep.Donations, err = s.TotalNetAmount(gctx, p)
		return err
	})
	g.Go(func() (err error) {
		rep.Backers, err = s.BackerStats(gctx, BackersParams{Start: start, End: end, GroupIDs: ids})
		return err
	})
	if err := g.Wait(); err != nil {
		return HostReport{}, err
	}
	return rep, nil
}
