package report

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/query"
)

// BackersParams scopes a backer stats report. A nil GroupIDs covers every
// group; a non-nil empty slice covers none.
type BackersParams struct {
	Start    time.Time // zero means the platform epoch
	End      time.Time // zero means now; exclusive
	GroupIDs []uint
}

// BackerStats classifies the donors of [Start, End) against their history
// since the platform epoch. The three donor sets are read concurrently.
func (s *Service) BackerStats(ctx context.Context, p BackersParams) (model.BackerStats, error) {
	start, end := s.window(p.Start, p.End)

	var allTime, before, during []uint
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		allTime, err = s.donors(gctx, s.epoch, end, p.GroupIDs)
		return err
	})
	g.Go(func() (err error) {
		before, err = s.donors(gctx, s.epoch, start, p.GroupIDs)
		return err
	})
	g.Go(func() (err error) {
		during, err = s.donors(gctx, start, end, p.GroupIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.BackerStats{}, err
	}

	stats := backerStats(allTime, before, during)
	s.log.Debug("backer stats",
		zap.Time("start", start),
		zap.Time("end", end),
		zap.Int("groups", len(p.GroupIDs)),
		zap.Int("total", stats.Total),
	)
	return stats, nil
}

func (s *Service) donors(ctx context.Context, from, to time.Time, groupIDs []uint) ([]uint, error) {
	f := query.Between(query.FieldCreatedAt, from, to).
		And(query.Eq(query.FieldType, model.TypeDonation))
	if groupIDs != nil {
		f = f.And(query.In(query.FieldGroupID, groupIDs))
	}
	ids, err := s.store.DistinctUserIDs(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("listing donors: %w", err)
	}
	return ids, nil
}

// backerStats derives the stats with explicit set operations so that
// Total == Repeat + New + Inactive holds even if a donor of the window is
// missing from the all-time set.
func backerStats(allTime, before, during []uint) model.BackerStats {
	all := toSet(allTime)
	prior := toSet(before)
	window := toSet(during)

	var stats model.BackerStats
	for id := range window {
		if prior[id] {
			stats.Repeat++
		}
	}
	stats.New = len(window) - stats.Repeat
	for id := range all {
		if !window[id] {
			stats.Inactive++
		}
	}
	stats.Total = stats.Repeat + stats.New + stats.Inactive
	return stats
}

func toSet(ids []uint) map[uint]bool {
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
