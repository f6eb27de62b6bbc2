package store

import (
	"context"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/query"
)

// SumByCurrency sums attr over the transactions matching f, one row per
// currency present in the matching set.
func (s *Store) SumByCurrency(ctx context.Context, attr query.Attribute, f query.Filter) ([]model.CurrencySum, error) {
	col, err := attr.Column()
	if err != nil {
		return nil, err
	}
	db, err := where(s.db.WithContext(ctx).Model(&model.Transaction{}), f)
	if err != nil {
		return nil, err
	}

	sums := []model.CurrencySum{}
	err = db.Select("currency, COALESCE(SUM(" + col + "), 0) AS amount").
		Group("currency").
		Order("currency").
		Scan(&sums).Error
	if err != nil {
		return nil, wrap("sum by currency", err)
	}
	return sums, nil
}

// DistinctUserIDs returns the distinct user IDs of the transactions matching f.
func (s *Store) DistinctUserIDs(ctx context.Context, f query.Filter) ([]uint, error) {
	db, err := where(s.db.WithContext(ctx).Model(&model.Transaction{}), f)
	if err != nil {
		return nil, err
	}

	var ids []uint
	if err := db.Distinct().Pluck("user_id", &ids).Error; err != nil {
		return nil, wrap("distinct user ids", err)
	}
	return ids, nil
}

// CreateTransactions inserts txns in one batch.
func (s *Store) CreateTransactions(ctx context.Context, txns []model.Transaction) error {
	if len(txns) == 0 {
		return nil
	}
	return wrap("create transactions", s.db.WithContext(ctx).Create(&txns).Error)
}
