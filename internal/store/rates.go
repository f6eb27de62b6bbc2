package store

import (
	"context"

	"github.com/cleared-dev/tally/internal/model"
)

// SaveRates inserts exchange rate rows.
func (s *Store) SaveRates(ctx context.Context, rates []model.ExchangeRate) error {
	if len(rates) == 0 {
		return nil
	}
	return wrap("save rates", s.db.WithContext(ctx).Create(&rates).Error)
}

// ListRates returns every stored exchange rate ordered by pair and date.
func (s *Store) ListRates(ctx context.Context) ([]model.ExchangeRate, error) {
	var rates []model.ExchangeRate
	err := s.db.WithContext(ctx).
		Order("from_currency, to_currency, effective_at").
		Find(&rates).Error
	if err != nil {
		return nil, wrap("list rates", err)
	}
	return rates, nil
}
