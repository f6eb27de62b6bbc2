package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/query"
)

// CreateTier inserts t and sets its ID and timestamps.
func (s *Store) CreateTier(ctx context.Context, t *model.Tier) error {
	return wrap("create tier", s.db.WithContext(ctx).Create(t).Error)
}

// SaveTier writes every column of t.
func (s *Store) SaveTier(ctx context.Context, t *model.Tier) error {
	return wrap("save tier", s.db.WithContext(ctx).Save(t).Error)
}

// GetTier returns a tier that has not been soft deleted.
func (s *Store) GetTier(ctx context.Context, id uint) (model.Tier, error) {
	var t model.Tier
	err := visible(s.db.WithContext(ctx)).First(&t, id).Error
	return t, wrap("get tier", err)
}

// ListTiers returns the live tiers, restricted to one event when eventID is set.
func (s *Store) ListTiers(ctx context.Context, eventID *uint) ([]model.Tier, error) {
	db := visible(s.db.WithContext(ctx))
	if eventID != nil {
		db = apply(db, query.Eq(query.FieldEventID, *eventID))
	}
	tiers := []model.Tier{}
	if err := db.Order("id").Find(&tiers).Error; err != nil {
		return nil, wrap("list tiers", err)
	}
	return tiers, nil
}

// SoftDeleteTier marks a live tier as deleted at the given time.
func (s *Store) SoftDeleteTier(ctx context.Context, id uint, at time.Time) error {
	res := visible(s.db.WithContext(ctx).Model(&model.Tier{})).
		Where("id = ?", id).
		Update("deleted_at", at.UTC())
	if res.Error != nil {
		return wrap("soft delete tier", res.Error)
	}
	if res.RowsAffected == 0 {
		return wrap("soft delete tier", gorm.ErrRecordNotFound)
	}
	return nil
}

// SumReservedQuantity sums the quantity of the reservations matching f.
func (s *Store) SumReservedQuantity(ctx context.Context, f query.Filter) (int64, error) {
	db, err := where(s.db.WithContext(ctx).Model(&model.Reservation{}), f)
	if err != nil {
		return 0, err
	}
	var total int64
	if err := db.Select("COALESCE(SUM(quantity), 0)").Scan(&total).Error; err != nil {
		return 0, wrap("sum reserved quantity", err)
	}
	return total, nil
}

// CreateReservation inserts r and sets its ID.
func (s *Store) CreateReservation(ctx context.Context, r *model.Reservation) error {
	return wrap("create reservation", s.db.WithContext(ctx).Create(r).Error)
}
