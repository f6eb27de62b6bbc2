// Package tier manages priced reservation tiers and their remaining quantity.
package tier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/query"
	"github.com/cleared-dev/tally/internal/store"
)

var (
	// ErrNotFound is returned for a missing or soft deleted tier.
	ErrNotFound = errors.New("tier not found")
	// ErrSoldOut is returned when a reservation needs more than remains.
	ErrSoldOut = errors.New("tier sold out")
	// ErrPerUserLimit is returned when a reservation would take a user past
	// the tier's per-user cap.
	ErrPerUserLimit = errors.New("per-user quantity exceeded")
)

// Store is the datastore surface tiers are kept in.
type Store interface {
	CreateTier(ctx context.Context, t *model.Tier) error
	SaveTier(ctx context.Context, t *model.Tier) error
	GetTier(ctx context.Context, id uint) (model.Tier, error)
	ListTiers(ctx context.Context, eventID *uint) ([]model.Tier, error)
	SoftDeleteTier(ctx context.Context, id uint, at time.Time) error
	SumReservedQuantity(ctx context.Context, f query.Filter) (int64, error)
	CreateReservation(ctx context.Context, r *model.Reservation) error
}

// Service provides tier business logic.
type Service struct {
	store    Store
	validate *validator.Validate
	log      *zap.Logger
	now      func() time.Time
}

// NewService creates a tier Service.
func NewService(store Store, log *zap.Logger) *Service {
	return &Service{
		store:    store,
		validate: validator.New(),
		log:      log.Named("tier"),
		now:      time.Now,
	}
}

// Create normalizes, validates and inserts t. An unset sale window opens and
// closes at creation time.
func (s *Service) Create(ctx context.Context, t *model.Tier) error {
	t.Normalize()
	now := s.now().UTC()
	if t.StartsAt.IsZero() {
		t.StartsAt = now
	}
	if t.EndsAt.IsZero() {
		t.EndsAt = now
	}
	if err := s.validate.Struct(t); err != nil {
		return fmt.Errorf("invalid tier %q: %w", t.Name, err)
	}
	if err := s.store.CreateTier(ctx, t); err != nil {
		return err
	}
	s.log.Info("tier created", zap.Uint("id", t.ID), zap.String("slug", t.Slug))
	return nil
}

// CreateMany creates tiers one at a time, in order. Zero fields of each tier
// take the value from defaults. It stops at the first failure and returns the
// tiers created before it along with the error.
func (s *Service) CreateMany(ctx context.Context, tiers []model.Tier, defaults model.Tier) ([]model.Tier, error) {
	created := make([]model.Tier, 0, len(tiers))
	for i := range tiers {
		t := withDefaults(tiers[i], defaults)
		if err := s.Create(ctx, &t); err != nil {
			return created, fmt.Errorf("creating tier %d of %d: %w", i+1, len(tiers), err)
		}
		created = append(created, t)
	}
	return created, nil
}

// Get returns a live tier.
func (s *Service) Get(ctx context.Context, id uint) (model.Tier, error) {
	t, err := s.store.GetTier(ctx, id)
	if err != nil {
		return model.Tier{}, notFound(id, err)
	}
	return t, nil
}

// List returns the live tiers, optionally restricted to one event.
func (s *Service) List(ctx context.Context, eventID *uint) ([]model.Tier, error) {
	return s.store.ListTiers(ctx, eventID)
}

// Update re-normalizes, validates and saves t.
func (s *Service) Update(ctx context.Context, t *model.Tier) error {
	if t.Deleted() {
		return fmt.Errorf("tier %d: %w", t.ID, ErrNotFound)
	}
	t.Normalize()
	if err := s.validate.Struct(t); err != nil {
		return fmt.Errorf("invalid tier %q: %w", t.Name, err)
	}
	return s.store.SaveTier(ctx, t)
}

// Delete soft deletes a tier. Its reservations are kept.
func (s *Service) Delete(ctx context.Context, id uint) error {
	if err := s.store.SoftDeleteTier(ctx, id, s.now()); err != nil {
		return notFound(id, err)
	}
	s.log.Info("tier deleted", zap.Uint("id", id))
	return nil
}

// AvailableQuantity returns what remains of t once its confirmed reservations
// are taken out. A tier without a cap is unlimited regardless of usage.
func (s *Service) AvailableQuantity(ctx context.Context, t model.Tier) (model.Availability, error) {
	if t.MaxQuantity == 0 {
		return model.AvailabilityFor(0, 0), nil
	}
	used, err := s.store.SumReservedQuantity(ctx, confirmed(t.ID))
	if err != nil {
		return model.Availability{}, fmt.Errorf("tier %d used quantity: %w", t.ID, err)
	}
	return model.AvailabilityFor(t.MaxQuantity, used), nil
}

// CheckAvailableQuantity reports whether needed more units of t can be sold.
func (s *Service) CheckAvailableQuantity(ctx context.Context, t model.Tier, needed int64) (bool, error) {
	avail, err := s.AvailableQuantity(ctx, t)
	if err != nil {
		return false, err
	}
	return avail.Allows(needed), nil
}

// Reserve records a confirmed reservation of quantity units of a tier for a
// user. The availability check and the insert are not atomic.
func (s *Service) Reserve(ctx context.Context, tierID, userID uint, quantity int64) (model.Reservation, error) {
	if quantity <= 0 {
		return model.Reservation{}, fmt.Errorf("invalid quantity %d", quantity)
	}
	t, err := s.Get(ctx, tierID)
	if err != nil {
		return model.Reservation{}, err
	}

	ok, err := s.CheckAvailableQuantity(ctx, t, quantity)
	if err != nil {
		return model.Reservation{}, err
	}
	if !ok {
		return model.Reservation{}, fmt.Errorf("tier %d, %d requested: %w", t.ID, quantity, ErrSoldOut)
	}

	if t.MaxQuantityPerUser > 0 {
		mine, err := s.store.SumReservedQuantity(ctx, confirmed(t.ID).And(query.Eq(query.FieldUserID, userID)))
		if err != nil {
			return model.Reservation{}, fmt.Errorf("tier %d quantity of user %d: %w", t.ID, userID, err)
		}
		if mine+quantity > t.MaxQuantityPerUser {
			return model.Reservation{}, fmt.Errorf("tier %d, user %d: %w", t.ID, userID, ErrPerUserLimit)
		}
	}

	now := s.now()
	r := model.Reservation{TierID: t.ID, UserID: userID, Quantity: quantity, ConfirmedAt: &now}
	if err := s.store.CreateReservation(ctx, &r); err != nil {
		return model.Reservation{}, err
	}
	s.log.Info("reserved",
		zap.Uint("tier", t.ID),
		zap.Uint("user", userID),
		zap.Int64("quantity", quantity),
	)
	return r, nil
}

func confirmed(tierID uint) query.Filter {
	return query.Filter{
		query.Eq(query.FieldTierID, tierID),
		query.NotNull(query.FieldConfirmedAt),
	}
}

func notFound(id uint, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("tier %d: %w", id, ErrNotFound)
	}
	return err
}

func withDefaults(t, d model.Tier) model.Tier {
	if t.EventID == nil {
		t.EventID = d.EventID
	}
	if t.Description == "" {
		t.Description = d.Description
	}
	if t.Type == "" {
		t.Type = d.Type
	}
	if t.Amount == 0 {
		t.Amount = d.Amount
	}
	if t.Currency == "" {
		t.Currency = d.Currency
	}
	if t.MaxQuantity == 0 {
		t.MaxQuantity = d.MaxQuantity
	}
	if t.MaxQuantityPerUser == 0 {
		t.MaxQuantityPerUser = d.MaxQuantityPerUser
	}
	if t.Goal == 0 {
		t.Goal = d.Goal
	}
	if t.Password == "" {
		t.Password = d.Password
	}
	if t.StartsAt.IsZero() {
		t.StartsAt = d.StartsAt
	}
	if t.EndsAt.IsZero() {
		t.EndsAt = d.EndsAt
	}
	return t
}
