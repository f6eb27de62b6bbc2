package model

import (
	"strconv"
	"strings"
	"time"
)

// TierType classifies what a tier sells.
type TierType string

const (
	TierBacker  TierType = "BACKER"
	TierSponsor TierType = "SPONSOR"
	TierTicket  TierType = "TICKET"
	TierGoal    TierType = "GOAL"
)

// DefaultTierCurrency is used when a tier is created without a currency.
const DefaultTierCurrency = "USD"

// Tier is a priced reservation tier (ticket, sponsorship, goal) with an
// optional quantity cap. EventID is a weak reference: deleting the event
// clears it.
type Tier struct {
	ID                 uint       `gorm:"primaryKey" yaml:"id"`
	EventID            *uint      `gorm:"index" yaml:"event_id,omitempty"`
	Slug               string     `gorm:"size:255;index" yaml:"slug"`
	Name               string     `gorm:"size:255;not null" yaml:"name" validate:"required"`
	Description        string     `gorm:"size:1024" yaml:"description,omitempty"`
	Type               TierType   `gorm:"size:16;default:TICKET" yaml:"type" validate:"oneof=BACKER SPONSOR TICKET GOAL"`
	Amount             int64      `yaml:"amount" validate:"gte=0"` // cents
	Currency           string     `gorm:"size:3;default:USD" yaml:"currency" validate:"len=3"`
	MaxQuantity        int64      `yaml:"max_quantity" validate:"gte=0"`          // 0 = unlimited
	MaxQuantityPerUser int64      `yaml:"max_quantity_per_user" validate:"gte=0"` // 0 = unlimited
	Goal               int64      `yaml:"goal" validate:"gte=0"`
	Password           string     `gorm:"size:255" yaml:"-"`
	StartsAt           time.Time  `yaml:"starts_at"`
	EndsAt             time.Time  `yaml:"ends_at"`
	CreatedAt          time.Time  `yaml:"created_at"`
	UpdatedAt          time.Time  `yaml:"updated_at"`
	DeletedAt          *time.Time `gorm:"index" yaml:"deleted_at,omitempty"`
}

// NormalizeSlug lowercases s and replaces spaces with hyphens.
// "Early Bird" -> "early-bird"
func NormalizeSlug(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "-")
}

// NormalizeCurrency uppercases an ISO currency code.
func NormalizeCurrency(c string) string {
	return strings.ToUpper(strings.TrimSpace(c))
}

// Normalize applies the tier field transforms and defaults. The slug is
// derived from the name only when no slug was set.
func (t *Tier) Normalize() {
	if t.Slug == "" {
		t.Slug = t.Name
	}
	t.Slug = NormalizeSlug(t.Slug)
	t.Currency = NormalizeCurrency(t.Currency)
	if t.Currency == "" {
		t.Currency = DefaultTierCurrency
	}
	if t.Type == "" {
		t.Type = TierTicket
	}
}

// Deleted reports whether the tier has been soft deleted.
func (t Tier) Deleted() bool {
	return t.DeletedAt != nil
}

// TierInfo is the public projection of a tier.
type TierInfo struct {
	ID          uint      `json:"id" yaml:"id"`
	EventID     *uint     `json:"EventId" yaml:"event_id,omitempty"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description,omitempty"`
	Amount      int64     `json:"amount" yaml:"amount"`
	Currency    string    `json:"currency" yaml:"currency"`
	MaxQuantity int64     `json:"maxQuantity" yaml:"max_quantity"`
	StartsAt    time.Time `json:"startsAt" yaml:"starts_at"`
	EndsAt      time.Time `json:"endsAt" yaml:"ends_at"`
	CreatedAt   time.Time `json:"createdAt" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"updated_at"`
}

// Info returns the public projection of the tier.
func (t Tier) Info() TierInfo {
	return TierInfo{
		ID:          t.ID,
		EventID:     t.EventID,
		Name:        t.Name,
		Description: t.Description,
		Amount:      t.Amount,
		Currency:    t.Currency,
		MaxQuantity: t.MaxQuantity,
		StartsAt:    t.StartsAt,
		EndsAt:      t.EndsAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// Availability is the remaining quantity of a tier. Unlimited tiers carry no
// meaningful Remaining.
type Availability struct {
	Unlimited bool  `yaml:"unlimited"`
	Remaining int64 `yaml:"remaining"` // negative when oversold
}

// Allows reports whether needed units fit in the remaining quantity.
func (a Availability) Allows(needed int64) bool {
	if a.Unlimited {
		return true
	}
	return a.Remaining-needed >= 0
}

// AvailabilityFor computes availability from the tier cap and the confirmed quantity.
func AvailabilityFor(maxQuantity, used int64) Availability {
	if maxQuantity == 0 {
		return Availability{Unlimited: true}
	}
	return Availability{Remaining: maxQuantity - used}
}

func (a Availability) String() string {
	if a.Unlimited {
		return "unlimited"
	}
	return strconv.FormatInt(a.Remaining, 10)
}
