package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is a user's role within a group.
type Role string

const (
	RoleHost   Role = "HOST"
	RoleMember Role = "MEMBER"
	RoleBacker Role = "BACKER"
)

// Group is a fundraising collective.
type Group struct {
	ID        uint       `gorm:"primaryKey" yaml:"id"`
	Name      string     `gorm:"size:255" yaml:"name"`
	Slug      string     `gorm:"size:255;index" yaml:"slug"`
	Currency  string     `gorm:"size:3;default:USD" yaml:"currency"`
	CreatedAt time.Time  `yaml:"created_at"`
	DeletedAt *time.Time `gorm:"index" yaml:"deleted_at,omitempty"`
}

// UserGroup links a user to a group with a role. A HOST membership makes the
// user the fee-collecting host of that group.
type UserGroup struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"index"`
	GroupID   uint `gorm:"index"`
	Role      Role `gorm:"size:16"`
	CreatedAt time.Time
	DeletedAt *time.Time `gorm:"index"`
}

// Event belongs to a group and owns ticket tiers.
type Event struct {
	ID        uint   `gorm:"primaryKey"`
	GroupID   uint   `gorm:"index"`
	Name      string `gorm:"size:255"`
	Slug      string `gorm:"size:255"`
	StartsAt  time.Time
	EndsAt    time.Time
	CreatedAt time.Time
}

// Reservation is a user's claim on a quantity of a tier. Only confirmed
// reservations count against the tier's quantity.
type Reservation struct {
	ID          uint `gorm:"primaryKey"`
	TierID      uint `gorm:"index"`
	UserID      uint `gorm:"index"`
	Quantity    int64
	ConfirmedAt *time.Time
	CreatedAt   time.Time
}

// ExchangeRate is the rate from one currency to another effective from a date onward.
type ExchangeRate struct {
	ID           uint            `gorm:"primaryKey"`
	FromCurrency string          `gorm:"size:3;index:idx_rate_pair,priority:1"`
	ToCurrency   string          `gorm:"size:3;index:idx_rate_pair,priority:2"`
	Rate         decimal.Decimal `gorm:"type:decimal(20,10)"`
	EffectiveAt  time.Time       `gorm:"index:idx_rate_pair,priority:3"`
}
