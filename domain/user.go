package domain

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	FirstName   string         `gorm:"column:first_name;not null" json:"first_name"`
	LastName    string         `gorm:"column:last_name" json:"last_name"`
	Email       string         `gorm:"column:email;unique;not null" json:"email"`
	Phone       string         `gorm:"column:phone;unique;not null" json:"phone"`
	Password    string         `gorm:"column:password;not null" json:"-"`
	IsAdmin     bool           `gorm:"column:is_admin;default:false" json:"is_admin"`
	IsActivated bool           `gorm:"column:is_activated;default:false" json:"is_activated"`
	Balance     float64        `gorm:"column:balance;default:0" json:"balance"`
	Gems        int64          `gorm:"column:gems;default:0" json:"gems"`
	Spins       int64          `gorm:"column:spins;default:10" json:"spins"`
	TotalSpins  int64          `gorm:"column:total_spins;default:0" json:"total_spins"`
	ActivatedAt *time.Time     `gorm:"column:activated_at" json:"activated_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// LedgerDelta is a signed adjustment to a user's ledger fields. The store
// clamps the resulting balance, gems and spins at zero; the total spins
// increment is decided server-side and never taken from a client.
type LedgerDelta struct {
	Balance             float64
	Gems                int64
	Spins               int64
	TotalSpinsIncrement int64
}

const (
	// DefaultSpins is granted to every new account.
	DefaultSpins = 10
	// ActivationBonusSpins is credited once per successful charge.
	ActivationBonusSpins = 50
)
