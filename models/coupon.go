package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Coupon struct {
	ID        uuid.UUID       `gorm:"type:char(36);primaryKey" json:"id"`
	Code      string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Value     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"value"`
	IsActive  bool            `gorm:"not null;default:true" json:"is_active"`
	Start     time.Time       `gorm:"type:date;not null" json:"start"`
	End       *time.Time      `gorm:"type:date" json:"end,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (c *Coupon) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	return nil
}

func (c Coupon) String() string {
	return c.Code
}

// IsValid reports whether the coupon can be redeemed on the calendar day of today.
func (c Coupon) IsValid(today time.Time) bool {
	if !c.IsActive {
		return false
	}
	day := dateOf(today)
	if day.Before(dateOf(c.Start)) {
		return false
	}
	if c.End != nil && day.After(dateOf(*c.End)) {
		return false
	}
	return true
}

// DiscountFor is the amount taken off total, capped so the result never goes negative.
func (c Coupon) DiscountFor(total decimal.Decimal) decimal.Decimal {
	if c.Value.IsNegative() || total.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(c.Value, total)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
