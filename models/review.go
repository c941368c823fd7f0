package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review ratings are only range-checked by Validate; the column itself accepts any integer.
type Review struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:char(36);not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user"`
	FoodID    uuid.UUID `gorm:"type:char(36);not null;index" json:"food_id"`
	Rating    int       `gorm:"not null" json:"rating" validate:"gte=1,lte=5"`
	Comment   string    `gorm:"type:text" json:"comment"`
	Replies   []Reply   `gorm:"foreignKey:ReviewID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"replies"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	assignID(&r.ID)
	return nil
}

func (r *Review) Validate() error {
	return Validate(r)
}

type Reply struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	ReviewID  uuid.UUID `gorm:"type:char(36);not null;index" json:"review_id"`
	UserID    uuid.UUID `gorm:"type:char(36);not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user"`
	Content   string    `gorm:"type:text;not null" json:"content" validate:"required"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Reply) BeforeCreate(tx *gorm.DB) error {
	assignID(&r.ID)
	return nil
}

func (r *Reply) Validate() error {
	return Validate(r)
}
