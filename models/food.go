package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Food struct {
	ID          uuid.UUID       `gorm:"type:char(36);primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(45);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"price"`
	Discount    int             `gorm:"not null;default:0" json:"discount"`
	OrderCount  int             `gorm:"not null;default:0" json:"order_count"`
	Images      []Image         `gorm:"foreignKey:FoodID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"images"`
	Reviews     []Review        `gorm:"foreignKey:FoodID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"reviews,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (f *Food) BeforeCreate(tx *gorm.DB) error {
	assignID(&f.ID)
	return nil
}

func (f Food) String() string {
	return f.Name
}

type Image struct {
	ID     uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	FoodID uuid.UUID `gorm:"type:char(36);not null;index" json:"food_id"`
	URL    string    `gorm:"type:varchar(255);not null" json:"url"`
}

func (i *Image) BeforeCreate(tx *gorm.DB) error {
	assignID(&i.ID)
	return nil
}

func (i Image) String() string {
	return i.URL
}
