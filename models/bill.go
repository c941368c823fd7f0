package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Bill is both the user's cart and a placed order, told apart by Status.
// CartOwnerID holds the user id only while the bill is that user's cart; the unique
// index on it keeps a user from owning two carts.
type Bill struct {
	ID              uuid.UUID       `gorm:"type:char(36);primaryKey" json:"id"`
	UserID          uuid.UUID       `gorm:"type:char(36);not null;index" json:"user_id"`
	User            User            `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	StatusID        uuid.UUID       `gorm:"type:char(36);not null;index" json:"status_id"`
	Status          Status          `gorm:"foreignKey:StatusID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"status"`
	CouponID        *uuid.UUID      `gorm:"type:char(36);index" json:"coupon_id,omitempty"`
	Coupon          *Coupon         `gorm:"foreignKey:CouponID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"coupon,omitempty"`
	CartOwnerID     *uuid.UUID      `gorm:"type:char(36);uniqueIndex" json:"-"`
	Total           decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total"`
	Discount        decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"discount"`
	DeliveryCharges decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"delivery_charges"`
	Recipient       string          `gorm:"type:varchar(50)" json:"recipient"`
	Phone           string          `gorm:"type:varchar(12)" json:"phone"`
	Address         string          `gorm:"type:varchar(255)" json:"address"`
	City            string          `gorm:"type:varchar(100)" json:"city"`
	Country         string          `gorm:"type:varchar(100)" json:"country"`
	Zip             string          `gorm:"type:varchar(100)" json:"zip"`
	ShippingNote    string          `gorm:"type:text" json:"shipping_note"`
	OrderDate       time.Time       `gorm:"not null" json:"order_date"`
	ReceivedDate    *time.Time      `json:"received_date,omitempty"`
	Items           []Item          `gorm:"foreignKey:BillID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"items"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (b *Bill) BeforeCreate(tx *gorm.DB) error {
	assignID(&b.ID)
	if b.OrderDate.IsZero() {
		b.OrderDate = time.Now()
	}
	return nil
}

func (b Bill) String() string {
	return b.ID.String()
}

// Subtotal sums the line totals of the loaded items.
func (b Bill) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range b.Items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}

// ItemCount is the number of units across all loaded items.
func (b Bill) ItemCount() int {
	n := 0
	for _, item := range b.Items {
		n += item.Quantity
	}
	return n
}

type Item struct {
	ID        uuid.UUID       `gorm:"type:char(36);primaryKey" json:"id"`
	BillID    uuid.UUID       `gorm:"type:char(36);not null;uniqueIndex:ux_items_bill_food" json:"bill_id"`
	FoodID    uuid.UUID       `gorm:"type:char(36);not null;uniqueIndex:ux_items_bill_food" json:"food_id"`
	Food      Food            `gorm:"foreignKey:FoodID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"food"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"unit_price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (i *Item) BeforeCreate(tx *gorm.DB) error {
	assignID(&i.ID)
	return nil
}

func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
