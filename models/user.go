package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"`
	Phone     string    `gorm:"type:varchar(12)" json:"phone"`
	Address   string    `gorm:"type:varchar(255)" json:"address"`
	City      string    `gorm:"type:varchar(100)" json:"city"`
	Country   string    `gorm:"type:varchar(100)" json:"country"`
	Zip       string    `gorm:"type:varchar(100)" json:"zip"`
	FirstName string    `gorm:"type:varchar(150)" json:"first_name"`
	LastName  string    `gorm:"type:varchar(150)" json:"last_name"`
	IsAdmin   bool      `gorm:"not null;default:false" json:"is_admin"`
	IsStaff   bool      `gorm:"not null;default:false" json:"is_staff"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	Wishlist  []Food    `gorm:"many2many:wishlists;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	assignID(&u.ID)
	return nil
}

// String renders the user the way order and review listings show it.
func (u User) String() string {
	return fmt.Sprintf("%s %s", u.LastName, u.FirstName)
}

// Role collapses the permission flags into the role carried by auth tokens.
func (u User) Role() string {
	switch {
	case u.IsAdmin:
		return RoleAdmin
	case u.IsStaff:
		return RoleStaff
	default:
		return RoleCustomer
	}
}

const (
	RoleAdmin    = "admin"
	RoleStaff    = "staff"
	RoleCustomer = "customer"
)

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
