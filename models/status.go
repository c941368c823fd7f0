package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Status struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:varchar(255)" json:"description"`
}

func (s *Status) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}

func (s Status) String() string {
	return s.Name
}
