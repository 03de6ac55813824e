package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Phone is a contact number owned by exactly one user. Phones carry no
// identity of their own: replacing a user's phone list drops and recreates
// the rows rather than diffing them.
type Phone struct {
	ID          uuid.UUID `json:"-" gorm:"type:char(36);primaryKey"`
	UserID      uuid.UUID `json:"-" gorm:"type:char(36);not null;index"`
	Number      string    `json:"number" gorm:"size:20;not null"`
	CityCode    string    `json:"citycode" gorm:"size:8;not null"`
	CountryCode string    `json:"countrycode" gorm:"size:8;not null"`
}

// BeforeCreate sets UUID before creating the record.
func (p *Phone) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
