package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a registered account holder.
type User struct {
	ID           uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	Name         string     `json:"name" gorm:"size:255;not null"`
	Email        string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Token        string     `json:"token" gorm:"size:512"`
	Created      time.Time  `json:"created"`
	Modified     *time.Time `json:"modified,omitempty"`
	LastLogin    time.Time  `json:"last_login"`
	Active       bool       `json:"active" gorm:"default:true;index"`

	// Relations
	Phones []Phone `json:"phones" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
