package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	ProfileImage     string `gorm:"default:''"`
	Name             string `gorm:"default:''"`
	Email            string `gorm:"unique;not null"`
	Mobile           string `gorm:"default:''"`
	Role             string `gorm:"default:'USER'"` // USER, ADMIN
	Password         string `gorm:"not null" json:"-"`
	IsMobileVerified bool   `gorm:"default:false"`
	IsEmailVerified  bool   `gorm:"default:false"`

	// Wallet state. Mutated only by the ledger package on transaction
	// completion; request handlers never write these directly.
	Balance     float64 `gorm:"default:0"`
	TotalSpent  float64 `gorm:"default:0"`
	TotalEarned float64 `gorm:"default:0"`

	LastLogin time.Time `gorm:"default:NULL"`
	IsDeleted bool      `gorm:"default:false"`
}
