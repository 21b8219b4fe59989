package models

import (
	"gorm.io/gorm"
)

// ListingType defines the kind of classified listing
type ListingType string

const (
	ListingTypeTuition  ListingType = "TUITION"
	ListingTypeProperty ListingType = "PROPERTY"
)

// Listing is a classified post. Contact fields are the paid resource:
// they are returned only to the poster or after a completed unlock.
type Listing struct {
	gorm.Model
	PosterID    uint        `gorm:"not null;index" json:"posterId"`
	ListingType ListingType `gorm:"type:varchar(20);not null" json:"listingType"`
	Title       string      `gorm:"type:varchar(255);not null" json:"title"`
	Description string      `gorm:"type:text" json:"description"`
	Location    string      `gorm:"type:varchar(255)" json:"location"`
	Price       float64     `gorm:"default:0" json:"price"` // expected salary / rent

	ContactName  string `gorm:"type:varchar(100)" json:"-"`
	ContactPhone string `gorm:"type:varchar(30)" json:"-"`
	ContactEmail string `gorm:"type:varchar(100)" json:"-"`

	IsActive  bool `gorm:"default:true" json:"isActive"`
	IsDeleted bool `gorm:"default:false" json:"isDeleted"`
}
