package models

import "gorm.io/gorm"

// UserBook is the shelf entry linking a User to a Book
type UserBook struct {
	gorm.Model
	UserID uint `gorm:"not null;index"`
	BookID uint `gorm:"not null;index"`

	// Rating is absent until the user rates the book (1-5)
	Rating *int `gorm:"default:null"`

	User *User `gorm:"foreignKey:UserID" json:",omitempty"`
	Book *Book `gorm:"foreignKey:BookID" json:",omitempty"`
}
