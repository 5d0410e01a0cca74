package models

import "gorm.io/gorm"

// User represents a reader identified by an externally issued Auth0 subject
type User struct {
	gorm.Model
	Auth0ID string `gorm:"unique;not null;size:500"`
	Email   string `gorm:"not null;size:500"`
	Name    string `gorm:"size:500"`

	// Optional profile fields, set via PUT /user
	Age              *int   `gorm:"default:null"`
	Gender           string `gorm:"size:100"`
	FavoriteBook     string `gorm:"size:100"`
	FavoriteAuthor   string `gorm:"size:100"`
	CurrentlyReading string `gorm:"size:100"`

	UserBooks []UserBook `gorm:"foreignKey:UserID" json:"-"`
}
