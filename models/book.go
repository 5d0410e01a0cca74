package models

import "gorm.io/gorm"

// Book is a catalog entry shared across shelves. Rows are created lazily the
// first time any user adds the OLID and removed when the last reference goes.
type Book struct {
	gorm.Model
	OLID          string `gorm:"column:olid;unique;not null;size:100"`
	Title         string `gorm:"not null;size:500"`
	Authors       string `gorm:"not null;size:500"`
	CoverImageURL string `gorm:"size:500"`

	BookUsers []UserBook `gorm:"foreignKey:BookID" json:"-"`
}
