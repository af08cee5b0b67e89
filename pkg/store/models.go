package store

import "time"

// GORM models used for persistence.
type UserModel struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"not null"`
	Active       bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time

	// Deleting a user deletes owned books. The cascade is declared here on
	// purpose rather than left to an implicit framework default.
	Books []BookModel `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
}

type BookModel struct {
	ID              string  `gorm:"primaryKey"`
	OwnerID         string  `gorm:"not null;index"`
	ISBN            *string `gorm:"uniqueIndex"`
	Title           string  `gorm:"not null;index"`
	Subtitle        string
	Author          string `gorm:"not null;index"`
	CoAuthor        string
	Publisher       string    `gorm:"not null"`
	PublicationDate time.Time `gorm:"not null"`
	PrintLength     int       `gorm:"not null"`
	Language        string    `gorm:"not null"`
	FrontCoverURL   string    `gorm:"not null"`
	BackCoverURL    string    `gorm:"not null"`
	Synopsis        string    `gorm:"type:text"`
	CopyrightInfo   string
	Category        string `gorm:"index"`
	Subcategory     string
	Status          string `gorm:"not null;index"`
	RejectionReason string
	CreatedAt       time.Time `gorm:"not null;index"`
	UpdatedAt       time.Time `gorm:"not null"`
}
