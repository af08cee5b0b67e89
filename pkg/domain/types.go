package domain

import "time"

type BookStatus string

const (
	StatusPending  BookStatus = "pending"
	StatusApproved BookStatus = "approved"
	StatusRejected BookStatus = "rejected"
)

type UserRole string

const (
	RoleAuthor UserRole = "author"
	RoleAdmin  UserRole = "admin"
)

// User is an account that owns catalogue entries.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Book is a catalogue entry moving through the moderation workflow.
type Book struct {
	ID              string     `json:"id"`
	OwnerID         string     `json:"ownerId"`
	ISBN            string     `json:"isbn,omitempty"`
	Title           string     `json:"title"`
	Subtitle        string     `json:"subtitle,omitempty"`
	Author          string     `json:"author"`
	CoAuthor        string     `json:"coAuthor,omitempty"`
	Publisher       string     `json:"publisher"`
	PublicationDate time.Time  `json:"publicationDate"`
	PrintLength     int        `json:"printLength"`
	Language        string     `json:"language"`
	FrontCoverURL   string     `json:"frontCoverUrl"`
	BackCoverURL    string     `json:"backCoverUrl"`
	Synopsis        string     `json:"synopsis,omitempty"`
	CopyrightInfo   string     `json:"copyrightInfo,omitempty"`
	Category        string     `json:"category,omitempty"`
	Subcategory     string     `json:"subcategory,omitempty"`
	Status          BookStatus `json:"status"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}
