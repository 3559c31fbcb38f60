package model

import "time"

// Contact represents an address book entry in the database.
// Contacts belong to exactly one user and are never visible to anyone else.
type Contact struct {
	ID          int64
	UserID      int64
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Birthday    *time.Time
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ContactRequest represents a contact create or update request.
// Birthday, when present, must be formatted as YYYY-MM-DD.
type ContactRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Birthday    string `json:"birthday,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// ContactResponse represents a contact in API responses.
type ContactResponse struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	Birthday    string    `json:"birthday,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
