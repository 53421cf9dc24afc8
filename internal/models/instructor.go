package models

import "time"

// Instructor is a conservatory staff member who teaches lessons.
type Instructor struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone,omitempty"`
	Specialty string    `db:"specialty" json:"specialty,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// InstructorFilter narrows instructor listings.
type InstructorFilter struct {
	Active    *bool
	Specialty string
	Search    string
	Page      int
	PageSize  int
}
