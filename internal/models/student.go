package models

import "time"

// Student is an enrolled conservatory student.
type Student struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone,omitempty"`
	Level     string    `db:"level" json:"level,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter narrows student listings.
type StudentFilter struct {
	Active   *bool
	Level    string
	Search   string
	Page     int
	PageSize int
}
