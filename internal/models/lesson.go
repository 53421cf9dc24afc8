package models

import "time"

// AssignedLesson is a weekly lesson placed inside a TimeBlock for a student.
// Its minute-of-day span always lies inside the owning block's span.
type AssignedLesson struct {
	ID              string     `db:"id" json:"id"`
	TimeBlockID     string     `db:"time_block_id" json:"time_block_id"`
	StudentID       string     `db:"student_id" json:"student_id"`
	StartMinute     int        `db:"start_minute" json:"start_minute"`
	EndMinute       int        `db:"end_minute" json:"end_minute"`
	DurationMinutes int        `db:"duration_minutes" json:"duration_minutes"`
	IsActive        bool       `db:"is_active" json:"is_active"`
	EndDate         *Date      `db:"end_date" json:"end_date,omitempty"`
	DeactivatedBy   *string    `db:"deactivated_by" json:"deactivated_by,omitempty"`
	DeactivatedAt   *time.Time `db:"deactivated_at" json:"deactivated_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// PlacedLesson joins an assigned lesson with its owning block context for
// cross-block collision scans.
type PlacedLesson struct {
	AssignedLesson
	BlockDayOfWeek    int    `db:"block_day_of_week" json:"day_of_week"`
	BlockInstructorID string `db:"block_instructor_id" json:"instructor_id"`
	BlockLocation     string `db:"block_location" json:"location"`
}

// Lesson is a concrete dated lesson occupying a location for a minute span.
// Rows are soft-deactivated, never deleted; only active rows take part in
// conflict detection and the slot uniqueness constraint.
type Lesson struct {
	ID           string    `db:"id" json:"id"`
	Category     string    `db:"category" json:"category"`
	InstructorID string    `db:"instructor_id" json:"instructor_id"`
	StudentID    *string   `db:"student_id" json:"student_id,omitempty"`
	LessonDate   Date      `db:"lesson_date" json:"lesson_date"`
	StartMinute  int       `db:"start_minute" json:"start_minute"`
	EndMinute    int       `db:"end_minute" json:"end_minute"`
	Location     string    `db:"location" json:"location"`
	Notes        string    `db:"notes" json:"notes,omitempty"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// LessonFilter narrows dated-lesson listings. Dates are ISO calendar dates.
type LessonFilter struct {
	InstructorID string
	StudentID    string
	Location     string
	Category     string
	DateFrom     string
	DateTo       string
	ActiveOnly   bool
	Page         int
	PageSize     int
}
