package models

import "time"

// TeacherAssignment mirrors an active instructor relationship on the student
// side. The instructor-side blocks and lessons are the source of truth; these
// rows are a maintained denormalisation and only the relationship service
// writes them. ScheduleSlotID points at the placed AssignedLesson and may be
// nil for a relationship without a placed slot.
type TeacherAssignment struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	TeacherID      string    `db:"teacher_id" json:"teacher_id"`
	ScheduleSlotID *string   `db:"schedule_slot_id" json:"schedule_slot_id,omitempty"`
	StartDate      Date      `db:"start_date" json:"start_date"`
	EndDate        *Date     `db:"end_date" json:"end_date,omitempty"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	Notes          string    `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// StudentSchedule is the student-side view: active relationships plus the
// lessons placed for the student across all instructors, each carrying its
// block's weekday and location.
type StudentSchedule struct {
	StudentID   string              `json:"student_id"`
	Assignments []TeacherAssignment `json:"assignments"`
	Lessons     []PlacedLesson      `json:"lessons"`
}

// RemovalResult reports how many rows a relationship removal touched. Zero
// counts mean the relationship was already gone; removal is idempotent.
type RemovalResult struct {
	LessonsDeactivated     int `json:"lessons_deactivated"`
	AssignmentsDeactivated int `json:"assignments_deactivated"`
}

// CascadeResult reports the rows touched by a cascading deactivation.
type CascadeResult struct {
	BlocksDeactivated      int `json:"blocks_deactivated"`
	LessonsDeactivated     int `json:"lessons_deactivated"`
	AssignmentsDeactivated int `json:"assignments_deactivated"`
}
