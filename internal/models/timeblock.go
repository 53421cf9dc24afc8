package models

import (
	"time"

	"github.com/lib/pq"
)

// TimeBlock is a recurring weekly availability window published by an
// instructor. Times are minutes after midnight; DayOfWeek uses 0 = Sunday.
// ExclusionDates lists calendar dates (YYYY-MM-DD) the recurrence skips.
type TimeBlock struct {
	ID             string         `db:"id" json:"id"`
	InstructorID   string         `db:"instructor_id" json:"instructor_id"`
	DayOfWeek      int            `db:"day_of_week" json:"day_of_week"`
	StartMinute    int            `db:"start_minute" json:"start_minute"`
	EndMinute      int            `db:"end_minute" json:"end_minute"`
	Location       string         `db:"location" json:"location"`
	ExclusionDates pq.StringArray `db:"exclusion_dates" json:"exclusion_dates"`
	Active         bool           `db:"active" json:"active"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// InstructorSchedule is the instructor-side weekly view: every active block
// together with the lessons placed in it.
type InstructorSchedule struct {
	InstructorID string          `json:"instructor_id"`
	Blocks       []ScheduleBlock `json:"blocks"`
}

// ScheduleBlock pairs one availability window with its active lessons.
type ScheduleBlock struct {
	TimeBlock TimeBlock        `json:"time_block"`
	Lessons   []AssignedLesson `json:"lessons"`
}
