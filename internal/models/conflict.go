package models

// Axis values identify the dimension a collision was found on. Dated lessons
// collide on ROOM or INSTRUCTOR; placed lessons collide on BLOCK or STUDENT.
const (
	ConflictAxisRoom       = "ROOM"
	ConflictAxisInstructor = "INSTRUCTOR"
	ConflictAxisBlock      = "BLOCK"
	ConflictAxisStudent    = "STUDENT"
)

// LessonConflict describes an existing dated lesson colliding with a
// candidate slot.
type LessonConflict struct {
	LessonID     string `json:"lesson_id"`
	Category     string `json:"category"`
	InstructorID string `json:"instructor_id"`
	StudentID    string `json:"student_id,omitempty"`
	Date         string `json:"date"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	Location     string `json:"location"`
	Axis         string `json:"axis"`
}

// ConflictReport groups the collisions for one candidate slot by axis. The
// axes are disjoint: a same-location collision reports on the room axis only,
// so no lesson ever appears twice.
type ConflictReport struct {
	RoomConflicts       []LessonConflict `json:"room_conflicts"`
	InstructorConflicts []LessonConflict `json:"instructor_conflicts"`
}

// HasConflicts reports whether any axis holds at least one collision.
func (r *ConflictReport) HasConflicts() bool {
	if r == nil {
		return false
	}
	return len(r.RoomConflicts) > 0 || len(r.InstructorConflicts) > 0
}

// Total counts collisions across both axes.
func (r *ConflictReport) Total() int {
	if r == nil {
		return 0
	}
	return len(r.RoomConflicts) + len(r.InstructorConflicts)
}

// DateConflicts pairs one generated date with its collision report.
type DateConflicts struct {
	Date   string         `json:"date"`
	Report ConflictReport `json:"report"`
}

// SeriesConflictReport aggregates per-date collision reports for a recurring
// series. Every generated date is checked; the scan never stops early.
type SeriesConflictReport struct {
	TotalLessons  int             `json:"total_lessons"`
	AffectedDates []string        `json:"affected_dates"`
	Dates         []DateConflicts `json:"dates,omitempty"`
}

// HasConflicts reports whether any generated date collided.
func (r *SeriesConflictReport) HasConflicts() bool {
	return r != nil && len(r.AffectedDates) > 0
}

// SlotConflict describes an existing placed lesson blocking an assignment.
type SlotConflict struct {
	AssignedLessonID string `json:"assigned_lesson_id"`
	TimeBlockID      string `json:"time_block_id"`
	InstructorID     string `json:"instructor_id"`
	StudentID        string `json:"student_id"`
	DayOfWeek        int    `json:"day_of_week"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	Axis             string `json:"axis"`
}

// ConflictError carries the axis and the complete list of colliding records
// for a rejected mutation so callers can render every collision.
type ConflictError struct {
	Axis      string         `json:"axis"`
	Message   string         `json:"message"`
	Conflicts []SlotConflict `json:"conflicts"`
}

func (e *ConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
