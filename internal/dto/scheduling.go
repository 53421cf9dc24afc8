package dto

// CheckLessonRequest describes a candidate dated lesson for conflict
// inspection. Times are 24h clock strings, the date an ISO calendar date.
// ExcludeLessonID drops one lesson from the scan, used when rechecking a
// lesson that is being moved.
type CheckLessonRequest struct {
	Category        string `json:"category"`
	InstructorID    string `json:"instructorId" validate:"required"`
	StudentID       string `json:"studentId"`
	LessonDate      string `json:"lessonDate" validate:"required"`
	StartTime       string `json:"startTime" validate:"required"`
	EndTime         string `json:"endTime" validate:"required"`
	Location        string `json:"location" validate:"required"`
	ExcludeLessonID string `json:"excludeLessonId"`
}

// CheckSeriesRequest expands a weekly pattern between two calendar dates and
// inspects every generated occurrence. DayOfWeek uses 0 = Sunday.
type CheckSeriesRequest struct {
	Category      string   `json:"category"`
	InstructorID  string   `json:"instructorId" validate:"required"`
	StudentID     string   `json:"studentId"`
	StartDate     string   `json:"startDate" validate:"required"`
	EndDate       string   `json:"endDate" validate:"required"`
	DayOfWeek     int      `json:"dayOfWeek" validate:"min=0,max=6"`
	StartTime     string   `json:"startTime" validate:"required"`
	EndTime       string   `json:"endTime" validate:"required"`
	Location      string   `json:"location" validate:"required"`
	ExcludedDates []string `json:"excludedDates"`
}

// CreateLessonSeriesRequest persists a weekly series as dated lessons.
// Override forces creation despite advisory conflicts; the storage constraint
// still arbitrates exact-slot races.
type CreateLessonSeriesRequest struct {
	Category      string   `json:"category"`
	InstructorID  string   `json:"instructorId" validate:"required"`
	StudentID     string   `json:"studentId"`
	StartDate     string   `json:"startDate" validate:"required"`
	EndDate       string   `json:"endDate" validate:"required"`
	DayOfWeek     int      `json:"dayOfWeek" validate:"min=0,max=6"`
	StartTime     string   `json:"startTime" validate:"required"`
	EndTime       string   `json:"endTime" validate:"required"`
	Location      string   `json:"location" validate:"required"`
	ExcludedDates []string `json:"excludedDates"`
	Notes         string   `json:"notes"`
	Override      bool     `json:"override"`
}
