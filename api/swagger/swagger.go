package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Conservatory Scheduling API",
        "description": "Lesson scheduling and instructor/student relationship management",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Instructors", "description": "Instructor roster and weekly schedules"},
        {"name": "Students", "description": "Student roster and assignments"},
        {"name": "Blocks", "description": "Weekly availability windows"},
        {"name": "Assignments", "description": "Placing students into blocks"},
        {"name": "Lessons", "description": "Dated lessons and conflict checks"},
        {"name": "Audit", "description": "Mutation audit trail"}
    ],
    "paths": {
        "/instructors": {
            "get": {
                "tags": ["Instructors"],
                "summary": "List instructors",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "specialty", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Instructors"],
                "summary": "Create instructor",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateInstructorRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/instructors/{id}": {
            "get": {
                "tags": ["Instructors"],
                "summary": "Get instructor detail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Instructors"],
                "summary": "Update instructor",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateInstructorRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Instructors"],
                "summary": "Deactivate instructor and cascade",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "X-Actor-Id", "in": "header", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Cascade counts", "schema": {"$ref": "#/definitions/CascadeResult"}}
                }
            }
        },
        "/instructors/{id}/schedule": {
            "get": {
                "tags": ["Instructors"],
                "summary": "Weekly schedule with placed lessons",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/instructors/{id}/schedule/export": {
            "get": {
                "tags": ["Instructors"],
                "summary": "Download the weekly schedule as CSV or PDF",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Schedule file"},
                    "400": {"description": "Unsupported format"},
                    "404": {"description": "Instructor not found"}
                }
            }
        },
        "/instructors/{id}/blocks": {
            "get": {
                "tags": ["Blocks"],
                "summary": "List an instructor's time blocks",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Blocks"],
                "summary": "Create a weekly time block",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTimeBlockRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid window or weekday"}
                }
            }
        },
        "/blocks/{id}": {
            "put": {
                "tags": ["Blocks"],
                "summary": "Update window, weekday or location",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateTimeBlockRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Placed lessons fall outside the new window"}
                }
            },
            "delete": {
                "tags": ["Blocks"],
                "summary": "Deactivate block and release placed lessons",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "X-Actor-Id", "in": "header", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Cascade counts", "schema": {"$ref": "#/definitions/CascadeResult"}}
                }
            }
        },
        "/blocks/{id}/exclusions": {
            "put": {
                "tags": ["Blocks"],
                "summary": "Replace excluded dates",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateExclusionsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "level", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Create student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student detail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Students"],
                "summary": "Update student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateStudentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Deactivate student and cascade",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "X-Actor-Id", "in": "header", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Cascade counts", "schema": {"$ref": "#/definitions/CascadeResult"}}
                }
            }
        },
        "/students/{id}/assignments": {
            "get": {
                "tags": ["Students"],
                "summary": "Instructor assignments and placed lessons",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assignments": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Place a student into a time block",
                "parameters": [
                    {"name": "X-Actor-Id", "in": "header", "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignLessonRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Block or student collision, all conflicts listed"},
                    "422": {"description": "Lesson does not fit the block window"}
                }
            },
            "delete": {
                "tags": ["Assignments"],
                "summary": "Release an instructor/student relationship",
                "parameters": [
                    {"name": "X-Actor-Id", "in": "header", "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RemoveAssignmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "Removal counts, zero when absent", "schema": {"$ref": "#/definitions/RemovalResult"}}
                }
            }
        },
        "/lessons": {
            "get": {
                "tags": ["Lessons"],
                "summary": "List dated lessons",
                "parameters": [
                    {"name": "instructorId", "in": "query", "type": "string"},
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "location", "in": "query", "type": "string"},
                    {"name": "category", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Lessons"],
                "summary": "Schedule a dated lesson",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateLessonRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflicting slots with full collision report"}
                }
            }
        },
        "/lessons/{id}": {
            "delete": {
                "tags": ["Lessons"],
                "summary": "Cancel a dated lesson",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Cancelled"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/audit": {
            "get": {
                "tags": ["Audit"],
                "summary": "List recent audit entries",
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lessons/series": {
            "post": {
                "tags": ["Lessons"],
                "summary": "Schedule a weekly lesson series",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateLessonSeriesRequest"}}
                ],
                "responses": {
                    "201": {"description": "All occurrences created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Per-date conflict report, nothing written"}
                }
            }
        },
        "/lessons/conflicts": {
            "post": {
                "tags": ["Lessons"],
                "summary": "Check a candidate lesson for conflicts",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CheckLessonRequest"}}
                ],
                "responses": {
                    "200": {"description": "Conflict report", "schema": {"$ref": "#/definitions/ConflictReport"}}
                }
            }
        },
        "/lessons/series/conflicts": {
            "post": {
                "tags": ["Lessons"],
                "summary": "Check a weekly series for conflicts",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CheckSeriesRequest"}}
                ],
                "responses": {
                    "200": {"description": "Per-date conflict report", "schema": {"$ref": "#/definitions/SeriesConflictReport"}}
                }
            }
        }
    },
    "definitions": {
        "CreateInstructorRequest": {
            "type": "object",
            "required": ["email", "full_name"],
            "properties": {
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "phone": {"type": "string"},
                "specialty": {"type": "string"}
            }
        },
        "UpdateInstructorRequest": {
            "type": "object",
            "required": ["email", "full_name"],
            "properties": {
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "phone": {"type": "string"},
                "specialty": {"type": "string"}
            }
        },
        "CreateStudentRequest": {
            "type": "object",
            "required": ["email", "full_name"],
            "properties": {
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "phone": {"type": "string"},
                "level": {"type": "string"}
            }
        },
        "UpdateStudentRequest": {
            "type": "object",
            "required": ["email", "full_name"],
            "properties": {
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "phone": {"type": "string"},
                "level": {"type": "string"}
            }
        },
        "CreateTimeBlockRequest": {
            "type": "object",
            "required": ["start_time", "end_time", "location"],
            "properties": {
                "day_of_week": {"type": "integer", "minimum": 0, "maximum": 6},
                "start_time": {"type": "string", "example": "09:00"},
                "end_time": {"type": "string", "example": "13:00"},
                "location": {"type": "string"},
                "exclusion_dates": {"type": "array", "items": {"type": "string", "example": "2026-03-16"}}
            }
        },
        "UpdateTimeBlockRequest": {
            "type": "object",
            "required": ["start_time", "end_time", "location"],
            "properties": {
                "day_of_week": {"type": "integer", "minimum": 0, "maximum": 6},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "location": {"type": "string"}
            }
        },
        "UpdateExclusionsRequest": {
            "type": "object",
            "properties": {
                "exclusion_dates": {"type": "array", "items": {"type": "string"}}
            }
        },
        "AssignLessonRequest": {
            "type": "object",
            "required": ["instructor_id", "student_id", "time_block_id", "start_time", "duration_minutes"],
            "properties": {
                "instructor_id": {"type": "string"},
                "student_id": {"type": "string"},
                "time_block_id": {"type": "string"},
                "start_time": {"type": "string", "example": "10:30"},
                "duration_minutes": {"type": "integer", "minimum": 15, "maximum": 480}
            }
        },
        "RemoveAssignmentRequest": {
            "type": "object",
            "required": ["instructor_id", "student_id"],
            "properties": {
                "instructor_id": {"type": "string"},
                "student_id": {"type": "string"}
            }
        },
        "CreateLessonRequest": {
            "type": "object",
            "required": ["instructor_id", "lesson_date", "start_time", "end_time", "location"],
            "properties": {
                "category": {"type": "string"},
                "instructor_id": {"type": "string"},
                "student_id": {"type": "string"},
                "lesson_date": {"type": "string", "example": "2026-03-02"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "location": {"type": "string"},
                "notes": {"type": "string"},
                "override": {"type": "boolean"}
            }
        },
        "CreateLessonSeriesRequest": {
            "type": "object",
            "required": ["instructorId", "startDate", "endDate", "startTime", "endTime", "location"],
            "properties": {
                "category": {"type": "string"},
                "instructorId": {"type": "string"},
                "studentId": {"type": "string"},
                "startDate": {"type": "string"},
                "endDate": {"type": "string"},
                "dayOfWeek": {"type": "integer", "minimum": 0, "maximum": 6},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"},
                "location": {"type": "string"},
                "excludedDates": {"type": "array", "items": {"type": "string"}},
                "notes": {"type": "string"},
                "override": {"type": "boolean"}
            }
        },
        "CheckLessonRequest": {
            "type": "object",
            "required": ["instructorId", "lessonDate", "startTime", "endTime", "location"],
            "properties": {
                "category": {"type": "string"},
                "instructorId": {"type": "string"},
                "studentId": {"type": "string"},
                "lessonDate": {"type": "string"},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"},
                "location": {"type": "string"},
                "excludeLessonId": {"type": "string"}
            }
        },
        "CheckSeriesRequest": {
            "type": "object",
            "required": ["instructorId", "startDate", "endDate", "startTime", "endTime", "location"],
            "properties": {
                "category": {"type": "string"},
                "instructorId": {"type": "string"},
                "studentId": {"type": "string"},
                "startDate": {"type": "string"},
                "endDate": {"type": "string"},
                "dayOfWeek": {"type": "integer", "minimum": 0, "maximum": 6},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"},
                "location": {"type": "string"},
                "excludedDates": {"type": "array", "items": {"type": "string"}}
            }
        },
        "ConflictReport": {
            "type": "object",
            "properties": {
                "room_conflicts": {"type": "array", "items": {"$ref": "#/definitions/LessonConflict"}},
                "instructor_conflicts": {"type": "array", "items": {"$ref": "#/definitions/LessonConflict"}}
            }
        },
        "SeriesConflictReport": {
            "type": "object",
            "properties": {
                "total_lessons": {"type": "integer"},
                "affected_dates": {"type": "array", "items": {"type": "string"}},
                "dates": {"type": "array", "items": {"type": "object"}}
            }
        },
        "LessonConflict": {
            "type": "object",
            "properties": {
                "lesson_id": {"type": "string"},
                "category": {"type": "string"},
                "instructor_id": {"type": "string"},
                "student_id": {"type": "string"},
                "date": {"type": "string"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "location": {"type": "string"},
                "axis": {"type": "string", "enum": ["ROOM", "INSTRUCTOR"]}
            }
        },
        "CascadeResult": {
            "type": "object",
            "properties": {
                "blocks_deactivated": {"type": "integer"},
                "lessons_deactivated": {"type": "integer"},
                "assignments_deactivated": {"type": "integer"}
            }
        },
        "RemovalResult": {
            "type": "object",
            "properties": {
                "lessons_deactivated": {"type": "integer"},
                "assignments_deactivated": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
