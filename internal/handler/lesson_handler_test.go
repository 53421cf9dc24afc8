package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/maestoso/conservatory-api/internal/dto"
	"github.com/maestoso/conservatory-api/internal/models"
	"github.com/maestoso/conservatory-api/internal/service"
)

type lessonRepoMock struct {
	created []models.Lesson
}

func (m *lessonRepoMock) List(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, int, error) {
	return nil, 0, nil
}

func (m *lessonRepoMock) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	return nil, nil
}

func (m *lessonRepoMock) Create(ctx context.Context, lesson *models.Lesson) error {
	lesson.ID = "lesson-1"
	m.created = append(m.created, *lesson)
	return nil
}

func (m *lessonRepoMock) BulkCreate(ctx context.Context, lessons []models.Lesson) error {
	m.created = append(m.created, lessons...)
	return nil
}

func (m *lessonRepoMock) Deactivate(ctx context.Context, id, actor string) error {
	return nil
}

type conflictCheckMock struct {
	report *models.ConflictReport
}

func (m *conflictCheckMock) CheckLesson(ctx context.Context, req dto.CheckLessonRequest) (*models.ConflictReport, error) {
	if m.report != nil {
		return m.report, nil
	}
	return &models.ConflictReport{}, nil
}

func (m *conflictCheckMock) CheckSeries(ctx context.Context, req dto.CheckSeriesRequest) (*models.SeriesConflictReport, error) {
	return &models.SeriesConflictReport{}, nil
}

func newJSONContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func newLessonHandlerForTest(repo *lessonRepoMock, checker *conflictCheckMock) *LessonHandler {
	lessons := service.NewLessonService(repo, checker, nil, time.UTC, nil, nil)
	return NewLessonHandler(lessons, nil)
}

func TestLessonHandlerCreateReturnsCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &lessonRepoMock{}
	handler := newLessonHandlerForTest(repo, &conflictCheckMock{})

	payload, _ := json.Marshal(service.CreateLessonRequest{
		InstructorID: "instructor-1",
		LessonDate:   "2026-03-02",
		StartTime:    "10:00",
		EndTime:      "11:00",
		Location:     "studio-a",
	})
	c, w := newJSONContext(http.MethodPost, "/lessons", payload)

	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, repo.created, 1)
}

func TestLessonHandlerCreateRendersConflictReport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &lessonRepoMock{}
	checker := &conflictCheckMock{report: &models.ConflictReport{
		RoomConflicts: []models.LessonConflict{{
			LessonID: "lesson-9",
			Date:     "2026-03-02",
			Location: "studio-a",
			Axis:     models.ConflictAxisRoom,
		}},
	}}
	handler := newLessonHandlerForTest(repo, checker)

	payload, _ := json.Marshal(service.CreateLessonRequest{
		InstructorID: "instructor-1",
		LessonDate:   "2026-03-02",
		StartTime:    "10:00",
		EndTime:      "11:00",
		Location:     "studio-a",
	})
	c, w := newJSONContext(http.MethodPost, "/lessons", payload)

	handler.Create(c)

	require.Equal(t, http.StatusConflict, w.Code)
	require.Empty(t, repo.created)

	var envelope struct {
		Data service.LessonCreateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.False(t, envelope.Data.Created)
	require.Equal(t, 1, envelope.Data.Conflicts.Total())
}

func TestLessonHandlerCreateRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newLessonHandlerForTest(&lessonRepoMock{}, &conflictCheckMock{})

	c, w := newJSONContext(http.MethodPost, "/lessons", []byte("{not json"))

	handler.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLessonHandlerCancelMissingLesson(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newLessonHandlerForTest(&lessonRepoMock{}, &conflictCheckMock{})

	c, w := newJSONContext(http.MethodDelete, "/lessons/lesson-404", nil)
	c.Params = gin.Params{{Key: "id", Value: "lesson-404"}}

	handler.Cancel(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}
