package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/skolahub/skola-api/internal/config"
	"github.com/skolahub/skola-api/internal/dto"
	"github.com/skolahub/skola-api/internal/handler"
	"github.com/skolahub/skola-api/internal/models"
	"github.com/skolahub/skola-api/internal/repository"
	"github.com/skolahub/skola-api/internal/router"
	"github.com/skolahub/skola-api/internal/service"
)

// openHandlerDB opens a named shared in-memory database so every test
// function gets its own isolated schema.
func openHandlerDB(t *testing.T, name string) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Class{},
		&models.Subject{},
		&models.Student{},
		&models.Assignment{},
		&models.Submission{},
		&models.ActivityLog{},
	))

	return db
}

// identityStub stands in for the JWT middleware; tests pick their identity
// per request through headers instead of minting real tokens.
func identityStub() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, err := strconv.ParseUint(c.Get("X-Test-User"), 10, 64); err == nil {
			c.Locals("user_id", uint(id))
		}
		if role := c.Get("X-Test-Role"); role != "" {
			c.Locals("user_role", role)
		}
		return c.Next()
	}
}

func jsonRequest(t *testing.T, method, target string, payload interface{}, userID uint, role string) *http.Request {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		req.Header.Set("X-Test-User", strconv.FormatUint(uint64(userID), 10))
	}
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}

	return req
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}

func setupSubmissionApp(t *testing.T, dbName string) (*fiber.App, *gorm.DB) {
	t.Helper()

	db := openHandlerDB(t, dbName)
	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	submissionRepo := repository.NewSubmissionRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	recorder := service.NewActivityService(activityRepo, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, validate, recorder, nil, logger)
	studentService := service.NewStudentService(studentRepo, validate, recorder, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test"}, router.Dependencies{
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, studentService, logger),
		JWTMiddleware:     identityStub(),
	})

	return app, db
}

func TestSubmissionHandlerLifecycle(t *testing.T) {
	app, db := setupSubmissionApp(t, "submission_lifecycle")

	userID := uint(7)
	student := models.Student{Name: "Jane Doe", Email: "jane@school.test", StudentNumber: "S-001", UserID: &userID, Status: models.StudentStatusActive}
	require.NoError(t, db.Create(&student).Error)

	assignment := models.Assignment{
		Title:       "Lab Report",
		ClassID:     1,
		SubjectID:   1,
		TeacherID:   9,
		Type:        models.AssignmentTypeHomework,
		MaxPoints:   100,
		DueDate:     time.Now().Add(2 * time.Hour),
		IsPublished: true,
	}
	require.NoError(t, db.Create(&assignment).Error)

	resp, err := app.Test(jsonRequest(t, fiber.MethodPost, "/api/v1/submissions", map[string]interface{}{
		"assignment_id": assignment.ID,
		"content":       "first pass",
	}, 7, "student"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var startBody struct {
		Success bool                   `json:"success"`
		Data    dto.SubmissionResponse `json:"data"`
		Message string                 `json:"message"`
	}
	decodeResponse(t, resp, &startBody)
	require.True(t, startBody.Success)
	require.Equal(t, "submission draft ready", startBody.Message)
	require.Equal(t, "draft", startBody.Data.Status)
	require.Equal(t, student.ID, startBody.Data.StudentID)
	require.Equal(t, assignment.Title, startBody.Data.Assignment.Title)

	submissionID := strconv.FormatUint(uint64(startBody.Data.ID), 10)

	resp, err = app.Test(jsonRequest(t, fiber.MethodPost, "/api/v1/submissions/"+submissionID+"/submit", map[string]interface{}{
		"content": "final version",
	}, 7, "student"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var submitBody struct {
		Success bool                   `json:"success"`
		Data    dto.SubmissionResponse `json:"data"`
		Message string                 `json:"message"`
	}
	decodeResponse(t, resp, &submitBody)
	require.Equal(t, "submission handed in", submitBody.Message)
	require.Equal(t, "submitted", submitBody.Data.Status)
	require.Equal(t, "final version", submitBody.Data.Content)
	require.False(t, submitBody.Data.IsLate)
	require.NotNil(t, submitBody.Data.SubmittedAt)

	// An out-of-range score is clamped rather than rejected.
	resp, err = app.Test(jsonRequest(t, fiber.MethodPatch, "/api/v1/submissions/"+submissionID+"/grade", map[string]interface{}{
		"score":    107.5,
		"feedback": "Solid work",
	}, 9, "teacher"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var gradeBody struct {
		Success bool                   `json:"success"`
		Data    dto.SubmissionResponse `json:"data"`
		Message string                 `json:"message"`
	}
	decodeResponse(t, resp, &gradeBody)
	require.Equal(t, "submission graded", gradeBody.Message)
	require.Equal(t, "graded", gradeBody.Data.Status)
	require.NotNil(t, gradeBody.Data.Grade)
	require.Equal(t, 100.0, *gradeBody.Data.Grade)
	require.NotNil(t, gradeBody.Data.LetterGrade)
	require.Equal(t, "A", *gradeBody.Data.LetterGrade)
	require.NotNil(t, gradeBody.Data.PointsEarned)
	require.Equal(t, 100, *gradeBody.Data.PointsEarned)
	require.NotNil(t, gradeBody.Data.GradedBy)
	require.Equal(t, uint(9), *gradeBody.Data.GradedBy)

	resp, err = app.Test(jsonRequest(t, fiber.MethodPost, "/api/v1/submissions/"+submissionID+"/return", nil, 9, "teacher"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var returnBody struct {
		Success bool                   `json:"success"`
		Data    dto.SubmissionResponse `json:"data"`
		Message string                 `json:"message"`
	}
	decodeResponse(t, resp, &returnBody)
	require.Equal(t, "submission returned", returnBody.Message)
	require.Equal(t, "returned", returnBody.Data.Status)

	// Returned work cannot be graded again.
	resp, err = app.Test(jsonRequest(t, fiber.MethodPatch, "/api/v1/submissions/"+submissionID+"/grade", map[string]interface{}{
		"score": 50,
	}, 9, "teacher"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestSubmissionHandlerLatePenalty(t *testing.T) {
	app, db := setupSubmissionApp(t, "submission_late")

	userID := uint(7)
	student := models.Student{Name: "Jane Doe", Email: "jane@school.test", StudentNumber: "S-001", UserID: &userID, Status: models.StudentStatusActive}
	require.NoError(t, db.Create(&student).Error)

	assignment := models.Assignment{
		Title:               "Essay",
		ClassID:             1,
		SubjectID:           1,
		TeacherID:           9,
		MaxPoints:           100,
		DueDate:             time.Now().Add(-36 * time.Hour),
		AllowLateSubmission: true,
		LatePenaltyPercent:  20,
		IsPublished:         true,
	}
	require.NoError(t, db.Create(&assignment).Error)

	resp, err := app.Test(jsonRequest(t, fiber.MethodPost, "/api/v1/submissions", map[string]interface{}{
		"assignment_id": assignment.ID,
		"content":       "better late",
	}, 7, "student"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var startBody struct {
		Data dto.SubmissionResponse `json:"data"`
	}
	decodeResponse(t, resp, &startBody)
	submissionID := strconv.FormatUint(uint64(startBody.Data.ID), 10)

	resp, err = app.Test(jsonRequest(t, fiber.MethodPost, "/api/v1/submissions/"+submissionID+"/submit", map[string]interface{}{}, 7, "student"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var submitBody struct {
		Data dto.SubmissionResponse `json:"data"`
	}
	decodeResponse(t, resp, &submitBody)
	require.True(t, submitBody.Data.IsLate)
	require.Equal(t, 1, submitBody.Data.DaysLate)

	// Late work keeps its native grade; the penalty lands on the points.
	resp, err = app.Test(jsonRequest(t, fiber.MethodPatch, "/api/v1/submissions/"+submissionID+"/grade", map[string]interface{}{
		"score": 80,
	}, 9, "teacher"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var gradeBody struct {
		Data dto.SubmissionResponse `json:"data"`
	}
	decodeResponse(t, resp, &gradeBody)
	require.NotNil(t, gradeBody.Data.Grade)
	require.Equal(t, 80.0, *gradeBody.Data.Grade)
	require.Equal(t, "B", *gradeBody.Data.LetterGrade)
	require.NotNil(t, gradeBody.Data.PointsEarned)
	require.Equal(t, 64, *gradeBody.Data.PointsEarned)
}

func TestSubmissionHandlerRejectsLateWithoutPolicy(t *testing.T) {
	app, db := setupSubmissionApp(t, "submission_no_late")

	userID := uint(7)
	student := models.Student{Name: "Jane Doe", Email: "jane@school.test", StudentNumber: "S-001", UserID: &userID, Status: models.StudentStatusActive}
	require.NoError(t, db.Create(&student).Error)

	assignment := models.Assignment{
		Title:       "Closed Quiz",
		ClassID:     1,
		SubjectID:   1,
		TeacherID:   9,
		MaxPoints:   100,
		DueDate:     time.Now().Add(-1 * time.Hour),
		IsPublished: true,
	}
	require.NoError(t, db.Create(&assignment).Error)

	resp, err := app.Test(jsonRequest(t, fiber.MethodPost, "/api/v1/submissions", map[string]interface{}{
		"assignment_id": assignment.ID,
	}, 7, "student"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	decodeResponse(t, resp, &body)
	require.False(t, body.Success)
	require.Equal(t, "late submissions are not accepted", body.Message)
}

func TestSubmissionHandlerRoleAndOwnership(t *testing.T) {
	app, db := setupSubmissionApp(t, "submission_rbac")

	firstUser := uint(7)
	secondUser := uint(8)
	first := models.Student{Name: "Jane Doe", Email: "jane@school.test", StudentNumber: "S-001", UserID: &firstUser, Status: models.StudentStatusActive}
	second := models.Student{Name: "John Roe", Email: "john@school.test", StudentNumber: "S-002", UserID: &secondUser, Status: models.StudentStatusActive}
	require.NoError(t, db.Create(&first).Error)
	require.NoError(t, db.Create(&second).Error)

	assignment := models.Assignment{
		Title:       "Group Reading",
		ClassID:     1,
		SubjectID:   1,
		TeacherID:   9,
		MaxPoints:   100,
		DueDate:     time.Now().Add(2 * time.Hour),
		IsPublished: true,
	}
	require.NoError(t, db.Create(&assignment).Error)

	submission := models.Submission{AssignmentID: assignment.ID, StudentID: first.ID, Status: models.SubmissionStatusDraft}
	require.NoError(t, db.Create(&submission).Error)

	// Only students may open drafts.
	resp, err := app.Test(jsonRequest(t, fiber.MethodPost, "/api/v1/submissions", map[string]interface{}{
		"assignment_id": assignment.ID,
	}, 9, "teacher"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// Only staff may grade.
	resp, err = app.Test(jsonRequest(t, fiber.MethodPatch, "/api/v1/submissions/1/grade", map[string]interface{}{
		"score": 90,
	}, 7, "student"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// Another student cannot see the submission at all.
	resp, err = app.Test(jsonRequest(t, fiber.MethodGet, "/api/v1/submissions/"+strconv.FormatUint(uint64(submission.ID), 10), nil, 8, "student"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// Listing as a student is forced onto the caller's own rows.
	resp, err = app.Test(jsonRequest(t, fiber.MethodGet, "/api/v1/submissions", nil, 8, "student"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var listBody struct {
		Success bool                     `json:"success"`
		Data    []dto.SubmissionResponse `json:"data"`
		Meta    dto.PaginationMeta       `json:"meta"`
	}
	decodeResponse(t, resp, &listBody)
	require.True(t, listBody.Success)
	require.Empty(t, listBody.Data)
	require.Zero(t, listBody.Meta.TotalItems)
}
