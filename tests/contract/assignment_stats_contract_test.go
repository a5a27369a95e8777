package contract_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/skolahub/skola-api/internal/dto"
	"github.com/skolahub/skola-api/internal/handler"
	"github.com/skolahub/skola-api/internal/service"
)

// stubAssignmentService serves canned stats; the remaining operations are
// out of scope for the contract.
type stubAssignmentService struct {
	stats dto.SubmissionStatsResponse
}

func (s stubAssignmentService) Create(context.Context, uint, dto.AssignmentCreateRequest, service.ActivityActor) (dto.AssignmentResponse, error) {
	return dto.AssignmentResponse{}, nil
}

func (s stubAssignmentService) Update(context.Context, uint, dto.AssignmentUpdateRequest, service.ActivityActor) (dto.AssignmentResponse, error) {
	return dto.AssignmentResponse{}, nil
}

func (s stubAssignmentService) Publish(context.Context, uint, service.ActivityActor) (dto.AssignmentResponse, error) {
	return dto.AssignmentResponse{}, nil
}

func (s stubAssignmentService) Unpublish(context.Context, uint, service.ActivityActor) (dto.AssignmentResponse, error) {
	return dto.AssignmentResponse{}, nil
}

func (s stubAssignmentService) Delete(context.Context, uint, service.ActivityActor) error {
	return nil
}

func (s stubAssignmentService) Get(context.Context, uint) (dto.AssignmentResponse, error) {
	return dto.AssignmentResponse{}, nil
}

func (s stubAssignmentService) List(context.Context, dto.AssignmentListRequest) (dto.AssignmentListResponse, error) {
	return dto.AssignmentListResponse{}, nil
}

func (s stubAssignmentService) Stats(context.Context, uint) (dto.SubmissionStatsResponse, error) {
	return s.stats, nil
}

func TestAssignmentStatsContract(t *testing.T) {
	schema := compileSchema(t, "assignment_stats.schema.json")

	average := 80.25
	stats := dto.SubmissionStatsResponse{
		AssignmentID:    42,
		TotalStudents:   25,
		SubmittedCount:  18,
		GradedCount:     12,
		LateCount:       3,
		SubmissionRate:  72.0,
		GradingProgress: 66.67,
		AverageGrade:    &average,
	}

	assignmentHandler := handler.NewAssignmentHandler(stubAssignmentService{stats: stats}, zerolog.Nop())

	app := fiber.New()
	assignmentHandler.Register(app.Group("/api/v1/assignments", staffContext))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/assignments/42/stats", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}

func TestAssignmentStatsContractAllowsNullAverage(t *testing.T) {
	schema := compileSchema(t, "assignment_stats.schema.json")

	// Empty cohorts report zero rates and no average grade.
	stats := dto.SubmissionStatsResponse{
		AssignmentID:    7,
		TotalStudents:   0,
		SubmittedCount:  0,
		GradedCount:     0,
		LateCount:       0,
		SubmissionRate:  0,
		GradingProgress: 0,
		AverageGrade:    nil,
	}

	assignmentHandler := handler.NewAssignmentHandler(stubAssignmentService{stats: stats}, zerolog.Nop())

	app := fiber.New()
	assignmentHandler.Register(app.Group("/api/v1/assignments", staffContext))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/assignments/7/stats", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}
