package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-academic-core/internal/models"
	"github.com/noah-isme/sma-academic-core/internal/service"
	"github.com/noah-isme/sma-academic-core/pkg/response"
)

type taskService interface {
	Create(ctx context.Context, req service.CreateTaskRequest) (*models.Task, error)
	Get(ctx context.Context, id string) (*models.Task, error)
	List(ctx context.Context, offeringID, termID string) ([]models.Task, error)
	ListSubmissions(ctx context.Context, taskID string) ([]models.TaskSubmission, error)
	GradeSubmission(ctx context.Context, actorID, taskID string, req service.GradeSubmissionRequest) (*models.TaskSubmission, error)
}

// TaskHandler exposes task and submission endpoints.
type TaskHandler struct {
	tasks taskService
}

// NewTaskHandler constructs TaskHandler.
func NewTaskHandler(tasks taskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// List godoc
// @Summary List tasks of an offering and term
// @Tags Tasks
// @Produce json
// @Param offering_id query string true "Offering"
// @Param term_id query string false "Term"
// @Success 200 {object} response.Envelope
// @Router /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	tasks, err := h.tasks.List(c.Request.Context(), c.Query("offering_id"), c.Query("term_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, tasks)
}

// Get godoc
// @Summary Get task
// @Tags Tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id} [get]
func (h *TaskHandler) Get(c *gin.Context) {
	task, err := h.tasks.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, task)
}

// Create godoc
// @Summary Create task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param payload body service.CreateTaskRequest true "Task payload"
// @Success 201 {object} response.Envelope
// @Router /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req service.CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	task, err := h.tasks.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

// ListSubmissions godoc
// @Summary List submissions of a task
// @Tags Tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id}/submissions [get]
func (h *TaskHandler) ListSubmissions(c *gin.Context) {
	submissions, err := h.tasks.ListSubmissions(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, submissions)
}

// GradeSubmission godoc
// @Summary Grade a submission
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body service.GradeSubmissionRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /tasks/{id}/submissions [put]
func (h *TaskHandler) GradeSubmission(c *gin.Context) {
	var req service.GradeSubmissionRequest
	if !bindJSON(c, &req) {
		return
	}
	submission, err := h.tasks.GradeSubmission(c.Request.Context(), actorID(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, submission)
}
