package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-academic-core/internal/models"
	"github.com/noah-isme/sma-academic-core/internal/service"
	"github.com/noah-isme/sma-academic-core/pkg/response"
)

type scoreService interface {
	List(ctx context.Context, filter models.StudentScoreFilter) ([]models.StudentScore, error)
	Upsert(ctx context.Context, actorID string, req service.UpsertScoreRequest) (*models.StudentScore, error)
	BulkUpsert(ctx context.Context, actorID string, req service.BulkScoresRequest) (*service.BulkScoresResult, error)
	Finalize(ctx context.Context, req service.FinalizeScoresRequest) (*service.FinalizeScoresResult, error)
	Delete(ctx context.Context, id string) error
	CreateManualScore(ctx context.Context, actorID string, req service.CreateManualScoreRequest) (*models.ManualScore, error)
	ListManualScores(ctx context.Context, studentID, offeringID, termID string) ([]models.ManualScore, error)
	ReportCard(ctx context.Context, studentID, termID string) (*models.ReportCard, error)
	OfferingTermGrade(ctx context.Context, studentID, offeringID, termID string) (*models.OfferingTermGrade, error)
	PeriodGrade(ctx context.Context, studentID, offeringID string) (*models.PeriodGrade, error)
}

// ScoreHandler exposes scoring and report card endpoints.
type ScoreHandler struct {
	scores scoreService
}

// NewScoreHandler constructs ScoreHandler.
func NewScoreHandler(scores scoreService) *ScoreHandler {
	return &ScoreHandler{scores: scores}
}

// List godoc
// @Summary List term scores
// @Tags Scores
// @Produce json
// @Param student_id query string false "Student"
// @Param offering_id query string false "Offering"
// @Param term_id query string false "Term"
// @Param is_final query bool false "Final flag"
// @Success 200 {object} response.Envelope
// @Router /scores [get]
func (h *ScoreHandler) List(c *gin.Context) {
	filter := models.StudentScoreFilter{
		StudentID:  c.Query("student_id"),
		OfferingID: c.Query("offering_id"),
		TermID:     c.Query("term_id"),
		IsFinal:    optionalBool(c, "is_final"),
	}
	scores, err := h.scores.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, scores)
}

// Upsert godoc
// @Summary Record a term score
// @Description Rejected with FINALIZED once the score is final.
// @Tags Scores
// @Accept json
// @Produce json
// @Param payload body service.UpsertScoreRequest true "Score payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /scores [put]
func (h *ScoreHandler) Upsert(c *gin.Context) {
	var req service.UpsertScoreRequest
	if !bindJSON(c, &req) {
		return
	}
	score, err := h.scores.Upsert(c.Request.Context(), actorID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, score)
}

// BulkUpsert godoc
// @Summary Record the scores of an offering for a term
// @Tags Scores
// @Accept json
// @Produce json
// @Param payload body service.BulkScoresRequest true "Bulk payload"
// @Success 200 {object} response.Envelope
// @Router /scores/bulk [post]
func (h *ScoreHandler) BulkUpsert(c *gin.Context) {
	var req service.BulkScoresRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.scores.BulkUpsert(c.Request.Context(), actorID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Finalize godoc
// @Summary Finalize term scores of an offering
// @Tags Scores
// @Accept json
// @Produce json
// @Param payload body service.FinalizeScoresRequest true "Finalize payload"
// @Success 200 {object} response.Envelope
// @Router /scores/finalize [post]
func (h *ScoreHandler) Finalize(c *gin.Context) {
	var req service.FinalizeScoresRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.scores.Finalize(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Delete godoc
// @Summary Delete a non-final score
// @Tags Scores
// @Param id path string true "Score ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /scores/{id} [delete]
func (h *ScoreHandler) Delete(c *gin.Context) {
	if err := h.scores.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateManualScore godoc
// @Summary Record a manual mark
// @Tags Scores
// @Accept json
// @Produce json
// @Param payload body service.CreateManualScoreRequest true "Manual score payload"
// @Success 201 {object} response.Envelope
// @Router /manual-scores [post]
func (h *ScoreHandler) CreateManualScore(c *gin.Context) {
	var req service.CreateManualScoreRequest
	if !bindJSON(c, &req) {
		return
	}
	score, err := h.scores.CreateManualScore(c.Request.Context(), actorID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, score)
}

// ListManualScores godoc
// @Summary List manual marks
// @Tags Scores
// @Produce json
// @Param student_id query string false "Student"
// @Param offering_id query string false "Offering"
// @Param term_id query string false "Term"
// @Success 200 {object} response.Envelope
// @Router /manual-scores [get]
func (h *ScoreHandler) ListManualScores(c *gin.Context) {
	scores, err := h.scores.ListManualScores(c.Request.Context(), c.Query("student_id"), c.Query("offering_id"), c.Query("term_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, scores)
}

// ReportCard godoc
// @Summary Report card of a student for a term
// @Tags Reports
// @Produce json
// @Param studentId path string true "Student ID"
// @Param term_id query string true "Term"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/report-card [get]
func (h *ScoreHandler) ReportCard(c *gin.Context) {
	card, err := h.scores.ReportCard(c.Request.Context(), c.Param("studentId"), c.Query("term_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, card)
}

// TermGrade godoc
// @Summary Computed term grade for an offering
// @Tags Reports
// @Produce json
// @Param studentId path string true "Student ID"
// @Param offering_id query string true "Offering"
// @Param term_id query string true "Term"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/term-grade [get]
func (h *ScoreHandler) TermGrade(c *gin.Context) {
	grade, err := h.scores.OfferingTermGrade(c.Request.Context(), c.Param("studentId"), c.Query("offering_id"), c.Query("term_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// PeriodGrade godoc
// @Summary Term weighted grade for an offering across the period
// @Tags Reports
// @Produce json
// @Param studentId path string true "Student ID"
// @Param offering_id query string true "Offering"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/period-grade [get]
func (h *ScoreHandler) PeriodGrade(c *gin.Context) {
	grade, err := h.scores.PeriodGrade(c.Request.Context(), c.Param("studentId"), c.Query("offering_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, grade)
}
