package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-academic-core/internal/models"
	"github.com/noah-isme/sma-academic-core/internal/service"
	"github.com/noah-isme/sma-academic-core/pkg/response"
)

type periodService interface {
	List(ctx context.Context) ([]models.AcademicPeriod, error)
	Get(ctx context.Context, id string) (*models.AcademicPeriod, error)
	Current(ctx context.Context) (*models.AcademicPeriod, error)
	Create(ctx context.Context, req service.CreatePeriodRequest) (*models.AcademicPeriod, error)
	SetCurrent(ctx context.Context, id string) (*models.AcademicPeriod, error)
	ListTerms(ctx context.Context, periodID string) ([]models.Term, error)
	GetTerm(ctx context.Context, id string) (*models.Term, error)
	CreateTerm(ctx context.Context, periodID string, req service.CreateTermRequest) (*models.Term, error)
}

// PeriodHandler exposes academic period and term endpoints.
type PeriodHandler struct {
	periods periodService
}

// NewPeriodHandler constructs PeriodHandler.
func NewPeriodHandler(periods periodService) *PeriodHandler {
	return &PeriodHandler{periods: periods}
}

// List godoc
// @Summary List academic periods
// @Tags Periods
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /periods [get]
func (h *PeriodHandler) List(c *gin.Context) {
	periods, err := h.periods.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, periods)
}

// Current godoc
// @Summary Current academic period
// @Tags Periods
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /periods/current [get]
func (h *PeriodHandler) Current(c *gin.Context) {
	period, err := h.periods.Current(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, period)
}

// Get godoc
// @Summary Get academic period
// @Tags Periods
// @Produce json
// @Param id path string true "Period ID"
// @Success 200 {object} response.Envelope
// @Router /periods/{id} [get]
func (h *PeriodHandler) Get(c *gin.Context) {
	period, err := h.periods.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, period)
}

// Create godoc
// @Summary Create academic period
// @Tags Periods
// @Accept json
// @Produce json
// @Param payload body service.CreatePeriodRequest true "Period payload"
// @Success 201 {object} response.Envelope
// @Router /periods [post]
func (h *PeriodHandler) Create(c *gin.Context) {
	var req service.CreatePeriodRequest
	if !bindJSON(c, &req) {
		return
	}
	period, err := h.periods.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, period)
}

// SetCurrent godoc
// @Summary Mark period as current
// @Tags Periods
// @Produce json
// @Param id path string true "Period ID"
// @Success 200 {object} response.Envelope
// @Router /periods/{id}/current [post]
func (h *PeriodHandler) SetCurrent(c *gin.Context) {
	period, err := h.periods.SetCurrent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, period)
}

// ListTerms godoc
// @Summary List terms of a period
// @Tags Periods
// @Produce json
// @Param id path string true "Period ID"
// @Success 200 {object} response.Envelope
// @Router /periods/{id}/terms [get]
func (h *PeriodHandler) ListTerms(c *gin.Context) {
	terms, err := h.periods.ListTerms(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, terms)
}

// CreateTerm godoc
// @Summary Create term within a period
// @Tags Periods
// @Accept json
// @Produce json
// @Param id path string true "Period ID"
// @Param payload body service.CreateTermRequest true "Term payload"
// @Success 201 {object} response.Envelope
// @Router /periods/{id}/terms [post]
func (h *PeriodHandler) CreateTerm(c *gin.Context) {
	var req service.CreateTermRequest
	if !bindJSON(c, &req) {
		return
	}
	term, err := h.periods.CreateTerm(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, term)
}

// GetTerm godoc
// @Summary Get term
// @Tags Periods
// @Produce json
// @Param termId path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /terms/{termId} [get]
func (h *PeriodHandler) GetTerm(c *gin.Context) {
	term, err := h.periods.GetTerm(c.Request.Context(), c.Param("termId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, term)
}
