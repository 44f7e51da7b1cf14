package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-academic-core/internal/models"
	"github.com/noah-isme/sma-academic-core/internal/service"
	"github.com/noah-isme/sma-academic-core/pkg/response"
)

type sectionService interface {
	List(ctx context.Context, filter models.SectionFilter) ([]models.SectionOccupancy, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.SectionOccupancy, error)
	Create(ctx context.Context, req service.CreateSectionRequest) (*models.Section, error)
	UpdateCapacity(ctx context.Context, id string, req service.UpdateCapacityRequest) (*models.SectionOccupancy, error)
}

// SectionHandler exposes section endpoints.
type SectionHandler struct {
	sections sectionService
}

// NewSectionHandler constructs SectionHandler.
func NewSectionHandler(sections sectionService) *SectionHandler {
	return &SectionHandler{sections: sections}
}

// List godoc
// @Summary List sections with occupancy
// @Tags Sections
// @Produce json
// @Param academic_period_id query string false "Academic period"
// @Param grade_level query string false "Grade level"
// @Param active query bool false "Active flag"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /sections [get]
func (h *SectionHandler) List(c *gin.Context) {
	filter := models.SectionFilter{
		AcademicPeriodID: c.Query("academic_period_id"),
		GradeLevel:       c.Query("grade_level"),
		Active:           optionalBool(c, "active"),
	}
	filter.Page, filter.PageSize = pageParams(c)
	sections, pagination, err := h.sections.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sections, pagination)
}

// Get godoc
// @Summary Get section occupancy
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sections/{id} [get]
func (h *SectionHandler) Get(c *gin.Context) {
	section, err := h.sections.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, section)
}

// Create godoc
// @Summary Create section
// @Tags Sections
// @Accept json
// @Produce json
// @Param payload body service.CreateSectionRequest true "Section payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sections [post]
func (h *SectionHandler) Create(c *gin.Context) {
	var req service.CreateSectionRequest
	if !bindJSON(c, &req) {
		return
	}
	section, err := h.sections.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, section)
}

// UpdateCapacity godoc
// @Summary Change section capacity
// @Description A capacity below current occupancy is accepted; no enrollment is removed.
// @Tags Sections
// @Accept json
// @Produce json
// @Param id path string true "Section ID"
// @Param payload body service.UpdateCapacityRequest true "Capacity, null for unbounded"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/capacity [put]
func (h *SectionHandler) UpdateCapacity(c *gin.Context) {
	var req service.UpdateCapacityRequest
	if !bindJSON(c, &req) {
		return
	}
	section, err := h.sections.UpdateCapacity(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, section)
}
