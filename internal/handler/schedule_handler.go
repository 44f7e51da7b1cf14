package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-academic-core/internal/models"
	"github.com/noah-isme/sma-academic-core/internal/service"
	"github.com/noah-isme/sma-academic-core/pkg/response"
)

type scheduleService interface {
	CreateOffering(ctx context.Context, req service.CreateOfferingRequest) (*models.Offering, error)
	GetOffering(ctx context.Context, id string) (*models.Offering, error)
	ListOfferings(ctx context.Context, filter models.OfferingFilter) ([]models.Offering, *models.Pagination, error)
	SetOfferingActive(ctx context.Context, id string, active bool) (*models.Offering, error)
	ListSlots(ctx context.Context, filter models.TimeSlotFilter) ([]models.TimeSlot, *models.Pagination, error)
	GetSlot(ctx context.Context, id string) (*models.TimeSlot, error)
	CreateSlot(ctx context.Context, req service.CreateTimeSlotRequest) (*models.TimeSlot, error)
	UpdateSlot(ctx context.Context, id string, req service.UpdateTimeSlotRequest) (*models.TimeSlot, error)
	DeleteSlot(ctx context.Context, id string) error
	BulkCreateSlots(ctx context.Context, req service.BulkCreateTimeSlotsRequest) (*service.BulkCreateTimeSlotsResult, error)
	SectionTimetable(ctx context.Context, sectionID, periodID string) ([]models.TimetableDay, error)
	TeacherTimetable(ctx context.Context, teacherID, periodID string) ([]models.TimetableDay, error)
	TodaySlots(ctx context.Context, sectionID, periodID string) (*models.TimetableDay, error)
}

// ScheduleHandler exposes offering and time slot endpoints.
type ScheduleHandler struct {
	schedule scheduleService
}

// NewScheduleHandler constructs ScheduleHandler.
func NewScheduleHandler(schedule scheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedule: schedule}
}

// ListOfferings godoc
// @Summary List offerings
// @Tags Schedule
// @Produce json
// @Param section_id query string false "Section"
// @Param teacher_id query string false "Teacher"
// @Param academic_period_id query string false "Academic period"
// @Param active query bool false "Active flag"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /offerings [get]
func (h *ScheduleHandler) ListOfferings(c *gin.Context) {
	filter := models.OfferingFilter{
		SectionID:        c.Query("section_id"),
		TeacherID:        c.Query("teacher_id"),
		SubjectID:        c.Query("subject_id"),
		AcademicPeriodID: c.Query("academic_period_id"),
		Active:           optionalBool(c, "active"),
	}
	filter.Page, filter.PageSize = pageParams(c)
	items, pagination, err := h.schedule.ListOfferings(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// GetOffering godoc
// @Summary Get offering
// @Tags Schedule
// @Produce json
// @Param id path string true "Offering ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /offerings/{id} [get]
func (h *ScheduleHandler) GetOffering(c *gin.Context) {
	offering, err := h.schedule.GetOffering(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, offering)
}

// CreateOffering godoc
// @Summary Create offering
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body service.CreateOfferingRequest true "Offering payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /offerings [post]
func (h *ScheduleHandler) CreateOffering(c *gin.Context) {
	var req service.CreateOfferingRequest
	if !bindJSON(c, &req) {
		return
	}
	offering, err := h.schedule.CreateOffering(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, offering)
}

type offeringActiveRequest struct {
	Active bool `json:"active"`
}

// SetOfferingActive godoc
// @Summary Activate or deactivate an offering
// @Description Deactivation also deactivates the offering's time slots. Reactivation is checked for overlaps.
// @Tags Schedule
// @Accept json
// @Produce json
// @Param id path string true "Offering ID"
// @Param payload body offeringActiveRequest true "Active flag"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /offerings/{id}/active [patch]
func (h *ScheduleHandler) SetOfferingActive(c *gin.Context) {
	var req offeringActiveRequest
	if !bindJSON(c, &req) {
		return
	}
	offering, err := h.schedule.SetOfferingActive(c.Request.Context(), c.Param("id"), req.Active)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, offering)
}

// ListSlots godoc
// @Summary List time slots
// @Tags Schedule
// @Produce json
// @Param section_id query string false "Section"
// @Param teacher_id query string false "Teacher"
// @Param offering_id query string false "Offering"
// @Param academic_period_id query string false "Academic period"
// @Param day_of_week query string false "monday..saturday"
// @Param active query bool false "Active flag"
// @Success 200 {object} response.Envelope
// @Router /time-slots [get]
func (h *ScheduleHandler) ListSlots(c *gin.Context) {
	filter := models.TimeSlotFilter{
		AcademicPeriodID: c.Query("academic_period_id"),
		SectionID:        c.Query("section_id"),
		TeacherID:        c.Query("teacher_id"),
		OfferingID:       c.Query("offering_id"),
		DayOfWeek:        strings.ToLower(c.Query("day_of_week")),
		Active:           optionalBool(c, "active"),
	}
	filter.Page, filter.PageSize = pageParams(c)
	slots, pagination, err := h.schedule.ListSlots(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, pagination)
}

// GetSlot godoc
// @Summary Get time slot
// @Tags Schedule
// @Produce json
// @Param id path string true "Time slot ID"
// @Success 200 {object} response.Envelope
// @Router /time-slots/{id} [get]
func (h *ScheduleHandler) GetSlot(c *gin.Context) {
	slot, err := h.schedule.GetSlot(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, slot)
}

// CreateSlot godoc
// @Summary Create time slot
// @Description Rejected with SCHEDULE_CONFLICT when the section or the teacher is already booked.
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body service.CreateTimeSlotRequest true "Time slot payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /time-slots [post]
func (h *ScheduleHandler) CreateSlot(c *gin.Context) {
	var req service.CreateTimeSlotRequest
	if !bindJSON(c, &req) {
		return
	}
	slot, err := h.schedule.CreateSlot(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// BulkCreateSlots godoc
// @Summary Create several time slots
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body service.BulkCreateTimeSlotsRequest true "Bulk payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /time-slots/bulk [post]
func (h *ScheduleHandler) BulkCreateSlots(c *gin.Context) {
	var req service.BulkCreateTimeSlotsRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.schedule.BulkCreateSlots(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// UpdateSlot godoc
// @Summary Update time slot
// @Tags Schedule
// @Accept json
// @Produce json
// @Param id path string true "Time slot ID"
// @Param payload body service.UpdateTimeSlotRequest true "Time slot payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /time-slots/{id} [put]
func (h *ScheduleHandler) UpdateSlot(c *gin.Context) {
	var req service.UpdateTimeSlotRequest
	if !bindJSON(c, &req) {
		return
	}
	slot, err := h.schedule.UpdateSlot(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, slot)
}

// DeleteSlot godoc
// @Summary Delete time slot
// @Tags Schedule
// @Param id path string true "Time slot ID"
// @Success 204
// @Router /time-slots/{id} [delete]
func (h *ScheduleHandler) DeleteSlot(c *gin.Context) {
	if err := h.schedule.DeleteSlot(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SectionTimetable godoc
// @Summary Weekly timetable of a section
// @Tags Schedule
// @Produce json
// @Param id path string true "Section ID"
// @Param academic_period_id query string false "Defaults to the current period"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/timetable [get]
func (h *ScheduleHandler) SectionTimetable(c *gin.Context) {
	days, err := h.schedule.SectionTimetable(c.Request.Context(), c.Param("id"), c.Query("academic_period_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, days)
}

// TeacherTimetable godoc
// @Summary Weekly timetable of a teacher
// @Tags Schedule
// @Produce json
// @Param teacherId path string true "Teacher ID"
// @Param academic_period_id query string false "Defaults to the current period"
// @Success 200 {object} response.Envelope
// @Router /teachers/{teacherId}/timetable [get]
func (h *ScheduleHandler) TeacherTimetable(c *gin.Context) {
	days, err := h.schedule.TeacherTimetable(c.Request.Context(), c.Param("teacherId"), c.Query("academic_period_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, days)
}

// TodaySlots godoc
// @Summary Today's slots of a section
// @Tags Schedule
// @Produce json
// @Param id path string true "Section ID"
// @Param academic_period_id query string false "Defaults to the current period"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/timetable/today [get]
func (h *ScheduleHandler) TodaySlots(c *gin.Context) {
	day, err := h.schedule.TodaySlots(c.Request.Context(), c.Param("id"), c.Query("academic_period_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, day)
}
