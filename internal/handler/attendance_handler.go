package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-academic-core/internal/models"
	"github.com/noah-isme/sma-academic-core/internal/service"
	"github.com/noah-isme/sma-academic-core/pkg/response"
)

type attendanceService interface {
	Record(ctx context.Context, actorID string, req service.RecordAttendanceRequest) (*service.RecordAttendanceResult, error)
	List(ctx context.Context, query service.AttendanceQuery) ([]models.Attendance, error)
	StudentStats(ctx context.Context, query service.AttendanceQuery) (*models.StudentAttendanceStats, error)
	SectionReport(ctx context.Context, query service.AttendanceQuery) (*models.SectionAttendanceReport, error)
	History(ctx context.Context, query service.AttendanceQuery) ([]models.AttendanceHistoryDay, error)
}

// AttendanceHandler exposes attendance recording and statistics.
type AttendanceHandler struct {
	attendance attendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance attendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// attendanceQuery reads the shared scope parameters; ok is false after an error response.
func attendanceQuery(c *gin.Context, sectionID string) (service.AttendanceQuery, bool) {
	from, ok := optionalDate(c, "from")
	if !ok {
		return service.AttendanceQuery{}, false
	}
	to, ok := optionalDate(c, "to")
	if !ok {
		return service.AttendanceQuery{}, false
	}
	return service.AttendanceQuery{
		StudentID:        c.Query("student_id"),
		SectionID:        sectionID,
		AcademicPeriodID: c.Query("academic_period_id"),
		OfferingID:       optionalString(c, "offering_id"),
		DateFrom:         from,
		DateTo:           to,
	}, true
}

// Record godoc
// @Summary Record attendance for a date
// @Description Students without an active enrollment are rejected; partialOnError mode stores the rest.
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.RecordAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Record(c *gin.Context) {
	var req service.RecordAttendanceRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.attendance.Record(c.Request.Context(), actorID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// List godoc
// @Summary List attendance records of a section
// @Tags Attendance
// @Produce json
// @Param id path string true "Section ID"
// @Param student_id query string false "Student"
// @Param offering_id query string false "Offering"
// @Param academic_period_id query string false "Academic period"
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	query, ok := attendanceQuery(c, c.Param("id"))
	if !ok {
		return
	}
	records, err := h.attendance.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, records)
}

// StudentStats godoc
// @Summary Attendance rate of a student in a section
// @Tags Attendance
// @Produce json
// @Param studentId path string true "Student ID"
// @Param section_id query string true "Section"
// @Param offering_id query string false "Offering"
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/attendance [get]
func (h *AttendanceHandler) StudentStats(c *gin.Context) {
	query, ok := attendanceQuery(c, c.Query("section_id"))
	if !ok {
		return
	}
	query.StudentID = c.Param("studentId")
	stats, err := h.attendance.StudentStats(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}

// SectionReport godoc
// @Summary Attendance report of a section
// @Tags Attendance
// @Produce json
// @Param id path string true "Section ID"
// @Param offering_id query string false "Offering, omitted for the whole section"
// @Param academic_period_id query string false "Academic period"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/attendance/report [get]
func (h *AttendanceHandler) SectionReport(c *gin.Context) {
	query, ok := attendanceQuery(c, c.Param("id"))
	if !ok {
		return
	}
	report, err := h.attendance.SectionReport(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}

// History godoc
// @Summary Daily attendance tallies of a section
// @Tags Attendance
// @Produce json
// @Param id path string true "Section ID"
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/attendance/history [get]
func (h *AttendanceHandler) History(c *gin.Context) {
	query, ok := attendanceQuery(c, c.Param("id"))
	if !ok {
		return
	}
	days, err := h.attendance.History(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, days)
}
