package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-academic-core/internal/service"
	"github.com/noah-isme/sma-academic-core/pkg/export"
	"github.com/noah-isme/sma-academic-core/pkg/response"
	"github.com/noah-isme/sma-academic-core/pkg/storage"
)

type exportService interface {
	ExportSectionAttendance(ctx context.Context, query service.AttendanceQuery, format string) (*service.ExportResult, error)
	ExportReportCard(ctx context.Context, studentID, termID, format string) (*service.ExportResult, error)
	Resolve(token string) (storage.DownloadClaims, error)
	Open(relPath string) (*os.File, error)
}

// ExportHandler renders reports to files and serves signed downloads.
type ExportHandler struct {
	exports exportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports exportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// SectionAttendance godoc
// @Summary Export a section attendance report
// @Tags Exports
// @Produce json
// @Param id path string true "Section ID"
// @Param format query string false "csv or pdf"
// @Param offering_id query string false "Offering"
// @Success 201 {object} response.Envelope
// @Router /sections/{id}/attendance/export [post]
func (h *ExportHandler) SectionAttendance(c *gin.Context) {
	query, ok := attendanceQuery(c, c.Param("id"))
	if !ok {
		return
	}
	result, err := h.exports.ExportSectionAttendance(c.Request.Context(), query, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// ReportCard godoc
// @Summary Export a report card
// @Tags Exports
// @Produce json
// @Param studentId path string true "Student ID"
// @Param term_id query string true "Term"
// @Param format query string false "csv or pdf"
// @Success 201 {object} response.Envelope
// @Router /students/{studentId}/report-card/export [post]
func (h *ExportHandler) ReportCard(c *gin.Context) {
	result, err := h.exports.ExportReportCard(c.Request.Context(), c.Param("studentId"), c.Query("term_id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Download godoc
// @Summary Download an export through its signed token
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /exports/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	claims, err := h.exports.Resolve(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exports.Open(claims.Path)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, err)
		return
	}
	name := filepath.Base(claims.Path)
	format := export.FormatCSV
	if filepath.Ext(name) == ".pdf" {
		format = export.FormatPDF
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.DataFromReader(http.StatusOK, info.Size(), format.ContentType(), file, nil)
}
