package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	ulid "github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-academic-core/internal/models"
	appErrors "github.com/noah-isme/sma-academic-core/pkg/errors"
	"github.com/noah-isme/sma-academic-core/pkg/export"
	"github.com/noah-isme/sma-academic-core/pkg/storage"
)

type sectionReportSource interface {
	SectionReport(ctx context.Context, query AttendanceQuery) (*models.SectionAttendanceReport, error)
}

type reportCardSource interface {
	ReportCard(ctx context.Context, studentID, termID string) (*models.ReportCard, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult describes a stored export and its signed download link.
type ExportResult struct {
	ExportID     string        `json:"export_id"`
	RelativePath string        `json:"-"`
	Token        string        `json:"token"`
	URL          string        `json:"url"`
	Format       export.Format `json:"format"`
	ExpiresAt    time.Time     `json:"expires_at"`
}

// ExportService renders section attendance reports and report cards to files.
type ExportService struct {
	attendance sectionReportSource
	scores     reportCardSource
	storage    fileStorage
	signer     *storage.SignedURLSigner
	logger     *zap.Logger
	cfg        ExportConfig
	now        func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(attendance sectionReportSource, scores reportCardSource, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		attendance: attendance,
		scores:     scores,
		storage:    store,
		signer:     signer,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// ExportSectionAttendance renders the attendance report of a section.
func (s *ExportService) ExportSectionAttendance(ctx context.Context, query AttendanceQuery, rawFormat string) (*ExportResult, error) {
	format, err := parseExportFormat(rawFormat)
	if err != nil {
		return nil, err
	}
	report, err := s.attendance.SectionReport(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.store(format, "attendance_"+sanitizeFilename(report.SectionID), attendanceDataset(report))
}

// ExportReportCard renders a student's report card for a term.
func (s *ExportService) ExportReportCard(ctx context.Context, studentID, termID, rawFormat string) (*ExportResult, error) {
	format, err := parseExportFormat(rawFormat)
	if err != nil {
		return nil, err
	}
	card, err := s.scores.ReportCard(ctx, studentID, termID)
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("report_card_%s_%s", sanitizeFilename(card.StudentID), sanitizeFilename(card.TermID))
	return s.store(format, name, reportCardDataset(card))
}

// Resolve verifies a download token and returns its claims.
func (s *ExportService) Resolve(token string) (storage.DownloadClaims, error) {
	claims, err := s.signer.Parse(token, false)
	switch {
	case errors.Is(err, storage.ErrTokenExpired):
		return claims, appErrors.Clone(appErrors.ErrNotFound, "download link expired")
	case err != nil:
		return claims, appErrors.Clone(appErrors.ErrUnauthorized, "invalid download token")
	}
	return claims, nil
}

// Open returns a handle to a stored export.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	file, err := s.storage.Open(relPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export")
	}
	return file, nil
}

// Cleanup removes exports older than ttl, defaulting to the configured result TTL.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	deleted, err := s.storage.CleanupOlderThan(ttl)
	if err != nil {
		return nil, err
	}
	if len(deleted) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(deleted)))
	}
	return deleted, nil
}

func (s *ExportService) store(format export.Format, name string, dataset export.Dataset) (*ExportResult, error) {
	payload, err := export.Render(format, dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	now := s.now().UTC()
	id := ulid.Make().String()
	filename := fmt.Sprintf("%s/%s_%s.%s", now.Format("20060102"), name, strings.ToLower(id), format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}
	token, expiresAt, err := s.signer.Generate(id, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export")
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.logger.Info("export stored", zap.String("export_id", id), zap.String("path", relPath), zap.Int("bytes", len(payload)))
	return &ExportResult{
		ExportID:     id,
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/%s", prefix, token),
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

func parseExportFormat(raw string) (export.Format, error) {
	format, err := export.ParseFormat(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	return format, nil
}

func attendanceDataset(report *models.SectionAttendanceReport) export.Dataset {
	data := export.Dataset{
		Title:    "Attendance Report",
		Subtitle: []string{fmt.Sprintf("Section %s, period %s", report.SectionID, report.AcademicPeriodID)},
		Headers:  []string{"Student", "Present", "Late", "Excused", "Absent", "Attendance (%)", "Meets Requirement"},
	}
	if report.OfferingID != nil {
		data.Subtitle = append(data.Subtitle, "Offering "+*report.OfferingID)
	}
	for _, row := range report.Students {
		data.AddRow(row.StudentID,
			fmt.Sprintf("%d", row.Present),
			fmt.Sprintf("%d", row.Late),
			fmt.Sprintf("%d", row.Excused),
			fmt.Sprintf("%d", row.Absent),
			fmt.Sprintf("%.2f", row.Percentage),
			yesNo(row.MeetsRequirement))
	}
	data.Footer = []string{
		fmt.Sprintf("Students: %d", report.Summary.TotalStudents),
		fmt.Sprintf("At risk (below %.2f%%): %d", report.Summary.ThresholdPercent, report.Summary.AtRiskCount),
	}
	return data
}

func reportCardDataset(card *models.ReportCard) export.Dataset {
	data := export.Dataset{
		Title:    "Report Card",
		Subtitle: []string{fmt.Sprintf("Student %s, term %s", card.StudentID, card.TermID)},
		Headers:  []string{"Subject", "Score", "Grade", "Passed", "Final"},
	}
	for _, item := range card.Items {
		data.AddRow(item.SubjectID, fmt.Sprintf("%.2f", item.Score), item.Letter, yesNo(item.Passed), yesNo(item.IsFinal))
	}
	average := "-"
	if card.Average != nil {
		average = fmt.Sprintf("%.2f", *card.Average)
	}
	data.Footer = []string{
		"Average: " + average,
		fmt.Sprintf("Passed %d of %d", card.Passed, card.TotalSubjects),
	}
	return data
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
