package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-academic-core/internal/academic"
	"github.com/noah-isme/sma-academic-core/internal/models"
	appErrors "github.com/noah-isme/sma-academic-core/pkg/errors"
	"github.com/noah-isme/sma-academic-core/pkg/export"
	"github.com/noah-isme/sma-academic-core/pkg/storage"
)

type sectionReportStub struct{}

func (sectionReportStub) SectionReport(ctx context.Context, query AttendanceQuery) (*models.SectionAttendanceReport, error) {
	return &models.SectionAttendanceReport{
		SectionID:        query.SectionID,
		AcademicPeriodID: "P",
		Students: []models.StudentAttendanceStats{
			{StudentID: "ana", AttendanceSummary: academic.AttendanceSummary{Total: 10, Present: 8, Absent: 2, Attended: 8, Percentage: 80, MeetsRequirement: true}},
			{StudentID: "ben", AttendanceSummary: academic.AttendanceSummary{Total: 10, Present: 5, Absent: 5, Attended: 5, Percentage: 50}},
		},
		Summary: models.SectionAttendanceSummary{TotalStudents: 2, AtRiskCount: 1, PassingCount: 1, ThresholdPercent: 75},
	}, nil
}

type reportCardStub struct{}

func (reportCardStub) ReportCard(ctx context.Context, studentID, termID string) (*models.ReportCard, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student_id and term_id are required")
	}
	return &models.ReportCard{
		StudentID:     studentID,
		TermID:        termID,
		Items:         []models.ReportCardItem{{SubjectID: "math", Score: 15, Letter: "B", Passed: true}},
		Average:       floatPtr(15),
		TotalSubjects: 1,
		Passed:        1,
	}, nil
}

func newExportServiceForTest(t *testing.T) *ExportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	return NewExportService(sectionReportStub{}, reportCardStub{}, store, signer, ExportConfig{APIPrefix: "/api/v1/"}, nil)
}

func TestExportServiceSectionAttendanceCSV(t *testing.T) {
	svc := newExportServiceForTest(t)

	result, err := svc.ExportSectionAttendance(context.Background(), AttendanceQuery{SectionID: "SEC-A"}, "CSV")
	require.NoError(t, err)
	assert.Equal(t, export.FormatCSV, result.Format)
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/exports/"))
	assert.Contains(t, result.RelativePath, "attendance_SEC-A")

	claims, err := svc.Resolve(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.ExportID, claims.ExportID)

	file, err := svc.Open(claims.Path)
	require.NoError(t, err)
	defer file.Close()
	body, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Contains(t, string(body), "ana,8,0,0,2,80.00,yes")
	assert.Contains(t, string(body), "At risk (below 75.00%): 1")
}

func TestExportServiceReportCardPDF(t *testing.T) {
	svc := newExportServiceForTest(t)

	result, err := svc.ExportReportCard(context.Background(), "stu-1", "T1", "pdf")
	require.NoError(t, err)
	assert.Equal(t, export.FormatPDF, result.Format)
	assert.True(t, strings.HasSuffix(result.RelativePath, ".pdf"))

	_, err = svc.ExportReportCard(context.Background(), "", "T1", "pdf")
	requireAppCode(t, err, appErrors.ErrValidation)
}

func TestExportServiceRejectsBadInput(t *testing.T) {
	svc := newExportServiceForTest(t)

	_, err := svc.ExportSectionAttendance(context.Background(), AttendanceQuery{SectionID: "SEC-A"}, "xlsx")
	requireAppCode(t, err, appErrors.ErrValidation)

	_, err = svc.Resolve("not.a.valid.token")
	requireAppCode(t, err, appErrors.ErrUnauthorized)
}

func TestExportServiceCleanup(t *testing.T) {
	svc := newExportServiceForTest(t)
	_, err := svc.ExportReportCard(context.Background(), "stu-1", "T1", "csv")
	require.NoError(t, err)

	deleted, err := svc.Cleanup(time.Hour)
	require.NoError(t, err)
	assert.Empty(t, deleted)
}
