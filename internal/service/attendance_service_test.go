package service

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-academic-core/internal/academic"
	"github.com/noah-isme/sma-academic-core/internal/models"
	appErrors "github.com/noah-isme/sma-academic-core/pkg/errors"
)

type attendanceRepoStub struct {
	records []models.Attendance
}

func sameOffering(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *attendanceRepoStub) matches(record models.Attendance, scope models.AttendanceScope) bool {
	if scope.StudentID != "" && record.StudentID != scope.StudentID {
		return false
	}
	if scope.SectionID != "" && record.SectionID != scope.SectionID {
		return false
	}
	if scope.AcademicPeriodID != "" && record.AcademicPeriodID != scope.AcademicPeriodID {
		return false
	}
	if scope.OfferingID != nil && !sameOffering(record.OfferingID, scope.OfferingID) {
		return false
	}
	if scope.DateFrom != nil && record.Date.Before(*scope.DateFrom) {
		return false
	}
	if scope.DateTo != nil && record.Date.After(*scope.DateTo) {
		return false
	}
	return true
}

func (s *attendanceRepoStub) UpsertBatch(ctx context.Context, exec sqlx.ExtContext, records []models.Attendance) error {
	for _, record := range records {
		replaced := false
		for i := range s.records {
			existing := s.records[i]
			if existing.StudentID == record.StudentID && existing.SectionID == record.SectionID &&
				sameOffering(existing.OfferingID, record.OfferingID) && existing.Date.Equal(record.Date) {
				s.records[i] = record
				replaced = true
			}
		}
		if !replaced {
			s.records = append(s.records, record)
		}
	}
	return nil
}

func (s *attendanceRepoStub) List(ctx context.Context, scope models.AttendanceScope) ([]models.Attendance, error) {
	var out []models.Attendance
	for _, record := range s.records {
		if s.matches(record, scope) {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *attendanceRepoStub) CountsByStudent(ctx context.Context, scope models.AttendanceScope) (academic.StatusCounts, error) {
	var counts academic.StatusCounts
	for _, record := range s.records {
		if s.matches(record, scope) {
			_ = counts.Add(record.Status)
		}
	}
	return counts, nil
}

func (s *attendanceRepoStub) CountsForSection(ctx context.Context, scope models.AttendanceScope) ([]models.StudentStatusCounts, error) {
	index := map[string]int{}
	var out []models.StudentStatusCounts
	for _, record := range s.records {
		if !s.matches(record, scope) {
			continue
		}
		i, ok := index[record.StudentID]
		if !ok {
			out = append(out, models.StudentStatusCounts{StudentID: record.StudentID})
			i = len(out) - 1
			index[record.StudentID] = i
		}
		_ = out[i].Add(record.Status)
	}
	return out, nil
}

func (s *attendanceRepoStub) HistoryBySection(ctx context.Context, scope models.AttendanceScope) ([]models.AttendanceHistoryDay, error) {
	index := map[string]int{}
	var out []models.AttendanceHistoryDay
	for _, record := range s.records {
		if !s.matches(record, scope) {
			continue
		}
		key := record.Date.Format(dateLayout)
		i, ok := index[key]
		if !ok {
			out = append(out, models.AttendanceHistoryDay{Date: record.Date})
			i = len(out) - 1
			index[key] = i
		}
		_ = out[i].Add(record.Status)
		out[i].Records++
	}
	return out, nil
}

type rosterStub struct {
	ids map[string][]string
}

func (s rosterStub) ListActiveStudentIDs(ctx context.Context, sectionID string) ([]string, error) {
	return s.ids[sectionID], nil
}

type attendanceFixture struct {
	service *AttendanceService
	repo    *attendanceRepoStub
	cache   *reportCacheStub
	commit  func()
}

func newAttendanceFixture(t *testing.T) *attendanceFixture {
	tx, mock := newTxProviderMock(t)
	repo := &attendanceRepoStub{}
	roster := rosterStub{ids: map[string][]string{"SEC-A": {"ana", "ben", "cam"}}}
	sections := &sectionReaderStub{sections: map[string]*models.Section{
		"SEC-A": {ID: "SEC-A", AcademicPeriodID: "P"},
		"SEC-B": {ID: "SEC-B", AcademicPeriodID: "P"},
	}}
	offerings := &offeringRepoStub{items: map[string]*models.Offering{
		"OFF-A": {ID: "OFF-A", SectionID: "SEC-A", AcademicPeriodID: "P", Active: true},
		"OFF-B": {ID: "OFF-B", SectionID: "SEC-B", AcademicPeriodID: "P", Active: true},
	}}
	cache := &reportCacheStub{entries: map[string][]byte{}}
	svc := NewAttendanceService(repo, roster, sections, offerings, cache, tx, nil,
		AttendanceServiceConfig{Policy: academic.DefaultAttendancePolicy()}, nil, nil).
		WithClock(func() time.Time { return time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC) })
	t.Cleanup(func() { require.NoError(t, mock.ExpectationsWereMet()) })
	return &attendanceFixture{service: svc, repo: repo, cache: cache, commit: func() { mock.ExpectBegin(); mock.ExpectCommit() }}
}

func (fx *attendanceFixture) record(t *testing.T, date string, offeringID *string, statuses map[string]string) {
	t.Helper()
	entries := make([]AttendanceEntry, 0, len(statuses))
	for student, status := range statuses {
		entries = append(entries, AttendanceEntry{StudentID: student, Status: status})
	}
	fx.commit()
	_, err := fx.service.Record(context.Background(), "teacher-1", RecordAttendanceRequest{SectionID: "SEC-A", OfferingID: offeringID, Date: date, Entries: entries})
	require.NoError(t, err)
}

func TestAttendanceServiceStudentStatsFormula(t *testing.T) {
	fx := newAttendanceFixture(t)
	statuses := []string{"present", "present", "present", "present", "present", "present", "late", "excused", "absent", "absent"}
	for i, status := range statuses {
		fx.record(t, time.Date(2026, 9, 1+i, 0, 0, 0, 0, time.UTC).Format(dateLayout), nil, map[string]string{"ana": status})
	}

	stats, err := fx.service.StudentStats(context.Background(), AttendanceQuery{StudentID: "ana", SectionID: "SEC-A"})
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Total)
	assert.Equal(t, 8, stats.Attended)
	assert.Equal(t, 80.0, stats.Percentage)
	assert.True(t, stats.MeetsRequirement)
}

func TestAttendanceServiceNoRecordsIsVacuousPass(t *testing.T) {
	fx := newAttendanceFixture(t)

	stats, err := fx.service.StudentStats(context.Background(), AttendanceQuery{StudentID: "ana", SectionID: "SEC-A"})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 100.0, stats.Percentage)
	assert.True(t, stats.MeetsRequirement)
}

func TestAttendanceServiceRecordUpsertsOnSameKey(t *testing.T) {
	fx := newAttendanceFixture(t)
	fx.record(t, "2026-10-12", nil, map[string]string{"ana": "absent"})
	fx.record(t, "2026-10-12", nil, map[string]string{"ana": "excused"})

	records, err := fx.service.List(context.Background(), AttendanceQuery{SectionID: "SEC-A", StudentID: "ana"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, academic.StatusExcused, records[0].Status)
	assert.Equal(t, "P", records[0].AcademicPeriodID)
}

func TestAttendanceServiceRecordRejections(t *testing.T) {
	fx := newAttendanceFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  RecordAttendanceRequest
		code *appErrors.Error
	}{
		{"unknown status", RecordAttendanceRequest{SectionID: "SEC-A", Date: "2026-10-12", Entries: []AttendanceEntry{{StudentID: "ana", Status: "sick"}}}, appErrors.ErrValidation},
		{"duplicate student", RecordAttendanceRequest{SectionID: "SEC-A", Date: "2026-10-12", Entries: []AttendanceEntry{{StudentID: "ana", Status: "present"}, {StudentID: "ana", Status: "late"}}}, appErrors.ErrValidation},
		{"not enrolled", RecordAttendanceRequest{SectionID: "SEC-A", Date: "2026-10-12", Entries: []AttendanceEntry{{StudentID: "zoe", Status: "present"}}}, appErrors.ErrValidation},
		{"future date", RecordAttendanceRequest{SectionID: "SEC-A", Date: "2026-10-15", Entries: []AttendanceEntry{{StudentID: "ana", Status: "present"}}}, appErrors.ErrValidation},
		{"bad date", RecordAttendanceRequest{SectionID: "SEC-A", Date: "12/10/2026", Entries: []AttendanceEntry{{StudentID: "ana", Status: "present"}}}, appErrors.ErrValidation},
		{"offering of another section", RecordAttendanceRequest{SectionID: "SEC-A", OfferingID: strPtr("OFF-B"), Date: "2026-10-12", Entries: []AttendanceEntry{{StudentID: "ana", Status: "present"}}}, appErrors.ErrValidation},
		{"missing section", RecordAttendanceRequest{SectionID: "SEC-X", Date: "2026-10-12", Entries: []AttendanceEntry{{StudentID: "ana", Status: "present"}}}, appErrors.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fx.service.Record(ctx, "teacher-1", tc.req)
			requireAppCode(t, err, tc.code)
		})
	}
	assert.Empty(t, fx.repo.records)
}

func TestAttendanceServiceRecordPartialReportsUnenrolled(t *testing.T) {
	fx := newAttendanceFixture(t)
	fx.commit()
	result, err := fx.service.Record(context.Background(), "teacher-1", RecordAttendanceRequest{
		SectionID: "SEC-A",
		Date:      "2026-10-14",
		Mode:      models.BulkModePartialOnError,
		Entries:   []AttendanceEntry{{StudentID: "ana", Status: "present"}, {StudentID: "zoe", Status: "present"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Success)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "zoe", result.Conflicts[0].StudentID)
	assert.Contains(t, fx.cache.invalidated, AttendanceReportPattern("SEC-A"))
}

func TestAttendanceServiceSectionReport(t *testing.T) {
	fx := newAttendanceFixture(t)
	ctx := context.Background()
	fx.record(t, "2026-10-05", nil, map[string]string{"ana": "present", "ben": "absent"})
	fx.record(t, "2026-10-06", nil, map[string]string{"ana": "late", "ben": "absent"})
	fx.record(t, "2026-10-06", strPtr("OFF-A"), map[string]string{"ana": "absent", "ben": "present"})

	report, err := fx.service.SectionReport(ctx, AttendanceQuery{SectionID: "SEC-A"})
	require.NoError(t, err)
	require.Len(t, report.Students, 3)
	byStudent := map[string]models.StudentAttendanceStats{}
	for _, s := range report.Students {
		byStudent[s.StudentID] = s
	}
	assert.Equal(t, 3, byStudent["ana"].Total)
	assert.Equal(t, 66.67, byStudent["ana"].Percentage)
	assert.Equal(t, 33.33, byStudent["ben"].Percentage)
	assert.True(t, byStudent["cam"].MeetsRequirement)
	assert.Equal(t, 3, report.Summary.TotalStudents)
	assert.Equal(t, 2, report.Summary.AtRiskCount)
	assert.Equal(t, 1, report.Summary.PassingCount)
	assert.Contains(t, fx.cache.entries, AttendanceReportKey("SEC-A", "P", nil))

	perOffering, err := fx.service.SectionReport(ctx, AttendanceQuery{SectionID: "SEC-A", OfferingID: strPtr("OFF-A")})
	require.NoError(t, err)
	assert.Equal(t, 1, perOffering.Summary.AtRiskCount)
}

func TestAttendanceServiceHistory(t *testing.T) {
	fx := newAttendanceFixture(t)
	fx.record(t, "2026-10-05", nil, map[string]string{"ana": "present", "ben": "absent"})
	fx.record(t, "2026-10-07", nil, map[string]string{"ana": "late"})

	from := time.Date(2026, 10, 6, 0, 0, 0, 0, time.UTC)
	days, err := fx.service.History(context.Background(), AttendanceQuery{SectionID: "SEC-A", DateFrom: &from})
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, 1, days[0].Late)
	assert.Equal(t, 1, days[0].Records)

	to := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	_, err = fx.service.History(context.Background(), AttendanceQuery{SectionID: "SEC-A", DateFrom: &from, DateTo: &to})
	requireAppCode(t, err, appErrors.ErrValidation)
}
