package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-academic-core/internal/academic"
	"github.com/noah-isme/sma-academic-core/internal/models"
	appErrors "github.com/noah-isme/sma-academic-core/pkg/errors"
)

const dateLayout = "2006-01-02"

type attendanceRepository interface {
	UpsertBatch(ctx context.Context, exec sqlx.ExtContext, records []models.Attendance) error
	List(ctx context.Context, scope models.AttendanceScope) ([]models.Attendance, error)
	CountsByStudent(ctx context.Context, scope models.AttendanceScope) (academic.StatusCounts, error)
	CountsForSection(ctx context.Context, scope models.AttendanceScope) ([]models.StudentStatusCounts, error)
	HistoryBySection(ctx context.Context, scope models.AttendanceScope) ([]models.AttendanceHistoryDay, error)
}

type rosterReader interface {
	ListActiveStudentIDs(ctx context.Context, sectionID string) ([]string, error)
}

// AttendanceEntry is one student line of a bulk record request.
type AttendanceEntry struct {
	StudentID string  `json:"student_id" validate:"required"`
	Status    string  `json:"status" validate:"required,attendance_status"`
	Notes     *string `json:"notes" validate:"omitempty,max=255"`
}

// RecordAttendanceRequest records a whole section, or one offering session, for a date.
type RecordAttendanceRequest struct {
	SectionID  string                   `json:"section_id" validate:"required"`
	OfferingID *string                  `json:"offering_id"`
	Date       string                   `json:"date" validate:"required,datetime=2006-01-02"`
	Mode       models.BulkOperationMode `json:"mode" validate:"omitempty,bulk_mode"`
	Entries    []AttendanceEntry        `json:"entries" validate:"required,min=1,max=200,dive"`
}

// RecordAttendanceResult summarises a bulk write.
type RecordAttendanceResult struct {
	Processed int                             `json:"processed"`
	Success   int                             `json:"success"`
	Conflicts []models.AttendanceBulkConflict `json:"conflicts,omitempty"`
}

// AttendanceQuery selects the records a statistic is computed over.
// An empty period resolves to the section's period.
type AttendanceQuery struct {
	StudentID        string
	SectionID        string
	AcademicPeriodID string
	OfferingID       *string
	DateFrom         *time.Time
	DateTo           *time.Time
}

// AttendanceService records attendance and computes attendance rates.
type AttendanceService struct {
	repo      attendanceRepository
	roster    rosterReader
	sections  sectionReader
	offerings offeringFinder
	cache     reportCache
	tx        txProvider
	metrics   *MetricsService
	policy    academic.AttendancePolicy
	reportTTL time.Duration
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// AttendanceServiceConfig carries the requirement policy and cache lifetime.
type AttendanceServiceConfig struct {
	Policy    academic.AttendancePolicy
	ReportTTL time.Duration
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, roster rosterReader, sections sectionReader, offerings offeringFinder, cache reportCache, tx txProvider, metrics *MetricsService, cfg AttendanceServiceConfig, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		repo:      repo,
		roster:    roster,
		sections:  sections,
		offerings: offerings,
		cache:     cache,
		tx:        tx,
		metrics:   metrics,
		policy:    cfg.Policy,
		reportTTL: cfg.ReportTTL,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the clock used to reject future dates.
func (s *AttendanceService) WithClock(now func() time.Time) *AttendanceService {
	if now != nil {
		s.now = now
	}
	return s
}

// Policy exposes the requirement in use.
func (s *AttendanceService) Policy() academic.AttendancePolicy {
	return s.policy
}

// Record upserts attendance for a date. Lines for students without an active
// enrollment in the section are rejected; in partialOnError mode they are
// reported and the remaining lines are stored.
func (s *AttendanceService) Record(ctx context.Context, actorID string, req RecordAttendanceRequest) (*RecordAttendanceResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD")
	}
	today := s.now().UTC().Format(dateLayout)
	if req.Date > today {
		return nil, appErrors.Clone(appErrors.ErrValidation, "attendance cannot be recorded for a future date")
	}

	section, err := s.loadSection(ctx, req.SectionID)
	if err != nil {
		return nil, err
	}
	offeringID, err := s.resolveOffering(ctx, section, req.OfferingID)
	if err != nil {
		return nil, err
	}
	enrolled, err := s.activeRoster(ctx, section.ID)
	if err != nil {
		return nil, err
	}

	result := &RecordAttendanceResult{Processed: len(req.Entries)}
	records := make([]models.Attendance, 0, len(req.Entries))
	seen := make(map[string]bool, len(req.Entries))
	for _, entry := range req.Entries {
		if seen[entry.StudentID] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s appears more than once", entry.StudentID))
		}
		seen[entry.StudentID] = true
		status, err := academic.ParseAttendanceStatus(entry.Status)
		if err != nil {
			return nil, validationError(err, "invalid attendance status")
		}
		if !enrolled[entry.StudentID] {
			result.Conflicts = append(result.Conflicts, models.AttendanceBulkConflict{
				StudentID: entry.StudentID,
				Reason:    "student has no active enrollment in the section",
			})
			continue
		}
		records = append(records, models.Attendance{
			StudentID:        entry.StudentID,
			SectionID:        section.ID,
			OfferingID:       offeringID,
			AcademicPeriodID: section.AcademicPeriodID,
			Date:             date,
			Status:           status,
			Notes:            entry.Notes,
			RecordedBy:       actorID,
		})
	}
	if len(result.Conflicts) > 0 && req.Mode != models.BulkModePartialOnError {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%d students have no active enrollment in the section", len(result.Conflicts)))
	}

	if len(records) > 0 {
		if err := runInTx(ctx, s.tx, s.metrics, "record attendance", func(tx *sqlx.Tx) error {
			return s.repo.UpsertBatch(ctx, tx, records)
		}); err != nil {
			return nil, err
		}
		if s.cache != nil {
			s.cache.InvalidateAsync(ctx, AttendanceReportPattern(section.ID))
		}
	}
	result.Success = len(records)
	s.logger.Debug("attendance recorded",
		zap.String("section_id", section.ID),
		zap.String("date", req.Date),
		zap.Int("success", result.Success),
		zap.Int("conflicts", len(result.Conflicts)))
	return result, nil
}

// List returns raw records of a scope.
func (s *AttendanceService) List(ctx context.Context, query AttendanceQuery) ([]models.Attendance, error) {
	scope, err := s.scope(ctx, query)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.List(ctx, scope)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// StudentStats computes one student's attendance rate. A scope without
// records follows the policy's empty-scope outcome.
func (s *AttendanceService) StudentStats(ctx context.Context, query AttendanceQuery) (*models.StudentAttendanceStats, error) {
	if query.StudentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student_id is required")
	}
	scope, err := s.scope(ctx, query)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.CountsByStudent(ctx, scope)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attendance")
	}
	return &models.StudentAttendanceStats{StudentID: query.StudentID, AttendanceSummary: s.policy.Summarize(counts)}, nil
}

// SectionReport computes the rate of every actively enrolled student and the
// at-risk rollup.
func (s *AttendanceService) SectionReport(ctx context.Context, query AttendanceQuery) (*models.SectionAttendanceReport, error) {
	query.StudentID = ""
	query.DateFrom, query.DateTo = nil, nil
	scope, err := s.scope(ctx, query)
	if err != nil {
		return nil, err
	}
	key := AttendanceReportKey(scope.SectionID, scope.AcademicPeriodID, scope.OfferingID)
	if s.cache != nil {
		var cached models.SectionAttendanceReport
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	students, err := s.roster.ListActiveStudentIDs(ctx, scope.SectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section roster")
	}
	tallies, err := s.repo.CountsForSection(ctx, scope)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attendance")
	}
	byStudent := make(map[string]academic.StatusCounts, len(tallies))
	for _, tally := range tallies {
		byStudent[tally.StudentID] = tally.StatusCounts
	}

	report := &models.SectionAttendanceReport{
		SectionID:        scope.SectionID,
		AcademicPeriodID: scope.AcademicPeriodID,
		OfferingID:       scope.OfferingID,
		Students:         make([]models.StudentAttendanceStats, 0, len(students)),
	}
	summaries := make([]academic.AttendanceSummary, 0, len(students))
	for _, studentID := range students {
		summary := s.policy.Summarize(byStudent[studentID])
		summaries = append(summaries, summary)
		report.Students = append(report.Students, models.StudentAttendanceStats{StudentID: studentID, AttendanceSummary: summary})
	}
	atRisk := academic.AtRiskCount(summaries)
	report.Summary = models.SectionAttendanceSummary{
		TotalStudents:    len(students),
		AtRiskCount:      atRisk,
		PassingCount:     len(students) - atRisk,
		ThresholdPercent: s.policy.ThresholdPercent,
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, report, s.reportTTL)
	}
	return report, nil
}

// History tallies a section's records per date within [from, to].
func (s *AttendanceService) History(ctx context.Context, query AttendanceQuery) ([]models.AttendanceHistoryDay, error) {
	if query.DateFrom != nil && query.DateTo != nil && query.DateFrom.After(*query.DateTo) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from must not be after to")
	}
	query.StudentID = ""
	scope, err := s.scope(ctx, query)
	if err != nil {
		return nil, err
	}
	days, err := s.repo.HistoryBySection(ctx, scope)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance history")
	}
	if days == nil {
		days = []models.AttendanceHistoryDay{}
	}
	return days, nil
}

func (s *AttendanceService) scope(ctx context.Context, query AttendanceQuery) (models.AttendanceScope, error) {
	if query.SectionID == "" {
		return models.AttendanceScope{}, appErrors.Clone(appErrors.ErrValidation, "section_id is required")
	}
	periodID := query.AcademicPeriodID
	if periodID == "" {
		section, err := s.loadSection(ctx, query.SectionID)
		if err != nil {
			return models.AttendanceScope{}, err
		}
		periodID = section.AcademicPeriodID
	}
	offeringID := query.OfferingID
	if offeringID != nil && *offeringID == "" {
		offeringID = nil
	}
	return models.AttendanceScope{
		StudentID:        query.StudentID,
		SectionID:        query.SectionID,
		AcademicPeriodID: periodID,
		OfferingID:       offeringID,
		DateFrom:         query.DateFrom,
		DateTo:           query.DateTo,
	}, nil
}

func (s *AttendanceService) loadSection(ctx context.Context, id string) (*models.Section, error) {
	section, err := s.sections.FindByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	return section, nil
}

func (s *AttendanceService) resolveOffering(ctx context.Context, section *models.Section, offeringID *string) (*string, error) {
	if offeringID == nil || *offeringID == "" {
		return nil, nil
	}
	offering, err := s.offerings.FindByID(ctx, nil, *offeringID)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}
	if offering.SectionID != section.ID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "offering does not belong to the section")
	}
	return &offering.ID, nil
}

func (s *AttendanceService) activeRoster(ctx context.Context, sectionID string) (map[string]bool, error) {
	ids, err := s.roster.ListActiveStudentIDs(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section roster")
	}
	enrolled := make(map[string]bool, len(ids))
	for _, id := range ids {
		enrolled[id] = true
	}
	return enrolled, nil
}
