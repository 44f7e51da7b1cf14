package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-academic-core/internal/models"
	appErrors "github.com/noah-isme/sma-academic-core/pkg/errors"
)

type sectionStoreStub struct {
	sections    map[string]*models.Section
	enrollments *enrollmentStoreStub
	locked      []string
}

func (s *sectionStoreStub) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionOccupancy, int, error) {
	var out []models.SectionOccupancy
	for _, section := range s.sections {
		count, _ := s.CountActive(ctx, nil, section.ID)
		out = append(out, models.SectionOccupancy{Section: *section, ActiveCount: count})
	}
	return out, len(out), nil
}

func (s *sectionStoreStub) FindByID(ctx context.Context, id string) (*models.Section, error) {
	section, ok := s.sections[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *section
	return &clone, nil
}

func (s *sectionStoreStub) LockForUpdate(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Section, error) {
	s.locked = append(s.locked, id)
	return s.FindByID(ctx, id)
}

func (s *sectionStoreStub) CountActive(ctx context.Context, exec sqlx.ExtContext, sectionID string) (int, error) {
	count := 0
	for _, e := range s.enrollments.items {
		if e.SectionID == sectionID && e.Status == models.EnrollmentStatusActive {
			count++
		}
	}
	return count, nil
}

func (s *sectionStoreStub) Create(ctx context.Context, section *models.Section) error {
	if section.ID == "" {
		section.ID = fmt.Sprintf("sec-%d", len(s.sections)+1)
	}
	clone := *section
	s.sections[section.ID] = &clone
	return nil
}

func (s *sectionStoreStub) UpdateCapacity(ctx context.Context, exec sqlx.ExtContext, id string, capacity *int) error {
	s.sections[id].Capacity = capacity
	return nil
}

type enrollmentStoreStub struct {
	items     []*models.Enrollment
	createErr error
}

func (s *enrollmentStoreStub) seed(sectionID, periodID string, status models.EnrollmentStatus, n int) {
	for i := 0; i < n; i++ {
		s.items = append(s.items, &models.Enrollment{
			ID:               fmt.Sprintf("seed-%s-%s-%d", sectionID, status, i),
			StudentID:        fmt.Sprintf("stu-%s-%s-%d", sectionID, status, i),
			SectionID:        sectionID,
			AcademicPeriodID: periodID,
			Status:           status,
		})
	}
}

func (s *enrollmentStoreStub) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error) {
	var out []models.Enrollment
	for _, e := range s.items {
		if filter.StudentID != "" && e.StudentID != filter.StudentID {
			continue
		}
		out = append(out, *e)
	}
	return out, len(out), nil
}

func (s *enrollmentStoreStub) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Enrollment, error) {
	for _, e := range s.items {
		if e.ID == id {
			clone := *e
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *enrollmentStoreStub) FindActiveByStudent(ctx context.Context, exec sqlx.ExtContext, studentID, periodID string) (*models.Enrollment, error) {
	for _, e := range s.items {
		if e.StudentID == studentID && e.AcademicPeriodID == periodID && e.Status == models.EnrollmentStatusActive {
			clone := *e
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *enrollmentStoreStub) Create(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error {
	if s.createErr != nil {
		return fmt.Errorf("create enrollment: %w", s.createErr)
	}
	enrollment.ID = fmt.Sprintf("enr-%d", len(s.items)+1)
	clone := *enrollment
	s.items = append(s.items, &clone)
	return nil
}

func (s *enrollmentStoreStub) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.EnrollmentStatus) error {
	for _, e := range s.items {
		if e.ID == id {
			e.Status = status
		}
	}
	return nil
}

type invalidatorStub struct {
	patterns []string
}

func (s *invalidatorStub) InvalidateAsync(ctx context.Context, pattern string) {
	s.patterns = append(s.patterns, pattern)
}

type enrollmentFixture struct {
	service     *EnrollmentService
	sections    *sectionStoreStub
	enrollments *enrollmentStoreStub
	cache       *invalidatorStub
	metrics     *MetricsService
	commit      func()
	rollback    func()
}

func newEnrollmentFixture(t *testing.T) *enrollmentFixture {
	tx, mock := newTxProviderMock(t)
	enrollments := &enrollmentStoreStub{}
	sections := &sectionStoreStub{enrollments: enrollments, sections: map[string]*models.Section{
		"SEC-A":    {ID: "SEC-A", AcademicPeriodID: "P", Capacity: intPtr(30), Active: true},
		"SEC-B":    {ID: "SEC-B", AcademicPeriodID: "P", Capacity: intPtr(2), Active: true},
		"SEC-OPEN": {ID: "SEC-OPEN", AcademicPeriodID: "P", Active: true},
		"SEC-OLD":  {ID: "SEC-OLD", AcademicPeriodID: "P0", Capacity: intPtr(10), Active: true},
		"SEC-OFF":  {ID: "SEC-OFF", AcademicPeriodID: "P", Active: false},
	}}
	cache := &invalidatorStub{}
	metrics := NewMetricsService()
	svc := NewEnrollmentService(enrollments, sections, tx, cache, metrics, nil, zap.NewNop())
	t.Cleanup(func() { require.NoError(t, mock.ExpectationsWereMet()) })
	return &enrollmentFixture{
		service:     svc,
		sections:    sections,
		enrollments: enrollments,
		cache:       cache,
		metrics:     metrics,
		commit:      func() { mock.ExpectBegin(); mock.ExpectCommit() },
		rollback:    func() { mock.ExpectBegin(); mock.ExpectRollback() },
	}
}

func TestEnrollmentServiceEnrollLastSeat(t *testing.T) {
	fx := newEnrollmentFixture(t)
	ctx := context.Background()
	fx.enrollments.seed("SEC-A", "P", models.EnrollmentStatusActive, 29)

	fx.commit()
	enrollment, err := fx.service.Enroll(ctx, EnrollStudentRequest{StudentID: "new-1", SectionID: "SEC-A"})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
	assert.Equal(t, "P", enrollment.AcademicPeriodID)
	assert.Equal(t, []string{AttendanceReportPattern("SEC-A")}, fx.cache.patterns)

	fx.rollback()
	_, err = fx.service.Enroll(ctx, EnrollStudentRequest{StudentID: "new-2", SectionID: "SEC-A"})
	requireAppCode(t, err, appErrors.ErrCapacityExceeded)
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.capacityRejects))
	assert.Equal(t, []string{"SEC-A", "SEC-A"}, fx.sections.locked)
}

func TestEnrollmentServiceOnlyActiveCountsTowardCapacity(t *testing.T) {
	fx := newEnrollmentFixture(t)
	fx.enrollments.seed("SEC-B", "P", models.EnrollmentStatusActive, 1)
	fx.enrollments.seed("SEC-B", "P", models.EnrollmentStatusWithdrawn, 3)
	fx.enrollments.seed("SEC-B", "P", models.EnrollmentStatusGraduated, 2)

	fx.commit()
	_, err := fx.service.Enroll(context.Background(), EnrollStudentRequest{StudentID: "new-1", SectionID: "SEC-B"})
	require.NoError(t, err)
}

func TestEnrollmentServiceUnboundedSectionAlwaysAdmits(t *testing.T) {
	fx := newEnrollmentFixture(t)
	fx.enrollments.seed("SEC-OPEN", "P", models.EnrollmentStatusActive, 500)

	fx.commit()
	_, err := fx.service.Enroll(context.Background(), EnrollStudentRequest{StudentID: "new-1", SectionID: "SEC-OPEN"})
	require.NoError(t, err)
}

func TestEnrollmentServiceEnrollRejections(t *testing.T) {
	t.Run("second active enrollment in period", func(t *testing.T) {
		fx := newEnrollmentFixture(t)
		fx.enrollments.seed("SEC-A", "P", models.EnrollmentStatusActive, 1)
		fx.rollback()
		_, err := fx.service.Enroll(context.Background(), EnrollStudentRequest{StudentID: "stu-SEC-A-active-0", SectionID: "SEC-OPEN"})
		requireAppCode(t, err, appErrors.ErrConflict)
	})

	t.Run("unique index race maps to conflict", func(t *testing.T) {
		fx := newEnrollmentFixture(t)
		fx.enrollments.createErr = &pq.Error{Code: "23505", Constraint: "enrollments_one_active_per_period"}
		fx.rollback()
		_, err := fx.service.Enroll(context.Background(), EnrollStudentRequest{StudentID: "new-1", SectionID: "SEC-A"})
		requireAppCode(t, err, appErrors.ErrConflict)
		assert.Equal(t, 0.0, testutil.ToFloat64(fx.metrics.retryableFailures.WithLabelValues("enroll_student")))
	})

	t.Run("missing section", func(t *testing.T) {
		fx := newEnrollmentFixture(t)
		fx.rollback()
		_, err := fx.service.Enroll(context.Background(), EnrollStudentRequest{StudentID: "new-1", SectionID: "nope"})
		requireAppCode(t, err, appErrors.ErrNotFound)
	})

	t.Run("inactive section", func(t *testing.T) {
		fx := newEnrollmentFixture(t)
		fx.rollback()
		_, err := fx.service.Enroll(context.Background(), EnrollStudentRequest{StudentID: "new-1", SectionID: "SEC-OFF"})
		requireAppCode(t, err, appErrors.ErrPreconditionFailed)
	})

	t.Run("invalid payload", func(t *testing.T) {
		fx := newEnrollmentFixture(t)
		_, err := fx.service.Enroll(context.Background(), EnrollStudentRequest{SectionID: "SEC-A"})
		requireAppCode(t, err, appErrors.ErrValidation)
	})
}

func TestEnrollmentServiceReactivationAppliesGate(t *testing.T) {
	fx := newEnrollmentFixture(t)
	ctx := context.Background()
	fx.enrollments.seed("SEC-B", "P", models.EnrollmentStatusActive, 2)
	fx.enrollments.seed("SEC-B", "P", models.EnrollmentStatusInactive, 1)
	inactiveID := "seed-SEC-B-inactive-0"

	fx.rollback()
	_, err := fx.service.ChangeStatus(ctx, inactiveID, ChangeEnrollmentStatusRequest{Status: models.EnrollmentStatusActive})
	requireAppCode(t, err, appErrors.ErrCapacityExceeded)

	fx.commit()
	withdrawn, err := fx.service.Withdraw(ctx, "seed-SEC-B-active-0")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusWithdrawn, withdrawn.Status)

	fx.commit()
	reactivated, err := fx.service.ChangeStatus(ctx, inactiveID, ChangeEnrollmentStatusRequest{Status: models.EnrollmentStatusActive})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusActive, reactivated.Status)
}

func TestEnrollmentServiceChangeStatusValidation(t *testing.T) {
	fx := newEnrollmentFixture(t)
	_, err := fx.service.ChangeStatus(context.Background(), "x", ChangeEnrollmentStatusRequest{Status: "expelled"})
	requireAppCode(t, err, appErrors.ErrValidation)

	fx.rollback()
	_, err = fx.service.ChangeStatus(context.Background(), "missing", ChangeEnrollmentStatusRequest{Status: models.EnrollmentStatusGraduated})
	requireAppCode(t, err, appErrors.ErrNotFound)
}

func TestEnrollmentServiceTransferChecksDestinationOnly(t *testing.T) {
	fx := newEnrollmentFixture(t)
	ctx := context.Background()
	fx.enrollments.seed("SEC-A", "P", models.EnrollmentStatusActive, 30)
	fx.enrollments.seed("SEC-B", "P", models.EnrollmentStatusActive, 1)
	sourceID := "seed-SEC-A-active-0"

	fx.commit()
	moved, err := fx.service.Transfer(ctx, sourceID, TransferEnrollmentRequest{TargetSectionID: "SEC-B"})
	require.NoError(t, err)
	assert.Equal(t, "SEC-B", moved.SectionID)
	assert.Equal(t, models.EnrollmentStatusActive, moved.Status)
	assert.Equal(t, "stu-SEC-A-active-0", moved.StudentID)

	source, err := fx.service.Get(ctx, sourceID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusTransferred, source.Status)
	assert.ElementsMatch(t, []string{AttendanceReportPattern("SEC-A"), AttendanceReportPattern("SEC-B")}, fx.cache.patterns)

	fx.rollback()
	_, err = fx.service.Transfer(ctx, "seed-SEC-A-active-1", TransferEnrollmentRequest{TargetSectionID: "SEC-B"})
	requireAppCode(t, err, appErrors.ErrCapacityExceeded)

	unchanged, err := fx.service.Get(ctx, "seed-SEC-A-active-1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusActive, unchanged.Status)
}

func TestEnrollmentServiceTransferPreconditions(t *testing.T) {
	fx := newEnrollmentFixture(t)
	ctx := context.Background()
	fx.enrollments.seed("SEC-A", "P", models.EnrollmentStatusActive, 1)
	fx.enrollments.seed("SEC-A", "P", models.EnrollmentStatusWithdrawn, 1)

	fx.rollback()
	_, err := fx.service.Transfer(ctx, "seed-SEC-A-withdrawn-0", TransferEnrollmentRequest{TargetSectionID: "SEC-B"})
	requireAppCode(t, err, appErrors.ErrPreconditionFailed)

	fx.rollback()
	_, err = fx.service.Transfer(ctx, "seed-SEC-A-active-0", TransferEnrollmentRequest{TargetSectionID: "SEC-A"})
	requireAppCode(t, err, appErrors.ErrValidation)

	fx.rollback()
	_, err = fx.service.Transfer(ctx, "seed-SEC-A-active-0", TransferEnrollmentRequest{TargetSectionID: "SEC-OLD"})
	requireAppCode(t, err, appErrors.ErrValidation)
}

func TestEnrollmentServiceStudentHistory(t *testing.T) {
	fx := newEnrollmentFixture(t)
	fx.enrollments.seed("SEC-A", "P", models.EnrollmentStatusActive, 2)

	history, err := fx.service.StudentHistory(context.Background(), "stu-SEC-A-active-1")
	require.NoError(t, err)
	require.Len(t, history, 1)

	_, err = fx.service.StudentHistory(context.Background(), "")
	requireAppCode(t, err, appErrors.ErrValidation)
}
