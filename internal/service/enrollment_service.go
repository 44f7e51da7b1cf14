package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-academic-core/internal/academic"
	"github.com/noah-isme/sma-academic-core/internal/models"
	appErrors "github.com/noah-isme/sma-academic-core/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Enrollment, error)
	FindActiveByStudent(ctx context.Context, exec sqlx.ExtContext, studentID, periodID string) (*models.Enrollment, error)
	Create(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.EnrollmentStatus) error
}

type sectionLocker interface {
	LockForUpdate(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Section, error)
	CountActive(ctx context.Context, exec sqlx.ExtContext, sectionID string) (int, error)
}

type reportInvalidator interface {
	InvalidateAsync(ctx context.Context, pattern string)
}

// EnrollStudentRequest describes enrollment creation request.
type EnrollStudentRequest struct {
	StudentID string  `json:"student_id" validate:"required"`
	SectionID string  `json:"section_id" validate:"required"`
	Notes     *string `json:"notes" validate:"omitempty,max=500"`
}

// ChangeEnrollmentStatusRequest moves an enrollment to another lifecycle status.
type ChangeEnrollmentStatusRequest struct {
	Status models.EnrollmentStatus `json:"status" validate:"required,enrollment_status"`
}

// TransferEnrollmentRequest describes transfer payload.
type TransferEnrollmentRequest struct {
	TargetSectionID string  `json:"target_section_id" validate:"required"`
	Notes           *string `json:"notes" validate:"omitempty,max=500"`
}

// EnrollmentService orchestrates enrollment workflows. Every admission locks
// the section row before counting its active enrollments.
type EnrollmentService struct {
	repo      enrollmentRepository
	sections  sectionLocker
	tx        txProvider
	cache     reportInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, sections sectionLocker, tx txProvider, cache reportInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, sections: sections, tx: tx, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// List returns enrollments with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, pageMeta(filter.Page, filter.PageSize, total), nil
}

// StudentHistory lists every enrollment of a student, newest first.
func (s *EnrollmentService) StudentHistory(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student_id is required")
	}
	enrollments, _, err := s.repo.List(ctx, models.EnrollmentFilter{StudentID: studentID, PageSize: 100})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollment history")
	}
	return enrollments, nil
}

// Get returns a single enrollment.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, nil, id)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

// Enroll admits a student into a section after the capacity check.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollStudentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	var enrollment *models.Enrollment
	err := runInTx(ctx, s.tx, s.metrics, "enroll student", func(tx *sqlx.Tx) error {
		section, err := s.admit(ctx, tx, req.SectionID, req.StudentID, "")
		if err != nil {
			return err
		}
		enrollment = &models.Enrollment{
			StudentID:        req.StudentID,
			SectionID:        section.ID,
			AcademicPeriodID: section.AcademicPeriodID,
			Status:           models.EnrollmentStatusActive,
			Notes:            req.Notes,
		}
		if err := s.repo.Create(ctx, tx, enrollment); err != nil {
			if isUniqueViolation(err) {
				return appErrors.Clone(appErrors.ErrConflict, "student already has an active enrollment in this period")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, enrollment.SectionID)
	s.logger.Info("student enrolled",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("student_id", enrollment.StudentID),
		zap.String("section_id", enrollment.SectionID))
	return enrollment, nil
}

// ChangeStatus moves an enrollment to a new status. Moving into active
// re-applies the capacity gate on the enrollment's section.
func (s *EnrollmentService) ChangeStatus(ctx context.Context, id string, req ChangeEnrollmentStatusRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	var enrollment *models.Enrollment
	err := runInTx(ctx, s.tx, s.metrics, "change enrollment status", func(tx *sqlx.Tx) error {
		current, err := s.load(ctx, tx, id)
		if err != nil {
			return err
		}
		enrollment = current
		if current.Status == req.Status {
			return nil
		}
		if req.Status == models.EnrollmentStatusActive {
			if _, err := s.admit(ctx, tx, current.SectionID, current.StudentID, current.ID); err != nil {
				return err
			}
		}
		if err := s.repo.UpdateStatus(ctx, tx, current.ID, req.Status); err != nil {
			if isUniqueViolation(err) {
				return appErrors.Clone(appErrors.ErrConflict, "student already has an active enrollment in this period")
			}
			return err
		}
		enrollment.Status = req.Status
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, enrollment.SectionID)
	return enrollment, nil
}

// Withdraw marks an enrollment as withdrawn, freeing its seat.
func (s *EnrollmentService) Withdraw(ctx context.Context, id string) (*models.Enrollment, error) {
	return s.ChangeStatus(ctx, id, ChangeEnrollmentStatusRequest{Status: models.EnrollmentStatusWithdrawn})
}

// Transfer moves an active enrollment to another section of the same period.
// Only the destination's capacity is checked.
func (s *EnrollmentService) Transfer(ctx context.Context, id string, req TransferEnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transfer payload")
	}
	var (
		source  *models.Enrollment
		created *models.Enrollment
	)
	err := runInTx(ctx, s.tx, s.metrics, "transfer enrollment", func(tx *sqlx.Tx) error {
		current, err := s.load(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.Status != models.EnrollmentStatusActive {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment not active")
		}
		if current.SectionID == req.TargetSectionID {
			return appErrors.Clone(appErrors.ErrValidation, "target section must differ from current section")
		}
		target, err := s.admit(ctx, tx, req.TargetSectionID, current.StudentID, current.ID)
		if err != nil {
			return err
		}
		if target.AcademicPeriodID != current.AcademicPeriodID {
			return appErrors.Clone(appErrors.ErrValidation, "target section belongs to another academic period")
		}
		if err := s.repo.UpdateStatus(ctx, tx, current.ID, models.EnrollmentStatusTransferred); err != nil {
			return err
		}
		source = current
		source.Status = models.EnrollmentStatusTransferred

		created = &models.Enrollment{
			StudentID:        current.StudentID,
			SectionID:        target.ID,
			AcademicPeriodID: target.AcademicPeriodID,
			Status:           models.EnrollmentStatusActive,
			Notes:            req.Notes,
		}
		if err := s.repo.Create(ctx, tx, created); err != nil {
			if isUniqueViolation(err) {
				return appErrors.Clone(appErrors.ErrConflict, "student already has an active enrollment in this period")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, source.SectionID)
	s.invalidate(ctx, created.SectionID)
	s.logger.Info("enrollment transferred",
		zap.String("from_enrollment_id", source.ID),
		zap.String("to_enrollment_id", created.ID),
		zap.String("target_section_id", created.SectionID))
	return created, nil
}

func (s *EnrollmentService) load(ctx context.Context, tx *sqlx.Tx, id string) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, tx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, err
	}
	return enrollment, nil
}

// admit locks the section and verifies a seat is free and the student holds
// no other active enrollment in the period. excludeID skips the enrollment
// being moved.
func (s *EnrollmentService) admit(ctx context.Context, tx *sqlx.Tx, sectionID, studentID, excludeID string) (*models.Section, error) {
	section, err := s.sections.LockForUpdate(ctx, tx, sectionID)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, err
	}
	if !section.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "section is inactive")
	}
	existing, err := s.repo.FindActiveByStudent(ctx, tx, studentID, section.AcademicPeriodID)
	if err != nil && !isNoRows(err) {
		return nil, err
	}
	if existing != nil && existing.ID != excludeID {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already has an active enrollment in this period")
	}
	count, err := s.sections.CountActive(ctx, tx, section.ID)
	if err != nil {
		return nil, err
	}
	if !academic.CanAdmit(section.Capacity, count) {
		s.metrics.RecordCapacityRejection()
		s.logger.Info("enrollment rejected by capacity",
			zap.String("section_id", section.ID), zap.Int("active", count))
		return nil, appErrors.Clone(appErrors.ErrCapacityExceeded, "")
	}
	return section, nil
}

func (s *EnrollmentService) invalidate(ctx context.Context, sectionID string) {
	if s.cache == nil {
		return
	}
	s.cache.InvalidateAsync(ctx, AttendanceReportPattern(sectionID))
}
