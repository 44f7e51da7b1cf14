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

type sectionRepository interface {
	List(ctx context.Context, filter models.SectionFilter) ([]models.SectionOccupancy, int, error)
	FindByID(ctx context.Context, id string) (*models.Section, error)
	LockForUpdate(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Section, error)
	CountActive(ctx context.Context, exec sqlx.ExtContext, sectionID string) (int, error)
	Create(ctx context.Context, section *models.Section) error
	UpdateCapacity(ctx context.Context, exec sqlx.ExtContext, id string, capacity *int) error
}

type periodReader interface {
	FindPeriodByID(ctx context.Context, id string) (*models.AcademicPeriod, error)
}

// CreateSectionRequest describes a new section.
type CreateSectionRequest struct {
	AcademicPeriodID string `json:"academic_period_id" validate:"required"`
	GradeLevel       string `json:"grade_level" validate:"required,max=16"`
	Name             string `json:"name" validate:"required,max=64"`
	Capacity         *int   `json:"capacity" validate:"omitempty,min=1"`
}

// UpdateCapacityRequest sets or clears a section's seat limit.
type UpdateCapacityRequest struct {
	Capacity *int `json:"capacity" validate:"omitempty,min=1"`
}

// SectionService manages sections and reports their occupancy.
type SectionService struct {
	repo      sectionRepository
	periods   periodReader
	tx        txProvider
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSectionService constructs the section service.
func NewSectionService(repo sectionRepository, periods periodReader, tx txProvider, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *SectionService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionService{repo: repo, periods: periods, tx: tx, metrics: metrics, validator: validate, logger: logger}
}

// List returns sections with seat usage.
func (s *SectionService) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionOccupancy, *models.Pagination, error) {
	sections, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	for i := range sections {
		sections[i].RemainingSeats = academic.RemainingSeats(sections[i].Capacity, sections[i].ActiveCount)
	}
	return sections, pageMeta(filter.Page, filter.PageSize, total), nil
}

// Get returns a section with its current occupancy.
func (s *SectionService) Get(ctx context.Context, id string) (*models.SectionOccupancy, error) {
	section, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	count, err := s.repo.CountActive(ctx, nil, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollments")
	}
	return &models.SectionOccupancy{
		Section:        *section,
		ActiveCount:    count,
		RemainingSeats: academic.RemainingSeats(section.Capacity, count),
	}, nil
}

// Create registers a section.
func (s *SectionService) Create(ctx context.Context, req CreateSectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	if _, err := s.periods.FindPeriodByID(ctx, req.AcademicPeriodID); err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic period")
	}
	section := &models.Section{
		AcademicPeriodID: req.AcademicPeriodID,
		GradeLevel:       req.GradeLevel,
		Name:             req.Name,
		Capacity:         req.Capacity,
		Active:           true,
	}
	if err := s.repo.Create(ctx, section); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "section name already used for this grade and period")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
	}
	return section, nil
}

// UpdateCapacity changes the seat limit. Existing enrollments are never
// removed; a limit below the current count only blocks further admissions.
func (s *SectionService) UpdateCapacity(ctx context.Context, id string, req UpdateCapacityRequest) (*models.SectionOccupancy, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid capacity payload")
	}
	var result *models.SectionOccupancy
	err := runInTx(ctx, s.tx, s.metrics, "update section capacity", func(tx *sqlx.Tx) error {
		section, err := s.repo.LockForUpdate(ctx, tx, id)
		if err != nil {
			if isNoRows(err) {
				return appErrors.Clone(appErrors.ErrNotFound, "section not found")
			}
			return err
		}
		count, err := s.repo.CountActive(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.repo.UpdateCapacity(ctx, tx, id, req.Capacity); err != nil {
			return err
		}
		if req.Capacity != nil && *req.Capacity < count {
			s.logger.Warn("section capacity set below occupancy",
				zap.String("section_id", id), zap.Int("capacity", *req.Capacity), zap.Int("active", count))
		}
		section.Capacity = req.Capacity
		result = &models.SectionOccupancy{
			Section:        *section,
			ActiveCount:    count,
			RemainingSeats: academic.RemainingSeats(req.Capacity, count),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
