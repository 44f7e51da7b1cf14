package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-academic-core/internal/models"
	appErrors "github.com/noah-isme/sma-academic-core/pkg/errors"
)

type periodRepository interface {
	ListPeriods(ctx context.Context) ([]models.AcademicPeriod, error)
	FindPeriodByID(ctx context.Context, id string) (*models.AcademicPeriod, error)
	FindCurrentPeriod(ctx context.Context) (*models.AcademicPeriod, error)
	CreatePeriod(ctx context.Context, period *models.AcademicPeriod) error
	SetCurrent(ctx context.Context, exec sqlx.ExtContext, id string) error
	ListTerms(ctx context.Context, periodID string) ([]models.Term, error)
	FindTermByID(ctx context.Context, id string) (*models.Term, error)
	CreateTerm(ctx context.Context, term *models.Term) error
}

// CreatePeriodRequest describes payload for creating an academic period.
type CreatePeriodRequest struct {
	Name      string    `json:"name" validate:"required,max=64"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
	IsCurrent bool      `json:"is_current"`
}

// CreateTermRequest describes payload for creating a grading term.
type CreateTermRequest struct {
	Name      string    `json:"name" validate:"required,max=64"`
	Number    int       `json:"number" validate:"required,min=1,max=6"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
	Weight    *float64  `json:"weight" validate:"omitempty,gt=0,lte=100"`
}

// PeriodService manages academic periods and their terms.
type PeriodService struct {
	repo      periodRepository
	tx        txProvider
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPeriodService creates a new period service instance.
func NewPeriodService(repo periodRepository, tx txProvider, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *PeriodService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeriodService{repo: repo, tx: tx, metrics: metrics, validator: validate, logger: logger}
}

// List returns every academic period, newest first.
func (s *PeriodService) List(ctx context.Context) ([]models.AcademicPeriod, error) {
	periods, err := s.repo.ListPeriods(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list academic periods")
	}
	return periods, nil
}

// Get returns a period by ID.
func (s *PeriodService) Get(ctx context.Context, id string) (*models.AcademicPeriod, error) {
	period, err := s.repo.FindPeriodByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic period")
	}
	return period, nil
}

// Current returns the period flagged as current.
func (s *PeriodService) Current(ctx context.Context) (*models.AcademicPeriod, error) {
	period, err := s.repo.FindCurrentPeriod(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "current academic period not set")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current academic period")
	}
	return period, nil
}

// Create adds a period, optionally making it current.
func (s *PeriodService) Create(ctx context.Context, req CreatePeriodRequest) (*models.AcademicPeriod, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid academic period payload")
	}
	if !req.StartDate.Before(req.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be before end_date")
	}
	period := &models.AcademicPeriod{Name: req.Name, StartDate: req.StartDate, EndDate: req.EndDate}
	if err := s.repo.CreatePeriod(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create academic period")
	}
	if req.IsCurrent {
		if _, err := s.SetCurrent(ctx, period.ID); err != nil {
			s.logger.Error("failed to set current period after create", zap.String("period_id", period.ID), zap.Error(err))
			return nil, err
		}
		period.IsCurrent = true
	}
	return period, nil
}

// SetCurrent makes id the only current period.
func (s *PeriodService) SetCurrent(ctx context.Context, id string) (*models.AcademicPeriod, error) {
	period, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := runInTx(ctx, s.tx, s.metrics, "set current period", func(tx *sqlx.Tx) error {
		return s.repo.SetCurrent(ctx, tx, id)
	}); err != nil {
		return nil, err
	}
	period.IsCurrent = true
	return period, nil
}

// ListTerms returns the terms of a period ordered by number.
func (s *PeriodService) ListTerms(ctx context.Context, periodID string) ([]models.Term, error) {
	if _, err := s.Get(ctx, periodID); err != nil {
		return nil, err
	}
	terms, err := s.repo.ListTerms(ctx, periodID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list terms")
	}
	return terms, nil
}

// GetTerm returns a term by ID.
func (s *PeriodService) GetTerm(ctx context.Context, id string) (*models.Term, error) {
	term, err := s.repo.FindTermByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	return term, nil
}

// CreateTerm adds a term inside the period's date range.
func (s *PeriodService) CreateTerm(ctx context.Context, periodID string, req CreateTermRequest) (*models.Term, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid term payload")
	}
	if !req.StartDate.Before(req.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be before end_date")
	}
	period, err := s.Get(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if req.StartDate.Before(period.StartDate) || req.EndDate.After(period.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "term must fall within the academic period")
	}
	weight := 33.33
	if req.Weight != nil {
		weight = *req.Weight
	}
	term := &models.Term{
		AcademicPeriodID: periodID,
		Name:             req.Name,
		Number:           req.Number,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		Weight:           weight,
		Active:           true,
	}
	if err := s.repo.CreateTerm(ctx, term); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "term number already used in this period")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create term")
	}
	return term, nil
}
