package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-academic-core/internal/models"
)

const (
	periodColumns = "id, name, start_date, end_date, is_current, created_at, updated_at"
	termColumns   = "id, academic_period_id, name, number, start_date, end_date, weight, active, created_at, updated_at"
)

// PeriodRepository persists academic periods and their terms.
type PeriodRepository struct {
	db *sqlx.DB
}

// NewPeriodRepository instantiates a period repository.
func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

// ListPeriods returns every academic period, newest first.
func (r *PeriodRepository) ListPeriods(ctx context.Context) ([]models.AcademicPeriod, error) {
	query := fmt.Sprintf("SELECT %s FROM academic_periods ORDER BY start_date DESC", periodColumns)
	var periods []models.AcademicPeriod
	if err := r.db.SelectContext(ctx, &periods, query); err != nil {
		return nil, fmt.Errorf("list academic periods: %w", err)
	}
	return periods, nil
}

// FindPeriodByID loads an academic period.
func (r *PeriodRepository) FindPeriodByID(ctx context.Context, id string) (*models.AcademicPeriod, error) {
	query := fmt.Sprintf("SELECT %s FROM academic_periods WHERE id = $1", periodColumns)
	var period models.AcademicPeriod
	if err := r.db.GetContext(ctx, &period, query, id); err != nil {
		return nil, err
	}
	return &period, nil
}

// FindCurrentPeriod returns the period flagged as current.
func (r *PeriodRepository) FindCurrentPeriod(ctx context.Context) (*models.AcademicPeriod, error) {
	query := fmt.Sprintf("SELECT %s FROM academic_periods WHERE is_current = TRUE LIMIT 1", periodColumns)
	var period models.AcademicPeriod
	if err := r.db.GetContext(ctx, &period, query); err != nil {
		return nil, err
	}
	return &period, nil
}

// CreatePeriod inserts an academic period.
func (r *PeriodRepository) CreatePeriod(ctx context.Context, period *models.AcademicPeriod) error {
	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	period.CreatedAt = now
	period.UpdatedAt = now

	const query = `INSERT INTO academic_periods (id, name, start_date, end_date, is_current, created_at, updated_at)
VALUES (:id, :name, :start_date, :end_date, :is_current, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("create academic period: %w", err)
	}
	return nil
}

// SetCurrent marks one period as current and clears the flag elsewhere.
func (r *PeriodRepository) SetCurrent(ctx context.Context, exec sqlx.ExtContext, id string) error {
	target := r.exec(exec)
	now := time.Now().UTC()
	if _, err := target.ExecContext(ctx, `UPDATE academic_periods SET is_current = FALSE, updated_at = $1 WHERE is_current = TRUE AND id <> $2`, now, id); err != nil {
		return fmt.Errorf("clear current period: %w", err)
	}
	if _, err := target.ExecContext(ctx, `UPDATE academic_periods SET is_current = TRUE, updated_at = $2 WHERE id = $1`, id, now); err != nil {
		return fmt.Errorf("set current period: %w", err)
	}
	return nil
}

// ListTerms returns the terms of a period ordered by number.
func (r *PeriodRepository) ListTerms(ctx context.Context, periodID string) ([]models.Term, error) {
	query := fmt.Sprintf("SELECT %s FROM terms WHERE academic_period_id = $1 ORDER BY number", termColumns)
	var terms []models.Term
	if err := r.db.SelectContext(ctx, &terms, query, periodID); err != nil {
		return nil, fmt.Errorf("list terms: %w", err)
	}
	return terms, nil
}

// FindTermByID loads a term.
func (r *PeriodRepository) FindTermByID(ctx context.Context, id string) (*models.Term, error) {
	query := fmt.Sprintf("SELECT %s FROM terms WHERE id = $1", termColumns)
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, id); err != nil {
		return nil, err
	}
	return &term, nil
}

// CreateTerm inserts a term.
func (r *PeriodRepository) CreateTerm(ctx context.Context, term *models.Term) error {
	if term.ID == "" {
		term.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	term.CreatedAt = now
	term.UpdatedAt = now

	const query = `INSERT INTO terms (id, academic_period_id, name, number, start_date, end_date, weight, active, created_at, updated_at)
VALUES (:id, :academic_period_id, :name, :number, :start_date, :end_date, :weight, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, term); err != nil {
		return fmt.Errorf("create term: %w", err)
	}
	return nil
}

func (r *PeriodRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}
