package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-academic-core/internal/models"
)

const offeringColumns = "id, section_id, teacher_id, subject_id, academic_period_id, active, created_at, updated_at"

// OfferingRepository persists subject offerings.
type OfferingRepository struct {
	db *sqlx.DB
}

// NewOfferingRepository instantiates an offering repository.
func NewOfferingRepository(db *sqlx.DB) *OfferingRepository {
	return &OfferingRepository{db: db}
}

func (r *OfferingRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns offerings matching the filter.
func (r *OfferingRepository) List(ctx context.Context, filter models.OfferingFilter) ([]models.Offering, int, error) {
	var conditions []string
	var args []interface{}

	if filter.SectionID != "" {
		conditions = append(conditions, fmt.Sprintf("section_id = $%d", len(args)+1))
		args = append(args, filter.SectionID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.AcademicPeriodID != "" {
		conditions = append(conditions, fmt.Sprintf("academic_period_id = $%d", len(args)+1))
		args = append(args, filter.AcademicPeriodID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}
	_, size, offset := pageWindow(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s FROM offerings%s ORDER BY created_at DESC LIMIT %d OFFSET %d", offeringColumns, clause, size, offset)
	var offerings []models.Offering
	if err := r.db.SelectContext(ctx, &offerings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list offerings: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM offerings"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count offerings: %w", err)
	}
	return offerings, total, nil
}

// FindByID loads an offering.
func (r *OfferingRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Offering, error) {
	query := fmt.Sprintf("SELECT %s FROM offerings WHERE id = $1", offeringColumns)
	var offering models.Offering
	if err := sqlx.GetContext(ctx, r.exec(exec), &offering, query, id); err != nil {
		return nil, err
	}
	return &offering, nil
}

// ListByIDs loads the offerings with the given ids.
func (r *OfferingRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Offering, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM offerings WHERE id IN (%s)", offeringColumns, placeholders(1, len(ids)))
	var offerings []models.Offering
	if err := r.db.SelectContext(ctx, &offerings, query, stringArgs(ids)...); err != nil {
		return nil, fmt.Errorf("list offerings by id: %w", err)
	}
	return offerings, nil
}

// Create inserts an offering.
func (r *OfferingRepository) Create(ctx context.Context, offering *models.Offering) error {
	if offering.ID == "" {
		offering.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	offering.CreatedAt = now
	offering.UpdatedAt = now

	const query = `INSERT INTO offerings (id, section_id, teacher_id, subject_id, academic_period_id, active, created_at, updated_at)
VALUES (:id, :section_id, :teacher_id, :subject_id, :academic_period_id, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, offering); err != nil {
		return fmt.Errorf("create offering: %w", err)
	}
	return nil
}

// SetActive toggles an offering.
func (r *OfferingRepository) SetActive(ctx context.Context, exec sqlx.ExtContext, id string, active bool) error {
	const query = `UPDATE offerings SET active = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, active, time.Now().UTC()); err != nil {
		return fmt.Errorf("update offering status: %w", err)
	}
	return nil
}
