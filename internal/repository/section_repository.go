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

const sectionColumns = "id, academic_period_id, grade_level, name, capacity, active, created_at, updated_at"

// SectionRepository persists sections and answers occupancy questions.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository instantiates a section repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

func (r *SectionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns sections with their active enrollment counts.
func (r *SectionRepository) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionOccupancy, int, error) {
	var conditions []string
	var args []interface{}

	if filter.AcademicPeriodID != "" {
		conditions = append(conditions, fmt.Sprintf("s.academic_period_id = $%d", len(args)+1))
		args = append(args, filter.AcademicPeriodID)
	}
	if filter.GradeLevel != "" {
		conditions = append(conditions, fmt.Sprintf("s.grade_level = $%d", len(args)+1))
		args = append(args, filter.GradeLevel)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("s.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}
	_, size, offset := pageWindow(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT s.id, s.academic_period_id, s.grade_level, s.name, s.capacity, s.active, s.created_at, s.updated_at,
        (SELECT COUNT(*) FROM enrollments e WHERE e.section_id = s.id AND e.status = 'active') AS active_count
        FROM sections s%s ORDER BY s.grade_level, s.name LIMIT %d OFFSET %d`, clause, size, offset)

	var sections []models.SectionOccupancy
	if err := r.db.SelectContext(ctx, &sections, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sections: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM sections s"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count sections: %w", err)
	}
	return sections, total, nil
}

// FindByID loads a section.
func (r *SectionRepository) FindByID(ctx context.Context, id string) (*models.Section, error) {
	query := fmt.Sprintf("SELECT %s FROM sections WHERE id = $1", sectionColumns)
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// LockForUpdate loads a section and holds a row lock until the transaction ends.
// Every admission into the section serialises on this lock.
func (r *SectionRepository) LockForUpdate(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Section, error) {
	query := fmt.Sprintf("SELECT %s FROM sections WHERE id = $1 FOR UPDATE", sectionColumns)
	var section models.Section
	if err := sqlx.GetContext(ctx, r.exec(exec), &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// CountActive returns the number of active enrollments in a section.
func (r *SectionRepository) CountActive(ctx context.Context, exec sqlx.ExtContext, sectionID string) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE section_id = $1 AND status = $2`
	var count int
	if err := sqlx.GetContext(ctx, r.exec(exec), &count, query, sectionID, models.EnrollmentStatusActive); err != nil {
		return 0, fmt.Errorf("count active enrollments: %w", err)
	}
	return count, nil
}

// Create inserts a section.
func (r *SectionRepository) Create(ctx context.Context, section *models.Section) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	section.CreatedAt = now
	section.UpdatedAt = now

	const query = `INSERT INTO sections (id, academic_period_id, grade_level, name, capacity, active, created_at, updated_at)
VALUES (:id, :academic_period_id, :grade_level, :name, :capacity, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

// UpdateCapacity changes the seat limit. A nil capacity removes the limit.
func (r *SectionRepository) UpdateCapacity(ctx context.Context, exec sqlx.ExtContext, id string, capacity *int) error {
	const query = `UPDATE sections SET capacity = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, capacity, time.Now().UTC()); err != nil {
		return fmt.Errorf("update section capacity: %w", err)
	}
	return nil
}
