package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-academic-core/internal/academic"
	"github.com/noah-isme/sma-academic-core/internal/models"
	"github.com/noah-isme/sma-academic-core/pkg/database"
)

const (
	// TIME columns are read as HH:MM:SS text; lib/pq would otherwise decode them as time.Time.
	timeSlotColumns = "id, offering_id, section_id, teacher_id, subject_id, academic_period_id, day_of_week, to_char(start_time, 'HH24:MI:SS') AS start_time, to_char(end_time, 'HH24:MI:SS') AS end_time, classroom, notes, active, created_at, updated_at"
	timeSlotOrder   = "array_position(ARRAY['monday','tuesday','wednesday','thursday','friday','saturday'], day_of_week), start_time"
)

// TimeSlotRepository persists weekly timetable slots.
type TimeSlotRepository struct {
	db *sqlx.DB
}

// NewTimeSlotRepository instantiates a time slot repository.
func NewTimeSlotRepository(db *sqlx.DB) *TimeSlotRepository {
	return &TimeSlotRepository{db: db}
}

func (r *TimeSlotRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns slots using the provided filter.
func (r *TimeSlotRepository) List(ctx context.Context, filter models.TimeSlotFilter) ([]models.TimeSlot, int, error) {
	var conditions []string
	var args []interface{}

	if filter.AcademicPeriodID != "" {
		conditions = append(conditions, fmt.Sprintf("academic_period_id = $%d", len(args)+1))
		args = append(args, filter.AcademicPeriodID)
	}
	if filter.SectionID != "" {
		conditions = append(conditions, fmt.Sprintf("section_id = $%d", len(args)+1))
		args = append(args, filter.SectionID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.OfferingID != "" {
		conditions = append(conditions, fmt.Sprintf("offering_id = $%d", len(args)+1))
		args = append(args, filter.OfferingID)
	}
	if filter.DayOfWeek != "" {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, filter.DayOfWeek)
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

	query := fmt.Sprintf("SELECT %s FROM time_slots%s ORDER BY %s LIMIT %d OFFSET %d", timeSlotColumns, clause, timeSlotOrder, size, offset)
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list time slots: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM time_slots"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count time slots: %w", err)
	}
	return slots, total, nil
}

// ListActiveByScope returns the whole active week of a section or teacher in a period.
func (r *TimeSlotRepository) ListActiveByScope(ctx context.Context, scope academic.Scope) ([]models.TimeSlot, error) {
	column, err := scopeColumn(scope.Kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM time_slots WHERE %s = $1 AND academic_period_id = $2 AND active = TRUE ORDER BY %s", timeSlotColumns, column, timeSlotOrder)
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, scope.ID, scope.AcademicPeriodID); err != nil {
		return nil, fmt.Errorf("list scope time slots: %w", err)
	}
	return slots, nil
}

// ListActiveInScope returns the active slots of a scope on one day.
// Called inside the writer's transaction after the scope lock is held.
func (r *TimeSlotRepository) ListActiveInScope(ctx context.Context, exec sqlx.ExtContext, scope academic.Scope, day academic.Weekday) ([]models.TimeSlot, error) {
	column, err := scopeColumn(scope.Kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM time_slots WHERE %s = $1 AND academic_period_id = $2 AND day_of_week = $3 AND active = TRUE ORDER BY start_time", timeSlotColumns, column)
	var slots []models.TimeSlot
	if err := sqlx.SelectContext(ctx, r.exec(exec), &slots, query, scope.ID, scope.AcademicPeriodID, string(day)); err != nil {
		return nil, fmt.Errorf("list day time slots: %w", err)
	}
	return slots, nil
}

// LockScopes takes the advisory lock of every scope in key order so
// concurrent writers touching the same pair never deadlock.
func (r *TimeSlotRepository) LockScopes(ctx context.Context, exec sqlx.ExtContext, scopes ...academic.Scope) error {
	keys := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		keys = append(keys, scope.LockKey())
	}
	sort.Strings(keys)
	target := r.exec(exec)
	for _, key := range keys {
		if err := database.AdvisoryXactLock(ctx, target, key); err != nil {
			return err
		}
	}
	return nil
}

// FindByID loads a slot.
func (r *TimeSlotRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.TimeSlot, error) {
	query := fmt.Sprintf("SELECT %s FROM time_slots WHERE id = $1", timeSlotColumns)
	var slot models.TimeSlot
	if err := sqlx.GetContext(ctx, r.exec(exec), &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// Create inserts a slot.
func (r *TimeSlotRepository) Create(ctx context.Context, exec sqlx.ExtContext, slot *models.TimeSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	slot.CreatedAt = now
	slot.UpdatedAt = now

	const query = `INSERT INTO time_slots (id, offering_id, section_id, teacher_id, subject_id, academic_period_id, day_of_week, start_time, end_time, classroom, notes, active, created_at, updated_at)
VALUES (:id, :offering_id, :section_id, :teacher_id, :subject_id, :academic_period_id, :day_of_week, :start_time, :end_time, :classroom, :notes, :active, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, slot); err != nil {
		return fmt.Errorf("create time slot: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of a slot.
func (r *TimeSlotRepository) Update(ctx context.Context, exec sqlx.ExtContext, slot *models.TimeSlot) error {
	slot.UpdatedAt = time.Now().UTC()
	const query = `UPDATE time_slots SET day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time,
classroom = :classroom, notes = :notes, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, slot); err != nil {
		return fmt.Errorf("update time slot: %w", err)
	}
	return nil
}

// DeactivateByOffering turns off every slot of an offering.
func (r *TimeSlotRepository) DeactivateByOffering(ctx context.Context, exec sqlx.ExtContext, offeringID string) error {
	const query = `UPDATE time_slots SET active = FALSE, updated_at = $2 WHERE offering_id = $1 AND active = TRUE`
	if _, err := r.exec(exec).ExecContext(ctx, query, offeringID, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate offering time slots: %w", err)
	}
	return nil
}

// Delete removes a slot permanently.
func (r *TimeSlotRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM time_slots WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete time slot: %w", err)
	}
	return nil
}

func scopeColumn(kind academic.ScopeKind) (string, error) {
	switch kind {
	case academic.ScopeSection:
		return "section_id", nil
	case academic.ScopeTeacher:
		return "teacher_id", nil
	default:
		return "", fmt.Errorf("unknown timetable scope %q", kind)
	}
}
