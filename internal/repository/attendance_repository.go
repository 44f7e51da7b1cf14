package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-academic-core/internal/academic"
	"github.com/noah-isme/sma-academic-core/internal/models"
)

const (
	attendanceColumns = "id, student_id, section_id, offering_id, academic_period_id, date, status, notes, recorded_by, created_at, updated_at"
	statusTally       = `COUNT(*) FILTER (WHERE status = 'present') AS present,
COUNT(*) FILTER (WHERE status = 'absent') AS absent,
COUNT(*) FILTER (WHERE status = 'late') AS late,
COUNT(*) FILTER (WHERE status = 'excused') AS excused`
)

// AttendanceRepository persists attendance records and computes tallies.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

func (r *AttendanceRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// UpsertBatch writes records keyed by (student, section, offering, date).
// An existing record takes the new status and notes.
func (r *AttendanceRepository) UpsertBatch(ctx context.Context, exec sqlx.ExtContext, records []models.Attendance) error {
	if len(records) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `INSERT INTO attendances (id, student_id, section_id, offering_id, academic_period_id, date, status, notes, recorded_by, created_at, updated_at)
VALUES (:id, :student_id, :section_id, :offering_id, :academic_period_id, :date, :status, :notes, :recorded_by, :created_at, :updated_at)
ON CONFLICT ON CONSTRAINT attendances_unique DO UPDATE
SET status = EXCLUDED.status,
    notes = EXCLUDED.notes,
    recorded_by = EXCLUDED.recorded_by,
    updated_at = EXCLUDED.updated_at`

	for i := range records {
		record := &records[i]
		if record.ID == "" {
			record.ID = uuid.NewString()
		}
		record.CreatedAt = now
		record.UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, target, query, record); err != nil {
			return fmt.Errorf("upsert attendance: %w", err)
		}
	}
	return nil
}

// List returns the records of a scope ordered by date.
func (r *AttendanceRepository) List(ctx context.Context, scope models.AttendanceScope) ([]models.Attendance, error) {
	clause, args := buildAttendanceConditions(scope)
	query := fmt.Sprintf("SELECT %s FROM attendances WHERE %s ORDER BY date, student_id", attendanceColumns, clause)
	var records []models.Attendance
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// CountsByStudent tallies one student's statuses within the scope.
func (r *AttendanceRepository) CountsByStudent(ctx context.Context, scope models.AttendanceScope) (academic.StatusCounts, error) {
	clause, args := buildAttendanceConditions(scope)
	query := fmt.Sprintf("SELECT %s FROM attendances WHERE %s", statusTally, clause)
	var counts academic.StatusCounts
	if err := r.db.GetContext(ctx, &counts, query, args...); err != nil {
		return academic.StatusCounts{}, fmt.Errorf("count student attendance: %w", err)
	}
	return counts, nil
}

// CountsForSection tallies statuses per student within the scope.
// Students without records are absent from the result.
func (r *AttendanceRepository) CountsForSection(ctx context.Context, scope models.AttendanceScope) ([]models.StudentStatusCounts, error) {
	clause, args := buildAttendanceConditions(scope)
	query := fmt.Sprintf("SELECT student_id, %s FROM attendances WHERE %s GROUP BY student_id ORDER BY student_id", statusTally, clause)
	var counts []models.StudentStatusCounts
	if err := r.db.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, fmt.Errorf("count section attendance: %w", err)
	}
	return counts, nil
}

// HistoryBySection tallies statuses per date within the scope.
func (r *AttendanceRepository) HistoryBySection(ctx context.Context, scope models.AttendanceScope) ([]models.AttendanceHistoryDay, error) {
	clause, args := buildAttendanceConditions(scope)
	query := fmt.Sprintf("SELECT date, %s, COUNT(*) AS total FROM attendances WHERE %s GROUP BY date ORDER BY date", statusTally, clause)
	var days []models.AttendanceHistoryDay
	if err := r.db.SelectContext(ctx, &days, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance history: %w", err)
	}
	return days, nil
}

// buildAttendanceConditions renders the scope as a WHERE clause.
// A nil offering selects every record of the section.
func buildAttendanceConditions(scope models.AttendanceScope) (string, []interface{}) {
	where := []string{"1=1"}
	args := []interface{}{}
	if scope.StudentID != "" {
		where = append(where, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, scope.StudentID)
	}
	if scope.SectionID != "" {
		where = append(where, fmt.Sprintf("section_id = $%d", len(args)+1))
		args = append(args, scope.SectionID)
	}
	if scope.AcademicPeriodID != "" {
		where = append(where, fmt.Sprintf("academic_period_id = $%d", len(args)+1))
		args = append(args, scope.AcademicPeriodID)
	}
	if scope.OfferingID != nil {
		where = append(where, fmt.Sprintf("offering_id = $%d", len(args)+1))
		args = append(args, *scope.OfferingID)
	}
	if scope.DateFrom != nil {
		where = append(where, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *scope.DateFrom)
	}
	if scope.DateTo != nil {
		where = append(where, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *scope.DateTo)
	}
	return strings.Join(where, " AND "), args
}
