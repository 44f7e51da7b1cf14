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

const (
	studentScoreColumns = "id, student_id, offering_id, term_id, score, observations, graded_by, graded_at, is_final, created_at, updated_at"
	manualScoreColumns  = "id, student_id, offering_id, term_id, title, description, score, max_score, graded_by, graded_at, created_at"
)

// ScoreRepository persists term scores and manual scores.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository instantiates a score repository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

func (r *ScoreRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns term scores matching the filter.
func (r *ScoreRepository) List(ctx context.Context, filter models.StudentScoreFilter) ([]models.StudentScore, error) {
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.OfferingID != "" {
		conditions = append(conditions, fmt.Sprintf("offering_id = $%d", len(args)+1))
		args = append(args, filter.OfferingID)
	}
	if filter.TermID != "" {
		conditions = append(conditions, fmt.Sprintf("term_id = $%d", len(args)+1))
		args = append(args, filter.TermID)
	}
	if filter.IsFinal != nil {
		conditions = append(conditions, fmt.Sprintf("is_final = $%d", len(args)+1))
		args = append(args, *filter.IsFinal)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}
	query := fmt.Sprintf("SELECT %s FROM student_scores%s ORDER BY student_id, graded_at", studentScoreColumns, clause)
	var scores []models.StudentScore
	if err := r.db.SelectContext(ctx, &scores, query, args...); err != nil {
		return nil, fmt.Errorf("list student scores: %w", err)
	}
	return scores, nil
}

// IsFinalized reports whether the (student, offering, term) score is locked.
func (r *ScoreRepository) IsFinalized(ctx context.Context, exec sqlx.ExtContext, studentID, offeringID, termID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM student_scores WHERE student_id = $1 AND offering_id = $2 AND term_id = $3 AND is_final = TRUE)`
	var final bool
	if err := sqlx.GetContext(ctx, r.exec(exec), &final, query, studentID, offeringID, termID); err != nil {
		return false, fmt.Errorf("check final score: %w", err)
	}
	return final, nil
}

// Upsert writes a term score unless the stored row is final.
// It reports false when the final guard blocked the write.
func (r *ScoreRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, score *models.StudentScore) (bool, error) {
	if score.ID == "" {
		score.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if score.GradedAt.IsZero() {
		score.GradedAt = now
	}
	score.CreatedAt = now
	score.UpdatedAt = now

	const query = `INSERT INTO student_scores (id, student_id, offering_id, term_id, score, observations, graded_by, graded_at, is_final, created_at, updated_at)
VALUES (:id, :student_id, :offering_id, :term_id, :score, :observations, :graded_by, :graded_at, FALSE, :created_at, :updated_at)
ON CONFLICT (student_id, offering_id, term_id) DO UPDATE
SET score = EXCLUDED.score,
    observations = EXCLUDED.observations,
    graded_by = EXCLUDED.graded_by,
    graded_at = EXCLUDED.graded_at,
    updated_at = EXCLUDED.updated_at
WHERE student_scores.is_final = FALSE`
	result, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, score)
	if err != nil {
		return false, fmt.Errorf("upsert student score: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("upsert student score: %w", err)
	}
	return affected > 0, nil
}

// Finalize locks every open term score of an offering in a term.
func (r *ScoreRepository) Finalize(ctx context.Context, exec sqlx.ExtContext, offeringID, termID string) (int64, error) {
	const query = `UPDATE student_scores SET is_final = TRUE, updated_at = $3 WHERE offering_id = $1 AND term_id = $2 AND is_final = FALSE`
	result, err := r.exec(exec).ExecContext(ctx, query, offeringID, termID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("finalize student scores: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("finalize student scores: %w", err)
	}
	return affected, nil
}

// Delete removes an open term score. Final rows are left untouched.
func (r *ScoreRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM student_scores WHERE id = $1 AND is_final = FALSE`, id)
	if err != nil {
		return false, fmt.Errorf("delete student score: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete student score: %w", err)
	}
	return affected > 0, nil
}

// FindByID loads a term score.
func (r *ScoreRepository) FindByID(ctx context.Context, id string) (*models.StudentScore, error) {
	query := fmt.Sprintf("SELECT %s FROM student_scores WHERE id = $1", studentScoreColumns)
	var score models.StudentScore
	if err := r.db.GetContext(ctx, &score, query, id); err != nil {
		return nil, err
	}
	return &score, nil
}

// ListForReportCard returns a student's term scores with the subject of each offering.
func (r *ScoreRepository) ListForReportCard(ctx context.Context, studentID, termID string) ([]models.StudentScoreWithSubject, error) {
	const query = `SELECT ss.id, ss.student_id, ss.offering_id, ss.term_id, ss.score, ss.observations, ss.graded_by, ss.graded_at, ss.is_final, ss.created_at, ss.updated_at, o.subject_id
FROM student_scores ss
JOIN offerings o ON o.id = ss.offering_id
WHERE ss.student_id = $1 AND ss.term_id = $2
ORDER BY o.subject_id`
	var scores []models.StudentScoreWithSubject
	if err := r.db.SelectContext(ctx, &scores, query, studentID, termID); err != nil {
		return nil, fmt.Errorf("list report card scores: %w", err)
	}
	return scores, nil
}

// ListPeriodTerms returns a student's term scores for an offering with each term's weight.
func (r *ScoreRepository) ListPeriodTerms(ctx context.Context, studentID, offeringID string) ([]models.PeriodGradeTerm, error) {
	const query = `SELECT t.id AS term_id, t.number, ss.score, t.weight, ss.is_final
FROM student_scores ss
JOIN terms t ON t.id = ss.term_id
WHERE ss.student_id = $1 AND ss.offering_id = $2 AND t.active = TRUE
ORDER BY t.number`
	var terms []models.PeriodGradeTerm
	if err := r.db.SelectContext(ctx, &terms, query, studentID, offeringID); err != nil {
		return nil, fmt.Errorf("list period term scores: %w", err)
	}
	return terms, nil
}

// CreateManual inserts a manual score.
func (r *ScoreRepository) CreateManual(ctx context.Context, exec sqlx.ExtContext, score *models.ManualScore) error {
	if score.ID == "" {
		score.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if score.GradedAt.IsZero() {
		score.GradedAt = now
	}
	score.CreatedAt = now

	const query = `INSERT INTO manual_scores (id, student_id, offering_id, term_id, title, description, score, max_score, graded_by, graded_at, created_at)
VALUES (:id, :student_id, :offering_id, :term_id, :title, :description, :score, :max_score, :graded_by, :graded_at, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, score); err != nil {
		return fmt.Errorf("create manual score: %w", err)
	}
	return nil
}

// ListManual returns the manual scores of a student for an offering and term.
func (r *ScoreRepository) ListManual(ctx context.Context, studentID, offeringID, termID string) ([]models.ManualScore, error) {
	query := fmt.Sprintf("SELECT %s FROM manual_scores WHERE student_id = $1 AND offering_id = $2 AND term_id = $3 ORDER BY graded_at", manualScoreColumns)
	var scores []models.ManualScore
	if err := r.db.SelectContext(ctx, &scores, query, studentID, offeringID, termID); err != nil {
		return nil, fmt.Errorf("list manual scores: %w", err)
	}
	return scores, nil
}
