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
	taskColumns       = "id, offering_id, term_id, title, type, max_score, weight, due_date, is_published, active, created_at, updated_at"
	submissionColumns = "id, task_id, student_id, score, feedback, status, graded_by, graded_at, submitted_at, created_at, updated_at"
)

// TaskRepository persists assessments and their submissions.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository instantiates a task repository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a task.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	const query = `INSERT INTO tasks (id, offering_id, term_id, title, type, max_score, weight, due_date, is_published, active, created_at, updated_at)
VALUES (:id, :offering_id, :term_id, :title, :type, :max_score, :weight, :due_date, :is_published, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// FindByID loads a task.
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM tasks WHERE id = $1", taskColumns)
	var task models.Task
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		return nil, err
	}
	return &task, nil
}

// ListByOfferingTerm returns the active tasks of an offering in a term.
func (r *TaskRepository) ListByOfferingTerm(ctx context.Context, offeringID, termID string) ([]models.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM tasks WHERE offering_id = $1 AND term_id = $2 AND active = TRUE ORDER BY created_at", taskColumns)
	var tasks []models.Task
	if err := r.db.SelectContext(ctx, &tasks, query, offeringID, termID); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// UpsertSubmission stores a submission keyed by (task, student).
func (r *TaskRepository) UpsertSubmission(ctx context.Context, exec sqlx.ExtContext, submission *models.TaskSubmission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	submission.CreatedAt = now
	submission.UpdatedAt = now

	const query = `INSERT INTO task_submissions (id, task_id, student_id, score, feedback, status, graded_by, graded_at, submitted_at, created_at, updated_at)
VALUES (:id, :task_id, :student_id, :score, :feedback, :status, :graded_by, :graded_at, :submitted_at, :created_at, :updated_at)
ON CONFLICT (task_id, student_id) DO UPDATE
SET score = EXCLUDED.score,
    feedback = EXCLUDED.feedback,
    status = EXCLUDED.status,
    graded_by = EXCLUDED.graded_by,
    graded_at = EXCLUDED.graded_at,
    submitted_at = COALESCE(task_submissions.submitted_at, EXCLUDED.submitted_at),
    updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, submission); err != nil {
		return fmt.Errorf("upsert task submission: %w", err)
	}
	return nil
}

// ListSubmissions returns the submissions of a task.
func (r *TaskRepository) ListSubmissions(ctx context.Context, taskID string) ([]models.TaskSubmission, error) {
	query := fmt.Sprintf("SELECT %s FROM task_submissions WHERE task_id = $1 ORDER BY student_id", submissionColumns)
	var submissions []models.TaskSubmission
	if err := r.db.SelectContext(ctx, &submissions, query, taskID); err != nil {
		return nil, fmt.Errorf("list task submissions: %w", err)
	}
	return submissions, nil
}

// ListGradedForStudent joins graded submissions with their task scale and weight.
func (r *TaskRepository) ListGradedForStudent(ctx context.Context, studentID, offeringID, termID string) ([]models.GradedTaskScore, error) {
	const query = `SELECT t.id AS task_id, t.title, s.score, t.max_score, t.weight
FROM task_submissions s
JOIN tasks t ON t.id = s.task_id
WHERE s.student_id = $1 AND t.offering_id = $2 AND t.term_id = $3
  AND t.active = TRUE AND s.status = $4 AND s.score IS NOT NULL
ORDER BY t.created_at`
	var scores []models.GradedTaskScore
	if err := r.db.SelectContext(ctx, &scores, query, studentID, offeringID, termID, models.SubmissionStatusGraded); err != nil {
		return nil, fmt.Errorf("list graded submissions: %w", err)
	}
	return scores, nil
}
