package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-academic-core/internal/academic"
	"github.com/noah-isme/sma-academic-core/internal/models"
	appErrors "github.com/noah-isme/sma-academic-core/pkg/errors"
)

type taskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id string) (*models.Task, error)
	ListByOfferingTerm(ctx context.Context, offeringID, termID string) ([]models.Task, error)
	UpsertSubmission(ctx context.Context, exec sqlx.ExtContext, submission *models.TaskSubmission) error
	ListSubmissions(ctx context.Context, taskID string) ([]models.TaskSubmission, error)
}

type finalScoreChecker interface {
	IsFinalized(ctx context.Context, exec sqlx.ExtContext, studentID, offeringID, termID string) (bool, error)
}

// CreateTaskRequest describes a new assessment.
type CreateTaskRequest struct {
	OfferingID  string     `json:"offering_id" validate:"required"`
	TermID      string     `json:"term_id" validate:"required"`
	Title       string     `json:"title" validate:"required,max=160"`
	Type        string     `json:"type" validate:"omitempty,task_type"`
	MaxScore    *float64   `json:"max_score" validate:"omitempty,gt=0,lte=100"`
	Weight      *float64   `json:"weight" validate:"omitempty,gte=0,lte=100"`
	DueDate     *time.Time `json:"due_date"`
	IsPublished bool       `json:"is_published"`
}

// GradeSubmissionRequest grades one student's submission.
type GradeSubmissionRequest struct {
	StudentID string  `json:"student_id" validate:"required"`
	Score     float64 `json:"score" validate:"gte=0"`
	Feedback  *string `json:"feedback" validate:"omitempty,max=1000"`
}

// TaskService manages tasks and grades their submissions.
type TaskService struct {
	tasks     taskRepository
	finals    finalScoreChecker
	offerings offeringFinder
	terms     termFinder
	tx        txProvider
	metrics   *MetricsService
	policy    academic.ScorePolicy
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewTaskService constructs TaskService.
func NewTaskService(tasks taskRepository, finals finalScoreChecker, offerings offeringFinder, terms termFinder, tx txProvider, metrics *MetricsService, policy academic.ScorePolicy, validate *validator.Validate, logger *zap.Logger) *TaskService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.Validate() != nil {
		policy = academic.DefaultScorePolicy()
	}
	return &TaskService{
		tasks:     tasks,
		finals:    finals,
		offerings: offerings,
		terms:     terms,
		tx:        tx,
		metrics:   metrics,
		policy:    policy,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Create adds a task to an offering and term.
func (s *TaskService) Create(ctx context.Context, req CreateTaskRequest) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}
	offering, err := s.offerings.FindByID(ctx, nil, req.OfferingID)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}
	term, err := s.terms.FindTermByID(ctx, req.TermID)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	if term.AcademicPeriodID != offering.AcademicPeriodID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "term does not belong to the offering's academic period")
	}

	task := &models.Task{
		OfferingID:  req.OfferingID,
		TermID:      req.TermID,
		Title:       req.Title,
		Type:        models.TaskTypeHomework,
		MaxScore:    s.policy.CanonicalScale,
		DueDate:     req.DueDate,
		IsPublished: req.IsPublished,
		Active:      true,
	}
	if req.Type != "" {
		task.Type = models.TaskType(req.Type)
	}
	if req.MaxScore != nil {
		task.MaxScore = *req.MaxScore
	}
	if req.Weight != nil {
		task.Weight = *req.Weight
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create task")
	}
	return task, nil
}

// Get returns a task.
func (s *TaskService) Get(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	return task, nil
}

// List returns the active tasks of an offering in a term.
func (s *TaskService) List(ctx context.Context, offeringID, termID string) ([]models.Task, error) {
	if offeringID == "" || termID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "offering_id and term_id are required")
	}
	tasks, err := s.tasks.ListByOfferingTerm(ctx, offeringID, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}
	return tasks, nil
}

// ListSubmissions returns every submission of a task.
func (s *TaskService) ListSubmissions(ctx context.Context, taskID string) ([]models.TaskSubmission, error) {
	if _, err := s.Get(ctx, taskID); err != nil {
		return nil, err
	}
	submissions, err := s.tasks.ListSubmissions(ctx, taskID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return submissions, nil
}

// GradeSubmission stores a graded submission. Writes are refused once the
// student's term score for the offering is final.
func (s *TaskService) GradeSubmission(ctx context.Context, actorID, taskID string, req GradeSubmissionRequest) (*models.TaskSubmission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}
	task, err := s.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !task.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "task is inactive")
	}
	if _, err := s.policy.Normalize(req.Score, task.MaxScore); err != nil {
		return nil, validationError(err, "invalid submission score")
	}

	now := s.now().UTC()
	score := req.Score
	submission := &models.TaskSubmission{
		TaskID:      task.ID,
		StudentID:   req.StudentID,
		Score:       &score,
		Feedback:    req.Feedback,
		Status:      models.SubmissionStatusGraded,
		GradedBy:    &actorID,
		GradedAt:    &now,
		SubmittedAt: &now,
	}
	err = runInTx(ctx, s.tx, s.metrics, "grade submission", func(tx *sqlx.Tx) error {
		final, err := s.finals.IsFinalized(ctx, tx, req.StudentID, task.OfferingID, task.TermID)
		if err != nil {
			return err
		}
		if final {
			s.metrics.RecordFinalizedRejection()
			return appErrors.Clone(appErrors.ErrFinalized, "score is final")
		}
		return s.tasks.UpsertSubmission(ctx, tx, submission)
	})
	if err != nil {
		return nil, err
	}
	return submission, nil
}
