package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-academic-core/internal/academic"
	"github.com/noah-isme/sma-academic-core/internal/models"
	appErrors "github.com/noah-isme/sma-academic-core/pkg/errors"
)

type scoreRepository interface {
	List(ctx context.Context, filter models.StudentScoreFilter) ([]models.StudentScore, error)
	FindByID(ctx context.Context, id string) (*models.StudentScore, error)
	IsFinalized(ctx context.Context, exec sqlx.ExtContext, studentID, offeringID, termID string) (bool, error)
	Upsert(ctx context.Context, exec sqlx.ExtContext, score *models.StudentScore) (bool, error)
	Finalize(ctx context.Context, exec sqlx.ExtContext, offeringID, termID string) (int64, error)
	Delete(ctx context.Context, id string) (bool, error)
	ListForReportCard(ctx context.Context, studentID, termID string) ([]models.StudentScoreWithSubject, error)
	ListPeriodTerms(ctx context.Context, studentID, offeringID string) ([]models.PeriodGradeTerm, error)
	CreateManual(ctx context.Context, exec sqlx.ExtContext, score *models.ManualScore) error
	ListManual(ctx context.Context, studentID, offeringID, termID string) ([]models.ManualScore, error)
}

type gradedTaskReader interface {
	ListGradedForStudent(ctx context.Context, studentID, offeringID, termID string) ([]models.GradedTaskScore, error)
}

type offeringFinder interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Offering, error)
}

type termFinder interface {
	FindTermByID(ctx context.Context, id string) (*models.Term, error)
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	InvalidateAsync(ctx context.Context, pattern string)
}

// UpsertScoreRequest records a term score on the canonical scale.
type UpsertScoreRequest struct {
	StudentID    string  `json:"student_id" validate:"required"`
	OfferingID   string  `json:"offering_id" validate:"required"`
	TermID       string  `json:"term_id" validate:"required"`
	Score        float64 `json:"score" validate:"gte=0"`
	Observations *string `json:"observations" validate:"omitempty,max=500"`
}

// BulkScoreItem is one student line of a bulk upload.
type BulkScoreItem struct {
	StudentID    string  `json:"student_id" validate:"required"`
	Score        float64 `json:"score" validate:"gte=0"`
	Observations *string `json:"observations" validate:"omitempty,max=500"`
}

// BulkScoresRequest uploads the scores of an offering for one term.
type BulkScoresRequest struct {
	OfferingID string                   `json:"offering_id" validate:"required"`
	TermID     string                   `json:"term_id" validate:"required"`
	Mode       models.BulkOperationMode `json:"mode" validate:"omitempty,bulk_mode"`
	Items      []BulkScoreItem          `json:"items" validate:"required,min=1,max=500,dive"`
}

// BulkScoresResult summarises partial outcomes.
type BulkScoresResult struct {
	SuccessCount int                `json:"success_count"`
	Failures     []BulkScoreFailure `json:"failures,omitempty"`
}

// BulkScoreFailure captures a rejected line.
type BulkScoreFailure struct {
	StudentID string `json:"student_id"`
	Reason    string `json:"reason"`
}

// FinalizeScoresRequest finalizes every score of an offering in a term.
type FinalizeScoresRequest struct {
	OfferingID string `json:"offering_id" validate:"required"`
	TermID     string `json:"term_id" validate:"required"`
}

// FinalizeScoresResult reports how many rows were locked.
type FinalizeScoresResult struct {
	OfferingID string `json:"offering_id"`
	TermID     string `json:"term_id"`
	Finalized  int64  `json:"finalized"`
}

// CreateManualScoreRequest records an ad-hoc mark out of MaxScore.
type CreateManualScoreRequest struct {
	StudentID   string   `json:"student_id" validate:"required"`
	OfferingID  string   `json:"offering_id" validate:"required"`
	TermID      string   `json:"term_id" validate:"required"`
	Title       string   `json:"title" validate:"required,max=120"`
	Description *string  `json:"description" validate:"omitempty,max=500"`
	Score       float64  `json:"score" validate:"gte=0"`
	MaxScore    *float64 `json:"max_score" validate:"omitempty,gt=0"`
}

// ScoreService records term scores and computes report cards and grades.
type ScoreService struct {
	scores    scoreRepository
	tasks     gradedTaskReader
	offerings offeringFinder
	terms     termFinder
	cache     reportCache
	tx        txProvider
	metrics   *MetricsService
	policy    academic.ScorePolicy
	manualW   float64
	reportTTL time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// ScoreServiceConfig carries the grading policy and cache lifetime.
type ScoreServiceConfig struct {
	Policy    academic.ScorePolicy
	ReportTTL time.Duration
	// ManualScoreWeight weighs manual scores against task weights. Nil means 1.
	ManualScoreWeight *float64
}

// NewScoreService constructs ScoreService. A zero policy falls back to the 0-20 scale.
func NewScoreService(scores scoreRepository, tasks gradedTaskReader, offerings offeringFinder, terms termFinder, cache reportCache, tx txProvider, metrics *MetricsService, cfg ScoreServiceConfig, validate *validator.Validate, logger *zap.Logger) *ScoreService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	policy := cfg.Policy
	if policy.Validate() != nil {
		policy = academic.DefaultScorePolicy()
	}
	manualWeight := 1.0
	if cfg.ManualScoreWeight != nil && *cfg.ManualScoreWeight >= 0 {
		manualWeight = *cfg.ManualScoreWeight
	}
	return &ScoreService{
		scores:    scores,
		tasks:     tasks,
		offerings: offerings,
		terms:     terms,
		cache:     cache,
		tx:        tx,
		metrics:   metrics,
		policy:    policy,
		manualW:   manualWeight,
		reportTTL: cfg.ReportTTL,
		validator: validate,
		logger:    logger,
	}
}

// Policy exposes the grading constants in use.
func (s *ScoreService) Policy() academic.ScorePolicy {
	return s.policy
}

// List returns term scores matching filter.
func (s *ScoreService) List(ctx context.Context, filter models.StudentScoreFilter) ([]models.StudentScore, error) {
	scores, err := s.scores.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list scores")
	}
	return scores, nil
}

// Upsert writes one term score unless it has been finalized.
func (s *ScoreService) Upsert(ctx context.Context, actorID string, req UpsertScoreRequest) (*models.StudentScore, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}
	if _, err := s.policy.Normalize(req.Score, s.policy.CanonicalScale); err != nil {
		return nil, validationError(err, "invalid score")
	}
	if err := s.ensureScope(ctx, req.OfferingID, req.TermID); err != nil {
		return nil, err
	}
	score := &models.StudentScore{
		StudentID:    req.StudentID,
		OfferingID:   req.OfferingID,
		TermID:       req.TermID,
		Score:        req.Score,
		Observations: req.Observations,
		GradedBy:     actorID,
	}
	err := runInTx(ctx, s.tx, s.metrics, "upsert score", func(tx *sqlx.Tx) error {
		return s.writeScore(ctx, tx, score)
	})
	if err != nil {
		return nil, err
	}
	s.invalidateReportCards(ctx, req.StudentID)
	return score, nil
}

// BulkUpsert writes many scores of one offering and term. In atomic mode the
// first rejected line aborts the batch; otherwise rejected lines are reported
// and the rest are stored.
func (s *ScoreService) BulkUpsert(ctx context.Context, actorID string, req BulkScoresRequest) (*BulkScoresResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk score payload")
	}
	seen := make(map[string]bool, len(req.Items))
	for _, item := range req.Items {
		if seen[item.StudentID] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s appears more than once", item.StudentID))
		}
		seen[item.StudentID] = true
	}
	if err := s.ensureScope(ctx, req.OfferingID, req.TermID); err != nil {
		return nil, err
	}
	partial := req.Mode == models.BulkModePartialOnError

	result := &BulkScoresResult{}
	err := runInTx(ctx, s.tx, s.metrics, "bulk upsert scores", func(tx *sqlx.Tx) error {
		for _, item := range req.Items {
			score := &models.StudentScore{
				StudentID:    item.StudentID,
				OfferingID:   req.OfferingID,
				TermID:       req.TermID,
				Score:        item.Score,
				Observations: item.Observations,
				GradedBy:     actorID,
			}
			var err error
			if _, normErr := s.policy.Normalize(item.Score, s.policy.CanonicalScale); normErr != nil {
				err = validationError(normErr, "invalid score")
			} else {
				err = s.writeScore(ctx, tx, score)
			}
			if err == nil {
				result.SuccessCount++
				continue
			}
			if !partial || !isLineRejection(err) {
				return err
			}
			result.Failures = append(result.Failures, BulkScoreFailure{StudentID: item.StudentID, Reason: appErrors.FromError(err).Message})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, item := range req.Items {
		s.invalidateReportCards(ctx, item.StudentID)
	}
	return result, nil
}

// Finalize locks every score of an offering in a term. It cannot be undone.
func (s *ScoreService) Finalize(ctx context.Context, req FinalizeScoresRequest) (*FinalizeScoresResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid finalize payload")
	}
	if err := s.ensureScope(ctx, req.OfferingID, req.TermID); err != nil {
		return nil, err
	}
	result := &FinalizeScoresResult{OfferingID: req.OfferingID, TermID: req.TermID}
	err := runInTx(ctx, s.tx, s.metrics, "finalize scores", func(tx *sqlx.Tx) error {
		affected, err := s.scores.Finalize(ctx, tx, req.OfferingID, req.TermID)
		if err != nil {
			return err
		}
		result.Finalized = affected
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("scores finalized",
		zap.String("offering_id", req.OfferingID),
		zap.String("term_id", req.TermID),
		zap.Int64("rows", result.Finalized))
	s.invalidateReportCards(ctx, "*")
	return result, nil
}

// Delete removes an open term score.
func (s *ScoreService) Delete(ctx context.Context, id string) error {
	score, err := s.scores.FindByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "score not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load score")
	}
	if score.IsFinal {
		s.metrics.RecordFinalizedRejection()
		return appErrors.Clone(appErrors.ErrFinalized, "score is final")
	}
	deleted, err := s.scores.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete score")
	}
	if !deleted {
		s.metrics.RecordFinalizedRejection()
		return appErrors.Clone(appErrors.ErrFinalized, "score is final")
	}
	s.invalidateReportCards(ctx, score.StudentID)
	return nil
}

// CreateManualScore records an ad-hoc mark. The term must still be open for the student.
func (s *ScoreService) CreateManualScore(ctx context.Context, actorID string, req CreateManualScoreRequest) (*models.ManualScore, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid manual score payload")
	}
	maxScore := s.policy.CanonicalScale
	if req.MaxScore != nil {
		maxScore = *req.MaxScore
	}
	if _, err := s.policy.Normalize(req.Score, maxScore); err != nil {
		return nil, validationError(err, "invalid manual score")
	}
	if err := s.ensureScope(ctx, req.OfferingID, req.TermID); err != nil {
		return nil, err
	}
	manual := &models.ManualScore{
		StudentID:   req.StudentID,
		OfferingID:  req.OfferingID,
		TermID:      req.TermID,
		Title:       req.Title,
		Description: req.Description,
		Score:       req.Score,
		MaxScore:    maxScore,
		GradedBy:    actorID,
	}
	err := runInTx(ctx, s.tx, s.metrics, "create manual score", func(tx *sqlx.Tx) error {
		if err := s.ensureOpen(ctx, tx, req.StudentID, req.OfferingID, req.TermID); err != nil {
			return err
		}
		return s.scores.CreateManual(ctx, tx, manual)
	})
	if err != nil {
		return nil, err
	}
	return manual, nil
}

// ListManualScores returns a student's manual scores for an offering and term.
func (s *ScoreService) ListManualScores(ctx context.Context, studentID, offeringID, termID string) ([]models.ManualScore, error) {
	scores, err := s.scores.ListManual(ctx, studentID, offeringID, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list manual scores")
	}
	return scores, nil
}

// ReportCard aggregates a student's term scores. The average stays nil
// when the student has no scores.
func (s *ScoreService) ReportCard(ctx context.Context, studentID, termID string) (*models.ReportCard, error) {
	if studentID == "" || termID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student_id and term_id are required")
	}
	key := ReportCardKey(studentID, termID)
	if s.cache != nil {
		var cached models.ReportCard
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	rows, err := s.scores.ListForReportCard(ctx, studentID, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report card")
	}
	card, err := s.buildReportCard(studentID, termID, rows)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, card, s.reportTTL)
	}
	return card, nil
}

func (s *ScoreService) buildReportCard(studentID, termID string, rows []models.StudentScoreWithSubject) (*models.ReportCard, error) {
	card := &models.ReportCard{StudentID: studentID, TermID: termID, Items: make([]models.ReportCardItem, 0, len(rows))}
	artifacts := make([]academic.Artifact, 0, len(rows))
	for _, row := range rows {
		normalized, err := s.policy.Normalize(row.Score, s.policy.CanonicalScale)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored score outside the grading scale")
		}
		card.Items = append(card.Items, models.ReportCardItem{
			OfferingID: row.OfferingID,
			SubjectID:  row.SubjectID,
			Score:      academic.Round2(normalized),
			Letter:     s.policy.LetterGrade(normalized),
			Passed:     s.policy.Passed(normalized),
			IsFinal:    row.IsFinal,
		})
		artifacts = append(artifacts, academic.Artifact{Score: row.Score, MaxScore: s.policy.CanonicalScale})
	}
	summary, err := s.policy.Aggregate(artifacts)
	if err != nil {
		return nil, validationError(err, "invalid report card input")
	}
	card.Average = summary.Average
	card.TotalSubjects = summary.Count
	card.Passed = summary.Passed
	card.Failed = summary.Failed
	return card, nil
}

// OfferingTermGrade computes a term grade from graded task submissions,
// weighted by task weight, and manual scores, which carry the configured
// manual weight. When every weight is zero the plain mean is used.
func (s *ScoreService) OfferingTermGrade(ctx context.Context, studentID, offeringID, termID string) (*models.OfferingTermGrade, error) {
	if studentID == "" || offeringID == "" || termID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student_id, offering_id and term_id are required")
	}
	tasks, err := s.tasks.ListGradedForStudent(ctx, studentID, offeringID, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load graded tasks")
	}
	manual, err := s.scores.ListManual(ctx, studentID, offeringID, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load manual scores")
	}

	grade := &models.OfferingTermGrade{
		StudentID:  studentID,
		OfferingID: offeringID,
		TermID:     termID,
		Components: make([]models.GradeComponent, 0, len(tasks)+len(manual)),
	}
	artifacts := make([]academic.Artifact, 0, len(tasks)+len(manual))
	for _, task := range tasks {
		weight := task.Weight
		normalized, err := s.policy.Normalize(task.Score, task.MaxScore)
		if err != nil {
			return nil, validationError(err, "invalid task score")
		}
		grade.Components = append(grade.Components, models.GradeComponent{
			Source: "task", SourceID: task.TaskID, Title: task.Title,
			Score: task.Score, MaxScore: task.MaxScore, Normalized: academic.Round2(normalized), Weight: weight,
		})
		artifacts = append(artifacts, academic.Artifact{Score: task.Score, MaxScore: task.MaxScore, Weight: &weight})
	}
	for _, m := range manual {
		normalized, err := s.policy.Normalize(m.Score, m.MaxScore)
		if err != nil {
			return nil, validationError(err, "invalid manual score")
		}
		grade.Components = append(grade.Components, models.GradeComponent{
			Source: "manual", SourceID: m.ID, Title: m.Title,
			Score: m.Score, MaxScore: m.MaxScore, Normalized: academic.Round2(normalized), Weight: s.manualW,
		})
		weight := s.manualW
		artifacts = append(artifacts, academic.Artifact{Score: m.Score, MaxScore: m.MaxScore, Weight: &weight})
	}
	summary, err := s.policy.Aggregate(artifacts)
	if err != nil {
		return nil, validationError(err, "invalid grade input")
	}
	grade.Grade = summary.Average
	if grade.Grade != nil {
		passed := s.policy.Passed(*grade.Grade)
		grade.Passed = &passed
		grade.Letter = s.policy.LetterGrade(*grade.Grade)
	}
	return grade, nil
}

// PeriodGrade weights each active term's score by the term weight.
func (s *ScoreService) PeriodGrade(ctx context.Context, studentID, offeringID string) (*models.PeriodGrade, error) {
	if studentID == "" || offeringID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student_id and offering_id are required")
	}
	terms, err := s.scores.ListPeriodTerms(ctx, studentID, offeringID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term scores")
	}
	components := make([]academic.WeightedComponent, 0, len(terms))
	for _, term := range terms {
		components = append(components, academic.WeightedComponent{Value: term.Score, Weight: term.Weight})
	}
	if terms == nil {
		terms = []models.PeriodGradeTerm{}
	}
	result := &models.PeriodGrade{StudentID: studentID, OfferingID: offeringID, Terms: terms, Grade: academic.WeightedMean(components)}
	if result.Grade != nil {
		passed := s.policy.Passed(*result.Grade)
		result.Passed = &passed
	}
	return result, nil
}

func (s *ScoreService) writeScore(ctx context.Context, tx *sqlx.Tx, score *models.StudentScore) error {
	if err := s.ensureOpen(ctx, tx, score.StudentID, score.OfferingID, score.TermID); err != nil {
		return err
	}
	written, err := s.scores.Upsert(ctx, tx, score)
	if err != nil {
		return err
	}
	if !written {
		s.metrics.RecordFinalizedRejection()
		return appErrors.Clone(appErrors.ErrFinalized, "score is final")
	}
	return nil
}

// ensureOpen rejects writes for a (student, offering, term) whose score is final.
func (s *ScoreService) ensureOpen(ctx context.Context, exec sqlx.ExtContext, studentID, offeringID, termID string) error {
	final, err := s.scores.IsFinalized(ctx, exec, studentID, offeringID, termID)
	if err != nil {
		return err
	}
	if final {
		s.metrics.RecordFinalizedRejection()
		return appErrors.Clone(appErrors.ErrFinalized, "score is final")
	}
	return nil
}

// ensureScope checks the offering exists and the term belongs to its period.
func (s *ScoreService) ensureScope(ctx context.Context, offeringID, termID string) error {
	offering, err := s.offerings.FindByID(ctx, nil, offeringID)
	if err != nil {
		if isNoRows(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}
	term, err := s.terms.FindTermByID(ctx, termID)
	if err != nil {
		if isNoRows(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	if term.AcademicPeriodID != offering.AcademicPeriodID {
		return appErrors.Clone(appErrors.ErrValidation, "term does not belong to the offering's academic period")
	}
	return nil
}

func (s *ScoreService) invalidateReportCards(ctx context.Context, studentID string) {
	if s.cache == nil {
		return
	}
	s.cache.InvalidateAsync(ctx, ReportCardPattern(studentID))
}

// isLineRejection reports errors that concern a single bulk line rather than the batch.
func isLineRejection(err error) bool {
	return appErrors.HasCode(err, appErrors.ErrFinalized) || appErrors.HasCode(err, appErrors.ErrValidation)
}
