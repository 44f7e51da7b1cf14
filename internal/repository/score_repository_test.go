package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-academic-core/internal/models"
)

func TestScoreRepositoryUpsertReportsFinalGuard(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (student_id, offering_id, term_id) DO UPDATE")).
		WithArgs(sqlmock.AnyArg(), "stu-1", "off-1", "term-1", 15.5, nil, "tch-1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("WHERE student_scores.is_final = FALSE")).
		WithArgs(sqlmock.AnyArg(), "stu-1", "off-1", "term-1", 16.0, nil, "tch-1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	applied, err := repo.Upsert(context.Background(), nil, &models.StudentScore{StudentID: "stu-1", OfferingID: "off-1", TermID: "term-1", Score: 15.5, GradedBy: "tch-1"})
	require.NoError(t, err)
	require.True(t, applied)

	applied, err = repo.Upsert(context.Background(), nil, &models.StudentScore{StudentID: "stu-1", OfferingID: "off-1", TermID: "term-1", Score: 16, GradedBy: "tch-1"})
	require.NoError(t, err)
	require.False(t, applied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryFinalize(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE student_scores SET is_final = TRUE, updated_at = $3 WHERE offering_id = $1 AND term_id = $2 AND is_final = FALSE")).
		WithArgs("off-1", "term-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 28))

	count, err := repo.Finalize(context.Background(), nil, "off-1", "term-1")
	require.NoError(t, err)
	require.EqualValues(t, 28, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryListForReportCard(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE ss.student_id = $1 AND ss.term_id = $2")).
		WithArgs("stu-1", "term-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "offering_id", "term_id", "score", "observations", "graded_by", "graded_at", "is_final", "created_at", "updated_at", "subject_id"}).
			AddRow("sc-1", "stu-1", "off-1", "term-1", 14.5, nil, "tch-1", now, true, now, now, "math"))

	scores, err := repo.ListForReportCard(context.Background(), "stu-1", "term-1")
	require.NoError(t, err)
	require.Len(t, scores, 1)
	require.Equal(t, "math", scores[0].SubjectID)
	require.True(t, scores[0].IsFinal)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepositoryListGradedForStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("AND t.active = TRUE AND s.status = $4 AND s.score IS NOT NULL")).
		WithArgs("stu-1", "off-1", "term-1", models.SubmissionStatusGraded).
		WillReturnRows(sqlmock.NewRows([]string{"task_id", "title", "score", "max_score", "weight"}).
			AddRow("task-1", "Quiz 1", 8.0, 10.0, 60.0))

	scores, err := repo.ListGradedForStudent(context.Background(), "stu-1", "off-1", "term-1")
	require.NoError(t, err)
	require.Len(t, scores, 1)
	require.Equal(t, 10.0, scores[0].MaxScore)
	require.NoError(t, mock.ExpectationsWereMet())
}
