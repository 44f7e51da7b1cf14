package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestPeriodRepositoryListTermsOrdersByNumber(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + termColumns + " FROM terms WHERE academic_period_id = $1 ORDER BY number")).
		WithArgs("per-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "academic_period_id", "name", "number", "start_date", "end_date", "weight", "active", "created_at", "updated_at"}).
			AddRow("term-1", "per-1", "Term 1", 1, now, now, 33.33, true, now, now).
			AddRow("term-2", "per-1", "Term 2", 2, now, now, 33.33, true, now, now))

	terms, err := repo.ListTerms(context.Background(), "per-1")
	require.NoError(t, err)
	require.Len(t, terms, 2)
	require.Equal(t, 2, terms[1].Number)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodRepositorySetCurrent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE academic_periods SET is_current = FALSE")).
		WithArgs(sqlmock.AnyArg(), "per-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE academic_periods SET is_current = TRUE, updated_at = $2 WHERE id = $1")).
		WithArgs("per-2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetCurrent(context.Background(), nil, "per-2"))
	require.NoError(t, mock.ExpectationsWereMet())
}
