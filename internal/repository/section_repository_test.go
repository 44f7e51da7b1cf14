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

func TestSectionRepositoryLockForUpdate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + sectionColumns + " FROM sections WHERE id = $1 FOR UPDATE")).
		WithArgs("sec-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "academic_period_id", "grade_level", "name", "capacity", "active", "created_at", "updated_at"}).
			AddRow("sec-1", "per-1", "10", "A", 30, true, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE section_id = $1 AND status = $2")).
		WithArgs("sec-1", models.EnrollmentStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(29))
	mock.ExpectRollback()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	section, err := repo.LockForUpdate(context.Background(), tx, "sec-1")
	require.NoError(t, err)
	require.NotNil(t, section.Capacity)
	require.Equal(t, 30, *section.Capacity)

	count, err := repo.CountActive(context.Background(), tx, "sec-1")
	require.NoError(t, err)
	require.Equal(t, 29, count)
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryListIncludesOccupancy(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM sections s WHERE s.academic_period_id = $1 ORDER BY s.grade_level, s.name LIMIT 20 OFFSET 0")).
		WithArgs("per-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "academic_period_id", "grade_level", "name", "capacity", "active", "created_at", "updated_at", "active_count"}).
			AddRow("sec-1", "per-1", "10", "A", nil, true, now, now, 12))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM sections s WHERE s.academic_period_id = $1")).
		WithArgs("per-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	sections, total, err := repo.List(context.Background(), models.SectionFilter{AcademicPeriodID: "per-1"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, sections, 1)
	require.Nil(t, sections[0].Capacity)
	require.Equal(t, 12, sections[0].ActiveCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryUpdateCapacityClearsLimit(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sections SET capacity = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("sec-1", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateCapacity(context.Background(), nil, "sec-1", nil))
	require.NoError(t, mock.ExpectationsWereMet())
}
