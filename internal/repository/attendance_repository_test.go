package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-academic-core/internal/academic"
	"github.com/noah-isme/sma-academic-core/internal/models"
)

func TestAttendanceRepositoryUpsertBatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	for _, student := range []string{"stu-1", "stu-2"} {
		mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT ON CONSTRAINT attendances_unique DO UPDATE")).
			WithArgs(sqlmock.AnyArg(), student, "sec-1", nil, "per-1", date, academic.StatusPresent, nil, "tch-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	records := []models.Attendance{
		{StudentID: "stu-1", SectionID: "sec-1", AcademicPeriodID: "per-1", Date: date, Status: academic.StatusPresent, RecordedBy: "tch-1"},
		{StudentID: "stu-2", SectionID: "sec-1", AcademicPeriodID: "per-1", Date: date, Status: academic.StatusPresent, RecordedBy: "tch-1"},
	}
	require.NoError(t, repo.UpsertBatch(context.Background(), tx, records))
	require.NoError(t, tx.Commit())
	require.NotEmpty(t, records[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryCountsByStudentWithOffering(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	offering := "off-1"
	mock.ExpectQuery(regexp.QuoteMeta("FROM attendances WHERE 1=1 AND student_id = $1 AND section_id = $2 AND academic_period_id = $3 AND offering_id = $4")).
		WithArgs("stu-1", "sec-1", "per-1", "off-1").
		WillReturnRows(sqlmock.NewRows([]string{"present", "absent", "late", "excused"}).AddRow(6, 2, 1, 1))

	counts, err := repo.CountsByStudent(context.Background(), models.AttendanceScope{
		StudentID: "stu-1", SectionID: "sec-1", AcademicPeriodID: "per-1", OfferingID: &offering,
	})
	require.NoError(t, err)
	require.Equal(t, academic.StatusCounts{Present: 6, Absent: 2, Late: 1, Excused: 1}, counts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryCountsForSection(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY student_id ORDER BY student_id")).
		WithArgs("sec-1").
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "present", "absent", "late", "excused"}).
			AddRow("stu-1", 9, 1, 0, 0).
			AddRow("stu-2", 1, 3, 0, 0))

	counts, err := repo.CountsForSection(context.Background(), models.AttendanceScope{SectionID: "sec-1"})
	require.NoError(t, err)
	require.Len(t, counts, 2)
	require.Equal(t, 3, counts[1].Absent)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryHistoryBySection(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("AND date >= $2 AND date <= $3 GROUP BY date ORDER BY date")).
		WithArgs("sec-1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"date", "present", "absent", "late", "excused", "total"}).
			AddRow(from, 28, 1, 1, 0, 30))

	days, err := repo.HistoryBySection(context.Background(), models.AttendanceScope{SectionID: "sec-1", DateFrom: &from, DateTo: &to})
	require.NoError(t, err)
	require.Len(t, days, 1)
	require.Equal(t, 30, days[0].Records)
	require.Equal(t, 28, days[0].Present)
	require.NoError(t, mock.ExpectationsWereMet())
}
