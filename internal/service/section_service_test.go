package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-academic-core/internal/models"
	appErrors "github.com/noah-isme/sma-academic-core/pkg/errors"
)

type periodReaderStub struct {
	ids map[string]bool
}

func (s periodReaderStub) FindPeriodByID(ctx context.Context, id string) (*models.AcademicPeriod, error) {
	if !s.ids[id] {
		return nil, sql.ErrNoRows
	}
	return &models.AcademicPeriod{ID: id}, nil
}

func newSectionServiceFixture(t *testing.T) (*SectionService, *sectionStoreStub, func(), func()) {
	tx, mock := newTxProviderMock(t)
	enrollments := &enrollmentStoreStub{}
	enrollments.seed("SEC-A", "P", models.EnrollmentStatusActive, 3)
	enrollments.seed("SEC-A", "P", models.EnrollmentStatusWithdrawn, 2)
	store := &sectionStoreStub{enrollments: enrollments, sections: map[string]*models.Section{
		"SEC-A": {ID: "SEC-A", AcademicPeriodID: "P", Capacity: intPtr(5), Active: true},
	}}
	svc := NewSectionService(store, periodReaderStub{ids: map[string]bool{"P": true}}, tx, NewMetricsService(), nil, nil)
	t.Cleanup(func() { require.NoError(t, mock.ExpectationsWereMet()) })
	return svc, store,
		func() { mock.ExpectBegin(); mock.ExpectCommit() },
		func() { mock.ExpectBegin(); mock.ExpectRollback() }
}

func TestSectionServiceGetReportsOccupancy(t *testing.T) {
	svc, _, _, _ := newSectionServiceFixture(t)

	occupancy, err := svc.Get(context.Background(), "SEC-A")
	require.NoError(t, err)
	assert.Equal(t, 3, occupancy.ActiveCount)
	require.NotNil(t, occupancy.RemainingSeats)
	assert.Equal(t, 2, *occupancy.RemainingSeats)

	_, err = svc.Get(context.Background(), "missing")
	requireAppCode(t, err, appErrors.ErrNotFound)
}

func TestSectionServiceCreate(t *testing.T) {
	svc, store, _, _ := newSectionServiceFixture(t)

	section, err := svc.Create(context.Background(), CreateSectionRequest{AcademicPeriodID: "P", GradeLevel: "10", Name: "B", Capacity: intPtr(32)})
	require.NoError(t, err)
	assert.True(t, section.Active)
	assert.Contains(t, store.sections, section.ID)

	_, err = svc.Create(context.Background(), CreateSectionRequest{AcademicPeriodID: "P9", GradeLevel: "10", Name: "C"})
	requireAppCode(t, err, appErrors.ErrNotFound)

	_, err = svc.Create(context.Background(), CreateSectionRequest{AcademicPeriodID: "P", GradeLevel: "10", Name: "D", Capacity: intPtr(-1)})
	requireAppCode(t, err, appErrors.ErrValidation)

	_, err = svc.Create(context.Background(), CreateSectionRequest{AcademicPeriodID: "P", GradeLevel: "10", Name: "E", Capacity: intPtr(0)})
	requireAppCode(t, err, appErrors.ErrValidation)
}

func TestSectionServiceRejectsZeroCapacityUpdate(t *testing.T) {
	svc, store, _, _ := newSectionServiceFixture(t)

	_, err := svc.UpdateCapacity(context.Background(), "SEC-A", UpdateCapacityRequest{Capacity: intPtr(0)})
	requireAppCode(t, err, appErrors.ErrValidation)
	assert.Equal(t, 5, *store.sections["SEC-A"].Capacity)
}

func TestSectionServiceCapacityBelowOccupancyKeepsEnrollments(t *testing.T) {
	svc, store, commit, rollback := newSectionServiceFixture(t)
	ctx := context.Background()

	commit()
	occupancy, err := svc.UpdateCapacity(ctx, "SEC-A", UpdateCapacityRequest{Capacity: intPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, 3, occupancy.ActiveCount)
	assert.Equal(t, 0, *occupancy.RemainingSeats)
	assert.Equal(t, 1, *store.sections["SEC-A"].Capacity)
	count, _ := store.CountActive(ctx, nil, "SEC-A")
	assert.Equal(t, 3, count)

	commit()
	occupancy, err = svc.UpdateCapacity(ctx, "SEC-A", UpdateCapacityRequest{})
	require.NoError(t, err)
	assert.Nil(t, occupancy.RemainingSeats)
	assert.Nil(t, occupancy.Capacity)

	rollback()
	_, err = svc.UpdateCapacity(ctx, "missing", UpdateCapacityRequest{Capacity: intPtr(3)})
	requireAppCode(t, err, appErrors.ErrNotFound)
}

func TestSectionServiceList(t *testing.T) {
	svc, _, _, _ := newSectionServiceFixture(t)

	sections, meta, err := svc.List(context.Background(), models.SectionFilter{})
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, 2, *sections[0].RemainingSeats)
	assert.Equal(t, 1, meta.TotalCount)
	assert.Equal(t, 20, meta.PageSize)
}
