package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-academic-core/internal/models"
	appErrors "github.com/noah-isme/sma-academic-core/pkg/errors"
)

type periodRepoStub struct {
	periods []*models.AcademicPeriod
	terms   []*models.Term
}

func (s *periodRepoStub) ListPeriods(ctx context.Context) ([]models.AcademicPeriod, error) {
	out := make([]models.AcademicPeriod, 0, len(s.periods))
	for _, p := range s.periods {
		out = append(out, *p)
	}
	return out, nil
}

func (s *periodRepoStub) FindPeriodByID(ctx context.Context, id string) (*models.AcademicPeriod, error) {
	for _, p := range s.periods {
		if p.ID == id {
			clone := *p
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *periodRepoStub) FindCurrentPeriod(ctx context.Context) (*models.AcademicPeriod, error) {
	for _, p := range s.periods {
		if p.IsCurrent {
			clone := *p
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *periodRepoStub) CreatePeriod(ctx context.Context, period *models.AcademicPeriod) error {
	period.ID = fmt.Sprintf("per-%d", len(s.periods)+1)
	clone := *period
	s.periods = append(s.periods, &clone)
	return nil
}

func (s *periodRepoStub) SetCurrent(ctx context.Context, exec sqlx.ExtContext, id string) error {
	for _, p := range s.periods {
		p.IsCurrent = p.ID == id
	}
	return nil
}

func (s *periodRepoStub) ListTerms(ctx context.Context, periodID string) ([]models.Term, error) {
	var out []models.Term
	for _, term := range s.terms {
		if term.AcademicPeriodID == periodID {
			out = append(out, *term)
		}
	}
	return out, nil
}

func (s *periodRepoStub) FindTermByID(ctx context.Context, id string) (*models.Term, error) {
	for _, term := range s.terms {
		if term.ID == id {
			clone := *term
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *periodRepoStub) CreateTerm(ctx context.Context, term *models.Term) error {
	term.ID = fmt.Sprintf("term-%d", len(s.terms)+1)
	clone := *term
	s.terms = append(s.terms, &clone)
	return nil
}

func mustDate(value string) time.Time {
	t, _ := time.Parse("2006-01-02", value)
	return t
}

func TestPeriodServiceCreateAndSwitchCurrent(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	repo := &periodRepoStub{}
	svc := NewPeriodService(repo, tx, nil, nil, nil)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectCommit()
	first, err := svc.Create(ctx, CreatePeriodRequest{Name: "2025/2026", StartDate: mustDate("2025-07-14"), EndDate: mustDate("2026-06-20"), IsCurrent: true})
	require.NoError(t, err)
	assert.True(t, first.IsCurrent)

	second, err := svc.Create(ctx, CreatePeriodRequest{Name: "2026/2027", StartDate: mustDate("2026-07-13"), EndDate: mustDate("2027-06-19")})
	require.NoError(t, err)
	assert.False(t, second.IsCurrent)

	mock.ExpectBegin()
	mock.ExpectCommit()
	_, err = svc.SetCurrent(ctx, second.ID)
	require.NoError(t, err)

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.ID)
	periods, err := svc.List(ctx)
	require.NoError(t, err)
	assert.False(t, periods[0].IsCurrent)

	_, err = svc.SetCurrent(ctx, "missing")
	requireAppCode(t, err, appErrors.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodServiceRejectsInvertedDates(t *testing.T) {
	svc := NewPeriodService(&periodRepoStub{}, nil, nil, nil, nil)
	_, err := svc.Create(context.Background(), CreatePeriodRequest{Name: "bad", StartDate: mustDate("2026-06-20"), EndDate: mustDate("2025-07-14")})
	requireAppCode(t, err, appErrors.ErrValidation)

	_, err = svc.Current(context.Background())
	requireAppCode(t, err, appErrors.ErrNotFound)
}

func TestPeriodServiceTerms(t *testing.T) {
	repo := &periodRepoStub{periods: []*models.AcademicPeriod{{ID: "P", StartDate: mustDate("2026-07-13"), EndDate: mustDate("2027-06-19")}}}
	svc := NewPeriodService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	term, err := svc.CreateTerm(ctx, "P", CreateTermRequest{Name: "Lapso 1", Number: 1, StartDate: mustDate("2026-07-13"), EndDate: mustDate("2026-11-30")})
	require.NoError(t, err)
	assert.Equal(t, 33.33, term.Weight)
	assert.True(t, term.Active)

	_, err = svc.CreateTerm(ctx, "P", CreateTermRequest{Name: "Lapso 2", Number: 2, StartDate: mustDate("2026-12-01"), EndDate: mustDate("2027-08-01"), Weight: floatPtr(40)})
	requireAppCode(t, err, appErrors.ErrValidation)

	_, err = svc.CreateTerm(ctx, "missing", CreateTermRequest{Name: "Lapso 1", Number: 1, StartDate: mustDate("2026-07-13"), EndDate: mustDate("2026-11-30")})
	requireAppCode(t, err, appErrors.ErrNotFound)

	terms, err := svc.ListTerms(ctx, "P")
	require.NoError(t, err)
	require.Len(t, terms, 1)

	loaded, err := svc.GetTerm(ctx, term.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Number)
}
