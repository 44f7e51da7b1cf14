package academic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestNormalizeOntoCanonicalScale(t *testing.T) {
	policy := DefaultScorePolicy()

	a, err := policy.Normalize(16, 20)
	require.NoError(t, err)
	b, err := policy.Normalize(8, 10)
	require.NoError(t, err)
	assert.InDelta(t, 16.0, a, 1e-9)
	assert.InDelta(t, 16.0, b, 1e-9)
}

func TestNormalizeRejectsOutOfRange(t *testing.T) {
	policy := DefaultScorePolicy()
	_, err := policy.Normalize(21, 20)
	require.Error(t, err)
	_, err = policy.Normalize(-1, 20)
	require.Error(t, err)
	_, err = policy.Normalize(5, 0)
	require.Error(t, err)
}

func TestAggregateWeightedMean(t *testing.T) {
	policy := DefaultScorePolicy()
	summary, err := policy.Aggregate([]Artifact{
		{Score: 12, MaxScore: 20, Weight: floatPtr(60)},
		{Score: 18, MaxScore: 20, Weight: floatPtr(40)},
	})
	require.NoError(t, err)
	require.NotNil(t, summary.Average)
	assert.InDelta(t, 14.4, *summary.Average, 1e-9)
	assert.Equal(t, 2, summary.Passed)
	assert.Equal(t, 0, summary.Failed)
}

func TestAggregateEmptyHasNoAverage(t *testing.T) {
	summary, err := DefaultScorePolicy().Aggregate(nil)
	require.NoError(t, err)
	assert.Nil(t, summary.Average)
	assert.Equal(t, 0, summary.Count)
}

func TestAggregateCountsPassAndFail(t *testing.T) {
	summary, err := DefaultScorePolicy().Aggregate([]Artifact{
		{Score: 10, MaxScore: 20},
		{Score: 9.99, MaxScore: 20},
		{Score: 5, MaxScore: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Passed)
	assert.Equal(t, 1, summary.Failed)
	require.NotNil(t, summary.Average)
	assert.InDelta(t, 10.0, *summary.Average, 1e-9)
}

func TestWeightedMeanZeroWeightFallsBackToPlainMean(t *testing.T) {
	mean := WeightedMean([]WeightedComponent{{Value: 10, Weight: 0}, {Value: 14, Weight: 0}})
	require.NotNil(t, mean)
	assert.InDelta(t, 12.0, *mean, 1e-9)
	assert.Nil(t, WeightedMean(nil))
}

func TestLetterGrade(t *testing.T) {
	policy := DefaultScorePolicy()
	assert.Equal(t, "A", policy.LetterGrade(18))
	assert.Equal(t, "B", policy.LetterGrade(17.99))
	assert.Equal(t, "C", policy.LetterGrade(12))
	assert.Equal(t, "D", policy.LetterGrade(10))
	assert.Equal(t, "E", policy.LetterGrade(9.5))

	hundred := ScorePolicy{CanonicalScale: 100, PassingThreshold: 50}
	assert.Equal(t, "A", hundred.LetterGrade(95))
	assert.Equal(t, "D", hundred.LetterGrade(50))
}

func TestScorePolicyValidate(t *testing.T) {
	require.NoError(t, DefaultScorePolicy().Validate())
	assert.Error(t, ScorePolicy{CanonicalScale: 0}.Validate())
	assert.Error(t, ScorePolicy{CanonicalScale: 20, PassingThreshold: 25}.Validate())
}
