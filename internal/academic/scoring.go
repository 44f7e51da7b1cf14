package academic

import (
	"fmt"
	"math"
)

const (
	// DefaultCanonicalScale is the scale every score is normalised onto.
	DefaultCanonicalScale = 20.0
	// DefaultPassingThreshold is the minimum normalised score that passes.
	DefaultPassingThreshold = 10.0
)

// letterBands are expressed on the 20 point scale.
var letterBands = []struct {
	min    float64
	letter string
}{
	{18, "A"},
	{15, "B"},
	{12, "C"},
	{10, "D"},
}

// ScorePolicy holds the grading constants.
type ScorePolicy struct {
	CanonicalScale   float64
	PassingThreshold float64
}

// DefaultScorePolicy returns the 0-20 scale with a passing mark of 10.
func DefaultScorePolicy() ScorePolicy {
	return ScorePolicy{CanonicalScale: DefaultCanonicalScale, PassingThreshold: DefaultPassingThreshold}
}

// Validate checks the policy constants.
func (p ScorePolicy) Validate() error {
	if p.CanonicalScale <= 0 {
		return &ValidationError{Field: "canonical_scale", Message: "must be positive"}
	}
	if p.PassingThreshold < 0 || p.PassingThreshold > p.CanonicalScale {
		return &ValidationError{Field: "passing_threshold", Message: "must be within the canonical scale"}
	}
	return nil
}

// Artifact is one scored item. A nil weight counts as 1.
type Artifact struct {
	Score    float64
	MaxScore float64
	Weight   *float64
}

// WeightedComponent is a normalised value with its weight.
type WeightedComponent struct {
	Value  float64
	Weight float64
}

// ScoreSummary is the aggregate over a set of artifacts.
// Average stays nil when no artifact was supplied.
type ScoreSummary struct {
	Average *float64 `json:"average"`
	Count   int      `json:"count"`
	Passed  int      `json:"passed"`
	Failed  int      `json:"failed"`
}

// Normalize maps score out of maxScore onto the canonical scale.
func (p ScorePolicy) Normalize(score, maxScore float64) (float64, error) {
	if maxScore <= 0 {
		return 0, &ValidationError{Field: "max_score", Message: "must be positive"}
	}
	if score < 0 || score > maxScore {
		return 0, &ValidationError{Field: "score", Message: fmt.Sprintf("must be between 0 and %g", maxScore)}
	}
	return score / maxScore * p.CanonicalScale, nil
}

// Passed reports whether a normalised score reaches the passing threshold.
func (p ScorePolicy) Passed(normalized float64) bool {
	return normalized >= p.PassingThreshold
}

// LetterGrade maps a normalised score to A-E.
func (p ScorePolicy) LetterGrade(normalized float64) string {
	value := normalized
	if p.CanonicalScale != DefaultCanonicalScale && p.CanonicalScale > 0 {
		value = normalized / p.CanonicalScale * DefaultCanonicalScale
	}
	for _, band := range letterBands {
		if value >= band.min {
			return band.letter
		}
	}
	return "E"
}

// Aggregate normalises each artifact, counts passes and computes the weighted mean.
func (p ScorePolicy) Aggregate(artifacts []Artifact) (ScoreSummary, error) {
	summary := ScoreSummary{Count: len(artifacts)}
	if len(artifacts) == 0 {
		return summary, nil
	}
	components := make([]WeightedComponent, 0, len(artifacts))
	for _, artifact := range artifacts {
		normalized, err := p.Normalize(artifact.Score, artifact.MaxScore)
		if err != nil {
			return ScoreSummary{}, err
		}
		weight := 1.0
		if artifact.Weight != nil {
			if *artifact.Weight < 0 {
				return ScoreSummary{}, &ValidationError{Field: "weight", Message: "must not be negative"}
			}
			weight = *artifact.Weight
		}
		if p.Passed(normalized) {
			summary.Passed++
		} else {
			summary.Failed++
		}
		components = append(components, WeightedComponent{Value: normalized, Weight: weight})
	}
	summary.Average = WeightedMean(components)
	return summary, nil
}

// WeightedMean returns sum(v*w)/sum(w) rounded to two decimals.
// A zero total weight falls back to the plain mean and an empty input yields nil.
func WeightedMean(components []WeightedComponent) *float64 {
	if len(components) == 0 {
		return nil
	}
	var weighted, totalWeight, plain float64
	for _, c := range components {
		weighted += c.Value * c.Weight
		totalWeight += c.Weight
		plain += c.Value
	}
	var mean float64
	if totalWeight == 0 {
		mean = plain / float64(len(components))
	} else {
		mean = weighted / totalWeight
	}
	mean = Round2(mean)
	return &mean
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
