package domain

import "math"

// Task owns a denormalized progress value derived from its assignments.
type Task struct {
	ID        int64   `json:"id"`
	Name      string  `json:"task_name"`
	ProjectID int64   `json:"project_id"`
	Progress  float64 `json:"progress"`
}

// WeightedProgress computes the effort-weighted mean of the assignments'
// progress, rounded to two decimal places:
//
//	Σ(progress × estimate) / Σ(estimate)
//
// It returns 0 when there are no assignments or when the estimates sum to
// zero or less. The result depends only on its input, so recomputing with
// unchanged assignments yields the same value.
func WeightedProgress(assignments []TaskAssignment) float64 {
	var totalEstimate, weighted float64
	for _, a := range assignments {
		totalEstimate += a.EstimateHours
		weighted += a.Progress * a.EstimateHours
	}
	if totalEstimate <= 0 {
		return 0
	}
	return roundTo2(weighted / totalEstimate)
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
