package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeightedProgress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		assignments []TaskAssignment
		want        float64
	}{
		{
			name: "effort weighted mean",
			assignments: []TaskAssignment{
				{EstimateHours: 10, Progress: 50},
				{EstimateHours: 30, Progress: 10},
			},
			want: 20.00,
		},
		{
			name:        "no assignments",
			assignments: nil,
			want:        0,
		},
		{
			name: "all estimates zero",
			assignments: []TaskAssignment{
				{EstimateHours: 0, Progress: 80},
				{EstimateHours: 0, Progress: 40},
			},
			want: 0,
		},
		{
			name: "rounded to two decimals",
			assignments: []TaskAssignment{
				{EstimateHours: 1, Progress: 100},
				{EstimateHours: 2, Progress: 0},
			},
			want: 33.33,
		},
		{
			name: "single assignment",
			assignments: []TaskAssignment{
				{EstimateHours: 7.5, Progress: 64},
			},
			want: 64,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, WeightedProgress(tc.assignments), 1e-9)
		})
	}
}

func TestWeightedProgress_Idempotent(t *testing.T) {
	t.Parallel()

	assignments := []TaskAssignment{
		{EstimateHours: 12, Progress: 33},
		{EstimateHours: 5, Progress: 91},
	}
	first := WeightedProgress(assignments)
	second := WeightedProgress(assignments)
	assert.Equal(t, first, second)
}
