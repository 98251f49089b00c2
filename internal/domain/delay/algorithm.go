package delay

import (
	"math"
	"time"

	"github.com/phrazzld/latewatch/internal/domain"
)

// Reason explains why an assignment was judged late.
type Reason string

// Possible lateness reasons.
const (
	ReasonNone    Reason = "none"
	ReasonOverdue Reason = "overdue"
	ReasonLagging Reason = "lagging"
)

// Evaluation is the outcome of classifying a single assignment.
type Evaluation struct {
	Status domain.AssignmentStatus
	Late   bool
	Reason Reason

	// ExpectedProgress is only meaningful for assignments that have started
	// and are not yet overdue.
	ExpectedProgress float64
}

// Evaluate classifies a at instant now.
//
// Rules, in order:
//   - progress >= completion threshold: COMPLETED, never late
//   - end date before now: BEHIND_SCHEDULE, late (overdue), whatever the progress
//   - start date at or before now: expected progress grows linearly with
//     elapsed hours over the estimate, capped at 100; trailing it by more than
//     the lag tolerance is BEHIND_SCHEDULE (lagging), otherwise IN_PROGRESS
//   - start date after now: PENDING
func Evaluate(a domain.TaskAssignment, now time.Time, params Params) Evaluation {
	if a.Progress >= params.CompletionThreshold {
		return Evaluation{Status: domain.StatusCompleted, Reason: ReasonNone}
	}

	if a.EndDate.Before(now) {
		return Evaluation{Status: domain.StatusBehindSchedule, Late: true, Reason: ReasonOverdue}
	}

	if !a.StartDate.After(now) {
		expected := ExpectedProgress(now.Sub(a.StartDate), a.EstimateHours)
		if a.Progress < expected-params.LagTolerance {
			return Evaluation{
				Status:           domain.StatusBehindSchedule,
				Late:             true,
				Reason:           ReasonLagging,
				ExpectedProgress: expected,
			}
		}
		return Evaluation{
			Status:           domain.StatusInProgress,
			Reason:           ReasonNone,
			ExpectedProgress: expected,
		}
	}

	return Evaluation{Status: domain.StatusPending, Reason: ReasonNone}
}

// ExpectedProgress returns the percentage of work that should be done after
// elapsed time given an effort estimate in hours, capped at 100.
// A non-positive estimate means any elapsed time exhausts the estimate.
func ExpectedProgress(elapsed time.Duration, estimateHours float64) float64 {
	hours := elapsed.Hours()
	if hours <= 0 {
		return 0
	}
	if estimateHours <= 0 {
		return 100
	}
	return math.Min(hours/estimateHours*100, 100)
}
