package tracking

import (
	"time"

	"bus_tracker/internal/geo"
	"bus_tracker/internal/models"
)

const (
	ReasonFirstReport     = "first_report"
	ReasonIntervalElapsed = "interval_elapsed"
	ReasonMoved           = "moved"
	ReasonThrottled       = "throttled"
	ReasonSuperseded      = "superseded"
)

// ThrottlePolicy decides whether a GPS ping is significant enough to persist and broadcast.
// MinInterval also bounds staleness: once it elapses the next report is always accepted.
type ThrottlePolicy struct {
	MinInterval       time.Duration
	MinMovementMeters float64
}

// ThrottleDecision is the outcome of ThrottlePolicy.Evaluate.
type ThrottleDecision struct {
	Accept     bool
	Reason     string
	Distance   float64
	Elapsed    time.Duration
	RetryAfter time.Duration
}

// Evaluate accepts the report when there is no previous fix, when MinInterval has passed
// since the previous fix, or when the bus moved at least MinMovementMeters.
func (p ThrottlePolicy) Evaluate(prev models.Optional[models.Fix], lat, lng float64, now time.Time) ThrottleDecision {
	last, ok := prev.Get()
	if !ok {
		return ThrottleDecision{Accept: true, Reason: ReasonFirstReport}
	}

	elapsed := now.Sub(last.RecordedAt)
	distance := geo.DistanceMeters(last.Latitude, last.Longitude, lat, lng)

	if elapsed >= p.MinInterval {
		return ThrottleDecision{Accept: true, Reason: ReasonIntervalElapsed, Distance: distance, Elapsed: elapsed}
	}
	if distance >= p.MinMovementMeters {
		return ThrottleDecision{Accept: true, Reason: ReasonMoved, Distance: distance, Elapsed: elapsed}
	}

	retry := p.MinInterval - elapsed
	if retry < 0 {
		retry = 0
	}
	return ThrottleDecision{
		Accept:     false,
		Reason:     ReasonThrottled,
		Distance:   distance,
		Elapsed:    elapsed,
		RetryAfter: retry,
	}
}
