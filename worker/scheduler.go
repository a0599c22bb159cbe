package worker

import (
	"sort"
	"time"

	"github.com/mikesol/inboxpilot/models"
)

// DuePair is one unit of work for the send worker: an enrollment whose
// schedule has elapsed, paired with the step that should go out next.
type DuePair struct {
	Enrollment models.SequenceEnrollment
	Step       models.SequenceStep
}

// NextStep returns the step with the smallest order strictly greater than
// lastSent, or nil when no later step exists. lastSent nil means nothing has
// been sent yet. Step orders are sparse (deleted orders are never reused),
// so this is an ordering scan, not an index lookup.
func NextStep(steps []models.SequenceStep, lastSent *int) *models.SequenceStep {
	floor := 0
	if lastSent != nil {
		floor = *lastSent
	}

	var next *models.SequenceStep
	for i := range steps {
		if steps[i].StepOrder <= floor {
			continue
		}
		if next == nil || steps[i].StepOrder < next.StepOrder {
			next = &steps[i]
		}
	}
	return next
}

// DuePairs selects the active enrollments due at now and pairs each with its
// next step. Pure: no side effects, deterministic for fixed inputs. Ordering
// is ascending next_scheduled_at, then ascending enrollment id. Enrollments
// without a next step (all later steps deleted) are excluded; the worker
// finalizes those separately.
func DuePairs(enrollments []models.SequenceEnrollment, stepsBySequence map[uint][]models.SequenceStep, now time.Time) []DuePair {
	var pairs []DuePair
	for _, e := range enrollments {
		if e.Status != models.EnrollmentStatusActive || e.NextScheduledAt == nil {
			continue
		}
		if e.NextScheduledAt.After(now) {
			continue
		}
		step := NextStep(stepsBySequence[e.SequenceID], e.LastStepSent)
		if step == nil {
			continue
		}
		pairs = append(pairs, DuePair{Enrollment: e, Step: *step})
	}

	sort.Slice(pairs, func(i, j int) bool {
		a, b := pairs[i].Enrollment, pairs[j].Enrollment
		if !a.NextScheduledAt.Equal(*b.NextScheduledAt) {
			return a.NextScheduledAt.Before(*b.NextScheduledAt)
		}
		return a.ID < b.ID
	})

	return pairs
}

// Stranded returns the due enrollments that have no next step left to send.
// Happens when the trailing steps of a sequence are deleted while
// enrollments sit between them.
func Stranded(enrollments []models.SequenceEnrollment, stepsBySequence map[uint][]models.SequenceStep, now time.Time) []models.SequenceEnrollment {
	var out []models.SequenceEnrollment
	for _, e := range enrollments {
		if e.Status != models.EnrollmentStatusActive || e.NextScheduledAt == nil {
			continue
		}
		if e.NextScheduledAt.After(now) {
			continue
		}
		if NextStep(stepsBySequence[e.SequenceID], e.LastStepSent) == nil {
			out = append(out, e)
		}
	}
	return out
}
