package worker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikesol/inboxpilot/models"
	"github.com/mikesol/inboxpilot/utils"
)

func step(id uint, sequenceID uint, order, delayDays int) models.SequenceStep {
	s := models.SequenceStep{
		SequenceID: sequenceID,
		StepOrder:  order,
		DelayDays:  delayDays,
	}
	s.ID = id
	return s
}

func enrollment(id, sequenceID uint, lastSent *int, next *time.Time) models.SequenceEnrollment {
	e := models.SequenceEnrollment{
		SequenceID:      sequenceID,
		Status:          models.EnrollmentStatusActive,
		LastStepSent:    lastSent,
		NextScheduledAt: next,
	}
	e.ID = id
	return e
}

func TestNextStep(t *testing.T) {
	steps := []models.SequenceStep{
		step(3, 1, 5, 2),
		step(1, 1, 1, 0),
		step(2, 1, 3, 1),
	}

	t.Run("nothing sent yet picks smallest order", func(t *testing.T) {
		next := NextStep(steps, nil)
		require.NotNil(t, next)
		assert.Equal(t, 1, next.StepOrder)
	})

	t.Run("skips gaps in sparse orders", func(t *testing.T) {
		next := NextStep(steps, utils.Pointer(1))
		require.NotNil(t, next)
		assert.Equal(t, 3, next.StepOrder)
	})

	t.Run("after final step there is no next", func(t *testing.T) {
		assert.Nil(t, NextStep(steps, utils.Pointer(5)))
	})

	t.Run("empty catalog has no next", func(t *testing.T) {
		assert.Nil(t, NextStep(nil, nil))
	})
}

func TestDuePairsSelection(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	steps := map[uint][]models.SequenceStep{
		1: {step(1, 1, 1, 0), step(2, 1, 2, 3)},
	}

	enrollments := []models.SequenceEnrollment{
		enrollment(10, 1, nil, &past),
		enrollment(11, 1, nil, &future),
		enrollment(12, 1, nil, nil),
	}
	stopped := enrollment(13, 1, nil, &past)
	stopped.Status = models.EnrollmentStatusStopped
	enrollments = append(enrollments, stopped)

	pairs := DuePairs(enrollments, steps, now)
	require.Len(t, pairs, 1)
	assert.Equal(t, uint(10), pairs[0].Enrollment.ID)
	assert.Equal(t, 1, pairs[0].Step.StepOrder)
}

func TestDuePairsOrdering(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	earlier := now.Add(-2 * time.Hour)
	later := now.Add(-time.Hour)

	steps := map[uint][]models.SequenceStep{
		1: {step(1, 1, 1, 0)},
	}

	// Same due time for 21 and 20; ids break the tie
	enrollments := []models.SequenceEnrollment{
		enrollment(21, 1, nil, &later),
		enrollment(30, 1, nil, &earlier),
		enrollment(20, 1, nil, &later),
	}

	pairs := DuePairs(enrollments, steps, now)
	require.Len(t, pairs, 3)
	assert.Equal(t, uint(30), pairs[0].Enrollment.ID)
	assert.Equal(t, uint(20), pairs[1].Enrollment.ID)
	assert.Equal(t, uint(21), pairs[2].Enrollment.ID)

	// Repeated calls over the same inputs yield the same order
	again := DuePairs(enrollments, steps, now)
	require.Len(t, again, 3)
	for i := range pairs {
		assert.Equal(t, pairs[i].Enrollment.ID, again[i].Enrollment.ID)
	}
}

func TestStranded(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)

	// Step 2 was deleted; an enrollment past step 1 has nothing left
	steps := map[uint][]models.SequenceStep{
		1: {step(1, 1, 1, 0)},
	}

	done := enrollment(40, 1, utils.Pointer(1), &past)
	fresh := enrollment(41, 1, nil, &past)

	stranded := Stranded([]models.SequenceEnrollment{done, fresh}, steps, now)
	require.Len(t, stranded, 1)
	assert.Equal(t, uint(40), stranded[0].ID)

	pairs := DuePairs([]models.SequenceEnrollment{done, fresh}, steps, now)
	require.Len(t, pairs, 1)
	assert.Equal(t, uint(41), pairs[0].Enrollment.ID)
}

func TestFixedBackoff(t *testing.T) {
	policy := FixedBackoff{Delay: time.Hour, MaxAttempts: 3}

	delay, ok := policy.NextRetry(1)
	assert.True(t, ok)
	assert.Equal(t, time.Hour, delay)

	_, ok = policy.NextRetry(3)
	assert.False(t, ok)
}
