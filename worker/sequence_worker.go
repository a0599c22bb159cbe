package worker

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/mikesol/inboxpilot/config"
	"github.com/mikesol/inboxpilot/models"
	"github.com/mikesol/inboxpilot/utils"
)

// SequenceWorker is the periodic batch process behind the enrollment engine:
// each tick it asks the scheduler for due (enrollment, step) pairs and
// processes them one by one. Different enrollments are independent; the same
// enrollment is serialized by compare-and-set updates keyed on
// (status, last_step_sent), so two workers racing on one due enrollment
// produce exactly one send.
type SequenceWorker struct {
	DB     *gorm.DB
	Mailer utils.EmailSender
	Logger *log.Logger
	Retry  RetryPolicy
}

func NewSequenceWorker(db *gorm.DB, mailer utils.EmailSender, logger *log.Logger) *SequenceWorker {
	return &SequenceWorker{
		DB:     db,
		Mailer: mailer,
		Logger: logger,
		Retry:  DefaultRetryPolicy,
	}
}

func (sw *SequenceWorker) Start(ctx context.Context) {
	// Initial delay to let the server start up
	time.Sleep(5 * time.Second)

	interval := config.AppConfig.SendWorkerInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	sw.Logger.Println("Sequence worker started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sw.Logger.Println("Sequence worker shutting down...")
			return
		case <-ticker.C:
			sw.processDueEnrollments(time.Now().UTC())
		}
	}
}

func (sw *SequenceWorker) processDueEnrollments(now time.Time) {
	var due []models.SequenceEnrollment
	if err := sw.DB.
		Where("status = ? AND next_scheduled_at IS NOT NULL AND next_scheduled_at <= ?",
			models.EnrollmentStatusActive, now).
		Find(&due).Error; err != nil {
		sw.Logger.Printf("Error fetching due enrollments: %v", err)
		return
	}
	if len(due) == 0 {
		return
	}

	stepsBySequence, err := sw.loadSteps(due)
	if err != nil {
		sw.Logger.Printf("Error loading sequence steps: %v", err)
		return
	}

	// Enrollments whose remaining steps were all deleted have nothing left
	// to send; finalize them as completed.
	for _, e := range Stranded(due, stepsBySequence, now) {
		sw.finalize(e)
	}

	for _, pair := range DuePairs(due, stepsBySequence, now) {
		if err := sw.processDuePair(pair, stepsBySequence[pair.Enrollment.SequenceID], now); err != nil {
			sw.Logger.Printf("Error processing enrollment %d step %d: %v",
				pair.Enrollment.ID, pair.Step.StepOrder, err)
		}
	}
}

func (sw *SequenceWorker) loadSteps(enrollments []models.SequenceEnrollment) (map[uint][]models.SequenceStep, error) {
	seen := make(map[uint]struct{})
	var sequenceIDs []uint
	for _, e := range enrollments {
		if _, ok := seen[e.SequenceID]; !ok {
			seen[e.SequenceID] = struct{}{}
			sequenceIDs = append(sequenceIDs, e.SequenceID)
		}
	}

	var steps []models.SequenceStep
	if err := sw.DB.Where("sequence_id IN ?", sequenceIDs).Find(&steps).Error; err != nil {
		return nil, err
	}

	bySequence := make(map[uint][]models.SequenceStep)
	for _, s := range steps {
		bySequence[s.SequenceID] = append(bySequence[s.SequenceID], s)
	}
	return bySequence, nil
}

// processDuePair claims the enrollment, renders and sends the step, then
// advances the state machine. The claim happens before the send so that a
// racing worker observes a stale state and performs no duplicate send.
func (sw *SequenceWorker) processDuePair(pair DuePair, steps []models.SequenceStep, now time.Time) error {
	enrollment := pair.Enrollment
	step := pair.Step

	var contact models.Contact
	if err := sw.DB.First(&contact, enrollment.ContactID).Error; err != nil {
		return err
	}

	// A contact that bounced or unsubscribed after enrolling must not be
	// advanced; stop the enrollment instead of sending.
	if contact.Status != models.ContactStatusActive {
		sw.stopForContact(enrollment, contact)
		return nil
	}

	if !sw.claim(enrollment, now) {
		// Another worker got here first, or the enrollment was stopped.
		return nil
	}

	email := models.OutboundEmail{
		WorkspaceID:  contact.WorkspaceID,
		ContactID:    contact.ID,
		SequenceID:   &step.SequenceID,
		StepID:       &step.ID,
		EnrollmentID: &enrollment.ID,
		Subject:      utils.RenderTemplate(step.SubjectTemplate, &contact),
		Body:         utils.RenderTemplate(step.BodyTemplate, &contact),
		Status:       models.EmailStatusQueued,
	}
	if err := sw.DB.Create(&email).Error; err != nil {
		// Nothing was sent; restore the schedule so the next tick retries.
		sw.reschedule(enrollment, now)
		return err
	}

	sendErr := sw.Mailer.Send(contact.Email, email.Subject, email.Body)
	if sendErr != nil {
		sw.recordFailure(enrollment, step, contact, email, sendErr, now)
		return nil
	}

	return sw.advance(enrollment, step, steps, contact, email, now)
}

// claimLease bounds how long a claimed enrollment stays off the due set if
// the worker dies between claim and send; once it elapses a later tick picks
// the enrollment up again.
const claimLease = 5 * time.Minute

// claim takes ownership of the due enrollment by pushing its schedule past
// now with a compare-and-set on the current progress. At most one worker
// wins; a crashed worker's claim expires with the lease.
func (sw *SequenceWorker) claim(enrollment models.SequenceEnrollment, now time.Time) bool {
	res := sw.DB.Model(&models.SequenceEnrollment{}).
		Where("id = ? AND status = ? AND next_scheduled_at IS NOT NULL AND next_scheduled_at <= ? AND COALESCE(last_step_sent, 0) = ?",
			enrollment.ID, models.EnrollmentStatusActive, now, lastSent(enrollment)).
		Update("next_scheduled_at", now.Add(claimLease))
	if res.Error != nil {
		sw.Logger.Printf("Error claiming enrollment %d: %v", enrollment.ID, res.Error)
		return false
	}
	return res.RowsAffected == 1
}

// advance commits the post-send transition: active -> active with the next
// step scheduled, or active -> completed after the final step. Guarded by
// status so a stop that landed while the send was in flight is not undone.
func (sw *SequenceWorker) advance(enrollment models.SequenceEnrollment, step models.SequenceStep, steps []models.SequenceStep, contact models.Contact, email models.OutboundEmail, now time.Time) error {
	if err := sw.DB.Model(&email).Updates(map[string]interface{}{
		"status":  models.EmailStatusSent,
		"sent_at": now,
	}).Error; err != nil {
		return err
	}

	updates := map[string]interface{}{
		"last_step_sent": step.StepOrder,
		"last_sent_at":   now,
	}
	next := NextStep(steps, &step.StepOrder)
	if next != nil {
		updates["next_scheduled_at"] = now.Add(next.Delay())
	} else {
		updates["status"] = models.EnrollmentStatusCompleted
		updates["next_scheduled_at"] = nil
	}

	res := sw.DB.Model(&models.SequenceEnrollment{}).
		Where("id = ? AND status = ? AND COALESCE(last_step_sent, 0) = ?",
			enrollment.ID, models.EnrollmentStatusActive, lastSent(enrollment)).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Stopped while the send was in flight; the stop wins.
		sw.Logger.Printf("Enrollment %d was stopped mid-send; not advancing", enrollment.ID)
	}

	utils.RecordActivity(sw.DB, contact.WorkspaceID, nil, models.ActivityEmailSent, map[string]interface{}{
		"email_id":      email.ID,
		"contact_id":    contact.ID,
		"contact_email": contact.Email,
		"subject":       email.Subject,
		"sequence_id":   step.SequenceID,
		"step_order":    step.StepOrder,
	})
	return nil
}

// recordFailure marks the email failed and consults the retry policy. The
// enrollment's progress is untouched: last_step_sent stays where it was and
// only the schedule moves. Attempts are counted per enrollment, so a contact
// re-enrolled after an exhausted run starts with a fresh budget. Exhaustion
// stops the enrollment; an active row must not linger with nothing scheduled.
func (sw *SequenceWorker) recordFailure(enrollment models.SequenceEnrollment, step models.SequenceStep, contact models.Contact, email models.OutboundEmail, sendErr error, now time.Time) {
	if err := sw.DB.Model(&email).Updates(map[string]interface{}{
		"status":        models.EmailStatusFailed,
		"error_message": sendErr.Error(),
	}).Error; err != nil {
		sw.Logger.Printf("Error recording failed email %d: %v", email.ID, err)
	}

	utils.RecordActivity(sw.DB, contact.WorkspaceID, nil, models.ActivityEmailFailed, map[string]interface{}{
		"email_id":      email.ID,
		"contact_id":    contact.ID,
		"contact_email": contact.Email,
		"subject":       email.Subject,
		"sequence_id":   step.SequenceID,
		"step_order":    step.StepOrder,
	})

	var attempts int64
	if err := sw.DB.Model(&models.OutboundEmail{}).
		Where("enrollment_id = ? AND step_id = ? AND status = ?", enrollment.ID, step.ID, models.EmailStatusFailed).
		Count(&attempts).Error; err != nil {
		sw.Logger.Printf("Error counting failed attempts for enrollment %d: %v", enrollment.ID, err)
		attempts = 1
	}

	delay, ok := sw.Retry.NextRetry(int(attempts))
	if !ok {
		res := sw.DB.Model(&models.SequenceEnrollment{}).
			Where("id = ? AND status = ?", enrollment.ID, models.EnrollmentStatusActive).
			Updates(map[string]interface{}{
				"status":            models.EnrollmentStatusStopped,
				"next_scheduled_at": nil,
			})
		if res.Error != nil {
			sw.Logger.Printf("Error stopping exhausted enrollment %d: %v", enrollment.ID, res.Error)
		}
		utils.LogEvent("enrollment_stopped_retries_exhausted", map[string]interface{}{
			"enrollment_id": enrollment.ID,
			"contact_id":    contact.ID,
			"step_order":    step.StepOrder,
			"attempts":      attempts,
		})
		return
	}

	res := sw.DB.Model(&models.SequenceEnrollment{}).
		Where("id = ? AND status = ?", enrollment.ID, models.EnrollmentStatusActive).
		Update("next_scheduled_at", now.Add(delay))
	if res.Error != nil {
		sw.Logger.Printf("Error rescheduling enrollment %d: %v", enrollment.ID, res.Error)
	}
}

// reschedule restores the claimed schedule after a local error that happened
// before any send attempt.
func (sw *SequenceWorker) reschedule(enrollment models.SequenceEnrollment, now time.Time) {
	res := sw.DB.Model(&models.SequenceEnrollment{}).
		Where("id = ? AND status = ?", enrollment.ID, models.EnrollmentStatusActive).
		Update("next_scheduled_at", now)
	if res.Error != nil {
		sw.Logger.Printf("Error rescheduling enrollment %d: %v", enrollment.ID, res.Error)
	}
}

// finalize completes an enrollment with no steps left to send.
func (sw *SequenceWorker) finalize(enrollment models.SequenceEnrollment) {
	res := sw.DB.Model(&models.SequenceEnrollment{}).
		Where("id = ? AND status = ?", enrollment.ID, models.EnrollmentStatusActive).
		Updates(map[string]interface{}{
			"status":            models.EnrollmentStatusCompleted,
			"next_scheduled_at": nil,
		})
	if res.Error != nil {
		sw.Logger.Printf("Error finalizing enrollment %d: %v", enrollment.ID, res.Error)
	}
}

// stopForContact stops an enrollment whose contact is no longer reachable.
func (sw *SequenceWorker) stopForContact(enrollment models.SequenceEnrollment, contact models.Contact) {
	res := sw.DB.Model(&models.SequenceEnrollment{}).
		Where("id = ? AND status = ?", enrollment.ID, models.EnrollmentStatusActive).
		Updates(map[string]interface{}{
			"status":            models.EnrollmentStatusStopped,
			"next_scheduled_at": nil,
		})
	if res.Error != nil {
		sw.Logger.Printf("Error stopping enrollment %d: %v", enrollment.ID, res.Error)
		return
	}
	utils.LogEvent("enrollment_stopped_contact_inactive", map[string]interface{}{
		"enrollment_id":  enrollment.ID,
		"contact_id":     contact.ID,
		"contact_status": contact.Status,
	})
}

func lastSent(e models.SequenceEnrollment) int {
	if e.LastStepSent == nil {
		return 0
	}
	return *e.LastStepSent
}
