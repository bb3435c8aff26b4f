package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

/* ===================== Enums (string) ===================== */

type RegistrationStatus string

const (
	RegistrationStatusPending   RegistrationStatus = "pending"
	RegistrationStatusApproved  RegistrationStatus = "approved"
	RegistrationStatusRejected  RegistrationStatus = "rejected"
	RegistrationStatusCompleted RegistrationStatus = "completed"
)

func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationStatusPending, RegistrationStatusApproved,
		RegistrationStatusRejected, RegistrationStatusCompleted:
		return true
	default:
		return false
	}
}

var ErrInvalidTransition = errors.New("registration: invalid status transition")

/* ===================== Model ===================== */

type Registration struct {
	RegistrationID uuid.UUID `gorm:"column:registration_id;type:uuid;default:gen_random_uuid();primaryKey" json:"registration_id"`

	RegistrationUserID   uuid.UUID `gorm:"column:registration_user_id;type:uuid;not null;uniqueIndex:uq_registrations_user_course" json:"registration_user_id"`
	RegistrationCourseID uuid.UUID `gorm:"column:registration_course_id;type:uuid;not null;uniqueIndex:uq_registrations_user_course" json:"registration_course_id"`

	RegistrationStatus RegistrationStatus `gorm:"column:registration_status;type:registration_status;not null;default:'pending'" json:"registration_status"`

	// Admin note history, newest last.
	RegistrationNotes pq.StringArray `gorm:"column:registration_notes;type:text[]" json:"registration_notes,omitempty"`

	RegistrationApprovedAt  *time.Time `gorm:"column:registration_approved_at" json:"registration_approved_at,omitempty"`
	RegistrationCompletedAt *time.Time `gorm:"column:registration_completed_at" json:"registration_completed_at,omitempty"`

	RegistrationCreatedAt time.Time      `gorm:"column:registration_created_at;autoCreateTime" json:"registration_created_at"`
	RegistrationUpdatedAt time.Time      `gorm:"column:registration_updated_at;autoUpdateTime" json:"registration_updated_at"`
	RegistrationDeletedAt gorm.DeletedAt `gorm:"column:registration_deleted_at;index" json:"registration_deleted_at,omitempty"`
}

func (Registration) TableName() string { return "registrations" }

/* ===================== State machine ===================== */

// adminTransitions: the only moves an admin may make. Payment completion is
// the single other path (approved → completed) and goes through
// CompleteOnPayment, never through here.
var adminTransitions = map[RegistrationStatus][]RegistrationStatus{
	RegistrationStatusPending:  {RegistrationStatusApproved, RegistrationStatusRejected},
	RegistrationStatusApproved: {RegistrationStatusRejected},
}

// AdminTransition applies an explicit admin status change.
func (r *Registration) AdminTransition(to RegistrationStatus, now time.Time) error {
	for _, allowed := range adminTransitions[r.RegistrationStatus] {
		if to == allowed {
			r.RegistrationStatus = to
			if to == RegistrationStatusApproved {
				r.RegistrationApprovedAt = &now
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, r.RegistrationStatus, to)
}

// CompleteOnPayment moves an approved registration to completed once the
// payment obligation is fully settled. Pending and rejected registrations are
// left alone: paying does not bypass admin approval.
func (r *Registration) CompleteOnPayment(now time.Time) bool {
	if r.RegistrationStatus != RegistrationStatusApproved {
		return false
	}
	r.RegistrationStatus = RegistrationStatusCompleted
	r.RegistrationCompletedAt = &now
	return true
}

// AppendNote records an admin note on the registration.
func (r *Registration) AppendNote(note string) {
	if note == "" {
		return
	}
	r.RegistrationNotes = append(r.RegistrationNotes, note)
}
