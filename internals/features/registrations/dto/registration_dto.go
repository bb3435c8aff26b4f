package dto

import (
	"time"

	"github.com/google/uuid"

	model "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/registrations/model"
)

/* ===================== Requests ===================== */

type UpdateRegistrationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
	Note   string `json:"note" validate:"omitempty,max=500"`
}

type BulkUpdateRegistrationStatusRequest struct {
	RegistrationIDs []uuid.UUID `json:"registration_ids" validate:"required,min=1,max=100,dive,required"`
	Status          string      `json:"status" validate:"required,oneof=approved rejected"`
	Note            string      `json:"note" validate:"omitempty,max=500"`
}

/* ===================== Responses ===================== */

type RegistrationResponse struct {
	RegistrationID uuid.UUID `json:"registration_id"`
	UserID         uuid.UUID `json:"user_id"`
	CourseID       uuid.UUID `json:"course_id"`
	Status         string    `json:"status"`
	Notes          []string  `json:"notes,omitempty"`

	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func ToRegistrationResponse(r *model.Registration) RegistrationResponse {
	return RegistrationResponse{
		RegistrationID: r.RegistrationID,
		UserID:         r.RegistrationUserID,
		CourseID:       r.RegistrationCourseID,
		Status:         string(r.RegistrationStatus),
		Notes:          r.RegistrationNotes,
		ApprovedAt:     r.RegistrationApprovedAt,
		CompletedAt:    r.RegistrationCompletedAt,
		CreatedAt:      r.RegistrationCreatedAt,
		UpdatedAt:      r.RegistrationUpdatedAt,
	}
}

func ToRegistrationResponses(regs []model.Registration) []RegistrationResponse {
	out := make([]RegistrationResponse, 0, len(regs))
	for i := range regs {
		out = append(out, ToRegistrationResponse(&regs[i]))
	}
	return out
}
