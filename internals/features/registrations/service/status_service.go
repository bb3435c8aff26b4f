package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	model "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/registrations/model"
)

/* =========================================================
   Registration Status Coordinator
========================================================= */

var ErrRegistrationNotFound = errors.New("registration not found")

// AdminSetStatus applies one admin-driven status change, with an optional
// note appended to the history. Row-locked so concurrent admin tabs cannot
// interleave a pending → approved with a pending → rejected.
func AdminSetStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, to model.RegistrationStatus, note string, now time.Time) (*model.Registration, error) {
	var reg model.Registration
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&reg, "registration_id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRegistrationNotFound
			}
			return err
		}
		if err := reg.AdminTransition(to, now); err != nil {
			return err
		}
		reg.AppendNote(note)
		return tx.Save(&reg).Error
	})
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// BulkItemResult reports the outcome for one registration in a bulk update.
type BulkItemResult struct {
	RegistrationID uuid.UUID `json:"registration_id"`
	OK             bool      `json:"ok"`
	Status         string    `json:"status,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// BulkSetStatus applies the same transition to many registrations. Each row
// gets its own transaction: one invalid transition must not abort the rest of
// the batch.
func BulkSetStatus(ctx context.Context, db *gorm.DB, ids []uuid.UUID, to model.RegistrationStatus, note string, now time.Time) []BulkItemResult {
	results := make([]BulkItemResult, 0, len(ids))
	for _, id := range ids {
		reg, err := AdminSetStatus(ctx, db, id, to, note, now)
		if err != nil {
			results = append(results, BulkItemResult{RegistrationID: id, OK: false, Error: err.Error()})
			continue
		}
		results = append(results, BulkItemResult{
			RegistrationID: id,
			OK:             true,
			Status:         string(reg.RegistrationStatus),
		})
	}
	return results
}

// OnPaymentCompleted is the reconciler hook: once the payment obligation for
// a (student, course) is fully settled, an approved registration moves to
// completed. Any other status is a silent no-op — payment never bypasses
// admin approval. Callers are expected to already hold a transaction.
func OnPaymentCompleted(ctx context.Context, db *gorm.DB, userID, courseID uuid.UUID, now time.Time) (bool, error) {
	var reg model.Registration
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&reg, "registration_user_id = ? AND registration_course_id = ?", userID, courseID).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// settlement without a registration row is legal (e.g. walk-in
			// enrollment recorded elsewhere); nothing to complete
			return false, nil
		}
		return false, err
	}

	if !reg.CompleteOnPayment(now) {
		return false, nil
	}
	if err := db.WithContext(ctx).Save(&reg).Error; err != nil {
		return false, err
	}
	return true, nil
}

/* ================= queries ================= */

func RegistrationByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*model.Registration, error) {
	var reg model.Registration
	if err := db.WithContext(ctx).First(&reg, "registration_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	return &reg, nil
}

func RegistrationsForUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]model.Registration, error) {
	var regs []model.Registration
	err := db.WithContext(ctx).
		Where("registration_user_id = ?", userID).
		Order("registration_created_at DESC").
		Find(&regs).Error
	return regs, err
}

type RegistrationListFilter struct {
	Statuses []string
	CourseID *uuid.UUID
	Order    string
	Limit    int
	Offset   int
}

func ListRegistrations(ctx context.Context, db *gorm.DB, f RegistrationListFilter) ([]model.Registration, int64, error) {
	q := db.WithContext(ctx).Model(&model.Registration{})

	if len(f.Statuses) > 0 {
		q = q.Where("registration_status IN (?)", f.Statuses)
	}
	if f.CourseID != nil {
		q = q.Where("registration_course_id = ?", *f.CourseID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := f.Order
	if order == "" {
		order = "registration_created_at DESC"
	}

	var regs []model.Registration
	if err := q.Order(order).Limit(f.Limit).Offset(f.Offset).Find(&regs).Error; err != nil {
		return nil, 0, err
	}
	return regs, total, nil
}
