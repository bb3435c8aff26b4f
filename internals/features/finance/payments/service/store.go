package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	planService "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/installment_plans/service"
	model "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/payments/model"
	regService "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/registrations/service"
)

/* =========================================================
   Payment Record Store (GORM) + reconciler Stores impl
========================================================= */

// GormStores is the Postgres-backed implementation of the reconciler's
// Stores. The zero-value locking flag means plain reads; inside InTx every
// lookup takes a FOR UPDATE row lock.
type GormStores struct {
	DB      *gorm.DB
	locking bool
}

func NewGormStores(db *gorm.DB) *GormStores {
	return &GormStores{DB: db}
}

var _ Stores = (*GormStores)(nil)

// CreatePending appends a new pending record. The unique index on the
// gateway reference is the duplicate guard.
func (s *GormStores) CreatePending(ctx context.Context, p *model.Payment) error {
	p.PaymentStatus = model.PaymentStatusPending
	if err := s.DB.WithContext(ctx).Create(p).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateReference
		}
		return err
	}
	return nil
}

func (s *GormStores) PaymentByReference(ctx context.Context, reference string) (*model.Payment, error) {
	q := s.DB.WithContext(ctx)
	if s.locking {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var p model.Payment
	if err := q.First(&p, "payment_reference = ?", reference).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownReference
		}
		return nil, err
	}
	return &p, nil
}

func (s *GormStores) PaymentByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var p model.Payment
	if err := s.DB.WithContext(ctx).First(&p, "payment_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownReference
		}
		return nil, err
	}
	return &p, nil
}

func (s *GormStores) SavePayment(ctx context.Context, p *model.Payment) error {
	p.PaymentUpdatedAt = time.Now()
	return s.DB.WithContext(ctx).Save(p).Error
}

func (s *GormStores) InTx(ctx context.Context, fn func(Stores) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStores{DB: tx, locking: true})
	})
}

/* ================= cross-feature side effects ================= */

func (s *GormStores) MarkApplicationFeePaid(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	_, completed, err := planService.MarkApplicationFeePaid(ctx, s.DB, userID, courseID, time.Now())
	return completed, err
}

func (s *GormStores) ApplyInstallmentPayment(ctx context.Context, userID, courseID uuid.UUID, amountIDR int) (bool, error) {
	_, completed, err := planService.ApplyInstallmentPayment(ctx, s.DB, userID, courseID, amountIDR, time.Now())
	return completed, err
}

func (s *GormStores) OnPaymentCompleted(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	return regService.OnPaymentCompleted(ctx, s.DB, userID, courseID, time.Now())
}

/* ================= admin list (read-only) ================= */

// ListFilter narrows the admin ledger view. Zero values mean "no filter".
type ListFilter struct {
	UserID   *uuid.UUID
	CourseID *uuid.UUID
	Statuses []string
	Types    []string
	From     *time.Time
	To       *time.Time
	Search   string // matches reference / gateway ref / description
	Order    string
	Limit    int
	Offset   int
}

// ListForAdmin is read-only; it never mutates records.
func (s *GormStores) ListForAdmin(ctx context.Context, f ListFilter) ([]model.Payment, int64, error) {
	db := s.DB.WithContext(ctx).Model(&model.Payment{})

	if f.UserID != nil {
		db = db.Where("payment_user_id = ?", *f.UserID)
	}
	if f.CourseID != nil {
		db = db.Where("payment_course_id = ?", *f.CourseID)
	}
	if len(f.Statuses) > 0 {
		db = db.Where("payment_status IN (?)", f.Statuses)
	}
	if len(f.Types) > 0 {
		db = db.Where("payment_type IN (?)", f.Types)
	}
	if f.From != nil {
		db = db.Where("payment_created_at >= ?", *f.From)
	}
	if f.To != nil {
		db = db.Where("payment_created_at < ?", *f.To)
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		ilike := "%" + q + "%"
		db = db.Where(`
			payment_reference ILIKE ? OR
			COALESCE(payment_gateway_reference,'') ILIKE ? OR
			COALESCE(payment_description,'') ILIKE ?
		`, ilike, ilike, ilike)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := f.Order
	if order == "" {
		order = "payment_created_at DESC"
	}

	var rows []model.Payment
	if err := db.Order(order).Limit(f.Limit).Offset(f.Offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

/* ================= utils ================= */

func isUniqueViolation(err error) bool {
	lc := strings.ToLower(err.Error())
	return strings.Contains(lc, "duplicate key") || strings.Contains(lc, "23505")
}
