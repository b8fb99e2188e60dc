package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"walletpay/internal/models/db_models"
)

type SubscriptionFilter struct {
	Status       string
	Currency     string
	BillingCycle string
	Page         int
	PageSize     int
}

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *db_models.Subscription) error
	FindByID(ctx context.Context, id uuid.UUID) (*db_models.Subscription, error)
	Update(ctx context.Context, sub *db_models.Subscription) error

	// AcquireChargeLease marks an active subscription as being charged until
	// `until`. It reports false when the row is not active or another lease
	// is still running.
	AcquireChargeLease(ctx context.Context, id uuid.UUID, now, until time.Time) (bool, error)
	// CompleteCharge advances the billing dates and drops the lease.
	CompleteCharge(ctx context.Context, id uuid.UUID, last, next time.Time, snapshot datatypes.JSON) error
	ReleaseChargeLease(ctx context.Context, id uuid.UUID) error

	List(ctx context.Context, filter SubscriptionFilter) ([]db_models.Subscription, int64, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *db_models.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *subscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*db_models.Subscription, error) {
	var sub db_models.Subscription
	err := r.db.WithContext(ctx).First(&sub, "id = ?", id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &sub, nil
}

func (r *subscriptionRepository) Update(ctx context.Context, sub *db_models.Subscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

func (r *subscriptionRepository) AcquireChargeLease(ctx context.Context, id uuid.UUID, now, until time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db_models.Subscription{}).
		Where("id = ? AND status = ?", id, db_models.SubStatusActive).
		Where("charge_lease_until IS NULL OR charge_lease_until < ?", now).
		Updates(map[string]interface{}{
			"charge_lease_until": until,
			"updated_at":         now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *subscriptionRepository) CompleteCharge(ctx context.Context, id uuid.UUID, last, next time.Time, snapshot datatypes.JSON) error {
	updates := map[string]interface{}{
		"last_billing_date":  last,
		"next_billing_date":  next,
		"charge_lease_until": nil,
		"updated_at":         last,
	}
	if len(snapshot) > 0 {
		updates["gateway_response"] = snapshot
	}
	return r.db.WithContext(ctx).
		Model(&db_models.Subscription{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *subscriptionRepository) ReleaseChargeLease(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&db_models.Subscription{}).
		Where("id = ?", id).
		Update("charge_lease_until", nil).Error
}

func (r *subscriptionRepository) List(ctx context.Context, filter SubscriptionFilter) ([]db_models.Subscription, int64, error) {
	filtered := func(db *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		if filter.Currency != "" {
			db = db.Where("currency = ?", filter.Currency)
		}
		if filter.BillingCycle != "" {
			db = db.Where("billing_cycle = ?", filter.BillingCycle)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&db_models.Subscription{}).Scopes(filtered).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var subs []db_models.Subscription
	offset := (filter.Page - 1) * filter.PageSize
	err := r.db.WithContext(ctx).
		Scopes(filtered).
		Order("created_at DESC").
		Offset(offset).
		Limit(filter.PageSize).
		Find(&subs).Error
	if err != nil {
		return nil, 0, err
	}

	return subs, total, nil
}
