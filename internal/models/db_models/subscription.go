package db_models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type SubscriptionStatus string

const (
	SubStatusActive    SubscriptionStatus = "active"
	SubStatusPaused    SubscriptionStatus = "paused"
	SubStatusCancelled SubscriptionStatus = "cancelled"
	SubStatusExpired   SubscriptionStatus = "expired"
)

type BillingCycle string

const (
	CycleDaily   BillingCycle = "daily"
	CycleWeekly  BillingCycle = "weekly"
	CycleMonthly BillingCycle = "monthly"
	CycleYearly  BillingCycle = "yearly"
)

func ParseBillingCycle(raw string) (BillingCycle, bool) {
	c := BillingCycle(strings.ToLower(strings.TrimSpace(raw)))
	switch c {
	case CycleDaily, CycleWeekly, CycleMonthly, CycleYearly:
		return c, true
	}
	return "", false
}

// Offset is the fixed distance between two charges. Months and years are fixed
// day counts, not calendar arithmetic.
func (c BillingCycle) Offset() time.Duration {
	const day = 24 * time.Hour
	switch c {
	case CycleDaily:
		return day
	case CycleWeekly:
		return 7 * day
	case CycleMonthly:
		return 30 * day
	case CycleYearly:
		return 365 * day
	}
	return 0
}

// NextBillingDate is computed from the charge time, not from the previous due date.
func (c BillingCycle) NextBillingDate(chargedAt time.Time) time.Time {
	return chargedAt.Add(c.Offset())
}

// Subscription is a recurring billing agreement backed by a GMO member and saved card.
type Subscription struct {
	BaseModel
	MemberID     string             `gorm:"size:50;index"`
	CardID       string             `gorm:"size:50"`
	Amount       decimal.Decimal    `gorm:"type:numeric(10,2);not null"`
	Currency     string             `gorm:"size:3;not null;default:JPY"`
	Status       SubscriptionStatus `gorm:"size:20;not null;index"`
	BillingCycle BillingCycle       `gorm:"size:20;not null;index"`

	NextBillingDate *time.Time
	LastBillingDate *time.Time

	// Set while a charge is in flight; a charge only starts when it is NULL or past.
	ChargeLeaseUntil *time.Time `gorm:"index"`

	GatewayResponse datatypes.JSON `gorm:"type:jsonb"`
}

func (s *Subscription) CanCharge() bool {
	return s.Status == SubStatusActive
}
