package db_models

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"walletpay/pkg/utils"
)

type TransactionStatus string

const (
	TxnStatusPending    TransactionStatus = "pending"
	TxnStatusProcessing TransactionStatus = "processing"
	TxnStatusCompleted  TransactionStatus = "completed"
	TxnStatusFailed     TransactionStatus = "failed"
	TxnStatusCancelled  TransactionStatus = "cancelled"
)

func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case TxnStatusCompleted, TxnStatusFailed, TxnStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo enforces pending -> processing -> {completed|failed|cancelled}.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	switch s {
	case TxnStatusPending:
		return next == TxnStatusProcessing || next.IsTerminal()
	case TxnStatusProcessing:
		return next.IsTerminal()
	}
	return false
}

// Transaction is a one-time Apple Pay payment attempt.
type Transaction struct {
	BaseModel
	Amount   decimal.Decimal   `gorm:"type:numeric(10,2);not null"`
	Currency string            `gorm:"size:3;not null;default:JPY"`
	Status   TransactionStatus `gorm:"size:20;not null;index"`

	// Session credentials issued by EntryTranBrandtoken.
	GatewayAccessID   string `gorm:"size:50"`
	GatewayAccessPass string `gorm:"size:50"`
	GatewayOrderID    string `gorm:"size:50;index"`

	ErrorCode    string `gorm:"size:64"`
	ErrorMessage string `gorm:"type:text"`

	// Set once a void of the gateway session has been tried.
	VoidAttempted bool `gorm:"not null;default:false"`

	// Last gateway response with credentials stripped.
	GatewayResponse datatypes.JSON `gorm:"type:jsonb"`
}

func (t *Transaction) transition(next TransactionStatus) error {
	if !t.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: transaction %s %s -> %s", utils.ErrInvalidStatusTransition, t.ID, t.Status, next)
	}
	t.Status = next
	return nil
}

// SetAccess records the session issued by a successful entry step.
func (t *Transaction) SetAccess(accessID, accessPass, orderID string) {
	t.GatewayAccessID = accessID
	t.GatewayAccessPass = accessPass
	t.GatewayOrderID = orderID
}

func (t *Transaction) Complete() error {
	if t.GatewayAccessID == "" || t.GatewayAccessPass == "" {
		return fmt.Errorf("%w: transaction %s has no gateway session", utils.ErrInvalidStatusTransition, t.ID)
	}
	return t.transition(TxnStatusCompleted)
}

func (t *Transaction) Fail(code, message string) error {
	if err := t.transition(TxnStatusFailed); err != nil {
		return err
	}
	t.ErrorCode, t.ErrorMessage = code, message
	return nil
}

// RollbackOutcome reports whether a void was tried and, when it was, whether
// it left the transaction cancelled.
func (t *Transaction) RollbackOutcome() (bool, *bool) {
	if !t.VoidAttempted {
		return false, nil
	}
	voided := t.Status == TxnStatusCancelled
	return true, &voided
}

func (t *Transaction) Cancel(code, message string) error {
	if err := t.transition(TxnStatusCancelled); err != nil {
		return err
	}
	t.ErrorCode, t.ErrorMessage = code, message
	return nil
}
