package model

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pingcap/errors"
	"github.com/shopspring/decimal"
)

type ErrAccountNotFound struct {
	AccountID uuid.UUID
}

func (e *ErrAccountNotFound) Error() string {
	return fmt.Sprintf("account %s not found", e.AccountID)
}

type ErrInsufficientFunds struct {
	AccountID uuid.UUID
	Balance   decimal.Decimal
	Amount    decimal.Decimal
}

func (e *ErrInsufficientFunds) Error() string {
	return fmt.Sprintf("insufficient funds in account %s: balance %s, amount %s",
		e.AccountID, FormatMoney(e.Balance), FormatMoney(e.Amount))
}

type ErrSelfTransfer struct {
	AccountID uuid.UUID
}

func (e *ErrSelfTransfer) Error() string {
	return fmt.Sprintf("source and destination account are the same: %s", e.AccountID)
}

type ErrInvalidAmount struct {
	Amount decimal.Decimal
}

func (e *ErrInvalidAmount) Error() string {
	return fmt.Sprintf("invalid amount %s, must be positive", e.Amount)
}

// ErrInvalidAccount is returned when an account record would break a ledger invariant.
type ErrInvalidAccount struct {
	Reason string
}

func (e *ErrInvalidAccount) Error() string {
	return fmt.Sprintf("invalid account: %s", e.Reason)
}

type ErrTransactionNotFound struct {
	TransactionID uuid.UUID
}

func (e *ErrTransactionNotFound) Error() string {
	return fmt.Sprintf("transaction %s not found", e.TransactionID)
}

// ErrInvalidTransition is returned when a transaction would leave a terminal state or move to a
// state it cannot reach.
type ErrInvalidTransition struct {
	TransactionID uuid.UUID
	From          Status
	To            Status
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("transaction %s cannot move from %s to %s", e.TransactionID, e.From, e.To)
}

// IsBusinessError reports whether err was caused by a ledger rule rather than by the
// infrastructure.
func IsBusinessError(err error) bool {
	switch errors.Cause(err).(type) {
	case *ErrAccountNotFound, *ErrInsufficientFunds, *ErrSelfTransfer, *ErrInvalidAmount,
		*ErrInvalidAccount, *ErrTransactionNotFound:
		return true
	}
	return false
}

// IsNotFound reports whether err was caused by a missing account or transaction.
func IsNotFound(err error) bool {
	switch errors.Cause(err).(type) {
	case *ErrAccountNotFound, *ErrTransactionNotFound:
		return true
	}
	return false
}
