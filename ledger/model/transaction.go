package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pingcap/errors"
	"github.com/shopspring/decimal"
)

// Status is the state of a transaction. A transaction starts PENDING and moves exactly once to
// COMPLETED or FAILED.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether a transaction in state s may move to next.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusPending && next.IsTerminal()
}

// Transaction records the movement of Amount from SourceAccountID to DestinationAccountID.
type Transaction struct {
	ID                   uuid.UUID
	SourceAccountID      uuid.UUID
	DestinationAccountID uuid.UUID
	Amount               decimal.Decimal
	Status               Status
	Timestamp            time.Time
}

// NewTransaction builds a PENDING transaction with a fresh id. The amount is quantized.
func NewTransaction(source, destination uuid.UUID, amount decimal.Decimal) *Transaction {
	return &Transaction{
		ID:                   uuid.New(),
		SourceAccountID:      source,
		DestinationAccountID: destination,
		Amount:               Quantize(amount),
		Status:               StatusPending,
		Timestamp:            time.Now().UTC(),
	}
}

// Involves reports whether the account is the source or the destination of t.
func (t *Transaction) Involves(account uuid.UUID) bool {
	return t.SourceAccountID == account || t.DestinationAccountID == account
}

// Validate checks that t is a well formed record.
func (t *Transaction) Validate() error {
	if t.ID == uuid.Nil {
		return errors.New("transaction id is empty")
	}
	if t.SourceAccountID == t.DestinationAccountID {
		return &ErrSelfTransfer{AccountID: t.SourceAccountID}
	}
	if !t.Amount.IsPositive() || !HasMoneyPlaces(t.Amount) {
		return &ErrInvalidAmount{Amount: t.Amount}
	}
	if !t.Status.Valid() {
		return errors.Errorf("transaction %s has unknown status %q", t.ID, t.Status)
	}
	return nil
}

// Transition returns a copy of t moved to next. Only PENDING may move, and only to a terminal
// state; anything else is an *ErrInvalidTransition and t is left as is.
func (t *Transaction) Transition(next Status) (*Transaction, error) {
	if !t.Status.CanTransitionTo(next) {
		return nil, &ErrInvalidTransition{TransactionID: t.ID, From: t.Status, To: next}
	}
	return t.WithStatus(next), nil
}

// WithStatus returns a copy of t in state status. It does not check the transition.
func (t *Transaction) WithStatus(status Status) *Transaction {
	c := *t
	c.Status = status
	return &c
}

type transactionRecord struct {
	ID                   uuid.UUID `json:"id"`
	SourceAccountID      uuid.UUID `json:"source_account_id"`
	DestinationAccountID uuid.UUID `json:"destination_account_id"`
	Amount               string    `json:"amount"`
	Status               Status    `json:"status"`
	Timestamp            time.Time `json:"timestamp"`
}

func (t *Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(&transactionRecord{
		ID:                   t.ID,
		SourceAccountID:      t.SourceAccountID,
		DestinationAccountID: t.DestinationAccountID,
		Amount:               FormatMoney(t.Amount),
		Status:               t.Status,
		Timestamp:            t.Timestamp,
	})
}

func (t *Transaction) UnmarshalJSON(data []byte) error {
	var r transactionRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return errors.Trace(err)
	}
	amount, err := ParseMoney(r.Amount)
	if err != nil {
		return err
	}
	t.ID = r.ID
	t.SourceAccountID = r.SourceAccountID
	t.DestinationAccountID = r.DestinationAccountID
	t.Amount = amount
	t.Status = r.Status
	t.Timestamp = r.Timestamp
	return nil
}

// DecodeTransaction decodes a stored transaction record.
func DecodeTransaction(data []byte) (*Transaction, error) {
	t := new(Transaction)
	if err := json.Unmarshal(data, t); err != nil {
		return nil, errors.Annotate(err, "decode transaction")
	}
	return t, nil
}
