package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pingcap/errors"
	"github.com/shopspring/decimal"
)

// Account is a holder of funds. Its balance changes only through a completed transaction.
type Account struct {
	ID        uuid.UUID
	OwnerName string
	Balance   decimal.Decimal
	CreatedAt time.Time
}

// NewAccount builds an account with a fresh id. The balance is quantized; the result is not
// validated.
func NewAccount(owner string, balance decimal.Decimal) *Account {
	return &Account{
		ID:        uuid.New(),
		OwnerName: strings.TrimSpace(owner),
		Balance:   Quantize(balance),
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks the account against the ledger invariants: an owner, and a non-negative
// balance with at most two fractional digits.
func (a *Account) Validate() error {
	if a.ID == uuid.Nil {
		return &ErrInvalidAccount{Reason: "id is empty"}
	}
	if len(strings.TrimSpace(a.OwnerName)) == 0 {
		return &ErrInvalidAccount{Reason: "owner name is empty"}
	}
	if a.Balance.IsNegative() {
		return &ErrInvalidAccount{Reason: "balance " + FormatMoney(a.Balance) + " is negative"}
	}
	if !HasMoneyPlaces(a.Balance) {
		return &ErrInvalidAccount{Reason: "balance " + a.Balance.String() + " has more than two decimal places"}
	}
	return nil
}

// Clone returns a copy that can be changed without touching a.
func (a *Account) Clone() *Account {
	c := *a
	return &c
}

type accountRecord struct {
	ID        uuid.UUID `json:"id"`
	OwnerName string    `json:"owner_name"`
	Balance   string    `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

// MarshalJSON encodes the account with its balance as a fixed two-decimal string. The same form
// is used in the store and on the wire.
func (a *Account) MarshalJSON() ([]byte, error) {
	return json.Marshal(&accountRecord{
		ID:        a.ID,
		OwnerName: a.OwnerName,
		Balance:   FormatMoney(a.Balance),
		CreatedAt: a.CreatedAt,
	})
}

func (a *Account) UnmarshalJSON(data []byte) error {
	var r accountRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return errors.Trace(err)
	}
	balance, err := ParseMoney(r.Balance)
	if err != nil {
		return err
	}
	a.ID = r.ID
	a.OwnerName = r.OwnerName
	a.Balance = balance
	a.CreatedAt = r.CreatedAt
	return nil
}

// DecodeAccount decodes a stored account record.
func DecodeAccount(data []byte) (*Account, error) {
	a := new(Account)
	if err := json.Unmarshal(data, a); err != nil {
		return nil, errors.Annotate(err, "decode account")
	}
	return a, nil
}
