package transfer

import (
	"github.com/pingcap-incubator/tinyledger/ledger/model"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Recover resolves transactions left PENDING by a crash between recording the transaction and
// applying its batch. The batch is atomic, so none of them changed a balance; they are all marked
// FAILED. Recover must run before the engine serves transfers. It returns the number of
// transactions resolved.
func (e *Engine) Recover() (int, error) {
	pending, err := e.txns.GetByStatus(model.StatusPending)
	if err != nil {
		return 0, errors.Annotate(err, "scan pending transactions")
	}
	sortTransactions(pending)
	for i, txn := range pending {
		failed, err := txn.Transition(model.StatusFailed)
		if err != nil {
			return i, err
		}
		if err := e.txns.Save(failed); err != nil {
			return i, errors.Annotatef(err, "mark transaction %s failed", txn.ID)
		}
		recoveredCounter.Inc()
		log.Info("pending transaction marked failed",
			zap.Stringer("txn", txn.ID),
			zap.Stringer("source", txn.SourceAccountID),
			zap.Stringer("destination", txn.DestinationAccountID),
			zap.String("amount", model.FormatMoney(txn.Amount)))
	}
	return len(pending), nil
}

type demoAccount struct {
	owner   string
	balance string
}

var demoAccounts = []demoAccount{
	{"Martin Vargas", "1000.00"},
	{"Kevin Rosero", "500.50"},
}

// SeedDemoAccounts creates the demo accounts when the store has no account yet. It returns the
// accounts created, none if the store was not empty.
func (e *Engine) SeedDemoAccounts() ([]*model.Account, error) {
	n, err := e.accounts.Count()
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, nil
	}
	created := make([]*model.Account, 0, len(demoAccounts))
	for _, demo := range demoAccounts {
		account, err := e.CreateAccount(demo.owner, decimal.RequireFromString(demo.balance))
		if err != nil {
			return created, err
		}
		created = append(created, account)
	}
	return created, nil
}
