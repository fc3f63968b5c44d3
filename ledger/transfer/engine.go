package transfer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pingcap-incubator/tinyledger/ledger/model"
	"github.com/pingcap-incubator/tinyledger/ledger/repository"
	"github.com/pingcap-incubator/tinyledger/ledger/storage"
	"github.com/pingcap-incubator/tinyledger/ledger/transfer/latches"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"github.com/shopspring/decimal"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

const (
	resultCompleted         = "completed"
	resultFailed            = "failed"
	resultSelfTransfer      = "self_transfer"
	resultInvalidAmount     = "invalid_amount"
	resultAccountNotFound   = "account_not_found"
	resultInsufficientFunds = "insufficient_funds"
	resultError             = "error"
)

// Engine moves money between accounts. Each transfer either applies completely, debiting the
// source, crediting the destination and completing the transaction in one atomic store write, or
// leaves balances untouched.
type Engine struct {
	store    storage.Storage
	accounts *repository.AccountRepository
	txns     *repository.TransactionRepository
	latches  *latches.Latches

	inFlight atomic.Int64
}

// NewEngine creates an engine over store. latchSlots is the number of slots account latches are
// spread over.
func NewEngine(store storage.Storage, latchSlots int) *Engine {
	accounts := repository.NewAccountRepository(store)
	return &Engine{
		store:    store,
		accounts: accounts,
		txns:     repository.NewTransactionRepository(store, accounts),
		latches:  latches.NewLatches(latchSlots),
	}
}

// InFlight returns the number of transfers currently executing.
func (e *Engine) InFlight() int64 {
	return e.inFlight.Load()
}

// CountRecords returns the number of stored accounts and transactions.
func (e *Engine) CountRecords() (accounts int, transactions int, err error) {
	if accounts, err = e.accounts.Count(); err != nil {
		return 0, 0, err
	}
	if transactions, err = e.txns.Count(); err != nil {
		return 0, 0, err
	}
	return accounts, transactions, nil
}

// CreateTransaction transfers amount from source to destination and returns the completed
// transaction.
//
// Rejected requests (same account, non-positive amount, unknown account, insufficient funds)
// return a typed error and leave no trace in the store. If the store fails after the pending
// transaction was recorded, the transaction is marked FAILED, balances are unchanged and a
// *FailedError is returned; errors.Cause yields the store error.
func (e *Engine) CreateTransaction(source, destination uuid.UUID, amount decimal.Decimal) (*model.Transaction, error) {
	start := time.Now()
	txn, err := e.createTransaction(source, destination, amount)
	transferCounter.WithLabelValues(resultLabel(err)).Inc()
	transferDuration.Observe(time.Since(start).Seconds())
	return txn, err
}

func (e *Engine) createTransaction(source, destination uuid.UUID, amount decimal.Decimal) (*model.Transaction, error) {
	if source == destination {
		return nil, &model.ErrSelfTransfer{AccountID: source}
	}
	if !amount.IsPositive() {
		return nil, &model.ErrInvalidAmount{Amount: amount}
	}
	// 0.001 is positive but rounds to nothing.
	quantized := model.Quantize(amount)
	if !quantized.IsPositive() {
		return nil, &model.ErrInvalidAmount{Amount: amount}
	}
	amount = quantized

	e.inFlight.Inc()
	transferInFlightGauge.Inc()
	defer func() {
		e.inFlight.Dec()
		transferInFlightGauge.Dec()
	}()

	keysToLatch := [][]byte{source[:], destination[:]}
	if wg := e.latches.AcquireLatches(keysToLatch); wg != nil {
		latchContendedCounter.Inc()
		e.latches.WaitForLatches(keysToLatch)
	}
	defer e.latches.ReleaseLatches(keysToLatch)

	src, dst, err := e.readPair(source, destination)
	if err != nil {
		return nil, err
	}
	if src.Balance.LessThan(amount) {
		return nil, &model.ErrInsufficientFunds{AccountID: source, Balance: src.Balance, Amount: amount}
	}

	txn := model.NewTransaction(source, destination, amount)
	if err := e.txns.Save(txn); err != nil {
		return nil, errors.Annotate(err, "record pending transaction")
	}

	completed, err := txn.Transition(model.StatusCompleted)
	if err != nil {
		return nil, err
	}
	if err := e.apply(src, dst, completed); err != nil {
		return nil, e.fail(txn, err)
	}

	log.Debug("transfer completed",
		zap.Stringer("txn", txn.ID),
		zap.Stringer("source", source),
		zap.Stringer("destination", destination),
		zap.String("amount", model.FormatMoney(amount)))
	return completed, nil
}

// readPair reads both accounts from one snapshot. Must be called with both latches held.
func (e *Engine) readPair(source, destination uuid.UUID) (*model.Account, *model.Account, error) {
	reader, err := e.store.Reader()
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	defer reader.Close()

	src, err := e.accounts.Read(reader, source)
	if err != nil {
		return nil, nil, err
	}
	dst, err := e.accounts.Read(reader, destination)
	if err != nil {
		return nil, nil, err
	}
	return src, dst, nil
}

// apply writes the debited source, the credited destination and the completed transaction as one
// batch.
func (e *Engine) apply(src, dst *model.Account, completed *model.Transaction) error {
	newSrc := src.Clone()
	newSrc.Balance = model.Quantize(src.Balance.Sub(completed.Amount))
	newDst := dst.Clone()
	newDst.Balance = model.Quantize(dst.Balance.Add(completed.Amount))

	batch := make([]storage.Modify, 0, 3)
	srcMod, err := e.accounts.Prepare(newSrc)
	if err != nil {
		return err
	}
	batch = append(batch, srcMod)
	dstMod, err := e.accounts.Prepare(newDst)
	if err != nil {
		return err
	}
	batch = append(batch, dstMod)
	txnMod, err := e.txns.Prepare(completed)
	if err != nil {
		return err
	}
	batch = append(batch, txnMod)
	return errors.Trace(e.store.Write(batch))
}

// failedWriteAttempts is how many times fail tries to record the FAILED status.
const failedWriteAttempts = 2

// fail marks txn FAILED after its batch did not apply.
func (e *Engine) fail(txn *model.Transaction, cause error) error {
	failed, err := txn.Transition(model.StatusFailed)
	if err != nil {
		log.Error("mark transaction failed", zap.Stringer("txn", txn.ID), zap.Error(err))
		return errors.Trace(err)
	}
	for i := 1; i <= failedWriteAttempts; i++ {
		if err = e.txns.Save(failed); err == nil {
			break
		}
		log.Warn("mark transaction failed",
			zap.Stringer("txn", txn.ID),
			zap.Int("attempt", i),
			zap.Error(err))
	}
	if err != nil {
		log.Error("transaction left pending until recovery", zap.Stringer("txn", txn.ID))
	}
	log.Warn("transfer failed",
		zap.Stringer("txn", txn.ID),
		zap.Stringer("source", txn.SourceAccountID),
		zap.Stringer("destination", txn.DestinationAccountID),
		zap.Error(cause))
	return &FailedError{TransactionID: txn.ID, Err: cause}
}

// FailedError is returned when a transfer was recorded but its balance changes could not be
// written. No balance changed. The transaction is FAILED, unless the store refused that write as
// well on every attempt; it then stays PENDING until Recover runs at the next start. Cause returns
// the store error of the balance write.
type FailedError struct {
	TransactionID uuid.UUID
	Err           error
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("transaction %s failed: %v", e.TransactionID, e.Err)
}

func (e *FailedError) Cause() error {
	return errors.Cause(e.Err)
}

func resultLabel(err error) string {
	if err == nil {
		return resultCompleted
	}
	if _, ok := err.(*FailedError); ok {
		return resultFailed
	}
	switch errors.Cause(err).(type) {
	case *model.ErrSelfTransfer:
		return resultSelfTransfer
	case *model.ErrInvalidAmount:
		return resultInvalidAmount
	case *model.ErrAccountNotFound:
		return resultAccountNotFound
	case *model.ErrInsufficientFunds:
		return resultInsufficientFunds
	}
	return resultError
}

// GetAccount returns the account with id, or ErrAccountNotFound.
func (e *Engine) GetAccount(id uuid.UUID) (*model.Account, error) {
	return e.accounts.GetByID(id)
}

// ListAccounts returns every account, oldest first.
func (e *Engine) ListAccounts() ([]*model.Account, error) {
	accounts, err := e.accounts.GetAll()
	if err != nil {
		return nil, err
	}
	sort.Slice(accounts, func(i, j int) bool {
		a, b := accounts[i], accounts[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
	return accounts, nil
}

// GetTransactionsForAccount returns every transaction the account took part in, oldest first.
func (e *Engine) GetTransactionsForAccount(id uuid.UUID) ([]*model.Transaction, error) {
	txns, err := e.txns.GetByAccount(id)
	if err != nil {
		return nil, err
	}
	sortTransactions(txns)
	return txns, nil
}

func sortTransactions(txns []*model.Transaction) {
	sort.Slice(txns, func(i, j int) bool {
		a, b := txns[i], txns[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.ID.String() < b.ID.String()
	})
}

// GetTransaction returns the transaction with id, or ErrTransactionNotFound.
func (e *Engine) GetTransaction(id uuid.UUID) (*model.Transaction, error) {
	return e.txns.GetByID(id)
}

// CreateAccount opens an account for owner with an initial balance, quantized to two places.
func (e *Engine) CreateAccount(owner string, balance decimal.Decimal) (*model.Account, error) {
	if len(strings.TrimSpace(owner)) == 0 {
		return nil, &model.ErrInvalidAccount{Reason: "owner name is empty"}
	}
	if balance.IsNegative() {
		return nil, &model.ErrInvalidAmount{Amount: balance}
	}
	account := model.NewAccount(owner, balance)
	if err := e.accounts.Save(account); err != nil {
		return nil, err
	}
	log.Info("account created",
		zap.Stringer("account", account.ID),
		zap.String("owner", account.OwnerName),
		zap.String("balance", model.FormatMoney(account.Balance)))
	return account, nil
}
