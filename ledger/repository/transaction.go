package repository

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pingcap-incubator/tinyledger/ledger/model"
	"github.com/pingcap-incubator/tinyledger/ledger/storage"
	"github.com/pingcap-incubator/tinyledger/ledger/util/engine_util"
	"github.com/pingcap/errors"
)

// TransactionRepository stores transactions in the txn kind of the ledger store, keyed by id.
type TransactionRepository struct {
	store    storage.Storage
	accounts *AccountRepository
}

func NewTransactionRepository(store storage.Storage, accounts *AccountRepository) *TransactionRepository {
	return &TransactionRepository{store: store, accounts: accounts}
}

func transactionKey(id uuid.UUID) []byte {
	return []byte(id.String())
}

// Prepare encodes txn as a store modification. Malformed records are rejected.
func (r *TransactionRepository) Prepare(txn *model.Transaction) (storage.Modify, error) {
	if err := txn.Validate(); err != nil {
		return storage.Modify{}, err
	}
	val, err := json.Marshal(txn)
	if err != nil {
		return storage.Modify{}, errors.Trace(err)
	}
	return storage.Modify{Data: storage.Put{Key: transactionKey(txn.ID), Value: val, Cf: engine_util.CfTxn}}, nil
}

// Save inserts or replaces txn, status included.
func (r *TransactionRepository) Save(txn *model.Transaction) error {
	m, err := r.Prepare(txn)
	if err != nil {
		return err
	}
	return errors.Trace(r.store.Write([]storage.Modify{m}))
}

// GetByID returns the transaction with id, or ErrTransactionNotFound.
func (r *TransactionRepository) GetByID(id uuid.UUID) (*model.Transaction, error) {
	val, err := storage.Get(r.store, engine_util.CfTxn, transactionKey(id))
	if err != nil {
		return nil, errors.Trace(err)
	}
	if val == nil {
		return nil, &model.ErrTransactionNotFound{TransactionID: id}
	}
	return model.DecodeTransaction(val)
}

// Count returns the number of stored transactions, whatever their status.
func (r *TransactionRepository) Count() (int, error) {
	return storage.Count(r.store, engine_util.CfTxn)
}

// GetByAccount returns every transaction where account is the source or the destination. The
// account must exist.
func (r *TransactionRepository) GetByAccount(account uuid.UUID) ([]*model.Transaction, error) {
	if _, err := r.accounts.GetByID(account); err != nil {
		return nil, err
	}
	return r.scan(func(txn *model.Transaction) bool {
		return txn.Involves(account)
	})
}

// GetByStatus returns every transaction in state status.
func (r *TransactionRepository) GetByStatus(status model.Status) ([]*model.Transaction, error) {
	return r.scan(func(txn *model.Transaction) bool {
		return txn.Status == status
	})
}

func (r *TransactionRepository) scan(pred func(*model.Transaction) bool) ([]*model.Transaction, error) {
	var decodeErr error
	var result []*model.Transaction
	_, err := storage.Scan(r.store, engine_util.CfTxn, func(key, value []byte) bool {
		if decodeErr != nil {
			return false
		}
		txn, err := model.DecodeTransaction(value)
		if err != nil {
			decodeErr = errors.Annotatef(err, "transaction %s", key)
			return false
		}
		if pred(txn) {
			result = append(result, txn)
		}
		return false
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return result, nil
}
