package repository

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pingcap-incubator/tinyledger/ledger/model"
	"github.com/pingcap-incubator/tinyledger/ledger/storage"
	"github.com/pingcap-incubator/tinyledger/ledger/util/engine_util"
	"github.com/pingcap/errors"
)

// AccountRepository stores accounts in the account kind of the ledger store, keyed by id.
type AccountRepository struct {
	store storage.Storage
}

func NewAccountRepository(store storage.Storage) *AccountRepository {
	return &AccountRepository{store: store}
}

func accountKey(id uuid.UUID) []byte {
	return []byte(id.String())
}

// GetByID returns the account with id, or ErrAccountNotFound.
func (r *AccountRepository) GetByID(id uuid.UUID) (*model.Account, error) {
	reader, err := r.store.Reader()
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer reader.Close()
	return r.Read(reader, id)
}

// Read is GetByID against an open reader.
func (r *AccountRepository) Read(reader storage.StorageReader, id uuid.UUID) (*model.Account, error) {
	val, err := reader.GetCF(engine_util.CfAccount, accountKey(id))
	if err != nil {
		return nil, errors.Trace(err)
	}
	if val == nil {
		return nil, &model.ErrAccountNotFound{AccountID: id}
	}
	return model.DecodeAccount(val)
}

// GetAll returns every account in store order.
func (r *AccountRepository) GetAll() ([]*model.Account, error) {
	values, err := storage.Scan(r.store, engine_util.CfAccount, nil)
	if err != nil {
		return nil, errors.Trace(err)
	}
	accounts := make([]*model.Account, 0, len(values))
	for _, val := range values {
		a, err := model.DecodeAccount(val)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

// Count returns the number of stored accounts.
func (r *AccountRepository) Count() (int, error) {
	return storage.Count(r.store, engine_util.CfAccount)
}

// Prepare validates account and encodes it as a store modification, ready to be written in a
// batch with other records.
func (r *AccountRepository) Prepare(account *model.Account) (storage.Modify, error) {
	if err := account.Validate(); err != nil {
		return storage.Modify{}, err
	}
	val, err := json.Marshal(account)
	if err != nil {
		return storage.Modify{}, errors.Trace(err)
	}
	return storage.Modify{Data: storage.Put{Key: accountKey(account.ID), Value: val, Cf: engine_util.CfAccount}}, nil
}

// Save inserts or replaces account. Invalid accounts are rejected with ErrInvalidAccount.
func (r *AccountRepository) Save(account *model.Account) error {
	m, err := r.Prepare(account)
	if err != nil {
		return err
	}
	return errors.Trace(r.store.Write([]storage.Modify{m}))
}
