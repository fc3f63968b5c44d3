package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/pingcap-incubator/tinyledger/ledger/model"
	"github.com/pingcap-incubator/tinyledger/ledger/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepos() (*AccountRepository, *TransactionRepository) {
	store := storage.NewMemStorage()
	accounts := NewAccountRepository(store)
	return accounts, NewTransactionRepository(store, accounts)
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAccountSaveGet(t *testing.T) {
	accounts, _ := newTestRepos()

	a := model.NewAccount("Martin Vargas", money("1000.00"))
	require.Nil(t, accounts.Save(a))

	got, err := accounts.GetByID(a.ID)
	require.Nil(t, err)
	assert.Equal(t, a.OwnerName, got.OwnerName)
	assert.Equal(t, "1000.00", model.FormatMoney(got.Balance))

	got.Balance = money("999.99")
	require.Nil(t, accounts.Save(got))
	got, err = accounts.GetByID(a.ID)
	require.Nil(t, err)
	assert.Equal(t, "999.99", model.FormatMoney(got.Balance))

	n, err := accounts.Count()
	require.Nil(t, err)
	assert.Equal(t, 1, n)
}

func TestAccountNotFound(t *testing.T) {
	accounts, _ := newTestRepos()
	id := uuid.New()
	_, err := accounts.GetByID(id)
	require.IsType(t, &model.ErrAccountNotFound{}, err)
	assert.Equal(t, id, err.(*model.ErrAccountNotFound).AccountID)
}

func TestAccountSaveRejectsInvalid(t *testing.T) {
	accounts, _ := newTestRepos()

	negative := model.NewAccount("A", money("1"))
	negative.Balance = money("-1")
	assert.IsType(t, &model.ErrInvalidAccount{}, accounts.Save(negative))

	precise := model.NewAccount("B", money("1"))
	precise.Balance = money("1.005")
	assert.IsType(t, &model.ErrInvalidAccount{}, accounts.Save(precise))

	nameless := model.NewAccount("", money("1"))
	assert.IsType(t, &model.ErrInvalidAccount{}, accounts.Save(nameless))

	all, err := accounts.GetAll()
	require.Nil(t, err)
	assert.Len(t, all, 0)
}

func TestGetAll(t *testing.T) {
	accounts, _ := newTestRepos()
	ids := map[uuid.UUID]bool{}
	for i := 0; i < 5; i++ {
		a := model.NewAccount("owner", money("10"))
		require.Nil(t, accounts.Save(a))
		ids[a.ID] = true
	}
	all, err := accounts.GetAll()
	require.Nil(t, err)
	require.Len(t, all, 5)
	for _, a := range all {
		assert.True(t, ids[a.ID])
	}
}

func TestTransactionSaveGet(t *testing.T) {
	accounts, txns := newTestRepos()
	a := model.NewAccount("A", money("10"))
	b := model.NewAccount("B", money("10"))
	require.Nil(t, accounts.Save(a))
	require.Nil(t, accounts.Save(b))

	txn := model.NewTransaction(a.ID, b.ID, money("5"))
	require.Nil(t, txns.Save(txn))
	got, err := txns.GetByID(txn.ID)
	require.Nil(t, err)
	assert.Equal(t, model.StatusPending, got.Status)

	require.Nil(t, txns.Save(txn.WithStatus(model.StatusCompleted)))
	got, err = txns.GetByID(txn.ID)
	require.Nil(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
	n, err := txns.Count()
	require.Nil(t, err)
	assert.Equal(t, 1, n)

	_, err = txns.GetByID(uuid.New())
	assert.IsType(t, &model.ErrTransactionNotFound{}, err)

	bad := model.NewTransaction(a.ID, a.ID, money("5"))
	assert.NotNil(t, txns.Save(bad))
}

func TestGetByAccount(t *testing.T) {
	accounts, txns := newTestRepos()
	a := model.NewAccount("A", money("10"))
	b := model.NewAccount("B", money("10"))
	c := model.NewAccount("C", money("10"))
	for _, acc := range []*model.Account{a, b, c} {
		require.Nil(t, accounts.Save(acc))
	}
	ab := model.NewTransaction(a.ID, b.ID, money("1"))
	ca := model.NewTransaction(c.ID, a.ID, money("2"))
	bc := model.NewTransaction(b.ID, c.ID, money("3"))
	for _, txn := range []*model.Transaction{ab, ca, bc} {
		require.Nil(t, txns.Save(txn))
	}

	list, err := txns.GetByAccount(a.ID)
	require.Nil(t, err)
	got := map[uuid.UUID]bool{}
	for _, txn := range list {
		got[txn.ID] = true
	}
	assert.Equal(t, map[uuid.UUID]bool{ab.ID: true, ca.ID: true}, got)

	_, err = txns.GetByAccount(uuid.New())
	assert.IsType(t, &model.ErrAccountNotFound{}, err)
}

func TestGetByStatus(t *testing.T) {
	accounts, txns := newTestRepos()
	a := model.NewAccount("A", money("10"))
	b := model.NewAccount("B", money("10"))
	require.Nil(t, accounts.Save(a))
	require.Nil(t, accounts.Save(b))

	pending := model.NewTransaction(a.ID, b.ID, money("1"))
	done := model.NewTransaction(a.ID, b.ID, money("2")).WithStatus(model.StatusCompleted)
	require.Nil(t, txns.Save(pending))
	require.Nil(t, txns.Save(done))

	list, err := txns.GetByStatus(model.StatusPending)
	require.Nil(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, pending.ID, list[0].ID)

	list, err = txns.GetByStatus(model.StatusFailed)
	require.Nil(t, err)
	assert.Len(t, list, 0)
}
