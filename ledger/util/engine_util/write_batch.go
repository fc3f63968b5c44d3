package engine_util

import (
	"github.com/Connor1996/badger"
	"github.com/pingcap/errors"
)

// WriteBatch collects puts and deletes across column families and commits them together.
type WriteBatch struct {
	entries []*badger.Entry
	size    int
}

const (
	CfAccount string = "account"
	CfTxn     string = "txn"
)

func (wb *WriteBatch) Len() int {
	return len(wb.entries)
}

// Size is the total number of key and value bytes in the batch.
func (wb *WriteBatch) Size() int {
	return wb.size
}

func (wb *WriteBatch) SetCF(cf string, key, val []byte) {
	wb.entries = append(wb.entries, &badger.Entry{
		Key:   KeyWithCF(cf, key),
		Value: val,
	})
	wb.size += len(key) + len(val)
}

func (wb *WriteBatch) DeleteCF(cf string, key []byte) {
	wb.entries = append(wb.entries, &badger.Entry{
		Key: KeyWithCF(cf, key),
	})
	wb.size += len(key)
}

// WriteToDB commits all entries in a single badger transaction. An entry with an empty value is a
// delete.
func (wb *WriteBatch) WriteToDB(db *badger.DB) error {
	if len(wb.entries) > 0 {
		err := db.Update(func(txn *badger.Txn) error {
			for _, entry := range wb.entries {
				var err1 error
				if len(entry.Value) == 0 {
					err1 = txn.Delete(entry.Key)
				} else {
					err1 = txn.SetEntry(entry)
				}
				if err1 != nil {
					return err1
				}
			}
			return nil
		})
		if err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}
