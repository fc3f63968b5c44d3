package engine_util

import (
	"github.com/Connor1996/badger"
)

func KeyWithCF(cf string, key []byte) []byte {
	return append([]byte(cf+"_"), key...)
}

func GetCFFromTxn(txn *badger.Txn, cf string, key []byte) (val []byte, err error) {
	item, err := txn.Get(KeyWithCF(cf, key))
	if err != nil {
		return nil, err
	}
	val, err = item.ValueCopy(val)
	return
}

// CountCF returns the number of keys stored in cf.
func CountCF(db *badger.DB, cf string) (int, error) {
	n := 0
	err := db.View(func(txn *badger.Txn) error {
		it := NewCFIterator(cf, txn)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}
