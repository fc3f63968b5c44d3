package storage

import (
	"github.com/pingcap-incubator/tinyledger/ledger/util/engine_util"
)

// Storage represents the persistence layer of the ledger. Accounts and transactions are stored as
// values under their id, one column family per record kind.
//
// Write must apply a batch atomically: after it returns, a reader sees all of the batch or, if it
// failed, none of it. Storage does not order concurrent writers; callers that read-modify-write
// must serialize themselves (see transfer/latches).
type Storage interface {
	Start() error
	Stop() error
	Write(batch []Modify) error
	Reader() (StorageReader, error)
}

// StorageReader is a consistent view of the store. GetCF returns (nil, nil) for a missing key.
type StorageReader interface {
	GetCF(cf string, key []byte) ([]byte, error)
	IterCF(cf string) engine_util.DBIterator
	Close()
}

// Counter is implemented by stores that can count the records of a kind without reading their
// values.
type Counter interface {
	Count(cf string) (int, error)
}
