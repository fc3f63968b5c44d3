package engine_util

import (
	"os"

	"github.com/Connor1996/badger"
	"github.com/pingcap-incubator/tinyledger/ledger/config"
	"github.com/pingcap/errors"
)

// CreateDB opens (creating if needed) the badger DB described by conf.
func CreateDB(conf *config.Engine) (*badger.DB, error) {
	opts := badger.DefaultOptions
	opts.Dir = conf.DBPath
	opts.ValueDir = opts.Dir
	opts.NumCompactors = conf.NumCompactors
	opts.ValueThreshold = conf.ValueThreshold
	opts.ValueLogFileSize = int64(conf.VlogFileSize)
	opts.MaxTableSize = int64(conf.MaxTableSize)
	opts.NumMemtables = conf.NumMemTables
	opts.NumLevelZeroTables = conf.NumL0Tables
	opts.NumLevelZeroTablesStall = conf.NumL0TablesStall
	opts.SyncWrites = conf.SyncWrite
	if err := os.MkdirAll(opts.Dir, os.ModePerm); err != nil {
		return nil, errors.WithStack(err)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Annotatef(err, "open badger at %s", opts.Dir)
	}
	return db, nil
}
