package standalone_storage

import (
	"sync"

	"github.com/Connor1996/badger"
	"github.com/pingcap-incubator/tinyledger/ledger/config"
	"github.com/pingcap-incubator/tinyledger/ledger/storage"
	"github.com/pingcap-incubator/tinyledger/ledger/util/engine_util"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// StandAloneStorage is an implementation of `Storage` for a single ledger node. All data is stored
// locally in one badger instance.
type StandAloneStorage struct {
	conf config.Engine

	mu sync.RWMutex
	db *badger.DB
}

func NewStandAloneStorage(conf *config.Config) *StandAloneStorage {
	return &StandAloneStorage{conf: conf.Engine}
}

func (s *StandAloneStorage) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return nil
	}
	db, err := engine_util.CreateDB(&s.conf)
	if err != nil {
		return err
	}
	s.db = db
	log.Info("ledger store opened", zap.String("path", s.conf.DBPath))
	return nil
}

func (s *StandAloneStorage) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return errors.Trace(err)
}

func (s *StandAloneStorage) engine() (*badger.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, errors.New("standalone storage is not started")
	}
	return s.db, nil
}

func (s *StandAloneStorage) Reader() (storage.StorageReader, error) {
	db, err := s.engine()
	if err != nil {
		return nil, err
	}
	return &badgerReader{txn: db.NewTransaction(false)}, nil
}

// Write commits batch in one badger transaction.
func (s *StandAloneStorage) Write(batch []storage.Modify) error {
	db, err := s.engine()
	if err != nil {
		return err
	}
	wb := new(engine_util.WriteBatch)
	for _, m := range batch {
		switch data := m.Data.(type) {
		case storage.Put:
			wb.SetCF(data.Cf, data.Key, data.Value)
		case storage.Delete:
			wb.DeleteCF(data.Cf, data.Key)
		}
	}
	if err := wb.WriteToDB(db); err != nil {
		return err
	}
	log.Debug("ledger store write", zap.Int("entries", wb.Len()), zap.Int("bytes", wb.Size()))
	return nil
}

// Count returns the number of records in cf.
func (s *StandAloneStorage) Count(cf string) (int, error) {
	db, err := s.engine()
	if err != nil {
		return 0, err
	}
	n, err := engine_util.CountCF(db, cf)
	return n, errors.Trace(err)
}

// badgerReader reads from a read-only badger transaction, so everything it returns comes from one
// consistent snapshot.
type badgerReader struct {
	txn *badger.Txn
}

func (r *badgerReader) GetCF(cf string, key []byte) ([]byte, error) {
	val, err := engine_util.GetCFFromTxn(r.txn, cf, key)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	return val, errors.Trace(err)
}

func (r *badgerReader) IterCF(cf string) engine_util.DBIterator {
	return engine_util.NewCFIterator(cf, r.txn)
}

func (r *badgerReader) Close() {
	r.txn.Discard()
}
