package storage

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/Connor1996/badger/y"
	"github.com/petar/GoLLRB/llrb"
	"github.com/pingcap-incubator/tinyledger/ledger/util/engine_util"
)

// MemStorage is a Storage backed by memory. Data is not written to disk. It is used for tests and
// for the "memory" storage mode of the server, where state lives as long as the process.
type MemStorage struct {
	mu        sync.RWMutex
	CfAccount *llrb.LLRB
	CfTxn     *llrb.LLRB
}

func NewMemStorage() *MemStorage {
	return &MemStorage{
		CfAccount: llrb.New(),
		CfTxn:     llrb.New(),
	}
}

func (s *MemStorage) Start() error {
	return nil
}

func (s *MemStorage) Stop() error {
	return nil
}

func (s *MemStorage) Reader() (StorageReader, error) {
	return &memReader{s}, nil
}

func (s *MemStorage) tree(cf string) *llrb.LLRB {
	switch cf {
	case engine_util.CfAccount:
		return s.CfAccount
	case engine_util.CfTxn:
		return s.CfTxn
	}
	return nil
}

// Write applies the whole batch under the write lock, so readers never see part of it. The batch
// is checked before anything is applied; a bad CF rejects the batch untouched.
func (s *MemStorage) Write(batch []Modify) error {
	for _, m := range batch {
		if s.tree(m.Cf()) == nil {
			return fmt.Errorf("mem-storage: bad CF %s", m.Cf())
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range batch {
		switch data := m.Data.(type) {
		case Put:
			item := memItem{key: y.SafeCopy(nil, data.Key), value: y.SafeCopy(nil, data.Value)}
			s.tree(data.Cf).ReplaceOrInsert(item)
		case Delete:
			s.tree(data.Cf).Delete(memItem{key: data.Key})
		}
	}
	return nil
}

// Count returns the number of records in cf.
func (s *MemStorage) Count(cf string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := s.tree(cf)
	if t == nil {
		return 0, fmt.Errorf("mem-storage: bad CF %s", cf)
	}
	return t.Len(), nil
}

// memReader is a StorageReader which reads from a MemStorage.
type memReader struct {
	inner *MemStorage
}

func (mr *memReader) GetCF(cf string, key []byte) ([]byte, error) {
	mr.inner.mu.RLock()
	defer mr.inner.mu.RUnlock()
	data := mr.inner.tree(cf)
	if data == nil {
		return nil, fmt.Errorf("mem-storage: bad CF %s", cf)
	}

	result := data.Get(memItem{key: key})
	if result == nil {
		return nil, nil
	}
	return y.SafeCopy(nil, result.(memItem).value), nil
}

// IterCF returns an iterator over a snapshot of cf taken now. Later writes are not visible to it.
func (mr *memReader) IterCF(cf string) engine_util.DBIterator {
	mr.inner.mu.RLock()
	defer mr.inner.mu.RUnlock()
	data := mr.inner.tree(cf)
	if data == nil {
		return nil
	}

	items := make([]memItem, 0, data.Len())
	data.AscendGreaterOrEqual(memItem{key: []byte{}}, func(item llrb.Item) bool {
		items = append(items, item.(memItem))
		return true
	})
	return &memIter{items: items}
}

func (mr *memReader) Close() {}

type memIter struct {
	items []memItem
	pos   int
}

func (it *memIter) Item() engine_util.DBItem {
	return it.items[it.pos]
}

func (it *memIter) Valid() bool {
	return it.pos < len(it.items)
}

func (it *memIter) Next() {
	it.pos++
}

func (it *memIter) Seek(key []byte) {
	it.pos = sort.Search(len(it.items), func(i int) bool {
		return bytes.Compare(it.items[i].key, key) >= 0
	})
}

func (it *memIter) Close() {}

type memItem struct {
	key   []byte
	value []byte
}

func (it memItem) Key() []byte {
	return it.key
}
func (it memItem) KeyCopy(dst []byte) []byte {
	return y.SafeCopy(dst, it.key)
}
func (it memItem) Value() ([]byte, error) {
	return it.value, nil
}
func (it memItem) ValueSize() int {
	return len(it.value)
}
func (it memItem) ValueCopy(dst []byte) ([]byte, error) {
	return y.SafeCopy(dst, it.value), nil
}

func (it memItem) Less(than llrb.Item) bool {
	other := than.(memItem)
	return bytes.Compare(it.key, other.key) < 0
}
