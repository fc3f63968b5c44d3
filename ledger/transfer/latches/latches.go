package latches

import (
	"bytes"
	"sort"
	"sync"

	"github.com/dgryski/go-farm"
)

// Latching provides atomicity of ledger transfers. A transfer reads two account balances, checks
// them and writes both back. Two transfers touching the same account must not interleave, or one of
// the debits could be lost. By latching the accounts a transfer might write, we ensure that the two
// transfers are serialized on that account while transfers over disjoint accounts run in parallel.
//
// A latch is a per-key lock. Keys are spread over a fixed number of slots by their fingerprint;
// each slot maps latched keys to a WaitGroup and is guarded by its own mutex.
//
// WaitForLatches takes the latches one by one in ascending key order. Every caller uses the same
// order, so two transfers over the same pair of accounts in opposite directions cannot deadlock.

type Latches struct {
	slots []latchSlot
	// An optional validation function, only used for testing. It is called with the keys once they
	// are all latched.
	Validation func(keys [][]byte)
}

type latchSlot struct {
	sync.Mutex
	// Threads who find a key locked should wait on its WaitGroup.
	latchMap map[string]*sync.WaitGroup
}

// NewLatches creates a new Latches object for managing the latches of a ledger. There should only
// be one such object, shared between all threads.
func NewLatches(size int) *Latches {
	if size <= 0 {
		size = 1
	}
	l := &Latches{slots: make([]latchSlot, size)}
	for i := range l.slots {
		l.slots[i].latchMap = make(map[string]*sync.WaitGroup)
	}
	return l
}

func (l *Latches) slot(key []byte) *latchSlot {
	return &l.slots[farm.Fingerprint64(key)%uint64(len(l.slots))]
}

// acquire tries to lock key. If key is already locked, the WaitGroup of the holder is returned.
func (l *Latches) acquire(key []byte) *sync.WaitGroup {
	s := l.slot(key)
	s.Lock()
	defer s.Unlock()
	if wg, ok := s.latchMap[string(key)]; ok {
		return wg
	}
	wg := new(sync.WaitGroup)
	wg.Add(1)
	s.latchMap[string(key)] = wg
	return nil
}

func (l *Latches) release(key []byte) {
	s := l.slot(key)
	s.Lock()
	defer s.Unlock()
	if wg, ok := s.latchMap[string(key)]; ok {
		delete(s.latchMap, string(key))
		wg.Done()
	}
}

// AcquireLatches tries to lock all latches specified by keys without blocking. If this succeeds,
// nil is returned. If any of the keys is locked, nothing stays locked and a WaitGroup is returned
// which the thread can use to be woken when that lock is free.
func (l *Latches) AcquireLatches(keysToLatch [][]byte) *sync.WaitGroup {
	keys := SortKeys(keysToLatch)
	for i, key := range keys {
		if wg := l.acquire(key); wg != nil {
			l.ReleaseLatches(keys[:i])
			return wg
		}
	}
	if l.Validation != nil {
		l.Validation(keys)
	}
	return nil
}

// ReleaseLatches releases the latches for all keys in keysToUnlatch. It will wake up any threads
// blocked on one of the latches.
func (l *Latches) ReleaseLatches(keysToUnlatch [][]byte) {
	for _, key := range SortKeys(keysToUnlatch) {
		l.release(key)
	}
}

// WaitForLatches locks every key in keysToLatch, in ascending key order, waiting for each one to
// become free. Therefore WaitForLatches may block for an unbounded length of time.
func (l *Latches) WaitForLatches(keysToLatch [][]byte) {
	keys := SortKeys(keysToLatch)
	for _, key := range keys {
		for {
			wg := l.acquire(key)
			if wg == nil {
				break
			}
			wg.Wait()
		}
	}
	if l.Validation != nil {
		l.Validation(keys)
	}
}

// SortKeys returns the distinct keys in ascending byte order. keys is not modified.
func SortKeys(keys [][]byte) [][]byte {
	sorted := make([][]byte, 0, len(keys))
	sorted = append(sorted, keys...)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i], sorted[j]) < 0
	})
	n := 0
	for i, key := range sorted {
		if i > 0 && bytes.Equal(key, sorted[n-1]) {
			continue
		}
		sorted[n] = key
		n++
	}
	return sorted[:n]
}
