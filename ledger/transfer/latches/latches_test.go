package latches

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestAcquireLatches(t *testing.T) {
	l := NewLatches(4)

	// Acquiring a new latch is ok.
	wg := l.AcquireLatches([][]byte{{}, {3}, {3, 0, 42}})
	assert.Nil(t, wg)

	// Can only acquire once.
	wg = l.AcquireLatches([][]byte{{}})
	assert.NotNil(t, wg)
	wg = l.AcquireLatches([][]byte{{3, 0, 42}})
	assert.NotNil(t, wg)

	// A failed acquire leaves nothing locked.
	wg = l.AcquireLatches([][]byte{{1}, {3}})
	assert.NotNil(t, wg)
	wg = l.AcquireLatches([][]byte{{1}})
	assert.Nil(t, wg)

	// Release then acquire is ok.
	l.ReleaseLatches([][]byte{{3}, {3, 0, 43}})
	wg = l.AcquireLatches([][]byte{{3}})
	assert.Nil(t, wg)
	wg = l.AcquireLatches([][]byte{{3, 0, 42}})
	assert.NotNil(t, wg)
}

func TestSortKeys(t *testing.T) {
	keys := [][]byte{{2}, {1}, {2}, {0, 5}}
	sorted := SortKeys(keys)
	assert.Equal(t, [][]byte{{0, 5}, {1}, {2}}, sorted)
	assert.Equal(t, []byte{2}, keys[0])
}

func TestWaitForLatchesBlocks(t *testing.T) {
	l := NewLatches(1)
	l.WaitForLatches([][]byte{[]byte("a")})

	done := make(chan struct{})
	go func() {
		l.WaitForLatches([][]byte{[]byte("b"), []byte("a")})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("latch acquired twice")
	case <-time.After(50 * time.Millisecond):
	}

	l.ReleaseLatches([][]byte{[]byte("a")})
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("waiter not woken")
	}
	assert.NotNil(t, l.AcquireLatches([][]byte{[]byte("b")}))
}

func TestOppositeOrderNoDeadlock(t *testing.T) {
	l := NewLatches(8)
	a, b := []byte("account-a"), []byte("account-b")

	inside := atomic.NewInt32(0)
	l.Validation = func(keys [][]byte) {
		assert.Len(t, keys, 2)
	}
	critical := func(keys [][]byte) {
		l.WaitForLatches(keys)
		assert.Equal(t, int32(1), inside.Inc())
		inside.Dec()
		l.ReleaseLatches(keys)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			critical([][]byte{a, b})
		}()
		go func() {
			defer wg.Done()
			critical([][]byte{b, a})
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("deadlock")
	}
}

func TestAcquireFallsBackToWait(t *testing.T) {
	l := NewLatches(4)
	a, b := []byte("a"), []byte("b")
	validated := atomic.NewInt32(0)
	l.Validation = func(keys [][]byte) {
		assert.Len(t, keys, 2)
		validated.Inc()
	}

	// Uncontended: the non-blocking attempt takes both latches.
	require.Nil(t, l.AcquireLatches([][]byte{b, a}))
	assert.Equal(t, int32(1), validated.Load())
	l.ReleaseLatches([][]byte{a, b})

	l.Validation = nil
	require.Nil(t, l.AcquireLatches([][]byte{a}))
	l.Validation = func(keys [][]byte) {
		assert.Len(t, keys, 2)
		validated.Inc()
	}

	// Contended: the failed attempt holds nothing, so the waiter blocks until a is released.
	done := make(chan struct{})
	go func() {
		keys := [][]byte{a, b}
		if wg := l.AcquireLatches(keys); wg != nil {
			l.WaitForLatches(keys)
		}
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("latches taken while a was held")
	case <-time.After(50 * time.Millisecond):
	}

	l.ReleaseLatches([][]byte{a})
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("waiter not woken")
	}
	assert.Equal(t, int32(2), validated.Load())
	assert.NotNil(t, l.AcquireLatches([][]byte{b}))
}
