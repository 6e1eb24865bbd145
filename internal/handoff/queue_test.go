package handoff

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_InOrder(t *testing.T) {
	q := New[int]()
	const n = 10000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range n {
			assert.NoError(t, q.Put(i))
		}
		q.Close()
	}()

	got := 0
	for {
		v, err := q.Take()
		if err != nil {
			require.ErrorIs(t, err, ErrClosed)
			break
		}
		require.Equal(t, got, v)
		got++
	}
	wg.Wait()

	assert.Equal(t, n, got)
	assert.Equal(t, Stats{Put: n, Taken: n}, q.Stats())
	assert.Zero(t, q.Len())
}

func TestQueue_PutWaitsForAck(t *testing.T) {
	q := New[string]()
	require.NoError(t, q.Put("first"))
	assert.Equal(t, 1, q.Len())

	second := make(chan error, 1)
	go func() { second <- q.Put("second") }()

	select {
	case <-second:
		t.Fatal("second Put returned before first item was taken")
	case <-time.After(50 * time.Millisecond):
	}

	v, err := q.Take()
	require.NoError(t, err)
	assert.Equal(t, "first", v)

	select {
	case err := <-second:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("second Put still blocked after ack")
	}

	v, err = q.Take()
	require.NoError(t, err)
	assert.Equal(t, "second", v)
}

func TestQueue_TakeBlocksUntilClose(t *testing.T) {
	q := New[int]()

	res := make(chan error, 1)
	go func() {
		_, err := q.Take()
		res <- err
	}()

	select {
	case <-res:
		t.Fatal("Take returned on empty queue")
	case <-time.After(50 * time.Millisecond):
	}

	q.Close()
	q.Close()

	select {
	case err := <-res:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Close did not wake Take")
	}
}

func TestQueue_CloseDrainsPending(t *testing.T) {
	q := New[int]()
	require.NoError(t, q.Put(7))
	q.Close()

	assert.ErrorIs(t, q.Put(8), ErrClosed)

	v, err := q.Take()
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = q.Take()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestQueue_CloseWakesBlockedPut(t *testing.T) {
	q := New[int]()
	require.NoError(t, q.Put(1))

	res := make(chan error, 1)
	go func() { res <- q.Put(2) }()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case err := <-res:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Close did not wake Put")
	}
}
