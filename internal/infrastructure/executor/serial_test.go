package executor

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerial_RunsInOrder(t *testing.T) {
	s := NewSerial("test", nil)
	defer s.Shutdown()

	var mu sync.Mutex
	var got []int
	for i := 0; i < 100; i++ {
		i := i
		require.NoError(t, s.Submit(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}))
	}
	require.NoError(t, s.Call(func() {}))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestSerial_NoConcurrentExecution(t *testing.T) {
	s := NewSerial("test", nil)
	defer s.Shutdown()

	var running, maxRunning int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Call(func() {
				mu.Lock()
				running++
				if running > maxRunning {
					maxRunning = running
				}
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				running--
				mu.Unlock()
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxRunning)
}

func TestSerial_ShutdownRejectsSubmissions(t *testing.T) {
	s := NewSerial("test", nil)
	s.Shutdown()

	assert.True(t, s.IsShutdown())
	assert.ErrorIs(t, s.Submit(func() {}), ErrClosed)
	assert.ErrorIs(t, s.Call(func() {}), ErrClosed)

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("executor goroutine did not stop")
	}

	// 二重シャットダウンは無害
	s.Shutdown()
}

func TestSerial_DrainsQueuedTasksOnShutdown(t *testing.T) {
	s := NewSerial("test", nil)
	release := make(chan struct{})
	ran := make(chan struct{}, 1)

	require.NoError(t, s.Submit(func() { <-release }))
	require.NoError(t, s.Submit(func() { ran <- struct{}{} }))
	s.Shutdown()
	close(release)

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("queued task was not executed")
	}
}

func TestSerial_RecoversPanic(t *testing.T) {
	recovered := make(chan interface{}, 1)
	s := NewSerial("test", func(r interface{}) { recovered <- r })
	defer s.Shutdown()

	require.NoError(t, s.Submit(func() { panic("boom") }))
	assert.Equal(t, "boom", <-recovered)

	// panic後も実行を継続する
	done := false
	require.NoError(t, s.Call(func() { done = true }))
	assert.True(t, done)
	assert.Equal(t, "test", s.Name())
}
