package loop_test

import (
	"context"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tend/internal/engine/loop"
)

func TestLoop_RunsCallbacksInOrder(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		l := loop.New()
		var got []int
		block := make(chan struct{})
		l.Post(func() { <-block })

		for i := range 5 {
			l.Post(func() {
				got = append(got, i)
				if i == 0 {
					// Posting from the loop must not block.
					l.Post(func() { got = append(got, 99) })
				}
			})
		}

		close(block)
		require.NoError(t, l.Call(t.Context(), func() {}))
		require.NoError(t, l.Call(t.Context(), func() {}))
		assert.Equal(t, []int{0, 1, 2, 3, 4, 99}, got)

		l.Close()
		<-l.Done()
	})
}

func TestLoop_PostAfterClose(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		l := loop.New()
		l.Close()
		<-l.Done()

		assert.False(t, l.Post(func() {}))
		require.ErrorIs(t, l.Call(context.Background(), func() {}), loop.ErrClosed)
	})
}

func TestTimer_FiresOnLoop(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		l := loop.New()
		defer func() {
			l.Close()
			<-l.Done()
		}()

		fired := false
		require.NoError(t, l.Call(t.Context(), func() {
			l.AfterFunc(100*time.Millisecond, func() { fired = true })
		}))

		time.Sleep(99 * time.Millisecond)
		synctest.Wait()
		require.NoError(t, l.Call(t.Context(), func() { assert.False(t, fired) }))

		time.Sleep(2 * time.Millisecond)
		synctest.Wait()
		require.NoError(t, l.Call(t.Context(), func() { assert.True(t, fired) }))
	})
}

func TestTimer_StopAfterExpiry(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		l := loop.New()
		defer func() {
			l.Close()
			<-l.Done()
		}()

		fired := false
		var tm *loop.Timer
		block := make(chan struct{})

		require.NoError(t, l.Call(t.Context(), func() {
			tm = l.AfterFunc(10*time.Millisecond, func() { fired = true })
		}))

		// Hold the loop while the timer expires so its callback is queued
		// behind the Stop.
		l.Post(func() { <-block })
		l.Post(func() { tm.Stop() })
		time.Sleep(20 * time.Millisecond)
		synctest.Wait()
		close(block)

		require.NoError(t, l.Call(t.Context(), func() {}))
		require.NoError(t, l.Call(t.Context(), func() { assert.False(t, fired) }))
	})
}
