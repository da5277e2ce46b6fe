package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDelay = 30 * time.Millisecond

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) fn(v string) func() {
	return func() {
		r.mu.Lock()
		r.calls = append(r.calls, v)
		r.mu.Unlock()
	}
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestDebouncer(t *testing.T) {
	t.Run("RunsAfterDelay", func(t *testing.T) {
		d := New(testDelay)
		var r recorder

		d.Do(r.fn("a"))
		assert.True(t, d.Pending())
		assert.Empty(t, r.get())

		require.Eventually(t, func() bool {
			return len(r.get()) == 1
		}, time.Second, 5*time.Millisecond)
		assert.False(t, d.Pending())
	})

	t.Run("OnlyLastOfBurstRuns", func(t *testing.T) {
		d := New(testDelay)
		var r recorder

		d.Do(r.fn("b"))
		d.Do(r.fn("ba"))
		d.Do(r.fn("bar"))

		require.Eventually(t, func() bool {
			return len(r.get()) > 0
		}, time.Second, 5*time.Millisecond)
		time.Sleep(2 * testDelay)
		assert.Equal(t, []string{"bar"}, r.get())
	})

	t.Run("Cancel", func(t *testing.T) {
		d := New(testDelay)
		var r recorder

		d.Do(r.fn("a"))
		assert.True(t, d.Cancel())
		assert.False(t, d.Cancel())

		time.Sleep(3 * testDelay)
		assert.Empty(t, r.get())
	})

	t.Run("StopDisables", func(t *testing.T) {
		d := New(testDelay)
		var r recorder

		d.Do(r.fn("a"))
		d.Stop()
		d.Do(r.fn("b"))

		time.Sleep(3 * testDelay)
		assert.Empty(t, r.get())
		assert.False(t, d.Pending())
	})
}
