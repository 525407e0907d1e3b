package watch_test

import (
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sitepipe/internal/engine/watch"
)

type calls struct {
	mu    sync.Mutex
	count int
	last  []string
}

func (c *calls) record(paths []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	c.last = paths
}

func (c *calls) snapshot() (int, []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count, c.last
}

func TestDebouncer_CoalescesAndSorts(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := &calls{}
		d := watch.NewDebouncer(100*time.Millisecond, c.record)

		d.Add("src/sass/main.scss")
		d.Add("src/sass/_vars.scss")
		d.Add("src/sass/main.scss")

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		count, paths := c.snapshot()
		require.Equal(t, 1, count)
		assert.Equal(t, []string{"src/sass/_vars.scss", "src/sass/main.scss"}, paths)
	})
}

func TestDebouncer_TimerReset(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := &calls{}
		d := watch.NewDebouncer(100*time.Millisecond, c.record)

		d.Add("a.js")
		time.Sleep(60 * time.Millisecond)
		d.Add("b.js")
		time.Sleep(60 * time.Millisecond)
		synctest.Wait()

		count, _ := c.snapshot()
		assert.Equal(t, 0, count, "second add restarts the window")

		time.Sleep(60 * time.Millisecond)
		synctest.Wait()
		count, _ = c.snapshot()
		assert.Equal(t, 1, count)
	})
}

func TestDebouncer_Stop(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := &calls{}
		d := watch.NewDebouncer(50*time.Millisecond, c.record)

		d.Add("icons/a.svg")
		d.Stop()
		d.Add("icons/b.svg")

		time.Sleep(100 * time.Millisecond)
		synctest.Wait()

		count, _ := c.snapshot()
		assert.Equal(t, 0, count)
	})
}

func TestDebouncer_NilCallback(t *testing.T) {
	synctest.Test(t, func(_ *testing.T) {
		d := watch.NewDebouncer(50*time.Millisecond, nil)
		d.Add("a.js")
		time.Sleep(100 * time.Millisecond)
		synctest.Wait()
		d.Stop()
	})
}
