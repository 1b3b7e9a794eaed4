package reconcile_test

import (
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/fsroute/internal/core/domain"
	"go.trai.ch/fsroute/internal/engine/reconcile"
)

func change(kind domain.ChangeKind, path string) domain.Change {
	return domain.Change{Kind: kind, Path: path}
}

func TestScheduler_SingleEventFiresAfterWindow(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var fired atomic.Int32
		q := reconcile.NewQueue()
		s := reconcile.NewScheduler(q, time.Second, func() { fired.Add(1) })

		s.OnEvent(change(domain.ChangeAdd, "/srv/a.route.sh"))
		assert.True(t, s.Pending())

		time.Sleep(999 * time.Millisecond)
		synctest.Wait()
		assert.Zero(t, fired.Load())

		time.Sleep(2 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, int32(1), fired.Load())
		assert.False(t, s.Pending())
		assert.Equal(t, []domain.PendingChange{{ID: "/srv/a.route.sh", ShouldReload: true}}, q.Drain())
	})
}

func TestScheduler_BurstCollapsesIntoOnePassAfterLastEvent(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var fired atomic.Int32
		var firedAt time.Time
		q := reconcile.NewQueue()
		s := reconcile.NewScheduler(q, time.Second, func() {
			fired.Add(1)
			firedAt = time.Now()
		})

		start := time.Now()
		paths := []string{"/srv/a", "/srv/b", "/srv/c", "/srv/d", "/srv/e"}
		for _, p := range paths {
			s.OnEvent(change(domain.ChangeModify, p))
			time.Sleep(900 * time.Millisecond)
		}
		lastEvent := start.Add(4 * 900 * time.Millisecond)

		time.Sleep(time.Second)
		synctest.Wait()

		require.Equal(t, int32(1), fired.Load())
		assert.Equal(t, lastEvent.Add(time.Second), firedAt)
		assert.Len(t, q.Drain(), len(paths))
	})
}

func TestScheduler_QuietWindowsFireSeparately(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var fired atomic.Int32
		s := reconcile.NewScheduler(reconcile.NewQueue(), 100*time.Millisecond, func() { fired.Add(1) })

		s.OnEvent(change(domain.ChangeAdd, "/srv/a"))
		time.Sleep(150 * time.Millisecond)
		s.OnEvent(change(domain.ChangeAdd, "/srv/b"))
		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		assert.Equal(t, int32(2), fired.Load())
	})
}

func TestScheduler_RemovalRecordsNoReload(t *testing.T) {
	q := reconcile.NewQueue()
	s := reconcile.NewScheduler(q, time.Hour, nil)
	defer s.Stop()

	s.OnEvent(change(domain.ChangeRemove, "/srv/a"))

	assert.Equal(t, []domain.PendingChange{{ID: "/srv/a", ShouldReload: false}}, q.Drain())
}

func TestScheduler_StopCancelsWindow(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var fired atomic.Int32
		q := reconcile.NewQueue()
		s := reconcile.NewScheduler(q, 100*time.Millisecond, func() { fired.Add(1) })

		s.OnEvent(change(domain.ChangeAdd, "/srv/a"))
		s.Stop()
		s.OnEvent(change(domain.ChangeAdd, "/srv/b"))

		time.Sleep(time.Second)
		synctest.Wait()

		assert.Zero(t, fired.Load())
		assert.Equal(t, 1, q.Len())
	})
}
