package app

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dkeye/watchparty/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type expiries struct {
	mu  sync.Mutex
	ids []domain.SessionID
}

func (e *expiries) record(id domain.SessionID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ids = append(e.ids, id)
}

func (e *expiries) get() []domain.SessionID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.SessionID(nil), e.ids...)
}

func TestCleanupScheduler_Fires(t *testing.T) {
	var got expiries
	c := NewCleanupScheduler(20*time.Millisecond, got.record)

	assert.True(t, c.Schedule("ABC234"))
	assert.True(t, c.Pending("ABC234"))

	require.Eventually(t, func() bool { return len(got.get()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []domain.SessionID{"ABC234"}, got.get())
	assert.False(t, c.Pending("ABC234"))
}

func TestCleanupScheduler_ScheduleIsIdempotent(t *testing.T) {
	var fired atomic.Int32
	c := NewCleanupScheduler(30*time.Millisecond, func(domain.SessionID) { fired.Add(1) })

	assert.True(t, c.Schedule("ABC234"))
	assert.False(t, c.Schedule("ABC234"))
	assert.False(t, c.Schedule("ABC234"))

	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestCleanupScheduler_CancelPreventsExpiry(t *testing.T) {
	var fired atomic.Int32
	c := NewCleanupScheduler(30*time.Millisecond, func(domain.SessionID) { fired.Add(1) })

	c.Schedule("ABC234")
	assert.True(t, c.Cancel("ABC234"))
	assert.False(t, c.Cancel("ABC234"))

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestCleanupScheduler_RescheduleAfterCancel(t *testing.T) {
	var got expiries
	c := NewCleanupScheduler(20*time.Millisecond, got.record)

	c.Schedule("ABC234")
	c.Cancel("ABC234")
	assert.True(t, c.Schedule("ABC234"))

	require.Eventually(t, func() bool { return len(got.get()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestCleanupScheduler_CancelRacingFire(t *testing.T) {
	for i := 0; i < 100; i++ {
		var fired atomic.Int32
		c := NewCleanupScheduler(time.Millisecond, func(domain.SessionID) { fired.Add(1) })
		c.Schedule("ABC234")
		time.Sleep(time.Millisecond)
		canceled := c.Cancel("ABC234")

		if canceled {
			time.Sleep(5 * time.Millisecond)
			assert.Equal(t, int32(0), fired.Load(), "a successful cancel must win")
		} else {
			require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, time.Millisecond)
		}
	}
}

func TestCleanupScheduler_Stop(t *testing.T) {
	var fired atomic.Int32
	c := NewCleanupScheduler(20*time.Millisecond, func(domain.SessionID) { fired.Add(1) })
	c.Schedule("ABC234")
	c.Schedule("XYZ789")

	c.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
	assert.False(t, c.Pending("ABC234"))
}

func TestNewCleanupScheduler_DefaultTTL(t *testing.T) {
	c := NewCleanupScheduler(0, nil)
	assert.Equal(t, DefaultCleanupTTL, c.TTL())
}
