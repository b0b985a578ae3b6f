package app

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/watchparty/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, r *Registry, id domain.SessionID) {
	t.Helper()
	require.NoError(t, r.Create(domain.NewSession(id, "alice", "http://v/1", "host-1", time.Now())))
}

func TestRegistry_CreateRejectsDuplicate(t *testing.T) {
	r := NewRegistry()
	seed(t, r, "ABC234")

	err := r.Create(domain.NewSession("ABC234", "eve", "http://v/2", "host-2", time.Now()))
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	got, err := r.Get("ABC234")
	require.NoError(t, err)
	assert.Equal(t, "http://v/1", got.VideoURL)
}

func TestRegistry_GetReturnsDetachedCopy(t *testing.T) {
	r := NewRegistry()
	seed(t, r, "ABC234")

	got, err := r.Get("ABC234")
	require.NoError(t, err)
	got.AddViewer("bob", "c-1")

	again, err := r.Get("ABC234")
	require.NoError(t, err)
	assert.Empty(t, again.Viewers)
}

func TestRegistry_NotFound(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get("NOPE22")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = r.Mutate("NOPE22", func(*domain.Session) error { return nil })
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, ok := r.Delete("NOPE22")
	assert.False(t, ok)
}

func TestRegistry_MutatePropagatesError(t *testing.T) {
	r := NewRegistry()
	seed(t, r, "ABC234")

	view, err := r.Mutate("ABC234", func(s *domain.Session) error {
		return s.ApplyControl("viewer", domain.ActionPlay, 1, true, time.Now())
	})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Nil(t, view)
}

func TestRegistry_DeleteIsIdempotent(t *testing.T) {
	r := NewRegistry()
	seed(t, r, "ABC234")

	last, ok := r.Delete("ABC234")
	require.True(t, ok)
	assert.Equal(t, domain.SessionID("ABC234"), last.ID)

	_, ok = r.Delete("ABC234")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_DeleteIf(t *testing.T) {
	r := NewRegistry()
	seed(t, r, "ABC234")

	_, ok := r.DeleteIf("ABC234", func(s *domain.Session) bool { return !s.HasHost() })
	assert.False(t, ok)

	_, err := r.Mutate("ABC234", func(s *domain.Session) error {
		s.ReleaseHost()
		return nil
	})
	require.NoError(t, err)

	_, ok = r.DeleteIf("ABC234", func(s *domain.Session) bool { return !s.HasHost() })
	assert.True(t, ok)
}

func TestRegistry_ConcurrentJoinsAreNotLost(t *testing.T) {
	r := NewRegistry()
	seed(t, r, "ABC234")
	seed(t, r, "XYZ789")

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := r.Mutate("ABC234", func(s *domain.Session) error {
				s.AddViewer(fmt.Sprintf("v%d", i), domain.ConnectionID(fmt.Sprintf("c-%d", i)))
				m, _ := domain.NewTextMessage("v", "hi", time.Now())
				s.Chat.Append(m)
				return nil
			})
			assert.NoError(t, err)
		}(i)
		go func(i int) {
			defer wg.Done()
			_, err := r.Mutate("XYZ789", func(s *domain.Session) error {
				s.AddViewer("w", domain.ConnectionID(fmt.Sprintf("w-%d", i)))
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	a, err := r.Get("ABC234")
	require.NoError(t, err)
	assert.Len(t, a.Viewers, n)
	assert.Equal(t, domain.ChatHistoryLimit, a.Chat.Len())

	b, err := r.Get("XYZ789")
	require.NoError(t, err)
	assert.Len(t, b.Viewers, n)
}

func TestRegistry_MutateAfterDeleteSeesNotFound(t *testing.T) {
	r := NewRegistry()
	seed(t, r, "ABC234")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Mutate("ABC234", func(s *domain.Session) error { return nil })
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrNotFound)
			}
		}()
	}
	r.Delete("ABC234")
	wg.Wait()

	_, err := r.Get("ABC234")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
