package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_CreateAndGet(t *testing.T) {
	m := NewManager()

	s := m.Create()

	require.NotEmpty(t, s.ID())
	assert.Same(t, s, m.Get(s.ID()))
	assert.Nil(t, m.Get("missing"))
	assert.Equal(t, 1, m.Len())
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	m := NewManager()
	a := m.Create()
	b := m.Create()

	a.AppendUser("only in a")

	assert.NotEqual(t, a.ID(), b.ID())
	assert.Len(t, a.DisplayLog(), 1)
	assert.Len(t, b.DisplayLog(), 0)
}

func TestManager_GetOrCreate(t *testing.T) {
	m := NewManager()
	existing := m.Create()

	s, created := m.GetOrCreate(existing.ID())
	assert.False(t, created)
	assert.Same(t, existing, s)

	s, created = m.GetOrCreate("unknown")
	assert.True(t, created)
	assert.NotEqual(t, "unknown", s.ID())

	s, created = m.GetOrCreate("")
	assert.True(t, created)
	assert.NotNil(t, s)
	assert.Equal(t, 3, m.Len())
}

func TestManager_Delete(t *testing.T) {
	m := NewManager()
	s := m.Create()

	m.Delete(s.ID())
	m.Delete("unknown")

	assert.Nil(t, m.Get(s.ID()))
	assert.Equal(t, 0, m.Len())
}

func TestManager_Sweep(t *testing.T) {
	m := NewManager()
	stale := m.Create()
	fresh := m.Create()

	stale.mu.Lock()
	stale.lastActive = time.Now().Add(-2 * time.Hour)
	stale.mu.Unlock()

	removed := m.Sweep(time.Hour)

	assert.Equal(t, 1, removed)
	assert.Nil(t, m.Get(stale.ID()))
	assert.Same(t, fresh, m.Get(fresh.ID()))
}

func TestManager_SweepKeepsBusySessions(t *testing.T) {
	m := NewManager()
	busy := m.Create()

	busy.mu.Lock()
	busy.lastActive = time.Now().Add(-2 * time.Hour)
	busy.state = StateAwaitingAgent
	busy.mu.Unlock()

	assert.Equal(t, 0, m.Sweep(time.Hour))
	assert.Same(t, busy, m.Get(busy.ID()))
}
