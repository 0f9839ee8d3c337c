package voice

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPool() (*Pool, *int) {
	created := 0
	p := NewPool(func(sessionID string) *Conversation {
		created++
		return NewConversation(sessionID, nil, nil, nil, nil)
	}, nil)
	return p, &created
}

func TestPool_GetOrCreateReturnsSameConversation(t *testing.T) {
	p, created := testPool()

	a := p.GetOrCreate("sess-1")
	b := p.GetOrCreate("sess-1")
	require.NotNil(t, a)
	assert.Same(t, a, b)
	assert.Equal(t, 1, *created)

	c := p.GetOrCreate("sess-2")
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, *created)
}

func TestPool_ConcurrentGetOrCreateSingleInstance(t *testing.T) {
	p := NewPool(func(sessionID string) *Conversation {
		return NewConversation(sessionID, nil, nil, nil, nil)
	}, nil)

	const goroutines = 32
	results := make([]*Conversation, goroutines)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer wg.Done()
			results[i] = p.GetOrCreate("sess-1")
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		assert.Same(t, results[0], results[i])
	}
	assert.Equal(t, []string{"sess-1"}, p.ActiveSessions())
}

func TestPool_RemoveIsIdempotent(t *testing.T) {
	p, _ := testPool()
	p.GetOrCreate("sess-1")

	p.Remove("sess-1")
	assert.Empty(t, p.ActiveSessions())

	// removing again, or removing an unknown session, is a no-op
	p.Remove("sess-1")
	p.Remove("never-existed")
}

func TestPool_CleanupAllDrains(t *testing.T) {
	p, _ := testPool()
	p.GetOrCreate("sess-1")
	p.GetOrCreate("sess-2")
	p.GetOrCreate("sess-3")
	assert.Len(t, p.ActiveSessions(), 3)

	p.CleanupAll()
	assert.Empty(t, p.ActiveSessions())

	// pool stays usable after a drain
	p.GetOrCreate("sess-4")
	assert.Equal(t, []string{"sess-4"}, p.ActiveSessions())
}
