package cart

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_WithCreatesEmptyCart(t *testing.T) {
	s := NewStore()
	defer s.Close()

	var items int
	s.With("session-a", func(c *Cart) {
		items = len(c.Items)
	})
	assert.Zero(t, items)
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	s := NewStore()
	defer s.Close()

	s.With("session-a", func(c *Cart) {
		c.AddItem(Item{ProductID: 1, Quantity: 2})
	})

	var other int
	s.With("session-b", func(c *Cart) {
		other = c.TotalQuantity()
	})
	assert.Zero(t, other)

	var mine int
	s.With("session-a", func(c *Cart) {
		mine = c.TotalQuantity()
	})
	assert.Equal(t, 2, mine)
}

func TestStore_DropDiscardsCart(t *testing.T) {
	s := NewStore()
	defer s.Close()

	s.With("session-a", func(c *Cart) {
		c.AddItem(Item{ProductID: 1, Quantity: 1})
	})
	s.Drop("session-a")

	var qty int
	s.With("session-a", func(c *Cart) {
		qty = c.TotalQuantity()
	})
	assert.Zero(t, qty)
}

func TestStore_ExpireDropsIdleSessions(t *testing.T) {
	s := NewStore()
	defer s.Close()

	s.With("stale", func(c *Cart) {
		c.AddItem(Item{ProductID: 1, Quantity: 1})
	})

	s.mu.Lock()
	s.carts["stale"].lastSeen = time.Now().Add(-SessionTTL - time.Minute)
	s.mu.Unlock()

	s.expireSessions()

	s.mu.Lock()
	_, ok := s.carts["stale"]
	s.mu.Unlock()
	require.False(t, ok)
}

func TestStore_ConcurrentSessions(t *testing.T) {
	s := NewStore()
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n%8))
			s.With(id, func(c *Cart) {
				c.AddItem(Item{ProductID: int64(n), Quantity: 1})
			})
		}(i)
	}
	wg.Wait()

	total := 0
	for i := 0; i < 8; i++ {
		s.With(string(rune('a'+i)), func(c *Cart) {
			total += c.TotalQuantity()
		})
	}
	assert.Equal(t, 50, total)
}
