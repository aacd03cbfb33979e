package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plenzo-app/plenzo/models"
)

func sample(title string) []models.Deal {
	return []models.Deal{{Rank: 1, Title: title}}
}

func TestCache_SetGet(t *testing.T) {
	c := New(16, time.Minute)
	require.True(t, c.Enabled())

	c.Set(Key("camera"), sample("Canon deal"))

	deals, ok := c.Get(Key("camera"))
	require.True(t, ok)
	require.Len(t, deals, 1)
	assert.Equal(t, "Canon deal", deals[0].Title)

	_, ok = c.Get(Key("laptop"))
	assert.False(t, ok)
}

func TestCache_InertWhenNoMaxAge(t *testing.T) {
	c := New(16, 0)
	assert.False(t, c.Enabled())

	c.Set(Key("camera"), sample("x"))
	_, ok := c.Get(Key("camera"))
	assert.False(t, ok)
}

func TestCache_ExpiredEntryMisses(t *testing.T) {
	c := New(16, 10*time.Millisecond)
	c.Set(Key("camera"), sample("x"))

	time.Sleep(25 * time.Millisecond)

	_, ok := c.Get(Key("camera"))
	assert.False(t, ok)
}

func TestCache_CapacityEviction(t *testing.T) {
	c := New(2, time.Minute)
	for i := 0; i < 3; i++ {
		c.Set(Key(fmt.Sprintf("term-%d", i)), sample("x"))
	}

	c.mu.RLock()
	size := len(c.store)
	c.mu.RUnlock()
	assert.Equal(t, 2, size)
}

func TestKey_NormalisesTerm(t *testing.T) {
	assert.Equal(t, Key("laptop"), Key("  Laptop  "))
	assert.NotEqual(t, Key("laptop"), Key("laptops"))
	assert.Len(t, Key("laptop"), 64)
}

func TestCache_OverwriteRefreshesEntry(t *testing.T) {
	c := New(16, time.Minute)
	c.Set(Key("camera"), sample("old"))
	c.Set(Key("camera"), sample("new"))

	deals, ok := c.Get(Key("camera"))
	require.True(t, ok)
	assert.Equal(t, "new", deals[0].Title)
}
