package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryForReturnsSameCollection(t *testing.T) {
	reg := NewRegistry()
	first := reg.For("user-1")
	second := reg.For("user-1")
	require.Same(t, first, second)
	assert.Equal(t, 1, reg.Len())

	reg.Drop("user-1")
	_, ok := reg.Lookup("user-1")
	assert.False(t, ok)
}

func TestRegistryEvictIdle(t *testing.T) {
	reg := NewRegistry()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	reg.For("idle").Touch(now.Add(-2 * time.Hour))
	reg.For("active").Touch(now.Add(-5 * time.Minute))

	evicted := reg.EvictIdle(now, time.Hour)
	assert.Equal(t, 1, evicted)
	_, ok := reg.Lookup("active")
	assert.True(t, ok)
	_, ok = reg.Lookup("idle")
	assert.False(t, ok)
}
