package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled_Switches(t *testing.T) {
	m := NewManager("a=on,b=off,c=TRUE,d=false,e=1,f=0")

	for _, name := range []string{"a", "c", "e"} {
		assert.True(t, m.Enabled(name, 1), name)
	}
	for _, name := range []string{"b", "d", "f", "missing"} {
		assert.False(t, m.Enabled(name, 1), name)
	}
}

func TestEnabled_Rollout(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,junk=abc%")

	assert.True(t, m.Enabled("always", 1))
	assert.False(t, m.Enabled("never", 1))
	assert.False(t, m.Enabled("junk", 1))
	assert.False(t, m.Enabled("canary", 0))

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("canary", 42))
	}

	enabled := 0
	for id := uint(1); id <= 1000; id++ {
		if m.Enabled("canary", id) {
			enabled++
		}
	}
	assert.Greater(t, enabled, 0)
	assert.Less(t, enabled, 1000)
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,X=on, y = 20% ,z=off,=on,w= ")

	assert.Equal(t, map[string]string{"x": "on", "y": "20%", "z": "off"}, m.Raw())

	snap := m.Snapshot(0)
	assert.Len(t, snap, 3)
	assert.True(t, snap["x"])
	assert.False(t, snap["y"])
	assert.False(t, snap["z"])
}

func TestNilManager(t *testing.T) {
	var m *Manager
	assert.False(t, m.Enabled(LiveFeed, 1))
	assert.Empty(t, m.Raw())
	assert.Empty(t, m.Snapshot(1))
}
