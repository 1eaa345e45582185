package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeySkipsBlankParts(t *testing.T) {
	assert.Equal(t, "planner:timetable:u1:2024-03-04", Key("timetable", "u1", " ", "2024-03-04"))
	assert.Equal(t, "planner", Key())
}

func TestLocalCacheSetGetDelete(t *testing.T) {
	l := NewLocal(time.Minute)

	l.Set("prefs:u1", map[string]string{"title": "My School Planner"})
	v, ok := l.Get("prefs:u1")
	require.True(t, ok)
	assert.Equal(t, "My School Planner", v.(map[string]string)["title"])
	assert.Equal(t, 1, l.Len())

	l.Delete("prefs:u1")
	_, ok = l.Get("prefs:u1")
	assert.False(t, ok)
}

func TestLocalCacheExpires(t *testing.T) {
	l := NewLocal(20 * time.Millisecond)
	l.Set("k", 1)
	time.Sleep(40 * time.Millisecond)
	_, ok := l.Get("k")
	assert.False(t, ok)

	l.Set("k", 2)
	l.Flush()
	assert.Equal(t, 0, l.Len())
}
