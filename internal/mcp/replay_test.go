// ABOUTME: Tests for the tools/call replay guard
// ABOUTME: Covers the window, capacity eviction and per-session forgetting

package mcp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReplayGuard_Seen(t *testing.T) {
	g := newReplayGuard(time.Minute, 10)

	assert.False(t, g.seen("a"))
	assert.True(t, g.seen("a"))
	assert.False(t, g.seen("b"))
	assert.Equal(t, 2, g.size())
}

func TestReplayGuard_Window(t *testing.T) {
	g := newReplayGuard(time.Minute, 10)
	now := time.Now()
	g.now = func() time.Time { return now }

	assert.False(t, g.seen("a"))

	now = now.Add(59 * time.Second)
	assert.True(t, g.seen("a"))

	now = now.Add(2 * time.Second)
	assert.False(t, g.seen("a"), "expired key is new again")
}

func TestReplayGuard_ExpiryTrimsOldest(t *testing.T) {
	g := newReplayGuard(time.Minute, 10)
	now := time.Now()
	g.now = func() time.Time { return now }

	g.seen("old")
	now = now.Add(30 * time.Second)
	g.seen("newer")
	now = now.Add(45 * time.Second)
	g.seen("newest")

	assert.Equal(t, 2, g.size())
	assert.True(t, g.seen("newer"))
}

func TestReplayGuard_Capacity(t *testing.T) {
	g := newReplayGuard(time.Hour, 3)

	g.seen("1")
	g.seen("2")
	g.seen("3")
	g.seen("4")

	assert.Equal(t, 3, g.size())
	assert.False(t, g.seen("1"), "oldest key was evicted")
}

func TestReplayGuard_Forget(t *testing.T) {
	g := newReplayGuard(time.Hour, 10)

	g.seen(replayKey("s1", []byte("1")))
	g.seen(replayKey("s1", []byte("2")))
	g.seen(replayKey("s10", []byte("1")))

	g.forget("s1")

	assert.Equal(t, 1, g.size())
	assert.False(t, g.seen(replayKey("s1", []byte("1"))))
	assert.True(t, g.seen(replayKey("s10", []byte("1"))))
}
