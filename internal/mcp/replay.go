// ABOUTME: Guards against re-executing a tools/call delivered twice
// ABOUTME: Remembers (session, request id) pairs for a fixed window, oldest evicted first

package mcp

import (
	"container/list"
	"sync"
	"time"
)

// Replay window defaults. A retried POST of a movement command must not
// move the robot a second time.
const (
	defaultReplayWindow = 5 * time.Minute
	defaultReplayMax    = 10_000
)

type replayEntry struct {
	key  string
	seen time.Time
}

// replayGuard records request keys in arrival order. Because every entry
// lives for the same window, the list front is always the oldest and expiry
// only ever trims from the front.
type replayGuard struct {
	mu      sync.Mutex
	window  time.Duration
	maxKeys int
	entries map[string]*list.Element
	order   *list.List
	now     func() time.Time
}

func newReplayGuard(window time.Duration, maxKeys int) *replayGuard {
	return &replayGuard{
		window:  window,
		maxKeys: maxKeys,
		entries: make(map[string]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
}

// seen reports whether key was recorded within the window, and records it
// if not.
func (g *replayGuard) seen(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.expire(now)

	if _, ok := g.entries[key]; ok {
		return true
	}

	if g.order.Len() >= g.maxKeys {
		g.remove(g.order.Front())
	}
	g.entries[key] = g.order.PushBack(&replayEntry{key: key, seen: now})
	return false
}

// forget drops every key recorded for a session.
func (g *replayGuard) forget(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	prefix := sessionID + "\x00"
	for e := g.order.Front(); e != nil; {
		next := e.Next()
		if key := e.Value.(*replayEntry).key; len(key) > len(prefix) && key[:len(prefix)] == prefix {
			g.remove(e)
		}
		e = next
	}
}

// expire trims entries older than the window. Must be called with mu held.
func (g *replayGuard) expire(now time.Time) {
	for e := g.order.Front(); e != nil; e = g.order.Front() {
		if now.Sub(e.Value.(*replayEntry).seen) < g.window {
			return
		}
		g.remove(e)
	}
}

func (g *replayGuard) remove(e *list.Element) {
	if e == nil {
		return
	}
	g.order.Remove(e)
	delete(g.entries, e.Value.(*replayEntry).key)
}

func (g *replayGuard) size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.order.Len()
}

func replayKey(sessionID string, requestID []byte) string {
	return sessionID + "\x00" + string(requestID)
}
