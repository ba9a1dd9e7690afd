// internal/app/gateway/inflight.go
package gateway

import "sync"

// Inflight tracks outstanding submissions by key, allowing at most one at a
// time per key. Keys combine the actor and the operation (one outstanding
// create per UI button), so a double-click dispatches a single write.
type Inflight struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewInflight creates an empty guard.
func NewInflight() *Inflight {
	return &Inflight{keys: make(map[string]struct{})}
}

// TryAcquire reserves key. It returns false when the key is already held.
func (g *Inflight) TryAcquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, held := g.keys[key]; held {
		return false
	}
	g.keys[key] = struct{}{}
	return true
}

// Release frees key. Releasing an unheld key is a no-op.
func (g *Inflight) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.keys, key)
}
