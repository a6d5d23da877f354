package driver

import (
	"sync"

	"rill/internal/diag"
	"rill/internal/expand"
	"rill/internal/span"
)

// walked root of one call id
type cachedRoot struct {
	tree     *Expansion
	diags    []diag.Diagnostic
	overflow *expand.ExpandError
}

// rootCache keeps the walks of expansion roots.
type rootCache struct {
	mu     sync.RWMutex
	byCall map[span.MacroCallID]cachedRoot
}

func newRootCache(capHint int) *rootCache {
	return &rootCache{byCall: make(map[span.MacroCallID]cachedRoot, capHint)}
}

func (c *rootCache) Get(id span.MacroCallID) (cachedRoot, bool) {
	c.mu.RLock()
	rec, ok := c.byCall[id]
	c.mu.RUnlock()
	return rec, ok
}

// Put keeps the first walk of id.
func (c *rootCache) Put(id span.MacroCallID, tree *Expansion, diags []diag.Diagnostic, overflow *expand.ExpandError) {
	c.mu.Lock()
	if _, ok := c.byCall[id]; !ok {
		c.byCall[id] = cachedRoot{tree: tree, diags: diags, overflow: overflow}
	}
	c.mu.Unlock()
}
