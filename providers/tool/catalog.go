package tool

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/leofalp/chatstream/providers/ai"
)

// Catalog is a concurrency-safe registry of tools keyed by lowercase name.
type Catalog struct {
	mu    sync.RWMutex
	tools map[string]GenericTool
}

// NewCatalog returns a catalog holding the given tools.
func NewCatalog(tools ...GenericTool) *Catalog {
	c := &Catalog{tools: make(map[string]GenericTool, len(tools))}
	c.Add(tools...)
	return c
}

// Add registers tools, replacing any with the same name.
func (c *Catalog) Add(tools ...GenericTool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tools == nil {
		c.tools = make(map[string]GenericTool, len(tools))
	}
	for _, t := range tools {
		c.tools[strings.ToLower(t.ToolInfo().Name)] = t
	}
}

// Get looks a tool up by name, ignoring case.
func (c *Catalog) Get(name string) (GenericTool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tools[strings.ToLower(name)]
	return t, ok
}

// Has reports whether a tool named name is registered.
func (c *Catalog) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

// Remove unregisters a tool and reports whether it was present.
func (c *Catalog) Remove(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := strings.ToLower(name)
	if _, ok := c.tools[key]; !ok {
		return false
	}
	delete(c.tools, key)
	return true
}

// Size returns the number of registered tools.
func (c *Catalog) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tools)
}

// Merge copies every tool of other into c.
func (c *Catalog) Merge(other *Catalog) {
	if other == nil || other == c {
		return
	}
	other.mu.RLock()
	snapshot := maps.Clone(other.tools)
	other.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tools == nil {
		c.tools = make(map[string]GenericTool, len(snapshot))
	}
	maps.Copy(c.tools, snapshot)
}

// Clone returns an independent copy of the catalog.
func (c *Catalog) Clone() *Catalog {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return &Catalog{tools: maps.Clone(c.tools)}
}

// Descriptions returns the tool descriptions sorted by name, ready to be
// attached to a connection request.
func (c *Catalog) Descriptions() []ai.ToolDescription {
	c.mu.RLock()
	defer c.mu.RUnlock()

	descs := make([]ai.ToolDescription, 0, len(c.tools))
	for _, key := range slices.Sorted(maps.Keys(c.tools)) {
		descs = append(descs, c.tools[key].ToolInfo())
	}
	return descs
}

// Execute runs the named tool with a JSON input.
func (c *Catalog) Execute(ctx context.Context, name, inputJSON string) (string, error) {
	t, ok := c.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return t.Call(ctx, inputJSON)
}
