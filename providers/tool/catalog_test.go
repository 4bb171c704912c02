package tool

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/leofalp/chatstream/providers/ai"
)

// mockTool echoes a fixed result.
type mockTool struct {
	name   string
	result string
}

func (m *mockTool) ToolInfo() ai.ToolDescription {
	return ai.ToolDescription{Name: m.name, Description: "mock"}
}

func (m *mockTool) Call(context.Context, string) (string, error) {
	return m.result, nil
}

func TestCatalog_AddGetCaseInsensitive(t *testing.T) {
	c := NewCatalog(&mockTool{name: "Search", result: "r1"})

	if c.Size() != 1 {
		t.Fatalf("expected size 1, got %d", c.Size())
	}
	for _, name := range []string{"Search", "search", "SEARCH"} {
		if !c.Has(name) {
			t.Errorf("expected %q to be found", name)
		}
	}

	c.Add(&mockTool{name: "search", result: "r2"})
	if c.Size() != 1 {
		t.Errorf("expected replacement, got size %d", c.Size())
	}
	got, _ := c.Get("search")
	if out, _ := got.Call(context.Background(), ""); out != "r2" {
		t.Errorf("expected replaced tool, got %q", out)
	}
}

func TestCatalog_ZeroValue(t *testing.T) {
	var c Catalog
	c.Add(&mockTool{name: "a"})
	if !c.Has("a") {
		t.Error("expected zero-value catalog to accept tools")
	}
}

func TestCatalog_Remove(t *testing.T) {
	c := NewCatalog(&mockTool{name: "a"})
	if !c.Remove("A") {
		t.Error("expected removal to succeed")
	}
	if c.Remove("a") {
		t.Error("expected second removal to fail")
	}
	if c.Size() != 0 {
		t.Errorf("expected empty catalog, got %d", c.Size())
	}
}

func TestCatalog_MergeAndClone(t *testing.T) {
	a := NewCatalog(&mockTool{name: "one"})
	b := NewCatalog(&mockTool{name: "two"})

	a.Merge(b)
	a.Merge(nil)
	a.Merge(a)
	if a.Size() != 2 {
		t.Fatalf("expected 2 tools after merge, got %d", a.Size())
	}

	clone := a.Clone()
	clone.Remove("one")
	if !a.Has("one") {
		t.Error("clone removal should not affect the original")
	}
}

func TestCatalog_DescriptionsSorted(t *testing.T) {
	c := NewCatalog(&mockTool{name: "zeta"}, &mockTool{name: "Alpha"}, &mockTool{name: "mid"})

	descs := c.Descriptions()
	expected := []string{"Alpha", "mid", "zeta"}
	if len(descs) != len(expected) {
		t.Fatalf("expected %d descriptions, got %d", len(expected), len(descs))
	}
	for i, name := range expected {
		if descs[i].Name != name {
			t.Errorf("descs[%d]: expected %q, got %q", i, name, descs[i].Name)
		}
	}
}

func TestCatalog_Execute(t *testing.T) {
	c := NewCatalog(&mockTool{name: "echo", result: "ok"})

	out, err := c.Execute(context.Background(), "ECHO", "{}")
	if err != nil || out != "ok" {
		t.Fatalf("expected ok, got %q (%v)", out, err)
	}

	_, err = c.Execute(context.Background(), "missing", "{}")
	if !errors.Is(err, ErrToolNotFound) {
		t.Errorf("expected ErrToolNotFound, got %v", err)
	}
}

func TestCatalog_ConcurrentAccess(t *testing.T) {
	c := NewCatalog()
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := string(rune('a' + i))
			c.Add(&mockTool{name: name})
			c.Has(name)
			c.Descriptions()
		}()
	}
	wg.Wait()
	if c.Size() != 20 {
		t.Errorf("expected 20 tools, got %d", c.Size())
	}
}
