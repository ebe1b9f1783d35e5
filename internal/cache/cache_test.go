package cache

import (
	"fmt"
	"html/template"
	"sync"
	"testing"
)

func TestNewCache(t *testing.T) {
	c := NewCache[string, int]()
	if c == nil {
		t.Fatal("NewCache returned nil")
	}
	if c.Len() != 0 {
		t.Errorf("Expected empty cache, got %d items", c.Len())
	}
}

func TestCache_BasicOperations(t *testing.T) {
	c := NewCache[string, string]()

	if _, ok := c.Get("missing"); ok {
		t.Error("Expected miss for absent key")
	}

	c.Set("a", "1")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Errorf("Expected a=1, got %q (found=%v)", v, ok)
	}

	c.Set("a", "2")
	if v, _ := c.Get("a"); v != "2" {
		t.Errorf("Expected overwrite to 2, got %q", v)
	}

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("Expected key to be deleted")
	}

	c.Set("x", "1")
	c.Set("y", "2")
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Expected cleared cache, got %d items", c.Len())
	}
}

func TestCache_GetOrCompute(t *testing.T) {
	c := NewCache[string, int]()
	calls := 0
	compute := func() int {
		calls++
		return 7
	}

	if v := c.GetOrCompute("k", compute); v != 7 {
		t.Errorf("Expected computed value 7, got %d", v)
	}
	if v := c.GetOrCompute("k", compute); v != 7 {
		t.Errorf("Expected cached value 7, got %d", v)
	}
	if calls != 1 {
		t.Errorf("Expected compute to run once, ran %d times", calls)
	}
}

func TestCache_Concurrency(t *testing.T) {
	c := NewCache[string, int]()
	const goroutines = 50
	const iterations = 100

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				key := fmt.Sprintf("key-%d", i%10)
				c.Set(key, g)
				c.Get(key)
				c.GetOrCompute(fmt.Sprintf("computed-%d", i%5), func() int { return i })
			}
		}(g)
	}
	wg.Wait()

	if c.Len() != 15 {
		t.Errorf("Expected 15 distinct keys, got %d", c.Len())
	}
}

func TestHighlightedBlockCache(t *testing.T) {
	ClearHighlightCache()

	SetHighlightedBlock("monokai", "go", "hash-1", "<span>go</span>")

	if html, ok := GetHighlightedBlock("monokai", "go", "hash-1"); !ok || html != "<span>go</span>" {
		t.Errorf("Expected cached block, got %q (found=%v)", html, ok)
	}
	if _, ok := GetHighlightedBlock("github", "go", "hash-1"); ok {
		t.Error("Expected different style to miss")
	}
	if _, ok := GetHighlightedBlock("monokai", "python", "hash-1"); ok {
		t.Error("Expected different language to miss")
	}

	ClearHighlightCache()
	if _, ok := GetHighlightedBlock("monokai", "go", "hash-1"); ok {
		t.Error("Expected cache to be cleared")
	}
}

func TestSyntaxAndStaticCaches(t *testing.T) {
	calls := 0
	generate := func() template.CSS {
		calls++
		return ".chroma{}"
	}
	SyntaxCSS("cache-test", generate)
	if css := SyntaxCSS("cache-test", generate); css != ".chroma{}" {
		t.Errorf("Expected syntax css, got %q", css)
	}
	if calls != 1 {
		t.Errorf("Expected syntax css to be generated once, got %d", calls)
	}
	if css, ok := GetSyntaxCSS("cache-test"); !ok || css != ".chroma{}" {
		t.Errorf("Expected syntax css to be cached, got %q", css)
	}

	SetStaticHash("/static/style.css", "abc")
	if h, ok := GetStaticHash("/static/style.css"); !ok || h != "abc" {
		t.Errorf("Expected static hash, got %q", h)
	}
}

func BenchmarkCache_Get(b *testing.B) {
	c := NewCache[string, string]()
	c.Set("key", "value")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("key")
	}
}
