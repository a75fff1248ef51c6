package server

import (
	"sync"
	"testing"
	"time"

	"github.com/timvw/dashgen/internal/generator"
	"github.com/timvw/dashgen/internal/protocol"
)

func TestResponseCache_StoreAndLookup(t *testing.T) {
	cache := NewResponseCache(5 * time.Minute)
	req := generator.Request{PanelKey: "issues", Kind: protocol.KindRich}

	cache.Store(req, generator.Result{
		Content:  "<div/>",
		Commands: []protocol.Command{protocol.Reorder("a")},
	})

	got, ok := cache.Lookup(req)
	if !ok {
		t.Fatal("expected cache hit, got miss")
	}
	if got.Content != "<div/>" || len(got.Commands) != 1 {
		t.Errorf("cached result = %+v", got)
	}

	got.Commands[0].Type = "mutated"
	again, _ := cache.Lookup(req)
	if again.Commands[0].Type != protocol.TypeReorder {
		t.Error("lookup returned a shared commands slice")
	}
}

func TestResponseCache_RequestChanged(t *testing.T) {
	cache := NewResponseCache(5 * time.Minute)
	req := generator.Request{PanelKey: "issues", Kind: protocol.KindRich}
	cache.Store(req, generator.Result{Content: "x"})

	req.Prompt = "only critical"
	if _, ok := cache.Lookup(req); ok {
		t.Error("expected cache miss when the request changed, got hit")
	}
}

func TestResponseCache_TTLExpiry(t *testing.T) {
	cache := NewResponseCache(1 * time.Millisecond)
	req := generator.Request{Kind: protocol.KindChat}
	cache.Store(req, generator.Result{Content: "x"})

	time.Sleep(5 * time.Millisecond)

	if _, ok := cache.Lookup(req); ok {
		t.Error("expected cache miss after TTL expiry, got hit")
	}
}

func TestResponseCache_Disabled(t *testing.T) {
	cache := NewResponseCache(0)
	req := generator.Request{Kind: protocol.KindRich}
	cache.Store(req, generator.Result{Content: "x"})

	if _, ok := cache.Lookup(req); ok {
		t.Error("expected cache miss when disabled (TTL=0), got hit")
	}

	var nilCache *ResponseCache
	if nilCache.Enabled() {
		t.Error("nil cache should be disabled")
	}
	if entries, hits := nilCache.Stats(); entries != 0 || hits != 0 {
		t.Errorf("nil cache stats = %d, %d", entries, hits)
	}
}

func TestResponseCache_Stats(t *testing.T) {
	cache := NewResponseCache(5 * time.Minute)
	a := generator.Request{PanelKey: "a", Kind: protocol.KindRich}
	b := generator.Request{PanelKey: "b", Kind: protocol.KindRich}
	cache.Store(a, generator.Result{})
	cache.Store(b, generator.Result{})
	cache.Lookup(a)
	cache.Lookup(a)

	entries, hits := cache.Stats()
	if entries != 2 || hits != 2 {
		t.Errorf("stats = %d entries, %d hits; want 2, 2", entries, hits)
	}
}

func TestResponseCache_ConcurrentAccess(t *testing.T) {
	cache := NewResponseCache(5 * time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			req := generator.Request{PanelKey: "p", Kind: protocol.KindRich, Prompt: string(rune('a' + n%5))}
			cache.Store(req, generator.Result{Content: "x"})
			cache.Lookup(req)
			if n%10 == 0 {
				cache.Stats()
			}
		}(i)
	}
	wg.Wait()
}
