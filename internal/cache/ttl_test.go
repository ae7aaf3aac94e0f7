package cache

import (
	"testing"
	"time"
)

func TestTTLCache_SetGet(t *testing.T) {
	c := NewTTL[string, int](time.Minute)
	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss on empty cache")
	}
	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("get a: %v %v", v, ok)
	}
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestTTLCache_Expiry(t *testing.T) {
	c := NewTTL[string, string](time.Minute)
	c.SetTTL("k", "v", -time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected expired entry to miss")
	}
	// expired entries are removed on read, not just hidden
	c.mu.RLock()
	_, still := c.data["k"]
	c.mu.RUnlock()
	if still {
		t.Fatal("expected expired entry to be dropped")
	}
}

func TestTTLCache_Clear(t *testing.T) {
	c := NewTTL[int, int](time.Minute)
	c.Set(1, 1)
	c.Set(2, 2)
	c.Clear()
	if _, ok := c.Get(1); ok {
		t.Fatal("expected miss after clear")
	}
}
