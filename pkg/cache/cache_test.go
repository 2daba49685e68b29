package cache

import (
	"testing"
	"time"
)

func TestCache_SetAndGet(t *testing.T) {
	c := New(time.Hour)
	c.Set("key", "value")

	got, ok := c.Get("key")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != "value" {
		t.Errorf("got %v, want %q", got, "value")
	}
}

func TestCache_Miss(t *testing.T) {
	c := New(time.Hour)
	if _, ok := c.Get("absent"); ok {
		t.Error("expected cache miss")
	}
}

func TestCache_Expiry(t *testing.T) {
	c := New(time.Hour)
	c.SetWithTTL("key", "value", -time.Second)

	if _, ok := c.Get("key"); ok {
		t.Error("expected expired entry to miss")
	}
	// The expired entry must also be gone, not just hidden.
	c.mu.RLock()
	_, exists := c.entries["key"]
	c.mu.RUnlock()
	if exists {
		t.Error("expected expired entry to be deleted on read")
	}
}

func TestCache_Overwrite(t *testing.T) {
	c := New(time.Hour)
	c.Set("key", 1)
	c.Set("key", 2)

	got, ok := c.Get("key")
	if !ok || got != 2 {
		t.Errorf("got %v, %v; want 2, true", got, ok)
	}
}
