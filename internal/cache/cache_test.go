package cache

import (
	"sort"
	"testing"
	"time"
)

func TestMemoryCacheNoExpiration(t *testing.T) {
	c := NewMemoryCache(time.Millisecond, time.Minute)
	if err := c.Set("a", []byte("1"), NoExpiration); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if v, ok := c.Get("a"); !ok || string(v) != "1" {
		t.Errorf("Get = %q, %v", v, ok)
	}
	if keys := c.Keys(); len(keys) != 1 || keys[0] != "a" {
		t.Errorf("Keys = %v", keys)
	}
}

func TestDiskCacheRoundTripAndKeys(t *testing.T) {
	c := NewDiskCache(t.TempDir(), 0)
	for _, k := range []string{"brief_1", "brief/2?x"} {
		if err := c.Set(k, []byte(k), NoExpiration); err != nil {
			t.Fatalf("Set(%q): %v", k, err)
		}
	}
	if v, ok := c.Get("brief/2?x"); !ok || string(v) != "brief/2?x" {
		t.Errorf("Get = %q, %v", v, ok)
	}
	keys := c.Keys()
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "brief/2?x" || keys[1] != "brief_1" {
		t.Errorf("Keys = %v", keys)
	}
	if err := c.Delete("brief_1"); err != nil {
		t.Fatal(err)
	}
	if err := c.Delete("brief_1"); err != nil {
		t.Errorf("deleting a missing key: %v", err)
	}
}

func TestDiskCacheExpiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry should be live")
	}
	now = now.Add(2 * time.Hour)
	if _, ok := c.Get("k"); ok {
		t.Error("entry should have expired")
	}
	if len(c.Keys()) != 0 {
		t.Error("expired entries should not be listed")
	}
}

func TestLayeredCachePromotesFromDisk(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, 0)
	if err := c.Set("k", []byte("v"), NoExpiration); err != nil {
		t.Fatal(err)
	}

	// a fresh process sees only the disk layer
	fresh := NewLayeredCache(time.Minute, dir, 0)
	if v, ok := fresh.Get("k"); !ok || string(v) != "v" {
		t.Fatalf("Get = %q, %v", v, ok)
	}
	if _, ok := fresh.memory.Get("k"); !ok {
		t.Error("value should be promoted to memory")
	}
	if keys := fresh.Keys(); len(keys) != 1 {
		t.Errorf("Keys = %v", keys)
	}
}
