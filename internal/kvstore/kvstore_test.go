package kvstore

import (
	"sort"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()

	if _, err := s.GetItem("missing"); err != ErrNotFound {
		t.Fatalf("GetItem(missing) error = %v, want ErrNotFound", err)
	}

	if err := s.SetItem("k1", "v1"); err != nil {
		t.Fatalf("SetItem failed: %v", err)
	}
	got, err := s.GetItem("k1")
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if got != "v1" {
		t.Errorf("GetItem = %q, want %q", got, "v1")
	}

	// Overwrite replaces.
	if err := s.SetItem("k1", "v2"); err != nil {
		t.Fatalf("SetItem overwrite failed: %v", err)
	}
	got, _ = s.GetItem("k1")
	if got != "v2" {
		t.Errorf("GetItem after overwrite = %q, want %q", got, "v2")
	}

	if err := s.RemoveItem("k1"); err != nil {
		t.Fatalf("RemoveItem failed: %v", err)
	}
	if _, err := s.GetItem("k1"); err != ErrNotFound {
		t.Errorf("GetItem after remove error = %v, want ErrNotFound", err)
	}

	// Removing a missing key is not an error.
	if err := s.RemoveItem("never-existed"); err != nil {
		t.Errorf("RemoveItem(missing) error = %v, want nil", err)
	}
}

func TestMemoryStoreKeysPrefix(t *testing.T) {
	s := NewMemoryStore()
	for _, k := range []string{"app-a", "app-b", "other-c"} {
		if err := s.SetItem(k, "x"); err != nil {
			t.Fatalf("SetItem(%q) failed: %v", k, err)
		}
	}

	keys, err := s.Keys("app-")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	sort.Strings(keys)
	want := []string{"app-a", "app-b"}
	if len(keys) != len(want) {
		t.Fatalf("Keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestBadgerStoreRoundTrip(t *testing.T) {
	s, err := NewBadgerStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadgerStore failed: %v", err)
	}
	defer s.Close()

	if _, err := s.GetItem("missing"); err != ErrNotFound {
		t.Fatalf("GetItem(missing) error = %v, want ErrNotFound", err)
	}

	if err := s.SetItem("weather-tokyo", `{"temp":21}`); err != nil {
		t.Fatalf("SetItem failed: %v", err)
	}
	got, err := s.GetItem("weather-tokyo")
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if got != `{"temp":21}` {
		t.Errorf("GetItem = %q, want %q", got, `{"temp":21}`)
	}

	if err := s.RemoveItem("weather-tokyo"); err != nil {
		t.Fatalf("RemoveItem failed: %v", err)
	}
	if _, err := s.GetItem("weather-tokyo"); err != ErrNotFound {
		t.Errorf("GetItem after remove error = %v, want ErrNotFound", err)
	}
}

func TestBadgerStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := NewBadgerStore(dir)
	if err != nil {
		t.Fatalf("NewBadgerStore failed: %v", err)
	}
	if err := s.SetItem("k", "survives"); err != nil {
		t.Fatalf("SetItem failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s2, err := NewBadgerStore(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()
	got, err := s2.GetItem("k")
	if err != nil {
		t.Fatalf("GetItem after reopen failed: %v", err)
	}
	if got != "survives" {
		t.Errorf("GetItem after reopen = %q, want %q", got, "survives")
	}
}

func TestBadgerStoreKeysPrefix(t *testing.T) {
	s, err := NewBadgerStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadgerStore failed: %v", err)
	}
	defer s.Close()

	for _, k := range []string{"cache-a", "cache-b", "usage"} {
		if err := s.SetItem(k, "x"); err != nil {
			t.Fatalf("SetItem(%q) failed: %v", k, err)
		}
	}
	keys, err := s.Keys("cache-")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("Keys returned %d keys (%v), want 2", len(keys), keys)
	}
}
