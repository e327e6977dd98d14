package assets

import "testing"

func TestLRU_GetSet(t *testing.T) {
	cache := NewLRU[string, int](2)

	if _, ok := cache.Get("a"); ok {
		t.Error("Get on empty cache returned a value")
	}

	cache.Set("a", 1)
	got, ok := cache.Get("a")
	if !ok || got != 1 {
		t.Errorf("Get(a) = %d, %v, want 1, true", got, ok)
	}

	cache.Set("a", 2)
	got, _ = cache.Get("a")
	if got != 2 {
		t.Errorf("Get(a) after overwrite = %d, want 2", got)
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}
}

func TestLRU_EvictsOldest(t *testing.T) {
	cache := NewLRU[string, int](2)

	cache.Set("a", 1)
	cache.Set("b", 2)
	cache.Set("c", 3)

	if cache.Contains("a") {
		t.Error("a should have been evicted")
	}
	if !cache.Contains("b") || !cache.Contains("c") {
		t.Error("b and c should survive")
	}
	if cache.Len() != 2 {
		t.Errorf("Len() = %d, want 2", cache.Len())
	}
}

func TestLRU_GetRefreshesRecency(t *testing.T) {
	cache := NewLRU[string, int](2)

	cache.Set("a", 1)
	cache.Set("b", 2)

	// Touch a so b becomes the eviction candidate.
	cache.Get("a")
	cache.Set("c", 3)

	if !cache.Contains("a") {
		t.Error("a was touched and should survive")
	}
	if cache.Contains("b") {
		t.Error("b should have been evicted")
	}
}

func TestLRU_SetRefreshesRecency(t *testing.T) {
	cache := NewLRU[string, int](2)

	cache.Set("a", 1)
	cache.Set("b", 2)
	cache.Set("a", 10)
	cache.Set("c", 3)

	if !cache.Contains("a") {
		t.Error("a was rewritten and should survive")
	}
	if cache.Contains("b") {
		t.Error("b should have been evicted")
	}
}

func TestLRU_ContainsDoesNotRefresh(t *testing.T) {
	cache := NewLRU[string, int](2)

	cache.Set("a", 1)
	cache.Set("b", 2)
	cache.Contains("a")
	cache.Set("c", 3)

	if cache.Contains("a") {
		t.Error("Contains must not refresh recency")
	}
}

func TestLRU_Delete(t *testing.T) {
	cache := NewLRU[string, int](2)

	cache.Set("a", 1)
	if !cache.Delete("a") {
		t.Error("Delete(a) = false, want true")
	}
	if cache.Delete("a") {
		t.Error("second Delete(a) = true, want false")
	}
	if cache.Len() != 0 {
		t.Errorf("Len() = %d, want 0", cache.Len())
	}
}

func TestLRU_DefaultCapacity(t *testing.T) {
	cache := NewLRU[int, int](0)

	for i := 0; i < DefaultMaxEntries+10; i++ {
		cache.Set(i, i)
	}
	if cache.Len() != DefaultMaxEntries {
		t.Errorf("Len() = %d, want %d", cache.Len(), DefaultMaxEntries)
	}
}
