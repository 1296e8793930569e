package scene

import (
	"path/filepath"
	"testing"
	"time"
)

// countingProvider records how many times each scene is loaded.
type countingProvider struct {
	*MapProvider
	loads map[string]int
}

func newCountingProvider(scenes map[string]string) *countingProvider {
	return &countingProvider{MapProvider: NewMapProvider(scenes), loads: map[string]int{}}
}

func (p *countingProvider) LoadScene(name string) (string, error) {
	p.loads[Normalize(name)]++
	return p.MapProvider.LoadScene(name)
}

func TestCacheProviderCachesLoads(t *testing.T) {
	upstream := newCountingProvider(map[string]string{"startup": "cached content"})
	cache, err := NewCacheProvider(upstream, filepath.Join(t.TempDir(), "cache.db"), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	for i := 0; i < 3; i++ {
		text, err := cache.LoadScene("startup")
		if err != nil {
			t.Fatalf("LoadScene #%d returned error: %v", i, err)
		}
		if text != "cached content" {
			t.Fatalf("LoadScene #%d = %q", i, text)
		}
	}
	if upstream.loads["startup"] != 1 {
		t.Errorf("upstream loads = %d, want 1", upstream.loads["startup"])
	}
}

func TestCacheProviderExpiry(t *testing.T) {
	upstream := newCountingProvider(map[string]string{"startup": "v"})
	cache, err := NewCacheProvider(upstream, filepath.Join(t.TempDir(), "cache.db"), time.Nanosecond)
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	if _, err := cache.LoadScene("startup"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, err := cache.LoadScene("startup"); err != nil {
		t.Fatal(err)
	}
	if upstream.loads["startup"] != 2 {
		t.Errorf("upstream loads = %d, want 2 with expired cache", upstream.loads["startup"])
	}
}

func TestCacheProviderSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	upstream := newCountingProvider(map[string]string{"startup": "persisted"})
	cache, err := NewCacheProvider(upstream, path, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cache.LoadScene("startup"); err != nil {
		t.Fatal(err)
	}
	cache.Close()

	// A fresh session with an empty upstream still serves the cached row.
	empty := newCountingProvider(map[string]string{})
	reopened, err := NewCacheProvider(empty, path, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	text, err := reopened.LoadScene("startup")
	if err != nil {
		t.Fatalf("LoadScene after reopen returned error: %v", err)
	}
	if text != "persisted" {
		t.Errorf("LoadScene = %q", text)
	}
	if !reopened.HasScene("startup") {
		t.Error("HasScene = false for a cached scene")
	}
}

func TestCacheProviderMissPropagates(t *testing.T) {
	cache, err := NewCacheProvider(newCountingProvider(nil), filepath.Join(t.TempDir(), "cache.db"), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	if _, err := cache.LoadScene("ghost"); err == nil {
		t.Error("missing scene load did not fail")
	}
	if cache.HasScene("ghost") {
		t.Error("HasScene(ghost) = true")
	}
}
