package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsMatchSpecFigures(t *testing.T) {
	o := Defaults()
	if o.RowGroupBytes != 1<<20 {
		t.Errorf("RowGroupBytes: got %d, want %d", o.RowGroupBytes, 1<<20)
	}
	if o.PageBytes != 8<<10 {
		t.Errorf("PageBytes: got %d, want %d", o.PageBytes, 8<<10)
	}
	if o.LookupCacheCapacity != 20000 {
		t.Errorf("LookupCacheCapacity: got %d, want 20000", o.LookupCacheCapacity)
	}
	if o.ReverseCacheCapacity != 10000 {
		t.Errorf("ReverseCacheCapacity: got %d, want 10000", o.ReverseCacheCapacity)
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	ctx, opts, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.LookupCacheCapacity != 20000 {
		t.Errorf("expected default capacity, got %d", opts.LookupCacheCapacity)
	}
	if Get(ctx) != opts {
		t.Error("Get(ctx) should return the same Options Load attached")
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kvingo.yaml")
	yaml := "root: /data/archive\nlookupCacheCapacity: 5\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	_, opts, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.Root != "/data/archive" {
		t.Errorf("Root: got %q, want /data/archive", opts.Root)
	}
	if opts.LookupCacheCapacity != 5 {
		t.Errorf("LookupCacheCapacity: got %d, want 5", opts.LookupCacheCapacity)
	}
	// Fields absent from the YAML keep their Defaults() values.
	if opts.ReverseCacheCapacity != 10000 {
		t.Errorf("ReverseCacheCapacity: got %d, want 10000", opts.ReverseCacheCapacity)
	}
}

func TestEnvOverridesRoot(t *testing.T) {
	t.Setenv("KVINGO_ROOT", "/env/root")
	_, opts, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.Root != "/env/root" {
		t.Errorf("Root: got %q, want /env/root", opts.Root)
	}
}
