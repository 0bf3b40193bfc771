// Package config holds the archive's tunable options (root path,
// writer sizing, cache capacities), loadable from a YAML file with
// environment-variable overrides, following the teacher's
// context-scoped Get/Load pattern (internal/config/config.go).
package config

import (
	"context"
	"os"

	"gopkg.in/yaml.v3"
)

// Options are the archive's tunable settings (spec.md §4.4's writer
// settings plus §4.3's cache capacities).
type Options struct {
	Root string `yaml:"root"`

	RowGroupBytes      int64 `yaml:"rowGroupBytes"`
	PageBytes          int64 `yaml:"pageBytes"`
	DictionaryPageSize int64 `yaml:"dictionaryPageBytes"`

	LookupCacheCapacity  int `yaml:"lookupCacheCapacity"`
	ReverseCacheCapacity int `yaml:"reverseCacheCapacity"`
}

// Defaults returns spec.md §4.4/§4.3's literal figures: row-group
// ≈1 MiB, page ≈8 KiB, dictionary page ≈1 MiB, lookup cache ≈20000,
// reverse cache ≈10000.
func Defaults() Options {
	return Options{
		RowGroupBytes:        1 << 20,
		PageBytes:            8 << 10,
		DictionaryPageSize:   1 << 20,
		LookupCacheCapacity:  20000,
		ReverseCacheCapacity: 10000,
	}
}

type configKey struct{}

// Get returns the Options attached to ctx by Load.
func Get(ctx context.Context) *Options {
	return ctx.Value(configKey{}).(*Options)
}

// Load reads a YAML file at path over Defaults(), applies environment
// overrides, and attaches the result to a derived context.
func Load(path string) (context.Context, *Options, error) {
	opts := Defaults()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, nil, err
			}
		} else if err := yaml.Unmarshal(b, &opts); err != nil {
			return nil, nil, err
		}
	}
	applyEnvOverrides(&opts)
	ctx := context.WithValue(context.Background(), configKey{}, &opts)
	return ctx, &opts, nil
}

func applyEnvOverrides(opts *Options) {
	if v := os.Getenv("KVINGO_ROOT"); v != "" {
		opts.Root = v
	}
}
