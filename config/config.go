// Package config loads and persists the module's top-level settings:
// where relation files live, the slotted-page block size, and a
// default index type. Only HomeDir is read by db.Open; BlockSize and
// DefaultIndexType are loaded and saved but nothing else reads them.
// Config files are JSONC (JSON with comments and
// trailing commas), standardized to strict JSON before unmarshaling,
// matching calvinalkan-agent-task's internal/ticket/config.go.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"

	"github.com/luigitni/heapdb/storage"
)

// Config holds every setting db.Open needs.
type Config struct {
	// HomeDir is where every relation's backing file is created.
	HomeDir string `json:"home_dir"`
	// BlockSize records the slotted-page block size in bytes. Pages are
	// always storage.BlockSize bytes, whatever this field holds.
	BlockSize int `json:"block_size"`
	// DefaultIndexType names a default index type. The DDL executor
	// does not read it: CREATE INDEX without a type always uses "BTREE".
	DefaultIndexType string `json:"default_index_type"`
}

// Default returns the module's out-of-the-box configuration.
func Default() Config {
	return Config{
		HomeDir:          "./data",
		BlockSize:        storage.BlockSize,
		DefaultIndexType: "BTREE",
	}
}

// Load reads a JSONC config file at path, falling back to Default for
// any field a (possibly absent) file doesn't set. A missing file is not
// an error: Load returns Default() unchanged.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}

		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: invalid JSONC: %w", path, err)
	}

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %s: invalid JSON: %w", path, err)
	}

	return cfg, nil
}

// Save writes cfg to path as an atomic whole-file replace, so a crash
// mid-write never leaves a truncated or corrupt config file behind.
func Save(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	data = append(data, '\n')

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}

	return nil
}
