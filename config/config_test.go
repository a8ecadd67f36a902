package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.jsonc"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadParsesJSONCWithCommentsAndTrailingCommas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.jsonc")
	contents := `{
		// where relation files live
		"home_dir": "/var/lib/heapdb",
		"block_size": 8192,
	}`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/heapdb", cfg.HomeDir)
	require.Equal(t, 8192, cfg.BlockSize)
	require.Equal(t, "BTREE", cfg.DefaultIndexType, "fields absent from the file keep their default")
}

func TestSaveThenLoadRoundtrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := Config{HomeDir: "/tmp/heapdb", BlockSize: 4096, DefaultIndexType: "BTREE"}
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, got)
}

func TestLoadInvalidJSONFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.jsonc")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
