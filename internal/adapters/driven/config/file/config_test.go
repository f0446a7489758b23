package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)

	assert.Equal(t, "users", cfg.Zotero.LibraryType)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, "pinecone", cfg.Index.Provider)
}

func TestLoad_ParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir = "/var/lib/corpus"

[zotero]
library_id = "12345"
library_type = "groups"

[embedding]
provider = "ollama"
model = "nomic-embed-text"

[chunking]
max_size = 1800
overlap = 200

[sync]
workers = 8
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/corpus", cfg.DataDir)
	assert.Equal(t, "12345", cfg.Zotero.LibraryID)
	assert.Equal(t, "groups", cfg.Zotero.LibraryType)
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	assert.Equal(t, 1800, cfg.Chunking.MaxSize)
	assert.Equal(t, 200, cfg.Chunking.Overlap)
	assert.Equal(t, 8, cfg.Sync.Workers)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not [valid toml"), 0600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[zotero]
api_key = "from-file"
`), 0600))
	t.Setenv(EnvZoteroAPIKey, "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Zotero.APIKey)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	want := &Config{
		DataDir: "/tmp/corpus",
		Zotero:  ZoteroConfig{LibraryID: "99", LibraryType: "users"},
	}
	require.NoError(t, Save(want, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/corpus", got.DataDir)
	assert.Equal(t, "99", got.Zotero.LibraryID)
}
