// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, GeminiAPIKey), []byte("gm-key-123\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, NotionAPIKey), []byte("  ntn-key-456  "), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("skip me"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))

	var warnings bytes.Buffer
	got, err := Load(dir, &warnings)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		GeminiAPIKey: "gm-key-123",
		NotionAPIKey: "ntn-key-456",
	}, got)
	assert.Empty(t, warnings.String())
}

func TestLoad_WarnsOnUnknownKey(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gemini-apikey"), []byte("typoed"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, NotionDatabaseID), []byte("db-1"), 0o600))

	var warnings bytes.Buffer
	got, err := Load(dir, &warnings)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{NotionDatabaseID: "db-1"}, got)
	assert.Contains(t, warnings.String(), "gemini-apikey")
	assert.Contains(t, warnings.String(), "not a recognized secret")
}

func TestLoad_EmptyValueSkipped(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, GeminiAPIKey), []byte("   \n"), 0o600))

	got, err := Load(dir, io.Discard)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoad_MissingDirectory(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "does-not-exist"), io.Discard)
	require.NoError(t, err)
	assert.Empty(t, got)
}
