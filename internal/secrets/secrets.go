// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of
// plain-text files. Each file in the directory represents one secret: the
// filename is the key name and the file contents (trimmed) are the value.
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Key names scribe looks for in the secrets directory.
const (
	GeminiAPIKey     = "gemini-api-key"
	NotionAPIKey     = "notion-api-key"
	NotionDatabaseID = "notion-database-id"
)

// knownKeys lets Load flag typoed secret filenames instead of silently
// leaving a key unset.
var knownKeys = map[string]bool{
	GeminiAPIKey:     true,
	NotionAPIKey:     true,
	NotionDatabaseID: true,
}

// Load reads the known key files in dir and returns a map of filename to
// trimmed contents. A missing directory or missing files are not errors;
// Load returns an empty map. Unreadable files and files that match no known
// key produce a warning on w but do not abort.
func Load(dir string, w io.Writer) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !knownKeys[name] {
			fmt.Fprintf(w, "warning: %s is not a recognized secret (expected %s, %s, or %s)\n",
				name, GeminiAPIKey, NotionAPIKey, NotionDatabaseID)
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(w, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}
