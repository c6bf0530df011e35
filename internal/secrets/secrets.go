// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credential material from a directory of plain-text
// files, the layout used by container secret mounts such as /etc/secrets.
// Each file is one secret: the filename is the key and the trimmed contents
// are the value. Environment variables override files.
//
// Known keys: credentials.json (service-account JSON for the print list),
// session-secret.
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Set is a loaded collection of secrets.
type Set map[string]string

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory is not an error; Load returns an empty set.
// Unreadable files produce a warning on warn but do not abort.
func Load(dir string, warn io.Writer) (Set, error) {
	if warn == nil {
		warn = io.Discard
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Set{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(Set)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(warn, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// EnvKey derives the environment variable consulted for a secret name:
// "credentials.json" becomes PRINTLIST_CREDENTIALS_JSON.
func EnvKey(name string) string {
	r := strings.NewReplacer(".", "_", "-", "_")
	return "PRINTLIST_" + strings.ToUpper(r.Replace(name))
}

// Get returns the secret called name. The environment variable EnvKey(name)
// wins over the file.
func (s Set) Get(name string) (string, bool) {
	if v := strings.TrimSpace(os.Getenv(EnvKey(name))); v != "" {
		return v, true
	}
	v, ok := s[name]
	return v, ok
}

// Require is Get that fails when the secret is missing.
func (s Set) Require(name string) (string, error) {
	v, ok := s.Get(name)
	if !ok || v == "" {
		return "", fmt.Errorf("secret %s not found (file %s or env %s)", name, name, EnvKey(name))
	}
	return v, nil
}

// Names returns the loaded file-backed secret names, sorted.
func (s Set) Names() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
