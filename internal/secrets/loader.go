// Package secrets reads credential material from files referenced in the
// configuration, keeping key values themselves out of config and environment.
package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Load reads the secret called name from the file at path and trims
// surrounding whitespace. An unset path, an unreadable file or an empty
// value are all errors; name only serves the error messages.
func Load(name, path string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "secret"
	}

	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("%s is not configured", name)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s from file %q: %w", name, path, err)
	}

	secret := strings.TrimSpace(string(data))
	if secret == "" {
		return "", fmt.Errorf("%s file %q is empty", name, path)
	}
	return secret, nil
}
