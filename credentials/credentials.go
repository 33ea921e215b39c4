// Package credentials loads the API key from standard locations.
package credentials

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// EnvAPIKey is the environment variable consulted when no credentials
// file supplies a key.
const EnvAPIKey = "MESHKIT_API_KEY"

// ErrInsecurePermissions is returned when the credentials file is
// readable by group or others.
var ErrInsecurePermissions = fmt.Errorf("credentials file has insecure permissions")

// Credentials holds the API key loaded from credentials.toml.
type Credentials struct {
	Meshy *ServiceCreds `toml:"meshy"`
}

// ServiceCreds holds the credential for one service section.
type ServiceCreds struct {
	APIKey string `toml:"api_key"`
}

// StandardPaths returns the credential file locations in priority order.
func StandardPaths() []string {
	paths := []string{"credentials.toml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "meshkit", "credentials.toml"),
			filepath.Join(home, ".meshkit", "credentials.toml"))
	}

	return paths
}

// Load loads credentials from the first available standard location.
// A missing file is not an error; the caller falls through to the
// environment via GetAPIKey.
func Load() (*Credentials, string, error) {
	for _, path := range StandardPaths() {
		if _, err := os.Stat(path); err == nil {
			creds, err := LoadFile(path)
			if err != nil {
				return nil, path, err
			}
			return creds, path, nil
		}
	}
	return nil, "", nil
}

// LoadFile loads credentials from a specific file.
// Returns ErrInsecurePermissions unless the file is mode 0400.
func LoadFile(path string) (*Credentials, error) {
	// Permission check is Unix only
	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		mode := info.Mode().Perm()
		if mode != 0400 {
			return nil, fmt.Errorf("%w: %s has mode %04o (must be 0400)",
				ErrInsecurePermissions, path, mode)
		}
	}

	var creds Credentials
	if _, err := toml.DecodeFile(path, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// GetAPIKey returns the API key.
// Priority: [meshy] section > MESHKIT_API_KEY environment variable.
func (c *Credentials) GetAPIKey() string {
	if c != nil && c.Meshy != nil && c.Meshy.APIKey != "" {
		return c.Meshy.APIKey
	}
	return os.Getenv(EnvAPIKey)
}
