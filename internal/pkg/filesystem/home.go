package filesystem

import (
	"os"
	"path/filepath"
)

// UserHomeDir returns the current user's home directory.
// If the home directory cannot be determined, it returns "." as a fallback.
func UserHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// DataDir returns the kestrel data directory (~/.kestrel), creating it when
// missing.
func DataDir() string {
	dir := filepath.Join(UserHomeDir(), ".kestrel")
	_ = os.MkdirAll(dir, 0o755)
	return dir
}
