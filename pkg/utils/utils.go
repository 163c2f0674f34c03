package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// GetDefaultOutputDir returns the user's Downloads folder, falling back to a
// local directory when the home directory cannot be resolved.
func GetDefaultOutputDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "listing-packets"
	}
	return filepath.Join(homeDir, "Downloads")
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
}
