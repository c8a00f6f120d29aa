package config

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.shopchat.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".shopchat")
}

// ConfigPath returns the daemon config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// DBPath returns the document-store database path under dataDir.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, "shopchat.db")
}

// UploadsDir returns the blob-store directory under dataDir.
func UploadsDir(dataDir string) string {
	return filepath.Join(dataDir, "uploads")
}

// LogDir returns the log directory under dataDir.
func LogDir(dataDir string) string {
	return filepath.Join(dataDir, "logs")
}

// LogPath returns the daemon log file path under dataDir.
func LogPath(dataDir string) string {
	return filepath.Join(LogDir(dataDir), "shopchatd.log")
}

// EnsureDirs creates the data directory tree with proper permissions.
func EnsureDirs(dataDir string) error {
	for _, d := range []string{dataDir, UploadsDir(dataDir), LogDir(dataDir)} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
