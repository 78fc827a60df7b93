package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// GetConfigDir returns the default configuration directory path for the given
// appName on the current operating system.
//
// Behavior:
//   - Windows: if the APPDATA environment variable is set, returns
//     APPDATA\<appName>. If APPDATA is not set, an error is returned.
//   - Unix-like systems: if XDG_CONFIG_HOME is set, returns
//     XDG_CONFIG_HOME/<appName>. Otherwise falls back to $HOME/.config/<appName>.
//     If the user's home directory cannot be determined, an error is returned.
//
// The returned path is a suggested location and is not created by this
// function; callers should create the directory if they need it to exist.
func GetConfigDir(appName string) (string, error) {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName), nil
		}
		return "", fmt.Errorf("APPDATA environment variable not set")
	}
	// Unix-like: prefer $XDG_CONFIG_HOME, fall back to ~/.config
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// AtomicWriteFile writes data to path by writing a temporary file in the same
// directory and renaming it into place. The rename is atomic on POSIX
// filesystems, so readers never observe a partially written file.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up the temp file on any failure path.
	defer func() {
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	tmpName = ""
	return nil
}
