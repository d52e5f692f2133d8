package log

import (
	"os"
	"path/filepath"
	"runtime"
)

const appDir = "voxsheet"

// getDefaultDir follows each platform's convention for per-user logs:
// ~/Library/Logs on macOS, %LOCALAPPDATA% on Windows and
// $XDG_CONFIG_HOME (or ~/.config) elsewhere.
func getDefaultDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Logs", appDir), nil
	case "windows":
		// UserCacheDir is %LOCALAPPDATA% on Windows
		local, err := os.UserCacheDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(local, appDir, "logs"), nil
	}
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, appDir, "logs"), nil
}
