package config

import (
	"os"
	"path/filepath"
)

var Env = map[string]string{
	"WAVEPLAY_SHARES":   os.Getenv("WAVEPLAY_SHARES"),
	"WAVEPLAY_MANIFEST": os.Getenv("WAVEPLAY_MANIFEST"),
	"WAVEPLAY_OPTIONS":  os.Getenv("WAVEPLAY_OPTIONS"),
}

// GetShareRoot returns the directory all shared nodes live under
func GetShareRoot() string {
	if custom := os.Getenv("WAVEPLAY_SHARES"); custom != "" {
		return custom
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if can't get home dir
		return filepath.Join(".", "shares")
	}

	return filepath.Join(homeDir, "Music", "Waveplay")
}

// GetManifestPath returns the path of the token-to-path share manifest
func GetManifestPath() string {
	if custom := os.Getenv("WAVEPLAY_MANIFEST"); custom != "" {
		return custom
	}
	return filepath.Join(GetShareRoot(), "shares.json")
}

// GetOptionsPath returns the path of the player options file
func GetOptionsPath() string {
	if custom := os.Getenv("WAVEPLAY_OPTIONS"); custom != "" {
		return custom
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".waveplay-options.json"
	}
	return filepath.Join(homeDir, ".waveplay-options.json")
}
