package pathing

import (
	"os"
	"path/filepath"
)

const (
	defaultDataDir   = "/var/lib/emu_power"
	defaultConfigDir = "/etc/emu_power"
)

// EnsureDirs creates the directories the services write to.
func EnsureDirs() error {
	for _, dir := range []string{GetDataDir(), GetConfigDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

func GetReadingDbPath() string {
	return filepath.Join(GetDataDir(), "emu-readings.db")
}

// GetDataDir can be moved with EMU_DATA_DIR.
func GetDataDir() string {
	return fromEnv("EMU_DATA_DIR", defaultDataDir)
}

// GetConfigDir can be moved with EMU_CONFIG_DIR.
func GetConfigDir() string {
	return fromEnv("EMU_CONFIG_DIR", defaultConfigDir)
}

func fromEnv(key, fallback string) string {
	if dir := os.Getenv(key); dir != "" {
		return dir
	}
	return fallback
}
