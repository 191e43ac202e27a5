package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/NotCoffee418/emu_power/pkg/emu"
	"github.com/NotCoffee418/emu_power/pkg/pathing"
	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

const envPrefix = "EMU_"

var (
	ActiveEmuConfig       *EmuConfig
	ActiveCollectorConfig *CollectorConfig
)

func DefaultEmuConfig() *EmuConfig {
	return &EmuConfig{
		SerialDevice:          "/dev/ttyACM0",
		Synchronous:           true,
		FreshOnly:             false,
		TimeoutSeconds:        int(emu.DefaultTimeout / time.Second),
		PollFactor:            emu.DefaultPollFactor,
		ListenAddress:         "0.0.0.0",
		ListenPort:            9040,
		DemandIntervalSeconds: 10,
	}
}

func DefaultCollectorConfig() *CollectorConfig {
	return &CollectorConfig{
		ApiHost:    "localhost:9040",
		TLSEnabled: false,
	}
}

func EmuConfigPath() string {
	return filepath.Join(pathing.GetConfigDir(), "emu_api.toml")
}

func CollectorConfigPath() string {
	return filepath.Join(pathing.GetConfigDir(), "emu_collector.toml")
}

// LoadEmuConfig reads path, writing the defaults there first if it does not exist.
// EMU_ prefixed environment variables override file values.
func LoadEmuConfig(path string) (*EmuConfig, error) {
	cfg := DefaultEmuConfig()
	if err := load(path, cfg); err != nil {
		return nil, err
	}
	ActiveEmuConfig = cfg
	return cfg, nil
}

func LoadCollectorConfig(path string) (*CollectorConfig, error) {
	cfg := DefaultCollectorConfig()
	if err := load(path, cfg); err != nil {
		return nil, err
	}
	ActiveCollectorConfig = cfg
	return cfg, nil
}

func load(path string, cfg any) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := writeDefault(path, cfg); err != nil {
			return fmt.Errorf("write default config %s: %w", path, err)
		}
	} else if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("environment overrides: %w", err)
	}
	return nil
}

func writeDefault(path string, cfg any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	cfgFile, err := os.Create(path)
	if err != nil {
		return err
	}
	defer cfgFile.Close()
	return toml.NewEncoder(cfgFile).Encode(cfg)
}

// ToOptions maps the config onto session options.
func (c *EmuConfig) ToOptions(logger *zerolog.Logger) emu.Options {
	return emu.Options{
		Synchronous: c.Synchronous,
		FreshOnly:   c.FreshOnly,
		Timeout:     time.Duration(c.TimeoutSeconds) * time.Second,
		PollFactor:  c.PollFactor,
		Debug:       c.Debug,
		Logger:      logger,
	}
}

func (c *EmuConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.ListenAddress, c.ListenPort)
}
