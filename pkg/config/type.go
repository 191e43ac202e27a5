package config

type CollectorConfig struct {
	ApiHost    string `toml:"api_host" env:"API_HOST"`
	TLSEnabled bool   `toml:"tls_enabled" env:"TLS_ENABLED"`
}

type EmuConfig struct {
	SerialDevice   string `toml:"serial_device" env:"SERIAL_DEVICE"`
	Synchronous    bool   `toml:"synchronous" env:"SYNCHRONOUS"`
	FreshOnly      bool   `toml:"fresh_only" env:"FRESH_ONLY"`
	TimeoutSeconds int    `toml:"timeout_seconds" env:"TIMEOUT_SECONDS"`
	PollFactor     int    `toml:"poll_factor" env:"POLL_FACTOR"`
	Debug          bool   `toml:"debug" env:"DEBUG"`
	ListenAddress  string `toml:"listen_address" env:"LISTEN_ADDRESS"`
	ListenPort     int    `toml:"listen_port" env:"LISTEN_PORT"`
	// Seconds between demand requests while nothing else is talking to the device. 0 disables.
	DemandIntervalSeconds int `toml:"demand_interval_seconds" env:"DEMAND_INTERVAL_SECONDS"`
}
