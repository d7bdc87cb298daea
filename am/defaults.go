package am

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Default values
const (
	DefaultBackendURL            = "http://localhost:5000"
	DefaultRequestTimeoutSeconds = 10
	DefaultStreamPath            = "/ws"
	DefaultPingIntervalSeconds   = 25
	DefaultPongTimeoutSeconds    = 60
	DefaultMaxBackoffSeconds     = 30
	DefaultRequestRate           = 20.0
	DefaultMaxPlottedFrames      = 1000
	DefaultLogTheme              = "everforest"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("backend.url", DefaultBackendURL)
	v.SetDefault("backend.request_timeout_seconds", DefaultRequestTimeoutSeconds)
	v.SetDefault("backend.block_private_ip", false) // the backend usually runs on localhost

	v.SetDefault("stream.path", DefaultStreamPath)
	v.SetDefault("stream.ping_interval_seconds", DefaultPingIntervalSeconds)
	v.SetDefault("stream.pong_timeout_seconds", DefaultPongTimeoutSeconds)
	v.SetDefault("stream.reconnect_max_backoff_seconds", DefaultMaxBackoffSeconds)
	v.SetDefault("stream.request_rate_per_second", DefaultRequestRate)

	v.SetDefault("display.max_plotted_frames", DefaultMaxPlottedFrames)
	v.SetDefault("display.log_theme", DefaultLogTheme)
	v.SetDefault("display.json", false)

	v.SetDefault("store.max_frames", 0)
}

// BindEnvVars binds short aliases on top of the automatic REPLAYDASH_* mapping
func BindEnvVars(v *viper.Viper) {
	v.BindEnv("backend.url", "REPLAYDASH_BACKEND_URL", "REPLAYDASH_BACKEND")
	v.BindEnv("display.log_theme", "REPLAYDASH_DISPLAY_LOG_THEME", "REPLAYDASH_LOG_THEME")
}

// RequestTimeout returns the per-request API timeout
func (c *Config) RequestTimeout() time.Duration {
	return seconds(c.Backend.RequestTimeoutSeconds, DefaultRequestTimeoutSeconds)
}

// PingInterval returns the keepalive interval; zero disables keepalive
func (c *Config) PingInterval() time.Duration {
	if c.Stream.PingIntervalSeconds == 0 {
		return 0
	}
	return seconds(c.Stream.PingIntervalSeconds, DefaultPingIntervalSeconds)
}

// PongTimeout returns how long to wait for a pong before dropping the connection
func (c *Config) PongTimeout() time.Duration {
	if c.Stream.PingIntervalSeconds == 0 {
		return 0
	}
	return seconds(c.Stream.PongTimeoutSeconds, DefaultPongTimeoutSeconds)
}

// MaxBackoff returns the reconnect delay cap
func (c *Config) MaxBackoff() time.Duration {
	return seconds(c.Stream.ReconnectMaxBackoffSeconds, DefaultMaxBackoffSeconds)
}

// RequestRate returns the request_frame throttle in messages per second
func (c *Config) RequestRate() float64 {
	if c.Stream.RequestRatePerSecond <= 0 {
		return DefaultRequestRate
	}
	return c.Stream.RequestRatePerSecond
}

// MaxPlotted returns the chart window (default: 1000)
func (c *Config) MaxPlotted() int {
	if c.Display.MaxPlottedFrames <= 0 {
		return DefaultMaxPlottedFrames
	}
	return c.Display.MaxPlottedFrames
}

// GetLogTheme returns the log theme (default: everforest)
func (c *Config) GetLogTheme() string {
	if c.Display.LogTheme == "" {
		return DefaultLogTheme
	}
	return c.Display.LogTheme
}

// BackendURL returns the backend base URL
func (c *Config) BackendURL() string {
	if c.Backend.URL == "" {
		return DefaultBackendURL
	}
	return c.Backend.URL
}

func seconds(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Backend: %s, Stream: {Path: %s}, Display: {MaxPlottedFrames: %d}, Store: {MaxFrames: %d}}",
		c.BackendURL(), c.Stream.Path, c.MaxPlotted(), c.Store.MaxFrames)
}
