// Package am loads replaydash configuration ("am" as in "I am configured
// like this") from TOML files and REPLAYDASH_* environment variables.
package am

// Config represents the replaydash configuration
type Config struct {
	Backend BackendConfig `mapstructure:"backend" json:"backend" toml:"backend"`
	Stream  StreamConfig  `mapstructure:"stream" json:"stream" toml:"stream"`
	Display DisplayConfig `mapstructure:"display" json:"display" toml:"display"`
	Store   StoreConfig   `mapstructure:"store" json:"store" toml:"store"`
}

// BackendConfig configures the request/response API
type BackendConfig struct {
	URL                   string `mapstructure:"url" json:"url" toml:"url"`                                         // e.g. "http://localhost:5000"
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds" json:"request_timeout_seconds" toml:"request_timeout_seconds"` // per-request timeout (default: 10)
	BlockPrivateIP        bool   `mapstructure:"block_private_ip" json:"block_private_ip" toml:"block_private_ip"`               // refuse private/loopback targets (default: false)
}

// StreamConfig configures the push channel
type StreamConfig struct {
	Path                       string  `mapstructure:"path" json:"path" toml:"path"`                                                   // WebSocket path on the backend (default: /ws)
	PingIntervalSeconds        int     `mapstructure:"ping_interval_seconds" json:"ping_interval_seconds" toml:"ping_interval_seconds"`                 // 0 disables keepalive
	PongTimeoutSeconds         int     `mapstructure:"pong_timeout_seconds" json:"pong_timeout_seconds" toml:"pong_timeout_seconds"`                   // must exceed the ping interval
	ReconnectMaxBackoffSeconds int     `mapstructure:"reconnect_max_backoff_seconds" json:"reconnect_max_backoff_seconds" toml:"reconnect_max_backoff_seconds"` // reconnect delay cap
	RequestRatePerSecond       float64 `mapstructure:"request_rate_per_second" json:"request_rate_per_second" toml:"request_rate_per_second"`             // request_frame throttle
}

// DisplayConfig configures the terminal dashboard
type DisplayConfig struct {
	MaxPlottedFrames int    `mapstructure:"max_plotted_frames" json:"max_plotted_frames" toml:"max_plotted_frames"` // chart window (default: 1000)
	LogTheme         string `mapstructure:"log_theme" json:"log_theme" toml:"log_theme"`                   // gruvbox, everforest
	JSON             bool   `mapstructure:"json" json:"json" toml:"json"`                             // default to JSON output
}

// StoreConfig configures client-side frame retention
type StoreConfig struct {
	MaxFrames int `mapstructure:"max_frames" json:"max_frames" toml:"max_frames"` // 0 = unbounded
}

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)

// Config file names
const (
	EnvPrefix         = "REPLAYDASH"
	UserDirName       = ".replaydash"
	UserConfigName    = "am.toml"
	ProjectConfigName = "replaydash.toml"
	SystemConfigPath  = "/etc/replaydash/config.toml"
)
