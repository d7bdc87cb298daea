package am

import (
	"net/url"

	"github.com/teranos/replaydash/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Backend URL is optional; empty means DefaultBackendURL
	if c.Backend.URL != "" {
		u, err := url.Parse(c.Backend.URL)
		if err != nil {
			return errors.Wrapf(err, "backend.url %q is not a valid URL", c.Backend.URL)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return errors.Newf("backend.url must use http or https, got %q", c.Backend.URL)
		}
		if u.Host == "" {
			return errors.Newf("backend.url must include a host, got %q", c.Backend.URL)
		}
	}

	// Timeouts: 0 is meaningless for a request timeout
	if c.Backend.RequestTimeoutSeconds <= 0 {
		return errors.Newf("backend.request_timeout_seconds must be > 0, got %d", c.Backend.RequestTimeoutSeconds)
	}

	// Keepalive: 0 = disabled, negative = invalid
	if c.Stream.PingIntervalSeconds < 0 {
		return errors.Newf("stream.ping_interval_seconds must be >= 0, got %d", c.Stream.PingIntervalSeconds)
	}
	if c.Stream.PingIntervalSeconds > 0 && c.Stream.PongTimeoutSeconds <= c.Stream.PingIntervalSeconds {
		return errors.Newf("stream.pong_timeout_seconds (%d) must exceed stream.ping_interval_seconds (%d)",
			c.Stream.PongTimeoutSeconds, c.Stream.PingIntervalSeconds)
	}
	if c.Stream.ReconnectMaxBackoffSeconds <= 0 {
		return errors.Newf("stream.reconnect_max_backoff_seconds must be > 0, got %d", c.Stream.ReconnectMaxBackoffSeconds)
	}
	if c.Stream.RequestRatePerSecond <= 0 {
		return errors.Newf("stream.request_rate_per_second must be > 0, got %g", c.Stream.RequestRatePerSecond)
	}

	if c.Display.MaxPlottedFrames <= 0 {
		return errors.Newf("display.max_plotted_frames must be > 0, got %d", c.Display.MaxPlottedFrames)
	}
	switch c.Display.LogTheme {
	case "", "everforest", "gruvbox":
	default:
		return errors.Newf("display.log_theme must be everforest or gruvbox, got %q", c.Display.LogTheme)
	}

	// Retention: 0 = unbounded, negative = invalid
	if c.Store.MaxFrames < 0 {
		return errors.Newf("store.max_frames must be >= 0, got %d", c.Store.MaxFrames)
	}

	return nil
}
