package config

import (
	"fmt"
	"net/netip"
	"os"

	env "github.com/Netflix/go-env"
)

const (
	defaultBindAddress   = "0.0.0.0"
	defaultWebPort       = 8080
	defaultDashboardName = "hue-web"
)

// Config holds all environment-driven configuration.
type Config struct {
	// Web listener configuration
	WebAddr        string `env:"HUE_WEB_ADDR"`
	WebBindAddress string `env:"HUE_WEB_BIND_ADDRESS,default=0.0.0.0"`
	WebPort        int    `env:"HUE_WEB_PORT,default=8080"`

	// Tailscale configuration
	DashboardName     string `env:"HUE_WEB_DASHBOARD_NAME"`
	TailscaleHostname string `env:"HUE_WEB_TS_HOSTNAME"`
	TailscaleAuthKey  string `env:"HUE_WEB_TS_AUTHKEY"`
	TailscaleStateDir string `env:"HUE_WEB_TS_STATE_DIR,default=./data/tailscale"`

	// Logging options
	LogLevel  string `env:"HUE_WEB_LOG_LEVEL,default=info"`
	LogFormat string `env:"HUE_WEB_LOG_FORMAT,default=json"`

	// Bridge snapshot fixture file
	FixturePath string `env:"HUE_WEB_FIXTURE,default=./bridge.hujson"`

	// Page session cap (0 = default)
	SessionLimit int `env:"HUE_WEB_SESSION_LIMIT,default=32"`

	webAddr netip.AddrPort
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	cfg.applyNameDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate ensures basic correctness of the configuration.
func (c *Config) Validate() error {
	if c.DashboardName == "" {
		return fmt.Errorf("DashboardName cannot be empty")
	}
	if err := c.parseListenerAddrs(); err != nil {
		return err
	}
	if c.FixturePath == "" {
		return fmt.Errorf("FixturePath cannot be empty")
	}
	if c.SessionLimit < 0 {
		return fmt.Errorf("SessionLimit cannot be negative")
	}
	if err := validateLogLevel(c.LogLevel); err != nil {
		return err
	}
	if err := validateLogFormat(c.LogFormat); err != nil {
		return err
	}
	if c.TailscaleStateDir == "" {
		return fmt.Errorf("TailscaleStateDir cannot be empty")
	}
	return nil
}

func (c *Config) parseListenerAddrs() error {
	if c.WebBindAddress == "" {
		c.WebBindAddress = defaultBindAddress
	}
	if c.WebPort == 0 && !envVarSet("HUE_WEB_PORT") {
		c.WebPort = defaultWebPort
	}
	if err := validatePortRange("web", c.WebPort); err != nil {
		return err
	}
	webAddr := c.WebAddr
	if webAddr == "" {
		webAddr = fmt.Sprintf("%s:%d", c.WebBindAddress, c.WebPort)
	}
	parsedWeb, err := netip.ParseAddrPort(webAddr)
	if err != nil {
		return fmt.Errorf("invalid web addr %q: %w", webAddr, err)
	}
	c.webAddr = parsedWeb

	return nil
}

// WebAddrPort returns the parsed web listener address.
func (c *Config) WebAddrPort() netip.AddrPort {
	if !c.webAddr.IsValid() {
		if err := c.parseListenerAddrs(); err != nil {
			panic(fmt.Sprintf("failed to parse listener addresses: %v", err))
		}
	}
	return c.webAddr
}

func (c *Config) applyNameDefaults() {
	tsHostnameSet := envVarSet("HUE_WEB_TS_HOSTNAME")
	dashboardNameSet := envVarSet("HUE_WEB_DASHBOARD_NAME")

	base := defaultDashboardName
	switch {
	case tsHostnameSet:
		base = c.TailscaleHostname
	case dashboardNameSet:
		base = c.DashboardName
	case c.TailscaleHostname != "":
		base = c.TailscaleHostname
	case c.DashboardName != "":
		base = c.DashboardName
	}

	if !tsHostnameSet {
		if c.TailscaleHostname == "" {
			c.TailscaleHostname = base
		} else {
			base = c.TailscaleHostname
		}
	}
	if !dashboardNameSet {
		c.DashboardName = base
	}
}

// SetListenerAddrsForTesting overrides the listener address in tests.
func (c *Config) SetListenerAddrsForTesting(web string) {
	c.webAddr = netip.MustParseAddrPort(web)
}

func validatePortRange(name string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s port must be between 1 and 65535, got %d", name, port)
	}
	return nil
}

func validateLogLevel(level string) error {
	switch level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", level)
	}
}

func validateLogFormat(format string) error {
	switch format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("invalid log format %q, must be 'json' or 'console'", format)
	}
}

func envVarSet(key string) bool {
	if key == "" {
		return false
	}
	_, ok := os.LookupEnv(key)
	return ok
}
