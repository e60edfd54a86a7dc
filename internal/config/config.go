package config

import "time"

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for scoutd.
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"   yaml:"database"`
	Proxy      ProxyConfig      `mapstructure:"proxy"      yaml:"proxy"`
	Browser    BrowserConfig    `mapstructure:"browser"    yaml:"browser"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"  yaml:"scheduler"`
	Control    ControlConfig    `mapstructure:"control"    yaml:"control"`
	Settlement SettlementConfig `mapstructure:"settlement" yaml:"settlement"`
	OddsAPI    OddsAPIConfig    `mapstructure:"odds_api"   yaml:"odds_api"`
	Sources    SourcesConfig    `mapstructure:"sources"    yaml:"sources"`
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"    yaml:"metrics"`
}

// DatabaseConfig selects the persistence backend. Only the plain DSN form
// is consumed directly; the Aurora resource/secret ARN pair is resolved to
// a DSN by the deploy environment before this process starts, since that
// resolution needs a Secrets Manager call this module does not otherwise
// make.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"               yaml:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"    yaml:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`
}

// ProxyConfig controls the rotator (B). A provider only gets wired into
// the rotator when its username/password pair is present.
type ProxyConfig struct {
	Country             string `mapstructure:"country"              yaml:"country"`
	DataImpulseUsername string `mapstructure:"dataimpulse_username" yaml:"dataimpulse_username"`
	DataImpulsePassword string `mapstructure:"dataimpulse_password" yaml:"dataimpulse_password"`
	IPRoyalUsername     string `mapstructure:"iproyal_username"     yaml:"iproyal_username"`
	IPRoyalPassword     string `mapstructure:"iproyal_password"     yaml:"iproyal_password"`
}

// BrowserConfig holds browser pool (D) settings. MaxContexts is range-checked
// by Validate; the pool itself always uses the browser.MaxContexts constant.
type BrowserConfig struct {
	MaxContexts int `mapstructure:"max_contexts" yaml:"max_contexts"`
}

// SchedulerConfig controls component H's cron-like rules. Enabled gates
// automatic scheduling per spec §6's ENABLE_CRON contract; when false,
// only manual /jobs/{name}/trigger calls fire work.
type SchedulerConfig struct {
	Enabled               bool          `mapstructure:"enabled"                 yaml:"enabled"`
	SyncFixturesCron      string        `mapstructure:"sync_fixtures_cron"      yaml:"sync_fixtures_cron"`
	SyncLiveScoresCron    string        `mapstructure:"sync_live_scores_cron"   yaml:"sync_live_scores_cron"`
	TransitionEventsCron  string        `mapstructure:"transition_events_cron"  yaml:"transition_events_cron"`
	BrowserRotationPeriod time.Duration `mapstructure:"browser_rotation_period" yaml:"browser_rotation_period"`
	ShutdownDeadline      time.Duration `mapstructure:"shutdown_deadline"       yaml:"shutdown_deadline"`
}

// ControlConfig controls the HTTP control surface (I).
type ControlConfig struct {
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
}

// SettlementConfig controls the outbound settlement queue.
type SettlementConfig struct {
	QueueURL string `mapstructure:"queue_url" yaml:"queue_url"`
}

// OddsAPIConfig controls the optional HTTP odds fallback.
type OddsAPIConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	APIKey  string `mapstructure:"api_key"  yaml:"api_key"`
}

// SourcesConfig carries the per-sport URL catalogs and selectors the
// source registry (E) and the fixtures/odds jobs need. These vary per
// deployment since bookmaker site structure and domains rotate, so they
// are config, not code.
type SourcesConfig struct {
	FixtureURLs      map[string][]string `mapstructure:"fixture_urls"       yaml:"fixture_urls"`
	FixtureRowXPath  string              `mapstructure:"fixture_row_xpath"  yaml:"fixture_row_xpath"`
	OddsSportURLs    map[string][]string `mapstructure:"odds_sport_urls"    yaml:"odds_sport_urls"`
	MatchRowSelector string              `mapstructure:"match_row_selector" yaml:"match_row_selector"`
	LiveScoresURL    string              `mapstructure:"live_scores_url"    yaml:"live_scores_url"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Verbose bool `mapstructure:"verbose" yaml:"verbose"`
}

// MetricsConfig controls the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled"     yaml:"enabled"`
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Proxy: ProxyConfig{
			Country: "gb",
		},
		Browser: BrowserConfig{
			MaxContexts: 3,
		},
		Scheduler: SchedulerConfig{
			Enabled:               true,
			SyncFixturesCron:      "0 3 * * *",
			SyncLiveScoresCron:    "*/1 * * * *",
			TransitionEventsCron:  "* * * * *",
			BrowserRotationPeriod: 6 * time.Hour,
			ShutdownDeadline:      60 * time.Second,
		},
		Control: ControlConfig{
			ListenAddr: ":8090",
		},
		OddsAPI: OddsAPIConfig{
			BaseURL: "https://api.the-odds-api.com",
		},
		Metrics: MetricsConfig{
			Enabled:    true,
			ListenAddr: ":9090",
		},
	}
}
