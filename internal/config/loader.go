package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from an optional file and the environment.
// Priority (highest to lowest): env vars > config file > defaults. CLI
// flags are not read here; callers apply them to the returned Config.
// The environment variable names in bindEnv are part of spec §6's external
// contract and must not be renamed.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("scoutd")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".scoutd"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("SCOUTD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("database.max_open_conns", cfg.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", cfg.Database.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", cfg.Database.ConnMaxLifetime)

	v.SetDefault("proxy.country", cfg.Proxy.Country)

	v.SetDefault("browser.max_contexts", cfg.Browser.MaxContexts)

	v.SetDefault("scheduler.enabled", cfg.Scheduler.Enabled)
	v.SetDefault("scheduler.sync_fixtures_cron", cfg.Scheduler.SyncFixturesCron)
	v.SetDefault("scheduler.sync_live_scores_cron", cfg.Scheduler.SyncLiveScoresCron)
	v.SetDefault("scheduler.transition_events_cron", cfg.Scheduler.TransitionEventsCron)
	v.SetDefault("scheduler.browser_rotation_period", cfg.Scheduler.BrowserRotationPeriod)
	v.SetDefault("scheduler.shutdown_deadline", cfg.Scheduler.ShutdownDeadline)

	v.SetDefault("control.listen_addr", cfg.Control.ListenAddr)

	v.SetDefault("odds_api.base_url", cfg.OddsAPI.BaseURL)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.listen_addr", cfg.Metrics.ListenAddr)
}

// bindEnv maps spec §6's literal environment variable names onto config
// keys; SCOUTD_-prefixed AutomaticEnv alone would not reach these since
// the names don't follow the mapstructure key shape.
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("database.url", "DATABASE_URL")
	_ = v.BindEnv("settlement.queue_url", "SETTLEMENT_QUEUE_URL")
	_ = v.BindEnv("proxy.country", "PROXY_COUNTRY")
	_ = v.BindEnv("proxy.dataimpulse_username", "DATAIMPULSE_USERNAME")
	_ = v.BindEnv("proxy.dataimpulse_password", "DATAIMPULSE_PASSWORD")
	_ = v.BindEnv("proxy.iproyal_username", "IPROYAL_USERNAME")
	_ = v.BindEnv("proxy.iproyal_password", "IPROYAL_PASSWORD")
	_ = v.BindEnv("scheduler.enabled", "ENABLE_CRON")
	_ = v.BindEnv("odds_api.api_key", "ODDS_API_KEY")
}
