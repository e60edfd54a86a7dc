package config

import "fmt"

// Validate checks the configuration for invalid values before any
// component is constructed from it.
func Validate(cfg *Config) error {
	if cfg.Database.URL == "" {
		return fmt.Errorf("database.url (or DATABASE_URL) must be set")
	}
	if cfg.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database.max_open_conns must be >= 1, got %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns must be >= 0, got %d", cfg.Database.MaxIdleConns)
	}

	if cfg.Browser.MaxContexts < 1 || cfg.Browser.MaxContexts > 3 {
		return fmt.Errorf("browser.max_contexts must be between 1 and 3, got %d", cfg.Browser.MaxContexts)
	}

	if cfg.Scheduler.ShutdownDeadline <= 0 {
		return fmt.Errorf("scheduler.shutdown_deadline must be > 0")
	}

	if cfg.Control.ListenAddr == "" {
		return fmt.Errorf("control.listen_addr must be set")
	}

	proxyPairs := []struct{ user, pass, name string }{
		{cfg.Proxy.DataImpulseUsername, cfg.Proxy.DataImpulsePassword, "dataimpulse"},
		{cfg.Proxy.IPRoyalUsername, cfg.Proxy.IPRoyalPassword, "iproyal"},
	}
	for _, p := range proxyPairs {
		if (p.user == "") != (p.pass == "") {
			return fmt.Errorf("%s proxy credentials must set both username and password, or neither", p.name)
		}
	}

	return nil
}
