package config

// GetDefaults returns the default configuration
func GetDefaults() Config {
	return Config{
		Server: ServerConfig{
			ListenAddr:             ":8080",
			AuthHeader:             "X-AuthUser",
			MaxRequestBytes:        10240,
			ShutdownTimeoutSeconds: 10,
		},
		Results: ResultsConfig{
			Dir:         "results",
			Pattern:     "*.tar.gz",
			RenewSuffix: ".renew",
			Watch:       boolPtr(true),
			Workers:     4,
		},
		Cache: CacheConfig{
			SlidesTTLSeconds: 600,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// MergeWithDefaults merges loaded config with defaults
func MergeWithDefaults(cfg *Config) Config {
	defaults := GetDefaults()

	if cfg == nil {
		return defaults
	}

	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = defaults.Server.ListenAddr
	}
	if cfg.Server.AuthHeader == "" {
		cfg.Server.AuthHeader = defaults.Server.AuthHeader
	}
	if cfg.Server.MaxRequestBytes == 0 {
		cfg.Server.MaxRequestBytes = defaults.Server.MaxRequestBytes
	}
	if cfg.Server.ShutdownTimeoutSeconds == 0 {
		cfg.Server.ShutdownTimeoutSeconds = defaults.Server.ShutdownTimeoutSeconds
	}

	if cfg.Results.Dir == "" {
		cfg.Results.Dir = defaults.Results.Dir
	}
	if cfg.Results.Pattern == "" {
		cfg.Results.Pattern = defaults.Results.Pattern
	}
	if cfg.Results.RenewSuffix == "" {
		cfg.Results.RenewSuffix = defaults.Results.RenewSuffix
	}
	if cfg.Results.Watch == nil {
		cfg.Results.Watch = defaults.Results.Watch
	}
	if cfg.Results.Workers == 0 {
		cfg.Results.Workers = defaults.Results.Workers
	}

	if cfg.Cache.SlidesTTLSeconds == 0 {
		cfg.Cache.SlidesTTLSeconds = defaults.Cache.SlidesTTLSeconds
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}

	return *cfg
}

func boolPtr(b bool) *bool {
	return &b
}
