package config

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationResult holds the results of config validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

func (r *ValidationResult) fail(field, format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationResult) warn(field, format string, args ...any) {
	r.Warnings = append(r.Warnings, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func newResult() *ValidationResult {
	return &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}
}

// ValidateConfig validates an already-loaded config
func ValidateConfig(cfg *Config) (*ValidationResult, error) {
	result := newResult()
	if cfg == nil {
		return result, nil
	}

	validateServer(&cfg.Server, result)
	validateResults(&cfg.Results, result)
	validateCache(&cfg.Cache, result)
	validateLog(&cfg.Log, result)

	return result, nil
}

// ValidateConfigFile validates a TOML config file
func ValidateConfigFile(path string) (*ValidationResult, error) {
	result := newResult()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var cfg Config
	metadata, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		result.fail("", "Invalid TOML syntax: %v", err)
		return result, nil
	}

	for _, key := range metadata.Undecoded() {
		result.fail(key.String(), "Unknown configuration field")
	}

	if !metadata.IsDefined("results", "dir") {
		result.fail("results.dir", "Results directory is required")
	}

	merged := MergeWithDefaults(&cfg)
	validateServer(&merged.Server, result)
	validateResults(&merged.Results, result)
	validateCache(&merged.Cache, result)
	validateLog(&merged.Log, result)

	return result, nil
}

// validateServer validates the server section
func validateServer(server *ServerConfig, result *ValidationResult) {
	if server.ListenAddr != "" {
		if _, _, err := net.SplitHostPort(server.ListenAddr); err != nil {
			result.fail("server.listenAddr", "Invalid listen address '%s': %v", server.ListenAddr, err)
		}
	}

	if strings.ContainsAny(server.AuthHeader, " \t:") {
		result.fail("server.authHeader", "Invalid header name '%s'", server.AuthHeader)
	}

	if server.StaticDir != "" {
		if info, err := os.Stat(server.StaticDir); err != nil || !info.IsDir() {
			result.warn("server.staticDir", "Static directory '%s' is not accessible", server.StaticDir)
		}
	}

	if server.MaxRequestBytes < 0 {
		result.fail("server.maxRequestBytes", "Request size limit must be non-negative")
	}

	if server.ShutdownTimeoutSeconds < 0 {
		result.fail("server.shutdownTimeoutSeconds", "Shutdown timeout must be non-negative")
	}

	seen := make(map[string]bool)
	for _, admin := range server.Admins {
		if seen[admin] {
			result.warn("server.admins", "Admin '%s' is listed more than once", admin)
		}
		seen[admin] = true
		// the domain part is stripped from the auth header before lookup
		if strings.Contains(admin, "@") {
			result.warn("server.admins", "Admin '%s' contains a domain and will never match", admin)
		}
	}
}

// validateResults validates the results section
func validateResults(results *ResultsConfig, result *ValidationResult) {
	if results.Dir == "" {
		result.fail("results.dir", "Results directory is required")
	} else if info, err := os.Stat(results.Dir); err != nil {
		result.warn("results.dir", "Results directory '%s' is not accessible: %v", results.Dir, err)
	} else if !info.IsDir() {
		result.fail("results.dir", "Results path '%s' is not a directory", results.Dir)
	}

	if results.Pattern != "" && !doublestar.ValidatePattern(results.Pattern) {
		result.fail("results.pattern", "Invalid glob pattern '%s'", results.Pattern)
	}

	if strings.ContainsRune(results.RenewSuffix, '/') {
		result.fail("results.renewSuffix", "Renew suffix must not contain a path separator")
	}

	if results.Workers < 0 {
		result.fail("results.workers", "Worker count must be non-negative")
	}
}

// validateCache validates the cache section
func validateCache(cache *CacheConfig, result *ValidationResult) {
	if cache.SlidesTTLSeconds < 0 {
		result.fail("cache.slidesTTLSeconds", "Slide cache TTL must be non-negative")
	}
}

// validateLog validates the log section
func validateLog(log *LogConfig, result *ValidationResult) {
	if log.Level != "" {
		validLevels := []string{"debug", "info", "warn", "error"}
		if !contains(validLevels, log.Level) {
			result.fail("log.level", "Invalid log level '%s'. Valid options: %s", log.Level, strings.Join(validLevels, ", "))
		}
	}
}

// contains checks if a slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// PrintValidationResult prints the validation result in a human-readable format
func PrintValidationResult(path string, result *ValidationResult) {
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("📋 Validating: %s\n", path)

	if result.Valid && len(result.Warnings) == 0 {
		fmt.Println("✅ Configuration is valid!")
		fmt.Println()
		return
	}

	if len(result.Errors) > 0 {
		fmt.Printf("\n❌ Found %d error(s):\n", len(result.Errors))
		for _, err := range result.Errors {
			if err.Field != "" {
				fmt.Printf("  • [%s] %s\n", err.Field, err.Message)
			} else {
				fmt.Printf("  • %s\n", err.Message)
			}
		}
		fmt.Println()
	}

	if len(result.Warnings) > 0 {
		fmt.Printf("⚠️  Found %d warning(s):\n", len(result.Warnings))
		for _, warn := range result.Warnings {
			if warn.Field != "" {
				fmt.Printf("  • [%s] %s\n", warn.Field, warn.Message)
			} else {
				fmt.Printf("  • %s\n", warn.Message)
			}
		}
		fmt.Println()
	}

	if !result.Valid {
		fmt.Println("❌ Configuration is INVALID")
	} else {
		fmt.Println("✅ Configuration is valid (with warnings)")
	}
	fmt.Println()
}
