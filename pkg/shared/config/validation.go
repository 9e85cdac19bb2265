package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/scan-io-git/leakscan/pkg/shared/files"
)

// ValidateConfig checks the global configuration and fills in defaults.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("YAML global config: configuration object is nil")
	}
	if err := ValidateLeakscanConfig(cfg); err != nil {
		return fmt.Errorf("YAML global config: leakscan directive is invalid: %w", err)
	}
	if err := ValidateStoreConfig(&cfg.Store); err != nil {
		return fmt.Errorf("YAML global config: store directive is invalid: %w", err)
	}
	if err := ValidateNotifyConfig(&cfg.Notify); err != nil {
		return fmt.Errorf("YAML global config: notify directive is invalid: %w", err)
	}
	if err := ValidateHTTPConfig(&cfg.HTTPClient); err != nil {
		return fmt.Errorf("YAML global config: http_client directive is invalid: %w", err)
	}
	if cfg.History.AuthorName == "" {
		cfg.History.AuthorName = defaultAuthorName
	}
	if cfg.History.AuthorEmail == "" {
		cfg.History.AuthorEmail = defaultAuthorEmail
	}
	return nil
}

// ValidateLeakscanConfig resolves the home, results and temp folders and checks scan defaults.
func ValidateLeakscanConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("leakscan configuration is nil")
	}
	if err := updateHome(cfg); err != nil {
		return fmt.Errorf("failed to update home folder: %w", err)
	}
	if err := updateFolder(&cfg.Leakscan.ResultsFolder, "LEAKSCAN_RESULTS_FOLDER", "results", cfg); err != nil {
		return fmt.Errorf("failed to update results folder: %w", err)
	}
	if err := updateFolder(&cfg.Leakscan.TempFolder, "LEAKSCAN_TEMP_FOLDER", "tmp", cfg); err != nil {
		return fmt.Errorf("failed to update temp folder: %w", err)
	}
	if cfg.Leakscan.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative: %d", cfg.Leakscan.Jobs)
	}
	if cfg.Leakscan.RulesPath != "" {
		expanded, err := files.ExpandPath(cfg.Leakscan.RulesPath)
		if err != nil {
			return fmt.Errorf("failed to expand rules path %q: %w", cfg.Leakscan.RulesPath, err)
		}
		cfg.Leakscan.RulesPath = expanded
	}
	return nil
}

// ValidateStoreConfig checks the baseline store backend settings.
func ValidateStoreConfig(store *Store) error {
	if store == nil {
		return fmt.Errorf("store configuration is nil")
	}
	store.Type = strings.ToLower(SetThen(store.Type, StoreTypeFS))

	switch store.Type {
	case StoreTypeFS:
		return nil
	case StoreTypeS3:
		if store.S3.Bucket == "" {
			return fmt.Errorf("s3 store requires a bucket")
		}
		store.S3.Region = SetThen(store.S3.Region, defaultS3Region)
		store.S3.Prefix = strings.Trim(SetThen(store.S3.Prefix, defaultS3Prefix), "/")
		return nil
	default:
		return fmt.Errorf("unsupported store type %q", store.Type)
	}
}

// ValidateNotifyConfig checks the webhook URL if one is set.
func ValidateNotifyConfig(notify *Notify) error {
	if notify == nil {
		return fmt.Errorf("notify configuration is nil")
	}
	if notify.WebhookURL == "" {
		return nil
	}
	u, err := url.Parse(notify.WebhookURL)
	if err != nil {
		return fmt.Errorf("invalid webhook URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("webhook URL must use http or https, got %q", u.Scheme)
	}
	return nil
}

// ValidateHTTPConfig checks if the HTTP configurations have valid values.
func ValidateHTTPConfig(httpConfig *HTTPClient) error {
	if httpConfig == nil {
		return fmt.Errorf("HTTP configuration is nil")
	}
	if httpConfig.RetryCount < 0 || httpConfig.RetryCount > 20 {
		return fmt.Errorf("retry_count must be between 0 and 20: %d", httpConfig.RetryCount)
	}

	durations := map[string]time.Duration{
		"RetryMaxWaitTime": httpConfig.RetryMaxWaitTime,
		"RetryWaitTime":    httpConfig.RetryWaitTime,
		"Timeout":          httpConfig.Timeout,
	}
	for name, duration := range durations {
		if err := validateDuration(duration, name, 100*time.Second); err != nil {
			return err
		}
	}

	if err := validateProxy(&httpConfig.Proxy); err != nil {
		return err
	}

	return nil
}

// validateDuration checks that a time.Duration is valid and within a specified maximum duration.
func validateDuration(d time.Duration, name string, max time.Duration) error {
	if d < 0 {
		return fmt.Errorf("invalid duration for %q: %v cannot be negative", name, d)
	}
	if d > max {
		return fmt.Errorf("%q duration is too long: %v exceeds maximum of %v", name, d, max)
	}
	return nil
}

// validateProxy checks if the given Proxy settings are valid.
func validateProxy(proxy *Proxy) error {
	if proxy == nil {
		return fmt.Errorf("proxy configuration is nil")
	}

	// If host or port is not set, skip further validation
	if proxy.Host == "" || proxy.Port == 0 {
		return nil
	}

	if err := validateHost(&proxy.Host); err != nil {
		return err
	}

	return validatePort(proxy.Port)
}

// validateHost ensures the host includes a scheme; adds "http" if missing.
func validateHost(host *string) error {
	if host == nil {
		return fmt.Errorf("host string pointer is nil")
	}

	if !strings.Contains(*host, "://") {
		*host = "http://" + *host
	}
	*host = strings.TrimRight(*host, "/")

	if _, err := url.Parse(*host); err != nil {
		return fmt.Errorf("invalid host URL: %w", err)
	}

	return nil
}

func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

// updateHome sets the home folder from LEAKSCAN_HOME or the user home directory.
func updateHome(cfg *Config) error {
	if homeFolder := os.Getenv("LEAKSCAN_HOME"); homeFolder != "" {
		cfg.Leakscan.HomeFolder = homeFolder
	} else if cfg.Leakscan.HomeFolder == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("unable to get user home folder: %w", err)
		}
		cfg.Leakscan.HomeFolder = filepath.Join(userHome, ".leakscan")
	}

	expandedHomePath, err := files.ExpandPath(cfg.Leakscan.HomeFolder)
	if err != nil {
		return fmt.Errorf("failed to expand new home path %q: %w", cfg.Leakscan.HomeFolder, err)
	}
	cfg.Leakscan.HomeFolder = expandedHomePath

	if err := files.CreateFolderIfNotExists(expandedHomePath); err != nil {
		return fmt.Errorf("failed to create home folder %q: %w", cfg.Leakscan.HomeFolder, err)
	}
	return nil
}

// updateFolder resolves a folder from an env var, the config value or a default under home.
func updateFolder(folder *string, envVar, defaultSubFolder string, cfg *Config) error {
	if envVarValue := os.Getenv(envVar); envVarValue != "" {
		*folder = envVarValue
	} else if *folder == "" {
		*folder = filepath.Join(cfg.Leakscan.HomeFolder, defaultSubFolder)
	}

	expandedPath, err := files.ExpandPath(*folder)
	if err != nil {
		return fmt.Errorf("failed to expand path %q: %w", *folder, err)
	}
	*folder = expandedPath

	if err := files.CreateFolderIfNotExists(expandedPath); err != nil {
		return fmt.Errorf("failed to create folder %q: %w", expandedPath, err)
	}
	return nil
}
