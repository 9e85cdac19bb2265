package config

import (
	"reflect"
	"strings"
)

// GetBoolValue retrieves a boolean value from a nested struct based on a dot-separated path.
// It returns the provided defaultValue if the specified field is not explicitly set or is nil.
func GetBoolValue(config interface{}, fieldPath string, defaultValue bool) bool {
	if config == nil {
		return defaultValue
	}

	fields := strings.Split(fieldPath, ".")
	val := reflect.ValueOf(config)

	for _, field := range fields {
		if val.Kind() == reflect.Ptr {
			if val.IsNil() {
				return defaultValue
			}
			val = val.Elem()
		}
		if val.Kind() != reflect.Struct {
			return defaultValue
		}

		val = val.FieldByName(field)
		if !val.IsValid() {
			return defaultValue
		}
	}

	if val.Kind() == reflect.Ptr && !val.IsNil() {
		return val.Elem().Bool()
	} else if val.Kind() == reflect.Bool {
		return val.Bool()
	}

	return defaultValue
}

// SetThen returns value if it is set, otherwise defaultValue.
func SetThen[T any](value T, defaultValue T) T {
	if reflect.ValueOf(&value).Elem().IsZero() {
		return defaultValue
	}
	return value
}

// GetResultsFolder returns the folder holding published baselines.
func GetResultsFolder(cfg *Config) string {
	return cfg.Leakscan.ResultsFolder
}

// GetTempFolder returns the folder used for scan workspaces and staged output.
func GetTempFolder(cfg *Config) string {
	return cfg.Leakscan.TempFolder
}

// GetJadxPath returns the decompiler binary to invoke.
func GetJadxPath(cfg *Config) string {
	return SetThen(cfg.Leakscan.JadxPath, defaultJadxPath)
}

// IsHistoryEnabled reports whether baselines are committed to a git history.
func IsHistoryEnabled(cfg *Config) bool {
	return GetBoolValue(cfg, "History.Enabled", false)
}
