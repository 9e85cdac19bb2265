package config

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// DefaultConfigPath is used when no --config flag is given.
const DefaultConfigPath = "config.yml"

type Config struct {
	Logger     Logger     `yaml:"logger"`
	Leakscan   Leakscan   `yaml:"leakscan"`
	Store      Store      `yaml:"store"`
	History    History    `yaml:"history"`
	Notify     Notify     `yaml:"notify"`
	HTTPClient HTTPClient `yaml:"http_client"`
}

type Logger struct {
	Level           string `yaml:"level"`
	DisableTime     *bool  `yaml:"disable_time"`
	JSONFormat      *bool  `yaml:"json_format"`
	IncludeLocation *bool  `yaml:"include_location"`
}

// Leakscan holds core folders and scan defaults.
type Leakscan struct {
	HomeFolder    string `yaml:"home_folder"`
	ResultsFolder string `yaml:"results_folder"`
	TempFolder    string `yaml:"temp_folder"`
	RulesPath     string `yaml:"rules_path"`
	JadxPath      string `yaml:"jadx_path"`
	Jobs          int    `yaml:"jobs"`
}

// Store selects the backend used to keep published baselines.
type Store struct {
	Type string  `yaml:"type"`
	S3   S3Store `yaml:"s3"`
}

type S3Store struct {
	Bucket string `yaml:"bucket"`
	Region string `yaml:"region"`
	Prefix string `yaml:"prefix"`
}

// History controls committing every published baseline into a git repository
// rooted at the results folder.
type History struct {
	Enabled     *bool  `yaml:"enabled"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

type Notify struct {
	WebhookURL string `yaml:"webhook_url"`
}

type HTTPClient struct {
	Debug            *bool           `yaml:"debug"`
	RetryCount       int             `yaml:"retry_count"`
	RetryWaitTime    time.Duration   `yaml:"retry_wait_time"`
	RetryMaxWaitTime time.Duration   `yaml:"retry_max_wait_time"`
	Timeout          time.Duration   `yaml:"timeout"`
	TLSClientConfig  TLSClientConfig `yaml:"tls_client_config"`
	Proxy            Proxy           `yaml:"proxy"`
}

type TLSClientConfig struct {
	Verify *bool `yaml:"verify"`
}

type Proxy struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ValidateConfigPath checks that path points to a file.
func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a file", path)
	}
	return nil
}

// LoadYAML decodes the YAML document at configPath into data.
func LoadYAML(configPath string, data interface{}) error {
	if err := ValidateConfigPath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(data); err != nil {
		return err
	}

	return nil
}

// LoadConfig reads the configuration file. A missing file is tolerated only
// when it is the implicit default path, in which case an empty config is returned
// and ValidateConfig fills in the defaults.
func LoadConfig(configPath string, explicit bool) (*Config, error) {
	config := &Config{}

	if !explicit {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return config, nil
		}
	}

	if err := LoadYAML(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to load config %q: %w", configPath, err)
	}

	return config, nil
}
