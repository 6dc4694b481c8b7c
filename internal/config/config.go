package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the application's configuration.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Type string `yaml:"type"` // "sqlite" or "postgres"
		Path string `yaml:"path"` // SQLite file path
		URL  string `yaml:"url"`  // PostgreSQL connection URL
	} `yaml:"database"`

	HF struct {
		APIKey     string `yaml:"api_key"`
		Model      string `yaml:"model"`
		BaseURL    string `yaml:"base_url"`
		MaxRetries int    `yaml:"max_retries"`
	} `yaml:"hf"`

	Tavily struct {
		APIKey     string `yaml:"api_key"`
		MaxResults int    `yaml:"max_results"`
	} `yaml:"tavily"`

	Cache struct {
		PerUser    bool `yaml:"per_user"`
		TTLMinutes int  `yaml:"ttl_minutes"`
	} `yaml:"cache"`

	JWT struct {
		Secret string `yaml:"secret"`
	} `yaml:"jwt"`
}

// LoadConfig reads configuration from the specified YAML file.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	// Set defaults
	if config.Server.Port == "" {
		config.Server.Port = "8000"
	}

	if config.Database.Type == "" {
		config.Database.Type = "sqlite"
	}

	if config.Database.Path == "" {
		config.Database.Path = "./data/news.db"
	}

	if config.HF.Model == "" {
		config.HF.Model = "meta-llama/Llama-3.3-70B-Instruct"
	}

	if config.HF.BaseURL == "" {
		config.HF.BaseURL = "https://router.huggingface.co/v1"
	}

	if config.HF.MaxRetries == 0 {
		config.HF.MaxRetries = 3
	}

	if config.Tavily.MaxResults == 0 {
		config.Tavily.MaxResults = 3
	}

	if config.Cache.TTLMinutes == 0 {
		config.Cache.TTLMinutes = 10
	}

	// Expand environment variables in secrets
	config.HF.APIKey = os.ExpandEnv(config.HF.APIKey)
	config.Tavily.APIKey = os.ExpandEnv(config.Tavily.APIKey)
	config.JWT.Secret = os.ExpandEnv(config.JWT.Secret)
	config.Database.URL = os.ExpandEnv(config.Database.URL)

	if config.JWT.Secret == "" {
		config.JWT.Secret = "supersecretjwtkey"
	}

	return config, nil
}
