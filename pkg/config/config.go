package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Embedding struct {
		BaseURL   string  `yaml:"base_url"`
		Model     string  `yaml:"model"`
		Dimension int     `yaml:"dimension"`
		BatchSize int     `yaml:"batch_size"`
		RateLimit float64 `yaml:"rate_limit"`
	} `yaml:"embedding"`

	Database struct {
		URL        string `yaml:"url"`
		TableName  string `yaml:"table_name"`
		CacheTable string `yaml:"cache_table"`
		Backend    string `yaml:"backend"`
	} `yaml:"database"`

	Chunking struct {
		TargetWords           int     `yaml:"target_words"`
		MaxWords              int     `yaml:"max_words"`
		OverlapSentences      int     `yaml:"overlap_sentences"`
		SemanticThreshold     float64 `yaml:"semantic_threshold"`
		UseSemanticBoundaries bool    `yaml:"use_semantic_boundaries"`
	} `yaml:"chunking"`

	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/reglex/config.yaml"),
			"/etc/reglex/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.Embedding.Model == "" {
		config.Embedding.Model = "nomic-embed-text"
	}
	if config.Embedding.BaseURL == "" {
		config.Embedding.BaseURL = "http://localhost:11434"
	}
	if config.Embedding.Dimension == 0 {
		config.Embedding.Dimension = 768
	}
	if config.Embedding.BatchSize == 0 {
		config.Embedding.BatchSize = 32
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "chunks"
	}
	if config.Database.CacheTable == "" {
		config.Database.CacheTable = "embedding_cache"
	}
	if config.Database.Backend == "" {
		config.Database.Backend = "postgres"
	}

	if config.Chunking.TargetWords == 0 {
		config.Chunking.TargetWords = 300
	}
	if config.Chunking.MaxWords == 0 {
		config.Chunking.MaxWords = 500
	}
	if config.Chunking.OverlapSentences == 0 {
		config.Chunking.OverlapSentences = 2
	}
	if config.Chunking.SemanticThreshold == 0 {
		config.Chunking.SemanticThreshold = 0.55
	}

	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.Embedding.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
}
