package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for ImmigrationIQ.
type Config struct {
	Corpus    CorpusConfig    `yaml:"corpus"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	LLM       LLMConfig       `yaml:"llm"`
	Classify  ClassifyConfig  `yaml:"classify"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// CorpusConfig holds source-document configuration.
type CorpusConfig struct {
	Dir          string   `yaml:"dir"`
	ManifestPath string   `yaml:"manifest_path"`
	Includes     []string `yaml:"includes"`
	Excludes     []string `yaml:"excludes"`
	MinPageChars int      `yaml:"min_page_chars"`
}

// IndexConfig holds chunking and index-location configuration.
type IndexConfig struct {
	Path         string `yaml:"path"`
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`    // "openai", "ollama", "mock"
	Model     string `yaml:"model"`       // e.g., "text-embedding-3-small"
	APIKeyEnv string `yaml:"api_key_env"` // Environment variable for API key
	BaseURL   string `yaml:"base_url"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK          int           `yaml:"top_k"`
	MMRLambda     float64       `yaml:"mmr_lambda"`
	CandidatePool int           `yaml:"candidate_pool"` // multiplier over top_k
	CacheSize     int           `yaml:"cache_size"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
}

// LLMConfig holds completion-service configuration.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // "groq", "openai", "gemini", "mock"
	Model       string  `yaml:"model"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// ClassifyConfig holds the structured-extraction retry policy.
type ClassifyConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseBackoff time.Duration `yaml:"base_backoff"`
	MaxBackoff  time.Duration `yaml:"max_backoff"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Dir:          "data/uscis_pdfs",
			ManifestPath: "data/forms.yaml",
			Includes:     []string{"**/*.pdf", "**/*.txt"},
			Excludes:     []string{"**/.*/**"},
			MinPageChars: 50,
		},
		Index: IndexConfig{
			Path:         filepath.Join(".immigrationiq", "index.db"),
			ChunkSize:    800,
			ChunkOverlap: 150,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
			BatchSize: 100,
		},
		Retrieve: RetrieveConfig{
			TopK:          4,
			MMRLambda:     0.7,
			CandidatePool: 4,
			CacheSize:     100,
			CacheTTL:      5 * time.Minute,
		},
		LLM: LLMConfig{
			Provider:    "groq",
			Model:       "llama-3.1-8b-instant",
			APIKeyEnv:   "GROQ_API_KEY",
			Temperature: 0.1,
			MaxTokens:   2048,
		},
		Classify: ClassifyConfig{
			MaxAttempts: 3,
			BaseBackoff: 2 * time.Second,
			MaxBackoff:  10 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for immigrationiq.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "immigrationiq.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".immigrationiq", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IndexPath resolves the index database path against the working directory.
func (c *Config) IndexPath(dir string) string {
	if filepath.IsAbs(c.Index.Path) {
		return c.Index.Path
	}
	return filepath.Join(dir, c.Index.Path)
}

// EnsureStateDir ensures the directory holding the index exists.
func (c *Config) EnsureStateDir(dir string) error {
	return os.MkdirAll(filepath.Dir(c.IndexPath(dir)), 0755)
}
