package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/TobiSchelling/veritas/internal/analyzer"
	"github.com/TobiSchelling/veritas/internal/extract"
	"github.com/TobiSchelling/veritas/internal/llm"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Gemini     Gemini     `yaml:"gemini"`
	Analysis   Analysis   `yaml:"analysis"`
	Extraction Extraction `yaml:"extraction"`
	Server     Server     `yaml:"server"`
	Output     Output     `yaml:"output"`
	Logging    Logging    `yaml:"logging"`
}

type Gemini struct {
	APIKeyEnv            string        `yaml:"api_key_env"`
	PrimaryURLs          []string      `yaml:"primary_urls"`
	SecondaryURLs        []string      `yaml:"secondary_urls"`
	DefaultURL           string        `yaml:"default_url"`
	Timeout              time.Duration `yaml:"timeout"`
	MaxOutputTokens      int           `yaml:"max_output_tokens"`
	ExtendedOutputTokens int           `yaml:"extended_output_tokens"`
}

type Analysis struct {
	MinTextLength int `yaml:"min_text_length"`
	MaxTextLength int `yaml:"max_text_length"`
	PreviewLength int `yaml:"preview_length"`
	MaxURLWords   int `yaml:"max_url_words"`
	MinFileWords  int `yaml:"min_file_words"`
	MaxFileWords  int `yaml:"max_file_words"`
}

type Extraction struct {
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	MaxFileBytes int64         `yaml:"max_file_bytes"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for veritas.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "veritas")
}

// DataDir returns the XDG data directory for veritas.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "veritas")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/veritas/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'veritas init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file, then loads any .env file found
// beside it or in the working directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	LoadDotEnv(filepath.Dir(path))
	return cfg, nil
}

// Default returns the embedded default configuration.
func Default() *Config {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded default config: %v", err))
	}
	return cfg
}

// LoadDotEnv loads .env from each directory and the working directory.
// Variables already set in the environment are left alone.
func LoadDotEnv(dirs ...string) {
	seen := map[string]bool{}
	for _, dir := range append(dirs, ".") {
		path := filepath.Join(dir, ".env")
		if seen[path] {
			continue
		}
		seen[path] = true
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
		}
	}
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Gemini: Gemini{
			APIKeyEnv:            "GEMINI_API_KEY",
			DefaultURL:           "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash:generateContent",
			Timeout:              30 * time.Second,
			MaxOutputTokens:      2048,
			ExtendedOutputTokens: 4096,
		},
		Analysis: Analysis{
			MinTextLength: 50,
			MaxTextLength: 10000,
			PreviewLength: 200,
			MaxURLWords:   500,
			MinFileWords:  10,
			MaxFileWords:  800,
		},
		Extraction: Extraction{
			Timeout:      15 * time.Second,
			MaxFileBytes: 10 << 20,
		},
		Server:  Server{Port: 8000, RequestTimeout: 120 * time.Second},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// DBPath returns the report history database path.
func (c *Config) DBPath() string {
	return filepath.Join(c.GetDataDir(), "veritas.db")
}

// APIKey reads the model API key from the configured environment variable.
func (c *Config) APIKey() string {
	return os.Getenv(c.Gemini.APIKeyEnv)
}

// Endpoints resolves the model endpoint lists and key.
func (c *Config) Endpoints() llm.Endpoints {
	g := c.Gemini
	return llm.NewEndpoints(g.PrimaryURLs, g.SecondaryURLs, g.DefaultURL, c.APIKey(), g.Timeout)
}

// AnalyzerOptions returns the analyzer limits.
func (c *Config) AnalyzerOptions() analyzer.Options {
	return analyzer.Options{
		MinTextLength:        c.Analysis.MinTextLength,
		MaxTextLength:        c.Analysis.MaxTextLength,
		PreviewLength:        c.Analysis.PreviewLength,
		MaxURLWords:          c.Analysis.MaxURLWords,
		MaxOutputTokens:      c.Gemini.MaxOutputTokens,
		ExtendedOutputTokens: c.Gemini.ExtendedOutputTokens,
	}
}

// ExtractOptions returns the content extraction limits.
func (c *Config) ExtractOptions() extract.Options {
	return extract.Options{
		Timeout:      c.Extraction.Timeout,
		UserAgent:    c.Extraction.UserAgent,
		MaxFileBytes: c.Extraction.MaxFileBytes,
		MinFileWords: c.Analysis.MinFileWords,
		MaxFileWords: c.Analysis.MaxFileWords,
	}
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
