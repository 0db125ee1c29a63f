package config

import (
	"os"
	"path/filepath"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Session SessionConfig
	Ollama  OllamaConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
}

type StorageConfig struct {
	DataDir string
}

type SessionConfig struct {
	// DurableTTL is how long the durable tier retains a session,
	// as a Go duration string.
	DurableTTL string
	// MemoryTTL bounds the volatile tier; the periodic sweep enforces it.
	MemoryTTL string
}

type OllamaConfig struct {
	// Enabled switches the extractor and responder from the rule-based
	// implementations to the local model.
	Enabled bool
	BaseURL string
	Model   string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4600,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Session: SessionConfig{
			DurableTTL: "24h",
			MemoryTTL:  "24h",
		},
		Ollama: OllamaConfig{
			Enabled: false,
			BaseURL: "http://localhost:11434",
			Model:   "phi3.5",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file backend at
// $XDG_CONFIG_HOME/scena/config.json, then applies SCENA_* environment
// variable overrides.
func Load() (Config, error) {
	return loadWith(newFileBackend())
}

func loadWith(b Backend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "scena-data"
		}
	}
	return filepath.Join(dir, "scena")
}
