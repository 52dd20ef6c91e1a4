// Package config provides configuration loading for triaged.
//
// Configuration is loaded from a YAML file with environment variable
// overrides. Defaults are applied for every unset field, so a zero-config
// start is always valid.
package config

import (
	"fmt"
	"time"
)

// Config holds the complete triaged configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
	LLM        LLMConfig        `koanf:"llm"`
	Documents  DocumentsConfig  `koanf:"documents"`
	Retrieval  RetrievalConfig  `koanf:"retrieval"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TelemetryConfig holds OpenTelemetry configuration.
type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
	// Endpoint is the OTLP gRPC collector address (host:port).
	Endpoint string `koanf:"endpoint"`
	// Insecure disables TLS; only allowed for local collectors.
	Insecure bool `koanf:"insecure"`
	// SamplingRate is the trace sampling ratio in [0, 1].
	SamplingRate float64 `koanf:"sampling_rate"`
	// ShutdownTimeout bounds the final telemetry flush.
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LLMConfig holds classification/completion service configuration.
type LLMConfig struct {
	APIKey     Secret   `koanf:"api_key"`
	Model      string   `koanf:"model"`
	BaseURL    string   `koanf:"base_url"`
	Timeout    Duration `koanf:"timeout"`
	MaxRetries int      `koanf:"max_retries"`
}

// DocumentsConfig holds document store configuration.
type DocumentsConfig struct {
	// Path is the SQLite database file. The special value ":memory:"
	// selects the ephemeral in-memory store.
	Path string `koanf:"path"`
}

// RetrievalConfig holds retrieval executor configuration.
type RetrievalConfig struct {
	// Path is the directory for persistent vector storage.
	Path string `koanf:"path"`
	// TopK is the number of document chunks fetched per query.
	TopK int `koanf:"top_k"`
	// EmbeddingAPIKey authenticates against the embedding service. When
	// unset, the OPENAI_API_KEY environment variable is used.
	EmbeddingAPIKey Secret `koanf:"embedding_api_key"`
}

// SupervisorConfig holds orchestration engine configuration.
type SupervisorConfig struct {
	// StepTimeout bounds each external call made by a single step.
	StepTimeout Duration `koanf:"step_timeout"`
}

// NewDefaultConfig returns a config with production-ready defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            9180,
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			Enabled:         false,
			ServiceName:     "triaged",
			Endpoint:        "localhost:4317",
			Insecure:        true,
			SamplingRate:    1.0,
			ShutdownTimeout: Duration(5 * time.Second),
		},
		LLM: LLMConfig{
			Model:      "claude-3-5-haiku-20241022",
			BaseURL:    "https://api.anthropic.com",
			Timeout:    Duration(30 * time.Second),
			MaxRetries: 3,
		},
		Documents: DocumentsConfig{
			Path: "~/.local/share/triaged/documents.db",
		},
		Retrieval: RetrievalConfig{
			Path: "~/.local/share/triaged/vectorstore",
			TopK: 5,
		},
		Supervisor: SupervisorConfig{
			StepTimeout: Duration(20 * time.Second),
		},
	}
}

// Validate checks the config for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return fmt.Errorf("server shutdown_timeout must be > 0")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging format must be 'json' or 'console', got %q", c.Logging.Format)
	}
	if c.Telemetry.Enabled {
		if c.Telemetry.Endpoint == "" {
			return fmt.Errorf("telemetry endpoint is required when telemetry is enabled")
		}
		if c.Telemetry.SamplingRate < 0 || c.Telemetry.SamplingRate > 1 {
			return fmt.Errorf("telemetry sampling_rate must be in [0, 1], got %f", c.Telemetry.SamplingRate)
		}
	}
	if c.LLM.Timeout.Duration() <= 0 {
		return fmt.Errorf("llm timeout must be > 0")
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm max_retries must be >= 0, got %d", c.LLM.MaxRetries)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval top_k must be > 0, got %d", c.Retrieval.TopK)
	}
	if c.Supervisor.StepTimeout.Duration() <= 0 {
		return fmt.Errorf("supervisor step_timeout must be > 0")
	}
	return nil
}

// applyDefaults fills unset fields from NewDefaultConfig.
func applyDefaults(cfg *Config) {
	def := NewDefaultConfig()

	if cfg.Server.Host == "" {
		cfg.Server.Host = def.Server.Host
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = def.Server.Port
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = def.Server.ShutdownTimeout
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = def.Telemetry.ServiceName
	}
	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = def.Telemetry.Endpoint
	}
	if cfg.Telemetry.SamplingRate == 0 {
		cfg.Telemetry.SamplingRate = def.Telemetry.SamplingRate
	}
	if cfg.Telemetry.ShutdownTimeout == 0 {
		cfg.Telemetry.ShutdownTimeout = def.Telemetry.ShutdownTimeout
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = def.LLM.Model
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = def.LLM.BaseURL
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = def.LLM.Timeout
	}
	if cfg.LLM.MaxRetries == 0 {
		cfg.LLM.MaxRetries = def.LLM.MaxRetries
	}
	if cfg.Documents.Path == "" {
		cfg.Documents.Path = def.Documents.Path
	}
	if cfg.Retrieval.Path == "" {
		cfg.Retrieval.Path = def.Retrieval.Path
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = def.Retrieval.TopK
	}
	if cfg.Supervisor.StepTimeout == 0 {
		cfg.Supervisor.StepTimeout = def.Supervisor.StepTimeout
	}
}
