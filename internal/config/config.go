package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	NLI       NLIConfig       `yaml:"nli" mapstructure:"nli"`
	OCR       OCRConfig       `yaml:"ocr" mapstructure:"ocr"`
	Ingest    IngestConfig    `yaml:"ingest" mapstructure:"ingest"`
	Evaluate  EvaluateConfig  `yaml:"evaluate" mapstructure:"evaluate"`
	Report    ReportConfig    `yaml:"report" mapstructure:"report"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key               string  `yaml:"key" mapstructure:"key"`
	Model             string  `yaml:"model" mapstructure:"model"`
	MaxTokens         int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature       float64 `yaml:"temperature" mapstructure:"temperature"`
	RequestsPerMinute int     `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// NLIConfig points at the local inference server hosting the entailment
// cross-encoder and the sentence embedding model.
type NLIConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	EmbedURL    string `yaml:"embed_url" mapstructure:"embed_url"`
	Model       string `yaml:"model" mapstructure:"model"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// OCRConfig configures PDF text extraction.
type OCRConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	MistralKey    string `yaml:"mistral_api_key" mapstructure:"mistral_api_key"`
	MistralModel  string `yaml:"mistral_model" mapstructure:"mistral_model"`
}

// IngestConfig configures chunking and the extraction prompt context.
type IngestConfig struct {
	ChunkSize       int      `yaml:"chunk_size" mapstructure:"chunk_size"`
	ChunkOverlap    int      `yaml:"chunk_overlap" mapstructure:"chunk_overlap"`
	MaxContextChars int      `yaml:"max_context_chars" mapstructure:"max_context_chars"`
	Keywords        []string `yaml:"keywords" mapstructure:"keywords"`
	CacheTTLHours   int      `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// EvaluateConfig configures drift scoring.
type EvaluateConfig struct {
	EntailmentThreshold float64 `yaml:"entailment_threshold" mapstructure:"entailment_threshold"`
	Relevance           bool    `yaml:"relevance" mapstructure:"relevance"`
	MandatePath         string  `yaml:"mandate_path" mapstructure:"mandate_path"`
	PassageChars        int     `yaml:"passage_chars" mapstructure:"passage_chars"`
}

// ReportConfig configures the rendered artifacts.
type ReportConfig struct {
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
	Title     string `yaml:"title" mapstructure:"title"`
	FocusArea string `yaml:"focus_area" mapstructure:"focus_area"`
}

// BatchConfig configures multi-document runs.
type BatchConfig struct {
	MaxConcurrentDocuments int `yaml:"max_concurrent_documents" mapstructure:"max_concurrent_documents"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DRIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("anthropic.key", "DRIFT_ANTHROPIC_KEY", "ANTHROPIC_API_KEY"); err != nil {
		return nil, eris.Wrap(err, "config: bind anthropic key")
	}

	// Defaults
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("anthropic.temperature", 0.0)
	v.SetDefault("anthropic.requests_per_minute", 30)
	v.SetDefault("nli.base_url", "http://localhost:8081")
	v.SetDefault("nli.model", "cross-encoder/nli-deberta-v3-small")
	v.SetDefault("nli.timeout_secs", 60)
	v.SetDefault("ocr.provider", "local")
	v.SetDefault("ocr.pdftotext_path", "pdftotext")
	v.SetDefault("ocr.mistral_model", "mistral-ocr-latest")
	v.SetDefault("ingest.chunk_size", 2000)
	v.SetDefault("ingest.chunk_overlap", 200)
	v.SetDefault("ingest.max_context_chars", 40000)
	v.SetDefault("ingest.keywords", []string{"principle 6", "emission", "ghg", "water", "waste"})
	v.SetDefault("ingest.cache_ttl_hours", 24*30)
	v.SetDefault("evaluate.entailment_threshold", 0.8)
	v.SetDefault("evaluate.relevance", false)
	v.SetDefault("evaluate.passage_chars", 1500)
	v.SetDefault("report.output_dir", "output")
	v.SetDefault("report.title", "BRSR Faithfulness Audit Report")
	v.SetDefault("report.focus_area", "Principle 6 (Environmental Responsibilities)")
	v.SetDefault("batch.max_concurrent_documents", 1)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "drift-audit.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on and reports every
// problem at once. Modes: "audit" (extraction and scoring), "extract",
// "evaluate" and "store".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "audit":
		errs = append(errs, c.validateExtract()...)
		errs = append(errs, c.validateEvaluate()...)
	case "extract":
		errs = append(errs, c.validateExtract()...)
	case "evaluate":
		errs = append(errs, c.validateEvaluate()...)
	case "store":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
		errs = append(errs, fmt.Sprintf("store.driver %q must be sqlite or postgres", c.Store.Driver))
	}
	if c.Batch.MaxConcurrentDocuments < 1 || c.Batch.MaxConcurrentDocuments > 16 {
		errs = append(errs, "batch.max_concurrent_documents must be between 1 and 16")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateExtract() []string {
	var errs []string
	if c.Anthropic.Key == "" {
		errs = append(errs, "anthropic.key is required (DRIFT_ANTHROPIC_KEY or ANTHROPIC_API_KEY)")
	}
	if c.Ingest.ChunkSize <= 0 {
		errs = append(errs, "ingest.chunk_size must be > 0")
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		errs = append(errs, "ingest.chunk_overlap must be in [0, chunk_size)")
	}
	if c.Ingest.MaxContextChars <= 0 {
		errs = append(errs, "ingest.max_context_chars must be > 0")
	}
	return errs
}

func (c *Config) validateEvaluate() []string {
	var errs []string
	if c.NLI.BaseURL == "" {
		errs = append(errs, "nli.base_url is required")
	}
	if c.Evaluate.EntailmentThreshold <= 0 || c.Evaluate.EntailmentThreshold > 1 {
		errs = append(errs, "evaluate.entailment_threshold must be in (0, 1]")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
