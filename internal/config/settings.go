package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sha1n/lexsearch/internal/corpus"
	"github.com/sha1n/lexsearch/internal/domain"
	"github.com/sha1n/lexsearch/internal/fuzzy"
	"github.com/sha1n/lexsearch/internal/search"
	"github.com/sha1n/lexsearch/internal/summarize"
)

// EnvPrefix prefixes every environment variable read by the application.
const EnvPrefix = "LEXSEARCH"

// Transport constants
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// Log format constants
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// CorpusSettings configuration for corpus sources
type CorpusSettings struct {
	Sources         []string      `mapstructure:"sources"`
	DuplicatePolicy string        `mapstructure:"duplicate_policy"`
	Watch           bool          `mapstructure:"watch"`
	WatchDebounce   time.Duration `mapstructure:"watch_debounce"`
}

// SearchSettings configuration for the fuzzy index
type SearchSettings struct {
	Engine         string   `mapstructure:"engine"` // fuzzy.EngineScan or fuzzy.EngineBleve
	Threshold      float64  `mapstructure:"threshold"`
	MaxResults     int      `mapstructure:"max_results"`
	Fields         []string `mapstructure:"fields"`
	MaxQueryLength int      `mapstructure:"max_query_length"`
	CandidateLimit int      `mapstructure:"candidate_limit"`
}

// SummarizeSettings configuration for document summarization
type SummarizeSettings struct {
	Provider     string        `mapstructure:"provider"`
	Model        string        `mapstructure:"model"`
	BaseURL      string        `mapstructure:"base_url"`
	APIKey       string        `mapstructure:"api_key"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Instruction  string        `mapstructure:"instruction"`
	DocumentsDir string        `mapstructure:"documents_dir"`
	MaxSentences int           `mapstructure:"max_sentences"`
}

// Settings application settings
type Settings struct {
	Transport string            `mapstructure:"transport"`
	Host      string            `mapstructure:"host"`
	Port      int               `mapstructure:"port"`
	LogLevel  string            `mapstructure:"log_level"`
	LogFormat string            `mapstructure:"log_format"`
	Corpus    CorpusSettings    `mapstructure:"corpus"`
	Search    SearchSettings    `mapstructure:"search"`
	Summarize SummarizeSettings `mapstructure:"summarize"`
}

// flagBindings maps setting keys to CLI flag names.
var flagBindings = map[string]string{
	"transport":               "transport",
	"host":                    "host",
	"port":                    "port",
	"log_level":               "log-level",
	"log_format":              "log-format",
	"corpus.sources":          "corpus",
	"corpus.watch":            "watch",
	"search.engine":           "engine",
	"search.threshold":        "threshold",
	"search.max_results":      "max-results",
	"summarize.provider":      "llm-provider",
	"summarize.model":         "llm-model",
	"summarize.documents_dir": "documents-dir",
}

// LoadSettings loads settings from environment variables and optional .env file
func LoadSettings() (*Settings, error) {
	return LoadSettingsWithFlags(nil)
}

// LoadSettingsWithFlags loads settings with optional CLI flag overrides.
// Priority: CLI flags > environment variables > config file > defaults.
// A .env file in the working directory is loaded into the environment first.
// If flags is nil, only env vars, the config file and defaults are used.
func LoadSettingsWithFlags(flags *pflag.FlagSet) (*Settings, error) {
	// Ignore error if .env doesn't exist; existing variables win
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	// Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range v.AllKeys() {
		_ = v.BindEnv(key, envName(key))
	}

	// Bind CLI flags if provided (highest priority)
	if flags != nil {
		for key, name := range flagBindings {
			if f := flags.Lookup(name); f != nil {
				_ = v.BindPFlag(key, f)
			}
		}
	}

	if path := configFile(flags); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}

	// Comma-separated lists from env vars arrive as a single element
	settings.Corpus.Sources = splitList(settings.Corpus.Sources)
	settings.Search.Fields = splitList(settings.Search.Fields)

	settings.LogLevel = strings.ToLower(strings.TrimSpace(settings.LogLevel))
	settings.Summarize.Provider = strings.ToLower(strings.TrimSpace(settings.Summarize.Provider))
	if settings.Summarize.APIKey == "" {
		settings.Summarize.APIKey = providerAPIKey(settings.Summarize.Provider)
	}

	return &settings, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("transport", TransportHTTP)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 3001)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", LogFormatText)

	v.SetDefault("corpus.sources", []string{"data/json"})
	v.SetDefault("corpus.duplicate_policy", corpus.PolicyLastWriteWins)
	v.SetDefault("corpus.watch", false)
	v.SetDefault("corpus.watch_debounce", corpus.DefaultDebounce)

	v.SetDefault("search.engine", fuzzy.EngineScan)
	v.SetDefault("search.threshold", fuzzy.DefaultThreshold)
	v.SetDefault("search.max_results", fuzzy.DefaultLimit)
	v.SetDefault("search.fields", []string{domain.FieldContent})
	v.SetDefault("search.max_query_length", search.DefaultMaxQueryLength)
	v.SetDefault("search.candidate_limit", fuzzy.DefaultCandidateLimit)

	v.SetDefault("summarize.provider", summarize.GeneratorGoogleAI)
	v.SetDefault("summarize.model", "")
	v.SetDefault("summarize.base_url", "")
	v.SetDefault("summarize.api_key", "")
	v.SetDefault("summarize.timeout", summarize.DefaultTimeout)
	v.SetDefault("summarize.instruction", summarize.DefaultInstruction)
	v.SetDefault("summarize.documents_dir", "data/pdf")
	v.SetDefault("summarize.max_sentences", summarize.DefaultMaxSentences)
}

// envName returns the environment variable for a setting key,
// e.g. search.max_results -> LEXSEARCH_SEARCH_MAX_RESULTS.
func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// configFile returns the config file path from the --config flag or env var.
func configFile(flags *pflag.FlagSet) string {
	if flags != nil {
		if f := flags.Lookup("config"); f != nil && f.Value.String() != "" {
			return f.Value.String()
		}
	}
	return os.Getenv(EnvPrefix + "_CONFIG")
}

// providerAPIKey returns the conventional API key variable for provider.
func providerAPIKey(provider string) string {
	switch provider {
	case summarize.GeneratorGoogleAI:
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			return key
		}
		return os.Getenv("GOOGLE_API_KEY")
	case summarize.GeneratorOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	default:
		return ""
	}
}

// APIKeyEnvVar names the environment variable that supplies the API key of
// provider, or "" for providers that need none.
func APIKeyEnvVar(provider string) string {
	switch provider {
	case summarize.GeneratorGoogleAI:
		return "GEMINI_API_KEY"
	case summarize.GeneratorOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

// splitList splits comma-separated entries, trims them and drops empty ones.
func splitList(s []string) []string {
	var result []string
	for _, item := range s {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				result = append(result, part)
			}
		}
	}
	return result
}

// ValidateSettings checks for invalid or conflicting configurations.
func ValidateSettings(s *Settings) error {
	// Validate transport type
	switch s.Transport {
	case TransportHTTP:
		if s.Port <= 0 || s.Port > 65535 {
			return fmt.Errorf("port must be between 1 and 65535, got: %d", s.Port)
		}
	case TransportStdio:
		// valid
	default:
		return errors.New("transport must be 'http' or 'stdio', got: " + s.Transport)
	}

	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("log-level must be one of debug, info, warn, error, got: " + s.LogLevel)
	}
	switch s.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return errors.New("log-format must be 'text' or 'json', got: " + s.LogFormat)
	}

	if err := validateCorpusSettings(&s.Corpus); err != nil {
		return err
	}
	if err := validateSearchSettings(&s.Search); err != nil {
		return err
	}
	return validateSummarizeSettings(&s.Summarize)
}

func validateCorpusSettings(c *CorpusSettings) error {
	if len(c.Sources) == 0 {
		return errors.New("at least one corpus source is required (corpus)")
	}
	switch c.DuplicatePolicy {
	case corpus.PolicyLastWriteWins, corpus.PolicyReject:
	default:
		return errors.New("unknown duplicate policy: " + c.DuplicatePolicy)
	}
	if c.Watch && c.WatchDebounce <= 0 {
		return errors.New("corpus watch debounce must be positive")
	}
	return nil
}

func validateSearchSettings(s *SearchSettings) error {
	switch s.Engine {
	case fuzzy.EngineScan, fuzzy.EngineBleve:
	default:
		return errors.New("engine must be 'scan' or 'bleve', got: " + s.Engine)
	}
	if s.Threshold <= 0 || s.Threshold > 1 {
		return fmt.Errorf("threshold must be in (0, 1], got: %g", s.Threshold)
	}
	if s.MaxResults <= 0 {
		return errors.New("max-results must be positive")
	}
	if s.MaxQueryLength <= 0 {
		return errors.New("search max query length must be positive")
	}
	if s.CandidateLimit <= 0 {
		return errors.New("search candidate limit must be positive")
	}
	if len(s.Fields) == 0 {
		return errors.New("at least one search field is required")
	}
	for _, f := range s.Fields {
		if !domain.IsSearchableField(f) {
			return errors.New("unknown search field: " + f)
		}
	}
	return nil
}

var summarizeProviders = []string{
	summarize.GeneratorGoogleAI,
	summarize.GeneratorOpenAI,
	summarize.GeneratorExtractive,
	summarize.GeneratorEcho,
}

func validateSummarizeSettings(s *SummarizeSettings) error {
	if !slices.Contains(summarizeProviders, s.Provider) {
		return fmt.Errorf("llm-provider must be one of %s, got: %s", strings.Join(summarizeProviders, ", "), s.Provider)
	}
	if s.Timeout <= 0 {
		return errors.New("summarize timeout must be positive")
	}
	if s.MaxSentences <= 0 {
		return errors.New("summarize max sentences must be positive")
	}
	return nil
}

// RequiresAPIKey reports whether the configured provider is a hosted model.
func (s *SummarizeSettings) RequiresAPIKey() bool {
	return s.Provider == summarize.GeneratorGoogleAI || s.Provider == summarize.GeneratorOpenAI
}
