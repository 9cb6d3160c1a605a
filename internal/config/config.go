// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads the digest run configuration from defaults, an
// optional YAML file, the environment and the .secrets/ directory, and
// validates it before any network activity.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-digest/internal/observability"
	"github.com/pdiddy/paper-digest/internal/secrets"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// EnvPrefix prefixes every environment override (PAPER_DIGEST_SEARCH_LOOKBACK_DAYS, ...).
const EnvPrefix = "PAPER_DIGEST"

// ConfigFileEnv names an explicit config file, replacing the search path.
const ConfigFileEnv = EnvPrefix + "_CONFIG"

// ErrMissingSecrets is returned when required credentials are absent.
var ErrMissingSecrets = errors.New("missing required configuration")

// ErrInvalid is returned when a configured value is out of range.
var ErrInvalid = errors.New("invalid configuration")

// Config is the complete configuration of one digest run.
type Config struct {
	types.PipelineConfig `mapstructure:",squash"`

	Logging observability.LoggingConfig `mapstructure:"logging"`

	// SecretsDir holds one file per credential (default ".secrets").
	SecretsDir string `mapstructure:"secrets_dir"`
}

// secretBinding ties a config key to its conventional environment names
// and its file in the secrets directory.
type secretBinding struct {
	key  string
	env  []string
	file string
}

var secretBindings = []secretBinding{
	{key: "knowledge_base.notion_token", env: []string{"NOTION_TOKEN"}, file: "notion-token"},
	{key: "knowledge_base.database_id", env: []string{"DATABASE_ID", "DATABASE_ID_MP"}, file: "database-id"},
	{key: "analysis.google_api_key", env: []string{"GOOGLE_API_KEY"}, file: "google-api-key"},
	{key: "analysis.openai_api_key", env: []string{"OPENAI_API_KEY"}, file: "openai-api-key"},
	{key: "search.semantic_scholar_api_key", env: []string{"SEMANTICSCHOLAR_API_KEY"}, file: "semantic-scholar-api-key"},
	{key: "notify.telegram_token", env: []string{"TELEGRAM_BOT_TOKEN"}, file: "telegram-bot-token"},
}

// Load builds the configuration. Precedence, highest first: environment,
// config file, secrets directory, defaults. A missing config file is not
// an error.
func Load(logger zerolog.Logger) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, b := range secretBindings {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(b.key, ".", "_"))
		if err := v.BindEnv(append([]string{b.key, prefixed}, b.env...)...); err != nil {
			return nil, fmt.Errorf("binding %s: %w", b.key, err)
		}
	}

	if file := os.Getenv(ConfigFileEnv); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("paper-digest")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "paper-digest"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		logger.Debug().Str("file", v.ConfigFileUsed()).Msg("using config file")
	}

	store, err := secrets.Load(v.GetString("secrets_dir"), logger)
	if err != nil {
		return nil, err
	}
	if keys := store.Keys(); len(keys) > 0 {
		logger.Debug().Strs("secrets", keys).Msg("loaded secrets")
	}
	for _, b := range secretBindings {
		if val := store.Get(b.file); val != "" {
			v.SetDefault(b.key, val)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("secrets_dir", ".secrets")
	v.SetDefault("report_path", "")
	v.SetDefault("metrics_textfile", "")
	v.SetDefault("bibliography_path", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.time_format", time.RFC3339)

	v.SetDefault("search.keywords", []string{"Multi Party", "Multi Party Dialogues", "Multi speaker", "Multi speakers"})
	v.SetDefault("search.lookback_days", 360)
	v.SetDefault("search.max_results", 50)
	v.SetDefault("search.keyword_delay", time.Second)
	v.SetDefault("search.arxiv_categories", []string{"cs.CL", "cs.AI", "cs.LG", "cs.SD"})
	v.SetDefault("search.semantic_scholar_fields", []string{"Computer Science", "Linguistics", "Engineering"})
	v.SetDefault("search.openalex", false)
	v.SetDefault("search.openalex_fields", []string{"Computer Science", "Linguistics", "Engineering"})
	v.SetDefault("search.openalex_email", "")
	v.SetDefault("search.timeout", 15*time.Second)
	v.SetDefault("search.user_agent", DefaultUserAgent)

	v.SetDefault("acquisition.timeout", 30*time.Second)
	v.SetDefault("acquisition.user_agent", DefaultUserAgent)
	v.SetDefault("acquisition.max_bytes", 50<<20)

	v.SetDefault("analysis.provider", string(types.ProviderGemini))
	v.SetDefault("analysis.models", []string{"gemini-2.5-pro", "gemini-2.5-flash", "gemini-2.0-flash", "gemini-2.5-flash-lite"})
	v.SetDefault("analysis.research_area", DefaultResearchArea)
	v.SetDefault("analysis.overload_backoff", 30*time.Second)
	v.SetDefault("analysis.max_overload_retries", 0)
	v.SetDefault("analysis.quota_switch_delay", 2*time.Second)
	v.SetDefault("analysis.paper_delay", time.Second)
	v.SetDefault("analysis.field_limit", 2000)

	v.SetDefault("knowledge_base.backend", string(types.KnowledgeNotion))
	v.SetDefault("knowledge_base.sqlite_path", "paper-digest.db")
	v.SetDefault("knowledge_base.write_delay", 500*time.Millisecond)
	v.SetDefault("knowledge_base.timeout", 15*time.Second)
	v.SetDefault("knowledge_base.user_agent", DefaultUserAgent)

	v.SetDefault("notify.chat_id", 0)
}

// DefaultUserAgent identifies the client to every external service.
const DefaultUserAgent = "paper-digest/0.1 (+github.com/pdiddy/paper-digest)"

// DefaultResearchArea is the interest statement embedded in the analysis prompt.
const DefaultResearchArea = "My research focuses on developing full duplex spoken language model " +
	"that understands the multi-party conversation and situations"

// requirements flattens the fields that startup validation checks. The
// key tag is the name reported when a check fails.
type requirements struct {
	Backend    string `key:"knowledge_base.backend" validate:"oneof=notion sqlite"`
	Provider   string `key:"analysis.provider" validate:"oneof=gemini openai"`
	SQLitePath string `key:"knowledge_base.sqlite_path" validate:"required_if=Backend sqlite"`

	NotionToken           string `key:"NOTION_TOKEN" validate:"required_if=Backend notion"`
	DatabaseID            string `key:"DATABASE_ID" validate:"required_if=Backend notion"`
	GoogleAPIKey          string `key:"GOOGLE_API_KEY" validate:"required_if=Provider gemini"`
	OpenAIAPIKey          string `key:"OPENAI_API_KEY" validate:"required_if=Provider openai"`
	SemanticScholarAPIKey string `key:"SEMANTICSCHOLAR_API_KEY" validate:"required"`

	Keywords     []string `key:"search.keywords" validate:"min=1,dive,required"`
	Models       []string `key:"analysis.models" validate:"min=1,dive,required"`
	LookbackDays int      `key:"search.lookback_days" validate:"gte=0"`
	MaxResults   int      `key:"search.max_results" validate:"gte=0"`
	FieldLimit   int      `key:"analysis.field_limit" validate:"gte=0"`
	LogLevel     string   `key:"logging.level" validate:"oneof=trace debug info warn error"`
	LogFormat    string   `key:"logging.format" validate:"oneof=console json"`
}

// secretKeys are the requirement names reported as missing secrets rather
// than invalid values.
var secretKeys = map[string]bool{
	"NOTION_TOKEN":            true,
	"DATABASE_ID":             true,
	"GOOGLE_API_KEY":          true,
	"OPENAI_API_KEY":          true,
	"SEMANTICSCHOLAR_API_KEY": true,
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("key")
	})
	return v
}

// Validate reports every missing secret by its environment name, sorted,
// wrapped in ErrMissingSecrets. Otherwise it reports out-of-range values
// wrapped in ErrInvalid.
func (c *Config) Validate() error {
	req := requirements{
		Backend:               string(c.KnowledgeBase.Backend),
		Provider:              string(c.Analysis.Provider),
		SQLitePath:            c.KnowledgeBase.SQLitePath,
		NotionToken:           c.KnowledgeBase.NotionToken,
		DatabaseID:            c.KnowledgeBase.DatabaseID,
		GoogleAPIKey:          c.Analysis.GoogleAPIKey,
		OpenAIAPIKey:          c.Analysis.OpenAIAPIKey,
		SemanticScholarAPIKey: c.Search.SemanticScholarAPIKey,
		Keywords:              c.Search.Keywords,
		Models:                c.Analysis.Models,
		LookbackDays:          c.Search.LookbackDays,
		MaxResults:            c.Search.MaxResults,
		FieldLimit:            c.Analysis.FieldLimit,
		LogLevel:              strings.ToLower(c.Logging.Level),
		LogFormat:             strings.ToLower(c.Logging.Format),
	}

	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}

	var missing, invalid []string
	for _, fe := range verrs {
		name := fe.Field()
		if i := strings.Index(name, "["); i >= 0 {
			name = name[:i]
		}
		if secretKeys[name] {
			missing = append(missing, name)
			continue
		}
		invalid = append(invalid, fmt.Sprintf("%s (%s)", name, describe(fe)))
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: %s", ErrMissingSecrets, strings.Join(missing, ", "))
	}
	sort.Strings(invalid)
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(invalid, ", "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return "must be one of: " + fe.Param()
	case "required", "required_if":
		return "required"
	case "min":
		return "needs at least " + fe.Param() + " entries"
	case "gte":
		return "must be >= " + fe.Param()
	default:
		return fe.Tag()
	}
}
