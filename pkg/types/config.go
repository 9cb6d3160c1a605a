// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-digest/0.1 (+github.com/pdiddy/paper-digest)").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchConfig holds settings for the collection stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Keywords are the base phrases expanded into literal search variants.
	Keywords []string `json:"keywords" yaml:"keywords" mapstructure:"keywords"`

	// LookbackDays sets the start of the inclusive date window (default 360).
	LookbackDays int `json:"lookback_days" yaml:"lookback_days" mapstructure:"lookback_days"`

	// MaxResults caps results per keyword per source (default 50).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// KeywordDelay is the pause between successive queries to one source (default 1s).
	KeywordDelay time.Duration `json:"keyword_delay" yaml:"keyword_delay" mapstructure:"keyword_delay"`

	// ArxivCategories is the arXiv category allow-list (e.g. "cs.CL").
	ArxivCategories []string `json:"arxiv_categories" yaml:"arxiv_categories" mapstructure:"arxiv_categories"`

	// SemanticScholarFields is the Semantic Scholar fields-of-study allow-list.
	SemanticScholarFields []string `json:"semantic_scholar_fields" yaml:"semantic_scholar_fields" mapstructure:"semantic_scholar_fields"`

	// SemanticScholarAPIKey authenticates Semantic Scholar requests.
	SemanticScholarAPIKey string `json:"-" yaml:"-" mapstructure:"semantic_scholar_api_key"`

	// OpenAlex enables OpenAlex as a third source, queried after the others.
	OpenAlex bool `json:"openalex" yaml:"openalex" mapstructure:"openalex"`

	// OpenAlexFields is the OpenAlex topic-field allow-list.
	OpenAlexFields []string `json:"openalex_fields" yaml:"openalex_fields" mapstructure:"openalex_fields"`

	// OpenAlexEmail is sent with OpenAlex requests for polite pool access.
	OpenAlexEmail string `json:"openalex_email" yaml:"openalex_email" mapstructure:"openalex_email"`
}

// AcquisitionConfig holds settings for document fetching.
type AcquisitionConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxBytes bounds the size of a fetched document (default 50 MiB).
	MaxBytes int64 `json:"max_bytes" yaml:"max_bytes" mapstructure:"max_bytes"`
}

// ModelProvider identifies the generative model API.
type ModelProvider string

const (
	ProviderGemini ModelProvider = "gemini"
	ProviderOpenAI ModelProvider = "openai"
)

// AIConfig holds settings for the analysis stage.
type AIConfig struct {
	// Provider selects the generative model API: gemini or openai.
	Provider ModelProvider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Models is the roster, tried in order as quota runs out.
	Models []string `json:"models" yaml:"models" mapstructure:"models"`

	// GoogleAPIKey authenticates Gemini calls.
	GoogleAPIKey string `json:"-" yaml:"-" mapstructure:"google_api_key"`

	// OpenAIAPIKey authenticates OpenAI calls.
	OpenAIAPIKey string `json:"-" yaml:"-" mapstructure:"openai_api_key"`

	// ResearchArea is the researcher's stated interest embedded in the prompt.
	ResearchArea string `json:"research_area" yaml:"research_area" mapstructure:"research_area"`

	// OverloadBackoff is the wait before retrying an overloaded model (default 30s).
	OverloadBackoff time.Duration `json:"overload_backoff" yaml:"overload_backoff" mapstructure:"overload_backoff"`

	// MaxOverloadRetries bounds same-model retries on overload. Zero retries
	// without bound; a positive value advances the roster once it is spent.
	MaxOverloadRetries int `json:"max_overload_retries" yaml:"max_overload_retries" mapstructure:"max_overload_retries"`

	// QuotaSwitchDelay is the pause after advancing the roster (default 2s).
	QuotaSwitchDelay time.Duration `json:"quota_switch_delay" yaml:"quota_switch_delay" mapstructure:"quota_switch_delay"`

	// PaperDelay is the pause between successive paper analyses (default 1s).
	PaperDelay time.Duration `json:"paper_delay" yaml:"paper_delay" mapstructure:"paper_delay"`

	// FieldLimit is the knowledge base's per-field character capacity (default 2000).
	FieldLimit int `json:"field_limit" yaml:"field_limit" mapstructure:"field_limit"`
}

// KnowledgeBackend identifies where accepted papers are recorded.
type KnowledgeBackend string

const (
	KnowledgeNotion KnowledgeBackend = "notion"
	KnowledgeSQLite KnowledgeBackend = "sqlite"
)

// KnowledgeBaseConfig holds settings for the knowledge base.
type KnowledgeBaseConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Backend selects the store: notion or sqlite.
	Backend KnowledgeBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// NotionToken is the Notion integration token.
	NotionToken string `json:"-" yaml:"-" mapstructure:"notion_token"`

	// DatabaseID is the target Notion database.
	DatabaseID string `json:"database_id" yaml:"database_id" mapstructure:"database_id"`

	// SQLitePath is the database file used by the sqlite backend.
	SQLitePath string `json:"sqlite_path" yaml:"sqlite_path" mapstructure:"sqlite_path"`

	// WriteDelay is the pause between successive record writes (default 500ms).
	WriteDelay time.Duration `json:"write_delay" yaml:"write_delay" mapstructure:"write_delay"`
}

// NotifyConfig holds settings for the optional Telegram digest.
type NotifyConfig struct {
	// TelegramToken is the bot token. The digest is skipped when empty.
	TelegramToken string `json:"-" yaml:"-" mapstructure:"telegram_token"`

	// ChatID is the chat that receives the digest.
	ChatID int64 `json:"chat_id" yaml:"chat_id" mapstructure:"chat_id"`
}

// PipelineConfig groups all stage configurations for one digest run.
type PipelineConfig struct {
	Search        SearchConfig        `json:"search" yaml:"search" mapstructure:"search"`
	Acquisition   AcquisitionConfig   `json:"acquisition" yaml:"acquisition" mapstructure:"acquisition"`
	Analysis      AIConfig            `json:"analysis" yaml:"analysis" mapstructure:"analysis"`
	KnowledgeBase KnowledgeBaseConfig `json:"knowledge_base" yaml:"knowledge_base" mapstructure:"knowledge_base"`
	Notify        NotifyConfig        `json:"notify" yaml:"notify" mapstructure:"notify"`

	// ReportPath is where the YAML run report is written. Empty disables it.
	ReportPath string `json:"report_path" yaml:"report_path" mapstructure:"report_path"`

	// BibliographyPath is where the papers recorded in a run are written as
	// CSL-YAML. Empty disables it.
	BibliographyPath string `json:"bibliography_path" yaml:"bibliography_path" mapstructure:"bibliography_path"`

	// MetricsTextfile is where run metrics are written in Prometheus text format.
	// Empty disables it.
	MetricsTextfile string `json:"metrics_textfile" yaml:"metrics_textfile" mapstructure:"metrics_textfile"`
}
