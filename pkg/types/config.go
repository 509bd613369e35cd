package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "scribe/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// TranscriptionConfig holds settings for the transcription stage.
type TranscriptionConfig struct {
	HTTPConfig `yaml:",inline"`

	// Model is the Gemini model identifier (e.g. "gemini-2.0-flash").
	Model string `json:"model" yaml:"model"`

	// APIKey is the Gemini API key.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// ProcessingTimeout bounds the wait for an uploaded file to become
	// ACTIVE (default 120s).
	ProcessingTimeout time.Duration `json:"processing_timeout" yaml:"processing_timeout"`

	// PollInterval is the delay between file status checks (default 2s).
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`

	// MaxFileSizeMB is the largest accepted PDF in megabytes (default 50).
	MaxFileSizeMB int64 `json:"max_file_size_mb" yaml:"max_file_size_mb"`

	// MaxRetries is the number of retry attempts for rate-limited API
	// calls (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// TranscriptsDir is the directory for cached transcripts and their
	// metadata sidecars.
	TranscriptsDir string `json:"transcripts_dir" yaml:"transcripts_dir"`
}

// NotionConfig holds settings for the delivery stage.
type NotionConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey is the Notion integration token.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// DatabaseID is the target Notion database.
	DatabaseID string `json:"database_id" yaml:"database_id"`

	// BlockLimit is the per-block character ceiling (default 2000).
	BlockLimit int `json:"block_limit" yaml:"block_limit"`

	// MaxRetries is the number of retry attempts for rate-limited API
	// calls (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// DeliveryConfig holds local-artifact settings for the delivery stage.
type DeliveryConfig struct {
	// BackupDir is the directory for local markdown backups written when
	// remote delivery cannot be completed.
	BackupDir string `json:"backup_dir" yaml:"backup_dir"`
}

// JournalConfig holds settings for the run journal.
type JournalConfig struct {
	// Dir is the directory holding the journal database.
	Dir string `json:"dir" yaml:"dir"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Transcription TranscriptionConfig `json:"transcription" yaml:"transcription"`
	Notion        NotionConfig        `json:"notion" yaml:"notion"`
	Delivery      DeliveryConfig      `json:"delivery" yaml:"delivery"`
	Journal       JournalConfig       `json:"journal" yaml:"journal"`
}
