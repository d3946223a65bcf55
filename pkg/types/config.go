// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "retrieval-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// EncoderBackend identifies the encoder implementation.
type EncoderBackend string

const (
	// EncoderLocal encodes with the checkpointed lexical bi-encoder.
	EncoderLocal EncoderBackend = "local"

	// EncoderRemote delegates encoding to an HTTP embedding service.
	EncoderRemote EncoderBackend = "remote"
)

// EncoderConfig holds settings shared by every stage that encodes text.
type EncoderConfig struct {
	HTTPConfig `yaml:",inline"`

	// Backend selects local checkpoint encoding or a remote service.
	Backend EncoderBackend `json:"backend" yaml:"backend"`

	// CheckpointDir is the bi-encoder checkpoint directory.
	CheckpointDir string `json:"checkpoint_dir" yaml:"checkpoint_dir"`

	// RemoteURL is the embedding service endpoint used when Backend is
	// "remote".
	RemoteURL string `json:"remote_url,omitempty" yaml:"remote_url,omitempty"`

	// RemoteModel names the model requested from the remote service.
	RemoteModel string `json:"remote_model,omitempty" yaml:"remote_model,omitempty"`

	// RemoteAPIKey authenticates against the remote service. Usually
	// loaded from .secrets/embedding-api-key rather than the config file.
	RemoteAPIKey string `json:"remote_api_key,omitempty" yaml:"remote_api_key,omitempty"`
}

// TrainerConfig holds settings for the bi-encoder training stage.
type TrainerConfig struct {
	// TrainFile is the path to the training data file.
	TrainFile string `json:"train_file" yaml:"train_file"`

	// OutputDir receives one checkpoint directory per epoch.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Format tags the training data layout (e.g. "triples-tsv").
	Format string `json:"format" yaml:"format"`

	// BatchSize is the number of examples per in-batch-negatives step.
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// Epochs is the number of passes over the training file.
	Epochs int `json:"epochs" yaml:"epochs"`

	// Dimension is the encoder output dimensionality (default 128).
	Dimension int `json:"dimension" yaml:"dimension"`

	// LearningRate is the SGD step size (default 0.05).
	LearningRate float64 `json:"learning_rate" yaml:"learning_rate"`

	// Seed makes embedding initialization reproducible (default 1).
	Seed int64 `json:"seed" yaml:"seed"`
}

// IndexConfig holds settings for the corpus indexing stage.
type IndexConfig struct {
	// CorpusFile is the TSV corpus (id, text, title columns).
	CorpusFile string `json:"corpus_file" yaml:"corpus_file"`

	// IndexDir receives passages.json.gz, vectors.bin, and passages.db.
	IndexDir string `json:"index_dir" yaml:"index_dir"`

	// DisableCache skips the bbolt encode cache.
	DisableCache bool `json:"disable_cache" yaml:"disable_cache"`
}

// SearchConfig holds settings for the search stage.
type SearchConfig struct {
	// IndexDir is the directory produced by the indexing stage.
	IndexDir string `json:"index_dir" yaml:"index_dir"`

	// TopK is the number of passages returned per query (default 10).
	TopK int `json:"top_k" yaml:"top_k"`
}

// ReaderConfig holds settings for the extractive reading stage.
type ReaderConfig struct {
	// MaxSpanTokens caps candidate answer span length (default 10).
	MaxSpanTokens int `json:"max_span_tokens" yaml:"max_span_tokens"`

	// TopSpans is the number of candidate spans returned per question
	// (default 5).
	TopSpans int `json:"top_spans" yaml:"top_spans"`
}
