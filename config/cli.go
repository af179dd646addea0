package config

import "time"

// Cli holds the flags shared by the clipper core's cmd/ binaries: the stage
// workers, the REST front-end, and the CLI front-end. Every binary registers
// every field, but not every binary uses every field — e.g. only clipapi
// uses HTTPAddress.
type Cli struct {
	HTTPAddress string
	PromPort    int

	RabbitMQURL string
	RedisURL    string
	JobRecordTTL time.Duration

	// DataDir is the root of the shared per-job artifact tree (§3/§4.10).
	DataDir string

	// FrontendDBConnectionString points at the relational store backing
	// frontend.Store, e.g. a postgres DSN for lib/pq.
	FrontendDBConnectionString string

	APIToken string

	// SegmentDuration/MaxDuration/MaxHighlights are the job-creation defaults
	// and bounds from §3 ("Job fields").
	SegmentDuration int
	MaxDuration     int
	MaxHighlights   int

	// ChunkDuration/ChunkOverlap drive the analyst's temporal chunking (§4.6).
	ChunkDuration int
	ChunkOverlap  int

	// DirectModeCharLimit is the transcript-length threshold at or below which the
	// analyst skips chunking and analyses the transcript directly (§9 Open
	// Question decision).
	DirectModeCharLimit int

	GeminiMaxOutputTokens int
	LLMEndpoint           string
	LLMAPIKey             string

	ASREndpoint string
	ASRAPIKey   string

	EditorFallback bool
}
