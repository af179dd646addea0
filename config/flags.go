package config

import (
	"flag"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// AddrFlag registers a plain string flag for a host:port pair. It doesn't
// validate the address at parse time — binding happens later and should
// produce its own, more actionable error.
func AddrFlag(fs *flag.FlagSet, p *string, name, value, usage string) {
	fs.StringVar(p, name, value, usage)
}

// invertedBoolValue implements flag.Value for a `-no-x` flag that sets the
// bound bool to the logical inverse of what's passed on the command line.
type invertedBoolValue struct {
	p    *bool
	name string
}

func (v *invertedBoolValue) String() string {
	if v.p == nil {
		return "false"
	}
	return fmt.Sprintf("%v", !*v.p)
}

func (v *invertedBoolValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "", "true", "1":
		*v.p = false
	case "false", "0":
		*v.p = true
	default:
		return fmt.Errorf("invalid boolean value %q for -no-%s", s, v.name)
	}
	return nil
}

func (v *invertedBoolValue) IsBoolFlag() bool { return true }

// InvertedBoolFlag registers a `-no-<name>` flag whose presence clears the
// bound bool. Useful for flags that default to enabled and need an easy way
// to turn a feature off without double-negative flag names at the call site.
func InvertedBoolFlag(fs *flag.FlagSet, p *bool, name string, value bool, usage string) {
	*p = value
	fs.Var(&invertedBoolValue{p: p, name: name}, "no-"+name, usage)
}

// urlSliceValue implements flag.Value for a comma-delimited ordered list of
// URLs, e.g. a fallback chain of gateways or brokers.
type urlSliceValue struct {
	p *[]*url.URL
}

func (v *urlSliceValue) String() string {
	if v.p == nil {
		return ""
	}
	parts := make([]string, 0, len(*v.p))
	for _, u := range *v.p {
		if u != nil {
			parts = append(parts, u.String())
		}
	}
	return strings.Join(parts, ",")
}

func (v *urlSliceValue) Set(s string) error {
	var out []*url.URL
	for _, raw := range strings.Split(s, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid URL %q: %w", raw, err)
		}
		out = append(out, u)
	}
	*v.p = out
	return nil
}

// URLSliceVarFlag registers a comma-delimited list-of-URLs flag.
func URLSliceVarFlag(fs *flag.FlagSet, p *[]*url.URL, name, value, usage string) {
	v := &urlSliceValue{p: p}
	_ = v.Set(value)
	fs.Var(v, name, usage)
}

// commaMapValue implements flag.Value for a comma-delimited `key=value` map,
// e.g. subtitle style overrides or per-source rate-limit overrides.
type commaMapValue struct {
	p *map[string]string
}

func (v *commaMapValue) String() string {
	if v.p == nil {
		return ""
	}
	parts := make([]string, 0, len(*v.p))
	for k, val := range *v.p {
		parts = append(parts, k+"="+val)
	}
	return strings.Join(parts, ",")
}

func (v *commaMapValue) Set(s string) error {
	out := map[string]string{}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return fmt.Errorf("invalid key=value pair %q", pair)
		}
		out[kv[0]] = kv[1]
	}
	*v.p = out
	return nil
}

// CommaMapFlag registers a comma-delimited `key=value,...` flag.
func CommaMapFlag(fs *flag.FlagSet, p *map[string]string, name string, value map[string]string, usage string) {
	*p = value
	fs.Var(&commaMapValue{p: p}, name, usage)
}

// RegisterCliFlags binds every flag shared across the cmd/ binaries onto
// fs and returns the Cli they populate. Flags used by only one binary (e.g.
// clipapi's -http-addr) are part of this common set too, so every binary
// accepts them.
func RegisterCliFlags(fs *flag.FlagSet) *Cli {
	cli := &Cli{}

	AddrFlag(fs, &cli.HTTPAddress, "http-addr", "0.0.0.0:8080", "Address to bind the REST front-end")
	fs.IntVar(&cli.PromPort, "prom-port", 9090, "Port to bind the Prometheus metrics endpoint")

	fs.StringVar(&cli.RabbitMQURL, "rabbitmq-url", DefaultRabbitMQURL, "RabbitMQ connection URL")
	fs.StringVar(&cli.RedisURL, "redis-url", DefaultRedisURL, "Redis connection URL for the job KV store")
	fs.DurationVar(&cli.JobRecordTTL, "job-record-ttl", 24*time.Hour, "TTL applied to job KV records; 0 disables expiry")

	fs.StringVar(&cli.DataDir, "data-dir", DefaultDataDir, "Root of the shared per-job artifact tree")
	fs.StringVar(&cli.FrontendDBConnectionString, "frontend-db-url", "", "Postgres connection URL for the front-end's relational job store")

	fs.StringVar(&cli.APIToken, "api-token", "", "Bearer token secret for the REST front-end; empty disables auth")

	fs.IntVar(&cli.SegmentDuration, "segment-duration", DefaultSegmentDurationSecs, "Default stream segment duration in seconds")
	fs.IntVar(&cli.MaxDuration, "max-duration", DefaultMaxDurationSecs, "Default maximum stream capture duration in seconds")
	fs.IntVar(&cli.MaxHighlights, "max-highlights", DefaultMaxHighlights, "Default maximum number of highlights per job")

	fs.IntVar(&cli.ChunkDuration, "chunk-duration", DefaultChunkDurationSecs, "Analyst chunk duration in seconds")
	fs.IntVar(&cli.ChunkOverlap, "chunk-overlap", DefaultChunkOverlapSecs, "Analyst chunk overlap in seconds")
	fs.IntVar(&cli.DirectModeCharLimit, "direct-mode-char-limit", DefaultDirectModeCharLimit, "Transcript length at or below which the analyst skips chunking")

	fs.IntVar(&cli.GeminiMaxOutputTokens, "llm-max-output-tokens", DefaultGeminiMaxOutputTokens, "Maximum output tokens requested from the LLM collaborator")
	fs.StringVar(&cli.LLMEndpoint, "llm-endpoint", "", "URL of the LLM collaborator's generateContent-shaped REST endpoint")
	fs.StringVar(&cli.LLMAPIKey, "llm-api-key", "", "API key for the LLM collaborator endpoint")

	fs.StringVar(&cli.ASREndpoint, "asr-endpoint", "", "URL of the ASR collaborator's transcription REST endpoint")
	fs.StringVar(&cli.ASRAPIKey, "asr-api-key", "", "API key for the ASR collaborator endpoint")

	InvertedBoolFlag(fs, &cli.EditorFallback, "editor-fallback", true, "Disable the editor's end<=start fallback, skipping such highlights instead")

	return cli
}
