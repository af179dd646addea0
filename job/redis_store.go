package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/livepeer/clipper-core/log"
)

const keyPrefix = "job:"

const defaultDialTimeout = 5 * time.Second

// RedisStore is the KV-backed implementation of Store, keyed by `job:<job_id>`
// per §4.2. Construction follows the pack's topology-agnostic Redis client
// pattern (NewClientFromURL): a single DSN, sane default timeouts.
type RedisStore struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore parses redisURL (e.g. "redis://localhost:6379/0") and pings
// the server once at construction time; callers should treat a connection
// error here as startup-fatal. Later, Update logs a Redis error and
// continues, while Initialize and Get return Redis errors to the caller.
func NewRedisStore(ctx context.Context, redisURL string, recordTTL time.Duration) (*RedisStore, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = defaultDialTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = defaultDialTimeout
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{client: client, ttl: recordTTL}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Initialize(ctx context.Context, j Job) error {
	j.Status = StatusPending
	j.CurrentStep = "START"
	j.ProgressPercent = 0
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now()
	}
	return s.write(ctx, j)
}

func (s *RedisStore) Update(ctx context.Context, jobID string, u Update) error {
	existing, ok, err := s.Get(ctx, jobID)
	if err != nil {
		// Store unavailable: log and skip, per §4.2's advisory-store contract.
		log.LogNoRequestID("redis job store unavailable during update, skipping", "job_id", jobID, "err", err)
		return nil
	}
	if !ok {
		log.LogNoRequestID("update for unknown job_id, ignoring", "job_id", jobID)
		return nil
	}

	if u.Status != "" {
		existing.Status = u.Status
	}
	if u.Step != "" {
		existing.CurrentStep = u.Step
	}
	if u.ProgressStage != "" {
		existing.ProgressStage = u.ProgressStage
	}
	if u.ProgressPercent != nil {
		existing.ProgressPercent = *u.ProgressPercent
	}
	if u.ProgressMessage != nil {
		existing.ProgressMessage = *u.ProgressMessage
	}
	if u.OutputPath != nil {
		existing.OutputPath = *u.OutputPath
	}
	if u.Title != nil {
		existing.Title = *u.Title
	}
	if u.ThumbnailPath != nil {
		existing.ThumbnailPath = *u.ThumbnailPath
	}
	if u.SegmentsPublished != nil {
		existing.SegmentsPublished = *u.SegmentsPublished
	}
	if u.SegmentsCompleted != nil {
		existing.SegmentsCompleted = *u.SegmentsCompleted
	}

	if err := s.write(ctx, existing); err != nil {
		log.LogNoRequestID("redis job store unavailable during update, skipping", "job_id", jobID, "err", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, jobID string) (Job, bool, error) {
	raw, err := s.client.Get(ctx, keyPrefix+jobID).Bytes()
	if err == goredis.Nil {
		return Job{}, false, nil
	}
	if err != nil {
		return Job{}, false, err
	}
	var j Job
	if err := json.Unmarshal(raw, &j); err != nil {
		return Job{}, false, fmt.Errorf("unmarshal job %s: %w", jobID, err)
	}
	return j, true, nil
}

func (s *RedisStore) write(ctx context.Context, j Job) error {
	raw, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", j.JobID, err)
	}
	return s.client.Set(ctx, keyPrefix+j.JobID, raw, s.ttl).Err()
}
