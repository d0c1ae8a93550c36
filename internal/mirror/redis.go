package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amishk599/hiddenjobs/internal/publish"
)

// RedisMirror stores the artifact JSON under key and a flat stats hash under key:stats.
type RedisMirror struct {
	client *redis.Client
	key    string
}

// NewRedisMirror parses redisURL and verifies connectivity.
func NewRedisMirror(ctx context.Context, redisURL, key string) (*RedisMirror, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisMirror{client: client, key: key}, nil
}

// Name identifies the mirror in logs.
func (m *RedisMirror) Name() string { return "redis" }

// Store replaces the artifact and its stats hash in one transaction.
func (m *RedisMirror) Store(ctx context.Context, a publish.Artifact) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	statsKey := m.key + ":stats"
	fields := statsFields(a)

	_, err = m.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, m.key, data, 0)
		pipe.Del(ctx, statsKey)
		pipe.HSet(ctx, statsKey, fields)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis store %s: %w", m.key, err)
	}
	return nil
}

// Close releases the connection pool.
func (m *RedisMirror) Close() error {
	return m.client.Close()
}

// statsFields flattens the artifact summary into hash fields.
func statsFields(a publish.Artifact) map[string]string {
	fields := map[string]string{
		"total_jobs":    strconv.Itoa(a.TotalJobs),
		"last_updated":  a.LastUpdated.UTC().Format(time.RFC3339),
		"score_min":     strconv.Itoa(a.Stats.Score.Min),
		"score_max":     strconv.Itoa(a.Stats.Score.Max),
		"score_average": strconv.FormatFloat(a.Stats.Score.Average, 'f', 2, 64),
	}
	for source, n := range a.Stats.BySource {
		fields["source:"+source] = strconv.Itoa(n)
	}
	return fields
}
