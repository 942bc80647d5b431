package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fortuna/diana/internal/collect"
)

// RunStream is the Redis stream carrying collection run events.
const RunStream = "collection.runs.wnba"

// RunEvent is the JSON payload published for each lifecycle change.
type RunEvent struct {
	Event      string              `json:"event"`
	RunID      int64               `json:"run_id"`
	SeasonYear int                 `json:"season_year"`
	DryRun     bool                `json:"dry_run,omitempty"`
	Summary    *collect.RunSummary `json:"summary,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// RedisPublisher publishes run events to a Redis stream.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher connects to Redis and verifies the connection.
func NewRedisPublisher(redisURL string) (*RedisPublisher, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisPublisher{client: client}, nil
}

// Close closes the Redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// PublishRunStarted announces that a run left the queue.
func (p *RedisPublisher) PublishRunStarted(ctx context.Context, run *collect.Run) error {
	return p.publish(ctx, RunEvent{
		Event:      "run_started",
		RunID:      run.RunID,
		SeasonYear: run.SeasonYear,
		DryRun:     run.DryRun,
	})
}

// PublishRunCompleted announces a finished run with its summary.
func (p *RedisPublisher) PublishRunCompleted(ctx context.Context, run *collect.Run, summary collect.RunSummary) error {
	return p.publish(ctx, RunEvent{
		Event:      "run_completed",
		RunID:      run.RunID,
		SeasonYear: run.SeasonYear,
		DryRun:     run.DryRun,
		Summary:    &summary,
	})
}

// PublishRunFailed announces a run that ended in an error.
func (p *RedisPublisher) PublishRunFailed(ctx context.Context, run *collect.Run, runErr error) error {
	return p.publish(ctx, RunEvent{
		Event:      "run_failed",
		RunID:      run.RunID,
		SeasonYear: run.SeasonYear,
		DryRun:     run.DryRun,
		Error:      runErr.Error(),
	})
}

func (p *RedisPublisher) publish(ctx context.Context, event RunEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: RunStream,
		Values: map[string]interface{}{
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
}
