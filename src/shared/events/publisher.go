package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stake-plus/gemtracker/src/shared/tracking"
)

// OutcomeStream is the Redis stream proposal outcomes are appended to.
const OutcomeStream = "gemtracker.outcomes"

// maxStreamLen bounds the stream; older events are trimmed approximately.
const maxStreamLen = 10000

// RedisPublisher appends proposal outcomes to a Redis stream for other consumers
// (dashboards, the digest job).
type RedisPublisher struct {
	rdb    *redis.Client
	stream string
}

// NewRedisPublisher creates a publisher writing to OutcomeStream.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, stream: OutcomeStream}
}

// PublishOutcome implements tracking.OutcomePublisher.
func (p *RedisPublisher) PublishOutcome(ctx context.Context, out tracking.Outcome) error {
	payload, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}

	_, err = p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: map[string]interface{}{
			"proposal_id": out.Proposal.ID,
			"scope_id":    out.Proposal.ScopeID,
			"kind":        string(out.Proposal.Kind),
			"status":      string(out.Proposal.Status),
			"no_op":       string(out.NoOp),
			"at":          time.Now().UTC().Format(time.RFC3339),
			"payload":     string(payload),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("publish outcome %s: %w", out.Proposal.ID, err)
	}
	return nil
}
