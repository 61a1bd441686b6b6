package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cashrecon/internal/reconciliation"

	"github.com/redis/go-redis/v9"
)

// ErrStaleRun means a run that started later has already been published for
// the same date, so this result must not replace it.
var ErrStaleRun = errors.New("a newer reconciliation run was already published")

// RunPublisher makes the newest run per date win. A caller takes a ticket
// before the engine starts and hands it back on Publish.
type RunPublisher interface {
	Begin(ctx context.Context, date time.Time) (int64, error)
	Publish(ctx context.Context, ticket int64, run reconciliation.Run) error
	Latest(ctx context.Context, date time.Time) (*reconciliation.Run, error)
}

const (
	seqKeyPrefix    = "recon:seq:"
	latestKeyPrefix = "recon:latest:"
	ticketKeyPrefix = "recon:latest_ticket:"
	publishTTL      = 35 * 24 * time.Hour
)

// KEYS[1] latest run, KEYS[2] ticket of the latest run.
// ARGV[1] ticket, ARGV[2] encoded run, ARGV[3] ttl seconds.
var publishScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[2]) or '0')
if tonumber(ARGV[1]) <= current then
  return 0
end
redis.call('SET', KEYS[2], ARGV[1], 'EX', ARGV[3])
redis.call('SET', KEYS[1], ARGV[2], 'EX', ARGV[3])
return 1
`)

type redisRunPublisher struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRunPublisher(rdb *redis.Client) RunPublisher {
	return &redisRunPublisher{rdb: rdb, ttl: publishTTL}
}

func dateKey(prefix string, date time.Time) string {
	return prefix + date.Format(reconciliation.DateLayout)
}

func (p *redisRunPublisher) Begin(ctx context.Context, date time.Time) (int64, error) {
	key := dateKey(seqKeyPrefix, date)
	pipe := p.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, p.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("run publisher: ticket: %w", err)
	}
	return incr.Val(), nil
}

func (p *redisRunPublisher) Publish(ctx context.Context, ticket int64, run reconciliation.Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("run publisher: encode: %w", err)
	}
	keys := []string{dateKey(latestKeyPrefix, run.Date), dateKey(ticketKeyPrefix, run.Date)}
	ok, err := publishScript.Run(ctx, p.rdb, keys, ticket, data, int64(p.ttl/time.Second)).Int()
	if err != nil {
		return fmt.Errorf("run publisher: publish: %w", err)
	}
	if ok == 0 {
		return ErrStaleRun
	}
	return nil
}

// Latest returns the last published run for date, or nil if none.
func (p *redisRunPublisher) Latest(ctx context.Context, date time.Time) (*reconciliation.Run, error) {
	data, err := p.rdb.Get(ctx, dateKey(latestKeyPrefix, date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("run publisher: latest: %w", err)
	}
	var run reconciliation.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("run publisher: decode: %w", err)
	}
	return &run, nil
}
