package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/aacc1on/medreminder-bolt/internal/app"
	"github.com/aacc1on/medreminder-bolt/internal/domain/schedule"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const HeartbeatKey = "metrics:reminder:heartbeat"

// Commands is the part of *redis.Client the reporter writes with.
type Commands interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisReporter publishes per-kind tick counters and the last summary, plus a liveness key
// that expires when heartbeats stop.
type RedisReporter struct {
	rdb          Commands
	heartbeatTTL time.Duration
	logger       *logrus.Entry
}

func NewRedisReporter(rdb Commands, heartbeatTTL time.Duration, logger *logrus.Entry) *RedisReporter {
	return &RedisReporter{rdb: rdb, heartbeatTTL: heartbeatTTL, logger: logger}
}

func TicksKey(kind schedule.Kind) string { return fmt.Sprintf("metrics:reminder:%s:ticks", kind) }
func LastKey(kind schedule.Kind) string  { return fmt.Sprintf("metrics:reminder:%s:last", kind) }

// ReportTick never fails the tick; write errors are logged.
func (r *RedisReporter) ReportTick(ctx context.Context, s *app.TickSummary) {
	if err := r.rdb.Incr(ctx, TicksKey(s.Kind)).Err(); err != nil {
		r.logger.WithError(err).Warn("Failed to increment tick counter in redis")
		return
	}
	aborted := ""
	if s.Err != nil {
		aborted = s.Err.Error()
	}
	err := r.rdb.HSet(ctx, LastKey(s.Kind), map[string]any{
		"tick_id":           s.TickID.String(),
		"time":              s.StartedAt.Format(time.RFC3339),
		"duration_ms":       s.Duration.Milliseconds(),
		"scanned":           s.Scanned,
		"ineligible":        s.Ineligible,
		"not_due":           s.NotDue,
		"already_satisfied": s.AlreadySatisfied,
		"sent":              s.Sent,
		"failed":            len(s.Failures),
		"aborted":           aborted,
	}).Err()
	if err != nil {
		r.logger.WithError(err).Warn("Failed to store last tick summary in redis")
	}
}

func (r *RedisReporter) ReportHeartbeat(ctx context.Context, at time.Time) {
	if err := r.rdb.Set(ctx, HeartbeatKey, at.Format(time.RFC3339), r.heartbeatTTL).Err(); err != nil {
		r.logger.WithError(err).Warn("Failed to refresh heartbeat key in redis")
	}
}

// Connect parses url, opens a client and pings it.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}
