package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aacc1on/medreminder-bolt/internal/app"
	"github.com/aacc1on/medreminder-bolt/internal/domain/schedule"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	counters map[string]int64
	hashes   map[string]map[string]any
	values   map[string]any
	ttls     map[string]time.Duration
	err      error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		counters: map[string]int64{},
		hashes:   map[string]map[string]any{},
		values:   map[string]any{},
		ttls:     map[string]time.Duration{},
	}
}

func (f *fakeRedis) Incr(_ context.Context, key string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	f.counters[key]++
	return redis.NewIntResult(f.counters[key], nil)
}

func (f *fakeRedis) HSet(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	h := map[string]any{}
	for _, v := range values {
		if m, ok := v.(map[string]any); ok {
			for k, val := range m {
				h[k] = val
			}
		}
	}
	f.hashes[key] = h
	return redis.NewIntResult(int64(len(h)), nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.values[key] = value
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func newReporter(rdb Commands) (*RedisReporter, *test.Hook) {
	l, hook := test.NewNullLogger()
	return NewRedisReporter(rdb, 2*time.Hour, logrus.NewEntry(l)), hook
}

func TestReportTick(t *testing.T) {
	rdb := newFakeRedis()
	r, _ := newReporter(rdb)
	s := &app.TickSummary{
		TickID:    uuid.New(),
		Kind:      schedule.KindTreatment,
		StartedAt: time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC),
		Scanned:   3,
		Sent:      2,
		Failures:  []app.DispatchFailure{{ItemID: 1, Err: errors.New("x")}},
	}

	r.ReportTick(context.Background(), s)
	r.ReportTick(context.Background(), s)

	assert.Equal(t, int64(2), rdb.counters["metrics:reminder:TREATMENT:ticks"])
	last := rdb.hashes[LastKey(schedule.KindTreatment)]
	require.NotNil(t, last)
	assert.Equal(t, s.TickID.String(), last["tick_id"])
	assert.Equal(t, "2024-03-10T08:00:00Z", last["time"])
	assert.Equal(t, 2, last["sent"])
	assert.Equal(t, 1, last["failed"])
	assert.Equal(t, "", last["aborted"])
}

func TestReportHeartbeatSetsTTL(t *testing.T) {
	rdb := newFakeRedis()
	r, _ := newReporter(rdb)

	r.ReportHeartbeat(context.Background(), time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-03-10T09:00:00Z", rdb.values[HeartbeatKey])
	assert.Equal(t, 2*time.Hour, rdb.ttls[HeartbeatKey])
}

func TestRedisFailuresAreLoggedNotReturned(t *testing.T) {
	rdb := newFakeRedis()
	rdb.err = errors.New("connection refused")
	r, hook := newReporter(rdb)

	assert.NotPanics(t, func() {
		r.ReportTick(context.Background(), &app.TickSummary{Kind: schedule.KindVisit})
		r.ReportHeartbeat(context.Background(), time.Now())
	})
	require.Len(t, hook.AllEntries(), 2)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}
