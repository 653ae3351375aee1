package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smpctl/core/engine"
	"smpctl/logger"
)

// memRedis implements the handful of commands the cache uses.
// Anything else panics through the nil embedded interface.
type memRedis struct {
	redis.Cmdable

	mu         sync.Mutex
	kv         map[string]string
	ttl        map[string]time.Duration
	hashes     map[string]map[string]string
	published  []string
	failGet    error
	failExpire error
}

func newMemRedis() *memRedis {
	return &memRedis{
		kv:     map[string]string{},
		ttl:    map[string]time.Duration{},
		hashes: map[string]map[string]string{},
	}
}

func toString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(v)
	}
}

func (m *memRedis) Get(_ context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return redis.NewStringResult("", m.failGet)
	}
	v, ok := m.kv[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memRedis) Set(_ context.Context, key string, value interface{}, exp time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[key] = toString(value)
	m.ttl[key] = exp
	return redis.NewStatusResult("OK", nil)
}

func (m *memRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := m.kv[k]; ok {
			delete(m.kv, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (m *memRedis) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, channel+"|"+toString(message))
	return redis.NewIntResult(1, nil)
}

func (m *memRedis) HSet(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.hashes[key]
	if h == nil {
		h = map[string]string{}
		m.hashes[key] = h
	}
	for i := 0; i+1 < len(values); i += 2 {
		h[toString(values[i])] = toString(values[i+1])
	}
	return redis.NewIntResult(int64(len(values)/2), nil)
}

func (m *memRedis) Expire(_ context.Context, key string, exp time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failExpire != nil {
		return redis.NewBoolResult(false, m.failExpire)
	}
	m.ttl[key] = exp
	return redis.NewBoolResult(true, nil)
}

func (m *memRedis) HGetAll(_ context.Context, key string) *redis.StringStringMapCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]string{}
	for k, v := range m.hashes[key] {
		out[k] = v
	}
	return redis.NewStringStringMapResult(out, nil)
}

func TestDriverCacheMissThenHit(t *testing.T) {
	rdb := newMemRedis()
	c := NewDriverCache(rdb, time.Minute)

	calls := 0
	list := func(context.Context) ([]string, error) {
		calls++
		return []string{"ASIO4ALL v2", "Fireface USB"}, nil
	}

	drivers, cached, err := c.Get(context.Background(), list)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, []string{"ASIO4ALL v2", "Fireface USB"}, drivers)
	assert.Equal(t, time.Minute, rdb.ttl[driverListKey])

	drivers, cached, err = c.Get(context.Background(), list)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Len(t, drivers, 2)
	assert.Equal(t, 1, calls)

	require.NoError(t, c.Invalidate(context.Background()))
	_, cached, err = c.Get(context.Background(), list)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, calls)
}

func TestDriverCacheFallsThroughOnRedisError(t *testing.T) {
	rdb := newMemRedis()
	rdb.failGet = errors.New("connection refused")
	c := NewDriverCache(rdb, time.Minute)

	drivers, cached, err := c.Get(context.Background(), func(context.Context) ([]string, error) {
		return []string{"ASIO4ALL v2"}, nil
	})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, []string{"ASIO4ALL v2"}, drivers)
}

func TestDriverCacheCorruptEntryIsReloaded(t *testing.T) {
	rdb := newMemRedis()
	rdb.kv[driverListKey] = "{not json"
	c := NewDriverCache(rdb, time.Minute)

	drivers, cached, err := c.Get(context.Background(), func(context.Context) ([]string, error) {
		return []string{"WDM"}, nil
	})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, []string{"WDM"}, drivers)
	assert.Equal(t, `["WDM"]`, rdb.kv[driverListKey])
}

func TestDriverCacheListError(t *testing.T) {
	c := NewDriverCache(newMemRedis(), time.Minute)
	_, _, err := c.Get(context.Background(), func(context.Context) ([]string, error) {
		return nil, engine.ErrClosed
	})
	assert.ErrorIs(t, err, engine.ErrClosed)
}

func TestPublisherLogsExpireFailure(t *testing.T) {
	var logs bytes.Buffer
	require.NoError(t, logger.InitLogger(logger.Config{Level: logger.WarnLevel, Console: &logs}))

	rdb := newMemRedis()
	rdb.failExpire = errors.New("READONLY")
	p := NewPublisher(rdb, "session-1")

	p.Observe(context.Background(), &engine.Result{Command: "command=show", Name: "show", Status: engine.StatusOK, Text: "value=1"})
	logger.Sync()

	assert.Len(t, rdb.published, 1)
	assert.Contains(t, rdb.hashes[statusKeyPrefix+"session-1"], "show")
	assert.Contains(t, logs.String(), "failed to refresh last status expiry")
	assert.Contains(t, logs.String(), "READONLY")
}

func TestPublisherPublishesAndStoresLastStatus(t *testing.T) {
	rdb := newMemRedis()
	p := NewPublisher(rdb, "session-1")

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p.Observe(context.Background(), &engine.Result{
		Command:  "command=getdrivers",
		Name:     "getdrivers",
		Status:   engine.StatusOK,
		Text:     "driver=ASIO4ALL v2",
		Values:   engine.ParseValues("driver=ASIO4ALL v2"),
		Started:  started,
		Duration: 1500 * time.Microsecond,
	})
	p.Observe(context.Background(), &engine.Result{
		Command: "command=start",
		Name:    "start",
		Status:  engine.StatusBusy,
		Text:    "busy",
		Started: started,
	})

	require.Len(t, rdb.published, 2)
	assert.Contains(t, rdb.published[0], EventChannel+"|")

	status, err := LastStatus(context.Background(), rdb, "session-1")
	require.NoError(t, err)
	require.Len(t, status, 2)

	drivers := status["getdrivers"]
	assert.True(t, drivers.OK)
	assert.Equal(t, "session-1", drivers.Session)
	assert.EqualValues(t, 1500, drivers.DurationUs)
	assert.Equal(t, "ASIO4ALL v2", drivers.Values["driver"])

	start := status["start"]
	assert.False(t, start.OK)
	assert.EqualValues(t, 0, start.Status)
	assert.Nil(t, start.Values)

	assert.Equal(t, statusTTL, rdb.ttl[statusKeyPrefix+"session-1"])
}

func TestNewEventJSON(t *testing.T) {
	ev := NewEvent("", &engine.Result{
		Command: "command=getplaying",
		Name:    "getplaying",
		Status:  engine.StatusOK,
		Text:    "value=1,0",
		Values:  engine.ParseValues("value=1,0"),
	})

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.NotContains(t, decoded, "session")
	assert.Equal(t, []any{float64(1), float64(0)}, decoded["values"].(map[string]any)["value"])
}

func TestLastStatusSkipsCorruptEntries(t *testing.T) {
	rdb := newMemRedis()
	rdb.hashes[statusKeyPrefix+"s"] = map[string]string{"stop": "nope"}

	status, err := LastStatus(context.Background(), rdb, "s")
	require.NoError(t, err)
	assert.Empty(t, status)
}
