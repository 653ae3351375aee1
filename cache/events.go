package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"smpctl/core/engine"
	"smpctl/logger"
)

// EventChannel is the pub/sub channel every command result is published on.
const EventChannel = "smpctl:events"

// statusKeyPrefix + session id holds the last result of each command.
const statusKeyPrefix = "smpctl:status:"

const statusTTL = 24 * time.Hour

// Event is the JSON form of a command result shared with other processes
// and websocket clients.
type Event struct {
	Session    string         `json:"session,omitempty"`
	Command    string         `json:"command"`
	Name       string         `json:"name"`
	Status     int32          `json:"status"`
	OK         bool           `json:"ok"`
	Text       string         `json:"text"`
	Truncated  bool           `json:"truncated,omitempty"`
	Values     map[string]any `json:"values,omitempty"`
	StartedAt  time.Time      `json:"startedAt"`
	DurationUs int64          `json:"durationUs"`
}

// NewEvent converts a result for publishing.
func NewEvent(session string, res *engine.Result) Event {
	ev := Event{
		Session:    session,
		Command:    res.Command,
		Name:       res.Name,
		Status:     int32(res.Status),
		OK:         res.OK(),
		Text:       res.Text,
		Truncated:  res.Truncated,
		StartedAt:  res.Started,
		DurationUs: res.Duration.Microseconds(),
	}
	if res.OK() && res.Values.Len() > 0 {
		ev.Values = res.Typed()
	}
	return ev
}

// Publisher publishes results and keeps the last status per command name
// in a hash per session. It implements engine.Observer.
type Publisher struct {
	rdb     redis.Cmdable
	session string
}

func NewPublisher(rdb redis.Cmdable, session string) *Publisher {
	return &Publisher{rdb: rdb, session: session}
}

func (p *Publisher) Observe(ctx context.Context, res *engine.Result) {
	payload, err := json.Marshal(NewEvent(p.session, res))
	if err != nil {
		logger.Warn("failed to encode event", logger.ErrorField(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := p.rdb.Publish(ctx, EventChannel, payload).Err(); err != nil {
		logger.Warn("failed to publish event", logger.ErrorField(err))
	}

	key := statusKeyPrefix + p.session
	if err := p.rdb.HSet(ctx, key, res.Name, payload).Err(); err != nil {
		logger.Warn("failed to store last status", logger.ErrorField(err))
		return
	}
	if err := p.rdb.Expire(ctx, key, statusTTL).Err(); err != nil {
		logger.Warn("failed to refresh last status expiry",
			logger.String("key", key),
			logger.ErrorField(err))
	}
}

// LastStatus returns the last event of every command of a session.
func LastStatus(ctx context.Context, rdb redis.Cmdable, session string) (map[string]Event, error) {
	raw, err := rdb.HGetAll(ctx, statusKeyPrefix+session).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]Event, len(raw))
	for name, payload := range raw {
		var ev Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			continue
		}
		out[name] = ev
	}
	return out, nil
}
