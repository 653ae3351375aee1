// Package journal records engine results in the command journal.
package journal

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"

	"smpctl/core/engine"
	"smpctl/logger"
	"smpctl/model"
	"smpctl/repository"
)

const writeTimeout = 5 * time.Second

// Recorder writes every observed result of one session to the journal.
// Write failures are logged and never reach the engine caller.
type Recorder struct {
	repo    repository.JournalRepository
	session *model.Session
}

// Start creates a session row and returns a Recorder for it.
func Start(ctx context.Context, repo repository.JournalRepository, origin string, lib engine.Library) (*Recorder, error) {
	host, _ := os.Hostname()
	s := &model.Session{
		ID:        uuid.NewString(),
		Origin:    origin,
		Host:      host,
		StartedAt: time.Now(),
	}
	if lib != nil {
		s.Library = lib.Path()
		s.Symbol = lib.Symbol()
	}
	if err := repo.CreateSession(ctx, s); err != nil {
		return nil, err
	}
	logger.Info("journal session started",
		logger.String("session", s.ID),
		logger.String("origin", origin))
	return &Recorder{repo: repo, session: s}, nil
}

// SessionID identifies the session in the journal.
func (r *Recorder) SessionID() string { return r.session.ID }

// Observe implements engine.Observer.
func (r *Recorder) Observe(ctx context.Context, res *engine.Result) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := r.repo.Record(ctx, NewRecord(r.session.ID, res)); err != nil {
		logger.Warn("failed to journal command",
			logger.String("session", r.session.ID),
			logger.String("command", res.Name),
			logger.ErrorField(err))
	}
}

// End marks the session finished.
func (r *Recorder) End(ctx context.Context) error {
	return r.repo.EndSession(ctx, r.session.ID, time.Now())
}

// NewRecord converts a result into its journal row.
func NewRecord(sessionID string, res *engine.Result) *model.CommandRecord {
	rec := &model.CommandRecord{
		SessionID:  sessionID,
		Name:       res.Name,
		Command:    res.Command,
		Status:     int32(res.Status),
		Response:   res.Text,
		Truncated:  res.Truncated,
		StartedAt:  res.Started,
		DurationUs: res.Duration.Microseconds(),
	}
	if res.OK() && res.Values.Len() > 0 {
		rec.Values = model.ValueMap(res.Typed())
	}
	return rec
}
