package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"smpctl/cache"
	"smpctl/core/engine"
	"smpctl/core/journal"
	"smpctl/db"
	"smpctl/logger"
	"smpctl/repository"
)

// engineSession is an open engine client plus the optional journal and
// redis observers attached to it.
type engineSession struct {
	client   *engine.Client
	id       string
	recorder *journal.Recorder
	journal  repository.JournalRepository
	redis    bool
}

// connectEngine loads the library and starts a client. Tests replace it.
var connectEngine = engine.Connect

// openEngine loads the library and attaches the integrations enabled in
// the configuration. Integration failures are logged and skipped.
func openEngine(ctx context.Context, origin string) (*engineSession, error) {
	client, err := connectEngine(engine.Options{
		LibraryPath: cfg.LibraryPath,
		Symbols:     []string{cfg.Symbol},
		BufferSize:  cfg.BufferSize,
		CallTimeout: cfg.CallTimeout,
	})
	if err != nil {
		return nil, err
	}

	s := &engineSession{client: client}

	if cfg.DBEnabled {
		if err := db.InitJournal(cfg); err != nil {
			logger.Warn("journal disabled", logger.ErrorField(err))
		} else {
			s.journal = repository.NewGormJournalRepository(db.GormDB)
			rec, err := journal.Start(ctx, s.journal, origin, client.Library())
			if err != nil {
				logger.Warn("failed to start journal session", logger.ErrorField(err))
			} else {
				s.recorder = rec
				s.id = rec.SessionID()
				client.AddObserver(rec)
			}
		}
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}

	if cfg.RedisEnabled {
		if err := db.ConnectRedis(cfg); err != nil {
			logger.Warn("redis disabled", logger.ErrorField(err))
		} else {
			s.redis = true
			client.AddObserver(cache.NewPublisher(db.RedisClient, s.id))
		}
	}
	return s, nil
}

// Close releases the library first so the journal still sees the final
// results, then ends the session and closes the connections.
func (s *engineSession) Close() error {
	err := s.client.Close()

	if s.recorder != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if endErr := s.recorder.End(ctx); endErr != nil {
			logger.Warn("failed to end journal session", logger.ErrorField(endErr))
		}
		cancel()
	}
	if s.journal != nil {
		db.CloseGormDB()
	}
	if s.redis {
		db.CloseRedis()
	}
	return err
}

// reportLoadError prints the demo's load failures and turns them into a
// non-zero exit.
func reportLoadError(out io.Writer, err error) error {
	switch {
	case errors.Is(err, engine.ErrSymbolNotFound):
		fmt.Fprint(out, "\nerror loading SoundDllProCommand")
	case errors.Is(err, engine.ErrLibraryLoad), errors.Is(err, engine.ErrUnsupportedPlatform):
		fmt.Fprint(out, "\nerror loading library")
	default:
		return err
	}
	logger.Debug("engine library not loaded", logger.ErrorField(err))
	return &exitError{code: 1}
}
