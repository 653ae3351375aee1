package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"smpctl/logger"
)

// Uploader stores one finished recording and returns where it went.
type Uploader interface {
	UploadRecording(ctx context.Context, session, file string) (string, error)
}

// Archiver watches a directory the engine records into and uploads every
// .wav file once it stops changing. Recordings are written incrementally, so
// a file is only taken after Settle has passed without a write and its size
// is stable across two stats.
type Archiver struct {
	Dir      string
	Settle   time.Duration
	Session  string
	Uploader Uploader

	// OnArchived is called after each successful upload.
	OnArchived func(file, key string)
}

// Run blocks until ctx ends or the watcher fails to start.
func (a *Archiver) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(a.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", a.Dir, err)
	}
	logger.Info("archiving recordings",
		logger.String("dir", a.Dir),
		logger.Duration("settle", a.Settle))

	a.watch(ctx, watcher)
	return nil
}

func (a *Archiver) watch(ctx context.Context, watcher *fsnotify.Watcher) {
	pendingFiles := make(map[string]time.Time)
	checkTicker := time.NewTicker(a.checkInterval())
	defer checkTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			if len(pendingFiles) > 0 {
				logger.Warn("recordings still being written at shutdown",
					logger.Int("count", len(pendingFiles)))
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 && isRecording(event.Name) {
				pendingFiles[event.Name] = time.Now()
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				delete(pendingFiles, event.Name)
			}

		case <-checkTicker.C:
			a.checkPending(ctx, pendingFiles, time.Now())

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("recording watcher error", logger.ErrorField(err))
		}
	}
}

// abandonAfter is how many Settle periods a file may stay empty or
// unreadable before it is no longer tracked.
const abandonAfter = 5

func (a *Archiver) checkPending(ctx context.Context, pendingFiles map[string]time.Time, now time.Time) {
	for file, lastWrite := range pendingFiles {
		idle := now.Sub(lastWrite)
		if idle < a.Settle {
			continue
		}
		if !isFileComplete(file) {
			if idle >= abandonAfter*a.Settle {
				logger.Warn("dropping recording that never completed",
					logger.String("file", file),
					logger.Duration("idle", idle))
				delete(pendingFiles, file)
			}
			continue
		}
		delete(pendingFiles, file)
		a.archive(ctx, file)
	}
}

func (a *Archiver) archive(ctx context.Context, file string) {
	key, err := a.Uploader.UploadRecording(ctx, a.Session, file)
	if err != nil {
		logger.Warn("failed to archive recording",
			logger.String("file", file),
			logger.ErrorField(err))
		return
	}
	if a.OnArchived != nil {
		a.OnArchived(file, key)
	}
}

func (a *Archiver) checkInterval() time.Duration {
	d := a.Settle / 4
	if d < 10*time.Millisecond {
		d = 10 * time.Millisecond
	}
	return d
}

func isRecording(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".wav")
}

// isFileComplete 检查文件是否写入完成
func isFileComplete(path string) bool {
	info1, err := os.Stat(path)
	if err != nil || info1.Size() == 0 {
		return false
	}

	time.Sleep(30 * time.Millisecond)

	info2, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info1.Size() == info2.Size()
}
