package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	mu    sync.Mutex
	files []string
	fail  error
}

func (f *fakeUploader) UploadRecording(_ context.Context, session, file string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return "", f.fail
	}
	f.files = append(f.files, file)
	return RecordingKey(session, file), nil
}

func (f *fakeUploader) uploaded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.files...)
}

func TestRecordingKey(t *testing.T) {
	assert.Equal(t, "recordings/abc/take1.wav", RecordingKey("abc", "/tmp/rec/take1.wav"))
	assert.Equal(t, "recordings/unsorted/take1.wav", RecordingKey("", "take1.wav"))
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatSize(512))
	assert.Equal(t, "1.5 KB", FormatSize(1536))
	assert.Equal(t, "3.0 MB", FormatSize(3*1024*1024))
}

func TestInferContentType(t *testing.T) {
	assert.Equal(t, "audio/wav", inferContentType("a.WAV"))
	assert.Equal(t, "audio/aiff", inferContentType("a.aif"))
	assert.Equal(t, "application/octet-stream", inferContentType("a.txt"))
}

func TestMask(t *testing.T) {
	assert.Equal(t, "****", mask("abc"))
	assert.Equal(t, "minI...", mask("minIOadmin"))
}

func TestRecordingsBeforeInit(t *testing.T) {
	assert.Nil(t, Recordings())
}

func runArchiver(t *testing.T, a *Archiver) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("archiver did not stop")
		}
	})
	// let the watcher register before files appear
	time.Sleep(50 * time.Millisecond)
}

func TestArchiverUploadsSettledRecordings(t *testing.T) {
	dir := t.TempDir()
	up := &fakeUploader{}

	var mu sync.Mutex
	var keys []string
	runArchiver(t, &Archiver{
		Dir:      dir,
		Settle:   50 * time.Millisecond,
		Session:  "s1",
		Uploader: up,
		OnArchived: func(_, key string) {
			mu.Lock()
			keys = append(keys, key)
			mu.Unlock()
		},
	})

	wavPath := filepath.Join(dir, "take1.wav")
	require.NoError(t, os.WriteFile(wavPath, []byte("RIFF....WAVE"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	require.Eventually(t, func() bool { return len(up.uploaded()) == 1 }, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, []string{wavPath}, up.uploaded())

	mu.Lock()
	assert.Equal(t, []string{"recordings/s1/take1.wav"}, keys)
	mu.Unlock()
}

func TestArchiverSkipsEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	up := &fakeUploader{}
	runArchiver(t, &Archiver{Dir: dir, Settle: 20 * time.Millisecond, Uploader: up})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.wav"), nil, 0644))
	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, up.uploaded())
}

func TestCheckPendingDropsFilesThatStayEmpty(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.wav")
	take := filepath.Join(dir, "take.wav")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	require.NoError(t, os.WriteFile(take, []byte("data"), 0644))

	up := &fakeUploader{}
	a := &Archiver{Dir: dir, Settle: time.Second, Uploader: up}
	now := time.Now()

	pending := map[string]time.Time{empty: now.Add(-2 * time.Second)}
	a.checkPending(context.Background(), pending, now)
	assert.Contains(t, pending, empty, "still within the grace period")

	pending = map[string]time.Time{
		empty:                          now.Add(-6 * time.Second),
		filepath.Join(dir, "gone.wav"): now.Add(-6 * time.Second),
		take:                           now.Add(-2 * time.Second),
	}
	a.checkPending(context.Background(), pending, now)
	assert.Empty(t, pending)
	assert.Len(t, up.uploaded(), 1)
}

func TestArchiverUploadFailureIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	up := &fakeUploader{fail: errors.New("bucket gone")}
	called := false
	runArchiver(t, &Archiver{
		Dir:        dir,
		Settle:     20 * time.Millisecond,
		Uploader:   up,
		OnArchived: func(string, string) { called = true },
	})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "take.wav"), []byte("data"), 0644))
	time.Sleep(200 * time.Millisecond)
	assert.False(t, called)
}

func TestArchiverMissingDir(t *testing.T) {
	a := &Archiver{Dir: filepath.Join(t.TempDir(), "nope"), Settle: time.Second, Uploader: &fakeUploader{}}
	assert.Error(t, a.Run(context.Background()))
}

func TestCheckInterval(t *testing.T) {
	assert.Equal(t, 10*time.Millisecond, (&Archiver{Settle: time.Millisecond}).checkInterval())
	assert.Equal(t, 500*time.Millisecond, (&Archiver{Settle: 2 * time.Second}).checkInterval())
}
