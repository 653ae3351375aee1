package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"smpctl/logger"
)

// RecordingPrefix is the object prefix every archived recording lives under.
const RecordingPrefix = "recordings/"

// BucketStats 存储桶统计信息
type BucketStats struct {
	TotalObjects int64
	TotalSize    int64
	LastModified time.Time
}

// ObjectInfo 文件信息
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
	ContentType  string    `json:"contentType,omitempty"`
	ETag         string    `json:"etag,omitempty"`
}

// RecordingStore uploads and lists recordings in one bucket.
type RecordingStore struct {
	client *minio.Client
	bucket string
}

func NewRecordingStore(client *minio.Client, bucket string) *RecordingStore {
	return &RecordingStore{client: client, bucket: bucket}
}

func (s *RecordingStore) Bucket() string { return s.bucket }

// RecordingKey builds recordings/<session>/<file>.
func RecordingKey(session, filename string) string {
	if session == "" {
		session = "unsorted"
	}
	return path.Join(strings.TrimSuffix(RecordingPrefix, "/"), session, filepath.Base(filename))
}

// UploadRecording uploads a finished local recording and returns its key.
func (s *RecordingStore) UploadRecording(ctx context.Context, session, file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", fmt.Errorf("failed to open recording: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat recording: %w", err)
	}

	key := RecordingKey(session, file)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err = s.client.PutObject(ctx, s.bucket, key, f, info.Size(), minio.PutObjectOptions{
		ContentType: inferContentType(file),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	logger.Info("recording archived",
		logger.String("key", key),
		logger.String("size", FormatSize(info.Size())))
	return key, nil
}

// ListRecordings 列出存储桶中的录音 with their totals.
func (s *RecordingStore) ListRecordings(ctx context.Context, session string) ([]ObjectInfo, *BucketStats, error) {
	prefix := RecordingPrefix
	if session != "" {
		prefix += session + "/"
	}

	stats := &BucketStats{}
	var objects []ObjectInfo

	objectCh := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for object := range objectCh {
		if object.Err != nil {
			return nil, nil, fmt.Errorf("failed to list objects: %w", object.Err)
		}
		stats.TotalObjects++
		stats.TotalSize += object.Size
		if object.LastModified.After(stats.LastModified) {
			stats.LastModified = object.LastModified
		}
		objects = append(objects, ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			ContentType:  object.ContentType,
			ETag:         object.ETag,
		})
	}
	return objects, stats, nil
}

// FormatSize 格式化文件大小
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

func inferContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav":
		return "audio/wav"
	case ".aif", ".aiff":
		return "audio/aiff"
	case ".mp3":
		return "audio/mpeg"
	case ".ogg":
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}
