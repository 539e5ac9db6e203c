package backup

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	keyPrefix  = "snapshots/"
	keyTimeFmt = "2006-01-02T150405Z"
)

// s3Client is the subset of the S3 API the snapshotter uses, as an
// interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Config holds snapshotter configuration. The passphrase encrypts every
// snapshot before upload; snapshots are useless without it.
type Config struct {
	S3         S3Config
	DBPath     string
	Passphrase string
	Interval   time.Duration
	Retention  time.Duration
}

// Snapshotter periodically uploads an encrypted copy of the ledger
// database to S3-compatible storage. It keeps no local state: retention
// is enforced by listing the snapshot prefix and parsing timestamps out
// of object keys.
type Snapshotter struct {
	cfg    Config
	db     *sql.DB
	client s3Client
	logger *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
	mu     sync.Mutex
}

// NewSnapshotter returns a snapshotter, or nil if S3 credentials or the
// passphrase are not configured.
func NewSnapshotter(cfg Config, db *sql.DB, logger *slog.Logger) *Snapshotter {
	if cfg.S3.Bucket == "" || cfg.S3.AccessKey == "" || cfg.S3.SecretKey == "" || cfg.Passphrase == "" {
		return nil
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 30 * 24 * time.Hour
	}
	return &Snapshotter{
		cfg:    cfg,
		db:     db,
		client: newS3Client(cfg.S3),
		logger: logger,
	}
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Start begins the snapshot loop.
func (s *Snapshotter) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Snapshot(ctx); err != nil {
					s.logger.Error("scheduled snapshot failed", "error", err)
					continue
				}
				if err := s.prune(ctx); err != nil {
					s.logger.Error("snapshot prune failed", "error", err)
				}
			}
		}
	}()
}

// Stop stops the snapshot loop and waits for it to exit.
func (s *Snapshotter) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Snapshot checkpoints the WAL, encrypts a copy of the database file, and
// uploads it. Returns the object key.
func (s *Snapshotter) Snapshot(ctx context.Context) (string, error) {
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return "", fmt.Errorf("wal checkpoint: %w", err)
	}

	dbCopy := filepath.Join(os.TempDir(), fmt.Sprintf("hearthward-snapshot-%d.db", time.Now().UnixNano()))
	defer os.Remove(dbCopy)
	if err := copyFile(s.cfg.DBPath, dbCopy); err != nil {
		return "", fmt.Errorf("copy database: %w", err)
	}

	plaintext, err := os.ReadFile(dbCopy)
	if err != nil {
		return "", fmt.Errorf("read database copy: %w", err)
	}

	sealed, err := Seal(plaintext, s.cfg.Passphrase)
	if err != nil {
		return "", fmt.Errorf("encrypt snapshot: %w", err)
	}

	key := keyPrefix + time.Now().UTC().Format(keyTimeFmt) + ".db.enc"
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.S3.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(sealed),
		ContentLength: aws.Int64(int64(len(sealed))),
	})
	if err != nil {
		return "", fmt.Errorf("upload snapshot: %w", err)
	}

	s.logger.Info("snapshot uploaded", "key", key, "bytes", len(sealed))
	return key, nil
}

// Restore downloads and decrypts a snapshot into destPath, verifying
// SQLite integrity before declaring success. The caller is responsible
// for restarting the process against the restored file.
func (s *Snapshotter) Restore(ctx context.Context, key, destPath string) error {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.S3.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("download snapshot: %w", err)
	}
	defer out.Body.Close()

	sealed, err := io.ReadAll(out.Body)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	plaintext, err := Open(sealed, s.cfg.Passphrase)
	if err != nil {
		return fmt.Errorf("decrypt snapshot: %w", err)
	}

	tmp := destPath + ".restore"
	defer os.Remove(tmp)
	if err := os.WriteFile(tmp, plaintext, 0600); err != nil {
		return fmt.Errorf("write restored database: %w", err)
	}

	check, err := sql.Open("sqlite", tmp)
	if err != nil {
		return fmt.Errorf("open restored database: %w", err)
	}
	var integrity string
	err = check.QueryRow("PRAGMA integrity_check").Scan(&integrity)
	check.Close()
	if err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if integrity != "ok" {
		return fmt.Errorf("integrity check failed: %s", integrity)
	}

	if err := os.Rename(tmp, destPath); err != nil {
		return fmt.Errorf("replace database: %w", err)
	}
	os.Remove(destPath + "-wal")
	os.Remove(destPath + "-shm")
	return nil
}

// prune deletes snapshots older than the retention window, keyed off the
// timestamp embedded in the object name.
func (s *Snapshotter) prune(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-s.cfg.Retention)

	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.cfg.S3.Bucket),
		Prefix: aws.String(keyPrefix),
	})
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}

	for _, obj := range out.Contents {
		key := aws.ToString(obj.Key)
		ts, ok := snapshotTime(key)
		if !ok || !ts.Before(cutoff) {
			continue
		}
		if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.cfg.S3.Bucket),
			Key:    aws.String(key),
		}); err != nil {
			s.logger.Warn("failed to delete expired snapshot", "key", key, "error", err)
		}
	}
	return nil
}

func snapshotTime(key string) (time.Time, bool) {
	name := key
	if len(name) > len(keyPrefix) && name[:len(keyPrefix)] == keyPrefix {
		name = name[len(keyPrefix):]
	}
	const suffix = ".db.enc"
	if len(name) <= len(suffix) || name[len(name)-len(suffix):] != suffix {
		return time.Time{}, false
	}
	ts, err := time.Parse(keyTimeFmt, name[:len(name)-len(suffix)])
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0600)
}
