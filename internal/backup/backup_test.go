package backup

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/mossfirth/hearthward/internal/database"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, &s3NotFound{}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(data)),
	}, nil
}

func (m *mockS3Client) ListObjectsV2(_ context.Context, input *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := &s3.ListObjectsV2Output{}
	for key := range m.objects {
		if strings.HasPrefix(key, aws.ToString(input.Prefix)) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
		}
	}
	return out, nil
}

func (m *mockS3Client) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

type s3NotFound struct{}

func (e *s3NotFound) Error() string { return "NoSuchKey" }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSnapshotter(t *testing.T) (*Snapshotter, *mockS3Client, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "hearthward.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s := NewSnapshotter(Config{
		S3:         S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
		DBPath:     dbPath,
		Passphrase: "hunter2",
		Retention:  30 * 24 * time.Hour,
	}, db, testLogger())
	if s == nil {
		t.Fatal("NewSnapshotter returned nil for a configured setup")
	}
	mock := newMockS3()
	s.client = mock
	return s, mock, dbPath
}

func TestNewSnapshotterUnconfigured(t *testing.T) {
	if s := NewSnapshotter(Config{}, nil, testLogger()); s != nil {
		t.Error("NewSnapshotter() without S3 config = non-nil, want nil")
	}
	if s := NewSnapshotter(Config{
		S3: S3Config{Bucket: "b", AccessKey: "a", SecretKey: "s"},
	}, nil, testLogger()); s != nil {
		t.Error("NewSnapshotter() without passphrase = non-nil, want nil")
	}
}

func TestSnapshotUploadsEncrypted(t *testing.T) {
	s, mock, _ := testSnapshotter(t)

	key, err := s.Snapshot(t.Context())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if !strings.HasPrefix(key, keyPrefix) || !strings.HasSuffix(key, ".db.enc") {
		t.Errorf("snapshot key = %q, want %s...db.enc", key, keyPrefix)
	}

	sealed, ok := mock.objects[key]
	if !ok {
		t.Fatalf("no object uploaded at %q", key)
	}
	plaintext, err := Open(sealed, "hunter2")
	if err != nil {
		t.Fatalf("uploaded snapshot does not decrypt: %v", err)
	}
	// SQLite files start with this magic string.
	if !bytes.HasPrefix(plaintext, []byte("SQLite format 3")) {
		t.Error("decrypted snapshot is not a SQLite database")
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	s, _, _ := testSnapshotter(t)

	key, err := s.Snapshot(t.Context())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	dest := filepath.Join(t.TempDir(), "restored.db")
	if err := s.Restore(t.Context(), key, dest); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	db, err := database.Open(dest)
	if err != nil {
		t.Fatalf("open restored database: %v", err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM households").Scan(&n); err != nil {
		t.Fatalf("query restored database: %v", err)
	}
}

func TestRestoreWrongPassphrase(t *testing.T) {
	s, _, _ := testSnapshotter(t)

	key, err := s.Snapshot(t.Context())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	s.cfg.Passphrase = "not hunter2"
	dest := filepath.Join(t.TempDir(), "restored.db")
	if err := s.Restore(t.Context(), key, dest); err == nil {
		t.Error("Restore() with wrong passphrase succeeded, want error")
	}
}

func TestPruneDeletesExpired(t *testing.T) {
	s, mock, _ := testSnapshotter(t)

	oldKey := keyPrefix + time.Now().UTC().Add(-60*24*time.Hour).Format(keyTimeFmt) + ".db.enc"
	freshKey := keyPrefix + time.Now().UTC().Format(keyTimeFmt) + ".db.enc"
	mock.objects[oldKey] = []byte("old")
	mock.objects[freshKey] = []byte("fresh")
	mock.objects["unrelated/object"] = []byte("keep")

	if err := s.prune(t.Context()); err != nil {
		t.Fatalf("prune() error = %v", err)
	}

	if _, ok := mock.objects[oldKey]; ok {
		t.Error("expired snapshot not deleted")
	}
	if _, ok := mock.objects[freshKey]; !ok {
		t.Error("fresh snapshot was deleted")
	}
	if _, ok := mock.objects["unrelated/object"]; !ok {
		t.Error("object outside snapshot prefix was deleted")
	}
}

func TestSnapshotTimeParsing(t *testing.T) {
	ts, ok := snapshotTime(keyPrefix + "2026-08-29T120000Z.db.enc")
	if !ok {
		t.Fatal("snapshotTime() failed on a valid key")
	}
	if ts.Year() != 2026 || ts.Month() != time.August || ts.Day() != 29 {
		t.Errorf("snapshotTime() = %v, want 2026-08-29", ts)
	}
	if _, ok := snapshotTime("snapshots/garbage"); ok {
		t.Error("snapshotTime() parsed a malformed key")
	}
}

func TestStartStop(t *testing.T) {
	s, _, _ := testSnapshotter(t)
	s.cfg.Interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()
	s.Stop()
}
