package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aatumaykin/idlebot/internal/constants"
	"github.com/aatumaykin/idlebot/internal/logger"
)

// DefaultFilePath is where the JSON ledger lives unless configured otherwise.
const DefaultFilePath = constants.DefaultActivityFile

// FileBackend stores the whole ledger in one JSON document keyed by user ID.
// Every Put or Delete rewrites the file (write-through, no batching); the
// rewrite goes to a temp file that is renamed over the original.
type FileBackend struct {
	mu       sync.Mutex
	filePath string
	records  map[string]Record
	logger   *logger.Logger
}

// NewFileBackend creates a backend for the JSON file at filePath.
func NewFileBackend(filePath string, log *logger.Logger) *FileBackend {
	return &FileBackend{
		filePath: filePath,
		records:  make(map[string]Record),
		logger:   log,
	}
}

// Path returns the backing file path.
func (b *FileBackend) Path() string {
	return b.filePath
}

// Load reads the file. A missing file yields an empty ledger. An unparsable
// file is moved aside (so the next write does not destroy it) and reported.
func (b *FileBackend) Load(ctx context.Context) (map[string]Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.records = make(map[string]Record)

	records, err := ReadFile(b.filePath)
	if os.IsNotExist(err) {
		b.logger.InfoCtx(ctx, "no activity file found, starting fresh",
			logger.Field{Key: "file", Value: b.filePath})
		return map[string]Record{}, nil
	}
	if err != nil {
		aside := fmt.Sprintf("%s.corrupt-%d", b.filePath, time.Now().Unix())
		if renameErr := os.Rename(b.filePath, aside); renameErr != nil {
			b.logger.ErrorCtx(ctx, "failed to move unreadable activity file aside", renameErr,
				logger.Field{Key: "file", Value: b.filePath})
		} else {
			b.logger.WarnCtx(ctx, "unreadable activity file moved aside",
				logger.Field{Key: "file", Value: b.filePath},
				logger.Field{Key: "moved_to", Value: aside})
		}
		return nil, err
	}

	b.records = records
	return maps.Clone(records), nil
}

// Put stores rec and rewrites the file.
func (b *FileBackend) Put(ctx context.Context, rec Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.records[rec.UserID] = rec
	return b.flush()
}

// Delete removes userID and rewrites the file.
func (b *FileBackend) Delete(ctx context.Context, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.records, userID)
	return b.flush()
}

// Close is a no-op; the file is never held open.
func (b *FileBackend) Close() error {
	return nil
}

func (b *FileBackend) flush() error {
	return WriteFile(b.filePath, b.records)
}

// ReadFile decodes a ledger file, including legacy files without first_seen.
// The returned error satisfies os.IsNotExist for missing files.
func ReadFile(filePath string) (map[string]Record, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var stored map[string]storedRecord
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse activity file %s: %w", filePath, err)
	}

	records := make(map[string]Record, len(stored))
	for userID, raw := range stored {
		rec, err := decodeRecord(userID, raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse activity file %s: %w", filePath, err)
		}
		records[userID] = rec
	}
	return records, nil
}

// WriteFile atomically replaces filePath with records.
func WriteFile(filePath string, records map[string]Record) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create activity directory %s: %w", dir, err)
	}

	stored := make(map[string]storedRecord, len(records))
	for userID, rec := range records {
		stored[userID] = encodeRecord(rec)
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal activity: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(filePath)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp activity file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write activity file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close activity file: %w", err)
	}
	if err := os.Rename(tmpName, filePath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace activity file: %w", err)
	}
	return nil
}
