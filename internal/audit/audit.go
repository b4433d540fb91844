// Package audit keeps an append-only JSONL trail of every mutation to
// schemas and mappings. One JSON object per line, one file per UTC day.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Actions recorded by the rest of the system.
const (
	ActionFormIngested      = "form_ingested"
	ActionSchemaVersioned   = "schema_versioned"
	ActionMappingApproved   = "mapping_approved"
	ActionMappingRejected   = "mapping_rejected"
	ActionMappingOverridden = "mapping_overridden"
	ActionBulkApproved      = "bulk_mapping_approved"
	ActionFieldCreated      = "dictionary_field_created"
)

// Entry is one audit record.
type Entry struct {
	ID        string                 `json:"id"`
	Timestamp string                 `json:"timestamp"`
	Action    string                 `json:"action"`
	FormID    string                 `json:"form_id,omitempty"`
	FieldID   string                 `json:"field_id,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// Log is a date-partitioned JSONL audit trail rooted at a directory.
type Log struct {
	mu     sync.Mutex
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// NewLog creates the audit directory if needed and returns a Log.
func NewLog(dir string, logger *zap.Logger) (*Log, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{dir: dir, logger: logger, now: time.Now}, nil
}

// Record appends an entry to today's file and returns it. Entries are never
// rewritten; the file only grows.
func (l *Log) Record(action, formID, fieldID string, details map[string]interface{}) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now().UTC()
	entry := Entry{
		ID:        uuid.NewString(),
		Timestamp: now.Format(time.RFC3339),
		Action:    action,
		FormID:    formID,
		FieldID:   fieldID,
		Details:   details,
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	path := filepath.Join(l.dir, now.Format("2006-01-02")+".jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to open audit file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return Entry{}, fmt.Errorf("failed to append audit entry: %w", err)
	}

	l.logger.Debug("audit entry recorded",
		zap.String("action", action),
		zap.String("form_id", formID),
		zap.String("field_id", fieldID))
	return entry, nil
}

// Recent returns up to limit entries across all days, newest first.
func (l *Log) Recent(limit int) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var results []Entry
	for _, path := range l.sortedFiles() {
		entries, err := readEntries(path)
		if err != nil {
			l.logger.Warn("skipping unreadable audit file",
				zap.String("path", path), zap.Error(err))
			continue
		}
		reverse(entries)
		results = append(results, entries...)
		if len(results) >= limit {
			break
		}
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// ForForm returns up to limit entries touching a form, newest first.
func (l *Log) ForForm(formID string, limit int) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var results []Entry
	for _, path := range l.sortedFiles() {
		entries, err := readEntries(path)
		if err != nil {
			continue
		}
		reverse(entries)
		for _, entry := range entries {
			if entry.FormID != formID {
				continue
			}
			results = append(results, entry)
			if len(results) >= limit {
				return results, nil
			}
		}
	}
	return results, nil
}

// ForDate returns all entries for a YYYY-MM-DD day, newest first.
func (l *Log) ForDate(date string) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := readEntries(filepath.Join(l.dir, date+".jsonl"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	reverse(entries)
	return entries, nil
}

// sortedFiles lists audit files newest day first.
func (l *Log) sortedFiles() []string {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		paths = append(paths, filepath.Join(l.dir, e.Name()))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	return paths
}

func readEntries(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			// A torn write must not hide the rest of the trail.
			continue
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}

func reverse(entries []Entry) {
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
}
