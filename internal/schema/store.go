package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ErrSchemaNotFound is returned when no stored version matches a lookup.
var ErrSchemaNotFound = errors.New("form schema not found")

const storeDirPerm = 0o750

// Store persists one immutable JSON record per (form_id, version) under
// <dir>/<form_id>_v<version>.json. Versions are never rewritten; a
// re-ingestion always lands in a new file.
//
// The store serializes its own file access, but concurrent re-ingestion of
// the same form_id from multiple processes must be coordinated by the caller.
type Store struct {
	mu     sync.Mutex
	dir    string
	logger *zap.Logger
}

// NewStore creates a version store rooted at dir.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, storeDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create schema directory %s: %w", dir, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Save writes a schema version to disk. Saving an existing (form_id, version)
// pair overwrites the record wholesale (last write wins).
func (s *Store) Save(schema *FormSchema) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema %s v%d: %w", schema.FormID, schema.Version, err)
	}
	path := s.pathFor(schema.FormID, schema.Version)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write schema file %s: %w", path, err)
	}
	return nil
}

// Load retrieves one specific stored version.
func (s *Store) Load(formID string, version int) (*FormSchema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadFile(s.pathFor(formID, version))
}

// LoadLatest retrieves the highest stored version for a form, scanning all
// version files. Unreadable version files are skipped and logged, so a
// corrupted prior version degrades to "no prior version" rather than
// blocking re-ingestion.
func (s *Store) LoadLatest(formID string) (*FormSchema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	versions := s.versionsOf(formID)
	if len(versions) == 0 {
		return nil, ErrSchemaNotFound
	}

	// Highest version first; fall back to earlier files on corruption.
	sort.Sort(sort.Reverse(sort.IntSlice(versions)))
	for _, v := range versions {
		schema, err := s.loadFile(s.pathFor(formID, v))
		if err != nil {
			s.logger.Warn("skipping unreadable schema version",
				zap.String("form_id", formID),
				zap.Int("version", v),
				zap.Error(err))
			continue
		}
		return schema, nil
	}
	return nil, ErrSchemaNotFound
}

// NextVersion returns the version number a new ingestion of formID should
// use: 1 when nothing is stored, latest+1 otherwise.
func (s *Store) NextVersion(formID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	versions := s.versionsOf(formID)
	max := 0
	for _, v := range versions {
		if v > max {
			max = v
		}
	}
	return max + 1
}

// Versions lists the stored version numbers for a form, ascending.
func (s *Store) Versions(formID string) []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	versions := s.versionsOf(formID)
	sort.Ints(versions)
	return versions
}

// ListLatest loads the latest version of every stored form, sorted by
// form_id. Forms whose files are all unreadable are skipped.
func (s *Store) ListLatest() ([]*FormSchema, error) {
	s.mu.Lock()
	byForm := make(map[string][]int)
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to read schema directory: %w", err)
	}
	for _, entry := range entries {
		formID, version, ok := parseSchemaFilename(entry.Name())
		if !ok {
			continue
		}
		byForm[formID] = append(byForm[formID], version)
	}
	s.mu.Unlock()

	formIDs := make([]string, 0, len(byForm))
	for id := range byForm {
		formIDs = append(formIDs, id)
	}
	sort.Strings(formIDs)

	schemas := make([]*FormSchema, 0, len(formIDs))
	for _, id := range formIDs {
		schema, err := s.LoadLatest(id)
		if err != nil {
			continue
		}
		schemas = append(schemas, schema)
	}
	return schemas, nil
}

func (s *Store) pathFor(formID string, version int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_v%d.json", formID, version))
}

func (s *Store) loadFile(path string) (*FormSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSchemaNotFound
		}
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}
	var schema FormSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("failed to parse schema file %s: %w", path, err)
	}
	return &schema, nil
}

// versionsOf must be called with the mutex held.
func (s *Store) versionsOf(formID string) []int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	var versions []int
	for _, entry := range entries {
		id, version, ok := parseSchemaFilename(entry.Name())
		if !ok || id != formID {
			continue
		}
		versions = append(versions, version)
	}
	return versions
}

// parseSchemaFilename splits "<form_id>_v<version>.json" on the last "_v"
// so form ids containing "_v" still round-trip.
func parseSchemaFilename(name string) (string, int, bool) {
	if !strings.HasSuffix(name, ".json") {
		return "", 0, false
	}
	stem := strings.TrimSuffix(name, ".json")
	idx := strings.LastIndex(stem, "_v")
	if idx <= 0 {
		return "", 0, false
	}
	version, err := strconv.Atoi(stem[idx+2:])
	if err != nil || version < 1 {
		return "", 0, false
	}
	return stem[:idx], version, true
}
