package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fieldline/fieldline/internal/audit"
)

// ErrMappingSetNotFound is returned when a form has no mapping state yet.
var ErrMappingSetNotFound = errors.New("mapping set not found")

// ErrMappingNotFound is returned when a field id is absent from a set.
var ErrMappingNotFound = errors.New("mapping not found")

// ErrNoTarget is returned when approving a mapping that has no target.
var ErrNoTarget = errors.New("mapping has no target field to approve")

// Store persists one JSON file per form under its directory and applies the
// review operations. Every mutation lands in the audit trail.
type Store struct {
	mu     sync.Mutex
	dir    string
	audit  *audit.Log
	logger *zap.Logger
	now    func() time.Time
}

// NewStore creates the mappings directory if needed. auditLog may be nil in
// tests.
func NewStore(dir string, auditLog *audit.Log, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create mappings directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, audit: auditLog, logger: logger, now: time.Now}, nil
}

// Save writes a mapping set to <dir>/<form_id>.json.
func (s *Store) Save(set MappingSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(set)
}

// Load reads the mapping set for a form.
func (s *Store) Load(formID string) (MappingSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(formID)
}

// List returns every saved mapping set, sorted by form id. Unreadable files
// are skipped.
func (s *Store) List() ([]MappingSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read mappings directory: %w", err)
	}

	var sets []MappingSet
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		set, err := s.loadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			s.logger.Warn("skipping unreadable mapping set",
				zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		sets = append(sets, set)
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].FormID < sets[j].FormID })
	return sets, nil
}

// Approve marks a mapping as approved. The mapping must carry a target.
func (s *Store) Approve(formID, fieldID, approvedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, mapping, err := s.findLocked(formID, fieldID)
	if err != nil {
		return err
	}
	if mapping.TargetField == "" {
		return ErrNoTarget
	}

	mapping.Approved = true
	mapping.Rejected = false
	mapping.ApprovedBy = approvedBy
	mapping.ApprovedAt = s.now().UTC().Format(time.RFC3339)

	if err := s.saveLocked(set); err != nil {
		return err
	}
	s.record(audit.ActionMappingApproved, formID, fieldID, map[string]interface{}{
		"target_field": mapping.TargetField,
		"method":       string(mapping.MatchMethod),
		"confidence":   mapping.Confidence,
		"approved_by":  approvedBy,
	})
	return nil
}

// Reject turns down a suggestion. The target stays on the record, flagged
// rejected, so reviewers can still see what was proposed.
func (s *Store) Reject(formID, fieldID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, mapping, err := s.findLocked(formID, fieldID)
	if err != nil {
		return err
	}

	mapping.Rejected = true
	mapping.Approved = false
	mapping.ApprovedBy = ""
	mapping.ApprovedAt = ""

	if err := s.saveLocked(set); err != nil {
		return err
	}
	s.record(audit.ActionMappingRejected, formID, fieldID, map[string]interface{}{
		"rejected_target": mapping.TargetField,
		"method":          string(mapping.MatchMethod),
	})
	return nil
}

// Override replaces a mapping with a reviewer-chosen target and approves it
// in the same step.
func (s *Store) Override(formID, fieldID, targetField, targetObject, approvedBy string) error {
	if targetField == "" {
		return fmt.Errorf("override target field cannot be empty")
	}
	if targetObject == "" {
		targetObject = "Contact"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set, mapping, err := s.findLocked(formID, fieldID)
	if err != nil {
		return err
	}

	previousField := mapping.TargetField
	previousObject := mapping.TargetObject

	mapping.TargetField = targetField
	mapping.TargetObject = targetObject
	mapping.MatchMethod = MatchManual
	mapping.Confidence = 1.0
	mapping.Approved = true
	mapping.Rejected = false
	mapping.ApprovedBy = approvedBy
	mapping.ApprovedAt = s.now().UTC().Format(time.RFC3339)

	if err := s.saveLocked(set); err != nil {
		return err
	}
	s.record(audit.ActionMappingOverridden, formID, fieldID, map[string]interface{}{
		"previous_target_field":  previousField,
		"previous_target_object": previousObject,
		"new_target_field":       targetField,
		"new_target_object":      targetObject,
		"approved_by":            approvedBy,
	})
	return nil
}

// BulkApprove approves every pending mapping at or above the confidence
// threshold and returns how many were approved. Rejected mappings are never
// picked up.
func (s *Store) BulkApprove(formID string, threshold float64, approvedBy string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.loadLocked(formID)
	if err != nil {
		return 0, err
	}

	now := s.now().UTC().Format(time.RFC3339)
	count := 0
	for i := range set.Mappings {
		m := &set.Mappings[i]
		if m.TargetField == "" || m.Approved || m.Rejected || m.Confidence < threshold {
			continue
		}
		m.Approved = true
		m.ApprovedBy = approvedBy
		m.ApprovedAt = now
		count++
	}

	if count == 0 {
		return 0, nil
	}
	if err := s.saveLocked(set); err != nil {
		return 0, err
	}
	s.record(audit.ActionBulkApproved, formID, "", map[string]interface{}{
		"threshold":   threshold,
		"count":       count,
		"approved_by": approvedBy,
	})
	return count, nil
}

// ApprovedTargets builds the cross-form history lookup used by tier 3 of
// the matcher: lowercased field id to approved target field.
func (s *Store) ApprovedTargets() map[string]string {
	sets, err := s.List()
	if err != nil {
		return nil
	}
	history := make(map[string]string)
	for _, set := range sets {
		for _, m := range set.Mappings {
			if m.Approved && m.TargetField != "" {
				history[strings.ToLower(m.FieldID)] = m.TargetField
			}
		}
	}
	return history
}

func (s *Store) record(action, formID, fieldID string, details map[string]interface{}) {
	if s.audit == nil {
		return
	}
	if _, err := s.audit.Record(action, formID, fieldID, details); err != nil {
		s.logger.Warn("failed to record audit entry",
			zap.String("action", action), zap.Error(err))
	}
}

func (s *Store) findLocked(formID, fieldID string) (MappingSet, *FieldMapping, error) {
	set, err := s.loadLocked(formID)
	if err != nil {
		return MappingSet{}, nil, err
	}
	mapping := set.Find(fieldID)
	if mapping == nil {
		return MappingSet{}, nil, fmt.Errorf("%w: %s on form %s", ErrMappingNotFound, fieldID, formID)
	}
	return set, mapping, nil
}

func (s *Store) saveLocked(set MappingSet) error {
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal mapping set: %w", err)
	}
	path := filepath.Join(s.dir, set.FormID+".json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write mapping set: %w", err)
	}
	return nil
}

func (s *Store) loadLocked(formID string) (MappingSet, error) {
	return s.loadFile(filepath.Join(s.dir, formID+".json"))
}

func (s *Store) loadFile(path string) (MappingSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return MappingSet{}, ErrMappingSetNotFound
		}
		return MappingSet{}, fmt.Errorf("failed to read mapping set: %w", err)
	}
	var set MappingSet
	if err := json.Unmarshal(data, &set); err != nil {
		return MappingSet{}, fmt.Errorf("failed to parse mapping set: %w", err)
	}
	return set, nil
}
