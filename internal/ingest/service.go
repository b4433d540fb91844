// Package ingest orchestrates the pipeline that turns an uploaded PDF into
// a versioned schema with mapping suggestions: classify, extract, tag
// roles, auto-map, carry approvals forward, persist, audit.
package ingest

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fieldline/fieldline/internal/audit"
	"github.com/fieldline/fieldline/internal/mapping"
	"github.com/fieldline/fieldline/internal/schema"
)

// DocumentParser is the PDF reading surface the pipeline needs. The concrete
// implementation lives in internal/pdf; tests substitute fakes.
type DocumentParser interface {
	Classify(data []byte) schema.SourceType
	ExtractFormFields(data []byte) ([]schema.FieldRecord, error)
	ExtractTextBlocks(data []byte) ([]schema.FieldRecord, error)
}

// RoleClassifier tags fields with the party they belong to.
type RoleClassifier interface {
	Classify(fields []schema.FieldRecord) int
}

// Service wires the pipeline stages together.
type Service struct {
	parser   DocumentParser
	roles    RoleClassifier
	engine   *mapping.Engine
	schemas  *schema.Store
	mappings *mapping.Store
	audit    *audit.Log
	logger   *zap.Logger
}

// NewService creates the ingestion pipeline. auditLog may be nil in tests.
func NewService(parser DocumentParser, roleClassifier RoleClassifier, engine *mapping.Engine,
	schemas *schema.Store, mappings *mapping.Store, auditLog *audit.Log, logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		parser:   parser,
		roles:    roleClassifier,
		engine:   engine,
		schemas:  schemas,
		mappings: mappings,
		audit:    auditLog,
		logger:   logger,
	}
}

// Result is everything one ingestion produced.
type Result struct {
	Schema         *schema.FormSchema
	Mappings       mapping.MappingSet
	Diff           *schema.DiffResult
	CarriedForward int
	Warnings       []string
}

// Ingest runs the full pipeline on raw PDF bytes. A document that cannot be
// read still produces a schema: it lands as scanned with zero fields.
// Dictionary trouble degrades to a warning so the extracted schema is never
// lost.
func (s *Service) Ingest(formID, title string, data []byte) (Result, error) {
	if formID == "" {
		return Result{}, fmt.Errorf("form id cannot be empty")
	}

	var result Result

	source := s.parser.Classify(data)
	fields, warnings := s.extract(source, data)
	result.Warnings = warnings

	// Fall back to scanned when the chosen extraction path produced
	// nothing usable.
	if source != schema.SourceScanned && len(fields) == 0 && len(warnings) > 0 {
		source = schema.SourceScanned
	}

	if source == schema.SourceFillable {
		s.roles.Classify(fields)
	}

	prior, err := s.schemas.LoadLatest(formID)
	havePrior := err == nil
	if err != nil && !errors.Is(err, schema.ErrSchemaNotFound) {
		return Result{}, fmt.Errorf("failed to load prior schema: %w", err)
	}

	built := schema.NewBuilder().Build(fields, formID, title, source)
	built.Version = s.schemas.NextVersion(formID)
	if err := s.schemas.Save(built); err != nil {
		return Result{}, fmt.Errorf("failed to persist schema: %w", err)
	}
	result.Schema = built

	if havePrior {
		diff := schema.Diff(prior, built)
		result.Diff = &diff
	}

	set, err := s.engine.AutoMap(fields, formID)
	if err != nil {
		if !errors.Is(err, mapping.ErrDictionaryUnavailable) {
			return Result{}, fmt.Errorf("auto-mapping failed: %w", err)
		}
		result.Warnings = append(result.Warnings, err.Error())
		s.logger.Warn("dictionary unavailable, all fields unmatched",
			zap.String("form_id", formID), zap.Error(err))
	}

	result.CarriedForward = s.carryForward(&set, formID)

	if err := s.mappings.Save(set); err != nil {
		return Result{}, fmt.Errorf("failed to persist mappings: %w", err)
	}
	result.Mappings = set

	s.record(formID, built, result)
	return result, nil
}

// extract runs the extraction path for the source type. Failures come back
// as warnings, not errors; the caller decides what an empty field list
// means.
func (s *Service) extract(source schema.SourceType, data []byte) ([]schema.FieldRecord, []string) {
	switch source {
	case schema.SourceFillable:
		fields, err := s.parser.ExtractFormFields(data)
		if err != nil {
			s.logger.Warn("form field extraction failed", zap.Error(err))
			return nil, []string{fmt.Sprintf("field extraction failed: %v", err)}
		}
		return fields, nil
	case schema.SourceFlatText:
		fields, err := s.parser.ExtractTextBlocks(data)
		if err != nil {
			s.logger.Warn("text block extraction failed", zap.Error(err))
			return nil, []string{fmt.Sprintf("text extraction failed: %v", err)}
		}
		return fields, nil
	default:
		return nil, nil
	}
}

// carryForward copies approved decisions from the form's previous mapping
// state onto the fresh suggestions. Only exact field id matches carry over;
// a renamed control starts review from scratch.
func (s *Service) carryForward(set *mapping.MappingSet, formID string) int {
	prior, err := s.mappings.Load(formID)
	if err != nil {
		return 0
	}

	approved := make(map[string]mapping.FieldMapping)
	for _, m := range prior.Mappings {
		if m.Approved && m.TargetField != "" {
			approved[m.FieldID] = m
		}
	}

	carried := 0
	for i := range set.Mappings {
		old, ok := approved[set.Mappings[i].FieldID]
		if !ok {
			continue
		}
		fresh := &set.Mappings[i]
		fresh.TargetObject = old.TargetObject
		fresh.TargetField = old.TargetField
		fresh.MatchMethod = old.MatchMethod
		fresh.Confidence = old.Confidence
		fresh.Approved = true
		fresh.Rejected = false
		fresh.ApprovedBy = old.ApprovedBy
		fresh.ApprovedAt = old.ApprovedAt
		carried++
	}
	return carried
}

func (s *Service) record(formID string, built *schema.FormSchema, result Result) {
	if s.audit == nil {
		return
	}
	details := map[string]interface{}{
		"version":         built.Version,
		"version_hash":    built.VersionHash,
		"source":          string(built.Source),
		"field_count":     len(built.Fields),
		"carried_forward": result.CarriedForward,
	}
	if len(result.Warnings) > 0 {
		details["warnings"] = result.Warnings
	}
	if result.Diff != nil {
		details["fields_added"] = len(result.Diff.Added)
		details["fields_removed"] = len(result.Diff.Removed)
		details["fields_changed"] = len(result.Diff.Changed)
	}
	if _, err := s.audit.Record(audit.ActionFormIngested, formID, "", details); err != nil {
		s.logger.Warn("failed to record ingestion audit entry",
			zap.String("form_id", formID), zap.Error(err))
	}

	// A re-ingestion that created a new version on top of a prior one gets
	// its own trail entry alongside the ingestion itself.
	if result.Diff == nil {
		return
	}
	versioned := map[string]interface{}{
		"version":        built.Version,
		"version_hash":   built.VersionHash,
		"fields_added":   len(result.Diff.Added),
		"fields_removed": len(result.Diff.Removed),
		"fields_changed": len(result.Diff.Changed),
	}
	if _, err := s.audit.Record(audit.ActionSchemaVersioned, formID, "", versioned); err != nil {
		s.logger.Warn("failed to record versioning audit entry",
			zap.String("form_id", formID), zap.Error(err))
	}
}
