package mapping

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/agext/levenshtein"
	"go.uber.org/zap"

	"github.com/fieldline/fieldline/internal/schema"
)

// Confidence assigned by each tier. Fuzzy matches carry their raw
// similarity instead of a fixed value.
const (
	confidenceExact   = 1.0
	confidenceSynonym = 0.95
	confidenceHistory = 0.85
)

// DefaultFuzzyThreshold is the minimum similarity a fuzzy match must reach.
const DefaultFuzzyThreshold = 0.7

// HistoryProvider supplies previously approved targets, keyed by lowercased
// display label or field id.
type HistoryProvider interface {
	ApprovedTargets() map[string]string
}

// EngineConfig carries the tunables of the matcher.
type EngineConfig struct {
	// Objects is the dictionary object search order. Empty means
	// DefaultObjects.
	Objects []string
	// Synonyms is the label table. Nil means DefaultSynonyms.
	Synonyms Synonyms
	// FuzzyThreshold is the minimum similarity for tier 4. Zero means
	// DefaultFuzzyThreshold.
	FuzzyThreshold float64
}

// Engine runs the tiered matcher:
//
//	tier 1  exact label match against the dictionary     confidence 1.0
//	tier 2  synonym table lookup                          confidence 0.95
//	tier 3  previously approved mapping on another form   confidence 0.85
//	tier 4  fuzzy label similarity                        confidence = similarity
//
// Fields tagged with a role are skipped; they belong to the preparer or
// attorney, not the contact record.
type Engine struct {
	dict      Dictionary
	history   HistoryProvider
	objects   []string
	synonyms  Synonyms
	threshold float64
	logger    *zap.Logger
	now       func() time.Time
}

// NewEngine creates a matcher over the given dictionary. history may be nil
// when no approvals exist yet.
func NewEngine(dict Dictionary, history HistoryProvider, cfg EngineConfig, logger *zap.Logger) *Engine {
	if len(cfg.Objects) == 0 {
		cfg.Objects = DefaultObjects()
	}
	if cfg.Synonyms == nil {
		cfg.Synonyms = DefaultSynonyms()
	}
	if cfg.FuzzyThreshold <= 0 {
		cfg.FuzzyThreshold = DefaultFuzzyThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		dict:      dict,
		history:   history,
		objects:   cfg.Objects,
		synonyms:  cfg.Synonyms,
		threshold: cfg.FuzzyThreshold,
		logger:    logger,
		now:       time.Now,
	}
}

// candidate is one dictionary field flattened into the search space.
type candidate struct {
	label  string
	api    string
	object string
	typ    string
}

// AutoMap produces one mapping per eligible field. When the dictionary
// cannot be described at all, every field comes back unmatched and the error
// wraps ErrDictionaryUnavailable; the caller decides whether that is fatal.
func (e *Engine) AutoMap(fields []schema.FieldRecord, formID string) (MappingSet, error) {
	candidates, describeErr := e.describeAll()

	labelToCandidate := make(map[string]candidate)
	typeByAPI := make(map[string]string)
	for _, c := range candidates {
		lower := strings.ToLower(c.label)
		// First object in the search order wins a contested label.
		if _, ok := labelToCandidate[lower]; !ok {
			labelToCandidate[lower] = c
		}
		if _, ok := typeByAPI[c.api]; !ok {
			typeByAPI[c.api] = c.typ
		}
	}

	var history map[string]string
	if e.history != nil {
		history = e.history.ApprovedTargets()
	}

	set := MappingSet{
		FormID:         formID,
		LastAutoMapped: e.now().UTC().Format(time.RFC3339),
		Version:        1,
	}

	for _, field := range fields {
		if field.Role != schema.RoleNone {
			continue
		}
		var m FieldMapping
		if describeErr != nil {
			// No dictionary, no suggestions. Everything lands unmatched and
			// can be re-mapped once the dictionary is reachable again.
			m = FieldMapping{TargetObject: "Contact"}
		} else {
			m = e.matchField(field, labelToCandidate, typeByAPI, candidates, history)
		}
		m.FormID = formID
		m.FieldID = field.FieldID
		set.Mappings = append(set.Mappings, m)
	}

	if describeErr != nil {
		return set, fmt.Errorf("%w: %v", ErrDictionaryUnavailable, describeErr)
	}
	return set, nil
}

func (e *Engine) matchField(field schema.FieldRecord, labelToCandidate map[string]candidate,
	typeByAPI map[string]string, candidates []candidate, history map[string]string,
) FieldMapping {
	unmatched := FieldMapping{TargetObject: "Contact"}

	// A target suggested during role classification is verified against the
	// dictionary: a described, type-compatible field counts as an exact
	// match. A target the dictionary does not describe stays in the keyword
	// band.
	if field.TargetField != "" {
		for _, c := range candidates {
			if c.api == field.TargetField && typeCompatible(field.FieldType, c.typ) {
				return FieldMapping{
					TargetObject: c.object,
					TargetField:  c.api,
					MatchMethod:  MatchExact,
					Confidence:   confidenceExact,
				}
			}
		}
		return FieldMapping{
			TargetObject: "Contact",
			TargetField:  field.TargetField,
			MatchMethod:  MatchSynonym,
			Confidence:   confidenceSynonym,
		}
	}

	label := strings.ToLower(strings.TrimSpace(field.DisplayLabel))
	if label == "" {
		return unmatched
	}

	// Tier 1: exact label match.
	if c, ok := labelToCandidate[label]; ok && typeCompatible(field.FieldType, c.typ) {
		return FieldMapping{
			TargetObject: c.object,
			TargetField:  c.api,
			MatchMethod:  MatchExact,
			Confidence:   confidenceExact,
		}
	}

	// Tier 2: synonym table.
	if target, ok := e.synonyms[label]; ok {
		if typ, known := typeByAPI[target.Field]; !known || typeCompatible(field.FieldType, typ) {
			return FieldMapping{
				TargetObject: target.Object,
				TargetField:  target.Field,
				MatchMethod:  MatchSynonym,
				Confidence:   confidenceSynonym,
			}
		}
	}

	// Tier 3: approved on another form.
	if target := firstNonEmpty(history[label], history[strings.ToLower(field.FieldID)]); target != "" {
		if typ, known := typeByAPI[target]; !known || typeCompatible(field.FieldType, typ) {
			return FieldMapping{
				TargetObject: "Contact",
				TargetField:  target,
				MatchMethod:  MatchHistory,
				Confidence:   confidenceHistory,
			}
		}
	}

	// Tier 4: fuzzy similarity across all type-compatible candidates.
	best := candidate{}
	bestScore := 0.0
	for _, c := range candidates {
		if !typeCompatible(field.FieldType, c.typ) {
			continue
		}
		score := levenshtein.Similarity(label, strings.ToLower(c.label), nil)
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	if bestScore >= e.threshold {
		return FieldMapping{
			TargetObject: best.object,
			TargetField:  best.api,
			MatchMethod:  MatchFuzzy,
			Confidence:   math.Round(bestScore*10000) / 10000,
		}
	}

	return unmatched
}

// describeAll flattens the configured objects into the candidate list. The
// error is non-nil only when every describe call failed.
func (e *Engine) describeAll() ([]candidate, error) {
	var candidates []candidate
	var lastErr error
	failures := 0

	for _, object := range e.objects {
		fields, err := e.dict.DescribeFields(object)
		if err != nil {
			e.logger.Warn("dictionary describe failed",
				zap.String("object", object), zap.Error(err))
			failures++
			lastErr = err
			continue
		}
		for _, f := range fields {
			candidates = append(candidates, candidate{
				label:  f.Label,
				api:    f.APIName,
				object: object,
				typ:    f.Type,
			})
		}
	}

	if failures == len(e.objects) && lastErr != nil {
		return nil, lastErr
	}
	return candidates, nil
}

// typeCompatible filters out matches that could never hold the field's
// data: a checkbox only fits a boolean, a date control only fits date
// types, and choice controls need a picklist or free string. Free text fits
// anything except a boolean.
func typeCompatible(fieldType schema.FieldType, dictType string) bool {
	if dictType == "" {
		return true
	}
	switch fieldType {
	case schema.FieldTypeCheckbox:
		return dictType == DictTypeBoolean
	case schema.FieldTypeDate:
		return dictType == DictTypeDate || dictType == DictTypeDateTime
	case schema.FieldTypeSelect, schema.FieldTypeCombo:
		return dictType == DictTypePicklist || dictType == DictTypeString
	default:
		return dictType != DictTypeBoolean
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
