package pdf

import (
	"go.uber.org/zap"

	"github.com/fieldline/fieldline/internal/schema"
)

// Parser bundles classification and both extraction paths behind one type,
// which is what the ingestion pipeline consumes.
type Parser struct {
	classifier *Classifier
	extractor  *Extractor
	textBlocks *TextBlockExtractor
}

// NewParser creates a parser over all three PDF readers.
func NewParser(logger *zap.Logger) *Parser {
	return &Parser{
		classifier: NewClassifier(logger),
		extractor:  NewExtractor(logger),
		textBlocks: NewTextBlockExtractor(logger),
	}
}

// Classify reports how the document can be processed.
func (p *Parser) Classify(data []byte) schema.SourceType {
	return p.classifier.Classify(data)
}

// ExtractFormFields pulls interactive widget fields from a fillable PDF.
func (p *Parser) ExtractFormFields(data []byte) ([]schema.FieldRecord, error) {
	return p.extractor.ExtractFormFields(data)
}

// ExtractTextBlocks pulls positional text rows from a flat PDF.
func (p *Parser) ExtractTextBlocks(data []byte) ([]schema.FieldRecord, error) {
	return p.textBlocks.ExtractTextBlocks(data)
}
