package pdf

import (
	"bytes"
	"fmt"
	"strings"

	ledongthuc "github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/fieldline/fieldline/internal/schema"
)

// maxBlockLabelLen caps the display label derived from a text row.
const maxBlockLabelLen = 80

// TextBlockExtractor turns the text layer of a non-interactive PDF into
// positional pseudo-fields so flat documents still produce a schema.
type TextBlockExtractor struct {
	logger *zap.Logger
}

// NewTextBlockExtractor creates a text block extractor.
func NewTextBlockExtractor(logger *zap.Logger) *TextBlockExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TextBlockExtractor{logger: logger}
}

// ExtractTextBlocks reads text rows page by page and emits one text record
// per row, identified as block_<i> in document order. Pages that fail to
// parse are skipped.
func (e *TextBlockExtractor) ExtractTextBlocks(data []byte) (fields []schema.FieldRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("text block extraction panicked", zap.Any("panic", r))
			fields, err = nil, fmt.Errorf("text extraction failed: %v", r)
		}
	}()

	reader, err := ledongthuc.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	blockIndex := 0
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			e.logger.Debug("skipping unreadable page",
				zap.Int("page", pageNum), zap.Error(err))
			continue
		}
		for _, row := range rows {
			var sb strings.Builder
			for _, text := range row.Content {
				sb.WriteString(text.S)
			}
			content := strings.TrimSpace(sb.String())
			if content == "" {
				continue
			}

			label := content
			if len(label) > maxBlockLabelLen {
				label = label[:maxBlockLabelLen]
			}
			fields = append(fields, schema.FieldRecord{
				FieldID:      fmt.Sprintf("block_%d", blockIndex),
				DisplayLabel: label,
				FieldType:    schema.FieldTypeText,
				Section:      fmt.Sprintf("Page %d", pageNum),
				Page:         pageNum - 1,
				Rect:         []float64{0, float64(row.Position), 0, float64(row.Position)},
			})
			blockIndex++
		}
	}
	return fields, nil
}
