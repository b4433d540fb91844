package pdf

import (
	"bytes"
	"strings"

	ledongthuc "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"github.com/fieldline/fieldline/internal/schema"
)

// Classifier decides how a document can be processed: interactive widgets,
// a plain text layer, or image-only pages.
type Classifier struct {
	logger *zap.Logger
}

// NewClassifier creates a document classifier.
func NewClassifier(logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{logger: logger}
}

// Classify inspects raw PDF bytes and returns the source type. A document
// that cannot be opened or parsed at all classifies as scanned rather than
// failing; image-only is the floor, not an error.
func (c *Classifier) Classify(data []byte) schema.SourceType {
	if c.hasFormFields(data) {
		return schema.SourceFillable
	}
	if c.hasTextLayer(data) {
		return schema.SourceFlatText
	}
	return schema.SourceScanned
}

func (c *Classifier) hasFormFields(data []byte) bool {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		c.logger.Debug("classifier: pdfcpu read failed", zap.Error(err))
		return false
	}
	rootDict, err := ctx.Catalog()
	if err != nil {
		return false
	}
	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return false
	}
	acroFormDict, err := ctx.DereferenceDict(acroFormObj)
	if err != nil || acroFormDict == nil {
		return false
	}
	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return false
	}
	fieldsArray, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return false
	}
	return len(fieldsArray) > 0
}

// hasTextLayer probes the document for extractable text. The underlying
// parser panics on some malformed files, so the probe recovers and treats
// any failure as no text.
func (c *Classifier) hasTextLayer(data []byte) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Debug("classifier: text probe panicked", zap.Any("panic", r))
			ok = false
		}
	}()

	reader, err := ledongthuc.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		// Any machine-readable text at all makes the document flat-text;
		// image-only is reserved for pages with no text layer.
		if hasVisibleText(text) {
			return true
		}
	}
	return false
}

func hasVisibleText(text string) bool {
	return strings.TrimSpace(text) != ""
}
