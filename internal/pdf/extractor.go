package pdf

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.uber.org/zap"

	"github.com/fieldline/fieldline/internal/schema"
)

// AcroForm field flag bits (PDF 32000-1, table 221/226/230).
const (
	fieldFlagMultiline  = 1 << 12
	fieldFlagPushbutton = 1 << 16
	fieldFlagCombo      = 1 << 17
)

// Extractor pulls interactive widget fields out of fillable PDFs using the
// pdfcpu raw-object API.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor creates a field extractor.
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// ExtractFormFields walks the AcroForm field tree and returns one
// FieldRecord per terminal field, deduplicated by qualified identifier
// (first occurrence wins). Display labels and sections are derived from the
// widget tooltip when present, otherwise from identifier heuristics with a
// per-page fallback section.
func (e *Extractor) ExtractFormFields(data []byte) ([]schema.FieldRecord, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to resolve page count: %w", err)
	}

	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return nil, nil
	}
	acroFormDict, err := ctx.DereferenceDict(acroFormObj)
	if err != nil || acroFormDict == nil {
		return nil, nil
	}
	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return nil, nil
	}
	fieldsArray, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference AcroForm fields: %w", err)
	}

	pageOf := e.buildAnnotationPageMap(ctx, rootDict)

	var fields []schema.FieldRecord
	seen := make(map[string]bool)
	for _, fieldRef := range fieldsArray {
		e.walkFieldTree(ctx, fieldRef, "", "", pageOf, seen, &fields)
	}
	return fields, nil
}

// walkFieldTree descends the AcroForm field hierarchy, qualifying partial
// names with dots the way viewers do (form1[0].#subform[0].Pt1Line1a_...).
// A node whose kids carry their own partial names is a non-terminal; its
// kids are fields. Otherwise the node is a terminal field and its kids, if
// any, are widget annotations.
func (e *Extractor) walkFieldTree(ctx *model.Context, obj types.Object, prefix, inheritedType string,
	pageOf map[int]int, seen map[string]bool, out *[]schema.FieldRecord,
) {
	objNum := indirectObjectNumber(obj)
	fieldDict, err := ctx.DereferenceDict(obj)
	if err != nil || fieldDict == nil {
		return
	}

	qualified := prefix
	if nameObj, found := fieldDict.Find("T"); found {
		if name, err := ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil); err == nil && name != "" {
			if qualified == "" {
				qualified = name
			} else {
				qualified = qualified + "." + name
			}
		}
	}

	fieldType := inheritedType
	if ftObj, found := fieldDict.Find("FT"); found {
		if name, err := ctx.DereferenceName(ftObj, model.V10, nil); err == nil {
			fieldType = string(name)
		}
	}

	kidsArray := e.dereferenceKids(ctx, fieldDict)
	if len(kidsArray) > 0 && e.kidsAreFields(ctx, kidsArray) {
		for _, kid := range kidsArray {
			e.walkFieldTree(ctx, kid, qualified, fieldType, pageOf, seen, out)
		}
		return
	}

	record, ok := e.terminalField(ctx, fieldDict, objNum, qualified, fieldType, kidsArray, pageOf)
	if !ok {
		return
	}
	// Duplicate raw identifiers occur in real-world AcroForms; first wins.
	if seen[record.FieldID] {
		return
	}
	seen[record.FieldID] = true
	*out = append(*out, record)
}

func (e *Extractor) terminalField(ctx *model.Context, fieldDict types.Dict, objNum int,
	qualified, rawType string, kids []types.Object, pageOf map[int]int,
) (schema.FieldRecord, bool) {
	fieldType, ok := widgetFieldType(rawType, e.fieldFlags(ctx, fieldDict))
	if !ok {
		return schema.FieldRecord{}, false
	}

	if qualified == "" {
		qualified = fmt.Sprintf("field_%d", objNum)
	}

	tooltip := e.extractTooltip(ctx, fieldDict)
	label, section := ParseTooltip(tooltip, qualified)

	rect, page := e.fieldRectAndPage(ctx, fieldDict, objNum, kids, pageOf)
	if section == "" {
		section = fmt.Sprintf("Page %d", page+1)
	}

	return schema.FieldRecord{
		FieldID:      qualified,
		DisplayLabel: label,
		FieldType:    fieldType,
		Section:      section,
		Options:      e.extractOptions(ctx, fieldDict),
		Page:         page,
		Rect:         rect,
		Tooltip:      tooltip,
	}, true
}

// widgetFieldType maps a raw /FT name and /Ff flags to the normalized field
// type. Pushbuttons hold no data and are dropped.
func widgetFieldType(rawType string, flags int) (schema.FieldType, bool) {
	switch rawType {
	case "Tx":
		if flags&fieldFlagMultiline != 0 {
			return schema.FieldTypeTextarea, true
		}
		return schema.FieldTypeText, true
	case "Btn":
		if flags&fieldFlagPushbutton != 0 {
			return "", false
		}
		return schema.FieldTypeCheckbox, true
	case "Ch":
		if flags&fieldFlagCombo != 0 {
			return schema.FieldTypeCombo, true
		}
		return schema.FieldTypeSelect, true
	default:
		return schema.FieldTypeText, true
	}
}

func (e *Extractor) fieldFlags(ctx *model.Context, fieldDict types.Dict) int {
	flagsObj, found := fieldDict.Find("Ff")
	if !found {
		return 0
	}
	flags, err := ctx.DereferenceInteger(flagsObj)
	if err != nil || flags == nil {
		return 0
	}
	return int(*flags)
}

// extractTooltip reads the /TU alternate-text entry from a field dictionary.
func (e *Extractor) extractTooltip(ctx *model.Context, fieldDict types.Dict) string {
	tuObj, found := fieldDict.Find("TU")
	if !found {
		return ""
	}
	tooltip, err := ctx.DereferenceStringOrHexLiteral(tuObj, model.V10, nil)
	if err != nil {
		return ""
	}
	return tooltip
}

func (e *Extractor) extractOptions(ctx *model.Context, fieldDict types.Dict) []string {
	optObj, found := fieldDict.Find("Opt")
	if !found {
		return nil
	}
	optArray, err := ctx.DereferenceArray(optObj)
	if err != nil {
		return nil
	}

	var options []string
	for _, opt := range optArray {
		// Options are strings or [export_value, display_value] pairs.
		if str, err := ctx.DereferenceStringOrHexLiteral(opt, model.V10, nil); err == nil {
			options = append(options, str)
		} else if arr, err := ctx.DereferenceArray(opt); err == nil && len(arr) >= 2 {
			if display, err := ctx.DereferenceStringOrHexLiteral(arr[1], model.V10, nil); err == nil {
				options = append(options, display)
			}
		}
	}
	return options
}

// fieldRectAndPage finds the widget rectangle and its zero-based page index,
// preferring a merged field/widget dictionary and falling back to the first
// kid widget that carries a Rect.
func (e *Extractor) fieldRectAndPage(ctx *model.Context, fieldDict types.Dict, objNum int,
	kids []types.Object, pageOf map[int]int,
) ([]float64, int) {
	if rectObj, found := fieldDict.Find("Rect"); found {
		if rect := e.parseRect(ctx, rectObj); rect != nil {
			return rect, pageOf[objNum]
		}
	}
	for _, kid := range kids {
		kidNum := indirectObjectNumber(kid)
		kidDict, err := ctx.DereferenceDict(kid)
		if err != nil || kidDict == nil {
			continue
		}
		if rectObj, found := kidDict.Find("Rect"); found {
			if rect := e.parseRect(ctx, rectObj); rect != nil {
				return rect, pageOf[kidNum]
			}
		}
	}
	return nil, pageOf[objNum]
}

func (e *Extractor) parseRect(ctx *model.Context, rectObj types.Object) []float64 {
	rectArray, err := ctx.DereferenceArray(rectObj)
	if err != nil || len(rectArray) != 4 {
		return nil
	}
	rect := make([]float64, 4)
	for i, coord := range rectArray {
		f, err := ctx.DereferenceNumber(coord)
		if err != nil {
			return nil
		}
		rect[i] = f
	}
	return rect
}

func (e *Extractor) dereferenceKids(ctx *model.Context, fieldDict types.Dict) []types.Object {
	kidsObj, found := fieldDict.Find("Kids")
	if !found {
		return nil
	}
	kidsArray, err := ctx.DereferenceArray(kidsObj)
	if err != nil {
		return nil
	}
	return kidsArray
}

// kidsAreFields reports whether any kid carries its own partial name, which
// makes the kids child fields rather than widget annotations.
func (e *Extractor) kidsAreFields(ctx *model.Context, kids []types.Object) bool {
	for _, kid := range kids {
		kidDict, err := ctx.DereferenceDict(kid)
		if err != nil || kidDict == nil {
			continue
		}
		if _, found := kidDict.Find("T"); found {
			return true
		}
	}
	return false
}

// buildAnnotationPageMap walks the page tree in page order and records, for
// every annotation reference, the zero-based index of the page carrying it.
// Widget annotations are how field rectangles are tied back to pages.
func (e *Extractor) buildAnnotationPageMap(ctx *model.Context, rootDict types.Dict) map[int]int {
	pageOf := make(map[int]int)
	pagesObj, found := rootDict.Find("Pages")
	if !found {
		return pageOf
	}
	pageIndex := 0
	e.walkPageTree(ctx, pagesObj, &pageIndex, pageOf)
	return pageOf
}

func (e *Extractor) walkPageTree(ctx *model.Context, obj types.Object, pageIndex *int, pageOf map[int]int) {
	dict, err := ctx.DereferenceDict(obj)
	if err != nil || dict == nil {
		return
	}

	if kidsObj, found := dict.Find("Kids"); found {
		if kidsArray, err := ctx.DereferenceArray(kidsObj); err == nil {
			for _, kid := range kidsArray {
				e.walkPageTree(ctx, kid, pageIndex, pageOf)
			}
			return
		}
	}

	// Leaf page node.
	if annotsObj, found := dict.Find("Annots"); found {
		if annots, err := ctx.DereferenceArray(annotsObj); err == nil {
			for _, annot := range annots {
				if num := indirectObjectNumber(annot); num != 0 {
					pageOf[num] = *pageIndex
				}
			}
		}
	}
	*pageIndex++
}

func indirectObjectNumber(obj types.Object) int {
	if ref, ok := obj.(types.IndirectRef); ok {
		return int(ref.ObjectNumber)
	}
	return 0
}
