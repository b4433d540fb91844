// fieldline-extract inspects a single PDF the way the server's ingestion
// pipeline would, without touching any stores. Useful when a form extracts
// strangely and you want to see the raw classification and field list.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/fieldline/fieldline/internal/pdf"
	"github.com/fieldline/fieldline/internal/roles"
	"github.com/fieldline/fieldline/internal/schema"
)

var (
	outputFormat = flag.String("format", "text", "Output format: text, json")
	tagRoles     = flag.Bool("roles", true, "Tag preparer/attorney fields")
	help         = flag.Bool("help", false, "Show help message")
)

// extractionResult is what one inspection run produced.
type extractionResult struct {
	FilePath   string               `json:"file_path"`
	Source     schema.SourceType    `json:"source"`
	FieldCount int                  `json:"field_count"`
	RoleTagged int                  `json:"role_tagged"`
	Fields     []schema.FieldRecord `json:"fields"`
	Error      string               `json:"error,omitempty"`
}

func main() {
	flag.Parse()

	if *help {
		printHelp()
		return
	}

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: PDF file path required\n\n")
		printUsage()
		os.Exit(1)
	}

	result, err := inspect(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := output(result); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}
}

func inspect(path string) (*extractionResult, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	logger := zap.NewNop()
	parser := pdf.NewParser(logger)
	result := &extractionResult{FilePath: absPath}
	result.Source = parser.Classify(data)

	var fields []schema.FieldRecord
	switch result.Source {
	case schema.SourceFillable:
		fields, err = parser.ExtractFormFields(data)
	case schema.SourceFlatText:
		fields, err = parser.ExtractTextBlocks(data)
	}
	if err != nil {
		// Extraction trouble is part of the answer, not a tool failure.
		result.Error = err.Error()
		return result, nil
	}

	if *tagRoles && result.Source == schema.SourceFillable {
		result.RoleTagged = roles.NewClassifier(logger).Classify(fields)
	}

	result.Fields = fields
	result.FieldCount = len(fields)
	return result, nil
}

func output(result *extractionResult) error {
	switch *outputFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	case "text":
		return outputText(result)
	default:
		return fmt.Errorf("unsupported output format: %s", *outputFormat)
	}
}

func outputText(result *extractionResult) error {
	fmt.Printf("File:   %s\n", result.FilePath)
	fmt.Printf("Source: %s\n", result.Source)

	if result.Error != "" {
		fmt.Printf("Extraction failed: %s\n", result.Error)
		fmt.Println("The server would ingest this document as scanned with an empty schema.")
		return nil
	}

	if result.FieldCount == 0 {
		fmt.Println("No fields extracted.")
		return nil
	}

	fmt.Printf("Fields: %d", result.FieldCount)
	if result.RoleTagged > 0 {
		fmt.Printf(" (%d role-tagged)", result.RoleTagged)
	}
	fmt.Println()
	fmt.Println()

	for i, field := range result.Fields {
		fmt.Printf("[%d] %s\n", i+1, field.FieldID)
		fmt.Printf("    Label:   %s\n", field.DisplayLabel)
		fmt.Printf("    Type:    %s\n", field.FieldType)
		fmt.Printf("    Section: %s (page %d)\n", field.Section, field.Page+1)
		if field.Tooltip != "" {
			fmt.Printf("    Tooltip: %s\n", field.Tooltip)
		}
		if len(field.Options) > 0 {
			fmt.Printf("    Options: %v\n", field.Options)
		}
		if field.Role != schema.RoleNone {
			fmt.Printf("    Role:    %s\n", field.Role)
		}
		if field.TargetField != "" {
			fmt.Printf("    Target:  %s\n", field.TargetField)
		}
		if len(field.Rect) == 4 {
			fmt.Printf("    Rect:    (%.1f, %.1f) to (%.1f, %.1f)\n",
				field.Rect[0], field.Rect[1], field.Rect[2], field.Rect[3])
		}
		fmt.Println()
	}
	return nil
}

func printHelp() {
	fmt.Println("fieldline-extract - Inspect classification and field extraction for one PDF")
	fmt.Println()
	printUsage()
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -format   Output format: text (default), json")
	fmt.Println("  -roles    Tag preparer/attorney fields (default true)")
	fmt.Println("  -help     Show this help message")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  fieldline-extract i-589.pdf")
	fmt.Println("  fieldline-extract -format json -roles=false forms/g-28.pdf")
}

func printUsage() {
	fmt.Println("USAGE:")
	fmt.Println("  fieldline-extract [OPTIONS] <pdf_file>")
}

func init() {
	flag.Usage = printHelp
}
