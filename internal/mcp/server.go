package mcp

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fieldline/fieldline/internal/audit"
	"github.com/fieldline/fieldline/internal/config"
	"github.com/fieldline/fieldline/internal/descriptions"
	"github.com/fieldline/fieldline/internal/ingest"
	"github.com/fieldline/fieldline/internal/mapping"
	"github.com/fieldline/fieldline/internal/pdf"
	"github.com/fieldline/fieldline/internal/pdf/security"
	"github.com/fieldline/fieldline/internal/schema"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	ingestor  *ingest.Service
	schemas   *schema.Store
	mappings  *mapping.Store
	dict      mapping.Dictionary
	auditLog  *audit.Log
	validator *pdf.Validator
	paths     *security.PathValidator
	mcpServer *server.MCPServer
}

// Deps bundles the services the server exposes over MCP.
type Deps struct {
	Ingestor   *ingest.Service
	Schemas    *schema.Store
	Mappings   *mapping.Store
	Dictionary mapping.Dictionary
	AuditLog   *audit.Log
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Ingestor == nil {
		return nil, fmt.Errorf("ingestor cannot be nil")
	}
	if deps.Schemas == nil || deps.Mappings == nil {
		return nil, fmt.Errorf("stores cannot be nil")
	}

	paths, err := security.NewPathValidator(cfg.FormsDirectory)
	if err != nil {
		return nil, fmt.Errorf("invalid forms directory: %w", err)
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:    cfg,
		ingestor:  deps.Ingestor,
		schemas:   deps.Schemas,
		mappings:  deps.Mappings,
		dict:      deps.Dictionary,
		auditLog:  deps.AuditLog,
		validator: pdf.NewValidator(cfg.MaxFileSize),
		paths:     paths,
		mcpServer: mcpServer,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	formIngestTool := mcp.NewTool(
		"form_ingest",
		mcp.WithDescription(descriptions.FormIngestDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file, absolute or relative to the forms directory"),
		),
		mcp.WithString("form_id",
			mcp.Required(),
			mcp.Description("Stable identifier for the form (e.g. 'i-589')"),
		),
		mcp.WithString("title",
			mcp.Description("Human-readable title (defaults to form_id)"),
		),
	)
	s.mcpServer.AddTool(formIngestTool, s.handleFormIngest)

	formSchemaGetTool := mcp.NewTool(
		"form_schema_get",
		mcp.WithDescription(descriptions.FormSchemaGetDescription),
		mcp.WithString("form_id",
			mcp.Required(),
			mcp.Description("Form identifier"),
		),
		mcp.WithNumber("version",
			mcp.Description("Specific version to load (latest if omitted)"),
		),
	)
	s.mcpServer.AddTool(formSchemaGetTool, s.handleFormSchemaGet)

	formSchemaListTool := mcp.NewTool(
		"form_schema_list",
		mcp.WithDescription(descriptions.FormSchemaListDescription),
	)
	s.mcpServer.AddTool(formSchemaListTool, s.handleFormSchemaList)

	formVersionsDiffTool := mcp.NewTool(
		"form_versions_diff",
		mcp.WithDescription(descriptions.FormVersionsDiffDescription),
		mcp.WithString("form_id",
			mcp.Required(),
			mcp.Description("Form identifier"),
		),
		mcp.WithNumber("from_version",
			mcp.Required(),
			mcp.Description("Older version number"),
		),
		mcp.WithNumber("to_version",
			mcp.Required(),
			mcp.Description("Newer version number"),
		),
	)
	s.mcpServer.AddTool(formVersionsDiffTool, s.handleFormVersionsDiff)

	mappingListTool := mcp.NewTool(
		"mapping_list",
		mcp.WithDescription(descriptions.MappingListDescription),
		mcp.WithString("form_id",
			mcp.Required(),
			mcp.Description("Form identifier"),
		),
	)
	s.mcpServer.AddTool(mappingListTool, s.handleMappingList)

	mappingApproveTool := mcp.NewTool(
		"mapping_approve",
		mcp.WithDescription(descriptions.MappingApproveDescription),
		mcp.WithString("form_id",
			mcp.Required(),
			mcp.Description("Form identifier"),
		),
		mcp.WithString("field_id",
			mcp.Required(),
			mcp.Description("Field identifier within the form"),
		),
		mcp.WithString("approved_by",
			mcp.Description("Reviewer name (defaults to the configured approver)"),
		),
	)
	s.mcpServer.AddTool(mappingApproveTool, s.handleMappingApprove)

	mappingRejectTool := mcp.NewTool(
		"mapping_reject",
		mcp.WithDescription(descriptions.MappingRejectDescription),
		mcp.WithString("form_id",
			mcp.Required(),
			mcp.Description("Form identifier"),
		),
		mcp.WithString("field_id",
			mcp.Required(),
			mcp.Description("Field identifier within the form"),
		),
	)
	s.mcpServer.AddTool(mappingRejectTool, s.handleMappingReject)

	mappingOverrideTool := mcp.NewTool(
		"mapping_override",
		mcp.WithDescription(descriptions.MappingOverrideDescription),
		mcp.WithString("form_id",
			mcp.Required(),
			mcp.Description("Form identifier"),
		),
		mcp.WithString("field_id",
			mcp.Required(),
			mcp.Description("Field identifier within the form"),
		),
		mcp.WithString("target_field",
			mcp.Required(),
			mcp.Description("Dictionary field API name to map to"),
		),
		mcp.WithString("target_object",
			mcp.Description("Dictionary object (defaults to Contact)"),
		),
		mcp.WithString("approved_by",
			mcp.Description("Reviewer name (defaults to the configured approver)"),
		),
	)
	s.mcpServer.AddTool(mappingOverrideTool, s.handleMappingOverride)

	mappingBulkApproveTool := mcp.NewTool(
		"mapping_bulk_approve",
		mcp.WithDescription(descriptions.MappingBulkApproveDescription),
		mcp.WithString("form_id",
			mcp.Required(),
			mcp.Description("Form identifier"),
		),
		mcp.WithNumber("threshold",
			mcp.Description("Minimum confidence (defaults to the configured bulk threshold)"),
		),
		mcp.WithString("approved_by",
			mcp.Description("Reviewer name (defaults to the configured approver)"),
		),
	)
	s.mcpServer.AddTool(mappingBulkApproveTool, s.handleMappingBulkApprove)

	dictionaryDescribeTool := mcp.NewTool(
		"dictionary_describe",
		mcp.WithDescription(descriptions.DictionaryDescribeDescription),
		mcp.WithString("object",
			mcp.Description("Dictionary object to describe (defaults to Contact)"),
		),
	)
	s.mcpServer.AddTool(dictionaryDescribeTool, s.handleDictionaryDescribe)

	dictionaryFieldCreateTool := mcp.NewTool(
		"dictionary_field_create",
		mcp.WithDescription(descriptions.DictionaryFieldCreateDescription),
		mcp.WithString("api_name",
			mcp.Required(),
			mcp.Description("API name of the new field (e.g. 'Visa_Type__c')"),
		),
		mcp.WithString("label",
			mcp.Required(),
			mcp.Description("Human-readable label"),
		),
		mcp.WithString("type",
			mcp.Description("Field type (string, textarea, date, picklist, boolean, email, phone; defaults to string)"),
		),
		mcp.WithString("object",
			mcp.Description("Dictionary object to create the field on (defaults to Contact)"),
		),
	)
	s.mcpServer.AddTool(dictionaryFieldCreateTool, s.handleDictionaryFieldCreate)

	auditRecentTool := mcp.NewTool(
		"audit_recent",
		mcp.WithDescription(descriptions.AuditRecentDescription),
		mcp.WithNumber("limit",
			mcp.Description("Maximum entries to return (default 20)"),
		),
		mcp.WithString("form_id",
			mcp.Description("Only show entries for this form"),
		),
	)
	s.mcpServer.AddTool(auditRecentTool, s.handleAuditRecent)

	serverInfoTool := mcp.NewTool(
		"server_info",
		mcp.WithDescription(descriptions.ServerInfoDescription),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleServerInfo)
}

// Handler functions
func (s *Server) handleFormIngest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	formID, err := request.RequireString("form_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	title := ""
	if t, ok := request.GetArguments()["title"].(string); ok {
		title = t
	}

	normalized, err := s.paths.NormalizePath(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.validator.ValidateFile(normalized); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := os.ReadFile(normalized)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read file: %v", err)), nil
	}

	result, err := s.ingestor.Ingest(formID, title, data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatIngestResult(result)), nil
}

func (s *Server) handleFormSchemaGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	formID, err := request.RequireString("form_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var loaded *schema.FormSchema
	if v, ok := request.GetArguments()["version"].(float64); ok {
		loaded, err = s.schemas.Load(formID, int(v))
	} else {
		loaded, err = s.schemas.LoadLatest(formID)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatSchema(loaded)), nil
}

func (s *Server) handleFormSchemaList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	schemas, err := s.schemas.ListLatest()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(schemas) == 0 {
		return mcp.NewToolResultText("No forms ingested yet."), nil
	}

	text := fmt.Sprintf("Known forms: %d\n\n", len(schemas))
	for _, sc := range schemas {
		text += fmt.Sprintf("%s (v%d, %s): %d field(s), hash %s\n",
			sc.FormID, sc.Version, sc.Source, len(sc.Fields), sc.VersionHash)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleFormVersionsDiff(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	formID, err := request.RequireString("form_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()
	fromV, okFrom := args["from_version"].(float64)
	toV, okTo := args["to_version"].(float64)
	if !okFrom || !okTo {
		return mcp.NewToolResultError("from_version and to_version are required numbers"), nil
	}

	older, err := s.schemas.Load(formID, int(fromV))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	newer, err := s.schemas.Load(formID, int(toV))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	diff := schema.Diff(older, newer)
	return mcp.NewToolResultText(s.formatDiff(formID, int(fromV), int(toV), diff)), nil
}

func (s *Server) handleMappingList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	formID, err := request.RequireString("form_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	set, err := s.mappings.Load(formID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatMappingSet(set)), nil
}

func (s *Server) handleMappingApprove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	formID, fieldID, errResult := s.requireFormAndField(request)
	if errResult != nil {
		return errResult, nil
	}

	if err := s.mappings.Approve(formID, fieldID, s.approver(request)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Approved mapping for %s on form %s", fieldID, formID)), nil
}

func (s *Server) handleMappingReject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	formID, fieldID, errResult := s.requireFormAndField(request)
	if errResult != nil {
		return errResult, nil
	}

	if err := s.mappings.Reject(formID, fieldID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Rejected mapping for %s on form %s", fieldID, formID)), nil
}

func (s *Server) handleMappingOverride(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	formID, fieldID, errResult := s.requireFormAndField(request)
	if errResult != nil {
		return errResult, nil
	}
	targetField, err := request.RequireString("target_field")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	targetObject := ""
	if obj, ok := request.GetArguments()["target_object"].(string); ok {
		targetObject = obj
	}

	if err := s.mappings.Override(formID, fieldID, targetField, targetObject, s.approver(request)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Mapped %s on form %s to %s and approved it",
		fieldID, formID, targetField)), nil
}

func (s *Server) handleMappingBulkApprove(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	formID, err := request.RequireString("form_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	threshold := s.config.BulkApproveThreshold
	if v, ok := request.GetArguments()["threshold"].(float64); ok {
		threshold = v
	}

	count, err := s.mappings.BulkApprove(formID, threshold, s.approver(request))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Approved %d mapping(s) on form %s with confidence >= %.2f",
		count, formID, threshold)), nil
}

func (s *Server) handleDictionaryDescribe(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	object := "Contact"
	if obj, ok := request.GetArguments()["object"].(string); ok && obj != "" {
		object = obj
	}

	fields, err := s.dict.DescribeFields(object)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(fields) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No fields found on object %s", object)), nil
	}

	sort.Slice(fields, func(i, j int) bool { return fields[i].APIName < fields[j].APIName })
	text := fmt.Sprintf("Fields on %s: %d\n\n", object, len(fields))
	for _, f := range fields {
		text += fmt.Sprintf("%-35s %-12s %s\n", f.APIName, f.Type, f.Label)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleDictionaryFieldCreate(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	apiName, err := request.RequireString("api_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	label, err := request.RequireString("label")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	object := "Contact"
	if obj, ok := args["object"].(string); ok && obj != "" {
		object = obj
	}
	fieldType := ""
	if t, ok := args["type"].(string); ok {
		fieldType = t
	}

	field := mapping.DictField{APIName: apiName, Label: label, Type: fieldType}
	if err := s.dict.CreateField(object, field); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if s.auditLog != nil {
		_, _ = s.auditLog.Record(audit.ActionFieldCreated, "", "", map[string]interface{}{
			"object":   object,
			"api_name": apiName,
			"label":    label,
			"type":     fieldType,
		})
	}
	return mcp.NewToolResultText(fmt.Sprintf("Created field %s (%s) on %s", apiName, label, object)), nil
}

func (s *Server) handleAuditRecent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.auditLog == nil {
		return mcp.NewToolResultError("audit trail is not configured"), nil
	}

	args := request.GetArguments()
	limit := 20
	if v, ok := args["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}

	var entries []audit.Entry
	var err error
	if formID, ok := args["form_id"].(string); ok && formID != "" {
		entries, err = s.auditLog.ForForm(formID, limit)
	} else {
		entries, err = s.auditLog.Recent(limit)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("No audit entries found."), nil
	}

	text := fmt.Sprintf("Audit entries: %d (newest first)\n\n", len(entries))
	for _, e := range entries {
		text += fmt.Sprintf("%s  %s", e.Timestamp, e.Action)
		if e.FormID != "" {
			text += fmt.Sprintf("  form=%s", e.FormID)
		}
		if e.FieldID != "" {
			text += fmt.Sprintf("  field=%s", e.FieldID)
		}
		text += "\n"
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := fmt.Sprintf("%s v%s\n\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("Forms directory: %s\n", s.config.FormsDirectory)
	text += fmt.Sprintf("Data directory:  %s\n", s.config.DataDirectory)
	text += fmt.Sprintf("Fuzzy match threshold: %.2f\n", s.config.FuzzyThreshold)
	text += fmt.Sprintf("Bulk approve threshold: %.2f\n", s.config.BulkApproveThreshold)
	text += "\nTools:\n"
	tools := []string{
		"form_ingest", "form_schema_get", "form_schema_list", "form_versions_diff",
		"mapping_list", "mapping_approve", "mapping_reject", "mapping_override",
		"mapping_bulk_approve", "dictionary_describe", "dictionary_field_create",
		"audit_recent", "server_info",
	}
	for _, name := range tools {
		text += "  " + name + "\n"
	}
	text += "\nTypical workflow: form_ingest -> mapping_list -> mapping_approve/mapping_override -> mapping_bulk_approve\n"
	return mcp.NewToolResultText(text), nil
}

// Formatting methods
func (s *Server) formatIngestResult(result ingest.Result) string {
	sc := result.Schema
	text := fmt.Sprintf("Ingested form %s (v%d)\n", sc.FormID, sc.Version)
	text += fmt.Sprintf("Source: %s\n", sc.Source)
	text += fmt.Sprintf("Fields: %d\n", len(sc.Fields))
	text += fmt.Sprintf("Version hash: %s\n", sc.VersionHash)

	matched := 0
	for _, m := range result.Mappings.Mappings {
		if m.TargetField != "" {
			matched++
		}
	}
	text += fmt.Sprintf("Mappings: %d suggested, %d unmatched\n",
		matched, len(result.Mappings.Mappings)-matched)
	if result.CarriedForward > 0 {
		text += fmt.Sprintf("Approvals carried forward: %d\n", result.CarriedForward)
	}

	if result.Diff != nil {
		if result.Diff.IsDifferent {
			text += fmt.Sprintf("\nChanges from previous version: %d added, %d removed, %d changed\n",
				len(result.Diff.Added), len(result.Diff.Removed), len(result.Diff.Changed))
		} else {
			text += "\nNo field differences compared to the previous version.\n"
		}
	}

	for _, w := range result.Warnings {
		text += fmt.Sprintf("\nWARNING: %s\n", w)
	}
	return text
}

func (s *Server) formatSchema(sc *schema.FormSchema) string {
	text := fmt.Sprintf("Form %s (v%d): %s\n", sc.FormID, sc.Version, sc.Title)
	text += fmt.Sprintf("Source: %s\n", sc.Source)
	text += fmt.Sprintf("Version hash: %s\n", sc.VersionHash)
	text += fmt.Sprintf("Created: %s\n", sc.CreatedAt)
	if len(sc.Sections) > 0 {
		text += fmt.Sprintf("Sections: %s\n", strings.Join(sc.Sections, "; "))
	}
	text += fmt.Sprintf("\nFields: %d\n", len(sc.Fields))

	for _, f := range sc.Fields {
		text += fmt.Sprintf("  %s [%s] %q", f.FieldID, f.FieldType, f.DisplayLabel)
		if f.Role != schema.RoleNone {
			text += fmt.Sprintf(" role=%s", f.Role)
		}
		if f.TargetField != "" {
			text += fmt.Sprintf(" target=%s", f.TargetField)
		}
		text += "\n"
	}
	return text
}

func (s *Server) formatDiff(formID string, fromV, toV int, diff schema.DiffResult) string {
	text := fmt.Sprintf("Diff of %s: v%d -> v%d\n", formID, fromV, toV)
	if !diff.IsDifferent {
		return text + "\nNo field differences.\n"
	}

	if len(diff.Added) > 0 {
		text += fmt.Sprintf("\nAdded (%d):\n", len(diff.Added))
		for _, id := range diff.Added {
			text += "  + " + id + "\n"
		}
	}
	if len(diff.Removed) > 0 {
		text += fmt.Sprintf("\nRemoved (%d):\n", len(diff.Removed))
		for _, id := range diff.Removed {
			text += "  - " + id + "\n"
		}
	}
	if len(diff.Changed) > 0 {
		text += fmt.Sprintf("\nChanged (%d):\n", len(diff.Changed))
		for _, change := range diff.Changed {
			text += "  ~ " + change.FieldID + "\n"
			for attr, values := range change.Changes {
				text += fmt.Sprintf("      %s: %v -> %v\n", attr, values.Old, values.New)
			}
		}
	}
	return text
}

func (s *Server) formatMappingSet(set mapping.MappingSet) string {
	text := fmt.Sprintf("Mappings for form %s (auto-mapped %s)\n\n", set.FormID, set.LastAutoMapped)
	for _, m := range set.Mappings {
		status := "pending"
		switch {
		case m.Approved:
			status = "approved"
		case m.Rejected:
			status = "rejected"
		case m.TargetField == "":
			status = "unmatched"
		}
		text += fmt.Sprintf("  %-45s", m.FieldID)
		if m.TargetField != "" {
			text += fmt.Sprintf(" -> %s.%s (%s, %.2f)", m.TargetObject, m.TargetField, m.MatchMethod, m.Confidence)
		}
		text += fmt.Sprintf("  [%s]\n", status)
	}

	unmatched := set.Unmatched()
	text += fmt.Sprintf("\nTotal: %d, unmatched: %d, pending: %d, approved: %d\n",
		len(set.Mappings), len(unmatched), len(set.Pending()), len(set.ApprovedMappings()))
	return text
}

// Helpers
func (s *Server) requireFormAndField(request mcp.CallToolRequest) (formID, fieldID string, errResult *mcp.CallToolResult) {
	formID, err := request.RequireString("form_id")
	if err != nil {
		return "", "", mcp.NewToolResultError(err.Error())
	}
	fieldID, err = request.RequireString("field_id")
	if err != nil {
		return "", "", mcp.NewToolResultError(err.Error())
	}
	return formID, fieldID, nil
}

func (s *Server) approver(request mcp.CallToolRequest) string {
	if by, ok := request.GetArguments()["approved_by"].(string); ok && by != "" {
		return by
	}
	return s.config.DefaultApprover
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting fieldline MCP server in stdio mode")
		log.Printf("Forms directory: %s", s.config.FormsDirectory)
	}

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode runs the server in HTTP server mode
func (s *Server) runServerMode(ctx context.Context) error {
	// The mark3labs library handles transports differently; stdio covers
	// both modes for now.
	log.Printf("Server mode not yet implemented with mark3labs/mcp-go")
	log.Printf("Falling back to stdio mode")
	return s.runStdioMode(ctx)
}
