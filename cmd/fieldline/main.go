package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fieldline/fieldline/internal/audit"
	"github.com/fieldline/fieldline/internal/config"
	"github.com/fieldline/fieldline/internal/ingest"
	"github.com/fieldline/fieldline/internal/mapping"
	"github.com/fieldline/fieldline/internal/mcp"
	"github.com/fieldline/fieldline/internal/pdf"
	"github.com/fieldline/fieldline/internal/roles"
	"github.com/fieldline/fieldline/internal/schema"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogger builds the structured logger. In stdio mode everything goes to
// stderr so log lines never interfere with the MCP protocol on stdout.
func setupLogger(cfg *config.Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	switch cfg.LogLevel {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}

	if cfg.IsStdioMode() && !cfg.IsDebug() {
		// Quiet by default when a parent process drives us over stdio.
		zapCfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}

	return zapCfg.Build()
}

// buildServer wires the stores, matcher, and pipeline behind the MCP surface.
func buildServer(cfg *config.Config, logger *zap.Logger) (*mcp.Server, error) {
	schemas, err := schema.NewStore(cfg.SchemasDirectory(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema store: %w", err)
	}
	auditLog, err := audit.NewLog(cfg.AuditDirectory(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit log: %w", err)
	}
	mappings, err := mapping.NewStore(cfg.MappingsDirectory(), auditLog, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create mapping store: %w", err)
	}

	synonyms, err := mapping.LoadSynonyms(cfg.SynonymsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load synonyms: %w", err)
	}

	catalog, err := mapping.LoadDictionary(cfg.DictionaryFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load dictionary: %w", err)
	}
	dict := mapping.NewCachedDictionary(catalog)
	engine := mapping.NewEngine(dict, mappings, mapping.EngineConfig{
		Synonyms:       synonyms,
		FuzzyThreshold: cfg.FuzzyThreshold,
	}, logger)

	ingestor := ingest.NewService(
		pdf.NewParser(logger),
		roles.NewClassifier(logger),
		engine, schemas, mappings, auditLog, logger,
	)

	return mcp.NewServer(cfg, mcp.Deps{
		Ingestor:   ingestor,
		Schemas:    schemas,
		Mappings:   mappings,
		Dictionary: dict,
		AuditLog:   auditLog,
	})
}

// runServerMode handles server mode execution with signal handling
func runServerMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	select {
	case sig := <-signalCh:
		log.Printf("Received signal: %s", sig)
		log.Println("Initiating graceful shutdown...")
		cancel()

		if err := <-serverErrCh; err != nil {
			log.Printf("Server shutdown with error: %v", err)
			os.Exit(1)
		}

	case err := <-serverErrCh:
		if err != nil {
			log.Printf("Server error: %v", err)
			os.Exit(1)
		}
	}

	log.Println("Server stopped successfully")
}

// runStdioMode handles stdio mode execution
func runStdioMode(ctx context.Context, _ context.CancelFunc, server *mcp.Server) {
	// The parent process controls our lifecycle over stdio; exit cleanly
	// when stdin closes.
	if err := server.Run(ctx); err != nil {
		if os.Getenv("DEBUG") != "" {
			log.Printf("Server error: %v", err)
		}
		os.Exit(1)
	}
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Keep the standard logger off stdout in stdio mode as well.
	log.SetOutput(os.Stderr)

	if version != "dev" {
		cfg.Version = version
	}

	logger, err := setupLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.IsDebug() && cfg.IsServerMode() {
		log.Printf("Starting with configuration: %s", cfg.String())
	}

	server, err := buildServer(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.IsServerMode() {
		runServerMode(ctx, cancel, server)
	} else {
		runStdioMode(ctx, cancel, server)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("Fieldline Form Schema Server\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
