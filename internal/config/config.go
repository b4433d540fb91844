package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort                 = 8080
	DefaultHost                 = "127.0.0.1"
	DefaultLogLevel             = "info"
	DefaultMaxFileSize          = 100 * 1024 * 1024 // 100MB
	DefaultFuzzyThreshold       = 0.7
	DefaultBulkApproveThreshold = 0.9
	DefaultApprover             = "user"

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the fieldline server.
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Form processing configuration
	FormsDirectory string // where uploaded PDFs are read from
	DataDirectory  string // root for schemas/, mappings/, audit/
	SynonymsFile   string // optional extra synonym entries
	DictionaryFile string // optional dictionary catalog override
	MaxFileSize    int64  // maximum PDF file size in bytes

	// Reconciliation configuration
	FuzzyThreshold       float64
	BulkApproveThreshold float64
	DefaultApprover      string

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:                 ModeStdio, // Default to stdio mode for MCP compatibility
		Host:                 DefaultHost,
		Port:                 DefaultPort,
		FormsDirectory:       currentDir,
		DataDirectory:        filepath.Join(currentDir, "data"),
		SynonymsFile:         "",
		DictionaryFile:       "",
		MaxFileSize:          DefaultMaxFileSize,
		FuzzyThreshold:       DefaultFuzzyThreshold,
		BulkApproveThreshold: DefaultBulkApproveThreshold,
		DefaultApprover:      DefaultApprover,
		Version:              "1.0.0",
		ServerName:           "fieldline",
		LogLevel:             DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.FormsDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.FormsDirectory); err == nil {
			cfg.FormsDirectory = expandedPath
		}
	}
	if cfg.DataDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.DataDirectory); err == nil {
			cfg.DataDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("FIELDLINE")
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("formsdir", cfg.FormsDirectory)
	viper.SetDefault("datadir", cfg.DataDirectory)
	viper.SetDefault("synonyms", cfg.SynonymsFile)
	viper.SetDefault("dictionary", cfg.DictionaryFile)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("fuzzythreshold", cfg.FuzzyThreshold)
	viper.SetDefault("bulkthreshold", cfg.BulkApproveThreshold)
	viper.SetDefault("approver", cfg.DefaultApprover)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("formsdir", cfg.FormsDirectory, "Directory containing uploaded PDF forms")
	pflag.String("datadir", cfg.DataDirectory, "Directory for schemas, mappings and the audit trail")
	pflag.String("synonyms", cfg.SynonymsFile, "Optional JSON file with extra label synonyms")
	pflag.String("dictionary", cfg.DictionaryFile, "Optional JSON file overriding the built-in dictionary catalog")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.Float64("fuzzythreshold", cfg.FuzzyThreshold, "Minimum similarity for fuzzy field matches")
	pflag.Float64("bulkthreshold", cfg.BulkApproveThreshold, "Default confidence threshold for bulk approval")
	pflag.String("approver", cfg.DefaultApprover, "Default approver recorded on mapping decisions")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	_ = viper.BindPFlag("mode", pflag.Lookup("mode"))
	_ = viper.BindPFlag("host", pflag.Lookup("host"))
	_ = viper.BindPFlag("port", pflag.Lookup("port"))
	_ = viper.BindPFlag("formsdir", pflag.Lookup("formsdir"))
	_ = viper.BindPFlag("datadir", pflag.Lookup("datadir"))
	_ = viper.BindPFlag("synonyms", pflag.Lookup("synonyms"))
	_ = viper.BindPFlag("dictionary", pflag.Lookup("dictionary"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
	_ = viper.BindPFlag("maxfilesize", pflag.Lookup("maxfilesize"))
	_ = viper.BindPFlag("fuzzythreshold", pflag.Lookup("fuzzythreshold"))
	_ = viper.BindPFlag("bulkthreshold", pflag.Lookup("bulkthreshold"))
	_ = viper.BindPFlag("approver", pflag.Lookup("approver"))
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nFieldline - form schema extraction and contact mapping server\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                          "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --formsdir=/path/to/forms                # stdio mode with custom directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --formsdir=/path/to/forms  # server mode\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --host=0.0.0.0 --port=8081 # server on all interfaces\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  FIELDLINE_MODE            Server mode\n")
		fmt.Fprintf(os.Stderr, "  FIELDLINE_HOST            Server host\n")
		fmt.Fprintf(os.Stderr, "  FIELDLINE_PORT            Server port\n")
		fmt.Fprintf(os.Stderr, "  FIELDLINE_FORMSDIR        Forms directory\n")
		fmt.Fprintf(os.Stderr, "  FIELDLINE_DATADIR         Data directory\n")
		fmt.Fprintf(os.Stderr, "  FIELDLINE_SYNONYMS        Synonyms file\n")
		fmt.Fprintf(os.Stderr, "  FIELDLINE_DICTIONARY      Dictionary catalog file\n")
		fmt.Fprintf(os.Stderr, "  FIELDLINE_LOGLEVEL        Log level\n")
		fmt.Fprintf(os.Stderr, "  FIELDLINE_MAXFILESIZE     Maximum file size\n")
		fmt.Fprintf(os.Stderr, "  FIELDLINE_FUZZYTHRESHOLD  Fuzzy match threshold\n")
		fmt.Fprintf(os.Stderr, "  FIELDLINE_BULKTHRESHOLD   Bulk approve threshold\n")
		fmt.Fprintf(os.Stderr, "  FIELDLINE_APPROVER        Default approver\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.FormsDirectory = viper.GetString("formsdir")
	cfg.DataDirectory = viper.GetString("datadir")
	cfg.SynonymsFile = viper.GetString("synonyms")
	cfg.DictionaryFile = viper.GetString("dictionary")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.FuzzyThreshold = viper.GetFloat64("fuzzythreshold")
	cfg.BulkApproveThreshold = viper.GetFloat64("bulkthreshold")
	cfg.DefaultApprover = viper.GetString("approver")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.FormsDirectory == "" {
		return errors.New("forms directory cannot be empty")
	}
	if c.DataDirectory == "" {
		return errors.New("data directory cannot be empty")
	}

	for _, dir := range []string{c.FormsDirectory, c.DataDirectory} {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, DefaultDirPerm); err != nil {
				return fmt.Errorf("cannot create directory %s: %w", dir, err)
			}
		} else if err != nil {
			return fmt.Errorf("cannot access directory %s: %w", dir, err)
		}
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.FuzzyThreshold <= 0 || c.FuzzyThreshold > 1 {
		return errors.New("fuzzy threshold must be in (0, 1]")
	}
	if c.BulkApproveThreshold <= 0 || c.BulkApproveThreshold > 1 {
		return errors.New("bulk approve threshold must be in (0, 1]")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// SchemasDirectory returns the schema store location under the data root.
func (c *Config) SchemasDirectory() string {
	return filepath.Join(c.DataDirectory, "schemas")
}

// MappingsDirectory returns the mapping store location under the data root.
func (c *Config) MappingsDirectory() string {
	return filepath.Join(c.DataDirectory, "mappings")
}

// AuditDirectory returns the audit trail location under the data root.
func (c *Config) AuditDirectory() string {
	return filepath.Join(c.DataDirectory, "audit")
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, FormsDirectory: %s, DataDirectory: %s, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Host, c.Port, c.FormsDirectory, c.DataDirectory, c.LogLevel, c.MaxFileSize)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
