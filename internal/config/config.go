// =============================================================================
// Material Stock Control - Configuration Module
// =============================================================================
//
// This module is responsible for loading the application configuration.
//
// CONFIGURATION SOURCES (later sources win):
//   1. Built-in defaults (the paths used by the stock team's shared folder)
//   2. The YAML configuration file (config.yaml), if it exists
//   3. Environment variables prefixed with ESTOQUE_
//      Example: ESTOQUE_REFERENCE_PATH, ESTOQUE_RAW_LAYOUT_SKIP_ROWS
//
// The merged configuration is validated before it is returned.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/material-stock-control/internal/types"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "ESTOQUE"

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the application configuration.
type Config struct {
	// =========================================================================
	// INPUT SETTINGS
	// =========================================================================

	// RawExportPath is the stock export produced by the ERP (xlsx or csv).
	// Default: "Planilha Base/Materiais.xlsx"
	RawExportPath string `yaml:"raw_export_path" envconfig:"RAW_EXPORT_PATH" validate:"required"`

	// ReferencePath is the authoritative material catalog (xlsx or csv).
	// Default: "NM materiais do SMS SI.xlsx"
	ReferencePath string `yaml:"reference_path" envconfig:"REFERENCE_PATH" validate:"required"`

	// ReferenceSheet is the catalog worksheet. Empty means the first sheet.
	ReferenceSheet string `yaml:"reference_sheet" envconfig:"REFERENCE_SHEET"`

	// RawLayout is the positional layout of the raw export.
	RawLayout types.RawLayout `yaml:"raw_layout" envconfig:"RAW_LAYOUT"`

	// CSVSettings applies to inputs with a .csv extension.
	CSVSettings CSVSettings `yaml:"csv_settings" envconfig:"CSV"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputPath is the canonical output read by the dashboard.
	// Default: "Controle de Materiais Estoque.xlsx"
	OutputPath string `yaml:"output_path" envconfig:"OUTPUT_PATH" validate:"required"`

	// OutputFormat is "xlsx", "csv" or "xml". Empty infers it from OutputPath.
	OutputFormat string `yaml:"output_format" envconfig:"OUTPUT_FORMAT" validate:"omitempty,oneof=xlsx csv xml"`

	// OutputNameFormat, when set, replaces the file name of OutputPath.
	// Placeholders: {uuid}, {timestamp}, {date}, {time}, {original}
	// Example: "estoque_{date}.xlsx"
	OutputNameFormat string `yaml:"output_name_format" envconfig:"OUTPUT_NAME_FORMAT"`

	// SortBy is the display key of the output: "description" or "code".
	// Default: "description"
	SortBy string `yaml:"sort_by" envconfig:"SORT_BY" validate:"oneof=description code"`

	// ArchiveDir receives a copy of the previous output before it is
	// overwritten. Empty disables archival.
	ArchiveDir string `yaml:"archive_dir" envconfig:"ARCHIVE_DIR"`

	// ArchiveDateSubdirs files archives under YYYY/MM/DD subdirectories.
	ArchiveDateSubdirs bool `yaml:"archive_date_subdirs" envconfig:"ARCHIVE_DATE_SUBDIRS"`

	// ArchiveRetentionDays removes archives older than this many days after
	// each run. Zero keeps every archive.
	ArchiveRetentionDays int `yaml:"archive_retention_days" envconfig:"ARCHIVE_RETENTION_DAYS" validate:"gte=0"`

	// SummaryDir receives a processing summary per run. Empty disables it.
	SummaryDir string `yaml:"summary_dir" envconfig:"SUMMARY_DIR"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL" validate:"oneof=debug info warn error"`

	// LogFile is an optional file that receives a copy of the log.
	LogFile string `yaml:"log_file" envconfig:"LOG_FILE"`
}

// CSVSettings contains settings for reading CSV inputs.
type CSVSettings struct {
	// Delimiter is the field separator. Common values: ";", ",", "tab".
	// Default: ";" (the ERP exports with the pt-BR list separator)
	Delimiter string `yaml:"delimiter" envconfig:"DELIMITER" validate:"required"`

	// Encoding of the file: "UTF-8", "ISO-8859-1" or "Windows-1252".
	// Default: "UTF-8"
	Encoding string `yaml:"encoding" envconfig:"ENCODING" validate:"oneof=UTF-8 ISO-8859-1 Windows-1252"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns the configuration used when no file or environment
// override is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load builds the configuration from defaults, the YAML file at configPath
// and the environment.
//
// PARAMETERS:
//   - configPath: The path to the YAML file. A missing file is not an error.
//
// RETURNS:
//   - A pointer to the validated Config.
//   - An error if the file cannot be parsed or the result is invalid.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// Defaults and environment only.
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// Fields emptied by the file fall back to defaults again.
	applyDefaults(cfg)
	normalize(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *Config) {
	if cfg.RawExportPath == "" {
		cfg.RawExportPath = filepath.Join("Planilha Base", "Materiais.xlsx")
	}
	if cfg.ReferencePath == "" {
		cfg.ReferencePath = "NM materiais do SMS SI.xlsx"
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = "Controle de Materiais Estoque.xlsx"
	}
	if cfg.SortBy == "" {
		cfg.SortBy = "description"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.CSVSettings.Delimiter == "" {
		cfg.CSVSettings.Delimiter = ";"
	}
	if cfg.CSVSettings.Encoding == "" {
		cfg.CSVSettings.Encoding = "UTF-8"
	}

	// A zero layout means the section was omitted entirely.
	if cfg.RawLayout == (types.RawLayout{}) {
		cfg.RawLayout = types.DefaultRawLayout()
	}
}

// normalize canonicalizes case-insensitive settings.
func normalize(cfg *Config) {
	cfg.OutputFormat = strings.ToLower(strings.TrimSpace(cfg.OutputFormat))
	cfg.SortBy = strings.ToLower(strings.TrimSpace(cfg.SortBy))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	switch strings.ToUpper(strings.TrimSpace(cfg.CSVSettings.Encoding)) {
	case "UTF-8", "UTF8":
		cfg.CSVSettings.Encoding = "UTF-8"
	case "ISO-8859-1", "LATIN1", "LATIN-1":
		cfg.CSVSettings.Encoding = "ISO-8859-1"
	case "WINDOWS-1252", "CP1252":
		cfg.CSVSettings.Encoding = "Windows-1252"
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration against its struct rules.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, formatFieldError(fe))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// formatFieldError renders one validator failure for a human.
func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Namespace())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", fe.Namespace(), fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", fe.Namespace(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Namespace(), fe.Tag())
	}
}
