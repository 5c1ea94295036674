package config

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/language"

	"github.com/conneroisu/hotsnip/internal/errors"
	"github.com/conneroisu/hotsnip/internal/logging"
	"github.com/conneroisu/hotsnip/internal/textutil"
)

const maxReasonableDebounce = 10 * time.Second

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	write := func(title string, issues []ValidationError) {
		if len(issues) == 0 {
			return
		}
		builder.WriteString(title + ":\n")
		for _, issue := range issues {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", issue.Field, issue.Message))
			for _, suggestion := range issue.Suggestions {
				builder.WriteString(fmt.Sprintf("      hint: %s\n", suggestion))
			}
		}
	}

	write("Validation errors", vr.Errors)
	write("Validation warnings", vr.Warnings)
	return builder.String()
}

// ValidateConfigWithDetails checks every setting and collects all problems.
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	validateTemplatesConfigDetails(&config.Templates, result)
	validateWatchConfigDetails(&config.Watch, result)
	validateLogConfigDetails(&config.Log, result)

	result.Valid = !result.HasErrors()
	return result
}

// validateConfig returns the first validation error as a config error.
func validateConfig(config *Config) error {
	result := ValidateConfigWithDetails(config)
	if !result.HasErrors() {
		return nil
	}

	first := result.Errors[0]
	return errors.NewConfigError(errors.ErrCodeConfigInvalid, first.Error()).
		WithContext("field", first.Field).
		WithContext("problems", len(result.Errors))
}

func validateTemplatesConfigDetails(config *TemplatesConfig, result *ValidationResult) {
	if strings.TrimSpace(config.Folder) == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   KeyTemplatesFolder,
			Value:   config.Folder,
			Message: "template folder cannot be empty",
			Suggestions: []string{
				"Use './AutoTemplates' to keep templates next to the config file",
			},
		})
	}

	switch {
	case config.Extension == "":
		result.Errors = append(result.Errors, ValidationError{
			Field:       KeyTemplatesExtension,
			Value:       config.Extension,
			Message:     "extension cannot be empty",
			Suggestions: []string{"Use '.snip'"},
		})
	case !strings.HasPrefix(config.Extension, "."):
		result.Errors = append(result.Errors, ValidationError{
			Field:       KeyTemplatesExtension,
			Value:       config.Extension,
			Message:     fmt.Sprintf("extension %q must start with a dot", config.Extension),
			Suggestions: []string{fmt.Sprintf("Use '.%s'", config.Extension)},
		})
	case strings.ContainsAny(config.Extension[1:], `./\`):
		result.Errors = append(result.Errors, ValidationError{
			Field:   KeyTemplatesExtension,
			Value:   config.Extension,
			Message: "extension must be a single suffix such as '.snip'",
		})
	}

	for _, marker := range []struct {
		field, value string
	}{
		{KeyTemplatesOpenMarker, config.OpenMarker},
		{KeyTemplatesClose, config.CloseMarker},
	} {
		if marker.value == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:       marker.field,
				Value:       marker.value,
				Message:     "key token marker cannot be empty",
				Suggestions: []string{"Use '[' and ']' as in 'Signature [Ctrl+Alt+S].snip'"},
			})
		} else if strings.ContainsAny(marker.value, `/\`) {
			result.Errors = append(result.Errors, ValidationError{
				Field:   marker.field,
				Value:   marker.value,
				Message: "key token marker cannot contain path separators",
			})
		}
	}
	if config.OpenMarker != "" && config.OpenMarker == config.CloseMarker {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   KeyTemplatesClose,
			Value:   config.CloseMarker,
			Message: "open and close markers are identical",
			Suggestions: []string{
				"Distinct markers make file names easier to read",
			},
		})
	}
	if strings.IndexFunc(config.OpenMarker+config.CloseMarker, unicode.IsSpace) >= 0 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   KeyTemplatesOpenMarker,
			Value:   config.OpenMarker + " " + config.CloseMarker,
			Message: "markers containing whitespace are easy to mistype",
		})
	}

	tag, err := language.Parse(config.Language)
	if err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   KeyTemplatesLanguage,
			Value:   config.Language,
			Message: err.Error(),
			Suggestions: []string{
				"Use a BCP 47 tag such as 'en', 'tr' or 'und' for language-neutral rules",
			},
		})
	}

	if _, err := textutil.ParseComparison(config.Comparison, tag); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   KeyTemplatesComparison,
			Value:   config.Comparison,
			Message: err.Error(),
			Suggestions: []string{
				"Use 'ordinal-ignore-case' so [ctrl+s] and [Ctrl+S] both work",
			},
		})
	}
}

func validateWatchConfigDetails(config *WatchConfig, result *ValidationResult) {
	if config.Debounce < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:       KeyWatchDebounce,
			Value:       config.Debounce,
			Message:     "debounce cannot be negative",
			Suggestions: []string{"Use '0s' to reload on every event, or '150ms'"},
		})
	} else if config.Debounce > maxReasonableDebounce {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   KeyWatchDebounce,
			Value:   config.Debounce,
			Message: "debounce above 10s delays every reload noticeably",
		})
	}
}

func validateLogConfigDetails(config *LogConfig, result *ValidationResult) {
	if _, err := logging.ParseLevel(config.Level); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:       KeyLogLevel,
			Value:       config.Level,
			Message:     err.Error(),
			Suggestions: []string{"Use one of: debug, info, warn, error"},
		})
	}

	switch strings.ToLower(config.Format) {
	case "text", "json":
	default:
		result.Errors = append(result.Errors, ValidationError{
			Field:       KeyLogFormat,
			Value:       config.Format,
			Message:     fmt.Sprintf("unknown log format %q", config.Format),
			Suggestions: []string{"Use 'text' or 'json'"},
		})
	}
}
