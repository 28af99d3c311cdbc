package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
)

// FormatForCLI formats an error for CLI output.
// Uses a concise format suitable for terminal display.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	var le *LoomError
	if !stderrors.As(err, &le) {
		le = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", le.Message))
	sb.WriteString(fmt.Sprintf("  Code: %s\n", le.Code))
	for k, v := range le.Details {
		sb.WriteString(fmt.Sprintf("  %s: %s\n", k, v))
	}

	return sb.String()
}

// jsonError is the JSON representation of an error.
type jsonError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Category  string            `json:"category"`
	Severity  string            `json:"severity"`
	Details   map[string]string `json:"details,omitempty"`
	Cause     string            `json:"cause,omitempty"`
	Retryable bool              `json:"retryable"`
}

// FormatJSON returns a JSON representation of the error.
// Suitable for machine consumption and structured logging.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}

	var le *LoomError
	if !stderrors.As(err, &le) {
		le = Wrap(ErrCodeInternal, err)
	}

	je := jsonError{
		Code:      le.Code,
		Message:   le.Message,
		Category:  string(le.Category),
		Severity:  string(le.Severity),
		Details:   le.Details,
		Retryable: le.Retryable,
	}

	if le.Cause != nil {
		je.Cause = le.Cause.Error()
	}

	return json.Marshal(je)
}

// FormatForLog formats an error for structured logging.
// Returns key-value pairs suitable for slog attributes.
func FormatForLog(err error) map[string]any {
	if err == nil {
		return nil
	}

	var le *LoomError
	if !stderrors.As(err, &le) {
		return map[string]any{
			"error": err.Error(),
		}
	}

	result := map[string]any{
		"error_code": le.Code,
		"message":    le.Message,
		"category":   string(le.Category),
		"severity":   string(le.Severity),
		"retryable":  le.Retryable,
	}

	if le.Cause != nil {
		result["cause"] = le.Cause.Error()
	}

	for k, v := range le.Details {
		result["detail_"+k] = v
	}

	return result
}
