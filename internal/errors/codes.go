// Package errors provides structured error handling for tagindex.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (library files, disk)
//   - 3XX: Storage errors (database, suggestion index)
//   - 4XX: Validation errors
//   - 5XX: Internal errors
//   - 9XX: Cancellation
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates library file and disk I/O errors.
	CategoryIO Category = "IO"
	// CategoryStorage indicates database and suggestion-index errors.
	CategoryStorage Category = "STORAGE"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
	// CategoryCancelled indicates a caller-requested cancellation, not a failure.
	CategoryCancelled Category = "CANCELLED"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeFileNotFound   = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFilePermission = "ERR_202_FILE_PERMISSION"
	ErrCodeLibraryMissing = "ERR_203_LIBRARY_MISSING"
	ErrCodeFileUnreadable = "ERR_204_FILE_UNREADABLE"

	// Storage errors (300-399)
	ErrCodeStoreOpen       = "ERR_301_STORE_OPEN"
	ErrCodeMigrationFailed = "ERR_302_MIGRATION_FAILED"
	ErrCodeCorruptIndex    = "ERR_303_CORRUPT_INDEX"
	ErrCodeConsistency     = "ERR_304_CONSISTENCY"
	ErrCodeStoreBusy       = "ERR_305_STORE_BUSY"

	// Validation errors (400-499)
	ErrCodeInvalidInput   = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidQuery   = "ERR_402_INVALID_QUERY"
	ErrCodeInvalidPath    = "ERR_403_INVALID_PATH"
	ErrCodeInvalidBackend = "ERR_404_INVALID_BACKEND"

	// Internal errors (500-599)
	ErrCodeInternal      = "ERR_501_INTERNAL"
	ErrCodeSyncFailed    = "ERR_502_SYNC_FAILED"
	ErrCodeSearchFailed  = "ERR_503_SEARCH_FAILED"
	ErrCodeSuggestFailed = "ERR_504_SUGGEST_FAILED"
	ErrCodeClusterFailed = "ERR_505_CLUSTER_FAILED"

	// Cancellation (900-999)
	ErrCodeCancelled = "ERR_901_CANCELLED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "101" from "ERR_101_CONFIG_NOT_FOUND")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryStorage
	case '4':
		return CategoryValidation
	case '9':
		return CategoryCancelled
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeCorruptIndex, ErrCodeConsistency, ErrCodeMigrationFailed:
		return SeverityFatal
	case ErrCodeFileUnreadable, ErrCodeCancelled:
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeStoreBusy, ErrCodeSyncFailed:
		return true
	default:
		return false
	}
}
