// Package errors provides structured error types for skillcheck.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
)

// Code represents a unique error code.
type Code string

// Error codes for skillcheck.
const (
	// Precondition errors, fatal for the whole run
	CodeCategoriesMissing Code = "CATEGORIES_MISSING"
	CodeCategoriesInvalid Code = "CATEGORIES_INVALID"
	CodeSchemaInvalid     Code = "SCHEMA_INVALID"

	// Config errors
	CodeConfigInvalid Code = "CONFIG_INVALID"

	// History store errors
	CodeHistoryUnavailable Code = "HISTORY_UNAVAILABLE"
)

const docsBase = "https://github.com/randalmurphal/skillcheck"

// CheckError is the structured error type for skillcheck.
type CheckError struct {
	Code    Code   `json:"code"`
	What    string `json:"what"`
	Why     string `json:"why,omitempty"`
	Fix     string `json:"fix,omitempty"`
	DocsURL string `json:"docs_url,omitempty"`
	Cause   error  `json:"-"`
}

// Error implements the error interface.
func (e *CheckError) Error() string {
	var b strings.Builder
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString(": ")
		b.WriteString(e.Why)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *CheckError) Unwrap() error {
	return e.Cause
}

// UserMessage returns a user-friendly message for CLI output.
func (e *CheckError) UserMessage() string {
	var b strings.Builder
	b.WriteString("Error: ")
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString("\n\nWhy: ")
		b.WriteString(e.Why)
	}
	if e.Fix != "" {
		b.WriteString("\n\nFix: ")
		b.WriteString(e.Fix)
	}
	if e.DocsURL != "" {
		b.WriteString("\n\nDocs: ")
		b.WriteString(e.DocsURL)
	}
	return b.String()
}

// MarshalJSON implements json.Marshaler.
func (e *CheckError) MarshalJSON() ([]byte, error) {
	type alias CheckError
	aux := struct {
		*alias
		CauseMsg string `json:"cause,omitempty"`
	}{
		alias: (*alias)(e),
	}
	if e.Cause != nil {
		aux.CauseMsg = e.Cause.Error()
	}
	return json.Marshal(aux)
}

// Is reports whether target is a CheckError with the same code.
func (e *CheckError) Is(target error) bool {
	t, ok := target.(*CheckError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause.
func (e *CheckError) WithCause(err error) *CheckError {
	return &CheckError{
		Code:    e.Code,
		What:    e.What,
		Why:     e.Why,
		Fix:     e.Fix,
		DocsURL: e.DocsURL,
		Cause:   err,
	}
}

// --- Error constructors ---

// ErrCategoriesMissing returns an error when the categories document cannot be read.
func ErrCategoriesMissing(path string) *CheckError {
	return &CheckError{
		Code:    CodeCategoriesMissing,
		What:    fmt.Sprintf("categories file %s could not be read", path),
		Why:     "The categories document defines every top-level parent a skill may extend",
		Fix:     "Create the file or point --categories at the right location",
		DocsURL: docsBase + "#categories",
	}
}

// ErrCategoriesInvalid returns an error when the categories document is malformed.
func ErrCategoriesInvalid(path, reason string) *CheckError {
	return &CheckError{
		Code:    CodeCategoriesInvalid,
		What:    fmt.Sprintf("categories file %s is invalid", path),
		Why:     reason,
		Fix:     `The file must be a JSON object with an "attributes" object mapping category keys to metadata`,
		DocsURL: docsBase + "#categories",
	}
}

// ErrSchemaInvalid returns an error when the skill schema cannot be loaded.
func ErrSchemaInvalid(path string) *CheckError {
	return &CheckError{
		Code:    CodeSchemaInvalid,
		What:    fmt.Sprintf("skill schema %s could not be loaded", path),
		Why:     "Schema conformance was requested but the schema is missing or not valid JSON Schema",
		Fix:     "Fix the schema file or unset schema_file",
		DocsURL: docsBase + "#schema",
	}
}

// ErrConfigInvalid returns an error for invalid configuration.
func ErrConfigInvalid(field, reason string) *CheckError {
	return &CheckError{
		Code:    CodeConfigInvalid,
		What:    fmt.Sprintf("invalid configuration: %s", field),
		Why:     reason,
		Fix:     "Check .skillcheck.yaml, SKILLCHECK_* variables and flags for the invalid field",
		DocsURL: docsBase + "#configuration",
	}
}

// ErrHistoryUnavailable returns an error when the run history store cannot be used.
func ErrHistoryUnavailable(driver string) *CheckError {
	return &CheckError{
		Code:    CodeHistoryUnavailable,
		What:    fmt.Sprintf("run history (%s) is unavailable", driver),
		Why:     "The history database could not be opened or migrated",
		Fix:     "Check history.driver and history.dsn, or disable history",
		DocsURL: docsBase + "#history",
	}
}

// AsCheckError attempts to convert an error to a CheckError.
// Returns nil if the error is not a CheckError.
func AsCheckError(err error) *CheckError {
	var checkErr *CheckError
	if stderrors.As(err, &checkErr) {
		return checkErr
	}
	return nil
}
