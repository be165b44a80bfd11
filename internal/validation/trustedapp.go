package validation

import (
	"fmt"

	"github.com/hyperengineering/trustedapps/internal/types"
)

// Field length limits for trusted app payloads.
const (
	MaxNameLength        = 256
	MaxDescriptionLength = 1024
	MaxEntryValueLength  = 1024
)

var (
	allowedOS        = []string{string(types.OSWindows), string(types.OSLinux), string(types.OSMacOS)}
	allowedEntryType = []string{string(types.EntryTypeExact), string(types.EntryTypeMatch), string(types.EntryTypeWildcard)}
	allowedOperator  = []string{string(types.OperatorIncluded), string(types.OperatorExcluded)}
)

// ValidateNewTrustedApp checks the creation payload: required fields, enum
// membership, and sane lengths. All failures are collected, not just the
// first.
func ValidateNewTrustedApp(app types.NewTrustedApp) []ValidationError {
	var c Collector

	c.Add(ValidateRequired("name", app.Name))
	c.Add(ValidateUTF8("name", app.Name))
	c.Add(ValidateNoNullBytes("name", app.Name))
	c.Add(ValidateMaxLength("name", app.Name, MaxNameLength))

	c.Add(ValidateRequired("description", app.Description))
	c.Add(ValidateMaxLength("description", app.Description, MaxDescriptionLength))

	c.Add(ValidateRequired("os", string(app.OS)))
	if app.OS != "" {
		c.Add(ValidateEnum("os", string(app.OS), allowedOS))
	}

	if len(app.Entries) == 0 {
		c.Add(&ValidationError{Field: "entries", Message: "is required"})
	}
	for i, entry := range app.Entries {
		c.Add(validateEntry(i, entry))
	}

	return c.Errors()
}

// validateEntry checks one match entry, reporting the first problem found.
func validateEntry(index int, entry types.MatchEntry) *ValidationError {
	prefix := fmt.Sprintf("entries[%d]", index)

	if err := ValidateRequired(prefix+".field", entry.Field); err != nil {
		return err
	}
	if err := ValidateEnum(prefix+".type", string(entry.Type), allowedEntryType); err != nil {
		return err
	}
	if err := ValidateEnum(prefix+".operator", string(entry.Operator), allowedOperator); err != nil {
		return err
	}
	if err := ValidateRequired(prefix+".value", entry.Value); err != nil {
		return err
	}
	return ValidateMaxLength(prefix+".value", entry.Value, MaxEntryValueLength)
}

// ValidatePageParams checks list pagination inputs after defaulting.
func ValidatePageParams(page, perPage int) []ValidationError {
	var c Collector
	c.Add(ValidatePositiveInt("page", page))
	c.Add(ValidatePositiveInt("per_page", perPage))
	return c.Errors()
}
