// Package classify derives category and severity from an action code via
// a versioned constant lookup table.
package classify

import (
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/types"
)

// Classify resolves the classification of an action code. If override is
// non-nil it is returned verbatim, both fields, no partial override.
// Unknown actions fall back to (user, low). Pure and total; never errors.
func Classify(action string, override *types.Override) (types.Category, types.Severity) {
	if override != nil {
		return override.Category, override.Severity
	}
	if rule, ok := Lookup(action); ok {
		return rule.Category, rule.Severity
	}
	return types.CategoryUser, types.SeverityLow
}
