// internal/app/system/normalize/normalize.go
package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Email trims and lowercases an email address. Emails are login keys.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name, collapses inner whitespace and applies NFC so
// visually identical names compare equal.
func Name(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// QueryParam trims a query-string value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// OptionalText trims a present value. Absent stays absent.
func OptionalText(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
