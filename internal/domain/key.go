package domain

import (
	"fmt"
	"strings"
)

// StrongKeyPrefix marks dedup keys derived from a content hash property.
const StrongKeyPrefix = "sha:"

// KeyFields names the record properties that dedup keys derive from.
type KeyFields struct {
	SHA     string
	Message string
	Project string
	Date    string
}

// DefaultKeyFields matches the property names of the commit-log collection.
func DefaultKeyFields() KeyFields {
	return KeyFields{
		SHA:     "Commit SHA",
		Message: "Commits",
		Project: "Project Name",
		Date:    "Date",
	}
}

// StrongKey returns "sha:<hash>" when the hash property is present and
// non-empty, and the empty string otherwise.
func (k KeyFields) StrongKey(r Record) string {
	sha := strings.TrimSpace(r.Text(k.SHA))
	if sha == "" {
		return ""
	}
	return StrongKeyPrefix + sha
}

// CompositeKey is the fallback natural key: message, project, and the record
// date truncated to a day.
func (k KeyFields) CompositeKey(r Record) string {
	day := ""
	if d := r.Date(k.Date); !d.IsZero() {
		day = d.UTC().Format("2006-01-02")
	}
	return fmt.Sprintf("%s|%s|%s", r.Text(k.Message), r.Text(k.Project), day)
}
