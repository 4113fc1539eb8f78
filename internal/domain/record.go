package domain

import "time"

// PropertyType enumerates the property kinds exposed by the hosted record service.
type PropertyType string

const (
	PropertyTitle    PropertyType = "title"
	PropertyRichText PropertyType = "rich_text"
	PropertyDate     PropertyType = "date"
	PropertyNumber   PropertyType = "number"
)

// Property is one typed named value attached to a record.
type Property struct {
	Type   PropertyType
	Text   string
	Date   time.Time
	Number float64
}

// Record is a read snapshot of one page in the hosted collection. The service
// owns the data; the pipeline keeps only what later mutations need.
type Record struct {
	ID         string
	Archived   bool
	CreatedAt  time.Time
	Properties map[string]Property
}

// Text returns the plain text of a title or rich-text property, or the empty
// string when the property is absent or of another type.
func (r Record) Text(name string) string {
	prop, ok := r.Properties[name]
	if !ok {
		return ""
	}
	if prop.Type != PropertyTitle && prop.Type != PropertyRichText {
		return ""
	}
	return prop.Text
}

// Date returns the value of a date property, or the zero time when absent.
func (r Record) Date(name string) time.Time {
	prop, ok := r.Properties[name]
	if !ok || prop.Type != PropertyDate {
		return time.Time{}
	}
	return prop.Date
}

// Number returns the value of a number property, or zero when absent.
func (r Record) Number(name string) float64 {
	prop, ok := r.Properties[name]
	if !ok || prop.Type != PropertyNumber {
		return 0
	}
	return prop.Number
}

// Has reports whether the record carries a property under the given name.
func (r Record) Has(name string) bool {
	_, ok := r.Properties[name]
	return ok
}

// Patch describes a single-record mutation sent to the record service.
// A nil Archived leaves the archive flag untouched. Properties are set,
// Clear names are removed.
type Patch struct {
	Archived   *bool
	Properties map[string]Property
	Clear      []string
}

// ArchivePatch returns a patch that soft-deletes a record.
func ArchivePatch() Patch {
	archived := true
	return Patch{Archived: &archived}
}
