// Package dedup classifies redundant records in a fetched collection.
package dedup

import (
	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/domain"
)

// Reasons recorded with each duplicate classification.
const (
	ReasonHash      = "hash"
	ReasonComposite = "composite"
)

// Duplicate is one record classified as redundant, with the key that matched.
type Duplicate struct {
	Record domain.Record
	Key    string
	Reason string
}

// Detector finds duplicates in a single ordered pass: within one run the first
// record observed for a key is kept and every later record sharing it is a
// duplicate. Records carrying a content hash dedup on the strong "sha:" key
// alone; records without one fall back to the (message, project, day) triple.
type Detector struct {
	fields domain.KeyFields

	// onProgress, when set, is invoked every saveEvery records with the
	// cumulative processed and duplicate counts.
	saveEvery  int
	onProgress func(processed, duplicates int)
}

// New builds a detector over the given key properties.
func New(fields domain.KeyFields) *Detector {
	return &Detector{fields: fields}
}

// WithProgress registers a periodic progress callback.
func (d *Detector) WithProgress(every int, fn func(processed, duplicates int)) *Detector {
	d.saveEvery = every
	d.onProgress = fn
	return d
}

// Detect returns the duplicates in input order. The kept set is implicit:
// the earliest record for each key is never returned.
func (d *Detector) Detect(records []domain.Record) []Duplicate {
	seenHash := make(map[string]struct{}, len(records))
	seenComposite := make(map[string]struct{}, len(records))

	var duplicates []Duplicate
	for i, rec := range records {
		if key := d.fields.StrongKey(rec); key != "" {
			if _, ok := seenHash[key]; ok {
				duplicates = append(duplicates, Duplicate{Record: rec, Key: key, Reason: ReasonHash})
			} else {
				seenHash[key] = struct{}{}
			}
		} else {
			key := d.fields.CompositeKey(rec)
			if _, ok := seenComposite[key]; ok {
				duplicates = append(duplicates, Duplicate{Record: rec, Key: key, Reason: ReasonComposite})
			} else {
				seenComposite[key] = struct{}{}
			}
		}

		if d.onProgress != nil && d.saveEvery > 0 && (i+1)%d.saveEvery == 0 {
			d.onProgress(i+1, len(duplicates))
		}
	}

	if d.onProgress != nil {
		d.onProgress(len(records), len(duplicates))
	}

	return duplicates
}
