// Package extract turns an opened DICOM source into a flat field/value record.
package extract

import (
	"errors"

	"github.com/suyashkumar/dicom/pkg/tag"

	dcm "dicom-metadata/internal/dicom"
	"dicom-metadata/internal/identity"
)

// NotAvailable is the value of any field that could not be resolved or read.
const NotAvailable = "N/A"

// AnonymizedField is the only field subject to anonymization.
const AnonymizedField = "PatientID"

// Record maps field names to values. Every requested field is present.
type Record map[string]string

// FieldError describes a lookup that failed for a reason other than the
// tag being absent.
type FieldError struct {
	Field string
	Tag   tag.Tag
	Err   error
}

func (e FieldError) Error() string {
	return e.Field + " " + e.Tag.String() + ": " + e.Err.Error()
}

func (e FieldError) Unwrap() error {
	return e.Err
}

// Extractor extracts records using a configured hasher for anonymization.
type Extractor struct {
	Hasher    *identity.Hasher
	Anonymize bool
}

// Extract extracts fields from src. A nil src yields N/A for every field.
func (x Extractor) Extract(src dcm.Source, fields []string) (Record, []FieldError) {
	rec := make(Record, len(fields))
	if src == nil {
		for _, field := range fields {
			rec[field] = NotAvailable
		}
		return rec, nil
	}

	var errs []FieldError
	for _, field := range fields {
		t := dcm.ResolveTag(field)
		value, err := lookup(src, t)
		if err != nil {
			if !errors.Is(err, dcm.ErrTagNotFound) {
				errs = append(errs, FieldError{Field: field, Tag: t, Err: err})
			}
			value = NotAvailable
		}

		if x.Anonymize && field == AnonymizedField && value != NotAvailable {
			value = x.Hasher.Anonymize(value)
		}

		rec[field] = value
	}

	return rec, errs
}

func lookup(src dcm.Source, t tag.Tag) (string, error) {
	if dcm.IsNullTag(t) {
		return "", dcm.ErrTagNotFound
	}
	return src.Lookup(t)
}

// Extract extracts fields from src with the unkeyed anonymizer.
func Extract(src dcm.Source, fields []string, anonymize bool) Record {
	rec, _ := ExtractDetailed(src, fields, anonymize)
	return rec
}

// ExtractDetailed is Extract that also reports failed lookups.
func ExtractDetailed(src dcm.Source, fields []string, anonymize bool) (Record, []FieldError) {
	return Extractor{Anonymize: anonymize}.Extract(src, fields)
}
