package dicom

import (
	"sort"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// NullTag is returned for field names with no known mapping. It never
// matches an element in a real dataset.
var NullTag = tag.Tag{Group: 0x0000, Element: 0x0000}

// FieldTags maps supported field names to their DICOM tags.
var FieldTags = map[string]tag.Tag{
	"PatientID":             tag.PatientID,             // (0010,0020)
	"PatientName":           tag.PatientName,           // (0010,0010)
	"StudyDate":             tag.StudyDate,             // (0008,0020)
	"StudyTime":             tag.StudyTime,             // (0008,0030)
	"Modality":              tag.Modality,              // (0008,0060)
	"StudyDescription":      tag.StudyDescription,      // (0008,1030)
	"SeriesDescription":     tag.SeriesDescription,     // (0008,103E)
	"InstitutionName":       tag.InstitutionName,       // (0008,0080)
	"ManufacturerModelName": tag.ManufacturerModelName, // (0008,1090)
	"SliceThickness":        tag.SliceThickness,        // (0018,0050)
	"ImageType":             tag.ImageType,             // (0008,0008)
	"AccessionNumber":       tag.AccessionNumber,       // (0008,0050)
}

// ResolveTag returns the DICOM tag for a field name, or NullTag if the
// name is not supported.
func ResolveTag(field string) tag.Tag {
	if t, ok := FieldTags[field]; ok {
		return t
	}
	return NullTag
}

// IsNullTag reports whether t is the unresolved sentinel.
func IsNullTag(t tag.Tag) bool {
	return t == NullTag
}

// SupportedFields returns the supported field names in sorted order.
func SupportedFields() []string {
	names := make([]string, 0, len(FieldTags))
	for name := range FieldTags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
