// Package output renders extracted records as CSV or JSON.
package output

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/samber/lo"

	"dicom-metadata/internal/extract"
)

// Supported output formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Formatter renders a record set with a fixed column order. Fields missing
// from a record render as empty strings.
type Formatter struct {
	records []extract.Record
	fields  []string
}

// New creates a Formatter over records, ordered by fields.
func New(records []extract.Record, fields []string) *Formatter {
	return &Formatter{records: records, fields: fields}
}

// Render writes the records in the given format.
func (f *Formatter) Render(format string, w io.Writer) error {
	switch format {
	case FormatCSV:
		return f.ToCSV(w)
	case FormatJSON:
		return f.ToJSON(w)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// ToCSV writes a header line followed by one line per record.
func (f *Formatter) ToCSV(w io.Writer) error {
	var buf bytes.Buffer

	writeCSVLine(&buf, f.fields)
	row := make([]string, len(f.fields))
	for _, rec := range f.records {
		for i, field := range f.fields {
			row[i] = rec[field]
		}
		writeCSVLine(&buf, row)
	}

	_, err := w.Write(buf.Bytes())
	return err
}

func writeCSVLine(buf *bytes.Buffer, values []string) {
	for i, v := range values {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(EscapeCSVField(v))
	}
	buf.WriteByte('\n')
}

// EscapeCSVField quotes value if it contains a comma, double quote, line
// feed or carriage return, doubling embedded quotes. Other values are
// returned verbatim.
func EscapeCSVField(value string) string {
	if !strings.ContainsAny(value, ",\"\n\r") {
		return value
	}
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

// ToJSON writes a JSON array with one object per record, keys in field
// order, indented by two spaces.
func (f *Formatter) ToJSON(w io.Writer) error {
	// Repeated names would produce duplicate keys; keep the first.
	fields := lo.Uniq(f.fields)

	var buf bytes.Buffer
	if len(f.records) == 0 {
		buf.WriteString("[]\n")
		_, err := w.Write(buf.Bytes())
		return err
	}

	buf.WriteString("[\n")
	for i, rec := range f.records {
		if len(fields) == 0 {
			buf.WriteString("  {}")
		} else {
			buf.WriteString("  {\n")
			for j, field := range fields {
				if err := writeJSONMember(&buf, field, rec[field]); err != nil {
					return err
				}
				if j < len(fields)-1 {
					buf.WriteByte(',')
				}
				buf.WriteByte('\n')
			}
			buf.WriteString("  }")
		}
		if i < len(f.records)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("]\n")

	_, err := w.Write(buf.Bytes())
	return err
}

func writeJSONMember(buf *bytes.Buffer, key, value string) error {
	k, err := json.Marshal(key)
	if err != nil {
		return fmt.Errorf("could not encode key %q: %w", key, err)
	}
	v, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("could not encode value of %q: %w", key, err)
	}

	buf.WriteString("    ")
	buf.Write(k)
	buf.WriteString(": ")
	buf.Write(v)
	return nil
}
