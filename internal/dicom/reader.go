package dicom

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

var (
	// ErrTagNotFound is returned by Lookup when the dataset has no element
	// for the requested tag.
	ErrTagNotFound = errors.New("tag not found")

	// ErrUnsupportedValue is returned by Lookup for elements whose value
	// cannot be rendered as text (binary data, sequences, pixel data).
	ErrUnsupportedValue = errors.New("unsupported value type")
)

// Source is read-only tag access over one opened file.
type Source interface {
	Lookup(t tag.Tag) (string, error)
}

// Dataset wraps a parsed DICOM dataset and implements Source.
type Dataset struct {
	Data     dicom.Dataset
	FilePath string
}

// OpenSource reads the metadata of a DICOM file (no pixel data). The file
// handle is released before returning.
func OpenSource(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("could not stat file: %w", err)
	}

	ds, err := dicom.Parse(file, info.Size(), nil, dicom.SkipPixelData())
	if err != nil {
		return nil, fmt.Errorf("could not parse DICOM: %w", err)
	}

	return &Dataset{
		Data:     ds,
		FilePath: path,
	}, nil
}

// Lookup returns the first value of the element with tag t as a string.
// Multi-valued elements (e.g. ImageType) yield only their first value.
func (d *Dataset) Lookup(t tag.Tag) (string, error) {
	if IsNullTag(t) {
		return "", ErrTagNotFound
	}

	elem, err := d.Data.FindElementByTag(t)
	if err != nil {
		if errors.Is(err, dicom.ErrorElementNotFound) {
			return "", ErrTagNotFound
		}
		return "", fmt.Errorf("could not find %s: %w", t, err)
	}

	if elem.Value == nil {
		return "", nil
	}

	switch v := elem.Value.GetValue().(type) {
	case []string:
		if len(v) == 0 {
			return "", nil
		}
		return strings.TrimRight(v[0], " \x00"), nil
	case []int:
		if len(v) == 0 {
			return "", nil
		}
		return strconv.Itoa(v[0]), nil
	case []float64:
		if len(v) == 0 {
			return "", nil
		}
		return strconv.FormatFloat(v[0], 'g', -1, 64), nil
	case nil:
		return "", nil
	}

	return "", fmt.Errorf("%s: %w", t, ErrUnsupportedValue)
}
