package dicom

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrInputNotFound is returned when the input path does not exist.
var ErrInputNotFound = errors.New("input path does not exist")

// DicomExtensions are the extensions accepted during a directory scan.
// Matching is case-insensitive.
var DicomExtensions = []string{".dcm", ".dicom"}

// ExcludedNames are filenames to skip
var ExcludedNames = map[string]bool{
	"DICOMDIR":    true,
	".DS_Store":   true,
	"Thumbs.db":   true,
	"desktop.ini": true,
}

// ExcludedDirs are directory names to skip entirely
var ExcludedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"__pycache__":  true,
	".venv":        true,
	".idea":        true,
	".vscode":      true,
}

// FindOptions controls a directory scan.
type FindOptions struct {
	Recursive bool
	// Sniff also accepts extension-less files carrying the DICM preamble.
	Sniff bool
}

// FindDicomFiles returns the files to process for inputPath. A single file
// is always returned as-is regardless of its extension; a directory is
// scanned and filtered by extension. Results are sorted.
func FindDicomFiles(inputPath string, opts FindOptions) ([]string, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, inputPath)
		}
		return nil, fmt.Errorf("could not stat input: %w", err)
	}

	if !info.IsDir() {
		return []string{inputPath}, nil
	}

	var files []string

	walkFn := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip files we can't access
		}

		if info.IsDir() {
			if path == inputPath {
				return nil
			}
			if ExcludedDirs[info.Name()] || !opts.Recursive {
				return filepath.SkipDir
			}
			return nil
		}

		if ExcludedNames[info.Name()] {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if hasDicomExtension(ext) || (ext == "" && opts.Sniff && hasDicomMagicBytes(path)) {
			files = append(files, path)
		}

		return nil
	}

	if err := filepath.Walk(inputPath, walkFn); err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func hasDicomExtension(ext string) bool {
	for _, de := range DicomExtensions {
		if ext == de {
			return true
		}
	}
	return false
}

// hasDicomMagicBytes checks if a file has the DICOM magic bytes ("DICM" at offset 128)
func hasDicomMagicBytes(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	header := make([]byte, 132)
	if _, err := io.ReadFull(file, header); err != nil {
		return false
	}

	return string(header[128:132]) == "DICM"
}
