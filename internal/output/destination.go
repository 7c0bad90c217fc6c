package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteDestination writes data to path, truncating any existing file, or
// to stdout when path is empty.
func WriteDestination(path string, data []byte, stdout io.Writer) error {
	if path == "" {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("could not write to stdout: %w", err)
		}
		return nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("could not create output directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("could not write output file: %w", err)
	}
	return nil
}
