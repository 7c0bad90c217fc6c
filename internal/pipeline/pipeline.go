// Package pipeline runs extraction over a list of files and aggregates the
// results into an ordered record set.
package pipeline

import (
	"errors"
	"io"
	"path/filepath"
	"sync/atomic"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/iter"

	dcm "dicom-metadata/internal/dicom"
	"dicom-metadata/internal/extract"
	"dicom-metadata/internal/identity"
	"dicom-metadata/internal/progress"
)

// FileNameField is the synthetic first column holding each file's base name.
const FileNameField = "FileName"

// ErrNoRecords is returned when no file produced a record.
var ErrNoRecords = errors.New("no files were processed successfully")

// Opener opens a source for one file.
type Opener func(path string) (dcm.Source, error)

// OpenDicom is the default Opener.
func OpenDicom(path string) (dcm.Source, error) {
	ds, err := dcm.OpenSource(path)
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// Config holds the pipeline configuration
type Config struct {
	Files     []string
	Fields    []string // requested fields, FileName is added automatically
	Anonymize bool
	Hasher    *identity.Hasher
	Workers   int // <= 1 processes files sequentially

	Open   Opener                // defaults to OpenDicom
	Log    logrus.FieldLogger    // defaults to a discarded logger
	Errors *progress.ErrorLogger // optional failure ledger
}

// Stats holds processing statistics
type Stats struct {
	Total   int
	Success int
	Failed  int
}

// Result is the outcome of a run. Records are in input order.
type Result struct {
	Fields  []string
	Records []extract.Record
	Stats   Stats
}

// ProgressCallback is called after each file. With several workers it may
// be called concurrently.
type ProgressCallback func(current, total int, filename, status string)

// FieldList returns the output column order: FileName first, then the
// requested fields with duplicates removed.
func FieldList(fields []string) []string {
	return lo.Uniq(append([]string{FileNameField}, fields...))
}

type fileResult struct {
	path      string
	record    extract.Record
	err       error
	fieldErrs []extract.FieldError
}

// Run extracts every file in cfg.Files. Files that cannot be opened are
// logged, counted as failed and left out of the record set. ErrNoRecords is
// returned, together with the result, when nothing succeeded.
func Run(cfg Config, progressCb ProgressCallback) (*Result, error) {
	open := cfg.Open
	if open == nil {
		open = OpenDicom
	}
	log := cfg.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	fields := FieldList(cfg.Fields)
	extractor := extract.Extractor{Hasher: cfg.Hasher, Anonymize: cfg.Anonymize}
	extractFields := lo.Without(fields, FileNameField)

	total := len(cfg.Files)
	var done atomic.Int64

	process := func(path *string) fileResult {
		res := processFile(*path, open, extractor, extractFields)

		if progressCb != nil {
			status := "success"
			if res.err != nil {
				status = "failed"
			}
			progressCb(int(done.Add(1)), total, filepath.Base(*path), status)
		}
		return res
	}

	mapper := iter.Mapper[string, fileResult]{MaxGoroutines: max(cfg.Workers, 1)}
	results := mapper.Map(cfg.Files, process)

	result := &Result{
		Fields:  fields,
		Records: make([]extract.Record, 0, total),
		Stats:   Stats{Total: total},
	}

	for _, res := range results {
		flog := log.WithField("file", res.path)

		if res.err != nil {
			result.Stats.Failed++
			flog.WithError(res.err).Warn("Skipping file")
			if cfg.Errors != nil {
				cfg.Errors.Log(res.path, res.err)
			}
			continue
		}

		for _, fe := range res.fieldErrs {
			flog.Debugf("Could not read %s: %v", fe.Field, fe.Err)
		}

		result.Stats.Success++
		result.Records = append(result.Records, res.record)
	}

	if result.Stats.Success == 0 {
		return result, ErrNoRecords
	}
	return result, nil
}

func processFile(path string, open Opener, x extract.Extractor, fields []string) fileResult {
	src, err := open(path)
	if err != nil {
		return fileResult{path: path, err: err}
	}

	rec, fieldErrs := x.Extract(src, fields)
	rec[FileNameField] = filepath.Base(path)

	return fileResult{path: path, record: rec, fieldErrs: fieldErrs}
}
