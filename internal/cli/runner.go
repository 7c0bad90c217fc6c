package cli

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"dicom-metadata/internal/config"
	dcm "dicom-metadata/internal/dicom"
	"dicom-metadata/internal/diag"
	"dicom-metadata/internal/identity"
	"dicom-metadata/internal/output"
	"dicom-metadata/internal/pipeline"
	"dicom-metadata/internal/progress"
)

// Options holds everything a run needs besides the settings.
type Options struct {
	Input      string
	Settings   config.Settings
	Sniff      bool
	NoProgress bool
	ErrorLog   string

	Open pipeline.Opener // nil reads DICOM files
}

// Summary describes a completed run.
type Summary struct {
	Stats       pipeline.Stats
	OutputBytes int
}

// Run discovers files, extracts records and writes the rendered output.
// Data goes to stdout (or the output file); progress to stderr.
func Run(opts Options, log logrus.FieldLogger, stdout, stderr io.Writer) (*Summary, error) {
	s := opts.Settings
	start := time.Now()

	if opts.Input == "" {
		return nil, fmt.Errorf("input path is required")
	}

	files, err := dcm.FindDicomFiles(opts.Input, dcm.FindOptions{
		Recursive: s.Recursive,
		Sniff:     opts.Sniff,
	})
	if err != nil {
		return nil, err
	}

	printHeader(log, opts)

	if len(files) == 0 {
		return nil, fmt.Errorf("no DICOM files found in %s", opts.Input)
	}
	log.Infof("Found %d DICOM file(s) in %s", len(files), opts.Input)

	errorLogger, err := progress.NewErrorLogger(opts.ErrorLog)
	if err != nil {
		return nil, fmt.Errorf("could not create error logger: %w", err)
	}
	defer errorLogger.Close()

	bar := progress.NewBar(stderr, len(files), !opts.NoProgress && diag.IsTerminal(stderr))

	cfg := pipeline.Config{
		Files:     files,
		Fields:    s.Fields,
		Anonymize: s.Anonymize,
		Hasher:    identity.NewHasher(s.AnonymizeKey),
		Workers:   s.Workers,
		Log:       log,
		Errors:    errorLogger,
		Open:      opts.Open,
	}

	result, err := pipeline.Run(cfg, func(current, total int, filename, status string) {
		bar.Increment()
	})
	bar.Finish()
	if err != nil {
		return nil, fmt.Errorf("%w (%d failed)", err, result.Stats.Failed)
	}

	// Render fully before touching the destination.
	var buf bytes.Buffer
	if err := output.New(result.Records, result.Fields).Render(s.OutputFormat, &buf); err != nil {
		return nil, fmt.Errorf("could not render output: %w", err)
	}

	if err := output.WriteDestination(s.OutputFile, buf.Bytes(), stdout); err != nil {
		return nil, err
	}

	summary := &Summary{Stats: result.Stats, OutputBytes: buf.Len()}
	printSummary(log, summary, s.OutputFile, errorLogger, time.Since(start))
	return summary, nil
}

// printHeader logs the run configuration
func printHeader(log logrus.FieldLogger, opts Options) {
	s := opts.Settings

	fields := "(none)"
	if len(s.Fields) > 0 {
		fields = strings.Join(s.Fields, ", ")
	}
	destination := s.OutputFile
	if destination == "" {
		destination = "stdout"
	}

	log.Infof("Input:     %s", opts.Input)
	log.Infof("Format:    %s", s.OutputFormat)
	log.Infof("Fields:    %s", fields)
	log.Infof("Output:    %s", destination)

	if s.Anonymize {
		switch {
		case s.AnonymizeKey == "":
			log.Infof("Anonymize: PatientID (SHA-256)")
		case len(s.AnonymizeKey) > 8:
			log.Infof("Anonymize: PatientID (key %s... provided)", s.AnonymizeKey[:8])
		default:
			log.Infof("Anonymize: PatientID (key provided)")
		}
	}
}

// printSummary logs the processing summary
func printSummary(log logrus.FieldLogger, summary *Summary, outputFile string, errorLogger *progress.ErrorLogger, elapsed time.Duration) {
	log.Infof("Complete! %s processed, %s failed in %s",
		humanize.Comma(int64(summary.Stats.Success)),
		humanize.Comma(int64(summary.Stats.Failed)),
		elapsed.Round(time.Millisecond))

	if outputFile != "" {
		log.Infof("Output:    %s (%s)", outputFile, humanize.Bytes(uint64(summary.OutputBytes)))
	}
	if errorLogger.ErrorCount() > 0 {
		log.Warnf("%s", errorLogger.Summary())
	}
}
