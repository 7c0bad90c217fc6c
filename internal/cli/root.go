// Package cli wires the command line to the extraction pipeline.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	"github.com/suyashkumar/dicom/pkg/tag"

	"dicom-metadata/internal/config"
	dcm "dicom-metadata/internal/dicom"
	"dicom-metadata/internal/diag"
)

// DefaultConfigFile is read when --config is not given.
const DefaultConfigFile = "config.json"

// errReported wraps errors that were already written to the diagnostics sink.
type errReported struct{ err error }

func (e errReported) Error() string { return e.err.Error() }
func (e errReported) Unwrap() error { return e.err }

type flags struct {
	configFile string
	format     string
	output     string
	fields     []string
	anonymize  bool
	key        string
	recursive  bool
	workers    int
	sniff      bool
	noProgress bool
	verbose    bool
	logFile    string
	errorLog   string
}

// NewRootCommand builds the dicommeta command tree.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	cmd, _ := newRootCommand(stdout, stderr)
	return cmd
}

func newRootCommand(stdout, stderr io.Writer) (*cobra.Command, *flags) {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "dicommeta [flags] <file-or-directory>",
		Short: "Extract metadata fields from DICOM files as CSV or JSON",
		Long: `Extract a configurable set of metadata fields from DICOM files and write
them as CSV or JSON. The input may be a single file (read regardless of its
extension) or a directory, which is scanned for .dcm/.dicom files.

Settings are read from a JSON config file (default: config.json):

  {
    "output_format": "csv",
    "fields": ["PatientID", "StudyDate", "Modality"],
    "anonymize": false,
    "output_file": ""
  }

Flags given on the command line take precedence over the config file.
Run "dicommeta fields" to list the supported field names.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, f, args[0], stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	fl := cmd.Flags()
	fl.StringVarP(&f.configFile, "config", "c", DefaultConfigFile, "JSON config file")
	fl.StringVarP(&f.format, "format", "f", "csv", "Output format: csv or json")
	fl.StringVarP(&f.output, "output", "o", "", "Output file (default: stdout)")
	fl.StringSliceVar(&f.fields, "fields", nil, "Comma-separated field names to extract")
	fl.BoolVarP(&f.anonymize, "anonymize", "a", false, "Replace PatientID with a one-way hash")
	fl.StringVarP(&f.key, "key", "k", "", "Secret key for keyed PatientID hashing")
	fl.BoolVarP(&f.recursive, "recursive", "r", true, "Search subdirectories")
	fl.IntVarP(&f.workers, "workers", "j", 1, "Files to extract in parallel")
	fl.BoolVar(&f.sniff, "sniff", false, "Also accept extension-less files with a DICM preamble")
	fl.BoolVar(&f.noProgress, "no-progress", false, "Disable the progress bar")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "Log per-field read errors")
	fl.StringVar(&f.logFile, "log-file", "", "Also write diagnostics to this file")
	fl.StringVar(&f.errorLog, "error-log", "", "Append per-file failures to this file")

	cmd.AddCommand(newFieldsCommand(stdout))
	return cmd, f
}

func runExtract(cmd *cobra.Command, f *flags, input string, stdout, stderr io.Writer) error {
	log := diag.New(diag.Options{Out: stderr, Verbose: f.verbose, LogFile: f.logFile})
	defer log.Close()

	settings := config.Load(f.configFile, log)
	if err := applyFlags(cmd, f, &settings); err != nil {
		log.Error(err)
		return errReported{err}
	}

	opts := Options{
		Input:      input,
		Settings:   settings,
		Sniff:      f.sniff,
		NoProgress: f.noProgress,
		ErrorLog:   f.errorLog,
	}

	if _, err := Run(opts, log, stdout, stderr); err != nil {
		log.Error(err)
		return errReported{err}
	}
	return nil
}

// applyFlags overrides settings with flags that were set explicitly.
func applyFlags(cmd *cobra.Command, f *flags, s *config.Settings) error {
	changed := cmd.Flags().Changed

	if changed("format") {
		if !config.ValidFormat(f.format) {
			return fmt.Errorf("invalid --format %q: must be csv or json", f.format)
		}
		s.OutputFormat = f.format
	}
	if changed("output") {
		s.OutputFile = f.output
	}
	if changed("fields") {
		s.Fields = f.fields
	}
	if changed("anonymize") {
		s.Anonymize = f.anonymize
	}
	if changed("key") {
		s.AnonymizeKey = f.key
	}
	if changed("recursive") {
		s.Recursive = f.recursive
	}
	if changed("workers") {
		if f.workers < 1 {
			return fmt.Errorf("invalid --workers %d: must be at least 1", f.workers)
		}
		s.Workers = f.workers
	}
	return nil
}

func newFieldsCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "List the supported field names and their DICOM tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(stdout, fieldsTable())
			return err
		},
	}
}

func fieldsTable() *uitable.Table {
	table := uitable.New()
	table.AddRow("FIELD", "TAG", "VR")
	for _, name := range dcm.SupportedFields() {
		t := dcm.ResolveTag(name)
		vr := "-"
		if info, err := tag.Find(t); err == nil {
			vr = info.VR
		}
		table.AddRow(name, t.String(), vr)
	}
	return table
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	cmd := NewRootCommand(os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		var reported errReported
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}
