package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suyashkumar/dicom/pkg/tag"

	"dicom-metadata/internal/config"
	dcm "dicom-metadata/internal/dicom"
	"dicom-metadata/internal/identity"
	"dicom-metadata/internal/pipeline"
)

type mapSource map[tag.Tag]string

func (m mapSource) Lookup(t tag.Tag) (string, error) {
	if v, ok := m[t]; ok {
		return v, nil
	}
	return "", dcm.ErrTagNotFound
}

var testSources = map[string]mapSource{
	"scan1.dcm": {tag.PatientID: "12345", tag.Modality: "CT", tag.InstitutionName: "New York, NY"},
}

func fakeOpen(path string) (dcm.Source, error) {
	if src, ok := testSources[filepath.Base(path)]; ok {
		return src, nil
	}
	return nil, fmt.Errorf("could not parse DICOM: %s", path)
}

// inputDir creates empty files with the given names.
func inputDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	return dir
}

func settings(format string, fields ...string) config.Settings {
	s := config.Defaults()
	s.OutputFormat = format
	s.Fields = fields
	return s
}

func run(t *testing.T, opts Options) (string, *Summary, error) {
	t.Helper()
	log, _ := test.NewNullLogger()
	opts.Open = fakeOpen
	var stdout, stderr bytes.Buffer
	summary, err := Run(opts, log, &stdout, &stderr)
	return stdout.String(), summary, err
}

func TestRunCSV(t *testing.T) {
	out, summary, err := run(t, Options{
		Input:    inputDir(t, "scan1.dcm"),
		Settings: settings("csv", "PatientID", "Modality"),
	})
	require.NoError(t, err)

	assert.Equal(t, "FileName,PatientID,Modality\nscan1.dcm,12345,CT\n", out)
	assert.Equal(t, pipeline.Stats{Total: 1, Success: 1}, summary.Stats)
}

func TestRunCSVAnonymized(t *testing.T) {
	s := settings("csv", "PatientID", "Modality")
	s.Anonymize = true

	out, _, err := run(t, Options{Input: inputDir(t, "scan1.dcm"), Settings: s})
	require.NoError(t, err)

	want := fmt.Sprintf("FileName,PatientID,Modality\nscan1.dcm,%s,CT\n", identity.Anonymize("12345"))
	assert.Equal(t, want, out)
}

func TestRunCSVQuotesInstitution(t *testing.T) {
	out, _, err := run(t, Options{
		Input:    inputDir(t, "scan1.dcm"),
		Settings: settings("csv", "InstitutionName"),
	})
	require.NoError(t, err)
	assert.Equal(t, "FileName,InstitutionName\nscan1.dcm,\"New York, NY\"\n", out)
}

func TestRunJSON(t *testing.T) {
	out, _, err := run(t, Options{
		Input:    inputDir(t, "scan1.dcm"),
		Settings: settings("json", "PatientID"),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"FileName":"scan1.dcm","PatientID":"12345"}]`, out)
}

func TestRunSkipsBrokenFiles(t *testing.T) {
	dir := inputDir(t, "scan1.dcm", "broken.dcm", "readme.txt")
	errLog := filepath.Join(t.TempDir(), "errors.log")

	out, summary, err := run(t, Options{
		Input:    dir,
		Settings: settings("csv", "Modality"),
		ErrorLog: errLog,
	})
	require.NoError(t, err)

	assert.Equal(t, "FileName,Modality\nscan1.dcm,CT\n", out)
	assert.Equal(t, pipeline.Stats{Total: 2, Success: 1, Failed: 1}, summary.Stats)

	data, err := os.ReadFile(errLog)
	require.NoError(t, err)
	assert.Contains(t, string(data), "broken.dcm")
}

func TestRunWritesOutputFile(t *testing.T) {
	s := settings("csv", "PatientID")
	s.OutputFile = filepath.Join(t.TempDir(), "result.csv")

	out, summary, err := run(t, Options{Input: inputDir(t, "scan1.dcm"), Settings: s})
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(s.OutputFile)
	require.NoError(t, err)
	assert.Equal(t, "FileName,PatientID\nscan1.dcm,12345\n", string(data))
	assert.Equal(t, len(data), summary.OutputBytes)
}

func TestRunNoRecordsLeavesOutputUntouched(t *testing.T) {
	s := settings("csv", "PatientID")
	s.OutputFile = filepath.Join(t.TempDir(), "result.csv")
	require.NoError(t, os.WriteFile(s.OutputFile, []byte("previous\n"), 0644))

	out, _, err := run(t, Options{Input: inputDir(t, "broken.dcm"), Settings: s})
	assert.ErrorIs(t, err, pipeline.ErrNoRecords)
	assert.Empty(t, out)

	data, err := os.ReadFile(s.OutputFile)
	require.NoError(t, err)
	assert.Equal(t, "previous\n", string(data))
}

func TestRunNoRecordsCreatesNoFile(t *testing.T) {
	s := settings("json", "PatientID")
	s.OutputFile = filepath.Join(t.TempDir(), "result.json")

	_, _, err := run(t, Options{Input: inputDir(t, "broken.dcm"), Settings: s})
	assert.Error(t, err)
	assert.NoFileExists(t, s.OutputFile)
}

func TestRunEmptyDirectory(t *testing.T) {
	_, _, err := run(t, Options{Input: inputDir(t, "notes.txt"), Settings: settings("csv")})
	assert.ErrorContains(t, err, "no DICOM files found")
}

func TestRunMissingInput(t *testing.T) {
	_, _, err := run(t, Options{Input: filepath.Join(t.TempDir(), "missing"), Settings: settings("csv")})
	assert.ErrorIs(t, err, dcm.ErrInputNotFound)

	_, _, err = run(t, Options{Settings: settings("csv")})
	assert.Error(t, err)
}

func TestRunSingleFileAnyExtension(t *testing.T) {
	testSources["scan1.img"] = testSources["scan1.dcm"]
	defer delete(testSources, "scan1.img")

	dir := inputDir(t, "scan1.img")
	out, _, err := run(t, Options{
		Input:    filepath.Join(dir, "scan1.img"),
		Settings: settings("csv", "Modality"),
	})
	require.NoError(t, err)
	assert.Equal(t, "FileName,Modality\nscan1.img,CT\n", out)
}
