package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `{
		"output_format": "json",
		"fields": ["PatientID", "Modality"],
		"anonymize": true,
		"output_file": "out/result.json",
		"anonymize_key": "s3cret",
		"recursive": false,
		"workers": 4
	}`)

	log, hook := test.NewNullLogger()
	s := Load(path, log)

	assert.Equal(t, Settings{
		OutputFormat: "json",
		Fields:       []string{"PatientID", "Modality"},
		Anonymize:    true,
		OutputFile:   "out/result.json",
		AnonymizeKey: "s3cret",
		Recursive:    false,
		Workers:      4,
	}, s)
	assert.Empty(t, hook.AllEntries())
}

func TestLoadMissingFile(t *testing.T) {
	log, hook := test.NewNullLogger()
	s := Load(filepath.Join(t.TempDir(), "missing.json"), log)

	assert.Equal(t, Defaults(), s)
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestLoadMalformedJSON(t *testing.T) {
	log, hook := test.NewNullLogger()
	s := Load(writeConfig(t, `{"output_format": "json",`), log)

	assert.Equal(t, Defaults(), s)
	require.Len(t, hook.AllEntries(), 1)
	assert.Contains(t, hook.LastEntry().Message, "Using default values")
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	path := writeConfig(t, `{
		"output_format": "xml",
		"fields": "PatientID",
		"anonymize": "yes",
		"output_file": 42,
		"workers": 0
	}`)

	log, hook := test.NewNullLogger()
	s := Load(path, log)

	assert.Equal(t, Defaults(), s)
	assert.Len(t, hook.AllEntries(), 5)
	for _, e := range hook.AllEntries() {
		assert.Equal(t, logrus.WarnLevel, e.Level)
	}
}

func TestLoadPartial(t *testing.T) {
	path := writeConfig(t, `{"output_format": "json", "fields": ["PatientID", 7, "StudyDate"], "anonymize": 1}`)

	log, hook := test.NewNullLogger()
	s := Load(path, log)

	assert.Equal(t, "json", s.OutputFormat)
	assert.Equal(t, []string{"PatientID", "StudyDate"}, s.Fields)
	assert.False(t, s.Anonymize)
	assert.Len(t, hook.AllEntries(), 1)
}

func TestApplyReportsInvalidValue(t *testing.T) {
	log, hook := test.NewNullLogger()
	Load(writeConfig(t, `{"output_format": "yaml"}`), log)

	require.Len(t, hook.AllEntries(), 1)
	assert.Contains(t, hook.LastEntry().Message, "output_format=yaml")
}

func TestValidFormat(t *testing.T) {
	assert.True(t, ValidFormat("csv"))
	assert.True(t, ValidFormat("json"))
	assert.False(t, ValidFormat("CSV"))
	assert.False(t, ValidFormat(""))
}
