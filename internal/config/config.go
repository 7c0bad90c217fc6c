// Package config loads run settings from a JSON file. Problems with the
// file never abort a run: each bad key is reported and replaced by its
// default.
package config

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// ErrInvalidValue marks a config key with the wrong type or an
// unsupported value.
var ErrInvalidValue = errors.New("invalid config value")

// Config file keys.
const (
	KeyOutputFormat = "output_format"
	KeyFields       = "fields"
	KeyAnonymize    = "anonymize"
	KeyOutputFile   = "output_file"
	KeyAnonymizeKey = "anonymize_key"
	KeyRecursive    = "recursive"
	KeyWorkers      = "workers"
)

// OutputFormats lists the accepted values of output_format.
var OutputFormats = []string{"csv", "json"}

// Settings is an immutable snapshot of run configuration.
type Settings struct {
	OutputFormat string
	Fields       []string
	Anonymize    bool
	OutputFile   string // empty means stdout

	AnonymizeKey string
	Recursive    bool
	Workers      int
}

// Defaults returns the settings used when no config file is available.
func Defaults() Settings {
	return Settings{
		OutputFormat: "csv",
		Fields:       []string{},
		Anonymize:    false,
		OutputFile:   "",
		Recursive:    true,
		Workers:      1,
	}
}

// Load reads settings from a JSON file at path. A missing or malformed file
// yields Defaults with a warning; invalid keys fall back individually.
func Load(path string, log logrus.FieldLogger) Settings {
	s := Defaults()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		log.Warnf("Could not read config file '%s': %v. Using default values.", path, err)
		return s
	}

	for _, err := range apply(v, &s) {
		log.Warnf("%v. Using default.", err)
	}
	return s
}

// apply copies valid keys from v into s and returns one error per key that
// was present but unusable.
func apply(v *viper.Viper, s *Settings) []error {
	var errs []error
	invalid := func(key string, got interface{}) {
		errs = append(errs, fmt.Errorf("%w: %s=%v", ErrInvalidValue, key, got))
	}

	if raw := v.Get(KeyOutputFormat); raw != nil {
		if format, ok := raw.(string); ok && ValidFormat(format) {
			s.OutputFormat = format
		} else {
			invalid(KeyOutputFormat, raw)
		}
	}

	if raw := v.Get(KeyFields); raw != nil {
		if list, ok := raw.([]interface{}); ok {
			s.Fields = make([]string, 0, len(list))
			for _, item := range list {
				// non-string entries are skipped
				if name, ok := item.(string); ok {
					s.Fields = append(s.Fields, name)
				}
			}
		} else {
			invalid(KeyFields, raw)
		}
	}

	if raw := v.Get(KeyAnonymize); raw != nil {
		if b, ok := raw.(bool); ok {
			s.Anonymize = b
		} else {
			invalid(KeyAnonymize, raw)
		}
	}

	if raw := v.Get(KeyOutputFile); raw != nil {
		if path, ok := raw.(string); ok {
			s.OutputFile = path
		} else {
			invalid(KeyOutputFile, raw)
		}
	}

	if raw := v.Get(KeyAnonymizeKey); raw != nil {
		if key, ok := raw.(string); ok {
			s.AnonymizeKey = key
		} else {
			invalid(KeyAnonymizeKey, raw)
		}
	}

	if raw := v.Get(KeyRecursive); raw != nil {
		if b, ok := raw.(bool); ok {
			s.Recursive = b
		} else {
			invalid(KeyRecursive, raw)
		}
	}

	if raw := v.Get(KeyWorkers); raw != nil {
		// JSON numbers decode as float64
		if n, ok := raw.(float64); ok && n >= 1 && n == float64(int(n)) {
			s.Workers = int(n)
		} else {
			invalid(KeyWorkers, raw)
		}
	}

	return errs
}

// ValidFormat reports whether format is a supported output format.
func ValidFormat(format string) bool {
	for _, f := range OutputFormats {
		if f == format {
			return true
		}
	}
	return false
}
