// Package diag provides the diagnostics sink: human-readable status,
// warning and error messages on stderr, optionally mirrored to a rotating
// log file.
package diag

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the diagnostics sink.
type Options struct {
	Out     io.Writer // defaults to os.Stderr
	Verbose bool
	LogFile string
}

// Logger is a logrus logger with an optional file hook that must be closed.
type Logger struct {
	*logrus.Logger
	file *lumberjack.Logger
}

// New creates the diagnostics sink. Colors are used only when Out is a
// terminal; the check is made once here.
func New(opts Options) *Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&ConsoleFormatter{Colors: IsTerminal(out)})
	logger.SetLevel(logrus.InfoLevel)
	if opts.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	l := &Logger{Logger: logger}
	if opts.LogFile != "" {
		l.file = &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    50, // MB
			MaxBackups: 5,
		}
		logger.SetReportCaller(true)
		logger.AddHook(&fileHook{out: l.file, formatter: &FileFormatter{}})
	}

	return l
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// ConsoleFormatter prints bare messages. With colors, info is green,
// warnings yellow and errors red; without, warnings and errors carry a
// prefix instead.
type ConsoleFormatter struct {
	Colors bool
}

var levelColors = map[logrus.Level]color.Attribute{
	logrus.InfoLevel:  color.FgGreen,
	logrus.WarnLevel:  color.FgYellow,
	logrus.ErrorLevel: color.FgRed,
	logrus.FatalLevel: color.FgRed,
	logrus.PanicLevel: color.FgRed,
}

var levelPrefixes = map[logrus.Level]string{
	logrus.DebugLevel: "Debug: ",
	logrus.TraceLevel: "Trace: ",
	logrus.WarnLevel:  "Warning: ",
	logrus.ErrorLevel: "Error: ",
	logrus.FatalLevel: "Error: ",
	logrus.PanicLevel: "Error: ",
}

func (f *ConsoleFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	msg := entry.Message + formatFields(entry.Data)

	if f.Colors {
		if attr, ok := levelColors[entry.Level]; ok {
			c := color.New(attr)
			c.EnableColor()
			msg = c.Sprint(msg)
		}
	} else {
		msg = levelPrefixes[entry.Level] + msg
	}

	return []byte(msg + "\n"), nil
}

// FileFormatter writes lines like:
// 2024-03-23 12:16:42 WARN config.go:27 Invalid output_format
type FileFormatter struct{}

func (ff *FileFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	caller := "-"
	if entry.Caller != nil {
		caller = fmt.Sprintf("%s:%d", filepath.Base(entry.Caller.File), entry.Caller.Line)
	}
	msg := fmt.Sprintf("%s %s %s %s%s\n",
		entry.Time.Format("2006-01-02 15:04:05"),
		strings.ToUpper(entry.Level.String()),
		caller, entry.Message, formatFields(entry.Data))
	return []byte(msg), nil
}

func formatFields(data logrus.Fields) string {
	if len(data) == 0 {
		return ""
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, data[k])
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

type fileHook struct {
	out       io.Writer
	formatter logrus.Formatter
}

func (h *fileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *fileHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.out.Write(line)
	return err
}
