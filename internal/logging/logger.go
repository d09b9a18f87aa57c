package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SystemName identifies this program in every log line.
const SystemName = "citas-notify"

// Formatter writes one line per entry:
// time, source, level, event id, message, then sorted fields.
type Formatter struct {
	SystemName string
}

// Format implements the logrus.Formatter interface.
func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	fmt.Fprintf(b, "%s ", entry.Time.Format("2006-01-02T15:04:05.000Z07:00"))
	fmt.Fprintf(b, "source=%s ", f.SystemName)
	fmt.Fprintf(b, "level=%s ", strings.ToUpper(entry.Level.String()))
	fmt.Fprintf(b, "event=%s ", uuid.New().String())
	fmt.Fprintf(b, "msg=%q", entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := entry.Data[k]
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		fmt.Fprintf(b, " %s=%v", k, v)
	}

	if entry.HasCaller() {
		fmt.Fprintf(b, " caller=%s:%d", filepath.Base(entry.Caller.File), entry.Caller.Line)
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// Options configures New.
type Options struct {
	// File is the log path. Empty writes to stderr.
	File  string
	Level string
}

// New builds a logger writing to a rotating file. The terminal UI owns
// stdout, so nothing is written there.
func New(opts Options) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetFormatter(&Formatter{SystemName: SystemName})

	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("parsing log level %q: %w", opts.Level, err)
		}
		level = parsed
	}
	logger.SetLevel(level)

	if opts.File == "" {
		logger.SetOutput(os.Stderr)
		return logger, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o700); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	logger.SetOutput(&lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	})

	return logger, nil
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
