package logging

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const timeFormat = time.TimeOnly

// New creates a stderr logger with timestamps. Verbose enables debug output.
func New(prefix string, verbose bool) *log.Logger {
	return NewWithWriter(os.Stderr, prefix, verbose)
}

func NewWithWriter(w io.Writer, prefix string, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}

	logger := log.NewWithOptions(w, log.Options{
		Prefix:          prefix,
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      timeFormat,
		ReportCaller:    verbose,
	})
	logger.SetStyles(styles())
	return logger
}

func styles() *log.Styles {
	s := log.DefaultStyles()
	s.Prefix = lipgloss.NewStyle().Bold(true).Faint(true)
	s.Key = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	return s
}

// Child derives a logger whose prefix is "parent::prefix".
func Child(parent *log.Logger, prefix string) *log.Logger {
	if parent == nil {
		return Discard()
	}
	if p := parent.GetPrefix(); p != "" {
		prefix = p + "::" + prefix
	}
	return parent.WithPrefix(prefix)
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
