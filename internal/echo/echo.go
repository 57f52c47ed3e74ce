// Package echo routes every progress and diagnostic message through a
// single sink so the core never touches process-wide streams directly.
package echo

import (
	"fmt"
	"io"
	"os"
)

// Sink receives human-readable progress and diagnostic messages
type Sink interface {
	Printf(format string, args ...any)
}

// Tee writes messages to a console writer and mirrors them to a log file
type Tee struct {
	console io.Writer
	file    *os.File
}

// New creates a Tee writing to console. If logPath is non-empty the same
// messages are appended to that file as a durable run log.
func New(console io.Writer, logPath string) (*Tee, error) {
	t := &Tee{console: console}
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		t.file = f
	}
	return t, nil
}

// Printf formats a message and delivers it to all destinations
func (t *Tee) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprint(t.console, msg)
	if t.file != nil {
		fmt.Fprint(t.file, msg)
	}
}

// Close releases the log file, if one was opened
func (t *Tee) Close() error {
	if t.file == nil {
		return nil
	}
	return t.file.Close()
}

type discard struct{}

func (discard) Printf(string, ...any) {}

// Discard returns a sink that drops everything (useful in tests)
func Discard() Sink {
	return discard{}
}
