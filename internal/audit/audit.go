// Package audit provides the append-only trail of phonebook
// operations. The trail is a plain UTF-8 text artifact with one line
// per logged operation.
package audit

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
)

// Sink is an append-only log capability. The phonebook owns exactly
// one sink and appends one line per operation.
type Sink interface {
	Append(line string) error
	Lines() ([]string, error)
	Clear() error
}

// FileSink implements Sink on top of a text file. Every append opens,
// writes and closes the file, so each line is flushed before the
// operation that produced it returns.
type FileSink struct {
	path string
}

var _ Sink = (*FileSink)(nil)

// NewFileSink creates a sink for the given file path. The file is
// created on the first append.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (s *FileSink) Append(line string) error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("write audit log: %w", err)
	}
	return f.Close()
}

// Lines returns the whole trail verbatim, oldest first. A missing
// file is an empty trail, not an error.
func (s *FileSink) Lines() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// Clear truncates the trail to empty. Irreversible.
func (s *FileSink) Clear() error {
	if err := os.WriteFile(s.path, nil, 0o644); err != nil {
		return fmt.Errorf("clear audit log: %w", err)
	}
	return nil
}

// MemSink implements Sink in memory. It backs unit tests that should
// not touch the filesystem.
type MemSink struct {
	lines []string
}

var _ Sink = (*MemSink)(nil)

func (s *MemSink) Append(line string) error {
	s.lines = append(s.lines, line)
	return nil
}

func (s *MemSink) Lines() ([]string, error) {
	return append([]string(nil), s.lines...), nil
}

func (s *MemSink) Clear() error {
	s.lines = nil
	return nil
}
