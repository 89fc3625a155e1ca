// Package configstore keeps the startup configuration of netcli: a file of
// "set" command lines replayed when the CLI starts and rewritten from the
// running configuration on request.
package configstore

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LineError reports a startup configuration line that failed to apply.
type LineError struct {
	Path string
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s:%d: %s: %v", e.Path, e.Line, e.Text, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Store reads and writes one startup configuration file.
type Store struct {
	mu       sync.Mutex
	filePath string
}

// New creates a store for filePath.
func New(filePath string) *Store {
	return &Store{filePath: filePath}
}

// Path returns the file the store reads and writes.
func (s *Store) Path() string { return s.filePath }

// Load replays every command line of the file through exec. Blank lines
// and lines starting with '#' are skipped. A missing file loads nothing.
// Lines that fail are logged and the first failure is returned once the
// whole file has been applied.
func (s *Store) Load(exec func(line string) error) (applied int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil // start with the running configuration
		}
		return 0, fmt.Errorf("read startup config: %w", err)
	}
	defer f.Close()
	return replay(s.filePath, f, exec)
}

func replay(path string, r io.Reader, exec func(string) error) (int, error) {
	var (
		applied  int
		firstErr error
		lineNo   int
	)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := exec(line); err != nil {
			le := &LineError{Path: path, Line: lineNo, Text: line, Err: err}
			slog.Warn("startup config line failed", "file", path, "line", lineNo, "err", err)
			if firstErr == nil {
				firstErr = le
			}
			continue
		}
		applied++
	}
	if err := sc.Err(); err != nil {
		return applied, fmt.Errorf("read startup config: %w", err)
	}
	return applied, firstErr
}

// Save rewrites the file with the output of generate. The new content is
// written to a temporary file in the same directory and renamed over the
// old one, so readers never see a partial file.
func (s *Store) Save(generate func(io.Writer) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	buf.WriteString("# netcli startup configuration\n")
	if err := generate(&buf); err != nil {
		return fmt.Errorf("save startup config: %w", err)
	}

	dir := filepath.Dir(s.filePath)
	tmp, err := os.CreateTemp(dir, ".netcli-config-*")
	if err != nil {
		return fmt.Errorf("save startup config: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("save startup config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("save startup config: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("save startup config: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.filePath); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("save startup config: %w", err)
	}
	slog.Debug("startup config saved", "file", s.filePath, "bytes", buf.Len())
	return nil
}
