package coverage

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	DefaultMode  = "atomic"
	headerPrefix = "mode:"
)

var (
	ErrNotBegun = errors.New("coverage report has not been started")
)

// Aggregator owns the merged coverage report for one run.
// It's not safe for concurrent use, since absorption order is significant.
type Aggregator struct {
	path  string
	mode  string
	begun bool
	lines int
}

// NewAggregator creates an [Aggregator] for the report at path.
// An empty mode uses [DefaultMode].
func NewAggregator(path, mode string) *Aggregator {
	if len(mode) == 0 {
		mode = DefaultMode
	}
	return &Aggregator{path: path, mode: mode}
}

// Path is the location of the merged report.
func (a *Aggregator) Path() string {
	return a.path
}

// Mode is the counting mode declared in the report header.
func (a *Aggregator) Mode() string {
	return a.mode
}

// Lines is the number of data lines absorbed since [Aggregator.BeginReport].
func (a *Aggregator) Lines() int {
	return a.lines
}

// BeginReport creates or truncates the report, and writes its single mode header.
// This must be called before any profile is absorbed.
func (a *Aggregator) BeginReport() error {
	if dir := filepath.Dir(a.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create coverage report directory: %w", err)
		}
	}
	header := headerPrefix + " " + a.mode + "\n"
	if err := os.WriteFile(a.path, []byte(header), 0644); err != nil {
		return fmt.Errorf("failed to begin coverage report: %w", err)
	}
	a.begun = true
	a.lines = 0
	return nil
}

// Absorb appends the data lines of the profile at profilePath to the report, and then deletes the profile.
// Header lines from the profile are never copied.
//
// A profile that doesn't exist means the package produced no coverage (e.g. it has no tests), so zero is returned with no error.
// The number of data lines appended is returned.
func (a *Aggregator) Absorb(profilePath string) (int, error) {
	if !a.begun {
		return 0, ErrNotBegun
	}
	data, err := readDataLines(profilePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	if data.lines > 0 {
		if err := a.appendLines(data.buf.Bytes()); err != nil {
			return 0, err
		}
		a.lines += data.lines
	}
	if err := os.Remove(profilePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return data.lines, fmt.Errorf("failed to remove absorbed profile: %w", err)
	}
	return data.lines, nil
}

func (a *Aggregator) appendLines(lines []byte) error {
	f, err := os.OpenFile(a.path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open coverage report: %w", err)
	}
	if _, err := f.Write(lines); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to append to coverage report: %w", err)
	}
	return f.Close()
}

type dataLines struct {
	buf   bytes.Buffer
	lines int
}

func readDataLines(profilePath string) (*dataLines, error) {
	f, err := os.Open(profilePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	data := new(dataLines)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if len(strings.TrimSpace(line)) == 0 || IsHeader(line) {
			continue
		}
		data.buf.WriteString(line)
		data.buf.WriteByte('\n')
		data.lines++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read coverage profile %s: %w", profilePath, err)
	}
	return data, nil
}

// IsHeader reports whether line is a profile mode header.
func IsHeader(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), headerPrefix)
}

// ProfilePath returns the per-package profile location for the process identified by pid.
// Naming the file after the process keeps concurrent runs on the same host from colliding.
func ProfilePath(dir, prefix string, pid int) string {
	if len(dir) == 0 {
		dir = os.TempDir()
	}
	return filepath.Join(dir, prefix+"-"+strconv.Itoa(pid)+".coverage")
}
