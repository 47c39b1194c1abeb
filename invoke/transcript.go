package invoke

import (
	"bytes"
	"github.com/acarl005/stripansi"
	"io"
	"slices"
	"sync"
)

// transcript is a plain text copy of command output.
// Stdout and stderr of a process are copied concurrently, so writes of whole lines are serialized.
type transcript struct {
	mux sync.Mutex
	out io.Writer
}

func newTranscript(out io.Writer) *transcript {
	return &transcript{out: out}
}

func (t *transcript) write(text []byte) error {
	t.mux.Lock()
	defer t.mux.Unlock()
	_, err := io.WriteString(t.out, stripansi.Strip(string(text)))
	return err
}

// lines creates a writer for one output stream.
func (t *transcript) lines() *lineStripper {
	return &lineStripper{t: t}
}

// lineStripper holds output back until a line is complete, since an escape sequence may be split across writes.
type lineStripper struct {
	t       *transcript
	pending []byte
}

func (s *lineStripper) Write(p []byte) (int, error) {
	s.pending = append(s.pending, p...)
	end := bytes.LastIndexByte(s.pending, '\n')
	if end < 0 {
		return len(p), nil
	}
	complete := s.pending[:end+1]
	s.pending = slices.Clone(s.pending[end+1:])
	if err := s.t.write(complete); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Flush writes a trailing partial line, if any.
func (s *lineStripper) Flush() {
	if len(s.pending) == 0 {
		return
	}
	_ = s.t.write(s.pending)
	s.pending = nil
}
