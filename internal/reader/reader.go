// Package reader abstracts over the source of Sif program text: a string, a
// file on disk, or an interactive REPL line editor.
package reader

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
)

// Reader supplies source bytes to the scanner. Line() lets the scanner and
// reporter recover a single source line for caret-style error messages.
type Reader interface {
	// Name identifies the source, used in error messages (a file path, or
	// "<stdin>"/"<repl>").
	Name() string
	// Bytes returns the full buffer read so far. For a REPLReader this grows
	// across calls as More() is invoked.
	Bytes() []byte
	// Line returns the full text of the given 1-based line number, if known.
	Line(n int) (string, bool)
}

// StringReader reads from an in-memory buffer (used for -e and for modules
// loaded from already-read source).
type StringReader struct {
	name  string
	data  []byte
	lines []string
}

func NewStringReader(name, source string) *StringReader {
	return &StringReader{name: name, data: []byte(source), lines: splitLines(source)}
}

func (r *StringReader) Name() string { return r.name }

func (r *StringReader) Bytes() []byte { return r.data }

func (r *StringReader) Line(n int) (string, bool) {
	if n < 1 || n > len(r.lines) {
		return "", false
	}
	return r.lines[n-1], true
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}

// FileReader reads an entire file into memory up front, as the original
// Sif implementation does (there is no streaming requirement; the whole
// program must be available for checkpoint/rewind anyway).
type FileReader struct {
	*StringReader
}

func NewFileReader(path string) (*FileReader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sif: cannot read %s: %w", path, err)
	}
	return &FileReader{StringReader: NewStringReader(path, string(data))}, nil
}

// REPLReader is an incremental Reader backed by chzyer/readline: each call
// to More() blocks on a new line of interactive input and appends it to the
// buffer, letting the scanner keep scanning across prompt boundaries. It
// blocks the whole VM while waiting for a line, matching the
// single-threaded, cooperative execution model (see spec §5).
type REPLReader struct {
	*StringReader
	rl       *readline.Instance
	prompt   string
	contProm string
}

// NewREPLReader constructs an interactive reader. prompt and contPrompt are
// shown for the first and continuation lines of one logical read,
// respectively (continuation happens when the parser is mid-bracket or
// mid-interpolation and asks for More()).
func NewREPLReader(prompt, contPrompt string) (*REPLReader, error) {
	rl, err := readline.New(prompt)
	if err != nil {
		return nil, err
	}
	return &REPLReader{
		StringReader: NewStringReader("<repl>", ""),
		rl:           rl,
		prompt:       prompt,
		contProm:     contPrompt,
	}, nil
}

func (r *REPLReader) Close() error { return r.rl.Close() }

// More blocks until a new line of input is available, appends it (plus a
// trailing newline) to the buffer, and returns it. io.EOF on Ctrl-D.
func (r *REPLReader) More() (string, error) {
	line, err := r.rl.Readline()
	if err != nil {
		return "", io.EOF
	}
	r.data = append(r.data, []byte(line)...)
	r.data = append(r.data, '\n')
	r.lines = append(r.lines, line)
	r.rl.SetPrompt(r.contProm)
	return line, nil
}

// ResetPrompt restores the primary prompt, called once a full statement has
// been consumed.
func (r *REPLReader) ResetPrompt() { r.rl.SetPrompt(r.prompt) }

// StdinReader wraps an arbitrary io.Reader (used for piping scripts via
// `sif -` or tests) as a Reader, buffering it fully like FileReader.
func StdinReader(name string, in io.Reader) (*StringReader, error) {
	data, err := io.ReadAll(bufio.NewReader(in))
	if err != nil {
		return nil, err
	}
	return NewStringReader(name, string(data)), nil
}
