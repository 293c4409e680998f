// Package parser implements a minimal reader for ASCII DXF files. It yields
// raw entities as flat group-code/value tag lists; all interpretation of the
// tags happens in the normalization layer above it.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Tag is one group-code/value pair from a DXF stream
type Tag struct {
	Code  int
	Value string
	Line  int // line number of the group code, 1-based
}

// TagReader tokenizes a DXF stream into tags. DXF is line-oriented: every
// tag is a group code on one line followed by its value on the next.
type TagReader struct {
	scanner *bufio.Scanner
	line    int
}

// NewTagReader creates a tag reader over the given stream
func NewTagReader(r io.Reader) *TagReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &TagReader{scanner: sc}
}

// Next returns the next tag, or io.EOF when the stream is exhausted. A group
// code line without a following value line is a malformed file.
func (tr *TagReader) Next() (Tag, error) {
	codeLine, ok := tr.readLine()
	if !ok {
		if err := tr.scanner.Err(); err != nil {
			return Tag{}, err
		}
		return Tag{}, io.EOF
	}
	codeAt := tr.line

	code, err := strconv.Atoi(strings.TrimSpace(codeLine))
	if err != nil {
		return Tag{}, fmt.Errorf("line %d: invalid group code %q", codeAt, strings.TrimSpace(codeLine))
	}

	valueLine, ok := tr.readLine()
	if !ok {
		if err := tr.scanner.Err(); err != nil {
			return Tag{}, err
		}
		return Tag{}, fmt.Errorf("line %d: group code %d has no value line", codeAt, code)
	}

	// Group code lines are padded; value lines keep interior whitespace but
	// never a trailing CR.
	return Tag{Code: code, Value: strings.TrimSuffix(valueLine, "\r"), Line: codeAt}, nil
}

func (tr *TagReader) readLine() (string, bool) {
	if !tr.scanner.Scan() {
		return "", false
	}
	tr.line++
	return tr.scanner.Text(), true
}
