// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// errInterrupted signals that Ctrl-C cut the current line short; the caller
// treats it as "start a fresh prompt", not "exit".
var errInterrupted = errors.New("interrupted")

// lineEditor reads one line at a time from stdin. When stdin is a real
// terminal it switches to raw mode for the read, giving Up/Down history
// recall and in-place backspace editing; a non-terminal stdin (a script
// piping commands in) falls back to plain line buffering with no escape
// processing, since there is no terminal to put in raw mode.
type lineEditor struct {
	out    io.Writer
	reader *bufio.Reader
	fd     int
	isTTY  bool
	hist   []string
}

func newLineEditor() *lineEditor {
	fd := int(os.Stdin.Fd())
	return &lineEditor{
		out:    os.Stdout,
		reader: bufio.NewReader(os.Stdin),
		fd:     fd,
		isTTY:  term.IsTerminal(fd),
	}
}

// readLine prints prompt and returns the next line of input, without its
// trailing newline. It returns errInterrupted on Ctrl-C and io.EOF when
// stdin is exhausted.
func (e *lineEditor) readLine(prompt string) (string, error) {
	if !e.isTTY {
		return e.readLinePlain(prompt)
	}
	oldState, err := term.MakeRaw(e.fd)
	if err != nil {
		return e.readLinePlain(prompt)
	}
	defer term.Restore(e.fd, oldState)
	return e.readLineRaw(prompt)
}

func (e *lineEditor) readLinePlain(prompt string) (string, error) {
	fmt.Fprint(e.out, prompt)
	line, err := e.reader.ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if err != nil && line == "" {
		return "", err
	}
	e.record(line)
	return line, nil
}

// readLineRaw implements just enough of a line editor to be useful
// interactively: printable runes echo and append, Backspace erases the
// last rune in place, Up/Down walk history, Ctrl-C aborts the current line,
// and Ctrl-D on an empty line signals EOF.
func (e *lineEditor) readLineRaw(prompt string) (string, error) {
	fmt.Fprint(e.out, prompt)
	var buf []rune
	histPos := len(e.hist)
	for {
		r, _, err := e.reader.ReadRune()
		if err != nil {
			return "", err
		}
		switch r {
		case '\r', '\n':
			fmt.Fprint(e.out, "\r\n")
			line := string(buf)
			e.record(line)
			return line, nil
		case 3: // Ctrl-C
			fmt.Fprint(e.out, "\r\n")
			return "", errInterrupted
		case 4: // Ctrl-D
			if len(buf) == 0 {
				fmt.Fprint(e.out, "\r\n")
				return "", io.EOF
			}
		case 127, 8: // Backspace / Delete
			if len(buf) > 0 {
				buf = buf[:len(buf)-1]
				fmt.Fprint(e.out, "\b \b")
			}
		case 27: // ESC: only arrow-key sequences ("ESC [ A"/"ESC [ B") are handled
			b1, _, err1 := e.reader.ReadRune()
			if err1 != nil || b1 != '[' {
				continue
			}
			b2, _, err2 := e.reader.ReadRune()
			if err2 != nil {
				continue
			}
			switch b2 {
			case 'A': // up
				if histPos > 0 {
					histPos--
					buf = e.replaceLine(buf, []rune(e.hist[histPos]))
				}
			case 'B': // down
				if histPos < len(e.hist) {
					histPos++
					var next []rune
					if histPos < len(e.hist) {
						next = []rune(e.hist[histPos])
					}
					buf = e.replaceLine(buf, next)
				}
			}
		default:
			if r >= 32 {
				buf = append(buf, r)
				fmt.Fprintf(e.out, "%c", r)
			}
		}
	}
}

// replaceLine erases old on the current terminal line and writes next in
// its place, returning next as the new buffer contents.
func (e *lineEditor) replaceLine(old, next []rune) []rune {
	for range old {
		fmt.Fprint(e.out, "\b \b")
	}
	fmt.Fprint(e.out, string(next))
	return append([]rune(nil), next...)
}

func (e *lineEditor) record(line string) {
	if strings.TrimSpace(line) != "" {
		e.hist = append(e.hist, line)
	}
}
