package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// historyReader reads lines and keeps an in-session history. A plain
// terminal gives us no arrow keys, so previous inputs are recalled with
// `!!` (last prompt) or `!N` (the N-th prompt, 1-based).
type historyReader struct {
	in      *bufio.Scanner
	out     io.Writer
	history []string
}

func newHistoryReader(in io.Reader, out io.Writer) *historyReader {
	return &historyReader{in: bufio.NewScanner(in), out: out}
}

// ReadLine returns the next input line with history recall applied. The
// returned line, not the recall shorthand, is what lands in history.
func (r *historyReader) ReadLine() (string, error) {
	if !r.in.Scan() {
		if err := r.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	line := strings.TrimSpace(r.in.Text())

	if recalled, ok := r.recall(line); ok {
		fmt.Fprintf(r.out, "> %s\n", recalled)
		line = recalled
	}
	if line != "" {
		r.history = append(r.history, line)
	}
	return line, nil
}

func (r *historyReader) recall(line string) (string, bool) {
	if len(r.history) == 0 || !strings.HasPrefix(line, "!") {
		return "", false
	}
	if line == "!!" {
		return r.history[len(r.history)-1], true
	}
	n, err := strconv.Atoi(line[1:])
	if err != nil || n < 1 || n > len(r.history) {
		return "", false
	}
	return r.history[n-1], true
}

// promptOrDefault asks for a value and falls back to def on empty input.
func promptOrDefault(r *historyReader, out io.Writer, label, def string) (string, error) {
	fmt.Fprintf(out, "%s [%s]: ", label, def)
	if !r.in.Scan() {
		if err := r.in.Err(); err != nil {
			return "", err
		}
		return def, nil
	}
	v := strings.TrimSpace(r.in.Text())
	if v == "" {
		return def, nil
	}
	return v, nil
}

// exitCommand classifies an input line as a session-ending command.
type exitCommand int

const (
	exitNone exitCommand = iota
	exitKeep
	exitRemoveChat
)

func parseExitCommand(input string) exitCommand {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit":
		return exitKeep
	case "exit and remove chat":
		return exitRemoveChat
	default:
		return exitNone
	}
}
