package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// confirm asks a yes/no question and returns true only for an explicit
// "yes" or "y" answer. Anything else (including EOF) aborts. The same
// reader must be reused across prompts so buffered input is not lost.
func confirm(r *bufio.Reader, w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s [yes/no]: ", question)
	answer, err := r.ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes", "y":
		return true
	default:
		return false
	}
}

// confirmTyped requires the user to type an exact phrase (typically the
// app name) before a destructive phase proceeds.
func confirmTyped(r *bufio.Reader, w io.Writer, question, expected string) bool {
	fmt.Fprintf(w, "%s\nType '%s' to continue: ", question, expected)
	answer, err := r.ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	return strings.TrimSpace(answer) == expected
}
