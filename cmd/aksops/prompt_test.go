package main

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func reader(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"yes\n", true},
		{"y\n", true},
		{"YES\n", true},
		{"no\n", false},
		{"n\n", false},
		{"\n", false},
		{"sure\n", false},
		{"", false}, // EOF aborts
	}

	for _, tt := range tests {
		var out strings.Builder
		got := confirm(reader(tt.input), &out, "Proceed?")
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Contains(t, out.String(), "Proceed?")
	}
}

func TestConfirmTyped(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"billing\n", true},
		{" billing \n", true},
		{"Billing\n", false},
		{"yes\n", false},
		{"", false},
	}

	for _, tt := range tests {
		var out strings.Builder
		got := confirmTyped(reader(tt.input), &out, "Delete billing?", "billing")
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestConfirm_SequentialPromptsShareReader(t *testing.T) {
	r := reader("yes\nno\n")
	var out strings.Builder

	assert.True(t, confirm(r, &out, "First?"))
	assert.False(t, confirm(r, &out, "Second?"))
}

func TestRegistry_UnknownCommand(t *testing.T) {
	r := NewCommandRegistry(VersionInfo{Version: "test"})
	registerCommands(r)

	err := r.Execute([]string{"frobnicate"})
	assert.ErrorContains(t, err, "unknown command: frobnicate")
}

func TestRegistry_NoArgs(t *testing.T) {
	r := NewCommandRegistry(VersionInfo{Version: "test"})
	registerCommands(r)

	err := r.Execute(nil)
	assert.ErrorContains(t, err, "no command specified")
}

func TestRegistry_CommandsRequireArguments(t *testing.T) {
	r := NewCommandRegistry(VersionInfo{Version: "test"})
	registerCommands(r)

	for _, name := range []string{"deploy", "status", "decommission"} {
		err := r.Execute([]string{name})
		assert.ErrorContains(t, err, "app name required", name)
	}

	err := r.Execute([]string{"validate"})
	assert.ErrorContains(t, err, "manifest path required")
}
