package main

import (
	"context"
	"flag"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

func versionCommand(args []string) error {
	fs := flag.NewFlagSet("version", flag.ExitOnError)
	verbose := fs.Bool("verbose", false, "Also probe the surrounding tooling")

	fs.Usage = func() {
		fmt.Println(`Show version information

USAGE:
    aksops version [flags]

FLAGS:
    --verbose   Also probe the surrounding tooling (az, kubectl, helm, kind)

EXAMPLES:
    aksops version
    aksops version --verbose`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Printf("aksops %s (commit: %s, built: %s)\n", version, commit, date)

	if !*verbose {
		return nil
	}

	fmt.Println("\nEnvironment:")
	table := NewTableWriter([]string{"Tool", "Version", "Status"})

	tools := []struct {
		name     string
		command  []string
		required bool
	}{
		{"az", []string{"az", "version", "--query", "\"azure-cli\"", "--output", "tsv"}, true},
		{"kubectl", []string{"kubectl", "version", "--client", "--output", "json"}, true},
		{"Helm", []string{"helm", "version", "--short"}, false},
		{"Kind", []string{"kind", "version"}, false},
	}

	for _, tool := range tools {
		v, err := toolVersion(tool.command)
		status := "✓"
		if err != nil {
			if tool.required {
				status = "✗ REQUIRED"
			} else {
				status = "○ Optional"
			}
			v = "not found"
		}
		table.AddRow([]string{tool.name, v, status})
	}

	table.Print()
	return nil
}

func toolVersion(command []string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, command[0], command[1:]...).Output()
	if err != nil {
		return "", err
	}
	version := strings.TrimSpace(string(out))
	if i := strings.IndexByte(version, '\n'); i >= 0 {
		version = version[:i]
	}
	if len(version) > 40 {
		version = version[:40] + "..."
	}
	return version, nil
}
