package main

import (
	"flag"
	"fmt"

	"github.com/plexops/aksops/internal/config"
	"github.com/plexops/aksops/internal/manifest"
)

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to aksops.yaml (default: $AKSOPS_CONFIG or ./aksops.yaml)")
	strict := fs.Bool("strict", false, "Treat warnings as failures")
	quiet := fs.Bool("quiet", false, "Only print warnings, failures and the summary")

	fs.Usage = func() {
		fmt.Println(`Check manifests against the cluster deployment policy

Runs textual and structural heuristics over Kubernetes YAML: sidecar
injection, resource limits, probes, runAsNonRoot, the approved registry
and the shared ingress gateway. False positives are possible; the
checks are a safety net, not a schema validator.

USAGE:
    aksops validate <path> [flags]

FLAGS:
    --config string   Path to aksops.yaml
    --strict          Treat warnings as failures
    --quiet           Only print warnings, failures and the summary

EXAMPLES:
    # Validate a manifest directory
    aksops validate ./k8s

    # Validate a single file
    aksops validate deployment.yaml

    # Use in CI/CD pipelines
    if aksops validate ./k8s --strict; then
        aksops deploy billing --image-tag "$TAG"
    fi`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("manifest path required")
	}
	path := fs.Arg(0)

	pol := manifest.Policy{}
	if cfgPath := config.Locate(*configPath); cfgPath != "" {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		pol.RegistryLoginServer = cfg.Registry.LoginServer
		pol.Gateway = cfg.Mesh.Gateway
	} else {
		fmt.Println("⚠ No config file found; registry and gateway checks are disabled")
	}

	report, err := manifest.Scan(path, pol)
	if err != nil {
		return err
	}

	for _, file := range report.Files {
		printed := false
		for _, res := range file.Results {
			if *quiet && res.Severity == manifest.Pass {
				continue
			}
			if !printed {
				fmt.Printf("\n%s\n", file.Path)
				printed = true
			}
			fmt.Printf("  %s [%s] %s\n", res.Severity.Symbol(), res.Check, res.Detail)
		}
	}

	pass, warn, fail := report.Counts()
	fmt.Printf("\nChecked %d file(s): %d passed, %d warnings, %d failures\n",
		len(report.Files), pass, warn, fail)

	if report.HasFailures() {
		return fmt.Errorf("validation failed with %d failing check(s)", fail)
	}
	if *strict && report.HasWarnings() {
		return fmt.Errorf("validation failed: %d warning(s) with --strict", warn)
	}

	fmt.Println("✓ All checks passed")
	return nil
}
