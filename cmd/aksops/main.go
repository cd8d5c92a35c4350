package main

import (
	"fmt"
	"os"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	versionInfo := VersionInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}

	registry := NewCommandRegistry(versionInfo)
	registerCommands(registry)

	if err := registry.Execute(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func registerCommands(r *CommandRegistry) {
	r.Register(&Command{
		Name:        "deploy",
		Description: "Deploy or upgrade an application on the cluster",
		Usage:       "aksops deploy <app-name> [flags]",
		Examples: []string{
			"aksops deploy billing",
			"aksops deploy billing --image-tag v1.2.3",
			"aksops deploy billing --image-tag v1.2.3 --hostname billing.apps.example.com",
			"aksops deploy billing --chart-path ./deploy/chart --timeout 10m",
		},
		Run: deployCommand,
	})

	r.Register(&Command{
		Name:        "validate",
		Description: "Check manifests against the cluster deployment policy",
		Usage:       "aksops validate <path> [flags]",
		Examples: []string{
			"aksops validate ./k8s",
			"aksops validate deployment.yaml",
			"aksops validate ./k8s --strict",
		},
		Run: validateCommand,
	})

	r.Register(&Command{
		Name:        "status",
		Description: "Show release status and pods for an application",
		Usage:       "aksops status <app-name> [flags]",
		Examples: []string{
			"aksops status billing",
			"aksops status billing --namespace apps",
		},
		Run: statusCommand,
	})

	r.Register(&Command{
		Name:        "decommission",
		Description: "Remove an application and its Azure resources",
		Usage:       "aksops decommission <app-name> [flags]",
		Examples: []string{
			"aksops decommission billing --dry-run",
			"aksops decommission billing",
			"aksops decommission billing --record --reason \"service retired\"",
		},
		Run: decommissionCommand,
	})

	r.Register(&Command{
		Name:        "cluster",
		Description: "Manage a local Kind cluster for chart testing",
		Usage:       "aksops cluster <create|delete> [flags]",
		Examples: []string{
			"aksops cluster create --name aksops-dev --wait 60s",
			"aksops cluster delete --name aksops-dev",
		},
		Run: clusterCommand,
	})

	r.Register(&Command{
		Name:        "version",
		Description: "Show version information",
		Usage:       "aksops version [flags]",
		Examples: []string{
			"aksops version",
			"aksops version --verbose",
		},
		Run: versionCommand,
	})

	r.Register(&Command{
		Name:        "help",
		Description: "Show help information",
		Usage:       "aksops help",
		Examples: []string{
			"aksops help",
		},
		Run: func(args []string) error {
			r.PrintHelp(os.Stdout)
			return nil
		},
	})
}
