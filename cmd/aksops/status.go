package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"time"

	"github.com/plexops/aksops/internal/helmops"
	"github.com/plexops/aksops/internal/kube"
)

func statusCommand(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to aksops.yaml (default: $AKSOPS_CONFIG or ./aksops.yaml)")
	namespace := fs.String("namespace", "", "Kubernetes namespace (default from config)")

	fs.Usage = func() {
		fmt.Println(`Show release status and pods for an application

USAGE:
    aksops status <app-name> [flags]

FLAGS:
    --config string      Path to aksops.yaml
    --namespace string   Kubernetes namespace (default from config)

EXAMPLES:
    aksops status billing
    aksops status billing --namespace apps`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("app name required")
	}
	app := fs.Arg(0)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	ns := *namespace
	if ns == "" {
		ns = cfg.Defaults.Namespace
	}

	helm, err := helmops.New(ns)
	if err != nil {
		return err
	}

	rel, err := helm.Status(app)
	if err != nil {
		return err
	}

	fmt.Printf("Release: %s\n", rel.Name)
	fmt.Printf("Namespace: %s\n", rel.Namespace)
	fmt.Printf("Status: %s\n", rel.Info.Status)
	fmt.Printf("Revision: %d\n", rel.Version)
	fmt.Printf("Last deployed: %s\n", rel.Info.LastDeployed.Format(time.RFC3339))

	clientset, err := kube.NewClientset()
	if err != nil {
		return err
	}
	rows, err := kube.PodRows(context.Background(), clientset, ns, app)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Printf("\nNo pods found for %s=%s\n", kube.InstanceLabel, app)
		return nil
	}

	fmt.Println()
	table := NewTableWriter([]string{"Pod", "Ready", "Status", "Restarts", "Age"})
	for _, row := range rows {
		table.AddRow([]string{row.Name, row.Ready, row.Status, strconv.Itoa(row.Restarts), row.Age})
	}
	table.Print()
	return nil
}
