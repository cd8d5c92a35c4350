package main

import (
	"flag"
	"fmt"
	"os"

	"sigs.k8s.io/kind/pkg/cluster"
	"sigs.k8s.io/kind/pkg/cmd"
)

// clusterCommand manages a local Kind cluster for testing charts before
// they go anywhere near AKS.
func clusterCommand(args []string) error {
	if len(args) < 1 {
		printClusterUsage()
		return fmt.Errorf("no cluster action specified")
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "create":
		return clusterCreate(actionArgs)
	case "delete":
		return clusterDelete(actionArgs)
	case "help", "-h", "--help":
		printClusterUsage()
		return nil
	default:
		printClusterUsage()
		return fmt.Errorf("unknown cluster action: %s", action)
	}
}

func printClusterUsage() {
	fmt.Fprintf(os.Stderr, `Manage a local Kind cluster for chart testing

USAGE:
    aksops cluster <action> [flags]

ACTIONS:
    create      Create a new Kind cluster
    delete      Delete a Kind cluster

FLAGS:
    --name string   Cluster name (default "aksops-dev")

EXAMPLES:
    # Create a local cluster and wait for the control plane
    aksops cluster create --name aksops-dev --wait 60s

    # Try a chart against it
    aksops deploy billing --chart-path ./chart --yes

    # Clean up
    aksops cluster delete --name aksops-dev
`)
}

func clusterCreate(args []string) error {
	fs := flag.NewFlagSet("cluster create", flag.ExitOnError)
	clusterName := fs.String("name", "aksops-dev", "Cluster name")
	wait := fs.Duration("wait", 0, "Wait for control plane to be ready")

	fs.Usage = printClusterUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Printf("Creating Kind cluster: %s\n", *clusterName)

	provider := cluster.NewProvider(
		cluster.ProviderWithLogger(cmd.NewLogger()),
	)

	if err := provider.Create(
		*clusterName,
		cluster.CreateWithWaitForReady(*wait),
	); err != nil {
		return fmt.Errorf("failed to create cluster: %w", err)
	}

	fmt.Printf("✓ Cluster '%s' created successfully\n", *clusterName)
	fmt.Printf("\nTo use this cluster:\n")
	fmt.Printf("  kubectl cluster-info --context kind-%s\n", *clusterName)
	return nil
}

func clusterDelete(args []string) error {
	fs := flag.NewFlagSet("cluster delete", flag.ExitOnError)
	clusterName := fs.String("name", "aksops-dev", "Cluster name")
	kubeconfigPath := fs.String("kubeconfig", "", "Path to kubeconfig (defaults to standard location)")

	fs.Usage = printClusterUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Printf("Deleting Kind cluster: %s\n", *clusterName)

	provider := cluster.NewProvider(
		cluster.ProviderWithLogger(cmd.NewLogger()),
	)

	if err := provider.Delete(*clusterName, *kubeconfigPath); err != nil {
		return fmt.Errorf("failed to delete cluster: %w", err)
	}

	fmt.Printf("✓ Cluster '%s' deleted successfully\n", *clusterName)
	return nil
}
