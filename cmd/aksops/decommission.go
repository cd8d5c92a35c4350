package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/user"
	"time"

	"github.com/plexops/aksops/internal/azure"
	"github.com/plexops/aksops/internal/config"
	"github.com/plexops/aksops/internal/helmops"
	"github.com/plexops/aksops/internal/kube"
	"github.com/plexops/aksops/internal/record"
)

func decommissionCommand(args []string) error {
	fs := flag.NewFlagSet("decommission", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to aksops.yaml (default: $AKSOPS_CONFIG or ./aksops.yaml)")
	namespace := fs.String("namespace", "", "Kubernetes namespace (default from config)")
	dryRun := fs.Bool("dry-run", false, "Print every command instead of executing it")
	yes := fs.Bool("yes", false, "Skip confirmation prompts (CI use)")
	skipAzure := fs.Bool("skip-azure", false, "Only remove cluster resources, leave Azure resources alone")
	writeRecord := fs.Bool("record", false, "Write a Markdown decommission record")
	reason := fs.String("reason", "", "Reason recorded in the decommission record")
	formerURL := fs.String("former-url", "", "Former public URL recorded in the decommission record")

	fs.Usage = func() {
		fmt.Println(`Remove an application and its Azure resources

Runs four phases, each gated by a confirmation prompt:
  1. Helm release and labeled Kubernetes resources
  2. Key Vault (soft delete)
  3. DNS record
  4. ACR image repository

Phases are not transactional: a failure in one phase does not roll back
earlier phases. Re-running after a partial failure is safe.

USAGE:
    aksops decommission <app-name> [flags]

FLAGS:
    --config string      Path to aksops.yaml
    --namespace string   Kubernetes namespace (default from config)
    --dry-run            Print every command instead of executing it
    --yes                Skip confirmation prompts (CI use)
    --skip-azure         Only remove cluster resources
    --record             Write a Markdown decommission record
    --reason string      Reason recorded in the decommission record
    --former-url string  Former public URL recorded in the record

EXAMPLES:
    # Preview everything first
    aksops decommission billing --dry-run

    # Full removal with an audit record
    aksops decommission billing --record --reason "service retired"`)
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
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ns := *namespace
	if ns == "" {
		ns = cfg.Defaults.Namespace
	}

	d := &decommission{
		app:      app,
		ns:       ns,
		cfg:      cfg,
		dryRun:   *dryRun,
		yes:      *yes,
		stdin:    bufio.NewReader(os.Stdin),
		azureCLI: azure.NewCLI(azure.ExecRunner{}),
	}
	if *dryRun {
		d.azureCLI = azure.NewCLI(&azure.DryRunner{Out: os.Stdout})
	}

	if *dryRun {
		fmt.Printf("Dry-run decommission of %s - nothing will be deleted\n\n", app)
	} else {
		fmt.Printf("Decommissioning %s from cluster %s\n", app, cfg.Cluster.Name)
		fmt.Println("This removes the application from the cluster AND deletes Azure resources.")
		if !d.gate(fmt.Sprintf("This permanently removes %s.", app), app) {
			fmt.Println("Aborted, nothing was changed.")
			return nil
		}
		if err := guardContext(cfg, *yes); err != nil {
			return err
		}
	}

	d.runPhases(*skipAzure)

	// A dry-run record is still written, marked dry_run: true in its
	// frontmatter.
	if *writeRecord {
		if err := d.writeRecord(*reason, *formerURL); err != nil {
			return err
		}
	}

	if d.failed > 0 {
		return fmt.Errorf("decommission finished with %d failed phase(s) - re-run after fixing, nothing was rolled back", d.failed)
	}
	if *dryRun {
		fmt.Printf("\n✓ Dry-run complete, no changes made\n")
	} else {
		fmt.Printf("\n✓ %s decommissioned\n", app)
	}
	return nil
}

// decommission tracks state across the four phases.
type decommission struct {
	app      string
	ns       string
	cfg      config.Config
	dryRun   bool
	yes      bool
	failed   int
	stdin    *bufio.Reader
	azureCLI *azure.CLI
	phases   []record.Phase
}

// gate asks for the typed app name before the first destructive phase.
func (d *decommission) gate(question, expected string) bool {
	if d.yes {
		return true
	}
	return confirmTyped(d.stdin, os.Stdout, question, expected)
}

// ask gates an individual phase with a yes/no prompt.
func (d *decommission) ask(question string) bool {
	if d.yes || d.dryRun {
		return true
	}
	return confirm(d.stdin, os.Stdout, question)
}

func (d *decommission) runPhases(skipAzure bool) {
	ctx := context.Background()

	d.phase("Kubernetes resources", true, func() (string, error) {
		return d.deleteClusterResources(ctx)
	})

	if skipAzure {
		fmt.Println("\nSkipping Azure phases (--skip-azure)")
		return
	}

	if d.cfg.Cluster.ResourceGroup != "" {
		vault := d.cfg.KeyVaultName(d.app)
		d.phase(fmt.Sprintf("Key Vault %s", vault), d.ask(fmt.Sprintf("Delete Key Vault %s?", vault)), func() (string, error) {
			err := d.azureCLI.DeleteKeyVault(ctx, vault, d.cfg.Cluster.ResourceGroup)
			return "soft-deleted, recoverable until retention expires", err
		})
	}

	if d.cfg.DNS.ZoneName != "" {
		d.phase(fmt.Sprintf("DNS record %s.%s", d.app, d.cfg.DNS.ZoneName),
			d.ask(fmt.Sprintf("Delete DNS record %s.%s?", d.app, d.cfg.DNS.ZoneName)), func() (string, error) {
				return "", d.azureCLI.DeleteDNSRecord(ctx, d.cfg.DNS.ZoneName, d.cfg.DNS.ZoneResourceGroup, d.app)
			})
	}

	if d.cfg.Registry.Name != "" {
		d.phase(fmt.Sprintf("ACR repository %s", d.app),
			d.ask(fmt.Sprintf("Delete image repository %s (all tags)?", d.app)), func() (string, error) {
				return "", d.azureCLI.DeleteACRRepository(ctx, d.cfg.Registry.Name, d.app)
			})
	}
}

// phase runs one decommission step, classifying the outcome. Not-found
// results are informational; real errors count as failures but do not
// stop later phases.
func (d *decommission) phase(name string, confirmed bool, fn func() (string, error)) {
	fmt.Printf("\n→ %s\n", name)

	if !confirmed {
		fmt.Println("  skipped")
		d.phases = append(d.phases, record.Phase{Name: name, Detail: "skipped"})
		return
	}

	detail, err := fn()
	switch {
	case errors.Is(err, azure.ErrNotFound):
		fmt.Println("  not found, nothing to delete")
		d.phases = append(d.phases, record.Phase{Name: name, Completed: true, Detail: "not found"})
	case err != nil:
		fmt.Printf("  ✗ failed: %v\n", err)
		d.failed++
		d.phases = append(d.phases, record.Phase{Name: name, Detail: err.Error()})
	default:
		fmt.Printf("  ✓ done")
		if detail != "" {
			fmt.Printf(" (%s)", detail)
		}
		fmt.Println()
		d.phases = append(d.phases, record.Phase{Name: name, Completed: true, Detail: detail})
	}
}

// deleteClusterResources uninstalls the Helm release and sweeps any
// labeled leftovers.
func (d *decommission) deleteClusterResources(ctx context.Context) (string, error) {
	if d.dryRun {
		fmt.Printf("  [dry-run] helm uninstall %s --namespace %s\n", d.app, d.ns)
		fmt.Printf("  [dry-run] kubectl delete deploy,svc,cm,secret,pvc,virtualservice,secretproviderclass -n %s -l %s=%s\n",
			d.ns, kube.InstanceLabel, d.app)
		return "dry-run", nil
	}

	helm, err := helmops.New(d.ns)
	if err != nil {
		return "", err
	}
	found, err := helm.Uninstall(d.app)
	if err != nil {
		return "", err
	}
	if found {
		fmt.Printf("  ✓ Helm release %s uninstalled\n", d.app)
	} else {
		fmt.Printf("  no Helm release named %s\n", d.app)
	}

	clientset, err := kube.NewClientset()
	if err != nil {
		return "", err
	}
	dyn, err := kube.NewDynamic()
	if err != nil {
		return "", err
	}
	if err := kube.DeleteAppResources(ctx, clientset, dyn, d.ns, d.app, os.Stdout); err != nil {
		return "", err
	}
	return "", nil
}

func (d *decommission) writeRecord(reason, formerURL string) error {
	operator := "unknown"
	if u, err := user.Current(); err == nil {
		operator = u.Username
	}

	rec := record.Record{
		App:       d.app,
		Operator:  operator,
		Reason:    reason,
		FormerURL: formerURL,
		Date:      time.Now(),
		DryRun:    d.dryRun,
		Phases:    d.phases,
	}

	path := record.Filename(d.app, rec.Date)
	if err := record.WriteFile(path, rec); err != nil {
		return err
	}
	fmt.Printf("\n✓ Decommission record written to %s\n", path)
	return nil
}
