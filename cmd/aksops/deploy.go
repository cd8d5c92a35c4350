package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/plexops/aksops/internal/config"
	"github.com/plexops/aksops/internal/helmops"
	"github.com/plexops/aksops/internal/kube"
)

func deployCommand(args []string) error {
	fs := flag.NewFlagSet("deploy", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to aksops.yaml (default: $AKSOPS_CONFIG or ./aksops.yaml)")
	imageTag := fs.String("image-tag", "", "Image tag to deploy (default \"latest\")")
	image := fs.String("image", "", "Full image reference, bypassing the registry convention")
	valuesFile := fs.String("values", "", "Extra values file merged into the release")
	hostname := fs.String("hostname", "", "Public hostname routed through the shared gateway")
	namespace := fs.String("namespace", "", "Kubernetes namespace (default from config)")
	chartPath := fs.String("chart-path", "", "Path to the Helm chart (default from config)")
	timeout := fs.Duration("timeout", 0, "Rollout wait timeout (default from config)")
	wait := fs.Bool("wait", true, "Wait for the rollout to complete")
	dryRun := fs.Bool("dry-run", false, "Render the release without applying it")
	yes := fs.Bool("yes", false, "Skip the context confirmation prompt")

	fs.Usage = func() {
		fmt.Println(`Deploy or upgrade an application on the cluster

USAGE:
    aksops deploy <app-name> [flags]

FLAGS:
    --config string       Path to aksops.yaml
    --image-tag string    Image tag to deploy (default "latest")
    --image string        Full image reference, bypassing the registry convention
    --values string       Extra values file merged into the release
    --hostname string     Public hostname routed through the shared gateway
    --namespace string    Kubernetes namespace (default from config)
    --chart-path string   Path to the Helm chart (default from config)
    --timeout duration    Rollout wait timeout (default from config)
    --wait                Wait for the rollout to complete (default true)
    --dry-run             Render the release without applying it
    --yes                 Skip the context confirmation prompt

EXAMPLES:
    # Deploy the latest image
    aksops deploy billing

    # Deploy a specific tag with a public hostname
    aksops deploy billing --image-tag v1.2.3 --hostname billing.apps.example.com

    # Merge an extra values file
    aksops deploy billing --image-tag v1.2.3 --values overrides.yaml

    # Preview the rendered release
    aksops deploy billing --image-tag v1.2.3 --dry-run`)
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
	chart := *chartPath
	if chart == "" {
		chart = cfg.Defaults.ChartPath
	}
	waitTimeout := *timeout
	if waitTimeout == 0 {
		waitTimeout = cfg.Defaults.HelmTimeout()
	}

	// Context guard: warn when kubectl points somewhere unexpected.
	// Best effort, not enforcement.
	if !*dryRun {
		if err := guardContext(cfg, *yes); err != nil {
			return err
		}
	}

	if *image != "" {
		fmt.Printf("Deploying %s (namespace: %s, image: %s)\n", app, ns, *image)
	} else {
		fmt.Printf("Deploying %s (namespace: %s, tag: %s)\n", app, ns, orDefault(*imageTag, "latest"))
	}

	values := helmops.BuildValues(cfg, app, *imageTag, *hostname)
	if *image != "" {
		values["image"] = helmops.ImageValues(*image)
	}

	helm, err := helmops.New(ns)
	if err != nil {
		return err
	}

	rel, err := helm.Deploy(app, helmops.DeployOptions{
		ChartPath:  chart,
		Values:     values,
		ValuesFile: *valuesFile,
		Wait:       false, // Rollout progress is tracked below instead
		Timeout:    waitTimeout,
		DryRun:     *dryRun,
	})
	if err != nil {
		return err
	}

	if *dryRun {
		fmt.Printf("✓ Release %s rendered (dry-run, nothing applied)\n", rel.Name)
		return nil
	}

	fmt.Printf("✓ Release %s applied (revision %d, status: %s)\n",
		rel.Name, rel.Version, rel.Info.Status)

	if *wait {
		fmt.Printf("Waiting for rollout (timeout: %s)...\n", waitTimeout)
		clientset, err := kube.NewClientset()
		if err != nil {
			return err
		}
		if err := kube.WaitForRollout(context.Background(), clientset, ns, app, waitTimeout); err != nil {
			return err
		}
		fmt.Printf("✓ Rollout of %s complete\n", app)
	}

	fmt.Printf("\nTo check the deployment:\n")
	fmt.Printf("  aksops status %s --namespace %s\n", app, ns)
	if *hostname != "" {
		fmt.Printf("  curl https://%s/healthz\n", *hostname)
	}
	return nil
}

// guardContext compares the current kubectl context with the configured
// one and asks before proceeding on a mismatch.
func guardContext(cfg config.Config, skipPrompt bool) error {
	if cfg.Cluster.Context == "" {
		return nil
	}
	current, err := kube.CurrentContext()
	if err != nil {
		return err
	}
	if current == cfg.Cluster.Context {
		return nil
	}

	fmt.Printf("⚠ Current kubectl context is %q, expected %q\n", current, cfg.Cluster.Context)
	if skipPrompt {
		return nil
	}
	if !confirm(bufio.NewReader(os.Stdin), os.Stdout, "Continue against this context?") {
		return fmt.Errorf("aborted: kubectl context mismatch")
	}
	return nil
}

// loadConfig resolves and loads aksops.yaml.
func loadConfig(flagValue string) (config.Config, error) {
	path := config.Locate(flagValue)
	if path == "" {
		return config.Config{}, fmt.Errorf("no config file found (use --config, %s or ./%s)",
			config.EnvConfigPath, config.DefaultFileName)
	}
	return config.Load(path)
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
