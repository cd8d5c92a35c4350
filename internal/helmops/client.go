// Package helmops drives Helm releases through the Helm v3 SDK instead
// of shelling out to the helm binary.
package helmops

import (
	"errors"
	"fmt"
	"os"
	"time"

	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/cli"
	"helm.sh/helm/v3/pkg/release"
	"helm.sh/helm/v3/pkg/storage/driver"
)

// Client wraps an initialized Helm action configuration for one
// namespace.
type Client struct {
	settings  *cli.EnvSettings
	cfg       *action.Configuration
	namespace string
}

// New initializes Helm against the current kubeconfig context.
func New(namespace string) (*Client, error) {
	settings := cli.New()
	settings.SetNamespace(namespace)

	cfg := new(action.Configuration)
	if err := cfg.Init(settings.RESTClientGetter(), namespace,
		os.Getenv("HELM_DRIVER"), func(format string, v ...interface{}) {
			fmt.Printf(format+"\n", v...)
		}); err != nil {
		return nil, fmt.Errorf("failed to initialize Helm: %w", err)
	}

	return &Client{settings: settings, cfg: cfg, namespace: namespace}, nil
}

// DeployOptions configures a Deploy call.
type DeployOptions struct {
	ChartPath string
	Values    map[string]interface{}

	// ValuesFile is an extra values file merged under Values.
	ValuesFile string

	Wait    bool
	Timeout time.Duration
	DryRun  bool
}

// Deploy installs the chart as a new release, or upgrades the release
// if it already exists (helm upgrade --install semantics).
func (c *Client) Deploy(name string, opts DeployOptions) (*release.Release, error) {
	chart, err := loader.Load(opts.ChartPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load chart from %s: %w", opts.ChartPath, err)
	}

	values := opts.Values
	if opts.ValuesFile != "" {
		values, err = MergeValuesFile(values, opts.ValuesFile)
		if err != nil {
			return nil, err
		}
	}

	exists, err := c.releaseExists(name)
	if err != nil {
		return nil, err
	}

	if !exists {
		client := action.NewInstall(c.cfg)
		client.ReleaseName = name
		client.Namespace = c.namespace
		client.CreateNamespace = false // Assume namespace exists
		client.Wait = opts.Wait
		client.Timeout = opts.Timeout
		client.DryRun = opts.DryRun

		rel, err := client.Run(chart, values)
		if err != nil {
			return nil, fmt.Errorf("failed to install release %s: %w", name, err)
		}
		return rel, nil
	}

	client := action.NewUpgrade(c.cfg)
	client.Namespace = c.namespace
	client.Wait = opts.Wait
	client.Timeout = opts.Timeout
	client.DryRun = opts.DryRun

	rel, err := client.Run(name, chart, values)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade release %s: %w", name, err)
	}
	return rel, nil
}

// Uninstall removes the release. The bool result is false when no such
// release exists, which callers treat as informational.
func (c *Client) Uninstall(name string) (bool, error) {
	client := action.NewUninstall(c.cfg)
	_, err := client.Run(name)
	if errors.Is(err, driver.ErrReleaseNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to uninstall release %s: %w", name, err)
	}
	return true, nil
}

// Status returns the release, or driver.ErrReleaseNotFound wrapped if
// it does not exist.
func (c *Client) Status(name string) (*release.Release, error) {
	client := action.NewStatus(c.cfg)
	rel, err := client.Run(name)
	if err != nil {
		return nil, fmt.Errorf("failed to get status of release %s: %w", name, err)
	}
	return rel, nil
}

func (c *Client) releaseExists(name string) (bool, error) {
	hist := action.NewHistory(c.cfg)
	hist.Max = 1
	_, err := hist.Run(name)
	if errors.Is(err, driver.ErrReleaseNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check history of release %s: %w", name, err)
	}
	return true, nil
}
