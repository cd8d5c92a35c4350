package azure

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound marks "resource does not exist" results, which the
// decommission flow reports as informational rather than failing.
var ErrNotFound = errors.New("azure resource not found")

// CLI exposes the az operations the toolkit needs.
type CLI struct {
	run Runner
}

// NewCLI builds a CLI on top of the given Runner.
func NewCLI(r Runner) *CLI {
	return &CLI{run: r}
}

// notFoundMarkers are substrings az prints when the target is absent.
var notFoundMarkers = []string{
	"ResourceNotFound",
	"was not found",
	"could not be found",
	"does not exist",
	"NotFound",
}

func mapNotFound(out string, err error) error {
	if err == nil {
		return nil
	}
	for _, marker := range notFoundMarkers {
		if strings.Contains(out, marker) {
			return ErrNotFound
		}
	}
	return err
}

// DeleteKeyVault soft-deletes the application's Key Vault. The vault
// stays recoverable for the retention period; purging is a deliberate
// manual step and not part of decommissioning.
func (c *CLI) DeleteKeyVault(ctx context.Context, vaultName, resourceGroup string) error {
	out, err := c.run.Run(ctx, "az", "keyvault", "delete",
		"--name", vaultName,
		"--resource-group", resourceGroup)
	return mapNotFound(out, err)
}

// DeleteDNSRecord removes the application's CNAME record set from the
// shared zone.
func (c *CLI) DeleteDNSRecord(ctx context.Context, zoneName, zoneResourceGroup, recordName string) error {
	out, err := c.run.Run(ctx, "az", "network", "dns", "record-set", "cname", "delete",
		"--zone-name", zoneName,
		"--resource-group", zoneResourceGroup,
		"--name", recordName,
		"--yes")
	return mapNotFound(out, err)
}

// DeleteACRRepository removes the application's image repository,
// including all tags.
func (c *CLI) DeleteACRRepository(ctx context.Context, registryName, repository string) error {
	out, err := c.run.Run(ctx, "az", "acr", "repository", "delete",
		"--name", registryName,
		"--repository", repository,
		"--yes")
	return mapNotFound(out, err)
}
