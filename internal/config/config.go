package config

import "time"

// ClusterSection identifies the target AKS cluster.
type ClusterSection struct {
	// Name is the AKS cluster name as shown in the Azure portal.
	Name string `yaml:"name"`

	// ResourceGroup is the Azure resource group containing the cluster.
	ResourceGroup string `yaml:"resource_group"`

	// Subscription is the Azure subscription ID or name (optional, the
	// az CLI default subscription is used when empty).
	Subscription string `yaml:"subscription"`

	// Context is the expected kubectl context name. Deploy and
	// decommission warn when the current context differs.
	Context string `yaml:"context"`
}

// RegistrySection describes the approved container registry.
type RegistrySection struct {
	// LoginServer is the ACR login server, e.g. "myteam.azurecr.io".
	// Images outside this registry fail validation.
	LoginServer string `yaml:"login_server"`

	// Name is the ACR resource name, e.g. "myteam". Used for
	// "az acr repository delete" during decommission.
	Name string `yaml:"name"`
}

// MeshSection describes the shared Istio ingress setup.
type MeshSection struct {
	// Gateway is the approved shared Istio gateway that every
	// VirtualService must reference, e.g. "istio-system/shared-gateway".
	Gateway string `yaml:"gateway"`
}

// DNSSection describes the Azure DNS zone holding application records.
type DNSSection struct {
	ZoneName          string `yaml:"zone_name"`
	ZoneResourceGroup string `yaml:"zone_resource_group"`
}

// KeyVaultSection describes the per-application Key Vault convention.
type KeyVaultSection struct {
	// NamePrefix is prepended to the app name to form the vault name.
	// Example: prefix "kv-" and app "billing" -> vault "kv-billing".
	NamePrefix string `yaml:"name_prefix"`
}

// DefaultsSection holds fallback values for command flags.
type DefaultsSection struct {
	Namespace string `yaml:"namespace"`
	ChartPath string `yaml:"chart_path"`

	// Timeout is the Helm wait timeout in Go duration format: "30s",
	// "5m", etc. If not set, defaults to 5 minutes.
	Timeout string `yaml:"timeout"`
}

// HelmTimeout parses the configured timeout, falling back to 5 minutes
// on an empty or malformed value.
func (d DefaultsSection) HelmTimeout() time.Duration {
	t, err := time.ParseDuration(d.Timeout)
	if err != nil || t <= 0 {
		return 5 * time.Minute
	}
	return t
}

// Config is the aksops configuration file structure (aksops.yaml).
//
// The format is versioned to support future evolution without breaking
// changes.
type Config struct {
	// Version is the config file format version (optional, currently always 1)
	Version int `yaml:"version,omitempty"`

	Cluster  ClusterSection  `yaml:"cluster"`
	Registry RegistrySection `yaml:"registry"`
	Mesh     MeshSection     `yaml:"mesh"`
	DNS      DNSSection      `yaml:"dns"`
	KeyVault KeyVaultSection `yaml:"keyvault"`
	Defaults DefaultsSection `yaml:"defaults"`
}

// KeyVaultName returns the conventional Key Vault name for an app.
func (c *Config) KeyVaultName(app string) string {
	prefix := c.KeyVault.NamePrefix
	if prefix == "" {
		prefix = "kv-"
	}
	return prefix + app
}
