package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aksops.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
version: 1
cluster:
  name: prod-aks
  resource_group: rg-platform
  context: prod-aks
registry:
  login_server: myteam.azurecr.io
  name: myteam
mesh:
  gateway: istio-system/shared-gateway
dns:
  zone_name: apps.example.com
  zone_resource_group: rg-dns
keyvault:
  name_prefix: kv-
defaults:
  namespace: apps
  chart_path: deploy/chart
  timeout: 10m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod-aks", cfg.Cluster.Name)
	assert.Equal(t, "rg-platform", cfg.Cluster.ResourceGroup)
	assert.Equal(t, "myteam.azurecr.io", cfg.Registry.LoginServer)
	assert.Equal(t, "istio-system/shared-gateway", cfg.Mesh.Gateway)
	assert.Equal(t, "apps", cfg.Defaults.Namespace)
	assert.Equal(t, 10*time.Minute, cfg.Defaults.HelmTimeout())
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
cluster:
  name: prod-aks
  resource_group: rg-platform
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.Defaults.Namespace)
	assert.Equal(t, "chart", cfg.Defaults.ChartPath)
	assert.Equal(t, 5*time.Minute, cfg.Defaults.HelmTimeout())
	assert.Equal(t, "kv-billing", cfg.KeyVaultName("billing"))
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
cluster:
  name: prod-aks
  resource_group: rg-platform
  context: prod-aks
defaults:
  namespace: apps
`)

	t.Setenv(EnvContext, "staging-aks")
	t.Setenv(EnvNamespace, "staging")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "staging-aks", cfg.Cluster.Context)
	assert.Equal(t, "staging", cfg.Defaults.Namespace)
}

func TestLoad_EnvOverridesUnsetLeaveConfig(t *testing.T) {
	path := writeConfig(t, `
cluster:
  name: prod-aks
  resource_group: rg-platform
  context: prod-aks
`)

	t.Setenv(EnvContext, "")
	t.Setenv(EnvNamespace, "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod-aks", cfg.Cluster.Context)
	assert.Equal(t, "default", cfg.Defaults.Namespace)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "cluster: [not: a: mapping")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestValidate(t *testing.T) {
	valid := Config{
		Cluster:  ClusterSection{Name: "prod-aks", ResourceGroup: "rg-platform"},
		Registry: RegistrySection{LoginServer: "myteam.azurecr.io"},
		Mesh:     MeshSection{Gateway: "istio-system/shared-gateway"},
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing cluster name",
			mutate:  func(c *Config) { c.Cluster.Name = "" },
			wantErr: "cluster.name must be set",
		},
		{
			name:    "missing resource group",
			mutate:  func(c *Config) { c.Cluster.ResourceGroup = "" },
			wantErr: "cluster.resource_group must be set",
		},
		{
			name:    "context with whitespace",
			mutate:  func(c *Config) { c.Cluster.Context = "prod aks" },
			wantErr: "must not contain whitespace",
		},
		{
			name:    "registry with path",
			mutate:  func(c *Config) { c.Registry.LoginServer = "myteam.azurecr.io/apps" },
			wantErr: "must be a bare host",
		},
		{
			name:    "registry without dot",
			mutate:  func(c *Config) { c.Registry.LoginServer = "localhost" },
			wantErr: "does not look like a registry host",
		},
		{
			name:    "unqualified gateway",
			mutate:  func(c *Config) { c.Mesh.Gateway = "shared-gateway" },
			wantErr: "must be namespace-qualified",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLocate(t *testing.T) {
	t.Run("flag wins", func(t *testing.T) {
		assert.Equal(t, "custom.yaml", Locate("custom.yaml"))
	})

	t.Run("env fallback", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "/etc/aksops/aksops.yaml")
		assert.Equal(t, "/etc/aksops/aksops.yaml", Locate(""))
	})

	t.Run("nothing found", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "")
		dir := t.TempDir()
		wd, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(dir))
		t.Cleanup(func() { _ = os.Chdir(wd) })
		assert.Equal(t, "", Locate(""))
	})
}
