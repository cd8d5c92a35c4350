package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that the configuration is usable for cluster-facing
// commands.
//
// Ensures:
//   - Cluster name and resource group are set
//   - Context name, when set, contains no whitespace
//   - Registry login server looks like an ACR login server
//   - Gateway reference, when set, is namespace-qualified
func Validate(cfg Config) error {
	if cfg.Cluster.Name == "" {
		return errors.New("cluster.name must be set")
	}
	if cfg.Cluster.ResourceGroup == "" {
		return errors.New("cluster.resource_group must be set")
	}
	if strings.ContainsAny(cfg.Cluster.Context, " \t") {
		return fmt.Errorf("cluster.context %q must not contain whitespace", cfg.Cluster.Context)
	}

	if cfg.Registry.LoginServer != "" {
		if strings.Contains(cfg.Registry.LoginServer, "/") {
			return fmt.Errorf("registry.login_server %q must be a bare host, not a path", cfg.Registry.LoginServer)
		}
		if !strings.Contains(cfg.Registry.LoginServer, ".") {
			return fmt.Errorf("registry.login_server %q does not look like a registry host", cfg.Registry.LoginServer)
		}
	}

	if cfg.Mesh.Gateway != "" && !strings.Contains(cfg.Mesh.Gateway, "/") {
		return fmt.Errorf("mesh.gateway %q must be namespace-qualified (namespace/name)", cfg.Mesh.Gateway)
	}

	return nil
}
