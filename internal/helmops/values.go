package helmops

import (
	"fmt"
	"strings"

	"helm.sh/helm/v3/pkg/chartutil"

	"github.com/plexops/aksops/internal/config"
)

// BuildValues assembles the Helm values overriding the chart defaults
// for one application: the image from the approved registry and,
// when a hostname is given, the ingress routing through the shared
// gateway.
func BuildValues(cfg config.Config, app, imageTag, hostname string) map[string]interface{} {
	if imageTag == "" {
		imageTag = "latest"
	}

	repository := app
	if cfg.Registry.LoginServer != "" {
		repository = cfg.Registry.LoginServer + "/" + app
	}

	values := map[string]interface{}{
		"image": map[string]interface{}{
			"repository": repository,
			"tag":        imageTag,
		},
	}

	if hostname != "" {
		values["ingress"] = map[string]interface{}{
			"host":    hostname,
			"gateway": cfg.Mesh.Gateway,
		}
	}

	return values
}

// MergeValuesFile overlays base on top of the values read from path.
// Base entries win, matching helm's --set over -f precedence.
func MergeValuesFile(base map[string]interface{}, path string) (map[string]interface{}, error) {
	fileValues, err := chartutil.ReadValuesFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read values file %s: %w", path, err)
	}
	return chartutil.CoalesceTables(base, fileValues.AsMap()), nil
}

// ImageValues builds the image override for a full reference like
// "myteam.azurecr.io/billing:v1.2.3", bypassing the registry
// convention.
func ImageValues(image string) map[string]interface{} {
	repo, tag := SplitImage(image)
	return map[string]interface{}{
		"repository": repo,
		"tag":        tag,
	}
}

// SplitImage separates an image reference into repository and tag,
// defaulting the tag to "latest".
func SplitImage(image string) (repo, tag string) {
	if i := strings.LastIndex(image, ":"); i > strings.LastIndex(image, "/") {
		return image[:i], image[i+1:]
	}
	return image, "latest"
}
