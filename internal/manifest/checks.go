package manifest

import (
	"fmt"
	"regexp"
	"strings"

	"k8s.io/apimachinery/pkg/api/resource"
)

// Check names used in reports.
const (
	checkSyntax   = "yaml-syntax"
	checkSidecar  = "istio-sidecar"
	checkLimits   = "resource-limits"
	checkProbes   = "probes"
	checkNonRoot  = "run-as-non-root"
	checkRegistry = "registry"
	checkGateway  = "gateway"
	checkSecrets  = "secrets"
)

// workloadKinds are the kinds whose pod templates are checked.
var workloadKinds = map[string]bool{
	"Deployment":  true,
	"StatefulSet": true,
	"DaemonSet":   true,
}

func checkDocument(fr *FileReport, doc map[string]interface{}, pol Policy) {
	kind := docKind(doc)
	switch {
	case workloadKinds[kind]:
		checkWorkload(fr, doc, kind)
	case kind == "VirtualService":
		checkVirtualService(fr, doc, pol)
	case kind == "Secret":
		checkInlineSecret(fr, doc)
	}
}

func checkWorkload(fr *FileReport, doc map[string]interface{}, kind string) {
	name := docName(doc)
	ref := fmt.Sprintf("%s/%s", kind, name)

	// Sidecar injection annotation lives on the pod template, not the
	// workload object itself.
	annotations, _ := mapAt(doc, "spec", "template", "metadata", "annotations")
	if inject, ok := annotations["sidecar.istio.io/inject"]; ok && fmt.Sprintf("%v", inject) == "true" {
		fr.add(checkSidecar, Pass, "%s: sidecar injection enabled", ref)
	} else {
		fr.add(checkSidecar, Warn, "%s: missing sidecar.istio.io/inject annotation (pod will bypass the mesh)", ref)
	}

	podSpec, ok := mapAt(doc, "spec", "template", "spec")
	if !ok {
		fr.add(checkLimits, Fail, "%s: no pod template spec", ref)
		return
	}

	containers, ok := sliceAt(podSpec, "containers")
	if !ok || len(containers) == 0 {
		fr.add(checkLimits, Fail, "%s: no containers defined", ref)
		return
	}

	podNonRoot := nonRootValue(podSpec)

	for _, c := range containers {
		container, ok := c.(map[string]interface{})
		if !ok {
			continue
		}
		cname, _ := container["name"].(string)
		cref := fmt.Sprintf("%s container %q", ref, cname)

		checkContainerLimits(fr, container, cref)
		checkContainerProbes(fr, container, cref)

		switch containerNonRoot(container, podNonRoot) {
		case nonRootTrue:
			fr.add(checkNonRoot, Pass, "%s: runAsNonRoot enforced", cref)
		case nonRootFalse:
			fr.add(checkNonRoot, Fail, "%s: runAsNonRoot explicitly disabled", cref)
		default:
			fr.add(checkNonRoot, Fail, "%s: missing securityContext.runAsNonRoot: true", cref)
		}
	}
}

func checkContainerLimits(fr *FileReport, container map[string]interface{}, cref string) {
	limits, ok := mapAt(container, "resources", "limits")
	if !ok {
		fr.add(checkLimits, Fail, "%s: missing resources.limits", cref)
		return
	}

	for _, key := range []string{"cpu", "memory"} {
		raw, ok := limits[key]
		if !ok {
			fr.add(checkLimits, Fail, "%s: missing resources.limits.%s", cref, key)
			continue
		}
		if _, err := resource.ParseQuantity(fmt.Sprintf("%v", raw)); err != nil {
			fr.add(checkLimits, Fail, "%s: invalid %s limit %q: %v", cref, key, raw, err)
			continue
		}
		fr.add(checkLimits, Pass, "%s: %s limit set", cref, key)
	}
}

func checkContainerProbes(fr *FileReport, container map[string]interface{}, cref string) {
	for _, probe := range []string{"livenessProbe", "readinessProbe"} {
		if _, ok := mapAt(container, probe); ok {
			fr.add(checkProbes, Pass, "%s: %s defined", cref, probe)
		} else {
			fr.add(checkProbes, Fail, "%s: missing %s", cref, probe)
		}
	}
}

type nonRootState int

const (
	nonRootUnset nonRootState = iota
	nonRootTrue
	nonRootFalse
)

func nonRootValue(spec map[string]interface{}) nonRootState {
	sc, ok := mapAt(spec, "securityContext")
	if !ok {
		return nonRootUnset
	}
	v, ok := sc["runAsNonRoot"].(bool)
	if !ok {
		return nonRootUnset
	}
	if v {
		return nonRootTrue
	}
	return nonRootFalse
}

// containerNonRoot resolves the effective runAsNonRoot setting: the
// container-level value overrides the pod-level one.
func containerNonRoot(container map[string]interface{}, podLevel nonRootState) nonRootState {
	if s := nonRootValue(container); s != nonRootUnset {
		return s
	}
	return podLevel
}

func checkVirtualService(fr *FileReport, doc map[string]interface{}, pol Policy) {
	if pol.Gateway == "" {
		return
	}
	name := docName(doc)

	spec, ok := mapAt(doc, "spec")
	if !ok {
		fr.add(checkGateway, Fail, "VirtualService/%s: no spec", name)
		return
	}
	gateways, ok := sliceAt(spec, "gateways")
	if !ok || len(gateways) == 0 {
		fr.add(checkGateway, Fail, "VirtualService/%s: no gateways listed (must use %s)", name, pol.Gateway)
		return
	}

	for _, g := range gateways {
		ref, _ := g.(string)
		// "mesh" is the implicit in-mesh gateway, always allowed.
		if ref == "mesh" {
			continue
		}
		if ref == pol.Gateway || ref == gatewayName(pol.Gateway) {
			fr.add(checkGateway, Pass, "VirtualService/%s: uses shared gateway %s", name, ref)
			continue
		}
		fr.add(checkGateway, Fail, "VirtualService/%s: gateway %q is not the approved %s", name, ref, pol.Gateway)
	}
}

// checkInlineSecret flags Secret objects carrying inline data. Secrets
// are expected to come from Key Vault through a SecretProviderClass.
func checkInlineSecret(fr *FileReport, doc map[string]interface{}) {
	name := docName(doc)
	for _, field := range []string{"data", "stringData"} {
		if m, ok := mapAt(doc, field); ok && len(m) > 0 {
			fr.add(checkSecrets, Warn, "Secret/%s: inline %s (prefer SecretProviderClass + Key Vault)", name, field)
			return
		}
	}
}

// imageLineRE matches image references in manifests and values files.
var imageLineRE = regexp.MustCompile(`(?m)^\s*(?:-\s+)?image:\s*["']?([^"'\s#]+)`)

// checkImageLines runs the textual registry check over the raw file so
// that values files without a kind are covered too.
func checkImageLines(fr *FileReport, data []byte, pol Policy) {
	if pol.RegistryLoginServer == "" {
		return
	}

	matches := imageLineRE.FindAllStringSubmatch(string(data), -1)
	for _, m := range matches {
		image := m[1]
		parts := strings.SplitN(image, "/", 2)
		hostQualified := len(parts) == 2 && (strings.Contains(parts[0], ".") || strings.Contains(parts[0], ":"))
		switch {
		case strings.HasPrefix(image, pol.RegistryLoginServer+"/"):
			fr.add(checkRegistry, Pass, "image %s from approved registry", image)
		case hostQualified:
			fr.add(checkRegistry, Fail, "image %s is not from %s", image, pol.RegistryLoginServer)
		default:
			fr.add(checkRegistry, Warn, "image %s has no registry prefix (expected %s)", image, pol.RegistryLoginServer)
		}
	}
}

// secretPatterns are rough textual heuristics for credentials committed
// into manifests. They intentionally over-match.
var secretPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"password", regexp.MustCompile(`(?mi)^\s*[A-Za-z0-9_-]*password[A-Za-z0-9_-]*\s*:\s*\S`)},
	{"api key", regexp.MustCompile(`(?mi)^\s*[A-Za-z0-9_-]*api[_-]?key[A-Za-z0-9_-]*\s*:\s*\S`)},
	{"connection string", regexp.MustCompile(`(?mi)^\s*[A-Za-z0-9_-]*connection[_-]?string[A-Za-z0-9_-]*\s*:\s*\S`)},
	{"aws access key", regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
}

func checkSecretPatterns(fr *FileReport, data []byte) {
	text := string(data)
	for _, p := range secretPatterns {
		for _, match := range p.re.FindAllString(text, -1) {
			line := strings.TrimSpace(match)
			// Values wired up through secret refs are fine; only
			// literal values are suspicious.
			if strings.Contains(line, "valueFrom") || strings.Contains(line, "secretKeyRef") {
				continue
			}
			fr.add(checkSecrets, Warn, "possible hardcoded %s: %q", p.name, truncate(line, 60))
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
