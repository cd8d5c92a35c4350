// Package manifest checks Kubernetes YAML manifests against the
// platform deployment policy: sidecar injection, resource limits,
// probes, non-root security context, the approved registry and the
// shared ingress gateway.
//
// Checks are heuristics over decoded documents plus a few textual
// patterns. There is no schema validation and no cross-file consistency
// checking; false positives and negatives are accepted.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Policy holds the cluster conventions manifests are checked against.
// Empty fields disable the corresponding checks.
type Policy struct {
	// RegistryLoginServer is the approved image registry host.
	RegistryLoginServer string

	// Gateway is the approved shared Istio gateway ("namespace/name").
	Gateway string
}

// Scan walks root (a YAML file or a directory tree) and checks every
// *.yaml / *.yml file found. Files under a "templates" directory are
// skipped: Helm template sources are not plain manifests and would
// fail to decode.
func Scan(root string, pol Policy) (*Report, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}

	report := &Report{}

	if !info.IsDir() {
		report.Files = append(report.Files, checkOne(root, pol))
		return report, nil
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "templates" {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(path)
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("no YAML files found under %s", root)
	}

	for _, path := range paths {
		report.Files = append(report.Files, checkOne(path, pol))
	}
	return report, nil
}

func checkOne(path string, pol Policy) FileReport {
	fr := FileReport{Path: path}

	data, err := os.ReadFile(path) // #nosec G304 - path comes from the scanned tree
	if err != nil {
		fr.add(checkSyntax, Fail, "failed to read file: %v", err)
		return fr
	}

	docs, err := decodeDocuments(data)
	if err != nil {
		fr.add(checkSyntax, Fail, "invalid YAML: %v", err)
		return fr
	}
	fr.add(checkSyntax, Pass, "%d document(s) parsed", len(docs))

	for _, doc := range docs {
		checkDocument(&fr, doc, pol)
	}

	checkImageLines(&fr, data, pol)
	checkSecretPatterns(&fr, data)

	return fr
}

// decodeDocuments splits a multi-document YAML stream into generic maps.
// Non-mapping documents (and empty ones) are dropped.
func decodeDocuments(data []byte) ([]map[string]interface{}, error) {
	var docs []map[string]interface{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc interface{}
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if m, ok := doc.(map[string]interface{}); ok {
			docs = append(docs, m)
		}
	}
	return docs, nil
}

// docKind returns the Kubernetes kind of a decoded document.
func docKind(doc map[string]interface{}) string {
	kind, _ := doc["kind"].(string)
	return kind
}

// docName returns metadata.name, or "?" when absent.
func docName(doc map[string]interface{}) string {
	if meta, ok := mapAt(doc, "metadata"); ok {
		if name, ok := meta["name"].(string); ok {
			return name
		}
	}
	return "?"
}

// mapAt walks nested mappings by key, returning the innermost map.
func mapAt(m map[string]interface{}, keys ...string) (map[string]interface{}, bool) {
	cur := m
	for _, k := range keys {
		next, ok := cur[k].(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// sliceAt returns the slice value at key, if present.
func sliceAt(m map[string]interface{}, key string) ([]interface{}, bool) {
	s, ok := m[key].([]interface{})
	return s, ok
}

// gatewayName returns the bare name part of a namespace-qualified
// gateway reference.
func gatewayName(ref string) string {
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}
