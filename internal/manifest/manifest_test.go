package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPolicy = Policy{
	RegistryLoginServer: "myteam.azurecr.io",
	Gateway:             "istio-system/shared-gateway",
}

const compliantDeployment = `
apiVersion: apps/v1
kind: Deployment
metadata:
  name: billing
spec:
  replicas: 2
  template:
    metadata:
      annotations:
        sidecar.istio.io/inject: "true"
    spec:
      securityContext:
        runAsNonRoot: true
      containers:
        - name: app
          image: myteam.azurecr.io/billing:v1.2.3
          resources:
            limits:
              cpu: 500m
              memory: 256Mi
          livenessProbe:
            httpGet:
              path: /healthz
              port: 8080
          readinessProbe:
            httpGet:
              path: /ready
              port: 8080
`

func writeManifest(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func severities(fr FileReport, check string) []Severity {
	var out []Severity
	for _, r := range fr.Results {
		if r.Check == check {
			out = append(out, r.Severity)
		}
	}
	return out
}

func TestScan_CompliantManifestPasses(t *testing.T) {
	path := writeManifest(t, "deployment.yaml", compliantDeployment)

	report, err := Scan(path, testPolicy)
	require.NoError(t, err)
	require.Len(t, report.Files, 1)

	assert.False(t, report.HasFailures())
	assert.False(t, report.HasWarnings())

	pass, warn, fail := report.Counts()
	assert.Positive(t, pass)
	assert.Zero(t, warn)
	assert.Zero(t, fail)
}

func TestScan_MissingRunAsNonRootFails(t *testing.T) {
	path := writeManifest(t, "deployment.yaml", `
apiVersion: apps/v1
kind: Deployment
metadata:
  name: billing
spec:
  template:
    metadata:
      annotations:
        sidecar.istio.io/inject: "true"
    spec:
      containers:
        - name: app
          image: myteam.azurecr.io/billing:v1
          resources:
            limits:
              cpu: 500m
              memory: 256Mi
          livenessProbe:
            tcpSocket: {port: 8080}
          readinessProbe:
            tcpSocket: {port: 8080}
`)

	report, err := Scan(path, testPolicy)
	require.NoError(t, err)
	require.True(t, report.HasFailures())

	sevs := severities(report.Files[0], checkNonRoot)
	require.Len(t, sevs, 1)
	assert.Equal(t, Fail, sevs[0])
}

func TestScan_RunAsNonRootDisabledFails(t *testing.T) {
	path := writeManifest(t, "deployment.yaml", `
kind: Deployment
metadata: {name: app}
spec:
  template:
    spec:
      securityContext: {runAsNonRoot: true}
      containers:
        - name: app
          securityContext: {runAsNonRoot: false}
          image: myteam.azurecr.io/app:v1
          resources: {limits: {cpu: 100m, memory: 64Mi}}
          livenessProbe: {tcpSocket: {port: 80}}
          readinessProbe: {tcpSocket: {port: 80}}
`)

	report, err := Scan(path, testPolicy)
	require.NoError(t, err)

	sevs := severities(report.Files[0], checkNonRoot)
	require.Len(t, sevs, 1)
	assert.Equal(t, Fail, sevs[0], "container-level false must override pod-level true")
}

func TestScan_MissingLimitsAndProbes(t *testing.T) {
	path := writeManifest(t, "deployment.yaml", `
kind: Deployment
metadata: {name: app}
spec:
  template:
    spec:
      securityContext: {runAsNonRoot: true}
      containers:
        - name: app
          image: myteam.azurecr.io/app:v1
`)

	report, err := Scan(path, testPolicy)
	require.NoError(t, err)

	fr := report.Files[0]
	assert.Equal(t, []Severity{Fail}, severities(fr, checkLimits))
	assert.Equal(t, []Severity{Fail, Fail}, severities(fr, checkProbes))
	assert.True(t, report.HasFailures())
}

func TestScan_MalformedLimitQuantity(t *testing.T) {
	path := writeManifest(t, "deployment.yaml", `
kind: Deployment
metadata: {name: app}
spec:
  template:
    spec:
      securityContext: {runAsNonRoot: true}
      containers:
        - name: app
          image: myteam.azurecr.io/app:v1
          resources:
            limits:
              cpu: lots
              memory: 256Mi
          livenessProbe: {tcpSocket: {port: 80}}
          readinessProbe: {tcpSocket: {port: 80}}
`)

	report, err := Scan(path, testPolicy)
	require.NoError(t, err)

	sevs := severities(report.Files[0], checkLimits)
	assert.Contains(t, sevs, Fail)
}

func TestScan_MissingSidecarAnnotationWarns(t *testing.T) {
	path := writeManifest(t, "deployment.yaml", `
kind: Deployment
metadata: {name: app}
spec:
  template:
    spec:
      securityContext: {runAsNonRoot: true}
      containers:
        - name: app
          image: myteam.azurecr.io/app:v1
          resources: {limits: {cpu: 100m, memory: 64Mi}}
          livenessProbe: {tcpSocket: {port: 80}}
          readinessProbe: {tcpSocket: {port: 80}}
`)

	report, err := Scan(path, testPolicy)
	require.NoError(t, err)

	assert.Equal(t, []Severity{Warn}, severities(report.Files[0], checkSidecar))
	assert.False(t, report.HasFailures())
	assert.True(t, report.HasWarnings())
}

func TestScan_ForeignRegistryFails(t *testing.T) {
	path := writeManifest(t, "deployment.yaml", `
kind: Deployment
metadata: {name: app}
spec:
  template:
    spec:
      containers:
        - name: app
          image: docker.io/library/nginx:latest
`)

	report, err := Scan(path, testPolicy)
	require.NoError(t, err)

	assert.Contains(t, severities(report.Files[0], checkRegistry), Fail)
}

func TestScan_UnprefixedImageWarns(t *testing.T) {
	path := writeManifest(t, "values.yaml", "image: nginx:latest\n")

	report, err := Scan(path, testPolicy)
	require.NoError(t, err)

	assert.Equal(t, []Severity{Warn}, severities(report.Files[0], checkRegistry))
}

func TestScan_VirtualServiceGateway(t *testing.T) {
	tests := []struct {
		name     string
		gateways string
		want     Severity
	}{
		{"approved qualified", `["istio-system/shared-gateway"]`, Pass},
		{"approved bare", `["shared-gateway"]`, Pass},
		{"foreign gateway", `["istio-system/other-gateway"]`, Fail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, "vs.yaml", `
apiVersion: networking.istio.io/v1beta1
kind: VirtualService
metadata: {name: app}
spec:
  gateways: `+tt.gateways+`
  hosts: ["app.apps.example.com"]
`)

			report, err := Scan(path, testPolicy)
			require.NoError(t, err)

			sevs := severities(report.Files[0], checkGateway)
			require.Len(t, sevs, 1)
			assert.Equal(t, tt.want, sevs[0])
		})
	}
}

func TestScan_HardcodedSecretWarns(t *testing.T) {
	path := writeManifest(t, "config.yaml", `
kind: ConfigMap
metadata: {name: app-config}
data:
  db_password: hunter2
`)

	report, err := Scan(path, testPolicy)
	require.NoError(t, err)

	assert.Contains(t, severities(report.Files[0], checkSecrets), Warn)
}

func TestScan_InlineSecretWarns(t *testing.T) {
	path := writeManifest(t, "secret.yaml", `
kind: Secret
metadata: {name: app-secret}
stringData:
  token: abc123
`)

	report, err := Scan(path, testPolicy)
	require.NoError(t, err)

	assert.Contains(t, severities(report.Files[0], checkSecrets), Warn)
}

func TestScan_InvalidYAMLFails(t *testing.T) {
	path := writeManifest(t, "broken.yaml", "kind: [Deployment\n  name: }{")

	report, err := Scan(path, testPolicy)
	require.NoError(t, err)

	assert.Equal(t, []Severity{Fail}, severities(report.Files[0], checkSyntax))
	assert.True(t, report.HasFailures())
}

func TestScan_DirectoryWalk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(compliantDeployment), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yml"), []byte(compliantDeployment), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o600))

	// Helm template sources are skipped entirely.
	tmplDir := filepath.Join(dir, "templates")
	require.NoError(t, os.MkdirAll(tmplDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(tmplDir, "deploy.yaml"), []byte("{{ .Values.broken"), 0o600))

	report, err := Scan(dir, testPolicy)
	require.NoError(t, err)

	require.Len(t, report.Files, 2)
	assert.False(t, report.HasFailures())
}

func TestScan_NoYAMLFiles(t *testing.T) {
	_, err := Scan(t.TempDir(), testPolicy)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no YAML files found")
}

func TestScan_EmptyPolicySkipsPolicyChecks(t *testing.T) {
	path := writeManifest(t, "vs.yaml", `
kind: VirtualService
metadata: {name: app}
spec:
  gateways: ["anything-goes"]
`)

	report, err := Scan(path, Policy{})
	require.NoError(t, err)

	assert.Empty(t, severities(report.Files[0], checkGateway))
	assert.Empty(t, severities(report.Files[0], checkRegistry))
	assert.False(t, report.HasFailures())
}
