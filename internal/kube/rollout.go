package kube

import (
	"context"
	"fmt"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// pollInterval is how often rollout status is re-checked. Overridden in
// tests.
var pollInterval = 2 * time.Second

// WaitForRollout blocks until the deployment's rollout completes or the
// timeout elapses. There is no rollback on timeout; the caller decides
// what to do with the failure.
func WaitForRollout(ctx context.Context, client kubernetes.Interface, namespace, name string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for rollout of deployment %s/%s", namespace, name)
		case <-ticker.C:
			dep, err := client.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
			if err != nil {
				return fmt.Errorf("failed to get deployment %s/%s: %w", namespace, name, err)
			}
			if rolloutComplete(dep) {
				return nil
			}
		}
	}
}

// rolloutComplete mirrors the conditions kubectl rollout status checks:
// the controller has observed the latest generation and every replica
// is updated and available.
func rolloutComplete(dep *appsv1.Deployment) bool {
	if dep.Generation > dep.Status.ObservedGeneration {
		return false
	}
	replicas := int32(1)
	if dep.Spec.Replicas != nil {
		replicas = *dep.Spec.Replicas
	}
	return dep.Status.UpdatedReplicas == replicas &&
		dep.Status.AvailableReplicas == replicas &&
		dep.Status.Replicas == replicas
}
