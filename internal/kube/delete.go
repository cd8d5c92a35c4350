package kube

import (
	"context"
	"fmt"
	"io"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
)

// CRD-backed resource types tied to an application.
var (
	VirtualServiceGVR = schema.GroupVersionResource{
		Group: "networking.istio.io", Version: "v1beta1", Resource: "virtualservices",
	}
	SecretProviderClassGVR = schema.GroupVersionResource{
		Group: "secrets-store.csi.x-k8s.io", Version: "v1", Resource: "secretproviderclasses",
	}
)

// DeleteAppResources removes every namespaced resource labeled with the
// application's release instance: workloads, services, config, secrets,
// volume claims, plus VirtualServices and SecretProviderClasses through
// the dynamic client. Progress lines go to w. Deletion is best-effort
// and not transactional; "nothing found" is informational, not an
// error.
func DeleteAppResources(ctx context.Context, client kubernetes.Interface, dyn dynamic.Interface, namespace, app string, w io.Writer) error {
	selector := metav1.ListOptions{LabelSelector: InstanceLabel + "=" + app}
	deleted := 0

	deployments, err := client.AppsV1().Deployments(namespace).List(ctx, selector)
	if err != nil {
		return fmt.Errorf("failed to list deployments: %w", err)
	}
	for _, d := range deployments.Items {
		if err := client.AppsV1().Deployments(namespace).Delete(ctx, d.Name, metav1.DeleteOptions{}); err != nil && !apierrors.IsNotFound(err) {
			return fmt.Errorf("failed to delete deployment %s: %w", d.Name, err)
		}
		fmt.Fprintf(w, "  deleted deployment/%s\n", d.Name)
		deleted++
	}

	services, err := client.CoreV1().Services(namespace).List(ctx, selector)
	if err != nil {
		return fmt.Errorf("failed to list services: %w", err)
	}
	for _, s := range services.Items {
		if err := client.CoreV1().Services(namespace).Delete(ctx, s.Name, metav1.DeleteOptions{}); err != nil && !apierrors.IsNotFound(err) {
			return fmt.Errorf("failed to delete service %s: %w", s.Name, err)
		}
		fmt.Fprintf(w, "  deleted service/%s\n", s.Name)
		deleted++
	}

	configMaps, err := client.CoreV1().ConfigMaps(namespace).List(ctx, selector)
	if err != nil {
		return fmt.Errorf("failed to list configmaps: %w", err)
	}
	for _, c := range configMaps.Items {
		if err := client.CoreV1().ConfigMaps(namespace).Delete(ctx, c.Name, metav1.DeleteOptions{}); err != nil && !apierrors.IsNotFound(err) {
			return fmt.Errorf("failed to delete configmap %s: %w", c.Name, err)
		}
		fmt.Fprintf(w, "  deleted configmap/%s\n", c.Name)
		deleted++
	}

	secrets, err := client.CoreV1().Secrets(namespace).List(ctx, selector)
	if err != nil {
		return fmt.Errorf("failed to list secrets: %w", err)
	}
	for _, s := range secrets.Items {
		if err := client.CoreV1().Secrets(namespace).Delete(ctx, s.Name, metav1.DeleteOptions{}); err != nil && !apierrors.IsNotFound(err) {
			return fmt.Errorf("failed to delete secret %s: %w", s.Name, err)
		}
		fmt.Fprintf(w, "  deleted secret/%s\n", s.Name)
		deleted++
	}

	claims, err := client.CoreV1().PersistentVolumeClaims(namespace).List(ctx, selector)
	if err != nil {
		return fmt.Errorf("failed to list persistent volume claims: %w", err)
	}
	for _, p := range claims.Items {
		if err := client.CoreV1().PersistentVolumeClaims(namespace).Delete(ctx, p.Name, metav1.DeleteOptions{}); err != nil && !apierrors.IsNotFound(err) {
			return fmt.Errorf("failed to delete pvc %s: %w", p.Name, err)
		}
		fmt.Fprintf(w, "  deleted pvc/%s\n", p.Name)
		deleted++
	}

	for _, gvr := range []schema.GroupVersionResource{VirtualServiceGVR, SecretProviderClassGVR} {
		n, err := deleteDynamic(ctx, dyn, gvr, namespace, selector, w)
		if err != nil {
			return err
		}
		deleted += n
	}

	if deleted == 0 {
		fmt.Fprintf(w, "  no resources found for %s=%s in namespace %s\n", InstanceLabel, app, namespace)
	}
	return nil
}

func deleteDynamic(ctx context.Context, dyn dynamic.Interface, gvr schema.GroupVersionResource, namespace string, selector metav1.ListOptions, w io.Writer) (int, error) {
	list, err := dyn.Resource(gvr).Namespace(namespace).List(ctx, selector)
	if err != nil {
		// The CRD may simply not be installed on this cluster.
		if apierrors.IsNotFound(err) {
			fmt.Fprintf(w, "  %s not available on this cluster, skipping\n", gvr.Resource)
			return 0, nil
		}
		return 0, fmt.Errorf("failed to list %s: %w", gvr.Resource, err)
	}

	deleted := 0
	for _, item := range list.Items {
		name := item.GetName()
		if err := dyn.Resource(gvr).Namespace(namespace).Delete(ctx, name, metav1.DeleteOptions{}); err != nil && !apierrors.IsNotFound(err) {
			return deleted, fmt.Errorf("failed to delete %s %s: %w", gvr.Resource, name, err)
		}
		fmt.Fprintf(w, "  deleted %s/%s\n", gvr.Resource, name)
		deleted++
	}
	return deleted, nil
}
