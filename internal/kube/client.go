// Package kube wraps the client-go plumbing the CLI needs: building
// clients from the local kubeconfig, guarding the current context,
// waiting for rollouts and deleting labeled application resources.
package kube

import (
	"fmt"

	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// InstanceLabel is the Helm release instance label every application
// resource carries.
const InstanceLabel = "app.kubernetes.io/instance"

func restConfig() (*rest.Config, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{}).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}
	return cfg, nil
}

// NewClientset builds a typed clientset from the default kubeconfig.
func NewClientset() (*kubernetes.Clientset, error) {
	cfg, err := restConfig()
	if err != nil {
		return nil, err
	}
	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kubernetes client: %w", err)
	}
	return clientset, nil
}

// NewDynamic builds a dynamic client for CRD-backed resources
// (VirtualService, SecretProviderClass).
func NewDynamic() (dynamic.Interface, error) {
	cfg, err := restConfig()
	if err != nil {
		return nil, err
	}
	dyn, err := dynamic.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}
	return dyn, nil
}

// CurrentContext returns the active kubectl context name.
func CurrentContext() (string, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	raw, err := rules.Load()
	if err != nil {
		return "", fmt.Errorf("failed to load kubeconfig: %w", err)
	}
	if raw.CurrentContext == "" {
		return "", fmt.Errorf("no current context set in kubeconfig")
	}
	return raw.CurrentContext, nil
}
