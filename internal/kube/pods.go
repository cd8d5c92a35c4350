package kube

import (
	"context"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/duration"
	"k8s.io/client-go/kubernetes"
)

// PodRow is one line of the status pod table.
type PodRow struct {
	Name     string
	Ready    string
	Status   string
	Restarts int
	Age      string
}

// PodRows lists the pods belonging to the application's release and
// summarizes them for display.
func PodRows(ctx context.Context, client kubernetes.Interface, namespace, app string) ([]PodRow, error) {
	pods, err := client.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: InstanceLabel + "=" + app,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods: %w", err)
	}

	rows := make([]PodRow, 0, len(pods.Items))
	for _, pod := range pods.Items {
		rows = append(rows, podRow(pod))
	}
	return rows, nil
}

func podRow(pod corev1.Pod) PodRow {
	ready := 0
	restarts := 0
	for _, cs := range pod.Status.ContainerStatuses {
		if cs.Ready {
			ready++
		}
		restarts += int(cs.RestartCount)
	}

	age := ""
	if !pod.CreationTimestamp.IsZero() {
		age = duration.HumanDuration(time.Since(pod.CreationTimestamp.Time))
	}

	return PodRow{
		Name:     pod.Name,
		Ready:    fmt.Sprintf("%d/%d", ready, len(pod.Spec.Containers)),
		Status:   string(pod.Status.Phase),
		Restarts: restarts,
		Age:      age,
	}
}
