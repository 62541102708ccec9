package containers

import (
	"context"
	"fmt"
	"sort"
	"time"

	"stackprobe/internal/config"
	"stackprobe/pkg/logging"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// NewClientsetFromConfig creates a clientset from a rest.Config.
// Exported to allow overriding in tests.
var NewClientsetFromConfig = func(c *rest.Config) (kubernetes.Interface, error) {
	return kubernetes.NewForConfig(c)
}

const defaultServiceLabel = "app.kubernetes.io/name"

// KubernetesInspector reads container state from pods of a namespace.
type KubernetesInspector struct {
	client    kubernetes.Interface
	namespace string
	label     string
}

// NewKubernetesInspector wraps an existing clientset.
func NewKubernetesInspector(client kubernetes.Interface, cfg config.ContainersConfig) *KubernetesInspector {
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = metav1.NamespaceDefault
	}
	label := cfg.ServiceLabel
	if label == "" {
		label = defaultServiceLabel
	}
	return &KubernetesInspector{client: client, namespace: namespace, label: label}
}

// NewKubernetesInspectorFromKubeconfig loads the configured kubeconfig and
// context, falling back to the default loading rules.
func NewKubernetesInspectorFromKubeconfig(cfg config.ContainersConfig) (*KubernetesInspector, error) {
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	if cfg.Kubeconfig != "" {
		loadingRules.ExplicitPath = cfg.Kubeconfig
	}
	configOverrides := &clientcmd.ConfigOverrides{CurrentContext: cfg.KubeContext}
	kubeConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, configOverrides)

	restConfig, err := kubeConfig.ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get REST config for context %q: %w", cfg.KubeContext, err)
	}
	restConfig.Timeout = 15 * time.Second

	clientset, err := NewClientsetFromConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kubernetes clientset: %w", err)
	}
	return NewKubernetesInspector(clientset, cfg), nil
}

// firstPod returns the alphabetically first pod carrying the service label.
func (k *KubernetesInspector) firstPod(ctx context.Context, service string) (*corev1.Pod, error) {
	selector := labels.Set{k.label: service}.AsSelector().String()
	pods, err := k.client.CoreV1().Pods(k.namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods for %s: %w", service, err)
	}
	if len(pods.Items) == 0 {
		return nil, fmt.Errorf("service %s in namespace %s: %w", service, k.namespace, ErrContainerNotFound)
	}
	sort.Slice(pods.Items, func(i, j int) bool { return pods.Items[i].Name < pods.Items[j].Name })
	return &pods.Items[0], nil
}

// StartedAt implements Inspector using the first running container.
func (k *KubernetesInspector) StartedAt(ctx context.Context, service string) (time.Time, error) {
	pod, err := k.firstPod(ctx, service)
	if err != nil {
		return time.Time{}, err
	}
	for _, status := range pod.Status.ContainerStatuses {
		if status.State.Running != nil {
			logging.Debug("Containers", "Pod %s/%s container %s started at %s",
				pod.Namespace, pod.Name, status.Name, status.State.Running.StartedAt.Time)
			return status.State.Running.StartedAt.Time, nil
		}
	}
	return time.Time{}, fmt.Errorf("no running container in pod %s/%s: %w", pod.Namespace, pod.Name, ErrContainerNotFound)
}

// Logs implements Inspector.
func (k *KubernetesInspector) Logs(ctx context.Context, service string) (string, error) {
	pod, err := k.firstPod(ctx, service)
	if err != nil {
		return "", err
	}
	raw, err := k.client.CoreV1().Pods(pod.Namespace).GetLogs(pod.Name, &corev1.PodLogOptions{}).DoRaw(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read logs of pod %s/%s: %w", pod.Namespace, pod.Name, err)
	}
	return string(raw), nil
}
