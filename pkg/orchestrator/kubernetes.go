package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/redisctl/im-redis/internal/errdef"
	"github.com/redisctl/im-redis/pkg/config"
	"github.com/redisctl/im-redis/pkg/model"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	metricsclientset "k8s.io/metrics/pkg/client/clientset/versioned"
)

const (
	hostnameLabel         = "kubernetes.io/hostname"
	restartedAtAnnotation = "kubectl.kubernetes.io/restartedAt"
	pollInterval          = time.Second
)

// NewKubernetes creates a Kubernetes backend using the kubeconfig at the configured path or the in
// cluster configuration if no path is configured.
func NewKubernetes(logger *slog.Logger, c config.Orchestrator) (*Kubernetes, error) {
	restConfig, err := restConfig(c.Kubeconfig)
	if err != nil {
		return nil, err
	}

	client, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %v", err)
	}

	metricsClient, err := metricsclientset.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics client: %v", err)
	}

	return NewKubernetesWithClients(logger, c, client, metricsClient), nil
}

func restConfig(kubeconfig string) (*rest.Config, error) {
	if kubeconfig == "" {
		restConfig, err := rest.InClusterConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load in cluster configuration: %v", err)
		}
		return restConfig, nil
	}

	restConfig, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig %q: %v", kubeconfig, err)
	}
	return restConfig, nil
}

// NewKubernetesWithClients creates a Kubernetes backend using the given clients. The metrics client
// is optional.
func NewKubernetesWithClients(logger *slog.Logger, c config.Orchestrator, client kubernetes.Interface, metricsClient metricsclientset.Interface) *Kubernetes {
	return &Kubernetes{
		logger:        logger,
		client:        client,
		metricsClient: metricsClient,
		namespace:     c.Namespace,
		podLabel:      c.PodLabel,
		redisImage:    c.RedisImage,
		proxyImage:    c.ProxyImage,
		deployTimeout: c.DeployTimeout,
	}
}

// Kubernetes deploys every unit as a single replica Deployment. Pods are groups of Kubernetes nodes
// sharing the same value of the pod label.
type Kubernetes struct {
	logger        *slog.Logger
	client        kubernetes.Interface
	metricsClient metricsclientset.Interface
	namespace     string
	podLabel      string
	redisImage    string
	proxyImage    string
	deployTimeout time.Duration
}

func (k *Kubernetes) DeployNode(ctx context.Context, request NodeRequest) (Unit, error) {
	image := request.Image
	if image == "" {
		image = k.redisImage
	}

	container := corev1.Container{
		Name:    "redis",
		Image:   image,
		Command: nodeCommand(request),
		Ports: []corev1.ContainerPort{
			{Name: "redis", ContainerPort: int32(request.Port), Protocol: corev1.ProtocolTCP},
		},
	}
	if request.MicroPlan {
		container.Resources = corev1.ResourceRequirements{
			Limits: corev1.ResourceList{
				corev1.ResourceCPU:    *resource.NewMilliQuantity(cpuSliceMillis, resource.DecimalSI),
				corev1.ResourceMemory: resource.MustParse(microPlanMemory),
			},
		}
	}

	return k.deploy(ctx, model.NodeKind, request.Pod, request.Host, request.NetMode, request.Port, container)
}

func (k *Kubernetes) DeployProxy(ctx context.Context, request ProxyRequest) (Unit, error) {
	container := corev1.Container{
		Name:  "proxy",
		Image: k.proxyImage,
		Args:  proxyCommand(request),
		Ports: []corev1.ContainerPort{
			{Name: "proxy", ContainerPort: int32(request.Port), Protocol: corev1.ProtocolTCP},
		},
	}
	if request.MicroPlanCPUSlice != nil {
		container.Resources = corev1.ResourceRequirements{
			Limits: corev1.ResourceList{
				corev1.ResourceCPU: *resource.NewMilliQuantity(int64(*request.MicroPlanCPUSlice*cpuSliceMillis), resource.DecimalSI),
			},
		}
	}

	return k.deploy(ctx, model.ProxyKind, request.Pod, request.Host, request.NetMode, request.Port, container)
}

func (k *Kubernetes) deploy(ctx context.Context, kind model.UnitKind, pod, host, netMode string, port int, container corev1.Container) (Unit, error) {
	name := unitName(kind, pod, port)
	podLabels := map[string]string{
		LabelName:      "redis",
		LabelInstance:  name,
		LabelManagedBy: managedBy,
		LabelKind:      string(kind),
		LabelPort:      strconv.Itoa(port),
	}

	nodeSelector := map[string]string{k.podLabel: pod}
	if host != "" {
		nodeSelector[hostnameLabel] = host
	}

	replicas := int32(1)
	deployment := &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: k.namespace,
			Labels:    podLabels,
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{
				MatchLabels: map[string]string{LabelInstance: name},
			},
			Strategy: appsv1.DeploymentStrategy{
				// a unit binds a fixed port so two replicas can't overlap
				Type: appsv1.RecreateDeploymentStrategyType,
			},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: podLabels,
				},
				Spec: corev1.PodSpec{
					NodeSelector: nodeSelector,
					HostNetwork:  netMode == HostNetwork,
					Containers:   []corev1.Container{container},
				},
			},
		},
	}

	_, err := k.client.AppsV1().Deployments(k.namespace).Create(ctx, deployment, metav1.CreateOptions{})
	if err != nil {
		return Unit{}, fmt.Errorf("failed to create deployment %q: %v", name, err)
	}

	running, err := k.waitForPod(ctx, name)
	if err != nil {
		// the deployment never came up so nobody is going to register it
		deleteErr := k.deleteDeployment(context.WithoutCancel(ctx), name)
		return Unit{}, errors.Join(fmt.Errorf("deployment %q never reported an address: %v", name, err), deleteErr)
	}

	address := running.Status.PodIP
	if netMode == HostNetwork {
		address = running.Status.HostIP
	}

	k.logger.InfoContext(ctx, "Deployed unit", "name", name, "kind", kind, "address", address, "port", port, "node", running.Spec.NodeName)

	return Unit{
		ContainerID: name,
		Kind:        kind,
		Address:     address,
		Port:        port,
		Metadata: map[string]string{
			"pod":       pod,
			"node":      running.Spec.NodeName,
			"namespace": k.namespace,
			"image":     container.Image,
		},
	}, nil
}

func (k *Kubernetes) waitForPod(ctx context.Context, name string) (corev1.Pod, error) {
	var running corev1.Pod
	selector := labels.SelectorFromSet(labels.Set{LabelInstance: name}).String()
	err := wait.PollUntilContextTimeout(ctx, pollInterval, k.deployTimeout, true, func(ctx context.Context) (bool, error) {
		pods, err := k.client.CoreV1().Pods(k.namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
		if err != nil {
			return false, err
		}
		for _, pod := range pods.Items {
			if pod.Status.PodIP != "" {
				running = pod
				return true, nil
			}
		}
		return false, nil
	})
	return running, err
}

func (k *Kubernetes) deleteDeployment(ctx context.Context, name string) error {
	propagation := metav1.DeletePropagationForeground
	err := k.client.AppsV1().Deployments(k.namespace).Delete(ctx, name, metav1.DeleteOptions{PropagationPolicy: &propagation})
	if err != nil && !k8serrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete deployment %q: %v", name, err)
	}
	return nil
}

// Remove deletes the deployments of the given units. Units which don't exist are ignored.
func (k *Kubernetes) Remove(ctx context.Context, containerIDs []string) error {
	var errs []error
	for _, id := range containerIDs {
		if err := k.deleteDeployment(ctx, id); err != nil {
			errs = append(errs, err)
			continue
		}
		k.logger.InfoContext(ctx, "Removed unit", "name", id)
	}
	return errors.Join(errs...)
}

// Revive restarts the pod of a unit the same way kubectl rollout restart does.
func (k *Kubernetes) Revive(ctx context.Context, containerID string) error {
	deployments := k.client.AppsV1().Deployments(k.namespace)
	deployment, err := deployments.Get(ctx, containerID, metav1.GetOptions{})
	if err != nil {
		if k8serrors.IsNotFound(err) {
			return errdef.NewNotFound("deployment %q not found", containerID)
		}
		return fmt.Errorf("failed to get deployment %q: %v", containerID, err)
	}

	if deployment.Spec.Template.Annotations == nil {
		deployment.Spec.Template.Annotations = map[string]string{}
	}
	deployment.Spec.Template.Annotations[restartedAtAnnotation] = time.Now().Format(time.RFC3339)

	_, err = deployments.Update(ctx, deployment, metav1.UpdateOptions{})
	if err != nil {
		return fmt.Errorf("failed to restart deployment %q: %v", containerID, err)
	}

	k.logger.InfoContext(ctx, "Revived unit", "name", containerID)
	return nil
}

// ListPods returns the distinct values of the pod label, sorted.
func (k *Kubernetes) ListPods(ctx context.Context) ([]string, error) {
	nodes, err := k.client.CoreV1().Nodes().List(ctx, metav1.ListOptions{LabelSelector: k.podLabel})
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %v", err)
	}

	var pods []string
	for _, node := range nodes.Items {
		pod := node.Labels[k.podLabel]
		if pod != "" && !slices.Contains(pods, pod) {
			pods = append(pods, pod)
		}
	}
	slices.Sort(pods)
	return pods, nil
}

// ListPodHosts returns the Kubernetes nodes of a pod. A host is alive if its node is ready.
func (k *Kubernetes) ListPodHosts(ctx context.Context, pod string) ([]Host, error) {
	selector := labels.SelectorFromSet(labels.Set{k.podLabel: pod}).String()
	nodes, err := k.client.CoreV1().Nodes().List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes of pod %q: %v", pod, err)
	}

	hosts := make([]Host, 0, len(nodes.Items))
	for _, node := range nodes.Items {
		hosts = append(hosts, Host{
			Name:  node.Name,
			Addr:  internalIP(node),
			Alive: isReady(node),
		})
	}
	return hosts, nil
}

func internalIP(node corev1.Node) string {
	for _, address := range node.Status.Addresses {
		if address.Type == corev1.NodeInternalIP {
			return address.Address
		}
	}
	return ""
}

func isReady(node corev1.Node) bool {
	for _, condition := range node.Status.Conditions {
		if condition.Type == corev1.NodeReady {
			return condition.Status == corev1.ConditionTrue
		}
	}
	return false
}

// ListUnits returns the units deployed by this service. Usage is set if the metrics API is
// available.
func (k *Kubernetes) ListUnits(ctx context.Context) ([]Unit, error) {
	selector := labels.SelectorFromSet(labels.Set{LabelManagedBy: managedBy}).String()
	deployments, err := k.client.AppsV1().Deployments(k.namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %v", err)
	}

	pods, err := k.client.CoreV1().Pods(k.namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods: %v", err)
	}

	podsByUnit := make(map[string]corev1.Pod, len(pods.Items))
	for _, pod := range pods.Items {
		podsByUnit[pod.Labels[LabelInstance]] = pod
	}

	usage := k.usage(ctx, selector)

	units := make([]Unit, 0, len(deployments.Items))
	for _, deployment := range deployments.Items {
		name := deployment.Name
		port, _ := strconv.Atoi(deployment.Labels[LabelPort])
		unit := Unit{
			ContainerID: name,
			Kind:        model.UnitKind(deployment.Labels[LabelKind]),
			Port:        port,
			Metadata: map[string]string{
				"namespace": k.namespace,
			},
		}
		if pod, ok := podsByUnit[name]; ok {
			unit.Address = pod.Status.PodIP
			if pod.Spec.HostNetwork {
				unit.Address = pod.Status.HostIP
			}
			unit.Metadata["node"] = pod.Spec.NodeName
			unit.Metadata["phase"] = string(pod.Status.Phase)
		}
		if u, ok := usage[name]; ok {
			unit.Usage = &u
		}
		units = append(units, unit)
	}
	return units, nil
}

// usage sums the container metrics of every pod. Failures are logged since the metrics server is
// optional.
func (k *Kubernetes) usage(ctx context.Context, selector string) map[string]Usage {
	if k.metricsClient == nil {
		return nil
	}

	metrics, err := k.metricsClient.MetricsV1beta1().PodMetricses(k.namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		k.logger.WarnContext(ctx, "Failed to list pod metrics", "error", err)
		return nil
	}

	usage := make(map[string]Usage, len(metrics.Items))
	for _, podMetrics := range metrics.Items {
		cpu := resource.NewMilliQuantity(0, resource.DecimalSI)
		memory := resource.NewQuantity(0, resource.BinarySI)
		for _, container := range podMetrics.Containers {
			cpu.Add(*container.Usage.Cpu())
			memory.Add(*container.Usage.Memory())
		}
		usage[podMetrics.Labels[LabelInstance]] = Usage{
			CPU:    cpu.String(),
			Memory: memory.String(),
		}
	}
	return usage
}
