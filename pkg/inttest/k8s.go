package inttest

import (
	"testing"

	"github.com/orlangure/gnomock"
	"github.com/orlangure/gnomock/preset/k3s"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/kubernetes"
)

// SetupK8s creates an K8s container (using k3s).
func SetupK8s(t *testing.T) *K8sClient {
	t.Helper()
	SkipIfShort(t)

	container, err := gnomock.Start(
		k3s.Preset(
			k3s.WithVersion("v1.26.7-k3s1"),
		),
	)
	require.NoError(t, err, "failed to start k3s")
	t.Cleanup(func() { require.NoError(t, gnomock.Stop(container), "failed to stop k3s") })

	k8sConfig, err := k3s.Config(container)
	require.NoError(t, err, "failed to get k3s config from container")
	k8sClient, err := kubernetes.NewForConfig(k8sConfig)
	require.NoError(t, err, "failed to create k8s client")

	return &K8sClient{
		Client: k8sClient,
	}
}

// K8sClient allows making requests to K8s. It does so by wrapping a kubernetes.Clientset. Access
// the actual Clientset for specific use cases where our defaults don't work.
type K8sClient struct {
	Client *kubernetes.Clientset
}
