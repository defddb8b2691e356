package containerize_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/redisctl/im-redis/pkg/audit"
	"github.com/redisctl/im-redis/pkg/cluster"
	"github.com/redisctl/im-redis/pkg/containerize"
	"github.com/redisctl/im-redis/pkg/image"
	"github.com/redisctl/im-redis/pkg/inttest"
	"github.com/redisctl/im-redis/pkg/model"
	"github.com/redisctl/im-redis/pkg/orchestrator"
	"github.com/redisctl/im-redis/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainerizeHandler(t *testing.T) {
	t.Parallel()

	db := inttest.SetupDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	registryService := registry.NewService(registry.NewRepository(db))
	clusterService := cluster.NewService(cluster.NewRepository(db))
	imageService := image.NewService(image.NewRepository(db))
	auditService := audit.NewService(logger, audit.NewRepository(db), audit.NewBroker(), nil)
	fakeOrchestrator := &fakeOrchestrator{address: "10.0.0.5"}
	notifier := &recordingNotifier{}

	service := containerize.NewService(logger, fakeOrchestrator, registryService, clusterService, imageService, auditService, notifier, noDetails{})

	client := inttest.SetupHTTPServer(t, func(engine *gin.Engine) {
		containerize.Routes(engine, testAuthenticationMiddleware{}, testAccessControlMiddleware{}, containerize.NewHandler(service))
	})

	var node orchestrator.Unit
	t.Run("CreateNode", func(t *testing.T) {
		client.PostFormJSON(t, "/containerize/nodes", url.Values{"pod": {"pod-a"}, "port": {"6400"}, "aof": {"y"}}, http.StatusCreated, &node)

		assert.Equal(t, "10.0.0.5", node.Address)
		assert.Equal(t, 6400, node.Port)
		assert.Equal(t, model.NodeKind, node.Kind)
		entry, err := registryService.FindByContainerID(context.Background(), model.NodeKind, node.ContainerID)
		require.NoError(t, err)
		assert.Equal(t, 6400, entry.Port)
	})

	t.Run("CreateNodeTwice", func(t *testing.T) {
		client.Do(t, http.MethodPost, "/containerize/nodes", strings.NewReader(url.Values{"pod": {"pod-a"}, "port": {"6400"}}.Encode()), http.StatusConflict, inttest.WithHeader("Content-Type", "application/x-www-form-urlencoded"))

		removed := fakeOrchestrator.removedIDs()
		require.Len(t, removed, 1)
		assert.NotEqual(t, node.ContainerID, removed[0])
	})

	t.Run("CreateNodeWithInvalidPort", func(t *testing.T) {
		deployed := fakeOrchestrator.deployCount()

		client.Do(t, http.MethodPost, "/containerize/nodes", strings.NewReader(`{"pod": "pod-a", "port": 8000}`), http.StatusBadRequest, inttest.WithHeader("Content-Type", "application/json"))

		assert.Equal(t, deployed, fakeOrchestrator.deployCount())
	})

	var c model.Cluster
	t.Run("CreateProxyForEmptyCluster", func(t *testing.T) {
		var err error
		c, err = clusterService.Create(context.Background(), "cache")
		require.NoError(t, err)

		body := url.Values{"pod": {"pod-a"}, "cluster_id": {fmt.Sprint(c.ID)}, "threads": {"2"}}.Encode()
		client.Do(t, http.MethodPost, "/containerize/proxies", strings.NewReader(body), http.StatusBadRequest, inttest.WithHeader("Content-Type", "application/x-www-form-urlencoded"))
	})

	var proxy orchestrator.Unit
	t.Run("CreateProxy", func(t *testing.T) {
		entry, err := registryService.FindByContainerID(context.Background(), model.NodeKind, node.ContainerID)
		require.NoError(t, err)
		_, err = clusterService.AddNode(context.Background(), c.ID, entry.ID)
		require.NoError(t, err)

		client.PostFormJSON(t, "/containerize/proxies", url.Values{"pod": {"pod-a"}, "cluster_id": {fmt.Sprint(c.ID)}, "threads": {"2"}}, http.StatusCreated, &proxy)

		assert.Equal(t, 8889, proxy.Port)
		assert.Equal(t, []string{"10.0.0.5:8889 -> 10.0.0.5:6400"}, notifier.notifications())
	})

	t.Run("ReviveProxy", func(t *testing.T) {
		client.Do(t, http.MethodPost, "/containerize/revive", strings.NewReader(url.Values{"id": {proxy.ContainerID}}.Encode()), http.StatusOK, inttest.WithHeader("Content-Type", "application/x-www-form-urlencoded"))

		assert.Len(t, notifier.notifications(), 2)
	})

	t.Run("ReviveNode", func(t *testing.T) {
		client.Do(t, http.MethodPost, "/containerize/revive", strings.NewReader(url.Values{"id": {node.ContainerID}}.Encode()), http.StatusOK, inttest.WithHeader("Content-Type", "application/x-www-form-urlencoded"))

		assert.Len(t, notifier.notifications(), 2)
	})

	t.Run("FindProxies", func(t *testing.T) {
		var proxies []registry.Entry
		client.GetJSON(t, "/containerize/proxies", &proxies)

		require.Len(t, proxies, 1)
		assert.Equal(t, proxy.ContainerID, proxies[0].ContainerID)
	})

	t.Run("RemoveProxy", func(t *testing.T) {
		client.Do(t, http.MethodPost, "/containerize/remove", strings.NewReader(url.Values{"id": {proxy.ContainerID}, "type": {"proxy"}}.Encode()), http.StatusAccepted, inttest.WithHeader("Content-Type", "application/x-www-form-urlencoded"))

		_, err := registryService.FindByContainerID(context.Background(), model.ProxyKind, proxy.ContainerID)
		require.Error(t, err)
		assert.Contains(t, fakeOrchestrator.removedIDs(), proxy.ContainerID)
	})

	t.Run("RemoveUnknown", func(t *testing.T) {
		client.Do(t, http.MethodPost, "/containerize/remove", strings.NewReader(url.Values{"id": {"unknown"}, "type": {"node"}}.Encode()), http.StatusNotFound, inttest.WithHeader("Content-Type", "application/x-www-form-urlencoded"))
	})

	t.Run("Audits", func(t *testing.T) {
		audits, err := auditService.FindAll(context.Background(), 0, 10)
		require.NoError(t, err)

		require.Len(t, audits, 3)
		assert.Equal(t, model.AuditEventDelete, audits[0].Event)
		assert.Equal(t, 8889, audits[0].Port)
		assert.Equal(t, model.AuditEventCreate, audits[1].Event)
		assert.Equal(t, 8889, audits[1].Port)
		assert.Equal(t, model.AuditEventCreate, audits[2].Event)
		assert.Equal(t, 6400, audits[2].Port)
	})
}

// fakeOrchestrator deploys every unit to the same address using the requested port.
type fakeOrchestrator struct {
	address string

	mu       sync.Mutex
	deployed int
	removed  []string
}

func (f *fakeOrchestrator) deploy(port int) orchestrator.Unit {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deployed++
	return orchestrator.Unit{ContainerID: fmt.Sprintf("container-%d", f.deployed), Address: f.address, Port: port}
}

func (f *fakeOrchestrator) deployCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deployed
}

func (f *fakeOrchestrator) removedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.removed...)
}

func (f *fakeOrchestrator) DeployNode(ctx context.Context, request orchestrator.NodeRequest) (orchestrator.Unit, error) {
	return f.deploy(request.Port), nil
}

func (f *fakeOrchestrator) DeployProxy(ctx context.Context, request orchestrator.ProxyRequest) (orchestrator.Unit, error) {
	return f.deploy(request.Port), nil
}

func (f *fakeOrchestrator) Remove(ctx context.Context, containerIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, containerIDs...)
	return nil
}

func (f *fakeOrchestrator) Revive(ctx context.Context, containerID string) error {
	return nil
}

func (f *fakeOrchestrator) ListUnits(ctx context.Context) ([]orchestrator.Unit, error) {
	return nil, nil
}

func (f *fakeOrchestrator) ListPods(ctx context.Context) ([]string, error) {
	return []string{"pod-a"}, nil
}

func (f *fakeOrchestrator) ListPodHosts(ctx context.Context, pod string) ([]orchestrator.Host, error) {
	return nil, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (r *recordingNotifier) SetRemotes(ctx context.Context, proxyHost string, proxyPort int, remoteHost string, remotePort int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, fmt.Sprintf("%s:%d -> %s:%d", proxyHost, proxyPort, remoteHost, remotePort))
}

func (r *recordingNotifier) notifications() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent...)
}

type noDetails struct{}

func (noDetails) Details(ctx context.Context, addrs []string) (map[string]map[string]any, error) {
	return map[string]map[string]any{}, nil
}

func (noDetails) Forget(ctx context.Context, addr string) error {
	return nil
}

type testAuthenticationMiddleware struct{}

func (t testAuthenticationMiddleware) TokenAuthentication(c *gin.Context) {}

type testAccessControlMiddleware struct{}

func (t testAccessControlMiddleware) RequireOperator(c *gin.Context) {
	c.Next()
}
