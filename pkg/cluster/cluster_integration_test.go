package cluster_test

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/redisctl/im-redis/pkg/cluster"
	"github.com/redisctl/im-redis/pkg/inttest"
	"github.com/redisctl/im-redis/pkg/model"
	"github.com/redisctl/im-redis/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClusterHandler(t *testing.T) {
	t.Parallel()

	db := inttest.SetupDB(t)

	registryService := registry.NewService(registry.NewRepository(db))
	clusterService := cluster.NewService(cluster.NewRepository(db))

	var nodes []registry.Entry
	for i, port := range []int{6380, 6379, 6381} {
		node, err := registryService.Create(context.Background(), registry.Entry{
			Kind:        model.NodeKind,
			Host:        "10.0.0.5",
			Port:        port,
			ContainerID: fmt.Sprintf("node-%d", i),
		})
		require.NoError(t, err)
		nodes = append(nodes, node)
	}

	client := inttest.SetupHTTPServer(t, func(engine *gin.Engine) {
		handler := cluster.NewHandler(clusterService)
		cluster.Routes(engine, TestAuthenticationMiddleware{}, TestAccessControlMiddleware{}, handler)
	})

	var created model.Cluster
	t.Run("Create", func(t *testing.T) {
		requestBody := strings.NewReader(`{"description": "cache"}`)

		client.PostJSON(t, "/clusters", requestBody, &created)

		assert.NotZero(t, created.ID)
		assert.Equal(t, "cache", created.Description)
	})

	t.Run("CreateWithForm", func(t *testing.T) {
		var c model.Cluster
		client.PostFormJSON(t, "/clusters", url.Values{"description": {"sessions"}}, http.StatusCreated, &c)

		assert.Equal(t, "sessions", c.Description)
	})

	t.Run("AddNode", func(t *testing.T) {
		path := fmt.Sprintf("/clusters/%d/nodes", created.ID)
		for _, node := range nodes {
			var c model.Cluster
			client.PostJSON(t, path, strings.NewReader(fmt.Sprintf(`{"nodeId": %d}`, node.ID)), &c)
		}

		var c model.Cluster
		client.GetJSON(t, fmt.Sprintf("/clusters/%d", created.ID), &c)

		require.Len(t, c.Nodes, 3)
		assert.Equal(t, nodes[0].ID, c.Nodes[0].ID)
		first, ok := c.FirstMember()
		require.True(t, ok)
		assert.Equal(t, 6380, first.Port)
	})

	t.Run("AddNodeOfOtherCluster", func(t *testing.T) {
		other, err := clusterService.Create(context.Background(), "other")
		require.NoError(t, err)

		path := fmt.Sprintf("/clusters/%d/nodes", other.ID)
		client.Do(t, http.MethodPost, path, strings.NewReader(fmt.Sprintf(`{"nodeId": %d}`, nodes[0].ID)), http.StatusConflict, inttest.WithHeader("Content-Type", "application/json"))
	})

	t.Run("FindNotFound", func(t *testing.T) {
		client.Do(t, http.MethodGet, "/clusters/999", nil, http.StatusNotFound)
	})

	t.Run("DeleteWithMembers", func(t *testing.T) {
		client.Do(t, http.MethodDelete, fmt.Sprintf("/clusters/%d", created.ID), nil, http.StatusConflict)
	})

	t.Run("RemoveNode", func(t *testing.T) {
		for _, node := range nodes {
			client.Do(t, http.MethodDelete, fmt.Sprintf("/clusters/%d/nodes/%d", created.ID, node.ID), nil, http.StatusOK)
		}

		var c model.Cluster
		client.GetJSON(t, fmt.Sprintf("/clusters/%d", created.ID), &c)

		assert.Empty(t, c.Nodes)
	})

	t.Run("Delete", func(t *testing.T) {
		client.Delete(t, fmt.Sprintf("/clusters/%d", created.ID))

		client.Do(t, http.MethodGet, fmt.Sprintf("/clusters/%d", created.ID), nil, http.StatusNotFound)
	})

	t.Run("FindAll", func(t *testing.T) {
		var clusters []model.Cluster
		client.GetJSON(t, "/clusters", &clusters)

		assert.Len(t, clusters, 2)
	})
}

type TestAuthenticationMiddleware struct{}

func (t TestAuthenticationMiddleware) TokenAuthentication(c *gin.Context) {}

type TestAccessControlMiddleware struct{}

func (t TestAccessControlMiddleware) RequireOperator(c *gin.Context) {
	c.Next()
}
