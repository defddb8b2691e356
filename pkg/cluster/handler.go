package cluster

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redisctl/im-redis/internal/handler"
)

func NewHandler(clusterService Service) Handler {
	return Handler{clusterService}
}

type Handler struct {
	clusterService Service
}

type CreateClusterRequest struct {
	Description string `json:"description" form:"description" binding:"required"`
}

// Create cluster
func (h Handler) Create(c *gin.Context) {
	// swagger:route POST /clusters clusterCreate
	//
	// Create cluster
	//
	// Create an empty Redis cluster. Nodes are added to it afterwards.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   201: Cluster
	//   400: Error
	//   401: Error
	//   403: Error
	//   415: Error
	var request CreateClusterRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	cluster, err := h.clusterService.Create(c.Request.Context(), request.Description)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, cluster)
}

// Find cluster
func (h Handler) Find(c *gin.Context) {
	// swagger:route GET /clusters/{id} findClusterById
	//
	// Find cluster
	//
	// Find a cluster by its id. Member nodes are ordered by id.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: Cluster
	//   400: Error
	//   401: Error
	//   403: Error
	//   404: Error
	id, err := handler.GetPathParameter(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	cluster, err := h.clusterService.Find(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, cluster)
}

// FindAll clusters
func (h Handler) FindAll(c *gin.Context) {
	// swagger:route GET /clusters findAllClusters
	//
	// Find all clusters
	//
	// Find all clusters with their member nodes.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: Clusters
	//   401: Error
	//   403: Error
	clusters, err := h.clusterService.FindAll(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, clusters)
}

// Delete cluster
func (h Handler) Delete(c *gin.Context) {
	// swagger:route DELETE /clusters/{id} clusterDelete
	//
	// Delete cluster
	//
	// Delete a cluster without member nodes. Its proxies are deleted with it.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   202:
	//   400: Error
	//   401: Error
	//   403: Error
	//   404: Error
	//   409: Error
	id, err := handler.GetPathParameter(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	err = h.clusterService.Delete(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusAccepted)
}

type AddNodeRequest struct {
	NodeID uint `json:"nodeId" form:"nodeId" binding:"required"`
}

// AddNode to cluster
func (h Handler) AddNode(c *gin.Context) {
	// swagger:route POST /clusters/{id}/nodes clusterAddNode
	//
	// Add node
	//
	// Add a registered node to a cluster.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   201: Cluster
	//   400: Error
	//   401: Error
	//   403: Error
	//   404: Error
	//   409: Error
	//   415: Error
	id, err := handler.GetPathParameter(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	var request AddNodeRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	cluster, err := h.clusterService.AddNode(c.Request.Context(), id, request.NodeID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, cluster)
}

// RemoveNode from cluster
func (h Handler) RemoveNode(c *gin.Context) {
	// swagger:route DELETE /clusters/{id}/nodes/{nodeId} clusterRemoveNode
	//
	// Remove node
	//
	// Remove a node from a cluster. The node stays registered.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: Cluster
	//   400: Error
	//   401: Error
	//   403: Error
	//   404: Error
	id, err := handler.GetPathParameter(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	nodeID, err := handler.GetPathParameter(c, "nodeId")
	if err != nil {
		_ = c.Error(err)
		return
	}

	cluster, err := h.clusterService.RemoveNode(c.Request.Context(), id, nodeID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, cluster)
}
