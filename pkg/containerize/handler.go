package containerize

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redisctl/im-redis/internal/errdef"
	"github.com/redisctl/im-redis/internal/handler"
	"github.com/redisctl/im-redis/pkg/model"
	"github.com/redisctl/im-redis/pkg/orchestrator"
	"github.com/redisctl/im-redis/pkg/registry"
)

func NewHandler(containerizeService containerizeService) Handler {
	return Handler{containerizeService}
}

type Handler struct {
	containerizeService containerizeService
}

type containerizeService interface {
	CreateNode(ctx context.Context, request orchestrator.NodeRequest) (orchestrator.Unit, error)
	CreateProxy(ctx context.Context, request orchestrator.ProxyRequest) (orchestrator.Unit, error)
	Revive(ctx context.Context, containerID string) error
	Remove(ctx context.Context, kind model.UnitKind, containerID string) error
	Overview(ctx context.Context) (Overview, error)
	FindNodes(ctx context.Context, offset, limit int) ([]NodeDetails, error)
	FindProxies(ctx context.Context, offset, limit int) ([]registry.Entry, error)
	FindHosts(ctx context.Context, pod string) ([]orchestrator.Host, error)
	FindUnits(ctx context.Context) ([]orchestrator.Unit, error)
}

const (
	checked   = "y"
	readSlave = "rs"
)

type CreateNodeRequest struct {
	Pod string `json:"pod" form:"pod" binding:"required"`
	// "y" enables the append only file
	AOF     string `json:"aof" form:"aof"`
	NetMode string `json:"netmode" form:"netmode"`
	// "y" enables cluster mode
	Cluster string `json:"cluster" form:"cluster"`
	Host    string `json:"host" form:"host"`
	// Defaults to 6379
	Port  int    `json:"port" form:"port"`
	Image string `json:"image" form:"image"`
	// "y" limits the memory of the node
	MicroPlan string `json:"micro_plan" form:"micro_plan"`
}

// CreateNode deploys a Redis node
func (h Handler) CreateNode(c *gin.Context) {
	// swagger:route POST /containerize/nodes containerizeCreateNode
	//
	// Deploy node
	//
	// Deploy a Redis node to a pod and register it. Ports are limited to 6000-7999.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   201: Unit
	//   400: Error
	//   401: Error
	//   403: Error
	//   409: Error
	//   415: Error
	var request CreateNodeRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	unit, err := h.containerizeService.CreateNode(c.Request.Context(), orchestrator.NodeRequest{
		Pod:       request.Pod,
		AOF:       request.AOF == checked,
		NetMode:   request.NetMode,
		Cluster:   request.Cluster == checked,
		Host:      request.Host,
		Port:      request.Port,
		Image:     request.Image,
		MicroPlan: request.MicroPlan == checked,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, unit)
}

type CreateProxyRequest struct {
	Pod       string `json:"pod" form:"pod" binding:"required"`
	ClusterID uint   `json:"cluster_id" form:"cluster_id" binding:"required"`
	// Required unless micro_plan is "y"
	Threads int `json:"threads" form:"threads"`
	// "y" limits the proxy to cpu_slice
	MicroPlan string `json:"micro_plan" form:"micro_plan"`
	CPUSlice  int    `json:"cpu_slice" form:"cpu_slice"`
	// "rs" lets the proxy read from replicas
	ReadSlave string `json:"read_slave" form:"read_slave"`
	NetMode   string `json:"netmode" form:"netmode"`
	Host      string `json:"host" form:"host"`
	// Defaults to 8889
	Port int `json:"port" form:"port"`
}

func (r CreateProxyRequest) toProxyRequest() (orchestrator.ProxyRequest, error) {
	proxyRequest := orchestrator.ProxyRequest{
		Pod:       r.Pod,
		ReadSlave: r.ReadSlave == readSlave,
		NetMode:   r.NetMode,
		Host:      r.Host,
		Port:      r.Port,
		ClusterID: r.ClusterID,
	}

	if r.MicroPlan == checked {
		if r.CPUSlice < 1 {
			return orchestrator.ProxyRequest{}, errdef.NewBadRequest("cpu_slice is required for a micro plan")
		}
		cpuSlice := r.CPUSlice
		proxyRequest.Threads = 1
		proxyRequest.MicroPlanCPUSlice = &cpuSlice
		return proxyRequest, nil
	}

	if r.Threads < 1 {
		return orchestrator.ProxyRequest{}, errdef.NewBadRequest("threads is required")
	}
	proxyRequest.Threads = r.Threads
	return proxyRequest, nil
}

// CreateProxy deploys a cluster proxy
func (h Handler) CreateProxy(c *gin.Context) {
	// swagger:route POST /containerize/proxies containerizeCreateProxy
	//
	// Deploy proxy
	//
	// Deploy a proxy for a cluster and register it. Ports are limited to 8000-9999. The cluster needs at least one node, the proxy is pointed at the first one shortly after it's deployed.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   201: Unit
	//   400: Error
	//   401: Error
	//   403: Error
	//   409: Error
	//   415: Error
	var request CreateProxyRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	proxyRequest, err := request.toProxyRequest()
	if err != nil {
		_ = c.Error(err)
		return
	}

	unit, err := h.containerizeService.CreateProxy(c.Request.Context(), proxyRequest)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, unit)
}

type ReviveRequest struct {
	ID string `json:"id" form:"id" binding:"required"`
}

// Revive restarts a unit
func (h Handler) Revive(c *gin.Context) {
	// swagger:route POST /containerize/revive containerizeRevive
	//
	// Revive unit
	//
	// Restart a unit. A revived proxy is pointed at the first node of its cluster again.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200:
	//   400: Error
	//   401: Error
	//   403: Error
	//   404: Error
	//   415: Error
	var request ReviveRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.containerizeService.Revive(c.Request.Context(), request.ID); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusOK)
}

type RemoveRequest struct {
	ID   string `json:"id" form:"id" binding:"required"`
	Type string `json:"type" form:"type" binding:"required,oneOf=node proxy"`
}

// Remove unregisters and destroys a unit
func (h Handler) Remove(c *gin.Context) {
	// swagger:route POST /containerize/remove containerizeRemove
	//
	// Remove unit
	//
	// Unregister a unit and destroy its container.
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
	//   415: Error
	var request RemoveRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.containerizeService.Remove(c.Request.Context(), model.UnitKind(request.Type), request.ID); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusAccepted)
}

// Overview lists pods, clusters and images
func (h Handler) Overview(c *gin.Context) {
	// swagger:route GET /containerize containerizeOverview
	//
	// Deployment overview
	//
	// List the pods, clusters and Redis images units can be deployed with.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: Overview
	//   400: Error
	//   401: Error
	//   403: Error
	overview, err := h.containerizeService.Overview(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, overview)
}

// FindNodes lists containerized nodes
func (h Handler) FindNodes(c *gin.Context) {
	// swagger:route GET /containerize/nodes containerizeFindNodes
	//
	// Find nodes
	//
	// Find containerized nodes with the details last polled from them. Pages hold 20 nodes.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: Nodes
	//   400: Error
	//   401: Error
	//   403: Error
	page, err := handler.GetPage(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	nodes, err := h.containerizeService.FindNodes(c.Request.Context(), page*handler.PageSize, handler.PageSize)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, nodes)
}

// FindProxies lists containerized proxies
func (h Handler) FindProxies(c *gin.Context) {
	// swagger:route GET /containerize/proxies containerizeFindProxies
	//
	// Find proxies
	//
	// Find containerized proxies. Pages hold 20 proxies.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: Proxies
	//   400: Error
	//   401: Error
	//   403: Error
	page, err := handler.GetPage(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	proxies, err := h.containerizeService.FindProxies(c.Request.Context(), page*handler.PageSize, handler.PageSize)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, proxies)
}

// FindHosts lists alive hosts of a pod
func (h Handler) FindHosts(c *gin.Context) {
	// swagger:route GET /containerize/hosts/{pod} containerizeFindHosts
	//
	// Find hosts
	//
	// Find the alive hosts of a pod.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: Hosts
	//   401: Error
	//   403: Error
	hosts, err := h.containerizeService.FindHosts(c.Request.Context(), c.Param("pod"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, hosts)
}

// FindUnits lists running units
func (h Handler) FindUnits(c *gin.Context) {
	// swagger:route GET /containerize/units containerizeFindUnits
	//
	// Find units
	//
	// Find the units the orchestrator runs including their resource usage if known.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: Units
	//   401: Error
	//   403: Error
	units, err := h.containerizeService.FindUnits(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, units)
}
