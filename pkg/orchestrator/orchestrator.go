// Package orchestrator runs Redis nodes and proxies as containers. Two backends are available, one
// deploying to Kubernetes and one deploying to a single Docker daemon.
//
// Hosts are grouped into pods. A unit is deployed to a pod, optionally pinned to one of its hosts,
// and is reachable at the address reported once it runs.
package orchestrator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/redisctl/im-redis/pkg/model"
)

const (
	LabelName      = "app.kubernetes.io/name"
	LabelInstance  = "app.kubernetes.io/instance"
	LabelManagedBy = "app.kubernetes.io/managed-by"
	// LabelKind is either node or proxy.
	LabelKind = "redisctl.io/kind"
	// LabelPort is the port the unit listens on.
	LabelPort = "redisctl.io/port"

	managedBy = "im-redis"

	// HostNetwork makes the unit share the network namespace of its host.
	HostNetwork = "host"
)

// NodeRequest describes a Redis node to deploy.
type NodeRequest struct {
	Pod string `json:"pod"`
	// AOF enables the append only file.
	AOF     bool   `json:"aof"`
	NetMode string `json:"netMode,omitempty"`
	// Cluster enables Redis cluster mode.
	Cluster bool `json:"cluster"`
	// Host pins the node to a host of the pod.
	Host      string `json:"host,omitempty"`
	Port      int    `json:"port"`
	Image     string `json:"image,omitempty"`
	MicroPlan bool   `json:"microPlan"`
}

// ProxyRequest describes a cluster proxy to deploy.
type ProxyRequest struct {
	Pod       string `json:"pod"`
	Threads   int    `json:"threads"`
	ReadSlave bool   `json:"readSlave"`
	NetMode   string `json:"netMode,omitempty"`
	Host      string `json:"host,omitempty"`
	Port      int    `json:"port"`
	// MicroPlanCPUSlice limits the proxy to the given number of cpu slices. Threads is ignored if
	// set.
	MicroPlanCPUSlice *int `json:"microPlanCpuSlice,omitempty"`
	ClusterID         uint `json:"clusterId"`
}

// Unit is a running container.
// swagger:model
type Unit struct {
	ContainerID string         `json:"containerId"`
	Kind        model.UnitKind `json:"kind,omitempty"`
	// Address the unit is reachable at.
	Address string `json:"address"`
	// Port is 0 if the backend doesn't know the port the unit listens on.
	Port     int               `json:"port"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Usage    *Usage            `json:"usage,omitempty"`
}

// Usage is the resource usage of a unit.
type Usage struct {
	CPU    string `json:"cpu"`
	Memory string `json:"memory"`
}

// Host of a pod.
// swagger:model
type Host struct {
	Name  string `json:"name"`
	Addr  string `json:"addr"`
	Alive bool   `json:"alive"`
}

const (
	// cpuSliceMillis is the cpu share of a single micro plan slice.
	cpuSliceMillis = 10
	// microPlanMemory is the memory limit of a micro plan node.
	microPlanMemory = "64Mi"
)

// unitName returns a unique name which is valid as a Kubernetes object and a Docker container
// name.
func unitName(kind model.UnitKind, pod string, port int) string {
	prefix := "redis"
	if kind == model.ProxyKind {
		prefix = "proxy"
	}
	suffix := strings.Split(uuid.NewString(), "-")[0]
	name := fmt.Sprintf("%s-%s-%d-%s", prefix, slug.Make(pod), port, suffix)
	// Kubernetes names are limited to 63 characters
	if len(name) > 63 {
		trimmed := strings.TrimRight(slug.Make(pod)[:63-len(prefix)-len(suffix)-8], "-")
		name = fmt.Sprintf("%s-%s-%d-%s", prefix, trimmed, port, suffix)
	}
	return name
}

func nodeCommand(request NodeRequest) []string {
	command := []string{"redis-server", "--port", strconv.Itoa(request.Port)}
	if request.AOF {
		command = append(command, "--appendonly", "yes")
	}
	if request.Cluster {
		command = append(command, "--cluster-enabled", "yes")
	}
	if request.MicroPlan {
		command = append(command, "--maxmemory", "48mb")
	}
	return command
}

func proxyCommand(request ProxyRequest) []string {
	threads := request.Threads
	if request.MicroPlanCPUSlice != nil || threads < 1 {
		threads = 1
	}
	command := []string{"--bind", strconv.Itoa(request.Port), "--threads", strconv.Itoa(threads)}
	if request.ReadSlave {
		command = append(command, "--read-slave")
	}
	return command
}
