package model

import (
	"fmt"
	"time"
)

// UnitKind is the kind of containerized unit.
type UnitKind string

const (
	NodeKind  UnitKind = "node"
	ProxyKind UnitKind = "proxy"
)

func (k UnitKind) Valid() bool {
	return k == NodeKind || k == ProxyKind
}

// Node is a Redis server registered with the service.
// swagger:model
type Node struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	CreatedAt   time.Time `json:"createdAt"`
	Host        string    `json:"host" gorm:"not null;uniqueIndex:idx_node_address"`
	Port        int       `json:"port" gorm:"not null;uniqueIndex:idx_node_address"`
	ContainerID string    `json:"containerId" gorm:"not null;uniqueIndex"`
	ClusterID   *uint     `json:"clusterId"`
}

// Address returns host:port.
func (n Node) Address() string {
	return fmt.Sprintf("%s:%d", n.Host, n.Port)
}
