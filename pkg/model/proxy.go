package model

import (
	"fmt"
	"time"
)

// Proxy is a cluster proxy registered with the service. It forwards traffic to the members of its
// cluster.
// swagger:model
type Proxy struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	CreatedAt   time.Time `json:"createdAt"`
	Host        string    `json:"host" gorm:"not null;uniqueIndex:idx_proxy_address"`
	Port        int       `json:"port" gorm:"not null;uniqueIndex:idx_proxy_address"`
	ContainerID string    `json:"containerId" gorm:"not null;uniqueIndex"`
	ClusterID   uint      `json:"clusterId" gorm:"not null"`
}

func (p Proxy) Address() string {
	return fmt.Sprintf("%s:%d", p.Host, p.Port)
}
