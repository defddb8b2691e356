package model

import "time"

type ImageKind string

const (
	RedisImage ImageKind = "redis"
	ProxyImage ImageKind = "proxy"
)

// Image is a container image which can be used when deploying a unit.
// swagger:model
type Image struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	CreatedAt   time.Time `json:"createdAt"`
	Kind        ImageKind `json:"kind" gorm:"index"`
	Name        string    `json:"name" gorm:"uniqueIndex"`
	Description string    `json:"description"`
}
