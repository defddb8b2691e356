package model

import "time"

// Cluster is a Redis cluster. Its member nodes are ordered by id, the first member is the node
// proxies are pointed at.
// swagger:model
type Cluster struct {
	// required: true
	ID uint `json:"id" gorm:"primaryKey"`
	// required: true
	CreatedAt time.Time `json:"createdAt"`
	// required: true
	UpdatedAt time.Time `json:"updatedAt"`
	// required: true
	Description string  `json:"description"`
	Nodes       []Node  `json:"nodes,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Proxies     []Proxy `json:"proxies,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// FirstMember returns the member with the lowest id.
func (c Cluster) FirstMember() (Node, bool) {
	if len(c.Nodes) == 0 {
		return Node{}, false
	}

	first := c.Nodes[0]
	for _, n := range c.Nodes[1:] {
		if n.ID < first.ID {
			first = n
		}
	}
	return first, true
}
