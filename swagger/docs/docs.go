// Package docs holds swagger definitions shared by every route.
package docs

// swagger:response
type Error struct {
	// The error message
	//in: body
	Message string
}
