package model

import (
	"context"
	"slices"
)

const (
	AdministratorGroupName = "administrators"
	OperatorGroupName      = "operators"
)

// User is the caller as described by the claims of its access token. Users are not persisted by
// this service.
// swagger:model
type User struct {
	ID     uint    `json:"id"`
	Email  string  `json:"email"`
	Groups []Group `json:"groups"`
}

// Group a user is a member of
// swagger:model
type Group struct {
	Name string `json:"name"`
}

func (u *User) IsMemberOf(group string) bool {
	return slices.ContainsFunc(u.Groups, func(g Group) bool {
		return g.Name == group
	})
}

func (u *User) IsAdministrator() bool {
	return u.IsMemberOf(AdministratorGroupName)
}

// CanOperate reports whether the user may deploy, revive or remove containerized units.
func (u *User) CanOperate() bool {
	return u.IsAdministrator() || u.IsMemberOf(OperatorGroupName)
}

type userCtxKey int

var userKey userCtxKey

// NewContextWithUser returns a new [context.Context] that carries value user.
func NewContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUserFromContext returns the user stored in the ctx, if any.
func GetUserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userKey).(*User)
	return u, ok
}
