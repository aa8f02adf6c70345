// Package requestctx carries the acting staff member and hospital tenant
// through every core operation. Nothing in the domain layer reads ambient
// session state; the context value set by the auth and hospital middleware
// is the only channel.
package requestctx

import (
	"context"
)

type contextKey string

const requestContextKey contextKey = "request_context"

// RequestContext identifies who is acting and on behalf of which hospital.
type RequestContext struct {
	ActorID    string
	HospitalID string
	Roles      []string
}

// WithContext returns a child context carrying rc.
func WithContext(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey, rc)
}

// FromContext extracts the RequestContext. The zero value is returned when
// no middleware has populated it (tests, CLI commands).
func FromContext(ctx context.Context) RequestContext {
	rc, _ := ctx.Value(requestContextKey).(RequestContext)
	return rc
}

// HasRole reports whether the actor carries the given role.
func (rc RequestContext) HasRole(role string) bool {
	for _, r := range rc.Roles {
		if r == role {
			return true
		}
	}
	return false
}
