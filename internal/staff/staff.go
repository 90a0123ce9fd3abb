// Package staff carries the acting staff member through request context.
// Identity and capabilities are resolved upstream of the core; the state
// engine only checks the capability set it is handed.
package staff

import (
	"context"
	"strings"
)

// Capabilities understood by the state engine.
const (
	CapVoidItem        = "void_item"
	CapCompItem        = "comp_item"
	CapApplyDiscount   = "apply_discount"
	CapManagerOverride = "manager_override"
)

// Actor is the staff member performing a mutating action.
type Actor struct {
	ID           string
	Name         string
	Role         string
	Capabilities map[string]struct{}
}

// Can reports whether the actor holds the capability. Manager override
// implies every other capability.
func (a Actor) Can(capability string) bool {
	if a.Capabilities == nil {
		return false
	}
	if _, ok := a.Capabilities[CapManagerOverride]; ok {
		return true
	}
	_, ok := a.Capabilities[capability]
	return ok
}

// NewActor builds an Actor from a comma-separated capability list.
func NewActor(id, name, role, caps string) Actor {
	set := map[string]struct{}{}
	for _, c := range strings.Split(caps, ",") {
		c = strings.TrimSpace(strings.ToLower(c))
		if c != "" {
			set[c] = struct{}{}
		}
	}
	return Actor{ID: strings.TrimSpace(id), Name: strings.TrimSpace(name), Role: strings.TrimSpace(role), Capabilities: set}
}

type ctxKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	return a, ok
}
