package domain

import (
	"context"
	"net/http"
)

// Lifecycle hook names discovered on handler modules.
const (
	HookCreate  = "onCreate"
	HookDestroy = "onDestroy"
)

// HandlerFunc serves one request. A returned error is a handler runtime failure and
// is forwarded to the host's error channel.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// HookFunc is a no-argument lifecycle hook.
type HookFunc func(ctx context.Context) error

// Handler is a loaded, invocable handler and the resource it was loaded from.
type Handler struct {
	ID        string
	Runtime   string
	Serve     HandlerFunc
	OnCreate  HookFunc
	OnDestroy HookFunc
}

// Hooks returns the names of the lifecycle hooks the handler defines.
func (h *Handler) Hooks() []string {
	var hooks []string
	if h.OnCreate != nil {
		hooks = append(hooks, HookCreate)
	}
	if h.OnDestroy != nil {
		hooks = append(hooks, HookDestroy)
	}
	return hooks
}
