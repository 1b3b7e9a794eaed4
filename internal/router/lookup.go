package router

import (
	"context"
	"errors"
	"strings"

	"go.trai.ch/fsroute/internal/core/domain"
	"go.trai.ch/fsroute/internal/engine/resolution"
	"go.trai.ch/zerr"
)

// Lookup returns the first candidate of path that a request would be served by.
// Exec handlers are loaded only when shouldLoad is set; otherwise an exec candidate
// matches when its file exists. Lookup waits for the first reconciliation pass.
func (rt *Router) Lookup(ctx context.Context, path string, shouldLoad bool) (*domain.Match, error) {
	if rt.destroyed.Load() {
		return nil, zerr.Wrap(domain.ErrRouterDestroyed, "lookup")
	}

	select {
	case <-rt.engine.Initialized():
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return rt.lookup(path, func(c domain.Candidate, id string) (*domain.Match, error) {
		if !shouldLoad {
			return rt.matchCachedOrFile(c, id), nil
		}
		h, err := rt.handlers.GetOrLoad(ctx, id, rt.resolver.Resolve(c.Rel()).ImportStrategy)
		if errors.Is(err, domain.ErrResourceNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &domain.Match{Kind: domain.MatchExec, Candidate: c, ID: id, Hooks: h.Hooks()}, nil
	})
}

// LookupSync resolves path without loading handlers and without waiting for the router
// lock. Exec candidates match only when their handler is already loaded.
func (rt *Router) LookupSync(path string) (*domain.Match, error) {
	if rt.destroyed.Load() {
		return nil, zerr.Wrap(domain.ErrRouterDestroyed, "lookup")
	}

	return rt.lookup(path, func(c domain.Candidate, id string) (*domain.Match, error) {
		if h, ok := rt.handlers.Get(id); ok {
			return &domain.Match{Kind: domain.MatchExec, Candidate: c, ID: id, Hooks: h.Hooks()}, nil
		}
		return nil, nil
	})
}

type execMatcher func(c domain.Candidate, id string) (*domain.Match, error)

func (rt *Router) lookup(path string, matchExec execMatcher) (*domain.Match, error) {
	requestPath := resolution.NormalizeRequestPath(path)

	for _, c := range resolution.Resolve(requestPath, rt.resolver) {
		id := rt.idFor(c)

		if resolution.IsExec(c, rt.resolver) {
			m, err := matchExec(c, id)
			if err != nil || m != nil {
				return m, err
			}
			continue
		}

		if !strings.HasSuffix(c.Path, "/") && rt.static.Exists(id) {
			return &domain.Match{Kind: domain.MatchStatic, Candidate: c, ID: id}, nil
		}
	}

	return nil, zerr.With(zerr.Wrap(domain.ErrResourceNotFound, "lookup"), "path", requestPath)
}

func (rt *Router) matchCachedOrFile(c domain.Candidate, id string) *domain.Match {
	if h, ok := rt.handlers.Get(id); ok {
		return &domain.Match{Kind: domain.MatchExec, Candidate: c, ID: id, Hooks: h.Hooks()}
	}
	if rt.handlers.Cache().IsAbsent(id) || !rt.static.Exists(id) {
		return nil
	}
	return &domain.Match{Kind: domain.MatchExec, Candidate: c, ID: id}
}

// Explain returns the annotated candidates of path under the current configuration.
func (rt *Router) Explain(path string) []resolution.Entry {
	return resolution.Explain(resolution.NormalizeRequestPath(path), rt.resolver)
}
