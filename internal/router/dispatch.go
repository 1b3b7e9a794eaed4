package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.trai.ch/fsroute/internal/core/domain"
	"go.trai.ch/fsroute/internal/engine/resolution"
	"go.trai.ch/zerr"
)

// ServeHTTP dispatches r and falls through to the configured Next handler.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.dispatch(w, r, rt.next)
}

// Middleware returns a handler that dispatches requests and passes unmatched ones to next.
func (rt *Router) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rt.dispatch(w, r, next)
	})
}

func (rt *Router) dispatch(w http.ResponseWriter, r *http.Request, next http.Handler) {
	if rt.destroyed.Load() {
		rt.onError(w, r, zerr.Wrap(domain.ErrRouterDestroyed, "dispatch"))
		return
	}

	select {
	case <-rt.engine.Initialized():
	case <-r.Context().Done():
		return
	}

	ctx, span := rt.tracer.Start(r.Context(), "dispatch")
	defer span.End()

	requestPath := resolution.NormalizeRequestPath(r.URL.Path)
	span.SetAttribute("request.path", requestPath)

	for _, c := range resolution.Resolve(requestPath, rt.resolver) {
		id := rt.idFor(c)

		if resolution.IsExec(c, rt.resolver) {
			h, err := rt.handlers.GetOrLoad(ctx, id, rt.resolver.Resolve(c.Rel()).ImportStrategy)
			if errors.Is(err, domain.ErrResourceNotFound) {
				continue
			}
			if err != nil {
				span.RecordError(err)
				rt.logger.Error(err)
				rt.onError(w, r, err)
				return
			}
			span.SetAttribute("handler.id", id)
			rt.invoke(ctx, w, r, requestPath, h, c)
			return
		}

		if strings.HasSuffix(c.Path, "/") {
			continue
		}
		served, err := rt.static.Serve(w, r, id)
		if err != nil {
			span.RecordError(err)
			rt.onError(w, r, err)
			return
		}
		if served {
			span.SetAttribute("static.path", id)
			return
		}
	}

	span.AddEvent("pass-through")
	next.ServeHTTP(w, r)
}

// invoke runs the handler on a copy of r whose path is the candidate remainder.
// A handler failure is terminal for the request.
func (rt *Router) invoke(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	requestPath string,
	h *domain.Handler,
	c domain.Candidate,
) {
	ctx = domain.WithRequestInfo(ctx, domain.RequestInfo{OriginalPath: requestPath, HandlerID: h.ID})
	out := r.Clone(ctx)
	out.URL.Path = c.Remainder
	out.URL.RawPath = ""

	if err := serve(h, w, out); err != nil {
		err = zerr.With(fmt.Errorf("%w: %w", domain.ErrHandlerFailed, err), "id", h.ID)
		rt.logHandlerError(err)
		rt.onError(w, r, err)
	}
}

// serve calls the handler, turning a panic into an error. http.ErrAbortHandler
// keeps unwinding so the server aborts the response.
func serve(h *domain.Handler, w http.ResponseWriter, r *http.Request) (err error) {
	defer func() {
		if p := recover(); p != nil {
			if p == http.ErrAbortHandler {
				panic(p)
			}
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return h.Serve(w, r)
}

func (rt *Router) logHandlerError(err error) {
	switch rt.cfg.HandlerErrorLogLevel {
	case domain.LogLevelDebug:
		rt.logger.Debug(err.Error())
	case domain.LogLevelInfo:
		rt.logger.Info(err.Error())
	case domain.LogLevelWarn:
		rt.logger.Warn(err.Error())
	case domain.LogLevelError:
		rt.logger.Error(err)
	}
}

// OriginalPath returns the request path as received by the router, before the
// handler remainder replaced it.
func OriginalPath(r *http.Request) string {
	if info, ok := domain.RequestInfoFrom(r.Context()); ok {
		return info.OriginalPath
	}
	return r.URL.Path
}

// HandlerID returns the resource id of the handler serving r.
func HandlerID(r *http.Request) (string, bool) {
	info, ok := domain.RequestInfoFrom(r.Context())
	return info.HandlerID, ok
}
