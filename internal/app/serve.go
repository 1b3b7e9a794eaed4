package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.trai.ch/fsroute/internal/adapters/admin"
	"go.trai.ch/fsroute/internal/adapters/telemetry"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// ServeOptions configures the serve command.
type ServeOptions struct {
	ConfigOptions
	// OnListen, when set, receives the bound addresses once the router is initialized.
	// adminAddr is empty when the admin API is disabled.
	OnListen func(addr, adminAddr string)
}

// Serve runs the routed HTTP server, and the admin API when configured, until ctx is
// canceled. Shutdown drains both servers before the router is destroyed.
func (a *App) Serve(ctx context.Context, opts ServeOptions) error {
	cfg, err := a.loadConfig(opts.ConfigOptions)
	if err != nil {
		return err
	}

	shutdownTracing := telemetry.Setup(a.logger)
	defer func() { _ = shutdownTracing(context.Background()) }()

	w, err := a.newWatcher()
	if err != nil {
		return err
	}

	rt := a.newRouter(cfg.Router, w)
	if err := rt.Start(ctx); err != nil {
		_ = rt.Destroy(context.Background())
		return zerr.Wrap(err, "failed to start router")
	}

	ln, err := net.Listen("tcp", cfg.Server.Listen)
	if err != nil {
		_ = rt.Destroy(context.Background())
		return zerr.With(zerr.Wrap(err, "failed to listen"), "addr", cfg.Server.Listen)
	}
	srv := &http.Server{Handler: rt, ReadHeaderTimeout: 10 * time.Second}

	var adminSrv *admin.Server
	var adminLn net.Listener
	if cfg.Server.AdminListen != "" {
		adminLn, err = net.Listen("tcp", cfg.Server.AdminListen)
		if err != nil {
			_ = ln.Close()
			_ = rt.Destroy(context.Background())
			return zerr.With(zerr.Wrap(err, "failed to listen"), "addr", cfg.Server.AdminListen)
		}
		adminSrv = admin.NewServer(rt, a.logger)
	}

	a.logger.Info("Serving " + cfg.Router.Root + " on " + ln.Addr().String())
	if opts.OnListen != nil {
		adminAddr := ""
		if adminLn != nil {
			adminAddr = adminLn.Addr().String()
		}
		opts.OnListen(ln.Addr().String(), adminAddr)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return zerr.Wrap(err, "http server failed")
		}
		return nil
	})

	if adminSrv != nil {
		g.Go(func() error {
			return adminSrv.Serve(adminLn)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutting down")

		sctx, cancel := shutdownContext(a.shutdownTimeout)
		defer cancel()

		errs := []error{srv.Shutdown(sctx)}
		if adminSrv != nil {
			errs = append(errs, adminSrv.Shutdown(sctx))
		}
		errs = append(errs, rt.Destroy(sctx))
		return errors.Join(errs...)
	})

	return g.Wait()
}
