package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adonese/apikit/config"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

const (
	defaultConfigPath   = "/app/config.yaml"
	otelShutdownTimeout = 5 * time.Second
	shutdownTimeout     = 10 * time.Second
	readHeaderTimeout   = 10 * time.Second
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run dispatches the sub commands: serve (the default), codes [METHOD] and
// render-config.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("apikit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", firstExistingPath(defaultConfigPath, config.DefaultPath), "path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := fs.Arg(0)
	if cmd == "codes" {
		return writeCodes(stdout, fs.Arg(1))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	switch cmd {
	case "render-config":
		return cfg.Render(stdout)
	case "", "serve":
		return serve(ctx, cfg, stderr)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func serve(ctx context.Context, cfg config.Config, stderr io.Writer) error {
	logger, closeLog := newLogger(cfg, stderr)
	defer closeLog()
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if otelShutdown := initOTel(ctx, cfg.Otel, logger); otelShutdown != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), otelShutdownTimeout)
			defer cancel()
			if err := otelShutdown(ctx); err != nil {
				logger.WithError(err).Warn("otel shutdown failed")
			}
		}()
	}

	a, err := newApp(ctx, cfg, logger, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", srv.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
