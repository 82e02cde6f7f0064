package main

import (
	"context"
	"fmt"
	"net/http"

	gateway "github.com/adonese/apikit/apigateway"
	"github.com/adonese/apikit/config"
	"github.com/adonese/apikit/health"
	"github.com/adonese/apikit/httpcodes"
	"github.com/adonese/apikit/store"
	"github.com/adonese/apikit/users"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type app struct {
	engine *gin.Engine
	db     *store.DB
}

// newApp opens the database, applies the migrations, seeds users when asked to
// and builds the engine.
func newApp(ctx context.Context, cfg config.Config, logger *logrus.Logger, reg prometheus.Registerer, gatherer prometheus.Gatherer) (*app, error) {
	db, err := store.Open(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := users.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	if v, err := db.Version(ctx); err == nil {
		logger.WithFields(logrus.Fields{"engine": db.Engine, "version": v}).Info("database ready")
	}

	userService := users.New(store.New(db, store.WithLogger(logger), store.WithRegisterer(reg)), logger)
	if err := userService.Seed(ctx, cfg.SeedUsers); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed users: %w", err)
	}
	return &app{engine: GetMainEngine(cfg, logger, reg, gatherer, userService), db: db}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// GetMainEngine mounts the middlewares and every route of the service.
func GetMainEngine(cfg config.Config, logger *logrus.Logger, reg prometheus.Registerer, gatherer prometheus.Gatherer, userService *users.Service) *gin.Engine {
	route := gin.New()
	route.HandleMethodNotAllowed = true
	route.Use(
		gin.Recovery(),
		gateway.RequestID(),
		gateway.RequestLogger(logger, logSampling(cfg)),
		gateway.OptionsMiddleware,
		gateway.Instrumentation(reg),
		gateway.Tracing(nil),
	)
	route.NoRoute(httpcodes.NoRoute())
	route.NoMethod(httpcodes.NoMethod())

	route.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusTemporaryRedirect, "/api/health/status")
	})
	route.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	health.Register(route.Group("/api/health"), cfg.Health.Enabled, logger, gateway.RequireAdmin(gateway.AdminAuthConfig{
		Key:      cfg.Admin.Key,
		User:     cfg.Admin.User,
		Password: cfg.Admin.Password,
		Debug:    cfg.Debug,
	}))
	userService.RegisterRoutes(route)
	return route
}
