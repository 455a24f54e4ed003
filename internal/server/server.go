// Package server exposes the local diagnostics surface: health, Prometheus
// metrics, read endpoints over the store's views, and a command endpoint for
// driving the register by hand.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/smallbiznis/tillsync/internal/config"
	"github.com/smallbiznis/tillsync/internal/pos/domain"
	"github.com/smallbiznis/tillsync/internal/trace"
)

// Module provides the gin engine, registers the API routes and runs the
// listener under the fx lifecycle.
var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(run),
)

// NewEngine builds the gin engine with recovery, request logging and the
// baseline health and metrics endpoints.
func NewEngine(log *zap.Logger, cfg config.Config) *gin.Engine {
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log.Named("http")))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

// Server wires the store and trace views into HTTP handlers.
type Server struct {
	engine *gin.Engine
	store  domain.Store
	tracer *trace.Service
	log    *zap.Logger
}

// Params collects the server's dependencies.
type Params struct {
	fx.In

	Engine *gin.Engine
	Store  domain.Store
	Tracer *trace.Service
	Log    *zap.Logger
}

func NewServer(p Params) *Server {
	return &Server{
		engine: p.Engine,
		store:  p.Store,
		tracer: p.Tracer,
		log:    p.Log.Named("server"),
	}
}
