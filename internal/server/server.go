package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/limaJavier/timetabling-planner/internal/logger"
	"github.com/limaJavier/timetabling-planner/pkg/solver"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	Version  = "2.0"
	Supports = "parallel lab scheduling, teacher reset"
)

// Server exposes a solver.Solver over the JSON API consumed by solver.HTTPSolver
type Server struct {
	solver   solver.Solver
	router   *gin.Engine
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	log      *logger.Logger
}

func New(s solver.Solver, log *logger.Logger) *Server {
	server := &Server{
		solver:   s,
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_solver_requests_total",
			Help: "Requests served by the timetable solver, by endpoint and status code.",
		}, []string{"endpoint", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "timetable_solver_request_duration_seconds",
			Help:    "Time spent serving timetable solver requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		log: logger.OrNop(log).With("service", "SolverServer"),
	}
	server.registry.MustRegister(server.requests, server.duration)
	server.router = server.newRouter()
	return server
}

func (server *Server) newRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), server.observe)

	router.GET(solver.HealthPath, server.health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(server.registry, promhttp.HandlerOpts{})))
	router.POST(solver.GeneratePath, server.generate)
	router.POST(solver.ValidatePath, server.validate)
	router.POST(solver.ResetPath, server.reset)

	return router
}

func (server *Server) Handler() http.Handler { return server.router }

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (server *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	failed := make(chan error, 1)
	go func() {
		server.log.Info("listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
		close(failed)
	}()

	select {
	case err := <-failed:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	server.log.Info("shutting down")
	return httpServer.Shutdown(shutdownCtx)
}

// observe records metrics and a log line for every request
func (server *Server) observe(c *gin.Context) {
	start := time.Now()
	c.Next()

	endpoint := c.FullPath()
	if endpoint == "" {
		endpoint = "unmatched"
	}
	status := c.Writer.Status()
	elapsed := time.Since(start)

	server.requests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	server.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
	server.log.Debug("request served", "method", c.Request.Method, "endpoint", endpoint, "status", status, "elapsed", elapsed)
}
