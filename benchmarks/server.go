package benchmarks

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zeu5/qlearn/types"
)

// NewRouter serves the collected metrics and the experiment progress
//
//	GET /metrics             prometheus exposition
//	GET /status              status of every experiment
//	GET /status/:experiment  status of one experiment
func NewRouter(reg prometheus.Gatherer, board *types.StatusBoard) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	router.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, board.Snapshot())
	})
	router.GET("/status/:experiment", func(c *gin.Context) {
		status, ok := board.Get(c.Param("experiment"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown experiment"})
			return
		}
		c.JSON(http.StatusOK, status)
	})
	return router
}

// Server runs the router in the background for the duration of a command
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

func NewServer(addr string, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

func (s *Server) Start() {
	go func() {
		s.logger.Info("serving metrics", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server stopped", "error", err)
		}
	}()
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("shutting down metrics server", "error", err)
	}
}
