// Package server exposes the reconciliation and classification triggers over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/agenthands/tally/internal/core/model"
	"github.com/agenthands/tally/internal/notify"
)

// ErrUnauthorized is reported when the reconcile trigger credential is missing or wrong.
var ErrUnauthorized = errors.New("unauthorized")

type Reconciler interface {
	Reconcile(ctx context.Context) (*model.ReconcileResult, error)
}

type Classifier interface {
	Classify(ctx context.Context, schemaName, article string) (model.ClassificationResult, error)
}

// Reader is the read side of the tracker store.
type Reader interface {
	Get(ctx context.Context, id string) (*model.Snapshot, error)
}

type Subscriber interface {
	Subscribe(ctx context.Context) (*notify.Subscription, error)
}

// Options carries the server's collaborators. ConfigErr, when set, is returned
// by both triggers instead of running them.
type Options struct {
	Reconciler Reconciler
	Classifier Classifier
	Store      Reader
	Subscriber Subscriber

	RecordID         string
	Secret           string
	ConfigErr        error
	ReconcileTimeout time.Duration
	ClassifyTimeout  time.Duration

	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

type Server struct {
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	return &Server{opts: opts, logger: logger, now: time.Now}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	api.GET("/reconcile", s.Reconcile)
	api.POST("/reconcile", s.Reconcile)
	api.Any("/classify", cors(), s.Classify)
	api.GET("/tracker", s.Tracker)
	api.GET("/tracker/stream", s.Stream)

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

// cors answers preflight requests and rejects every method but POST.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		switch c.Request.Method {
		case http.MethodOptions:
			c.AbortWithStatus(http.StatusNoContent)
		case http.MethodPost:
			c.Next()
		default:
			c.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
		}
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
