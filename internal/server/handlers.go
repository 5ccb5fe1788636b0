package server

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agenthands/tally/internal/core/classify"
	"github.com/agenthands/tally/internal/core/common"
	"github.com/agenthands/tally/internal/core/reconcile"
	"github.com/agenthands/tally/internal/llm"
)

func (s *Server) authorized(c *gin.Context) bool {
	if s.opts.Secret == "" {
		return true
	}

	provided := c.GetHeader("X-Cron-Secret")
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		provided = strings.TrimPrefix(auth, "Bearer ")
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(s.opts.Secret)) == 1
}

// Reconcile runs one reconciliation cycle.
func (s *Server) Reconcile(c *gin.Context) {
	if !s.authorized(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": ErrUnauthorized.Error()})
		return
	}
	if s.opts.ConfigErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": s.opts.ConfigErr.Error()})
		return
	}

	ctx, cancel := withTimeout(c.Request.Context(), s.opts.ReconcileTimeout)
	defer cancel()

	result, err := s.opts.Reconciler.Reconcile(ctx)
	if err != nil {
		s.logger.Error("reconcile failed", zap.Error(err))
		c.JSON(errorStatus(err), gin.H{"success": false, "error": err.Error()})
		return
	}

	resp := gin.H{
		"success":   true,
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"cycleId":   result.CycleID,
		"updated":   result.Updated,
	}
	if result.Changes != nil {
		resp["changes"] = result.Changes
	}
	if result.Reasoning != "" {
		resp["reasoning"] = result.Reasoning
	}
	if result.Error != "" {
		resp["error"] = result.Error
	}
	c.JSON(http.StatusOK, resp)
}

type ClassifyRequest struct {
	Type    string `json:"type"`
	Article string `json:"article"`
}

// Classify extracts one entity from the posted article and returns the raw result.
func (s *Server) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Type == "" || req.Article == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing type or article"})
		return
	}
	if s.opts.ConfigErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": s.opts.ConfigErr.Error()})
		return
	}

	ctx, cancel := withTimeout(c.Request.Context(), s.opts.ClassifyTimeout)
	defer cancel()

	result, err := s.opts.Classifier.Classify(ctx, req.Type, req.Article)
	if err != nil {
		var validationErr *classify.ValidationError
		var parseErr *common.ParseError
		switch {
		case errors.As(err, &validationErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
		case errors.As(err, &parseErr):
			c.JSON(http.StatusBadGateway, gin.H{"error": reconcile.ParseErrorMessage})
		default:
			s.logger.Error("classify failed", zap.String("type", req.Type), zap.Error(err))
			c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// Tracker returns the current snapshot.
func (s *Server) Tracker(c *gin.Context) {
	if s.opts.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store not configured"})
		return
	}

	snap, err := s.opts.Store.Get(c.Request.Context(), s.opts.RecordID)
	if err != nil {
		s.logger.Error("tracker read failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Stream sends the current snapshot, then every committed snapshot, as server-sent events.
func (s *Server) Stream(c *gin.Context) {
	if s.opts.Store == nil || s.opts.Subscriber == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "notifier not configured"})
		return
	}

	ctx := c.Request.Context()

	// Subscribe before reading so no commit falls between the two.
	sub, err := s.opts.Subscriber.Subscribe(ctx)
	if err != nil {
		s.logger.Error("subscribe failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	defer sub.Close()

	snap, err := s.opts.Store.Get(ctx, s.opts.RecordID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.SSEvent("snapshot", snap)
	c.Writer.Flush()

	errs := sub.Errors()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-sub.Events():
			if !ok {
				return
			}
			c.SSEvent("snapshot", snap)
			c.Writer.Flush()
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.logger.Warn("dropped tracker event", zap.Error(err))
		}
	}
}

func errorStatus(err error) int {
	var upstreamErr *llm.UpstreamError
	if errors.As(err, &upstreamErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
