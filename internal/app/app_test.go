package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/tally/internal/config"
	"github.com/agenthands/tally/internal/core/model"
	"github.com/agenthands/tally/internal/server"
	"github.com/agenthands/tally/internal/store"
)

func TestNewKeepsConfigError(t *testing.T) {
	cfg := config.Default()

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	var cfgErr *config.ConfigError
	require.True(t, errors.As(a.ConfigErr, &cfgErr))
	assert.Nil(t, a.Engine)

	opts := a.ServerOptions()
	assert.Nil(t, opts.Reconciler)
	assert.Equal(t, a.ConfigErr, opts.ConfigErr)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	server.NewServer(opts).SetupRouter().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/reconcile", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestNewWiresMemoryStoreAndNotifier(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := config.Default()
	cfg.LLM.Provider = "ollama"
	cfg.Store.Backend = "memory"
	cfg.Notify.RedisAddr = mr.Addr()
	cfg.Server.ReconcileSecret = "s3cret"

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.ConfigErr)
	require.NotNil(t, a.Notifier)
	assert.IsType(t, &store.Notifying{}, a.Store)
	assert.NotNil(t, a.Engine)
	assert.NotNil(t, a.Classifier)

	sub, err := a.Notifier.Subscribe(context.Background())
	require.NoError(t, err)
	defer sub.Close()

	_, err = a.Store.Patch(context.Background(), "main", model.Record{"debt": 1.0}, 0)
	require.NoError(t, err)
	snap := <-sub.Events()
	assert.Equal(t, int64(1), snap.Version)

	opts := a.ServerOptions()
	assert.Equal(t, "s3cret", opts.Secret)
	assert.Equal(t, "main", opts.RecordID)
	assert.NotNil(t, opts.Subscriber)
	assert.Equal(t, 120, int(opts.ReconcileTimeout.Seconds()))
}

func TestNewWithoutNotifier(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.Provider = "ollama"
	cfg.Store.Backend = "sqlite"
	cfg.Store.Path = t.TempDir() + "/tally.db"

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Notifier)
	assert.Nil(t, a.ServerOptions().Subscriber)
	assert.IsType(t, &store.SQLiteStore{}, a.Store)
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.Provider = "mystery"
	cfg.LLM.APIKey = "k"
	cfg.Store.Backend = "memory"

	_, err := New(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestServeStopsWithContext(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.Provider = "ollama"
	cfg.Store.Backend = "memory"
	cfg.Server.Port = "0"
	cfg.Reconcile.IntervalMinutes = 60

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.NoError(t, a.Serve(ctx))
}
