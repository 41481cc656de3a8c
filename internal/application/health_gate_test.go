package application_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdidvp/policyeval/internal/adapters/outbound/genclient"
	"github.com/abdidvp/policyeval/internal/application"
	"github.com/abdidvp/policyeval/internal/domain"
)

func TestHealthGate_Healthy(t *testing.T) {
	svc := newFakeService(t)
	srv := svc.start()

	status, err := application.NewHealthGate(svc.client(srv), time.Second, nil).Check(context.Background())
	require.NoError(t, err)
	require.NotNil(t, status.ModelLoaded)
	assert.True(t, *status.ModelLoaded)
}

func TestHealthGate_MissingModelLoadedIsHealthy(t *testing.T) {
	svc := newFakeService(t)
	svc.health = jsonHandler(http.StatusOK, map[string]any{"status": "ok"})
	srv := svc.start()

	status, err := application.NewHealthGate(svc.client(srv), time.Second, nil).Check(context.Background())
	require.NoError(t, err)
	assert.Nil(t, status.ModelLoaded)
	assert.Equal(t, "ok", status.Fields["status"])
}

func TestHealthGate_ModelNotLoaded(t *testing.T) {
	svc := newFakeService(t)
	svc.health = jsonHandler(http.StatusOK, map[string]any{"model_loaded": false})
	srv := svc.start()

	_, err := application.NewHealthGate(svc.client(srv), time.Second, nil).Check(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrServiceUnavailable))
	assert.True(t, errors.Is(err, domain.ErrModelNotLoaded))
	assert.Contains(t, errors.FlattenHints(err), "model-load")
}

func TestHealthGate_NonSuccessStatus(t *testing.T) {
	svc := newFakeService(t)
	svc.health = jsonHandler(http.StatusBadGateway, map[string]any{"detail": "bad gateway"})
	srv := svc.start()

	_, err := application.NewHealthGate(svc.client(srv), time.Second, nil).Check(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrServiceUnavailable))
	assert.False(t, errors.Is(err, domain.ErrModelNotLoaded))
	assert.Contains(t, err.Error(), "502")
}

func TestHealthGate_NonObjectBody(t *testing.T) {
	svc := newFakeService(t)
	svc.health = jsonHandler(http.StatusOK, []int{1, 2})
	srv := svc.start()

	_, err := application.NewHealthGate(svc.client(srv), time.Second, nil).Check(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrServiceUnavailable))
}

func TestHealthGate_Unreachable(t *testing.T) {
	svc := newFakeService(t)
	srv := svc.start()
	client := genclient.New(srv.URL, srv.Client())
	srv.Close()

	_, err := application.NewHealthGate(client, time.Second, nil).Check(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrServiceUnavailable))
	assert.NotEmpty(t, errors.FlattenHints(err))
}

func TestHealthGate_Timeout(t *testing.T) {
	svc := newFakeService(t)
	svc.health = func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}
	srv := svc.start()

	started := time.Now()
	_, err := application.NewHealthGate(svc.client(srv), 50*time.Millisecond, nil).Check(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrServiceUnavailable))
	assert.Less(t, time.Since(started), 2*time.Second)
}
