package genclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/abdidvp/policyeval/internal/adapters/outbound/genclient"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NormalizesPastedEndpoint(t *testing.T) {
	c := genclient.New("https://abc.ngrok-free.app/generate/", nil)
	assert.Equal(t, "https://abc.ngrok-free.app", c.BaseURL())
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "ok", "model_loaded": true}`))
	}))
	defer srv.Close()

	status, err := genclient.New(srv.URL+"/health", srv.Client()).Health(context.Background())
	require.NoError(t, err)
	require.NotNil(t, status.ModelLoaded)
	assert.True(t, *status.ModelLoaded)
	assert.Equal(t, "ok", status.Fields["status"])
}

func TestHealth_MissingFieldLeavesModelLoadedUnset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "ok"}`))
	}))
	defer srv.Close()

	status, err := genclient.New(srv.URL, srv.Client()).Health(context.Background())
	require.NoError(t, err)
	assert.Nil(t, status.ModelLoaded)
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Require tag owner on all resources", body["instruction"])

		_, _ = w.Write([]byte(`{"fixed_policy": {"properties": {}}, "retry": 1, "meta": {"fallback_used": false}, "raw_output": "properties: {}"}`))
	}))
	defer srv.Close()

	resp, err := genclient.New(srv.URL, srv.Client()).Generate(context.Background(), "Require tag owner on all resources")
	require.NoError(t, err)
	assert.Equal(t, json.Number("1"), resp.Retry())
	assert.Equal(t, map[string]any{"fallback_used": false}, resp.Meta())
	raw, ok := resp.RawOutput()
	assert.True(t, ok)
	assert.Equal(t, "properties: {}", raw)
}

func TestGenerate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "CUDA out of memory", http.StatusInternalServerError)
			},
			want: "status 500: CUDA out of memory",
		},
		{
			name: "non-JSON body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html>hello</html>"))
			},
			want: "non-JSON response",
		},
		{
			name: "JSON array",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`[1, 2]`))
			},
			want: "not a JSON object",
		},
		{
			name: "tunnel offline",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte("<html>ERR_NGROK_3200 endpoint offline</html>"))
			},
			want: "tunnel endpoint is offline",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := genclient.New(srv.URL, srv.Client()).Generate(context.Background(), "x")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGenerate_TunnelOfflineCarriesHint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>Powered by ngrok</html>"))
	}))
	defer srv.Close()

	_, err := genclient.New(srv.URL, srv.Client()).Generate(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, errors.FlattenHints(err), "NEW public URL")
}

func TestGenerate_LongErrorBodyIsTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(strings.Repeat("x", 5000)))
	}))
	defer srv.Close()

	_, err := genclient.New(srv.URL, srv.Client()).Generate(context.Background(), "x")
	require.Error(t, err)
	assert.Less(t, len(err.Error()), 2100)
}

func TestGenerate_TruncationKeepsWholeRunes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("x" + strings.Repeat("é", 3000)))
	}))
	defer srv.Close()

	_, err := genclient.New(srv.URL, srv.Client()).Generate(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, utf8.ValidString(err.Error()))
	assert.Contains(t, err.Error(), "xé")
}

func TestGenerate_NumbersArePreserved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"policy": {}, "retry": 1.0, "meta": {"seed": 9007199254740993, "ratio": 2.50}}`))
	}))
	defer srv.Close()

	resp, err := genclient.New(srv.URL, srv.Client()).Generate(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, json.Number("1.0"), resp.Retry())
	assert.Equal(t, map[string]any{
		"seed":  json.Number("9007199254740993"),
		"ratio": json.Number("2.50"),
	}, resp.Meta())
}

func TestGenerate_TrailingDataIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"policy": {}} {"policy": {}}`))
	}))
	defer srv.Close()

	_, err := genclient.New(srv.URL, srv.Client()).Generate(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-JSON response")
}

func TestGenerate_ContextTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := genclient.New(srv.URL, srv.Client()).Generate(ctx, "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
