package application_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/abdidvp/policyeval/internal/adapters/outbound/genclient"
	"github.com/abdidvp/policyeval/internal/domain"
)

// validPolicy satisfies every structural predicate.
func validPolicy() map[string]any {
	return map[string]any{
		"properties": map[string]any{
			"displayName": "Require tag owner",
			"parameters": map[string]any{
				"effect": map[string]any{"type": "String", "defaultValue": "Deny"},
			},
			"policyRule": map[string]any{
				"if":   map[string]any{"field": "tags['owner']", "exists": "false"},
				"then": map[string]any{"effect": "[parameters('effect')]"},
			},
		},
	}
}

// emptyIfPolicy is validPolicy with an empty condition.
func emptyIfPolicy() map[string]any {
	p := validPolicy()
	p["properties"].(map[string]any)["policyRule"].(map[string]any)["if"] = map[string]any{}
	return p
}

// fakeService is a stand-in generation service. Handlers are keyed by
// instruction; unknown instructions get a valid policy.
type fakeService struct {
	t        *testing.T
	health   http.HandlerFunc
	handlers map[string]http.HandlerFunc

	mu       sync.Mutex
	received []string
}

func newFakeService(t *testing.T) *fakeService {
	return &fakeService{
		t:        t,
		health:   jsonHandler(http.StatusOK, map[string]any{"model_loaded": true}),
		handlers: map[string]http.HandlerFunc{},
	}
}

func (f *fakeService) start() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) { f.health(w, r) })
	mux.HandleFunc("POST /generate", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Instruction string `json:"instruction"`
		}
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))

		f.mu.Lock()
		f.received = append(f.received, body.Instruction)
		f.mu.Unlock()

		if h, ok := f.handlers[body.Instruction]; ok {
			h(w, r)
			return
		}
		jsonHandler(http.StatusOK, map[string]any{"fixed_policy": validPolicy()})(w, r)
	})
	srv := httptest.NewServer(mux)
	f.t.Cleanup(srv.Close)
	return srv
}

func (f *fakeService) client(srv *httptest.Server) *genclient.Client {
	return genclient.New(srv.URL, srv.Client())
}

func (f *fakeService) requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.received...)
}

func jsonHandler(status int, body any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

// memWriter collects records in memory. failAt makes the n-th write
// (1-based) fail.
type memWriter struct {
	records []domain.OutcomeRecord
	failAt  int
}

func (w *memWriter) Write(rec domain.OutcomeRecord) error {
	if w.failAt > 0 && len(w.records)+1 == w.failAt {
		return errors.New("disk full")
	}
	w.records = append(w.records, rec)
	return nil
}

// progressFunc adapts a function to domain.ProgressReporter.
type progressFunc func(index int, rec domain.OutcomeRecord)

func (f progressFunc) CaseDone(index int, rec domain.OutcomeRecord) { f(index, rec) }
