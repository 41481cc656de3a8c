package genclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"

	"github.com/abdidvp/policyeval/internal/domain"
)

const (
	healthPath   = "/health"
	generatePath = "/generate"

	// maxErrorBody caps how much of a failing response body ends up in an
	// outcome record.
	maxErrorBody = 2000
)

// Client implements domain.GenerationClient over HTTP. Timeouts come from
// the caller's context.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the service at baseURL. The URL is normalized,
// so a pasted /generate or /health endpoint is accepted.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    domain.NormalizeBaseURL(baseURL),
		httpClient: httpClient,
	}
}

// BaseURL returns the normalized service URL.
func (c *Client) BaseURL() string { return c.baseURL }

type generateRequest struct {
	Instruction string `json:"instruction"`
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*domain.HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating health request")
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	fields, err := decodeObject(body)
	if err != nil {
		return nil, errors.Wrap(err, "decoding health response")
	}

	status := &domain.HealthStatus{Fields: fields}
	if loaded, ok := fields["model_loaded"].(bool); ok {
		status.ModelLoaded = &loaded
	}
	return status, nil
}

// Generate calls POST /generate with the instruction.
func (c *Client) Generate(ctx context.Context, instruction string) (*domain.GenerationResponse, error) {
	payload, err := json.Marshal(generateRequest{Instruction: instruction})
	if err != nil {
		return nil, errors.Wrap(err, "marshaling generate request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "creating generate request")
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	obj, err := decodeObject(body)
	if err != nil {
		return nil, errors.Wrap(err, "decoding generate response")
	}
	return &domain.GenerationResponse{Payload: obj}, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", req.Method, req.URL.Path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s response", req.URL.Path)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp, body)
	}
	return body, nil
}

// statusError describes a non-2xx response. Tunnel offline pages are HTML
// and very noisy, so they are replaced by a remediation hint.
func statusError(resp *http.Response, body []byte) error {
	text := string(body)
	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text/html") &&
		(strings.Contains(text, "ERR_NGROK_") || strings.Contains(strings.ToLower(text), "ngrok")) {
		return errors.WithHint(
			errors.Newf("status %d: tunnel endpoint is offline", resp.StatusCode),
			"re-run the notebook API cell and use the NEW public URL",
		)
	}
	if len(text) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return errors.Newf("status %d: %s", resp.StatusCode, strings.TrimSpace(text))
}

// decodeObject keeps numbers as json.Number so retry and meta are written
// back exactly as the service sent them.
func decodeObject(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Wrap(err, "non-JSON response")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("non-JSON response: trailing data after JSON value")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errors.Newf("response is not a JSON object (got %T)", v)
	}
	return obj, nil
}
