// Package transport wraps outbound HTTP calls to the churn analysis service.
// Each operation issues a single request with no internal retry and surfaces
// failures as a normalized *Error; the lifecycle controller decides what to do
// with them.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ak0605-AI/Customer-Churn-System/internal/analysis"
	"github.com/ak0605-AI/Customer-Churn-System/pkg/sampledata"
)

// uploadFieldName is the multipart field the service reads the file from.
const uploadFieldName = "file"

// Client calls the churn analysis service over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// submitResponse is the success payload of the upload endpoint.
type submitResponse struct {
	AnalysisID string `json:"analysis_id"`
	Message    string `json:"message"`
	Status     string `json:"status"`
}

// listResponse wraps the job list payload.
type listResponse struct {
	Analyses []analysis.Analysis `json:"analyses"`
}

// Submit uploads a dataset file and returns the analysis ID assigned by the
// service.
func (c *Client) Submit(ctx context.Context, filename string, file io.Reader) (string, error) {
	const op = "submit"

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(uploadFieldName, filename)
	if err != nil {
		return "", Unreachable(op, err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", Unreachable(op, err)
	}
	if err := mw.Close(); err != nil {
		return "", Unreachable(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload-csv", &body)
	if err != nil {
		return "", Unreachable(op, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", Unreachable(op, err)
	}
	defer resp.Body.Close()

	if !is2xx(resp.StatusCode) {
		return "", Rejected(op, resp.StatusCode, readDetail(resp.Body))
	}

	var parsed submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", Unreachable(op, fmt.Errorf("decoding response: %w", err))
	}
	if parsed.AnalysisID == "" {
		return "", Rejected(op, resp.StatusCode, "response missing analysis_id")
	}
	return parsed.AnalysisID, nil
}

// FetchAnalysis returns the full record for one analysis.
func (c *Client) FetchAnalysis(ctx context.Context, id string) (*analysis.Analysis, error) {
	const op = "fetchAnalysis"

	var parsed analysis.Analysis
	u := c.baseURL + "/api/analysis/" + url.PathEscape(id)
	if err := c.getJSON(ctx, op, u, &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

// ListAnalyses returns all analyses in the order the service provides.
func (c *Client) ListAnalyses(ctx context.Context) ([]analysis.Analysis, error) {
	const op = "listAnalyses"

	var parsed listResponse
	if err := c.getJSON(ctx, op, c.baseURL+"/api/analyses", &parsed); err != nil {
		return nil, err
	}
	return parsed.Analyses, nil
}

// DeleteAnalysis removes an analysis. Any 2xx response is success.
func (c *Client) DeleteAnalysis(ctx context.Context, id string) error {
	const op = "deleteAnalysis"

	u := c.baseURL + "/api/analysis/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return Unreachable(op, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Unreachable(op, err)
	}
	defer resp.Body.Close()

	if !is2xx(resp.StatusCode) {
		return Rejected(op, resp.StatusCode, readDetail(resp.Body))
	}
	return nil
}

// FetchSample returns the column-oriented sample dataset.
func (c *Client) FetchSample(ctx context.Context) (sampledata.Columns, error) {
	const op = "fetchSample"

	var parsed sampledata.Columns
	if err := c.getJSON(ctx, op, c.baseURL+"/api/sample-csv", &parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

// Health checks that the service is up and can reach its database.
func (c *Client) Health(ctx context.Context) error {
	const op = "health"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return Unreachable(op, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Unreachable(op, err)
	}
	defer resp.Body.Close()

	if !is2xx(resp.StatusCode) {
		return Rejected(op, resp.StatusCode, readDetail(resp.Body))
	}
	return nil
}

// getJSON issues a GET and decodes a JSON success body into out.
func (c *Client) getJSON(ctx context.Context, op, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Unreachable(op, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Unreachable(op, err)
	}
	defer resp.Body.Close()

	if !is2xx(resp.StatusCode) {
		return Rejected(op, resp.StatusCode, readDetail(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return Unreachable(op, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

func is2xx(status int) bool {
	return status >= 200 && status < 300
}

// readDetail extracts the service's "detail" message from an error body,
// falling back to the raw body text.
func readDetail(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(body) == 0 {
		return ""
	}

	var parsed struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return strings.TrimSpace(string(body))
}
