package audioshake

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// DefaultBaseURL is the production AudioShake endpoint.
const DefaultBaseURL = "https://groovy.audioshake.ai"

// downloadChunkSize is the copy buffer size for streamed asset downloads.
const downloadChunkSize = 8192

// Static errors for AudioShake client operations.
var (
	// ErrTokenRequired is returned when no API token is provided.
	ErrTokenRequired = errors.New("audioshake: API token is required")
	// ErrJobIDRequired is returned when the job ID is not provided.
	ErrJobIDRequired = errors.New("audioshake: job ID is required")
	// ErrNoAssetIDReturned is returned when the upload response contains no asset ID.
	ErrNoAssetIDReturned = errors.New("audioshake: upload failed: no asset ID returned")
	// ErrNoJobIDReturned is returned when the create response contains no job ID.
	ErrNoJobIDReturned = errors.New("audioshake: create job failed: no job ID returned")
	// ErrRequestFailed is returned when a request fails with a non-2xx status code.
	ErrRequestFailed = errors.New("audioshake: request failed")
)

// Client defines the interface for interacting with the AudioShake API.
type Client interface {
	// Upload streams a local file to the service and returns the stored asset.
	Upload(ctx context.Context, path string) (Asset, error)

	// CreateJob creates a job bound to a previously uploaded asset.
	// callbackURL is optional and may be empty.
	CreateJob(ctx context.Context, assetID string, meta Metadata, callbackURL string) (Job, error)

	// GetJob returns the current state of a job, including output assets
	// once the job has completed.
	GetJob(ctx context.Context, jobID string) (Job, error)

	// Download streams an output asset link to destPath in fixed-size
	// chunks, never buffering the whole asset in memory.
	Download(ctx context.Context, link, destPath string) error
}

// HTTPClient is the HTTP implementation of the Client interface.
type HTTPClient struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// ClientOption is a function that configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(hc *HTTPClient) {
		hc.httpClient = c
	}
}

// WithBaseURL sets a custom base URL for the AudioShake API.
func WithBaseURL(url string) ClientOption {
	return func(hc *HTTPClient) {
		hc.baseURL = url
	}
}

// NewClient creates a new AudioShake HTTP client.
// The token is required; if empty, it is read from the TOKEN environment
// variable.
func NewClient(token string, opts ...ClientOption) (*HTTPClient, error) {
	c := &HTTPClient{
		token:      token,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.token == "" {
		c.token = os.Getenv("TOKEN")
	}

	if c.token == "" {
		return nil, ErrTokenRequired
	}

	return c, nil
}

// Upload streams a local file to the service as a multipart form and returns
// the stored asset handle.
func (c *HTTPClient) Upload(ctx context.Context, path string) (Asset, error) {
	f, err := os.Open(path) // #nosec G304 - path is provided by trusted caller
	if err != nil {
		return Asset{}, fmt.Errorf("audioshake: open input file: %w", err)
	}
	defer func() { _ = f.Close() }()

	// Pipe the multipart body so large inputs are never held in memory.
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(path))
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, f); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload/", pr)
	if err != nil {
		return Asset{}, fmt.Errorf("audioshake: create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var asset Asset
	if err := c.do(req, &asset); err != nil {
		return Asset{}, err
	}

	if asset.ID == "" {
		return Asset{}, ErrNoAssetIDReturned
	}

	return asset, nil
}

// CreateJob creates a job bound to the given asset and metadata.
func (c *HTTPClient) CreateJob(ctx context.Context, assetID string, meta Metadata, callbackURL string) (Job, error) {
	body, err := json.Marshal(createJobRequest{
		AssetID:     assetID,
		Metadata:    meta,
		CallbackURL: callbackURL,
	})
	if err != nil {
		return Job{}, fmt.Errorf("audioshake: marshal job request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/job/", bytes.NewReader(body))
	if err != nil {
		return Job{}, fmt.Errorf("audioshake: create job request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	var env jobEnvelope
	if err := c.do(req, &env); err != nil {
		return Job{}, err
	}

	if env.Job.ID == "" {
		return Job{}, ErrNoJobIDReturned
	}

	return env.Job, nil
}

// GetJob returns the current state of a job.
func (c *HTTPClient) GetJob(ctx context.Context, jobID string) (Job, error) {
	if jobID == "" {
		return Job{}, ErrJobIDRequired
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/job/"+jobID, nil)
	if err != nil {
		return Job{}, fmt.Errorf("audioshake: create status request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	var env jobEnvelope
	if err := c.do(req, &env); err != nil {
		return Job{}, err
	}

	return env.Job, nil
}

// Download streams an output asset to destPath. Asset links are pre-signed by
// the service, so no auth header is sent.
func (c *HTTPClient) Download(ctx context.Context, link, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return fmt.Errorf("audioshake: create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("audioshake: download request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w with status %d", ErrRequestFailed, resp.StatusCode)
	}

	out, err := os.Create(destPath) // #nosec G304 - destPath is constructed internally
	if err != nil {
		return fmt.Errorf("audioshake: create output file: %w", err)
	}

	buf := make([]byte, downloadChunkSize)
	if _, err := io.CopyBuffer(out, resp.Body, buf); err != nil {
		_ = out.Close()
		_ = os.Remove(destPath)
		return fmt.Errorf("audioshake: write download data: %w", err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("audioshake: close output file: %w", err)
	}

	return nil
}

// do performs a request and decodes a JSON response into result.
func (c *HTTPClient) do(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("audioshake: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("audioshake: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w with status %d: %s", ErrRequestFailed, resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("audioshake: unmarshal response: %w", err)
		}
	}

	return nil
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
