// Package engine is a REST client for the managed document-understanding
// engine: processor versions, document processing, dataset import, training,
// evaluation, and deployment.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/JaimeStill/docent/internal/config"
)

// Scope is the OAuth2 scope required by the engine and launcher APIs.
const Scope = "https://www.googleapis.com/auth/cloud-platform"

// TrainingSplitRatio is the share of imported documents assigned to the training split.
const TrainingSplitRatio = 0.8

// TokenSource returns a static source when token is set, and Application
// Default Credentials otherwise.
func TokenSource(ctx context.Context, token string) (oauth2.TokenSource, error) {
	if token != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}), nil
	}
	ts, err := google.DefaultTokenSource(ctx, Scope)
	if err != nil {
		return nil, fmt.Errorf("default credentials: %w", err)
	}
	return ts, nil
}

// Client calls the engine REST API for one project and location.
type Client struct {
	http     *http.Client
	baseURL  string
	project  string
	location string
	logger   *slog.Logger
}

// New creates an engine Client authenticated by ts.
func New(cfg *config.EngineConfig, ts oauth2.TokenSource, logger *slog.Logger) *Client {
	client := oauth2.NewClient(context.Background(), ts)
	client.Timeout = cfg.TimeoutDuration()

	return &Client{
		http:     client,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		project:  cfg.Project,
		location: cfg.Location,
		logger:   logger.With("system", "engine"),
	}
}

// ProcessorName expands a bare processor id into its full resource name.
func (c *Client) ProcessorName(processorID string) string {
	if strings.HasPrefix(processorID, "projects/") {
		return processorID
	}
	return fmt.Sprintf(
		"projects/%s/locations/%s/processors/%s",
		c.project, c.location, processorID,
	)
}

// ListVersions returns every version of the processor.
func (c *Client) ListVersions(ctx context.Context, processorID string) ([]Version, error) {
	var (
		versions []Version
		token    string
	)

	for {
		path := "/v1/" + c.ProcessorName(processorID) + "/processorVersions"
		if token != "" {
			path += "?pageToken=" + url.QueryEscape(token)
		}

		var resp listVersionsResponse
		if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return nil, err
		}

		versions = append(versions, resp.ProcessorVersions...)
		if resp.NextPageToken == "" {
			return versions, nil
		}
		token = resp.NextPageToken
	}
}

// Process runs the processor's default version against content.
func (c *Client) Process(ctx context.Context, processorID string, content []byte, mimeType string) (*Document, error) {
	body := processRequest{
		RawDocument: rawDocument{Content: content, MimeType: mimeType},
	}

	var resp processResponse
	if err := c.do(ctx, http.MethodPost, "/v1/"+c.ProcessorName(processorID)+":process", body, &resp); err != nil {
		return nil, err
	}
	if resp.Document == nil {
		return nil, fmt.Errorf("%w: process response has no document", ErrRemote)
	}
	return resp.Document, nil
}

// ImportDocuments imports every document under prefix into the processor's
// dataset, splitting them between training and test.
func (c *Client) ImportDocuments(ctx context.Context, processorID, prefix string) (*Operation, error) {
	body := importRequest{
		BatchDocumentsImportConfigs: []importConfig{{
			BatchInputConfig: batchInputConfig{GCSPrefix: gcsPrefix{GCSURIPrefix: prefix}},
			AutoSplitConfig:  autoSplitConfig{TrainingSplitRatio: TrainingSplitRatio},
		}},
	}

	var op Operation
	path := "/v1beta3/" + c.ProcessorName(processorID) + "/dataset:importDocuments"
	if err := c.do(ctx, http.MethodPost, path, body, &op); err != nil {
		return nil, err
	}
	return &op, nil
}

// Train starts training a new processor version named displayName.
func (c *Client) Train(ctx context.Context, processorID, displayName string) (*Operation, error) {
	var body trainRequest
	body.ProcessorVersion.DisplayName = displayName

	var op Operation
	path := "/v1/" + c.ProcessorName(processorID) + "/processorVersions:train"
	if err := c.do(ctx, http.MethodPost, path, body, &op); err != nil {
		return nil, err
	}

	c.logger.Info("training started", "processor_id", processorID, "operation", op.Name)
	return &op, nil
}

// Operation fetches the current state of a long-running operation.
func (c *Client) Operation(ctx context.Context, name string) (*Operation, error) {
	var op Operation
	if err := c.do(ctx, http.MethodGet, "/v1/"+name, nil, &op); err != nil {
		return nil, err
	}
	return &op, nil
}

// Evaluation returns the F1 score of the version's latest evaluation, or nil
// when the version has not been evaluated.
func (c *Client) Evaluation(ctx context.Context, versionName string) (*float64, error) {
	var v Version
	if err := c.do(ctx, http.MethodGet, "/v1/"+versionName, nil, &v); err != nil {
		return nil, err
	}
	if v.LatestEvaluation == nil {
		return nil, nil
	}
	f1 := v.LatestEvaluation.AggregateMetrics.F1Score
	return &f1, nil
}

// Deploy starts deploying versionName.
func (c *Client) Deploy(ctx context.Context, versionName string) (*Operation, error) {
	var op Operation
	if err := c.do(ctx, http.MethodPost, "/v1/"+versionName+":deploy", struct{}{}, &op); err != nil {
		return nil, err
	}

	c.logger.Info("deployment started", "version", versionName, "operation", op.Name)
	return &op, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrRemote, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrRemote, err)
	}

	c.logger.Debug("engine request", "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode >= 300 {
		return remoteError(method, path, resp.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrRemote, err)
	}
	return nil
}

func remoteError(method, path string, status int, data []byte) error {
	var e errorResponse
	if err := json.Unmarshal(data, &e); err == nil && e.Error.Message != "" {
		return fmt.Errorf("%w: %s %s: %d %s", ErrRemote, method, path, status, e.Error.Message)
	}
	return fmt.Errorf("%w: %s %s: %d", ErrRemote, method, path, status)
}
