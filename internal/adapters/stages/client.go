// Package stages implements the HTTP clients for the four externally
// deployed pipeline stages: Brief Builder, Retriever, Drafter, Editor.
package stages

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
	"time"

	"github.com/draftforge/pipeline-api/internal/core"
	apperrors "github.com/draftforge/pipeline-api/internal/errors"
	"github.com/draftforge/pipeline-api/internal/observability/metrics"
	"github.com/draftforge/pipeline-api/internal/observability/statsd"
)

// Stage display names used in error messages and logs.
const (
	StageBriefBuilder = "Brief Builder"
	StageRetriever    = "Retriever"
	StageDrafter      = "Drafter"
	StageEditor       = "Editor"
)

const maxErrorBodyBytes = 512

// Config describes the four stage endpoints.
type Config struct {
	BriefBuilderURL string
	RetrieverURL    string
	DrafterURL      string
	EditorURL       string
	Timeout         time.Duration // Optional: per-call timeout (default 60s)
	HTTPClient      *http.Client  // Optional
	Logger          *slog.Logger  // Optional
	Metrics         statsd.Sink   // Optional
}

// Client calls each stage as a synchronous POST with a JSON body. A non-2xx
// response is a fatal error for the enclosing job; there is no per-stage
// retry. Every request body carries the acting user's identity.
type Client struct {
	briefURL    string
	retrieveURL string
	draftURL    string
	editURL     string
	client      *http.Client
	logger      *slog.Logger
	metrics     statsd.Sink
}

var _ core.StageClients = (*Client)(nil)

// NewClient constructs a stage client, validating every endpoint URL.
func NewClient(cfg Config) (*Client, error) {
	for stage, endpoint := range map[string]string{
		StageBriefBuilder: cfg.BriefBuilderURL,
		StageRetriever:    cfg.RetrieverURL,
		StageDrafter:      cfg.DrafterURL,
		StageEditor:       cfg.EditorURL,
	} {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("invalid %s URL: %w", stage, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("invalid %s URL scheme: %q", stage, u.Scheme)
		}
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		briefURL:    cfg.BriefBuilderURL,
		retrieveURL: cfg.RetrieverURL,
		draftURL:    cfg.DrafterURL,
		editURL:     cfg.EditorURL,
		client:      client,
		logger:      logger.With("component", "stage_client"),
		metrics:     cfg.Metrics,
	}, nil
}

// BuildBrief calls the Brief Builder stage.
func (c *Client) BuildBrief(ctx context.Context, req core.BuildBriefRequest) (*core.BriefResult, error) {
	var out core.BriefResult
	if err := c.post(ctx, StageBriefBuilder, c.briefURL, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Retrieve calls the Retriever stage.
func (c *Client) Retrieve(ctx context.Context, req core.RetrieveRequest) (*core.RetrieveResult, error) {
	var out core.RetrieveResult
	if err := c.post(ctx, StageRetriever, c.retrieveURL, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Draft calls the Drafter stage.
func (c *Client) Draft(ctx context.Context, req core.DraftRequest) (*core.DraftResult, error) {
	var out core.DraftResult
	if err := c.post(ctx, StageDrafter, c.draftURL, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Edit calls the Editor stage.
func (c *Client) Edit(ctx context.Context, req core.EditRequest) (*core.EditResult, error) {
	var out core.EditResult
	if err := c.post(ctx, StageEditor, c.editURL, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, stage, endpoint string, in, out any) error {
	start := time.Now()
	err := c.doPost(ctx, stage, endpoint, in, out)
	c.emit(stage, time.Since(start), err)
	return err
}

func (c *Client) doPost(ctx context.Context, stage, endpoint string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", stage, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", stage, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.Stagef("%s stage call failed: %v", stage, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := readErrorDetail(resp.Body)
		c.logger.WarnContext(ctx, "stage returned error status",
			"stage", stage, "status", resp.StatusCode, "detail", detail)
		return apperrors.Stagef("%s stage returned status %d", stage, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Stagef("%s stage returned unreadable response: %v", stage, err)
	}
	return nil
}

func (c *Client) emit(stage string, elapsed time.Duration, err error) {
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.EmitStageCall(c.metrics, metrics.StageMetric{
		Stage:    strings.ToLower(strings.ReplaceAll(stage, " ", "_")),
		Result:   result,
		Duration: elapsed,
		Err:      err,
	})
}

func readErrorDetail(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxErrorBodyBytes))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
