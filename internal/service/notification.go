package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/draftforge/pipeline-api/internal/core"
)

// JMESPathEvaluator abstracts JMESPath operations for testability.
type JMESPathEvaluator interface {
	Validate(expr string) error
	Evaluate(expr string, data any) (any, error)
}

// jmespathLibEvaluator implements JMESPathEvaluator using go-jmespath.
type jmespathLibEvaluator struct{}

func (j jmespathLibEvaluator) Validate(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	_, err := jmespath.Compile(expr)
	return err
}

func (j jmespathLibEvaluator) Evaluate(expr string, data any) (any, error) {
	return jmespath.Search(expr, data)
}

// NotificationServiceOptions groups dependencies for NotificationService.
type NotificationServiceOptions struct {
	WebhookURL string            // Required: delivery endpoint
	Template   map[string]string // Optional: body field → JMESPath expression
	Timeout    time.Duration     // Optional: per-delivery timeout (default 10s)
	HTTPClient *http.Client      // Optional
	Evaluator  JMESPathEvaluator // Optional
	Logger     *slog.Logger      // Optional
}

// NotificationService delivers draft-ready webhooks. The outgoing body is
// assembled by evaluating each configured JMESPath expression against the
// notification document; with no template configured the document is sent
// as-is. Delivery is fire-and-forget from the pipeline's point of view: the
// executor records failures as a run step and moves on.
type NotificationService struct {
	webhookURL string
	template   map[string]string
	client     *http.Client
	evaluator  JMESPathEvaluator
	logger     *slog.Logger
}

var _ core.DraftNotifier = (*NotificationService)(nil)

// NewNotificationService constructs a NotificationService and validates the
// webhook URL and every template expression up front.
func NewNotificationService(opts NotificationServiceOptions) (*NotificationService, error) {
	if strings.TrimSpace(opts.WebhookURL) == "" {
		return nil, ErrNotifierDisabled
	}
	u, err := url.Parse(opts.WebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid webhook URL scheme: %s", u.Scheme)
	}

	evaluator := opts.Evaluator
	if evaluator == nil {
		evaluator = jmespathLibEvaluator{}
	}
	for field, expr := range opts.Template {
		if verr := evaluator.Validate(expr); verr != nil {
			return nil, fmt.Errorf("invalid JMESPath for template field %q: %w", field, verr)
		}
	}

	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &NotificationService{
		webhookURL: opts.WebhookURL,
		template:   opts.Template,
		client:     client,
		evaluator:  evaluator,
		logger:     logger.With("component", "notification"),
	}, nil
}

// NotifyDraftReady delivers one draft-ready notification.
func (s *NotificationService) NotifyDraftReady(ctx context.Context, n core.DraftNotification) error {
	body, err := s.buildBody(n)
	if err != nil {
		return fmt.Errorf("build notification body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notification webhook returned status %d", resp.StatusCode)
	}

	s.logger.DebugContext(ctx, "draft notification delivered",
		"draft_id", n.DraftID, "user_id", n.UserID)
	return nil
}

func (s *NotificationService) buildBody(n core.DraftNotification) ([]byte, error) {
	// The JMESPath document is the notification viewed as generic JSON.
	raw, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	if len(s.template) == 0 {
		return raw, nil
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	body := make(map[string]any, len(s.template))
	for field, expr := range s.template {
		value, eerr := s.evaluator.Evaluate(expr, doc)
		if eerr != nil {
			return nil, fmt.Errorf("evaluate template field %q: %w", field, eerr)
		}
		if value == nil {
			return nil, fmt.Errorf("template field %q resolved to nothing", field)
		}
		body[field] = value
	}
	return json.Marshal(body)
}

// NopNotifier satisfies core.DraftNotifier when notifications are disabled.
type NopNotifier struct{}

// NotifyDraftReady is a no-op.
func (NopNotifier) NotifyDraftReady(context.Context, core.DraftNotification) error {
	return nil
}

// ErrNotifierDisabled is returned by constructors when wiring is asked for
// a notifier without a webhook URL configured.
var ErrNotifierDisabled = errors.New("notification webhook not configured")
