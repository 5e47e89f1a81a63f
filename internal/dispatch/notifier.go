package dispatch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/suporte-ops/ticket-desk/internal/config"
)

// Error is a failed or timed out notification. It never fails the business operation
// that triggered it.
type Error struct {
	TicketID string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("dispatch ticket %s: %v", e.TicketID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPNotifier sends a single GET per notification to the automation endpoint.
type HTTPNotifier struct {
	baseURL *url.URL
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPNotifier builds the notifier. An empty base URL yields a notifier that only
// logs, which keeps local development free of outbound calls.
func NewHTTPNotifier(cfg config.DispatchConfig, logger *zap.Logger) (*HTTPNotifier, error) {
	n := &HTTPNotifier{
		client: &http.Client{
			Timeout:   cfg.Timeout(),
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
	if cfg.BaseURL == "" {
		logger.Warn("DISPATCH_BASE_URL not provided; notifications will only be logged")
		return n, nil
	}
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid DISPATCH_BASE_URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid DISPATCH_BASE_URL scheme %q", parsed.Scheme)
	}
	n.baseURL = parsed
	return n, nil
}

// Notify performs the call. The response status and body are not inspected; only
// transport failures and timeouts are reported.
func (n *HTTPNotifier) Notify(ctx context.Context, payload Payload) error {
	if n.baseURL == nil {
		n.logger.Info("dispatch skipped (no endpoint)",
			zap.String("ticket_id", payload.TicketID),
			zap.String("categoria", string(payload.Kind.Category)))
		return nil
	}

	target := *n.baseURL
	query := target.Query()
	for key, values := range payload.Values() {
		for _, v := range values {
			query.Add(key, v)
		}
	}
	target.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return &Error{TicketID: payload.TicketID, Err: err}
	}

	start := time.Now()
	resp, err := n.client.Do(req)
	if err != nil {
		return &Error{TicketID: payload.TicketID, Err: err}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()

	n.logger.Debug("dispatch sent",
		zap.String("ticket_id", payload.TicketID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))
	return nil
}
