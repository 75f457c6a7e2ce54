package webhook

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-med-tracker/internal/platform/httpclient"
	"pet-med-tracker/internal/platform/logger"
)

var ErrNotConfigured = errors.New("webhook notifier not configured")

// Config del notifier por webhook. URL y APIKey vienen de env vars
// (NOTIFY_WEBHOOK_URL / NOTIFY_WEBHOOK_API_KEY).
type Config struct {
	URL    string
	APIKey string

	APIKeyHeader string
	Timeout      time.Duration
}

// Notifier entrega avisos de co-firma a un webhook externo (el servicio de
// push/SMS es otro sistema). Las fallas se loguean y nada más: un aviso
// perdido jamás debe deshacer un registro ya confirmado.
type Notifier struct {
	url          string
	apiKey       string
	apiKeyHeader string
	http         *httpclient.Client
	log          logger.Logger
}

func New(cfg Config, log logger.Logger) *Notifier {
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Notifier{
		url:          strings.TrimSpace(cfg.URL),
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: h,
		http:         httpclient.New(timeout),
		log:          log,
	}
}

func (n *Notifier) IsConfigured() bool {
	return n != nil && n.url != ""
}

func (n *Notifier) CoSignRequested(ctx context.Context, householdID, administrationID string, recordedBy string) {
	if err := n.post(ctx, map[string]string{
		"type":              "cosign.requested",
		"household_id":      householdID,
		"administration_id": administrationID,
		"recorded_by":       recordedBy,
	}); err != nil && n.log != nil {
		n.log.Warn("webhook notify failed", map[string]any{
			"administration_id": administrationID,
			"error":             err.Error(),
		})
	}
}

func (n *Notifier) post(ctx context.Context, payload map[string]string) error {
	if !n.IsConfigured() {
		return ErrNotConfigured
	}

	headers := map[string]string{}
	if n.apiKey != "" {
		headers[n.apiKeyHeader] = n.apiKey
	}
	return n.http.DoJSON(ctx, http.MethodPost, n.url, headers, payload, nil)
}
