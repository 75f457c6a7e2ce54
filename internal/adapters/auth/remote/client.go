package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pet-med-tracker/internal/platform/httpclient"
	"pet-med-tracker/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("auth client not configured")
	ErrUnauthorized  = errors.New("auth unauthorized")
	ErrUpstream      = errors.New("auth upstream error")
)

// Config del cliente de identidad. BaseURL y APIKey vienen de env vars en
// quien lo instancia (AUTH_BASE_URL / AUTH_API_KEY).
type Config struct {
	BaseURL string
	APIKey  string

	// Opcional: header donde viaja la API key. Vacío usa "X-Api-Key".
	APIKeyHeader string

	Timeout time.Duration
}

type Client struct {
	apiKey       string
	apiKeyHeader string
	http         *httpclient.Client
}

func NewClient(cfg Config) *Client {
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	hc, err := httpclient.NewWithBaseURL(strings.TrimSpace(cfg.BaseURL), timeout)
	if err != nil {
		hc = httpclient.New(timeout)
	}

	return &Client{
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: h,
		http:         hc,
	}
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != "" && c.apiKey != ""
}

// VerifyToken verifica un token contra el servicio de identidad y trae los
// claims, incluido el hogar al que pertenece el usuario.
func (c *Client) VerifyToken(ctx context.Context, token string) (auth.Claims, error) {
	if !c.IsConfigured() {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrUnauthorized
	}

	var out struct {
		UserID      string `json:"user_id"`
		Email       string `json:"email"`
		HouseholdID string `json:"household_id"`
	}

	err := c.http.DoJSON(ctx, http.MethodPost, "/v1/tokens/verify",
		map[string]string{
			c.apiKeyHeader:  c.apiKey,
			"Authorization": "Bearer " + token,
		},
		map[string]string{"token": token},
		&out,
	)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) {
			if httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden {
				return auth.Claims{}, ErrUnauthorized
			}
			return auth.Claims{}, fmt.Errorf("%w: status=%d", ErrUpstream, httpErr.StatusCode)
		}
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	out.UserID = strings.TrimSpace(out.UserID)
	if out.UserID == "" {
		return auth.Claims{}, errors.New("auth response missing user_id")
	}

	return auth.Claims{
		UserID:      out.UserID,
		Email:       strings.TrimSpace(out.Email),
		HouseholdID: strings.TrimSpace(out.HouseholdID),
	}, nil
}
