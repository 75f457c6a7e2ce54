package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pet-med-tracker/internal/ports/auth"
)

var ErrTokenEmpty = errors.New("token is empty")

// Verifier implementa auth.AuthVerifier contra el servicio de identidad.
// Lo instancia el router cuando AUTH_BASE_URL está presente; sin él la API
// corre en modo dev con headers de debug.
type Verifier struct {
	client *Client
}

func NewVerifier(client *Client) *Verifier {
	return &Verifier{client: client}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || v.client == nil {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	claims, err := v.client.VerifyToken(ctx, token)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("token verify failed: %w", err)
	}

	claims.UserID = strings.TrimSpace(claims.UserID)
	if claims.UserID == "" {
		return auth.Claims{}, errors.New("claims missing user id")
	}
	if strings.TrimSpace(claims.HouseholdID) == "" {
		// Sin hogar no hay scoping posible: mejor cortar acá que dejar
		// pasar un request que no matchea ninguna fila.
		return auth.Claims{}, errors.New("claims missing household id")
	}

	return claims, nil
}
