package auth

import "context"

// AuthVerifier valida el token del caller contra el servicio de identidad.
// Los claims devueltos deben traer el hogar: sin HouseholdID no hay
// aislamiento posible y el middleware no inyecta nada.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
