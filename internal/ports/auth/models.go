package auth

// Claims representa la información extraída del token.
// HouseholdID es el predicado de aislamiento: toda lectura y escritura de
// dominio se acota al hogar del caller.
type Claims struct {
	UserID      string
	Email       string
	HouseholdID string
}
