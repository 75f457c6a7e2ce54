package notify

import "context"

// Notifier avisa a un cuidador que una dosis de alto riesgo espera co-firma.
// La entrega (push/SMS/email) es un colaborador externo; este módulo solo
// define el contrato y nunca bloquea el flujo de registro.
type Notifier interface {
	CoSignRequested(ctx context.Context, householdID, administrationID string, recordedBy string)
}

// Discard es el notifier nulo (default y tests).
type Discard struct{}

func (Discard) CoSignRequested(context.Context, string, string, string) {}
