package animals

import "time"

// Animal es el perfil mínimo que el agendado de medicación necesita.
// El CRUD completo de hogar/animal vive en otro servicio; acá solo se
// guarda lo que el cálculo de horarios consume, en particular la zona
// horaria del animal (no la del dispositivo del cuidador).
type Animal struct {
	ID          string
	HouseholdID string

	Name    string
	Species string

	// Timezone es el nombre IANA ("America/New_York"). Todo el cálculo de
	// dosis y el día local de la clave de idempotencia usan esta zona.
	Timezone string

	CreatedAt time.Time
	UpdatedAt time.Time
}
