package inventory

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-med-tracker/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/inventory", func(ir chi.Router) {
		ir.Post("/", createItemHandler(svc))
		ir.Get("/sources", listSourcesHandler(svc))
		ir.Post("/{itemID}/restock", restockHandler(svc))
	})
}

// createItemRequest es el cuerpo para dar de alta un ítem de inventario.
type createItemRequest struct {
	MedicationID     string `json:"medication_id"`
	Lot              string `json:"lot"`
	ExpiresOn        string `json:"expires_on"` // RFC3339, opcional
	QuantityTotal    int    `json:"quantity_total"`
	AssignedAnimalID string `json:"assigned_animal_id"`
}

type itemResponse struct {
	ID               string     `json:"id"`
	HouseholdID      string     `json:"household_id"`
	MedicationID     string     `json:"medication_id"`
	Lot              string     `json:"lot,omitempty"`
	ExpiresOn        *time.Time `json:"expires_on,omitempty"`
	UnitsRemaining   int        `json:"units_remaining"`
	QuantityTotal    int        `json:"quantity_total"`
	AssignedAnimalID string     `json:"assigned_animal_id,omitempty"`
	InUse            bool       `json:"in_use"`
}

// createItemHandler godoc
// @Summary Alta de ítem de inventario
// @Tags inventory
// @Accept json
// @Produce json
// @Param payload body createItemRequest true "Datos del ítem; expires_on en RFC3339"
// @Success 201 {object} itemResponse
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Router /inventory [post]
func createItemHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.HouseholdID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var expires *time.Time
		if strings.TrimSpace(req.ExpiresOn) != "" {
			t, err := time.Parse(time.RFC3339, req.ExpiresOn)
			if err != nil {
				http.Error(w, "expires_on must be RFC3339", http.StatusBadRequest)
				return
			}
			expires = &t
		}

		it, err := svc.Create(r.Context(), claims.HouseholdID, CreateInput{
			MedicationID:     req.MedicationID,
			Lot:              req.Lot,
			ExpiresOn:        expires,
			QuantityTotal:    req.QuantityTotal,
			AssignedAnimalID: req.AssignedAnimalID,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusCreated, toItemResponse(it))
	}
}

// listSourcesHandler godoc
// @Summary Fuentes de inventario para un medicamento
// @Description Ítems candidatos para suministrar una dosis. Los vencidos quedan fuera salvo include_expired=true (registrar con uno vencido exige allow_override).
// @Tags inventory
// @Produce json
// @Param medication_id query string true "ID del medicamento"
// @Param include_expired query bool false "Incluir ítems vencidos"
// @Param animal_id query string false "Incluye ítems sin asignar + asignados a ese animal"
// @Success 200 {array} itemResponse
// @Failure 401 {string} string "unauthorized"
// @Router /inventory/sources [get]
func listSourcesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.HouseholdID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListSources(r.Context(), claims.HouseholdID, SourceFilter{
			MedicationID:   strings.TrimSpace(r.URL.Query().Get("medication_id")),
			IncludeExpired: r.URL.Query().Get("include_expired") == "true",
			AnimalID:       strings.TrimSpace(r.URL.Query().Get("animal_id")),
		})
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]itemResponse, 0, len(items))
		for _, it := range items {
			out = append(out, toItemResponse(it))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type restockRequest struct {
	Units int `json:"units"`
}

// restockHandler godoc
// @Summary Reponer unidades de un ítem
// @Tags inventory
// @Accept json
// @Produce json
// @Param itemID path string true "ID del ítem"
// @Param payload body restockRequest true "Unidades a sumar (> 0)"
// @Success 200 {object} itemResponse
// @Failure 400 {string} string "units must be positive"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "item not found"
// @Router /inventory/{itemID}/restock [post]
func restockHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.HouseholdID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req restockRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		it, err := svc.Restock(r.Context(), claims.HouseholdID, chi.URLParam(r, "itemID"), req.Units)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, "units must be positive", http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "item not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}
		writeJSON(w, http.StatusOK, toItemResponse(it))
	}
}

func toItemResponse(it Item) itemResponse {
	return itemResponse{
		ID:               it.ID,
		HouseholdID:      it.HouseholdID,
		MedicationID:     it.MedicationID,
		Lot:              it.Lot,
		ExpiresOn:        it.ExpiresOn,
		UnitsRemaining:   it.UnitsRemaining,
		QuantityTotal:    it.QuantityTotal,
		AssignedAnimalID: it.AssignedAnimalID,
		InUse:            it.InUse,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
