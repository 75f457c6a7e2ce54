package animals

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"pet-med-tracker/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/animals", func(ar chi.Router) {
		ar.Post("/", createAnimalHandler(svc))
		ar.Get("/", listAnimalsHandler(svc))
		ar.Get("/{animalID}", getAnimalHandler(svc))
	})
}

// createAnimalRequest es el cuerpo para registrar un animal del hogar.
type createAnimalRequest struct {
	Name     string `json:"name"`
	Species  string `json:"species"`
	Timezone string `json:"timezone"` // nombre IANA; default UTC
}

type animalResponse struct {
	ID          string    `json:"id"`
	HouseholdID string    `json:"household_id"`
	Name        string    `json:"name"`
	Species     string    `json:"species"`
	Timezone    string    `json:"timezone"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// createAnimalHandler godoc
// @Summary Registrar animal
// @Description Registra un animal en el hogar del caller. La zona horaria del animal gobierna todo el cálculo de dosis.
// @Tags animals
// @Accept json
// @Produce json
// @Param payload body createAnimalRequest true "Datos del animal"
// @Success 201 {object} animalResponse
// @Failure 400 {string} string "invalid json / timezone inválida"
// @Failure 401 {string} string "unauthorized"
// @Router /animals [post]
func createAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.HouseholdID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createAnimalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		a, err := svc.Create(r.Context(), claims.HouseholdID, CreateInput{
			Name:     req.Name,
			Species:  req.Species,
			Timezone: req.Timezone,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusCreated, toAnimalResponse(a))
	}
}

// listAnimalsHandler godoc
// @Summary Listar animales del hogar
// @Tags animals
// @Produce json
// @Success 200 {array} animalResponse
// @Failure 401 {string} string "unauthorized"
// @Router /animals [get]
func listAnimalsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.HouseholdID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByHousehold(r.Context(), claims.HouseholdID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]animalResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toAnimalResponse(a))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getAnimalHandler godoc
// @Summary Obtener un animal
// @Tags animals
// @Produce json
// @Param animalID path string true "ID del animal"
// @Success 200 {object} animalResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "animal not found"
// @Router /animals/{animalID} [get]
func getAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.HouseholdID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		a, err := svc.Get(r.Context(), claims.HouseholdID, chi.URLParam(r, "animalID"))
		if err != nil {
			http.Error(w, "animal not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toAnimalResponse(a))
	}
}

func toAnimalResponse(a Animal) animalResponse {
	return animalResponse{
		ID:          a.ID,
		HouseholdID: a.HouseholdID,
		Name:        a.Name,
		Species:     a.Species,
		Timezone:    a.Timezone,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
