package regimens

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
	r.Route("/regimens", func(rr chi.Router) {
		rr.Post("/", createRegimenHandler(svc))
		rr.Get("/", listRegimensHandler(svc))

		// Lista de dosis para la UI: due / overdue / prn (+ later opcional)
		rr.Get("/due", listDueHandler(svc))

		rr.Get("/{regimenID}", getRegimenHandler(svc))
		rr.Post("/{regimenID}/pause", pauseRegimenHandler(svc))
		rr.Post("/{regimenID}/resume", resumeRegimenHandler(svc))
		rr.Post("/{regimenID}/archive", archiveRegimenHandler(svc))
	})
}

// createRegimenRequest es el cuerpo para crear un plan de dosificación.
type createRegimenRequest struct {
	AnimalID       string   `json:"animal_id"`
	MedicationID   string   `json:"medication_id"`
	MedicationName string   `json:"medication_name"`
	Dose           string   `json:"dose"`
	ScheduleType   string   `json:"schedule_type" enums:"FIXED,PRN,INTERVAL,TAPER"`
	TimesLocal     []string `json:"times_local"`    // HH:MM, solo FIXED/TAPER
	IntervalHours  int      `json:"interval_hours"` // solo INTERVAL
	CutoffMinutes  int      `json:"cutoff_minutes"` // default 60
	HighRisk       bool     `json:"high_risk"`
	RequiresCoSign bool     `json:"requires_cosign"`
	TaperNotes     string   `json:"taper_notes"`
	StartDate      string   `json:"start_date"` // RFC3339
	EndDate        string   `json:"end_date"`   // RFC3339, opcional
}

type regimenResponse struct {
	ID             string     `json:"id"`
	HouseholdID    string     `json:"household_id"`
	AnimalID       string     `json:"animal_id"`
	MedicationID   string     `json:"medication_id"`
	MedicationName string     `json:"medication_name"`
	Dose           string     `json:"dose"`
	ScheduleType   string     `json:"schedule_type"`
	TimesLocal     []string   `json:"times_local,omitempty"`
	IntervalHours  int        `json:"interval_hours,omitempty"`
	CutoffMinutes  int        `json:"cutoff_minutes"`
	HighRisk       bool       `json:"high_risk"`
	RequiresCoSign bool       `json:"requires_cosign"`
	TaperNotes     string     `json:"taper_notes,omitempty"`
	Active         bool       `json:"active"`
	PausedAt       *time.Time `json:"paused_at,omitempty"`
	PauseReason    string     `json:"pause_reason,omitempty"`
	StartDate      time.Time  `json:"start_date"`
	EndDate        *time.Time `json:"end_date,omitempty"`
}

type regimenStatusResponse struct {
	Regimen         regimenResponse `json:"regimen"`
	Section         string          `json:"section"`
	NextDueAt       *time.Time      `json:"next_due_at,omitempty"`
	MinutesUntilDue int             `json:"minutes_until_due"`
	IsOverdue       bool            `json:"is_overdue"`
	SlotIndex       int             `json:"slot_index"`
	LocalDay        string          `json:"local_day,omitempty"`
}

// createRegimenHandler godoc
// @Summary Crear régimen de medicación
// @Description Crea un plan de dosificación para un animal del hogar. FIXED/TAPER exigen times_local; INTERVAL exige interval_hours > 0.
// @Tags regimens
// @Accept json
// @Produce json
// @Param payload body createRegimenRequest true "Datos del régimen; start_date en RFC3339"
// @Success 201 {object} regimenResponse
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "animal not found"
// @Router /regimens [post]
func createRegimenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.HouseholdID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createRegimenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		start, err := time.Parse(time.RFC3339, req.StartDate)
		if err != nil {
			http.Error(w, "start_date must be RFC3339", http.StatusBadRequest)
			return
		}
		var end *time.Time
		if strings.TrimSpace(req.EndDate) != "" {
			t, err := time.Parse(time.RFC3339, req.EndDate)
			if err != nil {
				http.Error(w, "end_date must be RFC3339", http.StatusBadRequest)
				return
			}
			end = &t
		}

		reg, err := svc.Create(r.Context(), claims.HouseholdID, CreateInput{
			AnimalID:       req.AnimalID,
			MedicationID:   req.MedicationID,
			MedicationName: req.MedicationName,
			Dose:           req.Dose,
			ScheduleType:   ScheduleType(req.ScheduleType),
			TimesLocal:     req.TimesLocal,
			IntervalHours:  req.IntervalHours,
			CutoffMinutes:  req.CutoffMinutes,
			HighRisk:       req.HighRisk,
			RequiresCoSign: req.RequiresCoSign,
			TaperNotes:     req.TaperNotes,
			StartDate:      start,
			EndDate:        end,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toRegimenResponse(reg))
	}
}

// listRegimensHandler godoc
// @Summary Listar regímenes del hogar
// @Tags regimens
// @Produce json
// @Param animal_id query string false "Limitar a un animal"
// @Param include_archived query bool false "Incluir regímenes archivados"
// @Success 200 {array} regimenResponse
// @Failure 401 {string} string "unauthorized"
// @Router /regimens [get]
func listRegimensHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.HouseholdID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		filter := ListFilter{
			AnimalID:        strings.TrimSpace(r.URL.Query().Get("animal_id")),
			IncludeArchived: r.URL.Query().Get("include_archived") == "true",
		}
		items, err := svc.ListByHousehold(r.Context(), claims.HouseholdID, filter)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]regimenResponse, 0, len(items))
		for _, reg := range items {
			out = append(out, toRegimenResponse(reg))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// listDueHandler godoc
// @Summary Lista de dosis por sección
// @Description Clasifica cada régimen vigente del hogar en la zona horaria de su animal. Devuelve due/overdue/prn; con include_upcoming=true agrega later. Empates: la próxima dosis más temprana primero.
// @Tags regimens
// @Produce json
// @Param animal_id query string false "Limitar a un animal"
// @Param include_upcoming query bool false "Incluir la sección later"
// @Success 200 {array} regimenStatusResponse
// @Failure 401 {string} string "unauthorized"
// @Router /regimens/due [get]
func listDueHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.HouseholdID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListDue(
			r.Context(),
			claims.HouseholdID,
			strings.TrimSpace(r.URL.Query().Get("animal_id")),
			r.URL.Query().Get("include_upcoming") == "true",
		)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]regimenStatusResponse, 0, len(items))
		for _, it := range items {
			out = append(out, regimenStatusResponse{
				Regimen:         toRegimenResponse(it.Regimen),
				Section:         string(it.Status.Section),
				NextDueAt:       it.Status.NextDueAt,
				MinutesUntilDue: it.Status.MinutesUntilDue,
				IsOverdue:       it.Status.IsOverdue,
				SlotIndex:       it.Status.SlotIndex,
				LocalDay:        it.Status.LocalDay,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getRegimenHandler godoc
// @Summary Obtener un régimen
// @Tags regimens
// @Produce json
// @Param regimenID path string true "ID del régimen"
// @Success 200 {object} regimenResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "regimen not found"
// @Router /regimens/{regimenID} [get]
func getRegimenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.HouseholdID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		reg, err := svc.Get(r.Context(), claims.HouseholdID, chi.URLParam(r, "regimenID"))
		if err != nil {
			http.Error(w, "regimen not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toRegimenResponse(reg))
	}
}

type pauseRequest struct {
	Reason string `json:"reason"`
}

// pauseRegimenHandler godoc
// @Summary Pausar un régimen
// @Description Pausa el régimen (idempotente). Mientras está pausado no aparece en la lista de dosis ni acepta registros.
// @Tags regimens
// @Accept json
// @Produce json
// @Param regimenID path string true "ID del régimen"
// @Param payload body pauseRequest false "Motivo"
// @Success 200 {object} regimenResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "regimen not found"
// @Router /regimens/{regimenID}/pause [post]
func pauseRegimenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.HouseholdID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req pauseRequest
		_ = json.NewDecoder(r.Body).Decode(&req) // body opcional

		reg, err := svc.Pause(r.Context(), claims.HouseholdID, chi.URLParam(r, "regimenID"), req.Reason)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRegimenResponse(reg))
	}
}

// resumeRegimenHandler godoc
// @Summary Reanudar un régimen pausado
// @Tags regimens
// @Produce json
// @Param regimenID path string true "ID del régimen"
// @Success 200 {object} regimenResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "regimen not found"
// @Router /regimens/{regimenID}/resume [post]
func resumeRegimenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.HouseholdID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		reg, err := svc.Resume(r.Context(), claims.HouseholdID, chi.URLParam(r, "regimenID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRegimenResponse(reg))
	}
}

// archiveRegimenHandler godoc
// @Summary Archivar un régimen (soft delete)
// @Description El historial de administraciones sigue referenciándolo; nunca se borra en duro.
// @Tags regimens
// @Produce json
// @Param regimenID path string true "ID del régimen"
// @Success 200 {object} regimenResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "regimen not found"
// @Router /regimens/{regimenID}/archive [post]
func archiveRegimenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.HouseholdID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		reg, err := svc.Archive(r.Context(), claims.HouseholdID, chi.URLParam(r, "regimenID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRegimenResponse(reg))
	}
}

func toRegimenResponse(r Regimen) regimenResponse {
	return regimenResponse{
		ID:             r.ID,
		HouseholdID:    r.HouseholdID,
		AnimalID:       r.AnimalID,
		MedicationID:   r.MedicationID,
		MedicationName: r.MedicationName,
		Dose:           r.Dose,
		ScheduleType:   string(r.ScheduleType),
		TimesLocal:     r.TimesLocal,
		IntervalHours:  r.IntervalHours,
		CutoffMinutes:  r.CutoffMinutes,
		HighRisk:       r.HighRisk,
		RequiresCoSign: r.RequiresCoSign,
		TaperNotes:     r.TaperNotes,
		Active:         r.Active,
		PausedAt:       r.PausedAt,
		PauseReason:    r.PauseReason,
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "regimen not found", http.StatusNotFound)
	case errors.Is(err, ErrBadState):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
