package administrations

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pet-med-tracker/internal/domain/cosign"
	"pet-med-tracker/internal/domain/inventory"
	"pet-med-tracker/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, cosignSvc *cosign.Service) {
	r.Route("/administrations", func(ar chi.Router) {
		ar.Post("/", recordHandler(svc))
		ar.Get("/{administrationID}", getHandler(svc))
		ar.Post("/{administrationID}/cosign", completeCoSignHandler(cosignSvc))
		ar.Get("/{administrationID}/cosign", getCoSignHandler(cosignSvc))
	})

	r.Get("/regimens/{regimenID}/administrations", listByRegimenHandler(svc))
	r.Get("/regimens/{regimenID}/compliance", complianceHandler(svc))
}

// recordRequest es el cuerpo para registrar una dosis.
type recordRequest struct {
	AnimalID       string `json:"animal_id"`
	RegimenID      string `json:"regimen_id"`
	AdministeredAt string `json:"administered_at"` // RFC3339

	// IdempotencyKey es obligatoria y debe respetar el formato
	// animalID:regimenID:diaLocalISO:slot (o :prn:<uuid> para PRN).
	IdempotencyKey string `json:"idempotency_key"`

	InventorySourceID string `json:"inventory_source_id"`
	AllowOverride     bool   `json:"allow_override"`
	MarkMissed        bool   `json:"mark_missed"`

	Notes         string   `json:"notes"`
	Site          string   `json:"site"`
	ConditionTags []string `json:"condition_tags"`
	MediaURLs     []string `json:"media_urls"`
}

type administrationResponse struct {
	ID                    string     `json:"id"`
	HouseholdID           string     `json:"household_id"`
	RegimenID             string     `json:"regimen_id"`
	AnimalID              string     `json:"animal_id"`
	CaregiverID           string     `json:"caregiver_id"`
	ScheduledFor          *time.Time `json:"scheduled_for,omitempty"`
	RecordedAt            time.Time  `json:"recorded_at"`
	Status                string     `json:"status"`
	SourceInventoryItemID string     `json:"source_inventory_item_id,omitempty"`
	IdempotencyKey        string     `json:"idempotency_key"`
	Notes                 string     `json:"notes,omitempty"`
	Site                  string     `json:"site,omitempty"`
	ConditionTags         []string   `json:"condition_tags,omitempty"`
	MediaURLs             []string   `json:"media_urls,omitempty"`
	PendingCoSign         bool       `json:"pending_cosign"`
	Replayed              bool       `json:"replayed"`
}

type cosignResponse struct {
	AdministrationID string     `json:"administration_id"`
	RecordedBy       string     `json:"recorded_by"`
	RequiredAt       time.Time  `json:"required_at"`
	ExpiresAt        time.Time  `json:"expires_at"`
	CoSignerID       string     `json:"cosigner_id,omitempty"`
	Status           string     `json:"status"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// recordHandler godoc
// @Summary Registrar administración de dosis
// @Description Registra que una dosis se dio (o se marcó omitida). La operación es idempotente sobre idempotency_key: un reenvío con la misma clave devuelve el registro original con replayed=true y código 200; el primer registro responde 201. Insert, descuento de inventario y alta de co-firma viajan en una sola transacción.
// @Tags administrations
// @Accept json
// @Produce json
// @Param payload body recordRequest true "Datos de la dosis; administered_at en RFC3339"
// @Success 201 {object} administrationResponse
// @Success 200 {object} administrationResponse "replay idempotente"
// @Failure 400 {string} string "invalid json / clave malformada"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "animal/regimen/inventory not found"
// @Failure 409 {string} string "inventory conflict (vencido o medicamento distinto sin allow_override)"
// @Router /administrations [post]
func recordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" || strings.TrimSpace(claims.HouseholdID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req recordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		at, err := time.Parse(time.RFC3339, req.AdministeredAt)
		if err != nil {
			http.Error(w, "administered_at must be RFC3339", http.StatusBadRequest)
			return
		}

		res, err := svc.Record(r.Context(), claims.HouseholdID, RecordInput{
			AnimalID:          req.AnimalID,
			RegimenID:         req.RegimenID,
			CaregiverID:       claims.UserID,
			AdministeredAt:    at,
			IdempotencyKey:    req.IdempotencyKey,
			InventorySourceID: req.InventorySourceID,
			AllowOverride:     req.AllowOverride,
			MarkMissed:        req.MarkMissed,
			Notes:             req.Notes,
			Site:              req.Site,
			ConditionTags:     req.ConditionTags,
			MediaURLs:         req.MediaURLs,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		// Replay: mismo cuerpo de éxito que el alta original, nunca un error.
		status := http.StatusCreated
		if res.Replayed {
			status = http.StatusOK
		}
		writeJSON(w, status, toAdministrationResponse(res.Administration, res.Replayed))
	}
}

// getHandler godoc
// @Summary Obtener una administración
// @Tags administrations
// @Produce json
// @Param administrationID path string true "ID de la administración"
// @Success 200 {object} administrationResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "administration not found"
// @Router /administrations/{administrationID} [get]
func getHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.HouseholdID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		a, err := svc.Get(r.Context(), claims.HouseholdID, chi.URLParam(r, "administrationID"))
		if err != nil {
			http.Error(w, "administration not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toAdministrationResponse(a, false))
	}
}

// completeCoSignHandler godoc
// @Summary Completar co-firma de una dosis de alto riesgo
// @Description El co-firmante debe ser un cuidador distinto de quien registró la dosis y llegar antes de expires_at. Solicitudes COMPLETED/EXPIRED rechazan con 409.
// @Tags administrations
// @Produce json
// @Param administrationID path string true "ID de la administración"
// @Success 200 {object} cosignResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "cosign request not found"
// @Failure 409 {string} string "invalid state (vencida, completada o auto-firma)"
// @Router /administrations/{administrationID}/cosign [post]
func completeCoSignHandler(cosignSvc *cosign.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" || strings.TrimSpace(claims.HouseholdID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		req, err := cosignSvc.Complete(r.Context(), claims.HouseholdID, chi.URLParam(r, "administrationID"), claims.UserID)
		if err != nil {
			switch {
			case errors.Is(err, cosign.ErrNotFound):
				http.Error(w, "cosign request not found", http.StatusNotFound)
			case errors.Is(err, cosign.ErrBadState):
				http.Error(w, "invalid state", http.StatusConflict)
			case errors.Is(err, cosign.ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}
		writeJSON(w, http.StatusOK, toCoSignResponse(req))
	}
}

// getCoSignHandler godoc
// @Summary Consultar la co-firma de una administración
// @Description El vencimiento se evalúa al leer: una solicitud PENDING con la ventana vencida se devuelve ya EXPIRED.
// @Tags administrations
// @Produce json
// @Param administrationID path string true "ID de la administración"
// @Success 200 {object} cosignResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "cosign request not found"
// @Router /administrations/{administrationID}/cosign [get]
func getCoSignHandler(cosignSvc *cosign.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.HouseholdID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		req, err := cosignSvc.Get(r.Context(), claims.HouseholdID, chi.URLParam(r, "administrationID"))
		if err != nil {
			http.Error(w, "cosign request not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toCoSignResponse(req))
	}
}

// listByRegimenHandler godoc
// @Summary Historial de administraciones de un régimen
// @Tags administrations
// @Produce json
// @Param regimenID path string true "ID del régimen"
// @Param limit query int false "Máximo de registros (1-200). Por defecto 50"
// @Success 200 {array} administrationResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "regimen not found"
// @Router /regimens/{regimenID}/administrations [get]
func listByRegimenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.HouseholdID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
				limit = n
			}
		}

		items, err := svc.ListByRegimen(r.Context(), claims.HouseholdID, chi.URLParam(r, "regimenID"), limit)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				http.Error(w, "regimen not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]administrationResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toAdministrationResponse(a, false))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type complianceResponse struct {
	OnTime   int     `json:"on_time"`
	Late     int     `json:"late"`
	VeryLate int     `json:"very_late"`
	Missed   int     `json:"missed"`
	Rate     float64 `json:"rate"`
}

// complianceHandler godoc
// @Summary Cumplimiento real de un régimen
// @Description Proporción de dosis a tiempo y tarde sobre el total de desenlaces programados (PRN queda fuera). Calculado del historial, no estimado.
// @Tags administrations
// @Produce json
// @Param regimenID path string true "ID del régimen"
// @Param days query int false "Ventana hacia atrás en días (default: todo el historial)"
// @Success 200 {object} complianceResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "regimen not found"
// @Router /regimens/{regimenID}/compliance [get]
func complianceHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.HouseholdID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var since time.Time
		if v := r.URL.Query().Get("days"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				since = svc.now().AddDate(0, 0, -n)
			}
		}

		rep, err := svc.Compliance(r.Context(), claims.HouseholdID, chi.URLParam(r, "regimenID"), since)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				http.Error(w, "regimen not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, complianceResponse{
			OnTime:   rep.OnTime,
			Late:     rep.Late,
			VeryLate: rep.VeryLate,
			Missed:   rep.Missed,
			Rate:     rep.Rate,
		})
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ErrInventoryConflict), errors.Is(err, inventory.ErrDepleted):
		// ErrDepleted escapa solo cuando dos registros compiten por la
		// última unidad y uno pierde dentro de la transacción.
		http.Error(w, "inventory conflict", http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toAdministrationResponse(a Administration, replayed bool) administrationResponse {
	return administrationResponse{
		ID:                    a.ID,
		HouseholdID:           a.HouseholdID,
		RegimenID:             a.RegimenID,
		AnimalID:              a.AnimalID,
		CaregiverID:           a.CaregiverID,
		ScheduledFor:          a.ScheduledFor,
		RecordedAt:            a.RecordedAt,
		Status:                string(a.Status),
		SourceInventoryItemID: a.SourceInventoryItemID,
		IdempotencyKey:        a.IdempotencyKey,
		Notes:                 a.Notes,
		Site:                  a.Site,
		ConditionTags:         a.ConditionTags,
		MediaURLs:             a.MediaURLs,
		PendingCoSign:         a.PendingCoSign,
		Replayed:              replayed,
	}
}

func toCoSignResponse(r cosign.Request) cosignResponse {
	return cosignResponse{
		AdministrationID: r.AdministrationID,
		RecordedBy:       r.RecordedBy,
		RequiredAt:       r.RequiredAt,
		ExpiresAt:        r.ExpiresAt,
		CoSignerID:       r.CoSignerID,
		Status:           string(r.Status),
		CompletedAt:      r.CompletedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
