package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/volleychamp/volleychamp-api/middleware"
	"github.com/volleychamp/volleychamp-api/models"
	"github.com/volleychamp/volleychamp-api/repositories"
	"github.com/volleychamp/volleychamp-api/services"
)

type TournoiHandler struct {
	tournoiService *services.TournoiService
}

func NewTournoiHandler(tournoiService *services.TournoiService) *TournoiHandler {
	return &TournoiHandler{tournoiService: tournoiService}
}

// ListPublies godoc
// @Summary Upcoming published tournaments open to declarations
// @Tags tournois
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /tournois [get]
func (h *TournoiHandler) ListPublies(w http.ResponseWriter, r *http.Request) {
	tournois, err := h.tournoiService.ListPublies(r.Context(), time.Now())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournois": tournois}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListPasses godoc
// @Summary Past tournaments with the declarations they received
// @Tags tournois
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /tournois/passes [get]
func (h *TournoiHandler) ListPasses(w http.ResponseWriter, r *http.Request) {
	tournois, err := h.tournoiService.ListPasses(r.Context(), time.Now())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournois": tournois}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByID godoc
// @Summary Tournament details
// @Tags tournois
// @Produce json
// @Param id path int true "Tournament ID"
// @Success 200 {object} map[string]interface{}
// @Router /tournois/{id} [get]
func (h *TournoiHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		notFoundResponse(w, r)
		return
	}
	tournoi, err := h.tournoiService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournoi": tournoi}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// List serves the staff board with period, status and search filters.
func (h *TournoiHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repositories.ListTournoisFilter{
		Periode:       repositories.Periode(r.URL.Query().Get("periode")),
		Recherche:     r.URL.Query().Get("q"),
		ReferenceDate: time.Now(),
	}
	if filter.Periode == "" {
		filter.Periode = repositories.PeriodeTous
	}
	if raw := r.URL.Query().Get("statut"); raw != "" {
		statut := models.StatutTournoi(raw)
		filter.Statut = &statut
	}
	if raw := r.URL.Query().Get("est_publie"); raw != "" {
		publie := raw == "true" || raw == "1"
		filter.EstPublie = &publie
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}

	tournois, err := h.tournoiService.List(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournois": tournois}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournoiHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateTournoiInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	tournoi, err := h.tournoiService.Create(r.Context(), input, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournoi": tournoi}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournoiHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		notFoundResponse(w, r)
		return
	}
	var input services.UpdateTournoiInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournoi, err := h.tournoiService.Update(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournoi": tournoi}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournoiHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		notFoundResponse(w, r)
		return
	}
	if err := h.tournoiService.Delete(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
