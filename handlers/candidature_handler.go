package handlers

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/volleychamp/volleychamp-api/middleware"
	"github.com/volleychamp/volleychamp-api/models"
	"github.com/volleychamp/volleychamp-api/repositories"
	"github.com/volleychamp/volleychamp-api/services"
	"github.com/volleychamp/volleychamp-api/session"
)

const formCandidature = "candidature"

type CandidatureHandler struct {
	candidatureService *services.CandidatureService
	tournoiService     *services.TournoiService
	guard              *session.Guard
}

func NewCandidatureHandler(
	candidatureService *services.CandidatureService,
	tournoiService *services.TournoiService,
	guard *session.Guard,
) *CandidatureHandler {
	return &CandidatureHandler{
		candidatureService: candidatureService,
		tournoiService:     tournoiService,
		guard:              guard,
	}
}

// InitForm opens the hosting application form and starts the anti-spam
// timer. Tournaments with an organizer no longer accept applications.
func (h *CandidatureHandler) InitForm(w http.ResponseWriter, r *http.Request) {
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
	if !tournoi.PeutRecevoirCandidatures(time.Now()) {
		mapServiceErrorToHTTP(w, r, services.ErrTournoiComplet)
		return
	}
	if tournoi.AOrganisateur() {
		mapServiceErrorToHTTP(w, r, services.ErrTournoiDejaOrganise)
		return
	}

	sessionID, err := middleware.GetSessionIDFromContext(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	if err := h.guard.MarkFormStarted(r.Context(), sessionID, formCandidature, time.Now()); err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournoi": tournoi}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Create godoc
// @Summary Apply to host a tournament
// @Tags candidatures
// @Accept json
// @Produce json
// @Param candidature body services.CreateCandidatureInput true "Application"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /candidatures [post]
func (h *CandidatureHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateCandidatureInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	sessionID, err := middleware.GetSessionIDFromContext(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	ip := middleware.ClientIP(r)
	now := time.Now()

	if err := h.guard.CheckTiming(r.Context(), sessionID, formCandidature, now); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := h.guard.CheckQuota(r.Context(), sessionID, ip); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	candidature, err := h.candidatureService.Create(r.Context(), input, now)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := h.guard.RecordSubmission(r.Context(), sessionID, ip); err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	if err := h.guard.ClearFormTimer(r.Context(), sessionID, formCandidature); err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	// The session keeps track of its own applications so the visitor can
	// follow and withdraw them without an account.
	if err := h.guard.RememberCandidature(r.Context(), sessionID, candidature.ID); err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	if err := h.guard.StashConfirmation(r.Context(), sessionID, formCandidature, candidature); err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"candidature": candidature}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Confirmation returns the stashed application exactly once.
func (h *CandidatureHandler) Confirmation(w http.ResponseWriter, r *http.Request) {
	sessionID, err := middleware.GetSessionIDFromContext(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	var candidature models.Candidature
	found, err := h.guard.PopConfirmation(r.Context(), sessionID, formCandidature, &candidature)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	if !found {
		notFoundResponse(w, r)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"candidature": candidature}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MesCandidatures lists the applications submitted from this session,
// grouped by status.
func (h *CandidatureHandler) MesCandidatures(w http.ResponseWriter, r *http.Request) {
	sessionID, err := middleware.GetSessionIDFromContext(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	ids, err := h.guard.RememberedCandidatures(r.Context(), sessionID)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	parStatut := map[models.StatutCandidature][]models.Candidature{}
	for _, id := range ids {
		candidature, err := h.candidatureService.GetByID(r.Context(), id)
		if err != nil {
			// Deleted rows silently drop off the list.
			if errors.Is(err, services.ErrCandidatureNotFound) {
				continue
			}
			mapServiceErrorToHTTP(w, r, err)
			return
		}
		parStatut[candidature.Statut] = append(parStatut[candidature.Statut], *candidature)
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"candidatures": parStatut}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Retirer lets the visitor withdraw an application submitted from their
// own session. Other sessions' applications are invisible here.
func (h *CandidatureHandler) Retirer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		notFoundResponse(w, r)
		return
	}

	sessionID, err := middleware.GetSessionIDFromContext(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	ids, err := h.guard.RememberedCandidatures(r.Context(), sessionID)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	if !slices.Contains(ids, id) {
		notFoundResponse(w, r)
		return
	}

	candidature, err := h.candidatureService.Retirer(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"candidature": candidature}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// List serves the staff board with status and search filters.
func (h *CandidatureHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repositories.ListCandidaturesFilter{
		Recherche: r.URL.Query().Get("q"),
	}
	if raw := r.URL.Query().Get("statut"); raw != "" {
		statut := models.StatutCandidature(raw)
		filter.Statut = &statut
	}
	if raw := r.URL.Query().Get("tournoi_id"); raw != "" {
		if tournoiID, err := strconv.Atoi(raw); err == nil && tournoiID > 0 {
			filter.TournoiID = &tournoiID
		}
	}

	candidatures, err := h.candidatureService.List(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"candidatures": candidatures}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByID serves one application for the staff detail view.
func (h *CandidatureHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		notFoundResponse(w, r)
		return
	}
	candidature, err := h.candidatureService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"candidature": candidature}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Valider accepts a pending application (staff action).
func (h *CandidatureHandler) Valider(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		notFoundResponse(w, r)
		return
	}
	staffUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	candidature, err := h.candidatureService.Valider(r.Context(), id, staffUserID, time.Now())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"candidature": candidature}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Refuser rejects a pending application with a mandatory reason.
func (h *CandidatureHandler) Refuser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		notFoundResponse(w, r)
		return
	}
	staffUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input struct {
		RaisonRefus string `json:"raison_refus"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	candidature, err := h.candidatureService.Refuser(r.Context(), id, staffUserID, input.RaisonRefus, time.Now())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"candidature": candidature}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
