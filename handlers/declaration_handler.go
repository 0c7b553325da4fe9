package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/volleychamp/volleychamp-api/middleware"
	"github.com/volleychamp/volleychamp-api/models"
	"github.com/volleychamp/volleychamp-api/services"
	"github.com/volleychamp/volleychamp-api/session"
)

const formDeclaration = "declaration"

type DeclarationHandler struct {
	declarationService *services.DeclarationService
	tournoiService     *services.TournoiService
	guard              *session.Guard
}

func NewDeclarationHandler(
	declarationService *services.DeclarationService,
	tournoiService *services.TournoiService,
	guard *session.Guard,
) *DeclarationHandler {
	return &DeclarationHandler{
		declarationService: declarationService,
		tournoiService:     tournoiService,
		guard:              guard,
	}
}

// InitForm godoc
// @Summary Open the declaration form for a tournament
// @Description Starts the anti-spam form timer and returns the tournament.
// @Tags declarations
// @Produce json
// @Param id path int true "Tournament ID"
// @Success 200 {object} map[string]interface{}
// @Router /tournois/{id}/declarer [get]
func (h *DeclarationHandler) InitForm(w http.ResponseWriter, r *http.Request) {
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
	if !tournoi.PeutRecevoirDeclarations(time.Now()) {
		mapServiceErrorToHTTP(w, r, services.ErrTournoiComplet)
		return
	}

	sessionID, err := middleware.GetSessionIDFromContext(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	if err := h.guard.MarkFormStarted(r.Context(), sessionID, formDeclaration, time.Now()); err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournoi": tournoi}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Create godoc
// @Summary Submit a team declaration
// @Tags declarations
// @Accept json
// @Produce json
// @Param declaration body services.CreateDeclarationInput true "Declaration"
// @Success 201 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{}
// @Router /declarations [post]
func (h *DeclarationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateDeclarationInput
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

	if err := h.guard.CheckTiming(r.Context(), sessionID, formDeclaration, now); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := h.guard.CheckQuota(r.Context(), sessionID, ip); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	declaration, err := h.declarationService.Create(r.Context(), input, now)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	// Quota counts successful submissions only; the stash feeds the
	// one-shot confirmation screen.
	if err := h.guard.RecordSubmission(r.Context(), sessionID, ip); err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	// Resubmitting requires reopening the form.
	if err := h.guard.ClearFormTimer(r.Context(), sessionID, formDeclaration); err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	if err := h.guard.StashConfirmation(r.Context(), sessionID, formDeclaration, declaration); err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"declaration": declaration}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Confirmation returns the declaration stashed by the last successful
// submission, exactly once. A refresh gets 404.
func (h *DeclarationHandler) Confirmation(w http.ResponseWriter, r *http.Request) {
	sessionID, err := middleware.GetSessionIDFromContext(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	var declaration models.Declaration
	found, err := h.guard.PopConfirmation(r.Context(), sessionID, formDeclaration, &declaration)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	if !found {
		notFoundResponse(w, r)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"declaration": declaration}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
