package handlers

import (
	"net/http"
	"time"

	"github.com/volleychamp/volleychamp-api/services"
)

type HomeHandler struct {
	dashboardService *services.DashboardService
}

func NewHomeHandler(dashboardService *services.DashboardService) *HomeHandler {
	return &HomeHandler{dashboardService: dashboardService}
}

// Sante is the liveness probe.
func (h *HomeHandler) Sante(w http.ResponseWriter, r *http.Request) {
	if err := writeJSON(w, http.StatusOK, jsonResponse{"statut": "disponible"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Accueil godoc
// @Summary Public home-page counters
// @Tags accueil
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /accueil [get]
func (h *HomeHandler) Accueil(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.Accueil(r.Context(), time.Now())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"stats": stats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
