package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/volleychamp/volleychamp-api/models"
	"github.com/volleychamp/volleychamp-api/repositories"
	"github.com/volleychamp/volleychamp-api/services"
)

// StaffHandler serves the back-office dashboard and the declaration board
// with its CSV export.
type StaffHandler struct {
	dashboardService   *services.DashboardService
	declarationService *services.DeclarationService
	exportService      *services.ExportService
}

func NewStaffHandler(
	dashboardService *services.DashboardService,
	declarationService *services.DeclarationService,
	exportService *services.ExportService,
) *StaffHandler {
	return &StaffHandler{
		dashboardService:   dashboardService,
		declarationService: declarationService,
		exportService:      exportService,
	}
}

func (h *StaffHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.Stats(r.Context(), time.Now())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"stats": stats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Declarations serves the staff declaration board. With ?export=csv the
// same filtered rows stream out as a CSV download instead of JSON.
func (h *StaffHandler) Declarations(w http.ResponseWriter, r *http.Request) {
	filter := declarationFilterFromQuery(r)

	if r.URL.Query().Get("export") == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="declarations.csv"`)
		if err := h.exportService.WriteDeclarationsCSV(r.Context(), w, filter); err != nil {
			serverErrorResponse(w, r, err)
		}
		return
	}

	declarations, err := h.declarationService.List(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"declarations": declarations}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ArchiveDeclarations snapshots the filtered export into the object store
// and returns the public URL.
func (h *StaffHandler) ArchiveDeclarations(w http.ResponseWriter, r *http.Request) {
	filter := declarationFilterFromQuery(r)
	result, err := h.exportService.ArchiveDeclarationsCSV(r.Context(), filter, time.Now())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"archive": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func declarationFilterFromQuery(r *http.Request) repositories.ListDeclarationsFilter {
	filter := repositories.ListDeclarationsFilter{
		Recherche: r.URL.Query().Get("q"),
	}
	if raw := r.URL.Query().Get("tournoi_id"); raw != "" {
		if tournoiID, err := strconv.Atoi(raw); err == nil && tournoiID > 0 {
			filter.TournoiID = &tournoiID
		}
	}
	if raw := r.URL.Query().Get("club_id"); raw != "" {
		if clubID, err := strconv.Atoi(raw); err == nil && clubID > 0 {
			filter.ClubID = &clubID
		}
	}
	if raw := r.URL.Query().Get("categorie_age"); raw != "" {
		cat := models.CategorieAge(raw)
		filter.CategorieAge = &cat
	}
	if raw := r.URL.Query().Get("sexe"); raw != "" {
		sexe := models.Sexe(raw)
		filter.Sexe = &sexe
	}
	if raw := r.URL.Query().Get("zone"); raw != "" {
		zone := models.Zone(raw)
		filter.Zone = &zone
	}
	if r.URL.Query().Get("orphelines") == "true" {
		filter.OnlyOrphans = true
	}
	return filter
}
