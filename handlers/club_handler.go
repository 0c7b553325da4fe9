package handlers

import (
	"net/http"

	"github.com/volleychamp/volleychamp-api/services"
)

type ClubHandler struct {
	clubService *services.ClubService
}

func NewClubHandler(clubService *services.ClubService) *ClubHandler {
	return &ClubHandler{clubService: clubService}
}

func (h *ClubHandler) List(w http.ResponseWriter, r *http.Request) {
	clubs, err := h.clubService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"clubs": clubs}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ClubHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Nom string `json:"nom"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	club, err := h.clubService.Create(r.Context(), input.Nom)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"club": club}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Import ingests a CSV file uploaded as multipart form data under the
// "fichier" field and returns the per-row import summary.
func (h *ClubHandler) Import(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(5 << 20); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	file, _, err := r.FormFile("fichier")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	result, err := h.clubService.ImportCSV(r.Context(), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"import": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Template serves the CSV skeleton expected by Import.
func (h *ClubHandler) Template(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="modele_clubs.csv"`)
	if err := h.clubService.TemplateCSV(w); err != nil {
		serverErrorResponse(w, r, err)
	}
}
