package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/volleychamp/volleychamp-api/models"
	"github.com/volleychamp/volleychamp-api/repositories"
	"github.com/volleychamp/volleychamp-api/validation"
)

// ImportClubsResult summarizes a CSV import run.
type ImportClubsResult struct {
	Crees     int      `json:"crees"`
	Existants int      `json:"existants"`
	Erreurs   []string `json:"erreurs,omitempty"`
}

type ClubService struct {
	clubs  repositories.ClubRepository
	logger *slog.Logger
}

func NewClubService(clubs repositories.ClubRepository, logger *slog.Logger) *ClubService {
	return &ClubService{clubs: clubs, logger: logger}
}

// List returns all clubs ordered by name.
func (s *ClubService) List(ctx context.Context) ([]models.Club, error) {
	return s.clubs.List(ctx)
}

// GetByID loads one club.
func (s *ClubService) GetByID(ctx context.Context, id int) (*models.Club, error) {
	club, err := s.clubs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrClubNotFound) {
			return nil, ErrClubNotFound
		}
		return nil, err
	}
	return club, nil
}

// Create registers a club by name.
func (s *ClubService) Create(ctx context.Context, nom string) (*models.Club, error) {
	nom = strings.TrimSpace(nom)
	if nom == "" {
		return nil, validation.Errors{"nom": "Le nom du club est obligatoire"}
	}
	club := &models.Club{Nom: nom}
	if err := s.clubs.Create(ctx, club); err != nil {
		if errors.Is(err, repositories.ErrClubNomConflict) {
			return nil, ErrClubNomConflict
		}
		return nil, err
	}
	return club, nil
}

// ImportCSV reads a semicolon or comma separated file whose header holds a
// nom_club column and creates every club not yet known. Rows that fail keep
// their line number in the result instead of aborting the run.
func (s *ClubService) ImportCSV(ctx context.Context, r io.Reader) (*ImportClubsResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}
	nomIdx := -1
	for i, col := range header {
		// Tolerate a UTF-8 BOM on the first column.
		col = strings.TrimPrefix(strings.TrimSpace(col), "\uFEFF")
		if strings.EqualFold(col, "nom_club") {
			nomIdx = i
			break
		}
	}
	if nomIdx == -1 {
		// Retry with semicolons: Excel's French locale default.
		if len(header) == 1 && strings.Contains(header[0], ";") {
			parts := strings.Split(strings.TrimPrefix(header[0], "\uFEFF"), ";")
			for i, col := range parts {
				if strings.EqualFold(strings.TrimSpace(col), "nom_club") {
					nomIdx = i
					reader.Comma = ';'
					break
				}
			}
		}
	}
	if nomIdx == -1 {
		return nil, fmt.Errorf("CSV header must contain a nom_club column")
	}

	result := &ImportClubsResult{}
	ligne := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		ligne++
		if err != nil {
			result.Erreurs = append(result.Erreurs, fmt.Sprintf("ligne %d : %v", ligne, err))
			continue
		}
		if nomIdx >= len(record) {
			result.Erreurs = append(result.Erreurs, fmt.Sprintf("ligne %d : colonne nom_club absente", ligne))
			continue
		}
		nom := strings.TrimSpace(record[nomIdx])
		if nom == "" {
			result.Erreurs = append(result.Erreurs, fmt.Sprintf("ligne %d : nom de club vide", ligne))
			continue
		}
		_, created, err := s.clubs.GetOrCreate(ctx, nom)
		if err != nil {
			result.Erreurs = append(result.Erreurs, fmt.Sprintf("ligne %d : %v", ligne, err))
			continue
		}
		if created {
			result.Crees++
		} else {
			result.Existants++
		}
	}

	s.logger.InfoContext(ctx, "clubs imported",
		slog.Int("crees", result.Crees),
		slog.Int("existants", result.Existants),
		slog.Int("erreurs", len(result.Erreurs)))
	return result, nil
}

// TemplateCSV writes the import template with its expected header and two
// example rows.
func (s *ClubService) TemplateCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	writer.Comma = ';'
	rows := [][]string{
		{"nom_club"},
		{"VB Club Exemple Nord"},
		{"VB Club Exemple Sud"},
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
