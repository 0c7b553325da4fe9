package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/volleychamp/volleychamp-api/models"
	"github.com/volleychamp/volleychamp-api/repositories"
	"github.com/volleychamp/volleychamp-api/storage"
)

// Fixed header of the declarations export, in display order. Semicolons and
// a UTF-8 BOM keep the file double-clickable in French-locale Excel.
var exportDeclarationsHeader = []string{
	"Date déclaration",
	"Club",
	"Déclarant",
	"Email",
	"Tournoi",
	"Date tournoi",
	"Catégorie",
	"Sexe",
	"Zone",
	"Nombre équipes",
	"Remarques",
}

// ArchiveResult points at an export snapshot stored in the object store.
type ArchiveResult struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type ExportService struct {
	declarations *DeclarationService
	uploader     storage.FileUploader
	logger       *slog.Logger
}

// NewExportService builds the CSV exporter. uploader may be nil, in which
// case archiving is disabled but downloads keep working.
func NewExportService(declarations *DeclarationService, uploader storage.FileUploader, logger *slog.Logger) *ExportService {
	return &ExportService{declarations: declarations, uploader: uploader, logger: logger}
}

// WriteDeclarationsCSV streams the filtered declarations as CSV to w.
func (s *ExportService) WriteDeclarationsCSV(ctx context.Context, w io.Writer, filter repositories.ListDeclarationsFilter) error {
	declarations, err := s.declarations.List(ctx, filter)
	if err != nil {
		return err
	}

	if _, err := w.Write([]byte("\uFEFF")); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}
	writer := csv.NewWriter(w)
	writer.Comma = ';'

	if err := writer.Write(exportDeclarationsHeader); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for i := range declarations {
		if err := writer.Write(declarationToCSVRow(&declarations[i])); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ArchiveDeclarationsCSV renders the same export and uploads it under a
// timestamped key, returning the public URL of the snapshot.
func (s *ExportService) ArchiveDeclarationsCSV(ctx context.Context, filter repositories.ListDeclarationsFilter, now time.Time) (*ArchiveResult, error) {
	if s.uploader == nil {
		return nil, fmt.Errorf("export archiving is not configured")
	}

	var buf bytes.Buffer
	if err := s.WriteDeclarationsCSV(ctx, &buf, filter); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("exports/declarations_%s.csv", now.Format("20060102_150405"))
	result, err := s.uploader.Upload(ctx, key, "text/csv; charset=utf-8", &buf)
	if err != nil {
		return nil, fmt.Errorf("archive export: %w", err)
	}

	s.logger.InfoContext(ctx, "export archived",
		slog.String("key", result.Key),
		slog.String("url", result.Location))
	return &ArchiveResult{Key: result.Key, URL: result.Location}, nil
}

func declarationToCSVRow(d *models.Declaration) []string {
	libelleTournoi := ""
	if d.Tournoi != nil {
		libelleTournoi = d.Tournoi.Libelle()
	}
	nomClub := ""
	if d.Club != nil {
		nomClub = d.Club.Nom
	}
	return []string{
		d.DateDeclaration.Format("02/01/2006 15:04"),
		nomClub,
		d.Declarant,
		d.EmailClub,
		libelleTournoi,
		d.DateTournoi.Format("02/01/2006"),
		string(d.CategorieAge),
		d.Sexe.Libelle(),
		d.Zone.Libelle(),
		strconv.Itoa(d.NombreEquipes),
		d.Remarques,
	}
}
