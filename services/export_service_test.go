package services

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volleychamp/volleychamp-api/models"
	"github.com/volleychamp/volleychamp-api/repositories"
	"github.com/volleychamp/volleychamp-api/storage"
)

type uploaderSpy struct {
	key     string
	contenu []byte
}

func (u *uploaderSpy) Upload(_ context.Context, key, _ string, reader io.Reader) (*storage.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.key = key
	u.contenu = data
	return &storage.UploadResult{Key: key, Location: "https://exports.test/" + key}, nil
}

func (u *uploaderSpy) Delete(context.Context, string) error { return nil }

func (u *uploaderSpy) GetPublicURL(key string) string { return "https://exports.test/" + key }

func newExportServiceTest(t *testing.T, uploader storage.FileUploader) *ExportService {
	t.Helper()

	tournoi := &models.Tournoi{
		ID:           1,
		Date:         time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		CategorieAge: models.CategorieM13,
		Sexe:         models.SexeMasculin,
		Zone:         models.ZoneNord,
		Statut:       models.TournoiPlanifie,
		EstPublie:    true,
	}
	tournoiID := tournoi.ID
	declarations := newFakeDeclarationRepository(&models.Declaration{
		ID:              1,
		ClubID:          1,
		TournoiID:       &tournoiID,
		CategorieAge:    tournoi.CategorieAge,
		Sexe:            tournoi.Sexe,
		Zone:            tournoi.Zone,
		DateTournoi:     tournoi.Date,
		NombreEquipes:   2,
		NomsEquipes:     []string{"VB Nord 1", "VB Nord 2"},
		Declarant:       "Jean Dupont",
		EmailClub:       "contact@vbnord.fr",
		DateDeclaration: time.Date(2026, 5, 20, 9, 30, 0, 0, time.UTC),
	})

	declarationService := NewDeclarationService(
		declarations,
		newFakeTournoiRepository(tournoi),
		newFakeClubRepository("VB Nord"),
		nil,
		discardLogger(),
	)
	return NewExportService(declarationService, uploader, discardLogger())
}

func TestExportServiceWriteDeclarationsCSV(t *testing.T) {
	svc := newExportServiceTest(t, nil)

	var buf bytes.Buffer
	require.NoError(t, svc.WriteDeclarationsCSV(context.Background(), &buf, repositories.ListDeclarationsFilter{}))

	contenu := buf.String()
	assert.True(t, strings.HasPrefix(contenu, "\uFEFF"), "export starts with a BOM")

	lignes := strings.Split(strings.TrimSpace(strings.TrimPrefix(contenu, "\uFEFF")), "\n")
	require.Len(t, lignes, 2)
	assert.Equal(t, "Date déclaration;Club;Déclarant;Email;Tournoi;Date tournoi;Catégorie;Sexe;Zone;Nombre équipes;Remarques", lignes[0])
	assert.Contains(t, lignes[1], "20/05/2026 09:30;VB Nord;Jean Dupont;contact@vbnord.fr")
	assert.Contains(t, lignes[1], "01/06/2026 - M13 Masculin Zone Nord")
	assert.Contains(t, lignes[1], ";M13;Masculin;Zone Nord;2;")
}

func TestExportServiceArchiveDeclarationsCSV(t *testing.T) {
	now := time.Date(2026, 5, 21, 18, 45, 12, 0, time.UTC)

	t.Run("uploads a timestamped snapshot", func(t *testing.T) {
		spy := &uploaderSpy{}
		svc := newExportServiceTest(t, spy)

		result, err := svc.ArchiveDeclarationsCSV(context.Background(), repositories.ListDeclarationsFilter{}, now)
		require.NoError(t, err)
		assert.Equal(t, "exports/declarations_20260521_184512.csv", result.Key)
		assert.Equal(t, "https://exports.test/exports/declarations_20260521_184512.csv", result.URL)
		assert.Contains(t, string(spy.contenu), "Jean Dupont")
	})

	t.Run("fails cleanly without an uploader", func(t *testing.T) {
		svc := newExportServiceTest(t, nil)
		_, err := svc.ArchiveDeclarationsCSV(context.Background(), repositories.ListDeclarationsFilter{}, now)
		assert.Error(t, err)
	})
}
