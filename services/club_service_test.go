package services

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volleychamp/volleychamp-api/models"
	"github.com/volleychamp/volleychamp-api/repositories"
	"github.com/volleychamp/volleychamp-api/validation"
)

// fakeClubRepository keeps clubs in memory, keyed by name.
type fakeClubRepository struct {
	parNom map[string]*models.Club
	nextID int
}

func newFakeClubRepository(noms ...string) *fakeClubRepository {
	r := &fakeClubRepository{parNom: make(map[string]*models.Club), nextID: 1}
	for _, nom := range noms {
		r.parNom[nom] = &models.Club{ID: r.nextID, Nom: nom}
		r.nextID++
	}
	return r
}

func (r *fakeClubRepository) Create(_ context.Context, club *models.Club) error {
	if _, exists := r.parNom[club.Nom]; exists {
		return repositories.ErrClubNomConflict
	}
	club.ID = r.nextID
	r.nextID++
	r.parNom[club.Nom] = club
	return nil
}

func (r *fakeClubRepository) GetByID(_ context.Context, id int) (*models.Club, error) {
	for _, club := range r.parNom {
		if club.ID == id {
			return club, nil
		}
	}
	return nil, repositories.ErrClubNotFound
}

func (r *fakeClubRepository) GetByNom(_ context.Context, nom string) (*models.Club, error) {
	if club, ok := r.parNom[nom]; ok {
		return club, nil
	}
	return nil, repositories.ErrClubNotFound
}

func (r *fakeClubRepository) GetOrCreate(ctx context.Context, nom string) (*models.Club, bool, error) {
	if club, ok := r.parNom[nom]; ok {
		return club, false, nil
	}
	club := &models.Club{Nom: nom}
	if err := r.Create(ctx, club); err != nil {
		return nil, false, err
	}
	return club, true, nil
}

func (r *fakeClubRepository) List(_ context.Context) ([]models.Club, error) {
	clubs := make([]models.Club, 0, len(r.parNom))
	for _, club := range r.parNom {
		clubs = append(clubs, *club)
	}
	return clubs, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClubServiceCreate(t *testing.T) {
	ctx := context.Background()
	svc := NewClubService(newFakeClubRepository("VB Nord"), discardLogger())

	t.Run("empty name", func(t *testing.T) {
		_, err := svc.Create(ctx, "   ")
		var errs validation.Errors
		require.ErrorAs(t, err, &errs)
		assert.Contains(t, errs, "nom")
	})

	t.Run("duplicate name", func(t *testing.T) {
		_, err := svc.Create(ctx, "VB Nord")
		assert.ErrorIs(t, err, ErrClubNomConflict)
	})

	t.Run("new club", func(t *testing.T) {
		club, err := svc.Create(ctx, "  VB Sud  ")
		require.NoError(t, err)
		assert.Equal(t, "VB Sud", club.Nom)
		assert.NotZero(t, club.ID)
	})
}

func TestClubServiceImportCSV(t *testing.T) {
	ctx := context.Background()

	t.Run("comma separated", func(t *testing.T) {
		svc := NewClubService(newFakeClubRepository("VB Nord"), discardLogger())
		csv := "nom_club\nVB Nord\nVB Sud\n\nVB Est\n"

		result, err := svc.ImportCSV(ctx, strings.NewReader(csv))
		require.NoError(t, err)
		assert.Equal(t, 2, result.Crees)
		assert.Equal(t, 1, result.Existants)
		require.Len(t, result.Erreurs, 1)
		assert.Contains(t, result.Erreurs[0], "ligne 4")
	})

	t.Run("semicolon separated with BOM", func(t *testing.T) {
		svc := NewClubService(newFakeClubRepository(), discardLogger())
		csv := "\uFEFFnom_club;ville\nVB Nord;Lille\nVB Sud;Marseille\n"

		result, err := svc.ImportCSV(ctx, strings.NewReader(csv))
		require.NoError(t, err)
		assert.Equal(t, 2, result.Crees)
		assert.Empty(t, result.Erreurs)
	})

	t.Run("missing nom_club column", func(t *testing.T) {
		svc := NewClubService(newFakeClubRepository(), discardLogger())
		_, err := svc.ImportCSV(ctx, strings.NewReader("nom,ville\nVB Nord,Lille\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nom_club")
	})
}

func TestClubServiceTemplateCSV(t *testing.T) {
	svc := NewClubService(newFakeClubRepository(), discardLogger())

	var buf bytes.Buffer
	require.NoError(t, svc.TemplateCSV(&buf))

	lignes := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lignes, 3)
	assert.Equal(t, "nom_club", lignes[0])
}
