package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volleychamp/volleychamp-api/models"
)

func TestTournoiServiceListPasses(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	passe := &models.Tournoi{
		ID:           1,
		Date:         now.AddDate(0, -2, 0),
		CategorieAge: models.CategorieM13,
		Sexe:         models.SexeMasculin,
		Statut:       models.TournoiTermine,
		EstPublie:    true,
	}
	aVenir := &models.Tournoi{
		ID:           2,
		Date:         now.AddDate(0, 1, 0),
		CategorieAge: models.CategorieM15,
		Sexe:         models.SexeFeminin,
		Statut:       models.TournoiPlanifie,
		EstPublie:    true,
	}
	brouillon := &models.Tournoi{
		ID:           3,
		Date:         now.AddDate(0, -1, 0),
		CategorieAge: models.CategorieM11,
		Sexe:         models.SexeMasculin,
		EstPublie:    false,
	}
	annule := &models.Tournoi{
		ID:           4,
		Date:         now.AddDate(0, -3, 0),
		CategorieAge: models.CategorieM18,
		Sexe:         models.SexeFeminin,
		Statut:       models.TournoiAnnule,
		EstPublie:    true,
	}

	tournoiID := passe.ID
	declarations := newFakeDeclarationRepository(
		&models.Declaration{ID: 10, ClubID: 1, TournoiID: &tournoiID, NombreEquipes: 2},
	)
	svc := NewTournoiService(
		newFakeTournoiRepository(passe, aVenir, brouillon, annule),
		newFakeClubRepository(),
		declarations,
		discardLogger(),
	)

	passes, err := svc.ListPasses(ctx, now)
	require.NoError(t, err)
	require.Len(t, passes, 1)
	assert.Equal(t, passe.ID, passes[0].ID)
	require.Len(t, passes[0].Declarations, 1)
	assert.Equal(t, 2, passes[0].Declarations[0].NombreEquipes)
}
