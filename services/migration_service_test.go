package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volleychamp/volleychamp-api/models"
)

func TestGroupLegacyDeclarations(t *testing.T) {
	juin1 := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	juin8 := time.Date(2026, 6, 8, 0, 0, 0, 0, time.UTC)

	declarations := []models.Declaration{
		{ID: 1, DateTournoi: juin1, CategorieAge: models.CategorieM13, Sexe: models.SexeMasculin, Zone: models.ZoneNord},
		{ID: 2, DateTournoi: juin1, CategorieAge: models.CategorieM13, Sexe: models.SexeMasculin, Zone: models.ZoneNord},
		// Same day but stored with an hour component: still the 1st of June.
		{ID: 3, DateTournoi: juin1.Add(9 * time.Hour), CategorieAge: models.CategorieM13, Sexe: models.SexeMasculin, Zone: models.ZoneNord},
		{ID: 4, DateTournoi: juin8, CategorieAge: models.CategorieM13, Sexe: models.SexeMasculin, Zone: models.ZoneNord},
		{ID: 5, DateTournoi: juin1, CategorieAge: models.CategorieM13, Sexe: models.SexeFeminin, Zone: models.ZoneNord},
	}

	groupes := GroupLegacyDeclarations(declarations)
	require.Len(t, groupes, 3)

	// Ordered by date then category then sexe then zone; F sorts before M.
	assert.Equal(t, models.SexeFeminin, groupes[0].Sexe)
	assert.Len(t, groupes[0].Declarations, 1)

	assert.Equal(t, models.SexeMasculin, groupes[1].Sexe)
	assert.True(t, groupes[1].Date.Equal(juin1))
	assert.Len(t, groupes[1].Declarations, 3)

	assert.True(t, groupes[2].Date.Equal(juin8))
	assert.Len(t, groupes[2].Declarations, 1)
}

func TestGroupLegacyDeclarationsEmpty(t *testing.T) {
	assert.Empty(t, GroupLegacyDeclarations(nil))
}

func TestGroupeLegacyLibelle(t *testing.T) {
	g := GroupeLegacy{
		Date:         time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		CategorieAge: models.CategorieM13,
		Sexe:         models.SexeMasculin,
		Zone:         models.ZoneNord,
	}
	assert.Equal(t, "01/06/2026 - M13 Masculin Zone Nord", g.Libelle())
}
