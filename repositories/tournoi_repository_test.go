package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volleychamp/volleychamp-api/models"
)

func newTournoiRepoMock(t *testing.T) (TournoiRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresTournoiRepository(db), mock
}

func TestTournoiRepositoryCreateKeyConflict(t *testing.T) {
	repo, mock := newTournoiRepoMock(t)

	mock.ExpectQuery(`INSERT INTO tournois`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "tournois_date_categorie_age_sexe_zone_key"})

	tournoi := &models.Tournoi{
		Date:         time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		CategorieAge: models.CategorieM13,
		Sexe:         models.SexeMasculin,
		Zone:         models.ZoneNord,
		Statut:       models.TournoiPlanifie,
	}
	err := repo.Create(context.Background(), nil, tournoi)
	assert.ErrorIs(t, err, ErrTournoiKeyConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTournoiRepositoryGetByKey(t *testing.T) {
	repo, mock := newTournoiRepoMock(t)
	date := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		now := time.Now()
		rows := sqlmock.NewRows([]string{
			"id", "titre", "date", "categorie_age", "sexe", "zone",
			"club_organisateur_id", "lieu", "poules_disponibles", "statut",
			"est_publie", "remarques", "created_by", "created_at", "updated_at",
		}).AddRow(5, "", date, "M13", "M", "N", nil, "", "{HAUTE,BASSE}", "PLANIFIE", true, "", nil, now, now)

		mock.ExpectQuery(`SELECT(.|\n)+FROM tournois(.|\n)+WHERE date = \$1`).
			WithArgs(date, models.CategorieM13, models.SexeMasculin, models.ZoneNord).
			WillReturnRows(rows)

		tournoi, err := repo.GetByKey(context.Background(), date, models.CategorieM13, models.SexeMasculin, models.ZoneNord)
		require.NoError(t, err)
		assert.Equal(t, 5, tournoi.ID)
		assert.Equal(t, models.TournoiPlanifie, tournoi.Statut)
		assert.Equal(t, []string{"HAUTE", "BASSE"}, []string(tournoi.PoulesDisponibles))
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT(.|\n)+FROM tournois(.|\n)+WHERE date = \$1`).
			WithArgs(date, models.CategorieM15, models.SexeFeminin, models.ZoneAucune).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetByKey(context.Background(), date, models.CategorieM15, models.SexeFeminin, models.ZoneAucune)
		assert.ErrorIs(t, err, ErrTournoiNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTournoiRepositoryUpdateNotFound(t *testing.T) {
	repo, mock := newTournoiRepoMock(t)

	mock.ExpectExec(`UPDATE tournois SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), nil, &models.Tournoi{ID: 404})
	assert.ErrorIs(t, err, ErrTournoiNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTournoiRepositoryDeleteInUse(t *testing.T) {
	repo, mock := newTournoiRepoMock(t)

	mock.ExpectExec(`DELETE FROM tournois WHERE id = \$1`).
		WithArgs(7).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "declarations_tournoi_id_fkey"})

	err := repo.Delete(context.Background(), 7)
	assert.ErrorIs(t, err, ErrTournoiInUse)
	assert.NoError(t, mock.ExpectationsWereMet())
}
