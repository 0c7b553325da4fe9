package services

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volleychamp/volleychamp-api/models"
	"github.com/volleychamp/volleychamp-api/repositories"
	"github.com/volleychamp/volleychamp-api/validation"
)

// fakeTournoiRepository serves tournaments from memory and records updates.
type fakeTournoiRepository struct {
	parID   map[int]*models.Tournoi
	updates int
}

func newFakeTournoiRepository(tournois ...*models.Tournoi) *fakeTournoiRepository {
	r := &fakeTournoiRepository{parID: make(map[int]*models.Tournoi)}
	for _, t := range tournois {
		r.parID[t.ID] = t
	}
	return r
}

func (r *fakeTournoiRepository) Create(_ context.Context, _ repositories.SQLExecutor, t *models.Tournoi) error {
	t.ID = len(r.parID) + 1
	r.parID[t.ID] = t
	return nil
}

func (r *fakeTournoiRepository) GetByID(_ context.Context, id int) (*models.Tournoi, error) {
	t, ok := r.parID[id]
	if !ok {
		return nil, repositories.ErrTournoiNotFound
	}
	copie := *t
	return &copie, nil
}

func (r *fakeTournoiRepository) GetByKey(context.Context, time.Time, models.CategorieAge, models.Sexe, models.Zone) (*models.Tournoi, error) {
	return nil, repositories.ErrTournoiNotFound
}

func (r *fakeTournoiRepository) List(_ context.Context, filter repositories.ListTournoisFilter) ([]models.Tournoi, error) {
	tournois := make([]models.Tournoi, 0, len(r.parID))
	for _, t := range r.parID {
		switch filter.Periode {
		case repositories.PeriodeAVenir:
			if t.Date.Before(filter.ReferenceDate) {
				continue
			}
		case repositories.PeriodePasses:
			if !t.Date.Before(filter.ReferenceDate) {
				continue
			}
		}
		if filter.EstPublie != nil && t.EstPublie != *filter.EstPublie {
			continue
		}
		tournois = append(tournois, *t)
	}
	sort.Slice(tournois, func(i, j int) bool {
		if filter.OrderByDesc {
			return tournois[i].Date.After(tournois[j].Date)
		}
		return tournois[i].Date.Before(tournois[j].Date)
	})
	return tournois, nil
}

func (r *fakeTournoiRepository) Update(_ context.Context, _ repositories.SQLExecutor, t *models.Tournoi) error {
	r.parID[t.ID] = t
	r.updates++
	return nil
}

func (r *fakeTournoiRepository) Delete(context.Context, int) error { return nil }

func (r *fakeTournoiRepository) Count(context.Context, repositories.ListTournoisFilter) (int, error) {
	return len(r.parID), nil
}

// fakeCandidatureRepository serves candidatures from memory.
type fakeCandidatureRepository struct {
	parID   map[int]*models.Candidature
	actives int
	updates int
}

func newFakeCandidatureRepository(candidatures ...*models.Candidature) *fakeCandidatureRepository {
	r := &fakeCandidatureRepository{parID: make(map[int]*models.Candidature)}
	for _, c := range candidatures {
		r.parID[c.ID] = c
	}
	return r
}

func (r *fakeCandidatureRepository) Create(_ context.Context, c *models.Candidature) error {
	c.ID = len(r.parID) + 1
	r.parID[c.ID] = c
	return nil
}

func (r *fakeCandidatureRepository) GetByID(_ context.Context, id int) (*models.Candidature, error) {
	c, ok := r.parID[id]
	if !ok {
		return nil, repositories.ErrCandidatureNotFound
	}
	copie := *c
	return &copie, nil
}

func (r *fakeCandidatureRepository) List(context.Context, repositories.ListCandidaturesFilter) ([]models.Candidature, error) {
	return nil, nil
}

func (r *fakeCandidatureRepository) Update(_ context.Context, _ repositories.SQLExecutor, c *models.Candidature) error {
	r.parID[c.ID] = c
	r.updates++
	return nil
}

func (r *fakeCandidatureRepository) CountActiveByTournoiAndClub(context.Context, int, int) (int, error) {
	return r.actives, nil
}

func (r *fakeCandidatureRepository) CountByStatut(context.Context, *models.StatutCandidature) (int, error) {
	return len(r.parID), nil
}

func (r *fakeCandidatureRepository) CountByTournoi(context.Context, int, *models.StatutCandidature) (int, error) {
	return len(r.parID), nil
}

func newCandidatureServiceTest(t *testing.T, candidatures *fakeCandidatureRepository, tournois *fakeTournoiRepository) (*CandidatureService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	clubs := newFakeClubRepository("VB Nord")
	return NewCandidatureService(db, candidatures, tournois, clubs, nil, discardLogger()), mock
}

// candidatureNotifierSpy records broadcast candidatures.
type candidatureNotifierSpy struct {
	recues []*models.Candidature
}

func (n *candidatureNotifierSpy) CandidatureCreated(c *models.Candidature) {
	n.recues = append(n.recues, c)
}

func tournoiOuvert(id int) *models.Tournoi {
	return &models.Tournoi{
		ID:           id,
		Date:         time.Now().AddDate(0, 1, 0),
		CategorieAge: models.CategorieM13,
		Sexe:         models.SexeMasculin,
		Statut:       models.TournoiPlanifie,
		EstPublie:    true,
	}
}

func TestCandidatureServiceCreate(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	input := CreateCandidatureInput{
		TournoiID:    1,
		NomClub:      "VB Nord",
		Declarant:    "jean dupont",
		EmailContact: "contact@vbnord.fr",
		Lieu:         "Gymnase Jean Moulin",
	}

	t.Run("creates a pending candidature", func(t *testing.T) {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		spy := &candidatureNotifierSpy{}
		svc := NewCandidatureService(db, newFakeCandidatureRepository(),
			newFakeTournoiRepository(tournoiOuvert(1)), newFakeClubRepository("VB Nord"), spy, discardLogger())

		c, err := svc.Create(ctx, input, now)
		require.NoError(t, err)
		assert.Equal(t, models.CandidatureEnAttente, c.Statut)
		assert.Equal(t, "Jean Dupont", c.Declarant)
		assert.NotNil(t, c.Club)
		assert.NotNil(t, c.Tournoi)
		require.Len(t, spy.recues, 1)
		assert.Equal(t, c.ID, spy.recues[0].ID)
	})

	t.Run("honeypot short-circuits everything", func(t *testing.T) {
		svc, _ := newCandidatureServiceTest(t, newFakeCandidatureRepository(), newFakeTournoiRepository(tournoiOuvert(1)))

		piege := input
		piege.Honeypot = "bot"
		_, err := svc.Create(ctx, piege, now)
		var errs validation.Errors
		require.ErrorAs(t, err, &errs)
		assert.Contains(t, errs, "website")
	})

	t.Run("collects field errors", func(t *testing.T) {
		svc, _ := newCandidatureServiceTest(t, newFakeCandidatureRepository(), newFakeTournoiRepository(tournoiOuvert(1)))

		invalide := input
		invalide.Declarant = "test"
		invalide.EmailContact = "a@yopmail.com"
		invalide.Lieu = " "
		_, err := svc.Create(ctx, invalide, now)
		var errs validation.Errors
		require.ErrorAs(t, err, &errs)
		assert.Contains(t, errs, "declarant")
		assert.Contains(t, errs, "email_contact")
		assert.Contains(t, errs, "lieu")
	})

	t.Run("closed tournament", func(t *testing.T) {
		ferme := tournoiOuvert(1)
		ferme.EstPublie = false
		svc, _ := newCandidatureServiceTest(t, newFakeCandidatureRepository(), newFakeTournoiRepository(ferme))

		_, err := svc.Create(ctx, input, now)
		assert.ErrorIs(t, err, ErrTournoiComplet)
	})

	t.Run("already organized", func(t *testing.T) {
		organise := tournoiOuvert(1)
		organisateur := 9
		organise.ClubOrganisateurID = &organisateur
		svc, _ := newCandidatureServiceTest(t, newFakeCandidatureRepository(), newFakeTournoiRepository(organise))

		_, err := svc.Create(ctx, input, now)
		assert.ErrorIs(t, err, ErrTournoiDejaOrganise)
	})

	t.Run("active duplicate", func(t *testing.T) {
		candidatures := newFakeCandidatureRepository()
		candidatures.actives = 1
		svc, _ := newCandidatureServiceTest(t, candidatures, newFakeTournoiRepository(tournoiOuvert(1)))

		_, err := svc.Create(ctx, input, now)
		assert.ErrorIs(t, err, ErrCandidatureDoublon)
	})
}

func TestCandidatureServiceValider(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	tournois := newFakeTournoiRepository(tournoiOuvert(1))
	candidatures := newFakeCandidatureRepository(&models.Candidature{
		ID: 5, TournoiID: 1, ClubID: 1, Lieu: "Gymnase du Parc", Statut: models.CandidatureEnAttente,
	})
	svc, mock := newCandidatureServiceTest(t, candidatures, tournois)

	mock.ExpectBegin()
	mock.ExpectCommit()

	c, err := svc.Valider(ctx, 5, 42, now)
	require.NoError(t, err)
	assert.Equal(t, models.CandidatureValidee, c.Statut)
	assert.Equal(t, 1, candidatures.updates)
	assert.Equal(t, 1, tournois.updates, "the confirmed tournoi is persisted in the same transaction")

	tournoi := tournois.parID[1]
	assert.Equal(t, models.TournoiConfirme, tournoi.Statut)
	assert.Equal(t, "Gymnase du Parc", tournoi.Lieu)
	require.NotNil(t, tournoi.ClubOrganisateurID)
	assert.Equal(t, 1, *tournoi.ClubOrganisateurID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidatureServiceRefuser(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("reason required", func(t *testing.T) {
		candidatures := newFakeCandidatureRepository(&models.Candidature{
			ID: 5, TournoiID: 1, Statut: models.CandidatureEnAttente,
		})
		svc, _ := newCandidatureServiceTest(t, candidatures, newFakeTournoiRepository(tournoiOuvert(1)))

		_, err := svc.Refuser(ctx, 5, 42, "  ", now)
		assert.ErrorIs(t, err, ErrRaisonRefusRequise)
		assert.Zero(t, candidatures.updates)
	})

	t.Run("tournoi untouched on refusal", func(t *testing.T) {
		tournois := newFakeTournoiRepository(tournoiOuvert(1))
		candidatures := newFakeCandidatureRepository(&models.Candidature{
			ID: 5, TournoiID: 1, Statut: models.CandidatureEnAttente,
		})
		svc, mock := newCandidatureServiceTest(t, candidatures, tournois)

		mock.ExpectBegin()
		mock.ExpectCommit()

		c, err := svc.Refuser(ctx, 5, 42, "Salle indisponible", now)
		require.NoError(t, err)
		assert.Equal(t, models.CandidatureRefusee, c.Statut)
		assert.Equal(t, "Salle indisponible", c.RaisonRefus)
		assert.Zero(t, tournois.updates)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCandidatureServiceRetirer(t *testing.T) {
	ctx := context.Background()

	t.Run("withdrawing a validated bid reverts the tournoi", func(t *testing.T) {
		organisateur := 1
		tournoi := tournoiOuvert(1)
		tournoi.Statut = models.TournoiConfirme
		tournoi.Lieu = "Gymnase du Parc"
		tournoi.ClubOrganisateurID = &organisateur

		tournois := newFakeTournoiRepository(tournoi)
		candidatures := newFakeCandidatureRepository(&models.Candidature{
			ID: 5, TournoiID: 1, ClubID: 1, Statut: models.CandidatureValidee,
		})
		svc, mock := newCandidatureServiceTest(t, candidatures, tournois)

		mock.ExpectBegin()
		mock.ExpectCommit()

		c, err := svc.Retirer(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, models.CandidatureRetiree, c.Statut)

		apres := tournois.parID[1]
		assert.Equal(t, models.TournoiPlanifie, apres.Statut)
		assert.Nil(t, apres.ClubOrganisateurID)
		assert.Empty(t, apres.Lieu)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("refused bid cannot be withdrawn", func(t *testing.T) {
		candidatures := newFakeCandidatureRepository(&models.Candidature{
			ID: 5, TournoiID: 1, Statut: models.CandidatureRefusee,
		})
		svc, _ := newCandidatureServiceTest(t, candidatures, newFakeTournoiRepository(tournoiOuvert(1)))

		_, err := svc.Retirer(ctx, 5)
		assert.ErrorIs(t, err, ErrCandidatureEtatInvalide)
	})

	t.Run("unknown candidature", func(t *testing.T) {
		svc, _ := newCandidatureServiceTest(t, newFakeCandidatureRepository(), newFakeTournoiRepository(tournoiOuvert(1)))

		_, err := svc.Retirer(ctx, 404)
		assert.ErrorIs(t, err, ErrCandidatureNotFound)
	})
}
