package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/volleychamp/volleychamp-api/models"
	"github.com/volleychamp/volleychamp-api/repositories"
)

type DashboardService struct {
	tournois     repositories.TournoiRepository
	candidatures repositories.CandidatureRepository
	declarations repositories.DeclarationRepository
	logger       *slog.Logger
}

func NewDashboardService(
	tournois repositories.TournoiRepository,
	candidatures repositories.CandidatureRepository,
	declarations repositories.DeclarationRepository,
	logger *slog.Logger,
) *DashboardService {
	return &DashboardService{
		tournois:     tournois,
		candidatures: candidatures,
		declarations: declarations,
		logger:       logger,
	}
}

// Stats gathers the staff landing-page counters. The independent counts
// run concurrently; the first failure cancels the rest.
func (s *DashboardService) Stats(ctx context.Context, now time.Time) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}
	g, gctx := errgroup.WithContext(ctx)

	countCandidatures := func(statut models.StatutCandidature, dest *int) func() error {
		return func() error {
			n, err := s.candidatures.CountByStatut(gctx, &statut)
			if err != nil {
				return fmt.Errorf("count candidatures %s: %w", statut, err)
			}
			*dest = n
			return nil
		}
	}
	g.Go(countCandidatures(models.CandidatureEnAttente, &stats.CandidaturesEnAttente))
	g.Go(countCandidatures(models.CandidatureValidee, &stats.CandidaturesValidees))
	g.Go(countCandidatures(models.CandidatureRefusee, &stats.CandidaturesRefusees))
	g.Go(func() error {
		n, err := s.candidatures.CountByStatut(gctx, nil)
		if err != nil {
			return fmt.Errorf("count candidatures: %w", err)
		}
		stats.CandidaturesTotal = n
		return nil
	})

	publie := true
	countTournois := func(filter repositories.ListTournoisFilter, dest *int) func() error {
		return func() error {
			n, err := s.tournois.Count(gctx, filter)
			if err != nil {
				return fmt.Errorf("count tournois: %w", err)
			}
			*dest = n
			return nil
		}
	}
	planifie := models.TournoiPlanifie
	confirme := models.TournoiConfirme
	g.Go(countTournois(repositories.ListTournoisFilter{
		Periode: repositories.PeriodeAVenir, EstPublie: &publie, ReferenceDate: now,
	}, &stats.TournoisAVenir))
	g.Go(countTournois(repositories.ListTournoisFilter{
		Statut: &planifie, ReferenceDate: now,
	}, &stats.TournoisPlanifies))
	g.Go(countTournois(repositories.ListTournoisFilter{
		Statut: &confirme, ReferenceDate: now,
	}, &stats.TournoisConfirmes))
	g.Go(countTournois(repositories.ListTournoisFilter{
		EstPublie: &publie, ReferenceDate: now,
	}, &stats.TournoisTotal))

	g.Go(func() error {
		n, err := s.declarations.Count(gctx, repositories.ListDeclarationsFilter{})
		if err != nil {
			return fmt.Errorf("count declarations: %w", err)
		}
		stats.DeclarationsTotal = n
		return nil
	})
	g.Go(func() error {
		n, err := s.declarations.SumEquipes(gctx)
		if err != nil {
			return fmt.Errorf("sum teams: %w", err)
		}
		stats.EquipesTotal = n
		return nil
	})
	g.Go(func() error {
		n, err := s.declarations.CountDistinctClubs(gctx)
		if err != nil {
			return fmt.Errorf("count declaring clubs: %w", err)
		}
		stats.ClubsDeclarants = n
		return nil
	})

	g.Go(func() error {
		prochains, err := s.prochainsTournois(gctx, now, 5)
		if err != nil {
			return err
		}
		stats.ProchainsTournois = prochains
		return nil
	})
	g.Go(func() error {
		enAttente := models.CandidatureEnAttente
		recentes, err := s.candidatures.List(gctx, repositories.ListCandidaturesFilter{
			Statut: &enAttente,
			Limit:  5,
		})
		if err != nil {
			return fmt.Errorf("list recent candidatures: %w", err)
		}
		stats.CandidaturesRecentes = recentes
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

// Accueil gathers the public home-page counters.
func (s *DashboardService) Accueil(ctx context.Context, now time.Time) (*models.AccueilStats, error) {
	stats := &models.AccueilStats{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		publie := true
		n, err := s.tournois.Count(gctx, repositories.ListTournoisFilter{
			Periode: repositories.PeriodeAVenir, EstPublie: &publie, ReferenceDate: now,
		})
		if err != nil {
			return fmt.Errorf("count upcoming tournois: %w", err)
		}
		stats.TournoisAVenir = n
		return nil
	})
	g.Go(func() error {
		n, err := s.declarations.Count(gctx, repositories.ListDeclarationsFilter{})
		if err != nil {
			return fmt.Errorf("count declarations: %w", err)
		}
		stats.DeclarationsTotal = n
		return nil
	})
	g.Go(func() error {
		n, err := s.declarations.SumEquipes(gctx)
		if err != nil {
			return fmt.Errorf("sum teams: %w", err)
		}
		stats.EquipesTotal = n
		return nil
	})
	g.Go(func() error {
		n, err := s.declarations.CountDistinctClubs(gctx)
		if err != nil {
			return fmt.Errorf("count declaring clubs: %w", err)
		}
		stats.ClubsDeclarants = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *DashboardService) prochainsTournois(ctx context.Context, now time.Time, limit int) ([]models.TournoiAvecStats, error) {
	publie := true
	tournois, err := s.tournois.List(ctx, repositories.ListTournoisFilter{
		Periode:       repositories.PeriodeAVenir,
		EstPublie:     &publie,
		Limit:         limit,
		ReferenceDate: now,
	})
	if err != nil {
		return nil, fmt.Errorf("list upcoming tournois: %w", err)
	}

	result := make([]models.TournoiAvecStats, 0, len(tournois))
	for i := range tournois {
		t := tournois[i]
		avec := models.TournoiAvecStats{Tournoi: t}
		if avec.NbDeclarations, err = s.declarations.CountByTournoi(ctx, t.ID); err != nil {
			return nil, fmt.Errorf("count declarations of tournoi %d: %w", t.ID, err)
		}
		if avec.NbEquipes, err = s.declarations.SumEquipesByTournoi(ctx, t.ID); err != nil {
			return nil, fmt.Errorf("sum teams of tournoi %d: %w", t.ID, err)
		}
		if avec.NbCandidatures, err = s.candidatures.CountByTournoi(ctx, t.ID, nil); err != nil {
			return nil, fmt.Errorf("count candidatures of tournoi %d: %w", t.ID, err)
		}
		enAttente := models.CandidatureEnAttente
		if avec.NbCandidaturesEnAttente, err = s.candidatures.CountByTournoi(ctx, t.ID, &enAttente); err != nil {
			return nil, fmt.Errorf("count pending candidatures of tournoi %d: %w", t.ID, err)
		}
		result = append(result, avec)
	}
	return result, nil
}
