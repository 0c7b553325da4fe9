package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/volleychamp/volleychamp-api/models"
	"github.com/volleychamp/volleychamp-api/repositories"
)

// GroupeLegacy is one batch of legacy declarations sharing a tournament key.
type GroupeLegacy struct {
	Date         time.Time
	CategorieAge models.CategorieAge
	Sexe         models.Sexe
	Zone         models.Zone
	Declarations []models.Declaration
}

// Libelle renders the group the way the matching tournament would.
func (g *GroupeLegacy) Libelle() string {
	t := models.Tournoi{
		Date:         g.Date,
		CategorieAge: g.CategorieAge,
		Sexe:         g.Sexe,
		Zone:         g.Zone,
	}
	return t.Libelle()
}

// MigrationSummary reports one migration run.
type MigrationSummary struct {
	Groupes             int
	TournoisCrees       int
	TournoisReutilises  int
	DeclarationsLiees   int
	OrphelinesRestantes int
}

type MigrationService struct {
	db           *sql.DB
	tournois     repositories.TournoiRepository
	declarations repositories.DeclarationRepository
	logger       *slog.Logger
}

func NewMigrationService(
	db *sql.DB,
	tournois repositories.TournoiRepository,
	declarations repositories.DeclarationRepository,
	logger *slog.Logger,
) *MigrationService {
	return &MigrationService{db: db, tournois: tournois, declarations: declarations, logger: logger}
}

// GroupLegacyDeclarations splits declarations by their tournament key
// (date, categorie, sexe, zone), ordered by date then category. Pure so the
// dry-run analysis and the actual migration share one grouping.
func GroupLegacyDeclarations(declarations []models.Declaration) []GroupeLegacy {
	type cle struct {
		date time.Time
		cat  models.CategorieAge
		sexe models.Sexe
		zone models.Zone
	}
	parCle := make(map[cle][]models.Declaration)
	for _, d := range declarations {
		k := cle{
			date: time.Date(d.DateTournoi.Year(), d.DateTournoi.Month(), d.DateTournoi.Day(), 0, 0, 0, 0, time.UTC),
			cat:  d.CategorieAge,
			sexe: d.Sexe,
			zone: d.Zone,
		}
		parCle[k] = append(parCle[k], d)
	}

	groupes := make([]GroupeLegacy, 0, len(parCle))
	for k, ds := range parCle {
		groupes = append(groupes, GroupeLegacy{
			Date:         k.date,
			CategorieAge: k.cat,
			Sexe:         k.sexe,
			Zone:         k.zone,
			Declarations: ds,
		})
	}
	sort.Slice(groupes, func(i, j int) bool {
		if !groupes[i].Date.Equal(groupes[j].Date) {
			return groupes[i].Date.Before(groupes[j].Date)
		}
		if groupes[i].CategorieAge != groupes[j].CategorieAge {
			return groupes[i].CategorieAge < groupes[j].CategorieAge
		}
		if groupes[i].Sexe != groupes[j].Sexe {
			return groupes[i].Sexe < groupes[j].Sexe
		}
		return groupes[i].Zone < groupes[j].Zone
	})
	return groupes
}

// Analyse returns the orphan declarations grouped by tournament key without
// touching anything. Used by the CLI before asking for confirmation.
func (s *MigrationService) Analyse(ctx context.Context) ([]GroupeLegacy, error) {
	orphelines, err := s.declarations.List(ctx, repositories.ListDeclarationsFilter{OnlyOrphans: true})
	if err != nil {
		return nil, fmt.Errorf("list orphan declarations: %w", err)
	}
	return GroupLegacyDeclarations(orphelines), nil
}

// Migrate creates one published PLANIFIE tournament per orphan group,
// reusing a tournament that already holds the key, and links every orphan
// declaration to its tournament. Everything runs in one transaction:
// either every orphan finds a home or nothing changes. Idempotent, reruns
// are no-ops once zero orphans remain.
func (s *MigrationService) Migrate(ctx context.Context, createdByID *int) (*MigrationSummary, error) {
	groupes, err := s.Analyse(ctx)
	if err != nil {
		return nil, err
	}
	summary := &MigrationSummary{Groupes: len(groupes)}
	if len(groupes) == 0 {
		return summary, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	var txErr error
	defer func() {
		if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("rollback failed", slog.Any("error", rbErr), slog.Any("cause", txErr))
			}
		}
	}()

	for i := range groupes {
		g := &groupes[i]
		tournoi, err := s.tournois.GetByKey(ctx, g.Date, g.CategorieAge, g.Sexe, g.Zone)
		switch {
		case err == nil:
			summary.TournoisReutilises++
		case errors.Is(err, repositories.ErrTournoiNotFound):
			tournoi = &models.Tournoi{
				Date:         g.Date,
				CategorieAge: g.CategorieAge,
				Sexe:         g.Sexe,
				Zone:         g.Zone,
				Statut:       models.TournoiPlanifie,
				EstPublie:    true,
				CreatedByID:  createdByID,
			}
			if txErr = s.tournois.Create(ctx, tx, tournoi); txErr != nil {
				return nil, fmt.Errorf("create tournoi %s: %w", g.Libelle(), txErr)
			}
			summary.TournoisCrees++
		default:
			txErr = err
			return nil, fmt.Errorf("lookup tournoi %s: %w", g.Libelle(), err)
		}

		for _, d := range g.Declarations {
			if txErr = s.declarations.LinkToTournoi(ctx, tx, d.ID, tournoi.ID); txErr != nil {
				return nil, fmt.Errorf("link declaration %d to tournoi %d: %w", d.ID, tournoi.ID, txErr)
			}
			summary.DeclarationsLiees++
		}
	}

	if txErr = tx.Commit(); txErr != nil {
		return nil, fmt.Errorf("commit transaction: %w", txErr)
	}

	restantes, err := s.declarations.Count(ctx, repositories.ListDeclarationsFilter{OnlyOrphans: true})
	if err != nil {
		return nil, fmt.Errorf("verify orphan count: %w", err)
	}
	summary.OrphelinesRestantes = restantes

	s.logger.InfoContext(ctx, "legacy declarations migrated",
		slog.Int("groupes", summary.Groupes),
		slog.Int("tournois_crees", summary.TournoisCrees),
		slog.Int("tournois_reutilises", summary.TournoisReutilises),
		slog.Int("declarations_liees", summary.DeclarationsLiees),
		slog.Int("orphelines_restantes", summary.OrphelinesRestantes))
	return summary, nil
}
