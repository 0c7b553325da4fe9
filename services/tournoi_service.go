package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/volleychamp/volleychamp-api/models"
	"github.com/volleychamp/volleychamp-api/repositories"
	"github.com/volleychamp/volleychamp-api/validation"
)

// CreateTournoiInput carries the staff form for a new tournament.
type CreateTournoiInput struct {
	Titre             string              `json:"titre"`
	Date              time.Time           `json:"date"`
	CategorieAge      models.CategorieAge `json:"categorie_age"`
	Sexe              models.Sexe         `json:"sexe"`
	Zone              models.Zone         `json:"zone"`
	Lieu              string              `json:"lieu"`
	PoulesDisponibles []string            `json:"poules_disponibles"`
	EstPublie         bool                `json:"est_publie"`
	Remarques         string              `json:"remarques"`
}

// UpdateTournoiInput carries the editable fields. Nil pointers mean
// "leave unchanged".
type UpdateTournoiInput struct {
	Titre             *string               `json:"titre"`
	Lieu              *string               `json:"lieu"`
	PoulesDisponibles *[]string             `json:"poules_disponibles"`
	Statut            *models.StatutTournoi `json:"statut"`
	EstPublie         *bool                 `json:"est_publie"`
	Remarques         *string               `json:"remarques"`
}

// TournoiAvecCompteurs decorates a tournament with its declaration totals
// for the public and staff listings.
type TournoiAvecCompteurs struct {
	models.Tournoi
	NombreDeclarations int `json:"nombre_declarations"`
	NombreEquipes      int `json:"nombre_equipes"`
}

// TournoiPasse bundles a finished tournament with the declarations it
// received, for the public archive.
type TournoiPasse struct {
	models.Tournoi
	Declarations []models.Declaration `json:"declarations"`
}

type TournoiService struct {
	tournois     repositories.TournoiRepository
	clubs        repositories.ClubRepository
	declarations repositories.DeclarationRepository
	logger       *slog.Logger
}

func NewTournoiService(
	tournois repositories.TournoiRepository,
	clubs repositories.ClubRepository,
	declarations repositories.DeclarationRepository,
	logger *slog.Logger,
) *TournoiService {
	return &TournoiService{
		tournois:     tournois,
		clubs:        clubs,
		declarations: declarations,
		logger:       logger,
	}
}

// Create validates and stores a new tournament for a staff user.
func (s *TournoiService) Create(ctx context.Context, input CreateTournoiInput, createdByID int) (*models.Tournoi, error) {
	if err := validateTournoiChamps(input.CategorieAge, input.Sexe, input.Zone, input.PoulesDisponibles); err != nil {
		return nil, err
	}
	if input.Date.IsZero() {
		return nil, validation.Errors{"date": "La date du tournoi est obligatoire"}
	}
	remarques, msg := validation.Remarques(input.Remarques, validation.MaxRemarquesCandidature)
	if msg != "" {
		return nil, validation.Errors{"remarques": msg}
	}

	// Proactive duplicate check so the caller gets a clean conflict before
	// the unique index fires.
	existing, err := s.tournois.GetByKey(ctx, input.Date, input.CategorieAge, input.Sexe, input.Zone)
	if err != nil && !errors.Is(err, repositories.ErrTournoiNotFound) {
		return nil, fmt.Errorf("check tournoi key: %w", err)
	}
	if existing != nil {
		return nil, ErrTournoiCleConflict
	}

	tournoi := &models.Tournoi{
		Titre:             strings.TrimSpace(input.Titre),
		Date:              input.Date,
		CategorieAge:      input.CategorieAge,
		Sexe:              input.Sexe,
		Zone:              input.Zone,
		Lieu:              strings.TrimSpace(input.Lieu),
		PoulesDisponibles: input.PoulesDisponibles,
		Statut:            models.TournoiPlanifie,
		EstPublie:         input.EstPublie,
		Remarques:         remarques,
		CreatedByID:       &createdByID,
	}
	if err := s.tournois.Create(ctx, nil, tournoi); err != nil {
		return nil, s.mapRepoError(err)
	}

	s.logger.InfoContext(ctx, "tournoi created",
		slog.Int("tournoi_id", tournoi.ID),
		slog.String("libelle", tournoi.Libelle()),
		slog.Int("created_by", createdByID))
	return tournoi, nil
}

// GetByID loads one tournament with its organizer populated.
func (s *TournoiService) GetByID(ctx context.Context, id int) (*models.Tournoi, error) {
	tournoi, err := s.tournois.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err)
	}
	s.populateOrganisateur(ctx, tournoi)
	return tournoi, nil
}

// Update applies the staff edits. Identity fields (date, categorie, sexe,
// zone) are immutable once created; a wrong tournament is deleted and
// recreated instead.
func (s *TournoiService) Update(ctx context.Context, id int, input UpdateTournoiInput) (*models.Tournoi, error) {
	tournoi, err := s.tournois.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err)
	}

	if input.Titre != nil {
		tournoi.Titre = strings.TrimSpace(*input.Titre)
	}
	if input.Lieu != nil {
		tournoi.Lieu = strings.TrimSpace(*input.Lieu)
	}
	if input.PoulesDisponibles != nil {
		for _, p := range *input.PoulesDisponibles {
			if !models.ValidPoule(models.Poule(p)) {
				return nil, validation.Errors{"poules_disponibles": "Poule inconnue : " + p}
			}
		}
		tournoi.PoulesDisponibles = *input.PoulesDisponibles
	}
	if input.Statut != nil {
		switch *input.Statut {
		case models.TournoiPlanifie, models.TournoiConfirme, models.TournoiAnnule, models.TournoiTermine:
			tournoi.Statut = *input.Statut
		default:
			return nil, validation.Errors{"statut": "Statut inconnu : " + string(*input.Statut)}
		}
	}
	if input.EstPublie != nil {
		tournoi.EstPublie = *input.EstPublie
	}
	if input.Remarques != nil {
		remarques, msg := validation.Remarques(*input.Remarques, validation.MaxRemarquesCandidature)
		if msg != "" {
			return nil, validation.Errors{"remarques": msg}
		}
		tournoi.Remarques = remarques
	}

	if err := s.tournois.Update(ctx, nil, tournoi); err != nil {
		return nil, s.mapRepoError(err)
	}
	s.populateOrganisateur(ctx, tournoi)
	return tournoi, nil
}

// Delete removes a tournament that has no declarations attached. With
// declarations present the tournament must be cancelled instead, so the
// declaring clubs keep their history.
func (s *TournoiService) Delete(ctx context.Context, id int) error {
	if _, err := s.tournois.GetByID(ctx, id); err != nil {
		return s.mapRepoError(err)
	}
	count, err := s.declarations.CountByTournoi(ctx, id)
	if err != nil {
		return fmt.Errorf("count declarations of tournoi %d: %w", id, err)
	}
	if count > 0 {
		return ErrTournoiAvecDeclarations
	}
	if err := s.tournois.Delete(ctx, id); err != nil {
		return s.mapRepoError(err)
	}
	s.logger.InfoContext(ctx, "tournoi deleted", slog.Int("tournoi_id", id))
	return nil
}

// ListPublies returns the published, non-cancelled upcoming tournaments
// shown on the public site, each with its declaration counters.
func (s *TournoiService) ListPublies(ctx context.Context, now time.Time) ([]TournoiAvecCompteurs, error) {
	publie := true
	tournois, err := s.tournois.List(ctx, repositories.ListTournoisFilter{
		Periode:       repositories.PeriodeAVenir,
		EstPublie:     &publie,
		ReferenceDate: now,
	})
	if err != nil {
		return nil, fmt.Errorf("list published tournois: %w", err)
	}

	result := make([]TournoiAvecCompteurs, 0, len(tournois))
	for i := range tournois {
		t := tournois[i]
		if t.Statut == models.TournoiAnnule {
			continue
		}
		s.populateOrganisateur(ctx, &t)
		avec, err := s.withCompteurs(ctx, t)
		if err != nil {
			return nil, err
		}
		result = append(result, avec)
	}
	return result, nil
}

// ListPasses returns the published past tournaments with the declarations
// each one received, newest first. This feeds the public archive page.
func (s *TournoiService) ListPasses(ctx context.Context, now time.Time) ([]TournoiPasse, error) {
	publie := true
	tournois, err := s.tournois.List(ctx, repositories.ListTournoisFilter{
		Periode:       repositories.PeriodePasses,
		EstPublie:     &publie,
		OrderByDesc:   true,
		ReferenceDate: now,
	})
	if err != nil {
		return nil, fmt.Errorf("list past tournois: %w", err)
	}

	result := make([]TournoiPasse, 0, len(tournois))
	for i := range tournois {
		t := tournois[i]
		if t.Statut == models.TournoiAnnule {
			continue
		}
		s.populateOrganisateur(ctx, &t)
		declarations, err := s.declarations.List(ctx, repositories.ListDeclarationsFilter{TournoiID: &t.ID})
		if err != nil {
			return nil, fmt.Errorf("list declarations of tournoi %d: %w", t.ID, err)
		}
		result = append(result, TournoiPasse{Tournoi: t, Declarations: declarations})
	}
	return result, nil
}

// List returns tournaments for the staff board, with optional period,
// status and search filters.
func (s *TournoiService) List(ctx context.Context, filter repositories.ListTournoisFilter) ([]TournoiAvecCompteurs, error) {
	if filter.ReferenceDate.IsZero() {
		filter.ReferenceDate = time.Now()
	}
	tournois, err := s.tournois.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tournois: %w", err)
	}
	result := make([]TournoiAvecCompteurs, 0, len(tournois))
	for i := range tournois {
		t := tournois[i]
		s.populateOrganisateur(ctx, &t)
		avec, err := s.withCompteurs(ctx, t)
		if err != nil {
			return nil, err
		}
		result = append(result, avec)
	}
	return result, nil
}

func (s *TournoiService) withCompteurs(ctx context.Context, t models.Tournoi) (TournoiAvecCompteurs, error) {
	nbDecl, err := s.declarations.CountByTournoi(ctx, t.ID)
	if err != nil {
		return TournoiAvecCompteurs{}, fmt.Errorf("count declarations of tournoi %d: %w", t.ID, err)
	}
	nbEquipes, err := s.declarations.SumEquipesByTournoi(ctx, t.ID)
	if err != nil {
		return TournoiAvecCompteurs{}, fmt.Errorf("sum teams of tournoi %d: %w", t.ID, err)
	}
	return TournoiAvecCompteurs{Tournoi: t, NombreDeclarations: nbDecl, NombreEquipes: nbEquipes}, nil
}

func (s *TournoiService) populateOrganisateur(ctx context.Context, t *models.Tournoi) {
	if t == nil || t.ClubOrganisateurID == nil {
		return
	}
	club, err := s.clubs.GetByID(ctx, *t.ClubOrganisateurID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to populate organizer club",
			slog.Int("tournoi_id", t.ID),
			slog.Int("club_id", *t.ClubOrganisateurID),
			slog.Any("error", err))
		return
	}
	t.ClubOrganisateur = club
}

func (s *TournoiService) mapRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrTournoiNotFound):
		return ErrTournoiNotFound
	case errors.Is(err, repositories.ErrTournoiKeyConflict):
		return ErrTournoiCleConflict
	case errors.Is(err, repositories.ErrTournoiInUse):
		return ErrTournoiAvecDeclarations
	default:
		return err
	}
}

func validateTournoiChamps(cat models.CategorieAge, sexe models.Sexe, zone models.Zone, poules []string) error {
	errs := validation.Errors{}
	if !models.ValidCategorieAge(cat) {
		errs.Add("categorie_age", "Catégorie d'âge inconnue : "+string(cat))
	}
	if !models.ValidSexe(sexe) {
		errs.Add("sexe", "Sexe inconnu : "+string(sexe))
	}
	if !models.ValidZone(zone) {
		errs.Add("zone", "Zone inconnue : "+string(zone))
	}
	for _, p := range poules {
		if !models.ValidPoule(models.Poule(p)) {
			errs.Add("poules_disponibles", "Poule inconnue : "+p)
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
