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

// CreateDeclarationInput carries the public team declaration form.
type CreateDeclarationInput struct {
	TournoiID     int      `json:"tournoi_id"`
	NomClub       string   `json:"nom_club"`
	Declarant     string   `json:"declarant"`
	EmailClub     string   `json:"email_club"`
	NombreEquipes int      `json:"nombre_equipes"`
	NomsEquipes   []string `json:"noms_equipes"`
	PoulesEquipes []string `json:"poules_equipes"`
	Remarques     string   `json:"remarques"`
	Honeypot      string   `json:"website"`
}

// DeclarationNotifier receives a notification after each successful
// declaration. Implemented by the live staff feed.
type DeclarationNotifier interface {
	DeclarationCreated(declaration *models.Declaration)
}

type DeclarationService struct {
	declarations repositories.DeclarationRepository
	tournois     repositories.TournoiRepository
	clubs        repositories.ClubRepository
	notifier     DeclarationNotifier
	logger       *slog.Logger
}

func NewDeclarationService(
	declarations repositories.DeclarationRepository,
	tournois repositories.TournoiRepository,
	clubs repositories.ClubRepository,
	notifier DeclarationNotifier,
	logger *slog.Logger,
) *DeclarationService {
	return &DeclarationService{
		declarations: declarations,
		tournois:     tournois,
		clubs:        clubs,
		notifier:     notifier,
		logger:       logger,
	}
}

// Create validates and stores a team declaration. The tournament key fields
// (categorie, sexe, zone, date) are copied from the tournament itself, never
// taken from the form, so a declaration can never disagree with its
// tournament.
func (s *DeclarationService) Create(ctx context.Context, input CreateDeclarationInput, now time.Time) (*models.Declaration, error) {
	if err := validation.Honeypot(input.Honeypot); err != nil {
		return nil, err
	}

	errs := validation.Errors{}
	declarant, msg := validation.Declarant(input.Declarant)
	if msg != "" {
		errs.Add("declarant", msg)
	}
	email, msg := validation.Email(input.EmailClub)
	if msg != "" {
		errs.Add("email_club", msg)
	}
	if msg := validation.NombreEquipes(input.NombreEquipes); msg != "" {
		errs.Add("nombre_equipes", msg)
	}
	noms, msg := validation.NomsEquipes(input.NomsEquipes, input.NombreEquipes)
	if msg != "" {
		errs.Add("noms_equipes", msg)
	}
	poules, msg := validation.PoulesEquipes(input.PoulesEquipes, input.NombreEquipes)
	if msg != "" {
		errs.Add("poules_equipes", msg)
	}
	remarques, msg := validation.Remarques(input.Remarques, validation.MaxRemarquesDeclaration)
	if msg != "" {
		errs.Add("remarques", msg)
	}
	nomClub := strings.TrimSpace(input.NomClub)
	if nomClub == "" {
		errs.Add("nom_club", "Le nom du club est obligatoire")
	}
	if len(errs) > 0 {
		return nil, errs
	}

	tournoi, err := s.tournois.GetByID(ctx, input.TournoiID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournoiNotFound) {
			return nil, ErrTournoiNotFound
		}
		return nil, err
	}
	if !tournoi.PeutRecevoirDeclarations(now) {
		return nil, ErrTournoiComplet
	}
	for _, poule := range poules {
		if !tournoi.ProposePoule(models.Poule(poule)) {
			return nil, validation.Errors{
				"poules_equipes": "La poule " + poule + " n'est pas proposée par ce tournoi",
			}
		}
	}

	club, created, err := s.clubs.GetOrCreate(ctx, nomClub)
	if err != nil {
		return nil, fmt.Errorf("resolve club %q: %w", nomClub, err)
	}
	if created {
		s.logger.InfoContext(ctx, "club created from declaration", slog.String("club", club.Nom))
	}

	declaration := &models.Declaration{
		ClubID:        club.ID,
		TournoiID:     &tournoi.ID,
		CategorieAge:  tournoi.CategorieAge,
		Sexe:          tournoi.Sexe,
		Zone:          tournoi.Zone,
		DateTournoi:   tournoi.Date,
		NombreEquipes: input.NombreEquipes,
		NomsEquipes:   noms,
		PoulesEquipes: poules,
		Remarques:     remarques,
		Declarant:     declarant,
		EmailClub:     email,
	}
	if err := s.declarations.Create(ctx, declaration); err != nil {
		return nil, err
	}
	declaration.Club = club
	declaration.Tournoi = tournoi

	s.logger.InfoContext(ctx, "declaration created",
		slog.Int("declaration_id", declaration.ID),
		slog.Int("tournoi_id", tournoi.ID),
		slog.String("club", club.Nom),
		slog.Int("nombre_equipes", declaration.NombreEquipes))

	if s.notifier != nil {
		s.notifier.DeclarationCreated(declaration)
	}
	return declaration, nil
}

// GetByID loads one declaration with its club and tournament populated.
func (s *DeclarationService) GetByID(ctx context.Context, id int) (*models.Declaration, error) {
	declaration, err := s.declarations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrDeclarationNotFound) {
			return nil, ErrDeclarationNotFound
		}
		return nil, err
	}
	s.populate(ctx, declaration)
	return declaration, nil
}

// List returns declarations for the staff board.
func (s *DeclarationService) List(ctx context.Context, filter repositories.ListDeclarationsFilter) ([]models.Declaration, error) {
	declarations, err := s.declarations.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list declarations: %w", err)
	}
	for i := range declarations {
		s.populate(ctx, &declarations[i])
	}
	return declarations, nil
}

func (s *DeclarationService) populate(ctx context.Context, d *models.Declaration) {
	if d.Club == nil {
		if club, err := s.clubs.GetByID(ctx, d.ClubID); err == nil {
			d.Club = club
		}
	}
	if d.Tournoi == nil && d.TournoiID != nil {
		if tournoi, err := s.tournois.GetByID(ctx, *d.TournoiID); err == nil {
			d.Tournoi = tournoi
		}
	}
}
