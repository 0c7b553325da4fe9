package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/volleychamp/volleychamp-api/models"
	"github.com/volleychamp/volleychamp-api/repositories"
	"github.com/volleychamp/volleychamp-api/validation"
)

// CreateCandidatureInput carries the public hosting application form.
type CreateCandidatureInput struct {
	TournoiID        int    `json:"tournoi_id"`
	NomClub          string `json:"nom_club"`
	Declarant        string `json:"declarant"`
	EmailContact     string `json:"email_contact"`
	TelephoneContact string `json:"telephone_contact"`
	Lieu             string `json:"lieu"`
	Remarques        string `json:"remarques"`
	Honeypot         string `json:"website"`
}

// CandidatureNotifier receives a notification after each successful hosting
// application. Implemented by the live staff feed.
type CandidatureNotifier interface {
	CandidatureCreated(candidature *models.Candidature)
}

type CandidatureService struct {
	db           *sql.DB
	candidatures repositories.CandidatureRepository
	tournois     repositories.TournoiRepository
	clubs        repositories.ClubRepository
	notifier     CandidatureNotifier
	logger       *slog.Logger
}

func NewCandidatureService(
	db *sql.DB,
	candidatures repositories.CandidatureRepository,
	tournois repositories.TournoiRepository,
	clubs repositories.ClubRepository,
	notifier CandidatureNotifier,
	logger *slog.Logger,
) *CandidatureService {
	return &CandidatureService{
		db:           db,
		candidatures: candidatures,
		tournois:     tournois,
		clubs:        clubs,
		notifier:     notifier,
		logger:       logger,
	}
}

// Create registers a new hosting application after the anti-spam checks.
// The tournament must still accept applications and have no organizer, and
// the club must not already hold an active application for it.
func (s *CandidatureService) Create(ctx context.Context, input CreateCandidatureInput, now time.Time) (*models.Candidature, error) {
	if err := validation.Honeypot(input.Honeypot); err != nil {
		return nil, err
	}

	errs := validation.Errors{}
	declarant, msg := validation.Declarant(input.Declarant)
	if msg != "" {
		errs.Add("declarant", msg)
	}
	email, msg := validation.Email(input.EmailContact)
	if msg != "" {
		errs.Add("email_contact", msg)
	}
	remarques, msg := validation.Remarques(input.Remarques, validation.MaxRemarquesCandidature)
	if msg != "" {
		errs.Add("remarques", msg)
	}
	nomClub := strings.TrimSpace(input.NomClub)
	if nomClub == "" {
		errs.Add("nom_club", "Le nom du club est obligatoire")
	}
	lieu := strings.TrimSpace(input.Lieu)
	if lieu == "" {
		errs.Add("lieu", "Le lieu proposé est obligatoire")
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
	if !tournoi.PeutRecevoirCandidatures(now) {
		return nil, ErrTournoiComplet
	}
	if tournoi.AOrganisateur() {
		return nil, ErrTournoiDejaOrganise
	}

	club, _, err := s.clubs.GetOrCreate(ctx, nomClub)
	if err != nil {
		return nil, fmt.Errorf("resolve club %q: %w", nomClub, err)
	}

	active, err := s.candidatures.CountActiveByTournoiAndClub(ctx, tournoi.ID, club.ID)
	if err != nil {
		return nil, fmt.Errorf("check existing candidature: %w", err)
	}
	if active > 0 {
		return nil, ErrCandidatureDoublon
	}

	candidature := &models.Candidature{
		TournoiID:        tournoi.ID,
		ClubID:           club.ID,
		Declarant:        declarant,
		EmailContact:     email,
		TelephoneContact: strings.TrimSpace(input.TelephoneContact),
		Lieu:             lieu,
		Remarques:        remarques,
		Statut:           models.CandidatureEnAttente,
	}
	if err := s.candidatures.Create(ctx, candidature); err != nil {
		// The partial unique index catches races between the count above
		// and the insert.
		if errors.Is(err, repositories.ErrCandidatureConflict) {
			return nil, ErrCandidatureDoublon
		}
		return nil, err
	}
	candidature.Club = club
	candidature.Tournoi = tournoi

	s.logger.InfoContext(ctx, "candidature created",
		slog.Int("candidature_id", candidature.ID),
		slog.Int("tournoi_id", tournoi.ID),
		slog.String("club", club.Nom))

	if s.notifier != nil {
		s.notifier.CandidatureCreated(candidature)
	}
	return candidature, nil
}

// GetByID loads one application with its tournament and club populated.
func (s *CandidatureService) GetByID(ctx context.Context, id int) (*models.Candidature, error) {
	candidature, err := s.candidatures.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCandidatureNotFound) {
			return nil, ErrCandidatureNotFound
		}
		return nil, err
	}
	s.populate(ctx, candidature)
	return candidature, nil
}

// List returns applications for the staff board.
func (s *CandidatureService) List(ctx context.Context, filter repositories.ListCandidaturesFilter) ([]models.Candidature, error) {
	candidatures, err := s.candidatures.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list candidatures: %w", err)
	}
	for i := range candidatures {
		s.populate(ctx, &candidatures[i])
	}
	return candidatures, nil
}

// Valider accepts a pending application. The applying club becomes the
// tournament organizer, the proposed venue becomes the tournament venue and
// the tournament is confirmed. Candidature and tournoi are persisted in one
// transaction so a crash cannot leave a validated application on an
// unconfirmed tournament.
func (s *CandidatureService) Valider(ctx context.Context, id, staffUserID int, now time.Time) (*models.Candidature, error) {
	return s.transition(ctx, id, func(c *models.Candidature, t *models.Tournoi) error {
		if err := c.Valider(t, staffUserID, now); err != nil {
			return s.mapTransitionError(err)
		}
		return nil
	})
}

// Refuser rejects a pending application with a mandatory reason. The
// tournament is untouched but both rows still travel through the same
// transaction path for consistency.
func (s *CandidatureService) Refuser(ctx context.Context, id, staffUserID int, raison string, now time.Time) (*models.Candidature, error) {
	return s.transition(ctx, id, func(c *models.Candidature, t *models.Tournoi) error {
		if err := c.Refuser(staffUserID, raison, now); err != nil {
			return s.mapTransitionError(err)
		}
		return nil
	})
}

// Retirer withdraws an application on the club's behalf. Withdrawing a
// validated application also unassigns the organizer and venue and puts the
// tournament back to PLANIFIE.
func (s *CandidatureService) Retirer(ctx context.Context, id int) (*models.Candidature, error) {
	return s.transition(ctx, id, func(c *models.Candidature, t *models.Tournoi) error {
		if err := c.Retirer(t); err != nil {
			return s.mapTransitionError(err)
		}
		return nil
	})
}

// transition loads the candidature and its tournament, applies the state
// change and persists both rows in a single transaction.
func (s *CandidatureService) transition(ctx context.Context, id int, apply func(*models.Candidature, *models.Tournoi) error) (*models.Candidature, error) {
	candidature, err := s.candidatures.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCandidatureNotFound) {
			return nil, ErrCandidatureNotFound
		}
		return nil, err
	}
	tournoi, err := s.tournois.GetByID(ctx, candidature.TournoiID)
	if err != nil {
		return nil, fmt.Errorf("load tournoi %d of candidature %d: %w", candidature.TournoiID, id, err)
	}

	avantTournoi := *tournoi
	if err := apply(candidature, tournoi); err != nil {
		return nil, err
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

	if txErr = s.candidatures.Update(ctx, tx, candidature); txErr != nil {
		return nil, txErr
	}
	// Persist the tournoi only when the transition actually touched it.
	if avantTournoi.Statut != tournoi.Statut ||
		avantTournoi.Lieu != tournoi.Lieu ||
		!equalIntPtr(avantTournoi.ClubOrganisateurID, tournoi.ClubOrganisateurID) {
		if txErr = s.tournois.Update(ctx, tx, tournoi); txErr != nil {
			return nil, txErr
		}
	}
	if txErr = tx.Commit(); txErr != nil {
		return nil, fmt.Errorf("commit transaction: %w", txErr)
	}

	candidature.Tournoi = tournoi
	s.populate(ctx, candidature)
	s.logger.InfoContext(ctx, "candidature transition",
		slog.Int("candidature_id", candidature.ID),
		slog.String("statut", string(candidature.Statut)),
		slog.Int("tournoi_id", tournoi.ID))
	return candidature, nil
}

func (s *CandidatureService) mapTransitionError(err error) error {
	switch {
	case errors.Is(err, models.ErrRaisonRefusRequired):
		return ErrRaisonRefusRequise
	case errors.Is(err, models.ErrCandidatureNotPending),
		errors.Is(err, models.ErrCandidatureNotWithdrawal):
		return fmt.Errorf("%w: %s", ErrCandidatureEtatInvalide, err)
	default:
		return err
	}
}

func (s *CandidatureService) populate(ctx context.Context, c *models.Candidature) {
	if c.Club == nil {
		if club, err := s.clubs.GetByID(ctx, c.ClubID); err == nil {
			c.Club = club
		}
	}
	if c.Tournoi == nil {
		if tournoi, err := s.tournois.GetByID(ctx, c.TournoiID); err == nil {
			c.Tournoi = tournoi
		}
	}
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
