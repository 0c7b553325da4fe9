package models

import (
	"errors"
	"strings"
	"time"
)

// StatutCandidature mirrors the statut ENUM in the database.
type StatutCandidature string

const (
	CandidatureEnAttente StatutCandidature = "EN_ATTENTE"
	CandidatureValidee   StatutCandidature = "VALIDEE"
	CandidatureRefusee   StatutCandidature = "REFUSEE"
	CandidatureRetiree   StatutCandidature = "RETIREE"
)

// Transition errors surfaced by the state machine below. Services wrap them
// into their own sentinels; the values carry the reason for logs.
var (
	ErrCandidatureNotPending    = errors.New("candidature is not pending")
	ErrCandidatureNotWithdrawal = errors.New("candidature can only be withdrawn while pending or validated")
	ErrRaisonRefusRequired      = errors.New("a refusal reason is required")
)

// Candidature is a club's bid to organize (host) a tournament.
type Candidature struct {
	ID               int               `json:"id" db:"id"`
	TournoiID        int               `json:"tournoi_id" db:"tournoi_id"`
	ClubID           int               `json:"club_id" db:"club_id"`
	Declarant        string            `json:"declarant" db:"declarant"`
	EmailContact     string            `json:"email_contact" db:"email_contact"`
	TelephoneContact string            `json:"telephone_contact,omitempty" db:"telephone_contact"`
	Lieu             string            `json:"lieu" db:"lieu"`
	Remarques        string            `json:"remarques,omitempty" db:"remarques"`
	Statut           StatutCandidature `json:"statut" db:"statut"`
	RaisonRefus      string            `json:"raison_refus,omitempty" db:"raison_refus"`
	TraiteParID      *int              `json:"traite_par,omitempty" db:"traite_par"`
	DateTraitement   *time.Time        `json:"date_traitement,omitempty" db:"date_traitement"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at" db:"updated_at"`

	Tournoi *Tournoi `json:"tournoi,omitempty" db:"-"`
	Club    *Club    `json:"club,omitempty" db:"-"`
}

// PeutEtreRetiree reports whether the club may still withdraw the bid.
func (c *Candidature) PeutEtreRetiree() bool {
	return c.Statut == CandidatureEnAttente || c.Statut == CandidatureValidee
}

// Valider accepts a pending candidature and cascades into the parent
// tournoi: the applying club becomes the organizer, the proposed venue
// becomes the tournament venue, and the tournament is confirmed. Both
// mutated structs must be persisted together by the caller.
func (c *Candidature) Valider(tournoi *Tournoi, staffUserID int, now time.Time) error {
	if c.Statut != CandidatureEnAttente {
		return ErrCandidatureNotPending
	}
	c.Statut = CandidatureValidee
	c.TraiteParID = &staffUserID
	c.DateTraitement = &now

	tournoi.ClubOrganisateurID = &c.ClubID
	tournoi.Lieu = c.Lieu
	tournoi.Statut = TournoiConfirme
	return nil
}

// Refuser rejects a pending candidature with a mandatory reason.
// No cascade into the tournoi.
func (c *Candidature) Refuser(staffUserID int, raison string, now time.Time) error {
	if c.Statut != CandidatureEnAttente {
		return ErrCandidatureNotPending
	}
	raison = strings.TrimSpace(raison)
	if raison == "" {
		return ErrRaisonRefusRequired
	}
	c.Statut = CandidatureRefusee
	c.RaisonRefus = raison
	c.TraiteParID = &staffUserID
	c.DateTraitement = &now
	return nil
}

// Retirer is the club withdrawing its own bid. If the bid had been
// validated, the tournament loses its organizer and venue and reverts to
// PLANIFIE. The caller persists both structs together.
func (c *Candidature) Retirer(tournoi *Tournoi) error {
	if !c.PeutEtreRetiree() {
		return ErrCandidatureNotWithdrawal
	}
	wasValidated := c.Statut == CandidatureValidee
	c.Statut = CandidatureRetiree

	if wasValidated {
		tournoi.ClubOrganisateurID = nil
		tournoi.Lieu = ""
		tournoi.Statut = TournoiPlanifie
	}
	return nil
}
