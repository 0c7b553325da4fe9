package models

import (
	"fmt"
	"time"

	"github.com/lib/pq"
)

// StatutTournoi mirrors the statut ENUM in the database.
type StatutTournoi string

const (
	TournoiPlanifie StatutTournoi = "PLANIFIE"
	TournoiConfirme StatutTournoi = "CONFIRME"
	TournoiAnnule   StatutTournoi = "ANNULE"
	TournoiTermine  StatutTournoi = "TERMINE"
)

// CategorieAge is an age bracket (moins de N ans).
type CategorieAge string

const (
	CategorieM11 CategorieAge = "M11"
	CategorieM13 CategorieAge = "M13"
	CategorieM15 CategorieAge = "M15"
	CategorieM18 CategorieAge = "M18"
)

// Sexe is the competition gender.
type Sexe string

const (
	SexeMasculin Sexe = "M"
	SexeFeminin  Sexe = "F"
)

// Zone is an optional geographic sub-grouping. Empty means no zone.
type Zone string

const (
	ZoneNord   Zone = "N"
	ZoneSud    Zone = "S"
	ZoneAucune Zone = ""
)

// Poule is a bracket label assignable to a team. Empty means no pool.
type Poule string

const (
	PouleHaute  Poule = "HAUTE"
	PouleBasse  Poule = "BASSE"
	PouleUnique Poule = "UNIQUE"
)

// Tournoi is an official tournament created by staff.
// One tournoi = one date + one age category + one sexe (+ optional zone).
type Tournoi struct {
	ID                 int            `json:"id" db:"id"`
	Titre              string         `json:"titre,omitempty" db:"titre"`
	Date               time.Time      `json:"date" db:"date"`
	CategorieAge       CategorieAge   `json:"categorie_age" db:"categorie_age"`
	Sexe               Sexe           `json:"sexe" db:"sexe"`
	Zone               Zone           `json:"zone" db:"zone"`
	ClubOrganisateurID *int           `json:"club_organisateur_id,omitempty" db:"club_organisateur_id"`
	Lieu               string         `json:"lieu,omitempty" db:"lieu"`
	PoulesDisponibles  pq.StringArray `json:"poules_disponibles" db:"poules_disponibles"`
	Statut             StatutTournoi  `json:"statut" db:"statut"`
	EstPublie          bool           `json:"est_publie" db:"est_publie"`
	Remarques          string         `json:"-" db:"remarques"`
	CreatedByID        *int           `json:"created_by,omitempty" db:"created_by"`
	CreatedAt          time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at" db:"updated_at"`

	// Optional related entities, populated by the services.
	ClubOrganisateur *Club `json:"club_organisateur,omitempty" db:"-"`
}

// Libelle builds the display label used in listings and CSV exports,
// e.g. "01/06/2026 - M13 Masculin Zone Nord".
func (t *Tournoi) Libelle() string {
	label := fmt.Sprintf("%s - %s %s", t.Date.Format("02/01/2006"), t.CategorieAge, t.Sexe.Libelle())
	if t.Zone != ZoneAucune {
		label += " " + t.Zone.Libelle()
	}
	if t.Titre != "" {
		label += " - " + t.Titre
	}
	return label
}

func (s Sexe) Libelle() string {
	if s == SexeFeminin {
		return "Féminin"
	}
	return "Masculin"
}

// Libelle returns the zone display name, or "Toutes zones" when unset.
func (z Zone) Libelle() string {
	switch z {
	case ZoneNord:
		return "Zone Nord"
	case ZoneSud:
		return "Zone Sud"
	default:
		return "Toutes zones"
	}
}

// EstPasse reports whether the tournament date is strictly before today.
// Only the calendar date matters, not the time of day.
func (t *Tournoi) EstPasse(now time.Time) bool {
	return dateOnly(t.Date).Before(dateOnly(now))
}

// AOrganisateur reports whether an organizing club has been assigned.
func (t *Tournoi) AOrganisateur() bool {
	return t.ClubOrganisateurID != nil
}

// PeutRecevoirDeclarations reports whether clubs may still declare teams.
func (t *Tournoi) PeutRecevoirDeclarations(now time.Time) bool {
	return t.EstPublie &&
		(t.Statut == TournoiPlanifie || t.Statut == TournoiConfirme) &&
		!t.EstPasse(now)
}

// PeutRecevoirCandidatures reports whether clubs may still apply to host.
// Currently identical to PeutRecevoirDeclarations; kept separate so the two
// rules can diverge without touching call sites.
func (t *Tournoi) PeutRecevoirCandidatures(now time.Time) bool {
	return t.EstPublie &&
		(t.Statut == TournoiPlanifie || t.Statut == TournoiConfirme) &&
		!t.EstPasse(now)
}

// ProposePoule reports whether the given pool is offered by this tournament.
// An empty assignment is always allowed.
func (t *Tournoi) ProposePoule(p Poule) bool {
	if p == "" {
		return true
	}
	for _, offered := range t.PoulesDisponibles {
		if Poule(offered) == p {
			return true
		}
	}
	return false
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ValidCategorieAge reports whether v is a known age category.
func ValidCategorieAge(v CategorieAge) bool {
	switch v {
	case CategorieM11, CategorieM13, CategorieM15, CategorieM18:
		return true
	}
	return false
}

// ValidSexe reports whether v is a known competition gender.
func ValidSexe(v Sexe) bool {
	return v == SexeMasculin || v == SexeFeminin
}

// ValidZone reports whether v is a known zone (empty included).
func ValidZone(v Zone) bool {
	switch v {
	case ZoneNord, ZoneSud, ZoneAucune:
		return true
	}
	return false
}

// ValidPoule reports whether v is a known pool label.
func ValidPoule(v Poule) bool {
	switch v {
	case PouleHaute, PouleBasse, PouleUnique:
		return true
	}
	return false
}
