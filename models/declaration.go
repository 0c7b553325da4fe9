package models

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// Declaration is a club registering one or more teams into a tournament.
// categorie_age/sexe/zone/date_tournoi duplicate the tournament key: legacy
// columns kept for display and reporting, back-filled by the migration tool
// for rows that predate the Tournoi table.
type Declaration struct {
	ID              int            `json:"id" db:"id"`
	ClubID          int            `json:"club_id" db:"club_id"`
	TournoiID       *int           `json:"tournoi_id,omitempty" db:"tournoi_id"`
	CategorieAge    CategorieAge   `json:"categorie_age" db:"categorie_age"`
	Sexe            Sexe           `json:"sexe" db:"sexe"`
	Zone            Zone           `json:"zone" db:"zone"`
	DateTournoi     time.Time      `json:"date_tournoi" db:"date_tournoi"`
	NombreEquipes   int            `json:"nombre_equipes" db:"nombre_equipes"`
	NomsEquipes     pq.StringArray `json:"noms_equipes" db:"noms_equipes"`
	PoulesEquipes   pq.StringArray `json:"poules_equipes" db:"poules_equipes"`
	Remarques       string         `json:"remarques,omitempty" db:"remarques"`
	Declarant       string         `json:"declarant" db:"declarant"`
	EmailClub       string         `json:"email_club" db:"email_club"`
	DateDeclaration time.Time      `json:"date_declaration" db:"date_declaration"`

	Club    *Club    `json:"club,omitempty" db:"-"`
	Tournoi *Tournoi `json:"tournoi,omitempty" db:"-"`
}

// EquipeAvecPoule pairs a team name with its pool assignment for display.
type EquipeAvecPoule struct {
	Nom   string `json:"nom"`
	Poule Poule  `json:"poule"`
}

// EquipesAvecPoules zips team names with their pool assignments by position.
// A missing or empty slot means no pool.
func (d *Declaration) EquipesAvecPoules() []EquipeAvecPoule {
	equipes := make([]EquipeAvecPoule, 0, len(d.NomsEquipes))
	for i, nom := range d.NomsEquipes {
		var poule Poule
		if i < len(d.PoulesEquipes) {
			poule = Poule(d.PoulesEquipes[i])
		}
		equipes = append(equipes, EquipeAvecPoule{Nom: nom, Poule: poule})
	}
	return equipes
}

// NomsEquipesFormatte returns the comma-joined team names for listings.
func (d *Declaration) NomsEquipesFormatte() string {
	return strings.Join(d.NomsEquipes, ", ")
}
