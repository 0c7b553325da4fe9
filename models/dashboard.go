package models

// DashboardStats is the staff landing-page summary.
type DashboardStats struct {
	CandidaturesEnAttente int `json:"candidatures_en_attente"`
	CandidaturesValidees  int `json:"candidatures_validees"`
	CandidaturesRefusees  int `json:"candidatures_refusees"`
	CandidaturesTotal     int `json:"candidatures_total"`

	TournoisAVenir    int `json:"tournois_a_venir"`
	TournoisPlanifies int `json:"tournois_planifies"`
	TournoisConfirmes int `json:"tournois_confirmes"`
	TournoisTotal     int `json:"tournois_total"`

	DeclarationsTotal int `json:"declarations_total"`
	EquipesTotal      int `json:"equipes_total"`
	ClubsDeclarants   int `json:"clubs_declarants"`

	ProchainsTournois    []TournoiAvecStats `json:"prochains_tournois"`
	CandidaturesRecentes []Candidature      `json:"candidatures_recentes"`
}

// AccueilStats is the public home-page summary: enough to show activity
// without exposing staff-level detail.
type AccueilStats struct {
	TournoisAVenir    int `json:"tournois_a_venir"`
	DeclarationsTotal int `json:"declarations_total"`
	EquipesTotal      int `json:"equipes_total"`
	ClubsDeclarants   int `json:"clubs_declarants"`
}

// TournoiAvecStats decorates a tournament with its per-tournament counters
// for staff listings.
type TournoiAvecStats struct {
	Tournoi                 Tournoi `json:"tournoi"`
	NbDeclarations          int     `json:"nb_declarations"`
	NbEquipes               int     `json:"nb_equipes"`
	NbCandidatures          int     `json:"nb_candidatures"`
	NbCandidaturesEnAttente int     `json:"nb_candidatures_en_attente"`
}
