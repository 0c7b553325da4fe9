package models

// Club is an affiliated club. Referenced by declarations and candidatures,
// never deleted automatically.
type Club struct {
	ID  int    `json:"id" db:"id"`
	Nom string `json:"nom" db:"nom"`
}
