package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/volleychamp/volleychamp-api/models"
)

var (
	ErrTournoiNotFound    = errors.New("tournoi not found")
	ErrTournoiKeyConflict = errors.New("a tournoi already exists for this date, category, sexe and zone")
	ErrTournoiInvalidClub = errors.New("invalid organizing club reference")
	ErrTournoiInUse       = errors.New("tournoi is referenced by declarations or candidatures")
)

// Periode narrows a listing to upcoming or past tournaments.
type Periode string

const (
	PeriodeTous   Periode = "tous"
	PeriodeAVenir Periode = "a_venir"
	PeriodePasses Periode = "passes"
)

type ListTournoisFilter struct {
	Periode       Periode
	Statut        *models.StatutTournoi
	EstPublie     *bool
	Recherche     string // matches categorie_age, lieu or organizer club name
	Limit         int
	Offset        int
	OrderByDesc   bool
	ReferenceDate time.Time // "today" for Periode filters
}

type TournoiRepository interface {
	Create(ctx context.Context, exec SQLExecutor, tournoi *models.Tournoi) error
	GetByID(ctx context.Context, id int) (*models.Tournoi, error)
	GetByKey(ctx context.Context, date time.Time, cat models.CategorieAge, sexe models.Sexe, zone models.Zone) (*models.Tournoi, error)
	List(ctx context.Context, filter ListTournoisFilter) ([]models.Tournoi, error)
	Update(ctx context.Context, exec SQLExecutor, tournoi *models.Tournoi) error
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context, filter ListTournoisFilter) (int, error)
}

type postgresTournoiRepository struct {
	db *sql.DB
}

func NewPostgresTournoiRepository(db *sql.DB) TournoiRepository {
	return &postgresTournoiRepository{db: db}
}

func (r *postgresTournoiRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournoiColumns = `
	id, titre, date, categorie_age, sexe, zone, club_organisateur_id, lieu,
	poules_disponibles, statut, est_publie, remarques, created_by, created_at, updated_at`

func scanTournoi(row interface{ Scan(...interface{}) error }, t *models.Tournoi) error {
	return row.Scan(
		&t.ID, &t.Titre, &t.Date, &t.CategorieAge, &t.Sexe, &t.Zone,
		&t.ClubOrganisateurID, &t.Lieu, &t.PoulesDisponibles, &t.Statut,
		&t.EstPublie, &t.Remarques, &t.CreatedByID, &t.CreatedAt, &t.UpdatedAt,
	)
}

func (r *postgresTournoiRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Tournoi) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournois (
			titre, date, categorie_age, sexe, zone, club_organisateur_id, lieu,
			poules_disponibles, statut, est_publie, remarques, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`

	err := executor.QueryRowContext(ctx, query,
		t.Titre, t.Date, t.CategorieAge, t.Sexe, t.Zone, t.ClubOrganisateurID,
		t.Lieu, t.PoulesDisponibles, t.Statut, t.EstPublie, t.Remarques, t.CreatedByID,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)

	return r.handleTournoiError(err)
}

func (r *postgresTournoiRepository) GetByID(ctx context.Context, id int) (*models.Tournoi, error) {
	query := `SELECT` + tournoiColumns + ` FROM tournois WHERE id = $1`
	t := &models.Tournoi{}
	err := scanTournoi(r.db.QueryRowContext(ctx, query, id), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournoiNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournoiRepository) GetByKey(ctx context.Context, date time.Time, cat models.CategorieAge, sexe models.Sexe, zone models.Zone) (*models.Tournoi, error) {
	query := `SELECT` + tournoiColumns + `
		FROM tournois
		WHERE date = $1 AND categorie_age = $2 AND sexe = $3 AND zone = $4`
	t := &models.Tournoi{}
	err := scanTournoi(r.db.QueryRowContext(ctx, query, date, cat, sexe, zone), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournoiNotFound
		}
		return nil, err
	}
	return t, nil
}

func buildTournoiWhere(filter ListTournoisFilter, args *[]interface{}) string {
	where := " WHERE 1=1"
	argID := len(*args) + 1

	switch filter.Periode {
	case PeriodeAVenir:
		where += fmt.Sprintf(" AND date >= $%d", argID)
		*args = append(*args, filter.ReferenceDate)
		argID++
	case PeriodePasses:
		where += fmt.Sprintf(" AND date < $%d", argID)
		*args = append(*args, filter.ReferenceDate)
		argID++
	}
	if filter.Statut != nil {
		where += fmt.Sprintf(" AND statut = $%d", argID)
		*args = append(*args, *filter.Statut)
		argID++
	}
	if filter.EstPublie != nil {
		where += fmt.Sprintf(" AND est_publie = $%d", argID)
		*args = append(*args, *filter.EstPublie)
		argID++
	}
	if filter.Recherche != "" {
		where += fmt.Sprintf(` AND (
			categorie_age ILIKE $%d
			OR lieu ILIKE $%d
			OR club_organisateur_id IN (SELECT id FROM clubs WHERE nom ILIKE $%d)
		)`, argID, argID, argID)
		*args = append(*args, "%"+filter.Recherche+"%")
	}
	return where
}

func (r *postgresTournoiRepository) List(ctx context.Context, filter ListTournoisFilter) ([]models.Tournoi, error) {
	args := []interface{}{}
	query := `SELECT` + tournoiColumns + ` FROM tournois` + buildTournoiWhere(filter, &args)

	if filter.OrderByDesc {
		query += " ORDER BY date DESC, categorie_age, sexe"
	} else {
		query += " ORDER BY date, categorie_age, sexe"
	}

	argID := len(args) + 1
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournois := make([]models.Tournoi, 0)
	for rows.Next() {
		var t models.Tournoi
		if scanErr := scanTournoi(rows, &t); scanErr != nil {
			return nil, scanErr
		}
		tournois = append(tournois, t)
	}
	return tournois, rows.Err()
}

func (r *postgresTournoiRepository) Count(ctx context.Context, filter ListTournoisFilter) (int, error) {
	args := []interface{}{}
	query := `SELECT COUNT(*) FROM tournois` + buildTournoiWhere(filter, &args)

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresTournoiRepository) Update(ctx context.Context, exec SQLExecutor, t *models.Tournoi) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournois SET
			titre = $1,
			date = $2,
			categorie_age = $3,
			sexe = $4,
			zone = $5,
			club_organisateur_id = $6,
			lieu = $7,
			poules_disponibles = $8,
			statut = $9,
			est_publie = $10,
			remarques = $11,
			updated_at = NOW()
		WHERE id = $12`

	result, err := executor.ExecContext(ctx, query,
		t.Titre, t.Date, t.CategorieAge, t.Sexe, t.Zone, t.ClubOrganisateurID,
		t.Lieu, t.PoulesDisponibles, t.Statut, t.EstPublie, t.Remarques, t.ID,
	)
	if err != nil {
		return r.handleTournoiError(err)
	}
	return checkAffectedRows(result, ErrTournoiNotFound)
}

func (r *postgresTournoiRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM tournois WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return r.handleTournoiError(err)
	}
	return checkAffectedRows(result, ErrTournoiNotFound)
}

func (r *postgresTournoiRepository) handleTournoiError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "tournois_date_categorie_age_sexe_zone_key" {
				return ErrTournoiKeyConflict
			}
		case "23503":
			switch pqErr.Constraint {
			case "tournois_club_organisateur_id_fkey", "tournois_created_by_fkey":
				return ErrTournoiInvalidClub
			default:
				return ErrTournoiInUse
			}
		}
	}
	return err
}
