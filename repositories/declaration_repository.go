package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/volleychamp/volleychamp-api/models"
)

var (
	ErrDeclarationNotFound       = errors.New("declaration not found")
	ErrDeclarationInvalidTournoi = errors.New("invalid tournoi reference")
	ErrDeclarationInvalidClub    = errors.New("invalid club reference")
)

type ListDeclarationsFilter struct {
	TournoiID    *int
	ClubID       *int
	CategorieAge *models.CategorieAge
	Sexe         *models.Sexe
	Zone         *models.Zone
	// OnlyOrphans keeps rows whose tournoi link is still NULL (legacy).
	OnlyOrphans bool
	Recherche   string // matches club name, declarant or remarques
}

type DeclarationRepository interface {
	Create(ctx context.Context, declaration *models.Declaration) error
	GetByID(ctx context.Context, id int) (*models.Declaration, error)
	List(ctx context.Context, filter ListDeclarationsFilter) ([]models.Declaration, error)
	// LinkToTournoi back-fills the tournoi reference of one legacy row.
	LinkToTournoi(ctx context.Context, exec SQLExecutor, declarationID, tournoiID int) error
	Count(ctx context.Context, filter ListDeclarationsFilter) (int, error)
	CountByTournoi(ctx context.Context, tournoiID int) (int, error)
	// SumEquipesByTournoi totals nombre_equipes over a tournament.
	SumEquipesByTournoi(ctx context.Context, tournoiID int) (int, error)
	SumEquipes(ctx context.Context) (int, error)
	CountDistinctClubs(ctx context.Context) (int, error)
}

type postgresDeclarationRepository struct {
	db *sql.DB
}

func NewPostgresDeclarationRepository(db *sql.DB) DeclarationRepository {
	return &postgresDeclarationRepository{db: db}
}

func (r *postgresDeclarationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const declarationColumns = `
	d.id, d.club_id, d.tournoi_id, d.categorie_age, d.sexe, d.zone, d.date_tournoi,
	d.nombre_equipes, d.noms_equipes, d.poules_equipes, d.remarques, d.declarant,
	d.email_club, d.date_declaration`

func scanDeclaration(row interface{ Scan(...interface{}) error }, d *models.Declaration) error {
	return row.Scan(
		&d.ID, &d.ClubID, &d.TournoiID, &d.CategorieAge, &d.Sexe, &d.Zone,
		&d.DateTournoi, &d.NombreEquipes, &d.NomsEquipes, &d.PoulesEquipes,
		&d.Remarques, &d.Declarant, &d.EmailClub, &d.DateDeclaration,
	)
}

func (r *postgresDeclarationRepository) Create(ctx context.Context, d *models.Declaration) error {
	query := `
		INSERT INTO declarations (
			club_id, tournoi_id, categorie_age, sexe, zone, date_tournoi,
			nombre_equipes, noms_equipes, poules_equipes, remarques, declarant, email_club
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, date_declaration`

	err := r.db.QueryRowContext(ctx, query,
		d.ClubID, d.TournoiID, d.CategorieAge, d.Sexe, d.Zone, d.DateTournoi,
		d.NombreEquipes, d.NomsEquipes, d.PoulesEquipes, d.Remarques, d.Declarant, d.EmailClub,
	).Scan(&d.ID, &d.DateDeclaration)

	return r.handleDeclarationError(err)
}

func (r *postgresDeclarationRepository) GetByID(ctx context.Context, id int) (*models.Declaration, error) {
	query := `SELECT` + declarationColumns + ` FROM declarations d WHERE d.id = $1`
	d := &models.Declaration{}
	err := scanDeclaration(r.db.QueryRowContext(ctx, query, id), d)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeclarationNotFound
		}
		return nil, err
	}
	return d, nil
}

func buildDeclarationWhere(filter ListDeclarationsFilter, args *[]interface{}) string {
	where := " WHERE 1=1"
	argID := len(*args) + 1

	if filter.TournoiID != nil {
		where += fmt.Sprintf(" AND d.tournoi_id = $%d", argID)
		*args = append(*args, *filter.TournoiID)
		argID++
	}
	if filter.ClubID != nil {
		where += fmt.Sprintf(" AND d.club_id = $%d", argID)
		*args = append(*args, *filter.ClubID)
		argID++
	}
	if filter.CategorieAge != nil {
		where += fmt.Sprintf(" AND d.categorie_age = $%d", argID)
		*args = append(*args, *filter.CategorieAge)
		argID++
	}
	if filter.Sexe != nil {
		where += fmt.Sprintf(" AND d.sexe = $%d", argID)
		*args = append(*args, *filter.Sexe)
		argID++
	}
	if filter.Zone != nil {
		where += fmt.Sprintf(" AND d.zone = $%d", argID)
		*args = append(*args, *filter.Zone)
		argID++
	}
	if filter.OnlyOrphans {
		where += " AND d.tournoi_id IS NULL"
	}
	if filter.Recherche != "" {
		where += fmt.Sprintf(` AND (
			d.declarant ILIKE $%d
			OR d.remarques ILIKE $%d
			OR d.club_id IN (SELECT id FROM clubs WHERE nom ILIKE $%d)
		)`, argID, argID, argID)
		*args = append(*args, "%"+filter.Recherche+"%")
	}
	return where
}

func (r *postgresDeclarationRepository) List(ctx context.Context, filter ListDeclarationsFilter) ([]models.Declaration, error) {
	args := []interface{}{}
	query := `SELECT` + declarationColumns + ` FROM declarations d` +
		buildDeclarationWhere(filter, &args) +
		" ORDER BY d.date_declaration DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	declarations := make([]models.Declaration, 0)
	for rows.Next() {
		var d models.Declaration
		if scanErr := scanDeclaration(rows, &d); scanErr != nil {
			return nil, scanErr
		}
		declarations = append(declarations, d)
	}
	return declarations, rows.Err()
}

func (r *postgresDeclarationRepository) LinkToTournoi(ctx context.Context, exec SQLExecutor, declarationID, tournoiID int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE declarations SET tournoi_id = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, tournoiID, declarationID)
	if err != nil {
		return r.handleDeclarationError(err)
	}
	return checkAffectedRows(result, ErrDeclarationNotFound)
}

func (r *postgresDeclarationRepository) Count(ctx context.Context, filter ListDeclarationsFilter) (int, error) {
	args := []interface{}{}
	query := `SELECT COUNT(*) FROM declarations d` + buildDeclarationWhere(filter, &args)
	var count int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

func (r *postgresDeclarationRepository) CountByTournoi(ctx context.Context, tournoiID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM declarations WHERE tournoi_id = $1`, tournoiID,
	).Scan(&count)
	return count, err
}

func (r *postgresDeclarationRepository) SumEquipesByTournoi(ctx context.Context, tournoiID int) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(nombre_equipes), 0) FROM declarations WHERE tournoi_id = $1`, tournoiID,
	).Scan(&total)
	return total, err
}

func (r *postgresDeclarationRepository) SumEquipes(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(nombre_equipes), 0) FROM declarations`,
	).Scan(&total)
	return total, err
}

func (r *postgresDeclarationRepository) CountDistinctClubs(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT club_id) FROM declarations`,
	).Scan(&count)
	return count, err
}

func (r *postgresDeclarationRepository) handleDeclarationError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		switch pqErr.Constraint {
		case "declarations_tournoi_id_fkey":
			return ErrDeclarationInvalidTournoi
		case "declarations_club_id_fkey":
			return ErrDeclarationInvalidClub
		}
	}
	return err
}
