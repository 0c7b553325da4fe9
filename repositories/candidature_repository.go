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
	ErrCandidatureNotFound = errors.New("candidature not found")
	// Raised by the partial unique index on (tournoi_id, club_id) for
	// non-withdrawn rows.
	ErrCandidatureConflict       = errors.New("this club already has an active candidature for this tournoi")
	ErrCandidatureInvalidTournoi = errors.New("invalid tournoi reference")
	ErrCandidatureInvalidClub    = errors.New("invalid club reference")
)

type ListCandidaturesFilter struct {
	TournoiID *int
	ClubID    *int
	Statut    *models.StatutCandidature
	Recherche string // matches club name, declarant or lieu
	Limit     int
}

type CandidatureRepository interface {
	Create(ctx context.Context, candidature *models.Candidature) error
	GetByID(ctx context.Context, id int) (*models.Candidature, error)
	List(ctx context.Context, filter ListCandidaturesFilter) ([]models.Candidature, error)
	// Update persists status, refusal reason and processing fields.
	Update(ctx context.Context, exec SQLExecutor, candidature *models.Candidature) error
	// CountActiveByTournoiAndClub counts non-withdrawn rows for the pair.
	CountActiveByTournoiAndClub(ctx context.Context, tournoiID, clubID int) (int, error)
	CountByStatut(ctx context.Context, statut *models.StatutCandidature) (int, error)
	CountByTournoi(ctx context.Context, tournoiID int, statut *models.StatutCandidature) (int, error)
}

type postgresCandidatureRepository struct {
	db *sql.DB
}

func NewPostgresCandidatureRepository(db *sql.DB) CandidatureRepository {
	return &postgresCandidatureRepository{db: db}
}

func (r *postgresCandidatureRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const candidatureColumns = `
	c.id, c.tournoi_id, c.club_id, c.declarant, c.email_contact, c.telephone_contact,
	c.lieu, c.remarques, c.statut, c.raison_refus, c.traite_par, c.date_traitement,
	c.created_at, c.updated_at`

func scanCandidature(row interface{ Scan(...interface{}) error }, c *models.Candidature) error {
	return row.Scan(
		&c.ID, &c.TournoiID, &c.ClubID, &c.Declarant, &c.EmailContact,
		&c.TelephoneContact, &c.Lieu, &c.Remarques, &c.Statut, &c.RaisonRefus,
		&c.TraiteParID, &c.DateTraitement, &c.CreatedAt, &c.UpdatedAt,
	)
}

func (r *postgresCandidatureRepository) Create(ctx context.Context, c *models.Candidature) error {
	query := `
		INSERT INTO candidatures (
			tournoi_id, club_id, declarant, email_contact, telephone_contact,
			lieu, remarques, statut
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		c.TournoiID, c.ClubID, c.Declarant, c.EmailContact, c.TelephoneContact,
		c.Lieu, c.Remarques, c.Statut,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)

	return r.handleCandidatureError(err)
}

func (r *postgresCandidatureRepository) GetByID(ctx context.Context, id int) (*models.Candidature, error) {
	query := `SELECT` + candidatureColumns + ` FROM candidatures c WHERE c.id = $1`
	c := &models.Candidature{}
	err := scanCandidature(r.db.QueryRowContext(ctx, query, id), c)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCandidatureNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *postgresCandidatureRepository) List(ctx context.Context, filter ListCandidaturesFilter) ([]models.Candidature, error) {
	query := `SELECT` + candidatureColumns + ` FROM candidatures c WHERE 1=1`
	args := []interface{}{}
	argID := 1

	if filter.TournoiID != nil {
		query += fmt.Sprintf(" AND c.tournoi_id = $%d", argID)
		args = append(args, *filter.TournoiID)
		argID++
	}
	if filter.ClubID != nil {
		query += fmt.Sprintf(" AND c.club_id = $%d", argID)
		args = append(args, *filter.ClubID)
		argID++
	}
	if filter.Statut != nil {
		query += fmt.Sprintf(" AND c.statut = $%d", argID)
		args = append(args, *filter.Statut)
		argID++
	}
	if filter.Recherche != "" {
		query += fmt.Sprintf(` AND (
			c.declarant ILIKE $%d
			OR c.lieu ILIKE $%d
			OR c.club_id IN (SELECT id FROM clubs WHERE nom ILIKE $%d)
		)`, argID, argID, argID)
		args = append(args, "%"+filter.Recherche+"%")
		argID++
	}

	query += " ORDER BY c.created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidatures := make([]models.Candidature, 0)
	for rows.Next() {
		var c models.Candidature
		if scanErr := scanCandidature(rows, &c); scanErr != nil {
			return nil, scanErr
		}
		candidatures = append(candidatures, c)
	}
	return candidatures, rows.Err()
}

func (r *postgresCandidatureRepository) Update(ctx context.Context, exec SQLExecutor, c *models.Candidature) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE candidatures SET
			statut = $1,
			raison_refus = $2,
			traite_par = $3,
			date_traitement = $4,
			updated_at = NOW()
		WHERE id = $5`

	result, err := executor.ExecContext(ctx, query,
		c.Statut, c.RaisonRefus, c.TraiteParID, c.DateTraitement, c.ID,
	)
	if err != nil {
		return r.handleCandidatureError(err)
	}
	return checkAffectedRows(result, ErrCandidatureNotFound)
}

func (r *postgresCandidatureRepository) CountActiveByTournoiAndClub(ctx context.Context, tournoiID, clubID int) (int, error) {
	query := `
		SELECT COUNT(*) FROM candidatures
		WHERE tournoi_id = $1 AND club_id = $2 AND statut != $3`
	var count int
	err := r.db.QueryRowContext(ctx, query, tournoiID, clubID, models.CandidatureRetiree).Scan(&count)
	return count, err
}

func (r *postgresCandidatureRepository) CountByStatut(ctx context.Context, statut *models.StatutCandidature) (int, error) {
	query := `SELECT COUNT(*) FROM candidatures`
	args := []interface{}{}
	if statut != nil {
		query += ` WHERE statut = $1`
		args = append(args, *statut)
	}
	var count int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

func (r *postgresCandidatureRepository) CountByTournoi(ctx context.Context, tournoiID int, statut *models.StatutCandidature) (int, error) {
	query := `SELECT COUNT(*) FROM candidatures WHERE tournoi_id = $1 AND statut != $2`
	args := []interface{}{tournoiID, models.CandidatureRetiree}
	if statut != nil {
		query = `SELECT COUNT(*) FROM candidatures WHERE tournoi_id = $1 AND statut = $2`
		args = []interface{}{tournoiID, *statut}
	}
	var count int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

func (r *postgresCandidatureRepository) handleCandidatureError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return ErrCandidatureConflict
		case "23503":
			switch pqErr.Constraint {
			case "candidatures_tournoi_id_fkey":
				return ErrCandidatureInvalidTournoi
			case "candidatures_club_id_fkey":
				return ErrCandidatureInvalidClub
			}
		}
	}
	return err
}
