package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/volleychamp/volleychamp-api/models"
)

var (
	ErrClubNotFound    = errors.New("club not found")
	ErrClubNomConflict = errors.New("club name already exists")
)

type ClubRepository interface {
	Create(ctx context.Context, club *models.Club) error
	GetByID(ctx context.Context, id int) (*models.Club, error)
	GetByNom(ctx context.Context, nom string) (*models.Club, error)
	// GetOrCreate returns the existing club with that name, creating it
	// first if needed. Reports whether a row was created.
	GetOrCreate(ctx context.Context, nom string) (*models.Club, bool, error)
	List(ctx context.Context) ([]models.Club, error)
}

type postgresClubRepository struct {
	db *sql.DB
}

func NewPostgresClubRepository(db *sql.DB) ClubRepository {
	return &postgresClubRepository{db: db}
}

func (r *postgresClubRepository) Create(ctx context.Context, club *models.Club) error {
	query := `INSERT INTO clubs (nom) VALUES ($1) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, club.Nom).Scan(&club.ID)
	return r.handleClubError(err)
}

func (r *postgresClubRepository) GetByID(ctx context.Context, id int) (*models.Club, error) {
	query := `SELECT id, nom FROM clubs WHERE id = $1`
	club := &models.Club{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&club.ID, &club.Nom)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClubNotFound
		}
		return nil, err
	}
	return club, nil
}

func (r *postgresClubRepository) GetByNom(ctx context.Context, nom string) (*models.Club, error) {
	query := `SELECT id, nom FROM clubs WHERE nom = $1`
	club := &models.Club{}
	err := r.db.QueryRowContext(ctx, query, nom).Scan(&club.ID, &club.Nom)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClubNotFound
		}
		return nil, err
	}
	return club, nil
}

func (r *postgresClubRepository) GetOrCreate(ctx context.Context, nom string) (*models.Club, bool, error) {
	existing, err := r.GetByNom(ctx, nom)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrClubNotFound) {
		return nil, false, err
	}

	club := &models.Club{Nom: nom}
	if err := r.Create(ctx, club); err != nil {
		// Lost a race with a concurrent import; re-read the winner.
		if errors.Is(err, ErrClubNomConflict) {
			existing, retryErr := r.GetByNom(ctx, nom)
			if retryErr != nil {
				return nil, false, retryErr
			}
			return existing, false, nil
		}
		return nil, false, err
	}
	return club, true, nil
}

func (r *postgresClubRepository) List(ctx context.Context) ([]models.Club, error) {
	query := `SELECT id, nom FROM clubs ORDER BY nom`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clubs := make([]models.Club, 0)
	for rows.Next() {
		var c models.Club
		if scanErr := rows.Scan(&c.ID, &c.Nom); scanErr != nil {
			return nil, scanErr
		}
		clubs = append(clubs, c)
	}
	return clubs, rows.Err()
}

func (r *postgresClubRepository) handleClubError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrClubNomConflict
	}
	return err
}
