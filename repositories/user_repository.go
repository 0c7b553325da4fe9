package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/volleychamp/volleychamp-api/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserUsernameConflict = errors.New("username is already taken")
	ErrGroupNotFound        = errors.New("permission group not found")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// EnsureGroup creates the named permission group if missing and
	// reports whether it had to be created.
	EnsureGroup(ctx context.Context, name string) (*models.PermissionGroup, bool, error)
	// GrantPermissions attaches codenames to a group, skipping ones it
	// already holds. Returns the number actually added.
	GrantPermissions(ctx context.Context, groupID int, codenames []string) (int, error)
	AddToGroup(ctx context.Context, userID, groupID int) error
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) Create(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (username, full_name, email, password_hash, is_staff, is_superuser)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		u.Username, u.FullName, u.Email, u.PasswordHash, u.IsStaff, u.IsSuperuser,
	).Scan(&u.ID, &u.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrUserUsernameConflict
	}
	return err
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	return r.getBy(ctx, `WHERE id = $1`, id)
}

func (r *postgresUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getBy(ctx, `WHERE username = $1`, username)
}

func (r *postgresUserRepository) getBy(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	query := `
		SELECT id, username, full_name, email, password_hash, is_staff, is_superuser, created_at
		FROM users ` + where

	u := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.FullName, &u.Email, &u.PasswordHash,
		&u.IsStaff, &u.IsSuperuser, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *postgresUserRepository) EnsureGroup(ctx context.Context, name string) (*models.PermissionGroup, bool, error) {
	group := &models.PermissionGroup{Name: name}
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM permission_groups WHERE name = $1`, name,
	).Scan(&group.ID)
	if err == nil {
		return group, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	err = r.db.QueryRowContext(ctx,
		`INSERT INTO permission_groups (name) VALUES ($1) RETURNING id`, name,
	).Scan(&group.ID)
	if err != nil {
		return nil, false, err
	}
	return group, true, nil
}

func (r *postgresUserRepository) GrantPermissions(ctx context.Context, groupID int, codenames []string) (int, error) {
	added := 0
	for _, codename := range codenames {
		result, err := r.db.ExecContext(ctx, `
			INSERT INTO group_permissions (group_id, codename)
			VALUES ($1, $2)
			ON CONFLICT (group_id, codename) DO NOTHING`,
			groupID, codename)
		if err != nil {
			return added, err
		}
		if n, err := result.RowsAffected(); err == nil && n > 0 {
			added++
		}
	}
	return added, nil
}

func (r *postgresUserRepository) AddToGroup(ctx context.Context, userID, groupID int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_groups (user_id, group_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, group_id) DO NOTHING`,
		userID, groupID)
	return err
}
