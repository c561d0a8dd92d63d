package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"cinelog/internal/model"
)

const userColumns = `uid, username, email, created_at, updated_at`

type postgresUserRepository struct {
	db *sqlx.DB
}

func NewPostgresUserRepository(db *sqlx.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

// Create relies on the unique index over LOWER(username).
func (r *postgresUserRepository) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (uid, username, email, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, u.UID, u.Username, u.Email).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == "users_username_lower_key" {
			return model.ErrUsernameExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, uid string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE uid = $1`, uid)
}

func (r *postgresUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *postgresUserRepository) getOne(ctx context.Context, query string, arg string) (*model.User, error) {
	var u model.User
	if err := r.db.GetContext(ctx, &u, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (r *postgresUserRepository) GetByIDs(ctx context.Context, uids []string) ([]model.User, error) {
	if len(uids) == 0 {
		return []model.User{}, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE uid = ANY($1)`
	var rows []model.User
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(uids)); err != nil {
		return nil, fmt.Errorf("failed to get users by ids: %w", err)
	}

	byID := make(map[string]model.User, len(rows))
	for _, u := range rows {
		byID[u.UID] = u
	}
	users := make([]model.User, 0, len(rows))
	for _, uid := range uids {
		if u, ok := byID[uid]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func (r *postgresUserRepository) FindByUsernamePrefix(ctx context.Context, prefix string, limit int) ([]model.User, error) {
	if prefix == "" {
		return []model.User{}, nil
	}

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE username LIKE $1
		ORDER BY username
		LIMIT $2
	`
	users := []model.User{}
	if err := r.db.SelectContext(ctx, &users, query, escapeLike(prefix)+"%", nullableLimit(limit)); err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
