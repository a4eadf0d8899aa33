package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"userhub/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already in use")
)

const userColumns = `id, name, email, password_hash, role, token_version, is_active, avatar_url, bio, created_at, updated_at, deleted_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	const query = `
		INSERT INTO users (
			name, email, password_hash, role, token_version, is_active, avatar_url, bio, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, 0, TRUE, $5, $6, NOW(), NOW()
		)
		RETURNING id, token_version, is_active, created_at, updated_at
	`

	row := r.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.AvatarURL,
		user.Bio,
	)
	if err := row.Scan(&user.ID, &user.TokenVersion, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

// FindByEmail matches the address case-insensitively and skips soft-deleted rows.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM users
		WHERE lower(email) = lower($1) AND deleted_at IS NULL
	`, userColumns)

	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (models.User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM users
		WHERE id = $1 AND deleted_at IS NULL
	`, userColumns)

	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

type UserPatch struct {
	Name      *string
	Email     *string
	AvatarURL *string
	Bio       *string
}

func (r *UserRepository) Update(ctx context.Context, id int64, patch UserPatch) (models.User, error) {
	query := fmt.Sprintf(`
		UPDATE users SET
			name = COALESCE($2, name),
			email = COALESCE($3, email),
			avatar_url = COALESCE($4, avatar_url),
			bio = COALESCE($5, bio),
			updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING %s
	`, userColumns)

	user, err := r.scanOne(r.pool.QueryRow(ctx, query, id, patch.Name, patch.Email, patch.AvatarURL, patch.Bio))
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) SoftDelete(ctx context.Context, id int64) error {
	const query = `
		UPDATE users SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// IncrementTokenVersion invalidates every previously issued token for the user.
func (r *UserRepository) IncrementTokenVersion(ctx context.Context, id int64) (int, error) {
	const query = `
		UPDATE users SET token_version = token_version + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING token_version
	`
	var version int
	if err := r.pool.QueryRow(ctx, query, id).Scan(&version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return version, nil
}

type ListFilter struct {
	Name    string
	Email   string
	SortBy  string
	SortDir string
	Offset  int
	Limit   int
}

// sortColumns is the allow-list for sort_by; anything else falls back to
// created_at rather than erroring.
var sortColumns = map[string]string{
	"id":         "id",
	"created_at": "created_at",
	"name":       "name",
	"email":      "email",
}

func (r *UserRepository) List(ctx context.Context, filter ListFilter) ([]models.User, int, error) {
	where := []string{"deleted_at IS NULL"}
	args := []any{}

	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		where = append(where, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if filter.Email != "" {
		args = append(args, "%"+filter.Email+"%")
		where = append(where, fmt.Sprintf("email ILIKE $%d", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM users WHERE %s`, whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if filter.SortDir == "asc" {
		direction = "ASC"
	}

	args = append(args, filter.Limit, filter.Offset)
	listQuery := fmt.Sprintf(`
		SELECT %s FROM users
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, userColumns, whereClause, column, direction, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]models.User, 0, filter.Limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *UserRepository) scanOne(row pgx.Row) (models.User, error) {
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func scanUser(row rowScanner) (models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.TokenVersion,
		&user.IsActive,
		&user.AvatarURL,
		&user.Bio,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.DeletedAt,
	)
	return user, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
