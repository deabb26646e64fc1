package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/radiusdt/dsp-console/internal/models"
)

const pgUniqueViolation = "23505"

// PostgresUserRepo implements UserRepo using PostgreSQL.
type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

const userSelect = `
	SELECT id, username, email, first_name, last_name, password_hash, is_pm,
		city, company_name, phone_no, gst, logo, created_at, updated_at
	FROM users`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.Manager,
		&u.Profile.City, &u.Profile.CompanyName, &u.Profile.PhoneNo, &u.Profile.GST, &u.Profile.Logo,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresUserRepo) Create(ctx context.Context, u *models.User) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, first_name, last_name, password_hash, is_pm,
			city, company_name, phone_no, gst, logo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`, u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.Manager,
		u.Profile.City, u.Profile.CompanyName, u.Profile.PhoneNo, u.Profile.GST, u.Profile.Logo,
		u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("user %q already exists: %w", u.Username, models.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, userSelect+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (r *PostgresUserRepo) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		userSelect+` WHERE lower(username) = lower($1) OR lower(email) = lower($1) LIMIT 1`, login))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", login, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (r *PostgresUserRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}
	return nil
}

func (r *PostgresUserRepo) Update(ctx context.Context, u *models.User) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE users SET
			email = $2, first_name = $3, last_name = $4,
			city = $5, company_name = $6, phone_no = $7, gst = $8, logo = $9,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, u.ID, u.Email, u.FirstName, u.LastName,
		u.Profile.City, u.Profile.CompanyName, u.Profile.PhoneNo, u.Profile.GST, u.Profile.Logo,
	).Scan(&u.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("email %q already in use: %w", u.Email, models.ErrConflict)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("user %d: %w", u.ID, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepo) List(ctx context.Context, page, pageSize int) ([]*models.User, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	rows, err := r.pool.Query(ctx, userSelect+` ORDER BY id LIMIT $1 OFFSET $2`, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0, pageSize)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// PostgresCreativeRepo implements CreativeRepo using PostgreSQL.
type PostgresCreativeRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresCreativeRepo(pool *pgxpool.Pool) *PostgresCreativeRepo {
	return &PostgresCreativeRepo{pool: pool}
}

func (r *PostgresCreativeRepo) Create(ctx context.Context, c *models.Creative) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO creatives (user_id, name, creative_type, object_key, file_url, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, c.UserID, c.Name, string(c.CreativeType), c.ObjectKey, c.FileURL, c.Description, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("failed to insert creative: %w", err)
	}
	return nil
}

func (r *PostgresCreativeRepo) ListByUser(ctx context.Context, userID int64, query string) ([]*models.Creative, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, name, creative_type, object_key, file_url, description, created_at, updated_at
		FROM creatives
		WHERE user_id = $1 AND ($2 = '' OR name ILIKE '%' || $2 || '%')
		ORDER BY id DESC
	`, userID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list creatives: %w", err)
	}
	defer rows.Close()

	creatives := make([]*models.Creative, 0)
	for rows.Next() {
		var c models.Creative
		var ct string
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &ct, &c.ObjectKey, &c.FileURL, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan creative: %w", err)
		}
		c.CreativeType = models.CreativeType(ct)
		creatives = append(creatives, &c)
	}
	return creatives, rows.Err()
}

// PostgresLookupRepo implements LookupRepo using PostgreSQL.
type PostgresLookupRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresLookupRepo(pool *pgxpool.Pool) *PostgresLookupRepo {
	return &PostgresLookupRepo{pool: pool}
}

func (r *PostgresLookupRepo) Values(ctx context.Context, kind models.LookupKind) ([]models.LookupValue, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("lookup %q: %w", kind, models.ErrNotFound)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, label, code FROM lookup_values WHERE kind = $1 ORDER BY id
	`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}
	values, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.LookupValue])
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", kind, err)
	}
	return values, nil
}

func (r *PostgresLookupRepo) Locations(ctx context.Context) ([]models.Location, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, country, state, city, tier, population FROM locations ORDER BY country, state, city
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	locations, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.Location])
	if err != nil {
		return nil, fmt.Errorf("failed to scan locations: %w", err)
	}
	return locations, nil
}

func (r *PostgresLookupRepo) TargetTypes(ctx context.Context, query string) ([]models.TargetType, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, category, subcategory FROM target_types
		WHERE $1 = '' OR category ILIKE '%' || $1 || '%' OR subcategory ILIKE '%' || $1 || '%'
		ORDER BY category, subcategory
	`, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list target types: %w", err)
	}
	types, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.TargetType])
	if err != nil {
		return nil, fmt.Errorf("failed to scan target types: %w", err)
	}
	return types, nil
}
