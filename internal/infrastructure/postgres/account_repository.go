package postgres

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/Zhima-Mochi/shophub/internal/domain/account"

	"github.com/jackc/pgx/v5"
)

type UserRepository struct {
	db *DB
}

const userColumns = `id, email, password_hash, name, phone, address, city, zip, country, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, u.ID, u.Email, u.PasswordHash, u.Name, u.Phone, u.Address, u.City, u.Zip, u.Country, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if name, dup := uniqueConstraint(err); dup && name == "users_email_key" {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.db.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone,
		&u.Address, &u.City, &u.Zip, &u.Country, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE users
		SET password_hash = $1, name = $2, phone = $3, address = $4, city = $5, zip = $6, country = $7, updated_at = $8
		WHERE id = $9
	`, u.PasswordHash, u.Name, u.Phone, u.Address, u.City, u.Zip, u.Country, u.UpdatedAt, u.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type AdminRepository struct {
	db *DB
}

const adminColumns = `id, email, password_hash, name, role, created_at`

func (r *AdminRepository) Create(ctx context.Context, a *domain.Admin) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO admins (`+adminColumns+`) VALUES ($1, $2, $3, $4, $5, $6)
	`, a.ID, a.Email, a.PasswordHash, a.Name, a.Role, a.CreatedAt)
	if err != nil {
		if name, dup := uniqueConstraint(err); dup && name == "admins_email_key" {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

func (r *AdminRepository) Get(ctx context.Context, id string) (*domain.Admin, error) {
	return r.getOne(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = $1`, id)
}

func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	return r.getOne(ctx, `SELECT `+adminColumns+` FROM admins WHERE lower(email) = lower($1)`, email)
}

func (r *AdminRepository) getOne(ctx context.Context, query string, arg any) (*domain.Admin, error) {
	var a domain.Admin
	err := r.db.pool.QueryRow(ctx, query, arg).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &a.Role, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
