package store

import (
	"context"
	"fmt"
	"time"

	"timer-service/models"

	"github.com/jmoiron/sqlx"
)

const userColumns = `id, email, name, password, is_active, is_staff, is_superuser, last_login, created_at, updated_at`

// UserRepository persists users.
type UserRepository struct {
	q sqlx.ExtContext
}

// NewUserRepository binds a UserRepository to q.
func NewUserRepository(q sqlx.ExtContext) *UserRepository {
	return &UserRepository{q: q}
}

// Create inserts u and fills its id and timestamps.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO users (email, name, password, is_active, is_staff, is_superuser, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Email, u.Name, u.Password, u.IsActive, u.IsStaff, u.IsSuperuser, now, now)
	if err != nil {
		return fmt.Errorf("insert user: %w", translate(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

// GetByID loads the user with the given id.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := sqlx.GetContext(ctx, r.q, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// GetByEmail loads the user with the given normalized email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := sqlx.GetContext(ctx, r.q, &u, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// Update saves the mutable columns of u.
func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	u.UpdatedAt = time.Now().UTC()
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET name = ?, password = ?, is_active = ?, is_staff = ?, is_superuser = ?, updated_at = ?
		 WHERE id = ?`,
		u.Name, u.Password, u.IsActive, u.IsStaff, u.IsSuperuser, u.UpdatedAt, u.ID)
	return expectOne(res, err)
}

// TouchLastLogin records a successful login.
func (r *UserRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	res, err := r.q.ExecContext(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, at, id)
	return expectOne(res, err)
}

// Delete removes the user; owned timers and types go with it.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return expectOne(res, err)
}
