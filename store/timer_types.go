package store

import (
	"context"
	"fmt"

	"timer-service/models"

	"github.com/jmoiron/sqlx"
)

// TimerTypeRepository persists timer types.
type TimerTypeRepository struct {
	q sqlx.ExtContext
}

// NewTimerTypeRepository binds a TimerTypeRepository to q.
func NewTimerTypeRepository(q sqlx.ExtContext) *TimerTypeRepository {
	return &TimerTypeRepository{q: q}
}

// ListByUser returns the user's types ordered by name, descending.
func (r *TimerTypeRepository) ListByUser(ctx context.Context, userID int64) ([]models.TimerType, error) {
	types := []models.TimerType{}
	err := sqlx.SelectContext(ctx, r.q, &types,
		`SELECT id, name, user_id FROM timer_types WHERE user_id = ? ORDER BY name DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list timer types: %w", err)
	}
	return types, nil
}

// Get loads a timer type by id regardless of owner.
func (r *TimerTypeRepository) Get(ctx context.Context, id int64) (*models.TimerType, error) {
	var tt models.TimerType
	err := sqlx.GetContext(ctx, r.q, &tt, `SELECT id, name, user_id FROM timer_types WHERE id = ?`, id)
	if err != nil {
		return nil, translate(err)
	}
	return &tt, nil
}

// Create inserts tt. A name the owner already uses yields ErrConflict.
func (r *TimerTypeRepository) Create(ctx context.Context, tt *models.TimerType) error {
	res, err := r.q.ExecContext(ctx, `INSERT INTO timer_types (name, user_id) VALUES (?, ?)`, tt.Name, tt.UserID)
	if err != nil {
		return fmt.Errorf("insert timer type: %w", translate(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	tt.ID = id
	return nil
}

// Rename changes the name of timer type id.
func (r *TimerTypeRepository) Rename(ctx context.Context, id int64, name string) error {
	res, err := r.q.ExecContext(ctx, `UPDATE timer_types SET name = ? WHERE id = ?`, name, id)
	return expectOne(res, err)
}

// Delete removes timer type id and its timer memberships.
func (r *TimerTypeRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM timer_types WHERE id = ?`, id)
	return expectOne(res, err)
}

// GetOrCreate returns the user's type called name, inserting it first when
// missing. created reports whether a row was inserted.
func (r *TimerTypeRepository) GetOrCreate(ctx context.Context, userID int64, name string) (tt models.TimerType, created bool, err error) {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO timer_types (name, user_id) VALUES (?, ?) ON CONFLICT (user_id, name) DO NOTHING`,
		name, userID)
	if err != nil {
		return tt, false, fmt.Errorf("insert timer type: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return tt, false, err
	}

	err = sqlx.GetContext(ctx, r.q, &tt,
		`SELECT id, name, user_id FROM timer_types WHERE user_id = ? AND name = ?`, userID, name)
	if err != nil {
		return tt, false, fmt.Errorf("select timer type: %w", translate(err))
	}
	return tt, n > 0, nil
}
