package store

import (
	"context"
	"fmt"
	"time"

	"timer-service/models"

	"github.com/jmoiron/sqlx"
)

const timerColumns = `id, user_id, title, description, current_duration, last_session, goal, image, created_at, updated_at`

// TimerRepository persists timers and their timer type membership.
type TimerRepository struct {
	q sqlx.ExtContext
}

// NewTimerRepository binds a TimerRepository to q.
func NewTimerRepository(q sqlx.ExtContext) *TimerRepository {
	return &TimerRepository{q: q}
}

// ListByUser returns the user's timers, newest first. With typeNames set,
// only timers tagged with at least one of those names are returned.
func (r *TimerRepository) ListByUser(ctx context.Context, userID int64, typeNames []string) ([]models.Timer, error) {
	query := `SELECT ` + timerColumns + ` FROM timers WHERE user_id = ?`
	args := []interface{}{userID}
	if len(typeNames) > 0 {
		query += ` AND EXISTS (
			SELECT 1 FROM timer_timer_types ttt
			JOIN timer_types tt ON tt.id = ttt.timer_type_id
			WHERE ttt.timer_id = timers.id AND tt.name IN (?))`
		args = append(args, typeNames)
	}
	query += ` ORDER BY id DESC`

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("expand timer filter: %w", err)
	}

	timers := []models.Timer{}
	if err := sqlx.SelectContext(ctx, r.q, &timers, r.q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list timers: %w", err)
	}
	if err := r.loadTypes(ctx, timers); err != nil {
		return nil, err
	}
	return timers, nil
}

// Get loads timer id with its types, regardless of owner.
func (r *TimerRepository) Get(ctx context.Context, id int64) (*models.Timer, error) {
	var t models.Timer
	err := sqlx.GetContext(ctx, r.q, &t, `SELECT `+timerColumns+` FROM timers WHERE id = ?`, id)
	if err != nil {
		return nil, translate(err)
	}
	timers := []models.Timer{t}
	if err := r.loadTypes(ctx, timers); err != nil {
		return nil, err
	}
	return &timers[0], nil
}

// Create inserts t and fills its id and timestamps. Types are not touched.
func (r *TimerRepository) Create(ctx context.Context, t *models.Timer) error {
	now := time.Now().UTC()
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO timers (user_id, title, description, current_duration, last_session, goal, image, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.Title, t.Description, t.CurrentTime, t.LastSession, t.Goal, t.Image, now, now)
	if err != nil {
		return fmt.Errorf("insert timer: %w", translate(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = id
	t.CreatedAt = now
	t.UpdatedAt = now
	return nil
}

// Update saves the scalar columns of t, including its owner.
func (r *TimerRepository) Update(ctx context.Context, t *models.Timer) error {
	t.UpdatedAt = time.Now().UTC()
	res, err := r.q.ExecContext(ctx,
		`UPDATE timers SET user_id = ?, title = ?, description = ?, current_duration = ?, last_session = ?, goal = ?, updated_at = ?
		 WHERE id = ?`,
		t.UserID, t.Title, t.Description, t.CurrentTime, t.LastSession, t.Goal, t.UpdatedAt, t.ID)
	return expectOne(res, err)
}

// SetImage records the storage key of the timer's image.
func (r *TimerRepository) SetImage(ctx context.Context, id int64, key string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE timers SET image = ?, updated_at = ? WHERE id = ?`, key, time.Now().UTC(), id)
	return expectOne(res, err)
}

// Delete removes timer id.
func (r *TimerRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM timers WHERE id = ?`, id)
	return expectOne(res, err)
}

// ReplaceTypes clears the membership of timer id and attaches typeIDs.
func (r *TimerRepository) ReplaceTypes(ctx context.Context, id int64, typeIDs []int64) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM timer_timer_types WHERE timer_id = ?`, id); err != nil {
		return fmt.Errorf("clear timer types: %w", err)
	}
	return r.AddTypes(ctx, id, typeIDs)
}

// AddTypes attaches typeIDs to timer id. Existing members are kept.
func (r *TimerRepository) AddTypes(ctx context.Context, id int64, typeIDs []int64) error {
	for _, typeID := range typeIDs {
		_, err := r.q.ExecContext(ctx,
			`INSERT INTO timer_timer_types (timer_id, timer_type_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
			id, typeID)
		if err != nil {
			return fmt.Errorf("attach timer type %d: %w", typeID, err)
		}
	}
	return nil
}

type membership struct {
	TimerID int64 `db:"timer_id"`
	models.TimerType
}

// loadTypes fills the Types of every timer with one query, ordered by type id.
func (r *TimerRepository) loadTypes(ctx context.Context, timers []models.Timer) error {
	if len(timers) == 0 {
		return nil
	}
	ids := make([]int64, len(timers))
	index := make(map[int64]int, len(timers))
	for i := range timers {
		ids[i] = timers[i].ID
		index[timers[i].ID] = i
		timers[i].Types = []models.TimerType{}
	}

	query, args, err := sqlx.In(
		`SELECT ttt.timer_id, tt.id, tt.name, tt.user_id
		 FROM timer_timer_types ttt
		 JOIN timer_types tt ON tt.id = ttt.timer_type_id
		 WHERE ttt.timer_id IN (?)
		 ORDER BY tt.id`, ids)
	if err != nil {
		return fmt.Errorf("expand timer ids: %w", err)
	}

	var rows []membership
	if err := sqlx.SelectContext(ctx, r.q, &rows, r.q.Rebind(query), args...); err != nil {
		return fmt.Errorf("load timer types: %w", err)
	}
	for _, m := range rows {
		i := index[m.TimerID]
		timers[i].Types = append(timers[i].Types, m.TimerType)
	}
	return nil
}
