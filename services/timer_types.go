package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"timer-service/cache"
	"timer-service/models"
	"timer-service/store"

	"github.com/jmoiron/sqlx"
)

const msgDuplicateType = "timer type with this name already exists."

// TypeListCacheKey is the cache key of the timer type list of userID.
func TypeListCacheKey(userID int64) string {
	return "timer_types:list:" + strconv.FormatInt(userID, 10)
}

// TimerTypeService manages the timer types of a user.
type TimerTypeService struct {
	db    *sqlx.DB
	cache cache.Store
}

// NewTimerTypeService returns a TimerTypeService.
func NewTimerTypeService(db *sqlx.DB, c cache.Store) *TimerTypeService {
	return &TimerTypeService{db: db, cache: c}
}

// List returns the user's timer types ordered by name, descending.
func (s *TimerTypeService) List(ctx context.Context, userID int64) ([]models.TimerType, error) {
	key := TypeListCacheKey(userID)
	if raw, ok := s.cache.Get(key); ok {
		var types []models.TimerType
		if err := json.Unmarshal(raw, &types); err == nil {
			for i := range types {
				types[i].UserID = userID
			}
			return types, nil
		}
	}

	types, err := store.NewTimerTypeRepository(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(types); err == nil {
		s.cache.Set(key, raw)
	}
	return types, nil
}

// Create adds a timer type for userID.
func (s *TimerTypeService) Create(ctx context.Context, userID int64, req models.TimerTypeRequest) (*models.TimerType, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	tt := &models.TimerType{Name: *req.Name, UserID: userID}
	err := store.NewTimerTypeRepository(s.db).Create(ctx, tt)
	if errors.Is(err, store.ErrConflict) {
		return nil, models.NewFieldError("name", msgDuplicateType)
	}
	if err != nil {
		return nil, err
	}
	s.InvalidateList(userID)
	return tt, nil
}

// Rename changes the name of the caller's timer type id.
func (s *TimerTypeService) Rename(ctx context.Context, userID, id int64, req models.TimerTypeRequest) (*models.TimerType, error) {
	repo := store.NewTimerTypeRepository(s.db)
	tt, err := s.owned(ctx, repo, userID, id)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	err = repo.Rename(ctx, id, *req.Name)
	if errors.Is(err, store.ErrConflict) {
		return nil, models.NewFieldError("name", msgDuplicateType)
	}
	if err != nil {
		return nil, notFound(err)
	}
	tt.Name = *req.Name
	s.InvalidateList(userID)
	return tt, nil
}

// Delete removes the caller's timer type id.
func (s *TimerTypeService) Delete(ctx context.Context, userID, id int64) error {
	repo := store.NewTimerTypeRepository(s.db)
	if _, err := s.owned(ctx, repo, userID, id); err != nil {
		return err
	}
	if err := repo.Delete(ctx, id); err != nil {
		return notFound(err)
	}
	s.InvalidateList(userID)
	return nil
}

// InvalidateList drops the cached timer type list of userID.
func (s *TimerTypeService) InvalidateList(userID int64) {
	s.cache.Delete(TypeListCacheKey(userID))
}

// owned loads timer type id and checks it belongs to userID.
func (s *TimerTypeService) owned(ctx context.Context, repo *store.TimerTypeRepository, userID, id int64) (*models.TimerType, error) {
	tt, err := repo.Get(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := authorizeType(tt, userID); err != nil {
		return nil, err
	}
	return tt, nil
}

func authorizeType(tt *models.TimerType, userID int64) error {
	if tt.UserID != userID {
		return ErrNotFound
	}
	return nil
}
