package services

import (
	"context"
	"errors"
	"io"

	"timer-service/media"
	"timer-service/models"
	"timer-service/store"

	"github.com/jmoiron/sqlx"
)

// TimerService manages the timers of a user.
type TimerService struct {
	db      *sqlx.DB
	types   *TimerTypeService
	storage media.Storage
}

// NewTimerService returns a TimerService. types is used to keep the timer
// type list cache in step with implicitly created types.
func NewTimerService(db *sqlx.DB, types *TimerTypeService, storage media.Storage) *TimerService {
	return &TimerService{db: db, types: types, storage: storage}
}

// ImageURL resolves the public URL of an image key.
func (s *TimerService) ImageURL(key string) string {
	return s.storage.URL(key)
}

// List returns the user's timers, newest first, optionally restricted to
// timers tagged with any of typeNames.
func (s *TimerService) List(ctx context.Context, userID int64, typeNames []string) ([]models.Timer, error) {
	return store.NewTimerRepository(s.db).ListByUser(ctx, userID, typeNames)
}

// Get returns the caller's timer id.
func (s *TimerService) Get(ctx context.Context, userID, id int64) (*models.Timer, error) {
	t, err := store.NewTimerRepository(s.db).Get(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := authorizeTimer(t, userID); err != nil {
		return nil, err
	}
	return t, nil
}

// Create validates req and stores a new timer for userID. Requested timer
// types are resolved first, creating the missing ones, then attached.
func (s *TimerService) Create(ctx context.Context, userID int64, req models.TimerRequest) (*models.Timer, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		created *models.Timer
		newType bool
	)
	err := store.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		types, anyNew, err := resolveTypes(ctx, tx, userID, req.TypeNames())
		if err != nil {
			return err
		}
		newType = anyNew

		t := &models.Timer{UserID: userID}
		req.Apply(t)

		timers := store.NewTimerRepository(tx)
		if err := timers.Create(ctx, t); err != nil {
			return err
		}
		if err := timers.AddTypes(ctx, t.ID, typeIDs(types)); err != nil {
			return err
		}
		created, err = timers.Get(ctx, t.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if newType {
		s.types.InvalidateList(userID)
	}
	return created, nil
}

// Replace overwrites the caller's timer id with req. Fields absent from req
// keep their value; a present timer_type list replaces the membership.
func (s *TimerService) Replace(ctx context.Context, userID, id int64, req models.TimerRequest) (*models.Timer, error) {
	var (
		updated *models.Timer
		newType bool
	)
	err := store.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		timers := store.NewTimerRepository(tx)
		t, err := timers.Get(ctx, id)
		if err != nil {
			return notFound(err)
		}
		if err := authorizeTimer(t, userID); err != nil {
			return err
		}
		if err := req.Validate(); err != nil {
			return err
		}

		req.Apply(t)
		t.UserID = userID
		if err := timers.Update(ctx, t); err != nil {
			return notFound(err)
		}

		if req.TimerTypes != nil {
			types, anyNew, err := resolveTypes(ctx, tx, userID, req.TypeNames())
			if err != nil {
				return err
			}
			newType = anyNew
			if err := timers.ReplaceTypes(ctx, t.ID, typeIDs(types)); err != nil {
				return err
			}
		}

		updated, err = timers.Get(ctx, t.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if newType {
		s.types.InvalidateList(userID)
	}
	return updated, nil
}

// Delete removes the caller's timer id.
func (s *TimerService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return notFound(store.NewTimerRepository(s.db).Delete(ctx, id))
}

// SetImage stores the uploaded image of the caller's timer id under a fresh
// key derived from filename and records it on the timer.
func (s *TimerService) SetImage(ctx context.Context, userID, id int64, filename string, file io.ReadSeeker) (*models.Timer, error) {
	t, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	format, err := media.CheckImage(file)
	if errors.Is(err, media.ErrNotImage) {
		return nil, models.NewFieldError("image", models.MsgBadImage)
	}
	if err != nil {
		return nil, err
	}

	key := media.NewKey(filename)
	if err := s.storage.Save(ctx, key, file, "image/"+format); err != nil {
		return nil, err
	}
	if err := store.NewTimerRepository(s.db).SetImage(ctx, t.ID, key); err != nil {
		return nil, notFound(err)
	}
	t.Image = &key
	return t, nil
}

// resolveTypes returns the user's timer types called names, creating the
// missing ones. anyNew reports whether a type was created.
func resolveTypes(ctx context.Context, q sqlx.ExtContext, userID int64, names []string) (types []models.TimerType, anyNew bool, err error) {
	repo := store.NewTimerTypeRepository(q)
	types = make([]models.TimerType, 0, len(names))
	for _, name := range names {
		tt, created, err := repo.GetOrCreate(ctx, userID, name)
		if err != nil {
			return nil, false, err
		}
		anyNew = anyNew || created
		types = append(types, tt)
	}
	return types, anyNew, nil
}

func typeIDs(types []models.TimerType) []int64 {
	ids := make([]int64, len(types))
	for i, tt := range types {
		ids[i] = tt.ID
	}
	return ids
}

func authorizeTimer(t *models.Timer, userID int64) error {
	if t.UserID != userID {
		return ErrNotFound
	}
	return nil
}
