package services

import (
	"context"
	"errors"
	"time"

	"timer-service/auth"
	"timer-service/cache"
	"timer-service/models"
	"timer-service/store"

	"github.com/jmoiron/sqlx"
)

const (
	msgDuplicateEmail = "user with this email already exists."
	msgBadCredentials = "Unable to log in with provided credentials."
)

// UserService manages accounts and issues bearer tokens.
type UserService struct {
	db    *sqlx.DB
	cache cache.Store
	auth  *auth.Authenticator
}

// NewUserService returns a UserService issuing tokens through a.
func NewUserService(db *sqlx.DB, c cache.Store, a *auth.Authenticator) *UserService {
	return &UserService{db: db, cache: c, auth: a}
}

// Register creates an active, unprivileged user.
func (s *UserService) Register(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	u, err := models.NewUser(req.Email, req.Password, req.Name)
	if errors.Is(err, models.ErrEmptyEmail) {
		return nil, models.NewFieldError("email", err.Error())
	}
	if err != nil {
		return nil, err
	}
	return s.create(ctx, u)
}

// CreateSuperuser creates a staff superuser.
func (s *UserService) CreateSuperuser(ctx context.Context, email, password string) (*models.User, error) {
	u, err := models.NewUser(email, password, "")
	if err != nil {
		return nil, err
	}
	u.IsStaff = true
	u.IsSuperuser = true
	return s.create(ctx, u)
}

func (s *UserService) create(ctx context.Context, u *models.User) (*models.User, error) {
	err := store.NewUserRepository(s.db).Create(ctx, u)
	if errors.Is(err, store.ErrConflict) {
		return nil, models.NewFieldError("email", msgDuplicateEmail)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Login checks the credentials and returns a fresh bearer token.
func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*models.TokenResponse, error) {
	users := store.NewUserRepository(s.db)
	u, err := users.GetByEmail(ctx, models.NormalizeEmail(req.Email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, models.NewFieldError("non_field_errors", msgBadCredentials)
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive || !u.CheckPassword(req.Password) {
		return nil, models.NewFieldError("non_field_errors", msgBadCredentials)
	}

	token, err := s.auth.IssueToken(u.ID)
	if err != nil {
		return nil, err
	}
	if err := users.TouchLastLogin(ctx, u.ID, time.Now().UTC()); err != nil {
		return nil, notFound(err)
	}

	return &models.TokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(s.auth.TokenTTL().Seconds()),
	}, nil
}

// Get returns user id.
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	u, err := store.NewUserRepository(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// Update changes the name and/or password of user id.
func (s *UserService) Update(ctx context.Context, id int64, req models.UpdateUserRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Password != nil {
		if err := u.SetPassword(*req.Password); err != nil {
			return nil, err
		}
	}
	if err := store.NewUserRepository(s.db).Update(ctx, u); err != nil {
		return nil, notFound(err)
	}
	s.cache.Delete(auth.UserCacheKey(id))
	return u, nil
}

// Delete removes user id with everything it owns.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := store.NewUserRepository(s.db).Delete(ctx, id); err != nil {
		return notFound(err)
	}
	s.cache.Delete(auth.UserCacheKey(id), TypeListCacheKey(id))
	return nil
}
