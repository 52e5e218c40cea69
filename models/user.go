package models

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt cost used for new password hashes.
var PasswordCost = bcrypt.DefaultCost

// MinPasswordLength is enforced on signup and password changes.
const MinPasswordLength = 5

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// ErrEmptyEmail is returned by NewUser when no email is given.
var ErrEmptyEmail = errors.New("user must have an email address")

// User represents an account owning timers and timer types.
// Password holds the bcrypt hash and is never serialized.
type User struct {
	ID          int64      `json:"id" db:"id"`
	Email       string     `json:"email" db:"email"`
	Name        string     `json:"name" db:"name"`
	Password    string     `json:"-" db:"password"`
	IsActive    bool       `json:"is_active" db:"is_active"`
	IsStaff     bool       `json:"is_staff" db:"is_staff"`
	IsSuperuser bool       `json:"is_superuser" db:"is_superuser"`
	LastLogin   *time.Time `json:"last_login" db:"last_login"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// NewUser builds an active, unsaved user with a normalized email and a
// hashed password.
func NewUser(email, password, name string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrEmptyEmail
	}
	u := &User{
		Email:    email,
		Name:     strings.TrimSpace(name),
		IsActive: true,
	}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	return u, nil
}

// SetPassword replaces the stored hash with one for password.
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

// CheckPassword reports whether password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// NormalizeEmail trims the address and lowercases its domain part.
// The local part is case sensitive and kept as given.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

// CreateUserRequest is the signup payload.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"min=5,maxbytes=72"`
	Name     string `json:"name" validate:"max=255"`
}

// Validate normalizes the email and checks the signup payload.
func (r *CreateUserRequest) Validate() error {
	r.Email = NormalizeEmail(r.Email)
	return validateStruct(r)
}

// UpdateUserRequest changes the caller's profile. Omitted fields are kept.
type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,max=255"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=5,maxbytes=72"`
}

// Validate checks the profile update payload.
func (r *UpdateUserRequest) Validate() error {
	return validateStruct(r)
}

// LoginRequest exchanges credentials for a bearer token.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        int64      `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	IsActive  bool       `json:"is_active"`
	IsStaff   bool       `json:"is_staff"`
	LastLogin *time.Time `json:"last_login"`
}

// NewUserResponse renders u.
func NewUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		IsActive:  u.IsActive,
		IsStaff:   u.IsStaff,
		LastLogin: u.LastLogin,
	}
}
