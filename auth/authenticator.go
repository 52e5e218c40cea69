package auth

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"timer-service/cache"
	"timer-service/models"
	"timer-service/store"

	"github.com/jmoiron/sqlx"
)

// ErrInactiveUser is returned when the token owner is disabled.
var ErrInactiveUser = errors.New("user inactive or deleted")

// UserCacheKey is the cache key of the identity of user id.
func UserCacheKey(id int64) string {
	return "auth:user:" + strconv.FormatInt(id, 10)
}

// Identity is the cached view of an authenticated user.
type Identity struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

// Authenticator resolves bearer tokens into active users.
type Authenticator struct {
	db     *sqlx.DB
	cache  cache.Store
	secret []byte
	ttl    time.Duration
}

// NewAuthenticator returns an Authenticator verifying tokens signed with secret.
// ttl is the lifetime of tokens issued through IssueToken.
func NewAuthenticator(db *sqlx.DB, c cache.Store, secret string, ttl time.Duration) *Authenticator {
	return &Authenticator{db: db, cache: c, secret: []byte(secret), ttl: ttl}
}

// IssueToken signs a token for userID.
func (a *Authenticator) IssueToken(userID int64) (string, error) {
	return GenerateToken(userID, a.secret, a.ttl)
}

// TokenTTL is the lifetime of issued tokens.
func (a *Authenticator) TokenTTL() time.Duration {
	return a.ttl
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Authenticate verifies the Authorization header value and returns the
// identity of its active owner.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (*Identity, error) {
	token, ok := BearerToken(header)
	if !ok {
		return nil, ErrInvalidToken
	}
	userID, err := ParseToken(token, a.secret)
	if err != nil {
		return nil, err
	}

	key := UserCacheKey(userID)
	if raw, ok := a.cache.Get(key); ok {
		var id Identity
		if err := json.Unmarshal(raw, &id); err == nil {
			if !id.IsActive {
				return nil, ErrInactiveUser
			}
			return &id, nil
		}
	}

	u, err := store.NewUserRepository(a.db).GetByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInactiveUser
	}
	if err != nil {
		return nil, err
	}

	id := identityOf(u)
	if raw, err := json.Marshal(id); err == nil {
		a.cache.Set(key, raw)
	}
	if !id.IsActive {
		return nil, ErrInactiveUser
	}
	return &id, nil
}

func identityOf(u *models.User) Identity {
	return Identity{ID: u.ID, Email: u.Email, IsActive: u.IsActive}
}
