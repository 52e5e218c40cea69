package services

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"timer-service/auth"
	"timer-service/cache/cachetest"
	"timer-service/database/dbtest"
	"timer-service/models"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	models.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type memStorage struct {
	saved map[string][]byte
}

func (m *memStorage) Save(_ context.Context, key string, r io.Reader, _ string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.saved[key] = b
	return nil
}

func (m *memStorage) URL(key string) string { return "/media/" + key }

type env struct {
	db      *sqlx.DB
	cache   *cachetest.Map
	storage *memStorage
	users   *UserService
	types   *TimerTypeService
	timers  *TimerService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := dbtest.New(t)
	c := cachetest.New()
	st := &memStorage{saved: map[string][]byte{}}
	types := NewTimerTypeService(db, c)
	return &env{
		db:      db,
		cache:   c,
		storage: st,
		users:   NewUserService(db, c, auth.NewAuthenticator(db, c, "secret", time.Hour)),
		types:   types,
		timers:  NewTimerService(db, types, st),
	}
}

func (e *env) user(t *testing.T, email string) int64 {
	t.Helper()
	u, err := e.users.Register(context.Background(), models.CreateUserRequest{Email: email, Password: "password"})
	require.NoError(t, err)
	return u.ID
}

func str(s string) *string { return &s }
func num(n int64) *int64   { return &n }

func typesOf(names ...string) *[]models.TimerTypeInput {
	in := make([]models.TimerTypeInput, 0, len(names))
	for _, n := range names {
		in = append(in, models.TimerTypeInput{Name: n})
	}
	return &in
}

func typeNames(t *models.Timer) []string {
	names := []string{}
	for _, tt := range t.Types {
		names = append(names, tt.Name)
	}
	return names
}

func TestTimerService_OwnershipScoping(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice@example.com")
	bob := e.user(t, "bob@example.com")

	tm, err := e.timers.Create(ctx, alice, models.TimerRequest{Title: str("Focus"), CurrentTime: num(0)})
	require.NoError(t, err)

	list, err := e.timers.List(ctx, alice, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, tm.ID, list[0].ID)

	list, err = e.timers.List(ctx, bob, nil)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = e.timers.Get(ctx, bob, tm.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.timers.Replace(ctx, bob, tm.ID, models.TimerRequest{Title: str("stolen")})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, e.timers.Delete(ctx, bob, tm.ID), ErrNotFound)

	got, err := e.timers.Get(ctx, alice, tm.ID)
	require.NoError(t, err)
	assert.Equal(t, "Focus", got.Title)
}

func TestTimerService_CreateReusesTypes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "u@example.com")

	first, err := e.timers.Create(ctx, u, models.TimerRequest{Title: str("a"), TimerTypes: typesOf("work", "work")})
	require.NoError(t, err)
	second, err := e.timers.Create(ctx, u, models.TimerRequest{Title: str("b"), TimerTypes: typesOf("work")})
	require.NoError(t, err)

	types, err := e.types.List(ctx, u)
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "work", types[0].Name)

	require.Len(t, first.Types, 1)
	require.Len(t, second.Types, 1)
	assert.Equal(t, types[0].ID, first.Types[0].ID)
	assert.Equal(t, types[0].ID, second.Types[0].ID)
}

func TestTimerService_CreateDefaultsAndValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "u@example.com")

	tm, err := e.timers.Create(ctx, u, models.TimerRequest{Title: str("  Read  ")})
	require.NoError(t, err)
	assert.Equal(t, "Read", tm.Title)
	assert.Zero(t, tm.CurrentTime)
	assert.Zero(t, tm.LastSession)
	assert.Empty(t, tm.Types)

	_, err = e.timers.Create(ctx, u, models.TimerRequest{})
	var verr models.ValidationErrors
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{models.MsgRequired}, verr["title"])

	_, err = e.timers.Create(ctx, u, models.TimerRequest{Title: str("x"), TimerTypes: typesOf("ok", " ")})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{models.MsgBlank}, verr["timer_type[1].name"])

	types, err := e.types.List(ctx, u)
	require.NoError(t, err)
	assert.Empty(t, types, "nothing is created when validation fails")
}

func TestTimerService_ListFilter(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "u@example.com")

	work, err := e.timers.Create(ctx, u, models.TimerRequest{Title: str("w"), TimerTypes: typesOf("work")})
	require.NoError(t, err)
	study, err := e.timers.Create(ctx, u, models.TimerRequest{Title: str("s"), TimerTypes: typesOf("study", "work")})
	require.NoError(t, err)
	plain, err := e.timers.Create(ctx, u, models.TimerRequest{Title: str("p")})
	require.NoError(t, err)

	list, err := e.timers.List(ctx, u, []string{"study"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, study.ID, list[0].ID)

	list, err = e.timers.List(ctx, u, models.ParseTypeFilter([]string{"work,", ",study"}))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, study.ID, list[0].ID)
	assert.Equal(t, work.ID, list[1].ID)

	list, err = e.timers.List(ctx, u, nil)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, plain.ID, list[0].ID)
}

func TestTimerService_Replace(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "u@example.com")

	tm, err := e.timers.Create(ctx, u, models.TimerRequest{
		Title:       str("t"),
		Description: str("desc"),
		TimerTypes:  typesOf("a", "b"),
	})
	require.NoError(t, err)

	got, err := e.timers.Replace(ctx, u, tm.ID, models.TimerRequest{
		Title:       str("t2"),
		CurrentTime: num(120),
		LastSession: num(30),
	})
	require.NoError(t, err)
	assert.Equal(t, "t2", got.Title)
	assert.Equal(t, int64(120), got.CurrentTime)
	assert.Equal(t, int64(30), got.LastSession)
	assert.Equal(t, "desc", got.Description, "omitted fields are kept")
	assert.ElementsMatch(t, []string{"a", "b"}, typeNames(got), "omitted timer_type keeps membership")

	got, err = e.timers.Replace(ctx, u, tm.ID, models.TimerRequest{Title: str("t2"), TimerTypes: typesOf("b", "c")})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "c"}, typeNames(got))

	got, err = e.timers.Replace(ctx, u, tm.ID, models.TimerRequest{Title: str("t2"), TimerTypes: typesOf()})
	require.NoError(t, err)
	assert.Empty(t, got.Types)

	_, err = e.timers.Replace(ctx, u, tm.ID, models.TimerRequest{})
	var verr models.ValidationErrors
	assert.ErrorAs(t, err, &verr)

	_, err = e.timers.Replace(ctx, u, 9999, models.TimerRequest{})
	assert.ErrorIs(t, err, ErrNotFound, "missing ids are reported before validation")
}

func TestTimerService_DeleteThenGet(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "u@example.com")

	tm, err := e.timers.Create(ctx, u, models.TimerRequest{Title: str("t")})
	require.NoError(t, err)

	require.NoError(t, e.timers.Delete(ctx, u, tm.ID))
	_, err = e.timers.Get(ctx, u, tm.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, e.timers.Delete(ctx, u, tm.ID), ErrNotFound)
}

func TestTimerService_TypeListCacheInvalidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "u@example.com")

	_, err := e.types.List(ctx, u)
	require.NoError(t, err)
	assert.True(t, e.cache.Has(TypeListCacheKey(u)))

	_, err = e.timers.Create(ctx, u, models.TimerRequest{Title: str("t"), TimerTypes: typesOf("new")})
	require.NoError(t, err)
	assert.False(t, e.cache.Has(TypeListCacheKey(u)), "implicit creation drops the cached list")
	assert.Contains(t, e.cache.Deletes, TypeListCacheKey(u))

	types, err := e.types.List(ctx, u)
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, u, types[0].UserID)

	cached, err := e.types.List(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, types, cached)
}

func TestTimerService_SetImage(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "u@example.com")
	other := e.user(t, "o@example.com")

	tm, err := e.timers.Create(ctx, u, models.TimerRequest{Title: str("t")})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))))

	got, err := e.timers.SetImage(ctx, u, tm.ID, "me.PNG", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.NotNil(t, got.Image)
	assert.True(t, strings.HasPrefix(*got.Image, "uploads/timer/"))
	assert.True(t, strings.HasSuffix(*got.Image, ".png"))
	assert.Equal(t, buf.Bytes(), e.storage.saved[*got.Image])

	stored, err := e.timers.Get(ctx, u, tm.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Image, stored.Image)

	_, err = e.timers.SetImage(ctx, u, tm.ID, "notes.txt", strings.NewReader("hello"))
	var verr models.ValidationErrors
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{models.MsgBadImage}, verr["image"])

	_, err = e.timers.SetImage(ctx, other, tm.ID, "x.png", bytes.NewReader(buf.Bytes()))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTimerTypeService(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "u@example.com")
	other := e.user(t, "o@example.com")

	work, err := e.types.Create(ctx, u, models.TimerTypeRequest{Name: str("work")})
	require.NoError(t, err)
	_, err = e.types.Create(ctx, u, models.TimerTypeRequest{Name: str("art")})
	require.NoError(t, err)

	_, err = e.types.Create(ctx, u, models.TimerTypeRequest{Name: str("work")})
	var verr models.ValidationErrors
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr, "name")

	_, err = e.types.Create(ctx, u, models.TimerTypeRequest{})
	require.ErrorAs(t, err, &verr)

	_, err = e.types.Create(ctx, other, models.TimerTypeRequest{Name: str("work")})
	require.NoError(t, err, "names are unique per user only")

	list, err := e.types.List(ctx, u)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "work", list[0].Name)
	assert.Equal(t, "art", list[1].Name)

	renamed, err := e.types.Rename(ctx, u, work.ID, models.TimerTypeRequest{Name: str("deep work")})
	require.NoError(t, err)
	assert.Equal(t, "deep work", renamed.Name)

	_, err = e.types.Rename(ctx, u, work.ID, models.TimerTypeRequest{Name: str("art")})
	require.ErrorAs(t, err, &verr)

	_, err = e.types.Rename(ctx, other, work.ID, models.TimerTypeRequest{Name: str("mine")})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, e.types.Delete(ctx, other, work.ID), ErrNotFound)

	require.NoError(t, e.types.Delete(ctx, u, work.ID))
	assert.ErrorIs(t, e.types.Delete(ctx, u, work.ID), ErrNotFound)

	list, err = e.types.List(ctx, u)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestUserService_RegisterAndLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.users.Register(ctx, models.CreateUserRequest{Email: "Jane@EXAMPLE.com", Password: "secret1", Name: "Jane"})
	require.NoError(t, err)
	assert.Equal(t, "Jane@example.com", u.Email)
	assert.NotEqual(t, "secret1", u.Password)
	assert.True(t, u.IsActive)
	assert.False(t, u.IsStaff)

	_, err = e.users.Register(ctx, models.CreateUserRequest{Email: "Jane@example.COM", Password: "secret1"})
	var verr models.ValidationErrors
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{msgDuplicateEmail}, verr["email"])

	_, err = e.users.Register(ctx, models.CreateUserRequest{Email: "", Password: "secret1"})
	require.ErrorAs(t, err, &verr)

	_, err = e.users.Register(ctx, models.CreateUserRequest{Email: "long@example.com", Password: strings.Repeat("p", 73)})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Ensure this field has no more than 72 bytes."}, verr["password"])
	assert.NotContains(t, verr, "email")

	tok, err := e.users.Login(ctx, models.LoginRequest{Email: "Jane@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.Equal(t, int64(3600), tok.ExpiresIn)

	id, err := auth.ParseToken(tok.Token, []byte("secret"))
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	got, err := e.users.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastLogin)

	_, err = e.users.Login(ctx, models.LoginRequest{Email: "Jane@example.com", Password: "wrong"})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr, "non_field_errors")

	_, err = e.users.Login(ctx, models.LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	require.ErrorAs(t, err, &verr)
}

func TestUserService_CreateSuperuser(t *testing.T) {
	e := newEnv(t)

	u, err := e.users.CreateSuperuser(context.Background(), "root@example.com", "rootpw")
	require.NoError(t, err)
	assert.True(t, u.IsStaff)
	assert.True(t, u.IsSuperuser)

	_, err = e.users.CreateSuperuser(context.Background(), "", "rootpw")
	assert.ErrorIs(t, err, models.ErrEmptyEmail)
}

func TestUserService_UpdateAndDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.user(t, "u@example.com")

	_, err := e.timers.Create(ctx, id, models.TimerRequest{Title: str("t"), TimerTypes: typesOf("work")})
	require.NoError(t, err)

	u, err := e.users.Update(ctx, id, models.UpdateUserRequest{Name: str("New"), Password: str("changed")})
	require.NoError(t, err)
	assert.Equal(t, "New", u.Name)

	_, err = e.users.Login(ctx, models.LoginRequest{Email: "u@example.com", Password: "changed"})
	require.NoError(t, err)

	assert.Contains(t, e.cache.Deletes, auth.UserCacheKey(id))

	_, err = e.users.Update(ctx, id, models.UpdateUserRequest{Password: str("abc")})
	var verr models.ValidationErrors
	require.ErrorAs(t, err, &verr)

	_, err = e.users.Update(ctx, id, models.UpdateUserRequest{Password: str(strings.Repeat("p", 73))})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr, "password")

	e.cache.Deletes = nil
	require.NoError(t, e.users.Delete(ctx, id))
	assert.ElementsMatch(t, []string{auth.UserCacheKey(id), TypeListCacheKey(id)}, e.cache.Deletes)
	_, err = e.users.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := e.timers.List(ctx, id, nil)
	require.NoError(t, err)
	assert.Empty(t, list)
	types, err := e.types.List(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, types)
}
