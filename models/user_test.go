package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	PasswordCost = bcrypt.MinCost
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  John.Doe@EXAMPLE.Com ", "John.Doe@example.com"},
		{"plain", "plain"},
		{"", ""},
		{"a@b@C.ORG", "a@b@c.org"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeEmail(tt.in), tt.in)
	}
}

func TestNewUser(t *testing.T) {
	u, err := NewUser("Me@Example.COM", "hunter22", "  Me ")
	require.NoError(t, err)
	assert.Equal(t, "Me@example.com", u.Email)
	assert.Equal(t, "Me", u.Name)
	assert.True(t, u.IsActive)
	assert.False(t, u.IsStaff)
	assert.True(t, u.CheckPassword("hunter22"))
	assert.False(t, u.CheckPassword("hunter23"))

	_, err = NewUser("   ", "hunter22", "")
	assert.ErrorIs(t, err, ErrEmptyEmail)
}

func TestCreateUserRequest_Validate(t *testing.T) {
	tests := []struct {
		name   string
		req    CreateUserRequest
		fields []string
	}{
		{"valid", CreateUserRequest{Email: "a@b.io", Password: "12345"}, nil},
		{"missing email", CreateUserRequest{Password: "12345"}, []string{"email"}},
		{"no at sign", CreateUserRequest{Email: "ab.io", Password: "12345"}, []string{"email"}},
		{"short password", CreateUserRequest{Email: "a@b.io", Password: "1234"}, []string{"password"}},
		{"long name", CreateUserRequest{Email: "a@b.io", Password: "12345", Name: strings.Repeat("n", 256)}, []string{"name"}},
		{"password over 72 bytes", CreateUserRequest{Email: "a@b.io", Password: strings.Repeat("p", 73)}, []string{"password"}},
		{"multibyte password", CreateUserRequest{Email: "a@b.io", Password: strings.Repeat("é", 37)}, []string{"password"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			var verr ValidationErrors
			require.ErrorAs(t, err, &verr)
			for _, f := range tt.fields {
				assert.Contains(t, verr, f)
			}
		})
	}
}

func TestCreateUserRequest_ValidateMessages(t *testing.T) {
	req := CreateUserRequest{Email: "  ", Password: "1234", Name: strings.Repeat("n", 256)}
	err := req.Validate()

	var verr ValidationErrors
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ValidationErrors{
		"email":    {MsgRequired},
		"password": {"Ensure this field has at least 5 characters."},
		"name":     {MsgTooLong},
	}, verr)

	req = CreateUserRequest{Email: "Me@Example.COM ", Password: strings.Repeat("p", MaxPasswordBytes)}
	require.NoError(t, req.Validate())
	assert.Equal(t, "Me@example.com", req.Email)
}

func TestUpdateUserRequest_Validate(t *testing.T) {
	assert.NoError(t, (&UpdateUserRequest{}).Validate())
	assert.NoError(t, (&UpdateUserRequest{Name: ptr(""), Password: ptr("hunter22")}).Validate())

	var verr ValidationErrors
	require.ErrorAs(t, (&UpdateUserRequest{Password: ptr("abc")}).Validate(), &verr)
	assert.Equal(t, []string{"Ensure this field has at least 5 characters."}, verr["password"])

	require.ErrorAs(t, (&UpdateUserRequest{Password: ptr(strings.Repeat("p", 73))}).Validate(), &verr)
	assert.Equal(t, []string{"Ensure this field has no more than 72 bytes."}, verr["password"])

	require.ErrorAs(t, (&UpdateUserRequest{Name: ptr(strings.Repeat("n", 256))}).Validate(), &verr)
	assert.Equal(t, []string{MsgTooLong}, verr["name"])
}

func TestValidationErrors(t *testing.T) {
	errs := ValidationErrors{}
	assert.NoError(t, errs.Err())

	errs.Add("title", MsgRequired)
	errs.Add("name", MsgBlank)
	errs.Add("name", MsgTooLong)
	require.Error(t, errs.Err())
	assert.Equal(t, "validation failed: name: "+MsgBlank+" "+MsgTooLong+"; title: "+MsgRequired, errs.Error())
}
