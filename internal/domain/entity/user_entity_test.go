package entity_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-entra-users/internal/domain/entity"
)

func TestNewUser(t *testing.T) {
	tests := []struct {
		name      string
		userName  string
		email     string
		password  string
		wantErr   error
		wantField string
	}{
		{name: "valid", userName: "Ana", email: "ana@example.com", password: "secret1"},
		{name: "name too short", userName: "Al", email: "al@example.com", password: "secret1", wantErr: entity.ErrInvalidName, wantField: "nome"},
		{name: "blank name", userName: "     ", email: "x@example.com", password: "secret1", wantErr: entity.ErrInvalidName, wantField: "nome"},
		{name: "email without at", userName: "Ana", email: "ana.example.com", password: "secret1", wantErr: entity.ErrInvalidEmail, wantField: "email"},
		{name: "empty email", userName: "Ana", email: "", password: "secret1", wantErr: entity.ErrInvalidEmail, wantField: "email"},
		{name: "password too short", userName: "Ana", email: "ana@example.com", password: "12345", wantErr: entity.ErrInvalidPassword, wantField: "senha"},
		{name: "blank password", userName: "Ana", email: "ana@example.com", password: "        ", wantErr: entity.ErrInvalidPassword, wantField: "senha"},
		{name: "multibyte name counts runes", userName: "Zoë", email: "zoe@example.com", password: "secret1"},
		{name: "long name has no upper bound", userName: strings.Repeat("a", 500), email: "long@example.com", password: "secret1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := entity.NewUser(tt.userName, tt.email, tt.password)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.Nil(t, u)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, entity.IsValidation(err))

				var ve *entity.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, tt.wantField, ve.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.userName, u.Name())
			assert.Equal(t, tt.email, u.Email())
			assert.WithinDuration(t, time.Now(), u.CreatedAt(), time.Minute)
		})
	}
}

func TestUser_PasswordIsHashed(t *testing.T) {
	u, err := entity.NewUser("Ana", "ana@example.com", "secret1")
	require.NoError(t, err)

	assert.NotEqual(t, "secret1", u.PasswordHash())
	assert.True(t, strings.HasPrefix(u.PasswordHash(), "$2"))
	assert.True(t, u.CheckPassword("secret1"))
	assert.False(t, u.CheckPassword("wrong-password"))
}

func TestUser_SettersKeepStateOnFailure(t *testing.T) {
	u, err := entity.NewUser("Ana", "ana@example.com", "secret1")
	require.NoError(t, err)
	createdAt := u.CreatedAt()

	assert.Error(t, u.SetName("x"))
	assert.Equal(t, "Ana", u.Name())

	assert.Error(t, u.SetEmail("nope"))
	assert.Equal(t, "ana@example.com", u.Email())

	hash := u.PasswordHash()
	assert.Error(t, u.SetPassword("123"))
	assert.Equal(t, hash, u.PasswordHash())

	require.NoError(t, u.SetName("Ana Maria"))
	require.NoError(t, u.SetEmail("ana.maria@example.com"))
	assert.Equal(t, "Ana Maria", u.Name())
	assert.Equal(t, "ana.maria@example.com", u.Email())
	assert.Equal(t, createdAt, u.CreatedAt())
}

func TestRestoreUser(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	u := entity.RestoreUser(42, "Bruno", "bruno@example.com", "$2a$10$hash", created)

	assert.Equal(t, int64(42), u.ID())
	assert.Equal(t, "Bruno", u.Name())
	assert.Equal(t, "bruno@example.com", u.Email())
	assert.Equal(t, "$2a$10$hash", u.PasswordHash())
	assert.Equal(t, created, u.CreatedAt())
}
