package entity

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oksasatya/go-entra-users/pkg/helpers"
)

const (
	MinNameLength     = 3
	MinPasswordLength = 6
)

var (
	ErrInvalidName     = errors.New("invalid name: must have at least 3 characters")
	ErrInvalidEmail    = errors.New("invalid email")
	ErrInvalidPassword = errors.New("invalid password: must have at least 6 characters")
)

// ValidationError reports which field of the aggregate rejected a value.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// User is the aggregate root for the user domain.
// Fields are unexported so a User can only change through its setters,
// which keeps name, email and password valid at all times.
// The password is kept as a bcrypt hash, never in plain text.
type User struct {
	id           int64
	name         string
	email        string
	passwordHash string
	createdAt    time.Time
}

// NewUser validates every field, hashes the password and stamps the creation time.
func NewUser(name, email, password string) (*User, error) {
	u := &User{}
	if err := u.SetName(name); err != nil {
		return nil, err
	}
	if err := u.SetEmail(email); err != nil {
		return nil, err
	}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	u.createdAt = time.Now().UTC()
	return u, nil
}

// RestoreUser rebuilds a persisted user. Values come from storage and are trusted.
func RestoreUser(id int64, name, email, passwordHash string, createdAt time.Time) *User {
	return &User{id: id, name: name, email: email, passwordHash: passwordHash, createdAt: createdAt}
}

func (u *User) ID() int64            { return u.id }
func (u *User) Name() string         { return u.name }
func (u *User) Email() string        { return u.email }
func (u *User) PasswordHash() string { return u.passwordHash }
func (u *User) CreatedAt() time.Time { return u.createdAt }

// AssignID is called by the repository once the store generated the identity.
func (u *User) AssignID(id int64) { u.id = id }

func (u *User) SetName(name string) error {
	if strings.TrimSpace(name) == "" || utf8.RuneCountInString(name) < MinNameLength {
		return &ValidationError{Field: "nome", Err: ErrInvalidName}
	}
	u.name = name
	return nil
}

func (u *User) SetEmail(email string) error {
	if !strings.Contains(email, "@") {
		return &ValidationError{Field: "email", Err: ErrInvalidEmail}
	}
	u.email = email
	return nil
}

// SetPassword validates the plain password and stores its bcrypt hash.
func (u *User) SetPassword(password string) error {
	if strings.TrimSpace(password) == "" || utf8.RuneCountInString(password) < MinPasswordLength {
		return &ValidationError{Field: "senha", Err: ErrInvalidPassword}
	}
	hash, err := helpers.HashPassword(password)
	if err != nil {
		return err
	}
	u.passwordHash = hash
	return nil
}

// CheckPassword compares plain against the stored hash.
func (u *User) CheckPassword(plain string) bool {
	return helpers.CompareHashAndPassword(u.passwordHash, plain)
}
