package account

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("account: not found")
	ErrEmailTaken         = errors.New("account: email already registered")
	ErrInvalidCredentials = errors.New("account: invalid credentials")
	ErrWrongPassword      = errors.New("account: current password is incorrect")
	ErrInvalidToken       = errors.New("account: invalid token")
	ErrInvalidTokenType   = errors.New("account: invalid token type")
)

// Kind separates shoppers from back-office staff in tokens.
type Kind string

const (
	KindUser  Kind = "user"
	KindAdmin Kind = "admin"
)

type Profile struct {
	Name    string
	Phone   string
	Address string
	City    string
	Zip     string
	Country string
}

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Profile
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Admin struct {
	ID           string
	Email        string
	Name         string
	Role         string
	PasswordHash string
	CreatedAt    time.Time
}

// Principal is the identity carried by a signed token.
type Principal struct {
	ID    string
	Email string
	Kind  Kind
}

type UserRepository interface {
	// Create fails with ErrEmailTaken when the email is already registered.
	Create(ctx context.Context, u *User) error
	Get(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
}

type AdminRepository interface {
	Create(ctx context.Context, a *Admin) error
	Get(ctx context.Context, id string) (*Admin, error)
	GetByEmail(ctx context.Context, email string) (*Admin, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns ErrInvalidCredentials on mismatch.
	Compare(hash, password string) error
}

type TokenIssuer interface {
	Issue(p Principal) (string, error)
	Parse(token string) (Principal, error)
}
