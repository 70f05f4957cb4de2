package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/shophub/internal/application"
	domain "github.com/Zhima-Mochi/shophub/internal/domain/account"
	"github.com/Zhima-Mochi/shophub/internal/observability"
)

const (
	accountService = "account-service"

	MinPasswordLength = 6
	MinNameLength     = 2
)

var (
	ErrNotFound           = domain.ErrNotFound
	ErrEmailTaken         = domain.ErrEmailTaken
	ErrInvalidCredentials = domain.ErrInvalidCredentials
	ErrWrongPassword      = domain.ErrWrongPassword
	ErrInvalidToken       = domain.ErrInvalidToken
	ErrInvalidTokenType   = domain.ErrInvalidTokenType
)

// Session is what a successful register or login hands back.
type Session struct {
	Token string
	User  *domain.User
	Admin *domain.Admin
}

type Service struct {
	users  domain.UserRepository
	admins domain.AdminRepository
	hasher domain.PasswordHasher
	tokens domain.TokenIssuer
	ids    application.IDGenerator
	now    application.Clock
	in     application.Instruments
}

func NewService(
	users domain.UserRepository,
	admins domain.AdminRepository,
	hasher domain.PasswordHasher,
	tokens domain.TokenIssuer,
	ids application.IDGenerator,
	tel observability.Observability,
) *Service {
	return &Service{
		users:  users,
		admins: admins,
		hasher: hasher,
		tokens: tokens,
		ids:    ids,
		now:    time.Now,
		in:     application.NewInstruments(tel, accountService),
	}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (_ *Session, err error) {
	ctx, run := s.in.Start(ctx, "account.register", "Register")
	defer func() { run.End(err) }()

	in.Email = normalizeEmail(in.Email)
	var v application.Validator
	v.Email(in.Email, "email")
	v.MinLen(in.Password, MinPasswordLength, "password")
	v.MinLen(strings.TrimSpace(in.Name), MinNameLength, "name")
	if verr := v.Err(); verr != nil {
		run.Fail("VALIDATION_FAILED")
		return nil, verr
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		run.Fail("PASSWORD_HASH_FAILED")
		return nil, fmt.Errorf("account: hash password: %w", err)
	}
	now := s.now().UTC()
	u := &domain.User{
		ID:           s.ids.NewID(),
		Email:        in.Email,
		PasswordHash: hash,
		Profile:      domain.Profile{Name: strings.TrimSpace(in.Name)},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			run.Fail("EMAIL_TAKEN")
			return nil, ErrEmailTaken
		}
		run.Fail("REPO_INSERT_FAILED")
		return nil, wrap(err)
	}

	token, err := s.tokens.Issue(domain.Principal{ID: u.ID, Email: u.Email, Kind: domain.KindUser})
	if err != nil {
		run.Fail("TOKEN_ISSUE_FAILED")
		return nil, fmt.Errorf("account: issue token: %w", err)
	}
	run.Field("user_id", u.ID)
	return &Session{Token: token, User: u}, nil
}

type LoginInput struct {
	Email    string
	Password string
}

func (s *Service) Login(ctx context.Context, in LoginInput) (_ *Session, err error) {
	ctx, run := s.in.Start(ctx, "account.login", "Login")
	defer func() { run.End(err) }()

	if verr := validateLogin(in); verr != nil {
		run.Fail("VALIDATION_FAILED")
		return nil, verr
	}
	u, err := s.users.GetByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			run.Fail("INVALID_CREDENTIALS")
			return nil, ErrInvalidCredentials
		}
		run.Fail("USER_LOAD_FAILED")
		return nil, wrap(err)
	}
	if err := s.hasher.Compare(u.PasswordHash, in.Password); err != nil {
		run.Fail("INVALID_CREDENTIALS")
		return nil, ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(domain.Principal{ID: u.ID, Email: u.Email, Kind: domain.KindUser})
	if err != nil {
		run.Fail("TOKEN_ISSUE_FAILED")
		return nil, fmt.Errorf("account: issue token: %w", err)
	}
	run.Field("user_id", u.ID)
	return &Session{Token: token, User: u}, nil
}

func (s *Service) Me(ctx context.Context, userID string) (_ *domain.User, err error) {
	ctx, run := s.in.Start(ctx, "account.me", "Me")
	defer func() { run.End(err) }()

	u, err := s.users.Get(ctx, userID)
	if err != nil {
		run.Fail("USER_LOAD_FAILED")
		return nil, wrap(err)
	}
	return u, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, p domain.Profile) (_ *domain.User, err error) {
	ctx, run := s.in.Start(ctx, "account.update_profile", "UpdateProfile")
	defer func() { run.End(err) }()

	if p.Name != "" {
		var v application.Validator
		v.MinLen(strings.TrimSpace(p.Name), MinNameLength, "name")
		if verr := v.Err(); verr != nil {
			run.Fail("VALIDATION_FAILED")
			return nil, verr
		}
	}

	u, err := s.users.Get(ctx, userID)
	if err != nil {
		run.Fail("USER_LOAD_FAILED")
		return nil, wrap(err)
	}
	if p.Name != "" {
		u.Name = strings.TrimSpace(p.Name)
	}
	u.Phone = p.Phone
	u.Address = p.Address
	u.City = p.City
	u.Zip = p.Zip
	u.Country = p.Country
	u.UpdatedAt = s.now().UTC()

	if err := s.users.Update(ctx, u); err != nil {
		run.Fail("REPO_UPDATE_FAILED")
		return nil, wrap(err)
	}
	return u, nil
}

type ChangePasswordInput struct {
	UserID          string
	CurrentPassword string
	NewPassword     string
}

func (s *Service) ChangePassword(ctx context.Context, in ChangePasswordInput) (err error) {
	ctx, run := s.in.Start(ctx, "account.change_password", "ChangePassword")
	defer func() { run.End(err) }()

	var v application.Validator
	v.Required(in.CurrentPassword, "currentPassword")
	v.MinLen(in.NewPassword, MinPasswordLength, "newPassword")
	if verr := v.Err(); verr != nil {
		run.Fail("VALIDATION_FAILED")
		return verr
	}

	u, err := s.users.Get(ctx, in.UserID)
	if err != nil {
		run.Fail("USER_LOAD_FAILED")
		return wrap(err)
	}
	if err := s.hasher.Compare(u.PasswordHash, in.CurrentPassword); err != nil {
		run.Fail("WRONG_PASSWORD")
		return ErrWrongPassword
	}
	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		run.Fail("PASSWORD_HASH_FAILED")
		return fmt.Errorf("account: hash password: %w", err)
	}
	u.PasswordHash = hash
	u.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, u); err != nil {
		run.Fail("REPO_UPDATE_FAILED")
		return wrap(err)
	}
	return nil
}

func (s *Service) AdminLogin(ctx context.Context, in LoginInput) (_ *Session, err error) {
	ctx, run := s.in.Start(ctx, "account.admin_login", "AdminLogin")
	defer func() { run.End(err) }()

	if verr := validateLogin(in); verr != nil {
		run.Fail("VALIDATION_FAILED")
		return nil, verr
	}
	a, err := s.admins.GetByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			run.Fail("INVALID_CREDENTIALS")
			return nil, ErrInvalidCredentials
		}
		run.Fail("ADMIN_LOAD_FAILED")
		return nil, wrap(err)
	}
	if err := s.hasher.Compare(a.PasswordHash, in.Password); err != nil {
		run.Fail("INVALID_CREDENTIALS")
		return nil, ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(domain.Principal{ID: a.ID, Email: a.Email, Kind: domain.KindAdmin})
	if err != nil {
		run.Fail("TOKEN_ISSUE_FAILED")
		return nil, fmt.Errorf("account: issue token: %w", err)
	}
	run.Field("admin_id", a.ID)
	return &Session{Token: token, Admin: a}, nil
}

func (s *Service) AdminMe(ctx context.Context, adminID string) (_ *domain.Admin, err error) {
	ctx, run := s.in.Start(ctx, "account.admin_me", "AdminMe")
	defer func() { run.End(err) }()

	a, err := s.admins.Get(ctx, adminID)
	if err != nil {
		run.Fail("ADMIN_LOAD_FAILED")
		return nil, wrap(err)
	}
	return a, nil
}

// Authenticate verifies a bearer token and checks it was issued for kind.
func (s *Service) Authenticate(token string, kind domain.Kind) (domain.Principal, error) {
	p, err := s.tokens.Parse(token)
	if err != nil {
		return domain.Principal{}, ErrInvalidToken
	}
	if p.Kind != kind {
		return domain.Principal{}, ErrInvalidTokenType
	}
	return p, nil
}

func validateLogin(in LoginInput) error {
	var v application.Validator
	v.Email(normalizeEmail(in.Email), "email")
	v.Required(in.Password, "password")
	return v.Err()
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func wrap(err error) error {
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w", application.ErrRepository, err)
}
