package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charbel0004/Unishelf-sub000/internal/domain"
	"github.com/charbel0004/Unishelf-sub000/internal/repository"
	"github.com/charbel0004/Unishelf-sub000/internal/security"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const minPasswordLen = 8

var validate = validator.New()

type UserService struct {
	store  repository.Store
	ids    security.Obfuscator
	hasher *security.PasswordHasher
	tokens *security.TokenIssuer
	log    zerolog.Logger
}

func NewUserService(store repository.Store, ids security.Obfuscator, hasher *security.PasswordHasher, tokens *security.TokenIssuer) *UserService {
	return &UserService{store: store, ids: ids, hasher: hasher, tokens: tokens, log: zerolog.Nop()}
}

func (s *UserService) SetLogger(l zerolog.Logger) { s.log = l }

type RegisterInput struct {
	Email    string
	FullName string
	Password string
}

func (in RegisterInput) Validate() error {
	v := domain.NewValidationError()
	if err := validate.Var(strings.TrimSpace(in.Email), "required,email"); err != nil {
		v.Add("email", "must be a valid address")
	}
	if len(in.Password) < minPasswordLen {
		v.Add("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	}
	return v.OrNil()
}

// Register creates a customer account. Staff roles are granted afterwards
// by a manager.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	existing, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &domain.User{
		Email:        email,
		FullName:     strings.TrimSpace(in.FullName),
		PasswordHash: hash,
		Role:         domain.RoleCustomer,
	}
	if err := s.store.Users().Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	loggerFrom(ctx, &s.log).Info().Uint64("userId", u.ID).Msg("user registered")
	return u, nil
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.store.Users().FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return nil, domain.ErrInvalidCredentials
	}
	ok, err := s.hasher.Verify(u.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}
	token, exp, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: exp, User: u}, nil
}

func (s *UserService) Me(ctx context.Context, p *security.Principal) (*domain.User, error) {
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}
	u, err := s.store.Users().FindByID(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

// SetRole is reserved to managers. A manager cannot demote themselves, so
// the shop never ends up without one by accident.
func (s *UserService) SetRole(ctx context.Context, p *security.Principal, opaqueUserID, role string) (*domain.User, error) {
	if !p.IsManager() {
		return nil, domain.ErrForbidden
	}
	r, ok := domain.ParseRole(role)
	if !ok {
		v := domain.NewValidationError()
		v.Add("role", "unknown role "+role)
		return nil, v
	}
	id, err := s.ids.Decode(opaqueUserID)
	if err != nil {
		return nil, fmt.Errorf("userID: %w", err)
	}
	if id == p.UserID && r != domain.RoleManager {
		return nil, fmt.Errorf("%w: managers cannot demote themselves", domain.ErrForbidden)
	}
	if err := s.store.Users().UpdateRole(ctx, id, r); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update role: %w", err)
	}
	u, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	loggerFrom(ctx, &s.log).Info().Uint64("userId", id).Str("role", string(r)).Uint64("by", p.UserID).Msg("role changed")
	return u, nil
}
