package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/peckin/peckin/backend/go-services/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at sign-up.
const MinPasswordLength = 6

// Service encapsulates account sign-up, sign-in and lookup.
type Service struct {
	repo     Repository
	validate *validator.Validate
	// HashCost is the bcrypt cost used for new passwords.
	HashCost int
}

func NewService(r Repository) *Service {
	return &Service{repo: r, validate: validator.New(), HashCost: bcrypt.DefaultCost}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) checkEmail(email string) error {
	if err := s.validate.Var(email, "required,email"); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

// SignUp creates a local account. displayName may be empty.
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (*models.Account, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}
	if err := s.checkEmail(email); err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.HashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	a := &models.Account{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(displayName),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, ErrEmailInUse
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return a, nil
}

// SignIn checks the password of a local account.
func (s *Service) SignIn(ctx context.Context, email, password string) (*models.Account, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}
	if err := s.checkEmail(email); err != nil {
		return nil, err
	}
	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	if a == nil {
		return nil, ErrUserNotFound
	}
	// federated accounts have no local password
	if a.PasswordHash == "" {
		return nil, ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return nil, ErrWrongPassword
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Account, error) {
	return s.repo.GetByID(ctx, id)
}

// UpsertFromClaims creates or updates a federated account from OIDC claims.
// Returns (nil, nil) when the claims carry no subject.
func (s *Service) UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*models.Account, error) {
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	if sub == "" {
		return nil, nil
	}
	return s.repo.UpsertBySubject(ctx, &models.Account{
		Subject:     sub,
		Email:       normalizeEmail(email),
		DisplayName: name,
	})
}
