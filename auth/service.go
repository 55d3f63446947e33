package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"inkwell/domain"
	"inkwell/store"
)

// Service handles registration, credential checks and session tokens.
type Service struct {
	accounts *store.AccountStore
	secret   string
}

func NewService(accounts *store.AccountStore, secret string) *Service {
	return &Service{accounts: accounts, secret: secret}
}

// Register validates the signup fields, hashes the password and persists
// the account. A taken email surfaces as domain.ErrDuplicateEmail.
func (s *Service) Register(ctx context.Context, email, password, name string) (domain.Account, error) {
	if err := domain.ValidateRegistration(email, password, name); err != nil {
		return domain.Account{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Account{}, err
	}
	return s.accounts.Create(ctx, email, string(hash), name)
}

// Login checks the credentials against the account store. An unknown email
// and a wrong password report the same domain.ErrInvalidCredentials so
// callers cannot probe which addresses are registered.
func (s *Service) Login(ctx context.Context, email, password string) (domain.Account, error) {
	a, err := s.accounts.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Account{}, domain.ErrInvalidCredentials
		}
		return domain.Account{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return domain.Account{}, domain.ErrInvalidCredentials
	}
	return a, nil
}
