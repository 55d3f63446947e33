package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inkwell/domain"
)

// AccountStore persists accounts. Accounts are never updated or deleted
// once created; the admin flag is only ever set by hand in the database.
type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) Create(ctx context.Context, email, passwordHash, name string) (domain.Account, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO accounts (email, password, name, admin) VALUES (?, ?, ?, 0)",
		email, passwordHash, name)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Account{}, domain.ErrDuplicateEmail
		}
		return domain.Account{}, fmt.Errorf("error inserting into table accounts: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Account{}, err
	}
	return domain.Account{ID: id, Email: email, PasswordHash: passwordHash, Name: name}, nil
}

// ByEmail matches the email exactly; lookups are case-sensitive.
func (s *AccountStore) ByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, email, password, name, admin FROM accounts WHERE email = ?", email)
	return scanAccount(row)
}

func (s *AccountStore) ByID(ctx context.Context, id int64) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, email, password, name, admin FROM accounts WHERE id = ?", id)
	return scanAccount(row)
}

func scanAccount(row *sql.Row) (domain.Account, error) {
	a := domain.Account{}
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &a.Admin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, domain.ErrNotFound
		}
		return domain.Account{}, err
	}
	return a, nil
}
