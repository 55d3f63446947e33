package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inkwell/domain"
)

type PostStore struct {
	db *sql.DB
}

func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

// Create inserts the post and returns it with its assigned id. OwnerID and
// Date must already be stamped by the caller. A duplicate title rolls the
// insert back and reports domain.ErrDuplicateTitle.
func (s *PostStore) Create(ctx context.Context, p domain.Post) (domain.Post, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Post{}, fmt.Errorf("error in begin transaction: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO posts (owner_id, title, subtitle, author, img_url, body, date) VALUES (?, ?, ?, ?, ?, ?, ?)",
		p.OwnerID, p.Title, p.Subtitle, p.Author, p.ImageURL, p.Body, p.Date)
	if err != nil {
		tx.Rollback()
		if isUniqueViolation(err) {
			return domain.Post{}, domain.ErrDuplicateTitle
		}
		return domain.Post{}, fmt.Errorf("error inserting into table posts: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return domain.Post{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Post{}, fmt.Errorf("error in commit transaction: %w", err)
	}
	p.ID = id
	return p, nil
}

// Update replaces every mutable field at once. Id, owner and date are left
// untouched.
func (s *PostStore) Update(ctx context.Context, id int64, p domain.Post) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error in begin transaction: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE posts SET title = ?, subtitle = ?, author = ?, img_url = ?, body = ? WHERE id = ?",
		p.Title, p.Subtitle, p.Author, p.ImageURL, p.Body, id)
	if err != nil {
		tx.Rollback()
		if isUniqueViolation(err) {
			return domain.ErrDuplicateTitle
		}
		return fmt.Errorf("error updating table posts: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return err
	}
	if affected == 0 {
		tx.Rollback()
		return domain.ErrNotFound
	}
	return tx.Commit()
}

func (s *PostStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("error deleting from table posts: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *PostStore) ByID(ctx context.Context, id int64) (domain.Post, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, owner_id, title, subtitle, author, img_url, body, date FROM posts WHERE id = ?", id)
	p := domain.Post{}
	err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Subtitle, &p.Author, &p.ImageURL, &p.Body, &p.Date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Post{}, domain.ErrNotFound
		}
		return domain.Post{}, err
	}
	return p, nil
}

// All returns every post in insertion order.
func (s *PostStore) All(ctx context.Context) ([]domain.Post, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, owner_id, title, subtitle, author, img_url, body, date FROM posts ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	posts := []domain.Post{}
	for rows.Next() {
		p := domain.Post{}
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Subtitle, &p.Author, &p.ImageURL, &p.Body, &p.Date); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
