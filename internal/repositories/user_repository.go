package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	intconfig "busticket/internal/config"
	"busticket/internal/domain"
	"busticket/internal/domain/models"
)

type UserRepository struct {
	DB *sql.DB
}

func (r UserRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// GetByEmail returns the user and its password hash for login checks.
func (r UserRepository) GetByEmail(email string) (models.User, string, error) {
	var u models.User
	var hash string
	err := r.db().QueryRow(`SELECT id, name, email, COALESCE(phone,''), role, status, password_hash
		FROM users WHERE email=? LIMIT 1`, email).Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.Status, &hash,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, "", domain.NotFoundError{Resource: "user"}
	}
	if err != nil {
		return models.User{}, "", err
	}
	return u, hash, nil
}

// GetByID fetches a user by primary key.
func (r UserRepository) GetByID(id int64) (models.User, error) {
	if id <= 0 {
		return models.User{}, fmt.Errorf("invalid user id")
	}
	var u models.User
	err := r.db().QueryRow(`SELECT id, name, email, COALESCE(phone,''), role, status
		FROM users WHERE id=? LIMIT 1`, id).Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.Status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, domain.NotFoundError{Resource: "user"}
	}
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

// EmailTaken reports whether an account with the email already exists.
func (r UserRepository) EmailTaken(email string) (bool, error) {
	var count int
	if err := r.db().QueryRow(`SELECT COUNT(*) FROM users WHERE email=?`, email).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a new account and returns its id.
func (r UserRepository) Create(name, email, phone, passwordHash, role string) (int64, error) {
	res, err := r.db().Exec(`INSERT INTO users (name, email, phone, password_hash, role, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 'active', NOW(), NOW())`,
		name, email, phone, passwordHash, role)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
