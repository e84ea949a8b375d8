// Package auth implements signup, login and password re-verification on top
// of the store. Passwords are bcrypt-hashed; the hash never leaves this layer.
package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"prismora/internal/apperr"
	"prismora/internal/models"
	"prismora/internal/store"
)

const bcryptCost = 10

// Store is the slice of the persistence layer auth needs.
type Store interface {
	CreateUser(ctx context.Context, name, email, passwordHash, role string) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*store.UserRecord, error)
	UserByID(ctx context.Context, id string) (*store.UserRecord, error)
}

type Service struct {
	store Store
}

func NewService(s Store) *Service {
	return &Service{store: s}
}

// SignUp registers a new parent account. Duplicate emails are rejected by the
// store.
func (s *Service) SignUp(ctx context.Context, name, email, password string) error {
	if name == "" || email == "" || password == "" {
		return apperr.New(apperr.Input, "All fields are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if _, err := s.store.CreateUser(ctx, name, email, string(hash), "parent"); err != nil {
		return err
	}
	return nil
}

// Login verifies the credentials and returns the account without its hash.
// An unknown email and a wrong password produce the same message.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, apperr.New(apperr.Input, "Email and password are required")
	}

	record, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return nil, apperr.New(apperr.Auth, "Invalid credentials")
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)) != nil {
		return nil, apperr.New(apperr.Auth, "Invalid credentials")
	}

	user := record.User
	return &user, nil
}

// VerifyPassword re-checks the account credential, used to leave child mode.
func (s *Service) VerifyPassword(ctx context.Context, userID, password string) error {
	if userID == "" || password == "" {
		return apperr.New(apperr.Input, "User ID and password are required")
	}

	record, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)) != nil {
		return apperr.New(apperr.Auth, "Invalid password")
	}
	return nil
}
