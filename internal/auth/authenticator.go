package auth

import (
	"fmt"
	"strings"

	"github.com/annel0/airtrap-server/internal/config"
)

// Authenticator is the high-level entry point for login and registration.
// It wraps a UserRepository and owns password policy checks; callers never
// see password hashes.
type Authenticator struct {
	repo UserRepository
}

// NewAuthenticator creates an authenticator over the given repository.
func NewAuthenticator(repo UserRepository) *Authenticator {
	return &Authenticator{repo: repo}
}

// Login validates credentials and returns the user on success.
// Returns ErrBadCredentials for both unknown user and wrong password
// so the response does not reveal which usernames exist.
func (a *Authenticator) Login(username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrBadCredentials
	}
	return a.repo.ValidateCredentials(username, password)
}

// Register creates a new account with a bcrypt-hashed password.
func (a *Authenticator) Register(username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 32 {
		return nil, fmt.Errorf("username must be 3-32 characters")
	}
	if len(password) < 4 {
		return nil, fmt.Errorf("password must be at least 4 characters")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return a.repo.CreateUser(username, hash, false)
}

// Repo exposes the underlying repository (used by the REST API for lookups).
func (a *Authenticator) Repo() UserRepository {
	return a.repo
}

// NewRepository builds a UserRepository according to configuration.
// Supported backends: memory (default), file, maria, mongo.
func NewRepository(cfg config.AuthConfig) (UserRepository, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		return NewMemoryUserRepo()
	case "file":
		path := cfg.FilePath
		if path == "" {
			path = "users.db"
		}
		return NewFileUserRepo(path)
	case "maria":
		return NewMariaUserRepo(MariaConfig{
			Host:     cfg.Maria.Host,
			Port:     cfg.Maria.Port,
			Database: cfg.Maria.Database,
			Username: cfg.Maria.Username,
			Password: cfg.Maria.Password,
		})
	case "mongo":
		return NewMongoUserRepo(MongoConfig{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
	default:
		return nil, fmt.Errorf("unknown auth backend: %q", cfg.Backend)
	}
}
