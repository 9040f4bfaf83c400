package auth

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// FileUserRepo persists accounts to a plain text file, one record per line:
//
//	username:bcrypt-hash:is_admin
//
// Records are loaded once at startup and appended on registration. Good
// enough for a single-process server; concurrent processes must not share
// the file.
type FileUserRepo struct {
	mu     sync.RWMutex
	path   string
	users  map[string]*User // key = lowercase(username)
	nextID uint64
}

// NewFileUserRepo loads (or creates) the credentials file.
func NewFileUserRepo(path string) (*FileUserRepo, error) {
	repo := &FileUserRepo{
		path:   path,
		users:  make(map[string]*User),
		nextID: 1,
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("open credentials file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ":", 3)
		if len(parts) < 2 {
			continue // malformed line, skip
		}
		user := &User{
			ID:           repo.nextID,
			Username:     parts[0],
			PasswordHash: parts[1],
			CreatedAt:    time.Now(),
			LastLogin:    time.Now(),
			IsAdmin:      len(parts) == 3 && parts[2] == "1",
		}
		repo.nextID++
		repo.users[normalize(user.Username)] = user
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	return repo, nil
}

// GetUserByUsername retrieves user by case-insensitive username.
func (r *FileUserRepo) GetUserByUsername(username string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[normalize(username)]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// GetUserByID retrieves user by numeric identifier.
func (r *FileUserRepo) GetUserByID(id uint64) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, ErrUserNotFound
}

// CreateUser registers a new account and appends it to the file.
func (r *FileUserRepo) CreateUser(username string, passwordHash string, isAdmin bool) (*User, error) {
	key := normalize(username)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[key]; exists {
		return nil, ErrUserExists
	}

	user := &User{
		ID:           r.nextID,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		LastLogin:    time.Now(),
		IsAdmin:      isAdmin,
	}

	if err := r.appendRecord(user); err != nil {
		return nil, err
	}

	r.nextID++
	r.users[key] = user
	return user, nil
}

// ValidateCredentials checks the password against the stored bcrypt hash.
func (r *FileUserRepo) ValidateCredentials(username, password string) (*User, error) {
	user, err := r.GetUserByUsername(username)
	if err != nil {
		return nil, ErrBadCredentials
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrBadCredentials
	}

	r.mu.Lock()
	user.LastLogin = time.Now()
	r.mu.Unlock()
	return user, nil
}

func (r *FileUserRepo) appendRecord(user *User) error {
	file, err := os.OpenFile(r.path, os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open credentials file for append: %w", err)
	}
	defer file.Close()

	admin := "0"
	if user.IsAdmin {
		admin = "1"
	}
	_, err = fmt.Fprintf(file, "%s:%s:%s\n", user.Username, user.PasswordHash, admin)
	if err != nil {
		return fmt.Errorf("append credentials record: %w", err)
	}
	return nil
}
