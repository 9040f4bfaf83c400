package auth

import (
	"errors"
	"testing"
)

func TestRegisterAndLogin(t *testing.T) {
	repo, err := NewMemoryUserRepo()
	if err != nil {
		t.Fatalf("NewMemoryUserRepo: %v", err)
	}
	a := NewAuthenticator(repo)

	user, err := a.Register("pilot", "secret1")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Username != "pilot" {
		t.Errorf("expected username pilot, got %s", user.Username)
	}
	if user.PasswordHash == "secret1" {
		t.Error("password stored in plain text")
	}

	logged, err := a.Login("pilot", "secret1")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if logged.ID != user.ID {
		t.Errorf("expected id %d, got %d", user.ID, logged.ID)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo, _ := NewMemoryUserRepo()
	a := NewAuthenticator(repo)

	if _, err := a.Register("pilot", "secret1"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, err := a.Login("pilot", "wrong")
	if !errors.Is(err, ErrBadCredentials) {
		t.Errorf("expected ErrBadCredentials, got %v", err)
	}

	// Несуществующий пользователь даёт ту же ошибку
	_, err = a.Login("ghost", "whatever")
	if !errors.Is(err, ErrBadCredentials) {
		t.Errorf("expected ErrBadCredentials for unknown user, got %v", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	repo, _ := NewMemoryUserRepo()
	a := NewAuthenticator(repo)

	if _, err := a.Register("pilot", "secret1"); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	_, err := a.Register("pilot", "secret2")
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	repo, _ := NewMemoryUserRepo()
	a := NewAuthenticator(repo)

	if _, err := a.Register("ab", "secret1"); err == nil {
		t.Error("expected error for short username")
	}
	if _, err := a.Register("pilot", "x"); err == nil {
		t.Error("expected error for short password")
	}
}
