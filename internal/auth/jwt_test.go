package auth

import (
	"strings"
	"testing"
	"time"
)

func testUser(id uint64, name string, admin bool) *User {
	return &User{
		ID:        id,
		Username:  name,
		IsAdmin:   admin,
		CreatedAt: time.Now(),
		LastLogin: time.Now(),
	}
}

func TestJWTRoundtrip(t *testing.T) {
	token, err := GenerateJWT(testUser(42, "pilot", false))
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("не похоже на JWT: %q", token)
	}

	playerID, isValid, isAdmin := ValidateJWT(token)
	if !isValid {
		t.Fatal("свежий токен отклонён")
	}
	if playerID != 42 {
		t.Errorf("playerID = %d, ожидали 42", playerID)
	}
	if isAdmin {
		t.Error("обычный игрок получил админский флаг")
	}
}

func TestJWTAdminFlag(t *testing.T) {
	token, err := GenerateJWT(testUser(7, "gm", true))
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	if _, _, isAdmin := ValidateJWT(token); !isAdmin {
		t.Error("админский флаг потерялся в токене")
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	for _, bad := range []string{
		"",
		"invalid.token.here",
		"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature",
	} {
		if playerID, isValid, isAdmin := ValidateJWT(bad); isValid || playerID != 0 || isAdmin {
			t.Errorf("токен %q прошёл валидацию", bad)
		}
	}
}

func TestSetJWTSecret(t *testing.T) {
	s1 := GenerateSecureSecret()
	s2 := GenerateSecureSecret()
	if s1 == s2 {
		t.Error("два вызова GenerateSecureSecret вернули одинаковый ключ")
	}

	if err := SetJWTSecret(s1); err != nil {
		t.Fatalf("SetJWTSecret: %v", err)
	}

	// токен, подписанный новым ключом, должен проходить
	token, err := GenerateJWT(testUser(1, "pilot", false))
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	if _, isValid, _ := ValidateJWT(token); !isValid {
		t.Error("токен с новым ключом отклонён")
	}

	// смена ключа инвалидирует старые токены
	if err := SetJWTSecret(s2); err != nil {
		t.Fatalf("SetJWTSecret: %v", err)
	}
	if _, isValid, _ := ValidateJWT(token); isValid {
		t.Error("токен пережил смену ключа подписи")
	}

	for _, bad := range []string{"too-short", "invalid-base64-@#$%", ""} {
		if err := SetJWTSecret(bad); err == nil {
			t.Errorf("ключ %q принят", bad)
		}
	}
}
