package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWT нужен только REST API; игровой протокол токены не использует.
// Секрет генерируется на старте процесса, так что рестарт сервера
// инвалидирует выданные токены. Для стабильного ключа вызовите
// SetJWTSecret до запуска REST сервера.
var jwtSecret []byte

const tokenTTL = 24 * time.Hour

func init() {
	jwtSecret = make([]byte, 32)
	if _, err := rand.Read(jwtSecret); err != nil {
		// crypto/rand недоступен только в сломанном окружении
		jwtSecret = []byte("airtrap-dev-secret-not-for-production!!")
	}
}

// Claims — полезная нагрузка токена.
type Claims struct {
	PlayerID uint64 `json:"player_id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// GenerateJWT выписывает токен пользователю на tokenTTL.
func GenerateJWT(user *User) (string, error) {
	now := time.Now()
	claims := &Claims{
		PlayerID: user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "airtrap-server",
			Subject:   user.Username,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
}

// ValidateJWT проверяет подпись и срок действия токена.
func ValidateJWT(tokenString string) (playerID uint64, isValid bool, isAdmin bool) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("неожиданный метод подписи")
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, false, false
	}
	return claims.PlayerID, true, claims.IsAdmin
}

// GenerateSecureSecret возвращает свежий base64-ключ для SetJWTSecret.
func GenerateSecureSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(b)
}

// SetJWTSecret устанавливает постоянный ключ подписи.
// Принимает base64 от минимум 32 байт.
func SetJWTSecret(secret string) error {
	decoded, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return err
	}
	if len(decoded) < 32 {
		return errors.New("ключ подписи должен быть не короче 32 байт")
	}
	jwtSecret = decoded
	return nil
}
