package auth

import "time"

// User — учётная запись игрока. Живёт в выбранном бэкенде
// (memory/file/maria/mongo); наружу уходит только bcrypt-хэш,
// открытый пароль нигде не хранится.
type User struct {
	ID           uint64
	Username     string // уникально, без учёта регистра
	PasswordHash string
	CreatedAt    time.Time
	LastLogin    time.Time
	IsAdmin      bool // доступ к админским REST эндпоинтам
}
