package storage

import (
	"fmt"
	"time"

	"github.com/annel0/airtrap-server/internal/config"
)

// ScoreEntry запись таблицы рекордов.
type ScoreEntry struct {
	Username   string    `json:"username"`
	Score      int32     `json:"score"`
	RecordedAt time.Time `json:"recorded_at"`
}

// ScoreRepo хранит лучшие результаты игроков.
// SaveScore сохраняет результат только если он превышает текущий рекорд игрока.
type ScoreRepo interface {
	// SaveScore записывает результат игрока (сохраняется максимум)
	SaveScore(username string, score int32) error

	// BestScore возвращает лучший результат игрока; 0 если записей нет
	BestScore(username string) (int32, error)

	// Top возвращает до limit лучших результатов по убыванию очков
	Top(limit int) ([]ScoreEntry, error)

	// Close освобождает ресурсы репозитория
	Close() error
}

// NewScoreRepo создаёт репозиторий рекордов по конфигурации.
// Backend: memory (по умолчанию) | redis.
func NewScoreRepo(cfg config.ScoresConfig) (ScoreRepo, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryScoreRepo(), nil
	case "redis":
		return NewRedisScoreRepo(&RedisScoreConfig{
			Addr: cfg.GetRedisAddr(),
			DB:   cfg.RedisDB,
		})
	default:
		return nil, fmt.Errorf("unknown scores backend: %q", cfg.Backend)
	}
}
