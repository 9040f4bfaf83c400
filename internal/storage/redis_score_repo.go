package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisScoreRepo хранит таблицу рекордов в Redis.
// Рейтинг лежит в sorted set (ZADD GT сохраняет только улучшения),
// метаданные записи — в отдельных ключах с JSON.
type RedisScoreRepo struct {
	client    *redis.Client
	ctx       context.Context
	keyPrefix string
}

// RedisScoreConfig содержит настройки подключения к Redis
type RedisScoreConfig struct {
	Addr      string // Адрес Redis сервера
	Password  string // Пароль (пустой если не требуется)
	DB        int    // Номер базы данных
	KeyPrefix string // Префикс для ключей
}

// DefaultRedisScoreConfig возвращает конфигурацию по умолчанию
func DefaultRedisScoreConfig() *RedisScoreConfig {
	return &RedisScoreConfig{
		Addr:      "localhost:6379",
		Password:  "",
		DB:        0,
		KeyPrefix: "airtrap:scores:",
	}
}

// NewRedisScoreRepo создаёт новый Redis репозиторий рекордов
func NewRedisScoreRepo(config *RedisScoreConfig) (*RedisScoreRepo, error) {
	if config == nil {
		config = DefaultRedisScoreConfig()
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "airtrap:scores:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx := context.Background()

	// Проверяем подключение
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("🔴 Connected to Redis at %s", config.Addr)
	return &RedisScoreRepo{
		client:    client,
		ctx:       ctx,
		keyPrefix: config.KeyPrefix,
	}, nil
}

func (r *RedisScoreRepo) boardKey() string {
	return r.keyPrefix + "board"
}

func (r *RedisScoreRepo) entryKey(username string) string {
	return r.keyPrefix + "entry:" + username
}

// SaveScore сохраняет результат, если он превышает текущий рекорд игрока.
func (r *RedisScoreRepo) SaveScore(username string, score int32) error {
	// GT: обновляем только в большую сторону
	added, err := r.client.ZAddArgs(r.ctx, r.boardKey(), redis.ZAddArgs{
		GT: true,
		Members: []redis.Z{
			{Score: float64(score), Member: username},
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to save score: %w", err)
	}

	// ZADD GT возвращает 0 при обновлении существующего — перечитываем счёт,
	// чтобы понять, стала ли запись новой.
	cur, err := r.client.ZScore(r.ctx, r.boardKey(), username).Result()
	if err != nil {
		return fmt.Errorf("failed to read back score: %w", err)
	}
	if added == 0 && int32(cur) != score {
		return nil // старый рекорд выше, метаданные не трогаем
	}

	entry := ScoreEntry{
		Username:   username,
		Score:      score,
		RecordedAt: time.Now(),
	}
	data, err := json.Marshal(&entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	if err := r.client.Set(r.ctx, r.entryKey(username), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save entry: %w", err)
	}
	return nil
}

// BestScore возвращает лучший результат игрока; 0 если записей нет.
func (r *RedisScoreRepo) BestScore(username string) (int32, error) {
	score, err := r.client.ZScore(r.ctx, r.boardKey(), username).Result()
	if err == redis.Nil {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("failed to get score: %w", err)
	}
	return int32(score), nil
}

// Top возвращает до limit лучших результатов по убыванию очков.
func (r *RedisScoreRepo) Top(limit int) ([]ScoreEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	ranked, err := r.client.ZRevRangeWithScores(r.ctx, r.boardKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to range leaderboard: %w", err)
	}
	if len(ranked) == 0 {
		return []ScoreEntry{}, nil
	}

	// Метаданные забираем пайплайном
	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ranked))
	for i, z := range ranked {
		cmds[i] = pipe.Get(r.ctx, r.entryKey(z.Member.(string)))
	}
	if _, err := pipe.Exec(r.ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to get entries: %w", err)
	}

	result := make([]ScoreEntry, 0, len(ranked))
	for i, z := range ranked {
		username := z.Member.(string)

		data, err := cmds[i].Result()
		if err != nil {
			// Метаданных нет — строим запись из sorted set
			result = append(result, ScoreEntry{
				Username: username,
				Score:    int32(z.Score),
			})
			continue
		}

		var entry ScoreEntry
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			log.Printf("⚠️ Failed to unmarshal entry for %s: %v", username, err)
			continue
		}
		result = append(result, entry)
	}

	return result, nil
}

// Close закрывает соединение с Redis
func (r *RedisScoreRepo) Close() error {
	return r.client.Close()
}
