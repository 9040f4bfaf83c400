package storage

import (
	"sort"
	"sync"
	"time"
)

// MemoryScoreRepo хранит рекорды в памяти процесса.
// Подходит для тестов и одиночного сервера без персистентности.
type MemoryScoreRepo struct {
	mu     sync.RWMutex
	scores map[string]ScoreEntry
}

// NewMemoryScoreRepo создаёт пустой in-memory репозиторий рекордов.
func NewMemoryScoreRepo() *MemoryScoreRepo {
	return &MemoryScoreRepo{
		scores: make(map[string]ScoreEntry),
	}
}

// SaveScore сохраняет результат, если он лучше текущего рекорда игрока.
func (r *MemoryScoreRepo) SaveScore(username string, score int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.scores[username]; ok && cur.Score >= score {
		return nil
	}
	r.scores[username] = ScoreEntry{
		Username:   username,
		Score:      score,
		RecordedAt: time.Now(),
	}
	return nil
}

// BestScore возвращает лучший результат игрока; 0 если записей нет.
func (r *MemoryScoreRepo) BestScore(username string) (int32, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, ok := r.scores[username]; ok {
		return entry.Score, nil
	}
	return 0, nil
}

// Top возвращает до limit лучших результатов по убыванию очков.
func (r *MemoryScoreRepo) Top(limit int) ([]ScoreEntry, error) {
	r.mu.RLock()
	entries := make([]ScoreEntry, 0, len(r.scores))
	for _, e := range r.scores {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Username < entries[j].Username
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Close для in-memory реализации ничего не делает.
func (r *MemoryScoreRepo) Close() error {
	return nil
}
