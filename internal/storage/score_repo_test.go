package storage

import "testing"

func TestMemoryScoreRepoKeepsBest(t *testing.T) {
	repo := NewMemoryScoreRepo()
	defer repo.Close()

	if err := repo.SaveScore("pilot", 120); err != nil {
		t.Fatalf("SaveScore: %v", err)
	}
	// Худший результат не должен затереть рекорд
	if err := repo.SaveScore("pilot", 80); err != nil {
		t.Fatalf("SaveScore: %v", err)
	}

	best, err := repo.BestScore("pilot")
	if err != nil {
		t.Fatalf("BestScore: %v", err)
	}
	if best != 120 {
		t.Errorf("expected best 120, got %d", best)
	}

	if err := repo.SaveScore("pilot", 300); err != nil {
		t.Fatalf("SaveScore: %v", err)
	}
	best, _ = repo.BestScore("pilot")
	if best != 300 {
		t.Errorf("expected best 300, got %d", best)
	}
}

func TestMemoryScoreRepoBestUnknown(t *testing.T) {
	repo := NewMemoryScoreRepo()
	defer repo.Close()

	best, err := repo.BestScore("ghost")
	if err != nil {
		t.Fatalf("BestScore: %v", err)
	}
	if best != 0 {
		t.Errorf("expected 0 for unknown player, got %d", best)
	}
}

func TestMemoryScoreRepoTop(t *testing.T) {
	repo := NewMemoryScoreRepo()
	defer repo.Close()

	repo.SaveScore("alpha", 50)
	repo.SaveScore("bravo", 200)
	repo.SaveScore("charlie", 100)
	repo.SaveScore("delta", 100) // ничья решается по имени

	top, err := repo.Top(3)
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(top))
	}
	if top[0].Username != "bravo" || top[0].Score != 200 {
		t.Errorf("expected bravo/200 first, got %s/%d", top[0].Username, top[0].Score)
	}
	if top[1].Username != "charlie" || top[2].Username != "delta" {
		t.Errorf("tie not broken by name: %s, %s", top[1].Username, top[2].Username)
	}
}
