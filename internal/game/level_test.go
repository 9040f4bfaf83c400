package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/annel0/airtrap-server/internal/ecs"
	"github.com/annel0/airtrap-server/internal/protocol"
)

func TestDefaultLevelSortedByTime(t *testing.T) {
	level := DefaultLevel()
	for i := 1; i < len(level.Spawns); i++ {
		if level.Spawns[i].Time < level.Spawns[i-1].Time {
			t.Fatalf("триггеры не отсортированы: [%d]=%v после [%d]=%v",
				i, level.Spawns[i].Time, i-1, level.Spawns[i-1].Time)
		}
	}
	if level.Scroll <= 0 {
		t.Errorf("Scroll = %v, ожидали положительный", level.Scroll)
	}
}

func TestLoadLevelFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "level1.json")
	data := `{
		"id": 7,
		"name": "test",
		"spawns": [
			{"time": 5, "kind": "tank", "x": 1400, "y": 200},
			{"time": 1, "kind": "scout", "x": 1300, "y": 100, "pattern": "sine", "amplitude": 40, "frequency": 2}
		],
		"powerups": [{"time": 3, "kind": "heal", "x": 1300, "y": 300}]
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	level, err := LoadLevel(path)
	if err != nil {
		t.Fatalf("LoadLevel: %v", err)
	}
	if level.ID != 7 {
		t.Errorf("ID = %d, ожидали 7", level.ID)
	}
	// Загрузчик сортирует расписание по времени.
	if level.Spawns[0].Kind != "scout" || level.Spawns[1].Kind != "tank" {
		t.Errorf("расписание не отсортировано: %+v", level.Spawns)
	}
	if level.Scroll != levelScrollSpeed {
		t.Errorf("Scroll = %v, ожидали дефолт %v", level.Scroll, levelScrollSpeed)
	}
}

func TestLoadLevelsMissingDir(t *testing.T) {
	levels := LoadLevels("/nonexistent/levels")
	if len(levels) != 0 {
		t.Errorf("ожидали пустую карту, получили %d уровней", len(levels))
	}
}

func TestBuildObstaclesMergesRuns(t *testing.T) {
	tm := &TileMap{
		Width: 4, Height: 2, TileWidth: 32, TileHeight: 32,
		Layers: []TileLayer{{
			Name: collisionLayerName,
			Data: []int{
				1, 1, 0, 2,
				0, 0, 0, 2,
			},
		}},
	}

	obs := BuildObstacles(tm)
	if len(obs) != 3 {
		t.Fatalf("препятствий = %d, ожидали 3 (слитый ряд + два сплошных)", len(obs))
	}

	var merged *StaticObstacle
	for i := range obs {
		if obs[i].Destructible && obs[i].Width == 64 {
			merged = &obs[i]
		}
	}
	if merged == nil {
		t.Fatalf("слитый ряд 2x1 не найден: %+v", obs)
	}
	if merged.X != 0 || merged.Y != 0 {
		t.Errorf("позиция слитого ряда = (%v,%v)", merged.X, merged.Y)
	}
}

func TestLevelScheduleFires(t *testing.T) {
	m := newMatch(t)
	sys := NewLevelSystem(m.g)

	level := &Level{
		ID:     1,
		Scroll: levelScrollSpeed,
		Spawns: []SpawnTrigger{
			{Time: 0, Kind: "scout", X: 1300, Y: 100, Pattern: "straight", Speed: 100},
			{Time: 5, Kind: "tank", X: 1400, Y: 200, Pattern: "straight", Speed: 60},
		},
	}
	sys.StartRoom(m.room, level)

	countKind := func(kind protocol.EntityKind) int {
		n := 0
		m.g.S.Type.Each(func(_ ecs.Entity, typ *EntityType) {
			if typ.Kind == kind {
				n++
			}
		})
		return n
	}

	sys.Update(2.5)
	if got := countKind(protocol.KindScout); got != 1 {
		t.Errorf("после t=2.5 разведчиков = %d, ожидали 1", got)
	}
	if got := countKind(protocol.KindTank); got != 0 {
		t.Errorf("после t=2.5 танков = %d, ожидали 0", got)
	}

	sys.Update(2.5)
	sys.Update(2.5)
	if got := countKind(protocol.KindTank); got != 1 {
		t.Errorf("после t=7.5 танков = %d, ожидали 1", got)
	}

	if !sys.RunComplete(m.room.ID) {
		t.Error("расписание должно быть исчерпано")
	}
}

func TestSpawnAheadOfFrontPlayer(t *testing.T) {
	m := newMatch(t)
	sys := NewLevelSystem(m.g)

	// Передний игрок далеко справа: триггерный X должен быть отодвинут.
	tr, _ := m.g.S.Transform.GetPtr(m.player.Entity)
	tr.Pos.X = 1000

	level := &Level{
		ID:     1,
		Scroll: levelScrollSpeed,
		Spawns: []SpawnTrigger{{Time: 0, Kind: "scout", X: 50, Y: 100, Pattern: "straight", Speed: 100}},
	}
	sys.StartRoom(m.room, level)
	sys.Update(TickDt)

	var spawnX float32
	m.g.S.Type.Each(func(e ecs.Entity, typ *EntityType) {
		if typ.Kind == protocol.KindScout {
			etr, _ := m.g.S.Transform.Get(e)
			spawnX = etr.Pos.X
		}
	})
	minX := 1000 + minSpawnAhead + spawnOffsets[len(spawnOffsets)-1]
	if spawnX < minX {
		t.Errorf("спавн на X=%v, ожидали не ближе %v", spawnX, minX)
	}
}
