package game

import (
	"github.com/annel0/airtrap-server/internal/vec"
)

// LevelSystem проигрывает расписание уровня для каждой идущей комнаты:
// отсчитывает время и срабатывает триггеры спавна в порядке Time.
type LevelSystem struct {
	g    *GameState
	runs map[uint32]*levelRun
}

type levelRun struct {
	room    *Room
	level   *Level
	elapsed float32

	spawnCursor    int
	powerupCursor  int
	obstacleCursor int
	offsetCycle    int
}

func NewLevelSystem(g *GameState) *LevelSystem {
	return &LevelSystem{g: g, runs: make(map[uint32]*levelRun)}
}

// StartRoom запускает прогон уровня: статичная геометрия тайловой
// карты спавнится сразу, триггеры — по мере наступления их времени.
func (s *LevelSystem) StartRoom(room *Room, level *Level) {
	run := &levelRun{room: room, level: level}
	s.runs[room.ID] = run

	if level.TileMap != nil {
		for _, ob := range BuildObstacles(level.TileMap) {
			s.g.SpawnObstacle(room, vec.Vec2{X: ob.X, Y: ob.Y}, ob.Width, ob.Height, ob.Destructible, false)
		}
	}
}

// StopRoom снимает прогон; сущности комнаты убирает вызывающий.
func (s *LevelSystem) StopRoom(roomID uint32) {
	delete(s.runs, roomID)
}

// RunComplete — true, когда все триггеры уровня уже сработали.
func (s *LevelSystem) RunComplete(roomID uint32) bool {
	run, ok := s.runs[roomID]
	if !ok {
		return false
	}
	return run.spawnCursor >= len(run.level.Spawns) &&
		run.powerupCursor >= len(run.level.Powerups) &&
		run.obstacleCursor >= len(run.level.Obstacles)
}

func (s *LevelSystem) Update(dt float32) {
	for id, run := range s.runs {
		if run.room.State() != RoomInGame {
			delete(s.runs, id)
			continue
		}
		run.elapsed += dt
		s.fireSpawns(run)
		s.firePowerups(run)
		s.fireObstacles(run)
	}
}

func (s *LevelSystem) fireSpawns(run *levelRun) {
	front := s.g.frontPlayerX(run.room.ID)

	for run.spawnCursor < len(run.level.Spawns) {
		tr := run.level.Spawns[run.spawnCursor]
		if tr.Time > run.elapsed {
			return
		}
		run.spawnCursor++

		// Спавн не ближе минимальной дистанции перед передним игроком,
		// с циклическим смещением, чтобы волны не слипались в столбик.
		ahead := minSpawnAhead
		if tr.Kind == "boss" {
			ahead = bossSpawnAhead
		}
		x := tr.X
		if min := front + ahead; x < min {
			x = min
		}
		x += spawnOffsets[run.offsetCycle%len(spawnOffsets)]
		run.offsetCycle++

		s.g.SpawnEnemy(run.room, tr, vec.Vec2{X: x, Y: tr.Y})
	}
}

func (s *LevelSystem) firePowerups(run *levelRun) {
	for run.powerupCursor < len(run.level.Powerups) {
		tr := run.level.Powerups[run.powerupCursor]
		if tr.Time > run.elapsed {
			return
		}
		run.powerupCursor++
		s.g.SpawnPowerup(run.room, powerupKindByName(tr.Kind), vec.Vec2{X: tr.X, Y: tr.Y})
	}
}

func (s *LevelSystem) fireObstacles(run *levelRun) {
	for run.obstacleCursor < len(run.level.Obstacles) {
		tr := run.level.Obstacles[run.obstacleCursor]
		if tr.Time > run.elapsed {
			return
		}
		run.obstacleCursor++
		s.g.SpawnObstacle(run.room, vec.Vec2{X: tr.X, Y: tr.Y}, tr.Width, tr.Height, tr.Destructible, true)
	}
}
