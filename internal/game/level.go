package game

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/annel0/airtrap-server/internal/logging"
)

// collisionLayerName — слой тайловой карты, из которого строятся препятствия.
const collisionLayerName = "Collision_Layer"

// Значения тайлов слоя коллизий.
const (
	tileEmpty        = 0
	tileDestructible = 1
	tileSolid        = 2
)

// SpawnTrigger — запланированное появление противника.
type SpawnTrigger struct {
	Time      float32 `json:"time"`
	Kind      string  `json:"kind"` // scout | tank | boss
	X         float32 `json:"x"`
	Y         float32 `json:"y"`
	Pattern   string  `json:"pattern"` // straight | zigzag | circular | sine | kamikaze | static
	Speed     float32 `json:"speed"`
	Amplitude float32 `json:"amplitude"`
	Frequency float32 `json:"frequency"`
	Weapon    bool    `json:"weapon"` // стреляет ли противник
}

// PowerupTrigger — запланированный бонус.
type PowerupTrigger struct {
	Time float32 `json:"time"`
	Kind string  `json:"kind"` // heal | speed | double_fire | shield
	X    float32 `json:"x"`
	Y    float32 `json:"y"`
}

// ObstacleTrigger — запланированное препятствие вне тайловой карты.
type ObstacleTrigger struct {
	Time         float32 `json:"time"`
	X            float32 `json:"x"`
	Y            float32 `json:"y"`
	Width        float32 `json:"width"`
	Height       float32 `json:"height"`
	Destructible bool    `json:"destructible"`
}

// TileLayer — один слой тайловой карты.
type TileLayer struct {
	Name string `json:"name"`
	Data []int  `json:"data"` // row-major, width*height значений
}

// TileMap — тайловая карта уровня.
type TileMap struct {
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	TileWidth  float32     `json:"tile_width"`
	TileHeight float32     `json:"tile_height"`
	Layers     []TileLayer `json:"layers"`
}

// Level — разобранное описание уровня: расписание триггеров + препятствия.
type Level struct {
	ID        uint16            `json:"id"`
	Name      string            `json:"name"`
	Scroll    float32           `json:"scroll_speed"`
	Spawns    []SpawnTrigger    `json:"spawns"`
	Powerups  []PowerupTrigger  `json:"powerups"`
	Obstacles []ObstacleTrigger `json:"obstacles"`
	TileMap   *TileMap          `json:"tilemap,omitempty"`
}

// StaticObstacle — прямоугольник, построенный из тайловой карты.
type StaticObstacle struct {
	X, Y          float32
	Width, Height float32
	Destructible  bool
}

// LoadLevel читает и валидирует один JSON-файл уровня.
func LoadLevel(path string) (*Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read level %s: %w", path, err)
	}

	var lvl Level
	if err := json.Unmarshal(data, &lvl); err != nil {
		return nil, fmt.Errorf("parse level %s: %w", path, err)
	}

	if lvl.Scroll <= 0 {
		lvl.Scroll = levelScrollSpeed
	}

	// Расписание обрабатывается курсором, поэтому сортируем по времени.
	sort.Slice(lvl.Spawns, func(i, j int) bool { return lvl.Spawns[i].Time < lvl.Spawns[j].Time })
	sort.Slice(lvl.Powerups, func(i, j int) bool { return lvl.Powerups[i].Time < lvl.Powerups[j].Time })
	sort.Slice(lvl.Obstacles, func(i, j int) bool { return lvl.Obstacles[i].Time < lvl.Obstacles[j].Time })

	return &lvl, nil
}

// LoadLevels читает все *.json уровни из каталога.
// Отсутствующий каталог — не ошибка: сервер работает со встроенным уровнем.
func LoadLevels(dir string) map[uint16]*Level {
	levels := make(map[uint16]*Level)
	if dir == "" {
		return levels
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		logging.Warn("Каталог уровней %s недоступен: %v", dir, err)
		return levels
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		lvl, err := LoadLevel(filepath.Join(dir, entry.Name()))
		if err != nil {
			logging.Error("Уровень %s пропущен: %v", entry.Name(), err)
			continue
		}
		levels[lvl.ID] = lvl
		logging.Info("📜 Уровень %d (%s): %d спавнов, %d бонусов, %d препятствий",
			lvl.ID, lvl.Name, len(lvl.Spawns), len(lvl.Powerups), len(lvl.Obstacles))
	}
	return levels
}

// BuildObstacles превращает слой коллизий в набор прямоугольников.
// Непрерывные отрезки тайлов одного вида в строке сливаются в одно
// широкое препятствие, чтобы ограничить число сущностей.
func BuildObstacles(tm *TileMap) []StaticObstacle {
	if tm == nil {
		return nil
	}

	var layer *TileLayer
	for i := range tm.Layers {
		if tm.Layers[i].Name == collisionLayerName {
			layer = &tm.Layers[i]
			break
		}
	}
	if layer == nil || len(layer.Data) < tm.Width*tm.Height {
		return nil
	}

	var out []StaticObstacle
	for row := 0; row < tm.Height; row++ {
		col := 0
		for col < tm.Width {
			kind := layer.Data[row*tm.Width+col]
			if kind == tileEmpty {
				col++
				continue
			}

			run := 1
			for col+run < tm.Width && layer.Data[row*tm.Width+col+run] == kind {
				run++
			}

			out = append(out, StaticObstacle{
				X:            float32(col) * tm.TileWidth,
				Y:            float32(row) * tm.TileHeight,
				Width:        float32(run) * tm.TileWidth,
				Height:       tm.TileHeight,
				Destructible: kind == tileDestructible,
			})
			col += run
		}
	}
	return out
}

// DefaultLevel — встроенное расписание на случай отсутствия файлов уровней.
func DefaultLevel() *Level {
	return &Level{
		ID:     0,
		Name:   "Default",
		Scroll: levelScrollSpeed,
		Spawns: []SpawnTrigger{
			{Time: 2, Kind: "scout", X: 1300, Y: 150, Pattern: "sine", Speed: 140, Amplitude: 60, Frequency: 2},
			{Time: 4, Kind: "scout", X: 1300, Y: 350, Pattern: "sine", Speed: 140, Amplitude: 60, Frequency: 2},
			{Time: 7, Kind: "scout", X: 1300, Y: 500, Pattern: "zigzag", Speed: 160, Amplitude: 120, Frequency: 3},
			{Time: 10, Kind: "tank", X: 1350, Y: 300, Pattern: "straight", Speed: 80, Weapon: true},
			{Time: 14, Kind: "scout", X: 1300, Y: 200, Pattern: "kamikaze", Speed: 180},
			{Time: 18, Kind: "tank", X: 1350, Y: 450, Pattern: "straight", Speed: 80, Weapon: true},
			{Time: 25, Kind: "boss", X: 1500, Y: 300, Pattern: "static", Speed: 60, Weapon: true},
		},
		Powerups: []PowerupTrigger{
			{Time: 8, Kind: "heal", X: 1300, Y: 400},
			{Time: 15, Kind: "double_fire", X: 1300, Y: 250},
			{Time: 20, Kind: "shield", X: 1300, Y: 500},
		},
		Obstacles: []ObstacleTrigger{
			{Time: 5, X: 1300, Y: 600, Width: 96, Height: 32, Destructible: true},
			{Time: 12, X: 1300, Y: 80, Width: 64, Height: 32, Destructible: false},
		},
	}
}
