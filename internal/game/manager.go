package game

import (
	"context"
	"time"

	"github.com/annel0/airtrap-server/internal/api"
	"github.com/annel0/airtrap-server/internal/auth"
	"github.com/annel0/airtrap-server/internal/ecs"
	"github.com/annel0/airtrap-server/internal/eventbus"
	"github.com/annel0/airtrap-server/internal/logging"
	"github.com/annel0/airtrap-server/internal/network"
	"github.com/annel0/airtrap-server/internal/protocol"
	"github.com/annel0/airtrap-server/internal/storage"
)

// Manager — сердце сервера: единственная горутина симуляции, которая
// разбирает сетевые события, двигает комнаты по жизненному циклу и
// прогоняет системы мира с фиксированной частотой.
//
// Всё состояние мира принадлежит этой горутине; внешние вызовы
// (REST-кик и т.п.) попадают внутрь через очередь команд.
type Manager struct {
	g      *GameState
	net    *network.Server
	queue  *network.EventQueue
	authn  *auth.Authenticator
	scores storage.ScoreRepo
	bus    eventbus.EventBus
	levels map[uint16]*Level

	systems  []System
	levelSys *LevelSystem
	metrics  *Metrics

	commands chan func()
	tick     uint32

	stopCh chan struct{}
	doneCh chan struct{}
}

// ManagerConfig — зависимости менеджера. Net может быть nil (тесты):
// тогда недоступно только принудительное закрытие сессий.
type ManagerConfig struct {
	Sender  PacketSender
	Net     *network.Server
	Queue   *network.EventQueue
	Authn   *auth.Authenticator
	Scores  storage.ScoreRepo
	Bus     eventbus.EventBus
	Levels  map[uint16]*Level
	Metrics *Metrics
	Seed    int64
}

func NewManager(cfg ManagerConfig) *Manager {
	m := &Manager{
		g:        NewGameState(cfg.Sender, cfg.Seed),
		net:      cfg.Net,
		queue:    cfg.Queue,
		authn:    cfg.Authn,
		scores:   cfg.Scores,
		bus:      cfg.Bus,
		levels:   cfg.Levels,
		metrics:  cfg.Metrics,
		commands: make(chan func(), 64),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	if m.levels == nil {
		m.levels = make(map[uint16]*Level)
	}
	m.g.Events = m.publish

	m.levelSys = NewLevelSystem(m.g)
	m.systems = []System{
		m.levelSys,
		NewMovementSystem(m.g),
		NewShootingSystem(m.g),
		NewEnemySystem(m.g),
		NewCollisionSystem(m.g),
		NewCleanupSystem(m.g),
		NewNetSyncSystem(m.g, &m.tick),
	}
	return m
}

// State отдаёт игровое состояние; нужен тестам и инструментам.
func (m *Manager) State() *GameState { return m.g }

func (m *Manager) Start() {
	go m.loop()
	logging.Info("🎮 Симуляция запущена: %d тиков/с", TickRate)
}

func (m *Manager) Stop() {
	close(m.stopCh)
	<-m.doneCh
	logging.Info("🎮 Симуляция остановлена")
}

func (m *Manager) loop() {
	defer close(m.doneCh)
	for {
		select {
		case <-m.stopCh:
			return
		default:
		}
		start := time.Now()
		m.Step(TickDt)
		elapsed := time.Since(start)
		if elapsed < tickSleep {
			time.Sleep(tickSleep - elapsed)
		}
	}
}

// Step — один тик симуляции. Вынесен отдельно, чтобы тесты могли
// прокручивать время детерминированно.
func (m *Manager) Step(dt float32) {
	start := time.Now()

	m.drainCommands()
	for _, ev := range m.queue.Drain() {
		m.handleEvent(ev)
	}
	m.launchReadyRooms()

	for _, sys := range m.systems {
		sys.Update(dt)
	}

	m.checkGameOver()
	m.tick++

	m.metrics.observeTick(time.Since(start))
	m.metrics.setPopulation(m.g.World.Len(), m.g.Players.Len(), len(m.g.Rooms.List()))
}

func (m *Manager) drainCommands() {
	for {
		select {
		case fn := <-m.commands:
			fn()
		default:
			return
		}
	}
}

// enqueue передаёт замыкание в горутину симуляции. При переполнении
// очереди команда отбрасывается: лучше потерять кик, чем заблокировать
// HTTP-обработчик.
func (m *Manager) enqueue(fn func()) {
	select {
	case m.commands <- fn:
	default:
		logging.Warn("🎮 Очередь команд переполнена, команда отброшена")
	}
}

// launchReadyRooms стартует комнаты, где все активные игроки готовы.
func (m *Manager) launchReadyRooms() {
	for _, room := range m.g.Rooms.List() {
		if room.ID == LobbyRoomID || room.State() != RoomWaiting {
			continue
		}
		if room.AllReady() {
			m.startRoom(room)
		}
	}
}

func (m *Manager) startRoom(room *Room) {
	if err := room.Start(); err != nil {
		logging.Warn("🎮 Комната %d не стартовала: %v", room.ID, err)
		return
	}

	level, ok := m.levels[room.LevelID]
	if !ok {
		level = DefaultLevel()
	}

	startPayload := protocol.StartGamePayload{LevelID: room.LevelID, Seed: room.Seed}
	m.g.broadcastRoom(room, protocol.OpStartGame, startPayload.Marshal())

	idx := 0
	for _, p := range room.Players() {
		if p.Spectator {
			continue
		}
		e, err := m.g.SpawnPlayerEntity(p, room, idx)
		if err != nil {
			logging.Error("🎮 Спавн игрока %s: %v", p.Username, err)
			continue
		}
		p.State = StateInGame
		p.Score = 0
		m.g.broadcastSpawn(room, e)
		idx++
	}

	m.levelSys.StartRoom(room, level)
	m.publish(eventbus.EventRoomStarted, eventbus.RoomEventPayload{
		RoomID:   room.ID,
		RoomName: room.Name,
		LevelID:  uint32(room.LevelID),
		Players:  room.ActiveCount(),
	})
	logging.Info("🚀 Комната %q (#%d) начала матч: уровень %d, seed %d",
		room.Name, room.ID, room.LevelID, room.Seed)
}

// checkGameOver закрывает матчи: поражение, когда не осталось живых
// игроков, победа — когда расписание уровня доиграно и врагов нет.
func (m *Manager) checkGameOver() {
	for _, room := range m.g.Rooms.List() {
		if room.State() != RoomInGame {
			continue
		}
		if room.ActiveCount() == 0 {
			m.finishRoom(room)
			continue
		}
		if m.levelSys.RunComplete(room.ID) && !m.g.roomHasEnemies(room.ID) {
			m.finishRoom(room)
		}
	}
}

func (m *Manager) finishRoom(room *Room) {
	if err := room.Finish(); err != nil {
		return
	}

	var bestName string
	var bestScore int32
	for _, p := range room.Players() {
		if p.Score > bestScore || bestName == "" {
			bestName, bestScore = p.Username, p.Score
		}
	}

	for _, p := range room.Players() {
		payload := protocol.GameOverPayload{
			BestPlayer: bestName,
			BestScore:  bestScore,
			YourScore:  p.Score,
		}
		m.g.sendReliable(p.SessionID, protocol.OpGameOver, payload.Marshal())

		if p.Username != "" {
			if err := m.scores.SaveScore(p.Username, p.Score); err != nil {
				logging.Warn("📈 Сохранение счёта %s: %v", p.Username, err)
			}
		}
		m.publish(eventbus.EventScoreRecorded, eventbus.PlayerEventPayload{
			RoomID:   room.ID,
			PlayerID: p.SessionID,
			Username: p.Username,
			Score:    p.Score,
		})

		m.g.UnbindSession(p.SessionID)
		p.Entity = ecs.Nil
		p.NetworkID = 0
		p.State = StateInRoom
		p.IsReady = false
		p.Spectator = false
	}

	m.despawnRoomEntities(room.ID)
	m.levelSys.StopRoom(room.ID)
	m.publish(eventbus.EventRoomFinished, eventbus.RoomEventPayload{
		RoomID:   room.ID,
		RoomName: room.Name,
		LevelID:  uint32(room.LevelID),
		Players:  room.Len(),
	})
	logging.Info("🏁 Комната %q (#%d) завершила матч: лучший %s (%d)",
		room.Name, room.ID, bestName, bestScore)
}

// despawnRoomEntities тихо убирает всё содержимое комнаты: клиенты
// уже получили GameOver и сбрасывают сцену целиком.
func (m *Manager) despawnRoomEntities(roomID uint32) {
	var doomed []ecs.Entity
	m.g.S.Room.Each(func(e ecs.Entity, r *RoomID) {
		if r.ID == roomID {
			doomed = append(doomed, e)
		}
	})
	for _, e := range doomed {
		m.g.Despawn(e, false)
	}
}

func (m *Manager) publish(eventType string, payload any) {
	if m.bus == nil {
		return
	}
	env := eventbus.NewEnvelope("game", eventType, payload)
	if err := m.bus.Publish(context.Background(), env); err != nil {
		logging.Debug("🪵 Публикация события %s: %v", eventType, err)
	}
}

//================ api.GameProvider =================//

// RoomInfos вызывается из HTTP-горутины: реестр под мьютексом,
// снимки комнат атомарны.
func (m *Manager) RoomInfos() []api.RoomInfo {
	rooms := m.g.Rooms.List()
	infos := make([]api.RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		infos = append(infos, api.RoomInfo{
			ID:         room.ID,
			Name:       room.Name,
			State:      room.State().String(),
			Players:    room.Len(),
			MaxPlayers: room.MaxPlayers,
			LevelID:    uint32(room.LevelID),
		})
	}
	return infos
}

// KickPlayer исключает игрока по запросу администратора. Сама работа
// делается на тике симуляции; здесь только проверка существования.
func (m *Manager) KickPlayer(playerID uint32, reason string, ban bool) bool {
	if _, ok := m.g.Players.Get(playerID); !ok {
		return false
	}
	m.enqueue(func() { m.kick(playerID, reason, ban) })
	return true
}

// MutePlayer блокирует или разблокирует чат игрока. Как и кик,
// применяется на тике симуляции.
func (m *Manager) MutePlayer(playerID uint32, muted bool) bool {
	if _, ok := m.g.Players.Get(playerID); !ok {
		return false
	}
	m.enqueue(func() {
		p, ok := m.g.Players.Get(playerID)
		if !ok {
			return
		}
		p.IsMuted = muted
		logging.Info("🔇 Игрок %s (сессия %d): мут=%v", p.Username, playerID, muted)
	})
	return true
}

func (m *Manager) kick(sessionID uint32, reason string, ban bool) {
	p, ok := m.g.Players.Get(sessionID)
	if !ok {
		return
	}
	payload := protocol.KickedPayload{Reason: reason}
	m.g.sendReliable(sessionID, protocol.OpKicked, payload.Marshal())

	if room, ok := m.g.Rooms.Get(p.RoomID); ok && room.ID != LobbyRoomID {
		if ban && p.Username != "" {
			room.Ban(p.Username)
		}
		m.leaveRoom(p, "исключён: "+reason)
	}
	if ban && m.net != nil {
		m.net.CloseSession(sessionID)
	}
	logging.Info("👢 Игрок %s (сессия %d) исключён: %s", p.Username, sessionID, reason)
}
