package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/airtrap-server/internal/api"
	"github.com/annel0/airtrap-server/internal/auth"
	"github.com/annel0/airtrap-server/internal/config"
	"github.com/annel0/airtrap-server/internal/eventbus"
	"github.com/annel0/airtrap-server/internal/game"
	"github.com/annel0/airtrap-server/internal/logging"
	"github.com/annel0/airtrap-server/internal/network"
	"github.com/annel0/airtrap-server/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (или ENV AIRTRAP_CONFIG)")
	flag.Parse()

	if err := logging.InitDefaultLogger(); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("❌ Ошибка чтения конфигурации: %v", err)
		log.Fatalf("❌ Ошибка чтения конфигурации: %v", err)
	}
	if cfg == nil {
		cfg = &config.Config{} // дефолты из Get*-методов
	}

	tcpAddr := fmt.Sprintf(":%d", cfg.Server.GetTCPPort())
	udpAddr := fmt.Sprintf(":%d", cfg.Server.GetUDPPort())
	restAddr := fmt.Sprintf(":%d", cfg.Server.GetRESTPort())

	logging.Info("🎮 Запуск AirTrap Server: TCP=%s, UDP=%s, REST=%s", tcpAddr, udpAddr, restAddr)

	// === АУТЕНТИФИКАЦИЯ ===
	userRepo, err := auth.NewRepository(cfg.Auth)
	if err != nil {
		logging.Error("❌ Ошибка инициализации хранилища пользователей: %v", err)
		log.Fatalf("❌ Ошибка инициализации хранилища пользователей: %v", err)
	}
	authn := auth.NewAuthenticator(userRepo)

	// === ТАБЛИЦА РЕКОРДОВ ===
	scores, err := storage.NewScoreRepo(cfg.Scores)
	if err != nil {
		logging.Error("❌ Ошибка инициализации таблицы рекордов: %v", err)
		log.Fatalf("❌ Ошибка инициализации таблицы рекордов: %v", err)
	}

	// === ШИНА СОБЫТИЙ ===
	var bus eventbus.EventBus
	if natsURL := cfg.EventBus.GetNATSURL(); natsURL != "" {
		stream := cfg.EventBus.Stream
		if stream == "" {
			stream = "AIRTRAP_EVENTS"
		}
		retention := time.Duration(cfg.EventBus.Retention) * time.Hour
		if retention <= 0 {
			retention = 24 * time.Hour
		}
		jsBus, err := eventbus.NewJetStreamBus(natsURL, stream, retention)
		if err != nil {
			logging.Error("❌ Ошибка подключения к NATS JetStream (%s): %v", natsURL, err)
			log.Fatalf("❌ Ошибка подключения к NATS JetStream: %v", err)
		}
		bus = jsBus
		logging.Info("📨 Шина событий: NATS JetStream %s (stream=%s)", natsURL, stream)
	} else {
		bus = eventbus.NewMemoryBus(1024)
		logging.Info("📨 Шина событий: in-memory")
	}

	if err := eventbus.StartLoggingListener(bus); err != nil {
		logging.Warn("LoggingListener не запущен: %v", err)
	}
	busMetrics := eventbus.NewMetricsExporter(bus)
	defer busMetrics.Stop()

	// === СЕТЬ ===
	queue := network.NewEventQueue()
	netServer, err := network.NewServer(tcpAddr, udpAddr, queue, network.NewMetrics())
	if err != nil {
		logging.Error("❌ Ошибка запуска сетевого сервера: %v", err)
		log.Fatalf("❌ Ошибка запуска сетевого сервера: %v", err)
	}
	if cfg.Game.SessionIdleTimeout > 0 {
		netServer.SetIdleTimeout(time.Duration(cfg.Game.SessionIdleTimeout) * time.Second)
	}

	// === УРОВНИ ===
	levelsDir := cfg.Game.LevelsDir
	if levelsDir == "" {
		levelsDir = "assets/levels"
	}
	levels := game.LoadLevels(levelsDir)

	// === ИГРОВОЕ ЯДРО ===
	manager := game.NewManager(game.ManagerConfig{
		Sender:  netServer,
		Net:     netServer,
		Queue:   queue,
		Authn:   authn,
		Scores:  scores,
		Bus:     bus,
		Levels:  levels,
		Metrics: game.NewMetrics(),
		Seed:    time.Now().UnixNano(),
	})

	// === REST API ===
	restServer := api.NewRestServer(api.Config{
		Port:   restAddr,
		Authn:  authn,
		Scores: scores,
		Game:   manager,
	})
	if err := restServer.Start(); err != nil {
		logging.Error("❌ Ошибка запуска REST API: %v", err)
		log.Fatalf("❌ Ошибка запуска REST API: %v", err)
	}

	netServer.Start()
	manager.Start()

	logging.Info("✅ Сервер запущен и готов принимать соединения")
	logging.Info("   🎮 Игровой трафик: TCP %s, UDP %s", tcpAddr, udpAddr)
	logging.Info("   🌐 REST API: http://localhost%s", restAddr)
	logging.Info("   ❤️  Health check: http://localhost%s/health", restAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logging.Info("📡 Получен сигнал %v, завершение работы...", sig)

	// === GRACEFUL SHUTDOWN ===
	manager.Stop()
	netServer.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := restServer.Stop(ctx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}

	logging.Info("👋 Сервер успешно остановлен")
}
