package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/airtrap-server/internal/auth"
	"github.com/annel0/airtrap-server/internal/middleware"
	"github.com/annel0/airtrap-server/internal/storage"
	"github.com/gin-gonic/gin"
)

// RoomInfo снимок состояния комнаты для REST выдачи.
type RoomInfo struct {
	ID         uint32 `json:"id"`
	Name       string `json:"name"`
	State      string `json:"state"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"max_players"`
	LevelID    uint32 `json:"level_id"`
}

// GameProvider отдаёт REST серверу данные игрового ядра.
// Реализуется игровым менеджером; nil допустим (эндпоинты комнат вернут пустые данные).
type GameProvider interface {
	RoomInfos() []RoomInfo
	KickPlayer(playerID uint32, reason string, ban bool) bool
	MutePlayer(playerID uint32, muted bool) bool
}

// RestServer представляет REST API сервер
type RestServer struct {
	router     *gin.Engine
	httpServer *http.Server
	authn      *auth.Authenticator
	scores     storage.ScoreRepo
	game       GameProvider
	port       string
	metrics    *ServerMetrics
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port   string              // порт для запуска сервера, например ":8080"
	Authn  *auth.Authenticator // аутентификация пользователей
	Scores storage.ScoreRepo   // таблица рекордов (может быть nil)
	Game   GameProvider        // игровое ядро (может быть nil)
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8080"
	}

	// Устанавливаем режим релиза для gin
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	loggerMw := middleware.NewRequestLogger()
	router.Use(loggerMw.Handler())

	promMw := middleware.NewPrometheusMiddleware("rest_api")
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	server := &RestServer{
		router:  router,
		authn:   config.Authn,
		scores:  config.Scores,
		game:    config.Game,
		port:    config.Port,
		metrics: NewServerMetrics(),
	}

	server.setupRoutes()

	return server
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	// Middleware для CORS
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	api := rs.router.Group("/api")

	// Аутентификация (без JWT защиты)
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", rs.handleLogin)
		authGroup.POST("/register", rs.handleRegister)
	}

	// Таблица рекордов доступна без токена
	api.GET("/scores", rs.handleScores)

	// Защищенные эндпоинты (требуют JWT)
	protected := api.Group("/")
	protected.Use(rs.jwtMiddleware())
	{
		protected.GET("/rooms", rs.handleRooms)
		protected.GET("/stats", rs.handleStats)
		protected.GET("/server", rs.handleServerInfo)

		// Административные эндпоинты (только для админов)
		admin := protected.Group("/admin")
		admin.Use(rs.adminMiddleware())
		{
			admin.POST("/register", rs.handleAdminRegister)
			admin.POST("/kick", rs.handleKickPlayer)
			admin.POST("/mute", rs.handleMutePlayer)
		}
	}

	// Health check
	rs.router.GET("/health", rs.handleHealth)
}

// LoginRequest представляет запрос на вход
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse представляет ответ на вход
type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
	UserID  uint64 `json:"user_id,omitempty"`
	IsAdmin bool   `json:"is_admin,omitempty"`
}

// RegisterRequest представляет запрос на регистрацию
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	IsAdmin  bool   `json:"is_admin"`
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// handleLogin обрабатывает запрос на вход
func (rs *RestServer) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, LoginResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	user, err := rs.authn.Login(req.Username, req.Password)
	if errors.Is(err, auth.ErrBadCredentials) {
		c.JSON(http.StatusUnauthorized, LoginResponse{
			Success: false,
			Message: "Неверное имя пользователя или пароль",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, LoginResponse{
			Success: false,
			Message: "Внутренняя ошибка сервера",
		})
		return
	}

	token, err := auth.GenerateJWT(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, LoginResponse{
			Success: false,
			Message: "Ошибка генерации токена",
		})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Success: true,
		Token:   token,
		Message: "Успешная авторизация",
		UserID:  user.ID,
		IsAdmin: user.IsAdmin,
	})
}

// handleRegister обрабатывает самостоятельную регистрацию игрока
func (rs *RestServer) handleRegister(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	user, err := rs.authn.Register(req.Username, req.Password)
	if errors.Is(err, auth.ErrUserExists) {
		c.JSON(http.StatusConflict, GenericResponse{
			Success: false,
			Message: "Пользователь уже существует",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, GenericResponse{
		Success: true,
		Message: "Пользователь успешно создан",
		Data: map[string]interface{}{
			"user_id":  user.ID,
			"username": user.Username,
		},
	})
}

// handleAdminRegister обрабатывает регистрацию нового пользователя (только для админов)
func (rs *RestServer) handleAdminRegister(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	if len(req.Username) < 3 || len(req.Username) > 30 {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Имя пользователя должно быть от 3 до 30 символов",
		})
		return
	}

	if len(req.Password) < 6 {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Пароль должен быть минимум 6 символов",
		})
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Ошибка обработки пароля",
		})
		return
	}

	user, err := rs.authn.Repo().CreateUser(req.Username, passwordHash, req.IsAdmin)
	if errors.Is(err, auth.ErrUserExists) {
		c.JSON(http.StatusConflict, GenericResponse{
			Success: false,
			Message: "Пользователь уже существует",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Ошибка создания пользователя",
		})
		return
	}

	c.JSON(http.StatusCreated, GenericResponse{
		Success: true,
		Message: "Пользователь успешно создан",
		Data: map[string]interface{}{
			"user_id":  user.ID,
			"username": user.Username,
			"is_admin": user.IsAdmin,
		},
	})
}

// handleRooms возвращает список комнат
func (rs *RestServer) handleRooms(c *gin.Context) {
	rooms := []RoomInfo{}
	if rs.game != nil {
		rooms = rs.game.RoomInfos()
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Список комнат",
		Data: map[string]interface{}{
			"rooms": rooms,
			"total": len(rooms),
		},
	})
}

// handleScores возвращает таблицу рекордов
func (rs *RestServer) handleScores(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 100 {
		limit = 10
	}

	if rs.scores == nil {
		c.JSON(http.StatusOK, GenericResponse{
			Success: true,
			Message: "Таблица рекордов",
			Data:    map[string]interface{}{"scores": []storage.ScoreEntry{}},
		})
		return
	}

	top, err := rs.scores.Top(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Ошибка чтения таблицы рекордов",
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Таблица рекордов",
		Data: map[string]interface{}{
			"scores": top,
			"total":  len(top),
		},
	})
}

// KickRequest запрос на отключение игрока
type KickRequest struct {
	PlayerID uint32 `json:"player_id" binding:"required"`
	Reason   string `json:"reason"`
	Ban      bool   `json:"ban"`
}

// handleKickPlayer отключает игрока от сервера (только для админов)
func (rs *RestServer) handleKickPlayer(c *gin.Context) {
	var req KickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	if rs.game == nil || !rs.game.KickPlayer(req.PlayerID, req.Reason, req.Ban) {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "Игрок не найден",
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Игрок отключен",
	})
}

// MuteRequest запрос на блокировку чата игрока
type MuteRequest struct {
	PlayerID uint32 `json:"player_id" binding:"required"`
	Muted    *bool  `json:"muted" binding:"required"`
}

// handleMutePlayer включает или снимает мут игрока (только для админов)
func (rs *RestServer) handleMutePlayer(c *gin.Context) {
	var req MuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	if rs.game == nil || !rs.game.MutePlayer(req.PlayerID, *req.Muted) {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "Игрок не найден",
		})
		return
	}

	msg := "Чат игрока заблокирован"
	if !*req.Muted {
		msg = "Чат игрока разблокирован"
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: msg,
	})
}

// handleStats возвращает статистику сервера
func (rs *RestServer) handleStats(c *gin.Context) {
	stats := make(map[string]interface{})

	if rs.game != nil {
		rooms := rs.game.RoomInfos()
		players := 0
		inGame := 0
		for _, r := range rooms {
			players += r.Players
			if r.State == "in_game" {
				inGame++
			}
		}
		stats["rooms"] = map[string]interface{}{
			"total":   len(rooms),
			"in_game": inGame,
			"players": players,
		}
	}

	cpuPercent, _ := rs.metrics.ProcessCPU()
	systemCPU, _ := rs.metrics.SystemCPU()

	stats["server"] = map[string]interface{}{
		"uptime":      rs.metrics.Uptime(),
		"memory_mb":   fmt.Sprintf("%.2f", rs.metrics.MemoryMB()),
		"cpu_percent": fmt.Sprintf("%.2f", cpuPercent),
		"system_cpu":  fmt.Sprintf("%.2f", systemCPU),
		"server_time": time.Now().Unix(),
	}

	stats["memory_details"] = rs.metrics.MemoryDetails()

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    stats,
	})
}

// handleServerInfo возвращает информацию о сервере
func (rs *RestServer) handleServerInfo(c *gin.Context) {
	cpuPercent, _ := rs.metrics.ProcessCPU()

	info := map[string]interface{}{
		"version":     "v0.1.0",
		"name":        "AirTrap Server",
		"status":      "running",
		"uptime":      rs.metrics.Uptime(),
		"memory_mb":   fmt.Sprintf("%.1f", rs.metrics.MemoryMB()),
		"cpu_percent": fmt.Sprintf("%.1f", cpuPercent),
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Информация о сервере",
		Data:    info,
	})
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// Start запускает REST сервер (блокирующий вызов)
func (rs *RestServer) Start() error {
	rs.httpServer = &http.Server{
		Addr:    rs.port,
		Handler: rs.router,
	}
	err := rs.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop останавливает REST сервер с graceful shutdown
func (rs *RestServer) Stop(ctx context.Context) error {
	if rs.httpServer == nil {
		return nil
	}
	return rs.httpServer.Shutdown(ctx)
}
