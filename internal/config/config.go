package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации сервера.

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Game     GameConfig     `yaml:"game"`
	Auth     AuthConfig     `yaml:"auth"`
	EventBus EventBusConfig `yaml:"eventbus"`
	Scores   ScoresConfig   `yaml:"scores"`
}

type ServerConfig struct {
	TCPPort  int `yaml:"tcp_port"`
	UDPPort  int `yaml:"udp_port"`
	RESTPort int `yaml:"rest_port"`
}

type GameConfig struct {
	// Каталог с файлами уровней (JSON)
	LevelsDir string `yaml:"levels_dir"`
	// Таймаут неактивной сессии в секундах; 0 — отключено
	SessionIdleTimeout int `yaml:"session_idle_timeout"`
}

// AuthConfig выбирает бэкенд хранилища пользователей.
// Backend: memory | file | maria | mongo.
type AuthConfig struct {
	Backend  string `yaml:"backend"`
	FilePath string `yaml:"file_path"` // для backend=file
	Maria    struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Database string `yaml:"database"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"maria"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
}

type EventBusConfig struct {
	// URL пустой — in-memory шина; иначе NATS JetStream
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

// ScoresConfig выбирает бэкенд таблицы рекордов.
// Backend: memory | redis.
type ScoresConfig struct {
	Backend   string `yaml:"backend"`
	RedisAddr string `yaml:"redis_addr"`
	RedisDB   int    `yaml:"redis_db"`
}

// GetTCPPort возвращает TCP порт с поддержкой fallback значений
func (s *ServerConfig) GetTCPPort() int {
	return getPortWithEnvFallback(s.TCPPort, "AIRTRAP_TCP_PORT", 7777)
}

// GetUDPPort возвращает UDP порт с поддержкой fallback значений
func (s *ServerConfig) GetUDPPort() int {
	return getPortWithEnvFallback(s.UDPPort, "AIRTRAP_UDP_PORT", 7778)
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "AIRTRAP_REST_PORT", 8080)
}

// GetNATSURL возвращает URL шины событий с учётом ENV
func (e *EventBusConfig) GetNATSURL() string {
	if e.URL != "" {
		return e.URL
	}
	return os.Getenv("AIRTRAP_NATS_URL")
}

// GetRedisAddr возвращает адрес Redis с учётом ENV
func (s *ScoresConfig) GetRedisAddr() string {
	if s.RedisAddr != "" {
		return s.RedisAddr
	}
	if addr := os.Getenv("AIRTRAP_REDIS_ADDR"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV AIRTRAP_CONFIG или возвращает nil, nil.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("AIRTRAP_CONFIG")
		if path == "" {
			return nil, nil // конфиг не задан — использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
