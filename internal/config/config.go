// Package config загружает настройки агента, сервера и симулятора часов
// из YAML файла с переопределением через переменные окружения HEALTHSYNC_*.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix префикс переменных окружения
const EnvPrefix = "HEALTHSYNC_"

// ErrInvalidConfig ошибка валидации настроек
var ErrInvalidConfig = errors.New("invalid config")

// SyncConfig настройки синхронизации с общим документом
type SyncConfig struct {
	// Tolerance допустимый откат шагов за тот же день
	Tolerance     uint64        `yaml:"tolerance"`
	ReconnectBase time.Duration `yaml:"reconnect_base"`
	ReconnectMax  time.Duration `yaml:"reconnect_max"`
}

// PairingConfig настройки протокола сопряжения
type PairingConfig struct {
	SendTimeout time.Duration `yaml:"send_timeout"`
	Backoff     time.Duration `yaml:"backoff"`
	SessionTTL  time.Duration `yaml:"session_ttl"`
	Retries     uint64        `yaml:"retries"`
}

// Agent настройки агента на телефоне
type Agent struct {
	ServerURL string `yaml:"server_url"`
	// ListenAddr адрес для подключения часов (/wear) и /metrics
	ListenAddr      string        `yaml:"listen_addr"`
	DBPath          string        `yaml:"db_path"`
	StepCounterPath string        `yaml:"step_counter_path"`
	LogLevel        string        `yaml:"log_level"`
	Pairing         PairingConfig `yaml:"pairing"`
	Sync            SyncConfig    `yaml:"sync"`
	// PresenceInterval период опроса подключённых часов
	PresenceInterval time.Duration `yaml:"presence_interval"`
}

// Server настройки сервера live_data
type Server struct {
	Addr     string `yaml:"addr"`
	DBPath   string `yaml:"db_path"`
	LogLevel string `yaml:"log_level"`
	// WriteRate записей в WriteWindow на пользователя
	WriteWindow time.Duration `yaml:"write_window"`
	WriteRate   int           `yaml:"write_rate"`
	// RequestRate запросов в минуту с одного IP
	RequestRate int `yaml:"request_rate"`
}

// Companion настройки симулятора часов
type Companion struct {
	AgentURL    string `yaml:"agent_url"`
	NodeID      string `yaml:"node_id"`
	DisplayName string `yaml:"display_name"`
	DBPath      string `yaml:"db_path"`
	LogLevel    string `yaml:"log_level"`
	// Interval период отправки health-data во время сессии
	Interval time.Duration `yaml:"interval"`
	// StepsPerTick прирост шагов за один период
	StepsPerTick uint64 `yaml:"steps_per_tick"`
}

// DefaultAgent настройки агента по умолчанию
func DefaultAgent() Agent {
	return Agent{
		ServerURL:       "http://localhost:8080",
		ListenAddr:      "127.0.0.1:8090",
		DBPath:          "healthsync-agent.db",
		StepCounterPath: "step_counter",
		LogLevel:        "info",
		Pairing: PairingConfig{
			SendTimeout: 5 * time.Second,
			Backoff:     200 * time.Millisecond,
			SessionTTL:  2 * time.Minute,
			Retries:     3,
		},
		Sync: SyncConfig{
			Tolerance:     0,
			ReconnectBase: time.Second,
			ReconnectMax:  30 * time.Second,
		},
		PresenceInterval: 30 * time.Second,
	}
}

// DefaultServer настройки сервера по умолчанию
func DefaultServer() Server {
	return Server{
		Addr:        ":8080",
		DBPath:      "healthsync.db",
		LogLevel:    "info",
		WriteRate:   120,
		WriteWindow: time.Minute,
		RequestRate: 600,
	}
}

// DefaultCompanion настройки симулятора по умолчанию
func DefaultCompanion() Companion {
	return Companion{
		AgentURL:     "http://127.0.0.1:8090",
		DisplayName:  "Simulated Watch",
		DBPath:       "healthsync-companion.db",
		LogLevel:     "info",
		Interval:     5 * time.Second,
		StepsPerTick: 12,
	}
}

// LoadAgent читает настройки агента. Пустой path означает только
// значения по умолчанию и переменные окружения.
func LoadAgent(path string) (Agent, error) {
	cfg := DefaultAgent()
	if err := loadFile(path, &cfg); err != nil {
		return Agent{}, err
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Agent{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Agent{}, err
	}
	return cfg, nil
}

// LoadServer читает настройки сервера
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()
	if err := loadFile(path, &cfg); err != nil {
		return Server{}, err
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Server{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// LoadCompanion читает настройки симулятора
func LoadCompanion(path string) (Companion, error) {
	cfg := DefaultCompanion()
	if err := loadFile(path, &cfg); err != nil {
		return Companion{}, err
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Companion{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Companion{}, err
	}
	return cfg, nil
}

func loadFile(path string, out any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	// Поля, отсутствующие в файле, сохраняют значения по умолчанию
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate проверяет настройки агента
func (c Agent) Validate() error {
	var errs []error
	if c.ServerURL == "" {
		errs = append(errs, errors.New("server_url is required"))
	}
	if c.ListenAddr == "" {
		errs = append(errs, errors.New("listen_addr is required"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path is required"))
	}
	if c.Pairing.SendTimeout <= 0 {
		errs = append(errs, errors.New("pairing.send_timeout must be positive"))
	}
	if c.Pairing.Backoff <= 0 {
		errs = append(errs, errors.New("pairing.backoff must be positive"))
	}
	if c.Pairing.SessionTTL <= 0 {
		errs = append(errs, errors.New("pairing.session_ttl must be positive"))
	}
	if c.Sync.ReconnectBase <= 0 || c.Sync.ReconnectMax < c.Sync.ReconnectBase {
		errs = append(errs, errors.New("sync.reconnect_max must not be less than positive sync.reconnect_base"))
	}
	if c.PresenceInterval <= 0 {
		errs = append(errs, errors.New("presence_interval must be positive"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return joinInvalid(errs)
}

// Validate проверяет настройки сервера
func (c Server) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path is required"))
	}
	if c.WriteRate <= 0 || c.WriteWindow <= 0 {
		errs = append(errs, errors.New("write_rate and write_window must be positive"))
	}
	if c.RequestRate <= 0 {
		errs = append(errs, errors.New("request_rate must be positive"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return joinInvalid(errs)
}

// Validate проверяет настройки симулятора
func (c Companion) Validate() error {
	var errs []error
	if c.AgentURL == "" {
		errs = append(errs, errors.New("agent_url is required"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path is required"))
	}
	if c.Interval <= 0 {
		errs = append(errs, errors.New("interval must be positive"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return joinInvalid(errs)
}

func joinInvalid(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

type lookupFunc func(key string) (string, bool)

func (c *Agent) applyEnv(lookup lookupFunc) error {
	setString(lookup, "SERVER_URL", &c.ServerURL)
	setString(lookup, "LISTEN_ADDR", &c.ListenAddr)
	setString(lookup, "DB_PATH", &c.DBPath)
	setString(lookup, "STEP_COUNTER_PATH", &c.StepCounterPath)
	setString(lookup, "LOG_LEVEL", &c.LogLevel)
	return errors.Join(
		setUint(lookup, "TOLERANCE", &c.Sync.Tolerance),
		setUint(lookup, "PAIR_RETRIES", &c.Pairing.Retries),
		setDuration(lookup, "SEND_TIMEOUT", &c.Pairing.SendTimeout),
		setDuration(lookup, "PRESENCE_INTERVAL", &c.PresenceInterval),
	)
}

func (c *Server) applyEnv(lookup lookupFunc) error {
	setString(lookup, "ADDR", &c.Addr)
	setString(lookup, "DB_PATH", &c.DBPath)
	setString(lookup, "LOG_LEVEL", &c.LogLevel)
	return nil
}

func (c *Companion) applyEnv(lookup lookupFunc) error {
	setString(lookup, "AGENT_URL", &c.AgentURL)
	setString(lookup, "NODE_ID", &c.NodeID)
	setString(lookup, "DB_PATH", &c.DBPath)
	setString(lookup, "LOG_LEVEL", &c.LogLevel)
	return setDuration(lookup, "INTERVAL", &c.Interval)
}

func setString(lookup lookupFunc, key string, dst *string) {
	if v, ok := lookup(EnvPrefix + key); ok && v != "" {
		*dst = v
	}
}

func setUint(lookup lookupFunc, key string, dst *uint64) error {
	v, ok := lookup(EnvPrefix + key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %s%s: %w", ErrInvalidConfig, EnvPrefix, key, err)
	}
	*dst = n
	return nil
}

func setDuration(lookup lookupFunc, key string, dst *time.Duration) error {
	v, ok := lookup(EnvPrefix + key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%w: %s%s: %w", ErrInvalidConfig, EnvPrefix, key, err)
	}
	*dst = d
	return nil
}

// ParseLevel разбирает уровень логирования: debug, info, warn, error
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("unknown log_level %q", s)
	}
	return level, nil
}

// NewLogger создает текстовый slog логгер с уровнем level.
// Неизвестный уровень трактуется как info.
func NewLogger(w io.Writer, level string) *slog.Logger {
	lvl, err := ParseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
