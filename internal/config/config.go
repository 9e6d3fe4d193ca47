package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

type LogConfig struct {
	Level      string `json:"level" yaml:"level"`
	File       string `json:"file" yaml:"file"`
	MaxSize    int    `json:"max_size" yaml:"max_size"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
	MaxAge     int    `json:"max_age" yaml:"max_age"`
}

func (c *LogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.By(func(value any) error {
			_, err := logrus.ParseLevel(value.(string))
			return err
		})),
		validation.Field(&c.MaxSize, validation.Min(0)),
		validation.Field(&c.MaxBackups, validation.Min(0)),
		validation.Field(&c.MaxAge, validation.Min(0)),
	)
}

type SQLiteConfig struct {
	Path string `json:"path" yaml:"path"`
}

func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// PostgresConfig is optional. When present, high scores are kept in
// Postgres instead of sqlite.
type PostgresConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     uint   `json:"port" yaml:"port"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
	DbName   string `json:"db_name" yaml:"db_name"`
	SSLMode  string `json:"ssl_mode" yaml:"ssl_mode"`
}

func (c *PostgresConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Host, validation.Required),
		validation.Field(&c.Port, validation.Required, validation.Max(uint(65535))),
		validation.Field(&c.User, validation.Required),
		validation.Field(&c.DbName, validation.Required),
		validation.Field(&c.SSLMode, validation.In("disable", "allow", "prefer", "require", "verify-ca", "verify-full")),
	)
}

// DbUrl is usable both by pgx and by golang-migrate.
func (c PostgresConfig) DbUrl() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.DbName,
		sslMode,
	)
}

// GameConfig holds the defaults applied to every new minefield.
type GameConfig struct {
	EasyStart      bool `json:"easy_start" yaml:"easy_start"`
	SmartUncover   bool `json:"smart_uncover" yaml:"smart_uncover"`
	SmartMark      bool `json:"smart_mark" yaml:"smart_mark"`
	QuestionMarks  bool `json:"question_marks" yaml:"question_marks"`
	RevealAllMines bool `json:"reveal_all_mines" yaml:"reveal_all_mines"`
	CustomGames    int  `json:"custom_games" yaml:"custom_games"`
	HighScores     int  `json:"high_scores" yaml:"high_scores"`
}

func (c *GameConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CustomGames, validation.Required, validation.Min(1)),
		validation.Field(&c.HighScores, validation.Required, validation.Min(1)),
	)
}

// SessionConfig controls the tokens handed to players. Without a secret a
// random one is generated at startup, so tokens do not survive a restart.
type SessionConfig struct {
	Secret      string   `json:"secret" yaml:"secret"`
	Lifetime    Duration `json:"lifetime" yaml:"lifetime"`
	IdleTimeout Duration `json:"idle_timeout" yaml:"idle_timeout"`
	MaxSessions int      `json:"max_sessions" yaml:"max_sessions"`
}

func positive(value any) error {
	if d := value.(Duration); d.Duration <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func (c *SessionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Secret, validation.Length(16, 0)),
		validation.Field(&c.Lifetime, validation.By(positive)),
		validation.Field(&c.IdleTimeout, validation.By(positive)),
		validation.Field(&c.MaxSessions, validation.Required, validation.Min(1)),
	)
}

type Config struct {
	Mode     string          `json:"mode" yaml:"mode"`
	Addr     string          `json:"addr" yaml:"addr"`
	Origins  []string        `json:"allowed_origins" yaml:"allowed_origins"`
	Log      LogConfig       `json:"log" yaml:"log"`
	SQLite   SQLiteConfig    `json:"sqlite" yaml:"sqlite"`
	Postgres *PostgresConfig `json:"postgres" yaml:"postgres"`
	Game     GameConfig      `json:"game" yaml:"game"`
	Session  SessionConfig   `json:"session" yaml:"session"`
}

func Default() *Config {
	return &Config{
		Mode: ModeDevelopment,
		Addr: "localhost:8000",
		Log: LogConfig{
			Level:      logrus.InfoLevel.String(),
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     28,
		},
		SQLite: SQLiteConfig{Path: "smartmines.db"},
		Game: GameConfig{
			EasyStart:     true,
			SmartUncover:  true,
			QuestionMarks: true,
			CustomGames:   5,
			HighScores:    10,
		},
		Session: SessionConfig{
			Lifetime:    Duration{24 * time.Hour},
			IdleTimeout: Duration{time.Hour},
			MaxSessions: 1000,
		},
	}
}

func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(ModeDevelopment, ModeProduction)),
		validation.Field(&c.Addr, validation.Required),
	)
	if err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := c.SQLite.Validate(); err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	if err := c.Game.Validate(); err != nil {
		return fmt.Errorf("game: %w", err)
	}
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if c.Production() && c.Session.Secret == "" {
		return fmt.Errorf("session: secret is required in %s mode", ModeProduction)
	}
	if c.Postgres != nil {
		if err := c.Postgres.Validate(); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	return nil
}

func (c Config) Production() bool {
	return c.Mode == ModeProduction
}

func (c Config) Development() bool {
	return c.Mode != ModeProduction
}

func (c Config) Fields() logrus.Fields {
	fields := logrus.Fields{
		"mode":                 c.Mode,
		"addr":                 c.Addr,
		"allowed_origins":      c.Origins,
		"log_level":            c.Log.Level,
		"log_file":             c.Log.File,
		"sqlite_path":          c.SQLite.Path,
		"easy_start":           c.Game.EasyStart,
		"smart_uncover":        c.Game.SmartUncover,
		"smart_mark":           c.Game.SmartMark,
		"question_marks":       c.Game.QuestionMarks,
		"reveal_all_mines":     c.Game.RevealAllMines,
		"custom_games":         c.Game.CustomGames,
		"high_scores":          c.Game.HighScores,
		"session_lifetime":     c.Session.Lifetime.String(),
		"session_idle_timeout": c.Session.IdleTimeout.String(),
		"max_sessions":         c.Session.MaxSessions,
	}
	if c.Postgres != nil {
		fields["pg_host"] = c.Postgres.Host
		fields["pg_port"] = c.Postgres.Port
		fields["pg_user"] = c.Postgres.User
		fields["pg_db_name"] = c.Postgres.DbName
	}
	return fields
}

// Read fills config from a JSON or YAML file, picked by extension. ${VAR}
// references in the file are expanded from the environment. Unset fields
// keep the values config already has.
func Read(path string, config *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read config %s: %w", path, err)
	}
	expanded := []byte(os.ExpandEnv(string(b)))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(expanded, config)
	default:
		err = json.Unmarshal(expanded, config)
	}
	if err != nil {
		return fmt.Errorf("unable to parse config %s: %w", path, err)
	}
	if config.Postgres != nil && config.Postgres.Password == "" {
		config.Postgres.Password, err = loadPassword()
		if err != nil {
			return err
		}
	}
	return nil
}

// loadPassword falls back to the environment for the Postgres password so
// it can stay out of the config file.
func loadPassword() (string, error) {
	password, ok := os.LookupEnv("POSTGRES_PASSWORD")
	if ok {
		return password, nil
	}
	passwordFile, ok := os.LookupEnv("POSTGRES_PASSWORD_FILE")
	if !ok {
		return "", nil
	}
	data, err := os.ReadFile(passwordFile)
	if err != nil {
		return "", fmt.Errorf("unable to read from password file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
