package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/Paul-frank/todo-app/internal/database"
)

type HTTPConfig struct {
	Addr            string        `yaml:"addr" toml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout" toml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" toml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
	CSRF            bool          `yaml:"csrf" toml:"csrf"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver" toml:"driver"` // "sqlite3", "postgres" oder "pgx"
	RawDSN   string `yaml:"dsn" toml:"dsn"`       // hat Vorrang vor den Einzelwerten
	Path     string `yaml:"path" toml:"path"`     // Datei für sqlite3
	Host     string `yaml:"host" toml:"host"`
	Port     string `yaml:"port" toml:"port"`
	User     string `yaml:"user" toml:"user"`
	Password string `yaml:"password" toml:"password"`
	Name     string `yaml:"name" toml:"name"`
	SSLMode  string `yaml:"sslmode" toml:"sslmode"`

	MaxOpenConns    int           `yaml:"max_open_conns" toml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" toml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" toml:"conn_max_idle_time"`
}

type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

type TracingConfig struct {
	Exporter    string `yaml:"exporter" toml:"exporter"` // "none" oder "stdout"
	ServiceName string `yaml:"service_name" toml:"service_name"`
}

type Config struct {
	HTTP    HTTPConfig     `yaml:"http" toml:"http"`
	DB      DatabaseConfig `yaml:"database" toml:"database"`
	Log     LogConfig      `yaml:"log" toml:"log"`
	Tracing TracingConfig  `yaml:"tracing" toml:"tracing"`
}

// Default liefert eine lauffähige Konfiguration mit lokaler SQLite-Datei
func Default() *Config {
	pool := database.DefaultPoolConfig()
	return &Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CSRF:            true,
		},
		DB: DatabaseConfig{
			Driver:          database.DriverSQLite,
			Path:            "todo_app.db",
			Host:            "localhost",
			Port:            "5432",
			User:            "todo_user",
			Password:        "todo_pass",
			Name:            "todo_db",
			SSLMode:         "disable",
			MaxOpenConns:    pool.MaxOpenConns,
			MaxIdleConns:    pool.MaxIdleConns,
			ConnMaxLifetime: pool.ConnMaxLifetime,
			ConnMaxIdleTime: pool.ConnMaxIdleTime,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Exporter:    "none",
			ServiceName: "todo-app",
		},
	}
}

// Load: Standardwerte, dann optional die Datei (.yaml/.yml/.toml), dann Umgebungsvariablen
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse yaml config %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("parse toml config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file extension %q", filepath.Ext(path))
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.HTTP.Addr, "HTTP_ADDR")
	setString(&cfg.DB.Driver, "DB_DRIVER")
	setString(&cfg.DB.RawDSN, "DB_DSN")
	setString(&cfg.DB.Path, "DB_PATH")
	setString(&cfg.DB.Host, "DB_HOST")
	setString(&cfg.DB.Port, "DB_PORT")
	setString(&cfg.DB.User, "DB_USER")
	setString(&cfg.DB.Password, "DB_PASSWORD")
	setString(&cfg.DB.Name, "DB_NAME")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
	setString(&cfg.Tracing.Exporter, "TRACING_EXPORTER")

	if v := os.Getenv("CSRF_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CSRF_ENABLED: %w", err)
		}
		cfg.HTTP.CSRF = b
	}
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.HTTP.ShutdownTimeout = d
	}
	return nil
}

func setString(target *string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}

func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http addr must not be empty")
	}
	if !database.SupportedDriver(c.DB.Driver) {
		return fmt.Errorf("unsupported database driver %q", c.DB.Driver)
	}
	if c.DB.Driver == database.DriverSQLite && c.DB.RawDSN == "" && c.DB.Path == "" {
		return fmt.Errorf("database path must be set for sqlite3")
	}
	if c.DB.MaxOpenConns <= 0 || c.DB.MaxIdleConns < 0 || c.DB.MaxIdleConns > c.DB.MaxOpenConns {
		return fmt.Errorf("invalid pool size: max_open_conns=%d max_idle_conns=%d", c.DB.MaxOpenConns, c.DB.MaxIdleConns)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unsupported log format %q", c.Log.Format)
	}
	switch c.Tracing.Exporter {
	case "none", "stdout":
	default:
		return fmt.Errorf("unsupported tracing exporter %q", c.Tracing.Exporter)
	}
	if c.HTTP.ShutdownTimeout < 0 {
		return fmt.Errorf("shutdown timeout must not be negative")
	}
	return nil
}

// DSN baut den Verbindungsstring für den gewählten Treiber
func (db *DatabaseConfig) DSN() string {
	if db.RawDSN != "" {
		return db.RawDSN
	}
	switch db.Driver {
	case database.DriverSQLite:
		return db.Path
	case database.DriverPostgres, database.DriverPgx:
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			dsnValue(db.Host), dsnValue(db.Port), dsnValue(db.User),
			dsnValue(db.Password), dsnValue(db.Name), dsnValue(db.SSLMode))
	default:
		return ""
	}
}

func (db *DatabaseConfig) Pool() database.PoolConfig {
	return database.PoolConfig{
		MaxOpenConns:    db.MaxOpenConns,
		MaxIdleConns:    db.MaxIdleConns,
		ConnMaxLifetime: db.ConnMaxLifetime,
		ConnMaxIdleTime: db.ConnMaxIdleTime,
	}
}

// dsnValue setzt Werte mit Leerzeichen, Anführungszeichen oder Backslash in '...' (libpq key=value)
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " \t\n\r'\\") {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
