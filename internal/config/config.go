package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config enthält alle Konfigurationseinstellungen
type Config struct {
	// Server-Einstellungen
	ServerPort  string   `json:"server_port"`
	CORSOrigins []string `json:"cors_origins"`

	// Pfade
	DatabasePath string `json:"database_path"`

	// Speichern
	AutosaveDelay Duration `json:"autosave_delay"`

	// Kalender
	Timezone string `json:"timezone"`

	// Beispieldaten für eine leere Datenbank
	SeedSampleData bool `json:"seed_sample_data"`

	Log LogConfig `json:"log"`
}

// LogConfig beschreibt Level, Format und Ziel der Logausgabe
type LogConfig struct {
	Level      string `json:"level"`
	Format     string `json:"format"`
	Output     string `json:"output"`
	FilePath   string `json:"file_path"`
	MaxSize    int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAge     int    `json:"max_age_days"`
}

// Duration wird in JSON als "2s", "500ms" usw. geschrieben
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("dauer als text erwartet: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Default gibt die Standardkonfiguration zurück
func Default() *Config {
	return &Config{
		ServerPort:     "8080",
		CORSOrigins:    []string{"*"},
		DatabasePath:   "studienplaner.db",
		AutosaveDelay:  Duration(2 * time.Second),
		Timezone:       "Europe/Berlin",
		SeedSampleData: true,
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			Output:     "stdout",
			FilePath:   "logs/studienplaner.log",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
		},
	}
}

// Load lädt die Konfiguration aus einer Datei. Eine fehlende Datei ergibt die
// Standardwerte; Umgebungsvariablen (auch aus .env) überschreiben beides.
func Load(path string) (*Config, error) {
	// .env ist optional
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("konfiguration lesen: %w", err)
		default:
			if err := json.Unmarshal(data, cfg); err != nil {
				return cfg, fmt.Errorf("konfiguration parsen: %w", err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Save speichert die Konfiguration in eine Datei
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate prüft die Konfiguration
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.ServerPort)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("ungültiger port %q", c.ServerPort)
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database_path fehlt")
	}
	if c.AutosaveDelay < 0 {
		return fmt.Errorf("autosave_delay darf nicht negativ sein")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("ungültige zeitzone %q: %w", c.Timezone, err)
	}
	switch c.Log.Output {
	case "stdout", "file", "both":
	default:
		return fmt.Errorf("ungültige logausgabe %q", c.Log.Output)
	}
	if c.Log.Output != "stdout" && c.Log.FilePath == "" {
		return fmt.Errorf("log file_path fehlt")
	}
	return nil
}

// Location lädt die konfigurierte Zeitzone; leer heißt lokale Zeit
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func (c *Config) applyEnv() {
	c.ServerPort = getEnv("STUDIENPLANER_PORT", c.ServerPort)
	c.DatabasePath = getEnv("STUDIENPLANER_DB", c.DatabasePath)
	c.AutosaveDelay = Duration(getEnvDuration("AUTOSAVE_DELAY", time.Duration(c.AutosaveDelay)))
	c.Timezone = getEnv("TIMEZONE", c.Timezone)
	c.SeedSampleData = getEnvBool("SEED_SAMPLE_DATA", c.SeedSampleData)
	if origins := getEnv("CORS_ORIGINS", ""); origins != "" {
		c.CORSOrigins = strings.Split(origins, ",")
	}

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	c.Log.Output = getEnv("LOG_OUTPUT", c.Log.Output)
	c.Log.FilePath = getEnv("LOG_FILE_PATH", c.Log.FilePath)
	c.Log.MaxSize = getEnvInt("LOG_MAX_SIZE", c.Log.MaxSize)
	c.Log.MaxBackups = getEnvInt("LOG_MAX_BACKUPS", c.Log.MaxBackups)
	c.Log.MaxAge = getEnvInt("LOG_MAX_AGE", c.Log.MaxAge)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
