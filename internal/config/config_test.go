package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "standard", modify: func(*Config) {}},
		{name: "port kein zahlwert", modify: func(c *Config) { c.ServerPort = "http" }, wantErr: true},
		{name: "port zu groß", modify: func(c *Config) { c.ServerPort = "70000" }, wantErr: true},
		{name: "ohne datenbank", modify: func(c *Config) { c.DatabasePath = " " }, wantErr: true},
		{name: "negative verzögerung", modify: func(c *Config) { c.AutosaveDelay = Duration(-time.Second) }, wantErr: true},
		{name: "unbekannte zeitzone", modify: func(c *Config) { c.Timezone = "Mars/Olympus" }, wantErr: true},
		{name: "leere zeitzone", modify: func(c *Config) { c.Timezone = "" }},
		{name: "unbekannte logausgabe", modify: func(c *Config) { c.Log.Output = "syslog" }, wantErr: true},
		{name: "datei ohne pfad", modify: func(c *Config) { c.Log.Output = "file"; c.Log.FilePath = "" }, wantErr: true},
		{name: "beide ausgaben", modify: func(c *Config) { c.Log.Output = "both" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "fehlt.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(path, []byte(`{
		"server_port": "9090",
		"database_path": "daten.db",
		"autosave_delay": "500ms",
		"seed_sample_data": false,
		"log": {"level": "debug", "output": "stdout"}
	}`), 0644)
	require.NoError(t, err)

	t.Run("datei", func(t *testing.T) {
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "9090", cfg.ServerPort)
		assert.Equal(t, "daten.db", cfg.DatabasePath)
		assert.Equal(t, Duration(500*time.Millisecond), cfg.AutosaveDelay)
		assert.False(t, cfg.SeedSampleData)
		assert.Equal(t, "debug", cfg.Log.Level)
		// nicht gesetzte Felder behalten ihre Standardwerte
		assert.Equal(t, "Europe/Berlin", cfg.Timezone)
		assert.Equal(t, 100, cfg.Log.MaxSize)
	})

	t.Run("umgebung gewinnt", func(t *testing.T) {
		t.Setenv("STUDIENPLANER_PORT", "7070")
		t.Setenv("STUDIENPLANER_DB", "/tmp/x.db")
		t.Setenv("AUTOSAVE_DELAY", "5s")
		t.Setenv("SEED_SAMPLE_DATA", "true")
		t.Setenv("TIMEZONE", "UTC")
		t.Setenv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")
		t.Setenv("LOG_FORMAT", "json")
		t.Setenv("LOG_MAX_BACKUPS", "kaputt")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "7070", cfg.ServerPort)
		assert.Equal(t, "/tmp/x.db", cfg.DatabasePath)
		assert.Equal(t, Duration(5*time.Second), cfg.AutosaveDelay)
		assert.True(t, cfg.SeedSampleData)
		assert.Equal(t, "UTC", cfg.Timezone)
		assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.CORSOrigins)
		assert.Equal(t, "json", cfg.Log.Format)
		assert.Equal(t, 3, cfg.Log.MaxBackups)
	})

	t.Run("ungültige umgebung", func(t *testing.T) {
		t.Setenv("STUDIENPLANER_PORT", "0")
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestLoad_BrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"autosave_delay": 5}`), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Default()
	cfg.ServerPort = "8181"
	cfg.AutosaveDelay = Duration(1500 * time.Millisecond)
	cfg.CORSOrigins = []string{"http://localhost:3000"}
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"autosave_delay": "1.5s"`)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLocation(t *testing.T) {
	cfg := Default()
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}
