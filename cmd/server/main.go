package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"studienplaner/internal/api"
	"studienplaner/internal/calendar"
	"studienplaner/internal/config"
	"studienplaner/internal/logger"
	"studienplaner/internal/storage"
	"studienplaner/internal/store"
)

func main() {
	// Kommandozeilen-Flags
	configPath := flag.String("config", "config.json", "Pfad zur Konfigurationsdatei")
	port := flag.String("port", "", "Server-Port (überschreibt die Konfiguration)")
	flag.Parse()

	// Konfiguration laden
	cfg, err := loadConfig(*configPath, *port)
	if err != nil {
		log.Fatalf("Konfiguration ungültig: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Logger konnte nicht erstellt werden: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("Server beendet mit Fehler", zap.Error(err))
	}
}

// loadConfig lädt Datei und Umgebung; ein gesetzter Port-Flag hat Vorrang
func loadConfig(path, port string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if port != "" {
		cfg.ServerPort = port
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}
	return cfg, nil
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	zlog.Info("Studienplaner startet", zap.String("timezone", cfg.Timezone))

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	st := store.New(
		store.WithClock(calendar.SystemClock{Location: loc}),
		store.WithLogger(zlog.Named("store")),
	)

	// Datenbank
	db, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()
	zlog.Info("Datenbank geöffnet", zap.String("path", cfg.DatabasePath))

	saver := storage.NewAutosaver(db, st, time.Duration(cfg.AutosaveDelay), zlog.Named("autosave"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	snap, err := db.LoadSnapshot(ctx)
	cancel()
	if err != nil {
		return err
	}

	switch {
	case !snap.IsEmpty():
		if err := st.Restore(snap); err != nil {
			return err
		}
		zlog.Info("Daten geladen",
			zap.Int("subjects", len(snap.Subjects)),
			zap.Int("tasks", len(snap.Tasks)),
			zap.Int("sessions", len(snap.Sessions)))
	case cfg.SeedSampleData:
		if err := store.SeedSample(st); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := saver.Flush(ctx)
		cancel()
		if err != nil {
			return err
		}
		zlog.Info("Beispieldaten angelegt")
	}

	saver.Start()

	handler := api.NewHandler(st, saver, cfg, zlog.Named("api"))
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful Shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		zlog.Info("Server wird heruntergefahren")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			zlog.Warn("Shutdown fehlgeschlagen", zap.Error(err))
		}
		if err := saver.Stop(ctx); err != nil {
			zlog.Error("Letztes Speichern fehlgeschlagen", zap.Error(err))
		}
	}()

	zlog.Info("Server läuft", zap.String("addr", "http://localhost:"+cfg.ServerPort))

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}
