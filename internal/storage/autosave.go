package storage

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"studienplaner/internal/store"
)

// Autosaver schreibt den Store nach Änderungen verzögert in den Storage.
// Folgen weitere Änderungen innerhalb von delay, wird nur einmal gespeichert.
type Autosaver struct {
	storage Storage
	source  *store.Store
	delay   time.Duration
	logger  *zap.Logger

	mu          sync.Mutex
	timer       *time.Timer
	unsubscribe func()
	stopped     bool

	saveMu sync.Mutex
}

// NewAutosaver erstellt einen neuen Autosaver
func NewAutosaver(storage Storage, source *store.Store, delay time.Duration, logger *zap.Logger) *Autosaver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Autosaver{
		storage: storage,
		source:  source,
		delay:   delay,
		logger:  logger,
	}
}

// Start abonniert Änderungen am Store
func (a *Autosaver) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.unsubscribe != nil || a.stopped {
		return
	}
	a.unsubscribe = a.source.Subscribe(a.onChange)
}

func (a *Autosaver) onChange(change store.Change) {
	if a.delay <= 0 {
		a.save(context.Background(), change)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, func() {
		a.save(context.Background(), change)
	})
}

// save läuft aus Listener oder Timer; nach Stop wird nichts mehr geschrieben
func (a *Autosaver) save(ctx context.Context, change store.Change) {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()
	if a.isStopped() {
		return
	}
	if err := a.flush(ctx); err != nil {
		a.logger.Error("Automatisches Speichern fehlgeschlagen",
			zap.String("entity", string(change.Entity)),
			zap.String("id", change.ID),
			zap.Error(err))
	}
}

// Flush speichert den aktuellen Stand sofort
func (a *Autosaver) Flush(ctx context.Context) error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()
	return a.flush(ctx)
}

// flush erwartet gehaltenes saveMu
func (a *Autosaver) flush(ctx context.Context) error {
	snap := a.source.Snapshot()
	if err := a.storage.SaveSnapshot(ctx, snap); err != nil {
		return err
	}
	a.logger.Debug("Datenstand gespeichert",
		zap.Int("subjects", len(snap.Subjects)),
		zap.Int("tasks", len(snap.Tasks)),
		zap.Int("sessions", len(snap.Sessions)))
	return nil
}

// Stop meldet sich ab, verwirft ausstehende Timer und speichert ein letztes Mal
func (a *Autosaver) Stop(ctx context.Context) error {
	a.mu.Lock()
	a.stopped = true
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()

	return a.Flush(ctx)
}

func (a *Autosaver) isStopped() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopped
}
