package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"studienplaner/internal/calendar"
	"studienplaner/internal/config"
	"studienplaner/internal/models"
	"studienplaner/internal/store"
)

const dateLayout = "2006-01-02"

// Saver speichert den aktuellen Stand auf Anfrage
type Saver interface {
	Flush(ctx context.Context) error
}

// Handler verwaltet alle API-Endpunkte
type Handler struct {
	store    *store.Store
	saver    Saver
	config   *config.Config
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler erstellt einen neuen API-Handler. saver darf nil sein.
func NewHandler(s *store.Store, saver Saver, cfg *config.Config, logger *zap.Logger) *Handler {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:  s,
		saver:  saver,
		config: cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Response-Helper
func jsonResponse(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResponse(w http.ResponseWriter, message string, status int) {
	jsonResponse(w, map[string]string{"error": message}, status)
}

// storeError übersetzt Store-Fehler in HTTP-Status
func (h *Handler) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		errorResponse(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, store.ErrInvalidEntity):
		errorResponse(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrUnknownReference):
		errorResponse(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, store.ErrDuplicateID):
		errorResponse(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("Unerwarteter Fehler", zap.Error(err))
		errorResponse(w, "Interner Fehler", http.StatusInternalServerError)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		errorResponse(w, "Ungültige Anfrage", http.StatusBadRequest)
		return false
	}
	return true
}

// parseDate liest YYYY-MM-DD in der Zeitzone der Store-Uhr
func (h *Handler) parseDate(value string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, value, h.store.Clock().Now().Location())
}

// === System Endpoints ===

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]interface{}{
		"status":    "ok",
		"timestamp": h.store.Clock().Now(),
	}, http.StatusOK)
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, h.store.Summary(), http.StatusOK)
}

// SaveSnapshot schreibt den Stand sofort in die Datenbank
func (h *Handler) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.saver == nil {
		errorResponse(w, "Keine Datenbank konfiguriert", http.StatusServiceUnavailable)
		return
	}
	if err := h.saver.Flush(r.Context()); err != nil {
		h.logger.Error("Speichern fehlgeschlagen", zap.Error(err))
		errorResponse(w, "Speichern fehlgeschlagen", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, map[string]string{"message": "Gespeichert"}, http.StatusOK)
}

// === Fächer ===

func (h *Handler) GetSubjects(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, h.store.Subjects(), http.StatusOK)
}

func (h *Handler) CreateSubject(w http.ResponseWriter, r *http.Request) {
	var subject models.Subject
	if !decodeBody(w, r, &subject) {
		return
	}

	created, err := h.store.AddSubject(subject)
	if err != nil {
		h.storeError(w, err)
		return
	}
	jsonResponse(w, created, http.StatusCreated)
}

func (h *Handler) GetSubjectTasks(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := h.store.Subject(id); err != nil {
		h.storeError(w, err)
		return
	}
	jsonResponse(w, h.store.TasksForSubject(id), http.StatusOK)
}

func (h *Handler) GetSubjectAverage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := h.store.Subject(id); err != nil {
		h.storeError(w, err)
		return
	}
	jsonResponse(w, map[string]interface{}{
		"subject_id": id,
		"average":    h.store.AverageGrade(id),
	}, http.StatusOK)
}

// === Aufgaben ===

// GetTasks unterstützt ?status=pending|in_progress|done und ?due=YYYY-MM-DD
func (h *Handler) GetTasks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var tasks []models.Task
	if due := query.Get("due"); due != "" {
		date, err := h.parseDate(due)
		if err != nil {
			errorResponse(w, "Ungültiges Datum, erwartet YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		tasks = h.store.TasksDueOn(date)
	} else {
		tasks = h.store.Tasks()
	}

	if raw := query.Get("status"); raw != "" {
		status := models.TaskStatus(raw)
		if !status.IsValid() {
			errorResponse(w, "Unbekannter Status", http.StatusBadRequest)
			return
		}
		filtered := []models.Task{}
		for _, task := range tasks {
			if task.Status == status {
				filtered = append(filtered, task)
			}
		}
		tasks = filtered
	}

	jsonResponse(w, tasks, http.StatusOK)
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var task models.Task
	if !decodeBody(w, r, &task) {
		return
	}

	created, err := h.store.AddTask(task)
	if err != nil {
		h.storeError(w, err)
		return
	}
	jsonResponse(w, created, http.StatusCreated)
}

func (h *Handler) GetPriorityTasks(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, h.store.PriorityTasks(), http.StatusOK)
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var task models.Task
	if !decodeBody(w, r, &task) {
		return
	}
	task.ID = mux.Vars(r)["id"]

	if err := h.store.UpdateTask(task); err != nil {
		h.storeError(w, err)
		return
	}
	updated, err := h.store.Task(task.ID)
	if err != nil {
		h.storeError(w, err)
		return
	}
	jsonResponse(w, updated, http.StatusOK)
}

func (h *Handler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.store.RecordTaskCompletion(id); err != nil {
		h.storeError(w, err)
		return
	}
	task, err := h.store.Task(id)
	if err != nil {
		h.storeError(w, err)
		return
	}
	jsonResponse(w, task, http.StatusOK)
}

// === Lerneinheiten ===

// GetSessions liefert alle Einheiten oder mit ?date=YYYY-MM-DD die eines Tages
func (h *Handler) GetSessions(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		jsonResponse(w, h.store.Sessions(), http.StatusOK)
		return
	}

	date, err := h.parseDate(raw)
	if err != nil {
		errorResponse(w, "Ungültiges Datum, erwartet YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	jsonResponse(w, h.store.SessionsOnDate(date), http.StatusOK)
}

// ScheduleSession legt eine Einheit an oder ersetzt die mit gleicher ID
func (h *Handler) ScheduleSession(w http.ResponseWriter, r *http.Request) {
	var session models.StudySession
	if !decodeBody(w, r, &session) {
		return
	}

	saved, err := h.store.ScheduleOrUpdateSession(session)
	if err != nil {
		h.storeError(w, err)
		return
	}
	jsonResponse(w, saved, http.StatusOK)
}

func (h *Handler) FinishSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ActualStart *time.Time `json:"actual_start"`
		ActualEnd   *time.Time `json:"actual_end"`
		Notes       string     `json:"notes"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ActualStart == nil || req.ActualEnd == nil {
		errorResponse(w, "actual_start und actual_end erforderlich", http.StatusBadRequest)
		return
	}

	session, err := h.store.FinishSession(mux.Vars(r)["id"], *req.ActualStart, *req.ActualEnd, req.Notes)
	if err != nil {
		h.storeError(w, err)
		return
	}
	jsonResponse(w, session, http.StatusOK)
}

func (h *Handler) GetSessionsByDay(w http.ResponseWriter, r *http.Request) {
	days := h.store.UpcomingSessionsByDay()
	if days == nil {
		days = []store.DaySessions{}
	}
	jsonResponse(w, days, http.StatusOK)
}

func (h *Handler) GetWeeklyHours(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]interface{}{
		"week":  calendar.ThisWeek(h.store.Clock()),
		"hours": h.store.WeeklyStudyHours(),
	}, http.StatusOK)
}

// === Noten ===

// GetGrades liefert alle Noten; ?limit=n die n neuesten
func (h *Handler) GetGrades(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("limit") == "" {
		jsonResponse(w, h.store.Grades(), http.StatusOK)
		return
	}
	jsonResponse(w, h.store.RecentGrades(getQueryInt(r, "limit", 0)), http.StatusOK)
}

func (h *Handler) CreateGrade(w http.ResponseWriter, r *http.Request) {
	grade := models.ExamGrade{MaxScore: models.DefaultMaxScore}
	if !decodeBody(w, r, &grade) {
		return
	}
	if grade.Date.IsZero() {
		grade.Date = h.store.Clock().Now()
	}

	created, err := h.store.AddGrade(grade)
	if err != nil {
		h.storeError(w, err)
		return
	}
	jsonResponse(w, created, http.StatusCreated)
}

func (h *Handler) GetGradeAverage(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]float64{"average": h.store.OverallAverageGrade()}, http.StatusOK)
}

// === Ziele ===

func (h *Handler) GetGoals(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, h.store.GoalsWithProgress(), http.StatusOK)
}

func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var goal models.Goal
	if !decodeBody(w, r, &goal) {
		return
	}

	created, err := h.store.AddGoal(goal)
	if err != nil {
		h.storeError(w, err)
		return
	}
	jsonResponse(w, store.GoalProgress{Goal: created, Progress: h.store.GoalProgress(created)}, http.StatusCreated)
}

func (h *Handler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	var goal models.Goal
	if !decodeBody(w, r, &goal) {
		return
	}
	goal.ID = mux.Vars(r)["id"]

	if err := h.store.UpdateGoal(goal); err != nil {
		h.storeError(w, err)
		return
	}
	jsonResponse(w, store.GoalProgress{Goal: goal, Progress: h.store.GoalProgress(goal)}, http.StatusOK)
}

func (h *Handler) GetGoalProgress(w http.ResponseWriter, r *http.Request) {
	goal, err := h.store.Goal(mux.Vars(r)["id"])
	if err != nil {
		h.storeError(w, err)
		return
	}
	jsonResponse(w, store.GoalProgress{Goal: goal, Progress: h.store.GoalProgress(goal)}, http.StatusOK)
}

// === Auswertung ===

func (h *Handler) GetWorkload(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, h.store.StudyMinutesBySubject(), http.StatusOK)
}

// Events streamt Änderungen am Store per WebSocket
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	changes := make(chan store.Change, 32)
	unsubscribe := h.store.Subscribe(func(c store.Change) {
		select {
		case changes <- c:
		default:
			h.logger.Warn("Event verworfen, Client zu langsam", zap.String("id", c.ID))
		}
	})
	defer unsubscribe()

	// Leseschleife erkennt geschlossene Verbindungen
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case change := <-changes:
			if err := conn.WriteJSON(change); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}

// Hilfsfunktion für optionale Query-Parameter
func getQueryInt(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}
