package api

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// NewRouter erstellt den HTTP-Router mit allen Endpoints
func NewRouter(h *Handler) http.Handler {
	r := mux.NewRouter()
	r.Use(h.logRequests)

	// API-Version
	api := r.PathPrefix("/api/v1").Subrouter()

	// System
	api.HandleFunc("/health", h.HealthCheck).Methods("GET")
	api.HandleFunc("/summary", h.GetSummary).Methods("GET")
	api.HandleFunc("/snapshot", h.SaveSnapshot).Methods("POST")
	api.HandleFunc("/events", h.Events).Methods("GET")

	// Fächer
	api.HandleFunc("/subjects", h.GetSubjects).Methods("GET")
	api.HandleFunc("/subjects", h.CreateSubject).Methods("POST")
	api.HandleFunc("/subjects/{id}/tasks", h.GetSubjectTasks).Methods("GET")
	api.HandleFunc("/subjects/{id}/average", h.GetSubjectAverage).Methods("GET")

	// Aufgaben
	api.HandleFunc("/tasks", h.GetTasks).Methods("GET")
	api.HandleFunc("/tasks", h.CreateTask).Methods("POST")
	api.HandleFunc("/tasks/priority", h.GetPriorityTasks).Methods("GET")
	api.HandleFunc("/tasks/{id}", h.UpdateTask).Methods("PUT")
	api.HandleFunc("/tasks/{id}/complete", h.CompleteTask).Methods("POST")

	// Lerneinheiten
	api.HandleFunc("/sessions", h.GetSessions).Methods("GET")
	api.HandleFunc("/sessions", h.ScheduleSession).Methods("POST")
	api.HandleFunc("/sessions/by-day", h.GetSessionsByDay).Methods("GET")
	api.HandleFunc("/sessions/weekly-hours", h.GetWeeklyHours).Methods("GET")
	api.HandleFunc("/sessions/{id}/finish", h.FinishSession).Methods("POST")

	// Noten
	api.HandleFunc("/grades", h.GetGrades).Methods("GET")
	api.HandleFunc("/grades", h.CreateGrade).Methods("POST")
	api.HandleFunc("/grades/average", h.GetGradeAverage).Methods("GET")

	// Ziele
	api.HandleFunc("/goals", h.GetGoals).Methods("GET")
	api.HandleFunc("/goals", h.CreateGoal).Methods("POST")
	api.HandleFunc("/goals/{id}", h.UpdateGoal).Methods("PUT")
	api.HandleFunc("/goals/{id}/progress", h.GetGoalProgress).Methods("GET")

	// Auswertung
	api.HandleFunc("/workload", h.GetWorkload).Methods("GET")

	// CORS für lokale Entwicklung
	c := cors.New(cors.Options{
		AllowedOrigins:   h.config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	return c.Handler(r)
}

// statusRecorder merkt sich den Statuscode für das Request-Log
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// Hijack wird für den WebSocket-Upgrade gebraucht
func (rec *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rec.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack nicht unterstützt")
	}
	rec.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		h.logger.Debug("Anfrage",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("dauer", time.Since(start)))
	})
}
