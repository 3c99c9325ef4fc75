// Package store hält die Studiendaten im Speicher und berechnet daraus Kennzahlen.
package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"studienplaner/internal/calendar"
	"studienplaner/internal/models"
)

// Store ist die einzige Quelle für Fächer, Aufgaben, Lerneinheiten, Noten und Ziele.
// Schreibzugriffe sind serialisiert, Lesezugriffe dürfen parallel laufen.
type Store struct {
	mu       sync.RWMutex
	subjects []models.Subject
	tasks    []models.Task
	sessions []models.StudySession
	grades   []models.ExamGrade
	goals    []models.Goal

	clock  calendar.Clock
	logger *zap.Logger
	newID  func() string

	subMu     sync.Mutex
	listeners map[int]func(Change)
	nextSub   int
}

// Option konfiguriert einen Store
type Option func(*Store)

// WithClock setzt die Uhr für Tages- und Wochenberechnungen
func WithClock(c calendar.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithLogger setzt den Logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithIDGenerator ersetzt die UUID-Erzeugung
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// New erstellt einen leeren Store
func New(opts ...Option) *Store {
	s := &Store{
		clock:     calendar.SystemClock{},
		logger:    zap.NewNop(),
		newID:     uuid.NewString,
		listeners: make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Clock gibt die Uhr des Stores zurück
func (s *Store) Clock() calendar.Clock {
	return s.clock
}

// Fächer

// AddSubject legt ein Fach an
func (s *Store) AddSubject(subject models.Subject) (models.Subject, error) {
	if strings.TrimSpace(subject.Name) == "" {
		return models.Subject{}, fmt.Errorf("%w: Fach ohne Namen", ErrInvalidEntity)
	}

	s.mu.Lock()
	if subject.ID == "" {
		subject.ID = s.newID()
	} else if s.subjectIndex(subject.ID) >= 0 {
		s.mu.Unlock()
		return models.Subject{}, fmt.Errorf("%w: Fach %s", ErrDuplicateID, subject.ID)
	}
	s.subjects = append(s.subjects, subject.Clone())
	s.mu.Unlock()

	s.logger.Debug("Fach angelegt", zap.String("id", subject.ID), zap.String("name", subject.Name))
	s.publish(ChangeAdded, EntitySubject, subject.ID)
	return subject, nil
}

// Aufgaben

// AddTask legt eine Aufgabe an; das Fach muss existieren
func (s *Store) AddTask(task models.Task) (models.Task, error) {
	task, err := normalizeTask(task)
	if err != nil {
		return models.Task{}, err
	}

	s.mu.Lock()
	if err := s.checkTaskRefs(task); err != nil {
		s.mu.Unlock()
		return models.Task{}, err
	}
	if task.ID == "" {
		task.ID = s.newID()
	} else if s.taskIndex(task.ID) >= 0 {
		s.mu.Unlock()
		return models.Task{}, fmt.Errorf("%w: Aufgabe %s", ErrDuplicateID, task.ID)
	}
	s.tasks = append(s.tasks, task.Clone())
	s.mu.Unlock()

	s.logger.Debug("Aufgabe angelegt", zap.String("id", task.ID), zap.String("subject_id", task.SubjectID))
	s.publish(ChangeAdded, EntityTask, task.ID)
	return task, nil
}

// UpdateTask ersetzt die Aufgabe mit gleicher ID
func (s *Store) UpdateTask(task models.Task) error {
	task, err := normalizeTask(task)
	if err != nil {
		return err
	}

	s.mu.Lock()
	idx := s.taskIndex(task.ID)
	if idx < 0 {
		s.mu.Unlock()
		s.logger.Warn("Aufgabe für Update nicht gefunden", zap.String("id", task.ID))
		return fmt.Errorf("%w: Aufgabe %s", ErrNotFound, task.ID)
	}
	if err := s.checkTaskRefs(task); err != nil {
		s.mu.Unlock()
		return err
	}
	s.tasks[idx] = task.Clone()
	s.mu.Unlock()

	s.logger.Debug("Aufgabe aktualisiert", zap.String("id", task.ID), zap.String("status", task.Status.String()))
	s.publish(ChangeUpdated, EntityTask, task.ID)
	return nil
}

// RecordTaskCompletion setzt den Status der Aufgabe auf erledigt
func (s *Store) RecordTaskCompletion(taskID string) error {
	s.mu.Lock()
	idx := s.taskIndex(taskID)
	if idx < 0 {
		s.mu.Unlock()
		s.logger.Warn("Aufgabe zum Abschließen nicht gefunden", zap.String("id", taskID))
		return fmt.Errorf("%w: Aufgabe %s", ErrNotFound, taskID)
	}
	s.tasks[idx].Status = models.StatusDone
	s.mu.Unlock()

	s.logger.Debug("Aufgabe erledigt", zap.String("id", taskID))
	s.publish(ChangeUpdated, EntityTask, taskID)
	return nil
}

// Lerneinheiten

// AddSession hängt eine Lerneinheit an
func (s *Store) AddSession(session models.StudySession) (models.StudySession, error) {
	session, err := normalizeSession(session)
	if err != nil {
		return models.StudySession{}, err
	}

	s.mu.Lock()
	if err := s.checkSessionRefs(session); err != nil {
		s.mu.Unlock()
		return models.StudySession{}, err
	}
	if session.ID == "" {
		session.ID = s.newID()
	} else if s.sessionIndex(session.ID) >= 0 {
		s.mu.Unlock()
		return models.StudySession{}, fmt.Errorf("%w: Lerneinheit %s", ErrDuplicateID, session.ID)
	}
	s.sessions = append(s.sessions, session.Clone())
	s.mu.Unlock()

	s.logger.Debug("Lerneinheit angelegt", zap.String("id", session.ID), zap.String("subject_id", session.SubjectID))
	s.publish(ChangeAdded, EntitySession, session.ID)
	return session, nil
}

// ScheduleOrUpdateSession ersetzt die Lerneinheit mit gleicher ID oder hängt sie an
func (s *Store) ScheduleOrUpdateSession(session models.StudySession) (models.StudySession, error) {
	session, err := normalizeSession(session)
	if err != nil {
		return models.StudySession{}, err
	}

	s.mu.Lock()
	if err := s.checkSessionRefs(session); err != nil {
		s.mu.Unlock()
		return models.StudySession{}, err
	}
	kind := ChangeAdded
	if session.ID == "" {
		session.ID = s.newID()
	}
	if idx := s.sessionIndex(session.ID); idx >= 0 {
		s.sessions[idx] = session.Clone()
		kind = ChangeUpdated
	} else {
		s.sessions = append(s.sessions, session.Clone())
	}
	s.mu.Unlock()

	s.logger.Debug("Lerneinheit gespeichert", zap.String("id", session.ID), zap.String("change", string(kind)))
	s.publish(kind, EntitySession, session.ID)
	return session, nil
}

// FinishSession trägt tatsächlichen Start, Ende und Notizen einer bestehenden Einheit ein
func (s *Store) FinishSession(sessionID string, start, end time.Time, notes string) (models.StudySession, error) {
	if end.Before(start) {
		return models.StudySession{}, fmt.Errorf("%w: Ende vor Start", ErrInvalidEntity)
	}

	s.mu.Lock()
	idx := s.sessionIndex(sessionID)
	if idx < 0 {
		s.mu.Unlock()
		s.logger.Warn("Lerneinheit zum Abschließen nicht gefunden", zap.String("id", sessionID))
		return models.StudySession{}, fmt.Errorf("%w: Lerneinheit %s", ErrNotFound, sessionID)
	}
	session := s.sessions[idx].Clone()
	session.Finish(start, end)
	if notes != "" {
		session.Notes = notes
	}
	s.sessions[idx] = session.Clone()
	s.mu.Unlock()

	s.logger.Debug("Lerneinheit abgeschlossen", zap.String("id", sessionID), zap.Duration("dauer", end.Sub(start)))
	s.publish(ChangeUpdated, EntitySession, sessionID)
	return session, nil
}

// Noten

// AddGrade hängt eine Note an
func (s *Store) AddGrade(grade models.ExamGrade) (models.ExamGrade, error) {
	if strings.TrimSpace(grade.Title) == "" {
		return models.ExamGrade{}, fmt.Errorf("%w: Note ohne Titel", ErrInvalidEntity)
	}
	if grade.Score < 0 {
		return models.ExamGrade{}, fmt.Errorf("%w: negative Punktzahl", ErrInvalidEntity)
	}

	s.mu.Lock()
	if s.subjectIndex(grade.SubjectID) < 0 {
		s.mu.Unlock()
		return models.ExamGrade{}, fmt.Errorf("%w: Fach %s", ErrUnknownReference, grade.SubjectID)
	}
	if grade.ID == "" {
		grade.ID = s.newID()
	} else if s.gradeIndex(grade.ID) >= 0 {
		s.mu.Unlock()
		return models.ExamGrade{}, fmt.Errorf("%w: Note %s", ErrDuplicateID, grade.ID)
	}
	s.grades = append(s.grades, grade)
	s.mu.Unlock()

	s.logger.Debug("Note eingetragen", zap.String("id", grade.ID), zap.Float64("prozent", grade.Percentage()))
	s.publish(ChangeAdded, EntityGrade, grade.ID)
	return grade, nil
}

// Ziele

// AddGoal legt ein Ziel an; ohne Zeitraum gilt die aktuelle ISO-Woche
func (s *Store) AddGoal(goal models.Goal) (models.Goal, error) {
	if !goal.Type.IsValid() {
		return models.Goal{}, fmt.Errorf("%w: Zieltyp %q", ErrInvalidEntity, goal.Type)
	}
	if goal.Period.IsZero() {
		goal.Period = calendar.ThisWeek(s.clock)
	}

	s.mu.Lock()
	if goal.ID == "" {
		goal.ID = s.newID()
	} else if s.goalIndex(goal.ID) >= 0 {
		s.mu.Unlock()
		return models.Goal{}, fmt.Errorf("%w: Ziel %s", ErrDuplicateID, goal.ID)
	}
	s.goals = append(s.goals, goal)
	s.mu.Unlock()

	s.logger.Debug("Ziel angelegt", zap.String("id", goal.ID), zap.String("type", goal.Type.String()))
	s.publish(ChangeAdded, EntityGoal, goal.ID)
	return goal, nil
}

// UpdateGoal ersetzt das Ziel mit gleicher ID; ohne Zeitraum bleibt der bisherige
func (s *Store) UpdateGoal(goal models.Goal) error {
	if !goal.Type.IsValid() {
		return fmt.Errorf("%w: Zieltyp %q", ErrInvalidEntity, goal.Type)
	}

	s.mu.Lock()
	idx := s.goalIndex(goal.ID)
	if idx < 0 {
		s.mu.Unlock()
		s.logger.Warn("Ziel für Update nicht gefunden", zap.String("id", goal.ID))
		return fmt.Errorf("%w: Ziel %s", ErrNotFound, goal.ID)
	}
	if goal.Period.IsZero() {
		goal.Period = s.goals[idx].Period
	}
	s.goals[idx] = goal
	s.mu.Unlock()

	s.logger.Debug("Ziel aktualisiert", zap.String("id", goal.ID))
	s.publish(ChangeUpdated, EntityGoal, goal.ID)
	return nil
}

// Validierung

func normalizeTask(task models.Task) (models.Task, error) {
	if strings.TrimSpace(task.Title) == "" {
		return task, fmt.Errorf("%w: Aufgabe ohne Titel", ErrInvalidEntity)
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if task.Status == "" {
		task.Status = models.StatusPending
	}
	if !task.Priority.IsValid() {
		return task, fmt.Errorf("%w: Priorität %q", ErrInvalidEntity, task.Priority)
	}
	if !task.Status.IsValid() {
		return task, fmt.Errorf("%w: Status %q", ErrInvalidEntity, task.Status)
	}
	return task, nil
}

func normalizeSession(session models.StudySession) (models.StudySession, error) {
	if session.Technique == "" {
		session.Technique = models.TechniquePomodoro
	}
	if !session.Technique.IsValid() {
		return session, fmt.Errorf("%w: Lernmethode %q", ErrInvalidEntity, session.Technique)
	}
	if session.PlannedDuration < 0 {
		return session, fmt.Errorf("%w: negative geplante Dauer", ErrInvalidEntity)
	}
	if (session.ActualStart == nil) != (session.ActualEnd == nil) {
		return session, fmt.Errorf("%w: tatsächlicher Start und Ende nur gemeinsam", ErrInvalidEntity)
	}
	if d, ok := session.ActualDuration(); ok && d < 0 {
		return session, fmt.Errorf("%w: Ende vor Start", ErrInvalidEntity)
	}
	return session, nil
}

// checkTaskRefs erwartet gehaltenen Lock
func (s *Store) checkTaskRefs(task models.Task) error {
	if s.subjectIndex(task.SubjectID) < 0 {
		return fmt.Errorf("%w: Fach %s", ErrUnknownReference, task.SubjectID)
	}
	return nil
}

// checkSessionRefs erwartet gehaltenen Lock
func (s *Store) checkSessionRefs(session models.StudySession) error {
	if s.subjectIndex(session.SubjectID) < 0 {
		return fmt.Errorf("%w: Fach %s", ErrUnknownReference, session.SubjectID)
	}
	if session.TaskID != "" && s.taskIndex(session.TaskID) < 0 {
		return fmt.Errorf("%w: Aufgabe %s", ErrUnknownReference, session.TaskID)
	}
	return nil
}

func (s *Store) subjectIndex(id string) int {
	for i := range s.subjects {
		if s.subjects[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) taskIndex(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) sessionIndex(id string) int {
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) gradeIndex(id string) int {
	for i := range s.grades {
		if s.grades[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) goalIndex(id string) int {
	for i := range s.goals {
		if s.goals[i].ID == id {
			return i
		}
	}
	return -1
}
