package models

import (
	"encoding/json"
	"math"
	"time"

	"studienplaner/internal/calendar"
)

// DefaultMaxScore ist die Standard-Höchstpunktzahl einer Prüfung
const DefaultMaxScore = 10.0

// Subject repräsentiert ein Studienfach
type Subject struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Professor string   `json:"professor,omitempty"`
	Category  string   `json:"category,omitempty"`
	ColorHex  string   `json:"color_hex,omitempty"`
	Icon      string   `json:"icon,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// Task repräsentiert eine Aufgabe zu einem Fach
type Task struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Details   string       `json:"details"`
	SubjectID string       `json:"subject_id"`
	DueDate   *time.Time   `json:"due_date,omitempty"`
	Priority  TaskPriority `json:"priority"`
	Status    TaskStatus   `json:"status"` // pending, in_progress, done
}

// NewTask erstellt eine offene Aufgabe mit mittlerer Priorität
func NewTask(title, subjectID string) Task {
	return Task{
		Title:     title,
		SubjectID: subjectID,
		Priority:  PriorityMedium,
		Status:    StatusPending,
	}
}

// IsDone meldet, ob die Aufgabe erledigt ist
func (t Task) IsDone() bool {
	return t.Status == StatusDone
}

// StudySession repräsentiert eine geplante oder abgeschlossene Lerneinheit
type StudySession struct {
	ID                string        `json:"id"`
	SubjectID         string        `json:"subject_id"`
	TaskID            string        `json:"task_id,omitempty"`
	PlannedStart      time.Time     `json:"planned_start"`
	PlannedDuration   time.Duration `json:"-"`
	ActualStart       *time.Time    `json:"actual_start,omitempty"`
	ActualEnd         *time.Time    `json:"actual_end,omitempty"`
	Technique         Technique     `json:"technique"`
	Notes             string        `json:"notes"`
	ProductivityScore *int          `json:"productivity_score,omitempty"`
}

// NewStudySession plant eine Pomodoro-Einheit
func NewStudySession(subjectID string, plannedStart time.Time, plannedDuration time.Duration) StudySession {
	return StudySession{
		SubjectID:       subjectID,
		PlannedStart:    plannedStart,
		PlannedDuration: plannedDuration,
		Technique:       TechniquePomodoro,
	}
}

// ActualDuration gibt die tatsächliche Dauer zurück, falls Start und Ende gesetzt sind
func (s StudySession) ActualDuration() (time.Duration, bool) {
	if s.ActualStart == nil || s.ActualEnd == nil {
		return 0, false
	}
	return s.ActualEnd.Sub(*s.ActualStart), true
}

// EffectiveDuration ist die tatsächliche Dauer, sonst die geplante
func (s StudySession) EffectiveDuration() time.Duration {
	if d, ok := s.ActualDuration(); ok {
		return d
	}
	return s.PlannedDuration
}

// Finish setzt tatsächlichen Start und Ende gemeinsam
func (s *StudySession) Finish(start, end time.Time) {
	s.ActualStart = &start
	s.ActualEnd = &end
}

// Completed meldet, ob die Einheit abgeschlossen wurde
func (s StudySession) Completed() bool {
	return s.ActualEnd != nil
}

// MarshalJSON kodiert Dauern in Sekunden
func (s StudySession) MarshalJSON() ([]byte, error) {
	type alias StudySession
	var actual *float64
	if d, ok := s.ActualDuration(); ok {
		secs := d.Seconds()
		actual = &secs
	}
	return json.Marshal(struct {
		alias
		PlannedDurationSeconds float64  `json:"planned_duration_seconds"`
		ActualDurationSeconds  *float64 `json:"actual_duration_seconds,omitempty"`
	}{
		alias:                  alias(s),
		PlannedDurationSeconds: s.PlannedDuration.Seconds(),
		ActualDurationSeconds:  actual,
	})
}

// UnmarshalJSON liest planned_duration_seconds
func (s *StudySession) UnmarshalJSON(data []byte) error {
	type alias StudySession
	aux := struct {
		*alias
		PlannedDurationSeconds float64 `json:"planned_duration_seconds"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.PlannedDuration = time.Duration(aux.PlannedDurationSeconds * float64(time.Second))
	return nil
}

// ExamGrade repräsentiert eine Prüfungsnote
type ExamGrade struct {
	ID        string    `json:"id"`
	SubjectID string    `json:"subject_id"`
	Title     string    `json:"title"`
	Date      time.Time `json:"date"`
	Score     float64   `json:"score"`
	MaxScore  float64   `json:"max_score"`
	Notes     string    `json:"notes"`
}

// NewExamGrade erstellt eine Note mit Standard-Höchstpunktzahl
func NewExamGrade(subjectID, title string, date time.Time, score float64) ExamGrade {
	return ExamGrade{
		SubjectID: subjectID,
		Title:     title,
		Date:      date,
		Score:     score,
		MaxScore:  DefaultMaxScore,
	}
}

// Percentage rechnet die Note in Prozent um; 0 bei MaxScore <= 0
func (g ExamGrade) Percentage() float64 {
	if g.MaxScore <= 0 {
		return 0
	}
	return g.Score / g.MaxScore * 100
}

// Goal repräsentiert ein Lernziel für einen Zeitraum
type Goal struct {
	ID            string            `json:"id"`
	Type          GoalType          `json:"type"`
	TargetValue   float64           `json:"target_value"`
	Period        calendar.Interval `json:"period"`
	ProgressValue float64           `json:"progress_value"`
}

// NewGoal erstellt ein Ziel ohne Fortschritt
func NewGoal(goalType GoalType, target float64, period calendar.Interval) Goal {
	return Goal{
		Type:        goalType,
		TargetValue: target,
		Period:      period,
	}
}

// ProgressRatio ist ProgressValue/TargetValue, begrenzt auf [0, 1]
func (g Goal) ProgressRatio() float64 {
	if g.TargetValue <= 0 {
		return 0
	}
	return Clamp01(g.ProgressValue / g.TargetValue)
}

// Clamp01 begrenzt v auf [0, 1]
func Clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Clone kopiert das Fach samt Tags
func (s Subject) Clone() Subject {
	if s.Tags != nil {
		s.Tags = append([]string(nil), s.Tags...)
	}
	return s
}

// Clone kopiert die Aufgabe samt Fälligkeitsdatum
func (t Task) Clone() Task {
	t.DueDate = cloneTime(t.DueDate)
	return t
}

// Clone kopiert die Lerneinheit samt optionaler Felder
func (s StudySession) Clone() StudySession {
	s.ActualStart = cloneTime(s.ActualStart)
	s.ActualEnd = cloneTime(s.ActualEnd)
	if s.ProductivityScore != nil {
		v := *s.ProductivityScore
		s.ProductivityScore = &v
	}
	return s
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
