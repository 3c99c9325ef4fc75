package store

import (
	"fmt"
	"sort"
	"time"

	"studienplaner/internal/calendar"
	"studienplaner/internal/models"
)

// workloadScaleMinutes entspricht einem vollen Balken in der Fächerauslastung
const workloadScaleMinutes = 600.0

// DaySessions fasst die Lerneinheiten eines Kalendertags zusammen
type DaySessions struct {
	Day      time.Time             `json:"day"`
	Sessions []models.StudySession `json:"sessions"`
}

// GoalProgress koppelt ein Ziel an seinen aktuell berechneten Fortschritt
type GoalProgress struct {
	Goal     models.Goal `json:"goal"`
	Progress float64     `json:"progress"`
}

// SubjectWorkload ist die Lernzeit pro Fach
type SubjectWorkload struct {
	SubjectID   string  `json:"subject_id"`
	SubjectName string  `json:"subject_name"`
	Minutes     float64 `json:"minutes"`
	Ratio       float64 `json:"ratio"`
}

// Summary enthält die Kennzahlen für die Übersicht
type Summary struct {
	WeeklyStudyHours    float64 `json:"weekly_study_hours"`
	OverallAverageGrade float64 `json:"overall_average_grade"`
	PendingTasks        int     `json:"pending_tasks"`
	CompletedSessions   int     `json:"completed_sessions"`
	SessionsToday       int     `json:"sessions_today"`
	TasksDueToday       int     `json:"tasks_due_today"`
}

// Sammlungen

// Subjects gibt alle Fächer in Einfügereihenfolge zurück
func (s *Store) Subjects() []models.Subject {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Subject, len(s.subjects))
	for i, subject := range s.subjects {
		out[i] = subject.Clone()
	}
	return out
}

// Tasks gibt alle Aufgaben in Einfügereihenfolge zurück
func (s *Store) Tasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterTasks(func(models.Task) bool { return true })
}

// Sessions gibt alle Lerneinheiten in Einfügereihenfolge zurück
func (s *Store) Sessions() []models.StudySession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterSessions(func(models.StudySession) bool { return true })
}

// Grades gibt alle Noten in Einfügereihenfolge zurück
func (s *Store) Grades() []models.ExamGrade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ExamGrade{}, s.grades...)
}

// Goals gibt alle Ziele in Einfügereihenfolge zurück
func (s *Store) Goals() []models.Goal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Goal{}, s.goals...)
}

// Subject sucht ein Fach per ID
func (s *Store) Subject(id string) (models.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.subjectIndex(id); idx >= 0 {
		return s.subjects[idx].Clone(), nil
	}
	return models.Subject{}, fmt.Errorf("%w: Fach %s", ErrNotFound, id)
}

// Task sucht eine Aufgabe per ID
func (s *Store) Task(id string) (models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.taskIndex(id); idx >= 0 {
		return s.tasks[idx].Clone(), nil
	}
	return models.Task{}, fmt.Errorf("%w: Aufgabe %s", ErrNotFound, id)
}

// Session sucht eine Lerneinheit per ID
func (s *Store) Session(id string) (models.StudySession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.sessionIndex(id); idx >= 0 {
		return s.sessions[idx].Clone(), nil
	}
	return models.StudySession{}, fmt.Errorf("%w: Lerneinheit %s", ErrNotFound, id)
}

// Goal sucht ein Ziel per ID
func (s *Store) Goal(id string) (models.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.goalIndex(id); idx >= 0 {
		return s.goals[idx], nil
	}
	return models.Goal{}, fmt.Errorf("%w: Ziel %s", ErrNotFound, id)
}

// Aufgaben

// TasksForSubject gibt die Aufgaben eines Fachs zurück
func (s *Store) TasksForSubject(subjectID string) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterTasks(func(t models.Task) bool { return t.SubjectID == subjectID })
}

// TasksDueOn gibt die Aufgaben zurück, die am Kalendertag von date fällig sind
func (s *Store) TasksDueOn(date time.Time) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasksDueOn(date)
}

// TasksDueToday gibt die heute fälligen Aufgaben zurück
func (s *Store) TasksDueToday() []models.Task {
	return s.TasksDueOn(s.clock.Now())
}

// TasksWithStatus filtert Aufgaben nach Status
func (s *Store) TasksWithStatus(status models.TaskStatus) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterTasks(func(t models.Task) bool { return t.Status == status })
}

// CompletedTasks gibt die erledigten Aufgaben zurück
func (s *Store) CompletedTasks() []models.Task {
	return s.TasksWithStatus(models.StatusDone)
}

// PendingTaskCount zählt alle nicht erledigten Aufgaben
func (s *Store) PendingTaskCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingTaskCount()
}

// PriorityTasks gibt offene Aufgaben hoher Priorität zurück: datierte vor undatierten,
// dann nach Fälligkeit, dann nach Titel
func (s *Store) PriorityTasks() []models.Task {
	s.mu.RLock()
	out := s.filterTasks(func(t models.Task) bool {
		return t.Priority == models.PriorityHigh && t.Status != models.StatusDone
	})
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.DueDate != nil && b.DueDate != nil:
			if !a.DueDate.Equal(*b.DueDate) {
				return a.DueDate.Before(*b.DueDate)
			}
			return a.Title < b.Title
		case a.DueDate != nil:
			return true
		case b.DueDate != nil:
			return false
		default:
			return a.Title < b.Title
		}
	})
	return out
}

// Lerneinheiten

// SessionsOnDate gibt die Einheiten eines Kalendertags aufsteigend nach Beginn zurück
func (s *Store) SessionsOnDate(date time.Time) []models.StudySession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionsOnDate(date)
}

// CompletedSessions gibt die abgeschlossenen Einheiten zurück
func (s *Store) CompletedSessions() []models.StudySession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterSessions(models.StudySession.Completed)
}

// UpcomingSessions gibt offene Einheiten ab heute aufsteigend nach Beginn zurück
func (s *Store) UpcomingSessions() []models.StudySession {
	today := calendar.StartOfDay(s.clock.Now())

	s.mu.RLock()
	out := s.filterSessions(func(session models.StudySession) bool {
		return !session.Completed() && !session.PlannedStart.Before(today)
	})
	s.mu.RUnlock()

	sortByStart(out)
	return out
}

// UpcomingSessionsByDay gruppiert alle Einheiten nach Kalendertag (Zeitzone der Uhr),
// Tage und Einheiten jeweils aufsteigend
func (s *Store) UpcomingSessionsByDay() []DaySessions {
	loc := s.clock.Now().Location()

	s.mu.RLock()
	sessions := s.filterSessions(func(models.StudySession) bool { return true })
	s.mu.RUnlock()

	sortByStart(sessions)
	var out []DaySessions
	for _, session := range sessions {
		day := calendar.StartOfDay(session.PlannedStart.In(loc))
		if n := len(out); n > 0 && out[n-1].Day.Equal(day) {
			out[n-1].Sessions = append(out[n-1].Sessions, session)
			continue
		}
		out = append(out, DaySessions{Day: day, Sessions: []models.StudySession{session}})
	}
	return out
}

// WeeklyStudyHours summiert die Lernzeit der aktuellen ISO-Woche in Stunden
func (s *Store) WeeklyStudyHours() float64 {
	week := calendar.ThisWeek(s.clock)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hoursIn(week)
}

// StudyMinutesBySubject liefert die Lernzeit je Fach in Fächerreihenfolge
func (s *Store) StudyMinutesBySubject() []SubjectWorkload {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]SubjectWorkload, 0, len(s.subjects))
	for _, subject := range s.subjects {
		var total time.Duration
		for _, session := range s.sessions {
			if session.SubjectID == subject.ID {
				total += session.EffectiveDuration()
			}
		}
		minutes := total.Minutes()
		out = append(out, SubjectWorkload{
			SubjectID:   subject.ID,
			SubjectName: subject.Name,
			Minutes:     minutes,
			Ratio:       models.Clamp01(minutes / workloadScaleMinutes),
		})
	}
	return out
}

// Noten

// AverageGrade ist der mittlere Prozentwert der Noten eines Fachs; 0 ohne Noten
func (s *Store) AverageGrade(subjectID string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return averagePercentage(s.grades, func(g models.ExamGrade) bool { return g.SubjectID == subjectID })
}

// OverallAverageGrade ist der mittlere Prozentwert aller Noten; 0 ohne Noten
func (s *Store) OverallAverageGrade() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return averagePercentage(s.grades, func(models.ExamGrade) bool { return true })
}

// RecentGrades gibt bis zu limit Noten absteigend nach Datum zurück; limit <= 0 heißt alle
func (s *Store) RecentGrades(limit int) []models.ExamGrade {
	out := s.Grades()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Ziele

// GoalProgress berechnet den Fortschritt eines Ziels bei jedem Aufruf neu aus den
// aktuellen Daten. Ergebnis liegt immer in [0, 1].
func (s *Store) GoalProgress(goal models.Goal) float64 {
	now := s.clock.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.goalProgress(goal, now)
}

// GoalsWithProgress gibt alle Ziele mit frisch berechnetem Fortschritt zurück
func (s *Store) GoalsWithProgress() []GoalProgress {
	now := s.clock.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]GoalProgress, 0, len(s.goals))
	for _, goal := range s.goals {
		out = append(out, GoalProgress{Goal: goal, Progress: s.goalProgress(goal, now)})
	}
	return out
}

// Summary liefert die Kennzahlen der Übersicht aus einem konsistenten Stand
func (s *Store) Summary() Summary {
	now := s.clock.Now()
	week := calendar.WeekOf(now)

	s.mu.RLock()
	defer s.mu.RUnlock()

	completed := 0
	for _, session := range s.sessions {
		if session.Completed() {
			completed++
		}
	}
	return Summary{
		WeeklyStudyHours:    s.hoursIn(week),
		OverallAverageGrade: averagePercentage(s.grades, func(models.ExamGrade) bool { return true }),
		PendingTasks:        s.pendingTaskCount(),
		CompletedSessions:   completed,
		SessionsToday:       len(s.sessionsOnDate(now)),
		TasksDueToday:       len(s.tasksDueOn(now)),
	}
}

// Hilfsfunktionen, erwarten gehaltenen Lock

func (s *Store) goalProgress(goal models.Goal, now time.Time) float64 {
	if goal.TargetValue <= 0 {
		return 0
	}

	switch goal.Type {
	case models.GoalHoursPerWeek:
		return models.Clamp01(s.hoursIn(goal.Period) / goal.TargetValue)
	case models.GoalTasksCompleted:
		completed := 0
		for _, task := range s.tasks {
			ref := now
			if task.DueDate != nil {
				ref = *task.DueDate
			}
			if task.Status == models.StatusDone && goal.Period.Contains(ref) {
				completed++
			}
		}
		return models.Clamp01(float64(completed) / goal.TargetValue)
	case models.GoalAverageGrade:
		avg := averagePercentage(s.grades, func(g models.ExamGrade) bool { return goal.Period.Contains(g.Date) })
		return models.Clamp01(avg / goal.TargetValue)
	default:
		return 0
	}
}

func (s *Store) hoursIn(period calendar.Interval) float64 {
	var total time.Duration
	for _, session := range s.sessions {
		if period.Contains(session.PlannedStart) {
			total += session.EffectiveDuration()
		}
	}
	return total.Hours()
}

func (s *Store) tasksDueOn(date time.Time) []models.Task {
	return s.filterTasks(func(t models.Task) bool {
		return t.DueDate != nil && calendar.SameDay(date, *t.DueDate)
	})
}

func (s *Store) sessionsOnDate(date time.Time) []models.StudySession {
	out := s.filterSessions(func(session models.StudySession) bool {
		return calendar.SameDay(date, session.PlannedStart)
	})
	sortByStart(out)
	return out
}

func (s *Store) pendingTaskCount() int {
	n := 0
	for _, task := range s.tasks {
		if task.Status != models.StatusDone {
			n++
		}
	}
	return n
}

func (s *Store) filterTasks(keep func(models.Task) bool) []models.Task {
	out := []models.Task{}
	for _, task := range s.tasks {
		if keep(task) {
			out = append(out, task.Clone())
		}
	}
	return out
}

func (s *Store) filterSessions(keep func(models.StudySession) bool) []models.StudySession {
	out := []models.StudySession{}
	for _, session := range s.sessions {
		if keep(session) {
			out = append(out, session.Clone())
		}
	}
	return out
}

func averagePercentage(grades []models.ExamGrade, keep func(models.ExamGrade) bool) float64 {
	total, n := 0.0, 0
	for _, g := range grades {
		if keep(g) {
			total += g.Percentage()
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

func sortByStart(sessions []models.StudySession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].PlannedStart.Before(sessions[j].PlannedStart)
	})
}
