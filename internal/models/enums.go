package models

// TaskPriority ist die Priorität einer Aufgabe
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// IsValid prüft die Priorität
func (p TaskPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

func (p TaskPriority) String() string { return string(p) }

// Title gibt die Anzeigebezeichnung zurück
func (p TaskPriority) Title() string {
	switch p {
	case PriorityLow:
		return "Niedrig"
	case PriorityMedium:
		return "Mittel"
	case PriorityHigh:
		return "Hoch"
	default:
		return string(p)
	}
}

// TaskStatus ist der Bearbeitungsstand einer Aufgabe
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
)

// IsValid prüft den Status
func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDone:
		return true
	default:
		return false
	}
}

func (s TaskStatus) String() string { return string(s) }

// Title gibt die Anzeigebezeichnung zurück
func (s TaskStatus) Title() string {
	switch s {
	case StatusPending:
		return "Offen"
	case StatusInProgress:
		return "In Arbeit"
	case StatusDone:
		return "Erledigt"
	default:
		return string(s)
	}
}

// Technique ist die Lernmethode einer Einheit
type Technique string

const (
	TechniquePomodoro         Technique = "pomodoro"
	TechniqueDeepFocus        Technique = "deep_focus"
	TechniqueSpacedRepetition Technique = "spaced_repetition"
)

// IsValid prüft die Lernmethode
func (t Technique) IsValid() bool {
	switch t {
	case TechniquePomodoro, TechniqueDeepFocus, TechniqueSpacedRepetition:
		return true
	default:
		return false
	}
}

func (t Technique) String() string { return string(t) }

// Title gibt die Anzeigebezeichnung zurück
func (t Technique) Title() string {
	switch t {
	case TechniquePomodoro:
		return "Pomodoro"
	case TechniqueDeepFocus:
		return "Tiefenfokus"
	case TechniqueSpacedRepetition:
		return "Verteiltes Wiederholen"
	default:
		return string(t)
	}
}

// GoalType bestimmt, woraus der Fortschritt eines Ziels berechnet wird
type GoalType string

const (
	GoalHoursPerWeek   GoalType = "hours_per_week"
	GoalTasksCompleted GoalType = "tasks_completed"
	GoalAverageGrade   GoalType = "average_grade"
)

// IsValid prüft den Zieltyp
func (g GoalType) IsValid() bool {
	switch g {
	case GoalHoursPerWeek, GoalTasksCompleted, GoalAverageGrade:
		return true
	default:
		return false
	}
}

func (g GoalType) String() string { return string(g) }

// Title gibt die Anzeigebezeichnung zurück
func (g GoalType) Title() string {
	switch g {
	case GoalHoursPerWeek:
		return "Stunden pro Woche"
	case GoalTasksCompleted:
		return "Erledigte Aufgaben"
	case GoalAverageGrade:
		return "Notendurchschnitt"
	default:
		return string(g)
	}
}
